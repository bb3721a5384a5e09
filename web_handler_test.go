package main

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestHandlers(t *testing.T) (*Handlers, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	return NewHandlers(testConfig(), db), mock
}

func TestThemesRatingEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, mock := newTestHandlers(t)
	router := setupRouter(h)

	mock.ExpectQuery("SELECT key_word AS `key`, count\\(\\*\\) AS amount").
		WillReturnRows(sqlmock.NewRows([]string{"key", "amount"}).
			AddRow("brandX", 12).
			AddRow("brandY", 5))

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/ratings/themes", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, 200, w.Code)
	var rows []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "brandX", rows[0]["aggregator"])
	assert.Equal(t, float64(12), rows[0]["publication_amount"])
}

func TestThemesRatingEndpointCSV(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, mock := newTestHandlers(t)
	router := setupRouter(h)

	mock.ExpectQuery("count\\(\\*\\) AS amount").
		WillReturnRows(sqlmock.NewRows([]string{"key", "amount"}).
			AddRow("brandX", 12))

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/ratings/themes?format=csv", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, 200, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".csv")
	assert.Contains(t, w.Body.String(), "brandX;12")
}

func TestThemesRatingEndpointBadFilter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, _ := newTestHandlers(t)
	router := setupRouter(h)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/ratings/themes?key_word__in=broken", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, 400, w.Code)
}

func TestAdmixerGeneralRejectsUnknownDimension(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, _ := newTestHandlers(t)
	router := setupRouter(h)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/social/admixer/general?aggregator=views;drop", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, 400, w.Code)
}

func TestAnalyticsCacheEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, mock := newTestHandlers(t)
	router := setupRouter(h)

	mock.ExpectQuery("SELECT \\* FROM .analytics_cache_rows.").
		WillReturnRows(sqlmock.NewRows([]string{"id", "track_id", "views", "uniques"}).
			AddRow(1, "t1", 30, 10))

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/analytics/cache", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, 200, w.Code)
	var rows []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "t1", rows[0]["track_id"])
	assert.Equal(t, float64(30), rows[0]["views"])
}
