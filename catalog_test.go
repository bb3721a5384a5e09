package main

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestCatalog(t *testing.T) (*Catalog, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	return NewCatalog(db), mock
}

func testFilter() CatalogFilter {
	return CatalogFilter{
		From: date(2018, time.July, 1),
		To:   date(2018, time.December, 30),
	}
}

func TestCountByDimension(t *testing.T) {
	catalog, mock := newTestCatalog(t)

	mock.ExpectQuery("SELECT key_word AS `key`, count\\(\\*\\) AS amount FROM `publications`").
		WillReturnRows(sqlmock.NewRows([]string{"key", "amount"}).
			AddRow("brandX", 12).
			AddRow("brandY", 5))

	rows, err := catalog.CountByDimension("key_word", testFilter())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "brandX", rows[0].Key)
	assert.Equal(t, int64(12), rows[0].Amount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountByDimensionAppliesFilters(t *testing.T) {
	catalog, mock := newTestCatalog(t)

	f := testFilter()
	f.KeyWords = []string{"brandX"}
	f.Regions = []string{"west"}

	mock.ExpectQuery("key_word IN .* AND region IN").
		WillReturnRows(sqlmock.NewRows([]string{"key", "amount"}))

	_, err := catalog.CountByDimension("topic", f)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestKeyTrackPairs(t *testing.T) {
	catalog, mock := newTestCatalog(t)

	mock.ExpectQuery("JOIN tracked_publications ON tracked_publications.publication_id = publications.id").
		WillReturnRows(sqlmock.NewRows([]string{"key", "track_id"}).
			AddRow("brandX", "t1").
			AddRow("brandX", "t2").
			AddRow("brandY", "t3"))

	groups, err := catalog.KeyTrackPairs("key_word", testFilter())
	require.NoError(t, err)
	assert.Equal(t, []string{"t1", "t2"}, groups["brandX"])
	assert.Equal(t, []string{"t3"}, groups["brandY"])
}

func TestThemeRating(t *testing.T) {
	catalog, mock := newTestCatalog(t)

	mock.ExpectQuery("count\\(\\*\\) AS amount").
		WillReturnRows(sqlmock.NewRows([]string{"key", "amount"}).
			AddRow("economy", 7).
			AddRow("sport", 3))

	rating, err := catalog.ThemeRating(date(2018, time.July, 1), date(2018, time.December, 30))
	require.NoError(t, err)
	assert.Equal(t, int64(7), rating["economy"])
	assert.Equal(t, int64(3), rating["sport"])
}

func TestAllTrackIDs(t *testing.T) {
	catalog, mock := newTestCatalog(t)

	mock.ExpectQuery("SELECT DISTINCT").
		WillReturnRows(sqlmock.NewRows([]string{"track_id"}).
			AddRow("t1").
			AddRow("t2"))

	ids, err := catalog.AllTrackIDs()
	require.NoError(t, err)
	assert.Equal(t, []string{"t1", "t2"}, ids)
}

func TestCachedAnalytics(t *testing.T) {
	catalog, mock := newTestCatalog(t)

	mock.ExpectQuery("SELECT \\* FROM .analytics_cache_rows. WHERE track_id IN").
		WillReturnRows(sqlmock.NewRows([]string{"id", "track_id", "platform", "views", "uniques"}).
			AddRow(1, "t1", 5, 30, 10).
			AddRow(2, "t2", 7, 12, 4))

	rows, err := catalog.CachedAnalytics([]string{"t1", "t2"})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "t1", rows[0].TrackID)
	assert.Equal(t, int64(30), rows[0].Views)
	assert.Equal(t, int64(4), rows[1].Uniques)
}

func TestCachedAnalyticsNoFilter(t *testing.T) {
	catalog, mock := newTestCatalog(t)

	// без фильтра отдается весь кеш
	mock.ExpectQuery("SELECT \\* FROM .analytics_cache_rows.").
		WillReturnRows(sqlmock.NewRows([]string{"id", "track_id"}).AddRow(1, "t1"))

	rows, err := catalog.CachedAnalytics(nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "t1", rows[0].TrackID)
}
