package main

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pivolan/media_ratings/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext(t *testing.T, url string) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", url, nil)
	return c
}

func testConfig() *config.Config {
	return &config.Config{
		DefaultFromDate: "2018-07-01",
		DefaultToDate:   "2018-12-30",
	}
}

func TestParseFilterDefaults(t *testing.T) {
	c := testContext(t, "/api/ratings/themes")

	f, err := parseFilter(c, testConfig())
	require.NoError(t, err)
	assert.Equal(t, date(2018, time.July, 1), f.From)
	assert.Equal(t, date(2018, time.December, 30), f.To)
	assert.Nil(t, f.KeyWords)
}

func TestParseFilterListParams(t *testing.T) {
	c := testContext(t, `/api/ratings/themes?key_word__in=["brandX","brandY"]&region__in=["west"]&posted_date__gte=2018-08-01`)

	f, err := parseFilter(c, testConfig())
	require.NoError(t, err)
	assert.Equal(t, []string{"brandX", "brandY"}, f.KeyWords)
	assert.Equal(t, []string{"west"}, f.Regions)
	assert.Equal(t, date(2018, time.August, 1), f.From)
}

func TestParseFilterBadList(t *testing.T) {
	c := testContext(t, "/api/ratings/themes?key_word__in=not-json")
	_, err := parseFilter(c, testConfig())
	assert.Error(t, err)
}

func TestParseFilterBadDate(t *testing.T) {
	c := testContext(t, "/api/ratings/themes?posted_date__gte=07-01-2018")
	_, err := parseFilter(c, testConfig())
	assert.Error(t, err)
}

func TestValidDimension(t *testing.T) {
	for _, dim := range []string{"key_word", "object", "publication", "region", "type", "topic"} {
		assert.True(t, validDimension(dim))
	}
	assert.False(t, validDimension("views; drop table"))
	assert.False(t, validDimension(""))
}
