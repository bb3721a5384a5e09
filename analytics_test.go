package main

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildStatsQuery(t *testing.T) {
	from := date(2018, time.July, 1)
	to := date(2018, time.December, 30)

	q := buildStatsQuery([]string{"t1", "t2"}, from, to, false)
	assert.Equal(t,
		"select UrlId, Platform, Browser, Country, Age, Gender, Income, count(distinct IntVisKey), Sum(Views) "+
			"from admixer.UrlStat where UrlId in ('t1','t2') "+
			"and Date >= '2018-07-01' and Date <= '2018-12-30' "+
			"Group by UrlId, Platform, Browser, Country, Age, Gender, Income",
		q)

	q = buildStatsQuery([]string{"t1"}, from, to, true)
	assert.Contains(t, q, ", Date from")
	assert.Contains(t, q, "Group by UrlId, Platform, Browser, Country, Age, Gender, Income, Date")
}

func TestBuildFullStatsQuery(t *testing.T) {
	q := buildFullStatsQuery([]string{"t1"})
	assert.NotContains(t, q, "Date >=")
	assert.Contains(t, q, "UrlId in ('t1')")
}

func TestQueryStats(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	columns := []string{"UrlId", "Platform", "Browser", "Country", "Age", "Gender", "Income", "uniq", "views"}
	mock.ExpectQuery("select UrlId, Platform").WillReturnRows(
		sqlmock.NewRows(columns).
			AddRow("t1", 5, 2, "UA", 3, 1, 4, 10, 30).
			AddRow("t1", 6, 2, "UA", 3, 2, 4, 1, 2))

	client := &AnalyticsClient{db: db}
	rows, err := client.QueryStats([]string{"t1"}, date(2018, time.July, 1), date(2018, time.December, 30))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "t1", rows[0].TrackID)
	assert.Equal(t, 5, rows[0].Platform)
	assert.Equal(t, "UA", rows[0].Region)
	assert.Equal(t, int64(10), rows[0].Uniques)
	assert.Equal(t, int64(30), rows[0].Views)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryStatsByDate(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	columns := []string{"UrlId", "Platform", "Browser", "Country", "Age", "Gender", "Income", "uniq", "views", "Date"}
	mock.ExpectQuery("select UrlId, Platform").WillReturnRows(
		sqlmock.NewRows(columns).
			AddRow("t1", 5, 2, "UA", 3, 1, 4, 10, 30, date(2018, time.July, 3)))

	client := &AnalyticsClient{db: db}
	rows, err := client.QueryStatsByDate([]string{"t1"}, date(2018, time.July, 1), date(2018, time.December, 30))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, date(2018, time.July, 3), rows[0].Date)
}

func TestQueryStatsEmptyIDs(t *testing.T) {
	client := &AnalyticsClient{}
	rows, err := client.QueryStats(nil, time.Now(), time.Now())
	assert.NoError(t, err)
	assert.Nil(t, rows)
}
