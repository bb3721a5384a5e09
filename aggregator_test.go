package main

import (
	"errors"
	"testing"
	"time"

	"github.com/pivolan/media_ratings/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildAdmixerRating(t *testing.T) {
	groups := map[string][]string{
		"brandX": {"t1", "t2"},
	}
	stats := map[string][]models.AnalyticsRow{
		"t1": {
			{TrackID: "t1", Platform: 5, Views: 10, Uniques: 3},
			{TrackID: "t1", Platform: 5, Views: 5, Uniques: 2},
		},
		"t2": {
			{TrackID: "t2", Platform: 7, Views: 15, Uniques: 5},
		},
	}
	query := func(batch []string) ([]models.AnalyticsRow, error) {
		var rows []models.AnalyticsRow
		for _, id := range batch {
			rows = append(rows, stats[id]...)
		}
		return rows, nil
	}

	result, err := buildAdmixerRating(groups, query, 10)
	require.NoError(t, err)
	require.Len(t, result, 1)

	row := result[0]
	assert.Equal(t, "brandX", row.Aggregator)
	assert.Equal(t, int64(30), row.Views)
	assert.Equal(t, int64(10), row.Uniques)
	assert.Equal(t, int64(2), row.Platforms[5])
	assert.Equal(t, int64(1), row.Platforms[7])
}

// идентификатор, уже пришедший в прошлой пачке, не засчитывается повторно
func TestBuildAdmixerRatingNoDoubleCounting(t *testing.T) {
	groups := map[string][]string{
		"brandX": {"t1", "t2", "t3"},
	}
	query := func(batch []string) ([]models.AnalyticsRow, error) {
		// хранилище отдает t1 на каждую пачку
		return []models.AnalyticsRow{
			{TrackID: "t1", Platform: 5, Views: 10, Uniques: 1},
		}, nil
	}

	result, err := buildAdmixerRating(groups, query, 1)
	require.NoError(t, err)
	require.Len(t, result, 1)

	assert.Equal(t, int64(10), result[0].Views)
	assert.Equal(t, int64(1), result[0].Uniques)
	assert.Equal(t, int64(1), result[0].Platforms[5])
}

func TestBuildAdmixerRatingSortedByViews(t *testing.T) {
	groups := map[string][]string{
		"small": {"s1"},
		"big":   {"b1"},
	}
	query := func(batch []string) ([]models.AnalyticsRow, error) {
		if batch[0] == "b1" {
			return []models.AnalyticsRow{{TrackID: "b1", Views: 100}}, nil
		}
		return []models.AnalyticsRow{{TrackID: "s1", Views: 1}}, nil
	}

	result, err := buildAdmixerRating(groups, query, 10)
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, "big", result[0].Aggregator)
	assert.Equal(t, "small", result[1].Aggregator)
}

func TestBuildAdmixerRatingQueryError(t *testing.T) {
	groups := map[string][]string{"brandX": {"t1"}}
	query := func(batch []string) ([]models.AnalyticsRow, error) {
		return nil, errors.New("clickhouse is down")
	}

	result, err := buildAdmixerRating(groups, query, 10)
	assert.Error(t, err)
	assert.Nil(t, result)
}

func TestWeekBucket(t *testing.T) {
	monday := date(2018, time.June, 18)
	for d := 0; d < 7; d++ {
		assert.Equal(t, monday, weekBucket(monday.AddDate(0, 0, d)))
	}
	assert.Equal(t, date(2018, time.June, 25), weekBucket(date(2018, time.June, 25)))
}

func TestBuildAdmixerDynamics(t *testing.T) {
	groups := map[string][]string{"brandX": {"t1"}}
	query := func(batch []string) ([]models.AnalyticsRow, error) {
		return []models.AnalyticsRow{
			{TrackID: "t1", Platform: 5, Views: 10, Uniques: 1, Date: date(2018, time.June, 19)},
			{TrackID: "t1", Platform: 5, Views: 7, Uniques: 1, Date: date(2018, time.June, 21)},
			{TrackID: "t1", Platform: 6, Views: 3, Uniques: 1, Date: date(2018, time.June, 26)},
		}, nil
	}

	rows, err := buildAdmixerDynamics(groups, "platform", query, 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, date(2018, time.June, 18), rows[0].Date)
	assert.Equal(t, int64(17), rows[0].Views)
	assert.Equal(t, int64(2), rows[0].Dim["5"])

	assert.Equal(t, date(2018, time.June, 25), rows[1].Date)
	assert.Equal(t, int64(3), rows[1].Views)
	assert.Equal(t, int64(1), rows[1].Dim["6"])
}
