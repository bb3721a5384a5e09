package main

import (
	"testing"
	"time"

	"github.com/pivolan/media_ratings/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsoWeekStart(t *testing.T) {
	// ISO 2018-W25 начинается в понедельник 18 июня
	assert.Equal(t, date(2018, time.June, 18), isoWeekStart(2018, 25))
	// первая неделя 2021 начинается еще в 2020
	assert.Equal(t, date(2020, time.December, 28), isoWeekStart(2021, 1))

	for _, d := range []time.Time{
		date(2018, time.June, 18),
		date(2020, time.December, 28),
		date(2019, time.January, 7),
	} {
		year, week := d.ISOWeek()
		assert.Equal(t, d, isoWeekStart(year, week), "round trip for %s", d)
	}
}

func TestTotalsByWeek(t *testing.T) {
	rows := []models.WeekCountRow{
		{KeyWord: "brandX", Year: 2018, Week: 25, Amount: 3},
		{KeyWord: "brandY", Year: 2018, Week: 25, Amount: 2},
		{KeyWord: "brandX", Year: 2018, Week: 26, Amount: 1},
	}

	weeks, values := totalsByWeek(rows)
	require.Len(t, weeks, 2)
	assert.Equal(t, date(2018, time.June, 18), weeks[0])
	assert.Equal(t, int64(5), values[0])
	assert.Equal(t, date(2018, time.June, 25), weeks[1])
	assert.Equal(t, int64(1), values[1])
}

func TestViewsByWeek(t *testing.T) {
	rows := []models.AdmixerDateRow{
		{KeyWord: "brandX", Date: date(2018, time.June, 18), Views: 10},
		{KeyWord: "brandY", Date: date(2018, time.June, 18), Views: 5},
		{KeyWord: "brandX", Date: date(2018, time.June, 25), Views: 2},
	}

	weeks, values := viewsByWeek(rows)
	require.Len(t, weeks, 2)
	assert.Equal(t, int64(15), values[0])
	assert.Equal(t, int64(2), values[1])
}
