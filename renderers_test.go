package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pivolan/media_ratings/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlattenRow(t *testing.T) {
	flat := flattenRow(map[string]interface{}{
		"publication": "gazeta",
		"views":       int64(100),
		"sex":         models.DistMap{"male": 60, "female": 40},
		"platforms":   map[int]int64{5: 2},
		"age":         map[string]interface{}{"18-24": float64(7)},
	})

	assert.Equal(t, "gazeta", flat["publication"])
	assert.Equal(t, "100", flat["views"])
	assert.Equal(t, "60", flat["sex.male"])
	assert.Equal(t, "40", flat["sex.female"])
	assert.Equal(t, "2", flat["platforms.5"])
	assert.Equal(t, "7", flat["age.18-24"])
}

func TestWriteCSV(t *testing.T) {
	rows := []map[string]interface{}{
		{"aggregator": "brandX", "views": int64(30)},
		{"aggregator": "brandY", "views": int64(10)},
	}

	var buf bytes.Buffer
	err := WriteCSV(&buf, rows, map[string]string{"views": "Просмотров"})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "aggregator;Просмотров", lines[0])
	assert.Equal(t, "brandX;30", lines[1])
	assert.Equal(t, "brandY;10", lines[2])
}

func TestWriteCSVUnionHeader(t *testing.T) {
	rows := []map[string]interface{}{
		{"aggregator": "brandX", "views": int64(30)},
		{"aggregator": "brandY", "uniques": int64(5)},
	}

	var buf bytes.Buffer
	err := WriteCSV(&buf, rows, nil)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, "aggregator;uniques;views", lines[0])
	// отсутствующие значения остаются пустыми ячейками
	assert.Equal(t, "brandX;;30", lines[1])
	assert.Equal(t, "brandY;5;", lines[2])
}

func TestRenderTable(t *testing.T) {
	rows := []map[string]interface{}{
		{"aggregator": "brandX", "views": int64(30)},
	}
	out := RenderTable(rows)
	assert.Contains(t, out, "brandX")
	assert.Contains(t, out, "30")

	assert.Equal(t, "", RenderTable(nil))
}

func TestRowsToMaps(t *testing.T) {
	rows := []models.CountRow{{Key: "brandX", Amount: 12}}
	maps := rowsToMaps(rows)
	require.Len(t, maps, 1)
	assert.Equal(t, "brandX", maps[0]["aggregator"])
	assert.Equal(t, float64(12), maps[0]["publication_amount"])
}
