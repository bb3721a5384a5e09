package main

import (
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectValueType(t *testing.T) {
	assert.Equal(t, "DateTime64", detectValueType("2018-07-01 12:30:45"))
	assert.Equal(t, "DateTime64", detectValueType("2018-07-01 12:30:45.123456"))
	assert.Equal(t, "Date", detectValueType("2018-07-01"))
	assert.Equal(t, "Int64", detectValueType("42"))
	assert.Equal(t, "Int64", detectValueType("-7"))
	assert.Equal(t, "Float64", detectValueType("3.14"))
	assert.Equal(t, "String", detectValueType("brandX"))
}

func TestDetectColumnTypes(t *testing.T) {
	data := "2018-07-01,10,abc\n" +
		"2018-07-02,3.5,def\n" +
		"2018-07-03,,ghi\n"
	r := csv.NewReader(strings.NewReader(data))

	types, nullables := detectColumnTypes(r, 3)
	// Int64 и Float64 в одной колонке дают более общий Float64
	assert.Equal(t, []string{"Date", "Float64", "String"}, types)
	assert.Equal(t, "", nullables[0])
	assert.Equal(t, " NULL ", nullables[1])
}

func TestDumpTableName(t *testing.T) {
	name := dumpTableName([]string{"UrlId", "Date", "Views", "Extra"}, "/tmp/dump.csv")
	assert.True(t, strings.HasPrefix(name, "UrlId_Date_Views_"))
	// суффикс стабилен для одного пути
	assert.Equal(t, name, dumpTableName([]string{"UrlId", "Date", "Views", "Extra"}, "/tmp/dump.csv"))
	assert.NotEqual(t, name, dumpTableName([]string{"UrlId", "Date", "Views", "Extra"}, "/tmp/other.csv"))
}

func TestSearchStrings(t *testing.T) {
	weights := []string{"", "DateTime64", "Date", "Int64", "Float64", "String"}
	assert.Equal(t, 0, searchStrings(weights, ""))
	assert.Equal(t, 5, searchStrings(weights, "String"))
	assert.Equal(t, -1, searchStrings(weights, "UInt8"))
	// String весит больше любого числового типа
	assert.Greater(t, searchStrings(weights, "String"), searchStrings(weights, "Int64"))
}
