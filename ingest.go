package main

import (
	"bytes"
	"crypto/md5"
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pivolan/go_utils"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const dumpSeparator = ','
const dumpInsertBatch = 5000
const dumpTypeSampleRows = 50000

// веса типов по убыванию общности, при конфликте побеждает более общий
var columnTypeWeight = []string{"", "DateTime64", "Date", "Int64", "Float64", "String"}

// ImportAnalyticsDump создает таблицу в ClickHouse под csv дамп статистики
// и заливает его пачками. Типы колонок выводятся по выборке строк.
// Возвращает имя созданной таблицы.
func ImportAnalyticsDump(dsn, filePath string) (string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	r := newDumpReader(f)
	headers, err := r.Read()
	if err != nil {
		return "", fmt.Errorf("read dump header: %w", err)
	}
	analysis := AnalyzeHeaders(headers)
	headers = analysis.Headers

	types, nullables := detectColumnTypes(r, len(headers))

	if _, err = f.Seek(0, 0); err != nil {
		return "", err
	}
	r = newDumpReader(f)
	if !analysis.FirstRowIsData {
		if _, err = r.Read(); err != nil {
			return "", err
		}
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return "", fmt.Errorf("connect clickhouse mysql port: %w", err)
	}

	tableName := dumpTableName(headers, filePath)
	if err = createDumpTable(db, tableName, headers, types, nullables); err != nil {
		return "", err
	}

	idExists := go_utils.InArray("id", headers)
	saved, err := insertDumpRows(db, r, tableName, types, idExists)
	if err != nil {
		return "", err
	}
	logrus.Infof("Dump imported into %s, %d rows", tableName, saved)
	return tableName, nil
}

func newDumpReader(f *os.File) *csv.Reader {
	r := csv.NewReader(f)
	r.Comma = dumpSeparator
	r.LazyQuotes = true
	return r
}

// detectColumnTypes пробует распарсить значения выборки от самого
// специфичного типа к строке. Пустые значения делают колонку Nullable.
func detectColumnTypes(r *csv.Reader, columns int) (types, nullables []string) {
	types = make([]string, columns)
	nullables = make([]string, columns)

	for i := 0; i < dumpTypeSampleRows; i++ {
		values, err := r.Read()
		if err != nil {
			break
		}
		for n, value := range values {
			if n >= columns {
				break
			}
			if value == "" {
				nullables[n] = " NULL "
				continue
			}
			t := detectValueType(value)
			if searchStrings(columnTypeWeight, t) > searchStrings(columnTypeWeight, types[n]) {
				types[n] = t
			}
		}
	}
	for n := range types {
		if types[n] == "" {
			types[n] = "String"
		}
	}
	return types, nullables
}

func detectValueType(value string) string {
	if _, err := time.Parse("2006-01-02 15:04:05.999999", value); err == nil {
		return "DateTime64"
	}
	if _, err := time.Parse("2006-01-02 15:04:05", value); err == nil {
		return "DateTime64"
	}
	if _, err := time.Parse("2006-01-02", value); err == nil {
		return "Date"
	}
	if _, err := strconv.ParseInt(value, 10, 64); err == nil {
		return "Int64"
	}
	if _, err := strconv.ParseFloat(value, 64); err == nil {
		return "Float64"
	}
	return "String"
}

func dumpTableName(headers []string, filePath string) string {
	columns := headers
	if len(columns) > 3 {
		columns = columns[:3]
	}
	return strings.Join(columns, "_") + "_" + md5String(filePath)[:6]
}

func createDumpTable(db *gorm.DB, tableName string, headers, types, nullables []string) error {
	fields := make([]string, 0, len(headers)+1)
	if !go_utils.InArray("id", headers) {
		fields = append(fields, "id UInt64")
	}
	for i, header := range headers {
		fields = append(fields, fmt.Sprintf("%s %s%s", header, types[i], nullables[i]))
	}

	if tx := db.Exec("DROP TABLE IF EXISTS " + tableName); tx.Error != nil {
		return tx.Error
	}
	sql := "CREATE TABLE " + tableName + " (" + strings.Join(fields, ",\n") +
		") ENGINE = ReplacingMergeTree PRIMARY KEY (id) SETTINGS index_granularity = 8192"
	if tx := db.Exec(sql); tx.Error != nil {
		return fmt.Errorf("create table %s: %w", tableName, tx.Error)
	}
	return nil
}

func insertDumpRows(db *gorm.DB, r *csv.Reader, tableName string, types []string, idExists bool) (int, error) {
	quoted := func(t string) bool {
		return go_utils.InArray(t, []string{"String", "Date", "DateTime64"})
	}

	b := bytes.NewBufferString("")
	w := csv.NewWriter(b)
	flush := func() error {
		w.Flush()
		if b.Len() == 0 {
			return nil
		}
		sql := fmt.Sprintf("INSERT INTO %s FORMAT CSV \n%s", tableName, b.String())
		b.Reset()
		if tx := db.Exec(sql); tx.Error != nil {
			return tx.Error
		}
		return nil
	}

	i := 0
	for ; ; i++ {
		values, err := r.Read()
		if err != nil {
			break
		}
		for k, v := range values {
			if k < len(types) && quoted(types[k]) {
				values[k] = "'" + strings.ReplaceAll(v, "'", "") + "'"
			}
		}
		if !idExists {
			values = append([]string{strconv.Itoa(i)}, values...)
		}
		w.Write(values)
		if i > 0 && i%dumpInsertBatch == 0 {
			if err := flush(); err != nil {
				return i, err
			}
		}
	}
	if err := flush(); err != nil {
		return i, err
	}
	return i, nil
}

func md5String(input string) string {
	sum := md5.Sum([]byte(input))
	return hex.EncodeToString(sum[:])
}

func searchStrings(a []string, x string) int {
	for i, s := range a {
		if s == x {
			return i
		}
	}
	return -1
}
