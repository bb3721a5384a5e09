package main

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/ClickHouse/clickhouse-go"
	"github.com/pivolan/media_ratings/domain/models"
	"github.com/sirupsen/logrus"
)

// Таблица сырой статистики провайдера в ClickHouse
const analyticsTable = "admixer.UrlStat"

// AnalyticsClient - соединение с ClickHouse на время одного отчета.
// Клиент открывается в начале запроса и закрывается на всех путях выхода,
// пул соединений между запросами не держим.
type AnalyticsClient struct {
	db *sql.DB
}

func OpenAnalyticsClient(dsn string) (*AnalyticsClient, error) {
	db, err := sql.Open("clickhouse", dsn)
	if err != nil {
		return nil, fmt.Errorf("clickhouse open: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("clickhouse ping: %v", err)
	}
	return &AnalyticsClient{db: db}, nil
}

func (c *AnalyticsClient) Close() error {
	return c.db.Close()
}

// buildStatsQuery собирает групповой агрегат по пачке идентификаторов.
// Группировка по (UrlId, Platform, Browser, Country, Age, Gender, Income),
// метрики - уникальные посетители и сумма просмотров. byDate добавляет
// дату в группировку для понедельной динамики.
func buildStatsQuery(ids []string, from, to time.Time, byDate bool) string {
	quoted := make([]string, len(ids))
	for i, id := range ids {
		quoted[i] = "'" + id + "'"
	}
	cols := "UrlId, Platform, Browser, Country, Age, Gender, Income, count(distinct IntVisKey), Sum(Views)"
	group := "UrlId, Platform, Browser, Country, Age, Gender, Income"
	if byDate {
		cols += ", Date"
		group += ", Date"
	}
	return fmt.Sprintf(
		"select %s from %s where UrlId in (%s) and Date >= '%s' and Date <= '%s' Group by %s",
		cols, analyticsTable, strings.Join(quoted, ","),
		from.Format("2006-01-02"), to.Format("2006-01-02"), group)
}

// buildFullStatsQuery - агрегат без окна дат, для фонового обхода каталога
func buildFullStatsQuery(ids []string) string {
	quoted := make([]string, len(ids))
	for i, id := range ids {
		quoted[i] = "'" + id + "'"
	}
	return fmt.Sprintf(
		"select UrlId, Platform, Browser, Country, Age, Gender, Income, count(distinct IntVisKey), Sum(Views) "+
			"from %s where UrlId in (%s) Group by UrlId, Platform, Browser, Country, Age, Gender, Income",
		analyticsTable, strings.Join(quoted, ","))
}

// QueryStats выполняет один групповой запрос по пачке идентификаторов.
// Ошибка фатальна для всего отчета: частичных данных не возвращаем,
// перезапросов внутри пачки нет.
func (c *AnalyticsClient) QueryStats(ids []string, from, to time.Time) ([]models.AnalyticsRow, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return c.scanRows(buildStatsQuery(ids, from, to, false), false)
}

// QueryStatsByDate - то же с датой в группировке
func (c *AnalyticsClient) QueryStatsByDate(ids []string, from, to time.Time) ([]models.AnalyticsRow, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return c.scanRows(buildStatsQuery(ids, from, to, true), true)
}

// QueryAllStats - агрегат за всю историю, для фонового обхода
func (c *AnalyticsClient) QueryAllStats(ids []string) ([]models.AnalyticsRow, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return c.scanRows(buildFullStatsQuery(ids), false)
}

func (c *AnalyticsClient) scanRows(query string, withDate bool) ([]models.AnalyticsRow, error) {
	rows, err := c.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("clickhouse query: %v", err)
	}
	defer rows.Close()

	var results []models.AnalyticsRow
	for rows.Next() {
		var r models.AnalyticsRow
		if withDate {
			err = rows.Scan(&r.TrackID, &r.Platform, &r.Browser, &r.Region,
				&r.Age, &r.Gender, &r.Income, &r.Uniques, &r.Views, &r.Date)
		} else {
			err = rows.Scan(&r.TrackID, &r.Platform, &r.Browser, &r.Region,
				&r.Age, &r.Gender, &r.Income, &r.Uniques, &r.Views)
		}
		if err != nil {
			return nil, fmt.Errorf("clickhouse scan: %v", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("clickhouse rows: %v", err)
	}
	logrus.Infof("Received %d records from ClickHouse", len(results))
	return results, nil
}
