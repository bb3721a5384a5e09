package main

import (
	"time"

	"github.com/pivolan/media_ratings/domain/models"
	"gorm.io/gorm"
)

// CatalogFilter - разобранные параметры фильтрации каталога
type CatalogFilter struct {
	KeyWords     []string
	Markets      []string
	Publications []string
	Regions      []string
	Types        []string
	Topics       []string
	From         time.Time
	To           time.Time
}

// Catalog - запросы к реляционному каталогу публикаций
type Catalog struct {
	db *gorm.DB
}

func NewCatalog(db *gorm.DB) *Catalog {
	return &Catalog{db: db}
}

func (c *Catalog) scoped(f CatalogFilter) *gorm.DB {
	tx := c.db.Model(&models.Publication{}).
		Where("posted_date >= ? AND posted_date <= ?", f.From, f.To)
	if len(f.KeyWords) > 0 {
		tx = tx.Where("key_word IN ?", f.KeyWords)
	}
	if len(f.Markets) > 0 {
		tx = tx.Where("market_id IN (SELECT id FROM markets WHERE name IN ?)", f.Markets)
	}
	if len(f.Publications) > 0 {
		tx = tx.Where("publication IN ?", f.Publications)
	}
	if len(f.Regions) > 0 {
		tx = tx.Where("region IN ?", f.Regions)
	}
	if len(f.Topics) > 0 {
		tx = tx.Where("topic IN ?", f.Topics)
	}
	if len(f.Types) > 0 {
		tx = tx.Where("type IN ?", f.Types)
	}
	return tx
}

// CountByDimension - рейтинг каталога: количество публикаций по значениям
// одного атрибута, по убыванию
func (c *Catalog) CountByDimension(dim string, f CatalogFilter) ([]models.CountRow, error) {
	var rows []models.CountRow
	err := c.scoped(f).
		Select(dim + " AS `key`, count(*) AS amount").
		Group(dim).
		Order("amount DESC").
		Scan(&rows).Error
	return rows, err
}

// CountPublicationTuples - расширенный рейтинг по изданиям со всеми
// классификационными атрибутами
func (c *Catalog) CountPublicationTuples(f CatalogFilter) ([]models.PublicationCountRow, error) {
	var rows []models.PublicationCountRow
	err := c.scoped(f).
		Select("publication, country, region, city, type, topic, consolidated_type, count(*) AS amount").
		Group("publication, country, region, city, type, topic, consolidated_type").
		Order("amount DESC").
		Scan(&rows).Error
	return rows, err
}

// CountMarkets - рейтинг рынков по количеству публикаций
func (c *Catalog) CountMarkets(f CatalogFilter) ([]models.CountRow, error) {
	var rows []models.CountRow
	err := c.scoped(f).
		Select("markets.name AS `key`, count(*) AS amount").
		Joins("JOIN markets ON markets.id = publications.market_id").
		Group("markets.name").
		Order("amount DESC").
		Scan(&rows).Error
	return rows, err
}

// KeyTrackPairs строит отображение ключ группировки -> идентификаторы
// аналитики. Одна публикация без идентификатора в отображение не попадает.
// Если по одному url несколько записей каталога, берется первая попавшаяся -
// осознанное поведение, смена требует подтверждения продукта.
func (c *Catalog) KeyTrackPairs(dim string, f CatalogFilter) (map[string][]string, error) {
	var pairs []struct {
		Key     string
		TrackID string
	}
	err := c.scoped(f).
		Select("publications."+dim+" AS `key`, tracked_publications.track_id AS track_id").
		Joins("JOIN tracked_publications ON tracked_publications.publication_id = publications.id").
		Scan(&pairs).Error
	if err != nil {
		return nil, err
	}
	groups := map[string][]string{}
	for _, p := range pairs {
		groups[p.Key] = append(groups[p.Key], p.TrackID)
	}
	return groups, nil
}

// CountPublications - количество публикаций под фильтром, для весов
// при взвешенном слиянии
func (c *Catalog) CountPublications(f CatalogFilter) (int64, error) {
	var n int64
	err := c.scoped(f).Count(&n).Error
	return n, err
}

// ThemeRating - ключ -> количество публикаций в окне, знаменатели весов
func (c *Catalog) ThemeRating(from, to time.Time) (map[string]int64, error) {
	rows, err := c.CountByDimension("key_word", CatalogFilter{From: from, To: to})
	if err != nil {
		return nil, err
	}
	rating := make(map[string]int64, len(rows))
	for _, r := range rows {
		rating[r.Key] = r.Amount
	}
	return rating, nil
}

// ThemesByPublication - издание -> список тем его публикаций в окне
func (c *Catalog) ThemesByPublication(from, to time.Time) (map[string][]string, error) {
	var pairs []struct {
		Publication string
		KeyWord     string
	}
	err := c.scoped(CatalogFilter{From: from, To: to}).
		Select("publication, key_word").
		Scan(&pairs).Error
	if err != nil {
		return nil, err
	}
	themes := map[string][]string{}
	for _, p := range pairs {
		themes[p.Publication] = append(themes[p.Publication], p.KeyWord)
	}
	return themes, nil
}

// CountThemePublication - публикаций с темой в издании в окне, числитель веса
func (c *Catalog) CountThemePublication(theme, publication string, from, to time.Time) (int64, error) {
	return c.CountPublications(CatalogFilter{
		KeyWords:     []string{theme},
		Publications: []string{publication},
		From:         from,
		To:           to,
	})
}

// MarketThemes - рынок -> ключевые слова, для списка тем
func (c *Catalog) MarketThemes() (map[string][]string, error) {
	var pairs []struct {
		Name    string
		KeyWord string
	}
	err := c.db.Model(&models.Publication{}).
		Select("DISTINCT markets.name AS name, publications.key_word AS key_word").
		Joins("JOIN markets ON markets.id = publications.market_id").
		Scan(&pairs).Error
	if err != nil {
		return nil, err
	}
	groups := map[string][]string{}
	for _, p := range pairs {
		groups[p.Name] = append(groups[p.Name], p.KeyWord)
	}
	return groups, nil
}

// CachedAnalytics - строки кеша статистики, опционально по списку
// идентификаторов. Кеш наполняется ночным обходом, см. CacheSweeper.
func (c *Catalog) CachedAnalytics(trackIDs []string) ([]models.AnalyticsCacheRow, error) {
	tx := c.db.Model(&models.AnalyticsCacheRow{})
	if len(trackIDs) > 0 {
		tx = tx.Where("track_id IN ?", trackIDs)
	}
	var rows []models.AnalyticsCacheRow
	err := tx.Find(&rows).Error
	return rows, err
}

// AllTrackIDs - все идентификаторы аналитики, для фонового обхода
func (c *Catalog) AllTrackIDs() ([]string, error) {
	var ids []string
	err := c.db.Model(&models.TrackedPublication{}).
		Distinct("track_id").
		Pluck("track_id", &ids).Error
	return ids, err
}

// WeeklyCounts - понедельный рейтинг упоминаний для графиков
func (c *Catalog) WeeklyCounts(f CatalogFilter) ([]models.WeekCountRow, error) {
	var rows []models.WeekCountRow
	err := c.scoped(f).
		Select("key_word, YEAR(posted_date) AS year, WEEK(posted_date, 3) AS week, count(*) AS amount").
		Group("key_word, year, week").
		Order("year, week").
		Scan(&rows).Error
	return rows, err
}
