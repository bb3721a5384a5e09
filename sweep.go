package main

import (
	"github.com/pivolan/media_ratings/config"
	"github.com/pivolan/media_ratings/domain/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// CacheSweeper пересобирает локальный кеш статистики admixer.
// ClickHouse медленный на точечных выборках, кеш отдается
// эндпоинтом /api/analytics/cache без похода в него.
type CacheSweeper struct {
	cfg      *config.Config
	db       *gorm.DB
	notifier *Notifier
}

func NewCacheSweeper(cfg *config.Config, db *gorm.DB, notifier *Notifier) *CacheSweeper {
	return &CacheSweeper{cfg: cfg, db: db, notifier: notifier}
}

// Run выкачивает статистику по всем известным трекам пачками и
// заменяет кеш целиком. Падение на любой пачке оставляет старый кеш.
func (s *CacheSweeper) Run() error {
	catalog := NewCatalog(s.db)
	ids, err := catalog.AllTrackIDs()
	if err != nil {
		return err
	}
	logrus.Infof("Cache sweep started, %d track ids", len(ids))

	client, err := OpenAnalyticsClient(s.cfg.ClickhouseDsn)
	if err != nil {
		return err
	}
	defer client.Close()

	var fresh []models.AnalyticsCacheRow
	chunks := chunkIDs(ids, maxIDsPerQuery)
	for i, chunk := range chunks {
		rows, err := client.QueryAllStats(chunk)
		if err != nil {
			return err
		}
		for _, r := range rows {
			fresh = append(fresh, models.AnalyticsCacheRow{
				TrackID:  r.TrackID,
				Platform: r.Platform,
				Browser:  r.Browser,
				Region:   r.Region,
				Age:      r.Age,
				Gender:   r.Gender,
				Income:   r.Income,
				Uniques:  r.Uniques,
				Views:    r.Views,
			})
		}
		logrus.Infof("Sweep progress: %d/%d batches", i+1, len(chunks))
	}

	if err = s.replaceCache(fresh); err != nil {
		return err
	}

	logrus.Infof("Cache sweep finished, %d rows", len(fresh))
	s.notifier.SweepFinished(len(ids), len(fresh))
	return nil
}

// replaceCache подменяет содержимое кеша в одной транзакции,
// откат на любой ошибке оставляет прежние строки
func (s *CacheSweeper) replaceCache(fresh []models.AnalyticsCacheRow) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.AnalyticsCacheRow{}).Error; err != nil {
			return err
		}
		for start := 0; start < len(fresh); start += dumpInsertBatch {
			end := start + dumpInsertBatch
			if end > len(fresh) {
				end = len(fresh)
			}
			batch := fresh[start:end]
			if err := tx.Create(&batch).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// RunLogged - обертка для cron, ошибка уходит в лог и оператору
func (s *CacheSweeper) RunLogged() {
	if err := s.Run(); err != nil {
		logrus.Errorf("Cache sweep failed: %v", err)
		s.notifier.SweepFailed(err)
	}
}
