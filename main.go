package main

import (
	"os"
	"path/filepath"
	"time"

	"github.com/pivolan/media_ratings/config"
	"github.com/pivolan/media_ratings/domain/models"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg := config.GetConfig()
	db, err := gorm.Open(mysql.Open(cfg.CatalogDsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		logrus.Fatalf("cannot connect to catalog db: %v", err)
	}
	if err = models.AutoMigrate(db); err != nil {
		logrus.Fatalf("migrate failed: %v", err)
	}
	logrus.Info("Connected to catalog db")

	notifier := NewNotifier(cfg, db)
	go notifier.Listen()

	sweeper := NewCacheSweeper(cfg, db, notifier)
	if len(os.Args) > 1 && os.Args[1] == "sweep" {
		if err = sweeper.Run(); err != nil {
			logrus.Fatalf("sweep failed: %v", err)
		}
		return
	}

	// ночная пересборка кеша статистики, днем ClickHouse занят выгрузками
	c := cron.New()
	if _, err = c.AddFunc("30 3 * * *", sweeper.RunLogged); err != nil {
		logrus.Fatalf("schedule sweep: %v", err)
	}
	c.Start()

	go func() {
		for {
			time.Sleep(time.Hour)
			removeOldFiles(cfg.UploadDir, time.Now().Add(-24*time.Hour))
		}
	}()

	h := NewHandlers(cfg, db)
	router := setupRouter(h)
	logrus.Infof("Listening on %s", cfg.ListenAddr)
	if err = router.Run(cfg.ListenAddr); err != nil {
		logrus.Fatalf("server stopped: %v", err)
	}
}

func removeOldFiles(dirPath string, maxAge time.Time) error {
	files, err := os.ReadDir(dirPath)
	if err != nil {
		return err
	}

	for _, file := range files {
		filePath := filepath.Join(dirPath, file.Name())
		if file.IsDir() {
			if err := removeOldFiles(filePath, maxAge); err != nil {
				return err
			}
			continue
		}
		stat, err := os.Stat(filePath)
		if err != nil {
			return err
		}
		if stat.ModTime().Before(maxAge) {
			if err := os.Remove(filePath); err != nil {
				return err
			}
			logrus.Infof("Removed stale upload: %s", filePath)
		}
	}
	return nil
}
