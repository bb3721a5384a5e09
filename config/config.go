package config

import (
	"log"
	"os"
	"strconv"
	"sync"

	"github.com/joho/godotenv"
)

type Config struct {
	CatalogDsn         string // MySQL, каталог публикаций и кеши
	ClickhouseDsn      string // ClickHouse, сырая статистика admixer
	ClickhouseMysqlDsn string // mysql-порт ClickHouse, для заливки дампов
	ListenAddr         string
	UploadDir          string

	// Окно отчетов по умолчанию, для запросов без явных дат
	DefaultFromDate string
	DefaultToDate   string

	TgToken  string
	TgChatID int64
}

var (
	config *Config
	once   sync.Once
)

// GetConfig возвращает singleton экземпляр конфигурации
func GetConfig() *Config {
	once.Do(func() {
		err := godotenv.Load()
		if err != nil {
			log.Println("no .env file, using environment")
		}

		chatID, _ := strconv.ParseInt(os.Getenv("TG_CHAT"), 10, 64)
		config = &Config{
			CatalogDsn:         os.Getenv("CATALOG_DSN"),
			ClickhouseDsn:      os.Getenv("CLICKHOUSE_DSN"),
			ClickhouseMysqlDsn: getDefault("CLICKHOUSE_MYSQL_DSN", "default:@tcp(127.0.0.1:9004)/default"),
			ListenAddr:         getDefault("LISTEN_ADDR", ":8005"),
			UploadDir:          getDefault("UPLOAD_DIR", "uploads"),
			DefaultFromDate:    getDefault("DEFAULT_FROM_DATE", "2018-07-01"),
			DefaultToDate:      getDefault("DEFAULT_TO_DATE", "2018-12-30"),
			TgToken:            os.Getenv("TG_TOKEN"),
			TgChatID:           chatID,
		}
	})
	return config
}

func getDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
