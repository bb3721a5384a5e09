package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Publication - запись каталога СМИ: статья или сюжет, привязанный к теме
type Publication struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	KeyWord          string    `gorm:"size:512;index" json:"key_word"`
	Object           string    `gorm:"size:512" json:"object"`
	Title            string    `gorm:"size:1024" json:"title"`
	URL              string    `gorm:"size:1024" json:"url"`
	Publication      string    `gorm:"size:512;index" json:"publication"`
	Country          string    `gorm:"size:256" json:"country"`
	Region           string    `gorm:"size:256" json:"region"`
	City             string    `gorm:"size:256" json:"city"`
	Type             string    `gorm:"size:256" json:"type"`
	Topic            string    `gorm:"size:512" json:"topic"`
	ConsolidatedType string    `gorm:"size:256" json:"consolidated_type"`
	MarketID         *uint     `json:"market_id"`
	PostedDate       time.Time `gorm:"index" json:"posted_date"`
}

// TrackedPublication связывает публикацию с идентификатором в системе
// внешней аналитики. На публикацию не больше одного идентификатора,
// идентификатор назначается асинхронно внешним сервисом поиска.
type TrackedPublication struct {
	ID            uint   `gorm:"primaryKey"`
	PublicationID uint   `gorm:"uniqueIndex"`
	TrackID       string `gorm:"size:64;index"`
}

type Theme struct {
	ID    uint   `gorm:"primaryKey" json:"id"`
	Title string `gorm:"size:512;uniqueIndex" json:"title"`
}

type Market struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:512" json:"name"`
}

// SnapshotUpload - одна партия загрузки соцдем отчета. Title хранит метку
// периода провайдера: "10-2017" (месяц) или "3-25-2018" (день-неделя-год).
type SnapshotUpload struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Provider    string    `gorm:"size:256;index" json:"provider"`
	Title       string    `gorm:"size:50" json:"title"`
	FileName    string    `gorm:"size:512" json:"file_name"`
	CreatedDate time.Time `json:"created_date"`
}

// DistMap - процентное (или абсолютное, после пересчета) распределение
// по одной категории, хранится json-колонкой
type DistMap map[string]int64

func (d DistMap) Value() (driver.Value, error) {
	return json.Marshal(d)
}

func (d *DistMap) Scan(value interface{}) error {
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, d)
	case string:
		return json.Unmarshal([]byte(v), d)
	case nil:
		*d = DistMap{}
		return nil
	}
	return fmt.Errorf("cannot scan %T into DistMap", value)
}

// SocialDetails - строка соцдем отчета по одной теме внутри загрузки.
// Значения распределений это проценты 0-100, сумма около 100 (не проверяется).
type SocialDetails struct {
	ID            uint    `gorm:"primaryKey" json:"id"`
	UploadID      uint    `gorm:"index" json:"upload_id"`
	ThemeID       uint    `gorm:"index" json:"theme_id"`
	ThemeTitle    string  `gorm:"size:512;index" json:"theme_title"`
	Views         int64   `json:"views"`
	Sex           DistMap `gorm:"type:json" json:"sex"`
	Age           DistMap `gorm:"type:json" json:"age"`
	Education     DistMap `gorm:"type:json" json:"education"`
	ChildrenLt16  DistMap `gorm:"type:json" json:"children_lt_16"`
	MaritalStatus DistMap `gorm:"type:json" json:"marital_status"`
	Occupation    DistMap `gorm:"type:json" json:"occupation"`
	Group         DistMap `gorm:"type:json" json:"group"`
	Income        DistMap `gorm:"type:json" json:"income"`
	Region        DistMap `gorm:"type:json" json:"region"`
	TypeNP        DistMap `gorm:"type:json" json:"typeNP"`
}

// PublicationDemoRating - кеш взвешенного соцдем рейтинга по изданию,
// пересчитывается после каждой загрузки снапшота. Значения абсолютные.
type PublicationDemoRating struct {
	ID            uint      `gorm:"primaryKey" json:"-"`
	Publication   string    `gorm:"size:512;index" json:"publication"`
	Views         int64     `json:"views"`
	Sex           DistMap   `gorm:"type:json" json:"sex"`
	Age           DistMap   `gorm:"type:json" json:"age"`
	Education     DistMap   `gorm:"type:json" json:"education"`
	ChildrenLt16  DistMap   `gorm:"type:json" json:"children_lt_16"`
	MaritalStatus DistMap   `gorm:"type:json" json:"marital_status"`
	Occupation    DistMap   `gorm:"type:json" json:"occupation"`
	Group         DistMap   `gorm:"type:json" json:"group"`
	Income        DistMap   `gorm:"type:json" json:"income"`
	Region        DistMap   `gorm:"type:json" json:"region"`
	TypeNP        DistMap   `gorm:"type:json" json:"typeNP"`
	CreatedDate   time.Time `gorm:"index" json:"created_date"`
}

// AnalyticsCacheRow - кеш сырой статистики admixer в MySQL, обновляется
// фоновым обходом каталога
type AnalyticsCacheRow struct {
	ID       uint   `gorm:"primaryKey" json:"-"`
	TrackID  string `gorm:"size:64;index" json:"track_id"`
	Platform int    `json:"platform"`
	Browser  int    `json:"browser"`
	Region   string `gorm:"size:256;default:UA" json:"region"`
	Age      int    `json:"age"`
	Gender   int    `json:"gender"`
	Income   int    `json:"income"`
	Uniques  int64  `json:"uniques"`
	Views    int64  `json:"views"`
}

// AnalyticsRow - строка ответа ClickHouse, никогда не сохраняется как есть
type AnalyticsRow struct {
	TrackID  string
	Platform int
	Browser  int
	Region   string
	Age      int
	Gender   int
	Income   int
	Uniques  int64
	Views    int64
	Date     time.Time
}

// CountRow - строка рейтинга каталога: ключ группировки и количество публикаций
type CountRow struct {
	Key    string `json:"aggregator"`
	Amount int64  `json:"publication_amount"`
}

// PublicationCountRow - расширенный рейтинг по изданиям
type PublicationCountRow struct {
	Publication      string `json:"publication"`
	Country          string `json:"country"`
	Region           string `json:"region"`
	City             string `json:"city"`
	Type             string `json:"type"`
	Topic            string `json:"topic"`
	ConsolidatedType string `json:"consolidated_type"`
	Amount           int64  `json:"publication_amount"`
}

// AdmixerRatingRow - итоговая строка соцдем рейтинга по данным admixer.
// Гистограммы считают вхождения строк ответа, не взвешенные просмотры.
type AdmixerRatingRow struct {
	Aggregator   string           `json:"aggregator"`
	Views        int64            `json:"views"`
	Uniques      int64            `json:"uniques"`
	Platforms    map[int]int64    `json:"platforms"`
	Browsers     map[int]int64    `json:"browsers"`
	Regions      map[string]int64 `json:"regions"`
	AgeGroups    map[int]int64    `json:"age_groups"`
	GenderGroups map[int]int64    `json:"gender_groups"`
	IncomeGroups map[int]int64    `json:"income_groups"`
}

// AdmixerDateRow - строка понедельной динамики admixer для графиков
type AdmixerDateRow struct {
	KeyWord string           `json:"key_word"`
	Date    time.Time        `json:"date"`
	Views   int64            `json:"views"`
	Uniques int64            `json:"uniques"`
	Dim     map[string]int64 `json:"dim,omitempty"`
}

// WeekCountRow - понедельный рейтинг упоминаний для графиков
type WeekCountRow struct {
	KeyWord string `json:"key_word"`
	Year    int    `json:"year"`
	Week    int    `json:"week"`
	Amount  int64  `json:"publication_amount"`
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Publication{},
		&TrackedPublication{},
		&Theme{},
		&Market{},
		&SnapshotUpload{},
		&SocialDetails{},
		&PublicationDemoRating{},
		&AnalyticsCacheRow{},
	)
}
