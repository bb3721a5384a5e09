package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/pivolan/media_ratings/domain/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Провайдер соцдем отчетов по темам
const socialProvider = "factrum_group_social"

// SnapshotStore - запросы к хранилищу соцдем снапшотов
type SnapshotStore struct {
	db *gorm.DB
}

func NewSnapshotStore(db *gorm.DB) *SnapshotStore {
	return &SnapshotStore{db: db}
}

func (s *SnapshotStore) Uploads(provider string) ([]models.SnapshotUpload, error) {
	var uploads []models.SnapshotUpload
	err := s.db.Where("provider = ?", provider).Find(&uploads).Error
	return uploads, err
}

func (s *SnapshotStore) Details(uploadIDs []uint, themes []string) ([]models.SocialDetails, error) {
	if len(uploadIDs) == 0 {
		return nil, nil
	}
	tx := s.db.Where("upload_id IN ?", uploadIDs)
	if len(themes) > 0 {
		tx = tx.Where("theme_title IN ?", themes)
	}
	var rows []models.SocialDetails
	err := tx.Find(&rows).Error
	return rows, err
}

func (s *SnapshotStore) Ratings(from, to time.Time, publications []string) ([]models.PublicationDemoRating, error) {
	tx := s.db.Where("created_date >= ? AND created_date <= ?", from, to)
	if len(publications) > 0 {
		tx = tx.Where("publication IN ?", publications)
	}
	var rows []models.PublicationDemoRating
	err := tx.Order("views DESC").Find(&rows).Error
	return rows, err
}

func uploadIDs(uploads []models.SnapshotUpload) []uint {
	ids := make([]uint, len(uploads))
	for i, up := range uploads {
		ids[i] = up.ID
	}
	return ids
}

// BuildThemeDemoReport - отчет по темам: среди пересекающихся загрузок
// по каждой теме остается строка самой свежей, дальше прямое сложение
// не требуется - строка одна, просто раскладываем в ответ
func BuildThemeDemoReport(uploads []models.SnapshotUpload, rows []models.SocialDetails, from, to time.Time) []map[string]interface{} {
	winners := ResolveLatestDetails(uploads, rows, from, to)

	titles := make([]string, 0, len(winners))
	for title := range winners {
		titles = append(titles, title)
	}
	sort.Strings(titles)

	result := make([]map[string]interface{}, 0, len(titles))
	for _, title := range titles {
		row := winners[title]
		p := NewDemoProfile()
		p = SumDistributions(p, row.Views, detailsDistMap(row))
		result = append(result, demoRow("title", title, p))
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i]["views"].(int64) > result[j]["views"].(int64)
	})
	return result
}

// BuildThemeDemoSummary - общий профиль аудитории за период: победившие
// строки всех тем складываются в один, просмотры суммируются
func BuildThemeDemoSummary(uploads []models.SnapshotUpload, rows []models.SocialDetails, from, to time.Time) map[string]interface{} {
	winners := ResolveLatestDetails(uploads, rows, from, to)
	p := NewDemoProfile()
	for _, row := range winners {
		p = SumDistributions(p, row.Views, detailsDistMap(row))
	}
	return demoRow("title", "all", p)
}

// BuildPublicationDemoReport - отчет по изданиям из кеша: дедупликация
// по последней дате создания, затем раскладка в строки ответа
func BuildPublicationDemoReport(rows []models.PublicationDemoRating) []map[string]interface{} {
	deduped := ResolveLatestRatings(rows)
	result := make([]map[string]interface{}, 0, len(deduped))
	for _, r := range deduped {
		p := NewDemoProfile()
		p = SumDistributions(p, r.Views, ratingDistMap(r))
		result = append(result, demoRow("publication", r.Publication, p))
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i]["views"].(int64) > result[j]["views"].(int64)
	})
	return result
}

// GeneratePublicationDemoRatings пересчитывает кеш взвешенного соцдем
// рейтинга изданий после загрузки снапшота. Вес темы в издании - доля
// публикаций издания с этой темой от всех публикаций темы в окне периода.
// Тема без публикаций в окне дает нулевой вклад, а не ошибку.
func GeneratePublicationDemoRatings(catalog *Catalog, db *gorm.DB, upload models.SnapshotUpload, rows []models.SocialDetails) error {
	start, end, err := parsePeriodLabel(upload.Title)
	if err != nil {
		return fmt.Errorf("upload %q: %v", upload.Title, err)
	}

	logrus.Infof("Received %d social details rows", len(rows))
	fgMap := make(map[string]models.SocialDetails, len(rows))
	for _, row := range rows {
		fgMap[row.ThemeTitle] = row
	}

	themesRating, err := catalog.ThemeRating(start, end)
	if err != nil {
		return err
	}
	logrus.Infof("%d - keys processed", len(themesRating))

	themesInPublication, err := catalog.ThemesByPublication(start, end)
	if err != nil {
		return err
	}
	logrus.Infof("%d - publications processed", len(themesInPublication))

	results := make([]models.PublicationDemoRating, 0, len(themesInPublication))
	i := 1
	for publication, themes := range themesInPublication {
		profile := NewDemoProfile()
		for _, theme := range uniqueStrings(themes) {
			sd, ok := fgMap[theme]
			if !ok {
				continue
			}
			specific, err := catalog.CountThemePublication(theme, publication, start, end)
			if err != nil {
				return err
			}
			profile = MergeWeighted(profile, sd.Views, detailsDistMap(sd), themesRating[theme], specific)
		}
		if err := ValidateProfile(profile); err != nil {
			// партия отклоняется целиком
			return err
		}
		rating := profileRating(publication, profile)
		rating.CreatedDate = start
		results = append(results, rating)
		if i%100 == 0 {
			logrus.Infof("%d - publications processed", i)
		}
		i++
	}

	if len(results) == 0 {
		return nil
	}
	if err := db.Create(&results).Error; err != nil {
		return fmt.Errorf("save publication demo rating: %v", err)
	}
	logrus.Info("Publication social demo rating is saved")
	return nil
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}
	sort.Strings(result)
	return result
}
