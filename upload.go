package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pivolan/media_ratings/domain/models"
	uuid "github.com/satori/go.uuid"
	"github.com/sirupsen/logrus"
)

// handleSnapshotUpload принимает csv выгрузку провайдера соцдема.
// Поля формы: period - метка периода ("10-2017" или "3-25-2018"),
// provider - опционально, file - сам файл, можно zip/gz/lz4.
// После сохранения пересчитывается кеш рейтинга изданий.
func (h *Handlers) handleSnapshotUpload(c *gin.Context) {
	period := c.PostForm("period")
	if _, _, err := parsePeriodLabel(period); err != nil {
		abortError(c, http.StatusBadRequest, fmt.Errorf("bad period %q: %w", period, err))
		return
	}
	provider := c.PostForm("provider")
	if provider == "" {
		provider = socialProvider
	}

	filePath, err := h.saveUploadedFile(c)
	if err != nil {
		abortError(c, http.StatusBadRequest, err)
		return
	}

	details, err := ParseSnapshotCSV(filePath)
	if err != nil {
		abortError(c, http.StatusBadRequest, err)
		return
	}

	upload := models.SnapshotUpload{
		Provider:    provider,
		Title:       period,
		FileName:    filepath.Base(filePath),
		CreatedDate: time.Now(),
	}
	if err = h.db.Create(&upload).Error; err != nil {
		abortError(c, http.StatusInternalServerError, err)
		return
	}
	for i := range details {
		details[i].UploadID = upload.ID
	}
	if err = h.db.Create(&details).Error; err != nil {
		abortError(c, http.StatusInternalServerError, err)
		return
	}
	logrus.Infof("Snapshot %s saved, %d themes", period, len(details))

	if err = GeneratePublicationDemoRatings(h.catalog, h.db, upload, details); err != nil {
		// снапшот уже сохранен, кеш можно пересчитать повторной загрузкой
		logrus.Errorf("Rating cache generation failed: %v", err)
		abortError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"upload_id": upload.ID, "themes": len(details)})
}

// handleAnalyticsDump заливает csv дамп статистики в ClickHouse
// через mysql-совместимый порт
func (h *Handlers) handleAnalyticsDump(c *gin.Context) {
	filePath, err := h.saveUploadedFile(c)
	if err != nil {
		abortError(c, http.StatusBadRequest, err)
		return
	}

	tableName, err := ImportAnalyticsDump(h.cfg.ClickhouseMysqlDsn, filePath)
	if err != nil {
		abortError(c, http.StatusBadGateway, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"table": tableName})
}

// saveUploadedFile кладет файл формы в отдельный каталог и
// распаковывает, если это архив
func (h *Handlers) saveUploadedFile(c *gin.Context) (string, error) {
	file, err := c.FormFile("file")
	if err != nil {
		return "", fmt.Errorf("file field: %w", err)
	}

	dir := filepath.Join(h.cfg.UploadDir, uuid.NewV4().String())
	if err = os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	filePath := filepath.Join(dir, filepath.Base(file.Filename))
	if err = c.SaveUploadedFile(file, filePath); err != nil {
		return "", err
	}

	return UnpackIfArchive(filePath)
}

// ParseSnapshotCSV читает выгрузку провайдера: разделитель ';',
// колонки theme_id, theme, views и распределения вида sex.male.
// Файлы без шапки читаются в каноническом порядке колонок словаря.
func ParseSnapshotCSV(filePath string) ([]models.SocialDetails, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = ';'
	r.LazyQuotes = true

	firstRow, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("empty snapshot file: %w", err)
	}
	analysis := AnalyzeHeaders(firstRow)
	headers := analysis.Headers
	if analysis.FirstRowIsData {
		headers = canonicalSnapshotColumns()
		if len(firstRow) != len(headers) {
			return nil, fmt.Errorf("headerless file has %d columns, want %d", len(firstRow), len(headers))
		}
	}

	var details []models.SocialDetails
	if analysis.FirstRowIsData {
		row, err := parseSnapshotRow(headers, analysis.FirstDataRow)
		if err != nil {
			return nil, err
		}
		details = append(details, row)
	}
	for line := 2; ; line++ {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		row, err := parseSnapshotRow(headers, record)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		details = append(details, row)
	}
	if len(details) == 0 {
		return nil, fmt.Errorf("%s has no data rows", filepath.Base(filePath))
	}
	return details, nil
}

// canonicalSnapshotColumns - порядок колонок для файлов без шапки
func canonicalSnapshotColumns() []string {
	cols := []string{"theme_id", "theme", "views"}
	for _, cat := range demoCategories {
		for _, key := range demoVocabulary[cat] {
			cols = append(cols, cat+"."+key)
		}
	}
	return cols
}

func parseSnapshotRow(headers, record []string) (models.SocialDetails, error) {
	var sd models.SocialDetails
	dists := map[string]models.DistMap{}

	for i, header := range headers {
		if i >= len(record) {
			break
		}
		value := strings.TrimSpace(record[i])
		switch header {
		case "theme_id":
			id, err := strconv.ParseUint(value, 10, 64)
			if err != nil {
				return sd, fmt.Errorf("theme_id %q: %w", value, err)
			}
			sd.ThemeID = uint(id)
		case "theme":
			sd.ThemeTitle = value
		case "views":
			views, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return sd, fmt.Errorf("views %q: %w", value, err)
			}
			sd.Views = views
		default:
			cat, key, ok := strings.Cut(header, ".")
			if !ok {
				continue
			}
			pct, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return sd, fmt.Errorf("%s %q: %w", header, value, err)
			}
			if dists[cat] == nil {
				dists[cat] = models.DistMap{}
			}
			dists[cat][key] = pct
		}
	}
	if sd.ThemeTitle == "" {
		return sd, fmt.Errorf("row has no theme")
	}

	sd.Sex = dists["sex"]
	sd.Age = dists["age"]
	sd.Education = dists["education"]
	sd.ChildrenLt16 = dists["children_lt_16"]
	sd.MaritalStatus = dists["marital_status"]
	sd.Occupation = dists["occupation"]
	sd.Group = dists["group"]
	sd.Income = dists["income"]
	sd.Region = dists["region"]
	sd.TypeNP = dists["typeNP"]
	return sd, nil
}
