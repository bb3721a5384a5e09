package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mozillazg/go-unidecode"
	"github.com/pivolan/media_ratings/config"
	"github.com/pivolan/media_ratings/domain/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type Handlers struct {
	cfg       *config.Config
	db        *gorm.DB
	catalog   *Catalog
	snapshots *SnapshotStore
}

func NewHandlers(cfg *config.Config, db *gorm.DB) *Handlers {
	return &Handlers{
		cfg:       cfg,
		db:        db,
		catalog:   NewCatalog(db),
		snapshots: NewSnapshotStore(db),
	}
}

func setupRouter(h *Handlers) *gin.Engine {
	r := gin.Default()

	api := r.Group("/api")
	{
		api.GET("/ratings/themes", h.handleRating("key_word"))
		api.GET("/ratings/regions", h.handleRating("region"))
		api.GET("/ratings/types", h.handleRating("type"))
		api.GET("/ratings/topics", h.handleRating("topic"))
		api.GET("/ratings/markets", h.handleMarketsRating)
		api.GET("/ratings/publications", h.handlePublicationsRating)

		api.GET("/social/admixer/specific", h.handleAdmixerSpecific)
		api.GET("/social/admixer/general", h.handleAdmixerGeneral)
		api.GET("/social/fg/by-theme", h.handleThemeDemo)
		api.GET("/social/fg/general", h.handleThemeDemoSummary)
		api.GET("/social/fg/publications", h.handlePublicationDemo)

		api.GET("/themes", h.handleThemeList)
		api.GET("/analytics/cache", h.handleAnalyticsCache)

		api.GET("/charts/keyword-weekly", h.handleKeywordWeekly)
		api.GET("/charts/admixer-weekly", h.handleAdmixerWeekly)
		api.GET("/charts/fg-views", h.handleSnapshotViews)

		api.POST("/uploads/snapshot", h.handleSnapshotUpload)
		api.POST("/uploads/analytics-dump", h.handleAnalyticsDump)
	}
	return r
}

// respondRows отдает отчет в запрошенном формате: json по умолчанию,
// csv с ';' или готовая ascii-таблица
func respondRows(c *gin.Context, name string, rows []map[string]interface{}, labels map[string]string) {
	switch c.Query("format") {
	case "csv":
		fileName := fmt.Sprintf("%s_%s.csv", unidecode.Unidecode(name), time.Now().Format("20060102-150405"))
		c.Header("Content-Disposition", "attachment; filename="+fileName)
		c.Header("Content-Type", "text/csv; charset=utf-8")
		if err := WriteCSV(c.Writer, rows, labels); err != nil {
			logrus.Errorf("csv render: %v", err)
		}
	case "table":
		c.String(http.StatusOK, RenderTable(rows))
	default:
		c.JSON(http.StatusOK, rows)
	}
}

func abortError(c *gin.Context, status int, err error) {
	logrus.Errorf("request failed: %v", err)
	c.JSON(status, gin.H{"error": err.Error()})
}

func (h *Handlers) handleRating(dim string) gin.HandlerFunc {
	return func(c *gin.Context) {
		f, err := parseFilter(c, h.cfg)
		if err != nil {
			abortError(c, http.StatusBadRequest, err)
			return
		}
		rows, err := h.catalog.CountByDimension(dim, f)
		if err != nil {
			abortError(c, http.StatusInternalServerError, err)
			return
		}
		respondRows(c, dim, rowsToMaps(rows), nil)
	}
}

func (h *Handlers) handleMarketsRating(c *gin.Context) {
	f, err := parseFilter(c, h.cfg)
	if err != nil {
		abortError(c, http.StatusBadRequest, err)
		return
	}
	rows, err := h.catalog.CountMarkets(f)
	if err != nil {
		abortError(c, http.StatusInternalServerError, err)
		return
	}
	respondRows(c, "markets", rowsToMaps(rows), nil)
}

func (h *Handlers) handlePublicationsRating(c *gin.Context) {
	f, err := parseFilter(c, h.cfg)
	if err != nil {
		abortError(c, http.StatusBadRequest, err)
		return
	}
	rows, err := h.catalog.CountPublicationTuples(f)
	if err != nil {
		abortError(c, http.StatusInternalServerError, err)
		return
	}
	respondRows(c, "publications", rowsToMaps(rows), nil)
}

// handleAdmixerSpecific - соцдем рейтинг по ключевым словам из ClickHouse.
// Клиент аналитики живет ровно один запрос.
func (h *Handlers) handleAdmixerSpecific(c *gin.Context) {
	h.admixerReport(c, "key_word")
}

// handleAdmixerGeneral - то же по произвольному атрибуту каталога
func (h *Handlers) handleAdmixerGeneral(c *gin.Context) {
	dim := c.Query("aggregator")
	if !validDimension(dim) {
		abortError(c, http.StatusBadRequest, fmt.Errorf("bad aggregator %q", dim))
		return
	}
	h.admixerReport(c, dim)
}

func validDimension(dim string) bool {
	switch dim {
	case "key_word", "object", "publication", "region", "type", "topic":
		return true
	}
	return false
}

func (h *Handlers) admixerReport(c *gin.Context, dim string) {
	f, err := parseFilter(c, h.cfg)
	if err != nil {
		abortError(c, http.StatusBadRequest, err)
		return
	}

	groups, err := h.catalog.KeyTrackPairs(dim, f)
	if err != nil {
		abortError(c, http.StatusInternalServerError, err)
		return
	}

	client, err := OpenAnalyticsClient(h.cfg.ClickhouseDsn)
	if err != nil {
		abortError(c, http.StatusBadGateway, err)
		return
	}
	defer client.Close()

	rows, err := BuildAdmixerRating(groups, func(batch []string) ([]models.AnalyticsRow, error) {
		return client.QueryStats(batch, f.From, f.To)
	})
	if err != nil {
		// частичных данных не отдаем
		abortError(c, http.StatusBadGateway, err)
		return
	}
	respondRows(c, dim, rowsToMaps(rows), admixerCSVLabels)
}

// handleThemeDemo - соцдем отчет по темам из снапшотов провайдера
func (h *Handlers) handleThemeDemo(c *gin.Context) {
	f, err := parseFilter(c, h.cfg)
	if err != nil {
		abortError(c, http.StatusBadRequest, err)
		return
	}
	uploads, err := h.snapshots.Uploads(socialProvider)
	if err != nil {
		abortError(c, http.StatusInternalServerError, err)
		return
	}
	inPeriod := SnapshotsInPeriod(uploads, f.From, f.To)
	details, err := h.snapshots.Details(uploadIDs(inPeriod), f.KeyWords)
	if err != nil {
		abortError(c, http.StatusInternalServerError, err)
		return
	}
	rows := BuildThemeDemoReport(uploads, details, f.From, f.To)
	respondRows(c, "themes_demo", rows, fgCSVLabels)
}

// handleThemeDemoSummary - общий профиль аудитории по всем темам периода
func (h *Handlers) handleThemeDemoSummary(c *gin.Context) {
	f, err := parseFilter(c, h.cfg)
	if err != nil {
		abortError(c, http.StatusBadRequest, err)
		return
	}
	uploads, err := h.snapshots.Uploads(socialProvider)
	if err != nil {
		abortError(c, http.StatusInternalServerError, err)
		return
	}
	inPeriod := SnapshotsInPeriod(uploads, f.From, f.To)
	details, err := h.snapshots.Details(uploadIDs(inPeriod), f.KeyWords)
	if err != nil {
		abortError(c, http.StatusInternalServerError, err)
		return
	}
	summary := BuildThemeDemoSummary(uploads, details, f.From, f.To)
	respondRows(c, "themes_demo_general", []map[string]interface{}{summary}, fgCSVLabels)
}

// handlePublicationDemo - взвешенный соцдем рейтинг изданий из кеша
func (h *Handlers) handlePublicationDemo(c *gin.Context) {
	f, err := parseFilter(c, h.cfg)
	if err != nil {
		abortError(c, http.StatusBadRequest, err)
		return
	}
	rows, err := h.snapshots.Ratings(f.From, f.To, f.Publications)
	if err != nil {
		abortError(c, http.StatusInternalServerError, err)
		return
	}
	respondRows(c, "publications_demo", BuildPublicationDemoReport(rows), fgCSVLabels)
}

// handleAnalyticsCache отдает содержимое кеша статистики, без похода
// в ClickHouse. Фильтр track_id__in опционален.
func (h *Handlers) handleAnalyticsCache(c *gin.Context) {
	ids, err := parseListParam(c, "track_id__in")
	if err != nil {
		abortError(c, http.StatusBadRequest, err)
		return
	}
	rows, err := h.catalog.CachedAnalytics(ids)
	if err != nil {
		abortError(c, http.StatusInternalServerError, err)
		return
	}
	respondRows(c, "analytics_cache", rowsToMaps(rows), nil)
}

func (h *Handlers) handleThemeList(c *gin.Context) {
	groups, err := h.catalog.MarketThemes()
	if err != nil {
		abortError(c, http.StatusInternalServerError, err)
		return
	}
	result := []gin.H{}
	for market, keywords := range groups {
		result = append(result, gin.H{"market": market, "keywords": keywords})
	}
	c.JSON(http.StatusOK, result)
}
