package main

import (
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/pivolan/media_ratings/domain/models"
	"github.com/pivolan/media_ratings/plot"
)

// isoWeekStart возвращает понедельник ISO-недели.
// 4 января всегда попадает в первую неделю.
func isoWeekStart(year, week int) time.Time {
	jan4 := time.Date(year, 1, 4, 0, 0, 0, 0, time.UTC)
	offset := (int(jan4.Weekday()) + 6) % 7
	monday := jan4.AddDate(0, 0, -offset)
	return monday.AddDate(0, 0, (week-1)*7)
}

// handleKeywordWeekly - понедельная динамика количества упоминаний.
// format=png рисует суммарный график, format=html интерактивный с
// разбивкой по ключевым словам, по умолчанию JSON.
func (h *Handlers) handleKeywordWeekly(c *gin.Context) {
	f, err := parseFilter(c, h.cfg)
	if err != nil {
		abortError(c, http.StatusBadRequest, err)
		return
	}
	rows, err := h.catalog.WeeklyCounts(f)
	if err != nil {
		abortError(c, http.StatusInternalServerError, err)
		return
	}

	switch c.Query("format") {
	case "png":
		weeks, values := totalsByWeek(rows)
		writeBarPNG(c, plot.NewWeekSeries(weeks, values, "Publications per week"))
	case "html":
		writeWeeklyHTML(c, rows)
	default:
		c.JSON(http.StatusOK, rows)
	}
}

// handleAdmixerWeekly - понедельная динамика просмотров из ClickHouse,
// опциональный параметр dim добавляет разбивку по атрибуту аудитории
func (h *Handlers) handleAdmixerWeekly(c *gin.Context) {
	f, err := parseFilter(c, h.cfg)
	if err != nil {
		abortError(c, http.StatusBadRequest, err)
		return
	}
	dim := c.Query("dim")

	groups, err := h.catalog.KeyTrackPairs("key_word", f)
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

	rows, err := BuildAdmixerDynamics(groups, dim, func(batch []string) ([]models.AnalyticsRow, error) {
		return client.QueryStatsByDate(batch, f.From, f.To)
	})
	if err != nil {
		abortError(c, http.StatusBadGateway, err)
		return
	}

	switch c.Query("format") {
	case "png":
		weeks, values := viewsByWeek(rows)
		writeBarPNG(c, plot.NewWeekSeries(weeks, values, "Views per week"))
	case "html":
		writeDynamicsHTML(c, rows)
	default:
		c.JSON(http.StatusOK, rows)
	}
}

// handleSnapshotViews - просмотры тем по последним снапшотам
// провайдера соцдема за период
func (h *Handlers) handleSnapshotViews(c *gin.Context) {
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
	latest := ResolveLatestDetails(inPeriod, details, f.From, f.To)

	titles := make([]string, 0, len(latest))
	for title := range latest {
		titles = append(titles, title)
	}
	sort.Slice(titles, func(i, j int) bool {
		return latest[titles[i]].Views > latest[titles[j]].Views
	})
	values := make([]int64, len(titles))
	for i, title := range titles {
		values[i] = latest[title].Views
	}

	switch c.Query("format") {
	case "png":
		writeBarPNG(c, plot.NewLabelSeries(titles, values, "Theme views"))
	case "html":
		bar := newBarChart("Theme views")
		data := make([]opts.BarData, len(values))
		for i, v := range values {
			data[i] = opts.BarData{Value: v}
		}
		bar.SetXAxis(titles).AddSeries("views", data)
		writeChartHTML(c, bar)
	default:
		out := make([]map[string]interface{}, len(titles))
		for i, title := range titles {
			out[i] = map[string]interface{}{"theme": title, "views": values[i]}
		}
		c.JSON(http.StatusOK, out)
	}
}

func totalsByWeek(rows []models.WeekCountRow) ([]time.Time, []int64) {
	totals := map[time.Time]int64{}
	for _, r := range rows {
		totals[isoWeekStart(r.Year, r.Week)] += r.Amount
	}
	return sortWeekTotals(totals)
}

func viewsByWeek(rows []models.AdmixerDateRow) ([]time.Time, []int64) {
	totals := map[time.Time]int64{}
	for _, r := range rows {
		totals[r.Date] += r.Views
	}
	return sortWeekTotals(totals)
}

func sortWeekTotals(totals map[time.Time]int64) ([]time.Time, []int64) {
	weeks := make([]time.Time, 0, len(totals))
	for w := range totals {
		weeks = append(weeks, w)
	}
	sort.Slice(weeks, func(i, j int) bool { return weeks[i].Before(weeks[j]) })
	values := make([]int64, len(weeks))
	for i, w := range weeks {
		values[i] = totals[w]
	}
	return weeks, values
}

func writeBarPNG(c *gin.Context, series plot.DataForGraph) {
	buf, err := plot.DrawPlotBar(series)
	if err != nil {
		abortError(c, http.StatusInternalServerError, err)
		return
	}
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

func newBarChart(title string) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithInitializationOpts(opts.Initialization{Width: "1280px", Height: "720px"}),
	)
	return bar
}

func writeWeeklyHTML(c *gin.Context, rows []models.WeekCountRow) {
	byKey := map[string]map[time.Time]int64{}
	for _, r := range rows {
		w := isoWeekStart(r.Year, r.Week)
		if byKey[r.KeyWord] == nil {
			byKey[r.KeyWord] = map[time.Time]int64{}
		}
		byKey[r.KeyWord][w] += r.Amount
	}
	writeSeriesHTML(c, "Publications per week", byKey)
}

func writeDynamicsHTML(c *gin.Context, rows []models.AdmixerDateRow) {
	byKey := map[string]map[time.Time]int64{}
	for _, r := range rows {
		if byKey[r.KeyWord] == nil {
			byKey[r.KeyWord] = map[time.Time]int64{}
		}
		byKey[r.KeyWord][r.Date] += r.Views
	}
	writeSeriesHTML(c, "Views per week", byKey)
}

// writeSeriesHTML - одна серия на каждое ключевое слово, общая ось недель
func writeSeriesHTML(c *gin.Context, title string, byKey map[string]map[time.Time]int64) {
	weekSet := map[time.Time]bool{}
	for _, series := range byKey {
		for w := range series {
			weekSet[w] = true
		}
	}
	weeks := make([]time.Time, 0, len(weekSet))
	for w := range weekSet {
		weeks = append(weeks, w)
	}
	sort.Slice(weeks, func(i, j int) bool { return weeks[i].Before(weeks[j]) })
	labels := make([]string, len(weeks))
	for i, w := range weeks {
		labels[i] = w.Format("02.01.2006")
	}

	bar := newBarChart(title)
	bar.SetXAxis(labels)
	for _, key := range sortedKeys(byKey) {
		data := make([]opts.BarData, len(weeks))
		for i, w := range weeks {
			data[i] = opts.BarData{Value: byKey[key][w]}
		}
		bar.AddSeries(key, data)
	}
	writeChartHTML(c, bar)
}

func sortedKeys(m map[string]map[time.Time]int64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func writeChartHTML(c *gin.Context, bar *charts.Bar) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := bar.Render(c.Writer); err != nil {
		abortError(c, http.StatusInternalServerError, fmt.Errorf("render chart: %w", err))
	}
}
