package plot

import (
	"math"
	"time"

	"github.com/wcharczuk/go-chart/v2"
)

const (
	baseChartWidth   = 1280
	baseChartHeight  = 720
	minBarWidthPx    = 18
	heightPerMaxStep = 40
)

// weekSeries - серия значений по неделям для столбчатого графика
type weekSeries struct {
	weeks     []time.Time
	yValues   []float64
	nameGraph string
}

func NewWeekSeries(weeks []time.Time, values []int64, nameGraph string) *weekSeries {
	y := make([]float64, len(values))
	for i, v := range values {
		y[i] = float64(v)
	}
	return &weekSeries{weeks: weeks, yValues: y, nameGraph: nameGraph}
}

func (d *weekSeries) GetNameGraph() string {
	return d.nameGraph
}

func (d *weekSeries) getYValues() []float64 {
	return d.yValues
}

// calculateChartDimensions подбирает размер под количество недель,
// чтобы подписи по оси X не слипались
func (d *weekSeries) calculateChartDimensions(maxValue float64) (width, height int) {
	width = baseChartWidth
	if need := len(d.weeks) * (minBarWidthPx + 8); need > width {
		width = need
	}
	height = baseChartHeight
	if maxValue > 0 {
		steps := int(math.Ceil(maxValue / calculateGridStep(maxValue)))
		if h := steps * heightPerMaxStep; h > height {
			height = h
		}
	}
	return width, height
}

func (d *weekSeries) generateBarValues() []chart.Value {
	bars := make([]chart.Value, 0, len(d.weeks))
	for i, w := range d.weeks {
		bars = append(bars, chart.Value{
			Value: d.yValues[i],
			Label: w.Format("02.01"),
		})
	}
	return bars
}
