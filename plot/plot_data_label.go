package plot

import (
	"math"

	"github.com/wcharczuk/go-chart/v2"
)

// labelSeries - серия с произвольными строковыми подписями по X
// (темы, публикации), в отличие от weekSeries с датами
type labelSeries struct {
	labels    []string
	yValues   []float64
	nameGraph string
}

func NewLabelSeries(labels []string, values []int64, nameGraph string) *labelSeries {
	y := make([]float64, len(values))
	for i, v := range values {
		y[i] = float64(v)
	}
	return &labelSeries{labels: labels, yValues: y, nameGraph: nameGraph}
}

func (d *labelSeries) GetNameGraph() string {
	return d.nameGraph
}

func (d *labelSeries) getYValues() []float64 {
	return d.yValues
}

func (d *labelSeries) calculateChartDimensions(maxValue float64) (width, height int) {
	width = baseChartWidth
	if need := len(d.labels) * (minBarWidthPx + 8); need > width {
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

func (d *labelSeries) generateBarValues() []chart.Value {
	bars := make([]chart.Value, 0, len(d.labels))
	for i, l := range d.labels {
		bars = append(bars, chart.Value{Value: d.yValues[i], Label: l})
	}
	return bars
}
