package plot

import "github.com/wcharczuk/go-chart/v2"

type DataForGraph interface {
	GetNameGraph() string
	getYValues() []float64
	calculateChartDimensions(float64) (int, int)
	generateBarValues() []chart.Value
}
