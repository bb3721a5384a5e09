package plot

import (
	"bytes"
	"math"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// DrawPlotBar рисует столбчатый график серии и возвращает PNG
func DrawPlotBar(data DataForGraph) (*bytes.Buffer, error) {
	maxValue := findMaxValue(data.getYValues())
	width, height := data.calculateChartDimensions(maxValue)
	gridStep := calculateGridStep(maxValue)

	graph := chart.BarChart{
		Title:    data.GetNameGraph(),
		Width:    width,
		Height:   height,
		BarWidth: minBarWidthPx,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 60},
		},
		XAxis: chart.Style{
			TextRotationDegrees: 90,
		},
		YAxis: chart.YAxis{
			Range:          &chart.ContinuousRange{Min: 0, Max: maxValue + gridStep},
			GridMajorStyle: chart.Style{StrokeColor: drawing.ColorFromHex("cccccc"), StrokeWidth: 1},
			GridLines:      gridLines(maxValue, gridStep),
		},
		Bars: data.generateBarValues(),
	}

	buf := bytes.NewBuffer(nil)
	if err := graph.Render(chart.PNG, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func gridLines(maxValue, step float64) []chart.GridLine {
	var lines []chart.GridLine
	for v := step; v <= maxValue; v += step {
		lines = append(lines, chart.GridLine{Value: v})
	}
	return lines
}

// calculateGridStep выбирает шаг сетки вида 1/2/5 * 10^n
func calculateGridStep(maxValue float64) float64 {
	if maxValue <= 0 {
		return 1
	}
	magnitude := math.Pow(10, math.Floor(math.Log10(maxValue)))
	norm := maxValue / magnitude
	switch {
	case norm <= 2:
		return magnitude / 5
	case norm <= 5:
		return magnitude / 2
	default:
		return magnitude
	}
}

func findMaxValue(values []float64) float64 {
	max := 0.0
	for _, v := range values {
		if v > max {
			max = v
		}
	}
	return max
}
