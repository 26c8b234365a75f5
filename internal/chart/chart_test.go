package chart

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/plot/plotter"
)

func days(n int) []time.Time {
	start := time.Date(2014, 7, 1, 0, 0, 0, 0, time.UTC)
	out := make([]time.Time, n)
	for i := range out {
		out[i] = start.AddDate(0, 0, i)
	}
	return out
}

func TestTimeSeries(t *testing.T) {
	svg, err := TimeSeries("Rides", DefaultSize, TimeLine{
		Name:   "value",
		Times:  days(5),
		Values: []float64{1, 2, math.NaN(), 4, 5},
	})
	require.NoError(t, err)
	assert.Contains(t, string(svg), "<svg")
	assert.Contains(t, string(svg), "Rides")
}

func TestTimeSeriesLengthMismatch(t *testing.T) {
	_, err := TimeSeries("", DefaultSize, TimeLine{Name: "value", Times: days(3), Values: []float64{1}})
	assert.Error(t, err)
}

func TestGrouped(t *testing.T) {
	svg, err := Grouped("Day Rides by Month", "day", "value", DefaultSize,
		Line{Name: "July", X: []float64{1, 2, 3}, Y: []float64{10, 12, 9}},
		Line{Name: "August", X: []float64{1, 2}, Y: []float64{7, 8}},
	)
	require.NoError(t, err)
	assert.Contains(t, string(svg), "July")
	assert.Contains(t, string(svg), "August")
}

func TestPanels(t *testing.T) {
	_, err := Panels(PanelSize)
	assert.Error(t, err)

	times := days(4)
	svg, err := Panels(PanelSize,
		Panel{Title: "Observed", Times: times, Values: []float64{1, 2, 3, 4}},
		Panel{Title: "Trend", Times: times, Values: []float64{math.NaN(), 2, 3, math.NaN()}},
	)
	require.NoError(t, err)
	assert.Contains(t, string(svg), "Observed")
	assert.Contains(t, string(svg), "Trend")
}

func TestStems(t *testing.T) {
	svg, err := Stems("Autocorrelation", DefaultSize, []float64{1, 0.5, 0.2, -0.1}, []float64{0, 0.2, 0.25, 0.27})
	require.NoError(t, err)
	assert.Contains(t, string(svg), "Autocorrelation")
}

func TestSegments(t *testing.T) {
	xs := []float64{0, 1, 2, 3, 4, 5}
	ys := []float64{1, math.NaN(), 3, 4, math.Inf(1), 6}

	segs := segments(xs, ys)
	require.Len(t, segs, 3)
	assert.Equal(t, plotter.XYs{{X: 0, Y: 1}}, segs[0])
	assert.Equal(t, plotter.XYs{{X: 2, Y: 3}, {X: 3, Y: 4}}, segs[1])
	assert.Equal(t, plotter.XYs{{X: 5, Y: 6}}, segs[2])

	assert.Empty(t, segments([]float64{0}, []float64{math.NaN()}))
}
