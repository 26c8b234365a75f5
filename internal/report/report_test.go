package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jgoulah/taxistats/internal/dataset"
)

// syntheticCSV writes half-hourly ride counts with a weekly and daily cycle.
// Days listed in gaps have empty values.
func syntheticCSV(start time.Time, days int, gaps ...int) string {
	skip := make(map[int]bool)
	for _, g := range gaps {
		skip[g] = true
	}

	var b strings.Builder
	b.WriteString(",timestamp,value\n")
	row := 0
	for d := 0; d < days; d++ {
		for slot := 0; slot < 48; slot++ {
			ts := start.AddDate(0, 0, d).Add(time.Duration(slot) * 30 * time.Minute)
			value := ""
			if !skip[d] {
				v := 15000 + 2000*math.Sin(2*math.Pi*float64(d)/7) + 5000*math.Sin(2*math.Pi*float64(slot)/48) + float64((d*31+slot*17)%97)
				value = fmt.Sprintf("%.0f", v)
			}
			fmt.Fprintf(&b, "%d,%s,%s\n", row, ts.Format("2006-01-02 15:04:05"), value)
			row++
		}
	}
	return b.String()
}

func buildFrom(t *testing.T, csv string, opts Options) *Report {
	t.Helper()
	frame, err := dataset.Read(strings.NewReader(csv))
	require.NoError(t, err)

	rep, err := Build(context.Background(), frame, opts)
	require.NoError(t, err)
	return rep
}

func headings(rep *Report) []string {
	out := make([]string, len(rep.Sections))
	for i, s := range rep.Sections {
		out[i] = s.Heading
	}
	return out
}

func TestBuild(t *testing.T) {
	start := time.Date(2014, 10, 20, 0, 0, 0, 0, time.UTC)
	rep := buildFrom(t, syntheticCSV(start, 75), Options{Source: "test.csv", Workers: 2})

	assert.True(t, rep.Completed)
	assert.NotEmpty(t, rep.ID)
	assert.Equal(t, "NYC Taxi Rides Analysis", rep.Title)
	assert.Equal(t, []string{
		"Dataset Preview",
		"Data Preparation",
		"Dataset Info",
		"Null Values",
		"Visualizing Data",
		"Specific Events Analysis",
		"New York City Marathon",
		"Thanksgiving",
		"Snow Storm",
		"Christmas and New Year",
		"Adding Time Attributes",
		"Time Series Decomposition",
		"Stationarity Check",
		"Autocorrelation Analysis",
	}, headings(rep))

	assert.Equal(t, 75*48, rep.Info.Rows)
	require.Len(t, rep.Info.Columns, 1, "index column is preview only")
	assert.Equal(t, []dataset.ColumnCount{{Column: "value", Count: 0}}, rep.Nulls)
	assert.Len(t, rep.Daily, 75)
	require.NotNil(t, rep.Decomposition)
	assert.Equal(t, 7, rep.Decomposition.Period)
	require.NotNil(t, rep.ADF)
	require.NotNil(t, rep.ACF)
	assert.Len(t, rep.ACF.Values, 31)
	require.NotNil(t, rep.PACF)
	assert.Len(t, rep.PACF.Values, 31)

	preview := rep.Sections[0].Blocks[0].Table
	require.NotNil(t, preview)
	assert.Len(t, preview.Rows, 5)
	assert.Equal(t, []string{"", "timestamp", "value"}, preview.Header)

	for _, s := range rep.Sections {
		for _, b := range s.Blocks {
			assert.Empty(t, b.Error, s.Heading)
		}
	}

	var charts int
	for _, s := range rep.Sections {
		for _, b := range s.Blocks {
			if b.Chart != "" {
				charts++
				assert.True(t, strings.HasPrefix(string(b.Chart), "<svg"), s.Heading)
			}
		}
	}
	// series, 4 events, daily, month, weekday, decomposition, acf, pacf
	assert.Equal(t, 11, charts)
}

func TestBuildRecordsStepErrors(t *testing.T) {
	start := time.Date(2014, 7, 1, 0, 0, 0, 0, time.UTC)
	rep := buildFrom(t, syntheticCSV(start, 40, 20), Options{})

	assert.True(t, rep.Completed)
	assert.Nil(t, rep.Decomposition)
	require.NotNil(t, rep.ADF, "ADF runs on the days that have values")

	var dec *Section
	for _, s := range rep.Sections {
		if s.Heading == "Time Series Decomposition" {
			dec = s
		}
	}
	require.NotNil(t, dec)
	require.Len(t, dec.Blocks, 1)
	assert.Contains(t, dec.Blocks[0].Error, "missing values")

	// the 2014 event windows are outside this data
	for _, s := range rep.Sections {
		if s.Heading == "Thanksgiving" {
			require.Len(t, s.Blocks, 1)
			assert.Contains(t, s.Blocks[0].Text, "No observations")
		}
	}
}

func TestBuildCancelled(t *testing.T) {
	frame, err := dataset.Read(strings.NewReader(syntheticCSV(time.Date(2014, 7, 1, 0, 0, 0, 0, time.UTC), 20)))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Build(ctx, frame, Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRender(t *testing.T) {
	start := time.Date(2014, 10, 20, 0, 0, 0, 0, time.UTC)
	rep := buildFrom(t, syntheticCSV(start, 30), Options{
		Title:   "Rides",
		Headers: []string{"Exploratory analysis"},
		Events:  []Event{},
	})

	var buf bytes.Buffer
	require.NoError(t, rep.Render(&buf))
	page := buf.String()

	assert.Contains(t, page, "<title>Rides</title>")
	assert.Contains(t, page, "<h2>Exploratory analysis</h2>")
	assert.Contains(t, page, "<code>timestamp</code>")
	assert.Contains(t, page, "Test Statistic:")
	assert.Contains(t, page, `id="completed"`)
	assert.Contains(t, page, "Analysis completed!")
	assert.NotContains(t, page, "<?xml")
}

func TestSummary(t *testing.T) {
	start := time.Date(2014, 10, 20, 0, 0, 0, 0, time.UTC)
	rep := buildFrom(t, syntheticCSV(start, 30, 29), Options{Source: "test.csv", Events: []Event{}})

	s := rep.Summary()
	assert.Equal(t, rep.ID, s.ID)
	assert.Equal(t, "test.csv", s.Source)
	assert.Equal(t, 30*48, s.Rows)
	assert.Equal(t, 48, s.Nulls)
	require.NotNil(t, s.ADF)
	require.NotNil(t, s.Stationary)

	// the trailing empty day is dropped
	assert.Len(t, s.DailyMeans, 6)
	assert.Equal(t, "2014-11-17", s.DailyMeans[5].Date)

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"daily_means"`)
}

func TestHeading(t *testing.T) {
	assert.Equal(t, "Converted <code>timestamp</code> to datetime", string(heading("Converted `timestamp` to datetime")))
	assert.Equal(t, "a &lt;b&gt; `c", string(heading("a <b> `c")))
}
