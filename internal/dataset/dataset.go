// Package dataset loads the ride-count CSV into a time-indexed frame and
// provides the slicing, calendar attributes and resampling used by the report.
package dataset

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/jgoulah/taxistats/pkg/models"
)

const (
	// TimestampColumn is parsed and becomes the frame index
	TimestampColumn = "timestamp"
	// ValueColumn holds the ride counts
	ValueColumn = "value"
)

var (
	// ErrMissingColumn is returned when the CSV lacks a timestamp or value column
	ErrMissingColumn = errors.New("missing required column")
	// ErrBadTimestamp is returned when a timestamp cell cannot be parsed
	ErrBadTimestamp = errors.New("malformed timestamp")
	// ErrEmpty is returned when the CSV has a header but no rows
	ErrEmpty = errors.New("dataset has no rows")
)

// timestampLayouts are tried in order for every timestamp cell
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Load reads a CSV file from disk
func Load(path string) (*Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening dataset: %w", err)
	}
	defer file.Close()

	return Read(file)
}

// Read parses a CSV stream. Any columns besides timestamp and value (such as
// a leading unnamed index column) are kept for the preview and info tables.
func Read(r io.Reader) (*Frame, error) {
	df := dataframe.ReadCSV(r,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("reading csv: %w", df.Err)
	}

	names := df.Names()
	if !contains(names, TimestampColumn) {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, TimestampColumn)
	}
	if !contains(names, ValueColumn) {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, ValueColumn)
	}
	if df.Nrow() == 0 {
		return nil, ErrEmpty
	}

	columns := make([][]string, len(names))
	for i, name := range names {
		columns[i] = df.Col(name).Records()
	}

	// gota names a blank header X0; a blank leading column is the row index
	indexCol := -1
	if names[0] == "" || names[0] == "X0" {
		if tsIdx, valIdx := indexOf(names, TimestampColumn), indexOf(names, ValueColumn); tsIdx != 0 && valIdx != 0 {
			indexCol = 0
			names = append([]string{""}, names[1:]...)
		}
	}

	return fromColumns(names, columns, indexCol)
}

// fromColumns builds the frame. indexCol, when not -1, is a row index column
// that only appears in the preview.
func fromColumns(names []string, columns [][]string, indexCol int) (*Frame, error) {
	tsIdx := indexOf(names, TimestampColumn)
	valIdx := indexOf(names, ValueColumn)
	nrows := len(columns[tsIdx])

	frame := &Frame{
		columns: names,
		preview: make([][]string, 0, previewCap),
	}

	for row := 0; row < nrows; row++ {
		raw := strings.TrimSpace(columns[tsIdx][row])
		ts, err := ParseTimestamp(raw)
		if err != nil {
			// header is line 1, first data row is line 2
			return nil, fmt.Errorf("%w at line %d: %q", ErrBadTimestamp, row+2, raw)
		}

		frame.observations = append(frame.observations, models.Observation{
			Timestamp: ts,
			Value:     parseValue(columns[valIdx][row]),
		})

		if row < previewCap {
			cells := make([]string, len(names))
			for c := range names {
				cells[c] = columns[c][row]
			}
			frame.preview = append(frame.preview, cells)
		}
	}

	frame.extra = make([]ColumnInfo, 0, len(names))
	for c, name := range names {
		if c == tsIdx || c == valIdx || c == indexCol {
			continue
		}
		frame.extra = append(frame.extra, describeColumn(name, columns[c]))
	}

	sort.SliceStable(frame.observations, func(i, j int) bool {
		return frame.observations[i].Timestamp.Before(frame.observations[j].Timestamp)
	})

	return frame, nil
}

// FromObservations builds a frame from already parsed observations, e.g. rows
// read back from the database
func FromObservations(obs []models.Observation) *Frame {
	frame := &Frame{
		columns:      []string{TimestampColumn, ValueColumn},
		observations: append([]models.Observation(nil), obs...),
	}
	sort.SliceStable(frame.observations, func(i, j int) bool {
		return frame.observations[i].Timestamp.Before(frame.observations[j].Timestamp)
	})

	for i, o := range frame.observations {
		if i == previewCap {
			break
		}
		frame.preview = append(frame.preview, []string{
			o.Timestamp.Format(timestampLayouts[0]),
			formatValue(o.Value),
		})
	}
	return frame
}

// ParseTimestamp parses a timestamp cell in any of the supported layouts.
// Timestamps without a zone are taken as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse timestamp: %s", s)
}

// parseValue returns NaN for empty, NA-style or non-numeric cells
func parseValue(s string) float64 {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

func formatValue(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// describeColumn infers int64, float64 or object from the non-empty cells
// of a pass-through column
func describeColumn(name string, cells []string) ColumnInfo {
	info := ColumnInfo{Name: name, Dtype: "int64"}
	for _, cell := range cells {
		cell = strings.TrimSpace(cell)
		if cell == "" || cell == "NaN" || cell == "NA" {
			continue
		}
		info.NonNull++
		if info.Dtype == "object" {
			continue
		}
		if _, err := strconv.ParseInt(cell, 10, 64); err == nil {
			continue
		}
		if _, err := strconv.ParseFloat(cell, 64); err == nil {
			info.Dtype = "float64"
			continue
		}
		info.Dtype = "object"
	}
	if info.NonNull == 0 {
		info.Dtype = "object"
	}
	return info
}

func contains(names []string, name string) bool {
	return indexOf(names, name) >= 0
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if strings.EqualFold(strings.TrimSpace(n), name) {
			return i
		}
	}
	return -1
}
