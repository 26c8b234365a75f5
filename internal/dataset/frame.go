package dataset

import (
	"math"
	"time"

	"github.com/jgoulah/taxistats/pkg/models"
)

const previewCap = 20

// Frame is the time-indexed table of observations
type Frame struct {
	columns      []string
	preview      [][]string
	extra        []ColumnInfo
	observations []models.Observation
}

// ColumnInfo describes one data column in the info table
type ColumnInfo struct {
	Name    string `json:"name"`
	Dtype   string `json:"dtype"`
	NonNull int    `json:"non_null"`
}

// Info mirrors a dataframe summary after the timestamp became the index
type Info struct {
	Rows        int          `json:"rows"`
	Start       time.Time    `json:"start"`
	End         time.Time    `json:"end"`
	Columns     []ColumnInfo `json:"columns"`
	MemoryBytes uint64       `json:"memory_bytes"`
}

// ColumnCount pairs a column name with a count
type ColumnCount struct {
	Column string `json:"column"`
	Count  int    `json:"count"`
}

// Len returns the number of observations
func (f *Frame) Len() int {
	return len(f.observations)
}

// Observations returns the sorted observations. The slice must not be modified.
func (f *Frame) Observations() []models.Observation {
	return f.observations
}

// Columns returns the raw CSV header
func (f *Frame) Columns() []string {
	return f.columns
}

// Head returns up to n raw rows as they appeared in the file
func (f *Frame) Head(n int) [][]string {
	if n > len(f.preview) {
		n = len(f.preview)
	}
	if n < 0 {
		n = 0
	}
	return f.preview[:n]
}

// Info summarises the frame
func (f *Frame) Info() Info {
	info := Info{Rows: len(f.observations)}
	if info.Rows > 0 {
		info.Start = f.observations[0].Timestamp
		info.End = f.observations[info.Rows-1].Timestamp
	}

	info.Columns = append(info.Columns, ColumnInfo{
		Name:    ValueColumn,
		Dtype:   "float64",
		NonNull: info.Rows - f.nullValues(),
	})
	info.Columns = append(info.Columns, f.extra...)

	// 8 bytes for the index plus 8 per column
	info.MemoryBytes = uint64(info.Rows) * 8 * uint64(len(info.Columns)+1)
	return info
}

// NullCounts returns the number of missing cells per data column
func (f *Frame) NullCounts() []ColumnCount {
	counts := []ColumnCount{{Column: ValueColumn, Count: f.nullValues()}}
	for _, c := range f.extra {
		counts = append(counts, ColumnCount{Column: c.Name, Count: len(f.observations) - c.NonNull})
	}
	return counts
}

func (f *Frame) nullValues() int {
	n := 0
	for _, o := range f.observations {
		if math.IsNaN(o.Value) {
			n++
		}
	}
	return n
}

// Between returns the observations from the start of the start day through
// the end of the end day, matching label slicing by date strings
func (f *Frame) Between(start, end time.Time) []models.Observation {
	from := truncateDay(start)
	until := truncateDay(end).AddDate(0, 0, 1)

	var out []models.Observation
	for _, o := range f.observations {
		if o.Timestamp.Before(from) {
			continue
		}
		if !o.Timestamp.Before(until) {
			break
		}
		out = append(out, o)
	}
	return out
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
