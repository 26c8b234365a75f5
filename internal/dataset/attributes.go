package dataset

import (
	"math"
	"sort"
	"time"

	"github.com/jgoulah/taxistats/pkg/models"
)

// Attributes are calendar fields derived from a timestamp
type Attributes struct {
	Day     int // day of month, 1-31
	Hour    int // 0-23
	Weekday int // Monday=0 .. Sunday=6
	Month   int // 1-12
}

// Row is an observation with its derived attributes
type Row struct {
	models.Observation
	Attributes
}

// Point is one value of a regular series
type Point struct {
	Time  time.Time
	Value float64
}

// XY is one aggregated value keyed by an integer x
type XY struct {
	X int
	Y float64
}

// Group is one hue line of a grouped mean
type Group struct {
	Label  string
	Key    int
	Points []XY
}

// AttributesOf derives the calendar fields of t
func AttributesOf(t time.Time) Attributes {
	return Attributes{
		Day:     t.Day(),
		Hour:    t.Hour(),
		Weekday: (int(t.Weekday()) + 6) % 7,
		Month:   int(t.Month()),
	}
}

// MonthName returns the English month name for 1-12
func MonthName(m int) string {
	return time.Month(m).String()
}

// WeekdayName returns the English day name for Monday=0 numbering
func WeekdayName(w int) string {
	return time.Weekday((w + 1) % 7).String()
}

// WithAttributes returns every observation annotated with calendar fields
func (f *Frame) WithAttributes() []Row {
	rows := make([]Row, len(f.observations))
	for i, o := range f.observations {
		rows[i] = Row{Observation: o, Attributes: AttributesOf(o.Timestamp)}
	}
	return rows
}

// Series returns the raw observations as points
func (f *Frame) Series() []Point {
	return ToPoints(f.observations)
}

// ToPoints converts observations to points
func ToPoints(obs []models.Observation) []Point {
	pts := make([]Point, len(obs))
	for i, o := range obs {
		pts[i] = Point{Time: o.Timestamp, Value: o.Value}
	}
	return pts
}

// ResampleDaily averages the observations of each calendar day. Every day
// between the first and last observation is present; days without a numeric
// value are NaN.
func (f *Frame) ResampleDaily() []Point {
	if len(f.observations) == 0 {
		return nil
	}

	first := truncateDay(f.observations[0].Timestamp)
	last := truncateDay(f.observations[len(f.observations)-1].Timestamp)

	var out []Point
	i := 0
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		next := day.AddDate(0, 0, 1)
		sum, n := 0.0, 0
		for ; i < len(f.observations) && f.observations[i].Timestamp.Before(next); i++ {
			v := f.observations[i].Value
			if math.IsNaN(v) {
				continue
			}
			sum += v
			n++
		}
		mean := math.NaN()
		if n > 0 {
			mean = sum / float64(n)
		}
		out = append(out, Point{Time: day, Value: mean})
	}
	return out
}

// GroupMean averages value per (hue, x) pair. hue returns the key and label
// of a row's line. Lines are ordered by first appearance; NaN values are
// ignored.
func GroupMean(rows []Row, x func(Attributes) int, hue func(Attributes) (int, string)) []Group {
	type acc struct {
		sum float64
		n   int
	}
	type key struct{ hue, x int }

	sums := make(map[key]*acc)
	labels := make(map[int]string)
	seen := make(map[int]int)
	for _, r := range rows {
		if math.IsNaN(r.Value) {
			continue
		}
		h, label := hue(r.Attributes)
		if _, ok := seen[h]; !ok {
			seen[h] = len(seen)
			labels[h] = label
		}
		k := key{hue: h, x: x(r.Attributes)}
		a, ok := sums[k]
		if !ok {
			a = &acc{}
			sums[k] = a
		}
		a.sum += r.Value
		a.n++
	}

	byHue := make(map[int][]XY)
	for k, a := range sums {
		byHue[k.hue] = append(byHue[k.hue], XY{X: k.x, Y: a.sum / float64(a.n)})
	}

	groups := make([]Group, 0, len(byHue))
	for h, pts := range byHue {
		sort.Slice(pts, func(i, j int) bool { return pts[i].X < pts[j].X })
		groups = append(groups, Group{Label: labels[h], Key: h, Points: pts})
	}
	sort.Slice(groups, func(i, j int) bool { return seen[groups[i].Key] < seen[groups[j].Key] })
	return groups
}

// ByMonth groups day-of-month means per month
func ByMonth(rows []Row) []Group {
	return GroupMean(rows,
		func(a Attributes) int { return a.Day },
		func(a Attributes) (int, string) { return a.Month, MonthName(a.Month) },
	)
}

// ByWeekday groups hour-of-day means per weekday
func ByWeekday(rows []Row) []Group {
	return GroupMean(rows,
		func(a Attributes) int { return a.Hour },
		func(a Attributes) (int, string) { return a.Weekday, WeekdayName(a.Weekday) },
	)
}

// Values extracts the values of points
func Values(pts []Point) []float64 {
	out := make([]float64, len(pts))
	for i, p := range pts {
		out[i] = p.Value
	}
	return out
}

// DropNaN removes points whose value is NaN
func DropNaN(pts []Point) []Point {
	out := make([]Point, 0, len(pts))
	for _, p := range pts {
		if !math.IsNaN(p.Value) {
			out = append(out, p)
		}
	}
	return out
}
