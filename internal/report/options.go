package report

import (
	"time"

	"github.com/rs/zerolog"
)

// Event is a named date window highlighted in the report. Both dates are
// inclusive; End covers the whole day.
type Event struct {
	Name  string
	Start time.Time
	End   time.Time
}

// Options control the report contents
type Options struct {
	Title       string
	Headers     []string
	Source      string
	Events      []Event
	Lags        int     // ACF/PACF lags
	Period      int     // seasonal period of the daily series
	Alpha       float64 // confidence level complement for correlograms and ADF verdict
	PreviewRows int
	SummaryDays int // trailing daily means kept in the summary
	Workers     int // concurrent chart renders, 0 = GOMAXPROCS
	Logger      *zerolog.Logger
}

// DefaultOptions returns the standard NYC taxi analysis settings
func DefaultOptions() Options {
	return Options{
		Title:       "NYC Taxi Rides Analysis",
		Events:      DefaultEvents(),
		Lags:        30,
		Period:      7,
		Alpha:       0.05,
		PreviewRows: 5,
		SummaryDays: 7,
	}
}

// DefaultEvents are the 2014 NYC events of interest
func DefaultEvents() []Event {
	return []Event{
		{Name: "New York City Marathon", Start: day(2014, 10, 30), End: day(2014, 11, 3)},
		{Name: "Thanksgiving", Start: day(2014, 11, 25), End: day(2014, 11, 30)},
		{Name: "Snow Storm", Start: day(2014, 11, 22), End: day(2014, 11, 30)},
		{Name: "Christmas and New Year", Start: day(2014, 12, 22), End: day(2015, 1, 2)},
	}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (o *Options) withDefaults() {
	def := DefaultOptions()
	if o.Title == "" {
		o.Title = def.Title
	}
	if o.Events == nil {
		o.Events = def.Events
	}
	if o.Lags <= 0 {
		o.Lags = def.Lags
	}
	if o.Period < 2 {
		o.Period = def.Period
	}
	if o.Alpha <= 0 || o.Alpha >= 1 {
		o.Alpha = def.Alpha
	}
	if o.PreviewRows <= 0 {
		o.PreviewRows = def.PreviewRows
	}
	if o.SummaryDays <= 0 {
		o.SummaryDays = def.SummaryDays
	}
	if o.Logger == nil {
		nop := zerolog.Nop()
		o.Logger = &nop
	}
}
