package report

import (
	"math"
	"time"

	"github.com/jgoulah/taxistats/internal/analysis"
)

// Summary is the JSON digest of a report stored with each run and published
// over MQTT
type Summary struct {
	ID          string              `json:"id"`
	GeneratedAt time.Time           `json:"generated_at"`
	Source      string              `json:"source"`
	Rows        int                 `json:"rows"`
	Start       time.Time           `json:"start"`
	End         time.Time           `json:"end"`
	Nulls       int                 `json:"nulls"`
	ADF         *analysis.ADFResult `json:"adf,omitempty"`
	Stationary  *bool               `json:"stationary,omitempty"`
	DailyMeans  []DailyMean         `json:"daily_means"`
}

// DailyMean is one resampled day
type DailyMean struct {
	Date string  `json:"date"`
	Mean float64 `json:"mean"`
}

// Summary digests the report. Non-finite values are left out so the result
// always marshals.
func (r *Report) Summary() Summary {
	s := Summary{
		ID:          r.ID,
		GeneratedAt: r.GeneratedAt,
		Source:      r.Source,
		Rows:        r.Info.Rows,
		Start:       r.Info.Start,
		End:         r.Info.End,
		DailyMeans:  []DailyMean{},
	}
	for _, n := range r.Nulls {
		s.Nulls += n.Count
	}

	if r.ADF != nil && finite(r.ADF.Statistic) && finite(r.ADF.PValue) && finite(r.ADF.ICBest) {
		s.ADF = r.ADF
		stationary := r.ADF.Stationary(r.alpha)
		s.Stationary = &stationary
	}

	from := len(r.Daily) - r.summaryDays
	if from < 0 {
		from = 0
	}
	for _, p := range r.Daily[from:] {
		if !finite(p.Value) {
			continue
		}
		s.DailyMeans = append(s.DailyMeans, DailyMean{Date: p.Time.Format("2006-01-02"), Mean: p.Value})
	}
	return s
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
