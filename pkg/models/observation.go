package models

import "time"

// Observation is a single timestamped ride count
type Observation struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"` // NaN when the source cell was empty or non-numeric
}
