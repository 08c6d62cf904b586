package fxseries

import "time"

// Observation is one daily USD/PHP reference-rate point. Immutable
// once produced by Normalize.
type Observation struct {
	At   time.Time `json:"date"`
	Rate float64   `json:"rate"`
}

// Series is a date-ascending sequence of observations for a single
// instrument. All rates are strictly positive and finite. Irregular
// spacing (weekends, holidays) is normal and preserved; downstream
// consumers must tolerate it.
type Series []Observation

// Rates returns the rate values in series order
func (s Series) Rates() []float64 {
	rates := make([]float64, len(s))
	for i, obs := range s {
		rates[i] = obs.Rate
	}
	return rates
}

// Latest returns the most recent observation
func (s Series) Latest() (Observation, bool) {
	if len(s) == 0 {
		return Observation{}, false
	}
	return s[len(s)-1], true
}

// Tail returns the trailing n observations, or all of them when n
// exceeds the length. The result aliases s.
func (s Series) Tail(n int) Series {
	if n >= len(s) {
		return s
	}
	return s[len(s)-n:]
}
