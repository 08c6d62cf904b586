package fxseries

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// RawObservation is one row as delivered by the upstream page or a
// manual ingest payload. Both fields are loosely typed on purpose:
// real feeds send dates as strings in assorted layouts and rates as
// strings with thousands separators as often as plain numbers.
type RawObservation struct {
	Date any `json:"date"`
	Rate any `json:"rate"`
}

// dateLayouts are tried in order when the date arrives as a string
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2006/01/02",
	"2006.01.02",
	"1/2/2006",
	"2-Jan-2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

// Normalize converts loosely-typed raw rows into a clean Series.
// Rows with an unparseable date or rate, or a non-finite or
// non-positive rate, are dropped silently: malformed upstream rows are
// expected and common, not errors. The result is sorted ascending by
// date. Gap and duplicate-day handling is the caller's concern.
func Normalize(raw []RawObservation) Series {
	series := make(Series, 0, len(raw))

	for _, row := range raw {
		at, ok := toTime(row.Date)
		if !ok {
			continue
		}

		rate, ok := toFloat(row.Rate)
		if !ok || math.IsNaN(rate) || math.IsInf(rate, 0) || rate <= 0 {
			continue
		}

		series = append(series, Observation{At: at, Rate: rate})
	}

	sort.SliceStable(series, func(i, j int) bool {
		return series[i].At.Before(series[j].At)
	})

	return series
}

// toTime coerces date-like values
func toTime(v any) (time.Time, bool) {
	switch d := v.(type) {
	case time.Time:
		return d, true
	case *time.Time:
		if d == nil {
			return time.Time{}, false
		}
		return *d, true
	case string:
		s := strings.TrimSpace(d)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// toFloat coerces rate-like values. Strings may carry thousands
// separators, a peso sign, or a trailing currency code.
func toFloat(v any) (float64, bool) {
	switch r := v.(type) {
	case float64:
		return r, true
	case float32:
		return float64(r), true
	case int:
		return float64(r), true
	case int64:
		return float64(r), true
	case json.Number:
		f, err := r.Float64()
		return f, err == nil
	case string:
		s := strings.TrimSpace(r)
		s = strings.ReplaceAll(s, ",", "")
		s = strings.TrimPrefix(s, "₱")
		s = strings.TrimSuffix(s, "PHP")
		s = strings.TrimSpace(s)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil
	}
	return 0, false
}
