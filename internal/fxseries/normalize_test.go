package fxseries

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeSortsAscending(t *testing.T) {
	raw := []RawObservation{
		{Date: "2026-08-20", Rate: 58.30},
		{Date: "2026-08-18", Rate: 58.10},
		{Date: "2026-08-21", Rate: 58.45},
		{Date: "2026-08-19", Rate: 58.20},
	}

	series := Normalize(raw)

	require.Len(t, series, 4)
	for i := 1; i < len(series); i++ {
		if series[i].At.Before(series[i-1].At) {
			t.Fatalf("series not ascending at index %d: %v before %v",
				i, series[i].At, series[i-1].At)
		}
	}
	assert.Equal(t, 58.10, series[0].Rate)
	assert.Equal(t, 58.45, series[3].Rate)
}

func TestNormalizeDropsMalformedRows(t *testing.T) {
	tests := []struct {
		name string
		raw  []RawObservation
		want int
	}{
		{
			name: "unparseable date",
			raw: []RawObservation{
				{Date: "not a date", Rate: 58.0},
				{Date: "2026-08-21", Rate: 58.0},
			},
			want: 1,
		},
		{
			name: "unparseable rate string",
			raw: []RawObservation{
				{Date: "2026-08-20", Rate: "n/a"},
				{Date: "2026-08-21", Rate: "58.45"},
			},
			want: 1,
		},
		{
			name: "non-positive rates",
			raw: []RawObservation{
				{Date: "2026-08-19", Rate: 0.0},
				{Date: "2026-08-20", Rate: -58.0},
				{Date: "2026-08-21", Rate: 58.0},
			},
			want: 1,
		},
		{
			name: "non-finite rates",
			raw: []RawObservation{
				{Date: "2026-08-19", Rate: math.NaN()},
				{Date: "2026-08-20", Rate: math.Inf(1)},
				{Date: "2026-08-21", Rate: 58.0},
			},
			want: 1,
		},
		{
			name: "nil fields",
			raw: []RawObservation{
				{Date: nil, Rate: 58.0},
				{Date: "2026-08-21", Rate: nil},
			},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.raw)
			assert.Len(t, got, tt.want)
		})
	}
}

func TestNormalizeRateCoercion(t *testing.T) {
	tests := []struct {
		name string
		rate any
		want float64
	}{
		{"float64", 58.125, 58.125},
		{"int", 58, 58.0},
		{"int64", int64(59), 59.0},
		{"plain string", "58.45", 58.45},
		{"thousands separators", "1,058.45", 1058.45},
		{"peso sign", "₱58.12", 58.12},
		{"currency suffix", "58.12 PHP", 58.12},
		{"json number", json.Number("58.77"), 58.77},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			series := Normalize([]RawObservation{{Date: "2026-08-21", Rate: tt.rate}})
			require.Len(t, series, 1)
			assert.InDelta(t, tt.want, series[0].Rate, 1e-12)
		})
	}
}

func TestNormalizeDateCoercion(t *testing.T) {
	wantDay := time.Date(2026, 8, 21, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		date any
	}{
		{"time.Time", wantDay},
		{"iso", "2026-08-21"},
		{"slash", "2026/08/21"},
		{"us", "8/21/2026"},
		{"abbrev month", "Aug 21, 2026"},
		{"full month", "August 21, 2026"},
		{"day-month-year", "21-Aug-2026"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			series := Normalize([]RawObservation{{Date: tt.date, Rate: 58.0}})
			require.Len(t, series, 1)
			assert.Equal(t, wantDay.Year(), series[0].At.Year())
			assert.Equal(t, wantDay.Month(), series[0].At.Month())
			assert.Equal(t, wantDay.Day(), series[0].At.Day())
		})
	}
}

func TestSeriesHelpers(t *testing.T) {
	series := Normalize([]RawObservation{
		{Date: "2026-08-18", Rate: 58.10},
		{Date: "2026-08-19", Rate: 58.20},
		{Date: "2026-08-20", Rate: 58.30},
	})

	assert.Equal(t, []float64{58.10, 58.20, 58.30}, series.Rates())

	latest, ok := series.Latest()
	require.True(t, ok)
	assert.Equal(t, 58.30, latest.Rate)

	assert.Len(t, series.Tail(2), 2)
	assert.Len(t, series.Tail(10), 3)
	assert.Equal(t, 58.20, series.Tail(2)[0].Rate)

	var empty Series
	_, ok = empty.Latest()
	assert.False(t, ok)
}
