package regime

import "testing"

func TestClassifyVolBoundaries(t *testing.T) {
	tests := []struct {
		vol  float64
		want VolRegime
	}{
		{0.0, VolLow},
		{7.999, VolLow},
		{8.0, VolNormal},
		{12.5, VolNormal},
		{15.0, VolNormal},
		{15.001, VolHigh},
		{40.0, VolHigh},
	}

	for _, tt := range tests {
		if got := ClassifyVol(tt.vol); got != tt.want {
			t.Errorf("ClassifyVol(%v) = %s, want %s", tt.vol, got, tt.want)
		}
	}
}

func TestVolRegimeExplanations(t *testing.T) {
	for _, r := range []VolRegime{VolLow, VolNormal, VolHigh} {
		if r.Explanation() == "" {
			t.Errorf("regime %s has no explanation", r)
		}
	}
}
