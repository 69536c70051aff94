package money

import (
	"math"
	"testing"
)

func TestTruncRatioTruncatesTowardZero(t *testing.T) {
	cases := []struct {
		ratio float64
		base  Cents
		want  Cents
	}{
		{0.5, 20001, 10000},
		{0.999, 100, 99},
		{0, 100, 0},
		{1, 100, 100},
		{0.333333, 3, 0},
	}
	for _, c := range cases {
		if got := TruncRatio(c.ratio, c.base); got != c.want {
			t.Errorf("TruncRatio(%v, %v) = %v, want %v", c.ratio, c.base, got, c.want)
		}
	}
}

func TestTruncRatioRejectsNonFinite(t *testing.T) {
	if got := TruncRatio(math.NaN(), 100); got != 0 {
		t.Errorf("NaN ratio: got %v, want 0", got)
	}
}

func TestBpsTruncatesTowardZero(t *testing.T) {
	if got := Bps(500, 20000); got != 1000 {
		t.Errorf("Bps(500, 20000) = %v, want 1000", got)
	}
	if got := Bps(1, 1); got != 0 {
		t.Errorf("Bps(1, 1) = %v, want 0", got)
	}
}

func TestPositive(t *testing.T) {
	if Positive(-500) != 0 {
		t.Errorf("Positive(-500) should be 0")
	}
	if Positive(500) != 500 {
		t.Errorf("Positive(500) should be 500")
	}
}
