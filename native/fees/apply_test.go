package fees

import (
	"errors"
	"math"
	"testing"
)

func TestApplyFloorsFee(t *testing.T) {
	split, err := Apply(100, 250)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if split.Fee != 2 || split.Net != 98 {
		t.Fatalf("expected fee 2 net 98, got %+v", split)
	}
}

func TestApplyConservesGross(t *testing.T) {
	prices := []uint64{0, 1, 99, 100, 12_345, 1_000_000_007, math.MaxUint64}
	points := []uint16{0, 1, 250, 3333, 9999, 10_000}
	for _, price := range prices {
		for _, bps := range points {
			split, err := Apply(price, bps)
			if err != nil {
				t.Fatalf("apply(%d, %d): %v", price, bps, err)
			}
			if split.Fee+split.Net != price {
				t.Fatalf("apply(%d, %d): fee %d + net %d != price", price, bps, split.Fee, split.Net)
			}
			if split.Fee > price {
				t.Fatalf("apply(%d, %d): fee above price", price, bps)
			}
		}
	}
	split, _ := Apply(math.MaxUint64, 10_000)
	if split.Net != 0 || split.Fee != math.MaxUint64 {
		t.Fatalf("expected full fee at 100%%, got %+v", split)
	}
}

func TestApplyRejectsBasisPointsAboveMax(t *testing.T) {
	if _, err := Apply(100, 10_001); !errors.Is(err, ErrInvalidBasisPoints) {
		t.Fatalf("expected invalid basis points, got %v", err)
	}
}

func TestTotalsAccumulate(t *testing.T) {
	var totals Totals
	first, _ := Apply(100, 250)
	second, _ := Apply(1_000, 250)
	totals.Add(first)
	totals.Add(second)
	if totals.Sales != 2 || totals.Gross.Uint64() != 1_100 || totals.Fee.Uint64() != 27 || totals.Net.Uint64() != 1_073 {
		t.Fatalf("unexpected totals %+v", totals)
	}
	empty := NewTotals()
	if empty.Sales != 0 || !empty.Gross.IsZero() || !empty.Net.IsZero() {
		t.Fatalf("unexpected empty totals %+v", empty)
	}
}
