package common

import (
	"errors"

	"github.com/holiman/uint256"
)

// ErrOverflow is returned when a checked operation leaves the uint64 range.
var ErrOverflow = errors.New("arithmetic overflow")

// CheckedAdd returns a+b or ErrOverflow.
func CheckedAdd(a, b uint64) (uint64, error) {
	sum, overflow := new(uint256.Int).AddOverflow(uint256.NewInt(a), uint256.NewInt(b))
	if overflow || !sum.IsUint64() {
		return 0, ErrOverflow
	}
	return sum.Uint64(), nil
}

// CheckedSub returns a-b or ErrOverflow when b > a.
func CheckedSub(a, b uint64) (uint64, error) {
	diff, underflow := new(uint256.Int).SubOverflow(uint256.NewInt(a), uint256.NewInt(b))
	if underflow {
		return 0, ErrOverflow
	}
	return diff.Uint64(), nil
}

// MulDiv returns floor(a*b/d) computed in 256 bits. It fails when d is zero or
// the quotient does not fit in uint64.
func MulDiv(a, b, d uint64) (uint64, error) {
	if d == 0 {
		return 0, ErrOverflow
	}
	product, overflow := new(uint256.Int).MulOverflow(uint256.NewInt(a), uint256.NewInt(b))
	if overflow {
		return 0, ErrOverflow
	}
	quotient := new(uint256.Int).Div(product, uint256.NewInt(d))
	if !quotient.IsUint64() {
		return 0, ErrOverflow
	}
	return quotient.Uint64(), nil
}
