package fees

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"

	"auctionhouse/native/common"
)

// MaxBasisPoints is 100%.
const MaxBasisPoints = 10_000

var (
	ErrInvalidBasisPoints = errors.New("fees: basis points above 10000")
	ErrOverflow           = errors.New("fees: arithmetic overflow")
)

// Split is the result of charging a marketplace fee on a gross amount.
type Split struct {
	Gross uint64
	Fee   uint64
	Net   uint64
}

// Apply charges bps on gross. The fee is floor(gross*bps/10000), computed in
// 256 bits, and Fee+Net always equals Gross.
func Apply(gross uint64, bps uint16) (Split, error) {
	if bps > MaxBasisPoints {
		return Split{}, fmt.Errorf("%w: %d", ErrInvalidBasisPoints, bps)
	}
	fee, err := common.MulDiv(gross, uint64(bps), MaxBasisPoints)
	if err != nil {
		return Split{}, fmt.Errorf("%w: %v", ErrOverflow, err)
	}
	net, err := common.CheckedSub(gross, fee)
	if err != nil {
		return Split{}, fmt.Errorf("%w: %v", ErrOverflow, err)
	}
	return Split{Gross: gross, Fee: fee, Net: net}, nil
}

// Totals aggregates settled volume of one payment mint. Sums are 256-bit so
// they never wrap.
type Totals struct {
	Sales uint64
	Gross *uint256.Int
	Fee   *uint256.Int
	Net   *uint256.Int
}

// NewTotals returns empty totals.
func NewTotals() Totals {
	return Totals{Gross: new(uint256.Int), Fee: new(uint256.Int), Net: new(uint256.Int)}
}

// Add folds a settled split into the totals.
func (t *Totals) Add(s Split) {
	if t.Gross == nil {
		*t = NewTotals()
	}
	t.Sales++
	t.Gross.Add(t.Gross, uint256.NewInt(s.Gross))
	t.Fee.Add(t.Fee, uint256.NewInt(s.Fee))
	t.Net.Add(t.Net, uint256.NewInt(s.Net))
}
