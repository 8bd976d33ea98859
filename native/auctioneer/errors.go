package auctioneer

import "fmt"

// Error is a numeric auction policy error code.
type Error uint32

const (
	ErrBumpSeedNotInHashMap Error = 6000 + iota
	ErrAuctionNotStarted
	ErrAuctionEnded
	ErrAuctionActive
	ErrBidTooLow
	ErrBelowReservePrice
	ErrBelowBidIncrement
	ErrCannotCancelHighestBid
	ErrNotHighestBidder
	ErrInvalidTimeWindow
	ErrListingNotFound
	ErrListingExists
)

var errorNames = map[Error][2]string{
	ErrBumpSeedNotInHashMap:   {"BumpSeedNotInHashMap", "bump seed not in hash map"},
	ErrAuctionNotStarted:      {"AuctionNotStarted", "auction has not started yet"},
	ErrAuctionEnded:           {"AuctionEnded", "auction has ended"},
	ErrAuctionActive:          {"AuctionActive", "auction is still running"},
	ErrBidTooLow:              {"BidTooLow", "bid does not beat the highest bid"},
	ErrBelowReservePrice:      {"BelowReservePrice", "bid is below the reserve price"},
	ErrBelowBidIncrement:      {"BelowBidIncrement", "bid is below the minimum bid increment"},
	ErrCannotCancelHighestBid: {"CannotCancelHighestBid", "the highest bid cannot be cancelled"},
	ErrNotHighestBidder:       {"NotHighestBidder", "only the highest bid can be settled"},
	ErrInvalidTimeWindow:      {"InvalidTimeWindow", "auction must end after it starts"},
	ErrListingNotFound:        {"ListingNotFound", "no listing config for this listing"},
	ErrListingExists:          {"ListingExists", "listing config already exists"},
}

func (e Error) Code() uint32 { return uint32(e) }

func (e Error) Name() string {
	if n, ok := errorNames[e]; ok {
		return n[0]
	}
	return fmt.Sprintf("Error%d", uint32(e))
}

func (e Error) Error() string {
	if n, ok := errorNames[e]; ok {
		return "auctioneer: " + n[1]
	}
	return fmt.Sprintf("auctioneer: error %d", uint32(e))
}

func fail(code Error, format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{code}, args...)...)
}
