package auctionhouse

import "fmt"

// Error is a numeric marketplace error code. Values compare with errors.Is
// through any amount of %w wrapping.
type Error uint32

const (
	ErrPublicKeyMismatch Error = 6000 + iota
	ErrUninitializedAccount
	ErrIncorrectOwner
	ErrNumericalOverflow
	ErrNoPayerPresent
	ErrInvalidTokenAmount
	ErrBothPartiesNeedToAgreeToSale
	ErrCannotMatchFreeSales
	ErrSaleRequiresSigner
	ErrBuyerATACannotHaveDelegate
	ErrNoValidSignerPresent
	ErrInvalidBasisPoints
	ErrTradeStateIsNotEmpty
	ErrInvalidAuctioneer
	ErrInvalidSeedsOrAuctionHouseNotDelegated
	ErrBumpSeedNotInHashMap
	ErrAuctionHouseAlreadyDelegated
	ErrMustUseAuctioneerHandler
	ErrNoAuctioneerProgramSet
	ErrAuctionHouseNotDelegated
	ErrInvalidTradeStateAddress
	ErrNotEnoughBalance
	ErrInvalidMetadata
	ErrPaused
)

var errorNames = map[Error][2]string{
	ErrPublicKeyMismatch:                      {"PublicKeyMismatch", "public key mismatch"},
	ErrUninitializedAccount:                   {"UninitializedAccount", "account is not initialized"},
	ErrIncorrectOwner:                         {"IncorrectOwner", "account has an incorrect owner"},
	ErrNumericalOverflow:                      {"NumericalOverflow", "numerical overflow"},
	ErrNoPayerPresent:                         {"NoPayerPresent", "no payer present on this transaction"},
	ErrInvalidTokenAmount:                     {"InvalidTokenAmount", "holding account does not hold the size"},
	ErrBothPartiesNeedToAgreeToSale:           {"BothPartiesNeedToAgreeToSale", "both parties need to agree to this sale"},
	ErrCannotMatchFreeSales:                   {"CannotMatchFreeSalesWithoutAuctionHouseOrSellerSignoff", "cannot match free sales without authority or seller signoff"},
	ErrSaleRequiresSigner:                     {"SaleRequiresSigner", "this sale requires a signer"},
	ErrBuyerATACannotHaveDelegate:             {"BuyerATACannotHaveDelegate", "buyer receipt account cannot have a delegate"},
	ErrNoValidSignerPresent:                   {"NoValidSignerPresent", "no valid signer present"},
	ErrInvalidBasisPoints:                     {"InvalidBasisPoints", "basis points cannot exceed 10000"},
	ErrTradeStateIsNotEmpty:                   {"TradeStateIsNotEmpty", "the trade state is not empty"},
	ErrInvalidAuctioneer:                      {"InvalidAuctioneer", "auctioneer record does not match"},
	ErrInvalidSeedsOrAuctionHouseNotDelegated: {"InvalidSeedsOrAuctionHouseNotDelegated", "invalid seeds or auction house not delegated"},
	ErrBumpSeedNotInHashMap:                   {"BumpSeedNotInHashMap", "supplied bump is not the canonical bump"},
	ErrAuctionHouseAlreadyDelegated:           {"AuctionHouseAlreadyDelegated", "auction house already delegated"},
	ErrMustUseAuctioneerHandler:               {"MustUseAuctioneerHandler", "auction house is delegated, use the auctioneer handler"},
	ErrNoAuctioneerProgramSet:                 {"NoAuctioneerProgramSet", "no auctioneer program set"},
	ErrAuctionHouseNotDelegated:               {"AuctionHouseNotDelegated", "auction house is not delegated"},
	ErrInvalidTradeStateAddress:               {"InvalidTradeStateAddress", "trade state address does not match its parameters"},
	ErrNotEnoughBalance:                       {"NotEnoughBalance", "not enough balance"},
	ErrInvalidMetadata:                        {"InvalidMetadata", "metadata does not match the asset"},
	ErrPaused:                                 {"Paused", "marketplace is paused"},
}

// Code returns the numeric error code.
func (e Error) Code() uint32 { return uint32(e) }

// Name returns the stable error name.
func (e Error) Name() string {
	if n, ok := errorNames[e]; ok {
		return n[0]
	}
	return fmt.Sprintf("Error%d", uint32(e))
}

func (e Error) Error() string {
	if n, ok := errorNames[e]; ok {
		return "auctionhouse: " + n[1]
	}
	return fmt.Sprintf("auctionhouse: error %d", uint32(e))
}

func fail(code Error, format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{code}, args...)...)
}
