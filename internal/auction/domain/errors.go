package domain

import "errors"

// ErrorKind groups domain errors by what the caller has to do about them
type ErrorKind string

const (
	KindTiming        ErrorKind = "timing"
	KindIntegrity     ErrorKind = "integrity"
	KindState         ErrorKind = "state"
	KindAuthorization ErrorKind = "authorization"
	KindValue         ErrorKind = "value"
	KindNotFound      ErrorKind = "not_found"
	KindConflict      ErrorKind = "conflict"
	KindConsistency   ErrorKind = "consistency"
	KindUnknown       ErrorKind = "unknown"
)

// timing violations
var (
	ErrAuctionNotStarted    = errors.New("auction bidding window has not started")
	ErrAuctionEnded         = errors.New("auction bidding window has ended")
	ErrAuctionStillActive   = errors.New("auction is still active")
	ErrCommitPeriodEnded    = errors.New("commit period has ended")
	ErrCommitPeriodNotEnded = errors.New("commit period has not ended yet")
	ErrRevealPeriodEnded    = errors.New("reveal period has ended")
	ErrRevealPeriodNotEnded = errors.New("reveal period has not ended yet")
	ErrCannotCancel         = errors.New("auction cannot be cancelled at this time")
	ErrWrongSettlementMode  = errors.New("operation not available for this auction settlement mode")
)

// integrity violations
var (
	ErrInvalidCommitment = errors.New("revealed bid does not match commitment")
	ErrDepositMismatch   = errors.New("locked collateral does not match revealed amount")
	ErrInvalidBid        = errors.New("bid does not belong to this auction or is not the winner")
	ErrBidNotRevealed    = errors.New("bid has not been revealed")
)

// state-precondition violations
var (
	ErrAuctionNotActive    = errors.New("auction is not active")
	ErrAlreadySettled      = errors.New("auction already settled")
	ErrAlreadyFinalized    = errors.New("auction already finalized")
	ErrAuctionNotFinalized = errors.New("auction not finalized")
	ErrAuctionNotSettled   = errors.New("auction not yet settled")
	ErrAlreadyRevealed     = errors.New("bid already revealed")
	ErrAlreadyClaimed      = errors.New("deposit already claimed")
	ErrAlreadyCollected    = errors.New("forfeited deposit already collected")
	ErrNothingToForfeit    = errors.New("bid was revealed, nothing to forfeit")
	ErrBidExists           = errors.New("bidder already has a bid on this auction")
	ErrAuctionExists       = errors.New("auction already exists")
)

// authorization violations
var (
	ErrUnauthorized = errors.New("caller is not allowed to perform this action")
)

// value violations
var (
	ErrInvalidAmount     = errors.New("amount must be greater than zero")
	ErrInvalidPrice      = errors.New("invalid reserve price")
	ErrInvalidDeadline   = errors.New("invalid auction deadlines")
	ErrInvalidAsset      = errors.New("asset identifier is required")
	ErrBidBelowMinimum   = errors.New("bid below reserve price")
	ErrAmountOverflow    = errors.New("amount overflow")
	ErrInvalidRules      = errors.New("invalid auction rules")
	ErrInvalidHexLength  = errors.New("invalid hex value length")
	ErrMissingCommitment = errors.New("commitment is required")
)

var (
	ErrAuctionNotFound = errors.New("auction not found")
	ErrBidNotFound     = errors.New("bid not found")
)

// ledger and storage
var (
	ErrInsufficientFunds          = errors.New("insufficient funds")
	ErrInsufficientCustodyBalance = errors.New("insufficient custody balance")
	ErrAssetNotOwned              = errors.New("asset is not held by the given account")
	ErrCustodyInconsistent        = errors.New("escrow custody is inconsistent with auction records")
	ErrConcurrentUpdate           = errors.New("record was modified concurrently")
)

var kinds = map[error]ErrorKind{
	ErrAuctionNotStarted:    KindTiming,
	ErrAuctionEnded:         KindTiming,
	ErrAuctionStillActive:   KindTiming,
	ErrCommitPeriodEnded:    KindTiming,
	ErrCommitPeriodNotEnded: KindTiming,
	ErrRevealPeriodEnded:    KindTiming,
	ErrRevealPeriodNotEnded: KindTiming,
	ErrCannotCancel:         KindTiming,
	ErrWrongSettlementMode:  KindState,

	ErrInvalidCommitment: KindIntegrity,
	ErrDepositMismatch:   KindIntegrity,
	ErrInvalidBid:        KindIntegrity,
	ErrBidNotRevealed:    KindIntegrity,

	ErrAuctionNotActive:    KindState,
	ErrAlreadySettled:      KindState,
	ErrAlreadyFinalized:    KindState,
	ErrAuctionNotFinalized: KindState,
	ErrAuctionNotSettled:   KindState,
	ErrAlreadyRevealed:     KindState,
	ErrAlreadyClaimed:      KindState,
	ErrAlreadyCollected:    KindState,
	ErrNothingToForfeit:    KindState,
	ErrBidExists:           KindState,
	ErrAuctionExists:       KindState,

	ErrUnauthorized: KindAuthorization,

	ErrInvalidAmount:     KindValue,
	ErrInvalidPrice:      KindValue,
	ErrInvalidDeadline:   KindValue,
	ErrInvalidAsset:      KindValue,
	ErrBidBelowMinimum:   KindValue,
	ErrAmountOverflow:    KindValue,
	ErrInvalidRules:      KindValue,
	ErrInvalidHexLength:  KindValue,
	ErrMissingCommitment: KindValue,
	ErrInsufficientFunds: KindValue,
	ErrAssetNotOwned:     KindValue,

	ErrAuctionNotFound: KindNotFound,
	ErrBidNotFound:     KindNotFound,

	ErrConcurrentUpdate: KindConflict,

	ErrInsufficientCustodyBalance: KindConsistency,
	ErrCustodyInconsistent:        KindConsistency,
}

// KindOf returns the category of the first domain error found in err's chain
func KindOf(err error) ErrorKind {
	for target, kind := range kinds {
		if errors.Is(err, target) {
			return kind
		}
	}
	return KindUnknown
}
