package domain

import (
	"math"
	"time"

	"github.com/cristianortiz/sealedbid/internal/shared/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

// AuctionStatus represents the lifecycle state of an auction
type AuctionStatus string

const (
	StatusActive    AuctionStatus = "active"
	StatusFinalized AuctionStatus = "finalized" // two phase only, winner fixed, funds untouched
	StatusSettled   AuctionStatus = "settled"   // single phase, reserve met
	StatusCompleted AuctionStatus = "completed" // two phase, reserve met
	StatusCancelled AuctionStatus = "cancelled"
)

// allowed status moves, nothing ever goes back
var transitions = map[AuctionStatus][]AuctionStatus{
	StatusActive:    {StatusFinalized, StatusSettled, StatusCancelled},
	StatusFinalized: {StatusCompleted, StatusCancelled},
}

// Auction is the aggregate root of one sale event.
// HighestBidder nil means no valid reveal yet, so a revealed zero amount is still a real bid.
type Auction struct {
	ID           uuid.UUID
	Seller       Identity
	AssetID      string
	ReservePrice Amount
	BiddingStart time.Time
	BiddingEnd   time.Time
	RevealEnd    *time.Time // separate reveal window, optional
	Rules        Rules

	HighestBid    Amount
	HighestBidder *Identity
	FirstBidder   *Identity // fixed at submission order, only used to break ties
	WinningBidder *Identity // two phase, set by Finalize
	BidCount      uint64

	Status    AuctionStatus
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AuctionParams are the seller supplied inputs of a new auction
type AuctionParams struct {
	Seller       Identity
	AssetID      string
	ReservePrice Amount
	BiddingStart time.Time // zero means now
	BiddingEnd   time.Time
	RevealEnd    *time.Time
	Rules        Rules
}

// SettlementPlan lists the disbursements a terminal transition requires.
// It always carries exactly one asset release.
type SettlementPlan struct {
	Outcome        AuctionStatus
	Winner         *Identity
	SellerProceeds Amount
	AssetRecipient Identity
}

// NewAuction validates params and creates an active auction
func NewAuction(id uuid.UUID, p AuctionParams, now time.Time) (*Auction, error) {
	if err := p.Rules.Validate(); err != nil {
		return nil, err
	}
	if p.AssetID == "" {
		return nil, ErrInvalidAsset
	}
	start := p.BiddingStart
	if start.IsZero() {
		start = now
	}
	if !p.BiddingEnd.After(start) || !p.BiddingEnd.After(now) {
		return nil, ErrInvalidDeadline
	}
	if p.RevealEnd != nil && !p.RevealEnd.After(p.BiddingEnd) {
		return nil, ErrInvalidDeadline
	}
	// with exact collateral every deposit must cover the reserve, a zero reserve makes no sense
	if p.Rules.Collateral == CollateralExact && p.ReservePrice == 0 {
		return nil, ErrInvalidPrice
	}

	return &Auction{
		ID:           id,
		Seller:       p.Seller,
		AssetID:      p.AssetID,
		ReservePrice: p.ReservePrice,
		BiddingStart: start,
		BiddingEnd:   p.BiddingEnd,
		RevealEnd:    p.RevealEnd,
		Rules:        p.Rules,
		Status:       StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// Custody is the neutral escrow account of this auction
func (a *Auction) Custody() AccountID {
	return CustodyAccount(a.ID)
}

// IsTerminal reports whether funds can be claimed
func (a *Auction) IsTerminal() bool {
	switch a.Status {
	case StatusSettled, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Deadline is the moment after which the auction can be settled or finalized
func (a *Auction) Deadline() time.Time {
	if a.RevealEnd != nil {
		return *a.RevealEnd
	}
	return a.BiddingEnd
}

// Winner returns the bidder whose bid was paid to the seller, if any
func (a *Auction) Winner() *Identity {
	switch a.Status {
	case StatusSettled:
		return a.HighestBidder
	case StatusCompleted:
		return a.WinningBidder
	}
	return nil
}

// AcceptBid checks a new sealed bid can be submitted and records it in the counters
func (a *Auction) AcceptBid(bidder Identity, locked Amount, now time.Time) error {
	if a.Status != StatusActive {
		return ErrAuctionNotActive
	}
	if bidder == a.Seller {
		return ErrUnauthorized
	}
	if now.Before(a.BiddingStart) {
		return ErrAuctionNotStarted
	}
	if !now.Before(a.BiddingEnd) {
		log.Warn("Bid rejected: bidding window closed",
			zap.String("auctionID", a.ID.String()),
			zap.String("bidder", bidder.String()),
			zap.Time("biddingEnd", a.BiddingEnd),
		)
		if a.RevealEnd != nil {
			return ErrCommitPeriodEnded
		}
		return ErrAuctionEnded
	}
	if locked == 0 {
		return ErrInvalidAmount
	}
	if a.Rules.Collateral == CollateralExact && locked < a.ReservePrice {
		return ErrBidBelowMinimum
	}
	if a.BidCount == math.MaxUint64 {
		return ErrAmountOverflow
	}

	a.BidCount++
	if a.FirstBidder == nil {
		first := bidder
		a.FirstBidder = &first
	}
	return nil
}

// CheckRevealWindow validates that a reveal is allowed at now
func (a *Auction) CheckRevealWindow(now time.Time) error {
	if a.Status != StatusActive {
		return ErrAuctionNotActive
	}
	if a.RevealEnd == nil {
		if !now.Before(a.BiddingEnd) {
			return ErrAuctionEnded
		}
		return nil
	}
	if now.Before(a.BiddingEnd) {
		return ErrCommitPeriodNotEnded
	}
	if !now.Before(*a.RevealEnd) {
		return ErrRevealPeriodEnded
	}
	return nil
}

// RecordReveal updates winner tracking with a verified reveal and reports whether
// bidder is now the highest. A strictly higher amount wins; an equal amount only
// displaces the current holder when it comes from the first bidder.
func (a *Auction) RecordReveal(bidder Identity, amount Amount) bool {
	switch {
	case a.HighestBidder == nil || amount > a.HighestBid:
		a.HighestBid = amount
		a.setHighestBidder(bidder)
		log.Info("New highest bid",
			zap.String("auctionID", a.ID.String()),
			zap.String("bidder", bidder.String()),
			zap.Stringer("amount", amount),
		)
		return true
	case amount == a.HighestBid && a.FirstBidder != nil && *a.FirstBidder == bidder:
		a.setHighestBidder(bidder)
		log.Info("Tie-breaker: first bidder keeps priority",
			zap.String("auctionID", a.ID.String()),
			zap.String("bidder", bidder.String()),
			zap.Stringer("amount", amount),
		)
		return true
	}
	return false
}

func (a *Auction) setHighestBidder(bidder Identity) {
	b := bidder
	a.HighestBidder = &b
}

func (a *Auction) reserveMet() bool {
	return a.HighestBidder != nil && a.HighestBid >= a.ReservePrice
}

func (a *Auction) checkDeadline(now time.Time) error {
	if now.Before(a.BiddingEnd) {
		return ErrAuctionStillActive
	}
	if a.RevealEnd != nil && now.Before(*a.RevealEnd) {
		return ErrRevealPeriodNotEnded
	}
	return nil
}

// Settle closes a single phase auction. Bidder collateral is never bulk refunded
// here, every bidder claims their own bid afterwards.
func (a *Auction) Settle(now time.Time) (*SettlementPlan, error) {
	if a.IsTerminal() {
		return nil, ErrAlreadySettled
	}
	if a.Rules.Settlement != SinglePhase {
		return nil, ErrWrongSettlementMode
	}
	if err := a.checkDeadline(now); err != nil {
		return nil, err
	}

	if a.reserveMet() {
		if err := a.transition(StatusSettled, now); err != nil {
			return nil, err
		}
		winner := *a.HighestBidder
		return &SettlementPlan{
			Outcome:        StatusSettled,
			Winner:         &winner,
			SellerProceeds: a.HighestBid,
			AssetRecipient: winner,
		}, nil
	}

	log.Info("Reserve price not met, cancelling auction",
		zap.String("auctionID", a.ID.String()),
		zap.Stringer("highestBid", a.HighestBid),
		zap.Stringer("reservePrice", a.ReservePrice),
		zap.Bool("anyReveal", a.HighestBidder != nil),
	)
	if err := a.transition(StatusCancelled, now); err != nil {
		return nil, err
	}
	return &SettlementPlan{Outcome: StatusCancelled, AssetRecipient: a.Seller}, nil
}

// Finalize fixes the winner of a two phase auction without moving any funds
func (a *Auction) Finalize(now time.Time) error {
	if a.Rules.Settlement != TwoPhase {
		return ErrWrongSettlementMode
	}
	switch {
	case a.Status == StatusFinalized:
		return ErrAlreadyFinalized
	case a.IsTerminal():
		return ErrAlreadySettled
	}
	if err := a.checkDeadline(now); err != nil {
		return err
	}
	if err := a.transition(StatusFinalized, now); err != nil {
		return err
	}
	if a.reserveMet() {
		w := *a.HighestBidder
		a.WinningBidder = &w
	}
	return nil
}

// CompleteTrade disburses a finalized auction. winning is the bid record the caller
// claims to be the winner; it is re-validated before anything moves. With no winner
// recorded at finalization the auction is cancelled and winning is ignored.
func (a *Auction) CompleteTrade(winning *Bid, now time.Time) (*SettlementPlan, error) {
	if a.IsTerminal() {
		return nil, ErrAlreadySettled
	}
	if a.Status != StatusFinalized {
		return nil, ErrAuctionNotFinalized
	}

	if a.WinningBidder == nil {
		if err := a.transition(StatusCancelled, now); err != nil {
			return nil, err
		}
		return &SettlementPlan{Outcome: StatusCancelled, AssetRecipient: a.Seller}, nil
	}

	if winning == nil || winning.AuctionID != a.ID || winning.Bidder != *a.WinningBidder {
		return nil, ErrInvalidBid
	}
	if !winning.Revealed || winning.RevealedAmount == nil {
		return nil, ErrBidNotRevealed
	}
	price := *winning.RevealedAmount
	if price < a.ReservePrice {
		return nil, ErrBidBelowMinimum
	}
	if price != a.HighestBid {
		return nil, ErrInvalidBid
	}

	if err := a.transition(StatusCompleted, now); err != nil {
		return nil, err
	}
	winner := winning.Bidder
	return &SettlementPlan{
		Outcome:        StatusCompleted,
		Winner:         &winner,
		SellerProceeds: price,
		AssetRecipient: winner,
	}, nil
}

// Cancel lets the seller withdraw the auction while nobody has bid yet
func (a *Auction) Cancel(caller Identity, now time.Time) (*SettlementPlan, error) {
	if caller != a.Seller {
		return nil, ErrUnauthorized
	}
	if a.Status != StatusActive {
		return nil, ErrAuctionNotActive
	}
	if !now.Before(a.BiddingEnd) || a.BidCount > 0 {
		return nil, ErrCannotCancel
	}
	if err := a.transition(StatusCancelled, now); err != nil {
		return nil, err
	}
	return &SettlementPlan{Outcome: StatusCancelled, AssetRecipient: a.Seller}, nil
}

func (a *Auction) transition(to AuctionStatus, now time.Time) error {
	for _, allowed := range transitions[a.Status] {
		if allowed == to {
			log.Info("Auction status changed",
				zap.String("auctionID", a.ID.String()),
				zap.String("from", string(a.Status)),
				zap.String("to", string(to)),
			)
			a.Status = to
			a.UpdatedAt = now
			return nil
		}
	}
	return ErrAlreadySettled
}
