package domain

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Bid is one bidder's sealed offer on one auction, keyed by (AuctionID, Bidder).
// Commitment never changes; the reveal fields and both flags are written at most once.
type Bid struct {
	AuctionID  uuid.UUID
	Bidder     Identity
	Commitment Digest

	RevealedAmount *Amount
	RevealedNonce  *Nonce
	Revealed       bool
	RevealedAt     *time.Time

	DepositLocked Amount
	SubmittedAt   time.Time

	ClaimProcessed   bool
	ClaimedAmount    Amount
	ForfeitCollected bool

	Version int64
}

// NewBid creates a sealed bid with its locked collateral
func NewBid(auctionID uuid.UUID, bidder Identity, commitment Digest, locked Amount, now time.Time) (*Bid, error) {
	if locked == 0 {
		return nil, ErrInvalidAmount
	}
	// an all zero digest is what an omitted commitment decodes to, it can never be revealed
	if commitment == (Digest{}) {
		return nil, ErrMissingCommitment
	}
	return &Bid{
		AuctionID:     auctionID,
		Bidder:        bidder,
		Commitment:    commitment,
		DepositLocked: locked,
		SubmittedAt:   now,
	}, nil
}

// Reveal verifies (amount, nonce) against the commitment and records them.
// On any error the bid is left untouched.
func (b *Bid) Reveal(rules Rules, amount Amount, nonce Nonce, now time.Time) error {
	if b.Revealed {
		return ErrAlreadyRevealed
	}
	if !VerifyCommitment(rules.Scheme, b.Commitment, amount, nonce, b.Bidder) {
		log.Warn("Reveal rejected: commitment mismatch",
			zap.String("auctionID", b.AuctionID.String()),
			zap.String("bidder", b.Bidder.String()),
		)
		return ErrInvalidCommitment
	}
	if err := rules.CheckCollateral(b.DepositLocked, amount); err != nil {
		log.Warn("Reveal rejected: collateral mismatch",
			zap.String("auctionID", b.AuctionID.String()),
			zap.String("bidder", b.Bidder.String()),
			zap.Stringer("locked", b.DepositLocked),
			zap.Stringer("revealed", amount),
		)
		return err
	}

	amt, n, at := amount, nonce, now
	b.RevealedAmount = &amt
	b.RevealedNonce = &n
	b.RevealedAt = &at
	b.Revealed = true
	return nil
}

// ComputeClaim returns what this bid gets back from custody once the auction is terminal.
//   - never revealed: 0, the collateral is forfeited
//   - auction cancelled: the full deposit
//   - winner: the deposit minus the winning bid already paid to the seller
//   - revealed loser: the full deposit
func (b *Bid) ComputeClaim(a *Auction) (Amount, error) {
	if !a.IsTerminal() {
		return 0, ErrAuctionNotSettled
	}
	if b.ClaimProcessed {
		return 0, ErrAlreadyClaimed
	}
	switch {
	case !b.Revealed:
		return 0, nil
	case a.Status == StatusCancelled:
		return b.DepositLocked, nil
	}
	if w := a.Winner(); w != nil && *w == b.Bidder {
		return b.DepositLocked.SaturatingSub(a.HighestBid), nil
	}
	return b.DepositLocked, nil
}

// MarkClaimed flips ClaimProcessed, exactly once
func (b *Bid) MarkClaimed(amount Amount) error {
	if b.ClaimProcessed {
		return ErrAlreadyClaimed
	}
	b.ClaimProcessed = true
	b.ClaimedAmount = amount
	return nil
}

// ForfeitAmount is the collateral of a never revealed bid the seller may collect
func (b *Bid) ForfeitAmount(a *Auction) (Amount, error) {
	if !a.IsTerminal() {
		return 0, ErrAuctionNotSettled
	}
	if b.Revealed {
		return 0, ErrNothingToForfeit
	}
	if b.ForfeitCollected {
		return 0, ErrAlreadyCollected
	}
	return b.DepositLocked, nil
}

// MarkForfeitCollected flips ForfeitCollected, exactly once
func (b *Bid) MarkForfeitCollected() error {
	if b.ForfeitCollected {
		return ErrAlreadyCollected
	}
	b.ForfeitCollected = true
	return nil
}
