package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/cristianortiz/sealedbid/internal/auction/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const bidColumns = `
        auction_id, bidder, commitment, revealed_amount::text, revealed_nonce, revealed,
        deposit_locked::text, submitted_at, revealed_at,
        claim_processed, claimed_amount::text, forfeit_collected, version`

// BidRepository implements domain.BidRepository. A bid is keyed by (auction_id, bidder),
// the primary key is what rejects a second bid from the same bidder.
type BidRepository struct {
	q querier
}

func (r *BidRepository) Create(ctx context.Context, b *domain.Bid) error {
	query := `
        INSERT INTO bids (auction_id, bidder, commitment, deposit_locked, submitted_at, version)
        VALUES ($1, $2, $3, $4::text::numeric, $5, $6)
    `
	_, err := r.q.Exec(ctx, query,
		b.AuctionID,
		b.Bidder,
		b.Commitment[:],
		b.DepositLocked.String(),
		b.SubmittedAt,
		b.Version,
	)
	if pgErrCode(err) == pgUniqueViolation {
		return domain.ErrBidExists
	}
	return err
}

func (r *BidRepository) Get(ctx context.Context, auctionID uuid.UUID, bidder domain.Identity) (*domain.Bid, error) {
	query := `SELECT ` + bidColumns + ` FROM bids WHERE auction_id = $1 AND bidder = $2`
	b, err := scanBid(r.q.QueryRow(ctx, query, auctionID, bidder))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBidNotFound
		}
		return nil, err
	}
	return b, nil
}

// Update never touches the commitment or the locked deposit, both are fixed at submission
func (r *BidRepository) Update(ctx context.Context, b *domain.Bid) error {
	query := `
        UPDATE bids SET
            revealed_amount = $4::text::numeric,
            revealed_nonce = $5,
            revealed = $6,
            revealed_at = $7,
            claim_processed = $8,
            claimed_amount = $9::text::numeric,
            forfeit_collected = $10,
            version = version + 1
        WHERE auction_id = $1 AND bidder = $2 AND version = $3
    `
	var (
		revealedAmount *string
		revealedNonce  []byte
	)
	if b.RevealedAmount != nil {
		s := b.RevealedAmount.String()
		revealedAmount = &s
	}
	if b.RevealedNonce != nil {
		revealedNonce = b.RevealedNonce[:]
	}
	tag, err := r.q.Exec(ctx, query,
		b.AuctionID,
		b.Bidder,
		b.Version,
		revealedAmount,
		revealedNonce,
		b.Revealed,
		b.RevealedAt,
		b.ClaimProcessed,
		b.ClaimedAmount.String(),
		b.ForfeitCollected,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		err := r.q.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM bids WHERE auction_id = $1 AND bidder = $2)`,
			b.AuctionID, b.Bidder,
		).Scan(&exists)
		if err != nil {
			return err
		}
		if !exists {
			return domain.ErrBidNotFound
		}
		return domain.ErrConcurrentUpdate
	}
	b.Version++
	return nil
}

func (r *BidRepository) ListByAuction(ctx context.Context, auctionID uuid.UUID) ([]*domain.Bid, error) {
	query := `SELECT ` + bidColumns + `
        FROM bids
        WHERE auction_id = $1
        ORDER BY submitted_at ASC
    `
	rows, err := r.q.Query(ctx, query, auctionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bids []*domain.Bid
	for rows.Next() {
		b, err := scanBid(rows)
		if err != nil {
			return nil, err
		}
		bids = append(bids, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return bids, nil
}

func scanBid(row pgx.Row) (*domain.Bid, error) {
	var (
		b                      domain.Bid
		commitment, nonce      []byte
		revealedAmount         *string
		depositLocked, claimed string
	)
	err := row.Scan(
		&b.AuctionID,
		&b.Bidder,
		&commitment,
		&revealedAmount,
		&nonce,
		&b.Revealed,
		&depositLocked,
		&b.SubmittedAt,
		&b.RevealedAt,
		&b.ClaimProcessed,
		&claimed,
		&b.ForfeitCollected,
		&b.Version,
	)
	if err != nil {
		return nil, err
	}

	if len(commitment) != len(b.Commitment) {
		return nil, fmt.Errorf("bid %s/%s commitment: %w", b.AuctionID, b.Bidder, domain.ErrInvalidHexLength)
	}
	copy(b.Commitment[:], commitment)
	if nonce != nil {
		var n domain.Nonce
		if len(nonce) != len(n) {
			return nil, fmt.Errorf("bid %s/%s revealed_nonce: %w", b.AuctionID, b.Bidder, domain.ErrInvalidHexLength)
		}
		copy(n[:], nonce)
		b.RevealedNonce = &n
	}
	if revealedAmount != nil {
		amt, err := domain.ParseAmount(*revealedAmount)
		if err != nil {
			return nil, fmt.Errorf("bid %s/%s revealed_amount: %w", b.AuctionID, b.Bidder, err)
		}
		b.RevealedAmount = &amt
	}
	if b.DepositLocked, err = domain.ParseAmount(depositLocked); err != nil {
		return nil, fmt.Errorf("bid %s/%s deposit_locked: %w", b.AuctionID, b.Bidder, err)
	}
	if b.ClaimedAmount, err = domain.ParseAmount(claimed); err != nil {
		return nil, fmt.Errorf("bid %s/%s claimed_amount: %w", b.AuctionID, b.Bidder, err)
	}
	return &b, nil
}
