package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AccountID addresses a balance in the ledger, either a party or an auction custody
type AccountID string

// UserAccount is the ledger account of a seller or bidder
func UserAccount(id Identity) AccountID {
	return AccountID("user:" + id.String())
}

// CustodyAccount is the neutral escrow account scoped to one auction
func CustodyAccount(auctionID uuid.UUID) AccountID {
	return AccountID("escrow:" + auctionID.String())
}

type AuctionRepository interface {
	Create(ctx context.Context, a *Auction) error
	GetByID(ctx context.Context, id uuid.UUID) (*Auction, error)
	// GetForUpdate reads the auction and holds it until the transaction ends, so
	// concurrent bids and reveals queue up behind each other instead of failing.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*Auction, error)
	// Update is a compare-and-swap on a.Version, it bumps the version on success
	// and fails with ErrConcurrentUpdate when someone else wrote first.
	Update(ctx context.Context, a *Auction) error
	// ListDue returns auctions still waiting for settlement whose window closed before now
	ListDue(ctx context.Context, now time.Time, limit int) ([]*Auction, error)
}

type BidRepository interface {
	// Create fails with ErrBidExists when the bidder already bid on the auction
	Create(ctx context.Context, b *Bid) error
	Get(ctx context.Context, auctionID uuid.UUID, bidder Identity) (*Bid, error)
	// Update is a compare-and-swap on b.Version, same as AuctionRepository.Update
	Update(ctx context.Context, b *Bid) error
	ListByAuction(ctx context.Context, auctionID uuid.UUID) ([]*Bid, error)
}

// Ledger is the fungible balance substrate. Every call is atomic with respect to
// concurrent calls on the same accounts.
type Ledger interface {
	// Lock debits payer and credits custody, ErrInsufficientFunds if payer is short
	Lock(ctx context.Context, payer, custody AccountID, amount Amount) error
	// Payout moves funds out of custody, ErrInsufficientCustodyBalance if custody is short
	Payout(ctx context.Context, custody, recipient AccountID, amount Amount) error
	Balance(ctx context.Context, account AccountID) (Amount, error)
}

// AssetCustody tracks who holds the traded, non-fungible asset
type AssetCustody interface {
	// Deposit moves assetID from owner into custody, ErrAssetNotOwned otherwise
	Deposit(ctx context.Context, owner, custody AccountID, assetID string) error
	// Release moves assetID out of custody, ErrAssetNotOwned if custody does not hold it
	Release(ctx context.Context, custody, recipient AccountID, assetID string) error
	Holder(ctx context.Context, assetID string) (AccountID, error)
}

// Tx is one atomic unit of work over records and balances
type Tx interface {
	Auctions() AuctionRepository
	Bids() BidRepository
	Ledger() Ledger
	Assets() AssetCustody
}

// Store runs fn inside a transaction. Everything fn did is committed when it
// returns nil and discarded otherwise.
type Store interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	// Read gives non transactional access for queries
	Read() Tx
}
