// Package memory is an in-process implementation of the auction store and
// escrow ledger. A transaction holds the store lock for its whole lifetime and
// stages its writes; they reach the shared maps only on commit.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/cristianortiz/sealedbid/internal/auction/domain"
	"github.com/google/uuid"
)

var errReadOnly = errors.New("memory store: write attempted through read view")

type bidKey struct {
	auction uuid.UUID
	bidder  uuid.UUID
}

// Store implements domain.Store
type Store struct {
	mu       sync.Mutex
	auctions map[uuid.UUID]domain.Auction
	bids     map[bidKey]domain.Bid
	balances map[domain.AccountID]domain.Amount
	assets   map[string]domain.AccountID
}

func NewStore() *Store {
	return &Store{
		auctions: make(map[uuid.UUID]domain.Auction),
		bids:     make(map[bidKey]domain.Bid),
		balances: make(map[domain.AccountID]domain.Amount),
		assets:   make(map[string]domain.AccountID),
	}
}

// Credit adds funds to an account out of thin air, for tests and local runs
func (s *Store) Credit(_ context.Context, account domain.AccountID, amount domain.Amount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sum, err := s.balances[account].CheckedAdd(amount)
	if err != nil {
		return err
	}
	s.balances[account] = sum
	return nil
}

// Mint registers assetID as held by holder
func (s *Store) Mint(_ context.Context, assetID string, holder domain.AccountID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assets[assetID] = holder
	return nil
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx domain.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	t := newTx(s, false)
	if err := fn(ctx, t); err != nil {
		return err
	}
	t.commit()
	return nil
}

func (s *Store) Read() domain.Tx {
	return newTx(s, true)
}

type tx struct {
	s        *Store
	readOnly bool

	auctions map[uuid.UUID]domain.Auction
	bids     map[bidKey]domain.Bid
	balances map[domain.AccountID]domain.Amount
	assets   map[string]domain.AccountID
}

func newTx(s *Store, readOnly bool) *tx {
	return &tx{
		s:        s,
		readOnly: readOnly,
		auctions: make(map[uuid.UUID]domain.Auction),
		bids:     make(map[bidKey]domain.Bid),
		balances: make(map[domain.AccountID]domain.Amount),
		assets:   make(map[string]domain.AccountID),
	}
}

func (t *tx) Auctions() domain.AuctionRepository { return auctionRepo{t} }
func (t *tx) Bids() domain.BidRepository         { return bidRepo{t} }
func (t *tx) Ledger() domain.Ledger              { return ledger{t} }
func (t *tx) Assets() domain.AssetCustody        { return assetCustody{t} }

// guard locks the store for read views, transactions already own the lock
func (t *tx) guard() func() {
	if !t.readOnly {
		return func() {}
	}
	t.s.mu.Lock()
	return t.s.mu.Unlock
}

func (t *tx) commit() {
	for id, a := range t.auctions {
		t.s.auctions[id] = a
	}
	for k, b := range t.bids {
		t.s.bids[k] = b
	}
	for acc, bal := range t.balances {
		t.s.balances[acc] = bal
	}
	for asset, holder := range t.assets {
		t.s.assets[asset] = holder
	}
}

func (t *tx) auction(id uuid.UUID) (domain.Auction, bool) {
	if a, ok := t.auctions[id]; ok {
		return a, true
	}
	a, ok := t.s.auctions[id]
	return a, ok
}

func (t *tx) bid(k bidKey) (domain.Bid, bool) {
	if b, ok := t.bids[k]; ok {
		return b, true
	}
	b, ok := t.s.bids[k]
	return b, ok
}

func (t *tx) balance(acc domain.AccountID) domain.Amount {
	if b, ok := t.balances[acc]; ok {
		return b
	}
	return t.s.balances[acc]
}

func (t *tx) holder(assetID string) (domain.AccountID, bool) {
	if h, ok := t.assets[assetID]; ok {
		return h, true
	}
	h, ok := t.s.assets[assetID]
	return h, ok
}

type auctionRepo struct{ t *tx }

func (r auctionRepo) Create(_ context.Context, a *domain.Auction) error {
	if r.t.readOnly {
		return errReadOnly
	}
	if _, ok := r.t.auction(a.ID); ok {
		return domain.ErrAuctionExists
	}
	r.t.auctions[a.ID] = cloneAuction(a)
	return nil
}

func (r auctionRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Auction, error) {
	defer r.t.guard()()
	a, ok := r.t.auction(id)
	if !ok {
		return nil, domain.ErrAuctionNotFound
	}
	c := cloneAuction(&a)
	return &c, nil
}

// GetForUpdate is GetByID, the transaction already holds the store lock
func (r auctionRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Auction, error) {
	if r.t.readOnly {
		return nil, errReadOnly
	}
	return r.GetByID(ctx, id)
}

func (r auctionRepo) Update(_ context.Context, a *domain.Auction) error {
	if r.t.readOnly {
		return errReadOnly
	}
	stored, ok := r.t.auction(a.ID)
	if !ok {
		return domain.ErrAuctionNotFound
	}
	if stored.Version != a.Version {
		return domain.ErrConcurrentUpdate
	}
	a.Version++
	r.t.auctions[a.ID] = cloneAuction(a)
	return nil
}

func (r auctionRepo) ListDue(_ context.Context, now time.Time, limit int) ([]*domain.Auction, error) {
	defer r.t.guard()()
	seen := make(map[uuid.UUID]bool)
	var due []*domain.Auction
	collect := func(a domain.Auction) {
		if seen[a.ID] {
			return
		}
		seen[a.ID] = true
		if a.Status != domain.StatusActive && a.Status != domain.StatusFinalized {
			return
		}
		if now.Before(a.Deadline()) {
			return
		}
		c := cloneAuction(&a)
		due = append(due, &c)
	}
	for _, a := range r.t.auctions {
		collect(a)
	}
	for _, a := range r.t.s.auctions {
		collect(a)
	}
	sort.Slice(due, func(i, j int) bool { return due[i].Deadline().Before(due[j].Deadline()) })
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

type bidRepo struct{ t *tx }

func (r bidRepo) Create(_ context.Context, b *domain.Bid) error {
	if r.t.readOnly {
		return errReadOnly
	}
	k := bidKey{b.AuctionID, b.Bidder}
	if _, ok := r.t.bid(k); ok {
		return domain.ErrBidExists
	}
	r.t.bids[k] = cloneBid(b)
	return nil
}

func (r bidRepo) Get(_ context.Context, auctionID uuid.UUID, bidder domain.Identity) (*domain.Bid, error) {
	defer r.t.guard()()
	b, ok := r.t.bid(bidKey{auctionID, bidder})
	if !ok {
		return nil, domain.ErrBidNotFound
	}
	c := cloneBid(&b)
	return &c, nil
}

func (r bidRepo) Update(_ context.Context, b *domain.Bid) error {
	if r.t.readOnly {
		return errReadOnly
	}
	k := bidKey{b.AuctionID, b.Bidder}
	stored, ok := r.t.bid(k)
	if !ok {
		return domain.ErrBidNotFound
	}
	if stored.Version != b.Version {
		return domain.ErrConcurrentUpdate
	}
	b.Version++
	r.t.bids[k] = cloneBid(b)
	return nil
}

func (r bidRepo) ListByAuction(_ context.Context, auctionID uuid.UUID) ([]*domain.Bid, error) {
	defer r.t.guard()()
	merged := make(map[bidKey]domain.Bid)
	for k, b := range r.t.s.bids {
		if k.auction == auctionID {
			merged[k] = b
		}
	}
	for k, b := range r.t.bids {
		if k.auction == auctionID {
			merged[k] = b
		}
	}
	out := make([]*domain.Bid, 0, len(merged))
	for _, b := range merged {
		c := cloneBid(&b)
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.Before(out[j].SubmittedAt) })
	return out, nil
}

type ledger struct{ t *tx }

func (l ledger) Lock(_ context.Context, payer, custody domain.AccountID, amount domain.Amount) error {
	if l.t.readOnly {
		return errReadOnly
	}
	if l.t.balance(payer) < amount {
		return domain.ErrInsufficientFunds
	}
	return l.move(payer, custody, amount)
}

func (l ledger) Payout(_ context.Context, custody, recipient domain.AccountID, amount domain.Amount) error {
	if l.t.readOnly {
		return errReadOnly
	}
	if l.t.balance(custody) < amount {
		return domain.ErrInsufficientCustodyBalance
	}
	return l.move(custody, recipient, amount)
}

func (l ledger) move(from, to domain.AccountID, amount domain.Amount) error {
	if from == to {
		return nil
	}
	credited, err := l.t.balance(to).CheckedAdd(amount)
	if err != nil {
		return err
	}
	l.t.balances[from] = l.t.balance(from) - amount
	l.t.balances[to] = credited
	return nil
}

func (l ledger) Balance(_ context.Context, account domain.AccountID) (domain.Amount, error) {
	defer l.t.guard()()
	return l.t.balance(account), nil
}

type assetCustody struct{ t *tx }

func (c assetCustody) Deposit(_ context.Context, owner, custody domain.AccountID, assetID string) error {
	if c.t.readOnly {
		return errReadOnly
	}
	if h, ok := c.t.holder(assetID); !ok || h != owner {
		return domain.ErrAssetNotOwned
	}
	c.t.assets[assetID] = custody
	return nil
}

func (c assetCustody) Release(_ context.Context, custody, recipient domain.AccountID, assetID string) error {
	if c.t.readOnly {
		return errReadOnly
	}
	if h, ok := c.t.holder(assetID); !ok || h != custody {
		return domain.ErrAssetNotOwned
	}
	c.t.assets[assetID] = recipient
	return nil
}

func (c assetCustody) Holder(_ context.Context, assetID string) (domain.AccountID, error) {
	defer c.t.guard()()
	h, ok := c.t.holder(assetID)
	if !ok {
		return "", domain.ErrAssetNotOwned
	}
	return h, nil
}

func cloneAuction(a *domain.Auction) domain.Auction {
	c := *a
	c.RevealEnd = clonePtr(a.RevealEnd)
	c.HighestBidder = clonePtr(a.HighestBidder)
	c.FirstBidder = clonePtr(a.FirstBidder)
	c.WinningBidder = clonePtr(a.WinningBidder)
	return c
}

func cloneBid(b *domain.Bid) domain.Bid {
	c := *b
	c.RevealedAmount = clonePtr(b.RevealedAmount)
	c.RevealedNonce = clonePtr(b.RevealedNonce)
	c.RevealedAt = clonePtr(b.RevealedAt)
	return c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
