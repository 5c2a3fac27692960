package application

import (
	"context"

	"github.com/cristianortiz/sealedbid/internal/auction/domain"
	"github.com/google/uuid"
)

// AuctionService defines application interface layer of auction module
// exposes uses cases to external layer, aka infra
type AuctionService interface {
	CreateAuction(ctx context.Context, cmd CreateAuctionDTO) (*domain.Auction, error)
	SubmitBid(ctx context.Context, cmd SubmitBidDTO) (*domain.Bid, error)
	RevealBid(ctx context.Context, cmd RevealBidDTO) (*RevealResult, error)
	// SettleAuction closes the auction according to its settlement mode. For a
	// two phase auction it runs finalize (when still active) followed by complete.
	SettleAuction(ctx context.Context, auctionID uuid.UUID) (*domain.Auction, *domain.SettlementPlan, error)
	FinalizeAuction(ctx context.Context, auctionID uuid.UUID) (*domain.Auction, error)
	CompleteTrade(ctx context.Context, cmd CompleteTradeDTO) (*domain.Auction, *domain.SettlementPlan, error)
	ClaimBid(ctx context.Context, cmd ClaimBidDTO) (*ClaimResult, error)
	CancelAuction(ctx context.Context, cmd CancelAuctionDTO) (*domain.Auction, error)
	CollectForfeit(ctx context.Context, cmd CollectForfeitDTO) (domain.Amount, error)

	GetAuctionState(ctx context.Context, auctionID uuid.UUID) (*AuctionStateDTO, error)
	GetBidState(ctx context.Context, auctionID, bidder uuid.UUID) (*BidStateDTO, error)
	ListBids(ctx context.Context, auctionID uuid.UUID) ([]*BidStateDTO, error)
}

// concret implementation of AuctionService (struct)
type auctionService struct {
	deps       Deps
	createUC   *CreateAuctionUseCase
	submitUC   *SubmitBidUseCase
	revealUC   *RevealBidUseCase
	settleUC   *SettleAuctionUseCase
	finalizeUC *FinalizeAuctionUseCase
	completeUC *CompleteTradeUseCase
	claimUC    *ClaimBidUseCase
	cancelUC   *CancelAuctionUseCase
	forfeitUC  *CollectForfeitUseCase
	stateUC    *GetAuctionStateUseCase
}

// NewAuctionService wires every use case over the same dependencies
func NewAuctionService(deps Deps) AuctionService {
	if deps.Notifier == nil {
		deps.Notifier = noopNotifier{}
	}
	return &auctionService{
		deps:       deps,
		createUC:   NewCreateAuctionUseCase(deps),
		submitUC:   NewSubmitBidUseCase(deps),
		revealUC:   NewRevealBidUseCase(deps),
		settleUC:   NewSettleAuctionUseCase(deps),
		finalizeUC: NewFinalizeAuctionUseCase(deps),
		completeUC: NewCompleteTradeUseCase(deps),
		claimUC:    NewClaimBidUseCase(deps),
		cancelUC:   NewCancelAuctionUseCase(deps),
		forfeitUC:  NewCollectForfeitUseCase(deps),
		stateUC:    NewGetAuctionStateUseCase(deps.Store),
	}
}

func (s *auctionService) CreateAuction(ctx context.Context, cmd CreateAuctionDTO) (*domain.Auction, error) {
	return s.createUC.Execute(ctx, cmd)
}

func (s *auctionService) SubmitBid(ctx context.Context, cmd SubmitBidDTO) (*domain.Bid, error) {
	return s.submitUC.Execute(ctx, cmd)
}

func (s *auctionService) RevealBid(ctx context.Context, cmd RevealBidDTO) (*RevealResult, error) {
	return s.revealUC.Execute(ctx, cmd)
}

func (s *auctionService) SettleAuction(ctx context.Context, auctionID uuid.UUID) (*domain.Auction, *domain.SettlementPlan, error) {
	a, err := s.deps.Store.Read().Auctions().GetByID(ctx, auctionID)
	if err != nil {
		return nil, nil, err
	}
	if a.Rules.Settlement == domain.SinglePhase {
		return s.settleUC.Execute(ctx, auctionID)
	}
	if a.Status == domain.StatusActive {
		if _, err := s.finalizeUC.Execute(ctx, auctionID); err != nil {
			return nil, nil, err
		}
	}
	return s.completeUC.Execute(ctx, CompleteTradeDTO{AuctionID: auctionID})
}

func (s *auctionService) FinalizeAuction(ctx context.Context, auctionID uuid.UUID) (*domain.Auction, error) {
	return s.finalizeUC.Execute(ctx, auctionID)
}

func (s *auctionService) CompleteTrade(ctx context.Context, cmd CompleteTradeDTO) (*domain.Auction, *domain.SettlementPlan, error) {
	return s.completeUC.Execute(ctx, cmd)
}

func (s *auctionService) ClaimBid(ctx context.Context, cmd ClaimBidDTO) (*ClaimResult, error) {
	return s.claimUC.Execute(ctx, cmd)
}

func (s *auctionService) CancelAuction(ctx context.Context, cmd CancelAuctionDTO) (*domain.Auction, error) {
	return s.cancelUC.Execute(ctx, cmd)
}

func (s *auctionService) CollectForfeit(ctx context.Context, cmd CollectForfeitDTO) (domain.Amount, error) {
	return s.forfeitUC.Execute(ctx, cmd)
}

func (s *auctionService) GetAuctionState(ctx context.Context, auctionID uuid.UUID) (*AuctionStateDTO, error) {
	return s.stateUC.Execute(ctx, auctionID)
}

func (s *auctionService) GetBidState(ctx context.Context, auctionID, bidder uuid.UUID) (*BidStateDTO, error) {
	return s.stateUC.Bid(ctx, auctionID, bidder)
}

func (s *auctionService) ListBids(ctx context.Context, auctionID uuid.UUID) ([]*BidStateDTO, error) {
	return s.stateUC.Bids(ctx, auctionID)
}
