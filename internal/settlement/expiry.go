package settlement

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	apperrors "github.com/cpatton716/collectors-catalog/pkg/errors"
	"github.com/cpatton716/collectors-catalog/pkg/types"
)

// CloseExpired finalizes every open auction whose end time has passed:
// auctions with a highest bidder settle in their favor at the final bid,
// auctions without bids end unsold. Conflicts mean another process already
// moved the auction, so they are skipped rather than retried.
func (e *Engine) CloseExpired(ctx context.Context) error {
	expired, err := e.store.ListExpiredAuctions(ctx, time.Now())
	if err != nil {
		return err
	}

	for _, auction := range expired {
		if err := e.closeAuction(ctx, auction); err != nil {
			if apperrors.Is(err, apperrors.ErrConcurrentUpdate) {
				log.Debugf("Auction %s already finalized elsewhere", auction.ID)
				continue
			}
			return err
		}
	}
	return nil
}

func (e *Engine) closeAuction(ctx context.Context, auction types.Auction) error {
	if auction.CurrentBidderID == nil {
		if err := e.store.MarkAuctionUnsold(ctx, auction.ID); err != nil {
			return err
		}
		log.Infof("Auction %s ended without bids", auction.ID)
		if e.notifier != nil {
			e.notifier.AuctionEnded(auction.ID, types.AuctionEndedUnsold)
		}
		return nil
	}

	txn := types.Transaction{
		ID:       uuid.New().String(),
		ItemType: types.ItemAuction,
		ItemID:   auction.ID,
		SellerID: auction.SellerID,
		BuyerID:  *auction.CurrentBidderID,
		Price:    auction.CurrentBid,
	}
	if err := e.store.SettleAuctionWon(ctx, auction.ID, txn); err != nil {
		return err
	}
	log.Infof("Auction %s won by %s at %d", auction.ID, txn.BuyerID, txn.Price)
	e.notifySold(txn)
	if e.notifier != nil {
		e.notifier.AuctionEnded(auction.ID, types.AuctionSold)
	}
	return nil
}

// RunExpiryLoop drives CloseExpired on a fixed interval until the context is
// cancelled.
func (e *Engine) RunExpiryLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := e.CloseExpired(ctx); err != nil {
				log.Error("Error closing expired auctions: ", err)
			}
		}
	}
}
