// Package settlement implements exactly-once purchase settlement and bid
// acceptance on top of the store's conditional-write primitives.
package settlement

import (
	"context"
	"math/rand"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	apperrors "github.com/cpatton716/collectors-catalog/pkg/errors"
	"github.com/cpatton716/collectors-catalog/pkg/types"
)

// Store is the slice of the durable store the engine depends on. Every write
// here is a conditional write: it succeeds only if the item state still
// matches what the engine observed, and reports ErrConcurrentUpdate otherwise.
type Store interface {
	GetListingByID(ctx context.Context, id string) (types.Listing, error)
	GetAuctionByID(ctx context.Context, id string) (types.Auction, error)
	SettleListing(ctx context.Context, listingID string, txn types.Transaction) error
	SettleAuctionBuyNow(ctx context.Context, auctionID, buyerID string, txn types.Transaction) error
	AcceptBid(ctx context.Context, bid types.Bid, prevHighest int64) error
	ListExpiredAuctions(ctx context.Context, now time.Time) ([]types.Auction, error)
	SettleAuctionWon(ctx context.Context, auctionID string, txn types.Transaction) error
	MarkAuctionUnsold(ctx context.Context, auctionID string) error
}

// Notifier receives marketplace events after they are durably committed.
type Notifier interface {
	ItemSold(txn types.Transaction)
	BidAccepted(bid types.Bid)
	AuctionEnded(auctionID, status string)
}

// Options carries the engine's explicit tuning; nothing is read from ambient
// process state.
type Options struct {
	// MaxAttempts bounds validation/write cycles per operation. Conflicts past
	// the bound fail instead of retrying forever.
	MaxAttempts int
	// RetryBackoff is the base pause between attempts; actual pauses are
	// randomized between 1x and 2x to reduce thrash on contended items.
	RetryBackoff time.Duration
	Notifier     Notifier
}

type Engine struct {
	store       Store
	notifier    Notifier
	maxAttempts int
	backoff     time.Duration
}

func New(store Store, opts Options) *Engine {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	return &Engine{
		store:       store,
		notifier:    opts.Notifier,
		maxAttempts: opts.MaxAttempts,
		backoff:     opts.RetryBackoff,
	}
}

// SettlePurchase executes a fixed-price purchase or an auction buy-now
// exactly once. It validates eligibility, then attempts the conditional
// settle; on a concurrent-update conflict it re-validates against fresh state
// and retries up to the bound before failing with ErrConflict. Either the
// item flips to sold and a transaction is recorded, or nothing happens.
func (e *Engine) SettlePurchase(ctx context.Context, kind, itemID, buyerID string) (string, error) {
	for attempt := 0; attempt < e.maxAttempts; attempt++ {
		if attempt > 0 {
			if err := e.wait(ctx); err != nil {
				return "", apperrors.Wrap(apperrors.ErrConflict, "settlement interrupted", err)
			}
		}

		var (
			txnID string
			err   error
		)
		switch kind {
		case types.ItemListing:
			txnID, err = e.settleListing(ctx, itemID, buyerID)
		case types.ItemAuction:
			txnID, err = e.settleBuyNow(ctx, itemID, buyerID)
		default:
			return "", apperrors.New(apperrors.ErrNotFound, "unknown item kind")
		}
		if err == nil {
			return txnID, nil
		}
		if !apperrors.Is(err, apperrors.ErrConcurrentUpdate) {
			return "", err
		}
		log.Debugf("Settlement conflict on %s %s, attempt %d", kind, itemID, attempt+1)
	}
	return "", apperrors.New(apperrors.ErrConflict, "settlement retries exhausted")
}

func (e *Engine) settleListing(ctx context.Context, listingID, buyerID string) (string, error) {
	listing, err := e.store.GetListingByID(ctx, listingID)
	if err != nil {
		return "", err
	}
	if listing.Status != types.ListingAvailable {
		return "", apperrors.New(apperrors.ErrNotAvailable, "listing is not available")
	}
	if listing.SellerID == buyerID {
		return "", apperrors.New(apperrors.ErrSelfPurchase, "sellers cannot buy their own listings")
	}

	txn := types.Transaction{
		ID:       uuid.New().String(),
		ItemType: types.ItemListing,
		ItemID:   listing.ID,
		SellerID: listing.SellerID,
		BuyerID:  buyerID,
		Price:    listing.Price,
	}
	if err := e.store.SettleListing(ctx, listing.ID, txn); err != nil {
		return "", err
	}

	log.Infof("Listing %s sold to %s for %d", listing.ID, buyerID, txn.Price)
	e.notifySold(txn)
	return txn.ID, nil
}

func (e *Engine) settleBuyNow(ctx context.Context, auctionID, buyerID string) (string, error) {
	auction, err := e.store.GetAuctionByID(ctx, auctionID)
	if err != nil {
		return "", err
	}
	if auction.Status != types.AuctionOpen || time.Now().After(auction.EndDate) {
		return "", apperrors.New(apperrors.ErrNotAvailable, "auction is not open")
	}
	if auction.SellerID == buyerID {
		return "", apperrors.New(apperrors.ErrSelfPurchase, "sellers cannot buy their own auctions")
	}
	if auction.BuyNowPrice == nil {
		return "", apperrors.New(apperrors.ErrNoBuyNowPrice, "auction has no buy-it-now price")
	}

	txn := types.Transaction{
		ID:       uuid.New().String(),
		ItemType: types.ItemAuction,
		ItemID:   auction.ID,
		SellerID: auction.SellerID,
		BuyerID:  buyerID,
		Price:    *auction.BuyNowPrice,
	}
	if err := e.store.SettleAuctionBuyNow(ctx, auction.ID, buyerID, txn); err != nil {
		return "", err
	}

	log.Infof("Auction %s bought now by %s for %d", auction.ID, buyerID, txn.Price)
	e.notifySold(txn)
	return txn.ID, nil
}

// PlaceBid accepts a bid on an open auction. The accept is conditioned on the
// highest bid the engine observed; when a competing bid lands first, the
// refreshed highest bid may still be beatable, so the engine retries up to
// the bound before failing with ErrOutbid.
func (e *Engine) PlaceBid(ctx context.Context, auctionID, bidderID string, amount int64) (string, error) {
	for attempt := 0; attempt < e.maxAttempts; attempt++ {
		if attempt > 0 {
			if err := e.wait(ctx); err != nil {
				return "", apperrors.Wrap(apperrors.ErrOutbid, "bid interrupted", err)
			}
		}

		auction, err := e.store.GetAuctionByID(ctx, auctionID)
		if err != nil {
			return "", err
		}
		if auction.Status != types.AuctionOpen || time.Now().After(auction.EndDate) {
			return "", apperrors.New(apperrors.ErrNotAvailable, "auction is not open")
		}
		if auction.SellerID == bidderID {
			return "", apperrors.New(apperrors.ErrSelfPurchase, "sellers cannot bid on their own auctions")
		}
		if auction.CurrentBidderID == nil {
			// Opening bid: the start price itself is an acceptable amount.
			if amount < auction.StartPrice {
				return "", apperrors.New(apperrors.ErrOutbid, "bid is below the start price")
			}
		} else if amount <= auction.CurrentBid {
			return "", apperrors.New(apperrors.ErrOutbid, "bid does not beat the current highest bid")
		}

		bid := types.Bid{
			ID:        uuid.New().String(),
			AuctionID: auction.ID,
			BidderID:  bidderID,
			Amount:    amount,
		}
		err = e.store.AcceptBid(ctx, bid, auction.CurrentBid)
		if err == nil {
			log.Debugf("Bid %s accepted on auction %s at %d", bid.ID, auction.ID, amount)
			if e.notifier != nil {
				e.notifier.BidAccepted(bid)
			}
			return bid.ID, nil
		}
		if !apperrors.Is(err, apperrors.ErrConcurrentUpdate) {
			return "", err
		}
		log.Debugf("Bid conflict on auction %s, attempt %d", auctionID, attempt+1)
	}
	return "", apperrors.New(apperrors.ErrOutbid, "outbid by concurrent bidders")
}

func (e *Engine) notifySold(txn types.Transaction) {
	if e.notifier != nil {
		e.notifier.ItemSold(txn)
	}
}

// wait pauses between attempts with randomized backoff, honoring cancellation.
func (e *Engine) wait(ctx context.Context) error {
	if e.backoff <= 0 {
		return ctx.Err()
	}
	d := e.backoff + time.Duration(rand.Int63n(int64(e.backoff)))
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
