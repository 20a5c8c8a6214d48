package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	apperrors "github.com/cpatton716/collectors-catalog/pkg/errors"
	"github.com/cpatton716/collectors-catalog/pkg/types"
)

const auctionColumns = `id, seller_id, title, issue, grade, cert_number, start_price, buy_now_price,
        current_bid, current_bidder_id, bidders_count, end_date, status, winner_id, created_at, updated_at`

func scanAuction(row pgx.Row) (types.Auction, error) {
	var a types.Auction
	err := row.Scan(&a.ID, &a.SellerID, &a.Title, &a.Issue, &a.Grade, &a.CertNumber,
		&a.StartPrice, &a.BuyNowPrice, &a.CurrentBid, &a.CurrentBidderID, &a.BiddersCount,
		&a.EndDate, &a.Status, &a.WinnerID, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func (s *service) CreateAuction(ctx context.Context, auction types.Auction) (types.Auction, error) {
	query := `
        INSERT INTO auctions (id, seller_id, title, issue, grade, cert_number, start_price, buy_now_price, end_date, status)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        RETURNING ` + auctionColumns
	created, err := scanAuction(s.db.QueryRow(ctx, query,
		auction.ID, auction.SellerID, auction.Title, auction.Issue, auction.Grade,
		auction.CertNumber, auction.StartPrice, auction.BuyNowPrice, auction.EndDate,
		types.AuctionOpen))
	if err != nil {
		return types.Auction{}, fmt.Errorf("error creating auction: %w", err)
	}
	return created, nil
}

func (s *service) GetAuctionByID(ctx context.Context, id string) (types.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions WHERE id = $1`
	auction, err := scanAuction(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return types.Auction{}, apperrors.New(apperrors.ErrNotFound, "auction not found")
		}
		return types.Auction{}, fmt.Errorf("error getting auction by id: %w", err)
	}
	return auction, nil
}

func (s *service) ListOpenAuctions(ctx context.Context, limit int) ([]types.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions WHERE status = $1 ORDER BY end_date ASC LIMIT $2`
	return s.queryAuctions(ctx, query, types.AuctionOpen, limit)
}

func (s *service) ListExpiredAuctions(ctx context.Context, now time.Time) ([]types.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions WHERE status = $1 AND end_date <= $2 ORDER BY end_date ASC`
	return s.queryAuctions(ctx, query, types.AuctionOpen, now)
}

func (s *service) queryAuctions(ctx context.Context, query string, args ...any) ([]types.Auction, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying auctions: %w", err)
	}
	defer rows.Close()

	var auctions []types.Auction
	for rows.Next() {
		auction, err := scanAuction(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning auction: %w", err)
		}
		auctions = append(auctions, auction)
	}
	return auctions, rows.Err()
}

func (s *service) ListBidsByAuction(ctx context.Context, auctionID string) ([]types.Bid, error) {
	query := `SELECT id, auction_id, bidder_id, amount, created_at FROM bids WHERE auction_id = $1 ORDER BY created_at DESC`
	rows, err := s.db.Query(ctx, query, auctionID)
	if err != nil {
		return nil, fmt.Errorf("error listing bids: %w", err)
	}
	defer rows.Close()

	var bids []types.Bid
	for rows.Next() {
		var b types.Bid
		if err := rows.Scan(&b.ID, &b.AuctionID, &b.BidderID, &b.Amount, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning bid: %w", err)
		}
		bids = append(bids, b)
	}
	return bids, rows.Err()
}

// SettleAuctionBuyNow closes an open auction at its buy-now price. The status
// transition and the transaction insert happen in one atomic unit conditioned
// on the auction still being open.
func (s *service) SettleAuctionBuyNow(ctx context.Context, auctionID, buyerID string, txn types.Transaction) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		res, err := tx.Exec(ctx,
			`UPDATE auctions SET status = $2, winner_id = $3, updated_at = now() WHERE id = $1 AND status = $4`,
			auctionID, types.AuctionSold, buyerID, types.AuctionOpen)
		if err != nil {
			return fmt.Errorf("error settling auction: %w", err)
		}
		if res.RowsAffected() == 0 {
			return apperrors.New(apperrors.ErrConcurrentUpdate, "auction no longer open")
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO transactions (id, item_type, item_id, seller_id, buyer_id, price) VALUES ($1, $2, $3, $4, $5, $6)`,
			txn.ID, types.ItemAuction, txn.ItemID, txn.SellerID, txn.BuyerID, txn.Price)
		if err != nil {
			return fmt.Errorf("error recording transaction: %w", err)
		}
		return nil
	})
}

// AcceptBid records the bid and advances the auction's highest-bid fields.
// The update is conditioned on the highest bid still being prevHighest, so a
// competing bid accepted in between shows up as zero affected rows.
func (s *service) AcceptBid(ctx context.Context, bid types.Bid, prevHighest int64) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		res, err := tx.Exec(ctx,
			`UPDATE auctions SET current_bid = $2, current_bidder_id = $3, bidders_count = bidders_count + 1, updated_at = now()
             WHERE id = $1 AND status = $4 AND current_bid = $5`,
			bid.AuctionID, bid.Amount, bid.BidderID, types.AuctionOpen, prevHighest)
		if err != nil {
			return fmt.Errorf("error updating auction bid: %w", err)
		}
		if res.RowsAffected() == 0 {
			return apperrors.New(apperrors.ErrConcurrentUpdate, "highest bid moved")
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO bids (id, auction_id, bidder_id, amount) VALUES ($1, $2, $3, $4)`,
			bid.ID, bid.AuctionID, bid.BidderID, bid.Amount)
		if err != nil {
			return fmt.Errorf("error creating bid: %w", err)
		}
		return nil
	})
}

// SettleAuctionWon finalizes an expired auction in favor of its highest
// bidder. Conditioning on the observed current bid keeps a late racing bid
// from being silently dropped from the final price.
func (s *service) SettleAuctionWon(ctx context.Context, auctionID string, txn types.Transaction) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		res, err := tx.Exec(ctx,
			`UPDATE auctions SET status = $2, winner_id = current_bidder_id, updated_at = now()
             WHERE id = $1 AND status = $3 AND current_bid = $4 AND current_bidder_id IS NOT NULL`,
			auctionID, types.AuctionSold, types.AuctionOpen, txn.Price)
		if err != nil {
			return fmt.Errorf("error finalizing auction: %w", err)
		}
		if res.RowsAffected() == 0 {
			return apperrors.New(apperrors.ErrConcurrentUpdate, "auction state moved")
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO transactions (id, item_type, item_id, seller_id, buyer_id, price) VALUES ($1, $2, $3, $4, $5, $6)`,
			txn.ID, types.ItemAuction, txn.ItemID, txn.SellerID, txn.BuyerID, txn.Price)
		if err != nil {
			return fmt.Errorf("error recording transaction: %w", err)
		}
		return nil
	})
}

// MarkAuctionUnsold ends an expired auction that received no bids.
func (s *service) MarkAuctionUnsold(ctx context.Context, auctionID string) error {
	res, err := s.db.Exec(ctx,
		`UPDATE auctions SET status = $2, updated_at = now() WHERE id = $1 AND status = $3 AND current_bidder_id IS NULL`,
		auctionID, types.AuctionEndedUnsold, types.AuctionOpen)
	if err != nil {
		return fmt.Errorf("error ending auction: %w", err)
	}
	if res.RowsAffected() == 0 {
		return apperrors.New(apperrors.ErrConcurrentUpdate, "auction state moved")
	}
	return nil
}

// CancelAuction is the moderation transition open -> cancelled.
func (s *service) CancelAuction(ctx context.Context, id string) error {
	res, err := s.db.Exec(ctx,
		`UPDATE auctions SET status = $2, updated_at = now() WHERE id = $1 AND status = $3`,
		id, types.AuctionCancelled, types.AuctionOpen)
	if err != nil {
		return fmt.Errorf("error cancelling auction: %w", err)
	}
	if res.RowsAffected() == 0 {
		return apperrors.New(apperrors.ErrNotAvailable, "auction is not cancellable")
	}
	return nil
}
