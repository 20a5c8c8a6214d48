package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	apperrors "github.com/cpatton716/collectors-catalog/pkg/errors"
	"github.com/cpatton716/collectors-catalog/pkg/types"
)

const listingColumns = `id, seller_id, title, issue, grade, cert_number, price, status, created_at, updated_at`

func scanListing(row pgx.Row) (types.Listing, error) {
	var l types.Listing
	err := row.Scan(&l.ID, &l.SellerID, &l.Title, &l.Issue, &l.Grade, &l.CertNumber,
		&l.Price, &l.Status, &l.CreatedAt, &l.UpdatedAt)
	return l, err
}

func (s *service) CreateListing(ctx context.Context, listing types.Listing) (types.Listing, error) {
	query := `
        INSERT INTO listings (id, seller_id, title, issue, grade, cert_number, price, status)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING ` + listingColumns
	created, err := scanListing(s.db.QueryRow(ctx, query,
		listing.ID, listing.SellerID, listing.Title, listing.Issue, listing.Grade,
		listing.CertNumber, listing.Price, types.ListingAvailable))
	if err != nil {
		return types.Listing{}, fmt.Errorf("error creating listing: %w", err)
	}
	return created, nil
}

func (s *service) GetListingByID(ctx context.Context, id string) (types.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings WHERE id = $1`
	listing, err := scanListing(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return types.Listing{}, apperrors.New(apperrors.ErrNotFound, "listing not found")
		}
		return types.Listing{}, fmt.Errorf("error getting listing by id: %w", err)
	}
	return listing, nil
}

func (s *service) ListAvailableListings(ctx context.Context, limit int) ([]types.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings WHERE status = $1 ORDER BY created_at DESC LIMIT $2`
	rows, err := s.db.Query(ctx, query, types.ListingAvailable, limit)
	if err != nil {
		return nil, fmt.Errorf("error listing available listings: %w", err)
	}
	defer rows.Close()

	var listings []types.Listing
	for rows.Next() {
		listing, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning listing: %w", err)
		}
		listings = append(listings, listing)
	}
	return listings, rows.Err()
}

// SettleListing transitions the listing from available to sold and records
// the transaction in one atomic unit. The update is conditioned on the
// current status, so a racing settlement observes zero affected rows and
// reports ErrConcurrentUpdate instead of double-selling.
func (s *service) SettleListing(ctx context.Context, listingID string, txn types.Transaction) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		res, err := tx.Exec(ctx,
			`UPDATE listings SET status = $2, updated_at = now() WHERE id = $1 AND status = $3`,
			listingID, types.ListingSold, types.ListingAvailable)
		if err != nil {
			return fmt.Errorf("error settling listing: %w", err)
		}
		if res.RowsAffected() == 0 {
			return apperrors.New(apperrors.ErrConcurrentUpdate, "listing no longer available")
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO transactions (id, item_type, item_id, seller_id, buyer_id, price) VALUES ($1, $2, $3, $4, $5, $6)`,
			txn.ID, types.ItemListing, txn.ItemID, txn.SellerID, txn.BuyerID, txn.Price)
		if err != nil {
			return fmt.Errorf("error recording transaction: %w", err)
		}
		return nil
	})
}

// CancelListing is the moderation transition available -> cancelled.
func (s *service) CancelListing(ctx context.Context, id string) error {
	res, err := s.db.Exec(ctx,
		`UPDATE listings SET status = $2, updated_at = now() WHERE id = $1 AND status = $3`,
		id, types.ListingCancelled, types.ListingAvailable)
	if err != nil {
		return fmt.Errorf("error cancelling listing: %w", err)
	}
	if res.RowsAffected() == 0 {
		return apperrors.New(apperrors.ErrNotAvailable, "listing is not cancellable")
	}
	return nil
}
