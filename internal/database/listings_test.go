package database

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	apperrors "github.com/cpatton716/collectors-catalog/pkg/errors"
	"github.com/cpatton716/collectors-catalog/pkg/types"
)

func newTestService(t *testing.T) (*service, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return &service{db: mock}, mock
}

func listingRow(l types.Listing) *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "seller_id", "title", "issue", "grade", "cert_number",
		"price", "status", "created_at", "updated_at",
	}).AddRow(l.ID, l.SellerID, l.Title, l.Issue, l.Grade, l.CertNumber,
		l.Price, l.Status, l.CreatedAt, l.UpdatedAt)
}

func TestCreateListing(t *testing.T) {
	s, mock := newTestService(t)
	listing := types.Listing{
		ID:       "l1",
		SellerID: "p1",
		Title:    "Incredible Hulk",
		Issue:    "#181",
		Grade:    "CGC 9.2",
		Price:    350000,
		Status:   types.ListingAvailable,
	}
	mock.ExpectQuery(`INSERT INTO listings`).
		WithArgs("l1", "p1", "Incredible Hulk", "#181", "CGC 9.2", "",
			int64(350000), types.ListingAvailable).
		WillReturnRows(listingRow(listing))

	created, err := s.CreateListing(context.Background(), listing)
	require.NoError(t, err)
	require.Equal(t, "l1", created.ID)
	require.Equal(t, types.ListingAvailable, created.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetListingByID_NotFound(t *testing.T) {
	s, mock := newTestService(t)
	mock.ExpectQuery(`SELECT (.+) FROM listings WHERE id`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetListingByID(context.Background(), "missing")
	require.Error(t, err)
	require.Equal(t, apperrors.ErrNotFound, apperrors.CodeOf(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListAvailableListings(t *testing.T) {
	s, mock := newTestService(t)
	now := time.Now()
	rows := pgxmock.NewRows([]string{
		"id", "seller_id", "title", "issue", "grade", "cert_number",
		"price", "status", "created_at", "updated_at",
	}).
		AddRow("l1", "p1", "Daredevil", "#1", "CGC 4.5", "", int64(90000), types.ListingAvailable, now, now).
		AddRow("l2", "p2", "Batman", "#227", "CGC 7.0", "112233", int64(120000), types.ListingAvailable, now, now)
	mock.ExpectQuery(`SELECT (.+) FROM listings WHERE status`).
		WithArgs(types.ListingAvailable, 50).
		WillReturnRows(rows)

	listings, err := s.ListAvailableListings(context.Background(), 50)
	require.NoError(t, err)
	require.Len(t, listings, 2)
	require.Equal(t, "l2", listings[1].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSettleListing(t *testing.T) {
	s, mock := newTestService(t)
	txn := types.Transaction{
		ID: "t1", ItemType: types.ItemListing, ItemID: "l1",
		SellerID: "p1", BuyerID: "p2", Price: 350000,
	}
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE listings SET status`).
		WithArgs("l1", types.ListingSold, types.ListingAvailable).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`INSERT INTO transactions`).
		WithArgs("t1", types.ItemListing, "l1", "p1", "p2", int64(350000)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	require.NoError(t, s.SettleListing(context.Background(), "l1", txn))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSettleListing_ConcurrentUpdate(t *testing.T) {
	s, mock := newTestService(t)
	txn := types.Transaction{ID: "t1", ItemType: types.ItemListing, ItemID: "l1"}

	// A racing settlement already flipped the status, so the conditional
	// update touches zero rows and nothing is committed.
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE listings SET status`).
		WithArgs("l1", types.ListingSold, types.ListingAvailable).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectRollback()

	err := s.SettleListing(context.Background(), "l1", txn)
	require.Error(t, err)
	require.Equal(t, apperrors.ErrConcurrentUpdate, apperrors.CodeOf(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelListing_NotCancellable(t *testing.T) {
	s, mock := newTestService(t)
	mock.ExpectExec(`UPDATE listings SET status`).
		WithArgs("l1", types.ListingCancelled, types.ListingAvailable).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.CancelListing(context.Background(), "l1")
	require.Error(t, err)
	require.Equal(t, apperrors.ErrNotAvailable, apperrors.CodeOf(err))
	require.NoError(t, mock.ExpectationsWereMet())
}
