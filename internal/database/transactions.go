package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/cpatton716/collectors-catalog/pkg/types"
)

const transactionColumns = `id, item_type, item_id, seller_id, buyer_id, price, created_at`

func scanTransaction(row pgx.Row) (types.Transaction, error) {
	var t types.Transaction
	err := row.Scan(&t.ID, &t.ItemType, &t.ItemID, &t.SellerID, &t.BuyerID, &t.Price, &t.CreatedAt)
	return t, err
}

// ListTransactionsByProfile returns sales the profile took part in, as buyer
// or seller, most recent first.
func (s *service) ListTransactionsByProfile(ctx context.Context, profileID string, limit int) ([]types.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions
        WHERE buyer_id = $1 OR seller_id = $1 ORDER BY created_at DESC LIMIT $2`
	return s.queryTransactions(ctx, query, profileID, limit)
}

func (s *service) ListRecentTransactions(ctx context.Context, limit int) ([]types.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions ORDER BY created_at DESC LIMIT $1`
	return s.queryTransactions(ctx, query, limit)
}

func (s *service) queryTransactions(ctx context.Context, query string, args ...any) ([]types.Transaction, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying transactions: %w", err)
	}
	defer rows.Close()

	var txns []types.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning transaction: %w", err)
		}
		txns = append(txns, txn)
	}
	return txns, rows.Err()
}
