package database

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cpatton716/collectors-catalog/configs"
	"github.com/cpatton716/collectors-catalog/pkg/types"
)

// Service represents a service that interacts with the marketplace database.
// Every status transition on a listing or an auction goes through one of the
// conditional-write methods below; no caller may flip a status unconditionally.
type Service interface {
	// Health returns a map of health status information.
	// The keys and values in the map are service-specific.
	Health(ctx context.Context) map[string]string

	// Close terminates the database connection pool.
	Close()

	// PROFILE METHODS
	EnsureProfile(ctx context.Context, externalID, email string) (types.Profile, error)
	GetProfileByID(ctx context.Context, id string) (types.Profile, error)

	// LISTING METHODS
	CreateListing(ctx context.Context, listing types.Listing) (types.Listing, error)
	GetListingByID(ctx context.Context, id string) (types.Listing, error)
	ListAvailableListings(ctx context.Context, limit int) ([]types.Listing, error)
	// SettleListing flips the listing to sold and records the transaction as
	// one atomic unit, conditioned on the listing still being available.
	SettleListing(ctx context.Context, listingID string, txn types.Transaction) error
	CancelListing(ctx context.Context, id string) error

	// AUCTION METHODS
	CreateAuction(ctx context.Context, auction types.Auction) (types.Auction, error)
	GetAuctionByID(ctx context.Context, id string) (types.Auction, error)
	ListOpenAuctions(ctx context.Context, limit int) ([]types.Auction, error)
	ListBidsByAuction(ctx context.Context, auctionID string) ([]types.Bid, error)
	// SettleAuctionBuyNow closes the auction at its buy-now price,
	// conditioned on the auction still being open.
	SettleAuctionBuyNow(ctx context.Context, auctionID, buyerID string, txn types.Transaction) error
	// AcceptBid records a bid and advances the highest-bid fields, conditioned
	// on the highest bid not having moved since prevHighest was observed.
	AcceptBid(ctx context.Context, bid types.Bid, prevHighest int64) error
	ListExpiredAuctions(ctx context.Context, now time.Time) ([]types.Auction, error)
	SettleAuctionWon(ctx context.Context, auctionID string, txn types.Transaction) error
	MarkAuctionUnsold(ctx context.Context, auctionID string) error
	CancelAuction(ctx context.Context, id string) error

	// TRANSACTION METHODS
	ListTransactionsByProfile(ctx context.Context, profileID string, limit int) ([]types.Transaction, error)
	ListRecentTransactions(ctx context.Context, limit int) ([]types.Transaction, error)

	// MESSAGE METHODS
	CreateMessage(ctx context.Context, message types.Message) (types.Message, error)
	UnreadCount(ctx context.Context, profileID string) (int, error)
	ListConversation(ctx context.Context, profileID, otherID string, limit int) ([]types.Message, error)
	MarkConversationRead(ctx context.Context, recipientID, senderID string) error
}

// Pool is the subset of pgxpool.Pool the service needs. pgxmock's pool
// interface satisfies it too, which keeps the repository methods testable
// without a live database.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

type service struct {
	db Pool
}

// New connects to the database described by the configuration and verifies
// the connection with a short ping.
func New(ctx context.Context, cfg *configs.Config) (Service, error) {
	pool, err := pgxpool.New(ctx, cfg.DatabaseDSN())
	if err != nil {
		return nil, fmt.Errorf("error creating connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	return &service{db: pool}, nil
}

// Health checks the health of the database connection by pinging the database.
// It returns a map with keys indicating various health statistics.
func (s *service) Health(ctx context.Context) map[string]string {
	ctx, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()

	stats := make(map[string]string)

	if err := s.db.Ping(ctx); err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("db down: %v", err)
		return stats
	}

	stats["status"] = "up"
	stats["message"] = "It's healthy"

	// Pool statistics are only available on a real pgxpool.
	if p, ok := s.db.(interface{ Stat() *pgxpool.Stat }); ok {
		st := p.Stat()
		stats["total_conns"] = strconv.Itoa(int(st.TotalConns()))
		stats["acquired_conns"] = strconv.Itoa(int(st.AcquiredConns()))
		stats["idle_conns"] = strconv.Itoa(int(st.IdleConns()))
		stats["max_conns"] = strconv.Itoa(int(st.MaxConns()))

		if st.AcquiredConns() > st.MaxConns()*4/5 {
			stats["message"] = "The database is experiencing heavy load."
		}
	}

	return stats
}

// Close closes the database connection pool.
func (s *service) Close() {
	log.Info("Disconnected from database")
	s.db.Close()
}

// inTx runs fn inside a transaction, committing on success and rolling back
// on error.
func (s *service) inTx(ctx context.Context, fn func(tx pgx.Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			err = fmt.Errorf("error committing transaction: %w", e)
		}
	}()

	return fn(tx)
}
