package types

import (
	"time"
)

// Profile roles.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Listing statuses.
const (
	ListingAvailable = "available"
	ListingSold      = "sold"
	ListingCancelled = "cancelled"
)

// Auction statuses. Transitions are monotonic: open moves to exactly one
// terminal state and never back.
const (
	AuctionOpen        = "open"
	AuctionSold        = "sold"
	AuctionEndedUnsold = "ended_unsold"
	AuctionCancelled   = "cancelled"
)

// Transaction item kinds.
const (
	ItemListing = "listing"
	ItemAuction = "auction"
)

// Profile is the internal user record linked to an external authentication
// identity. It is created on first authenticated access.
type Profile struct {
	ID                string    `json:"id"`
	ExternalID        string    `json:"-"`
	Email             string    `json:"email"`
	Username          string    `json:"username"`
	DisplayPreference string    `json:"displayPreference"`
	Role              string    `json:"role"`
	CreatedAt         time.Time `json:"createdAt"`
}

// Listing is a graded comic offered at a fixed price. Prices are in cents.
type Listing struct {
	ID         string    `json:"id"`
	SellerID   string    `json:"sellerId"`
	Title      string    `json:"title"`
	Issue      string    `json:"issue"`
	Grade      string    `json:"grade"`
	CertNumber string    `json:"certNumber,omitempty"`
	Price      int64     `json:"price"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Auction is a timed bidding process for a graded comic. BuyNowPrice is
// optional; when set the auction can be settled immediately at that price.
type Auction struct {
	ID              string    `json:"id"`
	SellerID        string    `json:"sellerId"`
	Title           string    `json:"title"`
	Issue           string    `json:"issue"`
	Grade           string    `json:"grade"`
	CertNumber      string    `json:"certNumber,omitempty"`
	StartPrice      int64     `json:"startPrice"`
	BuyNowPrice     *int64    `json:"buyNowPrice,omitempty"`
	CurrentBid      int64     `json:"currentBid"`
	CurrentBidderID *string   `json:"currentBidderId,omitempty"`
	BiddersCount    int       `json:"biddersCount"`
	EndDate         time.Time `json:"endDate"`
	Status          string    `json:"status"`
	WinnerID        *string   `json:"winnerId,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Bid records one accepted bid on an auction.
type Bid struct {
	ID        string    `json:"id"`
	AuctionID string    `json:"auctionId"`
	BidderID  string    `json:"bidderId"`
	Amount    int64     `json:"amount"`
	CreatedAt time.Time `json:"createdAt"`
}

// Transaction is the append-only record of a completed sale. It is immutable
// once created.
type Transaction struct {
	ID        string    `json:"id"`
	ItemType  string    `json:"itemType"`
	ItemID    string    `json:"itemId"`
	SellerID  string    `json:"sellerId"`
	BuyerID   string    `json:"buyerId"`
	Price     int64     `json:"price"`
	CreatedAt time.Time `json:"createdAt"`
}

// Message is a direct message between two profiles.
type Message struct {
	ID          string    `json:"id"`
	SenderID    string    `json:"senderId"`
	RecipientID string    `json:"recipientId"`
	Body        string    `json:"body"`
	Read        bool      `json:"read"`
	CreatedAt   time.Time `json:"createdAt"`
}
