// Package http exposes the marketplace over a JSON HTTP API.
package http

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/cpatton716/collectors-catalog/configs"
	"github.com/cpatton716/collectors-catalog/internal/auth"
	"github.com/cpatton716/collectors-catalog/internal/database"
)

// SettlementEngine is the settlement surface the handlers call.
type SettlementEngine interface {
	SettlePurchase(ctx context.Context, kind, itemID, buyerID string) (string, error)
	PlaceBid(ctx context.Context, auctionID, bidderID string, amount int64) (string, error)
}

// LiveFeed upgrades an authenticated request to the live event stream.
type LiveFeed interface {
	HandleLive(c *gin.Context)
}

type Handler struct {
	db     database.Service
	engine SettlementEngine
}

func NewHandler(db database.Service, engine SettlementEngine) *Handler {
	return &Handler{db: db, engine: engine}
}

// NewRouter configures all Gin routes for the application.
func NewRouter(cfg *configs.Config, db database.Service, engine SettlementEngine, authn *auth.Authenticator, feed LiveFeed) *gin.Engine {
	router := gin.New() // no default middleware, logging and recovery are explicit

	router.Use(gin.Recovery())
	router.Use(RequestLogger())

	h := NewHandler(db, engine)

	router.GET("/health", h.Health)

	api := router.Group("/api")

	// Public browse surface.
	api.GET("/listings", h.ListListings)
	api.GET("/listings/:id", h.GetListing)
	api.GET("/auctions", h.ListAuctions)
	api.GET("/auctions/:id", h.GetAuction)
	api.GET("/auctions/:id/bids", h.ListAuctionBids)

	// Everything below requires an authenticated identity.
	authed := api.Group("")
	authed.Use(AuthMiddleware(authn, db))

	authed.POST("/listings", h.CreateListing)
	authed.POST("/listings/:id/purchase", h.PurchaseListing)
	authed.POST("/auctions", h.CreateAuction)
	authed.POST("/auctions/:id/buy-now", h.BuyNow)
	authed.POST("/auctions/:id/bids", h.PlaceBid)

	authed.GET("/username/current", h.CurrentUsername)
	authed.GET("/transactions", h.MyTransactions)

	authed.POST("/messages", h.SendMessage)
	authed.GET("/messages/unread-count", h.UnreadCount)
	authed.GET("/messages/with/:profileId", h.ListConversation)
	authed.POST("/messages/with/:profileId/read", h.MarkConversationRead)

	admin := authed.Group("/admin")
	admin.Use(RequireAdmin())
	admin.POST("/listings/:id/cancel", h.CancelListing)
	admin.POST("/auctions/:id/cancel", h.CancelAuction)
	admin.GET("/transactions", h.RecentTransactions)

	if feed != nil && cfg.Features.EnableLiveFeed {
		live := router.Group("/ws")
		live.Use(AuthMiddleware(authn, db))
		live.GET("/live", feed.HandleLive)
	}

	return router
}

// Health reports database health statistics.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(200, h.db.Health(c.Request.Context()))
}
