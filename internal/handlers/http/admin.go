package http

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/cpatton716/collectors-catalog/pkg/types"
)

// CancelListing handles POST /api/admin/listings/:id/cancel.
func (h *Handler) CancelListing(c *gin.Context) {
	id := c.Param("id")
	if _, err := h.db.GetListingByID(c.Request.Context(), id); err != nil {
		abortError(c, err)
		return
	}
	if err := h.db.CancelListing(c.Request.Context(), id); err != nil {
		abortError(c, err)
		return
	}

	log.Info("Listing cancelled by moderator", "listing", id, "admin", currentProfile(c).ID)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// CancelAuction handles POST /api/admin/auctions/:id/cancel.
func (h *Handler) CancelAuction(c *gin.Context) {
	id := c.Param("id")
	if _, err := h.db.GetAuctionByID(c.Request.Context(), id); err != nil {
		abortError(c, err)
		return
	}
	if err := h.db.CancelAuction(c.Request.Context(), id); err != nil {
		abortError(c, err)
		return
	}

	log.Info("Auction cancelled by moderator", "auction", id, "admin", currentProfile(c).ID)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// RecentTransactions handles GET /api/admin/transactions.
func (h *Handler) RecentTransactions(c *gin.Context) {
	txns, err := h.db.ListRecentTransactions(c.Request.Context(), defaultPageSize)
	if err != nil {
		abortError(c, err)
		return
	}
	if txns == nil {
		txns = []types.Transaction{}
	}
	c.JSON(http.StatusOK, txns)
}
