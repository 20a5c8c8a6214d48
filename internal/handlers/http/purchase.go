package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/cpatton716/collectors-catalog/pkg/errors"
	"github.com/cpatton716/collectors-catalog/pkg/types"
)

// PurchaseListing handles POST /api/listings/:id/purchase.
func (h *Handler) PurchaseListing(c *gin.Context) {
	h.settle(c, types.ItemListing)
}

// BuyNow handles POST /api/auctions/:id/buy-now.
func (h *Handler) BuyNow(c *gin.Context) {
	h.settle(c, types.ItemAuction)
}

func (h *Handler) settle(c *gin.Context, kind string) {
	buyer := currentProfile(c)
	txnID, err := h.engine.SettlePurchase(c.Request.Context(), kind, c.Param("id"), buyer.ID)
	if err != nil {
		abortError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "transactionId": txnID})
}

type placeBidRequest struct {
	Amount int64 `json:"amount"`
}

// PlaceBid handles POST /api/auctions/:id/bids.
func (h *Handler) PlaceBid(c *gin.Context) {
	var req placeBidRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Amount <= 0 {
		abortError(c, apperrors.New(apperrors.ErrBadRequest, "bid amount must be a positive integer"))
		return
	}

	bidder := currentProfile(c)
	bidID, err := h.engine.PlaceBid(c.Request.Context(), c.Param("id"), bidder.ID, req.Amount)
	if err != nil {
		abortError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "bidId": bidID})
}
