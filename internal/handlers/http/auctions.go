package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/cpatton716/collectors-catalog/pkg/errors"
	"github.com/cpatton716/collectors-catalog/pkg/types"
)

type createAuctionRequest struct {
	Title       string    `json:"title"`
	Issue       string    `json:"issue"`
	Grade       string    `json:"grade"`
	CertNumber  string    `json:"certNumber"`
	StartPrice  int64     `json:"startPrice"`
	BuyNowPrice *int64    `json:"buyNowPrice"`
	EndDate     time.Time `json:"endDate"`
}

// CreateAuction handles POST /api/auctions.
func (h *Handler) CreateAuction(c *gin.Context) {
	var req createAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortError(c, apperrors.New(apperrors.ErrBadRequest, "invalid auction payload"))
		return
	}
	if req.Title == "" || req.StartPrice <= 0 {
		abortError(c, apperrors.New(apperrors.ErrBadRequest, "auction needs a title and a positive start price"))
		return
	}
	if !req.EndDate.After(time.Now()) {
		abortError(c, apperrors.New(apperrors.ErrBadRequest, "auction end date must be in the future"))
		return
	}
	if req.BuyNowPrice != nil && *req.BuyNowPrice < req.StartPrice {
		abortError(c, apperrors.New(apperrors.ErrBadRequest, "buy-it-now price cannot undercut the start price"))
		return
	}

	seller := currentProfile(c)
	auction, err := h.db.CreateAuction(c.Request.Context(), types.Auction{
		ID:          uuid.New().String(),
		SellerID:    seller.ID,
		Title:       req.Title,
		Issue:       req.Issue,
		Grade:       req.Grade,
		CertNumber:  req.CertNumber,
		StartPrice:  req.StartPrice,
		BuyNowPrice: req.BuyNowPrice,
		EndDate:     req.EndDate,
	})
	if err != nil {
		abortError(c, err)
		return
	}

	c.JSON(http.StatusCreated, auction)
}

// GetAuction handles GET /api/auctions/:id.
func (h *Handler) GetAuction(c *gin.Context) {
	auction, err := h.db.GetAuctionByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortError(c, err)
		return
	}
	c.JSON(http.StatusOK, auction)
}

// ListAuctions handles GET /api/auctions.
func (h *Handler) ListAuctions(c *gin.Context) {
	auctions, err := h.db.ListOpenAuctions(c.Request.Context(), defaultPageSize)
	if err != nil {
		abortError(c, err)
		return
	}
	if auctions == nil {
		auctions = []types.Auction{}
	}
	c.JSON(http.StatusOK, auctions)
}

// ListAuctionBids handles GET /api/auctions/:id/bids.
func (h *Handler) ListAuctionBids(c *gin.Context) {
	// 404 for unknown auctions rather than an empty bid list.
	if _, err := h.db.GetAuctionByID(c.Request.Context(), c.Param("id")); err != nil {
		abortError(c, err)
		return
	}

	bids, err := h.db.ListBidsByAuction(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortError(c, err)
		return
	}
	if bids == nil {
		bids = []types.Bid{}
	}
	c.JSON(http.StatusOK, bids)
}
