package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/cpatton716/collectors-catalog/pkg/errors"
	"github.com/cpatton716/collectors-catalog/pkg/types"
)

const defaultPageSize = 50

type createListingRequest struct {
	Title      string `json:"title"`
	Issue      string `json:"issue"`
	Grade      string `json:"grade"`
	CertNumber string `json:"certNumber"`
	Price      int64  `json:"price"`
}

// CreateListing handles POST /api/listings.
func (h *Handler) CreateListing(c *gin.Context) {
	var req createListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortError(c, apperrors.New(apperrors.ErrBadRequest, "invalid listing payload"))
		return
	}
	if req.Title == "" || req.Price <= 0 {
		abortError(c, apperrors.New(apperrors.ErrBadRequest, "listing needs a title and a positive price"))
		return
	}

	seller := currentProfile(c)
	listing, err := h.db.CreateListing(c.Request.Context(), types.Listing{
		ID:         uuid.New().String(),
		SellerID:   seller.ID,
		Title:      req.Title,
		Issue:      req.Issue,
		Grade:      req.Grade,
		CertNumber: req.CertNumber,
		Price:      req.Price,
	})
	if err != nil {
		abortError(c, err)
		return
	}

	c.JSON(http.StatusCreated, listing)
}

// GetListing handles GET /api/listings/:id.
func (h *Handler) GetListing(c *gin.Context) {
	listing, err := h.db.GetListingByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortError(c, err)
		return
	}
	c.JSON(http.StatusOK, listing)
}

// ListListings handles GET /api/listings.
func (h *Handler) ListListings(c *gin.Context) {
	listings, err := h.db.ListAvailableListings(c.Request.Context(), defaultPageSize)
	if err != nil {
		abortError(c, err)
		return
	}
	if listings == nil {
		listings = []types.Listing{}
	}
	c.JSON(http.StatusOK, listings)
}
