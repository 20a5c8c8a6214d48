package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cpatton716/collectors-catalog/pkg/types"
)

// CurrentUsername handles GET /api/username/current.
func (h *Handler) CurrentUsername(c *gin.Context) {
	profile := currentProfile(c)
	c.JSON(http.StatusOK, gin.H{
		"username":          profile.Username,
		"displayPreference": profile.DisplayPreference,
	})
}

// MyTransactions handles GET /api/transactions.
func (h *Handler) MyTransactions(c *gin.Context) {
	profile := currentProfile(c)
	txns, err := h.db.ListTransactionsByProfile(c.Request.Context(), profile.ID, defaultPageSize)
	if err != nil {
		abortError(c, err)
		return
	}
	if txns == nil {
		txns = []types.Transaction{}
	}
	c.JSON(http.StatusOK, txns)
}
