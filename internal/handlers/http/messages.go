package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/cpatton716/collectors-catalog/pkg/errors"
	"github.com/cpatton716/collectors-catalog/pkg/types"
)

type sendMessageRequest struct {
	RecipientID string `json:"recipientId"`
	Body        string `json:"body"`
}

// SendMessage handles POST /api/messages.
func (h *Handler) SendMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RecipientID == "" || req.Body == "" {
		abortError(c, apperrors.New(apperrors.ErrBadRequest, "message needs a recipient and a body"))
		return
	}

	sender := currentProfile(c)
	if req.RecipientID == sender.ID {
		abortError(c, apperrors.New(apperrors.ErrBadRequest, "cannot message yourself"))
		return
	}
	if _, err := h.db.GetProfileByID(c.Request.Context(), req.RecipientID); err != nil {
		abortError(c, err)
		return
	}

	message, err := h.db.CreateMessage(c.Request.Context(), types.Message{
		ID:          uuid.New().String(),
		SenderID:    sender.ID,
		RecipientID: req.RecipientID,
		Body:        req.Body,
	})
	if err != nil {
		abortError(c, err)
		return
	}

	c.JSON(http.StatusCreated, message)
}

// UnreadCount handles GET /api/messages/unread-count.
func (h *Handler) UnreadCount(c *gin.Context) {
	profile := currentProfile(c)
	count, err := h.db.UnreadCount(c.Request.Context(), profile.ID)
	if err != nil {
		abortError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

// ListConversation handles GET /api/messages/with/:profileId.
func (h *Handler) ListConversation(c *gin.Context) {
	profile := currentProfile(c)
	messages, err := h.db.ListConversation(c.Request.Context(), profile.ID, c.Param("profileId"), defaultPageSize)
	if err != nil {
		abortError(c, err)
		return
	}
	if messages == nil {
		messages = []types.Message{}
	}
	c.JSON(http.StatusOK, messages)
}

// MarkConversationRead handles POST /api/messages/with/:profileId/read.
func (h *Handler) MarkConversationRead(c *gin.Context) {
	profile := currentProfile(c)
	if err := h.db.MarkConversationRead(c.Request.Context(), profile.ID, c.Param("profileId")); err != nil {
		abortError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
