package database

import (
	"context"
	"fmt"

	"github.com/cpatton716/collectors-catalog/pkg/types"
)

const messageColumns = `id, sender_id, recipient_id, body, read, created_at`

func (s *service) CreateMessage(ctx context.Context, message types.Message) (types.Message, error) {
	query := `
        INSERT INTO messages (id, sender_id, recipient_id, body)
        VALUES ($1, $2, $3, $4)
        RETURNING ` + messageColumns
	var m types.Message
	err := s.db.QueryRow(ctx, query, message.ID, message.SenderID, message.RecipientID, message.Body).
		Scan(&m.ID, &m.SenderID, &m.RecipientID, &m.Body, &m.Read, &m.CreatedAt)
	if err != nil {
		return types.Message{}, fmt.Errorf("error creating message: %w", err)
	}
	return m, nil
}

func (s *service) UnreadCount(ctx context.Context, profileID string) (int, error) {
	var count int
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM messages WHERE recipient_id = $1 AND read = false`, profileID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("error counting unread messages: %w", err)
	}
	return count, nil
}

func (s *service) ListConversation(ctx context.Context, profileID, otherID string, limit int) ([]types.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages
        WHERE (sender_id = $1 AND recipient_id = $2) OR (sender_id = $2 AND recipient_id = $1)
        ORDER BY created_at DESC LIMIT $3`
	rows, err := s.db.Query(ctx, query, profileID, otherID, limit)
	if err != nil {
		return nil, fmt.Errorf("error listing conversation: %w", err)
	}
	defer rows.Close()

	var messages []types.Message
	for rows.Next() {
		var m types.Message
		if err := rows.Scan(&m.ID, &m.SenderID, &m.RecipientID, &m.Body, &m.Read, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func (s *service) MarkConversationRead(ctx context.Context, recipientID, senderID string) error {
	_, err := s.db.Exec(ctx,
		`UPDATE messages SET read = true WHERE recipient_id = $1 AND sender_id = $2 AND read = false`,
		recipientID, senderID)
	if err != nil {
		return fmt.Errorf("error marking conversation read: %w", err)
	}
	return nil
}
