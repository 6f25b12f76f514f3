package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/thaifoodie/chat-backend/internal/types"
)

// ErrNotFound is returned when a resource is not found.
var ErrNotFound = errors.New("not found")

// ConversationRepository handles database operations for conversations.
type ConversationRepository struct {
	pool *pgxpool.Pool
}

// NewConversationRepository creates a new ConversationRepository.
func NewConversationRepository(pool *pgxpool.Pool) *ConversationRepository {
	return &ConversationRepository{pool: pool}
}

// ListByUser returns the user's conversations, newest first.
func (r *ConversationRepository) ListByUser(ctx context.Context, userID string) ([]types.Conversation, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, title, created_at
		FROM conversations
		WHERE user_id = $1
		ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	var conversations []types.Conversation
	for rows.Next() {
		var (
			id        pgtype.UUID
			title     string
			createdAt pgtype.Timestamptz
		)
		if err := rows.Scan(&id, &title, &createdAt); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		conversations = append(conversations, types.Conversation{
			ID:        pgtypeToUUID(id).String(),
			Title:     title,
			CreatedAt: pgtimestamptzToTime(createdAt),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return conversations, nil
}

// Delete removes a conversation and its messages in one transaction.
func (r *ConversationRepository) Delete(ctx context.Context, id uuid.UUID, userID string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		DELETE FROM chat_messages
		WHERE conversation_id = $1 AND user_id = $2`, uuidToPgtype(id), userID); err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}

	tag, err := tx.Exec(ctx, `
		DELETE FROM conversations
		WHERE id = $1 AND user_id = $2`, uuidToPgtype(id), userID)
	if err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// exists reports whether a conversation belongs to the user.
func conversationExists(ctx context.Context, q querier, id uuid.UUID, userID string) error {
	var one int
	err := q.QueryRow(ctx, `
		SELECT 1 FROM conversations
		WHERE id = $1 AND user_id = $2`, uuidToPgtype(id), userID).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("get conversation: %w", err)
	}
	return nil
}

// querier is satisfied by both the pool and a transaction.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}
