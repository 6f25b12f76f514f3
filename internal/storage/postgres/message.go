package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/thaifoodie/chat-backend/internal/types"
)

const maxTitleLength = 50

// MessageRepository handles database operations for chat messages.
type MessageRepository struct {
	pool *pgxpool.Pool
}

// NewMessageRepository creates a new MessageRepository.
func NewMessageRepository(pool *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{pool: pool}
}

// SavedTurn describes where a persisted turn ended up. Conversation is
// set only when the turn created a new conversation.
type SavedTurn struct {
	ConversationID uuid.UUID
	ModelMessageID uuid.UUID
	Conversation   *types.Conversation
}

// ListByConversation returns the messages of a conversation in
// chronological order. The join enforces that the conversation belongs
// to the user; an unknown or foreign conversation yields ErrNotFound.
func (r *MessageRepository) ListByConversation(ctx context.Context, conversationID uuid.UUID, userID string) ([]types.ChatMessage, error) {
	if err := conversationExists(ctx, r.pool, conversationID, userID); err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT m.id, m.role, m.text_content, m.image, m.recipe_data, m.videos_data
		FROM chat_messages m
		JOIN conversations c ON c.id = m.conversation_id
		WHERE m.conversation_id = $1 AND c.user_id = $2
		ORDER BY m.created_at ASC`, uuidToPgtype(conversationID), userID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var messages []types.ChatMessage
	for rows.Next() {
		var (
			id     pgtype.UUID
			role   string
			text   pgtype.Text
			image  pgtype.Text
			recipe []byte
			videos []byte
		)
		if err := rows.Scan(&id, &role, &text, &image, &recipe, &videos); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, types.ChatMessage{
			ID:     pgtypeToUUID(id).String(),
			Role:   types.MessageRole(role),
			Text:   pgtextToString(text),
			Image:  pgtextToString(image),
			Recipe: recipeFromJSON(recipe),
			Videos: videosFromJSON(videos),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return messages, nil
}

// SaveTurn persists a user message and the model message that answered
// it. When conversationID is nil a new conversation is created, titled
// from the user message.
func (r *MessageRepository) SaveTurn(ctx context.Context, userID string, userMsg, modelMsg types.ChatMessage, conversationID *uuid.UUID) (*SavedTurn, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	saved := &SavedTurn{}

	if conversationID != nil {
		if err := conversationExists(ctx, tx, *conversationID, userID); err != nil {
			return nil, err
		}
		saved.ConversationID = *conversationID
	} else {
		var (
			id        pgtype.UUID
			title     string
			createdAt pgtype.Timestamptz
		)
		err := tx.QueryRow(ctx, `
			INSERT INTO conversations (user_id, title)
			VALUES ($1, $2)
			RETURNING id, title, created_at`, userID, truncateTitle(userMsg.Text)).Scan(&id, &title, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("create conversation: %w", err)
		}
		saved.ConversationID = pgtypeToUUID(id)
		saved.Conversation = &types.Conversation{
			ID:        saved.ConversationID.String(),
			Title:     title,
			CreatedAt: pgtimestamptzToTime(createdAt),
		}
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO chat_messages (conversation_id, user_id, role, text_content, image)
		VALUES ($1, $2, $3, $4, $5)`,
		uuidToPgtype(saved.ConversationID), userID, string(types.RoleUser),
		stringToPgtext(userMsg.Text), stringToPgtext(userMsg.Image)); err != nil {
		return nil, fmt.Errorf("insert user message: %w", err)
	}

	var modelID pgtype.UUID
	err = tx.QueryRow(ctx, `
		INSERT INTO chat_messages (conversation_id, user_id, role, text_content, recipe_data, videos_data)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		uuidToPgtype(saved.ConversationID), userID, string(types.RoleModel),
		stringToPgtext(modelMsg.Text), recipeToJSON(modelMsg.Recipe), videosToJSON(modelMsg.Videos)).Scan(&modelID)
	if err != nil {
		return nil, fmt.Errorf("insert model message: %w", err)
	}
	saved.ModelMessageID = pgtypeToUUID(modelID)

	if _, err := tx.Exec(ctx, `
		UPDATE conversations SET updated_at = now() WHERE id = $1`,
		uuidToPgtype(saved.ConversationID)); err != nil {
		return nil, fmt.Errorf("touch conversation: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return saved, nil
}

// UpdateVideos attaches video results to an already saved model message.
func (r *MessageRepository) UpdateVideos(ctx context.Context, messageID uuid.UUID, userID string, videos []types.Video) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE chat_messages
		SET videos_data = $1
		WHERE id = $2 AND user_id = $3`,
		videosToJSON(videos), uuidToPgtype(messageID), userID)
	if err != nil {
		return fmt.Errorf("update message videos: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAllForUser wipes the user's entire history.
func (r *MessageRepository) DeleteAllForUser(ctx context.Context, userID string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM chat_messages WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM conversations WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("delete conversations: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// truncateTitle derives a conversation title from the first prompt.
func truncateTitle(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return "New chat"
	}
	runes := []rune(text)
	if len(runes) <= maxTitleLength {
		return text
	}
	return string(runes[:maxTitleLength]) + "..."
}
