package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/thaifoodie/chat-backend/internal/types"
)

// TokenSource is the auth collaborator surface the chat core consumes.
// Absence or invalidity of a credential means "no history available",
// never a fatal error.
type TokenSource interface {
	SignedIn() bool
	Token(ctx context.Context) (string, error)
}

// SaveTurnRequest is the body for persisting both sides of a turn.
type SaveTurnRequest struct {
	UserMessage    types.ChatMessage `json:"user_message"`
	ModelMessage   types.ChatMessage `json:"model_message"`
	ConversationID string            `json:"conversation_id,omitempty"`
}

// SaveTurnResult carries the server-issued identifiers back so local
// state can be corrected without a full reload. Conversation is set
// only when this turn created a brand-new conversation.
type SaveTurnResult struct {
	ConversationID string              `json:"conversation_id"`
	ModelMessageID string              `json:"model_message_id"`
	Conversation   *types.Conversation `json:"conversation,omitempty"`
}

// UpdateVideosRequest attaches late-fetched videos to a saved message.
type UpdateVideosRequest struct {
	Videos []types.Video `json:"videos"`
}

// HistoryGateway translates store intents into calls against the
// history persistence service. Loads soft-fail to empty: history is
// best-effort and must never take the transcript down with it.
type HistoryGateway struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	logger     *logrus.Logger
}

// NewHistoryGateway creates a gateway for the persistence service at
// baseURL.
func NewHistoryGateway(baseURL string, tokens TokenSource, logger *logrus.Logger) *HistoryGateway {
	return &HistoryGateway{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		tokens: tokens,
		logger: logger,
	}
}

// LoadConversations fetches the conversation summaries for the current
// user. On any failure it yields an empty list.
func (g *HistoryGateway) LoadConversations(ctx context.Context) []types.Conversation {
	var conversations []types.Conversation
	if err := g.do(ctx, http.MethodGet, "/api/conversations", nil, &conversations); err != nil {
		g.logger.WithError(err).Warn("failed to load conversations")
		return []types.Conversation{}
	}
	if conversations == nil {
		conversations = []types.Conversation{}
	}
	return conversations
}

// LoadMessages fetches the full message list for a conversation. On
// any failure it yields an empty list.
func (g *HistoryGateway) LoadMessages(ctx context.Context, conversationID string) []types.ChatMessage {
	var messages []types.ChatMessage
	path := fmt.Sprintf("/api/conversations/%s/messages", conversationID)
	if err := g.do(ctx, http.MethodGet, path, nil, &messages); err != nil {
		g.logger.WithError(err).WithField("conversation_id", conversationID).Warn("failed to load messages")
		return []types.ChatMessage{}
	}
	if messages == nil {
		messages = []types.ChatMessage{}
	}
	return messages
}

// SaveTurn persists both sides of a resolved turn. When conversationID
// is empty the server creates the conversation and returns its id.
func (g *HistoryGateway) SaveTurn(ctx context.Context, userMsg, modelMsg types.ChatMessage, conversationID string) (*SaveTurnResult, error) {
	req := SaveTurnRequest{
		UserMessage:    userMsg,
		ModelMessage:   modelMsg,
		ConversationID: conversationID,
	}
	var result SaveTurnResult
	if err := g.do(ctx, http.MethodPost, "/api/chat", req, &result); err != nil {
		return nil, fmt.Errorf("save turn: %w", err)
	}
	return &result, nil
}

// UpdateVideos persists videos fetched after the turn was saved.
func (g *HistoryGateway) UpdateVideos(ctx context.Context, messageID string, videos []types.Video) error {
	path := fmt.Sprintf("/api/messages/%s/videos", messageID)
	if err := g.do(ctx, http.MethodPost, path, UpdateVideosRequest{Videos: videos}, nil); err != nil {
		return fmt.Errorf("update videos: %w", err)
	}
	return nil
}

// DeleteConversation removes a conversation remotely. Best-effort: the
// caller resets local state regardless of the outcome.
func (g *HistoryGateway) DeleteConversation(ctx context.Context, conversationID string) error {
	path := fmt.Sprintf("/api/conversations/%s", conversationID)
	if err := g.do(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	return nil
}

// ClearAllHistory wipes the user's remote history. Local state is
// cleared by the caller before this runs, unconditionally.
func (g *HistoryGateway) ClearAllHistory(ctx context.Context) error {
	if err := g.do(ctx, http.MethodDelete, "/api/history", nil, nil); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

// do performs one authenticated JSON round trip.
func (g *HistoryGateway) do(ctx context.Context, method, path string, body, out any) error {
	token, err := g.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("get token: %w", err)
	}
	if token == "" {
		return fmt.Errorf("no credential available")
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
