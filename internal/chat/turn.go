package chat

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/thaifoodie/chat-backend/internal/chat/normalize"
	"github.com/thaifoodie/chat-backend/internal/chat/stream"
	"github.com/thaifoodie/chat-backend/internal/types"
)

// apologyText is shown in place of a model reply when a turn fails.
const apologyText = "ขออภัยค่ะ มีข้อผิดพลาดเกิดขึ้น"

// recipeIntro is the fallback narrative for a recipe that arrived
// without any streamed text.
func recipeIntro(dishName, lang string) string {
	if lang == "en" {
		return "Here is the recipe for " + dishName + "."
	}
	return "นี่คือสูตรสำหรับ " + dishName + " ค่ะ"
}

// TurnRequest is the request sent to the model backend for one turn.
type TurnRequest struct {
	Prompt   string              `json:"prompt"`
	Image    string              `json:"image,omitempty"`
	History  []types.ChatMessage `json:"history"`
	Language string              `json:"language,omitempty"`
}

// ModelBackend opens one response stream per turn.
type ModelBackend interface {
	StreamTurn(ctx context.Context, req *TurnRequest) (io.ReadCloser, error)
}

// History is the slice of the history gateway the controller drives.
type History interface {
	LoadConversations(ctx context.Context) []types.Conversation
	LoadMessages(ctx context.Context, conversationID string) []types.ChatMessage
	SaveTurn(ctx context.Context, userMsg, modelMsg types.ChatMessage, conversationID string) (*SaveTurnResult, error)
	UpdateVideos(ctx context.Context, messageID string, videos []types.Video) error
	DeleteConversation(ctx context.Context, conversationID string) error
	ClearAllHistory(ctx context.Context) error
}

// VideoSearcher finds cooking videos for a resolved dish.
type VideoSearcher interface {
	Search(ctx context.Context, dishName, lang string) ([]types.Video, error)
}

// Controller drives one request/response cycle per user send action
// and guarantees the transcript always reaches a terminal state: a
// resolved message or an error-tagged one, never an indefinite loading
// placeholder.
type Controller struct {
	backend  ModelBackend
	store    *Store
	history  History
	videos   VideoSearcher
	tokens   TokenSource
	logger   *logrus.Logger
	language string
}

// NewController wires a turn controller. Auth status and the active
// language are explicit dependencies, not ambient globals. videos may
// be nil to disable the related-video lookup.
func NewController(backend ModelBackend, store *Store, history History, videos VideoSearcher, tokens TokenSource, logger *logrus.Logger, language string) *Controller {
	return &Controller{
		backend:  backend,
		store:    store,
		history:  history,
		videos:   videos,
		tokens:   tokens,
		logger:   logger,
		language: language,
	}
}

// SendTurn runs one chat turn: optimistic insert, stream, resolve,
// persist. A turn that fails is surfaced in the transcript and
// reported as an error; an empty submission is a no-op.
func (c *Controller) SendTurn(ctx context.Context, text, image string) error {
	if strings.TrimSpace(text) == "" && image == "" {
		return nil
	}

	// The generation tags this turn with the transcript epoch active at
	// submission, so a result arriving after the user switched
	// conversations is discarded instead of leaking into the new one.
	generation := c.store.Generation()
	conversationID := c.store.ActiveConversation()
	historySnapshot := c.store.Messages()

	userMsg := types.ChatMessage{
		ID:    "user-" + uuid.NewString(),
		Role:  types.RoleUser,
		Text:  text,
		Image: image,
	}
	placeholder := types.ChatMessage{
		ID:        "model-" + uuid.NewString(),
		Role:      types.RoleModel,
		IsLoading: true,
	}
	c.store.Append(userMsg, placeholder)

	body, err := c.backend.StreamTurn(ctx, &TurnRequest{
		Prompt:   text,
		Image:    image,
		History:  historySnapshot,
		Language: c.language,
	})
	if err != nil {
		c.failTurn(generation, placeholder.ID, apologyText, err.Error())
		return fmt.Errorf("send turn: %w", err)
	}
	defer body.Close()

	narrative, payload, err := c.consumeStream(generation, placeholder.ID, body)
	if err != nil {
		c.failTurn(generation, placeholder.ID, apologyText, err.Error())
		return fmt.Errorf("send turn: %w", err)
	}
	if c.store.Generation() != generation {
		return nil // stale turn, epoch discarded
	}

	final, failure := c.resolve(narrative, payload)
	if failure != "" {
		c.failTurn(generation, placeholder.ID, apologyText, failure)
		return fmt.Errorf("send turn: %s", failure)
	}

	c.store.UpdateByID(placeholder.ID, func(m *types.ChatMessage) {
		m.Text = final.Text
		m.Recipe = final.Recipe
		m.Videos = final.Videos
		m.IsLoading = false
	})

	modelID := placeholder.ID
	savedModelID := ""
	if c.tokens.SignedIn() {
		savedModelID = c.persistTurn(ctx, generation, placeholder.ID, userMsg, final, conversationID)
		if savedModelID != "" {
			modelID = savedModelID
		}
	}

	c.attachVideos(ctx, generation, modelID, savedModelID, final)
	return nil
}

// consumeStream applies incremental text to the placeholder and
// returns the accumulated narrative plus the structured payload, if
// the stream carried one.
func (c *Controller) consumeStream(generation uint64, placeholderID string, body io.Reader) (string, *stream.Payload, error) {
	decoder := stream.NewDecoder(body)
	var narrative strings.Builder
	var payload *stream.Payload

	for {
		ev, err := decoder.Next()
		if err == io.EOF {
			return narrative.String(), payload, nil
		}
		if err != nil {
			return narrative.String(), nil, err
		}
		switch ev.Kind {
		case stream.EventText:
			narrative.WriteString(ev.Text)
			if c.store.Generation() != generation {
				// Keep draining the stream but stop touching a
				// transcript the user has already left.
				continue
			}
			text := narrative.String()
			c.store.UpdateByID(placeholderID, func(m *types.ChatMessage) {
				m.Text = text
			})
		case stream.EventPayload:
			payload = ev.Payload
		}
	}
}

// resolve decides the final message content for a completed stream.
// A non-empty failure string means the turn lands in the failed state.
func (c *Controller) resolve(narrative string, payload *stream.Payload) (types.ChatMessage, string) {
	if payload != nil && payload.Recipe != nil {
		if err := normalize.ValidateRecipe(payload.Recipe); err != nil {
			return types.ChatMessage{}, err.Error()
		}
		text := strings.TrimSpace(narrative)
		if text == "" {
			text = recipeIntro(payload.Recipe.DishName, c.language)
		}
		return types.ChatMessage{
			Role:   types.RoleModel,
			Text:   text,
			Recipe: payload.Recipe,
			Videos: payload.Videos,
		}, ""
	}

	// No structured payload: the whole response is one JSON document
	// (conversational reply, model-reported error, or a bare recipe).
	res := normalize.Classify(narrative)
	switch res.Kind {
	case normalize.KindRecipe:
		return types.ChatMessage{
			Role:   types.RoleModel,
			Text:   recipeIntro(res.Recipe.DishName, c.language),
			Recipe: res.Recipe,
		}, ""
	case normalize.KindConversation:
		return types.ChatMessage{Role: types.RoleModel, Text: res.Text}, ""
	case normalize.KindModelError:
		// The backend answered with an explicit error outcome; surface
		// it verbatim as conversational text, not as a system failure.
		return types.ChatMessage{Role: types.RoleModel, Text: res.Text}, ""
	default:
		return types.ChatMessage{}, normalize.DiagnosticText(res)
	}
}

// persistTurn saves both sides of the turn and corrects local ids from
// the server's response. Persistence failures never roll back the
// resolved message; they are logged and swallowed. Returns the
// server-issued model message id, or "" when the save did not happen.
func (c *Controller) persistTurn(ctx context.Context, generation uint64, placeholderID string, userMsg, final types.ChatMessage, conversationID string) string {
	modelMsg := final
	modelMsg.ID = placeholderID

	result, err := c.history.SaveTurn(ctx, userMsg, modelMsg, conversationID)
	if err != nil {
		c.logger.WithError(err).Warn("failed to persist turn")
		return ""
	}
	if c.store.Generation() != generation {
		return ""
	}

	c.store.UpdateByID(placeholderID, func(m *types.ChatMessage) {
		m.ID = result.ModelMessageID
	})
	if conversationID == "" && result.ConversationID != "" {
		c.store.adoptConversation(result.ConversationID)
		if result.Conversation != nil {
			c.store.PrependConversation(*result.Conversation)
		}
	}
	return result.ModelMessageID
}

// attachVideos fetches related videos for a recipe resolution that
// arrived without them and patches the message, best-effort.
func (c *Controller) attachVideos(ctx context.Context, generation uint64, modelID, savedModelID string, final types.ChatMessage) {
	if c.videos == nil || final.Recipe == nil || len(final.Videos) > 0 {
		return
	}

	videos, err := c.videos.Search(ctx, final.Recipe.DishName, c.language)
	if err != nil {
		c.logger.WithError(err).WithField("dish", final.Recipe.DishName).Warn("video lookup failed")
		return
	}
	if len(videos) == 0 || c.store.Generation() != generation {
		return
	}

	c.store.UpdateByID(modelID, func(m *types.ChatMessage) {
		m.Videos = videos
	})
	if savedModelID != "" {
		if err := c.history.UpdateVideos(ctx, savedModelID, videos); err != nil {
			c.logger.WithError(err).Warn("failed to persist videos")
		}
	}
}

// RefreshConversations reloads the conversation list, best-effort.
func (c *Controller) RefreshConversations(ctx context.Context) {
	c.store.ReplaceConversations(c.history.LoadConversations(ctx))
}

// SelectConversation switches the transcript to a stored conversation.
func (c *Controller) SelectConversation(ctx context.Context, conversationID string) {
	c.store.SetActiveConversation(conversationID)
	c.store.ReplaceAll(c.history.LoadMessages(ctx, conversationID))
}

// StartNewChat abandons the current transcript. Any in-flight turn
// resolves against the old epoch and is discarded.
func (c *Controller) StartNewChat() {
	c.store.Clear()
}

// DeleteConversation removes a conversation. Local state resets
// regardless of the remote outcome; confirmation is the caller's job.
func (c *Controller) DeleteConversation(ctx context.Context, conversationID string) {
	if err := c.history.DeleteConversation(ctx, conversationID); err != nil {
		c.logger.WithError(err).WithField("conversation_id", conversationID).Warn("failed to delete conversation remotely")
	}
	c.store.RemoveConversation(conversationID)
	if c.store.ActiveConversation() == conversationID {
		c.store.Clear()
	}
}

// ClearHistory wipes all history. The local view reflects the user's
// intent immediately; the remote clear is best-effort afterwards.
func (c *Controller) ClearHistory(ctx context.Context) {
	c.store.Clear()
	c.store.ReplaceConversations(nil)
	if !c.tokens.SignedIn() {
		return
	}
	if err := c.history.ClearAllHistory(ctx); err != nil {
		c.logger.WithError(err).Warn("failed to clear remote history")
	}
}

// failTurn replaces the placeholder with an error-tagged message and
// clears the loading flag, unless the turn's epoch was discarded.
func (c *Controller) failTurn(generation uint64, placeholderID, text, errTag string) {
	if c.store.Generation() != generation {
		return
	}
	c.store.UpdateByID(placeholderID, func(m *types.ChatMessage) {
		m.Text = text
		m.Error = errTag
		m.Recipe = nil
		m.IsLoading = false
	})
}
