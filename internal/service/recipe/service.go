// Package recipe turns one chat request into the streamable response
// the chat clients consume: narrative text plus a sentinel-delimited
// payload for recipes, or a bare JSON document for everything else.
package recipe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/thaifoodie/chat-backend/internal/ai/gemini"
	"github.com/thaifoodie/chat-backend/internal/chat"
	"github.com/thaifoodie/chat-backend/internal/chat/normalize"
	"github.com/thaifoodie/chat-backend/internal/chat/stream"
	"github.com/thaifoodie/chat-backend/internal/types"
)

// Generator is the slice of the Gemini client the service uses.
type Generator interface {
	GenerateContent(ctx context.Context, req *gemini.Request) (*gemini.Response, error)
}

// VideoFinder locates related cooking videos for a dish.
type VideoFinder interface {
	Search(ctx context.Context, dishName, lang string) ([]types.Video, error)
}

// Reply is one composed model response. Either Payload is set (recipe
// outcome, streamed with the sentinel) or Document carries the bare
// JSON reply (conversation or model-reported error).
type Reply struct {
	Narrative string
	Payload   *stream.Payload
	Document  string
}

// Service handles one chat turn on the server side.
type Service struct {
	generator Generator
	videos    VideoFinder
	logger    *logrus.Logger
}

// NewService creates a recipe service. videos may be nil to disable
// the related-video lookup.
func NewService(generator Generator, videos VideoFinder, logger *logrus.Logger) *Service {
	return &Service{
		generator: generator,
		videos:    videos,
		logger:    logger,
	}
}

// Respond calls the model with the turn's prompt, history and optional
// image, normalizes the raw output, and composes the reply. The model
// is the known source of trailing commas and stray code fences, so its
// text always goes through the normalizer before anything is sent to
// a client.
func (s *Service) Respond(ctx context.Context, req *chat.TurnRequest) (*Reply, error) {
	geminiReq := &gemini.Request{
		SystemInstruction: &gemini.Content{
			Parts: []gemini.Part{{Text: SystemPrompt(req.Language)}},
		},
		Contents: contentsFromTurn(req),
	}

	resp, err := s.generator.GenerateContent(ctx, geminiReq)
	if err != nil {
		return nil, fmt.Errorf("call gemini: %w", err)
	}

	raw := resp.Text()
	res := normalize.Classify(raw)
	switch res.Kind {
	case normalize.KindRecipe:
		payload := &stream.Payload{Recipe: res.Recipe}
		if s.videos != nil {
			videos, err := s.videos.Search(ctx, res.Recipe.DishName, req.Language)
			if err != nil {
				s.logger.WithError(err).WithField("dish", res.Recipe.DishName).Warn("video lookup failed")
			} else {
				payload.Videos = videos
			}
		}
		return &Reply{
			Narrative: recipeIntro(res.Recipe.DishName, req.Language),
			Payload:   payload,
		}, nil
	case normalize.KindConversation:
		doc, _ := json.Marshal(map[string]string{"conversation": res.Text})
		return &Reply{Document: string(doc)}, nil
	case normalize.KindModelError:
		// An explicit error outcome from the model passes through
		// verbatim; it is the answer, not a failure.
		doc, _ := json.Marshal(map[string]string{"error": res.Text})
		return &Reply{Document: string(doc)}, nil
	default:
		return nil, fmt.Errorf("normalize model response: %w", res.Err)
	}
}

// WriteTo writes the reply in the on-wire stream format.
func (r *Reply) WriteTo(w io.Writer) (int64, error) {
	if r.Payload == nil {
		n, err := io.WriteString(w, r.Document)
		return int64(n), err
	}

	total := 0
	n, err := io.WriteString(w, r.Narrative)
	total += n
	if err != nil {
		return int64(total), err
	}
	n, err = io.WriteString(w, stream.Sentinel)
	total += n
	if err != nil {
		return int64(total), err
	}
	data, err := json.Marshal(r.Payload)
	if err != nil {
		return int64(total), fmt.Errorf("marshal payload: %w", err)
	}
	n, err = w.Write(data)
	total += n
	return int64(total), err
}

// contentsFromTurn converts the turn request into Gemini contents:
// prior transcript first, then the new user message with its optional
// inline image.
func contentsFromTurn(req *chat.TurnRequest) []gemini.Content {
	var contents []gemini.Content
	for _, msg := range req.History {
		if msg.Text == "" || msg.IsLoading {
			continue
		}
		role := "user"
		if msg.Role == types.RoleModel {
			role = "model"
		}
		contents = append(contents, gemini.Content{
			Role:  role,
			Parts: []gemini.Part{{Text: msg.Text}},
		})
	}

	parts := []gemini.Part{}
	if req.Prompt != "" {
		parts = append(parts, gemini.Part{Text: req.Prompt})
	}
	if req.Image != "" {
		if mime, data, ok := parseDataURL(req.Image); ok {
			parts = append(parts, gemini.Part{InlineData: &gemini.InlineData{
				MimeType: mime,
				Data:     data,
			}})
		}
	}
	contents = append(contents, gemini.Content{Role: "user", Parts: parts})
	return contents
}

// parseDataURL splits a "data:<mime>;base64,<data>" URL. Plain base64
// input is accepted as a JPEG.
func parseDataURL(s string) (mime, data string, ok bool) {
	if !strings.HasPrefix(s, "data:") {
		return "image/jpeg", s, s != ""
	}
	rest := s[len("data:"):]
	comma := strings.IndexByte(rest, ',')
	if comma < 0 {
		return "", "", false
	}
	meta := rest[:comma]
	data = rest[comma+1:]
	mime = strings.TrimSuffix(meta, ";base64")
	if mime == "" || data == "" {
		return "", "", false
	}
	return mime, data, true
}
