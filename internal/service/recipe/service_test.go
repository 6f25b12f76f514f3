package recipe

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thaifoodie/chat-backend/internal/ai/gemini"
	"github.com/thaifoodie/chat-backend/internal/chat"
	"github.com/thaifoodie/chat-backend/internal/chat/stream"
	"github.com/thaifoodie/chat-backend/internal/types"
)

type fakeGenerator struct {
	text    string
	err     error
	lastReq *gemini.Request
}

func (g *fakeGenerator) GenerateContent(ctx context.Context, req *gemini.Request) (*gemini.Response, error) {
	g.lastReq = req
	if g.err != nil {
		return nil, g.err
	}
	return &gemini.Response{
		Candidates: []gemini.Candidate{
			{Content: gemini.Content{Role: "model", Parts: []gemini.Part{{Text: g.text}}}},
		},
	}, nil
}

type fakeVideos struct {
	videos []types.Video
}

func (v *fakeVideos) Search(ctx context.Context, dishName, lang string) ([]types.Video, error) {
	return v.videos, nil
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestRespondRecipeOutcome(t *testing.T) {
	gen := &fakeGenerator{text: "```json\n{\"dishName\":\"ผัดไทย\",\"ingredients\":[{\"name\":\"เส้นจันท์\",\"amount\":\"200g\"},],\"instructions\":[\"แช่เส้น\",\"ผัด\"],\"calories\":\"450 kcal\"}\n```"}
	videos := &fakeVideos{videos: []types.Video{{ID: "v1"}}}
	svc := NewService(gen, videos, testLogger())

	reply, err := svc.Respond(context.Background(), &chat.TurnRequest{Prompt: "ขอสูตรผัดไทย", Language: "th"})
	require.NoError(t, err)

	require.NotNil(t, reply.Payload)
	assert.Equal(t, "ผัดไทย", reply.Payload.Recipe.DishName)
	assert.Len(t, reply.Payload.Videos, 1)
	assert.Contains(t, reply.Narrative, "ผัดไทย")
}

func TestRespondConversationOutcome(t *testing.T) {
	gen := &fakeGenerator{text: `{"conversation":"สวัสดีค่ะ",}`}
	svc := NewService(gen, nil, testLogger())

	reply, err := svc.Respond(context.Background(), &chat.TurnRequest{Prompt: "สวัสดี"})
	require.NoError(t, err)

	assert.Nil(t, reply.Payload)
	assert.JSONEq(t, `{"conversation":"สวัสดีค่ะ"}`, reply.Document)
}

func TestRespondModelErrorPassesThrough(t *testing.T) {
	gen := &fakeGenerator{text: `{"error":"ไม่รู้จักเมนูนี้ค่ะ"}`}
	svc := NewService(gen, nil, testLogger())

	reply, err := svc.Respond(context.Background(), &chat.TurnRequest{Prompt: "lasagna"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":"ไม่รู้จักเมนูนี้ค่ะ"}`, reply.Document)
}

func TestRespondUnparseableModelOutput(t *testing.T) {
	gen := &fakeGenerator{text: "total nonsense"}
	svc := NewService(gen, nil, testLogger())

	_, err := svc.Respond(context.Background(), &chat.TurnRequest{Prompt: "ผัดไทย"})
	assert.Error(t, err)
}

func TestRespondBuildsContents(t *testing.T) {
	gen := &fakeGenerator{text: `{"conversation":"ok"}`}
	svc := NewService(gen, nil, testLogger())

	_, err := svc.Respond(context.Background(), &chat.TurnRequest{
		Prompt: "แล้วแกงเขียวหวานล่ะ",
		Image:  "data:image/png;base64,aGVsbG8=",
		History: []types.ChatMessage{
			{Role: types.RoleUser, Text: "สวัสดี"},
			{Role: types.RoleModel, Text: "สวัสดีค่ะ"},
			{Role: types.RoleModel, IsLoading: true},
		},
		Language: "th",
	})
	require.NoError(t, err)

	req := gen.lastReq
	require.NotNil(t, req.SystemInstruction)
	require.Len(t, req.Contents, 3, "history minus loading placeholder, plus the new message")
	assert.Equal(t, "user", req.Contents[0].Role)
	assert.Equal(t, "model", req.Contents[1].Role)

	last := req.Contents[2]
	require.Len(t, last.Parts, 2)
	assert.Equal(t, "แล้วแกงเขียวหวานล่ะ", last.Parts[0].Text)
	require.NotNil(t, last.Parts[1].InlineData)
	assert.Equal(t, "image/png", last.Parts[1].InlineData.MimeType)
	assert.Equal(t, "aGVsbG8=", last.Parts[1].InlineData.Data)
}

func TestReplyWriteToStreamFormat(t *testing.T) {
	reply := &Reply{
		Narrative: "นี่คือสูตรค่ะ",
		Payload: &stream.Payload{
			Recipe: &types.Recipe{
				DishName:     "ต้มยำ",
				Ingredients:  []types.Ingredient{{Name: "กุ้ง", Amount: "300g"}},
				Instructions: []string{"ต้ม"},
				Calories:     "350",
			},
		},
	}

	var buf bytes.Buffer
	_, err := reply.WriteTo(&buf)
	require.NoError(t, err)

	out := buf.String()
	require.True(t, strings.HasPrefix(out, "นี่คือสูตรค่ะ"+stream.Sentinel))

	// The wire format must round-trip through the client decoder.
	d := stream.NewDecoder(strings.NewReader(out))
	var sawPayload bool
	for {
		ev, err := d.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		if ev.Kind == stream.EventPayload {
			sawPayload = true
			assert.Equal(t, "ต้มยำ", ev.Payload.Recipe.DishName)
		}
	}
	assert.True(t, sawPayload)
}

func TestReplyWriteToDocument(t *testing.T) {
	reply := &Reply{Document: `{"conversation":"hi"}`}
	var buf bytes.Buffer
	_, err := reply.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, `{"conversation":"hi"}`, buf.String())
}
