package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thaifoodie/chat-backend/internal/ai/gemini"
	"github.com/thaifoodie/chat-backend/internal/service"
	"github.com/thaifoodie/chat-backend/internal/service/recipe"
)

const testSecret = "test-secret"

type fakeGenerator struct {
	raw string
	err error
}

func (f *fakeGenerator) GenerateContent(ctx context.Context, req *gemini.Request) (*gemini.Response, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &gemini.Response{
		Candidates: []gemini.Candidate{
			{Content: gemini.Content{Role: "model", Parts: []gemini.Part{{Text: f.raw}}}},
		},
	}, nil
}

func newTestServer(generator *fakeGenerator) *Server {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	recipeService := recipe.NewService(generator, nil, logger)
	return NewServer(service.NewAuthService(testSecret), nil, nil, recipeService, nil, logger)
}

func signToken(t *testing.T, subject string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func TestAuthMiddleware(t *testing.T) {
	s := newTestServer(&fakeGenerator{})
	e := echo.New()

	handler := s.AuthMiddleware(func(c echo.Context) error {
		return c.String(http.StatusOK, GetUserID(c))
	})

	t.Run("missing header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		require.NoError(t, handler(e.NewContext(req, rec)))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("malformed header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(echo.HeaderAuthorization, "Token abc")
		rec := httptest.NewRecorder()
		require.NoError(t, handler(e.NewContext(req, rec)))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("bad token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer not-a-token")
		rec := httptest.NewRecorder()
		require.NoError(t, handler(e.NewContext(req, rec)))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+signToken(t, "user-42"))
		rec := httptest.NewRecorder()
		require.NoError(t, handler(e.NewContext(req, rec)))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "user-42", rec.Body.String())
	})
}

func TestRecipeStreamsRecipeReply(t *testing.T) {
	s := newTestServer(&fakeGenerator{
		raw: `{"dishName": "ผัดไทย", "ingredients": [{"name": "เส้นจันท์", "amount": "200 กรัม"}], "instructions": ["ผัดให้เข้ากัน"], "calories": "450 kcal"}`,
	})
	e := echo.New()

	req := httptest.NewRequest(http.MethodPost, "/api/recipe",
		strings.NewReader(`{"prompt": "ผัดไทย", "language": "th"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	require.NoError(t, s.Recipe(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "นี่คือสูตรสำหรับ ผัดไทย ค่ะ")
	require.Contains(t, body, "---DATA---")
	payload := body[strings.Index(body, "---DATA---")+len("---DATA---"):]
	assert.Contains(t, payload, `"dishName"`)
}

func TestRecipeConversationalReply(t *testing.T) {
	s := newTestServer(&fakeGenerator{
		raw: `{"conversation": "สวัสดีค่ะ"}`,
	})
	e := echo.New()

	req := httptest.NewRequest(http.MethodPost, "/api/recipe",
		strings.NewReader(`{"prompt": "สวัสดี", "language": "th"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	require.NoError(t, s.Recipe(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"conversation": "สวัสดีค่ะ"}`, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "---DATA---")
}

func TestRecipeRejectsEmptyPrompt(t *testing.T) {
	s := newTestServer(&fakeGenerator{})
	e := echo.New()

	req := httptest.NewRequest(http.MethodPost, "/api/recipe", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	require.NoError(t, s.Recipe(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecipeUnparseableModelOutput(t *testing.T) {
	s := newTestServer(&fakeGenerator{raw: "I am not JSON at all"})
	e := echo.New()

	req := httptest.NewRequest(http.MethodPost, "/api/recipe",
		strings.NewReader(`{"prompt": "ต้มยำ", "language": "th"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	require.NoError(t, s.Recipe(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestVideosWithoutBackendReturnsEmpty(t *testing.T) {
	s := newTestServer(&fakeGenerator{})
	e := echo.New()

	req := httptest.NewRequest(http.MethodPost, "/api/videos",
		strings.NewReader(`{"dish_name": "ผัดไทย"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	require.NoError(t, s.Videos(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"videos": []}`, rec.Body.String())
}
