package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thaifoodie/chat-backend/internal/types"
)

func TestHistoryGatewayLoadConversations(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/conversations", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode([]types.Conversation{{ID: "c1", Title: "ต้มยำกุ้ง"}})
	}))
	defer srv.Close()

	g := NewHistoryGateway(srv.URL, staticTokens{signedIn: true}, testLogger())
	convs := g.LoadConversations(context.Background())
	require.Len(t, convs, 1)
	assert.Equal(t, "c1", convs[0].ID)
}

func TestHistoryGatewaySoftFailsOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	g := NewHistoryGateway(srv.URL, staticTokens{signedIn: true}, testLogger())
	assert.Empty(t, g.LoadConversations(context.Background()))
	assert.Empty(t, g.LoadMessages(context.Background(), "c1"))
}

func TestHistoryGatewaySoftFailsWithoutCredential(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("request should not reach the server without a credential")
	}))
	defer srv.Close()

	g := NewHistoryGateway(srv.URL, staticTokens{signedIn: false}, testLogger())
	assert.Empty(t, g.LoadConversations(context.Background()))
}

func TestHistoryGatewaySaveTurn(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/chat", r.URL.Path)

		var req SaveTurnRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "ขอสูตรผัดไทย", req.UserMessage.Text)
		assert.Empty(t, req.ConversationID)

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(SaveTurnResult{
			ConversationID: "conv-1",
			ModelMessageID: "msg-9",
			Conversation:   &types.Conversation{ID: "conv-1", Title: "ขอสูตรผัดไทย"},
		})
	}))
	defer srv.Close()

	g := NewHistoryGateway(srv.URL, staticTokens{signedIn: true}, testLogger())
	result, err := g.SaveTurn(context.Background(),
		types.ChatMessage{Role: types.RoleUser, Text: "ขอสูตรผัดไทย"},
		types.ChatMessage{Role: types.RoleModel, Text: "นี่คือสูตรค่ะ"},
		"",
	)
	require.NoError(t, err)
	assert.Equal(t, "conv-1", result.ConversationID)
	assert.Equal(t, "msg-9", result.ModelMessageID)
	require.NotNil(t, result.Conversation)
}

func TestHistoryGatewayDeleteAndClear(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		paths = append(paths, r.URL.Path)
		json.NewEncoder(w).Encode(map[string]bool{"success": true})
	}))
	defer srv.Close()

	g := NewHistoryGateway(srv.URL, staticTokens{signedIn: true}, testLogger())
	require.NoError(t, g.DeleteConversation(context.Background(), "c1"))
	require.NoError(t, g.ClearAllHistory(context.Background()))
	assert.Equal(t, []string{"/api/conversations/c1", "/api/history"}, paths)
}
