package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thaifoodie/chat-backend/internal/types"
)

func TestStoreReplaceAllIdempotent(t *testing.T) {
	s := NewStore()
	msgs := []types.ChatMessage{
		{ID: "1", Role: types.RoleUser, Text: "hi"},
		{ID: "2", Role: types.RoleModel, Text: "hello"},
	}

	s.ReplaceAll(msgs)
	first := s.Messages()
	s.ReplaceAll(msgs)
	second := s.Messages()

	assert.Equal(t, first, second)
	assert.Len(t, second, 2)
}

func TestStoreReplaceAllDoesNotMerge(t *testing.T) {
	s := NewStore()
	s.Append(types.ChatMessage{ID: "old", Role: types.RoleUser})
	s.ReplaceAll([]types.ChatMessage{{ID: "new", Role: types.RoleUser}})

	msgs := s.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "new", msgs[0].ID)
}

func TestStoreUpdateByID(t *testing.T) {
	s := NewStore()
	s.Append(types.ChatMessage{ID: "m1", Role: types.RoleModel, IsLoading: true})

	found := s.UpdateByID("m1", func(m *types.ChatMessage) {
		m.Text = "done"
		m.IsLoading = false
	})
	require.True(t, found)

	msgs := s.Messages()
	assert.Equal(t, "done", msgs[0].Text)
	assert.False(t, msgs[0].IsLoading)

	assert.False(t, s.UpdateByID("missing", func(m *types.ChatMessage) {}))
}

func TestStoreGenerationAdvances(t *testing.T) {
	s := NewStore()
	g0 := s.Generation()

	s.Append(types.ChatMessage{ID: "1"})
	assert.Equal(t, g0, s.Generation(), "append does not open a new epoch")

	s.ReplaceAll(nil)
	g1 := s.Generation()
	assert.Greater(t, g1, g0)

	s.Clear()
	assert.Greater(t, s.Generation(), g1)

	s.SetActiveConversation("c1")
	assert.Equal(t, "c1", s.ActiveConversation())
}

func TestStoreClearDetachesConversation(t *testing.T) {
	s := NewStore()
	s.SetActiveConversation("c1")
	s.Append(types.ChatMessage{ID: "1"})

	s.Clear()
	assert.Empty(t, s.Messages())
	assert.Empty(t, s.ActiveConversation())
}

func TestStoreConversationList(t *testing.T) {
	s := NewStore()
	s.ReplaceConversations([]types.Conversation{{ID: "a"}, {ID: "b"}})
	s.PrependConversation(types.Conversation{ID: "c"})

	convs := s.Conversations()
	require.Len(t, convs, 3)
	assert.Equal(t, "c", convs[0].ID)

	s.RemoveConversation("a")
	convs = s.Conversations()
	require.Len(t, convs, 2)
	assert.Equal(t, "c", convs[0].ID)
	assert.Equal(t, "b", convs[1].ID)
}
