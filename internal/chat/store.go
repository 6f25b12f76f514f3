package chat

import (
	"sync"

	"github.com/thaifoodie/chat-backend/internal/types"
)

// Store holds the live transcript and the conversation list for the
// active user. It exclusively owns both: the turn controller and the
// history gateway mutate it, the presentation layer only reads
// snapshots.
//
// All mutations are serialized through one mutex so the ordering
// guarantees of the turn lifecycle hold on a multi-threaded runtime.
type Store struct {
	mu            sync.Mutex
	messages      []types.ChatMessage
	conversations []types.Conversation
	activeConvID  string
	generation    uint64
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{}
}

// Generation identifies the current transcript epoch. It advances when
// the transcript is replaced or cleared, so a turn resolved against a
// discarded epoch can detect it is stale and drop its result.
func (s *Store) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// ReplaceAll swaps in a full message list, used when switching
// conversations or loading history. It never merges.
func (s *Store) ReplaceAll(messages []types.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append([]types.ChatMessage(nil), messages...)
	s.generation++
}

// Append adds messages to the end of the transcript.
func (s *Store) Append(messages ...types.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, messages...)
}

// UpdateByID applies patch to the message with the given id, in place.
// It reports whether the message was found.
func (s *Store) UpdateByID(id string, patch func(*types.ChatMessage)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.messages {
		if s.messages[i].ID == id {
			patch(&s.messages[i])
			return true
		}
	}
	return false
}

// Clear empties the transcript and detaches the active conversation.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = nil
	s.activeConvID = ""
	s.generation++
}

// Messages returns a snapshot of the transcript.
func (s *Store) Messages() []types.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.ChatMessage(nil), s.messages...)
}

// PrependConversation inserts a new conversation summary at the head
// of the conversation list.
func (s *Store) PrependConversation(c types.Conversation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations = append([]types.Conversation{c}, s.conversations...)
}

// ReplaceConversations swaps in a full conversation list.
func (s *Store) ReplaceConversations(conversations []types.Conversation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations = append([]types.Conversation(nil), conversations...)
}

// RemoveConversation drops a conversation summary from the list.
func (s *Store) RemoveConversation(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.conversations[:0]
	for _, c := range s.conversations {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	s.conversations = kept
}

// Conversations returns a snapshot of the conversation list.
func (s *Store) Conversations() []types.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.Conversation(nil), s.conversations...)
}

// SetActiveConversation selects a conversation and opens a new
// transcript epoch.
func (s *Store) SetActiveConversation(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeConvID = id
	s.generation++
}

// ActiveConversation returns the selected conversation id, or the
// empty string when the current chat has not been persisted yet.
func (s *Store) ActiveConversation() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeConvID
}

// adoptConversation records the server-assigned conversation id for
// the current chat without opening a new epoch: the transcript the
// user is looking at stays live.
func (s *Store) adoptConversation(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeConvID = id
}
