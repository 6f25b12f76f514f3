package types

import "time"

// MessageRole represents the side of a chat turn a message belongs to.
type MessageRole string

const (
	RoleUser  MessageRole = "user"
	RoleModel MessageRole = "model"
)

// ChatMessage is one turn-side unit of the transcript.
//
// The ID starts as a client-generated value and is swapped for the
// server-issued one once the turn has been persisted. At most one of
// Recipe, conversational Text, or Error is the resolved outcome of a
// model message; IsLoading is true only while the message is still
// being streamed.
type ChatMessage struct {
	ID        string      `json:"id"`
	Role      MessageRole `json:"role"`
	Text      string      `json:"text"`
	Image     string      `json:"image,omitempty"`
	Recipe    *Recipe     `json:"recipe,omitempty"`
	Videos    []Video     `json:"videos,omitempty"`
	Error     string      `json:"error,omitempty"`
	IsLoading bool        `json:"isLoading,omitempty"`
}

// Ingredient is a single recipe ingredient line.
type Ingredient struct {
	Name   string `json:"name"`
	Amount string `json:"amount"`
}

// Recipe is a structured Thai recipe as produced by the model.
type Recipe struct {
	DishName     string       `json:"dishName"`
	Ingredients  []Ingredient `json:"ingredients"`
	Instructions []string     `json:"instructions"`
	Calories     string       `json:"calories"`
}

// Video references one related cooking video, in the search backend's
// relevance order.
type Video struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Thumbnail    string `json:"thumbnail"`
	ChannelTitle string `json:"channelTitle"`
}

// Conversation is a persisted conversation summary. It is created
// lazily by the server on the first saved turn of a new chat.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
}
