package models

import (
	"time"

	"github.com/google/uuid"
)

// Conversation is the persisted record backing one two-party session.
// Player order is significant: Player1 is participants[0] for guess scoring.
type Conversation struct {
	ID                 uuid.UUID `json:"id"`
	SessionID          string    `json:"session_id"`
	Player1ID          string    `json:"player1_id"`
	Player2ID          string    `json:"player2_id"`
	Player1IsSurrogate bool      `json:"player1_is_surrogate"`
	Player2IsSurrogate bool      `json:"player2_is_surrogate"`
	CreatedAt          time.Time `json:"created_at"`
}

// Message is one persisted chat line within a conversation.
type Message struct {
	ID        uuid.UUID `json:"id"`
	SessionID string    `json:"session_id"`
	SenderID  string    `json:"sender_id"`
	IsFromP1  bool      `json:"is_from_p1"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// GuessRecord is the authoritative result of recording a guess. The engine
// resolves the guesser's role against Player1ID rather than its own session
// state so scoring can never diverge from what was persisted.
type GuessRecord struct {
	ID                 uuid.UUID `json:"id"`
	SessionID          string    `json:"session_id"`
	GuesserID          string    `json:"guesser_id"`
	GuessedSurrogate   bool      `json:"guessed_surrogate"`
	Player1ID          string    `json:"player1_id"`
	Player1IsSurrogate bool      `json:"player1_is_surrogate"`
	Player2IsSurrogate bool      `json:"player2_is_surrogate"`
	CreatedAt          time.Time `json:"created_at"`
}
