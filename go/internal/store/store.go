package store

import (
	"context"

	"github.com/mcdev12/turingchat/go/internal/models"
)

// CreateConversationParams records a freshly matched session.
type CreateConversationParams struct {
	SessionID          string
	Player1ID          string
	Player2ID          string
	Player1IsSurrogate bool
	Player2IsSurrogate bool
}

// CreateMessageParams records one relayed chat line.
type CreateMessageParams struct {
	SessionID string
	SenderID  string
	IsFromP1  bool
	Text      string
}

// SubmitGuessParams records an end-of-session guess.
type SubmitGuessParams struct {
	SessionID        string
	GuesserID        string
	GuessedSurrogate bool
}

// Store is the persistence collaborator for the match engine. Every call may
// be in flight while the engine keeps processing other events, so callers
// must re-validate session state after a call returns.
type Store interface {
	CreateConversation(ctx context.Context, params CreateConversationParams) (*models.Conversation, error)
	CreateMessage(ctx context.Context, params CreateMessageParams) (*models.Message, error)
	SubmitGuess(ctx context.Context, params SubmitGuessParams) (*models.GuessRecord, error)
}
