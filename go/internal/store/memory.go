package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/turingchat/go/internal/models"
)

// Memory is an in-process Store used in dev mode and tests. The failure and
// delay hooks let tests exercise collaborator errors and in-flight races.
type Memory struct {
	mu            sync.Mutex
	conversations map[string]*models.Conversation
	messages      []*models.Message
	guesses       []*models.GuessRecord

	// Test hooks; when set, each call fails with the given error or sleeps
	// for the given duration before resolving.
	FailCreateConversation error
	FailCreateMessage      error
	FailSubmitGuess        error
	Delay                  time.Duration
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		conversations: make(map[string]*models.Conversation),
	}
}

func (m *Memory) wait(ctx context.Context) error {
	if m.Delay <= 0 {
		return nil
	}
	select {
	case <-time.After(m.Delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// CreateConversation records a conversation keyed by session id.
func (m *Memory) CreateConversation(ctx context.Context, params CreateConversationParams) (*models.Conversation, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailCreateConversation != nil {
		return nil, m.FailCreateConversation
	}

	conv := &models.Conversation{
		ID:                 uuid.New(),
		SessionID:          params.SessionID,
		Player1ID:          params.Player1ID,
		Player2ID:          params.Player2ID,
		Player1IsSurrogate: params.Player1IsSurrogate,
		Player2IsSurrogate: params.Player2IsSurrogate,
		CreatedAt:          time.Now(),
	}
	m.conversations[params.SessionID] = conv
	return conv, nil
}

// CreateMessage appends a message record.
func (m *Memory) CreateMessage(ctx context.Context, params CreateMessageParams) (*models.Message, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailCreateMessage != nil {
		return nil, m.FailCreateMessage
	}

	msg := &models.Message{
		ID:        uuid.New(),
		SessionID: params.SessionID,
		SenderID:  params.SenderID,
		IsFromP1:  params.IsFromP1,
		Text:      params.Text,
		CreatedAt: time.Now(),
	}
	m.messages = append(m.messages, msg)
	return msg, nil
}

// SubmitGuess records the guess and answers from the stored conversation.
func (m *Memory) SubmitGuess(ctx context.Context, params SubmitGuessParams) (*models.GuessRecord, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailSubmitGuess != nil {
		return nil, m.FailSubmitGuess
	}

	conv, ok := m.conversations[params.SessionID]
	if !ok {
		return nil, ErrConversationNotFound
	}

	rec := &models.GuessRecord{
		ID:                 uuid.New(),
		SessionID:          params.SessionID,
		GuesserID:          params.GuesserID,
		GuessedSurrogate:   params.GuessedSurrogate,
		Player1ID:          conv.Player1ID,
		Player1IsSurrogate: conv.Player1IsSurrogate,
		Player2IsSurrogate: conv.Player2IsSurrogate,
		CreatedAt:          time.Now(),
	}
	m.guesses = append(m.guesses, rec)
	return rec, nil
}

// Messages returns a copy of all recorded messages.
func (m *Memory) Messages() []*models.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.Message, len(m.messages))
	copy(out, m.messages)
	return out
}

// Guesses returns a copy of all recorded guesses.
func (m *Memory) Guesses() []*models.GuessRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.GuessRecord, len(m.guesses))
	copy(out, m.guesses)
	return out
}
