package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mcdev12/turingchat/go/internal/models"
)

// ErrConversationNotFound is returned when a guess references a session that
// was never recorded.
var ErrConversationNotFound = errors.New("conversation not found")

// Postgres implements Store on a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects a pool and verifies it with a ping.
func NewPostgres(ctx context.Context, connString string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// Close releases the underlying pool.
func (p *Postgres) Close() {
	p.pool.Close()
}

// CreateConversation inserts the conversation row for a new session.
func (p *Postgres) CreateConversation(ctx context.Context, params CreateConversationParams) (*models.Conversation, error) {
	conv := &models.Conversation{
		ID:                 uuid.New(),
		SessionID:          params.SessionID,
		Player1ID:          params.Player1ID,
		Player2ID:          params.Player2ID,
		Player1IsSurrogate: params.Player1IsSurrogate,
		Player2IsSurrogate: params.Player2IsSurrogate,
	}

	row := p.pool.QueryRow(ctx,
		`INSERT INTO conversations (id, session_id, player1_id, player2_id, player1_is_surrogate, player2_is_surrogate)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at`,
		conv.ID, conv.SessionID, conv.Player1ID, conv.Player2ID, conv.Player1IsSurrogate, conv.Player2IsSurrogate)
	if err := row.Scan(&conv.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}

	return conv, nil
}

// CreateMessage inserts one chat line tagged with the sender's stored role.
func (p *Postgres) CreateMessage(ctx context.Context, params CreateMessageParams) (*models.Message, error) {
	msg := &models.Message{
		ID:        uuid.New(),
		SessionID: params.SessionID,
		SenderID:  params.SenderID,
		IsFromP1:  params.IsFromP1,
		Text:      params.Text,
	}

	row := p.pool.QueryRow(ctx,
		`INSERT INTO messages (id, session_id, sender_id, is_from_p1, text)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at`,
		msg.ID, msg.SessionID, msg.SenderID, msg.IsFromP1, msg.Text)
	if err := row.Scan(&msg.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	return msg, nil
}

// SubmitGuess records the guess and returns the authoritative player-1
// identity and surrogate flags from the conversation row.
func (p *Postgres) SubmitGuess(ctx context.Context, params SubmitGuessParams) (*models.GuessRecord, error) {
	rec := &models.GuessRecord{
		ID:               uuid.New(),
		SessionID:        params.SessionID,
		GuesserID:        params.GuesserID,
		GuessedSurrogate: params.GuessedSurrogate,
	}

	row := p.pool.QueryRow(ctx,
		`SELECT player1_id, player1_is_surrogate, player2_is_surrogate
		 FROM conversations WHERE session_id = $1`,
		params.SessionID)
	if err := row.Scan(&rec.Player1ID, &rec.Player1IsSurrogate, &rec.Player2IsSurrogate); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrConversationNotFound
		}
		return nil, fmt.Errorf("failed to load conversation for guess: %w", err)
	}

	row = p.pool.QueryRow(ctx,
		`INSERT INTO guesses (id, session_id, guesser_id, guessed_surrogate)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at`,
		rec.ID, rec.SessionID, rec.GuesserID, rec.GuessedSurrogate)
	if err := row.Scan(&rec.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to record guess: %w", err)
	}

	return rec, nil
}
