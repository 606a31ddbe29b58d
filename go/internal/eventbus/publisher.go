package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// SessionEvent is the record published for each session lifecycle change.
type SessionEvent struct {
	SessionID  string    `json:"session_id"`
	State      string    `json:"state"`
	Player1ID  string    `json:"player1_id"`
	Player2ID  string    `json:"player2_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher fans session lifecycle events out to downstream consumers.
// Publish failures must never block or fail the caller's operation.
type Publisher interface {
	Publish(ctx context.Context, event SessionEvent) error
}

// Noop discards every event. Used when no message bus is configured.
type Noop struct{}

func (Noop) Publish(ctx context.Context, event SessionEvent) error {
	return nil
}

// NATS publishes session events as JSON to match.sessions.<state> subjects.
type NATS struct {
	nc            *nats.Conn
	subjectPrefix string
}

// NewNATS connects to the given NATS URL with the usual reconnect handlers.
func NewNATS(url, subjectPrefix string) (*NATS, error) {
	opts := []nats.Option{
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	return &NATS{nc: nc, subjectPrefix: subjectPrefix}, nil
}

// Publish sends the event to <prefix>.<state-lowercased>.
func (p *NATS) Publish(ctx context.Context, event SessionEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal session event: %w", err)
	}

	subject := fmt.Sprintf("%s.%s", p.subjectPrefix, strings.ToLower(event.State))
	if err := p.nc.Publish(subject, data); err != nil {
		return fmt.Errorf("publish to %s: %w", subject, err)
	}
	return nil
}

// Close drains the connection.
func (p *NATS) Close() {
	if p.nc != nil {
		p.nc.Close()
	}
}
