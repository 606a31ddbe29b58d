package match

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/turingchat/go/internal/eventbus"
	"github.com/mcdev12/turingchat/go/internal/match/events"
	"github.com/mcdev12/turingchat/go/internal/store"
	"github.com/rs/zerolog/log"
)

// Config carries the tunable budgets of the engine.
type Config struct {
	// SessionSeconds is the session-wide countdown budget.
	SessionSeconds int
	// TurnSeconds is the per-turn countdown budget.
	TurnSeconds int
	// SessionLowTimeAt tags session ticks as low-time at or below this value.
	SessionLowTimeAt int
	// TurnLowTimeAt tags turn ticks as low-time at or below this value.
	TurnLowTimeAt int
	// CleanupGrace is the delay between a session's terminal transition and
	// its removal from the registry.
	CleanupGrace time.Duration
}

// DefaultConfig returns the canonical budgets.
func DefaultConfig() Config {
	return Config{
		SessionSeconds:   120,
		TurnSeconds:      900,
		SessionLowTimeAt: 30,
		TurnLowTimeAt:    5,
		CleanupGrace:     5 * time.Second,
	}
}

// Notifier is the engine's outbound port to participants. Implementations
// must tolerate unknown participant ids (the connection may already be gone).
type Notifier interface {
	Notify(participantID string, eventType events.EventType, payload any)
}

// pendingPair tracks two participants whose conversation record is still
// being persisted. They belong to neither the queue nor a session until the
// persistence call resolves.
type pendingPair struct {
	sessionID string
	first     waitingEntry
	second    waitingEntry
	gone      map[string]bool
}

// Engine is the matchmaking and session-coordination core. It runs as a
// single goroutine: every inbound operation, timer tick, persistence
// continuation and delayed removal is a closure posted to cmdCh and executed
// run-to-completion, so the queue, session registry and timer registry need
// no locking. Persistence calls are the only suspension points; their
// continuations re-validate the session before touching shared state.
type Engine struct {
	cfg       Config
	clock     clockwork.Clock
	store     store.Store
	notifier  Notifier
	publisher eventbus.Publisher

	cmdCh                chan func()
	queue                matchQueue
	sessions             map[string]*Session
	sessionByParticipant map[string]string
	pending              map[string]*pendingPair
	timers               *TimerRegistry

	// coin is the unbiased flip used for surrogate labels and first turns.
	coin func() bool

	runCtx context.Context
}

// NewEngine creates an engine on the real clock.
func NewEngine(cfg Config, st store.Store, notifier Notifier, publisher eventbus.Publisher) *Engine {
	return NewEngineWithClock(cfg, st, notifier, publisher, clockwork.NewRealClock())
}

// NewEngineWithClock creates an engine on the given clock. Tests pass a
// clockwork fake clock to drive countdowns deterministically.
func NewEngineWithClock(cfg Config, st store.Store, notifier Notifier, publisher eventbus.Publisher, clock clockwork.Clock) *Engine {
	if publisher == nil {
		publisher = eventbus.Noop{}
	}
	e := &Engine{
		cfg:                  cfg,
		clock:                clock,
		store:                st,
		notifier:             notifier,
		publisher:            publisher,
		cmdCh:                make(chan func(), 256),
		sessions:             make(map[string]*Session),
		sessionByParticipant: make(map[string]string),
		pending:              make(map[string]*pendingPair),
		coin:                 func() bool { return rand.IntN(2) == 0 },
		runCtx:               context.Background(),
	}
	e.timers = NewTimerRegistry(clock, e.dispatch)
	return e
}

// Run processes engine steps until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) {
	e.runCtx = ctx
	log.Info().
		Int("session_seconds", e.cfg.SessionSeconds).
		Int("turn_seconds", e.cfg.TurnSeconds).
		Msg("match engine started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("match engine shutting down")
			return
		case step := <-e.cmdCh:
			step()
		}
	}
}

// dispatch posts a step to the engine loop. Steps posted from the same
// goroutine run in order.
func (e *Engine) dispatch(step func()) {
	e.cmdCh <- step
}

// flush blocks until every step dispatched before the call has executed.
func (e *Engine) flush() {
	done := make(chan struct{})
	e.dispatch(func() { close(done) })
	<-done
}

// JoinMatchmaking enqueues the participant, pairing immediately when a
// second participant is already waiting.
func (e *Engine) JoinMatchmaking(participantID string) {
	e.dispatch(func() { e.handleJoin(participantID) })
}

// CancelMatchmaking removes the participant's queue entry, if any.
func (e *Engine) CancelMatchmaking(participantID string) {
	e.dispatch(func() { e.handleCancel(participantID) })
}

// SendMessage relays one chat line to the participant's opponent and grants
// the opponent the next turn.
func (e *Engine) SendMessage(participantID, text string) {
	e.dispatch(func() { e.handleSendMessage(participantID, text) })
}

// TypingStatus mirrors the participant's typing indicator to the opponent.
func (e *Engine) TypingStatus(participantID string, isTyping bool) {
	e.dispatch(func() { e.handleTypingStatus(participantID, isTyping) })
}

// MakeGuess resolves the participant's guess about their opponent's type.
func (e *Engine) MakeGuess(participantID string, guessedSurrogate bool) {
	e.dispatch(func() { e.handleMakeGuess(participantID, guessedSurrogate) })
}

// Retire ends the participant's session, granting the opponent a final guess.
func (e *Engine) Retire(participantID string) {
	e.dispatch(func() { e.handleRetire(participantID) })
}

// Disconnect handles a connection-level departure. Safe to call repeatedly
// for the same participant.
func (e *Engine) Disconnect(participantID string) {
	e.dispatch(func() { e.handleDisconnect(participantID) })
}

// fail surfaces a per-operation error to the acting participant only.
func (e *Engine) fail(participantID string, err error) {
	log.Warn().Err(err).Str("participant_id", participantID).Msg("operation rejected")
	e.notifier.Notify(participantID, events.EventTypeError, events.ErrorPayload{Message: err.Error()})
}

// sessionFor resolves the participant's live session registry entry.
func (e *Engine) sessionFor(participantID string) (*Session, bool) {
	sid, ok := e.sessionByParticipant[participantID]
	if !ok {
		return nil, false
	}
	sess, ok := e.sessions[sid]
	return sess, ok
}

// publish fans a lifecycle event out to the bus without blocking the loop.
func (e *Engine) publish(sess *Session, state SessionState) {
	event := eventbus.SessionEvent{
		SessionID:  sess.ID,
		State:      string(state),
		Player1ID:  sess.Participants[0],
		Player2ID:  sess.Participants[1],
		OccurredAt: e.clock.Now(),
	}
	go func() {
		if err := e.publisher.Publish(e.runCtx, event); err != nil {
			log.Error().Err(err).Str("session_id", event.SessionID).Str("state", event.State).Msg("failed to publish session event")
		}
	}()
}
