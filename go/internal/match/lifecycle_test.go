package match

import (
	"testing"
	"time"

	"github.com/mcdev12/turingchat/go/internal/match/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shortSessionConfig() Config {
	cfg := DefaultConfig()
	cfg.SessionSeconds = 6
	cfg.SessionLowTimeAt = 3
	return cfg
}

func TestMakeGuess_CorrectAgainstPlayer2Flag(t *testing.T) {
	// Scenario D: alice (player 1) guesses "surrogate" and bob's stored
	// flag is true.
	f := newFixture(t, DefaultConfig(), false, true, true)
	f.matchPair("alice", "bob")

	f.eng.MakeGuess("alice", true)

	result := f.waitFor("alice", events.EventTypeGuessResult)
	payload := result.Payload.(events.GuessResultPayload)
	assert.True(t, payload.IsCorrect)
	assert.True(t, payload.OpponentGuess)
	assert.Equal(t, "surrogate", payload.ActualType)

	f.waitFor("bob", events.EventTypeSessionOver)

	guesses := f.store.Guesses()
	require.Len(t, guesses, 1)
	assert.Equal(t, "alice", guesses[0].GuesserID)
	assert.True(t, guesses[0].GuessedSurrogate)
}

func TestMakeGuess_Player2ScoredAgainstPlayer1Flag(t *testing.T) {
	// alice (player 1) is a surrogate; bob guesses "human" and is wrong.
	f := newFixture(t, DefaultConfig(), true, false, true)
	f.matchPair("alice", "bob")

	f.eng.MakeGuess("bob", false)

	result := f.waitFor("bob", events.EventTypeGuessResult)
	payload := result.Payload.(events.GuessResultPayload)
	assert.False(t, payload.IsCorrect)
	assert.False(t, payload.OpponentGuess)
	assert.Equal(t, "surrogate", payload.ActualType)

	f.waitFor("alice", events.EventTypeSessionOver)
}

func TestMakeGuess_StopsSessionCountdown(t *testing.T) {
	f := newFixture(t, shortSessionConfig())
	f.matchPair("alice", "bob")

	f.eng.MakeGuess("alice", true)
	f.waitFor("alice", events.EventTypeGuessResult)

	f.tickSeconds(10)
	assert.False(t, f.notifier.has("alice", events.EventTypeSessionTimeUp))
	assert.False(t, f.notifier.has("alice", events.EventTypeSessionTimeUpdate))
}

func TestMakeGuess_PersistenceFailureKeepsSessionActive(t *testing.T) {
	f := newFixture(t, shortSessionConfig())
	f.matchPair("alice", "bob")
	f.store.FailSubmitGuess = assert.AnError

	f.eng.MakeGuess("alice", true)
	f.waitFor("alice", events.EventTypeError)
	assert.False(t, f.notifier.has("alice", events.EventTypeGuessResult))

	// The session stays active, but the cancelled countdown is not
	// restarted: a failed guess forfeits the remaining session time.
	f.tickSeconds(10)
	assert.False(t, f.notifier.has("alice", events.EventTypeSessionTimeUp))

	f.store.FailSubmitGuess = nil
	f.eng.MakeGuess("alice", false)
	f.waitFor("alice", events.EventTypeGuessResult)
}

func TestRetire_GrantsOpponentFinalGuess(t *testing.T) {
	f := newFixture(t, DefaultConfig(), true, false, true)
	f.matchPair("alice", "bob")

	f.eng.Retire("alice")

	event := f.waitFor("bob", events.EventTypeOpponentDisconnected)
	payload := event.Payload.(events.OpponentDisconnectedPayload)
	assert.True(t, payload.WasSurrogate)

	turn := f.waitFor("bob", events.EventTypeYourTurn)
	turnPayload := turn.Payload.(events.YourTurnPayload)
	assert.False(t, turnPayload.CanSendMessage)
	assert.True(t, turnPayload.CanGuess)

	// Messaging is over, the guess is not.
	f.eng.SendMessage("bob", "wait")
	f.waitFor("bob", events.EventTypeError)

	f.eng.MakeGuess("bob", true)
	result := f.waitFor("bob", events.EventTypeGuessResult)
	assert.True(t, result.Payload.(events.GuessResultPayload).IsCorrect)
}

func TestRetire_TwiceRejected(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	f.matchPair("alice", "bob")

	f.eng.Retire("alice")
	f.waitFor("bob", events.EventTypeOpponentDisconnected)

	f.eng.Retire("alice")
	event := f.waitFor("alice", events.EventTypeError)
	assert.Equal(t, ErrInvalidSession.Error(), event.Payload.(events.ErrorPayload).Message)
}

func TestDisconnect_MidSession(t *testing.T) {
	// Scenario E: alice drops; bob learns alice's type and may only guess.
	f := newFixture(t, DefaultConfig(), true, false, true)
	f.matchPair("alice", "bob")

	f.eng.Disconnect("alice")

	event := f.waitFor("bob", events.EventTypeOpponentDisconnected)
	payload := event.Payload.(events.OpponentDisconnectedPayload)
	assert.True(t, payload.WasSurrogate)

	turn := f.waitFor("bob", events.EventTypeYourTurn)
	turnPayload := turn.Payload.(events.YourTurnPayload)
	assert.False(t, turnPayload.CanSendMessage)
	assert.True(t, turnPayload.CanGuess)

	f.eng.SendMessage("bob", "hello?")
	f.waitFor("bob", events.EventTypeError)
}

func TestDisconnect_RepeatedSignalsIdempotent(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	f.matchPair("alice", "bob")

	f.eng.Disconnect("alice")
	f.waitFor("bob", events.EventTypeOpponentDisconnected)

	f.eng.Disconnect("alice")
	f.eng.Disconnect("alice")
	f.eng.flush()

	assert.Equal(t, 1, f.notifier.count("bob", events.EventTypeOpponentDisconnected))
}

func TestDisconnect_WhileQueuedRemovesEntry(t *testing.T) {
	f := newFixture(t, DefaultConfig())

	f.eng.JoinMatchmaking("alice")
	f.waitFor("alice", events.EventTypeWaitingForPlayer)
	f.eng.Disconnect("alice")
	f.eng.JoinMatchmaking("bob")
	f.waitFor("bob", events.EventTypeWaitingForPlayer)
	f.eng.flush()

	assert.False(t, f.notifier.has("bob", events.EventTypeMatchFound))
}

func TestSessionTimer_ExpiryEndsSession(t *testing.T) {
	f := newFixture(t, shortSessionConfig())
	f.matchPair("alice", "bob")

	f.tickSeconds(3)
	event, ok := f.notifier.last("alice", events.EventTypeSessionTimeUpdate)
	require.True(t, ok)
	payload := event.Payload.(events.SessionTimeUpdatePayload)
	assert.Equal(t, 3, payload.TimeLeft)
	assert.True(t, payload.IsLowTime)

	f.tickSeconds(3)
	f.waitFor("alice", events.EventTypeSessionTimeUp)
	f.waitFor("bob", events.EventTypeSessionTimeUp)

	f.eng.SendMessage("alice", "too late")
	f.waitFor("alice", events.EventTypeError)
}

func TestSessionRemoval_OnceAfterGraceDelay(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	f.matchPair("alice", "bob")

	f.eng.Retire("alice")
	f.waitFor("bob", events.EventTypeOpponentDisconnected)

	// Extra terminal-ish signals during the grace window change nothing.
	f.eng.Disconnect("alice")
	f.eng.Disconnect("bob")
	f.eng.flush()

	f.tickSeconds(5)

	// After removal the participants are unmatched and may queue again.
	f.eng.JoinMatchmaking("bob")
	f.waitFor("bob", events.EventTypeWaitingForPlayer)
	f.eng.JoinMatchmaking("carol")
	f.waitFor("carol", events.EventTypeMatchFound)
	f.waitFor("bob", events.EventTypeMatchFound)
}

func TestSessionRemoval_EndsGuessWindow(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	f.matchPair("alice", "bob")

	f.eng.Retire("alice")
	f.waitFor("bob", events.EventTypeOpponentDisconnected)
	f.tickSeconds(5)

	f.eng.MakeGuess("bob", true)
	event := f.waitFor("bob", events.EventTypeError)
	assert.Equal(t, ErrInvalidSession.Error(), event.Payload.(events.ErrorPayload).Message)
}

func TestStaleSession_MessageDuringTeardownAborts(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	f.matchPair("alice", "bob")
	f.store.Delay = 50 * time.Millisecond

	// alice's message is in flight when bob retires; the continuation must
	// find the dead session and abort without delivering.
	f.eng.SendMessage("alice", "hi")
	f.eng.Retire("bob")
	f.waitFor("alice", events.EventTypeOpponentDisconnected)

	event := f.waitFor("alice", events.EventTypeError)
	assert.Equal(t, ErrInvalidSession.Error(), event.Payload.(events.ErrorPayload).Message)
	assert.False(t, f.notifier.has("bob", events.EventTypeMessageReceived))
}

func TestStaleSession_GuessAfterGuesserDisconnected(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	f.matchPair("alice", "bob")
	f.store.Delay = 50 * time.Millisecond

	f.eng.MakeGuess("alice", true)
	f.eng.Disconnect("alice")
	f.waitFor("bob", events.EventTypeOpponentDisconnected)

	require.Eventually(t, func() bool {
		return f.notifier.has("alice", events.EventTypeError)
	}, time.Second, time.Millisecond)
	assert.False(t, f.notifier.has("alice", events.EventTypeGuessResult))
}

func TestJoinMatchmaking_WhilePairingInFlightIsNoOp(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	f.store.Delay = 50 * time.Millisecond

	f.eng.JoinMatchmaking("alice")
	f.eng.JoinMatchmaking("bob")

	// alice's pairing is still awaiting the conversation record; a re-join
	// must not queue her alongside carol.
	f.eng.JoinMatchmaking("alice")
	f.eng.JoinMatchmaking("carol")
	f.eng.flush()

	f.waitFor("alice", events.EventTypeMatchFound)
	f.waitFor("bob", events.EventTypeMatchFound)
	f.waitFor("carol", events.EventTypeWaitingForPlayer)

	assert.Equal(t, 1, f.notifier.count("alice", events.EventTypeMatchFound))
	assert.False(t, f.notifier.has("carol", events.EventTypeMatchFound))
	assert.False(t, f.notifier.has("alice", events.EventTypeError))
}

func TestDisconnect_DuringSessionCreation(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	f.store.Delay = 50 * time.Millisecond

	f.eng.JoinMatchmaking("alice")
	f.eng.JoinMatchmaking("bob")
	f.eng.Disconnect("alice")

	// The match never becomes a session; the survivor is left unmatched.
	event := f.waitFor("bob", events.EventTypeError)
	assert.Equal(t, ErrInvalidSession.Error(), event.Payload.(events.ErrorPayload).Message)
	assert.False(t, f.notifier.has("bob", events.EventTypeMatchFound))
}
