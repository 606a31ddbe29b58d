package match

import (
	"github.com/google/uuid"
	"github.com/mcdev12/turingchat/go/internal/match/events"
	"github.com/mcdev12/turingchat/go/internal/models"
	"github.com/mcdev12/turingchat/go/internal/store"
	"github.com/rs/zerolog/log"
)

func (e *Engine) handleJoin(participantID string) {
	if _, ok := e.sessionByParticipant[participantID]; ok {
		// Already matched. Treated as a successful wait rather than an error.
		e.notifier.Notify(participantID, events.EventTypeWaitingForPlayer,
			events.WaitingForPlayerPayload{Message: "Waiting for another player..."})
		return
	}
	if _, ok := e.pending[participantID]; ok {
		// A pairing for this participant is still being persisted; queueing
		// them again would hand them a second session.
		e.notifier.Notify(participantID, events.EventTypeWaitingForPlayer,
			events.WaitingForPlayerPayload{Message: "Waiting for another player..."})
		return
	}
	if e.queue.contains(participantID) {
		e.fail(participantID, ErrAlreadyQueued)
		return
	}

	e.queue.push(waitingEntry{participantID: participantID, isSurrogate: e.coin()})
	log.Info().Str("participant_id", participantID).Int("queue_size", e.queue.len()).Msg("participant queued")

	first, second, ok := e.queue.takePair()
	if !ok {
		e.notifier.Notify(participantID, events.EventTypeWaitingForPlayer,
			events.WaitingForPlayerPayload{Message: "Waiting for another player..."})
		return
	}
	e.createSession(first, second)
}

func (e *Engine) handleCancel(participantID string) {
	if e.queue.remove(participantID) {
		log.Info().Str("participant_id", participantID).Msg("matchmaking cancelled")
	}
}

// createSession persists the conversation record for a fresh pairing. The
// pair sits in pending until the store call resolves; only a successful
// continuation installs the Session.
func (e *Engine) createSession(first, second waitingEntry) {
	sessionID := uuid.New().String()
	pair := &pendingPair{
		sessionID: sessionID,
		first:     first,
		second:    second,
		gone:      make(map[string]bool),
	}
	e.pending[first.participantID] = pair
	e.pending[second.participantID] = pair

	log.Info().
		Str("session_id", sessionID).
		Str("player1_id", first.participantID).
		Str("player2_id", second.participantID).
		Msg("pair matched, creating conversation")

	go func() {
		conv, err := e.store.CreateConversation(e.runCtx, store.CreateConversationParams{
			SessionID:          sessionID,
			Player1ID:          first.participantID,
			Player2ID:          second.participantID,
			Player1IsSurrogate: first.isSurrogate,
			Player2IsSurrogate: second.isSurrogate,
		})
		e.dispatch(func() { e.finishCreateSession(pair, convRef(conv), err) })
	}()
}

func convRef(conv *models.Conversation) string {
	if conv == nil {
		return ""
	}
	return conv.ID.String()
}

func (e *Engine) finishCreateSession(pair *pendingPair, conversationRef string, err error) {
	delete(e.pending, pair.first.participantID)
	delete(e.pending, pair.second.participantID)

	if err != nil || conversationRef == "" {
		log.Error().Err(err).Str("session_id", pair.sessionID).Msg("conversation creation failed, match aborted")
		for _, p := range []string{pair.first.participantID, pair.second.participantID} {
			if !pair.gone[p] {
				e.fail(p, ErrPersistence)
			}
		}
		return
	}

	if len(pair.gone) > 0 {
		// One side vanished while the record was being written. The match
		// never becomes a session; the survivor is left unmatched.
		log.Warn().Str("session_id", pair.sessionID).Msg("participant disconnected during session creation")
		for _, p := range []string{pair.first.participantID, pair.second.participantID} {
			if !pair.gone[p] {
				e.fail(p, ErrInvalidSession)
			}
		}
		return
	}

	for _, p := range []string{pair.first.participantID, pair.second.participantID} {
		if _, ok := e.sessionByParticipant[p]; ok {
			// A live session for either participant means this pairing lost
			// a race; a second session is never installed over it.
			log.Error().Str("session_id", pair.sessionID).Str("participant_id", p).Msg("participant already in a session, match aborted")
			for _, q := range []string{pair.first.participantID, pair.second.participantID} {
				if q != p && !pair.gone[q] {
					e.fail(q, ErrInvalidSession)
				}
			}
			return
		}
	}

	sess := &Session{
		ID:              pair.sessionID,
		ConversationRef: conversationRef,
		Participants:    [2]string{pair.first.participantID, pair.second.participantID},
		IsSurrogate: map[string]bool{
			pair.first.participantID:  pair.first.isSurrogate,
			pair.second.participantID: pair.second.isSurrogate,
		},
		State:        SessionStateActive,
		CreatedAt:    e.clock.Now(),
		guessGranted: make(map[string]bool),
		forfeited:    make(map[string]bool),
	}
	if e.coin() {
		sess.FirstTurn = sess.Participants[0]
	} else {
		sess.FirstTurn = sess.Participants[1]
	}

	e.sessions[sess.ID] = sess
	e.sessionByParticipant[sess.Participants[0]] = sess.ID
	e.sessionByParticipant[sess.Participants[1]] = sess.ID

	e.startSessionTimer(sess)
	e.publish(sess, SessionStateActive)

	for _, p := range sess.Participants {
		e.notifier.Notify(p, events.EventTypeMatchFound, events.MatchFoundPayload{
			SessionID:       sess.ID,
			ConversationRef: sess.ConversationRef,
			IsSurrogate:     sess.IsSurrogate[p],
			HasFirstTurn:    sess.FirstTurn == p,
			TimeLeft:        e.cfg.SessionSeconds,
		})
	}

	log.Info().
		Str("session_id", sess.ID).
		Str("first_turn", sess.FirstTurn).
		Msg("session started")
}

func (e *Engine) startSessionTimer(sess *Session) {
	sessionID := sess.ID
	e.timers.Start(sessionID, CountdownConfig{
		Seconds:   e.cfg.SessionSeconds,
		LowTimeAt: e.cfg.SessionLowTimeAt,
		OnTick: func(remaining int, lowTime bool) {
			payload := events.SessionTimeUpdatePayload{TimeLeft: remaining, IsLowTime: lowTime}
			for _, p := range sess.Participants {
				e.notifier.Notify(p, events.EventTypeSessionTimeUpdate, payload)
			}
		},
		OnExpire: func() { e.expireSessionTimer(sessionID) },
	})
}

// expireSessionTimer runs on the engine loop when the session-wide countdown
// reaches zero.
func (e *Engine) expireSessionTimer(sessionID string) {
	sess, ok := e.sessions[sessionID]
	if !ok || !sess.Active() {
		return
	}

	for _, p := range sess.Participants {
		e.notifier.Notify(p, events.EventTypeSessionTimeUp,
			events.SessionTimeUpPayload{Message: "Time's up! The session has ended."})
	}
	e.terminate(sess, SessionStateTimedOut)
}

func (e *Engine) handleRetire(participantID string) {
	sess, ok := e.sessionFor(participantID)
	if !ok || !sess.Active() {
		e.fail(participantID, ErrInvalidSession)
		return
	}
	other, ok := sess.Other(participantID)
	if !ok {
		e.fail(participantID, ErrInvalidParticipant)
		return
	}

	log.Info().Str("session_id", sess.ID).Str("participant_id", participantID).Msg("participant retired")

	sess.guessGranted[other] = true
	e.terminate(sess, SessionStateRetired)

	e.notifier.Notify(other, events.EventTypeOpponentDisconnected, events.OpponentDisconnectedPayload{
		Message:      "Your opponent has retired from the session.",
		WasSurrogate: sess.IsSurrogate[participantID],
	})
	e.notifier.Notify(other, events.EventTypeYourTurn,
		events.YourTurnPayload{CanSendMessage: false, CanGuess: true})
}

func (e *Engine) handleDisconnect(participantID string) {
	if e.queue.remove(participantID) {
		log.Info().Str("participant_id", participantID).Msg("queued participant disconnected")
		return
	}

	if pair, ok := e.pending[participantID]; ok {
		pair.gone[participantID] = true
		return
	}

	sess, ok := e.sessionFor(participantID)
	if !ok || !sess.Active() {
		// Repeated disconnect signals and departures after teardown are
		// no-ops.
		return
	}
	other, ok := sess.Other(participantID)
	if !ok {
		return
	}

	log.Info().Str("session_id", sess.ID).Str("participant_id", participantID).Msg("participant disconnected mid-session")

	sess.guessGranted[other] = true
	e.terminate(sess, SessionStateDisconnected)

	e.notifier.Notify(other, events.EventTypeOpponentDisconnected, events.OpponentDisconnectedPayload{
		Message:      "Your opponent has disconnected.",
		WasSurrogate: sess.IsSurrogate[participantID],
	})
	e.notifier.Notify(other, events.EventTypeYourTurn,
		events.YourTurnPayload{CanSendMessage: false, CanGuess: true})
}

func (e *Engine) handleMakeGuess(participantID string, guessedSurrogate bool) {
	sess, ok := e.sessionFor(participantID)
	if !ok || !sess.Member(participantID) {
		e.fail(participantID, ErrInvalidSession)
		return
	}
	if !sess.Active() && !sess.guessGranted[participantID] {
		e.fail(participantID, ErrInvalidSession)
		return
	}

	// The timer stops before persistence and is deliberately never
	// restarted: a failed guess forfeits the remaining session time.
	e.timers.Cancel(sess.ID)

	sessionID := sess.ID
	go func() {
		rec, err := e.store.SubmitGuess(e.runCtx, store.SubmitGuessParams{
			SessionID:        sessionID,
			GuesserID:        participantID,
			GuessedSurrogate: guessedSurrogate,
		})
		e.dispatch(func() { e.finishGuess(sessionID, participantID, guessedSurrogate, rec, err) })
	}()
}

func (e *Engine) finishGuess(sessionID, guesserID string, guessedSurrogate bool, rec *models.GuessRecord, err error) {
	sess, ok := e.sessions[sessionID]
	if !ok {
		// Session torn down while the guess was in flight.
		e.fail(guesserID, ErrInvalidSession)
		return
	}
	if !sess.Active() && !sess.guessGranted[guesserID] {
		e.fail(guesserID, ErrInvalidSession)
		return
	}

	if err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("guess persistence failed")
		e.fail(guesserID, ErrPersistence)
		return
	}

	// Role is resolved against the persisted player-1 identity, not local
	// session state, so scoring cannot diverge from the record.
	var actual bool
	if rec.Player1ID == guesserID {
		actual = rec.Player2IsSurrogate
	} else {
		actual = rec.Player1IsSurrogate
	}
	correct := guessedSurrogate == actual

	actualType := "human"
	if actual {
		actualType = "surrogate"
	}

	e.notifier.Notify(guesserID, events.EventTypeGuessResult, events.GuessResultPayload{
		IsCorrect:     correct,
		OpponentGuess: guessedSurrogate,
		ActualType:    actualType,
	})
	if other, ok := sess.Other(guesserID); ok {
		e.notifier.Notify(other, events.EventTypeSessionOver,
			events.SessionOverPayload{Message: "Your opponent has made their guess. The session is over."})
	}

	log.Info().
		Str("session_id", sessionID).
		Str("guesser_id", guesserID).
		Bool("correct", correct).
		Msg("guess resolved")

	if sess.Active() {
		e.terminate(sess, SessionStateGuessed)
	} else {
		// Guess after a retire/disconnect grant: teardown is already
		// scheduled, only the grant is consumed.
		delete(sess.guessGranted, guesserID)
		e.publish(sess, SessionStateGuessed)
	}
}

// terminate performs the single terminal transition for a session: it flips
// the state, stops every timer the session or its participants own, and
// schedules removal of the registry entry after the grace delay.
func (e *Engine) terminate(sess *Session, state SessionState) {
	if !sess.Active() {
		return
	}
	sess.State = state

	e.timers.Cancel(sess.ID)
	e.timers.Cancel(sess.Participants[0])
	e.timers.Cancel(sess.Participants[1])

	e.publish(sess, state)
	e.scheduleRemoval(sess.ID)

	log.Info().Str("session_id", sess.ID).Str("state", string(state)).Msg("session ended")
}

// scheduleRemoval drops the registry entry after the grace window. The delay
// lets in-flight handlers and notifications that still reference the session
// resolve before the entry disappears.
func (e *Engine) scheduleRemoval(sessionID string) {
	e.clock.AfterFunc(e.cfg.CleanupGrace, func() {
		e.dispatch(func() { e.removeSession(sessionID) })
	})
}

func (e *Engine) removeSession(sessionID string) {
	sess, ok := e.sessions[sessionID]
	if !ok {
		return
	}
	delete(e.sessions, sessionID)
	for _, p := range sess.Participants {
		if e.sessionByParticipant[p] == sessionID {
			delete(e.sessionByParticipant, p)
		}
	}
	log.Debug().Str("session_id", sessionID).Msg("session removed from registry")
}
