package match

import (
	"github.com/mcdev12/turingchat/go/internal/match/events"
	"github.com/mcdev12/turingchat/go/internal/store"
	"github.com/rs/zerolog/log"
)

func (e *Engine) handleSendMessage(participantID, text string) {
	sess, ok := e.sessionFor(participantID)
	if !ok || !sess.Active() {
		e.fail(participantID, ErrInvalidSession)
		return
	}
	other, ok := sess.Other(participantID)
	if !ok || other == "" {
		e.fail(participantID, ErrInvalidParticipant)
		return
	}
	if sess.forfeited[participantID] {
		e.fail(participantID, ErrTurnForfeited)
		return
	}

	sessionID := sess.ID
	isFromP1 := sess.Participants[0] == participantID

	go func() {
		_, err := e.store.CreateMessage(e.runCtx, store.CreateMessageParams{
			SessionID: sessionID,
			SenderID:  participantID,
			IsFromP1:  isFromP1,
			Text:      text,
		})
		e.dispatch(func() { e.finishRelay(sessionID, participantID, text, err) })
	}()
}

// finishRelay runs after message persistence resolves. Nothing is delivered
// and the transcript is untouched unless the store call succeeded and the
// session survived the wait.
func (e *Engine) finishRelay(sessionID, senderID, text string, err error) {
	sess, ok := e.sessions[sessionID]
	if !ok || !sess.Active() {
		e.fail(senderID, ErrInvalidSession)
		return
	}
	other, ok := sess.Other(senderID)
	if !ok {
		e.fail(senderID, ErrInvalidParticipant)
		return
	}
	if sess.forfeited[senderID] {
		// The sender's turn expired while the message was in flight.
		e.fail(senderID, ErrTurnForfeited)
		return
	}

	if err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("message persistence failed")
		e.fail(senderID, ErrPersistence)
		return
	}

	now := e.clock.Now()
	sess.Transcript = append(sess.Transcript, TranscriptEntry{Text: text, Timestamp: now})

	e.notifier.Notify(senderID, events.EventTypeMessageReceived,
		events.MessageReceivedPayload{Text: text, Timestamp: now, IsSelf: true})
	e.notifier.Notify(other, events.EventTypeMessageReceived,
		events.MessageReceivedPayload{Text: text, Timestamp: now, IsSelf: false})
	e.notifier.Notify(other, events.EventTypeYourTurn,
		events.YourTurnPayload{CanSendMessage: true, TimeLeft: e.cfg.TurnSeconds})

	// The sender's clock stops the moment their message lands; the turn
	// passes to the opponent.
	e.timers.Cancel(senderID)
	e.startTurnTimer(sess, other)
}

func (e *Engine) startTurnTimer(sess *Session, participantID string) {
	e.timers.Start(participantID, CountdownConfig{
		Seconds:   e.cfg.TurnSeconds,
		LowTimeAt: e.cfg.TurnLowTimeAt,
		OnTick: func(remaining int, lowTime bool) {
			e.notifier.Notify(participantID, events.EventTypeTurnTimeUpdate,
				events.TurnTimeUpdatePayload{TimeLeft: remaining, IsLowTime: lowTime})
		},
		OnExpire: func() { e.expireTurnTimer(participantID) },
	})
}

// expireTurnTimer runs on the engine loop when a participant's turn
// countdown reaches zero. The forfeit ends the forfeiter's messaging but
// not the session: the opponent keeps an unconstrained turn until a new
// message starts a fresh timer, and the guess phase stays open for both.
func (e *Engine) expireTurnTimer(participantID string) {
	sess, ok := e.sessionFor(participantID)
	if !ok || !sess.Active() {
		return
	}
	other, ok := sess.Other(participantID)
	if !ok {
		return
	}

	log.Info().Str("session_id", sess.ID).Str("participant_id", participantID).Msg("turn timer expired, forfeiting")

	sess.forfeited[participantID] = true
	e.notifier.Notify(participantID, events.EventTypeTurnTimeUp, events.TurnTimeUpPayload{})

	e.timers.Cancel(sess.ID)
	e.notifier.Notify(participantID, events.EventTypeForfeitResult,
		events.ForfeitResultPayload{Message: "You ran out of time and forfeited your turn."})
	e.notifier.Notify(other, events.EventTypeOpponentForfeit, events.OpponentForfeitPayload{})
}

func (e *Engine) handleTypingStatus(participantID string, isTyping bool) {
	sess, ok := e.sessionFor(participantID)
	if !ok || !sess.Active() {
		// Typing indicators are best-effort; a stale one is dropped.
		return
	}
	other, ok := sess.Other(participantID)
	if !ok {
		return
	}
	e.notifier.Notify(other, events.EventTypeOpponentTyping,
		events.OpponentTypingPayload{IsTyping: isTyping})
}
