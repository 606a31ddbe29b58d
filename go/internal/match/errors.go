package match

import "errors"

var (
	// ErrAlreadyQueued is returned when a participant joins matchmaking while
	// already holding a queue entry.
	ErrAlreadyQueued = errors.New("already waiting for a match")

	// ErrInvalidSession covers a missing session, a session that is no longer
	// active, and the stale-session race where a session was torn down while
	// a persistence call was in flight.
	ErrInvalidSession = errors.New("session not found or no longer active")

	// ErrInvalidParticipant is returned when a participant is not a member of
	// the session they are acting on.
	ErrInvalidParticipant = errors.New("participant is not a member of this session")

	// ErrTurnForfeited is returned when a participant whose turn timer
	// expired tries to send another message.
	ErrTurnForfeited = errors.New("turn forfeited; messaging has ended for this session")

	// ErrPersistence wraps a failed persistence collaborator call.
	ErrPersistence = errors.New("persistence call failed")
)
