package match

import "time"

// SessionState is the lifecycle state of one two-party session.
type SessionState string

const (
	SessionStateActive       SessionState = "ACTIVE"
	SessionStateGuessed      SessionState = "GUESSED"
	SessionStateRetired      SessionState = "RETIRED"
	SessionStateDisconnected SessionState = "DISCONNECTED"
	SessionStateTimedOut     SessionState = "TIMED_OUT"
)

// TranscriptEntry is one relayed line of conversation.
type TranscriptEntry struct {
	Text      string
	Timestamp time.Time
}

// Session is one matched two-party interaction. Participant order is
// significant: Participants[0] is player 1 for guess scoring. State moves
// from ACTIVE to exactly one terminal state; the registry entry survives a
// short grace window after that so in-flight handlers can still resolve it.
type Session struct {
	ID              string
	ConversationRef string
	Participants    [2]string
	IsSurrogate     map[string]bool
	Transcript      []TranscriptEntry
	FirstTurn       string
	State           SessionState
	CreatedAt       time.Time

	// guessGranted marks participants who may still guess after their
	// opponent retired or disconnected, even though the session is no
	// longer active.
	guessGranted map[string]bool

	// forfeited marks participants whose turn timer expired. Forfeit ends
	// their messaging for the rest of the session; their guess survives.
	forfeited map[string]bool
}

// Active reports whether the session has not yet reached a terminal state.
func (s *Session) Active() bool {
	return s.State == SessionStateActive
}

// Member reports whether the given participant belongs to this session.
func (s *Session) Member(participantID string) bool {
	return s.Participants[0] == participantID || s.Participants[1] == participantID
}

// Other returns the opposite participant. The second return is false when
// the given id is not a member.
func (s *Session) Other(participantID string) (string, bool) {
	switch participantID {
	case s.Participants[0]:
		return s.Participants[1], true
	case s.Participants[1]:
		return s.Participants[0], true
	default:
		return "", false
	}
}
