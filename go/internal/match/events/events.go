package events

import "time"

// EventType names one event on the client protocol, inbound or outbound.
type EventType string

// Inbound events (client → server).
const (
	EventTypeJoinMatchmaking   EventType = "JoinMatchmaking"
	EventTypeCancelMatchmaking EventType = "CancelMatchmaking"
	EventTypeSendMessage       EventType = "SendMessage"
	EventTypeTypingStatus      EventType = "TypingStatus"
	EventTypeMakeGuess         EventType = "MakeGuess"
	EventTypeRetire            EventType = "Retire"
)

// Outbound events (server → client).
const (
	EventTypeMatchFound           EventType = "MatchFound"
	EventTypeWaitingForPlayer     EventType = "WaitingForPlayer"
	EventTypeMessageReceived      EventType = "MessageReceived"
	EventTypeYourTurn             EventType = "YourTurn"
	EventTypeOpponentTyping       EventType = "OpponentTyping"
	EventTypeGuessResult          EventType = "GuessResult"
	EventTypeSessionOver          EventType = "SessionOver"
	EventTypeOpponentDisconnected EventType = "OpponentDisconnected"
	EventTypeSessionTimeUpdate    EventType = "SessionTimeUpdate"
	EventTypeSessionTimeUp        EventType = "SessionTimeUp"
	EventTypeTurnTimeUpdate       EventType = "TurnTimeUpdate"
	EventTypeTurnTimeUp           EventType = "TurnTimeUp"
	EventTypeForfeitResult        EventType = "ForfeitResult"
	EventTypeOpponentForfeit      EventType = "OpponentForfeit"
	EventTypeError                EventType = "Error"
)

// SendMessagePayload carries one chat line from the sender.
type SendMessagePayload struct {
	Text string `json:"text"`
}

// TypingStatusPayload signals whether the sender is currently typing.
type TypingStatusPayload struct {
	IsTyping bool `json:"is_typing"`
}

// MakeGuessPayload is the end-of-session guess about the opponent's type.
type MakeGuessPayload struct {
	IsSurrogate bool `json:"is_surrogate"`
}

// MatchFoundPayload tells a participant their session has started.
type MatchFoundPayload struct {
	SessionID       string `json:"session_id"`
	ConversationRef string `json:"conversation_ref"`
	IsSurrogate     bool   `json:"is_surrogate"`
	HasFirstTurn    bool   `json:"has_first_turn"`
	TimeLeft        int    `json:"time_left"`
}

// WaitingForPlayerPayload is sent while a participant sits in the queue.
type WaitingForPlayerPayload struct {
	Message string `json:"message"`
}

// MessageReceivedPayload delivers a chat line; IsSelf marks the sender's echo.
type MessageReceivedPayload struct {
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	IsSelf    bool      `json:"is_self"`
}

// YourTurnPayload grants the recipient the next action. After an opponent
// retire or disconnect CanSendMessage is false and CanGuess is true: the
// session is over for messaging but a guess is still allowed.
type YourTurnPayload struct {
	CanSendMessage bool `json:"can_send_message"`
	CanGuess       bool `json:"can_guess,omitempty"`
	TimeLeft       int  `json:"time_left,omitempty"`
}

// OpponentTypingPayload mirrors the opponent's typing indicator.
type OpponentTypingPayload struct {
	IsTyping bool `json:"is_typing"`
}

// GuessResultPayload resolves the guesser's call against the opponent's
// actual type.
type GuessResultPayload struct {
	IsCorrect     bool   `json:"is_correct"`
	OpponentGuess bool   `json:"opponent_guess"`
	ActualType    string `json:"actual_type"`
}

// SessionOverPayload tells the non-guessing participant the session ended.
type SessionOverPayload struct {
	Message string `json:"message"`
}

// OpponentDisconnectedPayload reveals the leaver's type so the remaining
// participant can still score their guess.
type OpponentDisconnectedPayload struct {
	Message      string `json:"message"`
	WasSurrogate bool   `json:"was_surrogate"`
}

// SessionTimeUpdatePayload is the per-second session countdown tick.
type SessionTimeUpdatePayload struct {
	TimeLeft  int  `json:"time_left"`
	IsLowTime bool `json:"is_low_time"`
}

// SessionTimeUpPayload announces session-wide timer expiry.
type SessionTimeUpPayload struct {
	Message string `json:"message"`
}

// TurnTimeUpdatePayload is the per-second turn countdown tick.
type TurnTimeUpdatePayload struct {
	TimeLeft  int  `json:"time_left"`
	IsLowTime bool `json:"is_low_time"`
}

// TurnTimeUpPayload announces turn timer expiry to the timed-out participant.
type TurnTimeUpPayload struct{}

// ForfeitResultPayload tells the timed-out participant they forfeited.
type ForfeitResultPayload struct {
	Message string `json:"message"`
}

// OpponentForfeitPayload tells the other side their opponent forfeited.
type OpponentForfeitPayload struct{}

// ErrorPayload is the only error surface on the client protocol.
type ErrorPayload struct {
	Message string `json:"message"`
}
