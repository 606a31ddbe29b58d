package gateway

import (
	"encoding/json"
	"fmt"

	"github.com/mcdev12/turingchat/go/internal/match/events"
)

// Router maps inbound named events to engine operations. Engine operations
// surface their own errors as Error events; the router only rejects frames
// it cannot decode.
type Router struct {
	engine Engine
}

// NewRouter creates a router dispatching to the given engine.
func NewRouter(engine Engine) *Router {
	return &Router{engine: engine}
}

// HandleInbound decodes one wire frame and invokes the matching operation.
func (r *Router) HandleInbound(participantID string, raw []byte) error {
	var envelope Envelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("malformed event envelope: %w", err)
	}

	switch envelope.Type {
	case events.EventTypeJoinMatchmaking:
		r.engine.JoinMatchmaking(participantID)
		return nil

	case events.EventTypeCancelMatchmaking:
		r.engine.CancelMatchmaking(participantID)
		return nil

	case events.EventTypeSendMessage:
		var payload events.SendMessagePayload
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			return fmt.Errorf("malformed SendMessage payload: %w", err)
		}
		r.engine.SendMessage(participantID, payload.Text)
		return nil

	case events.EventTypeTypingStatus:
		var payload events.TypingStatusPayload
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			return fmt.Errorf("malformed TypingStatus payload: %w", err)
		}
		r.engine.TypingStatus(participantID, payload.IsTyping)
		return nil

	case events.EventTypeMakeGuess:
		var payload events.MakeGuessPayload
		if err := json.Unmarshal(envelope.Data, &payload); err != nil {
			return fmt.Errorf("malformed MakeGuess payload: %w", err)
		}
		r.engine.MakeGuess(participantID, payload.IsSurrogate)
		return nil

	case events.EventTypeRetire:
		r.engine.Retire(participantID)
		return nil

	default:
		return fmt.Errorf("unknown event type: %s", envelope.Type)
	}
}
