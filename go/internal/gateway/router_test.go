package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingEngine records every operation the router dispatches.
type recordingEngine struct {
	calls []engineCall
}

type engineCall struct {
	op            string
	participantID string
	text          string
	flag          bool
}

func (e *recordingEngine) JoinMatchmaking(participantID string) {
	e.calls = append(e.calls, engineCall{op: "join", participantID: participantID})
}

func (e *recordingEngine) CancelMatchmaking(participantID string) {
	e.calls = append(e.calls, engineCall{op: "cancel", participantID: participantID})
}

func (e *recordingEngine) SendMessage(participantID, text string) {
	e.calls = append(e.calls, engineCall{op: "send", participantID: participantID, text: text})
}

func (e *recordingEngine) TypingStatus(participantID string, isTyping bool) {
	e.calls = append(e.calls, engineCall{op: "typing", participantID: participantID, flag: isTyping})
}

func (e *recordingEngine) MakeGuess(participantID string, guessedSurrogate bool) {
	e.calls = append(e.calls, engineCall{op: "guess", participantID: participantID, flag: guessedSurrogate})
}

func (e *recordingEngine) Retire(participantID string) {
	e.calls = append(e.calls, engineCall{op: "retire", participantID: participantID})
}

func (e *recordingEngine) Disconnect(participantID string) {
	e.calls = append(e.calls, engineCall{op: "disconnect", participantID: participantID})
}

func TestRouter_DispatchesInboundEvents(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want engineCall
	}{
		{
			name: "join matchmaking",
			raw:  `{"type":"JoinMatchmaking"}`,
			want: engineCall{op: "join", participantID: "p1"},
		},
		{
			name: "cancel matchmaking",
			raw:  `{"type":"CancelMatchmaking"}`,
			want: engineCall{op: "cancel", participantID: "p1"},
		},
		{
			name: "send message",
			raw:  `{"type":"SendMessage","data":{"text":"is water wet?"}}`,
			want: engineCall{op: "send", participantID: "p1", text: "is water wet?"},
		},
		{
			name: "typing status",
			raw:  `{"type":"TypingStatus","data":{"is_typing":true}}`,
			want: engineCall{op: "typing", participantID: "p1", flag: true},
		},
		{
			name: "make guess",
			raw:  `{"type":"MakeGuess","data":{"is_surrogate":true}}`,
			want: engineCall{op: "guess", participantID: "p1", flag: true},
		},
		{
			name: "retire",
			raw:  `{"type":"Retire"}`,
			want: engineCall{op: "retire", participantID: "p1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := &recordingEngine{}
			router := NewRouter(engine)

			err := router.HandleInbound("p1", []byte(tt.raw))
			require.NoError(t, err)
			require.Len(t, engine.calls, 1)
			assert.Equal(t, tt.want, engine.calls[0])
		})
	}
}

func TestRouter_RejectsUnknownEventType(t *testing.T) {
	engine := &recordingEngine{}
	router := NewRouter(engine)

	err := router.HandleInbound("p1", []byte(`{"type":"LaunchMissiles"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown event type")
	assert.Empty(t, engine.calls)
}

func TestRouter_RejectsMalformedEnvelope(t *testing.T) {
	engine := &recordingEngine{}
	router := NewRouter(engine)

	err := router.HandleInbound("p1", []byte(`{not json`))
	require.Error(t, err)
	assert.Empty(t, engine.calls)
}

func TestRouter_RejectsMalformedPayload(t *testing.T) {
	engine := &recordingEngine{}
	router := NewRouter(engine)

	err := router.HandleInbound("p1", []byte(`{"type":"SendMessage","data":{"text":42}}`))
	require.Error(t, err)
	assert.Empty(t, engine.calls)
}
