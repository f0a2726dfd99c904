package events

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubject(t *testing.T) {
	assert.Equal(t, "chat.message.sent", Subject(MessageSent))
	assert.Equal(t, "chat.user.left", Subject(UserLeft))
}

func TestNew_FallsBackToNoop(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"empty", ""},
		{"unsupported scheme", "redis://localhost:6379"},
		{"unparsable", "://bad"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(tt.url, "chat.events")
			assert.Equal(t, "noop", Mode(p))
			assert.NoError(t, p.Publish(context.Background(), MessageSent, map[string]int{"id": 1}))
			assert.NoError(t, p.Close())
		})
	}
}

func TestEnvelopeJSON(t *testing.T) {
	env := newEnvelope(MessageVoted, map[string]int64{"message_id": 7})

	data, err := json.Marshal(env)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "message.voted", decoded["event"])
	assert.NotEmpty(t, decoded["id"])
	assert.Equal(t, float64(7), decoded["data"].(map[string]any)["message_id"])
}
