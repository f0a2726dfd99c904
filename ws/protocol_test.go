package ws

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nevojt/company-chat/pkg"
)

func TestDecodeInbound(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		kind  FrameKind
		check func(t *testing.T, in *Inbound)
	}{
		{"typing", `{"type":"typing"}`, FrameTyping, nil},
		{"typing any value", `{"type":null}`, FrameTyping, nil},
		{"limit", `{"limit":50}`, FrameLimit, func(t *testing.T, in *Inbound) {
			assert.Equal(t, 50, in.Limit)
		}},
		{"vote", `{"vote":{"message_id":7,"dir":1}}`, FrameVote, func(t *testing.T, in *Inbound) {
			assert.Equal(t, int64(7), in.Vote.MessageID)
			assert.Equal(t, 1, in.Vote.Dir)
		}},
		{"update", `{"update":{"id":7,"message":"fixed"}}`, FrameUpdate, func(t *testing.T, in *Inbound) {
			assert.Equal(t, int64(7), in.Update.ID)
			assert.Equal(t, "fixed", *in.Update.Message)
		}},
		{"delete", `{"delete":{"id":7}}`, FrameDelete, func(t *testing.T, in *Inbound) {
			assert.Equal(t, int64(7), in.Delete.ID)
		}},
		{"send text with reply", `{"send":{"message":"hi","original_message_id":3}}`, FrameSend, func(t *testing.T, in *Inbound) {
			assert.Equal(t, "hi", *in.Send.Message)
			assert.Equal(t, int64(3), *in.Send.ReplyTo)
		}},
		{"send media only", `{"send":{"fileUrl":"https://cdn/x.png"}}`, FrameSend, func(t *testing.T, in *Inbound) {
			assert.Nil(t, in.Send.Message)
			assert.Equal(t, "https://cdn/x.png", *in.Send.FileURL)
		}},
		{"extra fields ignored", `{"send":{"message":"hi","client_ts":1}}`, FrameSend, nil},
		{"typing wins over send", `{"type":"x","send":{"message":"hi"}}`, FrameTyping, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, err := DecodeInbound([]byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.kind, in.Kind)
			if tt.check != nil {
				tt.check(t, in)
			}
		})
	}
}

func TestDecodeInbound_Rejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", `hello`},
		{"array", `[1,2]`},
		{"json null", `null`},
		{"unknown key", `{"dance":true}`},
		{"empty object", `{}`},
		{"zero limit", `{"limit":0}`},
		{"string limit", `{"limit":"ten"}`},
		{"vote without id", `{"vote":{"dir":1}}`},
		{"vote null", `{"vote":null}`},
		{"update empty message", `{"update":{"id":1,"message":"  "}}`},
		{"update missing id", `{"update":{"message":"x"}}`},
		{"delete bad id", `{"delete":{"id":-1}}`},
		{"send empty", `{"send":{}}`},
		{"send blank text", `{"send":{"message":"   "}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeInbound([]byte(tt.raw))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidFrame)
			assert.ErrorIs(t, err, pkg.ErrPolicyBlocked)
		})
	}
}
