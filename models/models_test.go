package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRoom_DaysUntilDeletion(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	grace := 30 * 24 * time.Hour

	tests := []struct {
		name     string
		deleteAt *time.Time
		wantDays int
		wantOK   bool
	}{
		{"not scheduled", nil, 0, false},
		{"scheduled now", ptr(now), 30, true},
		{"scheduled ten days ago", ptr(now.Add(-10 * 24 * time.Hour)), 20, true},
		{"partial day rounds down", ptr(now.Add(-29*24*time.Hour - time.Hour)), 0, true},
		{"grace elapsed", ptr(now.Add(-31 * 24 * time.Hour)), -1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			room := Room{DeleteAt: tt.deleteAt}
			days, ok := room.DaysUntilDeletion(now, grace)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantDays, days)
		})
	}
}

func TestBan_RemainingMinutes(t *testing.T) {
	now := time.Now()

	ban := Ban{StartTime: now.Add(-time.Hour), EndTime: now.Add(90 * time.Second)}
	assert.True(t, ban.Active(now))
	assert.Equal(t, 2, ban.RemainingMinutes(now))

	expired := Ban{StartTime: now.Add(-time.Hour), EndTime: now.Add(-time.Second)}
	assert.False(t, expired.Active(now))
	assert.Zero(t, expired.RemainingMinutes(now))
}

func TestNewEnvelope_UnknownSender(t *testing.T) {
	msg := &Message{ID: 7, RoomID: 1, Votes: 3}
	body := "hi"

	env := NewEnvelope(msg, &body)

	assert.Equal(t, UnknownUserName, env.UserName)
	assert.Equal(t, UnknownUserAvatar, env.Avatar)
	assert.False(t, env.Verified)
	assert.Equal(t, int64(3), env.Vote)
	assert.Equal(t, "hi", *env.Message)
}

func ptr[T any](v T) *T { return &v }
