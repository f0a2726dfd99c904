package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nevojt/company-chat/models"
	"github.com/Nevojt/company-chat/pkg"
	"github.com/Nevojt/company-chat/pkg/assistant"
	"github.com/Nevojt/company-chat/ws"
)

type denyAll struct{}

func (denyAll) Allow(int64) bool { return false }

func newTestMessages(t *testing.T, gen *stubGenerator) (*fixture, *recordingHub, *messageService) {
	t.Helper()
	f := newFixture(t)
	hub := newRecordingHub()
	svc := f.messageService(hub, gen).(*messageService)
	t.Cleanup(svc.Wait)
	return f, hub, svc
}

func TestMessageService_Send(t *testing.T) {
	f, hub, svc := newTestMessages(t, nil)
	ctx := context.Background()

	env, err := svc.Send(ctx, SendInput{SenderID: f.alice.ID, RoomID: f.lobby.ID, Text: ptr("  hi   there "), Lang: "en"})
	require.NoError(t, err)

	require.NotNil(t, env.Message)
	assert.Equal(t, "hi there", *env.Message)
	assert.Equal(t, "alice", env.UserName)
	assert.True(t, env.Verified)
	assert.Empty(t, hub.directFrames(f.alice.ID), "whitespace normalization is not censorship")

	frames := hub.roomFrames()
	require.Len(t, frames, 1)
	assert.Equal(t, ws.NewMessageFrame(*env), frames[0])
}

func TestMessageService_Send_MediaOnly(t *testing.T) {
	f, _, svc := newTestMessages(t, nil)

	env, err := svc.Send(context.Background(), SendInput{
		SenderID: f.alice.ID,
		RoomID:   f.lobby.ID,
		FileURL:  ptr("https://cdn.example.com/cat.png"),
	})
	require.NoError(t, err)
	assert.Nil(t, env.Message)
	require.NotNil(t, env.FileURL)
	assert.Equal(t, "https://cdn.example.com/cat.png", *env.FileURL)
}

func TestMessageService_Send_Rejects(t *testing.T) {
	f, hub, svc := newTestMessages(t, nil)
	ctx := context.Background()

	_, err := svc.Send(ctx, SendInput{SenderID: f.alice.ID, RoomID: f.lobby.ID, Text: ptr("   ")})
	assert.ErrorIs(t, err, pkg.ErrBadRequest)

	svc.limiter = denyAll{}
	_, err = svc.Send(ctx, SendInput{SenderID: f.alice.ID, RoomID: f.lobby.ID, Text: ptr("spam")})
	assert.ErrorIs(t, err, pkg.ErrRateLimited)

	count, err := f.store.CountMessages(ctx, f.lobby.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Empty(t, hub.roomFrames())
}

func TestMessageService_Send_CensorWarnsSender(t *testing.T) {
	f, hub, svc := newTestMessages(t, nil)

	env, err := svc.Send(context.Background(), SendInput{SenderID: f.alice.ID, RoomID: f.lobby.ID, Text: ptr("Damn!"), Lang: "uk"})
	require.NoError(t, err)
	assert.Equal(t, "*****", *env.Message)

	direct := hub.directFrames(f.alice.ID)
	require.Len(t, direct, 1)
	warning, ok := direct[0].(ws.SystemWarningFrame)
	require.True(t, ok)
	assert.Equal(t, ws.SystemWarningType, warning.Type)
	assert.NotEmpty(t, warning.Content)
}

func TestMessageService_Edit(t *testing.T) {
	f, hub, svc := newTestMessages(t, nil)
	ctx := context.Background()

	sent, err := svc.Send(ctx, SendInput{SenderID: f.alice.ID, RoomID: f.lobby.ID, Text: ptr("typo")})
	require.NoError(t, err)

	edited, err := svc.Edit(ctx, f.alice.ID, sent.ID, "fixed damn")
	require.NoError(t, err)
	assert.Equal(t, "fixed ****", *edited.Message)
	assert.True(t, edited.Edited)
	assert.Empty(t, hub.directFrames(f.alice.ID), "edit does not warn")
	assert.Len(t, hub.roomFrames(), 2)

	_, err = svc.Edit(ctx, f.bob.ID, sent.ID, "hijack")
	assert.ErrorIs(t, err, pkg.ErrPermissionDenied)

	_, err = svc.Edit(ctx, f.alice.ID, 999999, "nothing")
	assert.ErrorIs(t, err, pkg.ErrNotFound)

	_, err = svc.Edit(ctx, f.alice.ID, sent.ID, " ")
	assert.ErrorIs(t, err, pkg.ErrBadRequest)

	require.NoError(t, svc.Delete(ctx, f.alice.ID, sent.ID))
	_, err = svc.Edit(ctx, f.alice.ID, sent.ID, "too late")
	assert.ErrorIs(t, err, pkg.ErrAlreadyDeleted)
}

func TestMessageService_DeleteCascadesVotes(t *testing.T) {
	f, hub, svc := newTestMessages(t, nil)
	ctx := context.Background()

	sent, err := svc.Send(ctx, SendInput{SenderID: f.alice.ID, RoomID: f.lobby.ID, Text: ptr("vote me")})
	require.NoError(t, err)

	voted, err := svc.Vote(ctx, f.bob.ID, sent.ID, models.VoteUp)
	require.NoError(t, err)
	assert.Equal(t, int64(1), voted.Vote)

	require.NoError(t, svc.Delete(ctx, f.alice.ID, sent.ID))
	frames := hub.roomFrames()
	assert.Equal(t, ws.NewDeletedFrame(sent.ID), frames[len(frames)-1])

	msg, err := f.store.FetchOne(ctx, sent.ID)
	require.NoError(t, err)
	assert.True(t, msg.Deleted)
	assert.Zero(t, msg.Votes)

	err = svc.Delete(ctx, f.alice.ID, sent.ID)
	assert.ErrorIs(t, err, pkg.ErrAlreadyDeleted)
}

func TestMessageService_VoteToggles(t *testing.T) {
	f, _, svc := newTestMessages(t, nil)
	ctx := context.Background()

	sent, err := svc.Send(ctx, SendInput{SenderID: f.alice.ID, RoomID: f.lobby.ID, Text: ptr("toggle")})
	require.NoError(t, err)

	tests := []struct {
		name string
		user int64
		dir  int
		want int64
	}{
		{"bob up", f.bob.ID, models.VoteUp, 1},
		{"alice up", f.alice.ID, models.VoteUp, 2},
		{"bob again removes", f.bob.ID, models.VoteUp, 1},
		{"alice clears", f.alice.ID, models.VoteClear, 0},
		{"clear without vote", f.alice.ID, models.VoteClear, 0},
	}
	for _, tt := range tests {
		env, err := svc.Vote(ctx, tt.user, sent.ID, tt.dir)
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.want, env.Vote, tt.name)
	}

	_, err = svc.Vote(ctx, f.bob.ID, sent.ID, 5)
	assert.ErrorIs(t, err, pkg.ErrBadRequest)
}

func TestMessageService_HistoryPage(t *testing.T) {
	f, _, svc := newTestMessages(t, nil)
	ctx := context.Background()

	for _, text := range []string{"one", "two", "three"} {
		_, err := svc.Send(ctx, SendInput{SenderID: f.alice.ID, RoomID: f.lobby.ID, Text: ptr(text)})
		require.NoError(t, err)
	}

	page, err := svc.HistoryPage(ctx, f.lobby.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, ws.NoticeOlderMessages, page.Notice)
	require.Len(t, page.Messages, 2)
	assert.Equal(t, "two", *page.Messages[0].Message)
	assert.Equal(t, "three", *page.Messages[1].Message)

	page, err = svc.HistoryPage(ctx, f.lobby.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, ws.NoticeAllMessages, page.Notice)
	assert.Len(t, page.Messages, 3)

	page, err = svc.HistoryPage(ctx, f.other.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, ws.NoticeAllMessages, page.Notice)
	assert.Empty(t, page.Messages)
}

func TestMessageService_HistoryClampsLimit(t *testing.T) {
	f, _, svc := newTestMessages(t, nil)
	ctx := context.Background()
	svc.cfg.MaxHistoryLimit = 2

	for _, text := range []string{"a", "b", "c"} {
		_, err := svc.Send(ctx, SendInput{SenderID: f.alice.ID, RoomID: f.lobby.ID, Text: ptr(text)})
		require.NoError(t, err)
	}

	msgs, err := svc.History(ctx, f.lobby.ID, 50)
	require.NoError(t, err)
	assert.Len(t, msgs, 2)
}

func TestMessageService_RoomDeletionCountdown(t *testing.T) {
	_, _, svc := newTestMessages(t, nil)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	at := func(d time.Duration) *time.Time {
		v := now.Add(d)
		return &v
	}

	tests := []struct {
		name     string
		deleteAt *time.Time
		want     string
		ok       bool
	}{
		{"not scheduled", nil, "", false},
		{"twenty days left", at(-10*24*time.Hour + time.Hour), "😑 This room will be DELETED in 20 days. 😑", true},
		{"less than a day", at(-30*24*time.Hour + time.Hour), "", false},
		{"overdue", at(-40 * 24 * time.Hour), "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame, ok := svc.RoomDeletionCountdown(&models.Room{ID: 7, DeleteAt: tt.deleteAt})
			assert.Equal(t, tt.ok, ok)
			if !tt.ok {
				return
			}
			assert.Equal(t, tt.want, *frame.Message.Message)
			assert.Equal(t, int64(7), frame.Message.RoomID)
			assert.Zero(t, frame.Message.ID)
		})
	}
}

func TestMessageService_SystemNotice(t *testing.T) {
	f, _, svc := newTestMessages(t, nil)

	frame := svc.SystemNotice(f.lobby.ID, "maintenance")
	env := frame.Message
	assert.Zero(t, env.ID)
	require.NotNil(t, env.SenderID)
	assert.Equal(t, f.system.ID, *env.SenderID)
	assert.Equal(t, "SayOry", env.UserName)
	assert.Equal(t, "maintenance", *env.Message)

	count, err := f.store.CountMessages(context.Background(), f.lobby.ID)
	require.NoError(t, err)
	assert.Zero(t, count, "system notices are not stored")
}

func TestMessageService_AssistantReply(t *testing.T) {
	tests := []struct {
		name string
		gen  *stubGenerator
		want string
	}{
		{"reply", &stubGenerator{reply: "42"}, "42"},
		{"fallback", &stubGenerator{err: errors.New("boom")}, assistant.FallbackReply},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, hub, svc := newTestMessages(t, tt.gen)
			ctx := context.Background()

			// Sistem kullanıcısı için limit uygulanmaz
			svc.limiter = allowOnce()

			_, err := svc.Send(ctx, SendInput{SenderID: f.alice.ID, RoomID: f.lobby.ID, Text: ptr("@sayory what is the answer?")})
			require.NoError(t, err)
			svc.Wait()

			frames := hub.roomFrames()
			require.Len(t, frames, 2)
			reply := frames[1].(ws.MessageFrame).Message
			require.NotNil(t, reply.SenderID)
			assert.Equal(t, f.system.ID, *reply.SenderID)
			assert.Equal(t, tt.want, *reply.Message)
		})
	}
}

func TestMessageService_NoAssistantWithoutGenerator(t *testing.T) {
	f, hub, svc := newTestMessages(t, nil)

	_, err := svc.Send(context.Background(), SendInput{SenderID: f.alice.ID, RoomID: f.lobby.ID, Text: ptr("@sayory hello?")})
	require.NoError(t, err)
	svc.Wait()

	assert.Len(t, hub.roomFrames(), 1)
}

// allowOnce, ilk çağrıya izin verir, sonrakileri reddeder.
func allowOnce() SendLimiter {
	return &onceLimiter{}
}

type onceLimiter struct{ used bool }

func (l *onceLimiter) Allow(int64) bool {
	if l.used {
		return false
	}
	l.used = true
	return true
}
