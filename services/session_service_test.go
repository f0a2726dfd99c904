package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nevojt/company-chat/pkg"
)

func TestSessionService_JoinLeave(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	now := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	svc := NewSessionService(f.store, "Hell").(*sessionService)
	svc.now = func() time.Time { return now }

	require.NoError(t, svc.Join(ctx, f.alice, f.lobby))

	online, err := f.store.ListOnlineInRoom(ctx, f.lobby.ID)
	require.NoError(t, err)
	require.Len(t, online, 1)
	assert.Equal(t, "lobby", online[0].RoomName)
	assert.True(t, online[0].Online)

	now = now.Add(90 * time.Second)
	added, err := svc.Leave(ctx, f.alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, added)

	online, err = f.store.ListOnlineInRoom(ctx, f.lobby.ID)
	require.NoError(t, err)
	assert.Empty(t, online)

	ot, err := f.store.GetOnlineTime(ctx, f.alice.ID)
	require.NoError(t, err)
	assert.Nil(t, ot.SessionStart)
	assert.Equal(t, 90*time.Second, ot.TotalOnline())

	// İkinci oturum toplamı büyütür; ikinci Leave hiçbir şey eklemez
	require.NoError(t, svc.Join(ctx, f.alice, f.other))
	now = now.Add(time.Minute)
	added, err = svc.Leave(ctx, f.alice.ID)
	require.NoError(t, err)
	assert.Equal(t, time.Minute, added)

	added, err = svc.Leave(ctx, f.alice.ID)
	require.NoError(t, err)
	assert.Zero(t, added)

	ot, err = f.store.GetOnlineTime(ctx, f.alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 150*time.Second, ot.TotalOnline())
}

func TestSessionService_JoinMovesBetweenRooms(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewSessionService(f.store, "Hell")

	require.NoError(t, svc.Join(ctx, f.bob, f.lobby))
	require.NoError(t, svc.Join(ctx, f.bob, f.other))

	lobby, err := f.store.ListOnlineInRoom(ctx, f.lobby.ID)
	require.NoError(t, err)
	assert.Empty(t, lobby)

	other, err := f.store.ListOnlineInRoom(ctx, f.other.ID)
	require.NoError(t, err)
	assert.Len(t, other, 1)
}

func TestSessionService_LeaveWithoutJoin(t *testing.T) {
	f := newFixture(t)

	added, err := NewSessionService(f.store, "Hell").Leave(context.Background(), f.bob.ID)
	assert.ErrorIs(t, err, pkg.ErrNotFound)
	assert.Zero(t, added)
}
