package repository

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nevojt/company-chat/database"
	"github.com/Nevojt/company-chat/models"
	"github.com/Nevojt/company-chat/pkg"
)

type fixture struct {
	store *Store
	db    *database.DB
	alice *models.User
	bob   *models.User
	lobby *models.Room
	other *models.Room
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := database.New(database.DriverSQLite, filepath.Join(t.TempDir(), "chat.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	store := NewStore(db.Conn)

	alice := &models.User{Email: "alice@example.com", UserName: "alice", Avatar: "a.png", Verified: true}
	bob := &models.User{Email: "bob@example.com", UserName: "bob", Avatar: "b.png"}
	require.NoError(t, store.CreateUser(ctx, alice))
	require.NoError(t, store.CreateUser(ctx, bob))

	lobby := &models.Room{Name: "lobby"}
	other := &models.Room{Name: "other"}
	require.NoError(t, store.CreateRoom(ctx, lobby))
	require.NoError(t, store.CreateRoom(ctx, other))

	return &fixture{store: store, db: db, alice: alice, bob: bob, lobby: lobby, other: other}
}

func (f *fixture) send(t *testing.T, room *models.Room, sender *models.User, body string, at time.Time) *models.Message {
	t.Helper()
	msg, err := f.store.InsertMessage(context.Background(), &models.NewMessage{
		RoomID:   room.ID,
		SenderID: sender.ID,
		Body:     &body,
	}, at)
	require.NoError(t, err)
	return msg
}

func TestStore_SystemUserSeeded(t *testing.T) {
	f := newFixture(t)

	user, err := f.store.GetUser(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, "SayOry", user.UserName)
}

func TestStore_InsertMessage_ReturnsJoinedRow(t *testing.T) {
	f := newFixture(t)

	msg := f.send(t, f.lobby, f.alice, "hello", time.Now())

	assert.NotZero(t, msg.ID)
	assert.Equal(t, f.lobby.ID, msg.RoomID)
	require.NotNil(t, msg.SenderName)
	assert.Equal(t, "alice", *msg.SenderName)
	require.NotNil(t, msg.SenderVerified)
	assert.True(t, *msg.SenderVerified)
	assert.Equal(t, int64(0), msg.Votes)
	assert.False(t, msg.Edited)
	assert.False(t, msg.Deleted)
}

func TestStore_FetchRecent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)

	for i := 0; i < 5; i++ {
		f.send(t, f.lobby, f.alice, fmt.Sprintf("lobby-%d", i), base.Add(time.Duration(i)*time.Minute))
	}
	for i := 0; i < 2; i++ {
		f.send(t, f.other, f.bob, fmt.Sprintf("other-%d", i), base.Add(time.Duration(i)*time.Minute))
	}

	tests := []struct {
		name  string
		limit int
		want  []string
	}{
		{"limit smaller than history", 3, []string{"lobby-2", "lobby-3", "lobby-4"}},
		{"limit larger than history", 50, []string{"lobby-0", "lobby-1", "lobby-2", "lobby-3", "lobby-4"}},
		{"zero limit", 0, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msgs, err := f.store.FetchRecent(ctx, f.lobby.ID, tt.limit)
			require.NoError(t, err)
			require.Len(t, msgs, len(tt.want))

			for i, m := range msgs {
				assert.Equal(t, f.lobby.ID, m.RoomID)
				require.NotNil(t, m.Body)
				assert.Equal(t, tt.want[i], *m.Body)
				if i > 0 {
					assert.False(t, m.CreatedAt.Before(msgs[i-1].CreatedAt), "history must be chronological")
				}
			}
		})
	}
}

func TestStore_EditMessage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	msg := f.send(t, f.lobby, f.alice, "first", time.Now())
	updated := "second"

	t.Run("owner can edit", func(t *testing.T) {
		out, err := f.store.EditMessage(ctx, msg.ID, f.alice.ID, &updated)
		require.NoError(t, err)
		assert.True(t, out.Edited)
		require.NotNil(t, out.Body)
		assert.Equal(t, "second", *out.Body)
	})

	t.Run("other user is denied", func(t *testing.T) {
		_, err := f.store.EditMessage(ctx, msg.ID, f.bob.ID, &updated)
		assert.ErrorIs(t, err, pkg.ErrPermissionDenied)
	})

	t.Run("missing message", func(t *testing.T) {
		_, err := f.store.EditMessage(ctx, 9999, f.alice.ID, &updated)
		assert.ErrorIs(t, err, pkg.ErrNotFound)
	})
}

func TestStore_ToggleVote(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	msg := f.send(t, f.lobby, f.alice, "vote me", time.Now())

	out, result, err := f.store.ToggleVote(ctx, msg.ID, f.bob.ID, models.VoteUp)
	require.NoError(t, err)
	assert.Equal(t, models.VoteAdded, result)
	assert.Equal(t, int64(1), out.Votes)

	out, result, err = f.store.ToggleVote(ctx, msg.ID, f.bob.ID, models.VoteUp)
	require.NoError(t, err)
	assert.Equal(t, models.VoteRemoved, result)
	assert.Equal(t, int64(0), out.Votes)

	out, result, err = f.store.ToggleVote(ctx, msg.ID, f.bob.ID, models.VoteClear)
	require.NoError(t, err)
	assert.Equal(t, models.VoteUnchanged, result)
	assert.Equal(t, int64(0), out.Votes)

	_, _, err = f.store.ToggleVote(ctx, msg.ID, f.bob.ID, 7)
	assert.ErrorIs(t, err, pkg.ErrBadRequest)

	_, _, err = f.store.ToggleVote(ctx, 9999, f.bob.ID, models.VoteUp)
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}

func TestStore_SoftDeleteMessage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	parent := f.send(t, f.lobby, f.bob, "parent", time.Now())
	fileURL := "https://cdn.example.com/cat.png"
	body := "bye"
	msg, err := f.store.InsertMessage(ctx, &models.NewMessage{
		RoomID:   f.lobby.ID,
		SenderID: f.alice.ID,
		Body:     &body,
		FileURL:  &fileURL,
		ReplyTo:  &parent.ID,
	}, time.Now())
	require.NoError(t, err)

	_, _, err = f.store.ToggleVote(ctx, msg.ID, f.alice.ID, models.VoteUp)
	require.NoError(t, err)
	_, _, err = f.store.ToggleVote(ctx, msg.ID, f.bob.ID, models.VoteUp)
	require.NoError(t, err)

	_, err = f.store.SoftDeleteMessage(ctx, msg.ID, f.bob.ID)
	assert.ErrorIs(t, err, pkg.ErrPermissionDenied)

	out, err := f.store.SoftDeleteMessage(ctx, msg.ID, f.alice.ID)
	require.NoError(t, err)
	assert.True(t, out.Deleted)
	assert.Nil(t, out.Body)
	assert.Nil(t, out.FileURL)
	assert.Nil(t, out.ReplyTo)
	assert.Equal(t, int64(0), out.Votes, "every vote on a tombstoned message is removed")

	fetched, err := f.store.FetchOne(ctx, msg.ID)
	require.NoError(t, err)
	assert.True(t, fetched.Deleted)
	assert.Nil(t, fetched.Body)

	_, err = f.store.EditMessage(ctx, msg.ID, f.alice.ID, &body)
	assert.ErrorIs(t, err, pkg.ErrAlreadyDeleted)

	_, err = f.store.SoftDeleteMessage(ctx, msg.ID, f.alice.ID)
	assert.ErrorIs(t, err, pkg.ErrAlreadyDeleted)

	_, _, err = f.store.ToggleVote(ctx, msg.ID, f.bob.ID, models.VoteUp)
	assert.ErrorIs(t, err, pkg.ErrAlreadyDeleted)
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}

func TestStore_GetActiveBan(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Now()

	t.Run("active ban", func(t *testing.T) {
		require.NoError(t, f.store.CreateBan(ctx, &models.Ban{
			UserID: f.bob.ID, RoomID: f.lobby.ID,
			StartTime: now.Add(-time.Minute), EndTime: now.Add(10 * time.Minute),
		}))

		ban, err := f.store.GetActiveBan(ctx, f.bob.ID, f.lobby.ID, now)
		require.NoError(t, err)
		assert.Equal(t, 10, ban.RemainingMinutes(now))

		_, err = f.store.GetActiveBan(ctx, f.bob.ID, f.other.ID, now)
		assert.ErrorIs(t, err, pkg.ErrNotFound)
	})

	t.Run("expired ban is removed on first read", func(t *testing.T) {
		require.NoError(t, f.store.CreateBan(ctx, &models.Ban{
			UserID: f.alice.ID, RoomID: f.lobby.ID,
			StartTime: now.Add(-2 * time.Hour), EndTime: now.Add(-time.Hour),
		}))

		for i := 0; i < 2; i++ {
			_, err := f.store.GetActiveBan(ctx, f.alice.ID, f.lobby.ID, now)
			assert.ErrorIs(t, err, pkg.ErrNotFound)
		}

		_, err := NewSQLBanRepo(f.db.Conn).GetLatest(ctx, f.alice.ID, f.lobby.ID)
		assert.ErrorIs(t, err, pkg.ErrNotFound, "stale row must be gone")
	})
}

func TestStore_Sessions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	t0 := time.Now().Add(-time.Hour).Truncate(time.Second)

	require.NoError(t, f.store.StartSession(ctx, f.alice.ID, t0))

	added, err := f.store.EndSession(ctx, f.alice.ID, t0.Add(90*time.Second))
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, added)

	added, err = f.store.EndSession(ctx, f.alice.ID, t0.Add(5*time.Minute))
	require.NoError(t, err)
	assert.Zero(t, added, "ending a closed session adds nothing")

	t1 := t0.Add(10 * time.Minute)
	require.NoError(t, f.store.StartSession(ctx, f.alice.ID, t1))
	_, err = f.store.EndSession(ctx, f.alice.ID, t1.Add(30*time.Second))
	require.NoError(t, err)

	ot, err := f.store.GetOnlineTime(ctx, f.alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(120), ot.TotalOnlineSeconds)
	assert.Nil(t, ot.SessionStart)
	require.NotNil(t, ot.SessionEnd)

	added, err = f.store.EndSession(ctx, f.bob.ID, t1)
	require.NoError(t, err)
	assert.Zero(t, added, "user without a session row is a no-op")
}

func TestStore_UserStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	status, err := f.store.GetOrCreateUserStatus(ctx, f.alice, &f.lobby.ID, f.lobby.Name)
	require.NoError(t, err)
	assert.True(t, status.Online)
	assert.Equal(t, "lobby", status.RoomName)

	online, err := f.store.ListOnlineInRoom(ctx, f.lobby.ID)
	require.NoError(t, err)
	require.Len(t, online, 1)
	assert.Equal(t, f.alice.ID, online[0].UserID)

	require.NoError(t, f.store.UpdateUserStatus(ctx, f.alice.ID, nil, "Hell", false))

	status, err = f.store.GetOrCreateUserStatus(ctx, f.alice, &f.lobby.ID, f.lobby.Name)
	require.NoError(t, err)
	assert.False(t, status.Online)
	assert.Equal(t, "Hell", status.RoomName)
	assert.Nil(t, status.RoomID)

	err = f.store.UpdateUserStatus(ctx, f.bob.ID, nil, "Hell", false)
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}

func TestStore_RoomLookups(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	room, err := f.store.GetRoomByName(ctx, "lobby")
	require.NoError(t, err)
	assert.Equal(t, f.lobby.ID, room.ID)
	assert.False(t, room.Blocked)

	require.NoError(t, f.store.SetRoomBlocked(ctx, room.ID, true))
	room, err = f.store.GetRoomByID(ctx, room.ID)
	require.NoError(t, err)
	assert.True(t, room.Blocked)

	_, err = f.store.GetRoomByName(ctx, "nope")
	assert.ErrorIs(t, err, pkg.ErrNotFound)

	err = f.store.CreateRoom(ctx, &models.Room{Name: "lobby"})
	assert.ErrorIs(t, err, pkg.ErrBadRequest)

	err = f.store.SetRoomBlocked(ctx, 9999, true)
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}
