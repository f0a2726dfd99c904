// Package main: komut satırı.
//
// Binary tek bir cobra root komutu altında toplanır:
//
//	company-chat serve                                  → HTTP + WebSocket sunucusu
//	company-chat migrate                                → sadece migration'ları uygula
//	company-chat ban --user 7 --room lobby --minutes 30 → odadan geçici ban
//	company-chat unban --user 7 --room lobby            → ban'ları kaldır
//	company-chat block-room --room lobby [--unblock]    → odayı kilitle / aç
//	company-chat schedule-deletion --room lobby [--cancel]
//
// Yönetim komutları sunucu çalışırken de kullanılabilir; ban ve block
// kontrolleri her frame'de veritabanından okunduğu için hemen etkili olur.
package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/Nevojt/company-chat/config"
	"github.com/Nevojt/company-chat/models"
	"github.com/Nevojt/company-chat/repository"
)

// newRootCmd, tüm alt komutları bağlı root komutunu oluşturur.
// Argümansız çalıştırma serve ile aynıdır.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "company-chat",
		Short:        "Real-time chat room server",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}

	root.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newBanCmd(),
		newUnbanCmd(),
		newBlockRoomCmd(),
		newScheduleDeletionCmd(),
	)
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP and WebSocket server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			// initStore migration'ları zaten uygular.
			db, _, err := initStore(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "migrations applied (driver=%s)\n", db.Driver)
			return nil
		},
	}
}

// withStore, yönetim komutları için Store açar ve fn bitince kapatır.
func withStore(cmd *cobra.Command, fn func(ctx context.Context, store *repository.Store) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	db, store, err := initStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	return fn(cmd.Context(), store)
}

func newBanCmd() *cobra.Command {
	var (
		userID  int64
		room    string
		minutes int
	)

	cmd := &cobra.Command{
		Use:   "ban",
		Short: "Ban a user from a room for a number of minutes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(ctx context.Context, store *repository.Store) error {
				return banUser(ctx, store, cmd.OutOrStdout(), userID, room, minutes, time.Now())
			})
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "user id to ban")
	cmd.Flags().StringVar(&room, "room", "", "room id or name")
	cmd.Flags().IntVar(&minutes, "minutes", 30, "ban duration in minutes")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("room")
	return cmd
}

func newUnbanCmd() *cobra.Command {
	var (
		userID int64
		room   string
	)

	cmd := &cobra.Command{
		Use:   "unban",
		Short: "Remove all bans of a user in a room",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(ctx context.Context, store *repository.Store) error {
				return unbanUser(ctx, store, cmd.OutOrStdout(), userID, room)
			})
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "user id to unban")
	cmd.Flags().StringVar(&room, "room", "", "room id or name")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("room")
	return cmd
}

func newBlockRoomCmd() *cobra.Command {
	var (
		room    string
		unblock bool
	)

	cmd := &cobra.Command{
		Use:   "block-room",
		Short: "Block a room for everyone except admins",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(ctx context.Context, store *repository.Store) error {
				return setRoomBlocked(ctx, store, cmd.OutOrStdout(), room, !unblock)
			})
		},
	}

	cmd.Flags().StringVar(&room, "room", "", "room id or name")
	cmd.Flags().BoolVar(&unblock, "unblock", false, "lift the block instead")
	_ = cmd.MarkFlagRequired("room")
	return cmd
}

func newScheduleDeletionCmd() *cobra.Command {
	var (
		room   string
		cancel bool
	)

	cmd := &cobra.Command{
		Use:   "schedule-deletion",
		Short: "Mark a room for deletion (members see a countdown on join)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(ctx context.Context, store *repository.Store) error {
				var at *time.Time
				if !cancel {
					now := time.Now().UTC()
					at = &now
				}
				return scheduleDeletion(ctx, store, cmd.OutOrStdout(), room, at)
			})
		},
	}

	cmd.Flags().StringVar(&room, "room", "", "room id or name")
	cmd.Flags().BoolVar(&cancel, "cancel", false, "clear a scheduled deletion")
	_ = cmd.MarkFlagRequired("room")
	return cmd
}

// ─── Komut gövdeleri ───
//
// Cobra'dan bağımsızdırlar; testler bunları doğrudan SQLite Store ile çağırır.

// resolveRoom, "--room" değerini önce id, sonra isim olarak çözer.
func resolveRoom(ctx context.Context, store *repository.Store, ref string) (*models.Room, error) {
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		return store.GetRoomByID(ctx, id)
	}
	return store.GetRoomByName(ctx, ref)
}

func banUser(ctx context.Context, store *repository.Store, out io.Writer, userID int64, roomRef string, minutes int, now time.Time) error {
	if minutes < 1 {
		return fmt.Errorf("minutes must be positive, got %d", minutes)
	}

	user, err := store.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	room, err := resolveRoom(ctx, store, roomRef)
	if err != nil {
		return err
	}

	ban := &models.Ban{
		UserID:    user.ID,
		RoomID:    room.ID,
		StartTime: now.UTC(),
		EndTime:   now.UTC().Add(time.Duration(minutes) * time.Minute),
	}
	if err := store.CreateBan(ctx, ban); err != nil {
		return err
	}

	fmt.Fprintf(out, "%s banned from %s until %s\n", user.UserName, room.Name, ban.EndTime.Format(time.RFC3339))
	return nil
}

func unbanUser(ctx context.Context, store *repository.Store, out io.Writer, userID int64, roomRef string) error {
	room, err := resolveRoom(ctx, store, roomRef)
	if err != nil {
		return err
	}
	if err := store.DeleteBans(ctx, userID, room.ID); err != nil {
		return err
	}

	fmt.Fprintf(out, "user %d unbanned from %s\n", userID, room.Name)
	return nil
}

func setRoomBlocked(ctx context.Context, store *repository.Store, out io.Writer, roomRef string, blocked bool) error {
	room, err := resolveRoom(ctx, store, roomRef)
	if err != nil {
		return err
	}
	if err := store.SetRoomBlocked(ctx, room.ID, blocked); err != nil {
		return err
	}

	state := "unblocked"
	if blocked {
		state = "blocked"
	}
	fmt.Fprintf(out, "room %s %s\n", room.Name, state)
	return nil
}

func scheduleDeletion(ctx context.Context, store *repository.Store, out io.Writer, roomRef string, at *time.Time) error {
	room, err := resolveRoom(ctx, store, roomRef)
	if err != nil {
		return err
	}
	if err := store.ScheduleRoomDeletion(ctx, room.ID, at); err != nil {
		return err
	}

	if at == nil {
		fmt.Fprintf(out, "deletion of %s cancelled\n", room.Name)
		return nil
	}
	fmt.Fprintf(out, "room %s scheduled for deletion from %s\n", room.Name, at.Format(time.RFC3339))
	return nil
}
