package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Nevojt/company-chat/database"
	"github.com/Nevojt/company-chat/models"
	"github.com/Nevojt/company-chat/pkg"
)

// Store, chat motorunun kullandığı dar operasyon yüzeyi.
//
// Her metod tek bir transaction içinde çalışır (database.WithTx):
// başarılıysa COMMIT, hata veya panic'te ROLLBACK. Kısmi yazma olmaz.
// Servis katmanı SQL görmez; sadece bu tipli operasyonları çağırır.
//
// Hatalar: pkg.ErrNotFound, pkg.ErrPermissionDenied, pkg.ErrAlreadyDeleted,
// pkg.ErrBadRequest olduğu gibi döner; diğer her şey pkg.ErrStoreFailure ile sarılır.
type Store struct {
	db *sqlx.DB
}

// NewStore, Store oluşturur.
func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// repos, tek bir transaction'a bağlı repository seti.
type repos struct {
	rooms    RoomRepository
	users    UserRepository
	messages MessageRepository
	votes    VoteRepository
	bans     BanRepository
	statuses UserStatusRepository
	online   OnlineTimeRepository
}

func newRepos(q database.TxQuerier) repos {
	return repos{
		rooms:    NewSQLRoomRepo(q),
		users:    NewSQLUserRepo(q),
		messages: NewSQLMessageRepo(q),
		votes:    NewSQLVoteRepo(q),
		bans:     NewSQLBanRepo(q),
		statuses: NewSQLUserStatusRepo(q),
		online:   NewSQLOnlineTimeRepo(q),
	}
}

func (s *Store) inTx(ctx context.Context, fn func(r repos) error) error {
	err := database.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		return fn(newRepos(tx))
	})
	if err == nil || pkg.IsDomain(err) {
		return err
	}
	return fmt.Errorf("%w: %w", pkg.ErrStoreFailure, err)
}

// ─── Rooms & Users ───

func (s *Store) GetRoomByID(ctx context.Context, id int64) (room *models.Room, err error) {
	err = s.inTx(ctx, func(r repos) error {
		room, err = r.rooms.GetByID(ctx, id)
		return err
	})
	return room, err
}

func (s *Store) GetRoomByName(ctx context.Context, name string) (room *models.Room, err error) {
	err = s.inTx(ctx, func(r repos) error {
		room, err = r.rooms.GetByName(ctx, name)
		return err
	})
	return room, err
}

func (s *Store) CreateRoom(ctx context.Context, room *models.Room) error {
	return s.inTx(ctx, func(r repos) error {
		return r.rooms.Create(ctx, room)
	})
}

// SetRoomBlocked, odanın block bayrağını değiştirir.
func (s *Store) SetRoomBlocked(ctx context.Context, roomID int64, blocked bool) error {
	return s.inTx(ctx, func(r repos) error {
		return r.rooms.SetBlocked(ctx, roomID, blocked)
	})
}

// ScheduleRoomDeletion, odayı at anından itibaren silinmek üzere işaretler.
func (s *Store) ScheduleRoomDeletion(ctx context.Context, roomID int64, at *time.Time) error {
	return s.inTx(ctx, func(r repos) error {
		return r.rooms.ScheduleDeletion(ctx, roomID, at)
	})
}

func (s *Store) GetUser(ctx context.Context, id int64) (user *models.User, err error) {
	err = s.inTx(ctx, func(r repos) error {
		user, err = r.users.GetByID(ctx, id)
		return err
	})
	return user, err
}

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	return s.inTx(ctx, func(r repos) error {
		return r.users.Create(ctx, user)
	})
}

// ─── Messages ───

// InsertMessage, mesajı yazar ve commit edilecek hâlini (JOIN'li) döner.
func (s *Store) InsertMessage(ctx context.Context, msg *models.NewMessage, now time.Time) (out *models.Message, err error) {
	err = s.inTx(ctx, func(r repos) error {
		id, err := r.messages.Insert(ctx, msg, now)
		if err != nil {
			return err
		}
		out, err = r.messages.GetByID(ctx, id)
		return err
	})
	return out, err
}

// FetchRecent, odanın son limit mesajını kronolojik (eskiden yeniye) sırayla döner.
// Sorgu yeniden eskiye sıralar; sonuç ters çevrilir.
func (s *Store) FetchRecent(ctx context.Context, roomID int64, limit int) (msgs []models.Message, err error) {
	if limit <= 0 {
		return []models.Message{}, nil
	}
	err = s.inTx(ctx, func(r repos) error {
		msgs, err = r.messages.ListRecent(ctx, roomID, limit)
		return err
	})
	if err != nil {
		return nil, err
	}

	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

func (s *Store) FetchOne(ctx context.Context, id int64) (msg *models.Message, err error) {
	err = s.inTx(ctx, func(r repos) error {
		msg, err = r.messages.GetByID(ctx, id)
		return err
	})
	return msg, err
}

func (s *Store) CountMessages(ctx context.Context, roomID int64) (count int, err error) {
	err = s.inTx(ctx, func(r repos) error {
		count, err = r.messages.CountByRoom(ctx, roomID)
		return err
	})
	return count, err
}

// ownedMessage, mesajı okur ve sahiplik kontrolü yapar.
// Sıra: yok → NotFound, başkasının → PermissionDenied, silinmiş → AlreadyDeleted.
func ownedMessage(ctx context.Context, r repos, id, callerID int64) (*models.Message, error) {
	msg, err := r.messages.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if msg.SenderID == nil || *msg.SenderID != callerID {
		return nil, fmt.Errorf("%w: message %d belongs to another user", pkg.ErrPermissionDenied, id)
	}
	if msg.Deleted {
		return nil, fmt.Errorf("%w: message %d", pkg.ErrAlreadyDeleted, id)
	}
	return msg, nil
}

// EditMessage, gövdeyi değiştirir (edited=true) ve yenilenmiş mesajı döner.
// body zaten şifrelenmiş olmalıdır.
func (s *Store) EditMessage(ctx context.Context, id, callerID int64, body *string) (out *models.Message, err error) {
	err = s.inTx(ctx, func(r repos) error {
		if _, err := ownedMessage(ctx, r, id, callerID); err != nil {
			return err
		}
		if err := r.messages.UpdateBody(ctx, id, body); err != nil {
			return err
		}
		out, err = r.messages.GetByID(ctx, id)
		return err
	})
	return out, err
}

// SoftDeleteMessage, mesajı tombstone'a çevirir ve üzerindeki TÜM oyları siler.
// Satır silinmez; yanıt zincirleri bozulmaz.
func (s *Store) SoftDeleteMessage(ctx context.Context, id, callerID int64) (out *models.Message, err error) {
	err = s.inTx(ctx, func(r repos) error {
		if _, err := ownedMessage(ctx, r, id, callerID); err != nil {
			return err
		}
		if err := r.messages.Tombstone(ctx, id); err != nil {
			return err
		}
		if _, err := r.votes.DeleteByMessage(ctx, id); err != nil {
			return err
		}
		out, err = r.messages.GetByID(ctx, id)
		return err
	})
	return out, err
}

// ToggleVote, tek yönlü toggle oylaması:
//   - dir=VoteUp, oy yok  → eklenir
//   - dir=VoteUp, oy var  → kaldırılır
//   - dir=VoteClear       → varsa kaldırılır
//
// Silinmiş mesaja oy verilemez: hata hem ErrAlreadyDeleted hem ErrNotFound ile eşleşir.
func (s *Store) ToggleVote(ctx context.Context, messageID, userID int64, dir int) (out *models.Message, result models.VoteResult, err error) {
	if dir != models.VoteUp && dir != models.VoteClear {
		return nil, "", fmt.Errorf("%w: invalid vote direction %d", pkg.ErrBadRequest, dir)
	}

	err = s.inTx(ctx, func(r repos) error {
		msg, err := r.messages.GetByID(ctx, messageID)
		if err != nil {
			return err
		}
		if msg.Deleted {
			return fmt.Errorf("%w: %w: message %d", pkg.ErrAlreadyDeleted, pkg.ErrNotFound, messageID)
		}

		_, err = r.votes.Get(ctx, userID, messageID)
		exists := err == nil
		if err != nil && !errors.Is(err, pkg.ErrNotFound) {
			return err
		}

		switch {
		case exists:
			if err := r.votes.Delete(ctx, userID, messageID); err != nil {
				return err
			}
			result = models.VoteRemoved
		case dir == models.VoteUp:
			if err := r.votes.Create(ctx, &models.Vote{UserID: userID, MessageID: messageID, Dir: dir}); err != nil {
				return err
			}
			result = models.VoteAdded
		default:
			result = models.VoteUnchanged
		}

		out, err = r.messages.GetByID(ctx, messageID)
		return err
	})
	return out, result, err
}

// ─── Bans ───

// GetActiveBan, (kullanıcı, oda) için aktif ban'ı döner; yoksa ErrNotFound.
//
// Süresi dolmuş ban'lar aynı transaction içinde silinir (lazy expiry):
// süre dolduktan sonraki ilk okuma hem "banlı değil" döner hem de
// eski kaydı kaldırır. Arka planda süpürme yapılmaz.
func (s *Store) GetActiveBan(ctx context.Context, userID, roomID int64, now time.Time) (ban *models.Ban, err error) {
	err = s.inTx(ctx, func(r repos) error {
		latest, err := r.bans.GetLatest(ctx, userID, roomID)
		if errors.Is(err, pkg.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if _, err := r.bans.DeleteExpired(ctx, userID, roomID, now); err != nil {
			return err
		}
		if latest.Active(now) {
			ban = latest
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if ban == nil {
		return nil, fmt.Errorf("%w: no active ban", pkg.ErrNotFound)
	}
	return ban, nil
}

func (s *Store) CreateBan(ctx context.Context, ban *models.Ban) error {
	return s.inTx(ctx, func(r repos) error {
		return r.bans.Create(ctx, ban)
	})
}

func (s *Store) DeleteBans(ctx context.Context, userID, roomID int64) error {
	return s.inTx(ctx, func(r repos) error {
		return r.bans.Delete(ctx, userID, roomID)
	})
}

// ─── User status ───

// GetOrCreateUserStatus, kullanıcının status satırını döner; yoksa verilen
// oda ile online olarak oluşturur.
func (s *Store) GetOrCreateUserStatus(ctx context.Context, user *models.User, roomID *int64, roomName string) (status *models.UserStatus, err error) {
	err = s.inTx(ctx, func(r repos) error {
		status, err = r.statuses.GetByUserID(ctx, user.ID)
		if err == nil || !errors.Is(err, pkg.ErrNotFound) {
			return err
		}
		status = &models.UserStatus{
			UserID:   user.ID,
			RoomID:   roomID,
			RoomName: roomName,
			UserName: user.UserName,
			Online:   true,
		}
		return r.statuses.Create(ctx, status)
	})
	return status, err
}

// UpdateUserStatus, kullanıcının odasını ve online bayrağını yazar.
func (s *Store) UpdateUserStatus(ctx context.Context, userID int64, roomID *int64, roomName string, online bool) error {
	return s.inTx(ctx, func(r repos) error {
		status, err := r.statuses.GetByUserID(ctx, userID)
		if err != nil {
			return err
		}
		status.RoomID = roomID
		status.RoomName = roomName
		status.Online = online
		return r.statuses.Update(ctx, status)
	})
}

func (s *Store) ListOnlineInRoom(ctx context.Context, roomID int64) (statuses []models.UserStatus, err error) {
	err = s.inTx(ctx, func(r repos) error {
		statuses, err = r.statuses.ListOnlineInRoom(ctx, roomID)
		return err
	})
	return statuses, err
}

// ─── Sessions ───

// StartSession, oturum satırı yoksa oluşturur; varsa session_start=now
// ve session_end=NULL yapar.
func (s *Store) StartSession(ctx context.Context, userID int64, now time.Time) error {
	return s.inTx(ctx, func(r repos) error {
		_, err := r.online.GetByUserID(ctx, userID)
		if errors.Is(err, pkg.ErrNotFound) {
			return r.online.Create(ctx, userID, now)
		}
		if err != nil {
			return err
		}
		return r.online.Open(ctx, userID, now)
	})
}

// EndSession, açık bir oturum varsa geçen süreyi toplama ekler ve oturumu kapatır.
// Açık oturum yoksa no-op'tur; eklenen süreyi döner.
//
// Read-modify-write aynı transaction içindedir: aynı kullanıcı için eşzamanlı
// iki EndSession'dan ikincisi kapalı oturum görür ve hiçbir şey eklemez.
func (s *Store) EndSession(ctx context.Context, userID int64, now time.Time) (added time.Duration, err error) {
	err = s.inTx(ctx, func(r repos) error {
		ot, err := r.online.GetByUserID(ctx, userID)
		if errors.Is(err, pkg.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if ot.SessionStart == nil {
			return nil
		}

		elapsed := now.Sub(*ot.SessionStart)
		if elapsed < 0 {
			elapsed = 0
		}
		secs := int64(elapsed / time.Second)
		if err := r.online.Close(ctx, userID, now, secs); err != nil {
			return err
		}
		added = time.Duration(secs) * time.Second
		return nil
	})
	return added, err
}

func (s *Store) GetOnlineTime(ctx context.Context, userID int64) (ot *models.OnlineTime, err error) {
	err = s.inTx(ctx, func(r repos) error {
		ot, err = r.online.GetByUserID(ctx, userID)
		return err
	})
	return ot, err
}
