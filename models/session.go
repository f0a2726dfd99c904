package models

import "time"

// UserStatus, kullanıcının bulunduğu oda ve çevrimiçi durumu.
// Her kullanıcı için tek satır.
type UserStatus struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	RoomID    *int64    `json:"room_id" db:"room_id"` // void odada nil
	RoomName  string    `json:"name_room" db:"name_room"`
	UserName  string    `json:"user_name" db:"user_name"`
	Online    bool      `json:"status" db:"status"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// OnlineTime, kullanıcının oturum aralıkları ve toplam çevrimiçi süresi.
// Toplam sadece artar; SessionStart sadece açık bir oturum kapatılırken nil olur.
type OnlineTime struct {
	ID                 int64      `json:"id" db:"id"`
	UserID             int64      `json:"user_id" db:"user_id"`
	SessionStart       *time.Time `json:"session_start" db:"session_start"`
	SessionEnd         *time.Time `json:"session_end" db:"session_end"`
	TotalOnlineSeconds int64      `json:"total_online_seconds" db:"total_online_seconds"`
}

// TotalOnline, birikmiş süreyi time.Duration olarak döner.
func (o *OnlineTime) TotalOnline() time.Duration {
	return time.Duration(o.TotalOnlineSeconds) * time.Second
}
