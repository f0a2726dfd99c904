// Package models: Ban (oda bazlı yasak) domain modeli.
//
// Ban sistemi nasıl çalışır?
// 1. Oda sahibi bir kullanıcıyı belirli bir süre için banlar → bans tablosuna kayıt
// 2. Banlı kullanıcı odaya bağlanabilir, presence ve typing'i görür
// 3. Gönderdiği her mesaj yerine kendisine kalan süreyi bildiren özel bir notice gider
// 4. Süre dolduktan sonraki ilk kontrolde kayıt silinir (lazy expiry)
package models

import (
	"math"
	"time"
)

// Ban, (kullanıcı, oda) çifti için zaman aralıklı yasak.
type Ban struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	RoomID    int64     `json:"room_id" db:"room_id"`
	StartTime time.Time `json:"start_time" db:"start_time"`
	EndTime   time.Time `json:"end_time" db:"end_time"`
}

// Active, ban'ın verilen anda hâlâ geçerli olup olmadığını döner.
func (b *Ban) Active(now time.Time) bool {
	return now.Before(b.EndTime)
}

// RemainingMinutes, ban bitimine kalan dakikayı en yakın tam sayıya yuvarlar.
func (b *Ban) RemainingMinutes(now time.Time) int {
	if !b.Active(now) {
		return 0
	}
	return int(math.Round(b.EndTime.Sub(now).Minutes()))
}

// BanStatus, moderation gate'in (kullanıcı, oda) için verdiği karar.
type BanStatus struct {
	Banned           bool
	RemainingMinutes int
	Until            time.Time // Banned=false ise zero value
}
