package models

import (
	"math"
	"time"
)

// Room, bir sohbet odası. name_room globaldir ve benzersizdir.
type Room struct {
	ID        int64      `json:"id" db:"id"`
	Name      string     `json:"name_room" db:"name_room"`
	Image     string     `json:"image_room" db:"image_room"`
	Owner     *int64     `json:"owner" db:"owner"`
	Secret    bool       `json:"secret_room" db:"secret_room"`
	Blocked   bool       `json:"block" db:"block"`
	DeleteAt  *time.Time `json:"delete_at" db:"delete_at"` // silme zamanlandıysa dolu
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

// DaysUntilDeletion, zamanlanmış silmeye kalan tam gün sayısını döner.
// Silme zamanlanmamışsa ok=false.
//
// Oda, delete_at + grace süresi dolunca kalıcı silinir. Kalan süre
// tam güne aşağı yuvarlanır (23 saat → 0 gün).
func (r *Room) DaysUntilDeletion(now time.Time, grace time.Duration) (days int, ok bool) {
	if r.DeleteAt == nil {
		return 0, false
	}
	remaining := r.DeleteAt.Add(grace).Sub(now)
	return int(math.Floor(remaining.Hours() / 24)), true
}
