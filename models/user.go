// Package models, uygulamanın domain modellerini (veri yapıları) tanımlar.
//
// Model nedir?
// Veritabanındaki bir tablonun Go karşılığıdır.
// Aynı zamanda istemciye giden verilerin şeklini de belirler.
//
// `json:"user_name"` tag'leri JSON serialize'ı, `db:"user_name"` tag'leri
// sqlx'in struct scanning'ini yönetir.
package models

import "time"

// Rol sabitleri. Chat motoru sadece admin'i ayırt eder.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User, dış sistemden gelen kullanıcı kaydı.
// Chat motoru kullanıcı oluşturmaz; sadece okur.
type User struct {
	ID        int64     `json:"id" db:"id"`
	Email     string    `json:"-" db:"email"`
	UserName  string    `json:"user_name" db:"user_name"`
	Avatar    string    `json:"avatar" db:"avatar"`
	Verified  bool      `json:"verified" db:"verified"`
	Role      string    `json:"role" db:"role"`
	Blocked   bool      `json:"blocked" db:"blocked"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// IsAdmin, bloklu odalara giriş yetkisi olan kullanıcıyı belirtir.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// ActiveUser, presence snapshot'ındaki tek bir kullanıcı.
type ActiveUser struct {
	UserID   int64  `json:"user_id"`
	UserName string `json:"user_name"`
	Avatar   string `json:"avatar"`
	Verified bool   `json:"verified"`
}
