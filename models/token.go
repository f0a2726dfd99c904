package models

import "github.com/golang-jwt/jwt/v5"

// TokenClaims, dış auth servisinin ürettiği access token'ın payload'u.
//
// Chat servisi token üretmez, sadece doğrular: imza HS256 ile kontrol edilir,
// user_id claim'i ile kullanıcı DB'den okunur.
type TokenClaims struct {
	UserID int64 `json:"user_id"`
	jwt.RegisteredClaims
}
