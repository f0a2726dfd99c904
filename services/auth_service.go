// Package services, business logic katmanını barındırır.
//
// Service Layer Pattern nedir?
// Transport (WebSocket / HTTP) ile Store (DB) arasında oturan katmandır.
// Tüm iş kuralları burada yaşar:
//   - Token → kimlik çözümü
//   - Ban ve oda blok kararları
//   - Mesaj yaşam döngüsü (sansür, şifreleme, yayın)
//   - Oturum takibi
//
// Service ASLA doğrudan SQL çalıştırmaz, store interface'lerini kullanır.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Nevojt/company-chat/models"
	"github.com/Nevojt/company-chat/pkg"
	"github.com/Nevojt/company-chat/pkg/cache"
)

// AuthService, dışarıda üretilmiş access token'ları doğrular.
// Token üretmez; kimlik sağlayıcı bu servisin dışındadır.
//
// ws.IdentityResolver'ı implicit olarak karşılar.
type AuthService interface {
	ValidateAccessToken(tokenString string) (*models.TokenClaims, error)
	ResolveToken(ctx context.Context, token string) (*models.User, error)
	// InvalidateUser, kullanıcı engellendiğinde/güncellendiğinde cache'i temizler.
	InvalidateUser(userID int64)
}

type authService struct {
	users     UserStore
	jwtSecret []byte
	userCache *cache.TTLCache[int64, *models.User]
}

// NewAuthService, constructor. cacheTTL, token → kullanıcı çözümünün ne kadar
// süre bellekte tutulacağıdır (0 → cache yok).
func NewAuthService(users UserStore, jwtSecret string, cacheTTL time.Duration) AuthService {
	s := &authService{
		users:     users,
		jwtSecret: []byte(jwtSecret),
	}
	if cacheTTL > 0 {
		s.userCache = cache.New[int64, *models.User](cacheTTL, 4*cacheTTL)
	}
	return s
}

// ValidateAccessToken, HS256 imzalı JWT'yi doğrular ve claims'i döner.
func (s *authService) ValidateAccessToken(tokenString string) (*models.TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.TokenClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})

	if err != nil {
		return nil, fmt.Errorf("%w: invalid token", pkg.ErrUnauthorized)
	}

	claims, ok := token.Claims.(*models.TokenClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%w: invalid token claims", pkg.ErrUnauthorized)
	}
	if claims.UserID <= 0 {
		return nil, fmt.Errorf("%w: token has no user id", pkg.ErrUnauthorized)
	}

	return claims, nil
}

// ResolveToken, token'ı doğrular ve kullanıcıyı döner (fail closed).
// Token geçerli ama kullanıcı silinmişse de Unauthorized döner.
func (s *authService) ResolveToken(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.ValidateAccessToken(token)
	if err != nil {
		return nil, err
	}

	load := func() (*models.User, error) {
		return s.users.GetUser(ctx, claims.UserID)
	}

	var user *models.User
	if s.userCache != nil {
		user, err = s.userCache.GetOrLoad(claims.UserID, load)
	} else {
		user, err = load()
	}
	if errors.Is(err, pkg.ErrNotFound) {
		return nil, fmt.Errorf("%w: user %d not found", pkg.ErrUnauthorized, claims.UserID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user %d: %w", claims.UserID, err)
	}

	// Cache'teki pointer paylaşılmasın
	out := *user
	return &out, nil
}

func (s *authService) InvalidateUser(userID int64) {
	if s.userCache != nil {
		s.userCache.Delete(userID)
	}
}
