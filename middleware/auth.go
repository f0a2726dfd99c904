// Package middleware, HTTP request pipeline'ına eklenen ara katmanları barındırır.
//
// Middleware Pattern nedir?
// Her HTTP request, handler'a ulaşmadan önce bir veya daha fazla middleware'dan geçer.
// Go'da middleware bir fonksiyondur:
//
//	func(next http.Handler) http.Handler
//
// Middleware kendi işini yapar (ör: token doğrula), sonra next'i çağırır.
// Eğer hata varsa next'i çağırmaz → request burada durur.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/Nevojt/company-chat/handlers"
	"github.com/Nevojt/company-chat/models"
	"github.com/Nevojt/company-chat/pkg"
)

// TokenResolver, bearer token'ı kullanıcıya çevirir (services.AuthService).
type TokenResolver interface {
	ResolveToken(ctx context.Context, token string) (*models.User, error)
}

// AuthMiddleware, JWT token doğrulama middleware'ı.
type AuthMiddleware struct {
	resolver TokenResolver
}

// NewAuthMiddleware, constructor.
func NewAuthMiddleware(resolver TokenResolver) *AuthMiddleware {
	return &AuthMiddleware{resolver: resolver}
}

// Require, JWT token zorunlu kılan middleware.
// Token yoksa veya geçersizse → 401, kullanıcı engellenmişse → 403.
//
// HTTP header formatı: Authorization: Bearer <token>
//
// 1. "Authorization" header'ını oku
// 2. "Bearer " prefix'ini kaldır → raw token string
// 3. ResolveToken ile doğrula ve kullanıcıyı yükle
// 4. Context'e kullanıcıyı ekle → next handler'ı çağır
func (m *AuthMiddleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, "authorization header required")
			return
		}

		tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || strings.TrimSpace(tokenString) == "" {
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, "invalid authorization format, use: Bearer <token>")
			return
		}

		user, err := m.resolver.ResolveToken(r.Context(), strings.TrimSpace(tokenString))
		if err != nil {
			pkg.Error(w, err)
			return
		}

		if user.Blocked {
			pkg.ErrorWithMessage(w, http.StatusForbidden, "user is blocked")
			return
		}

		next.ServeHTTP(w, r.WithContext(handlers.WithUser(r.Context(), user)))
	})
}
