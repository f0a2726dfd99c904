// Package handlers, HTTP request handler'larını içerir.
//
// Handler'lar "thin"dir: sadece HTTP parse + service call + response write.
// Gerçek zamanlı akış WebSocket üzerindedir (ws paketi); buradaki endpoint'ler
// oda durumunu okumak isteyen dış sistemler içindir.
package handlers

import (
	"context"

	"github.com/Nevojt/company-chat/models"
)

// contextKey, context.WithValue için özel tip.
// Başka paketlerin string key'leri ile çakışmayı önler.
type contextKey string

// UserContextKey, AuthMiddleware'ın doğruladığı kullanıcıyı taşır.
const UserContextKey contextKey = "user"

// WithUser, kullanıcıyı context'e ekler (middleware ve testler kullanır).
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, UserContextKey, user)
}

// UserFromContext, middleware'ın eklediği kullanıcıyı döner.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(UserContextKey).(*models.User)
	return user, ok && user != nil
}
