// Package pkg, projede paylaşılan utility'leri barındırır.
// Bu dosya domain-level error tanımlarını içerir.
//
// Go'da error'lar basit değerlerdir. errors.New() ile sabit error
// değişkenleri tanımlarız, karşılaştırma referans ile yapılır:
//
//	if errors.Is(err, pkg.ErrNotFound) { ... }
//
// Service katmanı bu sentinel'leri fmt.Errorf("%w: ...") ile sarar,
// WebSocket tarafında tek bir noktada private notice metnine,
// HTTP tarafında status code'a çevrilir.
package pkg

import "errors"

// Domain-level error'lar.
var (
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrAlreadyDeleted   = errors.New("already deleted")
	ErrPolicyBlocked    = errors.New("policy blocked")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrBadRequest       = errors.New("bad request")
	ErrRateLimited      = errors.New("rate limited")

	// Altyapı hataları, client'a asla ham metin olarak gönderilmez.
	ErrCryptoFailure    = errors.New("crypto failure")
	ErrStoreFailure     = errors.New("store failure")
	ErrTransportFailure = errors.New("transport failure")
)

// IsDomain, hatanın kullanıcıya özel bir bildirimle anlatılabilen
// bir domain hatası olup olmadığını söyler.
func IsDomain(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrPermissionDenied),
		errors.Is(err, ErrAlreadyDeleted),
		errors.Is(err, ErrPolicyBlocked),
		errors.Is(err, ErrBadRequest),
		errors.Is(err, ErrRateLimited):
		return true
	}
	return false
}
