package services

import (
	"errors"
	"strconv"

	"github.com/Nevojt/company-chat/pkg"
	"github.com/Nevojt/company-chat/pkg/i18n"
	"github.com/Nevojt/company-chat/ws"
)

// NoticeFor, bir aksiyon hatasını client'a gidecek özel notice metnine çevirir.
//
// WebSocket tarafındaki tek çeviri noktası budur. Ham hata metni asla
// client'a gitmez; tanınmayan her hata genel "internal" metnine düşer.
//
// AlreadyDeleted, NotFound'dan önce kontrol edilir: silinmiş mesaja oy hatası
// ikisiyle birden eşleşir ve daha açıklayıcı olan gösterilir.
func NoticeFor(lang string, err error) string {
	l := i18n.NewLocalizer(lang)

	var banned *BannedError
	switch {
	case errors.As(err, &banned):
		return l.TWithParams("notice.banned", map[string]string{
			"minutes": strconv.Itoa(banned.RemainingMinutes),
		})
	case errors.Is(err, pkg.ErrAlreadyDeleted):
		return l.T("notice.already_deleted")
	case errors.Is(err, pkg.ErrNotFound):
		return l.T("notice.not_found")
	case errors.Is(err, pkg.ErrPermissionDenied):
		return l.T("notice.permission_denied")
	case errors.Is(err, pkg.ErrRateLimited):
		return l.T("notice.rate_limited")
	case errors.Is(err, ws.ErrInvalidFrame):
		return l.T("notice.invalid_frame")
	case errors.Is(err, pkg.ErrPolicyBlocked):
		return l.T("notice.policy_blocked")
	case errors.Is(err, pkg.ErrBadRequest):
		return l.T("notice.bad_request")
	default:
		return l.T("notice.internal")
	}
}
