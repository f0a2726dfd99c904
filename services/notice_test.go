package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Nevojt/company-chat/pkg"
	"github.com/Nevojt/company-chat/ws"
)

func TestNoticeFor(t *testing.T) {
	tests := []struct {
		name string
		lang string
		err  error
		want string
	}{
		{"banned", "en", &BannedError{RemainingMinutes: 12}, "Sorry, but the owner of the room has blocked you. Until the end of the block remained 12 minutes."},
		{"wrapped banned", "en", fmt.Errorf("send: %w", &BannedError{RemainingMinutes: 1}), "Sorry, but the owner of the room has blocked you. Until the end of the block remained 1 minutes."},
		{"deleted wins over not found", "en", fmt.Errorf("%w: %w", pkg.ErrAlreadyDeleted, pkg.ErrNotFound), "This message has been deleted."},
		{"not found", "en", fmt.Errorf("x: %w", pkg.ErrNotFound), "Message not found."},
		{"permission", "en", pkg.ErrPermissionDenied, "You can only change your own messages."},
		{"rate limited", "en", pkg.ErrRateLimited, "You are sending messages too fast. Please wait a moment."},
		{"invalid frame", "en", ws.ErrInvalidFrame, "This request is not supported."},
		{"policy", "en", pkg.ErrPolicyBlocked, "This action is not allowed here."},
		{"bad request", "en", pkg.ErrBadRequest, "Invalid request."},
		{"store failure hides details", "en", fmt.Errorf("%w: disk on fire", pkg.ErrStoreFailure), "Something went wrong. Please try again."},
		{"unknown error", "en", errors.New("boom"), "Something went wrong. Please try again."},
		{"unsupported language falls back", "de", pkg.ErrPermissionDenied, "You can only change your own messages."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NoticeFor(tt.lang, tt.err))
		})
	}
}

func TestNoticeFor_Localized(t *testing.T) {
	en := NoticeFor("en", pkg.ErrNotFound)
	uk := NoticeFor("uk", pkg.ErrNotFound)
	assert.NotEqual(t, en, uk)
	assert.NotEqual(t, "notice.not_found", uk)
}
