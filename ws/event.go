// Package ws, WebSocket bağlantı yönetimi ve oda bazlı gerçek zamanlı dağıtımı sağlar.
//
// Mimari:
//   - Hub: userID → Client registry'si, oda fan-out'u, presence ve typing relay
//   - Client: tek bir WebSocket bağlantısı (ReadPump + WritePump)
//   - Handler: HTTP → WebSocket upgrade, token → kullanıcı çözümü
//   - protocol.go: inbound frame'lerin tagged union decode'u
//   - event.go: outbound frame şekilleri
//
// Event akışı:
//  1. Client bir frame gönderir → ReadPump → SessionHandler.HandleFrame
//  2. Service store'a yazar, commit edilmiş satırı tekrar okur
//  3. Service Hub.BroadcastToRoom çağırır
//  4. Her alıcının WritePump'ı frame'i socket'e yazar
package ws

import "github.com/Nevojt/company-chat/models"

// Geçmiş yüklenirken gönderilen işaretler.
const (
	NoticeOlderMessages = "Load older messages"
	NoticeAllMessages   = "Loading all messages"
)

// SystemWarningType, sansür uyarısının type değeri.
const SystemWarningType = "system_warning"

// MessageFrame, tek bir mesaj envelope'unu sarar: {"message": {...}}.
// Send, edit ve vote sonrası yayınlanır; geçmiş de bu şekilde gönderilir.
type MessageFrame struct {
	Message models.Envelope `json:"message"`
}

// PresenceFrame, odadaki aktif kullanıcılar: {"active_users": [...]}.
type PresenceFrame struct {
	ActiveUsers []models.ActiveUser `json:"active_users"`
}

// TypingFrame, yazan kullanıcının adını taşır: {"type": "alice"}.
type TypingFrame struct {
	Type string `json:"type"`
}

// DeletedFrame, silinen mesajın sadece id'sini taşır: {"deleted": {"id": 7}}.
type DeletedFrame struct {
	Deleted DeletedRef `json:"deleted"`
}

// DeletedRef, DeletedFrame içeriği.
type DeletedRef struct {
	ID int64 `json:"id"`
}

// NoticeFrame, sadece ilgili client'a giden bildirim: {"notice": "..."}.
type NoticeFrame struct {
	Notice string `json:"notice"`
}

// SystemWarningFrame, mesajın sansürlendiğini bildirir.
type SystemWarningFrame struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// NewMessageFrame, envelope'u sarar.
func NewMessageFrame(env models.Envelope) MessageFrame {
	return MessageFrame{Message: env}
}

// NewDeletedFrame, silme bildirimi oluşturur.
func NewDeletedFrame(id int64) DeletedFrame {
	return DeletedFrame{Deleted: DeletedRef{ID: id}}
}

// NewSystemWarning, system_warning frame'i oluşturur.
func NewSystemWarning(content string) SystemWarningFrame {
	return SystemWarningFrame{Type: SystemWarningType, Content: content}
}
