package models

import "time"

// Silinmiş veya bilinmeyen gönderici için gösterilen değerler.
const (
	UnknownUserName   = "Unknown user"
	UnknownUserAvatar = "https://tygjaceleczftbswxxei.supabase.co/storage/v1/object/public/image_bucket/inne/image/photo_2024-06-14_19-20-40.jpg"
)

// Message, "messages" tablosunun satırı + JOIN ile gelen gönderici
// snapshot'ı ve oy toplamı.
//
// Body veritabanında şifreli saklanır (enc1. zarfı). Repository ham değeri
// döner; çözme işi lifecycle katmanındadır.
type Message struct {
	ID        int64     `db:"id"`
	RoomID    int64     `db:"room_id"`
	SenderID  *int64    `db:"sender_id"` // gönderici silinmişse nil
	Body      *string   `db:"body"`      // sadece medya içeren veya silinmiş mesajda nil
	FileURL   *string   `db:"file_url"`
	VoiceURL  *string   `db:"voice_url"`
	VideoURL  *string   `db:"video_url"`
	ReplyTo   *int64    `db:"id_return"`
	Edited    bool      `db:"edited"`
	Deleted   bool      `db:"deleted"` // tombstone
	CreatedAt time.Time `db:"created_at"`

	// LEFT JOIN users
	SenderName     *string `db:"user_name"`
	SenderAvatar   *string `db:"avatar"`
	SenderVerified *bool   `db:"verified"`

	// COALESCE(SUM(votes.dir), 0)
	Votes int64 `db:"vote"`
}

// NewMessage, insert için gereken alanlar. Body burada zaten şifrelidir.
type NewMessage struct {
	RoomID   int64
	SenderID int64
	Body     *string
	FileURL  *string
	VoiceURL *string
	VideoURL *string
	ReplyTo  *int64
}

// Envelope, bir mesajın istemciye giden kanonik temsili.
// JSON anahtarları mevcut istemcilerle uyumludur.
type Envelope struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	RoomID    int64     `json:"room_id"`
	SenderID  *int64    `json:"sender_id"`
	UserName  string    `json:"user_name"`
	Avatar    string    `json:"avatar"`
	Verified  bool      `json:"verified"`
	Message   *string   `json:"message"`
	FileURL   *string   `json:"fileUrl"`
	VoiceURL  *string   `json:"voiceUrl"`
	VideoURL  *string   `json:"videoUrl"`
	ReplyTo   *int64    `json:"id_return"`
	Edited    bool      `json:"edited"`
	Deleted   bool      `json:"deleted"`
	Vote      int64     `json:"vote"`
}

// NewEnvelope, mesaj satırından envelope oluşturur. body çözülmüş metindir
// (çözülemiyorsa nil, "erişilemez" anlamında, boş string değil).
func NewEnvelope(m *Message, body *string) Envelope {
	env := Envelope{
		ID:        m.ID,
		CreatedAt: m.CreatedAt,
		RoomID:    m.RoomID,
		SenderID:  m.SenderID,
		UserName:  UnknownUserName,
		Avatar:    UnknownUserAvatar,
		Message:   body,
		FileURL:   m.FileURL,
		VoiceURL:  m.VoiceURL,
		VideoURL:  m.VideoURL,
		ReplyTo:   m.ReplyTo,
		Edited:    m.Edited,
		Deleted:   m.Deleted,
		Vote:      m.Votes,
	}
	if m.SenderName != nil {
		env.UserName = *m.SenderName
	}
	if m.SenderAvatar != nil {
		env.Avatar = *m.SenderAvatar
	}
	if m.SenderVerified != nil {
		env.Verified = *m.SenderVerified
	}
	return env
}
