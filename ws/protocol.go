package ws

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Nevojt/company-chat/pkg"
)

// ErrInvalidFrame, çözülemeyen veya şemaya uymayan inbound frame.
// pkg.ErrPolicyBlocked'ı sarar; client'a özel bir notice ile reddedilir.
var ErrInvalidFrame = fmt.Errorf("%w: invalid frame", pkg.ErrPolicyBlocked)

// FrameKind, inbound frame'in discriminant anahtarı.
type FrameKind string

const (
	FrameTyping FrameKind = "type"
	FrameLimit  FrameKind = "limit"
	FrameVote   FrameKind = "vote"
	FrameUpdate FrameKind = "update"
	FrameDelete FrameKind = "delete"
	FrameSend   FrameKind = "send"
)

// frameOrder, birden fazla anahtar varsa hangisinin kazanacağını belirler.
var frameOrder = []FrameKind{FrameTyping, FrameLimit, FrameVote, FrameUpdate, FrameDelete, FrameSend}

// VoteRequest, {"vote": {"message_id": 7, "dir": 1}}.
type VoteRequest struct {
	MessageID int64 `json:"message_id"`
	Dir       int   `json:"dir"`
}

// UpdateRequest, {"update": {"id": 7, "message": "yeni metin"}}.
type UpdateRequest struct {
	ID      int64   `json:"id"`
	Message *string `json:"message"`
}

// DeleteRequest, {"delete": {"id": 7}}.
type DeleteRequest struct {
	ID int64 `json:"id"`
}

// SendRequest, {"send": {...}}. Metin veya en az bir medya URL'i zorunlu.
type SendRequest struct {
	ReplyTo  *int64  `json:"original_message_id"`
	Message  *string `json:"message"`
	FileURL  *string `json:"fileUrl"`
	VoiceURL *string `json:"voiceUrl"`
	VideoURL *string `json:"videoUrl"`
}

// Inbound, decode edilmiş tagged union. Kind'a karşılık gelen tek alan doludur.
type Inbound struct {
	Kind   FrameKind
	Limit  int
	Vote   *VoteRequest
	Update *UpdateRequest
	Delete *DeleteRequest
	Send   *SendRequest
}

// DecodeInbound, ham frame'i discriminant anahtara göre çözer ve doğrular.
//
// Frame bir JSON objesi olmalı ve bilinen anahtarlardan en az birini
// içermeli; birden fazlası varsa frameOrder sırasındaki ilki kazanır.
// Bilinmeyen veya bozuk frame'ler ErrInvalidFrame ile reddedilir.
func DecodeInbound(raw []byte) (*Inbound, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return nil, fmt.Errorf("%w: not a JSON object", ErrInvalidFrame)
	}

	for _, kind := range frameOrder {
		body, ok := fields[string(kind)]
		if !ok {
			continue
		}
		in, err := decodeVariant(kind, body)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidFrame, kind, err)
		}
		return in, nil
	}

	return nil, fmt.Errorf("%w: unknown frame", ErrInvalidFrame)
}

func decodeVariant(kind FrameKind, body json.RawMessage) (*Inbound, error) {
	in := &Inbound{Kind: kind}

	switch kind {
	case FrameTyping:
		// Typing değeri ne olursa olsun sadece bir sinyal.
		return in, nil

	case FrameLimit:
		if err := strictDecode(body, &in.Limit); err != nil {
			return nil, err
		}
		if in.Limit < 1 {
			return nil, errors.New("limit must be positive")
		}

	case FrameVote:
		in.Vote = &VoteRequest{}
		if err := strictDecode(body, in.Vote); err != nil {
			return nil, err
		}
		if in.Vote.MessageID <= 0 {
			return nil, errors.New("message_id is required")
		}

	case FrameUpdate:
		in.Update = &UpdateRequest{}
		if err := strictDecode(body, in.Update); err != nil {
			return nil, err
		}
		if in.Update.ID <= 0 {
			return nil, errors.New("id is required")
		}
		if in.Update.Message == nil || strings.TrimSpace(*in.Update.Message) == "" {
			return nil, errors.New("message is required")
		}

	case FrameDelete:
		in.Delete = &DeleteRequest{}
		if err := strictDecode(body, in.Delete); err != nil {
			return nil, err
		}
		if in.Delete.ID <= 0 {
			return nil, errors.New("id is required")
		}

	case FrameSend:
		in.Send = &SendRequest{}
		if err := strictDecode(body, in.Send); err != nil {
			return nil, err
		}
		if !in.Send.hasContent() {
			return nil, errors.New("message or media url is required")
		}
	}

	return in, nil
}

// strictDecode, null gövdeyi reddeder; json.Unmarshal null'u sessizce kabul eder.
func strictDecode(body json.RawMessage, dst any) error {
	if bytes.Equal(bytes.TrimSpace(body), []byte("null")) {
		return errors.New("body is null")
	}
	return json.Unmarshal(body, dst)
}

func (s *SendRequest) hasContent() bool {
	nonEmpty := func(p *string) bool { return p != nil && strings.TrimSpace(*p) != "" }
	return nonEmpty(s.Message) || nonEmpty(s.FileURL) || nonEmpty(s.VoiceURL) || nonEmpty(s.VideoURL)
}
