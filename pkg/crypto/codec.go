// Package crypto: mesaj gövdelerinin at-rest şifrelenmesi (AES-256-GCM).
//
// Mesaj metni veritabanına yazılmadan önce şifrelenir, okunduktan sonra
// çözülür. Saklanan değer bir "envelope" string'idir:
//
//	enc1.<base64url(nonce || ciphertext || tag)>
//
// Decrypt önce yapısal bir sınıflandırma yapar: envelope şeklinde olmayan
// değerler (eski plaintext satırlar) olduğu gibi döner. Envelope şeklinde ama
// doğrulanamayan değerler (yanlış key, bozuk veri) nil döner ve loglanır ,
// çağıran taraf nil gövdeyi "okunamıyor" olarak ele almalıdır, boş string değil.
//
// Key süreç boyunca sabittir; key rotasyonu eski mesajları okunamaz yapar.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"strings"

	"golang.org/x/crypto/hkdf"
)

const (
	envelopePrefix = "enc1."
	keySize        = 32
	nonceSize      = 12
	tagSize        = 16
)

// hkdfInfo, serbest metin secret'tan key türetirken kullanılan bağlam etiketi.
var hkdfInfo = []byte("company-chat message codec v1")

// DeriveKey, config'teki secret'tan 32-byte AES-256 anahtarı üretir.
//
// 64 hex karakter verilirse doğrudan ham key olarak kullanılır.
// Diğer her değer HKDF-SHA256 ile 32 byte'a genişletilir.
func DeriveKey(secret string) ([]byte, error) {
	if secret == "" {
		return nil, fmt.Errorf("crypto key is empty")
	}

	if len(secret) == keySize*2 {
		if key, err := hex.DecodeString(secret); err == nil {
			return key, nil
		}
	}

	key := make([]byte, keySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, hkdfInfo), key); err != nil {
		return nil, fmt.Errorf("hkdf derive: %w", err)
	}
	return key, nil
}

// Codec, mesaj gövdelerini şifreleyip çözen process-wide yapı.
// cipher.AEAD goroutine-safe'dir; tek bir Codec tüm bağlantılarca paylaşılır.
type Codec struct {
	aead cipher.AEAD
}

// NewCodec, 32-byte key ile yeni bir Codec oluşturur.
func NewCodec(key []byte) (*Codec, error) {
	if len(key) != keySize {
		return nil, fmt.Errorf("key must be exactly %d bytes, got %d", keySize, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cipher.NewGCM: %w", err)
	}

	return &Codec{aead: aead}, nil
}

// Encrypt, plaintext'i envelope'a çevirir. nil girdi nil döner
// (sadece medya içeren mesajlar).
func (c *Codec) Encrypt(plaintext *string) (*string, error) {
	if plaintext == nil {
		return nil, nil
	}

	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("nonce generation: %w", err)
	}

	// Seal, nonce'u prefix olarak taşıyan tek bir byte dizisi üretir.
	sealed := c.aead.Seal(nonce, nonce, []byte(*plaintext), nil)

	envelope := envelopePrefix + base64.RawURLEncoding.EncodeToString(sealed)
	return &envelope, nil
}

// Decrypt, saklanan değeri çözer.
//
//   - envelope değilse → değer aynen döner (legacy plaintext)
//   - envelope ama doğrulama başarısız → nil (loglanır)
func (c *Codec) Decrypt(stored string) *string {
	raw, ok := parseEnvelope(stored)
	if !ok {
		return &stored
	}

	nonce, sealed := raw[:nonceSize], raw[nonceSize:]
	plaintext, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		log.Printf("[crypto] failed to decrypt message body (wrong key or corrupted data): %v", err)
		return nil
	}

	out := string(plaintext)
	return &out
}

// IsEnvelope, değerin yapısal olarak bir envelope olup olmadığını söyler.
// Kriptografik bir kontrol değildir.
func IsEnvelope(s string) bool {
	_, ok := parseEnvelope(s)
	return ok
}

func parseEnvelope(s string) ([]byte, bool) {
	if !strings.HasPrefix(s, envelopePrefix) {
		return nil, false
	}

	raw, err := base64.RawURLEncoding.DecodeString(s[len(envelopePrefix):])
	if err != nil || len(raw) < nonceSize+tagSize {
		return nil, false
	}
	return raw, true
}
