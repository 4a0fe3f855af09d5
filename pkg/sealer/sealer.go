package sealer

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// Sealer issues and opens opaque slot tokens. A token pins one suggested
// slot (resource, start, end) so a follow-up booking attempt can prove the
// slot came from a recommendation. Payloads are AES-GCM sealed with a key
// derived from the configured secret.
type Sealer struct {
	aead cipher.AEAD
	ttl  time.Duration
}

// SlotClaim is the sealed token payload.
type SlotClaim struct {
	ResourceID string    `json:"r"`
	StartTime  time.Time `json:"s"`
	EndTime    time.Time `json:"e"`
	IssuedAt   time.Time `json:"iat"`
}

// New builds a Sealer from a shared secret. Tokens older than ttl are
// rejected on open; ttl zero disables the age check.
func New(secret string, ttl time.Duration) (*Sealer, error) {
	if secret == "" {
		return nil, fmt.Errorf("sealer secret cannot be empty")
	}

	key := sha256.Sum256([]byte(secret))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	return &Sealer{aead: aead, ttl: ttl}, nil
}

// SealSlot encrypts a slot claim into a URL-safe token.
func (s *Sealer) SealSlot(resourceID string, start, end, now time.Time) (string, error) {
	claim := SlotClaim{
		ResourceID: resourceID,
		StartTime:  start.UTC(),
		EndTime:    end.UTC(),
		IssuedAt:   now.UTC(),
	}

	plaintext, err := json.Marshal(claim)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	ct := s.aead.Seal(nonce, nonce, plaintext, nil)
	return base64.RawURLEncoding.EncodeToString(ct), nil
}

// OpenSlot decrypts and validates a token. Tampered, malformed, or expired
// tokens return an error.
func (s *Sealer) OpenSlot(token string, now time.Time) (*SlotClaim, error) {
	data, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("invalid token encoding")
	}

	nonceSize := s.aead.NonceSize()
	if len(data) <= nonceSize {
		return nil, fmt.Errorf("token too short")
	}

	pt, err := s.aead.Open(nil, data[:nonceSize], data[nonceSize:], nil)
	if err != nil {
		return nil, fmt.Errorf("invalid token")
	}

	var claim SlotClaim
	if err := json.Unmarshal(pt, &claim); err != nil {
		return nil, fmt.Errorf("invalid token payload")
	}

	if s.ttl > 0 && now.Sub(claim.IssuedAt) > s.ttl {
		return nil, fmt.Errorf("token expired")
	}

	return &claim, nil
}
