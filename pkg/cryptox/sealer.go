package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
)

// ErrUnseal is returned when sealed data is truncated, tampered with, or was
// sealed under a different secret.
var ErrUnseal = errors.New("cryptox: unable to open sealed value")

// sealSalt is fixed so the same secret derives the same key across restarts.
var sealSalt = []byte("quill/session-seal/v1")

// Sealer encrypts small values (bearer tokens) with AES-256-GCM before they
// are written to disk. Output is [12-byte nonce][ciphertext][16-byte tag],
// base64url encoded.
type Sealer struct {
	aead cipher.AEAD
}

// NewSealer derives an AES-256 key from secret with Argon2id.
func NewSealer(secret []byte) (*Sealer, error) {
	if len(secret) == 0 {
		return nil, errors.New("cryptox: empty sealing secret")
	}

	key := argon2.IDKey(secret, sealSalt, iterations, memory, parallelism, keyLength)
	return newSealer(key)
}

// NewEphemeralSealer uses a random key. Anything sealed is unreadable after
// the process exits, which is fine for development.
func NewEphemeralSealer() (*Sealer, error) {
	key := make([]byte, keyLength)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate sealing key: %w", err)
	}
	return newSealer(key)
}

func newSealer(key []byte) (*Sealer, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &Sealer{aead: gcm}, nil
}

// Seal encrypts plaintext. The empty string seals to the empty string so
// absent tokens stay absent.
func (s *Sealer) Seal(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	out := s.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.RawURLEncoding.EncodeToString(out), nil
}

// Open reverses Seal.
func (s *Sealer) Open(sealed string) (string, error) {
	if sealed == "" {
		return "", nil
	}

	data, err := base64.RawURLEncoding.DecodeString(sealed)
	if err != nil {
		return "", ErrUnseal
	}

	nonceSize := s.aead.NonceSize()
	if len(data) < nonceSize {
		return "", ErrUnseal
	}

	plaintext, err := s.aead.Open(nil, data[:nonceSize], data[nonceSize:], nil)
	if err != nil {
		return "", ErrUnseal
	}

	return string(plaintext), nil
}
