package security

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/nacl/secretbox"
)

// ErrOpenFailed is returned when a sealed value cannot be authenticated
var ErrOpenFailed = errors.New("failed to open sealed value")

const nonceSize = 24

// Sealer encrypts values at rest with a key derived from a passphrase
type Sealer struct {
	key [32]byte
}

// NewSealer derives a secretbox key from secret using HKDF-SHA256
func NewSealer(secret string) (*Sealer, error) {
	if secret == "" {
		return nil, errors.New("storage secret is empty")
	}

	h := hkdf.New(sha256.New, []byte(secret), nil, []byte("nauczsie-local-storage"))
	s := &Sealer{}
	if _, err := io.ReadFull(h, s.key[:]); err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	return s, nil
}

// Seal encrypts plaintext and returns it base64 encoded with the nonce prepended
func (s *Sealer) Seal(plaintext string) (string, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	box := secretbox.Seal(nonce[:], []byte(plaintext), &nonce, &s.key)
	return base64.StdEncoding.EncodeToString(box), nil
}

// Open reverses Seal
func (s *Sealer) Open(sealed string) (string, error) {
	box, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrOpenFailed, err)
	}
	if len(box) < nonceSize+secretbox.Overhead {
		return "", fmt.Errorf("%w: ciphertext too short", ErrOpenFailed)
	}

	var nonce [nonceSize]byte
	copy(nonce[:], box[:nonceSize])
	plaintext, ok := secretbox.Open(nil, box[nonceSize:], &nonce, &s.key)
	if !ok {
		return "", ErrOpenFailed
	}
	return string(plaintext), nil
}
