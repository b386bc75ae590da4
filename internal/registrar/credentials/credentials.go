// Package credentials seals registrar credentials at rest with NaCl secretbox.
package credentials

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
)

const (
	keySize   = 32
	nonceSize = 24
)

var (
	ErrInvalidKey = errors.New("credential key must be 32 bytes, base64 encoded")
	ErrOpen       = errors.New("credentials cannot be opened with this key")
)

// Sealer encrypts and decrypts credential documents. Sealed output is the
// random nonce followed by the secretbox.
type Sealer struct {
	key [keySize]byte
}

// NewSealer decodes a base64 (standard or URL alphabet) 32-byte key.
func NewSealer(encodedKey string) (*Sealer, error) {
	raw, err := base64.StdEncoding.DecodeString(encodedKey)
	if err != nil {
		raw, err = base64.URLEncoding.DecodeString(encodedKey)
	}
	if err != nil || len(raw) != keySize {
		return nil, ErrInvalidKey
	}
	s := &Sealer{}
	copy(s.key[:], raw)
	return s, nil
}

// GenerateKey returns a new random key in the encoding NewSealer accepts.
func GenerateKey() (string, error) {
	var k [keySize]byte
	if _, err := io.ReadFull(rand.Reader, k[:]); err != nil {
		return "", fmt.Errorf("generate key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(k[:]), nil
}

func (s *Sealer) Seal(plaintext []byte) ([]byte, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, fmt.Errorf("read nonce: %w", err)
	}
	return secretbox.Seal(nonce[:], plaintext, &nonce, &s.key), nil
}

func (s *Sealer) Open(sealed []byte) ([]byte, error) {
	if len(sealed) < nonceSize+secretbox.Overhead {
		return nil, ErrOpen
	}
	var nonce [nonceSize]byte
	copy(nonce[:], sealed[:nonceSize])
	out, ok := secretbox.Open(nil, sealed[nonceSize:], &nonce, &s.key)
	if !ok {
		return nil, ErrOpen
	}
	return out, nil
}

// SealJSON marshals v and seals it.
func (s *Sealer) SealJSON(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode credentials: %w", err)
	}
	return s.Seal(raw)
}

// OpenJSON opens sealed and unmarshals it into v.
func (s *Sealer) OpenJSON(sealed []byte, v any) error {
	raw, err := s.Open(sealed)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode credentials: %w", err)
	}
	return nil
}
