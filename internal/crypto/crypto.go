// Package crypto seals tenant credential bundles at rest with AES-256-GCM.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"

	"github.com/soochol/flowmart/internal/flowmart"
)

// Encryptor encrypts and decrypts secrets. The zero-key form stores plaintext,
// which is only meant for local development.
type Encryptor struct {
	gcm cipher.AEAD
}

// ParseKey decodes a configured key given as 64 hex characters or as base64
// of 32 bytes. An empty string yields a nil key.
func ParseKey(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	if key, err := hex.DecodeString(s); err == nil && len(key) == 32 {
		return key, nil
	}
	if key, err := base64.StdEncoding.DecodeString(s); err == nil && len(key) == 32 {
		return key, nil
	}
	return nil, fmt.Errorf("encryption key must be 32 bytes encoded as hex or base64")
}

// NewEncryptor creates an Encryptor with the given 32-byte key.
// An empty key returns a no-op encryptor.
func NewEncryptor(key []byte) (*Encryptor, error) {
	if len(key) == 0 {
		return &Encryptor{}, nil
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("encryption key must be 32 bytes, got %d", len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}
	return &Encryptor{gcm: gcm}, nil
}

// Encrypt returns base64(nonce || ciphertext).
func (e *Encryptor) Encrypt(plaintext string) (string, error) {
	if e.gcm == nil {
		return plaintext, nil
	}
	nonce := make([]byte, e.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	sealed := e.gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt.
func (e *Encryptor) Decrypt(ciphertext string) (string, error) {
	if e.gcm == nil {
		return ciphertext, nil
	}
	data, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("decode base64: %w", err)
	}
	nonceSize := e.gcm.NonceSize()
	if len(data) < nonceSize {
		return "", fmt.Errorf("ciphertext too short")
	}
	nonce, ct := data[:nonceSize], data[nonceSize:]
	plaintext, err := e.gcm.Open(nil, nonce, ct, nil)
	if err != nil {
		return "", fmt.Errorf("decrypt: %w", err)
	}
	return string(plaintext), nil
}

// SealBundle encodes a credential bundle as JSON and encrypts it.
func (e *Encryptor) SealBundle(b flowmart.Bundle) (string, error) {
	data, err := json.Marshal(b)
	if err != nil {
		return "", fmt.Errorf("encode bundle: %w", err)
	}
	return e.Encrypt(string(data))
}

// OpenBundle decrypts and decodes a sealed credential bundle.
func (e *Encryptor) OpenBundle(sealed string) (flowmart.Bundle, error) {
	plaintext, err := e.Decrypt(sealed)
	if err != nil {
		return nil, err
	}
	var b flowmart.Bundle
	if err := json.Unmarshal([]byte(plaintext), &b); err != nil {
		return nil, fmt.Errorf("decode bundle: %w", err)
	}
	if b == nil {
		b = flowmart.Bundle{}
	}
	return b, nil
}
