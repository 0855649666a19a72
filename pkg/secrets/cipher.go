// Package secrets encrypts gateway credential material at rest using
// AES-256-GCM. Ciphertext is serialized as "ivHex.tagHex.ctBase64" so rows can
// be inspected and migrated without binary columns.
package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
)

const (
	keyLen   = 32
	nonceLen = 12
	tagLen   = 16
)

// Cipher encrypts and decrypts credential strings under a single service key.
type Cipher struct {
	key []byte
}

// NewCipher parses a hex-encoded 32-byte key.
func NewCipher(keyHex string) (*Cipher, error) {
	key, err := hex.DecodeString(strings.TrimSpace(keyHex))
	if err != nil {
		return nil, fmt.Errorf("decoding encryption key: %w", err)
	}
	if len(key) != keyLen {
		return nil, fmt.Errorf("encryption key must be %d bytes, got %d", keyLen, len(key))
	}
	return &Cipher{key: key}, nil
}

// Encrypt seals plaintext and returns the serialized ciphertext. Empty input
// stays empty.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	gcm, err := c.aead()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, nonceLen)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generating nonce: %w", err)
	}

	sealed := gcm.Seal(nil, nonce, []byte(plaintext), nil)
	ct := sealed[:len(sealed)-tagLen]
	tag := sealed[len(sealed)-tagLen:]

	return fmt.Sprintf("%s.%s.%s",
		hex.EncodeToString(nonce),
		hex.EncodeToString(tag),
		base64.StdEncoding.EncodeToString(ct),
	), nil
}

// Decrypt opens serialized ciphertext. Values not in the three-part format are
// treated as legacy plaintext and returned unchanged.
func (c *Cipher) Decrypt(value string) (string, error) {
	if value == "" {
		return "", nil
	}

	parts := strings.Split(value, ".")
	if len(parts) != 3 {
		return value, nil
	}

	nonce, err := hex.DecodeString(parts[0])
	if err != nil || len(nonce) != nonceLen {
		return "", fmt.Errorf("malformed ciphertext nonce")
	}
	tag, err := hex.DecodeString(parts[1])
	if err != nil || len(tag) != tagLen {
		return "", fmt.Errorf("malformed ciphertext tag")
	}
	ct, err := base64.StdEncoding.DecodeString(parts[2])
	if err != nil {
		return "", fmt.Errorf("malformed ciphertext body")
	}

	gcm, err := c.aead()
	if err != nil {
		return "", err
	}

	plaintext, err := gcm.Open(nil, nonce, append(ct, tag...), nil)
	if err != nil {
		return "", fmt.Errorf("decrypting credential: %w", err)
	}
	return string(plaintext), nil
}

func (c *Cipher) aead() (cipher.AEAD, error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return nil, fmt.Errorf("initializing cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("initializing gcm: %w", err)
	}
	return gcm, nil
}
