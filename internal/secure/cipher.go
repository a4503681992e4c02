package secure

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
)

// Cipher encrypts secrets at rest (deposit account numbers) and derives a
// keyed fingerprint for constant-time equality lookups without decryption.
type Cipher struct {
	aead           cipher.AEAD
	fingerprintKey []byte
}

// NewCipher builds a Cipher from the AES key and the fingerprint HMAC key.
// The AES key must be 16, 24 or 32 bytes.
func NewCipher(aesKey, fingerprintKey string) (*Cipher, error) {
	block, err := aes.NewCipher([]byte(aesKey))
	if err != nil {
		return nil, fmt.Errorf("failed to build cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to build GCM: %w", err)
	}
	return &Cipher{aead: aead, fingerprintKey: []byte(fingerprintKey)}, nil
}

// Encrypt returns base64(nonce || ciphertext).
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to read nonce: %w", err)
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt.
func (c *Cipher) Decrypt(encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("failed to decode ciphertext: %w", err)
	}
	if len(raw) < c.aead.NonceSize() {
		return "", fmt.Errorf("ciphertext too short")
	}
	nonce, sealed := raw[:c.aead.NonceSize()], raw[c.aead.NonceSize():]
	plain, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt: %w", err)
	}
	return string(plain), nil
}

// Fingerprint returns a deterministic keyed hash of the value. Equal inputs
// produce equal fingerprints, so the column can carry a unique index.
func (c *Cipher) Fingerprint(value string) string {
	mac := hmac.New(sha256.New, c.fingerprintKey)
	mac.Write([]byte(value))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
