package cipher

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/pbkdf2"

	"invoicegrid/internal/config"
	"invoicegrid/internal/domain"
	"invoicegrid/internal/port"
)

const (
	keySize   = 32
	nonceSize = 24

	defaultIterations = 100000
)

type secretBoxCipher struct {
	key [keySize]byte
}

// NewFieldCipher derives a key from the configured passphrase and salt.
func NewFieldCipher(cfg config.CipherConfig) (port.FieldCipher, error) {
	if cfg.Passphrase == "" {
		return nil, domain.ErrCipherKeyMissing
	}
	iterations := cfg.Iterations
	if iterations <= 0 {
		iterations = defaultIterations
	}

	c := &secretBoxCipher{}
	copy(c.key[:], pbkdf2.Key([]byte(cfg.Passphrase), []byte(cfg.Salt), iterations, keySize, sha256.New))
	return c, nil
}

// Encrypt seals plaintext under a random nonce. Empty values stay empty.
func (c *secretBoxCipher) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("cipher.Encrypt: reading nonce: %w", err)
	}
	sealed := secretbox.Seal(nonce[:], []byte(plaintext), &nonce, &c.key)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt.
func (c *secretBoxCipher) Decrypt(token string) (string, error) {
	if token == "" {
		return "", nil
	}
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return "", fmt.Errorf("cipher.Decrypt: %w", domain.ErrDecryptFailed)
	}
	if len(raw) < nonceSize+secretbox.Overhead {
		return "", fmt.Errorf("cipher.Decrypt: token too short: %w", domain.ErrDecryptFailed)
	}
	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])
	plain, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, &c.key)
	if !ok {
		return "", fmt.Errorf("cipher.Decrypt: %w", domain.ErrDecryptFailed)
	}
	return string(plain), nil
}
