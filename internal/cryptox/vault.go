// Package cryptox implements the credential vault: at-rest symmetric
// encryption of small secrets using AES-256-GCM. No other package in the
// project encrypts or decrypts anything.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/avidalm/iptvgate/internal/common"
)

// KeySize is the required key length in bytes. Anything else is a
// configuration error at construction time, never a per-call error.
const KeySize = 32

// Vault encrypts and decrypts small plaintext secrets with a fixed
// process-wide key. A fresh random nonce is generated for every Encrypt
// call, so encrypting the same plaintext twice yields different tokens.
type Vault struct {
	aead cipher.AEAD
}

// NewVault builds a Vault from a key of exactly KeySize bytes.
func NewVault(key []byte) (*Vault, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: key must be exactly %d bytes, got %d", common.ErrCrypto, KeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrCrypto, err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrCrypto, err)
	}
	return &Vault{aead: aead}, nil
}

// Encrypt seals plaintext and returns a token of the form
// "hex(nonce):hex(ciphertext)".
func (v *Vault) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", fmt.Errorf("%w: plaintext must not be empty", common.ErrCrypto)
	}
	nonce := common.GenerateRandByteArray(v.aead.NonceSize())
	ciphertext := v.aead.Seal(nil, nonce, []byte(plaintext), nil)
	return hex.EncodeToString(nonce) + ":" + hex.EncodeToString(ciphertext), nil
}

// Decrypt reverses Encrypt byte-for-byte or fails closed with ErrCrypto:
// wrong segment count, bad hex, wrong nonce length, or a failed
// authentication check all map to the same sentinel.
func (v *Vault) Decrypt(token string) (string, error) {
	parts := strings.Split(token, ":")
	if len(parts) != 2 {
		return "", fmt.Errorf("%w: invalid token format", common.ErrCrypto)
	}
	nonce, err := hex.DecodeString(parts[0])
	if err != nil || len(nonce) != v.aead.NonceSize() {
		return "", fmt.Errorf("%w: invalid nonce segment", common.ErrCrypto)
	}
	ciphertext, err := hex.DecodeString(parts[1])
	if err != nil {
		return "", fmt.Errorf("%w: invalid ciphertext segment", common.ErrCrypto)
	}
	plaintext, err := v.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("%w: authentication failed", common.ErrCrypto)
	}
	return string(plaintext), nil
}
