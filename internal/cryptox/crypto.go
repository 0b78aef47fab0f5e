// Package cryptox implements password-based authenticated encryption of the
// export payload: PBKDF2-HMAC-SHA256 key derivation and AES-256-GCM.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/mineralog/internal/common"
	"golang.org/x/crypto/pbkdf2"
)

const (
	SaltSize  = 16
	NonceSize = 12
	KeySize   = 32

	// DefaultIterations is the PBKDF2 work factor for new archives. Readers
	// take the count from the manifest, so raising it keeps old archives
	// readable.
	DefaultIterations = 100_000
)

var ErrEmptyPassword = errors.New("empty password")

// Params are the per-archive inputs needed to decrypt a payload.
type Params struct {
	Iterations int
	Salt       []byte
	Nonce      []byte
}

// newAEAD is a test seam for the AES-GCM constructor.
var newAEAD = func(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// DeriveKey stretches password with salt into a KeySize key.
func DeriveKey(password, salt []byte, iterations int) []byte {
	return pbkdf2.Key(password, salt, iterations, KeySize, sha256.New)
}

// Seal encrypts plaintext under key with the given nonce and empty
// associated data. The result is ciphertext followed by the GCM tag.
func Seal(plaintext, key, nonce []byte) ([]byte, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrMissingCapability, err)
	}
	if len(nonce) != aead.NonceSize() {
		return nil, fmt.Errorf("nonce must be %d bytes, got %d", aead.NonceSize(), len(nonce))
	}
	return aead.Seal(nil, nonce, plaintext, nil), nil
}

// Open reverses Seal. Any authentication failure is ErrDecryptionFailed.
func Open(ciphertext, key, nonce []byte) ([]byte, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrMissingCapability, err)
	}
	if len(nonce) != aead.NonceSize() {
		return nil, fmt.Errorf("%w: nonce must be %d bytes, got %d", common.ErrDecryptionFailed, aead.NonceSize(), len(nonce))
	}
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: wrong password or corrupted payload", common.ErrDecryptionFailed)
	}
	return plaintext, nil
}

// Encrypt derives a key from password with a fresh random salt and seals
// payload under a fresh random nonce. The derived key is wiped before return.
func Encrypt(payload, password []byte, iterations int) ([]byte, Params, error) {
	if len(password) == 0 {
		return nil, Params{}, ErrEmptyPassword
	}
	if iterations <= 0 {
		return nil, Params{}, fmt.Errorf("iterations must be positive, got %d", iterations)
	}

	salt, err := common.GenerateRandByteArray(SaltSize)
	if err != nil {
		return nil, Params{}, fmt.Errorf("salt: %w", err)
	}
	nonce, err := common.GenerateRandByteArray(NonceSize)
	if err != nil {
		return nil, Params{}, fmt.Errorf("nonce: %w", err)
	}

	key := DeriveKey(password, salt, iterations)
	defer common.WipeByteArray(key)

	ciphertext, err := Seal(payload, key, nonce)
	if err != nil {
		return nil, Params{}, err
	}
	return ciphertext, Params{Iterations: iterations, Salt: salt, Nonce: nonce}, nil
}

// Decrypt re-derives the key from password and p and opens ciphertext.
func Decrypt(ciphertext, password []byte, p Params) ([]byte, error) {
	if len(password) == 0 {
		return nil, ErrEmptyPassword
	}
	if p.Iterations <= 0 {
		return nil, fmt.Errorf("%w: iterations must be positive, got %d", common.ErrDecryptionFailed, p.Iterations)
	}
	if len(p.Salt) == 0 {
		return nil, fmt.Errorf("%w: missing salt", common.ErrDecryptionFailed)
	}

	key := DeriveKey(password, p.Salt, p.Iterations)
	defer common.WipeByteArray(key)

	return Open(ciphertext, key, p.Nonce)
}
