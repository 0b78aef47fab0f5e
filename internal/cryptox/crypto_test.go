package cryptox

import (
	"bytes"
	"crypto/cipher"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/dmitrijs2005/mineralog/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Few iterations keep the suite fast; the count is a parameter, not a constant.
const testIterations = 1000

func TestDeriveKey_KnownVector(t *testing.T) {
	key := DeriveKey([]byte("password"), []byte("salt"), 1)
	expectedHex := "120fb6cffcf8b32c43e7225256c4f837a86548c92ccc35480805987cb70be17b"
	if hex.EncodeToString(key) != expectedHex {
		t.Errorf("expected %s, got %s", expectedHex, hex.EncodeToString(key))
	}
}

func TestDeriveKey_DifferentInputs(t *testing.T) {
	password := []byte("secret-password")

	key1 := DeriveKey(password, []byte("salt-1"), testIterations)
	key2 := DeriveKey(password, []byte("salt-2"), testIterations)
	key3 := DeriveKey(password, []byte("salt-1"), testIterations+1)

	if bytes.Equal(key1, key2) {
		t.Errorf("expected different results for different salts, got same")
	}
	if bytes.Equal(key1, key3) {
		t.Errorf("expected different results for different iteration counts, got same")
	}
	assert.Len(t, key1, KeySize)
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	payload := []byte(`[{"name":"Quartz","mohsMin":7}]`)
	password := []byte("correct horse")

	ct, p, err := Encrypt(payload, password, testIterations)
	require.NoError(t, err)

	assert.Len(t, p.Salt, SaltSize)
	assert.Len(t, p.Nonce, NonceSize)
	assert.Equal(t, testIterations, p.Iterations)
	assert.Len(t, ct, len(payload)+16, "ciphertext carries the 16-byte GCM tag")
	assert.NotContains(t, string(ct), "Quartz")

	pt, err := Decrypt(ct, password, p)
	require.NoError(t, err)
	assert.Equal(t, payload, pt)
}

func TestEncrypt_FreshSaltAndNoncePerCall(t *testing.T) {
	payload := []byte("same payload")
	password := []byte("same password")

	ct1, p1, err := Encrypt(payload, password, testIterations)
	require.NoError(t, err)
	ct2, p2, err := Encrypt(payload, password, testIterations)
	require.NoError(t, err)

	assert.NotEqual(t, p1.Salt, p2.Salt)
	assert.NotEqual(t, p1.Nonce, p2.Nonce)
	assert.NotEqual(t, ct1, ct2)
}

func TestDecrypt_WrongPassword(t *testing.T) {
	ct, p, err := Encrypt([]byte("payload"), []byte("right"), testIterations)
	require.NoError(t, err)

	_, err = Decrypt(ct, []byte("wrong"), p)
	assert.ErrorIs(t, err, common.ErrDecryptionFailed)
}

func TestDecrypt_TamperedCiphertext(t *testing.T) {
	ct, p, err := Encrypt([]byte("payload"), []byte("pw"), testIterations)
	require.NoError(t, err)

	ct[0] ^= 0xff
	_, err = Decrypt(ct, []byte("pw"), p)
	assert.ErrorIs(t, err, common.ErrDecryptionFailed)
}

func TestDecrypt_BadParams(t *testing.T) {
	ct, p, err := Encrypt([]byte("payload"), []byte("pw"), testIterations)
	require.NoError(t, err)

	bad := p
	bad.Iterations = 0
	_, err = Decrypt(ct, []byte("pw"), bad)
	assert.ErrorIs(t, err, common.ErrDecryptionFailed)

	bad = p
	bad.Nonce = bad.Nonce[:8]
	_, err = Decrypt(ct, []byte("pw"), bad)
	assert.ErrorIs(t, err, common.ErrDecryptionFailed)

	bad = p
	bad.Salt = nil
	_, err = Decrypt(ct, []byte("pw"), bad)
	assert.ErrorIs(t, err, common.ErrDecryptionFailed)
}

func TestEncrypt_Validation(t *testing.T) {
	_, _, err := Encrypt([]byte("x"), nil, testIterations)
	assert.ErrorIs(t, err, ErrEmptyPassword)

	_, _, err = Encrypt([]byte("x"), []byte("pw"), 0)
	assert.Error(t, err)

	_, err = Decrypt([]byte("x"), nil, Params{Iterations: 1, Salt: []byte("s"), Nonce: make([]byte, NonceSize)})
	assert.ErrorIs(t, err, ErrEmptyPassword)
}

func TestCheckCapability(t *testing.T) {
	require.NoError(t, CheckCapability())
}

func TestCheckCapability_Unavailable(t *testing.T) {
	old := newAEAD
	defer func() { newAEAD = old }()
	newAEAD = func([]byte) (cipher.AEAD, error) { return nil, errors.New("aes: not supported") }

	err := CheckCapability()
	require.ErrorIs(t, err, common.ErrMissingCapability)
	assert.Contains(t, err.Error(), "nocrypto")

	_, _, err = Encrypt([]byte("x"), []byte("pw"), 1)
	assert.ErrorIs(t, err, common.ErrMissingCapability)
}
