package cryptox

import (
	"bytes"
	"fmt"

	"github.com/dmitrijs2005/mineralog/internal/common"
)

const remediation = "rebuild mineralog without the nocrypto build tag to enable --encrypt"

// CheckCapability confirms that key derivation and AES-GCM work in this
// binary. It must be called before any output is written.
func CheckCapability() error {
	if !compiledIn {
		return fmt.Errorf("%w: binary built without encryption support; %s", common.ErrMissingCapability, remediation)
	}

	key := DeriveKey([]byte("probe"), make([]byte, SaltSize), 1)
	nonce := make([]byte, NonceSize)
	probe := []byte("mineralog")

	sealed, err := Seal(probe, key, nonce)
	if err != nil {
		return fmt.Errorf("%w; %s", err, remediation)
	}
	opened, err := Open(sealed, key, nonce)
	if err != nil || !bytes.Equal(opened, probe) {
		return fmt.Errorf("%w: AES-GCM self-test failed; %s", common.ErrMissingCapability, remediation)
	}
	return nil
}
