package pgp

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"

	"github.com/kpcyrd/spotify-launcher/internal/logger"
)

var armorPrefix = []byte("-----BEGIN PGP")

// Native verifies signatures in process. Keyring and signature may be
// ASCII armored or binary.
type Native struct{}

// Verify checks signature over artifact with the keys in the keyring file.
func (n *Native) Verify(ctx context.Context, signature, artifact []byte, keyring string) error {
	data, err := os.ReadFile(filepath.Clean(keyring))
	if err != nil {
		return fmt.Errorf("%w: read keyring: %w", ErrSignatureInvalid, err)
	}

	keys, err := readKeyRing(data)
	if err != nil {
		return fmt.Errorf("%w: parse keyring %s: %w", ErrSignatureInvalid, keyring, err)
	}

	sig, err := dearmor(signature)
	if err != nil {
		return fmt.Errorf("%w: decode signature: %w", ErrSignatureInvalid, err)
	}

	signer, err := openpgp.CheckDetachedSignature(keys, bytes.NewReader(artifact), sig, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSignatureInvalid, err)
	}

	if signer != nil && signer.PrimaryKey != nil {
		logger.DebugKV(ctx, "Signature verified", "key", signer.PrimaryKey.KeyIdString())
	}

	return nil
}

func isArmored(data []byte) bool {
	return bytes.HasPrefix(bytes.TrimSpace(data), armorPrefix)
}

func readKeyRing(data []byte) (openpgp.EntityList, error) {
	if isArmored(data) {
		return openpgp.ReadArmoredKeyRing(bytes.NewReader(data))
	}

	return openpgp.ReadKeyRing(bytes.NewReader(data))
}

func dearmor(data []byte) (io.Reader, error) {
	if !isArmored(data) {
		return bytes.NewReader(data), nil
	}

	block, err := armor.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	return block.Body, nil
}
