// Package keyring implements key derivation for the wallet: BIP-39 mnemonic
// generation and recovery, BIP-44 secp256k1 keypair derivation, and the two
// chain address encodings (principal and account identifier) computed from
// the public key.
package keyring

import (
	"fmt"
	"strings"

	"github.com/tundrawallet/tundra/internal/common"
	bip39 "github.com/tyler-smith/go-bip39"
)

// entropyBits yields a 12-word phrase.
const entropyBits = 128

// NewMnemonic generates a fresh 12-word BIP-39 phrase from CSPRNG entropy.
// The result is validated against the BIP-39 checksum before being returned;
// a failed self-check means the entropy source or the encoder is broken and
// is reported as a crypto failure.
func NewMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(entropyBits)
	if err != nil {
		return "", fmt.Errorf("%w: entropy: %v", common.ErrCrypto, err)
	}

	phrase, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("%w: mnemonic: %v", common.ErrCrypto, err)
	}

	if !bip39.IsMnemonicValid(phrase) {
		return "", fmt.Errorf("%w: generated phrase failed checksum self-check", common.ErrCrypto)
	}
	return phrase, nil
}

// NormalizePhrase trims and collapses whitespace so a phrase pasted with
// stray spaces or line breaks still validates.
func NormalizePhrase(phrase string) string {
	return strings.Join(strings.Fields(phrase), " ")
}

// ValidPhrase reports whether phrase passes the BIP-39 checksum.
func ValidPhrase(phrase string) bool {
	return bip39.IsMnemonicValid(NormalizePhrase(phrase))
}
