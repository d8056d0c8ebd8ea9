// Package common defines shared constants and sentinel errors used across
// the wallet core. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Collection / repository errors.
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")

	// Crypto errors. ErrAuthentication covers both a wrong password and
	// corrupted ciphertext; the two cases are deliberately not distinguishable.
	ErrCrypto         = errors.New("crypto failure")
	ErrAuthentication = errors.New("authentication failed")

	// Key-recovery errors (distinct path from ErrCrypto: re-prompt, not fatal).
	ErrInvalidMnemonic   = errors.New("invalid mnemonic")
	ErrInvalidPrivateKey = errors.New("invalid private key")

	// Ledger-boundary errors.
	ErrOffline                = errors.New("ledger unreachable")
	ErrUnsupportedAddressKind = errors.New("unsupported address kind")
)
