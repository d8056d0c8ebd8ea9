// Package wallet implements the wallet collection and its persistence
// façade: encrypted keypair storage, per-wallet token and NFT collections,
// the address book, and counterparty classification against both.
package wallet

import (
	"encoding/json"
	"fmt"

	"github.com/tundrawallet/tundra/internal/common"
	"github.com/tundrawallet/tundra/internal/cryptobox"
	"github.com/tundrawallet/tundra/internal/keyring"
	"github.com/tundrawallet/tundra/internal/ledger"
)

// EncryptedSecret holds a wallet's secret material at rest. Private is
// always present; Mnemonic only for wallets created or imported from a
// phrase. Decrypted transiently in memory, never logged.
type EncryptedSecret struct {
	Private  *cryptobox.Blob `json:"private"`
	Mnemonic *cryptobox.Blob `json:"mnemonic,omitempty"`
}

// UnmarshalJSON accepts both the nested shape and the legacy flat shape
// where the record itself is a single private-key blob. Legacy records are
// migrated into the nested shape without altering salts or ciphertexts, so
// the original password still opens them.
func (s *EncryptedSecret) UnmarshalJSON(data []byte) error {
	type nested EncryptedSecret
	var n nested
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	if n.Private != nil || n.Mnemonic != nil {
		*s = EncryptedSecret(n)
		return nil
	}

	var legacy cryptobox.Blob
	if err := json.Unmarshal(data, &legacy); err != nil {
		return err
	}
	if len(legacy.Ciphertext) == 0 {
		return fmt.Errorf("%w: secret record has neither shape", common.ErrCrypto)
	}
	s.Private = &legacy
	s.Mnemonic = nil
	return nil
}

// Wallet is one derived keypair together with the assets bound to it. The
// JSON form is the persisted record; Principal and AccountID are re-derived
// from the public key on load and never stored.
type Wallet struct {
	Blockchain string                   `json:"blockchain"`
	Name       string                   `json:"name"`
	Public     string                   `json:"public"`
	Secret     EncryptedSecret          `json:"secret"`
	Tokens     map[string]*ledger.Token `json:"tokens"`
	NFTs       map[string]*ledger.NFT   `json:"nfts"`

	Principal string `json:"-"`
	AccountID string `json:"-"`
}

func newWallet(name string, kp *keyring.Keypair, phrase, password string) (*Wallet, error) {
	private, err := cryptobox.Encrypt([]byte(kp.PrivateKeyHex()), password)
	if err != nil {
		return nil, err
	}

	var mnemonic *cryptobox.Blob
	if phrase != "" {
		if mnemonic, err = cryptobox.Encrypt([]byte(phrase), password); err != nil {
			return nil, err
		}
	}

	return &Wallet{
		Blockchain: chainTag,
		Name:       name,
		Public:     kp.PublicKey,
		Secret:     EncryptedSecret{Private: private, Mnemonic: mnemonic},
		Tokens:     map[string]*ledger.Token{},
		NFTs:       map[string]*ledger.NFT{},
		Principal:  kp.Principal,
		AccountID:  kp.AccountID,
	}, nil
}

// hydrate re-derives the wallet's addresses from its stored public key and
// makes sure the collections are usable after a load of an older record.
func (w *Wallet) hydrate() error {
	principal, accountID, err := keyring.AddressesFromPublicKey(w.Public)
	if err != nil {
		return fmt.Errorf("wallet %q: %w", w.Name, err)
	}
	w.Principal = principal
	w.AccountID = accountID

	if w.Tokens == nil {
		w.Tokens = map[string]*ledger.Token{}
	}
	if w.NFTs == nil {
		w.NFTs = map[string]*ledger.NFT{}
	}
	return nil
}

// Unlock decrypts the wallet's private key with the given password and
// reconstructs the keypair. A wrong password surfaces as
// common.ErrAuthentication.
func (w *Wallet) Unlock(password string) (*keyring.Keypair, error) {
	raw, err := cryptobox.Decrypt(w.Secret.Private, password)
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(raw)
	return keyring.FromPrivateKey(string(raw))
}

// RevealMnemonic decrypts the stored recovery phrase. Wallets imported from
// a bare private key have none and return common.ErrNotFound.
func (w *Wallet) RevealMnemonic(password string) (string, error) {
	if w.Secret.Mnemonic == nil {
		return "", fmt.Errorf("%w: wallet has no stored phrase", common.ErrNotFound)
	}
	raw, err := cryptobox.Decrypt(w.Secret.Mnemonic, password)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// AddToken registers a fungible asset on the wallet. Adding a ledger id that
// is already registered signals common.ErrDuplicate and leaves the existing
// token untouched.
func (w *Wallet) AddToken(t *ledger.Token) error {
	if _, ok := w.Tokens[t.LedgerID]; ok {
		return fmt.Errorf("%w: token %s", common.ErrDuplicate, t.LedgerID)
	}
	w.Tokens[t.LedgerID] = t
	return nil
}

// Token looks up a registered token by ledger id.
func (w *Wallet) Token(ledgerID string) (*ledger.Token, bool) {
	t, ok := w.Tokens[ledgerID]
	return t, ok
}

// RemoveToken drops a registered token. Unknown ids signal
// common.ErrNotFound.
func (w *Wallet) RemoveToken(ledgerID string) error {
	if _, ok := w.Tokens[ledgerID]; !ok {
		return fmt.Errorf("%w: token %s", common.ErrNotFound, ledgerID)
	}
	delete(w.Tokens, ledgerID)
	return nil
}

// AddNFT registers a non-fungible item, keyed by its composite
// collection:id key. Same duplicate contract as AddToken.
func (w *Wallet) AddNFT(n *ledger.NFT) error {
	if _, ok := w.NFTs[n.Key()]; ok {
		return fmt.Errorf("%w: nft %s", common.ErrDuplicate, n.Key())
	}
	w.NFTs[n.Key()] = n
	return nil
}

// NFT looks up a registered item by its composite key.
func (w *Wallet) NFT(key string) (*ledger.NFT, bool) {
	n, ok := w.NFTs[key]
	return n, ok
}

// RemoveNFT drops a registered item, typically after IsOwner reported that
// it was transferred away through another client.
func (w *Wallet) RemoveNFT(key string) error {
	if _, ok := w.NFTs[key]; !ok {
		return fmt.Errorf("%w: nft %s", common.ErrNotFound, key)
	}
	delete(w.NFTs, key)
	return nil
}

// Addresses returns both address forms of the wallet, principal first.
func (w *Wallet) Addresses() []string {
	return []string{w.Principal, w.AccountID}
}
