package keyring

import (
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/tundrawallet/tundra/internal/common"
	bip39 "github.com/tyler-smith/go-bip39"
)

// BIP-44 path components: m/44'/223'/0'/0/0. Fixed: the same phrase must
// always resolve to the same keypair and addresses.
const (
	purpose      = 44
	coinType     = 223
	account      = 0
	change       = 0
	addressIndex = 0
)

// Keypair is a derived secp256k1 key together with the identifiers the rest
// of the wallet works with. The private key itself stays unexported; callers
// that need the raw bytes go through PrivateKeyHex.
type Keypair struct {
	priv *btcec.PrivateKey

	// PublicKey is the uncompressed SEC1 point, hex encoded. It is the
	// primary key of a wallet within a collection.
	PublicKey string

	// Principal is the self-authenticating principal derived from the
	// public key, in dash-grouped text form.
	Principal string

	// AccountID is the default (zero-subaccount) account identifier,
	// hex encoded with its checksum prefix.
	AccountID string
}

// PrivateKeyHex returns the 32-byte private scalar, hex encoded. Callers are
// expected to encrypt the result immediately and drop the plaintext.
func (k *Keypair) PrivateKeyHex() string {
	return hex.EncodeToString(k.priv.Serialize())
}

// Signer exposes the underlying private key for signing remote calls.
func (k *Keypair) Signer() *btcec.PrivateKey {
	return k.priv
}

// FromPhrase recovers the keypair for a BIP-39 phrase. Phrases that fail the
// checksum are rejected with common.ErrInvalidMnemonic; an invalid phrase is
// never silently turned into a fresh wallet.
func FromPhrase(phrase string) (*Keypair, error) {
	phrase = NormalizePhrase(phrase)
	if !bip39.IsMnemonicValid(phrase) {
		return nil, common.ErrInvalidMnemonic
	}

	seed := bip39.NewSeed(phrase, "")
	defer common.WipeByteArray(seed)

	master, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, fmt.Errorf("%w: master key: %v", common.ErrCrypto, err)
	}

	// m / 44' / 223' / 0' / 0 / 0
	path := []uint32{
		hdkeychain.HardenedKeyStart + purpose,
		hdkeychain.HardenedKeyStart + coinType,
		hdkeychain.HardenedKeyStart + account,
		change,
		addressIndex,
	}

	key := master
	for _, step := range path {
		key, err = key.Derive(step)
		if err != nil {
			return nil, fmt.Errorf("%w: derive step %d: %v", common.ErrCrypto, step, err)
		}
	}

	priv, err := key.ECPrivKey()
	if err != nil {
		return nil, fmt.Errorf("%w: ec key: %v", common.ErrCrypto, err)
	}

	return newKeypair(priv), nil
}

// FromPrivateKey builds a keypair from a raw private key given as hex text.
func FromPrivateKey(hexKey string) (*Keypair, error) {
	raw, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("%w: not hex", common.ErrInvalidPrivateKey)
	}
	return FromPrivateKeyBytes(raw)
}

// FromPrivateKeyBytes builds a keypair from the raw 32-byte private scalar.
func FromPrivateKeyBytes(raw []byte) (*Keypair, error) {
	if len(raw) != 32 {
		return nil, fmt.Errorf("%w: want 32 bytes, got %d", common.ErrInvalidPrivateKey, len(raw))
	}
	priv, _ := btcec.PrivKeyFromBytes(raw)
	return newKeypair(priv), nil
}

func newKeypair(priv *btcec.PrivateKey) *Keypair {
	pub := priv.PubKey()
	principalRaw := principalFromPublicKey(pub)

	return &Keypair{
		priv:      priv,
		PublicKey: hex.EncodeToString(pub.SerializeUncompressed()),
		Principal: EncodePrincipal(principalRaw),
		AccountID: AccountIDFromPrincipal(principalRaw, DefaultSubaccount),
	}
}

// AddressesFromPublicKey re-derives the principal and account identifier for
// a stored public key (uncompressed SEC1, hex). Used when loading persisted
// wallets, which keep only the public key.
func AddressesFromPublicKey(publicKeyHex string) (principal, accountID string, err error) {
	raw, err := hex.DecodeString(publicKeyHex)
	if err != nil {
		return "", "", fmt.Errorf("%w: public key not hex", common.ErrCrypto)
	}
	pub, err := btcec.ParsePubKey(raw)
	if err != nil {
		return "", "", fmt.Errorf("%w: public key: %v", common.ErrCrypto, err)
	}
	principalRaw := principalFromPublicKey(pub)
	return EncodePrincipal(principalRaw), AccountIDFromPrincipal(principalRaw, DefaultSubaccount), nil
}
