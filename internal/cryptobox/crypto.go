// Package cryptobox implements password-derived symmetric encryption of
// secret material: PBKDF2-SHA256 key derivation over a per-blob salt,
// AES-256-GCM for the payload itself.
//
// Every Encrypt call generates a fresh salt and IV, so encrypting the same
// plaintext twice never produces the same blob. Decrypt collapses a wrong
// password and corrupted data into the single common.ErrAuthentication:
// callers must not be able to tell the two apart.
package cryptobox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/json"
	"fmt"

	"github.com/tundrawallet/tundra/internal/common"
	"golang.org/x/crypto/pbkdf2"
)

const (
	// Iterations is the PBKDF2 iteration count. Fixed: changing it breaks
	// decryption of every previously stored blob.
	Iterations = 100000

	saltSize = 16
	ivSize   = 12
	keySize  = 32
)

// Blob is an encrypted secret at rest. The three fields are always
// co-present; JSON encoding renders each as base64, so a Blob round-trips
// through any text-safe store.
type Blob struct {
	Ciphertext []byte `json:"ciphertext"`
	IV         []byte `json:"iv"`
	Salt       []byte `json:"salt"`
}

// DeriveKey derives the AES key for a given password and salt.
func DeriveKey(password string, salt []byte) []byte {
	return pbkdf2.Key([]byte(password), salt, Iterations, keySize, sha256.New)
}

// Encrypt seals plaintext under a key derived from password. A fresh random
// salt and IV are generated per call.
func Encrypt(plaintext []byte, password string) (*Blob, error) {
	salt := common.GenerateRandByteArray(saltSize)
	iv := common.GenerateRandByteArray(ivSize)

	key := DeriveKey(password, salt)
	defer common.WipeByteArray(key)

	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	ciphertext := aesgcm.Seal(nil, iv, plaintext, nil)
	return &Blob{Ciphertext: ciphertext, IV: iv, Salt: salt}, nil
}

// Decrypt re-derives the key from the blob's salt and the given password and
// opens the ciphertext. Returns common.ErrAuthentication when the GCM tag
// check fails, whatever the cause.
func Decrypt(b *Blob, password string) ([]byte, error) {
	if b == nil || len(b.Ciphertext) == 0 || len(b.IV) == 0 || len(b.Salt) == 0 {
		return nil, fmt.Errorf("%w: incomplete blob", common.ErrCrypto)
	}

	key := DeriveKey(password, b.Salt)
	defer common.WipeByteArray(key)

	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	plaintext, err := aesgcm.Open(nil, b.IV, b.Ciphertext, nil)
	if err != nil {
		return nil, common.ErrAuthentication
	}
	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrCrypto, err)
	}
	aesgcm, err := cipher.NewGCMWithNonceSize(block, ivSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrCrypto, err)
	}
	return aesgcm, nil
}

// Serialize encodes the blob to its storage form. Pure and lossless;
// Deserialize inverts it exactly.
func (b *Blob) Serialize() ([]byte, error) {
	return json.Marshal(b)
}

// Deserialize decodes a blob previously produced by Serialize.
func Deserialize(data []byte) (*Blob, error) {
	var b Blob
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrCrypto, err)
	}
	return &b, nil
}
