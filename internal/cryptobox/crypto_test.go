package cryptobox

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tundrawallet/tundra/internal/common"
)

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		plaintext string
		password  string
	}{
		{"short", "abc", "Str0ng!Pass"},
		{"long", "a mnemonic phrase with twelve words inside of it goes here", "p@ssw0rD!"},
		{"binary-ish", "\x00\x01\xff payload", "пароль-Unicode1!"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			blob, err := Encrypt([]byte(tc.plaintext), tc.password)
			require.NoError(t, err)

			got, err := Decrypt(blob, tc.password)
			require.NoError(t, err)
			require.Equal(t, tc.plaintext, string(got))
		})
	}
}

func TestEncrypt_FreshSaltAndIVPerCall(t *testing.T) {
	t.Parallel()

	a, err := Encrypt([]byte("abc"), "Str0ng!Pass")
	require.NoError(t, err)
	b, err := Encrypt([]byte("abc"), "Str0ng!Pass")
	require.NoError(t, err)

	require.False(t, bytes.Equal(a.Salt, b.Salt), "salt must be fresh per call")
	require.False(t, bytes.Equal(a.IV, b.IV), "iv must be fresh per call")
	require.False(t, bytes.Equal(a.Ciphertext, b.Ciphertext))

	require.Len(t, a.Salt, saltSize)
	require.Len(t, a.IV, ivSize)
}

func TestDecrypt_WrongPassword(t *testing.T) {
	t.Parallel()

	blob, err := Encrypt([]byte("abc"), "Str0ng!Pass")
	require.NoError(t, err)

	_, err = Decrypt(blob, "WrongPass")
	require.ErrorIs(t, err, common.ErrAuthentication)
}

func TestDecrypt_CorruptedCiphertext(t *testing.T) {
	t.Parallel()

	blob, err := Encrypt([]byte("abc"), "Str0ng!Pass")
	require.NoError(t, err)

	blob.Ciphertext[0] ^= 0xff
	_, err = Decrypt(blob, "Str0ng!Pass")

	// Indistinguishable from the wrong-password case.
	require.ErrorIs(t, err, common.ErrAuthentication)
}

func TestDecrypt_IncompleteBlob(t *testing.T) {
	t.Parallel()

	_, err := Decrypt(nil, "pw")
	require.ErrorIs(t, err, common.ErrCrypto)

	_, err = Decrypt(&Blob{Ciphertext: []byte{1}}, "pw")
	require.ErrorIs(t, err, common.ErrCrypto)
	require.False(t, errors.Is(err, common.ErrAuthentication))
}

func TestSerialize_RoundTrip(t *testing.T) {
	t.Parallel()

	blob, err := Encrypt([]byte("secret material"), "Str0ng!Pass")
	require.NoError(t, err)

	data, err := blob.Serialize()
	require.NoError(t, err)

	got, err := Deserialize(data)
	require.NoError(t, err)
	require.Equal(t, blob, got)

	// The storage form is text-safe.
	require.NotContains(t, string(data), "\x00")
}

func TestDeriveKey_Deterministic(t *testing.T) {
	t.Parallel()

	salt := []byte("fixed-salt-16byt")
	k1 := DeriveKey("secret-password", salt)
	k2 := DeriveKey("secret-password", salt)
	require.Equal(t, k1, k2)

	k3 := DeriveKey("secret-password", []byte("other-salt-16byt"))
	require.NotEqual(t, k1, k3)
}
