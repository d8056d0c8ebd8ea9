package keyring

import (
	"crypto/sha256"
	"encoding/base32"
	"encoding/binary"
	"encoding/hex"
	"hash/crc32"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
)

// DefaultSubaccount is the zero subaccount used for a wallet's primary
// account identifier.
var DefaultSubaccount [32]byte

// derPrefix is the SubjectPublicKeyInfo header for an uncompressed secp256k1
// point: SEQUENCE { SEQUENCE { OID ecPublicKey, OID secp256k1 }, BIT STRING }.
var derPrefix = []byte{
	0x30, 0x56, 0x30, 0x10, 0x06, 0x07, 0x2a, 0x86, 0x48, 0xce,
	0x3d, 0x02, 0x01, 0x06, 0x05, 0x2b, 0x81, 0x04, 0x00, 0x0a,
	0x03, 0x42, 0x00,
}

// selfAuthenticatingTag terminates the raw bytes of a principal derived from
// a public key.
const selfAuthenticatingTag = 0x02

// accountDomainSeparator prefixes the account-identifier hash input.
const accountDomainSeparator = "\x0Aaccount-id"

var b32 = base32.StdEncoding.WithPadding(base32.NoPadding)

// principalFromPublicKey hashes the DER-encoded public key into the raw
// self-authenticating principal bytes.
func principalFromPublicKey(pub *btcec.PublicKey) []byte {
	der := make([]byte, 0, len(derPrefix)+65)
	der = append(der, derPrefix...)
	der = append(der, pub.SerializeUncompressed()...)

	sum := sha256.Sum224(der)
	return append(sum[:], selfAuthenticatingTag)
}

// EncodePrincipal renders raw principal bytes in text form: a big-endian
// CRC-32 of the payload, then the payload, base32 without padding, lower
// case, grouped in fives with dashes.
func EncodePrincipal(raw []byte) string {
	buf := make([]byte, 4+len(raw))
	binary.BigEndian.PutUint32(buf, crc32Checksum(raw))
	copy(buf[4:], raw)

	s := strings.ToLower(b32.EncodeToString(buf))

	var grouped strings.Builder
	for i := 0; i < len(s); i += 5 {
		if i > 0 {
			grouped.WriteByte('-')
		}
		end := i + 5
		if end > len(s) {
			end = len(s)
		}
		grouped.WriteString(s[i:end])
	}
	return grouped.String()
}

// DecodePrincipal parses the text form back into raw principal bytes,
// verifying the checksum.
func DecodePrincipal(text string) ([]byte, bool) {
	compact := strings.ToUpper(strings.ReplaceAll(text, "-", ""))
	buf, err := b32.DecodeString(compact)
	if err != nil || len(buf) < 5 {
		return nil, false
	}
	raw := buf[4:]
	if binary.BigEndian.Uint32(buf) != crc32Checksum(raw) {
		return nil, false
	}
	return raw, true
}

// ValidPrincipal reports whether text is a well-formed principal.
func ValidPrincipal(text string) bool {
	_, ok := DecodePrincipal(text)
	return ok
}

// AccountIDFromPrincipal derives the account identifier for a principal and
// subaccount: SHA-224 over a domain separator, the principal bytes and the
// subaccount, prefixed with a CRC-32 of the digest, hex encoded.
func AccountIDFromPrincipal(principalRaw []byte, subaccount [32]byte) string {
	h := sha256.New224()
	h.Write([]byte(accountDomainSeparator))
	h.Write(principalRaw)
	h.Write(subaccount[:])
	sum := h.Sum(nil)

	out := make([]byte, 4+len(sum))
	binary.BigEndian.PutUint32(out, crc32Checksum(sum))
	copy(out[4:], sum)
	return hex.EncodeToString(out)
}

// AccountIDFromPrincipalText is AccountIDFromPrincipal for a principal in
// text form.
func AccountIDFromPrincipalText(principal string, subaccount [32]byte) (string, bool) {
	raw, ok := DecodePrincipal(principal)
	if !ok {
		return "", false
	}
	return AccountIDFromPrincipal(raw, subaccount), true
}

// ValidAccountID reports whether s is a well-formed account identifier:
// 64 hex characters whose leading CRC-32 matches the digest that follows.
func ValidAccountID(s string) bool {
	if len(s) != 64 {
		return false
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return false
	}
	return binary.BigEndian.Uint32(raw) == crc32Checksum(raw[4:])
}

func crc32Checksum(data []byte) uint32 {
	return crc32.ChecksumIEEE(data)
}
