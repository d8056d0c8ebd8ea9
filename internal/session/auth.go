package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tundrawallet/tundra/internal/common"
	"github.com/tundrawallet/tundra/internal/storage"
)

// KeyAuth is the well-known durable-store key holding the master-password
// salt/hash pair.
const KeyAuth = "auth"

// AuthRecord is the persisted master-password verifier: a random salt and
// the PBKDF2 hash over it. Never the plaintext.
type AuthRecord struct {
	Salt []byte `json:"salt"`
	Hash []byte `json:"hash"`
}

// Verify checks a password candidate against the record in constant time.
func (a *AuthRecord) Verify(password string) bool {
	return VerifyPassword(password, a.Salt, a.Hash)
}

// SetMasterPassword validates the password against the strength gate,
// derives a fresh salt/hash pair and persists it under KeyAuth.
func SetMasterPassword(ctx context.Context, store storage.Store, password string) (*AuthRecord, error) {
	if err := CheckStrength(password); err != nil {
		return nil, err
	}

	rec := &AuthRecord{Salt: common.GenerateRandByteArray(saltSize)}
	rec.Hash = HashPassword(password, rec.Salt)

	raw, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode auth record: %w", err)
	}
	if err := store.Set(ctx, map[string][]byte{KeyAuth: raw}); err != nil {
		return nil, fmt.Errorf("persist auth record: %w", err)
	}
	return rec, nil
}

// LoadAuth reads the persisted master-password record. Returns
// common.ErrNotFound when no master password has been set up yet.
func LoadAuth(ctx context.Context, store storage.Store) (*AuthRecord, error) {
	values, err := store.Get(ctx, KeyAuth)
	if err != nil {
		return nil, fmt.Errorf("read auth record: %w", err)
	}

	raw, ok := values[KeyAuth]
	if !ok {
		return nil, common.ErrNotFound
	}

	var rec AuthRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode auth record: %w", err)
	}
	return &rec, nil
}
