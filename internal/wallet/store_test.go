package wallet

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tundrawallet/tundra/internal/common"
	"github.com/tundrawallet/tundra/internal/cryptobox"
	"github.com/tundrawallet/tundra/internal/ledger"
	"github.com/tundrawallet/tundra/internal/storage"
)

func newTestStore(t *testing.T) (*Store, *storage.Memory) {
	t.Helper()
	mem := storage.NewMemory()
	s := NewStore(mem, nil)
	require.NoError(t, s.Load(context.Background()))
	return s, mem
}

func TestStore_ImportPhraseAndReload(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s, mem := newTestStore(t)
	w, err := s.ImportPhrase(ctx, "main", testPhrase, testPassword)
	require.NoError(t, err)
	require.NotEmpty(t, w.Principal)
	require.NotEmpty(t, w.AccountID)

	// A fresh store over the same collaborator sees the wallet with its
	// addresses re-derived from the stored public key.
	reloaded := NewStore(mem, nil)
	require.NoError(t, reloaded.Load(ctx))

	got, ok := reloaded.Wallet(w.Public)
	require.True(t, ok)
	assert.Equal(t, w.Principal, got.Principal)
	assert.Equal(t, w.AccountID, got.AccountID)
	assert.Equal(t, "main", got.Name)

	unlocked, err := got.Unlock(testPassword)
	require.NoError(t, err)
	assert.Equal(t, w.Public, unlocked.PublicKey)
}

func TestStore_DuplicateWalletRejected(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s, _ := newTestStore(t)
	_, err := s.ImportPhrase(ctx, "main", testPhrase, testPassword)
	require.NoError(t, err)

	_, err = s.ImportPhrase(ctx, "same key again", testPhrase, testPassword)
	require.ErrorIs(t, err, common.ErrDuplicate)
	require.Len(t, s.Wallets(), 1)
}

func TestStore_ImportPrivateKeyMatchesPhrase(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	kp := testKeypair(t)

	s, _ := newTestStore(t)
	w, err := s.ImportPrivateKey(ctx, "raw", kp.PrivateKeyHex(), testPassword)
	require.NoError(t, err)
	assert.Equal(t, kp.Principal, w.Principal)
	assert.Equal(t, kp.AccountID, w.AccountID)

	_, err = w.RevealMnemonic(testPassword)
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestStore_CreateReturnsRecoverablePhrase(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s, _ := newTestStore(t)
	w, phrase, err := s.Create(ctx, "fresh", testPassword)
	require.NoError(t, err)
	require.NotEmpty(t, phrase)

	// Recovering from the returned phrase resolves to the same key.
	other := NewStore(storage.NewMemory(), nil)
	require.NoError(t, other.Load(ctx))
	recovered, err := other.ImportPhrase(ctx, "recovered", phrase, testPassword)
	require.NoError(t, err)
	assert.Equal(t, w.Public, recovered.Public)
}

func TestStore_RenameAndDelete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s, mem := newTestStore(t)
	w, err := s.ImportPhrase(ctx, "old name", testPhrase, testPassword)
	require.NoError(t, err)

	require.NoError(t, s.Rename(ctx, w.Public, "new name"))
	require.ErrorIs(t, s.Rename(ctx, "nope", "x"), common.ErrNotFound)

	reloaded := NewStore(mem, nil)
	require.NoError(t, reloaded.Load(ctx))
	got, ok := reloaded.Wallet(w.Public)
	require.True(t, ok)
	assert.Equal(t, "new name", got.Name)

	require.NoError(t, s.Delete(ctx, w.Public))
	require.ErrorIs(t, s.Delete(ctx, w.Public), common.ErrNotFound)

	// Deletion is local only: the same phrase imports again.
	_, err = s.ImportPhrase(ctx, "back", testPhrase, testPassword)
	require.NoError(t, err)
}

func TestStore_LegacySecretShapeLoads(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	kp := testKeypair(t)
	blob, err := cryptobox.Encrypt([]byte(kp.PrivateKeyHex()), testPassword)
	require.NoError(t, err)
	blobJSON, err := json.Marshal(blob)
	require.NoError(t, err)

	record := fmt.Sprintf(
		`{%q: {"blockchain":"tundra","name":"old","public":%q,"secret":%s,"tokens":{},"nfts":{}}}`,
		kp.PublicKey, kp.PublicKey, blobJSON,
	)

	mem := storage.NewMemory()
	require.NoError(t, mem.Set(ctx, map[string][]byte{keyWallets: []byte(record)}))

	s := NewStore(mem, nil)
	require.NoError(t, s.Load(ctx))

	w, ok := s.Wallet(kp.PublicKey)
	require.True(t, ok)
	require.NotNil(t, w.Secret.Private)

	unlocked, err := w.Unlock(testPassword)
	require.NoError(t, err)
	assert.Equal(t, kp.PublicKey, unlocked.PublicKey)

	// Saving writes the nested shape with the original encrypted bytes.
	require.NoError(t, s.Save(ctx))
	values, err := mem.Get(ctx, keyWallets)
	require.NoError(t, err)

	var saved map[string]struct {
		Secret struct {
			Private *cryptobox.Blob `json:"private"`
		} `json:"secret"`
	}
	require.NoError(t, json.Unmarshal(values[keyWallets], &saved))
	require.NotNil(t, saved[kp.PublicKey].Secret.Private)
	assert.Equal(t, blob.Ciphertext, saved[kp.PublicKey].Secret.Private.Ciphertext)
}

func TestStore_DynamicContactsNeverPersisted(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s, mem := newTestStore(t)
	w, err := s.ImportPhrase(ctx, "main", testPhrase, testPassword)
	require.NoError(t, err)

	added, err := s.AddContact(ctx, Contact{
		Name:      "alice",
		Addresses: map[string]string{"principal": "w7x7r-cok77-xa3bf-lgmcv-abcde"},
	})
	require.NoError(t, err)

	// The book view includes the wallet mirror; the persisted record only
	// has the user-entered contact.
	var mirror bool
	for _, c := range s.Contacts() {
		if c.Dynamic && c.ID == "wallet:"+w.Public {
			mirror = true
		}
	}
	require.True(t, mirror)

	values, err := mem.Get(ctx, keyBook)
	require.NoError(t, err)
	var saved Book
	require.NoError(t, json.Unmarshal(values[keyBook], &saved))
	require.Len(t, saved.Contacts, 1)
	assert.Equal(t, added.ID, saved.Contacts[0].ID)

	// Reload re-derives the mirror.
	reloaded := NewStore(mem, nil)
	require.NoError(t, reloaded.Load(ctx))
	var again bool
	for _, c := range reloaded.Contacts() {
		if c.Dynamic && c.ID == "wallet:"+w.Public {
			again = true
		}
	}
	assert.True(t, again)
}

func TestStore_Classify(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s, _ := newTestStore(t)
	w, err := s.ImportPhrase(ctx, "main", testPhrase, testPassword)
	require.NoError(t, err)

	contactAddr := "w7x7r-cok77-xa3bf-lgmcv-abcde"
	_, err = s.AddContact(ctx, Contact{Name: "alice", Addresses: map[string]string{"principal": contactAddr}})
	require.NoError(t, err)

	assert.Equal(t, ledger.PartyOwn, s.Classify(w.AccountID))
	assert.Equal(t, ledger.PartyOwn, s.Classify(w.Principal))
	assert.Equal(t, ledger.PartyKnown, s.Classify(contactAddr))

	lookalike := w.AccountID[:4] + "ffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff"
	assert.Equal(t, ledger.PartySuspicious, s.Classify(lookalike))
}

func TestStore_AddTokenPersists(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s, mem := newTestStore(t)
	w, err := s.ImportPhrase(ctx, "main", testPhrase, testPassword)
	require.NoError(t, err)

	tok := &ledger.Token{LedgerID: "ledger1", Symbol: "TND", Decimals: 8, Standard: ledger.StandardNative}
	require.NoError(t, s.AddToken(ctx, w.Public, tok))
	require.ErrorIs(t, s.AddToken(ctx, w.Public, tok), common.ErrDuplicate)
	require.ErrorIs(t, s.AddToken(ctx, "nope", tok), common.ErrNotFound)

	reloaded := NewStore(mem, nil)
	require.NoError(t, reloaded.Load(ctx))
	got, ok := reloaded.Wallet(w.Public)
	require.True(t, ok)
	loaded, ok := got.Token("ledger1")
	require.True(t, ok)
	assert.Equal(t, "TND", loaded.Symbol)
	assert.False(t, loaded.Ready(), "remote handles are rebuilt per process, not persisted")
}

func TestStore_RemoveNFTPersists(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s, mem := newTestStore(t)
	w, err := s.ImportPhrase(ctx, "main", testPhrase, testPassword)
	require.NoError(t, err)

	n := &ledger.NFT{Collection: "coll-1", ID: "42", Standard: "ext"}
	require.NoError(t, s.AddNFT(ctx, w.Public, n))

	// An ownership re-check reporting the item gone leads here.
	require.NoError(t, s.RemoveNFT(ctx, w.Public, n.Key()))
	require.ErrorIs(t, s.RemoveNFT(ctx, w.Public, n.Key()), common.ErrNotFound)
	require.ErrorIs(t, s.RemoveNFT(ctx, "nope", n.Key()), common.ErrNotFound)

	reloaded := NewStore(mem, nil)
	require.NoError(t, reloaded.Load(ctx))
	got, ok := reloaded.Wallet(w.Public)
	require.True(t, ok)
	_, ok = got.NFT(n.Key())
	assert.False(t, ok)
}

func TestStore_BuildAssetsWiresEverything(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s, _ := newTestStore(t)
	w, err := s.ImportPhrase(ctx, "main", testPhrase, testPassword)
	require.NoError(t, err)

	require.NoError(t, s.AddToken(ctx, w.Public, &ledger.Token{LedgerID: "ledger1", Standard: ledger.StandardNative}))
	require.NoError(t, s.AddNFT(ctx, w.Public, &ledger.NFT{Collection: "coll-1", ID: "42", Standard: "ext"}))

	s.BuildAssets("http://gateway.invalid", nil, ledger.NewHealth(nil))

	tok, _ := w.Token("ledger1")
	assert.True(t, tok.Ready())
	n, _ := w.NFT("coll-1:42")
	assert.True(t, n.Ready())
}
