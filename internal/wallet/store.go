package wallet

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/tundrawallet/tundra/internal/cache"
	"github.com/tundrawallet/tundra/internal/common"
	"github.com/tundrawallet/tundra/internal/keyring"
	"github.com/tundrawallet/tundra/internal/ledger"
	"github.com/tundrawallet/tundra/internal/logging"
	"github.com/tundrawallet/tundra/internal/storage"
)

// chainTag marks the network every wallet in this build belongs to.
const chainTag = "tundra"

// Persistence keys in the durable store.
const (
	keyWallets = "wallets"
	keyBook    = "addressbook"
)

// Store is the persistence façade over the wallet collection and the
// address book. Wallets are keyed by public key; writes are last-write-wins
// per key, so Save keeps each record internally complete.
type Store struct {
	store storage.Store
	log   logging.Logger

	mu      sync.RWMutex
	wallets map[string]*Wallet
	book    Book
}

// NewStore builds an empty store over the given collaborator. Call Load to
// pick up persisted state.
func NewStore(st storage.Store, log logging.Logger) *Store {
	if log == nil {
		log = logging.Nop{}
	}
	return &Store{
		store:   st,
		log:     log,
		wallets: map[string]*Wallet{},
	}
}

// Load reads the wallet map and address book from the durable store,
// re-derives each wallet's addresses from its public key, and rebuilds the
// dynamic contacts. Absent keys leave the store empty, not broken.
func (s *Store) Load(ctx context.Context) error {
	values, err := s.store.Get(ctx, keyWallets, keyBook)
	if err != nil {
		return fmt.Errorf("load wallet store: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.wallets = map[string]*Wallet{}
	if raw, ok := values[keyWallets]; ok {
		if err := json.Unmarshal(raw, &s.wallets); err != nil {
			return fmt.Errorf("%w: wallets record: %v", common.ErrCrypto, err)
		}
	}
	for _, w := range s.wallets {
		if err := w.hydrate(); err != nil {
			return err
		}
	}

	s.book = Book{}
	if raw, ok := values[keyBook]; ok {
		if err := json.Unmarshal(raw, &s.book); err != nil {
			return fmt.Errorf("%w: address book record: %v", common.ErrCrypto, err)
		}
	}
	s.rebuildDynamic()

	s.log.Debug(ctx, "wallet store loaded", "wallets", len(s.wallets), "contacts", len(s.book.Contacts))
	return nil
}

// Save writes the wallet map and the address book back, with dynamic
// contacts stripped. Each key's value is complete on its own, so a
// partially applied multi-key write still leaves readable records.
func (s *Store) Save(ctx context.Context) error {
	s.mu.RLock()
	walletsJSON, err := json.Marshal(s.wallets)
	if err != nil {
		s.mu.RUnlock()
		return fmt.Errorf("encode wallets: %w", err)
	}
	bookJSON, err := json.Marshal(s.book.persistable())
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("encode address book: %w", err)
	}

	return s.store.Set(ctx, map[string][]byte{
		keyWallets: walletsJSON,
		keyBook:    bookJSON,
	})
}

// Create generates a fresh mnemonic, derives its wallet and persists it.
// The phrase is returned exactly once for the user to write down; only its
// encrypted form is stored.
func (s *Store) Create(ctx context.Context, name, password string) (*Wallet, string, error) {
	phrase, err := keyring.NewMnemonic()
	if err != nil {
		return nil, "", err
	}
	w, err := s.ImportPhrase(ctx, name, phrase, password)
	if err != nil {
		return nil, "", err
	}
	return w, phrase, nil
}

// ImportPhrase recovers the wallet for a BIP-39 phrase and persists it.
// Invalid phrases are rejected with common.ErrInvalidMnemonic, never turned
// into a fresh wallet.
func (s *Store) ImportPhrase(ctx context.Context, name, phrase, password string) (*Wallet, error) {
	kp, err := keyring.FromPhrase(phrase)
	if err != nil {
		return nil, err
	}
	w, err := newWallet(name, kp, keyring.NormalizePhrase(phrase), password)
	if err != nil {
		return nil, err
	}
	return w, s.add(ctx, w)
}

// ImportPrivateKey builds a wallet from a raw hex private key. The wallet
// has no stored phrase, so RevealMnemonic will report common.ErrNotFound.
func (s *Store) ImportPrivateKey(ctx context.Context, name, hexKey, password string) (*Wallet, error) {
	kp, err := keyring.FromPrivateKey(hexKey)
	if err != nil {
		return nil, err
	}
	w, err := newWallet(name, kp, "", password)
	if err != nil {
		return nil, err
	}
	return w, s.add(ctx, w)
}

func (s *Store) add(ctx context.Context, w *Wallet) error {
	s.mu.Lock()
	if _, ok := s.wallets[w.Public]; ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: wallet %s", common.ErrDuplicate, w.Public)
	}
	s.wallets[w.Public] = w
	s.rebuildDynamic()
	s.mu.Unlock()

	s.log.Info(ctx, "wallet added", "public", w.Public, "name", w.Name)
	return s.Save(ctx)
}

// Wallet looks up a wallet by its public key.
func (s *Store) Wallet(public string) (*Wallet, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.wallets[public]
	return w, ok
}

// Wallets returns the collection ordered by display name, ties broken by
// public key so the order is stable.
func (s *Store) Wallets() []*Wallet {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Wallet, 0, len(s.wallets))
	for _, w := range s.wallets {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Public < out[j].Public
	})
	return out
}

// Rename changes a wallet's display name and persists the collection.
func (s *Store) Rename(ctx context.Context, public, name string) error {
	s.mu.Lock()
	w, ok := s.wallets[public]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: wallet %s", common.ErrNotFound, public)
	}
	w.Name = name
	s.rebuildDynamic()
	s.mu.Unlock()

	return s.Save(ctx)
}

// Delete removes a wallet locally. The keys on the chain are untouched; a
// wallet deleted here can be re-imported from its phrase or private key.
func (s *Store) Delete(ctx context.Context, public string) error {
	s.mu.Lock()
	if _, ok := s.wallets[public]; !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: wallet %s", common.ErrNotFound, public)
	}
	delete(s.wallets, public)
	s.rebuildDynamic()
	s.mu.Unlock()

	s.log.Info(ctx, "wallet deleted", "public", public)
	return s.Save(ctx)
}

// AddToken registers a token on a wallet and persists the collection.
func (s *Store) AddToken(ctx context.Context, public string, t *ledger.Token) error {
	s.mu.Lock()
	w, ok := s.wallets[public]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: wallet %s", common.ErrNotFound, public)
	}
	err := w.AddToken(t)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.Save(ctx)
}

// AddNFT registers a non-fungible item on a wallet and persists the
// collection.
func (s *Store) AddNFT(ctx context.Context, public string, n *ledger.NFT) error {
	s.mu.Lock()
	w, ok := s.wallets[public]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: wallet %s", common.ErrNotFound, public)
	}
	err := w.AddNFT(n)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.Save(ctx)
}

// RemoveNFT drops an item from a wallet and persists the collection.
// Typically follows an ownership re-check reporting the item was
// transferred away through another client.
func (s *Store) RemoveNFT(ctx context.Context, public, key string) error {
	s.mu.Lock()
	w, ok := s.wallets[public]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: wallet %s", common.ErrNotFound, public)
	}
	err := w.RemoveNFT(key)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.log.Info(ctx, "nft removed", "public", public, "nft", key)
	return s.Save(ctx)
}

// AddContact adds a user-entered address-book contact and persists it.
func (s *Store) AddContact(ctx context.Context, c Contact) (Contact, error) {
	s.mu.Lock()
	c.Dynamic = false
	added, err := s.book.Add(c)
	s.mu.Unlock()
	if err != nil {
		return Contact{}, err
	}
	return added, s.Save(ctx)
}

// RemoveContact deletes a user-entered contact and persists the book.
func (s *Store) RemoveContact(ctx context.Context, id string) error {
	s.mu.Lock()
	err := s.book.Remove(id)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.Save(ctx)
}

// Contacts returns the full book, dynamic wallet mirrors included.
func (s *Store) Contacts() []Contact {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Contact, len(s.book.Contacts))
	copy(out, s.book.Contacts)
	return out
}

// OwnAddresses returns both address forms of every wallet.
func (s *Store) OwnAddresses() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []string
	for _, w := range s.wallets {
		out = append(out, w.Addresses()...)
	}
	return out
}

// KnownAddresses returns every address in the user-entered part of the
// address book. Dynamic contacts are excluded; their addresses already
// count as own.
func (s *Store) KnownAddresses() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []string
	for _, c := range s.book.Contacts {
		if c.Dynamic {
			continue
		}
		for _, addr := range c.Addresses {
			out = append(out, addr)
		}
	}
	return out
}

// Classify resolves a counterparty address against the user's wallets and
// address book for display and the poisoning warning.
func (s *Store) Classify(addr string) ledger.Party {
	return ledger.ClassifyParty(addr, s.OwnAddresses(), s.KnownAddresses())
}

// BuildAssets attaches remote handles to every token and NFT across the
// collection. Idempotent per asset, so calling it again after adding a
// wallet only wires the new assets.
func (s *Store) BuildAssets(endpoint string, mem *cache.Memory, health *ledger.Health) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, w := range s.wallets {
		for _, t := range w.Tokens {
			var index ledger.IndexActor
			if t.IndexID != "" {
				index = ledger.NewHTTPActor(endpoint, t.IndexID)
			}
			t.Build(ledger.BuildConfig{
				Actor:  ledger.NewHTTPActor(endpoint, t.LedgerID),
				Index:  index,
				Cache:  mem,
				Health: health,
			})
		}
		for _, n := range w.NFTs {
			n.Build(ledger.NewHTTPActor(endpoint, n.Collection), health)
		}
	}
}

// rebuildDynamic replaces the dynamic contacts with fresh mirrors of the
// current wallets. Caller holds s.mu.
func (s *Store) rebuildDynamic() {
	s.book.stripDynamic()
	for _, w := range s.wallets {
		s.book.Contacts = append(s.book.Contacts, Contact{
			ID:   "wallet:" + w.Public,
			Name: w.Name,
			Addresses: map[string]string{
				"principal": w.Principal,
				"account":   w.AccountID,
			},
			Dynamic: true,
		})
	}
}
