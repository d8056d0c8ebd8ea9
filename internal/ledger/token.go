package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tundrawallet/tundra/internal/cache"
	"github.com/tundrawallet/tundra/internal/common"
	"github.com/tundrawallet/tundra/internal/keyring"
)

// Overdue windows for the token's cached reads.
const (
	// BalanceOverdue bounds remote-call volume while keeping balances close
	// to real time.
	BalanceOverdue = time.Minute

	// HistoryOverdue throttles index-replica refetches.
	HistoryOverdue = 10 * time.Minute

	// MetadataOverdue throttles name/symbol/standards refreshes.
	MetadataOverdue = 7 * 24 * time.Hour
)

// Token is one fungible asset ledger bound to a wallet. The exported fields
// are the persisted record; the remote handles are rebuilt per process via
// Build.
type Token struct {
	LedgerID  string   `json:"ledgerId"`
	IndexID   string   `json:"indexId,omitempty"`
	Name      string   `json:"name"`
	Symbol    string   `json:"symbol"`
	Decimals  uint8    `json:"decimals"`
	Fee       uint64   `json:"fee"`
	Standard  Standard `json:"standard"`
	Standards []string `json:"standards,omitempty"`
	Logo      string   `json:"logo,omitempty"`

	mu     sync.Mutex
	actor  Actor
	index  IndexActor
	cache  *cache.Memory
	health *Health
	ready  bool
}

// BuildConfig carries the remote handles and shared services a token is
// wired with.
type BuildConfig struct {
	Actor  Actor
	Index  IndexActor // nil when no index replica is registered
	Cache  *cache.Memory
	Health *Health
}

// Build attaches remote call handles. Idempotent: once a token is ready,
// further Build calls are no-ops, so two UI paths triggering it before
// either completes cannot re-create an existing handle.
func (t *Token) Build(cfg BuildConfig) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.ready {
		return
	}
	t.actor = cfg.Actor
	t.index = cfg.Index
	t.cache = cfg.Cache
	t.health = cfg.Health
	t.ready = t.actor != nil
}

// Ready reports whether remote handles are attached.
func (t *Token) Ready() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ready
}

func (t *Token) handles() (Actor, IndexActor, *cache.Memory, *Health, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.ready {
		return nil, nil, nil, nil, fmt.Errorf("token %s: not built", t.LedgerID)
	}
	return t.actor, t.index, t.cache, t.health, nil
}

// balanceKey keys the balance cache per wallet account and ledger.
func (t *Token) balanceKey(account string) string {
	return account + "|" + t.LedgerID
}

// Balance returns the account's balance, served through the TTL cache. A
// transport failure flips the shared offline indicator and surfaces as
// common.ErrOffline — callers switch the UI to offline mode instead of
// rendering a per-call error.
func (t *Token) Balance(ctx context.Context, account string) (uint64, error) {
	actor, _, mem, health, err := t.handles()
	if err != nil {
		return 0, err
	}

	fetch := func(ctx context.Context) (uint64, error) {
		balance, err := actor.Balance(ctx, account)
		if err != nil {
			return 0, health.Report(err)
		}
		_ = health.Report(nil)
		return balance, nil
	}

	if mem == nil {
		return fetch(ctx)
	}
	return cache.Get(ctx, mem, t.balanceKey(account), BalanceOverdue, fetch)
}

// validateDestination enforces the per-standard address asymmetry and
// normalizes the destination to the form the ledger expects. The native
// ledger takes account identifiers (a principal destination is folded to its
// default account); the generic standard takes only principal-form
// destinations.
func (t *Token) validateDestination(dest string) (string, error) {
	kind := KindOf(dest)

	switch t.Standard {
	case StandardNative:
		switch kind {
		case AddressAccount:
			return dest, nil
		case AddressPrincipal:
			account, ok := keyring.AccountIDFromPrincipalText(dest, keyring.DefaultSubaccount)
			if !ok {
				return "", fmt.Errorf("%w: malformed principal", common.ErrUnsupportedAddressKind)
			}
			return account, nil
		}
	case StandardGeneric:
		if kind == AddressPrincipal {
			return dest, nil
		}
		if kind == AddressAccount {
			return "", fmt.Errorf("%w: %s ledger takes principal destinations only", common.ErrUnsupportedAddressKind, t.Standard)
		}
	}
	return "", fmt.Errorf("%w: unrecognized destination", common.ErrUnsupportedAddressKind)
}

// Transfer submits a transfer of amount to dest from the given source
// address. Destination validation happens before any remote call. Never
// retried automatically: a duplicate submission moves funds twice. On
// success the sender's cached balance is reset so a stale pre-transfer
// value is never served.
func (t *Token) Transfer(ctx context.Context, from, dest string, amount uint64) (*Receipt, error) {
	actor, _, mem, health, err := t.handles()
	if err != nil {
		return nil, err
	}

	normalized, err := t.validateDestination(dest)
	if err != nil {
		return nil, err
	}

	receipt, err := actor.Transfer(ctx, TransferRequest{
		From:   from,
		To:     normalized,
		Amount: amount,
		Fee:    t.Fee,
	})
	if err != nil {
		return nil, health.Report(err)
	}
	_ = health.Report(nil)

	if mem != nil {
		mem.Reset(t.balanceKey(from))
	}
	return receipt, nil
}

// Transactions fetches history rows from the index replica and returns them
// as a composite-id-keyed map. A ledger with no registered index returns an
// empty map and no error — the caller renders a "no index registered" state,
// not "no history yet".
func (t *Token) Transactions(ctx context.Context, q TxQuery, own map[string]struct{}) (map[string]Entry, error) {
	_, index, _, health, err := t.handles()
	if err != nil {
		return nil, err
	}
	if index == nil {
		return map[string]Entry{}, nil
	}

	records, err := index.Transactions(ctx, q)
	if err != nil {
		return nil, health.Report(err)
	}
	_ = health.Report(nil)

	// The kind filter is applied locally as well: an index replica is free
	// to ignore query parameters it does not know.
	entries := make(map[string]Entry, len(records))
	for _, rec := range records {
		if q.Kind != "" && rec.Kind != q.Kind {
			continue
		}
		id, e := EntryFromRecord(t.LedgerID, t.Symbol, rec, own)
		entries[id] = e
	}
	return entries, nil
}

// RefreshMetadata updates the token's slowly-changing fields from the
// ledger when the persisted refresh window says it is due.
func (t *Token) RefreshMetadata(ctx context.Context, refreshed *cache.Refreshed) error {
	actor, _, _, health, err := t.handles()
	if err != nil {
		return err
	}

	id := "metadata:" + t.LedgerID
	due, err := refreshed.Due(ctx, id, MetadataOverdue)
	if err != nil {
		return err
	}
	if !due {
		return nil
	}

	md, err := actor.Metadata(ctx)
	if err != nil {
		return health.Report(err)
	}
	_ = health.Report(nil)

	t.mu.Lock()
	t.Name = md.Name
	t.Symbol = md.Symbol
	t.Decimals = md.Decimals
	t.Fee = md.Fee
	t.Standards = md.Standards
	t.Logo = md.Logo
	t.mu.Unlock()

	return refreshed.Mark(ctx, id)
}
