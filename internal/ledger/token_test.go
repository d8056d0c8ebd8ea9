package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tundrawallet/tundra/internal/cache"
	"github.com/tundrawallet/tundra/internal/common"
	"github.com/tundrawallet/tundra/internal/keyring"
	"github.com/tundrawallet/tundra/internal/storage"
)

const testPhrase = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

type fakeActor struct {
	mu           sync.Mutex
	balance      uint64
	balanceCalls int
	err          error
	transfers    []TransferRequest
	metadata     Metadata
	records      []TxRecord
	indexCalls   int
}

func (f *fakeActor) Balance(ctx context.Context, account string) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balanceCalls++
	if f.err != nil {
		return 0, f.err
	}
	return f.balance, nil
}

func (f *fakeActor) Transfer(ctx context.Context, req TransferRequest) (*Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.transfers = append(f.transfers, req)
	return &Receipt{BlockHeight: uint64(len(f.transfers))}, nil
}

func (f *fakeActor) Metadata(ctx context.Context) (*Metadata, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	md := f.metadata
	return &md, nil
}

func (f *fakeActor) Transactions(ctx context.Context, q TxQuery) ([]TxRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.indexCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

func newTestCache(t *testing.T) *cache.Memory {
	t.Helper()
	m, err := cache.NewMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func testAddresses(t *testing.T) (principal, account string) {
	t.Helper()
	kp, err := keyring.FromPhrase(testPhrase)
	require.NoError(t, err)
	return kp.Principal, kp.AccountID
}

func TestToken_BuildIdempotent(t *testing.T) {
	t.Parallel()

	tok := &Token{LedgerID: "ledger1", Standard: StandardNative}
	first := &fakeActor{}
	second := &fakeActor{}

	tok.Build(BuildConfig{Actor: first})
	require.True(t, tok.Ready())

	// A second build must not re-create the handle.
	tok.Build(BuildConfig{Actor: second})

	ctx := context.Background()
	_, err := tok.Balance(ctx, "acc")
	require.NoError(t, err)
	require.Equal(t, 1, first.balanceCalls)
	require.Equal(t, 0, second.balanceCalls)
}

func TestToken_BalanceServedFromCache(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	actor := &fakeActor{balance: 42}
	tok := &Token{LedgerID: "ledger1", Standard: StandardNative}
	tok.Build(BuildConfig{Actor: actor, Cache: newTestCache(t), Health: NewHealth(nil)})

	for i := 0; i < 3; i++ {
		balance, err := tok.Balance(ctx, "acc")
		require.NoError(t, err)
		require.Equal(t, uint64(42), balance)
	}
	require.Equal(t, 1, actor.balanceCalls, "repeat reads within the window hit the cache")
}

func TestToken_BalanceOfflineSignal(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	var flips []bool
	health := NewHealth(func(offline bool) { flips = append(flips, offline) })

	actor := &fakeActor{err: common.ErrOffline}
	tok := &Token{LedgerID: "ledger1", Standard: StandardNative}
	tok.Build(BuildConfig{Actor: actor, Cache: newTestCache(t), Health: health})

	_, err := tok.Balance(ctx, "acc")
	require.ErrorIs(t, err, common.ErrOffline)
	require.True(t, health.Offline())
	require.Equal(t, []bool{true}, flips)

	// Recovery flips the indicator back exactly once.
	actor.mu.Lock()
	actor.err = nil
	actor.mu.Unlock()

	_, err = tok.Balance(ctx, "acc")
	require.NoError(t, err)
	require.False(t, health.Offline())
	require.Equal(t, []bool{true, false}, flips)
}

func TestToken_TransferAddressAsymmetry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	principal, account := testAddresses(t)

	t.Run("native accepts account form", func(t *testing.T) {
		actor := &fakeActor{}
		tok := &Token{LedgerID: "native", Standard: StandardNative, Fee: 10}
		tok.Build(BuildConfig{Actor: actor, Health: NewHealth(nil)})

		receipt, err := tok.Transfer(ctx, "sender", account, 100)
		require.NoError(t, err)
		require.NotNil(t, receipt)
		require.Equal(t, account, actor.transfers[0].To)
		require.Equal(t, uint64(10), actor.transfers[0].Fee)
	})

	t.Run("native folds principal to its default account", func(t *testing.T) {
		actor := &fakeActor{}
		tok := &Token{LedgerID: "native", Standard: StandardNative}
		tok.Build(BuildConfig{Actor: actor, Health: NewHealth(nil)})

		_, err := tok.Transfer(ctx, "sender", principal, 100)
		require.NoError(t, err)
		require.Equal(t, account, actor.transfers[0].To)
	})

	t.Run("generic accepts principal form", func(t *testing.T) {
		actor := &fakeActor{}
		tok := &Token{LedgerID: "gen", Standard: StandardGeneric}
		tok.Build(BuildConfig{Actor: actor, Health: NewHealth(nil)})

		_, err := tok.Transfer(ctx, "sender", principal, 100)
		require.NoError(t, err)
		require.Equal(t, principal, actor.transfers[0].To)
	})

	t.Run("generic rejects account form before any remote call", func(t *testing.T) {
		actor := &fakeActor{}
		tok := &Token{LedgerID: "gen", Standard: StandardGeneric}
		tok.Build(BuildConfig{Actor: actor, Health: NewHealth(nil)})

		_, err := tok.Transfer(ctx, "sender", account, 100)
		require.ErrorIs(t, err, common.ErrUnsupportedAddressKind)
		require.Empty(t, actor.transfers)
	})

	t.Run("garbage destination rejected", func(t *testing.T) {
		actor := &fakeActor{}
		tok := &Token{LedgerID: "native", Standard: StandardNative}
		tok.Build(BuildConfig{Actor: actor, Health: NewHealth(nil)})

		_, err := tok.Transfer(ctx, "sender", "definitely-not-an-address", 100)
		require.ErrorIs(t, err, common.ErrUnsupportedAddressKind)
		require.Empty(t, actor.transfers)
	})
}

func TestToken_TransferResetsBalanceCache(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	_, account := testAddresses(t)

	actor := &fakeActor{balance: 1000}
	tok := &Token{LedgerID: "native", Standard: StandardNative}
	tok.Build(BuildConfig{Actor: actor, Cache: newTestCache(t), Health: NewHealth(nil)})

	_, err := tok.Balance(ctx, "sender")
	require.NoError(t, err)

	actor.mu.Lock()
	actor.balance = 900
	actor.mu.Unlock()

	_, err = tok.Transfer(ctx, "sender", account, 100)
	require.NoError(t, err)

	balance, err := tok.Balance(ctx, "sender")
	require.NoError(t, err)
	require.Equal(t, uint64(900), balance, "post-transfer read must not serve the stale pre-transfer value")
	require.Equal(t, 2, actor.balanceCalls)
}

func TestToken_TransactionsNoIndexRegistered(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	tok := &Token{LedgerID: "gen", Standard: StandardGeneric}
	tok.Build(BuildConfig{Actor: &fakeActor{}, Health: NewHealth(nil)})

	entries, err := tok.Transactions(ctx, TxQuery{Account: "acc", Limit: 20}, nil)
	require.NoError(t, err, "missing index replica is a distinct state, not an error")
	require.NotNil(t, entries)
	require.Empty(t, entries)
}

func TestToken_TransactionsClassification(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	_, account := testAddresses(t)

	now := time.Now()
	actor := &fakeActor{records: []TxRecord{
		{ID: "1", Kind: TxTransfer, From: account, To: "someone-else", Amount: 5, Timestamp: now},
		{ID: "2", Kind: TxTransfer, From: "someone-else", To: account, Amount: 7, Timestamp: now},
		{ID: "3", Kind: TxApprove, From: account, To: "spender", Amount: 9, Timestamp: now},
	}}

	tok := &Token{LedgerID: "native", Symbol: "TND", Standard: StandardNative}
	tok.Build(BuildConfig{Actor: actor, Index: actor, Health: NewHealth(nil)})

	own := map[string]struct{}{account: {}}
	entries, err := tok.Transactions(ctx, TxQuery{Account: account, Limit: 20}, own)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	require.Equal(t, EntrySend, entries["native:1"].Type)
	require.Equal(t, EntryRecv, entries["native:2"].Type)
	require.Equal(t, EntryApprove, entries["native:3"].Type)
	require.Equal(t, "TND", entries["native:1"].Symbol)
}

func TestToken_TransactionsKindFilter(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	_, account := testAddresses(t)

	now := time.Now()
	actor := &fakeActor{records: []TxRecord{
		{ID: "1", Kind: TxTransfer, From: account, To: "a", Amount: 5, Timestamp: now},
		{ID: "2", Kind: TxApprove, From: account, To: "spender", Amount: 9, Timestamp: now},
		{ID: "3", Kind: TxTransfer, From: "b", To: account, Amount: 7, Timestamp: now},
	}}

	tok := &Token{LedgerID: "native", Standard: StandardNative}
	tok.Build(BuildConfig{Actor: actor, Index: actor, Health: NewHealth(nil)})

	all, err := tok.Transactions(ctx, TxQuery{Account: account, Limit: 20}, nil)
	require.NoError(t, err)
	require.Len(t, all, 3, "empty kind returns every entry")

	approvals, err := tok.Transactions(ctx, TxQuery{Account: account, Limit: 20, Kind: TxApprove}, nil)
	require.NoError(t, err)
	require.Len(t, approvals, 1)
	require.Equal(t, EntryApprove, approvals["native:2"].Type)

	transfers, err := tok.Transactions(ctx, TxQuery{Account: account, Limit: 20, Kind: TxTransfer}, nil)
	require.NoError(t, err)
	require.Len(t, transfers, 2)
	_, ok := transfers["native:2"]
	require.False(t, ok)
}

func TestToken_RefreshMetadataHonorsWindow(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	actor := &fakeActor{metadata: Metadata{
		Name: "Tundra", Symbol: "TND", Decimals: 8, Fee: 10,
		Standards: []string{"native", "ledger-v1"}, Logo: "data:image/svg+xml;base64,xyz",
	}}
	tok := &Token{LedgerID: "native", Standard: StandardNative}
	tok.Build(BuildConfig{Actor: actor, Health: NewHealth(nil)})

	refreshed := cache.NewRefreshed(storage.NewMemory())

	require.NoError(t, tok.RefreshMetadata(ctx, refreshed))
	require.Equal(t, "Tundra", tok.Name)
	require.Equal(t, "TND", tok.Symbol)
	require.Equal(t, uint8(8), tok.Decimals)
	require.Equal(t, []string{"native", "ledger-v1"}, tok.Standards)
	require.Equal(t, "data:image/svg+xml;base64,xyz", tok.Logo)

	// Within the window, no second remote call: a failure would surface.
	actor.mu.Lock()
	actor.err = errors.New("must not be called")
	actor.mu.Unlock()
	require.NoError(t, tok.RefreshMetadata(ctx, refreshed))
}
