package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/tundrawallet/tundra/internal/common"
	"github.com/tundrawallet/tundra/internal/ledger"
	"github.com/tundrawallet/tundra/internal/wallet"
)

// walletAddress picks the address form the token's ledger works with: the
// native ledger takes account identifiers, the generic standard principals.
func walletAddress(w *wallet.Wallet, tok *ledger.Token) string {
	if tok.Standard == ledger.StandardNative {
		return w.AccountID
	}
	return w.Principal
}

// formatAmount renders raw ledger units with the token's decimal point.
func formatAmount(amount uint64, decimals uint8) string {
	if decimals == 0 {
		return strconv.FormatUint(amount, 10)
	}
	div := uint64(1)
	for i := uint8(0); i < decimals; i++ {
		div *= 10
	}
	whole := amount / div
	frac := amount % div
	s := fmt.Sprintf("%d.%0*d", whole, decimals, frac)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

func (a *App) pickToken(args []string) (*wallet.Wallet, *ledger.Token, error) {
	if len(args) < 2 {
		return nil, nil, errors.New("usage: <wallet> <ledger>")
	}
	w, ok := a.store.Wallet(args[0])
	if !ok {
		for _, candidate := range a.store.Wallets() {
			if candidate.Name == args[0] {
				w, ok = candidate, true
				break
			}
		}
	}
	if !ok {
		return nil, nil, fmt.Errorf("%w: wallet %q", common.ErrNotFound, args[0])
	}
	tok, ok := w.Token(args[1])
	if !ok {
		return nil, nil, fmt.Errorf("%w: token %q", common.ErrNotFound, args[1])
	}
	return w, tok, nil
}

// Balance prints a token balance, served through the TTL cache.
func (a *App) Balance(ctx context.Context, args []string) error {
	if !a.isUnlocked() {
		return errLocked
	}

	w, tok, err := a.pickToken(args)
	if err != nil {
		return err
	}

	balance, err := tok.Balance(ctx, walletAddress(w, tok))
	if err != nil {
		if errors.Is(err, common.ErrOffline) {
			printlnFn("Offline: balance unavailable.")
			return nil
		}
		return err
	}
	printlnFn(fmt.Sprintf("%s %s", formatAmount(balance, tok.Decimals), tok.Symbol))
	return nil
}

// Send submits a transfer. The destination is classified against the user's
// wallets and address book first; a lookalike match needs an explicit
// confirmation before anything is sent.
func (a *App) Send(ctx context.Context, args []string) error {
	if !a.isUnlocked() {
		return errLocked
	}
	if len(args) < 4 {
		return errors.New("usage: send <wallet> <ledger> <to> <amount>")
	}

	w, tok, err := a.pickToken(args[:2])
	if err != nil {
		return err
	}
	dest := args[2]
	amount, err := strconv.ParseUint(args[3], 10, 64)
	if err != nil {
		return fmt.Errorf("amount %q: %w", args[3], err)
	}

	switch a.store.Classify(dest) {
	case ledger.PartySuspicious:
		printlnFn("WARNING: this address resembles one you trust but is not it.")
		printlnFn("This is how address-poisoning scams work.")
		if !Confirm(a.reader, "Send anyway?", os.Stdout) {
			printlnFn("Cancelled.")
			return nil
		}
	case ledger.PartyExternal:
		if !Confirm(a.reader, fmt.Sprintf("Send %s %s to an address not in your book?", formatAmount(amount, tok.Decimals), tok.Symbol), os.Stdout) {
			printlnFn("Cancelled.")
			return nil
		}
	}

	from := walletAddress(w, tok)
	receipt, err := tok.Transfer(ctx, from, dest, amount)
	if err != nil {
		return err
	}
	printlnFn(fmt.Sprintf("Sent. Block height %d.", receipt.BlockHeight))

	// Log the operation locally so it shows up before the index replica
	// catches up.
	now := time.Now().UTC()
	entry := ledger.Entry{
		Type:     ledger.EntrySend,
		Datetime: now.Format(time.RFC3339),
		From:     from,
		To:       dest,
		Ledger:   tok.LedgerID,
		Symbol:   tok.Symbol,
		Amount:   &amount,
		Fee:      &tok.Fee,
	}
	return a.appendHistory(ctx, w, tok, map[string]ledger.Entry{
		ledger.LocalCompositeID(tok.LedgerID, now): entry,
	})
}

// History prints the merged transaction log for a token. The index replica
// is consulted at most once per refresh window; between refreshes the
// persisted log is served as-is.
func (a *App) History(ctx context.Context, args []string) error {
	if !a.isUnlocked() {
		return errLocked
	}

	w, tok, err := a.pickToken(args)
	if err != nil {
		return err
	}

	log, err := a.loadHistory(ctx, w, tok)
	if err != nil {
		return err
	}

	key := historyKey(w, tok)
	due, err := a.refreshed.Due(ctx, key, ledger.HistoryOverdue)
	if err != nil {
		return err
	}
	if due {
		own := map[string]struct{}{}
		for _, addr := range w.Addresses() {
			own[addr] = struct{}{}
		}
		fetched, err := tok.Transactions(ctx, ledger.TxQuery{Account: walletAddress(w, tok), Limit: 50}, own)
		switch {
		case errors.Is(err, common.ErrOffline):
			printlnFn("Offline: showing the stored log only.")
		case err != nil:
			return err
		default:
			if added := ledger.Merge(log, fetched); added > 0 {
				if err := a.saveHistory(ctx, w, tok, log); err != nil {
					return err
				}
			}
			if err := a.refreshed.Mark(ctx, key); err != nil {
				return err
			}
		}
	}

	if len(log) == 0 {
		printlnFn("No entries. A ledger without an index replica shows local operations only.")
		return nil
	}

	type row struct {
		id string
		e  ledger.Entry
	}
	rows := make([]row, 0, len(log))
	for id, e := range log {
		rows = append(rows, row{id, e})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].e.Datetime > rows[j].e.Datetime })

	for _, r := range rows {
		counterparty := r.e.To
		if r.e.Type == ledger.EntryRecv {
			counterparty = r.e.From
		}
		tag := ""
		if a.store.Classify(counterparty) == ledger.PartySuspicious {
			tag = "  [SUSPICIOUS ADDRESS]"
		}
		amount := ""
		if r.e.Amount != nil {
			amount = formatAmount(*r.e.Amount, tok.Decimals) + " " + r.e.Symbol
		}
		printlnFn(fmt.Sprintf("%s  %-7s  %s  %s%s", r.e.Datetime, r.e.Type, amount, counterparty, tag))
	}
	return nil
}

func historyKey(w *wallet.Wallet, tok *ledger.Token) string {
	return "history:" + w.Public + ":" + tok.LedgerID
}

func (a *App) loadHistory(ctx context.Context, w *wallet.Wallet, tok *ledger.Token) (map[string]ledger.Entry, error) {
	key := historyKey(w, tok)
	values, err := a.db.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	log := map[string]ledger.Entry{}
	if raw, ok := values[key]; ok {
		if err := json.Unmarshal(raw, &log); err != nil {
			return nil, fmt.Errorf("decode history log: %w", err)
		}
	}
	return log, nil
}

func (a *App) saveHistory(ctx context.Context, w *wallet.Wallet, tok *ledger.Token, log map[string]ledger.Entry) error {
	raw, err := json.Marshal(log)
	if err != nil {
		return fmt.Errorf("encode history log: %w", err)
	}
	return a.db.Set(ctx, map[string][]byte{historyKey(w, tok): raw})
}

func (a *App) appendHistory(ctx context.Context, w *wallet.Wallet, tok *ledger.Token, entries map[string]ledger.Entry) error {
	log, err := a.loadHistory(ctx, w, tok)
	if err != nil {
		return err
	}
	if ledger.Merge(log, entries) == 0 {
		return nil
	}
	return a.saveHistory(ctx, w, tok, log)
}

// AddToken registers a custom token on a wallet, wires its remote handles
// and pulls its metadata when the gateway is reachable.
func (a *App) AddToken(ctx context.Context) error {
	if !a.isUnlocked() {
		return errLocked
	}

	w, err := a.pickWallet("Wallet (name or public key)")
	if err != nil {
		return err
	}
	ledgerID, err := GetSimpleText(a.reader, "Ledger id", os.Stdout)
	if err != nil {
		return err
	}
	indexID, err := GetSimpleText(a.reader, "Index replica id (empty for none)", os.Stdout)
	if err != nil {
		return err
	}
	standard, err := GetSimpleText(a.reader, "Standard (native/generic)", os.Stdout)
	if err != nil {
		return err
	}
	if standard != string(ledger.StandardNative) && standard != string(ledger.StandardGeneric) {
		return fmt.Errorf("unknown standard %q", standard)
	}

	tok := &ledger.Token{LedgerID: ledgerID, IndexID: indexID, Standard: ledger.Standard(standard)}
	if err := a.store.AddToken(ctx, w.Public, tok); err != nil {
		return err
	}
	a.store.BuildAssets(a.config.LedgerEndpoint, a.cache, a.health)

	if err := tok.RefreshMetadata(ctx, a.refreshed); err != nil && !errors.Is(err, common.ErrOffline) {
		return err
	}
	printlnFn("Token added:", tok.LedgerID, tok.Symbol)
	return nil
}

// AddNFT registers a non-fungible item on a wallet after verifying the
// wallet actually owns it (skipped when offline).
func (a *App) AddNFT(ctx context.Context) error {
	if !a.isUnlocked() {
		return errLocked
	}

	w, err := a.pickWallet("Wallet (name or public key)")
	if err != nil {
		return err
	}
	collection, err := GetSimpleText(a.reader, "Collection id", os.Stdout)
	if err != nil {
		return err
	}
	id, err := GetSimpleText(a.reader, "Item id", os.Stdout)
	if err != nil {
		return err
	}
	standard, err := GetSimpleText(a.reader, "Standard", os.Stdout)
	if err != nil {
		return err
	}

	n := &ledger.NFT{Collection: collection, ID: id, Standard: standard}
	n.Build(ledger.NewHTTPActor(a.config.LedgerEndpoint, collection), a.health)

	owns, err := n.IsOwner(ctx, w.Principal)
	switch {
	case errors.Is(err, common.ErrOffline):
		printlnFn("Offline: ownership not verified, adding anyway.")
	case err != nil:
		return err
	case !owns:
		return fmt.Errorf("wallet %q does not own %s", w.Name, n.Key())
	}

	if err := a.store.AddNFT(ctx, w.Public, n); err != nil {
		return err
	}
	printlnFn("NFT added:", n.Key())
	return nil
}

// CheckNFTs re-verifies ownership of every held item against its remote
// collection. An item transferred away through another client is offered
// for removal; when offline the walk stops without touching anything.
func (a *App) CheckNFTs(ctx context.Context) error {
	if !a.isUnlocked() {
		return errLocked
	}

	checked, gone := 0, 0
	for _, w := range a.store.Wallets() {
		for key, n := range w.NFTs {
			owns, err := n.IsOwner(ctx, w.Principal)
			if errors.Is(err, common.ErrOffline) {
				printlnFn("Offline: ownership check stopped.")
				return nil
			}
			if err != nil {
				return err
			}
			checked++
			if owns {
				continue
			}

			gone++
			printlnFn(fmt.Sprintf("%s (%s) is no longer owned by wallet %q.", key, n.Standard, w.Name))
			if !Confirm(a.reader, "Remove it from the wallet?", os.Stdout) {
				continue
			}
			if err := a.store.RemoveNFT(ctx, w.Public, key); err != nil {
				return err
			}
			printlnFn("Removed", key)
		}
	}

	if checked == 0 {
		printlnFn("No NFTs registered.")
		return nil
	}
	if gone == 0 {
		printlnFn(fmt.Sprintf("All %d items still owned.", checked))
	}
	return nil
}
