package ledger

import (
	"fmt"
	"time"

	"github.com/tundrawallet/tundra/internal/lookalike"
)

// EntryType classifies a history entry from the wallet's point of view.
type EntryType string

const (
	EntrySend    EntryType = "send"
	EntryRecv    EntryType = "recv"
	EntryApprove EntryType = "approve"
)

// Entry is one row of the local transaction log. Keys are composite ids
// stable across refetches (ledgerId:txId, or ledgerId:localTimestamp for
// locally logged operations), so repeated fetches are idempotent.
type Entry struct {
	Type     EntryType `json:"type"`
	Datetime string    `json:"datetime"` // ISO-8601
	From     string    `json:"from"`
	To       string    `json:"to"`
	Ledger   string    `json:"ledger"`
	Symbol   string    `json:"symbol,omitempty"`
	Amount   *uint64   `json:"amount,omitempty"`
	Fee      *uint64   `json:"fee,omitempty"`
}

// CompositeID builds the stable log key for a fetched transaction.
func CompositeID(ledgerID, txID string) string {
	return ledgerID + ":" + txID
}

// LocalCompositeID builds the log key for a locally logged operation that
// has no remote transaction id yet.
func LocalCompositeID(ledgerID string, at time.Time) string {
	return fmt.Sprintf("%s:%d", ledgerID, at.UnixNano())
}

// EntryFromRecord converts a raw index row into a log entry, classifying its
// direction against the wallet's own addresses. Approve operations keep
// their own type for both standards; everything else is send or recv
// depending on which side of the transfer the wallet sits on.
func EntryFromRecord(ledgerID, symbol string, rec TxRecord, own map[string]struct{}) (string, Entry) {
	amount, fee := rec.Amount, rec.Fee

	e := Entry{
		Datetime: rec.Timestamp.UTC().Format(time.RFC3339),
		From:     rec.From,
		To:       rec.To,
		Ledger:   ledgerID,
		Symbol:   symbol,
		Amount:   &amount,
		Fee:      &fee,
	}

	switch {
	case rec.Kind == TxApprove:
		e.Type = EntryApprove
	case contains(own, rec.To):
		e.Type = EntryRecv
	default:
		e.Type = EntrySend
	}

	return CompositeID(ledgerID, rec.ID), e
}

func contains(set map[string]struct{}, key string) bool {
	_, ok := set[key]
	return ok
}

// Merge folds fetched entries into the persisted log by composite id. The
// log is append-only from the fetch's perspective: an id already present is
// never overwritten. Returns how many new ids were added; a rebuild signal
// should fire only when the result is positive.
func Merge(log map[string]Entry, fetched map[string]Entry) int {
	added := 0
	for id, e := range fetched {
		if _, ok := log[id]; ok {
			continue
		}
		log[id] = e
		added++
	}
	return added
}

// Party classifies a counterparty address for display and the
// wallet-poisoning warning.
type Party string

const (
	// PartyOwn: the exact address of one of the user's own wallets.
	PartyOwn Party = "own"
	// PartyKnown: an exact address-book match.
	PartyKnown Party = "known"
	// PartySuspicious: resembles a trusted address without being one.
	PartySuspicious Party = "suspicious"
	// PartyExternal: no relation to anything the user trusts.
	PartyExternal Party = "external"
)

// ClassifyParty resolves an address against the user's own wallets and
// address book. Exact matches win; only then is the lookalike heuristic
// consulted, so a legitimate known address is never flagged suspicious.
func ClassifyParty(addr string, own, known []string) Party {
	for _, o := range own {
		if addr == o {
			return PartyOwn
		}
	}
	for _, k := range known {
		if addr == k {
			return PartyKnown
		}
	}

	trusted := make([]string, 0, len(own)+len(known))
	trusted = append(trusted, own...)
	trusted = append(trusted, known...)
	if lookalike.IsSimilar(addr, trusted) {
		return PartySuspicious
	}
	return PartyExternal
}
