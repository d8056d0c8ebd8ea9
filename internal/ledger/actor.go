// Package ledger implements the per-asset-standard abstraction over remote
// ledgers: balance, transfer and history operations for fungible tokens and
// ownership checks for NFTs, with TTL caching and offline-mode signaling at
// the transport boundary.
package ledger

import (
	"context"
	"time"

	"github.com/tundrawallet/tundra/internal/keyring"
)

// Standard tags the two supported fungible token standards.
type Standard string

const (
	// StandardNative is the chain's native asset ledger. Transfers accept
	// both principal-form and account-form destinations.
	StandardNative Standard = "native"

	// StandardGeneric is the generic fungible-token standard. Transfers
	// accept only principal-form destinations.
	StandardGeneric Standard = "generic"
)

// AddressKind classifies a destination address.
type AddressKind int

const (
	AddressUnknown AddressKind = iota
	AddressPrincipal
	AddressAccount
)

// KindOf recognizes the two chain address encodings.
func KindOf(addr string) AddressKind {
	switch {
	case keyring.ValidPrincipal(addr):
		return AddressPrincipal
	case keyring.ValidAccountID(addr):
		return AddressAccount
	default:
		return AddressUnknown
	}
}

// Metadata is the slowly-changing ledger description, refreshed on the
// weekly window.
type Metadata struct {
	Name      string   `json:"name"`
	Symbol    string   `json:"symbol"`
	Decimals  uint8    `json:"decimals"`
	Fee       uint64   `json:"fee"`
	Standards []string `json:"standards"`
	Logo      string   `json:"logo,omitempty"`
}

// TransferRequest is a ledger-specific transfer call, already validated on
// the local side.
type TransferRequest struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount uint64 `json:"amount"`
	Fee    uint64 `json:"fee"`
	Memo   uint64 `json:"memo,omitempty"`
}

// Receipt acknowledges an accepted transfer.
type Receipt struct {
	BlockHeight uint64 `json:"block_height"`
}

// TxKind is the remote ledger's own operation tag.
type TxKind string

const (
	TxTransfer TxKind = "transfer"
	TxApprove  TxKind = "approve"
)

// TxRecord is one raw history row as served by an index replica.
type TxRecord struct {
	ID        string    `json:"id"`
	Kind      TxKind    `json:"kind"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Amount    uint64    `json:"amount"`
	Fee       uint64    `json:"fee"`
	Timestamp time.Time `json:"timestamp"`
}

// TxQuery selects history rows from an index replica. Kind narrows the
// result to one operation type; empty means every kind.
type TxQuery struct {
	Account string `json:"account"`
	Limit   int    `json:"limit"`
	Kind    TxKind `json:"kind,omitempty"`
}

// Actor is the remote ledger collaborator. The core treats it as an opaque
// request/response function set; retries, batching and wire encoding are the
// implementation's concern.
type Actor interface {
	Balance(ctx context.Context, account string) (uint64, error)
	Transfer(ctx context.Context, req TransferRequest) (*Receipt, error)
	Metadata(ctx context.Context) (*Metadata, error)
}

// IndexActor is the optional secondary read replica serving paginated
// transaction history. A ledger without a registered index simply has no
// queryable history — that is a distinct state from "no transactions yet".
type IndexActor interface {
	Transactions(ctx context.Context, q TxQuery) ([]TxRecord, error)
}

// NFTActor is the remote collaborator for a non-fungible collection.
type NFTActor interface {
	OwnerOf(ctx context.Context, id string) (string, error)
}
