package ledger

import (
	"context"
	"fmt"
	"sync"
)

// NFT is one non-fungible item bound to a wallet. It has no balance;
// ownership is re-verified on demand against the remote collection, since
// the item may have been transferred away through another client.
type NFT struct {
	Collection string `json:"collection"`
	ID         string `json:"id"`
	Standard   string `json:"standard"`
	Thumbnail  string `json:"thumbnail,omitempty"`

	mu     sync.Mutex
	actor  NFTActor
	health *Health
	ready  bool
}

// Key is the composite collection key: collection:id.
func (n *NFT) Key() string {
	return n.Collection + ":" + n.ID
}

// Build attaches the remote collection handle. Idempotent, same contract as
// Token.Build.
func (n *NFT) Build(actor NFTActor, health *Health) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.ready {
		return
	}
	n.actor = actor
	n.health = health
	n.ready = actor != nil
}

// Ready reports whether the remote handle is attached.
func (n *NFT) Ready() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.ready
}

// IsOwner re-checks on the remote collection whether principal still owns
// this item. Callers prompt for removal when it no longer does.
func (n *NFT) IsOwner(ctx context.Context, principal string) (bool, error) {
	n.mu.Lock()
	actor, health, ready := n.actor, n.health, n.ready
	n.mu.Unlock()

	if !ready {
		return false, fmt.Errorf("nft %s: not built", n.Key())
	}

	owner, err := actor.OwnerOf(ctx, n.ID)
	if err != nil {
		return false, health.Report(err)
	}
	_ = health.Report(nil)

	return owner == principal, nil
}
