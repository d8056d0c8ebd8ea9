package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tundrawallet/tundra/internal/common"
)

// HTTPActor speaks plain JSON over HTTP to a ledger gateway. It implements
// Actor, IndexActor and NFTActor; which of those are meaningful depends on
// what the gateway serves for the given ledger id.
//
// Transport-level failures (connection refused, timeouts, DNS) are wrapped
// in common.ErrOffline; application-level rejections come back as ordinary
// errors.
type HTTPActor struct {
	endpoint string
	ledgerID string
	client   *http.Client
}

// NewHTTPActor builds an actor for one ledger behind the gateway endpoint.
func NewHTTPActor(endpoint, ledgerID string) *HTTPActor {
	return &HTTPActor{
		endpoint: endpoint,
		ledgerID: ledgerID,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

func (a *HTTPActor) call(ctx context.Context, method string, in, out any) error {
	body, err := json.Marshal(map[string]any{
		"ledger": a.ledgerID,
		"method": method,
		"params": in,
	})
	if err != nil {
		return fmt.Errorf("encode %s request: %w", method, err)
	}

	url := a.endpoint + "/v1/ledger/" + method
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrOffline, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s rejected: %s; body: %s", method, resp.Status, string(b))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", method, err)
	}
	return nil
}

func (a *HTTPActor) Balance(ctx context.Context, account string) (uint64, error) {
	var out struct {
		Balance uint64 `json:"balance"`
	}
	if err := a.call(ctx, "balance", map[string]string{"account": account}, &out); err != nil {
		return 0, err
	}
	return out.Balance, nil
}

func (a *HTTPActor) Transfer(ctx context.Context, req TransferRequest) (*Receipt, error) {
	var out Receipt
	if err := a.call(ctx, "transfer", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *HTTPActor) Metadata(ctx context.Context) (*Metadata, error) {
	var out Metadata
	if err := a.call(ctx, "metadata", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *HTTPActor) Transactions(ctx context.Context, q TxQuery) ([]TxRecord, error) {
	var out struct {
		Transactions []TxRecord `json:"transactions"`
	}
	if err := a.call(ctx, "transactions", q, &out); err != nil {
		return nil, err
	}
	return out.Transactions, nil
}

func (a *HTTPActor) OwnerOf(ctx context.Context, id string) (string, error) {
	var out struct {
		Owner string `json:"owner"`
	}
	if err := a.call(ctx, "owner", map[string]string{"id": id}, &out); err != nil {
		return "", err
	}
	return out.Owner, nil
}
