// Package funds provides payout adapters for withdrawing seller proceeds.
package funds

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"nftmarket/internal/marketplace/models"
)

// InMemory records payouts in process. It never fails.
type InMemory struct {
	mu   sync.RWMutex
	sent map[models.Address]models.Amount
}

func NewInMemory() *InMemory {
	return &InMemory{sent: make(map[models.Address]models.Amount)}
}

func (f *InMemory) Send(_ context.Context, to models.Address, amount models.Amount) error {
	if to.IsZero() {
		return errors.New("send to the zero address")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent[to] += amount
	return nil
}

// Sent returns the total paid out to account.
func (f *InMemory) Sent(account models.Address) models.Amount {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.sent[account]
}

// Client sends payouts through an external payments service with
// POST {base}/v1/transfers.
type Client struct {
	endpoint string
	client   *http.Client
}

// NewClient creates a client for baseURL. A nil httpClient gets one with timeout.
func NewClient(baseURL string, timeout time.Duration, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		endpoint: strings.TrimRight(baseURL, "/") + "/v1/transfers",
		client:   httpClient,
	}
}

type transferRequest struct {
	To     string `json:"to"`
	Amount string `json:"amount"`
}

// Send posts the transfer. Amounts travel as decimal strings so the full
// uint64 range survives JSON consumers that parse numbers as doubles.
func (c *Client) Send(ctx context.Context, to models.Address, amount models.Amount) error {
	raw, err := json.Marshal(transferRequest{To: string(to), Amount: fmt.Sprintf("%d", amount)})
	if err != nil {
		return fmt.Errorf("encode transfer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("build transfer request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("transfer request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("transfer returned %s", resp.Status)
	}
	return nil
}
