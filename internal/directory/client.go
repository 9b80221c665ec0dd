package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"nftmarket/internal/marketplace/models"
	"nftmarket/pkg/platform/sentinel"
)

// Client talks to an external asset registry over HTTP.
//
//	GET  {base}/v1/collections/{collection}/items/{item}/owner
//	GET  {base}/v1/collections/{collection}/items/{item}/approval?operator=
//	POST {base}/v1/collections/{collection}/items/{item}/transfer
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a client for baseURL. A nil httpClient gets one with timeout.
func NewClient(baseURL string, timeout time.Duration, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  httpClient,
	}
}

type ownerResponse struct {
	Owner string `json:"owner"`
}

type approvalResponse struct {
	Approved bool `json:"approved"`
}

type transferRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// OwnerOf returns sentinel.ErrNotFound when the registry does not know the item.
func (c *Client) OwnerOf(ctx context.Context, collection models.Collection, itemID models.ItemID) (models.Address, error) {
	var resp ownerResponse
	if err := c.do(ctx, http.MethodGet, c.itemURL(collection, itemID, "owner"), nil, &resp); err != nil {
		return "", err
	}
	return models.NormalizeAddress(resp.Owner), nil
}

func (c *Client) IsApprovedForTransfer(ctx context.Context, collection models.Collection, itemID models.ItemID, operator models.Address) (bool, error) {
	endpoint := c.itemURL(collection, itemID, "approval") + "?operator=" + url.QueryEscape(string(operator))
	var resp approvalResponse
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &resp); err != nil {
		return false, err
	}
	return resp.Approved, nil
}

func (c *Client) Transfer(ctx context.Context, collection models.Collection, itemID models.ItemID, from, to models.Address) error {
	body := transferRequest{From: string(from), To: string(to)}
	return c.do(ctx, http.MethodPost, c.itemURL(collection, itemID, "transfer"), body, nil)
}

func (c *Client) itemURL(collection models.Collection, itemID models.ItemID, action string) string {
	return fmt.Sprintf("%s/v1/collections/%s/items/%s/%s",
		c.baseURL, url.PathEscape(string(collection)), url.PathEscape(string(itemID)), action)
}

func (c *Client) do(ctx context.Context, method, endpoint string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode directory request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("build directory request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("directory request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return sentinel.ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("directory %s %s returned %s", method, req.URL.Path, resp.Status)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode directory response: %w", err)
	}
	return nil
}
