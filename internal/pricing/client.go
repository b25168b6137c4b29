package pricing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

const (
	pricesPath = "/prices"
	poolsPath  = "/poolsV2"
)

// Oracle is the price API consumed by the quote service. It is batch
// oriented: one call returns every listed asset.
type Oracle interface {
	Quotes(ctx context.Context) ([]Quote, error)
	Pools(ctx context.Context) ([]Pool, error)
}

// Pool describes one DEX contract pair as listed by the oracle.
type Pool struct {
	ContractID string
	TokenA     string
	TokenB     string
}

// Client implements Oracle against the HTTP price API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	network    string
}

// NewClient builds an oracle client for the given base URL and network.
func NewClient(baseURL, network string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		network:    network,
	}
}

type priceResp struct {
	ID       string          `json:"id"`
	PriceUSD decimal.Decimal `json:"priceUsd"`
	Symbol   string          `json:"symbol"`
	Decimals int32           `json:"decimals"`
}

// Quotes fetches the full price list from the oracle.
func (c *Client) Quotes(ctx context.Context) ([]Quote, error) {
	var resp []priceResp
	if err := c.post(ctx, pricesPath, &resp); err != nil {
		return nil, err
	}

	quotes := make([]Quote, 0, len(resp))
	for _, item := range resp {
		quotes = append(quotes, Quote{
			AssetID:  item.ID,
			PriceUSD: item.PriceUSD,
			Decimals: item.Decimals,
			Symbol:   item.Symbol,
			Source:   SourceListed,
		})
	}

	return quotes, nil
}

type poolResp struct {
	ContractID string `json:"contractId"`
	TokenA     struct {
		ID string `json:"id"`
	} `json:"tokenA"`
	TokenB struct {
		ID string `json:"id"`
	} `json:"tokenB"`
}

// Pools fetches the DEX pair listing from the oracle.
func (c *Client) Pools(ctx context.Context) ([]Pool, error) {
	var resp []poolResp
	if err := c.post(ctx, poolsPath, &resp); err != nil {
		return nil, err
	}

	pools := make([]Pool, 0, len(resp))
	for _, item := range resp {
		pools = append(pools, Pool{
			ContractID: item.ContractID,
			TokenA:     item.TokenA.ID,
			TokenB:     item.TokenB.ID,
		})
	}

	return pools, nil
}

func (c *Client) post(ctx context.Context, path string, out interface{}) error {
	payload, err := json.Marshal(map[string]string{"network": c.network})
	if err != nil {
		return fmt.Errorf("encode oracle request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build oracle request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("oracle request %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("oracle request %s: unexpected status %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode oracle response %s: %w", path, err)
	}

	return nil
}
