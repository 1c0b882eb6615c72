package kamino

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
)

// Default configuration values.
const (
	DefaultBaseURL     = "https://api.kamino.finance"
	DefaultTimeout     = 30 * time.Second
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 1 * time.Second
	DefaultMaxDelay    = 10 * time.Second
	DefaultBackoffMult = 2.0
)

// Client is an HTTP client for the Kamino lending API.
type Client struct {
	baseURL     string
	client      *http.Client
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithBaseURL overrides the API base URL.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts.
func WithMaxRetries(n int) ClientOption {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets initial retry delay.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *Client) {
		c.retryDelay = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// NewClient creates a new Kamino API client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:     DefaultBaseURL,
		client:      &http.Client{Timeout: DefaultTimeout},
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: DefaultBackoffMult,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// reserveMetrics is one reserve entry from the market metrics endpoint.
type reserveMetrics struct {
	LiquidityTokenMint   string  `json:"liquidityTokenMint"`
	LiquidityTokenSymbol string  `json:"liquidityToken"`
	Decimals             int32   `json:"decimals"`
	SupplyAPY            float64 `json:"supplyApy"`
	UtilizationRatio     float64 `json:"utilizationRatio"`
	LiquidityAvailable   float64 `json:"liquidityAvailable"`
	TotalBorrowed        float64 `json:"totalBorrow"`
	BorrowLimit          float64 `json:"borrowLimit"`
	DepositLimit         float64 `json:"depositLimit"`
	LoanToValue          float64 `json:"loanToValueRatio"`
}

// obligationDeposit is one deposit entry from the user obligations endpoint.
// Amounts arrive as decimal strings in base units.
type obligationDeposit struct {
	MintAddress string          `json:"mintAddress"`
	Amount      decimal.Decimal `json:"amount"`
}

// GetReserveMetrics retrieves current metrics for all reserves of a market.
// slot pins the APY computation to a chain slot.
func (c *Client) GetReserveMetrics(ctx context.Context, marketID string, slot uint64) ([]reserveMetrics, error) {
	path := fmt.Sprintf("/kamino-market/%s/reserves/metrics", url.PathEscape(marketID))
	query := url.Values{"env": {"mainnet-beta"}}
	if slot > 0 {
		query.Set("slot", fmt.Sprintf("%d", slot))
	}

	var out []reserveMetrics
	if err := c.get(ctx, path, query, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetObligations retrieves the wallet's current deposits on a market.
func (c *Client) GetObligations(ctx context.Context, marketID, walletAddress string) ([]obligationDeposit, error) {
	path := fmt.Sprintf("/kamino-market/%s/users/%s/obligations",
		url.PathEscape(marketID), url.PathEscape(walletAddress))

	var out []obligationDeposit
	if err := c.get(ctx, path, url.Values{"env": {"mainnet-beta"}}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// get performs a GET request with retries and exponential backoff.
func (c *Client) get(ctx context.Context, path string, query url.Values, result interface{}) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			// Exponential backoff
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("http request: %w", err)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("rate limited (429)")
			continue
		}

		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
			continue
		}

		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}

		return nil
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}
