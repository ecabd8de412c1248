package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cryptoKingdom88/memeCoinBackend/tradingService/logging"
	"github.com/cryptoKingdom88/memeCoinBackend/tradingService/models"
)

const (
	buyPath    = "/api/buy"
	sellPath   = "/api/sell"
	healthPath = "/health"

	// bodies larger than this are not trade answers
	maxResponseSize = 1 << 20
)

// Client talks to the execution proxy that signs and submits transactions.
// Buy and sell are single attempts.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *logging.Logger
}

// ClientOption configures Client
type ClientOption func(*Client)

// WithHTTPClient sets a custom http.Client
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// NewClient creates a proxy client for baseURL with the given request timeout
func NewClient(baseURL string, timeout time.Duration, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logging.NewLogger("trading-service", "proxy"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Buy submits a buy for the given DEX
func (c *Client) Buy(ctx context.Context, dex models.DexParams, params *models.TradeParams) (*models.TradeResponse, error) {
	return c.trade(ctx, buyPath, dex, params)
}

// Sell submits a sell for the given DEX
func (c *Client) Sell(ctx context.Context, dex models.DexParams, params *models.TradeParams) (*models.TradeResponse, error) {
	return c.trade(ctx, sellPath, dex, params)
}

// Health queries the proxy health endpoint
func (c *Client) Health(ctx context.Context) (*models.HealthResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+healthPath, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	body, status, err := c.do(req)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("proxy health: unexpected status %d: %s", status, string(body))
	}

	var health models.HealthResponse
	if err := json.Unmarshal(body, &health); err != nil {
		return nil, fmt.Errorf("proxy health: unmarshal response: %w", err)
	}
	return &health, nil
}

func (c *Client) trade(ctx context.Context, path string, dex models.DexParams, params *models.TradeParams) (*models.TradeResponse, error) {
	payload, err := RequestBody(dex, params)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	body, status, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var resp models.TradeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		if status != http.StatusOK {
			return nil, fmt.Errorf("proxy %s: unexpected status %d: %s", path, status, string(body))
		}
		return nil, fmt.Errorf("proxy %s: unmarshal response: %w", path, err)
	}

	c.logger.Debug("Proxy trade answered", map[string]interface{}{
		"path":        path,
		"dex_type":    dex.DexType(),
		"mint":        params.Mint,
		"status":      status,
		"success":     resp.Success,
		"signature":   resp.Signature,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	// a non-2xx answer with a decodable body is a rejection, not a transport error
	if status < 200 || status > 299 {
		resp.Success = false
		if resp.Message == "" {
			resp.Message = fmt.Sprintf("proxy returned status %d", status)
		}
	}
	return &resp, nil
}

func (c *Client) do(req *http.Request) ([]byte, int, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("proxy request %s: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("proxy read response: %w", err)
	}
	return body, resp.StatusCode, nil
}

// RequestBody flattens DEX params and trade params into one JSON object and
// adds dex_type. Trade params win on key collisions.
func RequestBody(dex models.DexParams, params *models.TradeParams) ([]byte, error) {
	if dex == nil || params == nil {
		return nil, fmt.Errorf("proxy request: dex params and trade params are required")
	}

	merged := make(map[string]json.RawMessage)
	if err := mergeObject(merged, dex); err != nil {
		return nil, fmt.Errorf("encode dex params: %w", err)
	}
	if err := mergeObject(merged, params); err != nil {
		return nil, fmt.Errorf("encode trade params: %w", err)
	}

	dexType, err := json.Marshal(dex.DexType())
	if err != nil {
		return nil, err
	}
	merged["dex_type"] = dexType

	return json.Marshal(merged)
}

func mergeObject(dst map[string]json.RawMessage, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return err
	}
	for k, val := range fields {
		dst[k] = val
	}
	return nil
}
