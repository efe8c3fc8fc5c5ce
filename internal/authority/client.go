// Package authority is the HTTP client for the remote outcome authority.
//
// The authority exposes two endpoints:
//
//	GET  {base}/health  -> {"status":"ok"}
//	POST {base}/bet     {"betAmount": 10, "mode": "base"} -> {"targetPayout": 20}
//
// Both calls are bounded by their own timeout and are never retried; a retry
// is an explicit action of whoever drives the client.
package authority

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Config holds configuration for the authority client.
type Config struct {
	// BaseURL is the authority root, e.g. "http://localhost:8090".
	BaseURL string

	// HealthTimeout bounds GET /health. Defaults to 5 seconds if zero.
	HealthTimeout time.Duration

	// BetTimeout bounds POST /bet. Defaults to 10 seconds if zero.
	BetTimeout time.Duration

	// HTTPClient allows injecting a custom HTTP client (useful for testing).
	HTTPClient *http.Client

	// UserAgent overrides the User-Agent header. Optional.
	UserAgent string
}

const (
	DefaultHealthTimeout = 5 * time.Second
	DefaultBetTimeout    = 10 * time.Second
)

// Client talks to one authority.
type Client struct {
	config Config
	http   *http.Client
}

// NewClient creates a new authority client with the given configuration.
func NewClient(cfg Config) *Client {
	if cfg.HealthTimeout == 0 {
		cfg.HealthTimeout = DefaultHealthTimeout
	}
	if cfg.BetTimeout == 0 {
		cfg.BetTimeout = DefaultBetTimeout
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{config: cfg, http: httpClient}
}

// BaseURL returns the configured authority root.
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// BetRequest is the POST /bet body.
type BetRequest struct {
	BetAmount float64 `json:"betAmount"`
	Mode      string  `json:"mode"`
}

// BetResponse is the decoded POST /bet reply.
type BetResponse struct {
	// TargetPayout is zero and Malformed is set when the field is missing,
	// null, negative or not a JSON number.
	TargetPayout decimal.Decimal
	Malformed    bool
	Tier         string
	BetID        string
}

// HealthResponse is the GET /health body.
type HealthResponse struct {
	Status string `json:"status"`
}

// Health succeeds only when the authority answers 200 with status "ok"
// within the health timeout.
func (c *Client) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.HealthTimeout)
	defer cancel()

	body, err := c.doRequest(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return err
	}

	var hr HealthResponse
	if err := json.Unmarshal(body, &hr); err != nil {
		return fmt.Errorf("authority: decode health: %w", err)
	}
	if hr.Status != "ok" {
		return &UnhealthyError{Status: hr.Status}
	}
	return nil
}

// PlaceBet submits a bet and returns the authority's payout.
func (c *Client) PlaceBet(ctx context.Context, req BetRequest) (*BetResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.BetTimeout)
	defer cancel()

	body, err := c.doRequest(ctx, http.MethodPost, "/bet", req)
	if err != nil {
		return nil, err
	}
	return decodeBetResponse(body)
}

func decodeBetResponse(body []byte) (*BetResponse, error) {
	var raw struct {
		TargetPayout json.RawMessage `json:"targetPayout"`
		Tier         string          `json:"tier"`
		BetID        string          `json:"betId"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("authority: decode bet: %w", err)
	}

	out := &BetResponse{TargetPayout: decimal.Zero, Tier: raw.Tier, BetID: raw.BetID}
	text := strings.TrimSpace(string(raw.TargetPayout))
	switch text {
	case "", "null":
		out.Malformed = true
	default:
		d, err := decimal.NewFromString(text)
		if err != nil || d.IsNegative() {
			out.Malformed = true
			break
		}
		out.TargetPayout = d
	}
	return out, nil
}

// doRequest sends a single request and returns the body of a 200 response.
func (c *Client) doRequest(ctx context.Context, method, path string, body any) ([]byte, error) {
	url := c.config.BaseURL + "/" + strings.TrimPrefix(path, "/")

	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("authority: marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("authority: create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("authority: http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("authority: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}
	return respBody, nil
}
