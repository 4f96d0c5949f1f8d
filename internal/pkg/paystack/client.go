package paystack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const DefaultBaseURL = "https://api.paystack.co"

// StatusSuccess is the transaction status reported for a settled charge.
const StatusSuccess = "success"

// Config holds Paystack API configuration
type Config struct {
	BaseURL   string
	SecretKey string
	Timeout   time.Duration
	// HTTPClient overrides the default client (tests).
	HTTPClient *http.Client
}

// Client talks to the Paystack transaction API.
type Client struct {
	httpClient *http.Client
	config     Config
}

// APIError is returned when Paystack answers with a non-2xx status or
// status:false. Message is the gateway's own message.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("paystack api error (status %d): %s", e.StatusCode, e.Message)
}

// CustomField is shown on the Paystack checkout and dashboard.
type CustomField struct {
	DisplayName  string `json:"display_name"`
	VariableName string `json:"variable_name"`
	Value        string `json:"value"`
}

// Metadata is attached to the transaction and echoed back in webhooks.
type Metadata struct {
	Plan         string        `json:"plan"`
	Credits      int           `json:"credits"`
	AccountID    string        `json:"accountId"`
	ProfileID    string        `json:"profile_id,omitempty"`
	CustomFields []CustomField `json:"custom_fields,omitempty"`
}

// InitializeRequest represents transaction initialization request
type InitializeRequest struct {
	Email       string   `json:"email"`
	Amount      int64    `json:"amount"`
	Currency    string   `json:"currency,omitempty"`
	Reference   string   `json:"reference,omitempty"`
	CallbackURL string   `json:"callback_url,omitempty"`
	Metadata    Metadata `json:"metadata"`
}

// InitializeResponse represents a created checkout session
type InitializeResponse struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

// Transaction is the subset of the verify payload the service relies on.
type Transaction struct {
	ID        int64           `json:"id"`
	Status    string          `json:"status"`
	Reference string          `json:"reference"`
	Amount    int64           `json:"amount"`
	Currency  string          `json:"currency"`
	PaidAt    *time.Time      `json:"paid_at"`
	Metadata  json.RawMessage `json:"metadata"`
	Customer  Customer        `json:"customer"`
}

// Customer identifies the payer.
type Customer struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

type envelope[T any] struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

// NewClient creates new Paystack API client
func NewClient(cfg Config) *Client {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		httpClient: httpClient,
		config:     cfg,
	}
}

// Initialize creates a hosted checkout session.
func (c *Client) Initialize(ctx context.Context, req InitializeRequest) (*InitializeResponse, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("validation error: amount must be > 0")
	}
	if strings.TrimSpace(req.Email) == "" {
		return nil, fmt.Errorf("validation error: email must be non-empty")
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode paystack request: %w", err)
	}

	var out envelope[InitializeResponse]
	if err := c.do(ctx, http.MethodPost, "/transaction/initialize", bytes.NewReader(body), &out); err != nil {
		return nil, err
	}
	if out.Data.AuthorizationURL == "" {
		return nil, &APIError{StatusCode: http.StatusOK, Message: "missing authorization_url in response"}
	}

	return &out.Data, nil
}

// Verify fetches the server-side state of a transaction by reference.
func (c *Client) Verify(ctx context.Context, reference string) (*Transaction, error) {
	if strings.TrimSpace(reference) == "" {
		return nil, fmt.Errorf("validation error: reference must be non-empty")
	}

	var out envelope[Transaction]
	if err := c.do(ctx, http.MethodGet, "/transaction/verify/"+url.PathEscape(reference), nil, &out); err != nil {
		return nil, err
	}

	return &out.Data, nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, out interface{}) error {
	if c == nil || c.httpClient == nil {
		return fmt.Errorf("paystack client is not initialized")
	}
	if strings.TrimSpace(c.config.SecretKey) == "" {
		return fmt.Errorf("paystack config error: secret key is empty")
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	endpoint := strings.TrimRight(c.config.BaseURL, "/") + path
	httpReq, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("paystack api call failed: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.config.SecretKey)
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("paystack api call failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("paystack api call failed: %w", err)
	}

	// status and message are read separately so a failed call still
	// surfaces the gateway's message even if data has an unexpected shape.
	var head struct {
		Status  bool   `json:"status"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return fmt.Errorf("failed to parse paystack response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !head.Status {
		msg := head.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to parse paystack response: %w", err)
	}
	return nil
}

// IsAPIError reports whether err carries a gateway-side rejection.
func IsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
