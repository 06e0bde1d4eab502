// Package cartclient consumes the storefront cart endpoints. The paths and
// payload shapes are fixed by the platform; this client adds typed access,
// rate-limit detection and the platform's {description} error body. Calls are
// single-attempt by design: a failed call surfaces inline and the user retries
// by clicking again.
package cartclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/solbruket/storefront-engine/internal/money"
)

// ErrRateLimited marks HTTP 429 responses. Use errors.Is; the concrete error
// may carry a Retry-After hint.
var ErrRateLimited = errors.New("cart: rate limited")

// RateLimitedError is returned on 429 responses.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("cart: rate limited, retry after %s", e.RetryAfter)
	}
	return "cart: rate limited"
}

// Is makes errors.Is(err, ErrRateLimited) work.
func (e *RateLimitedError) Is(target error) bool { return target == ErrRateLimited }

// APIError is a non-2xx cart response carrying the platform's description.
type APIError struct {
	StatusCode  int
	Description string
}

func (e *APIError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("cart: %s (status %d)", e.Description, e.StatusCode)
	}
	return fmt.Sprintf("cart: request failed (status %d)", e.StatusCode)
}

// Cart is the platform's cart snapshot.
type Cart struct {
	ItemCount  int         `json:"item_count"`
	TotalPrice money.Money `json:"total_price"`
	Items      []Item      `json:"items"`
}

// Item is one cart line in a snapshot.
type Item struct {
	Key            string      `json:"key"`
	Image          string      `json:"image"`
	Title          string      `json:"title"`
	ProductTitle   string      `json:"product_title"`
	VariantTitle   string      `json:"variant_title"`
	FinalLinePrice money.Money `json:"final_line_price"`
	Quantity       int         `json:"quantity"`
}

// AddItem is one entry of an add payload.
type AddItem struct {
	ID         string            `json:"id"`
	Quantity   int               `json:"quantity"`
	Properties map[string]string `json:"properties,omitempty"`
}

// Client talks to the cart endpoints under BaseURL.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// New builds a client with a bounded default timeout.
func New(baseURL string, logger zerolog.Logger) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 5 * time.Second},
		Logger:     logger,
	}
}

// Get fetches the current cart snapshot from /cart.js.
func (c *Client) Get(ctx context.Context) (Cart, error) {
	var cart Cart
	if err := c.do(ctx, http.MethodGet, "/cart.js", nil, &cart); err != nil {
		return Cart{}, err
	}
	return cart, nil
}

// Add posts the items to /cart/add.js using the multi-item payload.
func (c *Client) Add(ctx context.Context, items []AddItem) error {
	if len(items) == 0 {
		return errors.New("cart: no items to add")
	}
	payload := map[string]any{"items": items}
	return c.do(ctx, http.MethodPost, "/cart/add.js", payload, nil)
}

// AddOne posts a single item, keeping its line-item properties.
func (c *Client) AddOne(ctx context.Context, item AddItem) error {
	return c.do(ctx, http.MethodPost, "/cart/add.js", item, nil)
}

// Change sets the quantity of an existing line and returns the new snapshot.
// A quantity of zero removes the line.
func (c *Client) Change(ctx context.Context, lineKey string, quantity int) (Cart, error) {
	if quantity < 0 {
		quantity = 0
	}
	payload := map[string]any{"id": lineKey, "quantity": quantity}
	var cart Cart
	if err := c.do(ctx, http.MethodPost, "/cart/change.js", payload, &cart); err != nil {
		return Cart{}, err
	}
	return cart, nil
}

// UpdateAttributes persists cart-level attributes, used to mirror the selected
// deduction tier for server-side revalidation. Callers treat this as
// best-effort.
func (c *Client) UpdateAttributes(ctx context.Context, attrs map[string]string) error {
	payload := map[string]any{"attributes": attrs}
	return c.do(ctx, http.MethodPost, "/cart/update.js", payload, nil)
}

// Clear empties the cart.
func (c *Client) Clear(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/cart/clear.js", nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	if c == nil || c.BaseURL == "" {
		return errors.New("cart: client not configured")
	}
	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("cart: encode payload: %w", err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("cart: create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	client := c.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("cart: do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := time.Duration(0)
		if v := resp.Header.Get("Retry-After"); v != "" {
			if seconds, parseErr := strconv.Atoi(v); parseErr == nil {
				retryAfter = time.Duration(seconds) * time.Second
			}
		}
		return &RateLimitedError{RetryAfter: retryAfter}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var errBody struct {
			Description string `json:"description"`
		}
		if decodeErr := json.NewDecoder(resp.Body).Decode(&errBody); decodeErr == nil {
			apiErr.Description = errBody.Description
		}
		return apiErr
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("cart: decode response: %w", err)
		}
	}
	return nil
}
