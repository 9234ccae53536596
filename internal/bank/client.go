// Package bank talks to the Nessie-style banking sandbox. Every mutating
// call is preceded by a short connectivity probe; when the sandbox is out of
// reach the client degrades to mock identifiers and synthesized data instead
// of failing the caller.
package bank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-coach/internal/domain"
)

const probeTimeout = 5 * time.Second

// Client is the sandbox banking client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewClient creates a sandbox client. An empty apiKey is allowed; every call
// then takes the mock path.
func NewClient(baseURL, apiKey string, log zerolog.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        log,
	}
}

// reachable probes the sandbox with a short timeout. A failed probe routes
// the caller onto the mock path.
func (c *Client) reachable(ctx context.Context) bool {
	if c.apiKey == "" {
		return false
	}
	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, c.endpoint("/customers", nil), nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode == http.StatusOK
}

// CreateCustomerAndAccount creates a demo customer with a checking account.
// Unreachable sandbox or a non-201 response produces mock identifiers, never
// an error the user sees.
func (c *Client) CreateCustomerAndAccount(ctx context.Context) (string, string, error) {
	if !c.reachable(ctx) {
		c.log.Warn().Msg("Banking sandbox not accessible, using mock customer and account")
		return c.mockCustomerAndAccount()
	}

	customerPayload := map[string]interface{}{
		"first_name": "Demo",
		"last_name":  "User",
		"address": map[string]string{
			"street_number": "123",
			"street_name":   "Demo Street",
			"city":          "Austin",
			"state":         "TX",
			"zip":           "78701",
		},
	}
	customerID, err := c.postForID(ctx, "/customers", customerPayload)
	if err != nil {
		c.log.Warn().Err(err).Msg("Customer creation failed, using mock data")
		return c.mockCustomerAndAccount()
	}

	accountPayload := map[string]interface{}{
		"type":     "Checking",
		"nickname": "Main Checking",
		"rewards":  0,
		"balance":  1000,
	}
	accountID, err := c.postForID(ctx, "/customers/"+customerID+"/accounts", accountPayload)
	if err != nil {
		c.log.Warn().Err(err).Msg("Account creation failed, using mock data")
		return c.mockCustomerAndAccount()
	}

	return customerID, accountID, nil
}

func (c *Client) mockCustomerAndAccount() (string, string, error) {
	n := rand.Intn(900000) + 100000
	return fmt.Sprintf("mock_customer_%d", n), fmt.Sprintf("mock_account_%d", n), nil
}

// SeedTransactions pushes the sample purchases into a sandbox account.
// Skipped silently when the sandbox is unreachable (mock accounts have
// nothing to seed; the synthesized batch covers them at fetch time).
func (c *Client) SeedTransactions(ctx context.Context, accountID string) error {
	if !c.reachable(ctx) {
		c.log.Warn().Msg("Banking sandbox not accessible, skipping transaction seeding")
		return nil
	}

	for _, p := range samplePurchases {
		payload := map[string]interface{}{
			"medium":      "balance",
			"amount":      p.Amount,
			"description": p.Description,
		}
		if _, err := c.postForID(ctx, "/accounts/"+accountID+"/purchases", payload); err != nil {
			return fmt.Errorf("SeedTransactions: %w", err)
		}
	}

	c.log.Info().Int("count", len(samplePurchases)).Str("account_id", accountID).Msg("Seeded transactions")
	return nil
}

// FetchTransactions returns the raw purchase records for an account. Any
// failure, including an empty result, is ErrSourceUnavailable so the caller
// substitutes the synthesized batch.
func (c *Client) FetchTransactions(ctx context.Context, accountID string) ([]map[string]interface{}, error) {
	if !c.reachable(ctx) {
		return nil, fmt.Errorf("FetchTransactions: %w", domain.ErrSourceUnavailable)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/accounts/"+accountID+"/purchases", nil), nil)
	if err != nil {
		return nil, fmt.Errorf("FetchTransactions: build request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("FetchTransactions: %w: %v", domain.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("FetchTransactions: %w: status %d", domain.ErrSourceUnavailable, resp.StatusCode)
	}

	var records []map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("FetchTransactions: decode: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("FetchTransactions: %w: empty purchase list", domain.ErrSourceUnavailable)
	}
	return records, nil
}

// CreateTransaction records a purchase at the origin and returns its id.
func (c *Client) CreateTransaction(ctx context.Context, accountID, description string, amount float64) (string, error) {
	if !c.reachable(ctx) {
		return "", fmt.Errorf("CreateTransaction: %w", domain.ErrSourceUnavailable)
	}

	payload := map[string]interface{}{
		"medium":      "balance",
		"amount":      amount,
		"description": description,
	}
	id, err := c.postForID(ctx, "/accounts/"+accountID+"/purchases", payload)
	if err != nil {
		return "", fmt.Errorf("CreateTransaction: %w", err)
	}
	return id, nil
}

// DeleteTransaction removes a purchase at the origin.
func (c *Client) DeleteTransaction(ctx context.Context, accountID, id string) error {
	if !c.reachable(ctx) {
		return fmt.Errorf("DeleteTransaction: %w", domain.ErrSourceUnavailable)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.endpoint("/purchases/"+id, nil), nil)
	if err != nil {
		return fmt.Errorf("DeleteTransaction: build request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("DeleteTransaction: %w: %v", domain.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("DeleteTransaction: status %d", resp.StatusCode)
	}
	return nil
}

// postForID POSTs a JSON payload and extracts objectCreated._id from the
// sandbox's 201 response.
func (c *Client) postForID(ctx context.Context, path string, payload map[string]interface{}) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("postForID: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(path, nil), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("postForID: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("postForID: %w: %v", domain.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("postForID: %s returned status %d", path, resp.StatusCode)
	}

	var parsed struct {
		ObjectCreated struct {
			ID string `json:"_id"`
		} `json:"objectCreated"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("postForID: decode: %w", err)
	}
	if parsed.ObjectCreated.ID == "" {
		return "", fmt.Errorf("postForID: %s response missing objectCreated._id", path)
	}
	return parsed.ObjectCreated.ID, nil
}

func (c *Client) endpoint(path string, query url.Values) string {
	if query == nil {
		query = url.Values{}
	}
	query.Set("key", c.apiKey)
	return c.baseURL + path + "?" + query.Encode()
}
