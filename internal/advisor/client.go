// Package advisor wraps the Gemini API behind the generative contracts the
// engine consumes. Responses are decoded strictly; anything that does not
// match the expected structure becomes ErrMalformedResponse so the caller's
// fallback chain takes over.
package advisor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/dvloznov/finance-coach/internal/domain"
)

// Client is the Gemini-backed advisor.
type Client struct {
	client  *genai.Client
	model   string
	limiter *rate.Limiter
	log     zerolog.Logger
}

// NewClient creates a Gemini client. The limiter spaces generative calls out
// so the trending retry loop cannot burst past the API quota.
func NewClient(ctx context.Context, apiKey, model string, log zerolog.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("advisor.NewClient: %w: no API key configured", domain.ErrSourceUnavailable)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("advisor.NewClient: create genai client: %w", err)
	}

	return &Client{
		client:  client,
		model:   model,
		limiter: rate.NewLimiter(rate.Every(500*time.Millisecond), 4),
		log:     log,
	}, nil
}

// generate sends one prompt and returns the raw response text.
func (c *Client) generate(ctx context.Context, prompt string, cfg *genai.GenerateContentConfig) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}

	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("generate: %w: %v", domain.ErrSourceUnavailable, err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("generate: %w: empty response", domain.ErrMalformedResponse)
	}
	return text, nil
}

// CategorizeTransactions classifies a batch of descriptions as Need or Want,
// aligned positionally with the input.
func (c *Client) CategorizeTransactions(ctx context.Context, descriptions []string) ([]domain.Category, error) {
	raw, err := c.generate(ctx, categorizePrompt(descriptions), nil)
	if err != nil {
		return nil, fmt.Errorf("CategorizeTransactions: %w", err)
	}

	var parsed struct {
		Transactions []string `json:"transactions"`
	}
	if err := json.Unmarshal([]byte(cleanModelJSON(raw)), &parsed); err != nil {
		return nil, fmt.Errorf("CategorizeTransactions: %w: %v", domain.ErrMalformedResponse, err)
	}
	if parsed.Transactions == nil {
		return nil, fmt.Errorf("CategorizeTransactions: %w: missing 'transactions' field", domain.ErrMalformedResponse)
	}

	labels := make([]domain.Category, len(parsed.Transactions))
	for i, l := range parsed.Transactions {
		labels[i] = domain.Category(strings.TrimSpace(l))
	}
	return labels, nil
}

// Recommend produces a short coaching suggestion from the spending context.
func (c *Client) Recommend(ctx context.Context, needsTotal, wantsTotal, goal float64, wantDescriptions []string) (string, error) {
	raw, err := c.generate(ctx, recommendPrompt(needsTotal, wantsTotal, goal, wantDescriptions), nil)
	if err != nil {
		return "", fmt.Errorf("Recommend: %w", err)
	}

	var parsed struct {
		TopWantTransactions []struct {
			Description string  `json:"description"`
			Amount      float64 `json:"amount"`
		} `json:"top_want_transactions"`
		TopCategories []string `json:"top_categories"`
		Suggestion    string   `json:"suggestion"`
		Reason        string   `json:"reason"`
	}
	if err := json.Unmarshal([]byte(cleanModelJSON(raw)), &parsed); err != nil {
		// The model occasionally answers in prose; the first line is still a
		// usable suggestion.
		line := strings.TrimSpace(strings.SplitN(raw, "\n", 2)[0])
		if line == "" {
			return "", fmt.Errorf("Recommend: %w: %v", domain.ErrMalformedResponse, err)
		}
		if len(line) > 500 {
			line = line[:500]
		}
		return line, nil
	}

	var parts []string
	if s := strings.TrimSpace(parsed.Suggestion); s != "" {
		parts = append(parts, s)
	}
	if r := strings.TrimSpace(parsed.Reason); r != "" {
		parts = append(parts, r)
	}
	if len(parsed.TopWantTransactions) > 0 {
		items := make([]string, 0, len(parsed.TopWantTransactions))
		for _, t := range parsed.TopWantTransactions {
			items = append(items, fmt.Sprintf("%s ($%.2f)", strings.TrimSpace(t.Description), t.Amount))
		}
		parts = append(parts, "Top wants: "+strings.Join(items, ", ")+".")
	}
	if len(parsed.TopCategories) > 0 {
		parts = append(parts, "Major categories: "+strings.Join(parsed.TopCategories, ", ")+".")
	}

	final := strings.TrimSpace(strings.Join(parts, " "))
	if final == "" {
		return "", fmt.Errorf("Recommend: %w: empty suggestion", domain.ErrMalformedResponse)
	}
	return final, nil
}

// TrendingIdeas asks for fresh buy/sell ideas avoiding the given symbols.
// seed and temperature vary per attempt so retries actually explore.
func (c *Client) TrendingIdeas(ctx context.Context, avoid []string, seed int64, temperature float64) (*domain.IdeaBatch, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(temperature)),
		Seed:        genai.Ptr(int32(seed % (1 << 31))),
	}
	raw, err := c.generate(ctx, trendingPrompt(avoid, seed), cfg)
	if err != nil {
		return nil, fmt.Errorf("TrendingIdeas: %w", err)
	}

	var batch domain.IdeaBatch
	if err := json.Unmarshal([]byte(cleanModelJSON(raw)), &batch); err != nil {
		return nil, fmt.Errorf("TrendingIdeas: %w: %v", domain.ErrMalformedResponse, err)
	}
	if len(batch.Buys) == 0 && len(batch.Sells) == 0 {
		return nil, fmt.Errorf("TrendingIdeas: %w: empty idea lists", domain.ErrMalformedResponse)
	}
	return &batch, nil
}

// CreditCards asks for card recommendations matching the spending mix.
func (c *Client) CreditCards(ctx context.Context, spendingCategories []string) (*domain.CardSet, error) {
	raw, err := c.generate(ctx, cardsPrompt(spendingCategories), nil)
	if err != nil {
		return nil, fmt.Errorf("CreditCards: %w", err)
	}

	var set domain.CardSet
	if err := json.Unmarshal([]byte(cleanModelJSON(raw)), &set); err != nil {
		return nil, fmt.Errorf("CreditCards: %w: %v", domain.ErrMalformedResponse, err)
	}
	if len(set.Cards) == 0 {
		return nil, fmt.Errorf("CreditCards: %w: empty card list", domain.ErrMalformedResponse)
	}
	return &set, nil
}

// InvestmentConcept asks for the educational index-fund explanation. A
// non-JSON answer still counts; the prose becomes the explanation.
func (c *Client) InvestmentConcept(ctx context.Context, goal float64) (*domain.InvestmentConcept, error) {
	raw, err := c.generate(ctx, investmentPrompt(goal), nil)
	if err != nil {
		return nil, fmt.Errorf("InvestmentConcept: %w", err)
	}

	var concept domain.InvestmentConcept
	if err := json.Unmarshal([]byte(cleanModelJSON(raw)), &concept); err != nil || concept.Explanation == "" {
		return &domain.InvestmentConcept{
			Title:       "Congratulations on Reaching Your Goal!",
			Explanation: strings.TrimSpace(raw),
		}, nil
	}
	return &concept, nil
}
