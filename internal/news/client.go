// Package news fetches business headlines from Mediastack to enrich stock
// idea reasons. The enrichment is purely additive: no key, a failed call or
// an empty result all mean "no headline", never an error the caller has to
// handle beyond skipping the enrichment.
package news

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
)

const requestTimeout = 6 * time.Second

// Client is the Mediastack headline client. Responses are cached per query
// so the trending card does not re-query the free tier on every refresh.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	cache      *cache.Cache
	log        zerolog.Logger
}

// NewClient creates a headline client. An empty apiKey disables lookups.
func NewClient(baseURL, apiKey string, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = "http://api.mediastack.com/v1/news"
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: requestTimeout},
		cache:      cache.New(15*time.Minute, 30*time.Minute),
		log:        log,
	}
}

// TopHeadline returns the latest business headline matching the query, or an
// empty string when nothing usable is available.
func (c *Client) TopHeadline(ctx context.Context, query string) (string, error) {
	if c.apiKey == "" {
		return "", nil
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return "", nil
	}

	if cached, ok := c.cache.Get(query); ok {
		return cached.(string), nil
	}

	params := url.Values{}
	params.Set("access_key", c.apiKey)
	params.Set("languages", "en")
	params.Set("sort", "published_desc")
	params.Set("limit", "1")
	params.Set("categories", "business")
	params.Set("keywords", query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("TopHeadline: build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Debug().Err(err).Str("query", query).Msg("Headline lookup failed")
		return "", nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", nil
	}

	var parsed struct {
		Data []struct {
			Title       string `json:"title"`
			Description string `json:"description"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		c.log.Debug().Err(err).Str("query", query).Msg("Headline response not parseable")
		return "", nil
	}
	if len(parsed.Data) == 0 {
		c.cache.SetDefault(query, "")
		return "", nil
	}

	headline := strings.TrimSpace(parsed.Data[0].Title)
	if headline == "" {
		headline = strings.TrimSpace(parsed.Data[0].Description)
	}
	c.cache.SetDefault(query, headline)
	return headline, nil
}
