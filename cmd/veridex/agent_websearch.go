// cmd/veridex/agent_websearch.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// WebSearchAgent is a URL producer over a general web-search API. It returns
// bare URLs for the scraping stage and runs only when the caller enables it.
type WebSearchAgent struct {
	apiKey  string
	baseURL string
	client  *http.Client
	maxURLs int
}

// NewWebSearchAgent creates the general web-search adapter.
func NewWebSearchAgent(cfg *Config) *WebSearchAgent {
	return &WebSearchAgent{
		apiKey:  cfg.SerpAPIKey,
		baseURL: cfg.SerpAPIBaseURL,
		client:  &http.Client{Timeout: ProviderTimeout},
		maxURLs: 5,
	}
}

func (a *WebSearchAgent) Name() string { return AgentWebSearch }

type serpResponse struct {
	Error          string `json:"error"`
	OrganicResults []struct {
		Link string `json:"link"`
	} `json:"organic_results"`
}

// Collect runs a single search with the most specific query variant.
func (a *WebSearchAgent) Collect(ctx context.Context, claim *Claim, queries []string) (*AgentResult, error) {
	result := &AgentResult{}
	if a.apiKey == "" {
		Logger().Error("Web search agent skipped: SERPAPI_API_KEY is not set")
		return result, nil
	}

	query := queryList(claim, queries)[0]
	result.URLs = a.search(ctx, query, nil)
	if len(result.URLs) == 0 {
		Logger().Warning("Web search returned no organic results for query %q", query)
	}
	return result, nil
}

// search performs one provider call, optionally restricted to the given
// sites via the site: operator. Shared with the health adapter.
func (a *WebSearchAgent) search(ctx context.Context, query string, restrictTo []string) []string {
	if len(restrictTo) > 0 {
		sites := make([]string, len(restrictTo))
		for i, d := range restrictTo {
			sites[i] = "site:" + d
		}
		query = fmt.Sprintf("%s (%s)", query, strings.Join(sites, " OR "))
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("engine", "google")
	params.Set("api_key", a.apiKey)

	endpoint := fmt.Sprintf("%s?%s", a.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		Logger().Error("Web search request build failed: %v", err)
		return nil
	}

	resp, err := a.client.Do(req)
	if err != nil {
		Logger().Error("Web search request failed for query %q: %v", query, err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		Logger().Error("Web search API returned status %s for query %q", resp.Status, query)
		return nil
	}

	var payload serpResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		Logger().Error("Web search response decode failed: %v", err)
		return nil
	}
	if payload.Error != "" {
		// Invalid key and exhausted credits both surface here.
		Logger().Error("Web search provider error: %s", payload.Error)
		return nil
	}

	var urls []string
	for i, r := range payload.OrganicResults {
		if i >= a.maxURLs {
			break
		}
		if r.Link != "" {
			urls = append(urls, r.Link)
		}
	}
	return urls
}
