// cmd/veridex/agent_political.go
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// tavilyClient is a small shared client for the Tavily search API, used by
// the political and finance adapters.
type tavilyClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

type tavilyRequest struct {
	APIKey         string   `json:"api_key"`
	Query          string   `json:"query"`
	SearchDepth    string   `json:"search_depth"`
	IncludeDomains []string `json:"include_domains,omitempty"`
	MaxResults     int      `json:"max_results"`
}

type tavilyResponse struct {
	Results []struct {
		Title   string  `json:"title"`
		URL     string  `json:"url"`
		Content string  `json:"content"`
		Score   float64 `json:"score"`
	} `json:"results"`
}

func newTavilyClient(cfg *Config) *tavilyClient {
	return &tavilyClient{
		apiKey:  cfg.TavilyAPIKey,
		baseURL: cfg.TavilyBaseURL,
		client:  &http.Client{Timeout: ProviderTimeout},
	}
}

// Search queries Tavily restricted to the given domains. Provider failures
// are logged and yield an empty slice.
func (t *tavilyClient) Search(ctx context.Context, query string, domains []string, maxResults int) []tavilyResult {
	body, err := json.Marshal(tavilyRequest{
		APIKey:         t.apiKey,
		Query:          query,
		SearchDepth:    "advanced",
		IncludeDomains: domains,
		MaxResults:     maxResults,
	})
	if err != nil {
		Logger().Error("Tavily request marshal failed: %v", err)
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		t.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		Logger().Error("Tavily request build failed: %v", err)
		return nil
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		Logger().Error("Tavily search failed for query %q: %v", query, err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		Logger().Error("Tavily API returned status %s for query %q", resp.Status, query)
		return nil
	}

	var payload tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		Logger().Error("Tavily response decode failed: %v", err)
		return nil
	}

	results := make([]tavilyResult, 0, len(payload.Results))
	for _, r := range payload.Results {
		results = append(results, tavilyResult(r))
	}
	return results
}

type tavilyResult struct {
	Title   string
	URL     string
	Content string
	Score   float64
}

// PoliticalAgent is an item producer over authority political-news domains.
// The domain list adapts to the claim's regional context.
type PoliticalAgent struct {
	tavily     *tavilyClient
	maxResults int
}

// NewPoliticalAgent creates the politics-domain search adapter.
func NewPoliticalAgent(cfg *Config) *PoliticalAgent {
	return &PoliticalAgent{
		tavily:     newTavilyClient(cfg),
		maxResults: 5,
	}
}

func (a *PoliticalAgent) Name() string { return AgentPolitical }

// Collect searches authority political domains with the most specific query.
func (a *PoliticalAgent) Collect(ctx context.Context, claim *Claim, queries []string) (*AgentResult, error) {
	result := &AgentResult{}
	if a.tavily.apiKey == "" {
		Logger().Error("Political agent skipped: TAVILY_API_KEY is missing")
		return result, nil
	}

	query := queryList(claim, queries)[0]
	domains := a.selectDomains(claim.Text)

	for _, r := range a.tavily.Search(ctx, query, domains, a.maxResults) {
		if r.Content == "" {
			continue
		}
		relevance := r.Score
		if relevance <= 0 || relevance > 1 {
			relevance = 0.9
		}
		content := fmt.Sprintf("Title: %s\nContent: %s", r.Title, r.Content)
		result.Items = append(result.Items, NewCollectedDataItem(content, relevance, SourceMetaData{
			URL:        r.URL,
			SourceName: r.Title,
			AgentName:  AgentPolitical,
		}))
	}

	if len(result.Items) == 0 {
		Logger().Warning("Political agent found no authority coverage for query %q", query)
	}
	return result, nil
}

// selectDomains picks the authority list based on regional context keywords.
func (a *PoliticalAgent) selectDomains(claimText string) []string {
	lower := strings.ToLower(claimText)
	for _, kw := range indiaContextKeywords {
		if strings.Contains(lower, kw) {
			return append(append([]string{}, indiaPoliticsDomains...), globalWireDomains...)
		}
	}
	return append(append([]string{}, globalWireDomains...), westernPoliticsDomains...)
}
