// cmd/veridex/agent_wikipedia.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// WikipediaAgent is the general-knowledge fallback adapter. It searches
// Wikipedia for the claim's key terms and returns article extracts.
type WikipediaAgent struct {
	baseURL string
	client  *http.Client
}

func NewWikipediaAgent(cfg *Config) *WikipediaAgent {
	return &WikipediaAgent{
		baseURL: cfg.WikipediaBaseURL,
		client:  &http.Client{Timeout: ProviderTimeout},
	}
}

func (a *WikipediaAgent) Name() string { return AgentWikipedia }

type wikiSearchResponse struct {
	Query struct {
		Search []struct {
			Title string `json:"title"`
		} `json:"search"`
	} `json:"query"`
}

type wikiSummaryResponse struct {
	Title   string `json:"title"`
	Extract string `json:"extract"`
	ContentURLs struct {
		Desktop struct {
			Page string `json:"page"`
		} `json:"desktop"`
	} `json:"content_urls"`
}

// Collect searches Wikipedia using the claim's keywords, falling back to
// the claim text, and fetches summaries for the top matches.
func (a *WikipediaAgent) Collect(ctx context.Context, claim *Claim, queries []string) (*AgentResult, error) {
	result := &AgentResult{}

	terms := claim.Keywords
	if len(terms) > 2 {
		terms = terms[:2]
	}
	query := strings.Join(terms, " ")
	if strings.TrimSpace(query) == "" {
		query = queryList(claim, queries)[0]
	}

	titles := a.searchTitles(ctx, query)
	for _, title := range titles {
		item, ok := a.fetchSummary(ctx, title)
		if !ok {
			continue
		}
		result.Items = append(result.Items, item)
	}

	if len(result.Items) == 0 {
		Logger().Info("Wikipedia found no articles for query %q", query)
	}
	return result, nil
}

func (a *WikipediaAgent) searchTitles(ctx context.Context, query string) []string {
	endpoint := fmt.Sprintf("%s/w/api.php?action=query&list=search&format=json&srlimit=2&srsearch=%s",
		a.baseURL, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		Logger().Error("Wikipedia search request build failed: %v", err)
		return nil
	}

	resp, err := a.client.Do(req)
	if err != nil {
		Logger().Warning("Wikipedia search failed: %v", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		Logger().Warning("Wikipedia search returned status %s", resp.Status)
		return nil
	}

	var payload wikiSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		Logger().Error("Wikipedia search decode failed: %v", err)
		return nil
	}

	titles := make([]string, 0, len(payload.Query.Search))
	for _, s := range payload.Query.Search {
		titles = append(titles, s.Title)
	}
	return titles
}

func (a *WikipediaAgent) fetchSummary(ctx context.Context, title string) (CollectedDataItem, bool) {
	endpoint := fmt.Sprintf("%s/api/rest_v1/page/summary/%s",
		a.baseURL, url.PathEscape(strings.ReplaceAll(title, " ", "_")))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		Logger().Error("Wikipedia summary request build failed: %v", err)
		return CollectedDataItem{}, false
	}

	resp, err := a.client.Do(req)
	if err != nil {
		Logger().Warning("Wikipedia summary fetch failed for %q: %v", title, err)
		return CollectedDataItem{}, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return CollectedDataItem{}, false
	}

	var payload wikiSummaryResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		Logger().Error("Wikipedia summary decode failed: %v", err)
		return CollectedDataItem{}, false
	}
	if payload.Extract == "" {
		return CollectedDataItem{}, false
	}

	pageURL := payload.ContentURLs.Desktop.Page
	if pageURL == "" {
		pageURL = fmt.Sprintf("%s/wiki/%s", a.baseURL, url.PathEscape(strings.ReplaceAll(title, " ", "_")))
	}

	content := fmt.Sprintf("Title: %s\nContent: %s", payload.Title, payload.Extract)
	return NewCollectedDataItem(content, 0.75, SourceMetaData{
		URL:        pageURL,
		SourceName: "Wikipedia",
		AgentName:  AgentWikipedia,
	}), true
}
