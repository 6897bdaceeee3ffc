// cmd/veridex/agent_news.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/mmcdole/gofeed"
)

// NewsAgent is an item producer over a news-search API, with a news RSS
// search as fallback when the API yields nothing (or no key is configured).
type NewsAgent struct {
	apiKey      string
	baseURL     string
	rssBaseURL  string
	client      *http.Client
	parser      *gofeed.Parser
	maxArticles int
}

// NewNewsAgent creates the broad news-search adapter.
func NewNewsAgent(cfg *Config) *NewsAgent {
	parser := gofeed.NewParser()
	parser.UserAgent = cfg.UserAgent
	return &NewsAgent{
		apiKey:      cfg.GNewsAPIKey,
		baseURL:     cfg.GNewsBaseURL,
		rssBaseURL:  cfg.NewsRSSBaseURL,
		client:      &http.Client{Timeout: ProviderTimeout},
		parser:      parser,
		maxArticles: 5,
	}
}

func (a *NewsAgent) Name() string { return AgentNews }

// Collect tries each query variant in order and stops at the first variant
// that yields articles.
func (a *NewsAgent) Collect(ctx context.Context, claim *Claim, queries []string) (*AgentResult, error) {
	result := &AgentResult{}

	for _, query := range queryList(claim, queries) {
		items := a.searchAPI(ctx, query)
		if len(items) == 0 {
			items = a.searchRSS(ctx, query)
		}
		if len(items) > 0 {
			result.Items = items
			break
		}
		Logger().Debug("News agent found nothing for query %q, trying next", query)
	}

	if len(result.Items) == 0 {
		Logger().Warning("News agent found no articles with any query")
	}
	return result, nil
}

type newsAPIResponse struct {
	Articles []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		PublishedAt string `json:"publishedAt"`
		Source      struct {
			Name string `json:"name"`
		} `json:"source"`
	} `json:"articles"`
}

func (a *NewsAgent) searchAPI(ctx context.Context, query string) []CollectedDataItem {
	if a.apiKey == "" {
		return nil
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("lang", "en")
	params.Set("max", fmt.Sprintf("%d", a.maxArticles))
	params.Set("apikey", a.apiKey)
	params.Set("in", "title,description")

	endpoint := fmt.Sprintf("%s/search?%s", a.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		Logger().Error("News API request build failed: %v", err)
		return nil
	}

	resp, err := a.client.Do(req)
	if err != nil {
		Logger().Error("News API request failed for query %q: %v", query, err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		Logger().Error("News API returned status %s for query %q", resp.Status, query)
		return nil
	}

	var payload newsAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		Logger().Error("News API response decode failed: %v", err)
		return nil
	}

	var items []CollectedDataItem
	for _, article := range payload.Articles {
		published := time.Time{}
		if t, err := time.Parse(time.RFC3339, article.PublishedAt); err == nil {
			published = t
		}
		content := fmt.Sprintf("Title: %s\nDescription: %s\nURL: %s",
			article.Title, article.Description, article.URL)
		items = append(items, NewCollectedDataItem(content, 1.0, SourceMetaData{
			URL:        article.URL,
			SourceName: article.Source.Name,
			AgentName:  AgentNews,
			Timestamp:  published,
		}))
	}
	return items
}

func (a *NewsAgent) searchRSS(ctx context.Context, query string) []CollectedDataItem {
	feedURL := fmt.Sprintf("%s/search?q=%s&hl=en-US", a.rssBaseURL, url.QueryEscape(query))
	feed, err := a.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		Logger().Error("News RSS fallback failed for query %q: %v", query, err)
		return nil
	}

	var items []CollectedDataItem
	for i, entry := range feed.Items {
		if i >= a.maxArticles {
			break
		}
		published := time.Time{}
		if entry.PublishedParsed != nil {
			published = *entry.PublishedParsed
		}
		source := feed.Title
		if entry.Author != nil && entry.Author.Name != "" {
			source = entry.Author.Name
		}
		content := fmt.Sprintf("Title: %s\nDescription: %s\nURL: %s",
			entry.Title, entry.Description, entry.Link)
		items = append(items, NewCollectedDataItem(content, 0.9, SourceMetaData{
			URL:        entry.Link,
			SourceName: source,
			AgentName:  AgentNews,
			Timestamp:  published,
		}))
	}
	return items
}
