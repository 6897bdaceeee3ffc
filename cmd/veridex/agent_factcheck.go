// cmd/veridex/agent_factcheck.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// FactCheckAgent is an item producer over the Google Fact Check Tools claim
// registry. Its contributions trigger the scoring bonus.
type FactCheckAgent struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewFactCheckAgent creates the fact-check registry adapter.
func NewFactCheckAgent(cfg *Config) *FactCheckAgent {
	return &FactCheckAgent{
		apiKey:  cfg.FactCheckAPIKey,
		baseURL: cfg.FactCheckBaseURL,
		client:  &http.Client{Timeout: ProviderTimeout},
	}
}

func (a *FactCheckAgent) Name() string { return AgentFactCheck }

type factCheckResponse struct {
	Claims []struct {
		Text        string `json:"text"`
		ClaimDate   string `json:"claimDate"`
		ClaimReview []struct {
			Publisher struct {
				Name string `json:"name"`
			} `json:"publisher"`
			URL           string `json:"url"`
			Title         string `json:"title"`
			ReviewDate    string `json:"reviewDate"`
			DatePublished string `json:"datePublished"`
			TextualRating string `json:"textualRating"`
		} `json:"claimReview"`
	} `json:"claims"`
}

// Collect searches the registry with each query variant, stopping at the
// first variant that returns published reviews.
func (a *FactCheckAgent) Collect(ctx context.Context, claim *Claim, queries []string) (*AgentResult, error) {
	result := &AgentResult{}
	if a.apiKey == "" {
		Logger().Warning("Fact-check agent skipped: no API key configured")
		return result, nil
	}

	for _, query := range queryList(claim, queries) {
		items := a.search(ctx, query)
		if len(items) > 0 {
			result.Items = items
			break
		}
		Logger().Debug("Fact-check agent found nothing for query %q, trying next", query)
	}

	if len(result.Items) == 0 {
		Logger().Warning("Fact-check agent found no reviews with any query")
	}
	return result, nil
}

func (a *FactCheckAgent) search(ctx context.Context, query string) []CollectedDataItem {
	params := url.Values{}
	params.Set("query", query)
	params.Set("key", a.apiKey)
	params.Set("languageCode", "en")

	endpoint := fmt.Sprintf("%s/claims:search?%s", a.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		Logger().Error("Fact-check request build failed: %v", err)
		return nil
	}

	resp, err := a.client.Do(req)
	if err != nil {
		Logger().Error("Fact-check request failed for query %q: %v", query, err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		Logger().Error("Fact-check API returned status %s for query %q", resp.Status, query)
		return nil
	}

	var payload factCheckResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		Logger().Error("Fact-check response decode failed: %v", err)
		return nil
	}

	var items []CollectedDataItem
	for _, reviewed := range payload.Claims {
		for _, review := range reviewed.ClaimReview {
			publisher := review.Publisher.Name
			if publisher == "" {
				publisher = "Unknown Publisher"
			}
			timestamp := parseReviewDate(review.ReviewDate, review.DatePublished, reviewed.ClaimDate)
			content := fmt.Sprintf("Fact check by: %s\nVerdict: %s\nTitle: %s\nURL: %s",
				publisher, review.TextualRating, review.Title, review.URL)
			items = append(items, NewCollectedDataItem(content, 1.0, SourceMetaData{
				URL:        review.URL,
				SourceName: fmt.Sprintf("Fact check by %s", publisher),
				AgentName:  AgentFactCheck,
				Timestamp:  timestamp,
			}))
		}
	}
	return items
}

// parseReviewDate returns the first parsable timestamp among the candidates.
func parseReviewDate(candidates ...string) time.Time {
	layouts := []string{time.RFC3339, "2006-01-02"}
	for _, c := range candidates {
		if c == "" {
			continue
		}
		for _, layout := range layouts {
			if t, err := time.Parse(layout, c); err == nil {
				return t
			}
		}
	}
	return time.Time{}
}
