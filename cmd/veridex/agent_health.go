// cmd/veridex/agent_health.go
package main

import "context"

// HealthAgent is a URL producer restricted to trusted medical and scientific
// authorities. It reuses the web-search provider with a site restriction.
type HealthAgent struct {
	search  *WebSearchAgent
	maxURLs int
}

// NewHealthAgent creates the health-domain search adapter.
func NewHealthAgent(cfg *Config) *HealthAgent {
	return &HealthAgent{
		search:  NewWebSearchAgent(cfg),
		maxURLs: 4,
	}
}

func (a *HealthAgent) Name() string { return AgentHealth }

// Collect searches only the trusted health domains and hands back URLs for
// the scraping stage.
func (a *HealthAgent) Collect(ctx context.Context, claim *Claim, queries []string) (*AgentResult, error) {
	result := &AgentResult{}
	if a.search.apiKey == "" {
		Logger().Error("Health agent skipped: SERPAPI_API_KEY is not set")
		return result, nil
	}

	query := queryList(claim, queries)[0]
	urls := a.search.search(ctx, query, trustedHealthDomains)
	if len(urls) > a.maxURLs {
		urls = urls[:a.maxURLs]
	}
	result.URLs = urls

	if len(result.URLs) == 0 {
		Logger().Warning("Health agent found no authority sources for query %q", query)
	}
	return result, nil
}
