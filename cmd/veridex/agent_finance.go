// cmd/veridex/agent_finance.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// FinanceAgent is an item producer combining live market data for a ticker
// identified in the claim with a finance-domain news search.
type FinanceAgent struct {
	reasoner   Reasoner
	tavily     *tavilyClient
	quoteBase  string
	client     *http.Client
	maxResults int
}

// NewFinanceAgent creates the finance adapter.
func NewFinanceAgent(cfg *Config, reasoner Reasoner) *FinanceAgent {
	return &FinanceAgent{
		reasoner:   reasoner,
		tavily:     newTavilyClient(cfg),
		quoteBase:  cfg.QuoteAPIBaseURL,
		client:     &http.Client{Timeout: ProviderTimeout},
		maxResults: 4,
	}
}

func (a *FinanceAgent) Name() string { return AgentFinance }

// Collect fetches market data when a ticker is identified, then searches
// the finance authority domains for coverage.
func (a *FinanceAgent) Collect(ctx context.Context, claim *Claim, queries []string) (*AgentResult, error) {
	result := &AgentResult{}
	query := queryList(claim, queries)[0]

	ticker, err := a.reasoner.ExtractTickerSymbol(ctx, query)
	if err != nil {
		Logger().Warning("Ticker extraction errored: %v", err)
	}
	if ticker != "" {
		if item, ok := a.fetchQuote(ctx, ticker); ok {
			result.Items = append(result.Items, item)
		}
	} else {
		Logger().Info("No specific ticker symbol identified in the claim")
	}

	if a.tavily.apiKey != "" {
		for _, r := range a.tavily.Search(ctx, query, financeDomains, a.maxResults) {
			if r.Content == "" {
				continue
			}
			content := fmt.Sprintf("Title: %s\nContent: %s", r.Title, r.Content)
			result.Items = append(result.Items, NewCollectedDataItem(content, 0.9, SourceMetaData{
				URL:        r.URL,
				SourceName: r.Title,
				AgentName:  AgentFinance,
			}))
		}
	}

	if len(result.Items) == 0 {
		Logger().Warning("Finance agent collected no market data or coverage for query %q", query)
	}
	return result, nil
}

type quoteChartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string  `json:"symbol"`
				Currency           string  `json:"currency"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				ShortName          string  `json:"shortName"`
				InstrumentType     string  `json:"instrumentType"`
			} `json:"meta"`
		} `json:"result"`
	} `json:"chart"`
}

// fetchQuote pulls the latest market price for a ticker from the quote API.
func (a *FinanceAgent) fetchQuote(ctx context.Context, ticker string) (CollectedDataItem, bool) {
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?range=1d&interval=1m",
		a.quoteBase, url.PathEscape(ticker))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		Logger().Error("Quote request build failed: %v", err)
		return CollectedDataItem{}, false
	}

	resp, err := a.client.Do(req)
	if err != nil {
		Logger().Warning("Quote fetch failed for %q: %v", ticker, err)
		return CollectedDataItem{}, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		Logger().Warning("Quote API returned status %s for %q", resp.Status, ticker)
		return CollectedDataItem{}, false
	}

	var payload quoteChartResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		Logger().Error("Quote response decode failed: %v", err)
		return CollectedDataItem{}, false
	}
	if len(payload.Chart.Result) == 0 {
		Logger().Warning("Quote API had no result for %q", ticker)
		return CollectedDataItem{}, false
	}

	meta := payload.Chart.Result[0].Meta
	if meta.RegularMarketPrice == 0 {
		Logger().Warning("Quote API returned no price for %q", ticker)
		return CollectedDataItem{}, false
	}

	name := meta.ShortName
	if name == "" {
		name = ticker
	}
	currency := meta.Currency
	if currency == "" {
		currency = "USD"
	}

	content := fmt.Sprintf("*** MARKET DATA FOR %s (%s) ***\nCurrent Price: %.4f %s\nInstrument: %s",
		name, ticker, meta.RegularMarketPrice, currency, meta.InstrumentType)

	return NewCollectedDataItem(content, 1.0, SourceMetaData{
		URL:        fmt.Sprintf("https://finance.yahoo.com/quote/%s", ticker),
		SourceName: "Yahoo Finance API",
		AgentName:  AgentFinance,
	}), true
}
