// cmd/veridex/scraper.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
)

// Scraper fetches article pages and extracts their main text content.
// Results are cached by URL so repeated runs over the same claim do not
// re-fetch pages.
type Scraper struct {
	client    *http.Client
	userAgent string
	cache     *Cache
	maxConc   int
}

type scrapeResult struct {
	Title   string
	Content string
}

func NewScraper(cfg *Config, cache *Cache) *Scraper {
	return &Scraper{
		client:    &http.Client{Timeout: ScrapeTimeout},
		userAgent: cfg.UserAgent,
		cache:     cache,
		maxConc:   MaxConcurrentScrapes,
	}
}

// ScrapeAll fetches up to MaxScrapeURLs pages concurrently. A failure on
// one URL never affects the others; failures are returned as errors in
// the bundle alongside whatever succeeded.
func (s *Scraper) ScrapeAll(ctx context.Context, urls []string) *CollectedDataBundle {
	bundle := &CollectedDataBundle{}
	urls = dedupeStrings(urls, 0)
	if len(urls) > MaxScrapeURLs {
		urls = urls[:MaxScrapeURLs]
	}
	if len(urls) == 0 {
		return bundle
	}

	Logger().Info("Scraping %d URLs", len(urls))

	type outcome struct {
		url  string
		item CollectedDataItem
		err  error
	}

	results := make(chan outcome, len(urls))
	sem := make(chan struct{}, s.maxConc)
	var wg sync.WaitGroup

	for _, u := range urls {
		wg.Add(1)
		go func(pageURL string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			item, err := s.scrapeOne(ctx, pageURL)
			results <- outcome{url: pageURL, item: item, err: err}
		}(u)
	}

	wg.Wait()
	close(results)

	for r := range results {
		if r.err != nil {
			Logger().Warning("Scrape failed for %s: %v", r.url, r.err)
			bundle.Errors = append(bundle.Errors, fmt.Sprintf("url_scraper: %s: %v", r.url, r.err))
			continue
		}
		bundle.Data = append(bundle.Data, r.item)
	}

	Logger().Info("Scraper finished with %d items, %d failures", len(bundle.Data), len(bundle.Errors))
	return bundle
}

func (s *Scraper) scrapeOne(ctx context.Context, pageURL string) (CollectedDataItem, error) {
	if cached, ok := s.cache.Get(pageURL); ok {
		if res, ok := cached.(scrapeResult); ok {
			Logger().Debug("Scrape cache hit for %s", pageURL)
			return s.buildItem(pageURL, res), nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return CollectedDataItem{}, NewEvidenceError(ErrEvidenceFetch, "invalid scrape URL", err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := s.client.Do(req)
	if err != nil {
		return CollectedDataItem{}, NewEvidenceError(ErrEvidenceFetch, "page fetch failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return CollectedDataItem{}, NewEvidenceError(ErrEvidenceFetch,
			fmt.Sprintf("page returned status %s", resp.Status), nil)
	}

	reader, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return CollectedDataItem{}, NewEvidenceError(ErrEvidenceParse, "charset detection failed", err)
	}

	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return CollectedDataItem{}, NewEvidenceError(ErrEvidenceParse, "HTML parse failed", err)
	}

	res := extractMainContent(doc)
	if res.Content == "" {
		return CollectedDataItem{}, NewEvidenceError(ErrEvidenceParse, "no readable content found", nil)
	}

	s.cache.SetWithTTL(pageURL, res, 6*time.Hour)
	return s.buildItem(pageURL, res), nil
}

func (s *Scraper) buildItem(pageURL string, res scrapeResult) CollectedDataItem {
	sourceName := res.Title
	if sourceName == "" {
		sourceName = "Web Page"
	}
	return NewCollectedDataItem(res.Content, 0.8, SourceMetaData{
		URL:        pageURL,
		SourceName: sourceName,
		AgentName:  AgentScraper,
	})
}

// extractMainContent pulls readable text out of a parsed page. It prefers
// article/main containers and falls back to all paragraphs in the body.
func extractMainContent(doc *goquery.Document) scrapeResult {
	doc.Find("script, style, noscript, iframe, nav, header, footer, aside, form").Remove()

	title := strings.TrimSpace(doc.Find("title").First().Text())

	var root *goquery.Selection
	for _, sel := range []string{"article", "main", "[role=main]", "#content", ".article-body"} {
		if s := doc.Find(sel).First(); s.Length() > 0 {
			root = s
			break
		}
	}
	if root == nil {
		root = doc.Find("body")
	}

	var parts []string
	root.Find("p, h1, h2, h3, li").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if len(text) < 30 {
			return
		}
		parts = append(parts, text)
	})

	content := strings.Join(parts, "\n")
	if content == "" {
		content = strings.TrimSpace(root.Text())
		content = strings.Join(strings.Fields(content), " ")
	}

	return scrapeResult{Title: title, Content: content}
}
