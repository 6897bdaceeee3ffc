// cmd/veridex/scraper_test.go
package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testScraper() *Scraper {
	cfg := &Config{UserAgent: "veridex-test"}
	return NewScraper(cfg, NewCache(time.Hour, 100))
}

const articlePage = `<html><head><title>Big Story</title></head><body>
<nav>Home | News | Sport</nav>
<article>
<h1>Big Story Headline That Matters For The Reader</h1>
<p>First paragraph of the article body with enough characters to be kept.</p>
<p>Second paragraph of the article body, also comfortably long enough.</p>
</article>
<footer>Copyright Somebody</footer>
<script>console.log("ignore me")</script>
</body></html>`

func TestScrapeAllExtractsMainContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(articlePage))
	}))
	defer srv.Close()

	bundle := testScraper().ScrapeAll(context.Background(), []string{srv.URL})
	require.Len(t, bundle.Data, 1)
	assert.Empty(t, bundle.Errors)

	item := bundle.Data[0]
	assert.Equal(t, "Big Story", item.Meta.SourceName)
	assert.Equal(t, AgentScraper, item.Meta.AgentName)
	assert.Equal(t, 0.8, item.RelevanceScore)
	assert.Contains(t, item.Content, "First paragraph")
	assert.Contains(t, item.Content, "Second paragraph")
	assert.NotContains(t, item.Content, "ignore me")
	assert.NotContains(t, item.Content, "Copyright")
}

func TestScrapeAllFailureIsolation(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(articlePage))
	}))
	defer good.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer bad.Close()

	bundle := testScraper().ScrapeAll(context.Background(), []string{good.URL, bad.URL})
	assert.Len(t, bundle.Data, 1)
	require.Len(t, bundle.Errors, 1)
	assert.Contains(t, bundle.Errors[0], bad.URL)
}

func TestScrapeAllUsesCache(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write([]byte(articlePage))
	}))
	defer srv.Close()

	s := testScraper()
	s.ScrapeAll(context.Background(), []string{srv.URL})
	s.ScrapeAll(context.Background(), []string{srv.URL})

	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestScrapeAllCapsURLCount(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write([]byte(articlePage))
	}))
	defer srv.Close()

	urls := make([]string, 0, MaxScrapeURLs+5)
	for i := 0; i < MaxScrapeURLs+5; i++ {
		urls = append(urls, srv.URL+"/page/"+string(rune('a'+i)))
	}

	bundle := testScraper().ScrapeAll(context.Background(), urls)
	assert.Len(t, bundle.Data, MaxScrapeURLs)
	assert.Equal(t, int32(MaxScrapeURLs), atomic.LoadInt32(&hits))
}

func TestScrapeAllEmptyInput(t *testing.T) {
	bundle := testScraper().ScrapeAll(context.Background(), nil)
	assert.Empty(t, bundle.Data)
	assert.Empty(t, bundle.Errors)
}

func TestScrapeSendsUserAgent(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte(articlePage))
	}))
	defer srv.Close()

	testScraper().ScrapeAll(context.Background(), []string{srv.URL})
	assert.Equal(t, "veridex-test", gotUA)
}
