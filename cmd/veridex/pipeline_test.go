// cmd/veridex/pipeline_test.go
package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPipeline(reasoner *fakeReasoner, agents *AgentSet) *Pipeline {
	cfg := &Config{
		UserAgent: "veridex-test",
		Scoring:   DefaultScoringConfig(),
	}
	cache := NewCache(time.Hour, 100)
	return &Pipeline{
		cfg:        cfg,
		reasoner:   reasoner,
		agents:     agents,
		scraper:    NewScraper(cfg, cache),
		media:      NewMediaAnalyzer(reasoner),
		summarizer: NewSummarizer(reasoner),
		scorer:     NewScorer(cfg.Scoring, reasoner),
		affect:     NewAffectAnalyzer(reasoner),
		cache:      cache,
	}
}

func TestRunAgentFailureIsIsolated(t *testing.T) {
	good := &fakeAgent{name: AgentNews, items: []CollectedDataItem{
		evidenceItem("https://reuters.com/a", AgentNews),
	}}
	bad := &fakeAgent{name: AgentFactCheck, err: NewEvidenceError(ErrEvidenceFetch, "provider down", nil)}

	reasoner := &fakeReasoner{judgment: &Judgment{Verdict: VerdictTrue, Explanation: "supported"}}
	p := newTestPipeline(reasoner, &AgentSet{News: good, FactCheck: bad})

	state, err := p.Run(context.Background(), RunRequest{ClaimText: "a claim"}, nil)
	require.NoError(t, err)

	// The failing agent is recorded without losing the good agent's items.
	assert.Len(t, state.Bundle.Data, 1)
	require.Len(t, state.Bundle.Errors, 1)
	assert.Contains(t, state.Bundle.Errors[0], AgentFactCheck)

	assert.Contains(t, state.AgentsUsed, AgentNews)
	assert.NotContains(t, state.AgentsUsed, AgentFactCheck)
}

func TestRunProducesScoredOutput(t *testing.T) {
	agent := &fakeAgent{name: AgentNews, items: []CollectedDataItem{
		evidenceItem("https://reuters.com/a", AgentNews),
		evidenceItem("https://bbc.com/b", AgentNews),
	}}
	reasoner := &fakeReasoner{
		judgment: &Judgment{Verdict: VerdictTrue, Explanation: "clearly supported", TrueNews: "it happened"},
	}
	p := newTestPipeline(reasoner, &AgentSet{News: agent, FactCheck: &fakeAgent{name: AgentFactCheck}})

	var stages []string
	state, err := p.Run(context.Background(), RunRequest{ClaimText: "a claim"}, func(stage string) {
		stages = append(stages, stage)
	})
	require.NoError(t, err)
	require.NotNil(t, state.Output)

	assert.Equal(t, VerdictTrue, state.Output.Verdict)
	assert.Equal(t, "it happened", state.Output.TrueNews)
	assert.Greater(t, state.Output.Score.Confidence, 0.0)
	assert.LessOrEqual(t, state.Output.Score.Confidence, 0.99)
	assert.Equal(t, roundTo(state.Output.Score.Confidence*100, 1), state.Output.Score.Score)

	// Sources always come from the bundle at scoring time.
	assert.Len(t, state.Output.SourcesUsed, len(state.Bundle.Data))

	assert.Contains(t, stages, StageClassify)
	assert.Contains(t, stages, StageCollect)
	assert.Contains(t, stages, StageScore)
	assert.NotContains(t, stages, StageMedia)

	require.NotNil(t, state.Sentiment)
	require.NotNil(t, state.Emotion)
}

func TestRunScrapesURLInClaimText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(`<html><head><title>Report</title></head><body><article>
<p>This paragraph is long enough to count as readable page content for the extractor.</p>
</article></body></html>`))
	}))
	defer srv.Close()

	reasoner := &fakeReasoner{}
	p := newTestPipeline(reasoner, &AgentSet{
		News:      &fakeAgent{name: AgentNews},
		FactCheck: &fakeAgent{name: AgentFactCheck},
	})

	state, err := p.Run(context.Background(), RunRequest{ClaimText: "Check this out " + srv.URL}, nil)
	require.NoError(t, err)

	require.Equal(t, []string{srv.URL}, state.ManualURLs)
	require.NotEmpty(t, state.Bundle.Data)

	found := false
	for _, item := range state.Bundle.Data {
		if item.Meta.AgentName == AgentScraper {
			found = true
			assert.Equal(t, "Report", item.Meta.SourceName)
			assert.Contains(t, item.Content, "readable page content")
		}
	}
	assert.True(t, found, "expected a scraped evidence item")
	assert.Contains(t, state.AgentsUsed, AgentScraper)
}

func TestRunURLProducerFeedsScraper(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>Doc</title></head><body>
<p>Another sufficiently long paragraph of page text for extraction to keep around.</p>
</body></html>`))
	}))
	defer srv.Close()

	urlProducer := &fakeAgent{name: AgentWebSearch, urls: []string{srv.URL, srv.URL}}
	p := newTestPipeline(&fakeReasoner{}, &AgentSet{
		News:      &fakeAgent{name: AgentNews},
		FactCheck: &fakeAgent{name: AgentFactCheck},
		WebSearch: urlProducer,
	})

	state, err := p.Run(context.Background(), RunRequest{ClaimText: "claim", UseWebSearch: true}, nil)
	require.NoError(t, err)

	// Duplicate URLs collapse to one scrape.
	count := 0
	for _, item := range state.Bundle.Data {
		if item.Meta.AgentName == AgentScraper {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestRunMediaStagePromotesExtractedClaim(t *testing.T) {
	reasoner := &fakeReasoner{
		imageResponse: "```json\n" + `{
  "headline": "PM RESIGNS",
  "subtext": [],
  "publisher": "News18",
  "detected_claims": [
    {"text": "The prime minister resigned today", "confidence": 0.9},
    {"text": "Something minor", "confidence": 0.2}
  ],
  "visual_description": "A news studio",
  "logos": ["News18"],
  "timestamp_strings": [],
  "suspicious_elements": [],
  "overall_confidence": 0.85
}` + "\n```",
		judgment: &Judgment{Verdict: VerdictFalse, Explanation: "fabricated graphic"},
	}
	p := newTestPipeline(reasoner, &AgentSet{
		News:      &fakeAgent{name: AgentNews},
		FactCheck: &fakeAgent{name: AgentFactCheck},
	})

	req := RunRequest{
		ClaimText: "is this real?",
		Media: []MediaItem{{
			Type:       MediaTypeImage,
			DataBase64: "aGVsbG8=",
			Filename:   "screenshot.png",
		}},
	}
	state, err := p.Run(context.Background(), req, nil)
	require.NoError(t, err)

	// The highest-confidence extracted claim drives verification.
	assert.Equal(t, "The prime minister resigned today", state.Claim.Text)
	assert.Equal(t, "is this real?", state.Claim.Context)
	require.Len(t, state.MediaClaims, 2)
	assert.Equal(t, 0.9, state.MediaClaims[0].Confidence)
	assert.Contains(t, state.AgentsUsed, AgentImageClaim)

	// OCR, visual and branding evidence all land in the bundle.
	agentNames := map[string]bool{}
	for _, item := range state.Bundle.Data {
		agentNames[item.Meta.AgentName] = true
	}
	assert.True(t, agentNames[AgentImageClaim+".ocr"])
	assert.True(t, agentNames[AgentImageClaim+".visual"])
	assert.True(t, agentNames[AgentImageClaim+".branding"])
}

func TestRunCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := newTestPipeline(&fakeReasoner{}, &AgentSet{
		News:      &fakeAgent{name: AgentNews},
		FactCheck: &fakeAgent{name: AgentFactCheck},
	})

	_, err := p.Run(ctx, RunRequest{ClaimText: "claim"}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSortedNewestFirst(t *testing.T) {
	old := NewCollectedDataItem("old", 0.5, SourceMetaData{Timestamp: time.Now().Add(-48 * time.Hour)})
	mid := NewCollectedDataItem("mid", 0.5, SourceMetaData{Timestamp: time.Now().Add(-24 * time.Hour)})
	fresh := NewCollectedDataItem("fresh", 0.5, SourceMetaData{Timestamp: time.Now()})

	sorted := sortedNewestFirst([]CollectedDataItem{old, fresh, mid})
	require.Len(t, sorted, 3)
	assert.Equal(t, "fresh", sorted[0].Content)
	assert.Equal(t, "mid", sorted[1].Content)
	assert.Equal(t, "old", sorted[2].Content)
}

func TestSerializeForJudgmentIncludesProvenance(t *testing.T) {
	item := NewCollectedDataItem("the content", 0.9, SourceMetaData{
		URL:        "https://reuters.com/a",
		SourceName: "Reuters",
		AgentName:  AgentNews,
	})

	got := serializeForJudgment([]CollectedDataItem{item})
	assert.Contains(t, got, "Source: Reuters")
	assert.Contains(t, got, "Agent: news")
	assert.Contains(t, got, "the content")
}

// stalledAgent blocks until its context is cancelled, like a provider that
// never answers within the request timeout.
type stalledAgent struct{ name string }

func (s *stalledAgent) Name() string { return s.name }

func (s *stalledAgent) Collect(ctx context.Context, claim *Claim, queries []string) (*AgentResult, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(5 * time.Second):
		return &AgentResult{}, nil
	}
}

func TestRunEvidenceDeadlineKeepsPartialEvidence(t *testing.T) {
	good := &fakeAgent{name: AgentNews, items: []CollectedDataItem{
		evidenceItem("https://reuters.com/a", AgentNews),
	}}
	reasoner := &fakeReasoner{judgment: &Judgment{Verdict: VerdictTrue, Explanation: "supported"}}
	p := newTestPipeline(reasoner, &AgentSet{News: good, FactCheck: &stalledAgent{name: AgentFactCheck}})
	p.cfg.EvidenceTimeout = 50 * time.Millisecond

	state, err := p.Run(context.Background(), RunRequest{ClaimText: "a claim"}, nil)
	require.NoError(t, err)

	// The stalled agent is cancelled and logged; the run still reaches a
	// verdict on the evidence that did arrive.
	require.NotNil(t, state.Output)
	assert.Equal(t, VerdictTrue, state.Output.Verdict)
	assert.Len(t, state.Bundle.Data, 1)
	require.NotEmpty(t, state.Bundle.Errors)
	assert.Contains(t, state.Bundle.Errors[0], AgentFactCheck)
}
