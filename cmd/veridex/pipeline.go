// cmd/veridex/pipeline.go
package main

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var urlExtractPattern = regexp.MustCompile(`https?://[^\s]+`)

// ProgressFunc receives coarse stage labels as a run advances. May be nil.
type ProgressFunc func(stage string)

// RunRequest is one verification job.
type RunRequest struct {
	ClaimText    string      `json:"claim_text"`
	ClaimID      string      `json:"claim_id,omitempty"`
	UseWebSearch bool        `json:"use_web_search"`
	ForcedAgents []string    `json:"forced_agents,omitempty"`
	Media        []MediaItem `json:"media,omitempty"`
}

// Pipeline owns the stage sequence for claim verification. One Pipeline is
// shared across runs; all per-run state lives in PipelineState.
type Pipeline struct {
	cfg        *Config
	reasoner   Reasoner
	agents     *AgentSet
	scraper    *Scraper
	media      *MediaAnalyzer
	summarizer *Summarizer
	scorer     *Scorer
	affect     *AffectAnalyzer
	cache      *Cache
}

// NewPipeline wires the standard pipeline from application config.
func NewPipeline(cfg *Config) *Pipeline {
	reasoner := NewOpenAIReasoner(cfg)
	cache := NewCache(6*time.Hour, 1000)
	return &Pipeline{
		cfg:        cfg,
		reasoner:   reasoner,
		agents:     NewAgentSet(cfg, reasoner),
		scraper:    NewScraper(cfg, cache),
		media:      NewMediaAnalyzer(reasoner),
		summarizer: NewSummarizer(reasoner),
		scorer:     NewScorer(cfg.Scoring, reasoner),
		affect:     NewAffectAnalyzer(reasoner),
		cache:      cache,
	}
}

// ScrapeCache exposes the URL cache for periodic sweeping.
func (p *Pipeline) ScrapeCache() *Cache { return p.cache }

// Run executes the full stage sequence for one claim and returns the final
// state. Stage failures degrade (recorded in the bundle or replaced by
// fallbacks); only context cancellation aborts a run.
func (p *Pipeline) Run(ctx context.Context, req RunRequest, progress ProgressFunc) (*PipelineState, error) {
	notify := func(stage string) {
		if progress != nil {
			progress(stage)
		}
	}

	claimID := uuid.New()
	if req.ClaimID != "" {
		if parsed, err := uuid.Parse(req.ClaimID); err == nil {
			claimID = parsed
		} else {
			Logger().Warning("Ignoring unparseable claim id %q", req.ClaimID)
		}
	}

	state := &PipelineState{
		RawClaimText: req.ClaimText,
		Claim:        &Claim{ID: claimID, Text: req.ClaimText},
		Media:        req.Media,
		Bundle:       &CollectedDataBundle{},
		UseWebSearch: req.UseWebSearch,
		ForcedAgents: req.ForcedAgents,
	}

	Logger().Info("Starting verification for claim %s: %q", claimID, truncateForLog(req.ClaimText))

	p.mediaStage(ctx, state, notify)
	if err := ctx.Err(); err != nil {
		return state, err
	}

	p.classifyStage(ctx, state, notify)

	// Evidence gathering runs under its own deadline: when it expires the
	// outstanding adapter and scrape calls are cancelled and the run
	// carries on with whatever evidence has arrived. Only cancellation of
	// the parent context aborts the run.
	evidenceCtx := ctx
	if p.cfg.EvidenceTimeout > 0 {
		var cancelEvidence context.CancelFunc
		evidenceCtx, cancelEvidence = context.WithTimeout(ctx, p.cfg.EvidenceTimeout)
		defer cancelEvidence()
	}
	p.collectStage(evidenceCtx, state, notify)
	if err := ctx.Err(); err != nil {
		return state, err
	}

	p.scrapeStage(evidenceCtx, state, notify)
	p.enrichStage(evidenceCtx, state, notify)
	if err := ctx.Err(); err != nil {
		return state, err
	}

	p.reasonStage(ctx, state, notify)
	p.scoreStage(ctx, state, notify)
	p.affectStage(ctx, state, notify)

	Logger().Info("Verification finished for claim %s: verdict=%s score=%.1f",
		claimID, state.Output.Verdict, state.Output.Score.Score)
	return state, ctx.Err()
}

// mediaStage extracts claims from image attachments. When a primary claim
// is found it replaces the claim text; the original text becomes context.
func (p *Pipeline) mediaStage(ctx context.Context, state *PipelineState, notify ProgressFunc) {
	if len(state.Media) == 0 {
		return
	}
	notify(StageMedia)

	result := p.media.Analyze(ctx, state.Claim, state.Media)
	state.Bundle.Data = append(state.Bundle.Data, result.Items...)
	state.Bundle.Errors = append(state.Bundle.Errors, result.Errors...)
	state.MediaClaims = append(state.MediaClaims, result.Claims...)
	state.usedAgent(AgentImageClaim)

	if result.PrimaryClaim != "" {
		if state.RawClaimText != "" {
			state.Claim.Context = state.RawClaimText
		}
		state.RawClaimText = result.PrimaryClaim
		state.Claim.Text = result.PrimaryClaim
		Logger().Info("Media stage promoted extracted claim: %q", truncateForLog(result.PrimaryClaim))
	}
}

func (p *Pipeline) classifyStage(ctx context.Context, state *PipelineState, notify ProgressFunc) {
	notify(StageClassify)

	classification, _ := p.reasoner.ClassifyClaim(ctx, state.Claim.Text)
	state.Classification = classification
	state.Claim.Keywords = classification.Keywords
	Logger().Info("Claim classified as %s/%s", classification.Category, classification.SubCategory)
}

// collectStage fans out over the selected evidence agents. Each agent runs
// in its own goroutine; one failing never blocks the others.
func (p *Pipeline) collectStage(ctx context.Context, state *PipelineState, notify ProgressFunc) {
	notify(StageCollect)

	queries, _ := p.reasoner.GenerateSearchQueries(ctx, state.Claim.Text)
	agents := p.agents.Select(state.Claim, state.Classification, state.UseWebSearch, state.ForcedAgents)

	Logger().Info("Running %d evidence agents", len(agents))

	type outcome struct {
		name   string
		result *AgentResult
		err    error
	}

	results := make(chan outcome, len(agents))
	var wg sync.WaitGroup
	for _, agent := range agents {
		wg.Add(1)
		go func(a EvidenceAgent) {
			defer wg.Done()
			res, err := a.Collect(ctx, state.Claim, queries)
			results <- outcome{name: a.Name(), result: res, err: err}
		}(agent)
	}
	wg.Wait()
	close(results)

	byName := make(map[string]outcome, len(agents))
	for o := range results {
		byName[o.name] = o
	}

	// Iterate in a stable order so logs and bundles are reproducible.
	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		o := byName[name]
		if o.err != nil {
			Logger().Error("Agent %s failed: %v", name, o.err)
			state.Bundle.Errors = append(state.Bundle.Errors, fmt.Sprintf("%s: %v", name, o.err))
			continue
		}
		state.usedAgent(name)
		if o.result == nil {
			continue
		}
		state.Bundle.Data = append(state.Bundle.Data, o.result.Items...)
		state.URLsToScrape = append(state.URLsToScrape, o.result.URLs...)
	}

	Logger().Info("Collection finished: %d items, %d URLs to scrape, %d errors",
		len(state.Bundle.Data), len(state.URLsToScrape), len(state.Bundle.Errors))
}

func (p *Pipeline) scrapeStage(ctx context.Context, state *PipelineState, notify ProgressFunc) {
	urls := dedupeStrings(state.URLsToScrape, 0)
	if len(urls) == 0 {
		Logger().Debug("No URLs to scrape")
		return
	}
	notify(StageScrape)

	scraped := p.scraper.ScrapeAll(ctx, urls)
	if len(scraped.Data) > 0 {
		state.usedAgent(AgentScraper)
	}
	state.Bundle.Append(scraped)
}

// enrichStage resolves URLs embedded in the claim text itself and folds
// long-form summaries of the claim and the freshly scraped pages into the
// evidence pool.
func (p *Pipeline) enrichStage(ctx context.Context, state *PipelineState, notify ProgressFunc) {
	notify(StageEnrich)

	if len(state.ManualURLs) == 0 && state.RawClaimText != "" {
		for _, match := range urlExtractPattern.FindAllString(state.RawClaimText, -1) {
			state.ManualURLs = append(state.ManualURLs, strings.TrimRight(match, ".,)"))
		}
		state.ManualURLs = dedupeStrings(state.ManualURLs, 0)
	}

	var scrapedItems []CollectedDataItem
	if len(state.ManualURLs) > 0 {
		Logger().Info("Scraping %d URLs found in claim text", len(state.ManualURLs))
		scraped := p.scraper.ScrapeAll(ctx, state.ManualURLs)
		scrapedItems = scraped.Data
		if len(scraped.Data) > 0 {
			state.usedAgent(AgentScraper)
		}
		state.Bundle.Append(scraped)
	}

	summarize := func(text, sourceName, sourceURL string) {
		if !NeedsSummary(text) {
			return
		}
		summary, item := p.summarizer.Summarize(ctx, text, sourceName, sourceURL)
		if summary == nil {
			return
		}
		state.Summaries = append(state.Summaries, *summary)
		if item != nil {
			state.Bundle.Data = append(state.Bundle.Data, *item)
			state.usedAgent(AgentSummarizer)
		}
	}

	summarize(state.RawClaimText, "User Claim", "about:claim")
	for _, item := range scrapedItems {
		summarize(item.Content, item.Meta.SourceName, item.Meta.URL)
	}
}

// reasonStage runs synthesis then judgment over the newest-first serialized
// evidence pool.
func (p *Pipeline) reasonStage(ctx context.Context, state *PipelineState, notify ProgressFunc) {
	notify(StageSynthesize)

	if len(state.Bundle.Data) == 0 {
		Logger().Warning("Reasoning over an empty evidence pool; analysis uses claim text only")
	}

	sorted := sortedNewestFirst(state.Bundle.Data)
	brief, _ := p.reasoner.Synthesize(ctx, state.Claim.Text, serializeForSynthesis(sorted))
	state.Brief = brief
	Logger().Info("Synthesis topic: %s", truncateForLog(brief.Topic))

	notify(StageJudge)
	judgment, _ := p.reasoner.Judge(ctx, state.Claim.Text, serializeForJudgment(sorted), brief)

	// Placeholder score until the calculator pass rewrites it.
	score := 0.5
	switch judgment.Verdict {
	case VerdictTrue:
		score = 0.9
	case VerdictFalse:
		score = 0.1
	}

	state.Output = &VerificationOutput{
		ClaimID:       state.Claim.ID,
		OriginalClaim: state.Claim.Text,
		Verdict:       judgment.Verdict,
		Score: VerificationScore{
			Score:       score,
			Confidence:  0.0,
			Explanation: judgment.Explanation,
		},
		TrueNews: judgment.TrueNews,
	}
	Logger().Info("Judgment verdict: %s", judgment.Verdict)
}

func (p *Pipeline) scoreStage(ctx context.Context, state *PipelineState, notify ProgressFunc) {
	notify(StageScore)

	state.Output = p.scorer.Score(ctx, state.Claim, state.Bundle, state.Output, state.AgentsUsed)

	state.Output.SourcesUsed = state.Output.SourcesUsed[:0]
	for _, item := range state.Bundle.Data {
		state.Output.SourcesUsed = append(state.Output.SourcesUsed, item.Meta)
	}
}

func (p *Pipeline) affectStage(ctx context.Context, state *PipelineState, notify ProgressFunc) {
	notify(StageSentiment)
	state.Sentiment = p.affect.Sentiment(ctx, state.Claim.Text)
	Logger().Info("Primary sentiment: %s", state.Sentiment.Primary)

	notify(StageEmotion)
	state.Emotion = p.affect.Emotion(ctx, state.Claim.Text)
	Logger().Info("Primary emotion: %s", state.Emotion.Primary)
}

// sortedNewestFirst orders evidence by timestamp descending without
// mutating the bundle.
func sortedNewestFirst(items []CollectedDataItem) []CollectedDataItem {
	sorted := make([]CollectedDataItem, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Meta.Timestamp.After(sorted[j].Meta.Timestamp)
	})
	return sorted
}

// serializeForSynthesis renders the evidence pool in the block format the
// synthesis prompt expects, capping per-item content.
func serializeForSynthesis(items []CollectedDataItem) string {
	var b strings.Builder
	for i, item := range items {
		content := item.Content
		if len(content) > 2500 {
			content = content[:2500] + "..."
		}
		fmt.Fprintf(&b, "--- Evidence Item %d ---\n[Source]: %s\n[Agent]: %s\n[Timestamp]: %s\n[URL]: %s\n[Content]:\n%s\n\n",
			i+1, item.Meta.SourceName, item.Meta.AgentName,
			item.Meta.Timestamp.Format("2006-01-02T15:04:05Z07:00"), item.Meta.URL, content)
	}
	return b.String()
}

// serializeForJudgment renders evidence as compact attributed snippets.
func serializeForJudgment(items []CollectedDataItem) string {
	snippets := make([]string, 0, len(items))
	for _, item := range items {
		snippets = append(snippets, fmt.Sprintf("[Source: %s | Agent: %s | Timestamp: %s]\n%s",
			item.Meta.SourceName, item.Meta.AgentName,
			item.Meta.Timestamp.Format("2006-01-02T15:04:05Z07:00"), item.Content))
	}
	return strings.Join(snippets, "\n\n")
}

func truncateForLog(s string) string {
	if len(s) > 100 {
		return s[:100] + "..."
	}
	return s
}
