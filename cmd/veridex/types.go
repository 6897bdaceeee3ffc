// cmd/veridex/types.go
package main

import (
	"time"

	"github.com/google/uuid"
)

// Claim is the statement being verified. Only the media stage may rewrite
// Text; when it does, the original text moves into Context.
type Claim struct {
	ID       uuid.UUID `json:"claim_id"`
	Text     string    `json:"text"`
	Context  string    `json:"context,omitempty"`
	Keywords []string  `json:"keywords,omitempty"`
}

// MediaType identifies the kind of attachment a caller supplied.
type MediaType string

const (
	MediaTypeImage    MediaType = "image"
	MediaTypeDocument MediaType = "document"
	MediaTypeURL      MediaType = "url"
)

// MediaItem is a caller-supplied attachment, either a remote URL or an
// embedded base64 payload. Never mutated by the pipeline.
type MediaItem struct {
	Type        MediaType `json:"type"`
	URL         string    `json:"url,omitempty"`
	DataBase64  string    `json:"data_base64,omitempty"`
	MIMEType    string    `json:"mime_type,omitempty"`
	Filename    string    `json:"filename,omitempty"`
	Description string    `json:"description,omitempty"`
}

// SourceMetaData describes the provenance of one evidence fragment.
type SourceMetaData struct {
	URL        string    `json:"url"`
	SourceName string    `json:"source_name"`
	AgentName  string    `json:"agent_name"`
	Timestamp  time.Time `json:"timestamp"`
}

// CollectedDataItem is a single piece of attributed evidence. Content is
// truncated to MaxItemContentChars at construction, never rejected.
type CollectedDataItem struct {
	Content        string         `json:"content"`
	RelevanceScore float64        `json:"relevance_score"`
	Meta           SourceMetaData `json:"meta"`
}

// NewCollectedDataItem builds an evidence item, capping content length and
// defaulting the timestamp to collection time when the source gave none.
func NewCollectedDataItem(content string, relevance float64, meta SourceMetaData) CollectedDataItem {
	if len(content) > MaxItemContentChars {
		content = content[:MaxItemContentChars]
	}
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now().UTC()
	}
	return CollectedDataItem{Content: content, RelevanceScore: relevance, Meta: meta}
}

// CollectedDataBundle accumulates evidence and non-fatal collection errors
// across the collection, scraping and enrichment stages. Stages append,
// never remove.
type CollectedDataBundle struct {
	Data   []CollectedDataItem `json:"data"`
	Errors []string            `json:"errors"`
}

// Append merges another bundle's items and errors into this one.
func (b *CollectedDataBundle) Append(other *CollectedDataBundle) {
	if other == nil {
		return
	}
	b.Data = append(b.Data, other.Data...)
	b.Errors = append(b.Errors, other.Errors...)
}

// Verdict is the categorical outcome of judgment.
type Verdict string

const (
	VerdictTrue       Verdict = "True"
	VerdictFalse      Verdict = "False"
	VerdictUnverified Verdict = "Unverified"
)

// VerificationScore carries the displayed score (0-100), the underlying
// confidence (0-1) and the judge's explanation.
type VerificationScore struct {
	Score       float64 `json:"score"`
	Confidence  float64 `json:"confidence"`
	Explanation string  `json:"explanation"`
}

// VerificationOutput is the terminal artifact of the reasoning stages. The
// score calculator rewrites Score in place as a final pass, and SourcesUsed
// is always derived from the bundle at scoring time.
type VerificationOutput struct {
	ClaimID       uuid.UUID         `json:"claim_id"`
	OriginalClaim string            `json:"original_claim"`
	Verdict       Verdict           `json:"verdict"`
	Score         VerificationScore `json:"score"`
	TrueNews      string            `json:"true_news,omitempty"`
	SourcesUsed   []SourceMetaData  `json:"sources_used"`
}

// Classification is the output of the claim classifier.
type Classification struct {
	Category    string   `json:"category"`
	SubCategory string   `json:"sub_category"`
	Keywords    []string `json:"keywords"`
}

// EntitySet holds named entities extracted from claim text.
type EntitySet struct {
	Persons       []string `json:"persons"`
	Organizations []string `json:"organizations"`
	Locations     []string `json:"locations"`
	Keywords      []string `json:"keywords"`
}

// Empty reports whether extraction produced nothing usable.
func (e *EntitySet) Empty() bool {
	return e == nil || (len(e.Persons) == 0 && len(e.Organizations) == 0 &&
		len(e.Locations) == 0 && len(e.Keywords) == 0)
}

// SynthesisBrief is the mother-stage reasoning brief.
type SynthesisBrief struct {
	Topic string `json:"topic"`
}

// Judgment is the daughter-stage verdict before scoring.
type Judgment struct {
	Verdict     Verdict `json:"verdict"`
	Explanation string  `json:"explanation"`
	TrueNews    string  `json:"true_news"`
}

// LongFormSummary is the structured output of the long-form summarizer.
type LongFormSummary struct {
	Source    string   `json:"source"`
	Headline  string   `json:"headline"`
	Summary   string   `json:"summary"`
	KeyPoints []string `json:"key_points"`
	Entities  []string `json:"entities"`
}

// MediaClaim is one factual statement extracted from an attached image.
type MediaClaim struct {
	Text        string  `json:"text"`
	Confidence  float64 `json:"confidence"`
	SourceImage string  `json:"source_image"`
}

// DistributionResult is the output of a sentiment or emotion pass: a
// percentage distribution over a fixed label set plus the dominant label.
type DistributionResult struct {
	Primary      string             `json:"primary"`
	Distribution map[string]float64 `json:"distribution"`
	RawScores    map[string]float64 `json:"raw_scores"`
	Confidence   float64            `json:"confidence"`
}

// PipelineState is the orchestrator's working memory for one run. It is
// owned exclusively by that run; stages return partial updates that the
// orchestrator merges in sequence.
type PipelineState struct {
	RawClaimText   string                `json:"raw_claim_text"`
	Claim          *Claim                `json:"claim"`
	Media          []MediaItem           `json:"media,omitempty"`
	MediaClaims    []MediaClaim          `json:"media_claims,omitempty"`
	Classification *Classification       `json:"classification,omitempty"`
	URLsToScrape   []string              `json:"urls_to_scrape,omitempty"`
	ManualURLs     []string              `json:"manual_urls,omitempty"`
	Bundle         *CollectedDataBundle  `json:"collected_data"`
	Summaries      []LongFormSummary     `json:"longform_summaries,omitempty"`
	Brief          *SynthesisBrief       `json:"mother_analysis,omitempty"`
	Output         *VerificationOutput   `json:"final_verification_output,omitempty"`
	Sentiment      *DistributionResult   `json:"sentiment_result,omitempty"`
	Emotion        *DistributionResult   `json:"emotion_result,omitempty"`
	AgentsUsed     []string              `json:"agents_used"`
	UseWebSearch   bool                  `json:"use_web_search"`
	ForcedAgents   []string              `json:"forced_agents,omitempty"`
}

// usedAgent records an agent in AgentsUsed exactly once.
func (s *PipelineState) usedAgent(name string) {
	for _, a := range s.AgentsUsed {
		if a == name {
			return
		}
	}
	s.AgentsUsed = append(s.AgentsUsed, name)
}
