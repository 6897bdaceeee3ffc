// cmd/veridex/scorer.go
package main

import (
	"context"
	"math"
	"net/url"
	"strings"
)

// Scorer produces the deterministic confidence and score for a verdict by
// combining source authority, corroboration breadth, and semantic
// similarity between the claim and its evidence.
type Scorer struct {
	cfg      ScoringConfig
	embedder Embedder
}

func NewScorer(cfg ScoringConfig, embedder Embedder) *Scorer {
	return &Scorer{cfg: cfg, embedder: embedder}
}

// Score fills in the Confidence and Score fields of the verification
// output. The verdict and explanation are never modified.
func (s *Scorer) Score(ctx context.Context, claim *Claim, bundle *CollectedDataBundle, output *VerificationOutput, agentsUsed []string) *VerificationOutput {
	if output.Verdict == VerdictUnverified {
		Logger().Info("Verdict is Unverified, confidence set to 0.0")
		output.Score.Confidence = 0.0
		output.Score.Score = 0.0
		return output
	}

	sources := bundle.Data
	if len(sources) == 0 {
		Logger().Warning("No sources in evidence bundle, confidence set to 0.0")
		output.Score.Confidence = 0.0
		output.Score.Score = 0.0
		return output
	}

	totalAuthority := 0.0
	uniqueDomains := make(map[string]struct{})
	var evidenceTexts []string

	for _, item := range sources {
		totalAuthority += s.domainAuthority(item.Meta.URL)
		uniqueDomains[hostOf(item.Meta.URL)] = struct{}{}

		excerpt := item.Content
		if len(excerpt) > EmbeddingExcerptChars {
			excerpt = excerpt[:EmbeddingExcerptChars]
		}
		evidenceTexts = append(evidenceTexts, excerpt)
	}

	avgAuthority := totalAuthority / float64(len(sources))
	Logger().Info("Average domain authority: %.2f", avgAuthority)

	corroboration := corroborationScore(len(uniqueDomains))
	Logger().Info("Corroboration score (%d unique domains): %.2f", len(uniqueDomains), corroboration)

	similarity := s.similarityScore(ctx, claim.Text, evidenceTexts)

	bonus := 0.0
	if s.factCheckContributed(agentsUsed, sources) {
		Logger().Info("Fact check sources present, applying bonus")
		bonus = s.cfg.FactCheckBonus
	}

	raw := avgAuthority*s.cfg.AuthorityWeight +
		similarity*s.cfg.SimilarityWeight +
		corroboration*s.cfg.CorroborationWeight +
		bonus
	confidence := math.Min(s.cfg.MaxConfidence, math.Max(0.0, raw))
	Logger().Info("Calculated confidence: %.2f", confidence)

	output.Score.Confidence = roundTo(confidence, 2)
	output.Score.Score = roundTo(output.Score.Confidence*100, 1)
	return output
}

// corroborationScore maps unique-domain counts to a step function:
// one source gives half credit, a handful gives most, four or more full.
func corroborationScore(uniqueDomains int) float64 {
	switch {
	case uniqueDomains <= 1:
		return 0.5
	case uniqueDomains <= 3:
		return 0.8
	default:
		return 1.0
	}
}

// domainAuthority resolves a URL's host to an authority weight. Exact
// table entries win, then government and academic TLD rules, then
// substring matches against the table, then the default.
func (s *Scorer) domainAuthority(rawURL string) float64 {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return s.cfg.FailureAuthority
	}
	domain := strings.ToLower(strings.TrimPrefix(parsed.Host, "www."))

	if score, ok := s.cfg.DomainAuthority[domain]; ok {
		return score
	}
	if strings.HasSuffix(domain, ".gov") || strings.HasSuffix(domain, ".gov.in") || strings.HasSuffix(domain, ".nic.in") {
		return 1.0
	}
	if strings.HasSuffix(domain, ".edu") || strings.HasSuffix(domain, ".ac.in") {
		return 0.9
	}
	for key, score := range s.cfg.DomainAuthority {
		if strings.Contains(domain, key) {
			return score
		}
	}
	return s.cfg.DefaultAuthority
}

// similarityScore is the maximum cosine similarity between the claim and
// the top evidence excerpts. Falls back to the configured default when
// embeddings are unavailable.
func (s *Scorer) similarityScore(ctx context.Context, claimText string, evidenceTexts []string) float64 {
	if s.embedder == nil || len(evidenceTexts) == 0 {
		Logger().Warning("Skipping similarity check (no embedder or no evidence text)")
		return s.cfg.DefaultSimilarity
	}
	if len(evidenceTexts) > MaxEmbeddingExcerpts {
		evidenceTexts = evidenceTexts[:MaxEmbeddingExcerpts]
	}

	texts := append([]string{claimText}, evidenceTexts...)
	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil || len(vectors) < 2 {
		Logger().Warning("Embedding call failed, using default similarity: %v", err)
		return s.cfg.DefaultSimilarity
	}

	claimVec := vectors[0]
	maxSim := 0.0
	for _, vec := range vectors[1:] {
		if sim := cosineSimilarity(claimVec, vec); sim > maxSim {
			maxSim = sim
		}
	}
	Logger().Info("Semantic similarity score: %.2f", maxSim)
	return maxSim
}

func (s *Scorer) factCheckContributed(agentsUsed []string, sources []CollectedDataItem) bool {
	used := false
	for _, name := range agentsUsed {
		if name == AgentFactCheck {
			used = true
			break
		}
	}
	if !used {
		return false
	}
	for _, item := range sources {
		if item.Meta.AgentName == AgentFactCheck {
			return true
		}
	}
	return false
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0.0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0.0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func roundTo(v float64, places int) float64 {
	factor := math.Pow(10, float64(places))
	return math.Round(v*factor) / factor
}

func hostOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return parsed.Host
}
