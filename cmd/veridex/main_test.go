// cmd/veridex/main_test.go
package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "veridex-test")
	if err != nil {
		panic(err)
	}
	if err := InitLogger(filepath.Join(dir, "test.log"), LogError); err != nil {
		panic(err)
	}
	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}

// fakeReasoner is a deterministic Reasoner and Embedder for tests. Zero
// values behave like a healthy model with bland answers.
type fakeReasoner struct {
	classification *Classification
	entities       *EntitySet
	queries        []string
	ticker         string
	brief          *SynthesisBrief
	judgment       *Judgment
	imageResponse  string
	summary        *LongFormSummary
	labelScores    map[string]float64
	labelErr       error
	embeddings     [][]float32
	embedErr       error

	judgeEvidence string
}

func (f *fakeReasoner) ClassifyClaim(ctx context.Context, claimText string) (*Classification, error) {
	if f.classification != nil {
		return f.classification, nil
	}
	return &Classification{Category: CategoryGeneral, SubCategory: CategoryGeneral, Keywords: []string{claimText}}, nil
}

func (f *fakeReasoner) ExtractEntities(ctx context.Context, claimText string) (*EntitySet, error) {
	if f.entities != nil {
		return f.entities, nil
	}
	return &EntitySet{}, nil
}

func (f *fakeReasoner) GenerateSearchQueries(ctx context.Context, claimText string) ([]string, error) {
	if len(f.queries) > 0 {
		return f.queries, nil
	}
	return []string{sanitizeQuery(claimText)}, nil
}

func (f *fakeReasoner) ExtractTickerSymbol(ctx context.Context, claimText string) (string, error) {
	return f.ticker, nil
}

func (f *fakeReasoner) Synthesize(ctx context.Context, claimText, evidence string) (*SynthesisBrief, error) {
	if f.brief != nil {
		return f.brief, nil
	}
	return &SynthesisBrief{Topic: "General analysis"}, nil
}

func (f *fakeReasoner) Judge(ctx context.Context, claimText, evidence string, brief *SynthesisBrief) (*Judgment, error) {
	f.judgeEvidence = evidence
	if f.judgment != nil {
		return f.judgment, nil
	}
	return &Judgment{Verdict: VerdictUnverified, Explanation: "insufficient evidence"}, nil
}

func (f *fakeReasoner) DescribeImage(ctx context.Context, prompt string, image []byte, mimeType string) (string, error) {
	return f.imageResponse, nil
}

func (f *fakeReasoner) Summarize(ctx context.Context, prompt string) (*LongFormSummary, error) {
	return f.summary, nil
}

func (f *fakeReasoner) ScoreLabels(ctx context.Context, prompt string) (map[string]float64, error) {
	if f.labelErr != nil {
		return nil, f.labelErr
	}
	return f.labelScores, nil
}

func (f *fakeReasoner) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	if f.embeddings != nil {
		return f.embeddings, nil
	}
	vectors := make([][]float32, len(texts))
	for i := range vectors {
		vectors[i] = []float32{1, 0, 0}
	}
	return vectors, nil
}

// fakeAgent returns canned items, URLs or an error.
type fakeAgent struct {
	name  string
	items []CollectedDataItem
	urls  []string
	err   error
}

func (f *fakeAgent) Name() string { return f.name }

func (f *fakeAgent) Collect(ctx context.Context, claim *Claim, queries []string) (*AgentResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &AgentResult{Items: f.items, URLs: f.urls}, nil
}
