// cmd/veridex/summarizer.go
package main

import (
	"context"
	"strings"
)

// Summarizer condenses long-form text into a structured summary that can
// join the evidence pool like any other collected item.
type Summarizer struct {
	reasoner Reasoner
}

func NewSummarizer(reasoner Reasoner) *Summarizer {
	return &Summarizer{reasoner: reasoner}
}

// NeedsSummary reports whether the text is long enough to benefit from
// summarization.
func NeedsSummary(text string) bool {
	return len(strings.Fields(text)) >= LongTextWordThreshold
}

// Summarize condenses one text. Returns nil on empty input or model
// failure; callers treat a nil summary as "skip".
func (s *Summarizer) Summarize(ctx context.Context, text, sourceName, sourceURL string) (*LongFormSummary, *CollectedDataItem) {
	if strings.TrimSpace(text) == "" {
		Logger().Debug("Summarizer received empty text, skipping")
		return nil, nil
	}

	Logger().Info("Summarizing source %q (%s)", sourceName, sourceURL)

	input := text
	if len(input) > MaxSummaryInputChars {
		Logger().Debug("Summarizer truncating input from %d to %d characters", len(input), MaxSummaryInputChars)
		input = input[:MaxSummaryInputChars]
	}

	summary, err := s.reasoner.Summarize(ctx, input)
	if err != nil {
		Logger().Warning("Summarizer failed for %q: %v", sourceName, err)
		return nil, nil
	}
	if summary == nil {
		Logger().Warning("Summarizer produced no summary for %q", sourceName)
		return nil, nil
	}
	if summary.Source == "" {
		summary.Source = sourceName
	}

	item := buildSummaryItem(summary, sourceName, sourceURL)
	return summary, &item
}

// buildSummaryItem wraps a summary as evidence so downstream stages treat
// it like any other collected item.
func buildSummaryItem(summary *LongFormSummary, sourceName, sourceURL string) CollectedDataItem {
	headline := summary.Headline
	if headline == "" {
		headline = "Summary"
	}

	lines := []string{
		"Headline: " + headline,
		"Summary: " + summary.Summary,
	}
	if len(summary.KeyPoints) > 0 {
		lines = append(lines, "Key points:")
		for _, point := range summary.KeyPoints {
			lines = append(lines, "- "+point)
		}
	}
	if len(summary.Entities) > 0 {
		lines = append(lines, "Entities: "+strings.Join(summary.Entities, ", "))
	}

	return NewCollectedDataItem(strings.Join(lines, "\n"), 0.75, SourceMetaData{
		URL:        sourceURL,
		SourceName: sourceName,
		AgentName:  AgentSummarizer,
	})
}
