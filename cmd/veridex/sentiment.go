// cmd/veridex/sentiment.go
package main

import (
	"context"
	"fmt"
	"math"
)

var sentimentLabels = []string{"positive", "neutral", "negative"}

var emotionLabels = []string{"joy", "anger", "sadness", "fear", "surprise", "disgust"}

// AffectAnalyzer runs the sentiment and emotion passes over a claim.
// Both produce percentage distributions over their fixed label sets.
type AffectAnalyzer struct {
	reasoner Reasoner
}

func NewAffectAnalyzer(reasoner Reasoner) *AffectAnalyzer {
	return &AffectAnalyzer{reasoner: reasoner}
}

const sentimentPrompt = `You are an expert sentiment analyzer. Analyze the sentiment of the following text.

Text to analyze: "%s"

Assign intensity scores (0.0 to 1.0) for each sentiment category, reflecting how much of each is present.

Output JSON ONLY, no markdown, no explanations:
{"positive": 0.65, "neutral": 0.25, "negative": 0.10}`

const emotionPrompt = `You are an expert emotion analyzer. Analyze the emotional content of the following text.

Text to analyze: "%s"

Assign intensity scores (0.0 to 1.0) for each emotion, reflecting how much of each is present.

Output JSON ONLY, no markdown, no explanations:
{"joy": 0.1, "anger": 0.4, "sadness": 0.2, "fear": 0.2, "surprise": 0.05, "disgust": 0.05}`

// Sentiment classifies the claim text over positive/neutral/negative.
// Failure yields a uniform distribution, never an error.
func (a *AffectAnalyzer) Sentiment(ctx context.Context, claimText string) *DistributionResult {
	Logger().Info("Analyzing sentiment")
	return a.distribute(ctx, fmt.Sprintf(sentimentPrompt, claimText), sentimentLabels, "neutral")
}

// Emotion classifies the claim text over the six basic emotions.
func (a *AffectAnalyzer) Emotion(ctx context.Context, claimText string) *DistributionResult {
	Logger().Info("Analyzing emotional content")
	return a.distribute(ctx, fmt.Sprintf(emotionPrompt, claimText), emotionLabels, "neutral")
}

func (a *AffectAnalyzer) distribute(ctx context.Context, prompt string, labels []string, fallbackPrimary string) *DistributionResult {
	raw, err := a.reasoner.ScoreLabels(ctx, prompt)
	if err != nil {
		Logger().Error("Affect analysis failed: %v", err)
		return uniformDistribution(labels, fallbackPrimary)
	}

	scores := make(map[string]float64, len(labels))
	for _, label := range labels {
		v := raw[label]
		scores[label] = math.Max(0.0, math.Min(1.0, v))
	}

	distribution := normalizeToPercentages(scores)

	primary := labels[0]
	best := -1.0
	for label, pct := range distribution {
		if pct > best {
			best = pct
			primary = label
		}
	}

	rounded := make(map[string]float64, len(scores))
	for label, v := range scores {
		rounded[label] = roundTo(v, 4)
	}

	return &DistributionResult{
		Primary:      primary,
		Distribution: distribution,
		RawScores:    rounded,
		Confidence:   roundTo(scores[primary], 4),
	}
}

// normalizeToPercentages converts raw 0-1 scores into percentages summing
// to exactly 100.0. Rounding drift is absorbed by the largest bucket; a
// zero total falls back to an equal split.
func normalizeToPercentages(scores map[string]float64) map[string]float64 {
	total := 0.0
	for _, v := range scores {
		total += v
	}

	percentages := make(map[string]float64, len(scores))
	if total == 0 {
		equal := 100.0 / float64(len(scores))
		for label := range scores {
			percentages[label] = equal
		}
		return percentages
	}

	for label, v := range scores {
		percentages[label] = roundTo(v/total*100.0, 1)
	}

	sum := 0.0
	maxLabel := ""
	maxVal := -1.0
	for label, pct := range percentages {
		sum += pct
		if pct > maxVal {
			maxVal = pct
			maxLabel = label
		}
	}
	if math.Abs(sum-100.0) > 0.1 {
		percentages[maxLabel] = roundTo(percentages[maxLabel]+(100.0-sum), 1)
	}
	return percentages
}

// uniformDistribution is the reasoning-failure fallback: an even split that
// still sums to exactly 100.0, with the first label absorbing rounding drift.
func uniformDistribution(labels []string, primary string) *DistributionResult {
	n := float64(len(labels))
	distribution := make(map[string]float64, len(labels))
	raw := make(map[string]float64, len(labels))
	share := roundTo(100.0/n, 1)
	rest := 0.0
	for _, label := range labels[1:] {
		distribution[label] = share
		rest += share
		raw[label] = roundTo(1.0/n, 4)
	}
	distribution[labels[0]] = roundTo(100.0-rest, 1)
	raw[labels[0]] = roundTo(1.0/n, 4)
	if !containsLabel(labels, primary) {
		primary = labels[0]
	}
	return &DistributionResult{
		Primary:      primary,
		Distribution: distribution,
		RawScores:    raw,
		Confidence:   roundTo(1.0/n, 4),
	}
}

func containsLabel(labels []string, label string) bool {
	for _, l := range labels {
		if l == label {
			return true
		}
	}
	return false
}
