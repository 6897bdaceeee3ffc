// cmd/veridex/reasoning.go
package main

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

// Reasoner is the narrow surface the pipeline needs from the language model.
// All operations degrade to deterministic fallbacks instead of failing the
// run; only transport-level problems surface as errors.
type Reasoner interface {
	ClassifyClaim(ctx context.Context, claimText string) (*Classification, error)
	ExtractEntities(ctx context.Context, claimText string) (*EntitySet, error)
	GenerateSearchQueries(ctx context.Context, claimText string) ([]string, error)
	ExtractTickerSymbol(ctx context.Context, claimText string) (string, error)
	Synthesize(ctx context.Context, claimText, evidence string) (*SynthesisBrief, error)
	Judge(ctx context.Context, claimText, evidence string, brief *SynthesisBrief) (*Judgment, error)
	DescribeImage(ctx context.Context, prompt string, image []byte, mimeType string) (string, error)
	Summarize(ctx context.Context, prompt string) (*LongFormSummary, error)
	ScoreLabels(ctx context.Context, prompt string) (map[string]float64, error)
}

// Embedder produces embedding vectors for the score calculator.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// OpenAIReasoner implements Reasoner and Embedder over the OpenAI API. The
// limiter is owned by whoever constructs the reasoner so concurrent pipeline
// runs share one token bucket without a process-wide singleton.
type OpenAIReasoner struct {
	client         *openai.Client
	chatModel      string
	visionModel    string
	embeddingModel string
	temperature    float32
	limiter        *rate.Limiter
	maxRetries     int
}

// NewOpenAIReasoner creates a reasoning adapter from the application config.
func NewOpenAIReasoner(cfg *Config) *OpenAIReasoner {
	perSecond := rate.Limit(float64(cfg.LLMRequestsPerMinute) / 60.0)
	return &OpenAIReasoner{
		client:         openai.NewClient(cfg.OpenAIAPIKey),
		chatModel:      cfg.ChatModel,
		visionModel:    cfg.VisionModel,
		embeddingModel: cfg.EmbeddingModel,
		temperature:    float32(cfg.LLMTemperature),
		limiter:        rate.NewLimiter(perSecond, cfg.LLMBurst),
		maxRetries:     cfg.LLMMaxRetries,
	}
}

// chat sends a system+user exchange and returns the raw model text. Rate
// limited via the shared token bucket, retried with backoff on quota errors.
func (r *OpenAIReasoner) chat(ctx context.Context, model, systemPrompt, userPrompt string) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if err := r.limiter.Wait(ctx); err != nil {
			return "", NewReasoningError(ErrReasoningRate, "rate limiter wait cancelled", err)
		}

		resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: userPrompt},
			},
			Temperature: r.temperature,
		})
		if err == nil {
			if len(resp.Choices) == 0 {
				return "", NewReasoningError(ErrReasoningCall, "model returned no choices", nil)
			}
			return resp.Choices[0].Message.Content, nil
		}

		lastErr = err
		if !isRateLimitErr(err) || attempt == r.maxRetries {
			break
		}
		backoff := time.Duration(1<<uint(attempt))*time.Second +
			time.Duration(rand.Intn(250))*time.Millisecond
		Logger().Warning("Reasoning call rate limited, retrying in %s (attempt %d/%d)",
			backoff, attempt+1, r.maxRetries)
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return "", NewReasoningError(ErrReasoningCall, "chat completion failed", lastErr)
}

func isRateLimitErr(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == 429
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") || strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "quota")
}

// ClassifyClaim labels the claim with a category, sub-category and keywords.
// On any failure it defaults to General with the claim text as the keyword.
func (r *OpenAIReasoner) ClassifyClaim(ctx context.Context, claimText string) (*Classification, error) {
	systemPrompt := `You are an expert claim classifier. Classify the user's claim into one of:
Politics, Health, Finance, Science, Education, General.
Respond with JSON only:
{"category": "...", "sub_category": "...", "keywords": ["...", "..."]}`

	fallback := &Classification{
		Category:    CategoryGeneral,
		SubCategory: CategoryGeneral,
		Keywords:    []string{claimText},
	}

	raw, err := r.chat(ctx, r.chatModel, systemPrompt, fmt.Sprintf("Claim: %q", claimText))
	if err != nil {
		Logger().Error("Claim classification failed, defaulting to General: %v", err)
		return fallback, nil
	}

	var result Classification
	if _, err := ExtractJSON(raw, &result); err != nil {
		Logger().Error("Claim classification parse failed, defaulting to General: %v", err)
		return fallback, nil
	}
	if result.Category == "" {
		result.Category = CategoryGeneral
	}
	return &result, nil
}

// ExtractEntities pulls persons, organizations, locations and salient
// keywords out of the claim text.
func (r *OpenAIReasoner) ExtractEntities(ctx context.Context, claimText string) (*EntitySet, error) {
	systemPrompt := `Extract named entities from the claim: person names, organizations,
locations/countries, and important proper nouns. Do NOT include verbs or common
words like 'loves', 'is', 'has'. Respond with JSON only:
{"persons": [], "organizations": [], "locations": [], "keywords": []}`

	raw, err := r.chat(ctx, r.chatModel, systemPrompt, fmt.Sprintf("Claim: %q", claimText))
	if err != nil {
		Logger().Warning("Entity extraction failed: %v", err)
		return &EntitySet{}, nil
	}

	var result EntitySet
	if _, err := ExtractJSON(raw, &result); err != nil {
		Logger().Warning("Entity extraction parse failed: %v", err)
		return &EntitySet{}, nil
	}
	return &result, nil
}

// GenerateSearchQueries returns ranked query variants, most specific first.
// Entity-derived variants are preferred; a raw model call is the fallback and
// the sanitized claim text the final one, so the result is never empty.
func (r *OpenAIReasoner) GenerateSearchQueries(ctx context.Context, claimText string) ([]string, error) {
	entities, _ := r.ExtractEntities(ctx, claimText)
	if variants := buildQueryVariants(entities); len(variants) > 0 {
		return variants, nil
	}

	systemPrompt := `Convert the claim into a concise news search query. Include only proper
nouns and important keywords, no verbs. Return ONLY the query text on a single line.`

	raw, err := r.chat(ctx, r.chatModel, systemPrompt, fmt.Sprintf("Claim: %q", claimText))
	if err == nil {
		if q := sanitizeQuery(stripStopWords(raw)); q != "" {
			return []string{q}, nil
		}
	} else {
		Logger().Warning("Model query generation failed: %v", err)
	}

	// Final fallback: the claim text itself, cleaned.
	q := sanitizeQuery(stripStopWords(claimText))
	if q == "" {
		q = sanitizeQuery(claimText)
	}
	if q == "" {
		q = claimText
	}
	return []string{q}, nil
}

// ExtractTickerSymbol resolves the primary financial asset in the claim to a
// quote-service ticker. The static crypto alias table is consulted before the
// model; an empty string means no asset was identified.
func (r *OpenAIReasoner) ExtractTickerSymbol(ctx context.Context, claimText string) (string, error) {
	lower := strings.ToLower(claimText)
	for alias, ticker := range cryptoTickers {
		if strings.Contains(lower, alias) {
			return ticker, nil
		}
	}

	systemPrompt := `Identify the primary financial asset mentioned in the claim and return its
ticker symbol (e.g. BTC-USD, AAPL, TSLA). For cryptocurrencies use the -USD
format. Return ONLY the ticker symbol, or "NULL" if there is none.`

	raw, err := r.chat(ctx, r.chatModel, systemPrompt, fmt.Sprintf("Claim: %q", claimText))
	if err != nil {
		Logger().Warning("Ticker extraction failed: %v", err)
		return "", nil
	}

	ticker := strings.Trim(strings.TrimSpace(raw), `"'`)
	if ticker == "" || strings.EqualFold(ticker, "NULL") {
		return "", nil
	}
	return ticker, nil
}

// Synthesize runs the mother stage: connect the evidence to the claim and
// produce a reasoning brief for the judgment stage.
func (r *OpenAIReasoner) Synthesize(ctx context.Context, claimText, evidence string) (*SynthesisBrief, error) {
	if len(evidence) > MaxSynthesisChars {
		evidence = evidence[:MaxSynthesisChars]
	}

	systemPrompt := `You are the chief investigator. Connect the dots between the user's claim
and the collected evidence (sorted newest to oldest; pay attention to timestamps).
When evidence conflicts, prioritize the most recent credible sources. Synthesize
how the evidence relates to the claim. Respond with JSON only:
{"topic": "Detailed synthesis of how the evidence relates to the claim."}`

	userPrompt := fmt.Sprintf("Claim: %q\n\nCollected evidence:\n---\n%s\n---", claimText, evidence)

	fallback := &SynthesisBrief{Topic: "General analysis"}

	raw, err := r.chat(ctx, r.chatModel, systemPrompt, userPrompt)
	if err != nil {
		Logger().Error("Synthesis stage failed, using generic brief: %v", err)
		return fallback, nil
	}

	var result SynthesisBrief
	if _, err := ExtractJSON(raw, &result); err != nil {
		Logger().Error("Synthesis parse failed, using generic brief: %v", err)
		return fallback, nil
	}
	if result.Topic == "" {
		result.Topic = fallback.Topic
	}
	return &result, nil
}

// Judge runs the daughter stage: a verdict with explanation and a corrected
// fact statement. The model is told to trust evidence over the brief and to
// prefer the most recent evidence on conflict.
func (r *OpenAIReasoner) Judge(ctx context.Context, claimText, evidence string, brief *SynthesisBrief) (*Judgment, error) {
	if len(evidence) > MaxEvidenceChars {
		evidence = evidence[:MaxEvidenceChars]
	}
	topic := "No instructions"
	if brief != nil && brief.Topic != "" {
		topic = brief.Topic
	}

	systemPrompt := `You verify claims against evidence. The investigator's analysis is a GUIDE;
if it contradicts the evidence, TRUST THE EVIDENCE. When evidence conflicts,
prefer the most recent credible reporting and call out disagreements.
Verdict guidelines:
- True: the evidence clearly supports the claim as stated.
- False: the evidence clearly contradicts the claim or shows something different.
- Unverified: ONLY when evidence is genuinely insufficient or absent; a
  contradiction means False, not Unverified.
Respond with JSON only:
{"verdict": "True/False/Unverified", "explanation": "...", "true_news": "..."}`

	userPrompt := fmt.Sprintf(
		"Investigator's analysis: %q\n\nClaim: %q\n\nEvidence (newest to oldest):\n---\n%s\n---",
		topic, claimText, evidence)

	fallback := &Judgment{
		Verdict:     VerdictUnverified,
		Explanation: "The verification model was unavailable; the claim could not be assessed.",
	}

	raw, err := r.chat(ctx, r.chatModel, systemPrompt, userPrompt)
	if err != nil {
		Logger().Error("Judgment stage failed, returning Unverified: %v", err)
		return fallback, nil
	}

	var result Judgment
	if _, err := ExtractJSON(raw, &result); err != nil {
		Logger().Error("Judgment parse failed, returning Unverified: %v", err)
		return fallback, nil
	}
	switch result.Verdict {
	case VerdictTrue, VerdictFalse, VerdictUnverified:
	default:
		result.Verdict = VerdictUnverified
	}
	return &result, nil
}

// DescribeImage sends an image with a textual prompt to the vision model and
// returns the raw text response.
func (r *OpenAIReasoner) DescribeImage(ctx context.Context, prompt string, image []byte, mimeType string) (string, error) {
	if mimeType == "" {
		mimeType = "image/png"
	}
	dataURI := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(image))

	if err := r.limiter.Wait(ctx); err != nil {
		return "", NewReasoningError(ErrReasoningRate, "rate limiter wait cancelled", err)
	}

	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: r.visionModel,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: prompt},
					{
						Type:     openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{URL: dataURI},
					},
				},
			},
		},
	})
	if err != nil {
		return "", NewReasoningError(ErrReasoningCall, "image analysis failed", err)
	}
	if len(resp.Choices) == 0 {
		return "", NewReasoningError(ErrReasoningCall, "vision model returned no choices", nil)
	}
	return resp.Choices[0].Message.Content, nil
}

// Summarize produces a structured long-form summary. A nil result with nil
// error means the summarizer had nothing usable to say.
func (r *OpenAIReasoner) Summarize(ctx context.Context, prompt string) (*LongFormSummary, error) {
	systemPrompt := `You are a fact-check assistant. Summarize the supplied article or claim text.
Respond with strict JSON only:
{"source": "...", "headline": "...", "summary": "...", "key_points": [], "entities": []}`

	raw, err := r.chat(ctx, r.chatModel, systemPrompt, prompt)
	if err != nil {
		Logger().Warning("Long-form summarization failed: %v", err)
		return nil, nil
	}

	var result LongFormSummary
	if _, err := ExtractJSON(raw, &result); err != nil {
		Logger().Warning("Long-form summary parse failed: %v", err)
		return nil, nil
	}
	return &result, nil
}

// ScoreLabels runs a prompt expected to yield a flat JSON object of
// label to numeric score, as used by the sentiment and emotion passes.
func (r *OpenAIReasoner) ScoreLabels(ctx context.Context, prompt string) (map[string]float64, error) {
	systemPrompt := `You score texts over a fixed label set. Respond with a single flat JSON
object mapping each label to a number between 0.0 and 1.0. No markdown, no commentary.`

	raw, err := r.chat(ctx, r.chatModel, systemPrompt, prompt)
	if err != nil {
		return nil, err
	}

	var scores map[string]float64
	if _, err := ExtractJSON(raw, &scores); err != nil {
		return nil, NewReasoningError(ErrReasoningParse, "label scoring response was not JSON", err)
	}
	return scores, nil
}

// Embed fetches embedding vectors for the given texts.
func (r *OpenAIReasoner) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, NewReasoningError(ErrReasoningRate, "rate limiter wait cancelled", err)
	}

	resp, err := r.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(r.embeddingModel),
	})
	if err != nil {
		return nil, NewReasoningError(ErrReasoningCall, "embedding request failed", err)
	}

	vectors := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		vectors[i] = d.Embedding
	}
	return vectors, nil
}
