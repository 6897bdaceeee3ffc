// cmd/veridex/media.go
package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
)

const imageClaimPrompt = `You are analyzing a news-style image for factual content.

Context (user text, may be blank):
"%s"

Tasks:
1. Transcribe ALL textual content verbatim (headline, sub-head, ticker, captions).
2. Identify publisher logos or branding (e.g., News18, BBC).
3. Summarize the visual scene (who or what is depicted).
4. List explicit factual claims or directives in the graphic.
5. Flag suspicious design cues (mismatched fonts, inconsistent logos, watermarks).

Output JSON ONLY:
{
  "headline": "primary headline text or empty string",
  "subtext": ["additional lines"],
  "publisher": "publisher name if visible",
  "detected_claims": [{"text": "...", "confidence": 0.0}],
  "visual_description": "describe people/objects/scenario",
  "logos": ["detected logos or badge text"],
  "timestamp_strings": ["date/time strings if seen"],
  "suspicious_elements": ["red flags, or empty"],
  "overall_confidence": 0.0
}
Strictly return valid JSON with no commentary outside it.`

type imageAnalysis struct {
	Headline       string   `json:"headline"`
	Subtext        []string `json:"subtext"`
	Publisher      string   `json:"publisher"`
	DetectedClaims []struct {
		Text       string  `json:"text"`
		Confidence float64 `json:"confidence"`
	} `json:"detected_claims"`
	VisualDescription  string   `json:"visual_description"`
	Logos              []string `json:"logos"`
	TimestampStrings   []string `json:"timestamp_strings"`
	SuspiciousElements []string `json:"suspicious_elements"`
	OverallConfidence  float64  `json:"overall_confidence"`
}

// MediaResult is what the image stage feeds back into the run: the claim
// text chosen to drive verification plus evidence items describing the image.
type MediaResult struct {
	PrimaryClaim string
	Claims       []MediaClaim
	Items        []CollectedDataItem
	Errors       []string
}

// MediaAnalyzer extracts factual claims from attached images using the
// vision model.
type MediaAnalyzer struct {
	reasoner Reasoner
	client   *http.Client
}

func NewMediaAnalyzer(reasoner Reasoner) *MediaAnalyzer {
	return &MediaAnalyzer{
		reasoner: reasoner,
		client:   &http.Client{Timeout: DefaultTimeout},
	}
}

// Analyze processes every image attachment. Per-image failures are recorded
// and never abort the remaining images.
func (m *MediaAnalyzer) Analyze(ctx context.Context, claim *Claim, media []MediaItem) *MediaResult {
	result := &MediaResult{}

	var images []MediaItem
	for _, item := range media {
		if item.Type == MediaTypeImage {
			images = append(images, item)
		}
	}
	if len(images) == 0 {
		result.Errors = append(result.Errors, "no image media provided")
		return result
	}

	Logger().Info("Analyzing %d image attachment(s)", len(images))

	for idx, img := range images {
		analysis, err := m.analyzeOne(ctx, claim, img)
		if err != nil {
			Logger().Error("Image analysis failed for %s: %v", mediaLabel(img, idx), err)
			result.Errors = append(result.Errors, err.Error())
			continue
		}
		m.collect(result, img, idx, analysis)
	}

	if len(result.Claims) > 0 {
		sort.SliceStable(result.Claims, func(i, j int) bool {
			return result.Claims[i].Confidence > result.Claims[j].Confidence
		})
		result.PrimaryClaim = result.Claims[0].Text
	}
	return result
}

func (m *MediaAnalyzer) analyzeOne(ctx context.Context, claim *Claim, img MediaItem) (*imageAnalysis, error) {
	data, mimeType, err := m.loadImageBytes(ctx, img)
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf(imageClaimPrompt, claim.Text)
	raw, err := m.reasoner.DescribeImage(ctx, prompt, data, mimeType)
	if err != nil {
		return nil, err
	}

	var analysis imageAnalysis
	if _, err := ExtractJSON(raw, &analysis); err != nil {
		return nil, NewReasoningError(ErrReasoningParse, "vision response missing JSON block", err)
	}
	return &analysis, nil
}

// collect turns one parsed analysis into claims and typed evidence items.
func (m *MediaAnalyzer) collect(result *MediaResult, img MediaItem, idx int, a *imageAnalysis) {
	sourceImage := mediaLabel(img, idx)
	for _, dc := range a.DetectedClaims {
		if dc.Text == "" {
			continue
		}
		result.Claims = append(result.Claims, MediaClaim{
			Text:        dc.Text,
			Confidence:  dc.Confidence,
			SourceImage: sourceImage,
		})
	}

	var summary []string
	if h := strings.TrimSpace(a.Headline); h != "" {
		summary = append(summary, "Headline: "+h)
	}
	if len(a.Subtext) > 0 {
		summary = append(summary, "Subtext:\n- "+strings.Join(a.Subtext, "\n- "))
	}
	if a.Publisher != "" {
		summary = append(summary, "Publisher: "+a.Publisher)
	}
	if len(a.TimestampStrings) > 0 {
		summary = append(summary, "Timestamps:\n- "+strings.Join(a.TimestampStrings, "\n- "))
	}
	if len(summary) > 0 {
		result.Items = append(result.Items,
			NewCollectedDataItem(strings.Join(summary, "\n"), 0.95, mediaSourceMeta(img, "ocr")))
	}
	if a.VisualDescription != "" {
		result.Items = append(result.Items,
			NewCollectedDataItem("Visual Description: "+a.VisualDescription, 0.7, mediaSourceMeta(img, "visual")))
	}
	if len(a.Logos) > 0 {
		result.Items = append(result.Items,
			NewCollectedDataItem("Detected logos/branding: "+strings.Join(a.Logos, ", "), 0.8, mediaSourceMeta(img, "branding")))
	}
	if len(a.SuspiciousElements) > 0 {
		result.Items = append(result.Items,
			NewCollectedDataItem("Suspicious Elements:\n- "+strings.Join(a.SuspiciousElements, "\n- "), 0.6, mediaSourceMeta(img, "suspicion")))
	}
}

// loadImageBytes resolves the image payload, preferring embedded base64
// over a remote URL.
func (m *MediaAnalyzer) loadImageBytes(ctx context.Context, img MediaItem) ([]byte, string, error) {
	if img.DataBase64 != "" {
		payload := img.DataBase64
		if i := strings.Index(payload, ","); i >= 0 {
			payload = payload[i+1:]
		}
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, "", NewEvidenceError(ErrEvidenceParse,
				fmt.Sprintf("invalid base64 payload for %s", img.Filename), err)
		}
		mimeType := img.MIMEType
		if mimeType == "" {
			mimeType = "image/png"
		}
		return data, mimeType, nil
	}

	if img.URL != "" {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, img.URL, nil)
		if err != nil {
			return nil, "", NewEvidenceError(ErrEvidenceFetch, "invalid media URL", err)
		}
		resp, err := m.client.Do(req)
		if err != nil {
			return nil, "", NewEvidenceError(ErrEvidenceFetch, "media download failed", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, "", NewEvidenceError(ErrEvidenceFetch,
				fmt.Sprintf("media download returned status %s", resp.Status), nil)
		}
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, "", NewEvidenceError(ErrEvidenceFetch, "media read failed", err)
		}
		mimeType := resp.Header.Get("Content-Type")
		if mimeType == "" {
			mimeType = img.MIMEType
		}
		if mimeType == "" {
			mimeType = "application/octet-stream"
		}
		return data, mimeType, nil
	}

	return nil, "", NewEvidenceError(ErrEvidenceParse, "media item missing both url and data payload", nil)
}

func mediaSourceMeta(img MediaItem, suffix string) SourceMetaData {
	sourceURL := img.URL
	if sourceURL == "" {
		name := img.Filename
		if name == "" {
			name = "image"
		}
		sourceURL = "uploaded://" + name
	}
	sourceName := img.Description
	if sourceName == "" {
		sourceName = "User-supplied media"
	}
	return SourceMetaData{
		URL:        sourceURL,
		SourceName: sourceName,
		AgentName:  AgentImageClaim + "." + suffix,
	}
}

func mediaLabel(img MediaItem, idx int) string {
	if img.Filename != "" {
		return img.Filename
	}
	if img.URL != "" {
		return img.URL
	}
	return fmt.Sprintf("image_%d", idx+1)
}
