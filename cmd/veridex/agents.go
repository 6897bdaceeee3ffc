// cmd/veridex/agents.go
package main

import (
	"context"
	"strings"
)

// AgentResult is what one evidence agent contributes to a run. Item producers
// fill Items with ready evidence; URL producers fill URLs for the downstream
// scraping stage to resolve.
type AgentResult struct {
	Items []CollectedDataItem
	URLs  []string
}

// EvidenceAgent is the uniform contract over external evidence providers.
// Implementations must not let provider failures escape: on timeout, quota or
// malformed response they log, record nothing, and return an empty result.
// An error return is reserved for contract violations and is recorded in the
// bundle's error list without failing the pipeline.
type EvidenceAgent interface {
	Name() string
	Collect(ctx context.Context, claim *Claim, queries []string) (*AgentResult, error)
}

// AgentSet holds the configured adapters; the orchestrator selects from it
// per run.
type AgentSet struct {
	News      EvidenceAgent
	FactCheck EvidenceAgent
	WebSearch EvidenceAgent
	Political EvidenceAgent
	Health    EvidenceAgent
	Finance   EvidenceAgent
	Wikipedia EvidenceAgent
}

// NewAgentSet wires the default adapters from application config.
func NewAgentSet(cfg *Config, reasoner Reasoner) *AgentSet {
	return &AgentSet{
		News:      NewNewsAgent(cfg),
		FactCheck: NewFactCheckAgent(cfg),
		WebSearch: NewWebSearchAgent(cfg),
		Political: NewPoliticalAgent(cfg),
		Health:    NewHealthAgent(cfg),
		Finance:   NewFinanceAgent(cfg, reasoner),
		Wikipedia: NewWikipediaAgent(cfg),
	}
}

// Select applies the activation policy: news and fact-check always run;
// category adapters run when the classifier labeled the claim with their
// category OR the claim text matches a keyword trigger; callers may force
// category adapters; web search runs only when the caller enabled it.
// Wikipedia covers the remaining categories when no specialist fired.
func (s *AgentSet) Select(claim *Claim, classification *Classification, useWebSearch bool, forced []string) []EvidenceAgent {
	category := CategoryGeneral
	if classification != nil && classification.Category != "" {
		category = strings.TrimSpace(classification.Category)
	}
	textLower := strings.ToLower(claim.Text)

	selected := map[string]EvidenceAgent{
		AgentNews:      s.News,
		AgentFactCheck: s.FactCheck,
	}

	if useWebSearch && s.WebSearch != nil {
		selected[AgentWebSearch] = s.WebSearch
	}

	isPolitics := category == CategoryPolitics || containsAny(textLower, politicalTriggers)
	if isPolitics && s.Political != nil {
		selected[AgentPolitical] = s.Political
	}

	isFinance := category == CategoryFinance || containsAny(textLower, financeTriggers)
	if isFinance && s.Finance != nil {
		selected[AgentFinance] = s.Finance
	}

	isHealth := category == CategoryHealth || containsAny(textLower, healthTriggers)
	if isHealth && s.Health != nil {
		selected[AgentHealth] = s.Health
	}

	generalCategory := category == CategoryScience || category == CategoryEducation ||
		category == CategoryGeneral
	if generalCategory && !isPolitics && !isFinance && !isHealth && s.Wikipedia != nil {
		selected[AgentWikipedia] = s.Wikipedia
	}

	for _, name := range forced {
		if _, present := selected[name]; present {
			continue
		}
		switch name {
		case AgentWikipedia:
			if s.Wikipedia != nil {
				selected[AgentWikipedia] = s.Wikipedia
			}
		case AgentPolitical:
			if s.Political != nil {
				selected[AgentPolitical] = s.Political
			}
		case AgentHealth:
			if s.Health != nil {
				selected[AgentHealth] = s.Health
			}
		case AgentFinance:
			if s.Finance != nil {
				selected[AgentFinance] = s.Finance
			}
		default:
			Logger().Warning("Ignoring unknown forced agent %q", name)
		}
	}

	agents := make([]EvidenceAgent, 0, len(selected))
	for _, a := range selected {
		agents = append(agents, a)
	}
	return agents
}

func containsAny(text string, triggers []string) bool {
	for _, t := range triggers {
		if strings.Contains(text, t) {
			return true
		}
	}
	return false
}

// queryList falls back to the claim text when no variants were generated, so
// adapters always have at least one query to try.
func queryList(claim *Claim, queries []string) []string {
	var cleaned []string
	for _, q := range queries {
		if s := sanitizeQuery(q); s != "" {
			cleaned = append(cleaned, s)
		}
	}
	if len(cleaned) == 0 {
		cleaned = []string{sanitizeQuery(claim.Text)}
	}
	return cleaned
}
