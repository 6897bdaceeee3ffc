// cmd/veridex/constants.go
package main

import "time"

const VERSION = "1.2.0"

// Pipeline limits
const (
	MaxItemContentChars   = 6000
	MaxEvidenceChars      = 4500 // cap on evidence context per reasoning call
	MaxSynthesisChars     = 4000
	MaxSummaryInputChars  = 4000
	LongTextWordThreshold = 25
	MaxQueryVariants      = 5
	MaxScrapeURLs         = 10
	MaxEmbeddingExcerpts  = 5
	EmbeddingExcerptChars = 400
)

// Network defaults
const (
	DefaultTimeout       = 30 * time.Second
	ProviderTimeout      = 10 * time.Second
	ScrapeTimeout        = 20 * time.Second
	MaxConcurrentScrapes = 4
)

// Agent names, used for provenance and the fact-check bonus check.
const (
	AgentNews       = "news"
	AgentFactCheck  = "fact_check"
	AgentWebSearch  = "web_search"
	AgentPolitical  = "political"
	AgentHealth     = "health"
	AgentFinance    = "finance"
	AgentWikipedia  = "wikipedia"
	AgentScraper    = "url_scraper"
	AgentSummarizer = "longform_summarizer"
	AgentImageClaim = "image_claim"
)

// Claim categories the classifier may emit.
const (
	CategoryPolitics  = "Politics"
	CategoryHealth    = "Health"
	CategoryFinance   = "Finance"
	CategoryScience   = "Science"
	CategoryEducation = "Education"
	CategoryGeneral   = "General"
)

// Stage labels surfaced through the progress callback.
const (
	StageMedia      = "Analyzing media attachments"
	StageClassify   = "Classifying claim"
	StageCollect    = "Collecting evidence"
	StageScrape     = "Scraping supplemental URLs"
	StageEnrich     = "Enriching claim content"
	StageSynthesize = "Synthesizing evidence"
	StageJudge      = "Verifying claim"
	StageScore      = "Calculating final confidence"
	StageSentiment  = "Analyzing sentiment"
	StageEmotion    = "Analyzing emotions"
)

// Keyword trigger lists for category agent activation. A category agent runs
// when the classifier labels the claim with the category OR the claim text
// contains a trigger.
var (
	politicalTriggers = []string{
		"government", "minister", "president", "senate", "parliament", "law",
		"bill", "act", "election", "vote", "party", "congress", "bjp",
		"democrat", "republican", "modi", "biden", "trump", "putin", "opposition",
	}
	healthTriggers = []string{
		"cancer", "disease", "virus", "health", "doctor", "vaccine", "who",
		"cdc", "nutrition",
	}
	financeTriggers = []string{
		"stock", "market", "price", "tax", "budget", "economy", "crypto",
		"bitcoin", "rupee", "dollar", "bank",
	}
)

// Cryptocurrency aliases checked before asking the model for a ticker.
var cryptoTickers = map[string]string{
	"bitcoin":  "BTC-USD",
	"btc":      "BTC-USD",
	"ethereum": "ETH-USD",
	"eth":      "ETH-USD",
	"dogecoin": "DOGE-USD",
	"doge":     "DOGE-USD",
	"cardano":  "ADA-USD",
	"solana":   "SOL-USD",
	"sol":      "SOL-USD",
}

// Stop words filtered out of generated search queries.
var queryStopWords = map[string]struct{}{
	"loves": {}, "love": {}, "is": {}, "are": {}, "was": {}, "were": {},
	"has": {}, "have": {}, "had": {}, "will": {}, "would": {}, "should": {},
	"could": {}, "may": {}, "might": {}, "can": {}, "must": {}, "do": {},
	"does": {}, "did": {}, "the": {}, "a": {}, "an": {}, "and": {}, "or": {},
	"but": {}, "in": {}, "on": {}, "at": {}, "to": {}, "for": {}, "of": {},
	"with": {}, "by": {}, "from": {}, "about": {},
}

// Domain lists for the category-restricted search agents.
var (
	trustedHealthDomains = []string{
		"who.int", "cdc.gov", "nih.gov", "pubmed.ncbi.nlm.nih.gov",
		"medlineplus.gov", "mayoclinic.org", "clevelandclinic.org",
		"hopkinsmedicine.org", "webmd.com", "healthline.com",
		"thelancet.com", "nejm.org",
	}
	financeDomains = []string{
		"bloomberg.com", "wsj.com", "ft.com", "cnbc.com", "reuters.com",
		"economictimes.indiatimes.com", "moneycontrol.com", "livemint.com",
		"business-standard.com", "investopedia.com",
	}
	globalWireDomains = []string{
		"reuters.com", "bbc.com", "aljazeera.com", "apnews.com",
		"theguardian.com", "dw.com",
	}
	westernPoliticsDomains = []string{
		"politico.com", "france24.com", "thehill.com",
	}
	indiaPoliticsDomains = []string{
		"ndtv.com", "timesofindia.indiatimes.com", "thehindu.com",
		"indianexpress.com", "pib.gov.in", "newsonair.gov.in",
	}
	indiaContextKeywords = []string{
		"india", "modi", "bjp", "congress", "delhi", "mumbai", "gandhi",
		"amit shah", "lok sabha", "rajya sabha", "yogi", "aap", "kejriwal",
		"mamata", "kerala", "bengal", "punjab",
	}
)
