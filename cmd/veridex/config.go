// cmd/veridex/config.go
package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Config holds application configuration. Credentials for every evidence and
// reasoning provider live here; the pipeline itself stores no secrets.
type Config struct {
	Version string

	// Reasoning provider
	OpenAIAPIKey   string
	ChatModel      string
	VisionModel    string
	EmbeddingModel string

	// Evidence providers
	GNewsAPIKey       string
	GNewsBaseURL      string
	FactCheckAPIKey   string
	FactCheckBaseURL  string
	SerpAPIKey        string
	SerpAPIBaseURL    string
	TavilyAPIKey      string
	TavilyBaseURL     string
	QuoteAPIBaseURL   string
	WikipediaBaseURL  string
	NewsRSSBaseURL    string

	// Reasoning rate limiting and retries
	LLMRequestsPerMinute int
	LLMBurst             int
	LLMMaxRetries        int
	LLMTemperature       float64

	// Pipeline deadlines. EvidenceTimeout bounds the collection stages; on
	// expiry the run proceeds with whatever evidence has arrived. JobTimeout
	// bounds a whole server-side job.
	EvidenceTimeout time.Duration
	JobTimeout      time.Duration

	// Server
	ServerPort       int
	JobTTLHours      int
	SweepCron        string
	UserAgent        string
	WebSearchDefault bool
	AllowedWSOrigins []string

	// Logging
	LogPath  string
	LogLevel LogLevel

	// Scoring tunables, overridable via the tunables YAML file.
	Scoring ScoringConfig
}

// ScoringConfig carries the hand-tuned scoring constants. The defaults are
// design choices, not derived values, so they stay configurable.
type ScoringConfig struct {
	AuthorityWeight     float64            `yaml:"authority_weight"`
	SimilarityWeight    float64            `yaml:"similarity_weight"`
	CorroborationWeight float64            `yaml:"corroboration_weight"`
	FactCheckBonus      float64            `yaml:"fact_check_bonus"`
	MaxConfidence       float64            `yaml:"max_confidence"`
	DefaultAuthority    float64            `yaml:"default_authority"`
	FailureAuthority    float64            `yaml:"failure_authority"`
	DefaultSimilarity   float64            `yaml:"default_similarity"`
	DomainAuthority     map[string]float64 `yaml:"domain_authority"`
}

// DefaultScoringConfig returns the shipped scoring constants.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		AuthorityWeight:     0.4,
		SimilarityWeight:    0.3,
		CorroborationWeight: 0.3,
		FactCheckBonus:      0.15,
		MaxConfidence:       0.99,
		DefaultAuthority:    0.5,
		FailureAuthority:    0.4,
		DefaultSimilarity:   0.5,
		DomainAuthority:     defaultDomainAuthority(),
	}
}

func defaultDomainAuthority() map[string]float64 {
	return map[string]float64{
		// Tier 1: Official / Gov
		"who.int": 1.0, "cdc.gov": 1.0, "nih.gov": 1.0, "un.org": 1.0,
		"pib.gov.in": 1.0, "whitehouse.gov": 1.0, "nasa.gov": 1.0,
		"rbi.org.in": 1.0, "sec.gov": 1.0,

		// Tier 2: Fact checkers and wire services
		"reuters.com": 0.95, "apnews.com": 0.95, "afp.com": 0.95,
		"ptinews.com": 0.95, "bloomberg.com": 0.9, "snopes.com": 0.9,
		"politifact.com": 0.9, "altnews.in": 0.9, "boomlive.in": 0.9,
		"factcheck.org": 0.9,

		// Tier 3: High quality news
		"bbc.com": 0.85, "nytimes.com": 0.85, "washingtonpost.com": 0.85,
		"thehindu.com": 0.85, "indianexpress.com": 0.85, "wsj.com": 0.85,
		"ft.com": 0.85, "ndtv.com": 0.8, "timesofindia.indiatimes.com": 0.8,
		"economictimes.indiatimes.com": 0.8, "cnbc.com": 0.8, "livemint.com": 0.8,

		// Tier 4: Encyclopedias
		"wikipedia.org": 0.75,
	}
}

// LoadConfig builds the configuration from environment variables and an
// optional tunables YAML file.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Version: VERSION,

		OpenAIAPIKey:   GetEnvString("OPENAI_API_KEY", ""),
		ChatModel:      GetEnvString("VERIDEX_CHAT_MODEL", "gpt-4o-mini"),
		VisionModel:    GetEnvString("VERIDEX_VISION_MODEL", "gpt-4o-mini"),
		EmbeddingModel: GetEnvString("VERIDEX_EMBEDDING_MODEL", "text-embedding-3-small"),

		GNewsAPIKey:      GetEnvString("GNEWS_API_KEY", ""),
		GNewsBaseURL:     GetEnvString("GNEWS_API_BASE_URL", "https://gnews.io/api/v4"),
		FactCheckAPIKey:  GetEnvString("GOOGLE_FACT_CHECK_API_KEY", ""),
		FactCheckBaseURL: GetEnvString("FACT_CHECK_BASE_URL", "https://factchecktools.googleapis.com/v1alpha1"),
		SerpAPIKey:       GetEnvString("SERPAPI_API_KEY", ""),
		SerpAPIBaseURL:   GetEnvString("SERPAPI_BASE_URL", "https://serpapi.com/search.json"),
		TavilyAPIKey:     GetEnvString("TAVILY_API_KEY", ""),
		TavilyBaseURL:    GetEnvString("TAVILY_BASE_URL", "https://api.tavily.com"),
		QuoteAPIBaseURL:  GetEnvString("QUOTE_API_BASE_URL", "https://query1.finance.yahoo.com"),
		WikipediaBaseURL: GetEnvString("WIKIPEDIA_BASE_URL", "https://en.wikipedia.org"),
		NewsRSSBaseURL:   GetEnvString("NEWS_RSS_BASE_URL", "https://news.google.com/rss"),

		LLMRequestsPerMinute: GetEnvInt("LLM_REQUESTS_PER_MINUTE", 30),
		LLMBurst:             GetEnvInt("LLM_BURST", 5),
		LLMMaxRetries:        GetEnvInt("LLM_MAX_RETRIES", 3),
		LLMTemperature:       GetEnvFloat("LLM_TEMPERATURE", 0.2),

		EvidenceTimeout: time.Duration(GetEnvInt("EVIDENCE_TIMEOUT_SECONDS", 120)) * time.Second,
		JobTimeout:      time.Duration(GetEnvInt("JOB_TIMEOUT_MINUTES", 10)) * time.Minute,

		ServerPort:       GetEnvInt("VERIDEX_PORT", 8080),
		JobTTLHours:      GetEnvInt("JOB_TTL_HOURS", 24),
		SweepCron:        GetEnvString("SWEEP_CRON", "*/30 * * * *"),
		UserAgent:        GetEnvString("USER_AGENT", "Veridex/"+VERSION),
		WebSearchDefault: GetEnvBool("WEB_SEARCH_DEFAULT", true),
		AllowedWSOrigins: GetEnvStringSlice("ALLOWED_WS_ORIGINS", nil),

		LogPath:  GetEnvString("LOG_PATH", "data/logs/veridex.log"),
		LogLevel: ParseLogLevel(GetEnvString("LOG_LEVEL", "info")),

		Scoring: DefaultScoringConfig(),
	}

	if path := GetEnvString("TUNABLES_FILE", ""); path != "" {
		if err := cfg.loadTunables(path); err != nil {
			return nil, NewConfigError(ErrConfigLoad, "failed to load tunables file", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadTunables overlays scoring constants from a YAML file. Only fields
// present in the file replace the defaults.
func (c *Config) loadTunables(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var overlay ScoringConfig
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return err
	}

	if overlay.AuthorityWeight > 0 {
		c.Scoring.AuthorityWeight = overlay.AuthorityWeight
	}
	if overlay.SimilarityWeight > 0 {
		c.Scoring.SimilarityWeight = overlay.SimilarityWeight
	}
	if overlay.CorroborationWeight > 0 {
		c.Scoring.CorroborationWeight = overlay.CorroborationWeight
	}
	if overlay.FactCheckBonus > 0 {
		c.Scoring.FactCheckBonus = overlay.FactCheckBonus
	}
	if overlay.MaxConfidence > 0 {
		c.Scoring.MaxConfidence = overlay.MaxConfidence
	}
	if overlay.DefaultAuthority > 0 {
		c.Scoring.DefaultAuthority = overlay.DefaultAuthority
	}
	if overlay.FailureAuthority > 0 {
		c.Scoring.FailureAuthority = overlay.FailureAuthority
	}
	if overlay.DefaultSimilarity > 0 {
		c.Scoring.DefaultSimilarity = overlay.DefaultSimilarity
	}
	for domain, score := range overlay.DomainAuthority {
		c.Scoring.DomainAuthority[domain] = score
	}
	return nil
}

// Validate checks required settings.
func (c *Config) Validate() error {
	if c.OpenAIAPIKey == "" {
		return NewConfigError(ErrConfigValidation, "OPENAI_API_KEY is required", nil)
	}
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		return NewConfigError(ErrConfigValidation,
			fmt.Sprintf("invalid server port %d", c.ServerPort), nil)
	}
	total := c.Scoring.AuthorityWeight + c.Scoring.SimilarityWeight + c.Scoring.CorroborationWeight
	if total <= 0 {
		return NewConfigError(ErrConfigValidation, "scoring weights must be positive", nil)
	}
	return nil
}
