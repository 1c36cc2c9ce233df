package engine

import (
	"net/http"
	"time"

	twitter "github.com/anatolykoptev/go-twitter"
)

// Config holds all engine configuration, injected from main.
type Config struct {
	SearxngURL           string
	TavilyAPIKey         string
	TavilyBaseURL        string
	LLMProvider          string // openai (default), gemini, anthropic
	LLMAPIKey            string
	LLMAPIKeyFallbacks   []string
	LLMAPIBase           string
	LLMModel             string
	LLMTemperature       float64
	LLMMaxTokens         int
	GeminiAPIKey         string
	AnthropicAPIKey      string
	MaxFetchURLs         int
	MaxContentChars      int
	FetchTimeout         time.Duration
	CacheMaxEntries      int
	CacheCleanupInterval time.Duration
	Parallel             ParallelOpts
	RendererURL          string // base URL of the landing/pitch renderer service
	PexelsAPIKey         string
	PexelsBaseURL        string
	HTTPClient           *http.Client
	LLMClient            Completer       // nil = LLM tools fail fast
	BrowserClient        *BrowserClient  // nil = direct scrapers disabled
	DirectDDG            bool            // enable DuckDuckGo direct scraper
	TwitterClient        *twitter.Client // nil = social signals disabled
}

var cfg Config

// Cfg exposes the engine configuration for sub-packages (market).
// Always points to the current cfg value.
var Cfg = &cfg

// Init initializes the engine with the given configuration.
func Init(c Config) {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	if c.TavilyBaseURL == "" {
		c.TavilyBaseURL = "https://api.tavily.com"
	}
	if c.PexelsBaseURL == "" {
		c.PexelsBaseURL = "https://api.pexels.com"
	}
	if c.MaxContentChars == 0 {
		c.MaxContentChars = 6000
	}
	if c.MaxFetchURLs == 0 {
		c.MaxFetchURLs = 8
	}
	if c.FetchTimeout == 0 {
		c.FetchTimeout = 10 * time.Second
	}
	c.Parallel = c.Parallel.withDefaults()
	cfg = c
	Cfg = &cfg
}
