// go_market — Market Discovery MCP server.
//
// Exposes liminal discovery, market research, opportunity scoring, brand,
// landing page and pitch tools. Landing pages and pitches are published
// through the renderer service (cmd/renderer).
// Runs as HTTP MCP server or stdio transport.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	"github.com/anatolykoptev/go-mcpserver"
	twitter "github.com/anatolykoptev/go-twitter"
	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_market/internal/engine"
	"github.com/anatolykoptev/go_market/internal/engine/market"
	"github.com/anatolykoptev/go_market/internal/marketserver"
)

var version = "dev"

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file", slog.Any("error", err))
	}
	mcpPort := env.Str("MCP_PORT", "8893")

	initEngine()

	slog.Info("starting go_market",
		slog.String("port", mcpPort),
	)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "go_market",
		Version: version,
	}, nil)

	marketserver.RegisterTools(server)
	slog.Info("tools registered", slog.Int("count", marketserver.ToolCount))

	if err := mcpserver.Run(server, mcpserver.Config{
		Name:         "go_market",
		Version:      version,
		Port:         mcpPort,
		WriteTimeout: 600 * time.Second,
		Metrics:      engine.FormatMetrics,
	}); err != nil {
		slog.Error("server failed", slog.Any("error", err))
	}
}

func initEngine() {
	ctx := context.Background()
	directDDG, _ := strconv.ParseBool(env.Str("DIRECT_DDG", "false"))

	c := engine.Config{
		SearxngURL:           env.Str("SEARXNG_URL", "http://127.0.0.1:8888"),
		TavilyAPIKey:         env.Str("TAVILY_API_KEY", ""),
		LLMProvider:          env.Str("LLM_PROVIDER", "openai"),
		LLMAPIKey:            env.Str("LLM_API_KEY", ""),
		LLMAPIKeyFallbacks:   env.List("LLM_API_KEY_FALLBACKS", ""),
		LLMAPIBase:           env.Str("LLM_API_BASE", "https://generativelanguage.googleapis.com/v1beta/openai"),
		LLMModel:             env.Str("LLM_MODEL", "gemini-2.5-flash"),
		LLMTemperature:       env.Float("LLM_TEMPERATURE", 0.3),
		LLMMaxTokens:         env.Int("LLM_MAX_TOKENS", 4096),
		GeminiAPIKey:         env.Str("GEMINI_API_KEY", ""),
		AnthropicAPIKey:      env.Str("ANTHROPIC_API_KEY", ""),
		MaxFetchURLs:         env.Int("MAX_FETCH_URLS", 8),
		MaxContentChars:      env.Int("MAX_CONTENT_CHARS", 6000),
		FetchTimeout:         env.Duration("FETCH_TIMEOUT", 10*time.Second),
		CacheMaxEntries:      env.Int("CACHE_MAX_ENTRIES", 1000),
		CacheCleanupInterval: env.Duration("CACHE_CLEANUP_INTERVAL", 300*time.Second),
		Parallel: engine.ParallelOpts{
			Workers:        env.Int("PARALLEL_WORKERS", 8),
			RequestDelay:   env.Duration("PARALLEL_REQUEST_DELAY", 500*time.Millisecond),
			TaskTimeout:    env.Duration("PARALLEL_TASK_TIMEOUT", 15*time.Second),
			CollectTimeout: env.Duration("PARALLEL_COLLECT_TIMEOUT", 30*time.Second),
		},
		RendererURL:  env.Str("RENDERER_URL", "http://127.0.0.1:8080"),
		PexelsAPIKey: env.Str("PEXELS_API_KEY", ""),
		DirectDDG:    directDDG,
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     60 * time.Second,
			},
		},
	}

	bc, err := engine.NewBrowserClient(env.Str("WEBSHARE_API_KEY", ""))
	if err != nil {
		slog.Error("stealth client init failed", slog.Any("error", err))
	} else {
		c.BrowserClient = bc
		slog.Info("stealth browser client initialized")
	}

	// Twitter client (optional, guest mode if no accounts configured)
	accounts := twitter.ParseAccounts(env.Str("TWITTER_ACCOUNTS", ""))
	openCount := 2
	if len(accounts) > 0 {
		openCount = 0
	}
	tw, err := twitter.NewClient(twitter.ClientConfig{
		Accounts:         accounts,
		OpenAccountCount: openCount,
	})
	if err != nil {
		slog.Warn("twitter client init failed", slog.Any("error", err))
	} else {
		c.TwitterClient = tw
		slog.Info("twitter client ready", slog.Int("pool_size", tw.Pool().Size()))
	}

	llmClient, err := engine.NewCompleter(ctx, c)
	if err != nil {
		slog.Warn("llm client init failed, LLM tools disabled", slog.String("provider", c.LLMProvider), slog.Any("error", err))
	} else {
		c.LLMClient = llmClient
	}

	engine.Init(c)

	// Intelligence DB (PostgreSQL)
	if dbURL := env.Str("DATABASE_URL", ""); dbURL != "" {
		db, err := market.ConnectIntelDB(ctx, dbURL)
		if err != nil {
			slog.Warn("intel DB init failed", slog.Any("error", err))
		} else {
			market.SetIntelDB(db)
			slog.Info("intel DB initialized")
		}
	}

	cacheTTL := env.Duration("CACHE_TTL", 15*time.Minute)
	engine.InitCache(env.Str("REDIS_URL", ""), cacheTTL, c.CacheMaxEntries, c.CacheCleanupInterval)
}
