// Command intra-fetch collects a complete paginated resource from the
// intra API and writes the merged JSON array to stdout or a file.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/ft-tools/intra-client/internal/config"
	"github.com/ft-tools/intra-client/pkg/auth"
	"github.com/ft-tools/intra-client/pkg/cache"
	"github.com/ft-tools/intra-client/pkg/client"
	"github.com/ft-tools/intra-client/pkg/logging"
	"github.com/ft-tools/intra-client/pkg/pagination"
	"github.com/ft-tools/intra-client/pkg/ratelimit"
)

var cli struct {
	Resource  string `arg:"" help:"Resource path to collect, filters included (e.g. \"cursus_users?filter[campus_id]=31\")."`
	Output    string `short:"o" placeholder:"FILE" help:"Write the merged JSON array to FILE instead of stdout."`
	RateLimit int    `help:"Override RATE_LIMIT (max requests per second)."`
	PerPage   int    `help:"Override PER_PAGE (page size)."`
	NoCache   bool   `help:"Disable the Redis page cache even when REDIS_URL is set."`
	Pretty    bool   `help:"Human-readable console logs instead of JSON."`
}

func main() {
	kctx := kong.Parse(&cli,
		kong.Name("intra-fetch"),
		kong.Description("Fetch all pages of a paginated intra API resource, rate limited."),
	)
	kctx.FatalIfErrorf(run())
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cli.RateLimit > 0 {
		cfg.RateLimit = cli.RateLimit
	}
	if cli.PerPage > 0 {
		cfg.PerPage = cli.PerPage
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.LogLevel),
		Pretty: cli.Pretty,
		Output: os.Stderr,
	})

	ctx := context.Background()

	tokens := auth.NewTokenSource(cfg.TokenURL, auth.Credentials{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Scope:        cfg.Scope,
	})
	token, err := tokens.Token(ctx)
	if err != nil {
		return err
	}

	var cacheManager *cache.Manager
	if cfg.RedisURL != "" && !cli.NoCache {
		manager, closeCache := setupCache(ctx, logger, cfg.RedisURL)
		defer closeCache()
		cacheManager = manager
	}

	gate, err := ratelimit.New(cfg.RateLimit, ratelimit.DefaultWindow, nil)
	if err != nil {
		return err
	}

	apiClient, err := client.New(client.Config{
		BaseURL:   cfg.Endpoint,
		Token:     token,
		UserAgent: "intra-fetch/0.1.0",
		PageSize:  cfg.PerPage,
		Gate:      gate,
		Cache:     cacheManager,
	})
	if err != nil {
		return err
	}

	collector := pagination.NewCollector(apiClient)
	pages, err := collector.Collect(ctx, cli.Resource)
	if err != nil {
		return err
	}

	merged, err := mergePages(pages)
	if err != nil {
		return err
	}

	logger.Info().
		Str("resource", cli.Resource).
		Int("pages", len(pages)).
		Msg("Collection fetched")

	return writeOutput(cli.Output, merged)
}

// setupCache connects the Redis page cache. A dead Redis is not fatal:
// the cache is an optimization, so the run continues without it. The
// returned cleanup is always safe to call.
func setupCache(ctx context.Context, logger zerolog.Logger, redisURL string) (*cache.Manager, func()) {
	redisClient := redis.NewClient(&redis.Options{Addr: redisURL})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn().Err(err).Str("redis_url", redisURL).Msg("Redis unavailable, running without cache")
		redisClient.Close()
		return nil, func() {}
	}
	return cache.NewManager(redisClient), func() { redisClient.Close() }
}

// mergePages flattens the per-page JSON arrays into one array,
// preserving page order.
func mergePages(pages [][]byte) ([]byte, error) {
	items := []json.RawMessage{}
	for i, page := range pages {
		var pageItems []json.RawMessage
		if err := json.Unmarshal(page, &pageItems); err != nil {
			return nil, fmt.Errorf("parse page %d: %w", i+1, err)
		}
		items = append(items, pageItems...)
	}
	return json.MarshalIndent(items, "", "  ")
}

func writeOutput(path string, data []byte) error {
	if path == "" {
		_, err := fmt.Println(string(data))
		return err
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
