package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/goforj/usersearch/cache"
	"github.com/goforj/usersearch/config"
	"github.com/goforj/usersearch/directory"
	"github.com/goforj/usersearch/page"
	"github.com/goforj/usersearch/query"
	"github.com/goforj/usersearch/telemetry"
)

// flags override selected environment settings.
type flags struct {
	envFile     string
	apiURL      string
	cacheDriver string
}

func newRootCmd() *cobra.Command {
	f := &flags{}
	root := &cobra.Command{
		Use:           "usersearch",
		Short:         "Search a user directory by name",
		Long:          "Debounced, URL-synchronized user search over a remote directory API, served as a web page or run in the terminal.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&f.envFile, "env-file", config.DefaultEnvFile, "Optional dotenv file loaded before the environment")
	root.PersistentFlags().StringVar(&f.apiURL, "api-url", "", "Directory endpoint (overrides USERSEARCH_API_URL)")
	root.PersistentFlags().StringVar(&f.cacheDriver, "cache-driver", "", "Cache driver: memory, file, redis, nats, sql, dynamodb or null")

	root.AddCommand(newServeCmd(f), newInteractiveCmd(f))
	return root
}

// loadConfig reads the environment and applies flag overrides.
func (f *flags) loadConfig() (config.Config, error) {
	cfg, err := config.Load(f.envFile)
	if err != nil {
		return config.Config{}, err
	}
	if f.apiURL != "" {
		cfg.APIURL = f.apiURL
	}
	if f.cacheDriver != "" {
		cfg.CacheDriver = f.cacheDriver
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// app holds the long-lived collaborators shared by every subcommand.
type app struct {
	cfg   config.Config
	cache *cache.Cache
	users *page.UserClient

	closers []func(context.Context) error
}

func newApp(ctx context.Context, cfg config.Config, logger *log.Logger) (*app, error) {
	shutdownTracing, err := telemetry.Setup(ctx, cfg.OTLPEndpoint)
	if err != nil {
		return nil, fmt.Errorf("setup tracing: %w", err)
	}
	a := &app{cfg: cfg, closers: []func(context.Context) error{shutdownTracing}}

	c, closeCache, err := cfg.OpenCache(ctx)
	if err != nil {
		_ = a.close(ctx)
		return nil, fmt.Errorf("open cache: %w", err)
	}
	a.closers = append(a.closers, func(context.Context) error { return closeCache() })

	obs := telemetry.NewObserver(nil, logger)
	a.cache = c.WithObserver(obs)
	dir := directory.NewClient(cfg.APIURL,
		directory.WithHTTPClient(telemetry.HTTPClient()),
		directory.WithObserver(obs),
	)
	a.users = page.NewUserClient(a.cache, dir,
		query.WithStaleTime(cfg.StaleTime),
		query.WithObserver(obs),
	)
	logger.Printf("cache driver %s, stale time %s", a.cache.Driver(), cfg.StaleTime)
	return a, nil
}

// close releases resources in reverse order of acquisition.
func (a *app) close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i](context.WithoutCancel(ctx)))
	}
	return errors.Join(errs...)
}
