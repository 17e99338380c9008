package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/bkyoung/review-bot/internal/adapter/analyzer/httpapi"
	"github.com/bkyoung/review-bot/internal/adapter/analyzer/static"
	"github.com/bkyoung/review-bot/internal/adapter/cli"
	githubadapter "github.com/bkyoung/review-bot/internal/adapter/github"
	"github.com/bkyoung/review-bot/internal/adapter/httpx"
	"github.com/bkyoung/review-bot/internal/adapter/observability"
	"github.com/bkyoung/review-bot/internal/adapter/store/sqlite"
	"github.com/bkyoung/review-bot/internal/adapter/web"
	"github.com/bkyoung/review-bot/internal/config"
	"github.com/bkyoung/review-bot/internal/usecase/review"
	"github.com/bkyoung/review-bot/internal/version"
)

// drainTimeout bounds how long shutdown waits for in-flight reviews.
const drainTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}

func run() error {
	// Create cancellable context with signal handling for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(config.LoaderOptions{
		ConfigPaths: defaultConfigPaths(),
		FileName:    "reviewbot",
		EnvPrefix:   "REVIEWBOT",
	})
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	logger, err := observability.NewLogger(cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)
	if err != nil {
		return fmt.Errorf("logger setup failed: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	host, err := buildHostingClient(cfg.GitHub)
	if err != nil {
		return err
	}

	analyzer, err := buildAnalyzer(cfg, logger)
	if err != nil {
		return err
	}

	// Initialize store if enabled
	var reviewStore review.Store
	if cfg.Store.Enabled {
		storeDir := filepath.Dir(cfg.Store.Path)
		if err := os.MkdirAll(storeDir, 0755); err != nil {
			logger.Warn("failed to create store directory", zap.Error(err))
		} else {
			sqliteStore, err := sqlite.NewStore(cfg.Store.Path)
			if err != nil {
				logger.Warn("failed to initialize store", zap.Error(err))
			} else {
				reviewStore = sqliteStore
				defer reviewStore.Close()
			}
		}
	}

	pipeline, err := review.NewPipeline(review.PipelineDeps{
		Host:               host,
		Analyzer:           analyzer,
		Selector:           review.NewFileSelector(cfg.Review.IncludePatterns),
		Logger:             observability.NewReviewLogger(logger),
		Store:              reviewStore,
		Repository:         cfg.GitHub.Owner + "/" + cfg.GitHub.Repo,
		MaxConcurrentFiles: cfg.Review.MaxConcurrentFiles,
	})
	if err != nil {
		return fmt.Errorf("pipeline setup failed: %w", err)
	}

	handler := web.NewHandler(pipeline, logger, cfg.Server.WebhookSecret)

	root := cli.NewRootCommand(cli.Dependencies{
		Server:      &webhookServer{handler: handler, logger: logger},
		DefaultPort: cfg.Server.Port,
		Version:     version.Value(),
	})

	if err := root.ExecuteContext(ctx); err != nil {
		if errors.Is(err, cli.ErrVersionRequested) {
			return nil
		}
		return fmt.Errorf("command failed: %w", err)
	}
	return nil
}

// webhookServer runs the HTTP listener until the context is cancelled,
// then drains in-flight reviews before returning.
type webhookServer struct {
	handler *web.Handler
	logger  *zap.Logger
}

func (s *webhookServer) Serve(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.handler.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening for webhook deliveries", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down", zap.Duration("drainTimeout", drainTimeout))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("http server shutdown failed", zap.Error(err))
	}
	if err := s.handler.Drain(shutdownCtx); err != nil {
		s.logger.Warn("in-flight reviews did not finish before timeout", zap.Error(err))
	}
	return nil
}

// buildHostingClient selects App auth when fully configured, otherwise
// token auth with GITHUB_TOKEN as fallback.
func buildHostingClient(cfg config.GitHubConfig) (review.HostingClient, error) {
	if cfg.Owner == "" || cfg.Repo == "" {
		return nil, fmt.Errorf("github.owner and github.repo are required")
	}

	if cfg.App.Configured() {
		client, err := githubadapter.NewAppClient(cfg.App.ID, cfg.App.InstallationID, cfg.App.PrivateKeyPath, cfg.BaseURL, cfg.Owner, cfg.Repo)
		if err != nil {
			return nil, fmt.Errorf("github app auth failed: %w", err)
		}
		return client, nil
	}

	token := cfg.Token
	if token == "" {
		token = os.Getenv("GITHUB_TOKEN")
	}
	if token == "" {
		return nil, fmt.Errorf("no GitHub credentials: set github.token, GITHUB_TOKEN, or configure github.app")
	}

	return githubadapter.NewClient(token, cfg.BaseURL, cfg.Owner, cfg.Repo)
}

// buildAnalyzer assembles the configured analyzers. Several enabled
// analyzers are combined; their findings concatenate per file.
func buildAnalyzer(cfg config.Config, logger *zap.Logger) (review.Analyzer, error) {
	// Deterministic wiring order regardless of map iteration.
	names := make([]string, 0, len(cfg.Analyzers))
	for name := range cfg.Analyzers {
		names = append(names, name)
	}
	sort.Strings(names)

	var analyzers []review.Analyzer
	for _, name := range names {
		ac := cfg.Analyzers[name]
		if !ac.Enabled {
			continue
		}

		switch ac.Kind {
		case "static", "":
			analyzers = append(analyzers, static.NewAnalyzer())
			logger.Info("analyzer enabled", zap.String("name", name), zap.String("kind", "static"))
		case "http":
			if ac.URL == "" {
				return nil, fmt.Errorf("analyzer %q: url is required for kind http", name)
			}
			analyzers = append(analyzers, buildHTTPAnalyzer(name, ac, cfg.HTTP))
			logger.Info("analyzer enabled", zap.String("name", name), zap.String("kind", "http"), zap.String("url", ac.URL))
		default:
			return nil, fmt.Errorf("analyzer %q: unknown kind %q", name, ac.Kind)
		}
	}

	if len(analyzers) == 0 {
		return nil, fmt.Errorf("no analyzers enabled")
	}
	if len(analyzers) == 1 {
		return analyzers[0], nil
	}
	return review.NewMultiAnalyzer(analyzers...), nil
}

// buildHTTPAnalyzer applies global HTTP settings with per-analyzer
// overrides.
func buildHTTPAnalyzer(name string, ac config.AnalyzerConfig, httpCfg config.HTTPConfig) review.Analyzer {
	retry := httpx.DefaultRetryConfig()
	if httpCfg.MaxRetries > 0 {
		retry.MaxRetries = httpCfg.MaxRetries
	}
	if d, err := time.ParseDuration(httpCfg.InitialBackoff); err == nil && d > 0 {
		retry.InitialBackoff = d
	}
	if d, err := time.ParseDuration(httpCfg.MaxBackoff); err == nil && d > 0 {
		retry.MaxBackoff = d
	}
	if httpCfg.BackoffMultiplier > 0 {
		retry.Multiplier = httpCfg.BackoffMultiplier
	}
	if ac.MaxRetries != nil {
		retry.MaxRetries = *ac.MaxRetries
	}

	timeout := 30 * time.Second
	if d, err := time.ParseDuration(httpCfg.Timeout); err == nil && d > 0 {
		timeout = d
	}
	if ac.Timeout != nil {
		if d, err := time.ParseDuration(*ac.Timeout); err == nil && d > 0 {
			timeout = d
		}
	}

	return httpapi.NewClient(name, ac.URL, ac.Token,
		httpapi.WithTimeout(timeout),
		httpapi.WithRetryConfig(retry),
	)
}

func defaultConfigPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "reviewbot"))
	}
	return paths
}
