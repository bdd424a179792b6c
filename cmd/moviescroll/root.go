package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"moviescroll/internal/config"
	"moviescroll/internal/domain"
	"moviescroll/internal/eventbus"
	"moviescroll/internal/logging"
	"moviescroll/internal/provider/cache"
	"moviescroll/internal/provider/tmdb"
	"moviescroll/internal/stream"
	"moviescroll/internal/ui"
)

// e2eEnv makes the binary print a marker once the program is about to start
const e2eEnv = "MOVIESCROLL_E2E_TEST"

type options struct {
	lang       string
	configPath string
	apiKey     string
	logFile    string
	debug      bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "moviescroll [query]",
		Short: "Search TMDB movies in the terminal with endless scrolling",
		Long: `moviescroll - search TMDB movies in the terminal
  - results load page by page as you scroll
  - switch the result language without losing your query`,
		Args:         cobra.ArbitraryArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts, strings.Join(args, " "))
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.lang, "lang", "l", "", "result language, e.g. en-US, ru, de-DE")
	flags.StringVarP(&opts.configPath, "config", "c", "", "config file (default "+config.DefaultPath()+")")
	flags.StringVar(&opts.apiKey, "api-key", "", "TMDB API key (overrides "+config.APIKeyEnv+" and the config file)")
	flags.StringVar(&opts.logFile, "log-file", "", "log file (default "+logging.DefaultPath()+")")
	flags.BoolVar(&opts.debug, "debug", false, "enable debug logging")
	return cmd
}

func run(parent context.Context, opts *options, query string) error {
	if parent == nil {
		parent = context.Background()
	}

	configSvc := config.NewConfigService()
	if opts.configPath != "" {
		configSvc = config.NewConfigServiceAt(opts.configPath)
	}
	cfg, err := configSvc.Load()
	if err != nil {
		return fmt.Errorf("load config %s: %w", configSvc.Path(), err)
	}
	cfg.ApplyEnv()
	if opts.apiKey != "" {
		cfg.TMDB.APIKey = opts.apiKey
	}

	lang := cfg.LanguageOrDefault()
	if opts.lang != "" {
		parsed, ok := domain.ParseLanguage(opts.lang)
		if !ok {
			return fmt.Errorf("unsupported language %q", opts.lang)
		}
		lang = parsed
	}

	logPath := opts.logFile
	if logPath == "" {
		logPath = cfg.Log.File
	}
	if logPath == "" {
		logPath = logging.DefaultPath()
	}
	logger, err := logging.New(logPath, opts.debug || cfg.Log.Debug)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	client := tmdb.NewClient(tmdb.Config{
		APIKey:            cfg.TMDB.APIKey,
		BaseURL:           cfg.TMDB.BaseURL,
		Client:            &http.Client{Timeout: cfg.TMDB.Timeout.Duration},
		RequestsPerSecond: cfg.TMDB.RequestsPerSecond,
		Retry:             retryConfig(cfg.TMDB.MaxRetries),
		Logger:            logger,
	})
	if !client.Enabled() {
		return fmt.Errorf("no TMDB API key: set %s, pass --api-key or add tmdb.api_key to %s", config.APIKeyEnv, configSvc.Path())
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	bus := eventbus.New(logger)
	defer bus.Close()

	saver := &languageSaver{svc: configSvc, saved: lang.Code(), logger: logger}
	subscribeLogging(bus, logger)
	bus.Subscribe(eventbus.EventLanguageChanged, func(e eventbus.DomainEvent) {
		if event, ok := e.(eventbus.LanguageChangedEvent); ok {
			saver.Save(event.To)
		}
	})

	fetcher, closeCache := buildFetcher(ctx, cfg.Cache, client, logger)
	defer closeCache()

	model := ui.NewModel(ui.Options{
		Context:      ctx,
		Fetcher:      fetcher,
		Details:      client,
		Bus:          bus,
		Logger:       logger,
		Language:     lang,
		InitialQuery: query,
		FetchTimeout: cfg.TMDB.Timeout.Duration,
		Settings:     cfg.UI,
		Pager:        ui.NewPagerOps(),
	})

	programOpts := []tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}
	if cfg.UI.Mouse {
		programOpts = append(programOpts, tea.WithMouseCellMotion())
	}
	p := tea.NewProgram(model, programOpts...)
	model.SetProgram(p)

	logger.Info("starting",
		zap.String("query", query),
		zap.String("language", lang.Code()),
		zap.String("cache", cfg.Cache.Backend))
	if os.Getenv(e2eEnv) == "1" {
		fmt.Println("__READY__")
	}

	_, err = p.Run()
	model.Close()
	saver.Final(model.Language())

	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func retryConfig(maxRetries int) tmdb.RetryConfig {
	retry := tmdb.DefaultRetryConfig()
	if maxRetries > 0 {
		retry.MaxAttempts = maxRetries
	}
	return retry
}

// buildFetcher wraps the TMDB client in the configured page cache
func buildFetcher(ctx context.Context, cfg config.CacheConfig, client *tmdb.Client, logger *zap.Logger) (stream.Fetcher, func()) {
	noop := func() {}
	switch cfg.Backend {
	case "none":
		return client, noop
	case "redis":
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
		if err := cache.Ping(ctx, rdb); err != nil {
			logger.Warn("redis unavailable, using memory cache", zap.String("addr", cfg.RedisAddr), zap.Error(err))
			_ = rdb.Close()
			return cache.NewMemory(client, cfg.TTL.Duration, logger), noop
		}
		return cache.NewRedis(client, rdb, cfg.TTL.Duration, logger), func() { _ = rdb.Close() }
	default:
		return cache.NewMemory(client, cfg.TTL.Duration, logger), noop
	}
}

// languageSaver writes the chosen language back to the config file. It
// rereads the file so keys taken from the environment or flags stay out of it.
// Once Final has run, later saves from queued events are ignored.
type languageSaver struct {
	mu     sync.Mutex
	svc    config.ConfigService
	saved  string
	final  bool
	logger *zap.Logger
}

func (s *languageSaver) Save(lang domain.Language) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.final {
		return
	}
	s.save(lang)
}

// Final saves the language the program exited with and stops further saves
func (s *languageSaver) Final(lang domain.Language) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.final = true
	s.save(lang)
}

func (s *languageSaver) save(lang domain.Language) {
	code := lang.Code()
	if code == s.saved {
		return
	}
	cfg, err := s.svc.Load()
	if err != nil {
		s.logger.Warn("failed to reload config", zap.String("path", s.svc.Path()), zap.Error(err))
		return
	}
	s.saved = code
	if cfg.Language == code {
		return
	}
	cfg.Language = code
	if err := s.svc.Save(cfg); err != nil {
		s.logger.Warn("failed to save config", zap.String("path", s.svc.Path()), zap.Error(err))
		return
	}
	s.logger.Info("config saved", zap.String("path", s.svc.Path()), zap.String("language", code))
}

// subscribeLogging records stream events in the log
func subscribeLogging(bus eventbus.EventBus, logger *zap.Logger) {
	log := logger.Named("events")

	bus.Subscribe(eventbus.EventPageFailed, func(e eventbus.DomainEvent) {
		if event, ok := e.(eventbus.PageFailedEvent); ok {
			log.Warn("page failed",
				zap.String("query", event.Request.Query.Text),
				zap.Int("page", event.Request.Page),
				zap.Error(event.Err))
		}
	})
	bus.Subscribe(eventbus.EventStreamExhausted, func(e eventbus.DomainEvent) {
		if event, ok := e.(eventbus.StreamExhaustedEvent); ok {
			log.Info("stream exhausted",
				zap.String("query", event.Request.Query.Text),
				zap.Int("page", event.Request.Page))
		}
	})
	bus.Subscribe(eventbus.EventStaleResponseDropped, func(e eventbus.DomainEvent) {
		if event, ok := e.(eventbus.StaleResponseDroppedEvent); ok {
			log.Debug("stale response dropped",
				zap.Uint64("generation", event.Request.Lifecycle.Generation),
				zap.Uint64("current", event.Current.Generation))
		}
	})
	bus.Subscribe(eventbus.EventLanguageChanged, func(e eventbus.DomainEvent) {
		if event, ok := e.(eventbus.LanguageChangedEvent); ok {
			log.Info("language changed", zap.String("from", event.From.Code()), zap.String("to", event.To.Code()))
		}
	})
	bus.Subscribe(eventbus.EventDetailsLoaded, func(e eventbus.DomainEvent) {
		if event, ok := e.(eventbus.DetailsLoadedEvent); ok && event.Err != nil {
			log.Warn("details failed", zap.Int("movie", event.MovieID), zap.Error(event.Err))
		}
	})
}
