// Package app wires all Solace subsystems into a running service.
//
// The App struct owns the full lifecycle: New builds the voice tables, crisis
// components, check-in store and HTTP server from the config, Run serves
// until the context ends, and Shutdown releases everything in order.
//
// For testing, inject doubles via functional options (WithCheckInStore,
// WithMetrics, etc.). When an option is not provided, New creates real
// implementations from the config.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/solace/internal/api"
	"github.com/MrWong99/solace/internal/checkin"
	"github.com/MrWong99/solace/internal/config"
	"github.com/MrWong99/solace/internal/crisis"
	"github.com/MrWong99/solace/internal/health"
	"github.com/MrWong99/solace/internal/observe"
	"github.com/MrWong99/solace/internal/speech"
)

const (
	defaultListenAddr    = ":8080"
	defaultSweepInterval = time.Minute
	shutdownTimeout      = 10 * time.Second
)

// App owns all subsystem lifetimes.
type App struct {
	mu  sync.Mutex
	cfg *config.Config

	providers *Providers
	metrics   *observe.Metrics
	level     *slog.LevelVar

	pipeline *speech.Pipeline
	store    checkin.Store
	server   *api.Server
	http     *http.Server
	watcher  *config.Watcher

	configPath     string
	watchOpts      []config.WatcherOption
	metricsHandler http.Handler
	checkers       []health.Checker

	// closers are called in order during Shutdown.
	closers  []func() error
	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithCheckInStore injects a check-in store instead of opening the one named
// in the config.
func WithCheckInStore(s checkin.Store) Option {
	return func(a *App) { a.store = s }
}

// WithMetrics sets the metrics sink. The default is [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// WithLevelVar lets config reloads change the log level of the handler
// built around lv.
func WithLevelVar(lv *slog.LevelVar) Option {
	return func(a *App) { a.level = lv }
}

// WithMetricsHandler mounts h at GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(a *App) { a.metricsHandler = h }
}

// WithConfigWatch polls the config file at path and applies changes that do
// not need a restart. opts tune the [config.Watcher].
func WithConfigWatch(path string, opts ...config.WatcherOption) Option {
	return func(a *App) {
		a.configPath = path
		a.watchOpts = opts
	}
}

// ─── New ─────────────────────────────────────────────────────────────────────

// New creates an App from cfg. providers comes from [BuildProviders]; nil
// fields disable the features that need them.
func New(ctx context.Context, cfg *config.Config, providers *Providers, opts ...Option) (*App, error) {
	if providers == nil {
		providers = &Providers{}
	}
	a := &App{cfg: cfg, providers: providers}
	for _, o := range opts {
		o(a)
	}
	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}
	if a.level == nil {
		a.level = new(slog.LevelVar)
	}
	a.level.Set(SlogLevel(cfg.Server.LogLevel))

	// ── 1. Voice tables + speech pipeline ────────────────────────────────
	tables, err := buildTables(cfg)
	if err != nil {
		return nil, fmt.Errorf("app: init voice: %w", err)
	}
	popts := []speech.Option{speech.WithMetrics(a.metrics)}
	if providers.TTS != nil {
		popts = append(popts, speech.WithTTS(providers.TTS, cfg.Providers.TTS.Name))
	}
	a.pipeline = speech.New(tables, popts...)

	// ── 2. Check-in store ────────────────────────────────────────────────
	if err := a.initCheckIns(ctx); err != nil {
		a.close()
		return nil, fmt.Errorf("app: init check-ins: %w", err)
	}

	// ── 3. HTTP API ──────────────────────────────────────────────────────
	a.checkers = append(a.checkers,
		health.ProviderChecker("llm", availability(providers.LLM)),
		health.ProviderChecker("tts", availability(providers.TTS)),
	)
	sopts := []api.Option{
		api.WithMetrics(a.metrics),
		api.WithGate(crisis.NewGate(cfg.Crisis.GateOptions()...)),
		api.WithHealth(health.New(a.checkers...)),
		api.WithAudioFormat(providers.AudioFormat),
	}
	if an := a.buildAnalyzer(cfg); an != nil {
		sopts = append(sopts, api.WithAnalyzer(an))
	}
	if a.store != nil {
		sopts = append(sopts, api.WithScheduler(buildScheduler(a.store, cfg.CheckIn)))
	}
	if a.metricsHandler != nil {
		sopts = append(sopts, api.WithMetricsHandler(a.metricsHandler))
	}
	a.server = api.New(a.pipeline, sopts...)

	addr := cfg.Server.ListenAddr
	if addr == "" {
		addr = defaultListenAddr
	}
	a.http = &http.Server{
		Addr:              addr,
		Handler:           a.server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ── 4. Config watcher ────────────────────────────────────────────────
	if a.configPath != "" {
		wopts := append([]config.WatcherOption{
			config.WithReloadResult(func(err error) {
				a.metrics.RecordConfigReload(context.Background(), err)
				if err != nil {
					slog.Warn("config reload rejected", "path", a.configPath, "err", err)
				}
			}),
		}, a.watchOpts...)
		w, err := config.NewWatcher(a.configPath, a.ApplyConfig, wopts...)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("app: init config watcher: %w", err)
		}
		a.watcher = w
	}

	return a, nil
}

// ─── Init helpers ────────────────────────────────────────────────────────────

func buildTables(cfg *config.Config) (*speech.Tables, error) {
	v := cfg.Voice
	return speech.NewTables(v.Identities(), v.MoodTable(), v.SynthesisProfiles(), v.Intensity())
}

// buildAnalyzer returns nil when no LLM is configured.
func (a *App) buildAnalyzer(cfg *config.Config) crisis.Analyzer {
	if a.providers.LLM == nil {
		return nil
	}
	var opts []crisis.AnalyzerOption
	if t := cfg.Crisis.AnalyzerTemperature; t != 0 {
		opts = append(opts, crisis.WithTemperature(t))
	}
	return crisis.NewLLMAnalyzer(a.providers.LLM, opts...)
}

func buildScheduler(store checkin.Store, cfg config.CheckInConfig) *checkin.Scheduler {
	var opts []checkin.SchedulerOption
	for level, d := range cfg.Delays {
		r, err := crisis.ParseRiskLevel(level)
		if err != nil {
			// Rejected by config validation already.
			continue
		}
		opts = append(opts, checkin.WithDelay(r, d))
	}
	return checkin.NewScheduler(store, opts...)
}

// initCheckIns opens the PostgreSQL or file store named in the config unless
// one was injected.
func (a *App) initCheckIns(ctx context.Context) error {
	if a.store != nil {
		return nil
	}
	c := a.cfg.CheckIn
	switch {
	case c.PostgresDSN != "":
		pool, err := pgxpool.New(ctx, c.PostgresDSN)
		if err != nil {
			return fmt.Errorf("create pool: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return fmt.Errorf("ping postgres: %w", err)
		}
		a.closers = append(a.closers, func() error {
			pool.Close()
			return nil
		})

		store := checkin.NewPostgresStore(pool)
		if err := store.Migrate(ctx); err != nil {
			return err
		}
		a.store = store
		a.checkers = append(a.checkers, health.PingChecker("postgres", pool.Ping))
		slog.Info("check-ins stored in postgres")

	case c.File != "":
		store, err := checkin.OpenFileStore(c.File)
		if err != nil {
			return err
		}
		a.store = store
		slog.Info("check-ins stored in file", "path", c.File)

	default:
		slog.Warn("no check-in store configured, check-ins are disabled")
	}
	return nil
}

// ─── Hot reload ──────────────────────────────────────────────────────────────

// ApplyConfig applies the reloadable differences between old and new. Voice
// tables that fail to build keep the previous tables in service.
func (a *App) ApplyConfig(old, new *config.Config) {
	d := config.Diff(old, new)
	if d.Empty() {
		return
	}

	if d.LogLevelChanged {
		a.level.Set(SlogLevel(d.NewLogLevel))
		slog.Info("log level changed", "level", d.NewLogLevel)
	}
	if d.VoiceChanged {
		tables, err := buildTables(new)
		if err != nil {
			slog.Error("voice config not applied", "err", err)
		} else {
			a.pipeline.Swap(tables)
			slog.Info("voice tables reloaded", "voices", len(tables.Catalog.All()))
		}
	}
	if d.CrisisChanged {
		a.server.SetGate(crisis.NewGate(new.Crisis.GateOptions()...))
		a.server.SetAnalyzer(a.buildAnalyzer(new))
		slog.Info("crisis settings reloaded")
	}
	if d.CheckInDelaysChanged && a.store != nil {
		a.server.SetScheduler(buildScheduler(a.store, new.CheckIn))
		slog.Info("check-in delays reloaded")
	}
	if len(d.RestartRequired) > 0 {
		slog.Warn("config changes need a restart to take effect", "sections", d.RestartRequired)
	}

	a.mu.Lock()
	a.cfg = new
	a.mu.Unlock()
}

// ─── Run ─────────────────────────────────────────────────────────────────────

// Handler returns the HTTP handler, for tests and embedding.
func (a *App) Handler() http.Handler {
	return a.http.Handler
}

// Pipeline returns the speech pipeline.
func (a *App) Pipeline() *speech.Pipeline {
	return a.pipeline
}

// Run serves HTTP, polls the config file when enabled, and sweeps due
// check-ins until ctx is cancelled. It returns nil on a clean stop.
func (a *App) Run(ctx context.Context) error {
	a.mu.Lock()
	tls := a.cfg.Server.TLS
	a.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("http server listening", "addr", a.http.Addr)
		var err error
		if tls != nil {
			err = a.http.ListenAndServeTLS(tls.CertFile, tls.KeyFile)
		} else {
			err = a.http.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("app: serve http: %w", err)
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		return a.http.Shutdown(sctx)
	})
	if a.watcher != nil {
		g.Go(func() error { return a.watcher.Run(gctx) })
	}
	if a.store != nil {
		g.Go(func() error { return a.sweep(gctx) })
	}

	return g.Wait()
}

// sweep records the number of overdue check-ins every sweep interval.
func (a *App) sweep(ctx context.Context) error {
	a.mu.Lock()
	interval := a.cfg.CheckIn.SweepInterval
	a.mu.Unlock()
	if interval <= 0 {
		interval = defaultSweepInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := a.SweepOnce(ctx); err != nil && ctx.Err() == nil {
				slog.Warn("check-in sweep failed", "err", err)
			}
		}
	}
}

// SweepOnce counts pending check-ins that are due now and publishes the
// count as the check-ins-due gauge.
func (a *App) SweepOnce(ctx context.Context) (int, error) {
	if a.store == nil {
		return 0, nil
	}
	due, err := a.store.Due(ctx, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("app: sweep check-ins: %w", err)
	}
	a.metrics.CheckInsDue.Record(ctx, int64(len(due)))
	if len(due) > 0 {
		oldest := due[0]
		slog.Info("check-ins due",
			"count", len(due),
			"oldest_user", oldest.UserID,
			"oldest_due_at", oldest.DueAt,
		)
	}
	return len(due), nil
}

// ─── Shutdown ────────────────────────────────────────────────────────────────

// Shutdown releases all subsystems. It respects the context deadline: if ctx
// expires before all closers finish, remaining closers are skipped and the
// context error is returned.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		slog.Info("shutting down", "closers", len(a.closers))
		for i, closer := range a.closers {
			select {
			case <-ctx.Done():
				slog.Warn("shutdown deadline exceeded", "remaining", len(a.closers)-i)
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := closer(); err != nil {
				slog.Warn("closer error", "index", i, "err", err)
			}
		}
		slog.Info("shutdown complete")
	})
	return shutdownErr
}

// close runs the closers collected so far after a failed New.
func (a *App) close() {
	for _, c := range a.closers {
		_ = c()
	}
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// SlogLevel converts a config log level. Unset means info.
func SlogLevel(level config.LogLevel) slog.Level {
	switch level {
	case config.LogDebug:
		return slog.LevelDebug
	case config.LogWarn:
		return slog.LevelWarn
	case config.LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// availability returns p's failover status, or nil for a provider without
// one so the readiness check passes.
func availability(p any) health.Availability {
	if av, ok := p.(health.Availability); ok {
		return av
	}
	return nil
}
