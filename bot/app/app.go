package app

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mymmrac/telego"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	botpkg "github.com/sepehrmoghiseh/musifyyy/bot"
	"github.com/sepehrmoghiseh/musifyyy/bot/admincmd"
	"github.com/sepehrmoghiseh/musifyyy/bot/analytics"
	"github.com/sepehrmoghiseh/musifyyy/bot/audio"
	"github.com/sepehrmoghiseh/musifyyy/bot/broadcast"
	"github.com/sepehrmoghiseh/musifyyy/bot/cache"
	"github.com/sepehrmoghiseh/musifyyy/bot/config"
	"github.com/sepehrmoghiseh/musifyyy/bot/db"
	"github.com/sepehrmoghiseh/musifyyy/bot/download"
	"github.com/sepehrmoghiseh/musifyyy/bot/extractor"
	logpkg "github.com/sepehrmoghiseh/musifyyy/bot/logger"
	"github.com/sepehrmoghiseh/musifyyy/bot/platform"
	platformplugins "github.com/sepehrmoghiseh/musifyyy/bot/platform/plugins"
	"github.com/sepehrmoghiseh/musifyyy/bot/search"
	"github.com/sepehrmoghiseh/musifyyy/bot/telegram"
	"github.com/sepehrmoghiseh/musifyyy/bot/telegram/handler"
	"github.com/sepehrmoghiseh/musifyyy/bot/worker"
)

const thumbnailTimeout = 15 * time.Second

// App wires all application dependencies.
type App struct {
	Config          *config.Config
	Logger          *logpkg.Logger
	DB              *db.Repository
	Pool            *worker.Pool
	PlatformManager platform.Manager
	Telegram        *telegram.Bot
	Search          *search.Aggregator
	Downloads       *download.Service
	Analytics       *analytics.Counters
	Results         *cache.Results
	Inline          *cache.Inline
	RateLimiter     *telegram.RateLimiter
	Broadcaster     *broadcast.Broadcaster
	Metrics         *prometheus.Registry
	Build           BuildInfo

	inflight sync.WaitGroup
}

// BuildInfo provides build-time metadata.
type BuildInfo struct {
	RuntimeVer string
	BinVersion string
	CommitSHA  string
	BuildTime  string
	BuildArch  string
}

func (b BuildInfo) String() string {
	version := b.BinVersion
	if version == "" {
		version = "dev"
	}
	return fmt.Sprintf("musifyyy %s (commit %s, built %s, %s, %s)",
		version, orUnknown(b.CommitSHA), orUnknown(b.BuildTime), b.RuntimeVer, b.BuildArch)
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "unknown"
	}
	return s
}

// New builds the application container. A missing bot token is the only
// fatal configuration problem; everything else degrades with a log line.
func New(ctx context.Context, configPath string, build BuildInfo) (*App, error) {
	conf, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}

	log, err := logpkg.New(logpkg.Options{
		Level:     conf.GetString("LogLevel"),
		Format:    conf.GetString("LogFormat"),
		AddSource: conf.GetBool("LogSource"),
		Dir:       conf.GetString("LogDir"),
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	repo := openUserStore(conf, log)

	pool := worker.NewWithLogger(conf.GetInt("WorkerPoolSize"), log)

	tempDir := strings.TrimSpace(conf.GetString("TempDir"))
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		log.Warn("failed to create temp dir", "dir", tempDir, "error", err)
	}

	engine := extractor.New(conf.GetString("AudioFormat"), conf.GetString("AudioQuality"))
	engine.Proxy = strings.TrimSpace(conf.GetString("Proxy"))

	env := platformplugins.Env{
		Config:     conf,
		Logger:     log,
		Engine:     engine,
		CookieFile: conf.ResolveCookieFile(tempDir),
	}
	platformManager := platform.NewManager()
	registerPlatforms(conf, log, env, platformManager)

	searchPlatforms := platformManager.Select(conf.GetStringList("SearchPlatforms"))
	if len(searchPlatforms) == 0 {
		log.Warn("no search platforms available", "configured", conf.GetString("SearchPlatforms"))
	}
	aggregator := search.New(searchPlatforms, conf.GetSeconds("SearchTimeout"), log)

	downloads := download.NewService(engine, platformManager, download.ServiceOptions{
		TempDir:        tempDir,
		Concurrency:    conf.GetInt("DownloadConcurrency"),
		AlbumMaxTracks: conf.GetInt("AlbumMaxTracks"),
		Logger:         log,
	})

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	counters := analytics.New(registry)

	tele, err := telegram.New(conf, log)
	if err != nil {
		return nil, fmt.Errorf("init telegram: %w", err)
	}

	rateLimiter := telegram.NewRateLimiter(conf.GetFloat64("RateLimitPerSecond"), conf.GetInt("RateLimitBurst"))
	rateLimiter.SetLogger(log)

	a := &App{
		Config:          conf,
		Logger:          log,
		DB:              repo,
		Pool:            pool,
		PlatformManager: platformManager,
		Telegram:        tele,
		Search:          aggregator,
		Downloads:       downloads,
		Analytics:       counters,
		Results:         cache.NewResults(),
		Inline:          cache.NewInline(),
		RateLimiter:     rateLimiter,
		Metrics:         registry,
		Build:           build,
	}
	if repo != nil {
		a.Broadcaster = broadcast.New(repo, a.broadcastSender(), conf.GetInt("BroadcastConcurrency"), log)
	}
	return a, nil
}

func openUserStore(conf *config.Config, log *logpkg.Logger) *db.Repository {
	path := strings.TrimSpace(conf.GetString("Database"))
	if path == "" {
		path = "musifyyy.db"
	}
	gormLogger := logpkg.NewGormLogger(log.Slog(), logpkg.ParseGormLevel(conf.GetString("GormLogLevel")))
	repo, err := db.NewSQLiteRepository(path, gormLogger)
	if err != nil {
		log.Error("user store unavailable, continuing without it", "path", path, "error", err)
		return nil
	}
	lifetime := conf.GetSeconds("DBConnMaxLifetimeSec")
	if err := repo.ConfigurePool(conf.GetInt("DBMaxOpenConns"), conf.GetInt("DBMaxIdleConns"), lifetime); err != nil {
		log.Warn("configure db pool failed", "error", err)
	}
	return repo
}

func registerPlatforms(conf *config.Config, log *logpkg.Logger, env platformplugins.Env, manager platform.Manager) {
	for _, name := range pluginOrder(conf) {
		if !conf.PluginEnabled(name) {
			log.Info("plugin disabled by config", "plugin", name)
			continue
		}
		factory, ok := platformplugins.Get(name)
		if !ok {
			log.Warn("plugin not registered", "plugin", name)
			continue
		}
		contrib, err := factory(env)
		if err != nil {
			log.Error("plugin init failed", "plugin", name, "error", err)
			continue
		}
		if contrib == nil || contrib.Platform == nil {
			continue
		}
		if err := manager.Register(contrib.Platform); err != nil {
			log.Error("plugin registration failed", "plugin", name, "error", err)
		}
	}
}

// pluginOrder lists the search platforms first, in their configured order,
// followed by any other registered plugin.
func pluginOrder(conf *config.Config) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(name string) {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			return
		}
		if _, dup := seen[name]; dup {
			return
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	for _, name := range conf.GetStringList("SearchPlatforms") {
		add(name)
	}
	for _, name := range platformplugins.Names() {
		add(name)
	}
	return out
}

func (a *App) broadcastSender() broadcast.Sender {
	limiter := telegram.NewRateLimiter(a.Config.GetFloat64("RateLimitPerSecond"), a.Config.GetInt("RateLimitBurst"))
	limiter.SetGlobalRate(a.Config.GetFloat64("BroadcastRatePerSecond"), 1)
	limiter.SetLogger(a.Logger)
	return func(ctx context.Context, chatID int64, text string) error {
		_, err := telegram.SendMessageWithRetry(ctx, limiter, a.Telegram.Client(), &telego.SendMessageParams{
			ChatID: telego.ChatID{ID: chatID},
			Text:   text,
		})
		return err
	}
}

// Start registers handlers and begins receiving updates.
func (a *App) Start(ctx context.Context) error {
	meCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	me, err := a.Telegram.GetMe(meCtx)
	if err != nil {
		a.Logger.Error("getMe failed", "error", err)
	}
	botName := ""
	if me != nil {
		botName = me.Username
	}

	router := a.buildRouter(botName)

	if err := a.Telegram.SetCommands(ctx, []telego.BotCommand{
		{Command: "start", Description: "Start the bot"},
		{Command: "help", Description: "How to use the bot"},
		{Command: "stats", Description: "Usage statistics"},
	}); err != nil {
		a.Logger.Warn("setMyCommands failed", "error", err)
	}

	updates, err := a.updates(ctx)
	if err != nil {
		return err
	}
	go a.dispatch(ctx, updates, router)
	a.Logger.Info("bot started", "bot", botName, "platforms", a.Search.Platforms(), "version", a.Build.BinVersion)
	return nil
}

func (a *App) buildRouter(botName string) *handler.Router {
	pageSize := a.Config.GetInt("PageSize")

	encoder := audio.NewFFmpegEncoder(a.Config.GetString("FFmpegPath"))
	var compressor *audio.Compressor
	if encoder.Available() {
		compressor = audio.NewCompressor(encoder, a.Logger)
	} else {
		a.Logger.Warn("ffmpeg not found, oversized files cannot be re-encoded", "path", encoder.Path)
		compressor = audio.NewCompressor(nil, a.Logger)
	}

	music := &handler.MusicHandler{
		Downloader:      a.Downloads,
		Compressor:      compressor,
		Tagger:          audio.NewTagger(a.Logger),
		Thumbnails:      audio.NewThumbnailFetcher(thumbnailTimeout),
		PlatformManager: a.PlatformManager,
		Pool:            a.Pool,
		RateLimiter:     a.RateLimiter,
		UploadBot:       a.Telegram.UploadClient(),
		Analytics:       a.Analytics,
		UploadLimit:     int64(a.Config.GetInt("UploadLimitMB")) * 1024 * 1024,
		Logger:          a.Logger,
	}

	var (
		users      botpkg.UserRepository
		counter    handler.UserCounter
		broadcasts handler.BroadcastSender
	)
	if a.DB != nil {
		users = a.DB
		counter = a.DB
	}
	if a.Broadcaster != nil {
		broadcasts = a.Broadcaster
	}

	admin := &handler.AdminCommandHandler{
		BotName:     botName,
		AdminIDs:    handler.AdminSet(a.Config.GetInt64List("BotAdmin")),
		RateLimiter: a.RateLimiter,
		Logger:      a.Logger,
		Commands: []admincmd.Command{
			handler.BuildUsersCommand(counter),
			handler.BuildBroadcastCommand(broadcasts),
		},
	}

	return &handler.Router{
		Start: &handler.StartHandler{BotName: botName, RateLimiter: a.RateLimiter},
		Stats: &handler.StatsHandler{Analytics: a.Analytics, Users: counter, RateLimiter: a.RateLimiter, Logger: a.Logger},
		Admin: admin,
		AdminCommands: admin.Names(),
		Search: &handler.SearchHandler{
			Searcher:        a.Search,
			Results:         a.Results,
			PlatformManager: a.PlatformManager,
			RateLimiter:     a.RateLimiter,
			Analytics:       a.Analytics,
			BotName:         botName,
			Limit:           a.Config.GetInt("SearchResults"),
			PageSize:        pageSize,
			Logger:          a.Logger,
		},
		Link: &handler.LinkHandler{PlatformManager: a.PlatformManager, Music: music, RateLimiter: a.RateLimiter, Logger: a.Logger},
		Callback: &handler.SelectionHandler{
			Results:     a.Results,
			Music:       music,
			RateLimiter: a.RateLimiter,
			PageSize:    pageSize,
			Logger:      a.Logger,
		},
		Inline: &handler.InlineSearchHandler{
			Searcher:        a.Search,
			Inline:          a.Inline,
			PlatformManager: a.PlatformManager,
			Analytics:       a.Analytics,
			Limit:           a.Config.GetInt("InlineResults"),
			Logger:          a.Logger,
		},
		ChosenInline: &handler.ChosenInlineMusicHandler{
			Inline:      a.Inline,
			Music:       music,
			Analytics:   a.Analytics,
			RateLimiter: a.RateLimiter,
			BotName:     botName,
			Logger:      a.Logger,
		},
		PlatformManager: a.PlatformManager,
		Users:           users,
		BotName:         botName,
		Logger:          a.Logger,
	}
}

// updates selects webhook or long polling. The HTTP server also runs in
// polling mode when MetricsListen is set.
func (a *App) updates(ctx context.Context) (<-chan telego.Update, error) {
	metrics := promhttp.HandlerFor(a.Metrics, promhttp.HandlerOpts{})

	base := strings.TrimRight(strings.TrimSpace(a.Config.GetString("WEBHOOK_BASE_URL")), "/")
	if base != "" {
		secret := a.Config.GetString("WebhookSecret")
		server := telegram.NewServer(telegram.ServerOptions{
			Addr:    fmt.Sprintf(":%d", a.Config.GetInt("PORT")),
			Webhook: true,
			Secret:  secret,
			Metrics: metrics,
			Logger:  a.Logger,
		})
		go a.serve(ctx, server)
		if err := a.Telegram.SetWebhook(ctx, base+telegram.WebhookPath, secret); err != nil {
			return nil, fmt.Errorf("set webhook: %w", err)
		}
		a.Logger.Info("webhook mode", "url", base+telegram.WebhookPath)
		return server.Updates(), nil
	}

	if listen := strings.TrimSpace(a.Config.GetString("MetricsListen")); listen != "" {
		go a.serve(ctx, telegram.NewServer(telegram.ServerOptions{
			Addr:    listen,
			Metrics: metrics,
			Logger:  a.Logger,
		}))
	}
	a.Logger.Info("long polling mode")
	return a.Telegram.LongPoll(ctx)
}

func (a *App) serve(ctx context.Context, server *telegram.Server) {
	if err := server.Run(ctx); err != nil {
		a.Logger.Error("http server stopped", "error", err)
	}
}

// dispatch handles each update on its own goroutine so a slow handler never
// delays the next update.
func (a *App) dispatch(ctx context.Context, updates <-chan telego.Update, router *handler.Router) {
	client := a.Telegram.Client()
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			a.inflight.Add(1)
			go func() {
				defer a.inflight.Done()
				router.Dispatch(ctx, client, update)
			}()
		}
	}
}

// Shutdown waits for in-flight updates and releases resources.
func (a *App) Shutdown(ctx context.Context) error {
	var firstErr error

	done := make(chan struct{})
	go func() {
		a.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		a.Logger.Warn("shutdown timed out waiting for handlers")
	}

	if a.Pool != nil {
		if err := a.Pool.Shutdown(ctx); err != nil {
			a.Pool.StopNow()
			if firstErr == nil {
				firstErr = fmt.Errorf("shutdown worker pool: %w", err)
			}
		}
	}

	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Logger.Error("failed to close database", "error", err)
			if firstErr == nil {
				firstErr = fmt.Errorf("close database: %w", err)
			}
		}
	}

	if a.Logger != nil {
		if err := a.Logger.Close(); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("close logger: %w", err)
			}
		}
	}

	return firstErr
}
