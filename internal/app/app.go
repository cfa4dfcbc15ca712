package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/castplay/internal/cast"
	"github.com/MrSnakeDoc/castplay/internal/config"
	"github.com/MrSnakeDoc/castplay/internal/httpserver"
	"github.com/MrSnakeDoc/castplay/internal/httpserver/deps"
	"github.com/MrSnakeDoc/castplay/internal/logger"
	"github.com/MrSnakeDoc/castplay/internal/media"
	"github.com/MrSnakeDoc/castplay/internal/playback"
	"github.com/MrSnakeDoc/castplay/internal/redis"
	"github.com/MrSnakeDoc/castplay/internal/registry"
	"github.com/MrSnakeDoc/castplay/internal/scheduler"
	"github.com/MrSnakeDoc/castplay/internal/sources/devices"
	redisstore "github.com/MrSnakeDoc/castplay/internal/store/redis"
	"github.com/MrSnakeDoc/castplay/internal/telemetry"
	"github.com/MrSnakeDoc/castplay/internal/utils"
	"github.com/MrSnakeDoc/castplay/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	telemetry   *telemetry.Store
	redisClient *goredis.Client
	gc          *scheduler.GarbageCollector
}

// NewLogger builds the process logger from the logging settings.
func NewLogger(cfg *config.Config) logger.Logger {
	return logger.NewWithFile(cfg.LogLevel, cfg.PrettyLog, logger.FileOptions{
		Path:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
	})
}

// LoadRegistry reads the device map from the configured file and inline list.
func LoadRegistry(cfg *config.Config) (*registry.Registry, error) {
	props, err := devices.NewLoader(cfg.DevicesFile, cfg.DevicesInline).Load()
	if err != nil {
		return nil, err
	}
	list, err := devices.NewMapper().MapDevices(props)
	if err != nil {
		return nil, fmt.Errorf("%w (set CASTPLAY_DEVICES or CASTPLAY_DEVICES_FILE)", err)
	}
	return registry.New(list), nil
}

func New(cfg *config.Config) (*App, error) {
	loggerClient := NewLogger(cfg)

	reg, err := LoadRegistry(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load devices: %w", err)
	}
	loggerClient.Info("devices loaded",
		logger.Int("count", reg.Count()),
		logger.Strings("names", reg.Names()))

	store := media.NewStore(cfg.MediaDir, cfg.PublicHost, cfg.PublicPort, media.DefaultRoute)
	dir, err := store.EnsureDir()
	if err != nil {
		return nil, err
	}
	if dir != cfg.MediaDir {
		loggerClient.Warn("media dir not writable, using fallback",
			logger.String("configured", cfg.MediaDir),
			logger.String("dir", dir))
	}

	tel, err := telemetry.Open(cfg.TelemetryDB, telemetry.Options{})
	if err != nil {
		return nil, err
	}
	loggerClient.Info("telemetry database ready", logger.String("path", cfg.TelemetryDB))

	// Redis only mirrors device activity; the service runs without it.
	var (
		redisClient *goredis.Client
		activity    deps.Activity
		sinks       []telemetry.Recorder
		gc          *scheduler.GarbageCollector
	)
	if cfg.RedisEnabled() {
		redisClient, err = redis.Connect(context.Background(), redis.ConnectOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			DB:             cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
			WarnThreshold:  cfg.RedisWarnThreshold,
		}, loggerClient)
		if err != nil {
			loggerClient.Warn("redis unavailable, device activity disabled", logger.Error(err))
			redisClient = nil
		} else {
			rs := redisstore.NewStore(redisClient)
			activity = rs
			sinks = append(sinks, rs)

			syncCtx, cancel := context.WithTimeout(context.Background(), cfg.RedisConnectTimeout)
			if _, err := scheduler.NewRedisSyncer(tel, rs, loggerClient).Sync(syncCtx); err != nil {
				loggerClient.Warn("failed to sync track counters to redis", logger.Error(err))
			}
			cancel()

			gc = scheduler.NewGarbageCollector(rs, func(name string) bool {
				_, ok := reg.Lookup(name)
				return ok
			}, loggerClient, cfg.ActivityGCInterval)
		}
	} else {
		loggerClient.Info("redis not configured, device activity disabled")
	}

	player := playback.New(playback.Options{
		Registry:      reg,
		Media:         store,
		Dialer:        cast.NewChromecastDialer(cfg.ReadyTimeout, loggerClient),
		Recorder:      telemetry.NewMirror(tel, loggerClient, sinks...),
		Logger:        loggerClient,
		Attempts:      cfg.PlayAttempts,
		RetryDelay:    cfg.PlayRetryDelay,
		RecordTimeout: cfg.TelemetryWriteTimeout,
	})

	d := deps.Deps{
		Logger:         loggerClient,
		StartTime:      time.Now(),
		Version:        version.Version,
		Commit:         version.Commit,
		BuildDate:      version.BuildDate,
		GoVersion:      version.GoVersion,
		TimeNow:        time.Now,
		AllowedHosts:   cfg.AllowedHosts,
		AllowedCIDRS:   cfg.AllowedCIDRS,
		TrustProxy:     cfg.TrustProxy,
		PlayRateBurst:  cfg.PlayRateBurst,
		PlayRatePerMin: cfg.PlayRatePerMin,
		Registry:       reg,
		Media:          store,
		Player:         player,
		Telemetry:      tel,
		Activity:       activity,
		RedisClient:    redisClient,
	}

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      httpserver.New(cfg, loggerClient, d),
		telemetry:   tel,
		redisClient: redisClient,
		gc:          gc,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	a.logger.Infof("🚀 Starting castplay %s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Info(version.String())
	a.logger.Info("media served to devices",
		logger.String("base", fmt.Sprintf("http://%s:%d%s/", a.cfg.PublicHost, a.cfg.PublicPort, media.DefaultRoute)))

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.gc != nil {
		if err := a.gc.Start(ctx); err != nil {
			return fmt.Errorf("failed to start activity collector: %w", err)
		}
		a.logger.Info("activity collector started",
			logger.Duration("interval", a.cfg.ActivityGCInterval))
		defer a.gc.Stop()
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case runErr = <-errCh:
	}

	if runErr == nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		defer cancel()
		if err := a.server.Stop(shutdownCtx); err != nil {
			runErr = fmt.Errorf("failed to stop server: %w", err)
		}
	}

	// in-flight plays are done once Stop returns, so their events are written
	utils.CloseLogged(a.telemetry, "telemetry", a.logger)
	if a.redisClient != nil {
		utils.CloseLogged(a.redisClient, "redis", a.logger)
	}

	if runErr == nil {
		a.logger.Info("✅ castplay stopped cleanly")
	}
	_ = a.logger.Sync()
	return runErr
}
