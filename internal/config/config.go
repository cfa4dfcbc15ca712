package config

import (
	"fmt"
	"log"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ListenPort      string        // ex: ":8801"
	ShutdownTimeout time.Duration // ex: 5s
	RequestTimeout  time.Duration // per request, must cover a full play (ex: 60s)
	Env             string        // "production" | "development"

	LogLevel      string // "debug" | "info" | "warn" | "error"
	PrettyLog     bool   // true => zap dev (color), false => zap prod (JSON)
	LogFile       string // optional rotating log file
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int

	// Media
	PublicHost string // host devices use to fetch media (ex: 192.168.1.10)
	PublicPort int    // port devices use to fetch media, defaults to the listen port
	MediaDir   string // directory holding the .mp3 files

	// Devices
	DevicesFile   string // optional devices.yaml
	DevicesInline string // optional "name=host[:port],..."

	// Telemetry
	TelemetryDB           string        // sqlite path, ":memory:" allowed
	TelemetryWriteTimeout time.Duration // bound on one event write

	// Playback
	ReadyTimeout   time.Duration // wait for the cast session to be ready
	PlayAttempts   int           // load attempts per request
	PlayRetryDelay time.Duration // pause between load attempts

	// Redis (optional activity mirror, empty address = disabled)
	RedisAddr           string
	RedisUser           string
	RedisPassword       string
	RedisDB             int
	RedisDT             time.Duration // dial timeout
	RedisRT             time.Duration // read timeout
	RedisWT             time.Duration // write timeout
	RedisMaxWait        time.Duration // max wait between retries
	RedisPingTimeout    time.Duration // timeout for each ping attempt
	RedisPoolSize       int
	RedisConnectTimeout time.Duration // total time to retry connecting
	RedisRetryInterval  time.Duration // initial wait between retries, grows exponentially
	RedisWarnThreshold  int           // warn after this many attempts
	ActivityGCInterval  time.Duration // how often activity of removed devices is purged

	AllowedHosts   []string // optional, restrict access to specific Host headers
	AllowedCIDRS   []string // optional, restrict /infra to these networks
	TrustProxy     bool     // true => trust X-Forwarded-For headers
	PlayRateBurst  int      // /play token bucket size per client
	PlayRatePerMin int      // /play refill rate per client
}

func Load() *Config {
	loadDotEnv()

	listen := getenv("CASTPLAY_LISTEN_PORT", ":8801")
	cfg := &Config{
		// Server settings
		ListenPort:      listen,
		ShutdownTimeout: mustDuration("CASTPLAY_SHUTDOWN_TIMEOUT", 5*time.Second),
		RequestTimeout:  mustDuration("CASTPLAY_REQUEST_TIMEOUT", 60*time.Second),
		Env:             getenv("CASTPLAY_ENV", "production"),

		// Logging
		LogLevel:      getenv("CASTPLAY_LOG_LEVEL", "info"),
		PrettyLog:     mustBool("CASTPLAY_PRETTY_LOG", true),
		LogFile:       getenv("CASTPLAY_LOG_FILE", ""),
		LogMaxSizeMB:  getenvInt("CASTPLAY_LOG_MAX_SIZE_MB", 50),
		LogMaxBackups: getenvInt("CASTPLAY_LOG_MAX_BACKUPS", 5),
		LogMaxAgeDays: getenvInt("CASTPLAY_LOG_MAX_AGE_DAYS", 28),

		// Media
		PublicHost: getenv("CASTPLAY_PUBLIC_HOST", "127.0.0.1"),
		PublicPort: getenvInt("CASTPLAY_PUBLIC_PORT", portOf(listen, 8801)),
		MediaDir:   getenv("CASTPLAY_MEDIA_DIR", "./mp3"),

		// Devices
		DevicesFile:   getenv("CASTPLAY_DEVICES_FILE", ""),
		DevicesInline: getenv("CASTPLAY_DEVICES", ""),

		// Telemetry
		TelemetryDB:           getenv("CASTPLAY_TELEMETRY_DB", "./telemetry.db"),
		TelemetryWriteTimeout: mustDuration("CASTPLAY_TELEMETRY_WRITE_TIMEOUT", 2*time.Second),

		// Playback
		ReadyTimeout:   mustDuration("CASTPLAY_READY_TIMEOUT", 10*time.Second),
		PlayAttempts:   getenvInt("CASTPLAY_PLAY_ATTEMPTS", 5),
		PlayRetryDelay: mustDuration("CASTPLAY_PLAY_RETRY_DELAY", 0),

		// Redis settings
		RedisAddr:           getenv("CASTPLAY_REDIS_ADDR", ""),
		RedisUser:           getenv("CASTPLAY_REDIS_USERNAME", ""),
		RedisPassword:       getenv("CASTPLAY_REDIS_PASSWORD", ""),
		RedisDB:             getenvInt("CASTPLAY_REDIS_DB", 0),
		RedisDT:             mustDuration("CASTPLAY_REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:             mustDuration("CASTPLAY_REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:             mustDuration("CASTPLAY_REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:        mustDuration("CASTPLAY_REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:    mustDuration("CASTPLAY_REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:       getenvInt("CASTPLAY_REDIS_POOL_SIZE", 10),
		RedisConnectTimeout: mustDuration("CASTPLAY_REDIS_CONNECT_TIMEOUT", 15*time.Second),
		RedisRetryInterval:  mustDuration("CASTPLAY_REDIS_RETRY_INTERVAL", 1*time.Second),
		RedisWarnThreshold:  getenvInt("CASTPLAY_REDIS_WARN_THRESHOLD", 3),
		ActivityGCInterval:  mustDuration("CASTPLAY_ACTIVITY_GC_INTERVAL", time.Hour),

		// Access restrictions
		AllowedHosts:   splitAndTrim(getenv("CASTPLAY_ALLOWED_HOSTS", "")),
		AllowedCIDRS:   splitAndTrim(getenv("CASTPLAY_ALLOWED_CIDRS", "")),
		TrustProxy:     mustBool("CASTPLAY_TRUST_PROXY", false),
		PlayRateBurst:  getenvInt("CASTPLAY_PLAY_RATE_BURST", 10),
		PlayRatePerMin: getenvInt("CASTPLAY_PLAY_RATE_PER_MIN", 30),
	}

	if cfg.PlayAttempts < 1 {
		panic(fmt.Sprintf("❌ FATAL: CASTPLAY_PLAY_ATTEMPTS must be >= 1, got %d", cfg.PlayAttempts))
	}
	if cfg.PublicPort <= 0 || cfg.PublicPort > 65535 {
		panic(fmt.Sprintf("❌ FATAL: CASTPLAY_PUBLIC_PORT out of range: %d", cfg.PublicPort))
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		if cfgCopy.RedisPassword != "" {
			cfgCopy.RedisPassword = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// RedisEnabled reports whether the activity mirror is configured
func (c *Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}

// loadDotEnv reads ./.env and then CASTPLAY_ENV_FILE. Variables already set
// in the environment are never overridden.
func loadDotEnv() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[WARN] failed to read .env: %v", err)
	}
	if path := os.Getenv("CASTPLAY_ENV_FILE"); path != "" {
		if err := godotenv.Load(path); err != nil {
			panic(fmt.Sprintf("❌ FATAL: cannot load CASTPLAY_ENV_FILE %s: %v", path, err))
		}
	}
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// portOf extracts the port of a listen address, ex: ":8801" -> 8801
func portOf(listen string, def int) int {
	_, port, err := net.SplitHostPort(listen)
	if err != nil {
		return def
	}
	p, err := strconv.Atoi(port)
	if err != nil || p <= 0 {
		return def
	}
	return p
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
