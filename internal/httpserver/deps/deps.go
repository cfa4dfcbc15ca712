package deps

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/castplay/internal/domain"
	"github.com/MrSnakeDoc/castplay/internal/logger"
	"github.com/MrSnakeDoc/castplay/internal/media"
	"github.com/MrSnakeDoc/castplay/internal/registry"
)

// Player runs play requests (see playback.Player)
type Player interface {
	Play(ctx context.Context, track, device string) (*domain.Ack, error)
}

// Telemetry is the read side of the playback event log
type Telemetry interface {
	RecentEvents(ctx context.Context, limit int) ([]domain.PlaybackEvent, error)
	StatsByPeriod(ctx context.Context, g domain.Granularity, limit int) ([]domain.PeriodStats, error)
	TopTracks(ctx context.Context, limit, windowDays int) ([]domain.TrackCount, error)
	Health(ctx context.Context) domain.Health
}

// Activity is the Redis-backed live view of device activity
type Activity interface {
	LastPlay(ctx context.Context, device string) (*domain.PlaybackEvent, error)
	ActiveDevices(ctx context.Context) ([]string, error)
	TrackPlays(ctx context.Context, limit int) ([]domain.TrackCount, error)
}

type Deps struct {
	Logger         logger.Logger
	StartTime      time.Time
	Version        string
	Commit         string
	BuildDate      string
	GoVersion      string
	TimeNow        func() time.Time   // for testing, defaults to time.Now
	AllowedHosts   []string           // Host headers allowed to reach the API
	AllowedCIDRS   []string           // IPs allowed to access readyz/infra endpoints
	TrustProxy     bool               // true if running behind a trusted reverse proxy
	PlayRateBurst  int                // /play bucket size per client IP
	PlayRatePerMin int                // /play refill per client IP
	Registry       *registry.Registry // configured cast devices
	Media          *media.Store       // track directory
	Player         Player             // playback orchestrator
	Telemetry      Telemetry          // event log reader
	Activity       Activity           // nil when Redis is disabled
	RedisClient    *redis.Client      // nil when Redis is disabled
}
