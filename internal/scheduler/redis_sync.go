package scheduler

import (
	"context"

	"github.com/MrSnakeDoc/castplay/internal/domain"
	"github.com/MrSnakeDoc/castplay/internal/logger"
)

// maxSeededTracks bounds how many ranked tracks are copied to Redis
const maxSeededTracks = 10000

// TrackSource ranks tracks from the telemetry log
type TrackSource interface {
	TopTracks(ctx context.Context, limit, windowDays int) ([]domain.TrackCount, error)
}

// TrackSink holds the Redis track counters
type TrackSink interface {
	TrackCount(ctx context.Context) (int64, error)
	SeedTrackPlays(ctx context.Context, counts []domain.TrackCount) error
}

// RedisSyncer rebuilds the Redis track counters from the telemetry log on
// startup when Redis holds none (fresh instance or flushed).
type RedisSyncer struct {
	source TrackSource
	sink   TrackSink
	logger logger.Logger
}

// NewRedisSyncer creates a new Redis syncer
func NewRedisSyncer(source TrackSource, sink TrackSink, log logger.Logger) *RedisSyncer {
	return &RedisSyncer{
		source: source,
		sink:   sink,
		logger: log,
	}
}

// Sync seeds the counters if Redis has none. It reports whether it wrote.
func (rs *RedisSyncer) Sync(ctx context.Context) (bool, error) {
	n, err := rs.sink.TrackCount(ctx)
	if err != nil {
		return false, err
	}
	if n > 0 {
		rs.logger.Debug("redis track counters present, skipping sync",
			logger.Int64("tracks", n))
		return false, nil
	}

	counts, err := rs.source.TopTracks(ctx, maxSeededTracks, 0)
	if err != nil {
		return false, err
	}
	if len(counts) == 0 {
		rs.logger.Info("no successful plays in telemetry, nothing to sync")
		return false, nil
	}

	if err := rs.sink.SeedTrackPlays(ctx, counts); err != nil {
		return false, err
	}
	rs.logger.Info("seeded redis track counters from telemetry",
		logger.Int("tracks", len(counts)))
	return true, nil
}
