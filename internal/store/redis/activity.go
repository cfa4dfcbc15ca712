package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/castplay/internal/domain"
)

// DefaultActivityTTL is how long a device's last play is kept
const DefaultActivityTTL = 30 * 24 * time.Hour

// ErrNoActivity is returned when a device has no recorded play
var ErrNoActivity = errors.New("no activity recorded")

const activityTimeLayout = time.RFC3339Nano

// Store keeps a live view of playback activity in Redis: the last play per
// device and success counters per track. The SQLite log remains the record
// of truth; this is a fast secondary copy.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore creates a new Redis activity store
func NewStore(client *redis.Client) *Store {
	return &Store{
		client: client,
		ttl:    DefaultActivityTTL,
	}
}

// Record mirrors one playback event. Events without a device name are
// counted but not attached to any device.
func (s *Store) Record(ctx context.Context, ev domain.PlaybackEvent) error {
	ts := ev.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	stamp := ts.UTC().Format(activityTimeLayout)

	pipe := s.client.TxPipeline()
	if ev.DeviceName != "" {
		key := LastPlayKey(ev.DeviceName)
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key,
			"play_id", ev.PlayID,
			"track", ev.Track,
			"address", ev.DeviceAddress,
			"status", string(ev.Status),
			"error", ev.ErrorMessage,
			"timestamp", stamp,
		)
		pipe.Expire(ctx, key, s.ttl)
	}
	if ev.Status == domain.StatusSuccess {
		pipe.ZIncrBy(ctx, KeyTrackPlays, 1, ev.Track)
		pipe.HSet(ctx, KeyTrackLastPlayed, ev.Track, stamp)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record activity: %w", err)
	}
	return nil
}

// LastPlay returns the most recent play on a device, or ErrNoActivity.
func (s *Store) LastPlay(ctx context.Context, device string) (*domain.PlaybackEvent, error) {
	fields, err := s.client.HGetAll(ctx, LastPlayKey(device)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get last play: %w", err)
	}
	if len(fields) == 0 {
		return nil, ErrNoActivity
	}

	ev := &domain.PlaybackEvent{
		PlayID:        fields["play_id"],
		Track:         fields["track"],
		DeviceName:    device,
		DeviceAddress: fields["address"],
		Status:        domain.Status(fields["status"]),
		ErrorMessage:  fields["error"],
	}
	if ts, err := time.Parse(activityTimeLayout, fields["timestamp"]); err == nil {
		ev.Timestamp = ts
	}
	return ev, nil
}

// TrackPlays returns tracks ranked by successful plays since counting began.
func (s *Store) TrackPlays(ctx context.Context, limit int) ([]domain.TrackCount, error) {
	if limit <= 0 {
		return []domain.TrackCount{}, nil
	}
	ranked, err := s.client.ZRevRangeWithScores(ctx, KeyTrackPlays, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get track plays: %w", err)
	}
	if len(ranked) == 0 {
		return []domain.TrackCount{}, nil
	}

	names := make([]string, 0, len(ranked))
	for _, z := range ranked {
		names = append(names, fmt.Sprint(z.Member))
	}
	stamps, err := s.client.HMGet(ctx, KeyTrackLastPlayed, names...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get track last played: %w", err)
	}

	counts := make([]domain.TrackCount, 0, len(ranked))
	for i, z := range ranked {
		tc := domain.TrackCount{Track: names[i], PlayCount: int(z.Score)}
		if raw, ok := stamps[i].(string); ok {
			if ts, err := time.Parse(activityTimeLayout, raw); err == nil {
				tc.LastPlayed = ts
			}
		}
		counts = append(counts, tc)
	}
	return counts, nil
}

// Ping reports whether Redis answers
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// ActiveDevices lists devices that have a last play recorded.
func (s *Store) ActiveDevices(ctx context.Context) ([]string, error) {
	names := []string{}
	iter := s.client.Scan(ctx, 0, KeyPrefixDevice+"*:last", 0).Iterator()
	for iter.Next(ctx) {
		name, err := ExtractDeviceName(iter.Val())
		if err != nil {
			continue
		}
		names = append(names, name)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan devices: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

// ForgetDevice drops the activity of a device
func (s *Store) ForgetDevice(ctx context.Context, device string) error {
	if err := s.client.Del(ctx, LastPlayKey(device)).Err(); err != nil {
		return fmt.Errorf("failed to forget device %s: %w", device, err)
	}
	return nil
}

// SeedTrackPlays replaces the track counters with counts taken from the
// telemetry log, used when Redis comes up empty or missed events while down.
func (s *Store) SeedTrackPlays(ctx context.Context, counts []domain.TrackCount) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, KeyTrackPlays, KeyTrackLastPlayed)
	for _, c := range counts {
		pipe.ZAdd(ctx, KeyTrackPlays, redis.Z{Score: float64(c.PlayCount), Member: c.Track})
		if !c.LastPlayed.IsZero() {
			pipe.HSet(ctx, KeyTrackLastPlayed, c.Track, c.LastPlayed.UTC().Format(activityTimeLayout))
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to seed track plays: %w", err)
	}
	return nil
}

// TrackCount returns the number of tracks with a counter
func (s *Store) TrackCount(ctx context.Context) (int64, error) {
	n, err := s.client.ZCard(ctx, KeyTrackPlays).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count tracks: %w", err)
	}
	return n, nil
}
