package telemetry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/MrSnakeDoc/castplay/internal/domain"
)

// timeLayout is fixed width so that timestamps sort lexically
const timeLayout = "2006-01-02T15:04:05.000000Z07:00"

// DefaultBusyTimeout is applied when Options.BusyTimeout is zero
const DefaultBusyTimeout = 5 * time.Second

// Store is the SQLite-backed playback event log.
// Writes are serialized; the database is opened with a single connection so
// that in-memory databases are shared by every query.
type Store struct {
	db  *sql.DB
	mu  sync.Mutex
	now func() time.Time
}

type Options struct {
	BusyTimeout time.Duration
	// Now overrides the clock used for default timestamps and windows
	Now func() time.Time
}

// Open opens (creating if needed) the database at path and ensures the schema.
// path may be ":memory:".
func Open(path string, options Options) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("telemetry: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	busy := options.BusyTimeout
	if busy <= 0 {
		busy = DefaultBusyTimeout
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		fmt.Sprintf("PRAGMA busy_timeout=%d", int(busy/time.Millisecond)),
		"PRAGMA temp_store=MEMORY",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("telemetry: %s: %w", p, err)
		}
	}

	store := newStore(db, options.Now)
	if err := store.EnsureSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("telemetry: ensure schema: %w", err)
	}
	return store, nil
}

func newStore(db *sql.DB, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{db: db, now: now}
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record appends one event. A zero Timestamp is replaced by the current time.
func (s *Store) Record(ctx context.Context, ev domain.PlaybackEvent) error {
	if s == nil || s.db == nil {
		return errors.New("telemetry: missing database connection")
	}
	if ev.Status != domain.StatusSuccess && ev.Status != domain.StatusFailed {
		return fmt.Errorf("telemetry: invalid status %q", ev.Status)
	}
	ts := ev.Timestamp
	if ts.IsZero() {
		ts = s.now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO playback_events
			(play_id, track_name, device_name, device_ip, timestamp_utc, status, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		nullString(ev.PlayID),
		ev.Track,
		nullString(ev.DeviceName),
		nullString(ev.DeviceAddress),
		formatTime(ts),
		string(ev.Status),
		nullString(ev.ErrorMessage),
	)
	if err != nil {
		return fmt.Errorf("telemetry: insert event: %w", err)
	}
	return nil
}

// Count returns the total number of recorded events
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM playback_events`).Scan(&n); err != nil {
		return 0, fmt.Errorf("telemetry: count events: %w", err)
	}
	return n, nil
}

// Health never fails; problems are reported in the returned value.
func (s *Store) Health(ctx context.Context) domain.Health {
	if s == nil || s.db == nil {
		return domain.Health{Status: "unhealthy", Message: "telemetry database not configured"}
	}
	if err := s.db.PingContext(ctx); err != nil {
		return domain.Health{Status: "unhealthy", Message: fmt.Sprintf("database connection failed: %v", err)}
	}
	n, err := s.Count(ctx)
	if err != nil {
		return domain.Health{Status: "unhealthy", DatabaseConnected: true, Message: err.Error()}
	}
	return domain.Health{
		Status:            "healthy",
		DatabaseConnected: true,
		TotalEvents:       n,
		Message:           fmt.Sprintf("telemetry operational with %d events recorded", n),
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
