package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrSnakeDoc/castplay/internal/domain"
)

func newTestStore(t *testing.T, now time.Time) *Store {
	t.Helper()

	store, err := Open(":memory:", Options{Now: func() time.Time { return now }})
	if err != nil {
		t.Fatalf("open telemetry: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func record(t *testing.T, store *Store, track string, status domain.Status, ts time.Time) {
	t.Helper()
	ev := domain.PlaybackEvent{
		Track:         track,
		DeviceName:    "kitchen",
		DeviceAddress: "192.168.1.50",
		Timestamp:     ts,
		Status:        status,
	}
	if status == domain.StatusFailed {
		ev.ErrorMessage = "load failed"
	}
	if err := store.Record(context.Background(), ev); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
}

func day(y int, m time.Month, d, h int) time.Time {
	return time.Date(y, m, d, h, 0, 0, 0, time.UTC)
}

func TestEnsureSchemaIdempotent(t *testing.T) {
	store := newTestStore(t, time.Now())
	if err := store.EnsureSchema(); err != nil {
		t.Fatalf("second EnsureSchema() error = %v", err)
	}

	var n int
	err := store.db.QueryRow(`
		SELECT COUNT(*) FROM sqlite_master
		WHERE type = 'index' AND tbl_name = 'playback_events' AND name LIKE 'idx_%'`).Scan(&n)
	if err != nil {
		t.Fatalf("query sqlite_master: %v", err)
	}
	if n != 3 {
		t.Errorf("index count = %d, want 3", n)
	}
}

func TestRecordValidation(t *testing.T) {
	store := newTestStore(t, time.Now())
	ctx := context.Background()

	if err := store.Record(ctx, domain.PlaybackEvent{Track: "a", Status: "attempted"}); err == nil {
		t.Error("Record() with unknown status should fail")
	}
}

func TestRecordDefaultsTimestamp(t *testing.T) {
	now := day(2024, 3, 10, 12)
	store := newTestStore(t, now)
	ctx := context.Background()

	if err := store.Record(ctx, domain.PlaybackEvent{Track: "bells", Status: domain.StatusSuccess}); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	events, err := store.RecentEvents(ctx, 10)
	if err != nil {
		t.Fatalf("RecentEvents() error = %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("RecentEvents() len = %d, want 1", len(events))
	}
	if !events[0].Timestamp.Equal(now) {
		t.Errorf("Timestamp = %v, want %v", events[0].Timestamp, now)
	}
	if events[0].DeviceName != "" || events[0].ErrorMessage != "" {
		t.Errorf("optional fields should be empty, got %+v", events[0])
	}
}

func TestRecentEvents(t *testing.T) {
	store := newTestStore(t, time.Now())
	ctx := context.Background()

	record(t, store, "a", domain.StatusSuccess, day(2024, 1, 1, 8))
	record(t, store, "b", domain.StatusFailed, day(2024, 1, 3, 8))
	record(t, store, "c", domain.StatusSuccess, day(2024, 1, 2, 8))
	record(t, store, "d", domain.StatusSuccess, day(2024, 1, 3, 8))

	events, err := store.RecentEvents(ctx, 3)
	if err != nil {
		t.Fatalf("RecentEvents() error = %v", err)
	}

	want := []string{"d", "b", "c"}
	if len(events) != len(want) {
		t.Fatalf("RecentEvents() len = %d, want %d", len(events), len(want))
	}
	for i, w := range want {
		if events[i].Track != w {
			t.Errorf("events[%d].Track = %q, want %q", i, events[i].Track, w)
		}
	}
	if events[1].Status != domain.StatusFailed || events[1].ErrorMessage != "load failed" {
		t.Errorf("events[1] = %+v, want failed with message", events[1])
	}
	if events[0].DeviceAddress != "192.168.1.50" {
		t.Errorf("DeviceAddress = %q", events[0].DeviceAddress)
	}
}

func TestStatsByDay(t *testing.T) {
	store := newTestStore(t, time.Now())
	ctx := context.Background()

	record(t, store, "a", domain.StatusSuccess, day(2024, 1, 1, 9))
	record(t, store, "b", domain.StatusSuccess, day(2024, 1, 1, 21))
	record(t, store, "a", domain.StatusFailed, day(2024, 1, 2, 7))

	stats, err := store.StatsByPeriod(ctx, domain.Day, 7)
	if err != nil {
		t.Fatalf("StatsByPeriod() error = %v", err)
	}

	want := []domain.PeriodStats{
		{Period: "2024-01-02", Success: 0, Failed: 1},
		{Period: "2024-01-01", Success: 2, Failed: 0},
	}
	if len(stats) != len(want) {
		t.Fatalf("StatsByPeriod() = %+v, want %+v", stats, want)
	}
	for i := range want {
		if stats[i] != want[i] {
			t.Errorf("stats[%d] = %+v, want %+v", i, stats[i], want[i])
		}
	}
}

func TestStatsByWeekAndMonth(t *testing.T) {
	store := newTestStore(t, time.Now())
	ctx := context.Background()

	// 2023-12-31 is a Sunday in ISO week 2023-W52; 2024-01-01 starts 2024-W01
	record(t, store, "a", domain.StatusSuccess, day(2023, 12, 31, 10))
	record(t, store, "a", domain.StatusSuccess, day(2024, 1, 1, 10))
	record(t, store, "b", domain.StatusFailed, day(2024, 1, 7, 23))
	record(t, store, "b", domain.StatusSuccess, day(2024, 2, 15, 10))

	weeks, err := store.StatsByPeriod(ctx, domain.Week, 10)
	if err != nil {
		t.Fatalf("StatsByPeriod(week) error = %v", err)
	}
	wantWeeks := []domain.PeriodStats{
		{Period: "2024-W07", Success: 1},
		{Period: "2024-W01", Success: 1, Failed: 1},
		{Period: "2023-W52", Success: 1},
	}
	if len(weeks) != len(wantWeeks) {
		t.Fatalf("weeks = %+v, want %+v", weeks, wantWeeks)
	}
	for i := range wantWeeks {
		if weeks[i] != wantWeeks[i] {
			t.Errorf("weeks[%d] = %+v, want %+v", i, weeks[i], wantWeeks[i])
		}
	}

	months, err := store.StatsByPeriod(ctx, domain.Month, 1)
	if err != nil {
		t.Fatalf("StatsByPeriod(month) error = %v", err)
	}
	if len(months) != 1 || months[0] != (domain.PeriodStats{Period: "2024-02", Success: 1}) {
		t.Errorf("months = %+v, want [2024-02 1/0]", months)
	}
}

func TestStatsByPeriodUnknownGranularity(t *testing.T) {
	store := newTestStore(t, time.Now())
	if _, err := store.StatsByPeriod(context.Background(), "year", 5); err == nil {
		t.Error("StatsByPeriod(year) should fail")
	}
}

func TestTopTracksWindow(t *testing.T) {
	now := day(2024, 6, 30, 12)
	store := newTestStore(t, now)
	ctx := context.Background()

	inside := now.AddDate(0, 0, -5)
	outside := now.AddDate(0, 0, -40)
	for i := 0; i < 3; i++ {
		record(t, store, "A", domain.StatusSuccess, inside)
	}
	for i := 0; i < 5; i++ {
		record(t, store, "B", domain.StatusSuccess, inside.Add(time.Duration(i)*time.Minute))
	}
	for i := 0; i < 100; i++ {
		record(t, store, "A", domain.StatusSuccess, outside)
	}

	top, err := store.TopTracks(ctx, 1, 30)
	if err != nil {
		t.Fatalf("TopTracks() error = %v", err)
	}
	if len(top) != 1 || top[0].Track != "B" || top[0].PlayCount != 5 {
		t.Fatalf("TopTracks(1, 30) = %+v, want [{B 5}]", top)
	}
	if want := inside.Add(4 * time.Minute); !top[0].LastPlayed.Equal(want) {
		t.Errorf("LastPlayed = %v, want %v", top[0].LastPlayed, want)
	}

	all, err := store.TopTracks(ctx, 10, 0)
	if err != nil {
		t.Fatalf("TopTracks(all time) error = %v", err)
	}
	if len(all) != 2 || all[0].Track != "A" || all[0].PlayCount != 103 {
		t.Errorf("TopTracks(10, 0) = %+v, want A first with 103", all)
	}
}

func TestTopTracksIgnoresFailuresAndBreaksTies(t *testing.T) {
	now := day(2024, 6, 30, 12)
	store := newTestStore(t, now)
	ctx := context.Background()

	record(t, store, "zeta", domain.StatusSuccess, now.Add(-time.Hour))
	record(t, store, "alpha", domain.StatusSuccess, now.Add(-time.Hour))
	record(t, store, "alpha", domain.StatusFailed, now.Add(-time.Hour))
	record(t, store, "alpha", domain.StatusFailed, now.Add(-time.Hour))

	top, err := store.TopTracks(ctx, 10, 7)
	if err != nil {
		t.Fatalf("TopTracks() error = %v", err)
	}
	if len(top) != 2 || top[0].Track != "alpha" || top[1].Track != "zeta" {
		t.Fatalf("TopTracks() = %+v, want alpha then zeta", top)
	}
	if top[0].PlayCount != 1 {
		t.Errorf("alpha PlayCount = %d, want 1", top[0].PlayCount)
	}
}

func TestHealth(t *testing.T) {
	store := newTestStore(t, time.Now())
	ctx := context.Background()
	record(t, store, "a", domain.StatusSuccess, time.Now())

	h := store.Health(ctx)
	if h.Status != "healthy" || !h.DatabaseConnected || h.TotalEvents != 1 {
		t.Errorf("Health() = %+v", h)
	}

	_ = store.Close()
	h = store.Health(ctx)
	if h.Status != "unhealthy" || h.DatabaseConnected {
		t.Errorf("Health() after close = %+v", h)
	}
}

type fakeRecorder struct {
	events []domain.PlaybackEvent
	err    error
}

func (f *fakeRecorder) Record(_ context.Context, ev domain.PlaybackEvent) error {
	f.events = append(f.events, ev)
	return f.err
}

func TestMirror(t *testing.T) {
	primaryErr := errors.New("disk full")
	primary := &fakeRecorder{err: primaryErr}
	failing := &fakeRecorder{err: errors.New("redis down")}
	ok := &fakeRecorder{}

	m := NewMirror(primary, nil, failing, nil, ok)
	err := m.Record(context.Background(), domain.PlaybackEvent{Track: "a", Status: domain.StatusSuccess})
	if !errors.Is(err, primaryErr) {
		t.Errorf("Record() error = %v, want primary error", err)
	}
	if len(primary.events) != 1 || len(failing.events) != 1 || len(ok.events) != 1 {
		t.Errorf("every sink should see the event once: %d %d %d",
			len(primary.events), len(failing.events), len(ok.events))
	}
}
