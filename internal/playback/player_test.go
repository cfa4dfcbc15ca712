package playback

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/MrSnakeDoc/castplay/internal/cast"
	"github.com/MrSnakeDoc/castplay/internal/domain"
	"github.com/MrSnakeDoc/castplay/internal/logger"
	"github.com/MrSnakeDoc/castplay/internal/registry"
)

type fakeMedia struct {
	tracks map[string]bool
}

func (f *fakeMedia) Resolve(track string) (string, error) {
	name := path.Base(track)
	for _, stem := range []string{name, strings.TrimSuffix(name, ".mp3")} {
		if f.tracks[stem] {
			return stem, nil
		}
	}
	return "", domain.ErrTrackNotFound
}

func (f *fakeMedia) PublicURL(track string) (string, error) {
	if !f.tracks[track] {
		return "", domain.ErrTrackNotFound
	}
	return "http://192.168.1.10:8801/mp3/" + track + ".mp3", nil
}

func (f *fakeMedia) ContentType(string) string { return "audio/mpeg" }

type fakeSession struct {
	mu        sync.Mutex
	loadErrs  []error // consumed one per Load call; nil entries succeed
	stopErr   error
	loads     []string
	stopCalls int
	closed    bool
}

func (s *fakeSession) StopMedia() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopCalls++
	return s.stopErr
}

func (s *fakeSession) Load(mediaURL, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads = append(s.loads, mediaURL)
	if len(s.loadErrs) == 0 {
		return nil
	}
	err := s.loadErrs[0]
	s.loadErrs = s.loadErrs[1:]
	return err
}

func (s *fakeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

type fakeDialer struct {
	session *fakeSession
	err     error

	mu        sync.Mutex
	addresses []string
}

func (d *fakeDialer) Dial(_ context.Context, address string) (cast.Session, error) {
	d.mu.Lock()
	d.addresses = append(d.addresses, address)
	d.mu.Unlock()
	if d.err != nil {
		return nil, d.err
	}
	return d.session, nil
}

func (d *fakeDialer) calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.addresses)
}

type fakeRecorder struct {
	mu     sync.Mutex
	events []domain.PlaybackEvent
	err    error
}

func (r *fakeRecorder) Record(ctx context.Context, ev domain.PlaybackEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	r.events = append(r.events, ev)
	return r.err
}

type fixture struct {
	player   *Player
	dialer   *fakeDialer
	session  *fakeSession
	recorder *fakeRecorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	session := &fakeSession{}
	f := &fixture{
		dialer:   &fakeDialer{session: session},
		session:  session,
		recorder: &fakeRecorder{},
	}
	reg := registry.New([]domain.Device{
		{Name: "kitchen", Address: "192.168.1.50"},
		{Name: "office", Address: "192.168.1.51:8010"},
	})
	f.player = New(Options{
		Registry: reg,
		Media:    &fakeMedia{tracks: map[string]bool{"bells": true, "alarm": true, "intro.mp3": true}},
		Dialer:   f.dialer,
		Recorder: f.recorder,
		Logger:   logger.New("error", false),
		Clock:    func() time.Time { return time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC) },
		NewID:    func() string { return "play-1" },
	})
	return f
}

func (f *fixture) onlyEvent(t *testing.T) domain.PlaybackEvent {
	t.Helper()
	f.recorder.mu.Lock()
	defer f.recorder.mu.Unlock()
	if len(f.recorder.events) != 1 {
		t.Fatalf("recorded %d events, want exactly 1", len(f.recorder.events))
	}
	return f.recorder.events[0]
}

func TestPlaySuccess(t *testing.T) {
	f := newFixture(t)

	ack, err := f.player.Play(context.Background(), "bells", "kitchen")
	if err != nil {
		t.Fatalf("Play() error = %v", err)
	}

	if ack.PlayID != "play-1" || ack.Device != "kitchen" || ack.Track != "bells" || ack.Attempts != 1 {
		t.Errorf("Ack = %+v", ack)
	}
	if ack.URL != "http://192.168.1.10:8801/mp3/bells.mp3" {
		t.Errorf("Ack.URL = %q", ack.URL)
	}
	if f.dialer.addresses[0] != "192.168.1.50" {
		t.Errorf("dialed %q, want 192.168.1.50", f.dialer.addresses[0])
	}
	if f.session.stopCalls != 1 {
		t.Errorf("StopMedia calls = %d, want 1", f.session.stopCalls)
	}
	if !f.session.closed {
		t.Error("session was not closed")
	}

	ev := f.onlyEvent(t)
	if ev.Status != domain.StatusSuccess || ev.ErrorMessage != "" {
		t.Errorf("event = %+v, want success", ev)
	}
	if ev.PlayID != "play-1" || ev.DeviceAddress != "192.168.1.50" || ev.Track != "bells" {
		t.Errorf("event = %+v", ev)
	}
	if ev.Timestamp.Location() != time.UTC {
		t.Errorf("event timestamp not UTC: %v", ev.Timestamp)
	}
}

func TestPlayNormalizesTrackName(t *testing.T) {
	f := newFixture(t)

	ack, err := f.player.Play(context.Background(), "../bells.mp3", "kitchen")
	if err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	if ack.Track != "bells" {
		t.Errorf("Ack.Track = %q, want bells", ack.Track)
	}
	if ev := f.onlyEvent(t); ev.Track != "bells" {
		t.Errorf("event track = %q, want bells", ev.Track)
	}
}

func TestPlayTrackIDEndingInExtension(t *testing.T) {
	f := newFixture(t)

	ack, err := f.player.Play(context.Background(), "intro.mp3", "kitchen")
	if err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	if ack.Track != "intro.mp3" {
		t.Errorf("Ack.Track = %q, want intro.mp3", ack.Track)
	}
	if ev := f.onlyEvent(t); ev.Track != "intro.mp3" {
		t.Errorf("event track = %q, want intro.mp3", ev.Track)
	}
}

func TestPlayUnknownDevice(t *testing.T) {
	f := newFixture(t)

	_, err := f.player.Play(context.Background(), "bells", "garage")
	if !errors.Is(err, domain.ErrUnknownDevice) {
		t.Fatalf("Play() error = %v, want ErrUnknownDevice", err)
	}
	if f.dialer.calls() != 0 {
		t.Error("no session should be opened for an unknown device")
	}

	ev := f.onlyEvent(t)
	if ev.Status != domain.StatusFailed || ev.DeviceAddress != "" {
		t.Errorf("event = %+v, want failed with no address", ev)
	}
	if ev.DeviceName != "garage" {
		t.Errorf("event device = %q, want garage", ev.DeviceName)
	}
}

func TestPlayTrackNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.player.Play(context.Background(), "missing", "kitchen")
	if !errors.Is(err, domain.ErrTrackNotFound) {
		t.Fatalf("Play() error = %v, want ErrTrackNotFound", err)
	}
	if f.dialer.calls() != 0 {
		t.Error("no network call should happen for a missing track")
	}
	if ev := f.onlyEvent(t); ev.Status != domain.StatusFailed || ev.DeviceAddress != "192.168.1.50" {
		t.Errorf("event = %+v", ev)
	}
}

func TestPlayInvalidTrack(t *testing.T) {
	f := newFixture(t)

	_, err := f.player.Play(context.Background(), "..", "kitchen")
	if !errors.Is(err, domain.ErrInvalidTrack) {
		t.Fatalf("Play() error = %v, want ErrInvalidTrack", err)
	}
	if f.dialer.calls() != 0 {
		t.Error("no network call should happen for an invalid track")
	}
	f.onlyEvent(t)
}

func TestPlayDeviceUnready(t *testing.T) {
	f := newFixture(t)
	f.dialer.err = fmt.Errorf("%w: 192.168.1.50 after 10s", cast.ErrNotReady)

	_, err := f.player.Play(context.Background(), "bells", "kitchen")
	if !errors.Is(err, domain.ErrDeviceUnready) {
		t.Fatalf("Play() error = %v, want ErrDeviceUnready", err)
	}
	if !errors.Is(err, cast.ErrNotReady) {
		t.Errorf("Play() error should wrap the dial error: %v", err)
	}
	if len(f.session.loads) != 0 {
		t.Error("no load should be sent when the session is not ready")
	}
	if ev := f.onlyEvent(t); ev.Status != domain.StatusFailed || ev.ErrorMessage == "" {
		t.Errorf("event = %+v", ev)
	}
}

func TestPlayRetriesTransientFailures(t *testing.T) {
	for failures := 1; failures < DefaultAttempts; failures++ {
		t.Run(fmt.Sprintf("%d failures", failures), func(t *testing.T) {
			f := newFixture(t)
			for i := 0; i < failures; i++ {
				f.session.loadErrs = append(f.session.loadErrs, errors.New("load timeout"))
			}

			ack, err := f.player.Play(context.Background(), "bells", "kitchen")
			if err != nil {
				t.Fatalf("Play() error = %v", err)
			}
			if ack.Attempts != failures+1 {
				t.Errorf("Attempts = %d, want %d", ack.Attempts, failures+1)
			}
			if f.dialer.calls() != 1 {
				t.Errorf("dial calls = %d, retries must reuse the session", f.dialer.calls())
			}
			if ev := f.onlyEvent(t); ev.Status != domain.StatusSuccess {
				t.Errorf("event status = %q, want success", ev.Status)
			}
		})
	}
}

func TestPlayExhaustsRetries(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < DefaultAttempts; i++ {
		f.session.loadErrs = append(f.session.loadErrs, fmt.Errorf("load error %d", i+1))
	}

	_, err := f.player.Play(context.Background(), "bells", "kitchen")
	if !errors.Is(err, domain.ErrPlaybackFailed) {
		t.Fatalf("Play() error = %v, want ErrPlaybackFailed", err)
	}

	var perr *domain.PlaybackError
	if !errors.As(err, &perr) {
		t.Fatalf("error is %T, want *domain.PlaybackError", err)
	}
	if perr.Attempts != DefaultAttempts {
		t.Errorf("Attempts = %d, want %d", perr.Attempts, DefaultAttempts)
	}
	if perr.Err == nil || perr.Err.Error() != "load error 5" {
		t.Errorf("last error = %v, want load error 5", perr.Err)
	}
	if len(f.session.loads) != DefaultAttempts {
		t.Errorf("load calls = %d, want %d", len(f.session.loads), DefaultAttempts)
	}
	if !f.session.closed {
		t.Error("session was not closed")
	}

	ev := f.onlyEvent(t)
	if ev.Status != domain.StatusFailed || ev.ErrorMessage == "" {
		t.Errorf("event = %+v, want failed with message", ev)
	}
}

func TestPlayStopFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	f.session.stopErr = errors.New("no media session")

	if _, err := f.player.Play(context.Background(), "bells", "kitchen"); err != nil {
		t.Fatalf("Play() error = %v", err)
	}
}

func TestPlayRecorderFailureDoesNotChangeResult(t *testing.T) {
	f := newFixture(t)
	f.recorder.err = errors.New("database is locked")

	ack, err := f.player.Play(context.Background(), "bells", "kitchen")
	if err != nil {
		t.Fatalf("Play() error = %v, recorder failure leaked", err)
	}
	if ack == nil || ack.Attempts != 1 {
		t.Errorf("Ack = %+v", ack)
	}

	_, err = f.player.Play(context.Background(), "missing", "kitchen")
	if !errors.Is(err, domain.ErrTrackNotFound) {
		t.Errorf("Play() error = %v, want ErrTrackNotFound", err)
	}
}

func TestPlayRecordsAfterCancellation(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.player.Play(ctx, "bells", "office")
	if err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	if ev := f.onlyEvent(t); ev.DeviceAddress != "192.168.1.51:8010" {
		t.Errorf("event = %+v", ev)
	}
}

func TestPlayRetryDelayStopsOnCancel(t *testing.T) {
	f := newFixture(t)
	f.player.retryDelay = time.Hour
	f.session.loadErrs = []error{errors.New("busy"), errors.New("busy")}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := f.player.Play(ctx, "bells", "kitchen")
	if !errors.Is(err, domain.ErrPlaybackFailed) {
		t.Fatalf("Play() error = %v, want ErrPlaybackFailed", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Play() error should carry the deadline: %v", err)
	}
	if len(f.session.loads) != 1 {
		t.Errorf("load calls = %d, want 1", len(f.session.loads))
	}
	f.onlyEvent(t)
}

func TestPlayConcurrentRequests(t *testing.T) {
	f := newFixture(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			device := "kitchen"
			if i%2 == 0 {
				device = "office"
			}
			if _, err := f.player.Play(context.Background(), "alarm", device); err != nil {
				t.Errorf("Play() error = %v", err)
			}
		}(i)
	}
	wg.Wait()

	f.recorder.mu.Lock()
	defer f.recorder.mu.Unlock()
	if len(f.recorder.events) != 20 {
		t.Errorf("recorded %d events, want 20", len(f.recorder.events))
	}
}
