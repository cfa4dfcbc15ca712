package playback

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/castplay/internal/cast"
	"github.com/MrSnakeDoc/castplay/internal/domain"
	"github.com/MrSnakeDoc/castplay/internal/logger"
	"github.com/MrSnakeDoc/castplay/internal/media"
)

const (
	// DefaultAttempts is the number of load commands sent before giving up
	DefaultAttempts = 5
	// DefaultRecordTimeout bounds the telemetry write of one event
	DefaultRecordTimeout = 2 * time.Second
)

// Registry resolves device names
type Registry interface {
	Lookup(name string) (domain.Device, bool)
}

// Media resolves tracks to downloadable URLs
type Media interface {
	Resolve(track string) (string, error)
	PublicURL(track string) (string, error)
	ContentType(track string) string
}

// Recorder persists the outcome of a play request
type Recorder interface {
	Record(ctx context.Context, ev domain.PlaybackEvent) error
}

type Options struct {
	Registry Registry
	Media    Media
	Dialer   cast.Dialer
	Recorder Recorder // optional
	Logger   logger.Logger

	Attempts      int
	RetryDelay    time.Duration
	RecordTimeout time.Duration

	Clock func() time.Time
	NewID func() string
}

// Player runs play requests. It keeps no state between calls and is safe
// for concurrent use: every request opens and closes its own session.
type Player struct {
	registry Registry
	media    Media
	dialer   cast.Dialer
	recorder Recorder
	log      logger.Logger

	attempts      int
	retryDelay    time.Duration
	recordTimeout time.Duration

	now   func() time.Time
	newID func() string
}

func New(opts Options) *Player {
	p := &Player{
		registry:      opts.Registry,
		media:         opts.Media,
		dialer:        opts.Dialer,
		recorder:      opts.Recorder,
		log:           opts.Logger,
		attempts:      opts.Attempts,
		retryDelay:    opts.RetryDelay,
		recordTimeout: opts.RecordTimeout,
		now:           opts.Clock,
		newID:         opts.NewID,
	}
	if p.attempts <= 0 {
		p.attempts = DefaultAttempts
	}
	if p.recordTimeout <= 0 {
		p.recordTimeout = DefaultRecordTimeout
	}
	if p.now == nil {
		p.now = time.Now
	}
	if p.newID == nil {
		p.newID = uuid.NewString
	}
	if p.log == nil {
		p.log = logger.New("error", false)
	}
	return p
}

// Play casts track on the named device.
//
// Errors are *domain.PlaybackError values of kind ErrUnknownDevice,
// ErrInvalidTrack, ErrTrackNotFound, ErrDeviceUnready or ErrPlaybackFailed.
// Exactly one event is recorded per call; a failing recorder is logged and
// never changes the returned result.
func (p *Player) Play(ctx context.Context, track, deviceName string) (*domain.Ack, error) {
	start := p.now()
	ev := domain.PlaybackEvent{
		PlayID:     p.newID(),
		Track:      track,
		DeviceName: deviceName,
	}

	ack, err := p.play(ctx, &ev)

	ev.Timestamp = p.now().UTC()
	if err != nil {
		ev.Status = domain.StatusFailed
		ev.ErrorMessage = err.Error()
	} else {
		ev.Status = domain.StatusSuccess
	}
	p.record(ctx, ev)

	fields := []logger.Field{
		logger.String("play_id", ev.PlayID),
		logger.String("track", ev.Track),
		logger.String("device", ev.DeviceName),
		logger.String("address", ev.DeviceAddress),
		logger.Duration("took", p.now().Sub(start)),
	}
	if err != nil {
		p.log.Warn("play request failed", append(fields, logger.Error(err))...)
		return nil, err
	}
	p.log.Info("play request succeeded", append(fields, logger.Int("attempts", ack.Attempts))...)
	return ack, nil
}

// play runs the request steps in order, filling ev as devices and tracks
// get resolved.
func (p *Player) play(ctx context.Context, ev *domain.PlaybackEvent) (*domain.Ack, error) {
	device, ok := p.registry.Lookup(ev.DeviceName)
	if !ok {
		return nil, domain.NewPlaybackError(domain.ErrUnknownDevice, fmt.Errorf("no device named %q", ev.DeviceName))
	}
	ev.DeviceAddress = device.Address

	requested := ev.Track
	stem, err := media.Sanitize(requested)
	if err != nil {
		return nil, domain.NewPlaybackError(domain.ErrInvalidTrack, fmt.Errorf("%q", requested))
	}
	ev.Track = stem

	stem, err = p.media.Resolve(requested)
	if err != nil {
		return nil, domain.NewPlaybackError(domain.ErrTrackNotFound, fmt.Errorf("no media file for %q", ev.Track))
	}
	ev.Track = stem
	mediaURL, err := p.media.PublicURL(stem)
	if err != nil {
		return nil, domain.NewPlaybackError(domain.ErrTrackNotFound, err)
	}
	contentType := p.media.ContentType(stem)

	session, err := p.dialer.Dial(ctx, device.Address)
	if err != nil {
		return nil, domain.NewPlaybackError(domain.ErrDeviceUnready, err)
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			p.log.Debug("failed to close cast session",
				logger.String("device", device.Name), logger.Error(cerr))
		}
	}()

	// Nothing may be playing, so a failed stop is expected now and then
	if err := session.StopMedia(); err != nil {
		p.log.Debug("stop media failed, continuing",
			logger.String("device", device.Name), logger.Error(err))
	}

	attempts, err := p.load(ctx, session, mediaURL, contentType, device.Name)
	if err != nil {
		perr := domain.NewPlaybackError(domain.ErrPlaybackFailed, err)
		perr.Attempts = attempts
		return nil, perr
	}

	return &domain.Ack{
		PlayID:   ev.PlayID,
		Track:    stem,
		Device:   device.Name,
		URL:      mediaURL,
		Attempts: attempts,
	}, nil
}

// load sends the load command until it succeeds or the attempt budget is
// spent. It returns the number of attempts made and the last error.
func (p *Player) load(ctx context.Context, s cast.Session, mediaURL, contentType, device string) (int, error) {
	var lastErr error
	for attempt := 1; attempt <= p.attempts; attempt++ {
		err := s.Load(mediaURL, contentType)
		if err == nil {
			return attempt, nil
		}
		lastErr = err
		p.log.Debug("load attempt failed",
			logger.String("device", device),
			logger.Int("attempt", attempt),
			logger.Int("max_attempts", p.attempts),
			logger.Error(err))

		if attempt == p.attempts {
			break
		}
		if err := p.wait(ctx); err != nil {
			return attempt, errors.Join(lastErr, err)
		}
	}
	return p.attempts, lastErr
}

// wait sleeps RetryDelay between attempts, returning early if ctx is done
func (p *Player) wait(ctx context.Context) error {
	if p.retryDelay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(p.retryDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// record writes ev under its own deadline so a cancelled request still
// leaves a trace.
func (p *Player) record(ctx context.Context, ev domain.PlaybackEvent) {
	if p.recorder == nil {
		return
	}
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.recordTimeout)
	defer cancel()

	if err := p.recorder.Record(rctx, ev); err != nil {
		p.log.Error("failed to record playback event",
			logger.String("play_id", ev.PlayID),
			logger.String("track", ev.Track),
			logger.Error(err))
	}
}
