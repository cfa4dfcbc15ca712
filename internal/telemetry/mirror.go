package telemetry

import (
	"context"

	"github.com/MrSnakeDoc/castplay/internal/domain"
	"github.com/MrSnakeDoc/castplay/internal/logger"
)

// Recorder persists playback events
type Recorder interface {
	Record(ctx context.Context, ev domain.PlaybackEvent) error
}

// Mirror writes every event to a primary recorder and copies it to
// secondary sinks. Only the primary's error is returned; sink failures are
// logged.
type Mirror struct {
	primary Recorder
	sinks   []Recorder
	log     logger.Logger
}

func NewMirror(primary Recorder, log logger.Logger, sinks ...Recorder) *Mirror {
	kept := make([]Recorder, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			kept = append(kept, s)
		}
	}
	return &Mirror{primary: primary, sinks: kept, log: log}
}

func (m *Mirror) Record(ctx context.Context, ev domain.PlaybackEvent) error {
	err := m.primary.Record(ctx, ev)
	for _, sink := range m.sinks {
		if serr := sink.Record(ctx, ev); serr != nil && m.log != nil {
			m.log.Warn("failed to mirror playback event",
				logger.String("track", ev.Track),
				logger.String("device", ev.DeviceName),
				logger.Error(serr))
		}
	}
	return err
}
