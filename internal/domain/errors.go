package domain

import "errors"

var (
	// ErrUnknownDevice means the device name is not in the registry.
	ErrUnknownDevice = errors.New("unknown device")
	// ErrInvalidTrack means the track name is empty or not a plain file name.
	ErrInvalidTrack = errors.New("invalid track name")
	// ErrTrackNotFound means no media file exists for the track.
	ErrTrackNotFound = errors.New("track not found")
	// ErrDeviceUnready means the cast session did not become ready in time.
	ErrDeviceUnready = errors.New("cast device not ready")
	// ErrPlaybackFailed means every load attempt failed.
	ErrPlaybackFailed = errors.New("playback failed")
)

// PlaybackError is returned by the orchestrator. Kind is one of the sentinel
// errors above and Err is the underlying cause, if any.
type PlaybackError struct {
	Kind     error
	Err      error
	Attempts int
}

func (e *PlaybackError) Error() string {
	if e.Err == nil {
		return e.Kind.Error()
	}
	return e.Kind.Error() + ": " + e.Err.Error()
}

// Is matches the error kind, so errors.Is(err, ErrPlaybackFailed) works.
func (e *PlaybackError) Is(target error) bool {
	return target == e.Kind
}

func (e *PlaybackError) Unwrap() error { return e.Err }

// NewPlaybackError builds a PlaybackError of the given kind.
func NewPlaybackError(kind, cause error) *PlaybackError {
	return &PlaybackError{Kind: kind, Err: cause}
}
