package domain

import "time"

// Status is the outcome of a playback attempt.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// PlaybackEvent is the durable record of one play request.
//
// Exactly one event is written per request, whatever the number of
// load attempts it took. Events are never updated once written.
type PlaybackEvent struct {
	// ID is assigned by the telemetry store on insert.
	ID int64 `json:"id"`

	// PlayID correlates the event with the acknowledgment returned to the client.
	PlayID string `json:"play_id,omitempty"`

	Track         string `json:"track_name"`
	DeviceName    string `json:"device_name,omitempty"`
	DeviceAddress string `json:"device_ip,omitempty"`

	// Timestamp is the UTC creation time of the event.
	Timestamp time.Time `json:"timestamp_utc"`

	Status       Status `json:"status"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// Ack is returned to the caller of a successful play request.
type Ack struct {
	PlayID   string `json:"play_id"`
	Track    string `json:"track"`
	Device   string `json:"device"`
	URL      string `json:"track_url"`
	Attempts int    `json:"attempts"`
}
