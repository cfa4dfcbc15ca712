package telemetry

const schemaPlaybackEvents = `
CREATE TABLE IF NOT EXISTS playback_events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	play_id TEXT,
	track_name TEXT NOT NULL,
	device_name TEXT,
	device_ip TEXT,
	timestamp_utc TEXT NOT NULL,
	status TEXT NOT NULL CHECK (status IN ('success', 'failed')),
	error_message TEXT
);`

const schemaPlaybackEventsIndexes = `
CREATE INDEX IF NOT EXISTS idx_playback_events_timestamp ON playback_events(timestamp_utc);
CREATE INDEX IF NOT EXISTS idx_playback_events_track_name ON playback_events(track_name);
CREATE INDEX IF NOT EXISTS idx_playback_events_device_name ON playback_events(device_name);`

// EnsureSchema creates the events table and its indexes if missing.
func (s *Store) EnsureSchema() error {
	for _, stmt := range []string{schemaPlaybackEvents, schemaPlaybackEventsIndexes} {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
