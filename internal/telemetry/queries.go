package telemetry

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/castplay/internal/domain"
)

// RecentEvents returns up to limit events, most recent first.
func (s *Store) RecentEvents(ctx context.Context, limit int) ([]domain.PlaybackEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, play_id, track_name, device_name, device_ip, timestamp_utc, status, error_message
		FROM playback_events
		ORDER BY timestamp_utc DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("telemetry: recent events: %w", err)
	}
	defer rows.Close()

	events := make([]domain.PlaybackEvent, 0)
	for rows.Next() {
		var (
			ev                                   domain.PlaybackEvent
			ts, status                           string
			playID, devName, devAddr, errMessage sql.NullString
		)
		if err := rows.Scan(&ev.ID, &playID, &ev.Track, &devName, &devAddr, &ts, &status, &errMessage); err != nil {
			return nil, fmt.Errorf("telemetry: scan event: %w", err)
		}
		if ev.Timestamp, err = parseTime(ts); err != nil {
			return nil, fmt.Errorf("telemetry: event %d: bad timestamp %q: %w", ev.ID, ts, err)
		}
		ev.PlayID = playID.String
		ev.DeviceName = devName.String
		ev.DeviceAddress = devAddr.String
		ev.ErrorMessage = errMessage.String
		ev.Status = domain.Status(status)
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("telemetry: recent events: %w", err)
	}
	return events, nil
}

// periodExpr maps a granularity to the SQL grouping key. Weeks are keyed by
// their Monday and relabeled as ISO weeks afterwards.
func periodExpr(g domain.Granularity) (string, error) {
	switch g {
	case domain.Day:
		return "substr(timestamp_utc, 1, 10)", nil
	case domain.Week:
		return "date(timestamp_utc, 'weekday 0', '-6 days')", nil
	case domain.Month:
		return "substr(timestamp_utc, 1, 7)", nil
	default:
		return "", fmt.Errorf("telemetry: unknown granularity %q", g)
	}
}

// StatsByPeriod counts successes and failures per UTC period, most recent
// period first. Labels are "2024-01-02", "2024-W01" and "2024-01".
func (s *Store) StatsByPeriod(ctx context.Context, g domain.Granularity, limit int) ([]domain.PeriodStats, error) {
	expr, err := periodExpr(g)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+expr+` AS period,
			SUM(CASE WHEN status = 'success' THEN 1 ELSE 0 END),
			SUM(CASE WHEN status = 'success' THEN 0 ELSE 1 END)
		FROM playback_events
		GROUP BY period
		ORDER BY period DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("telemetry: stats by %s: %w", g, err)
	}
	defer rows.Close()

	stats := make([]domain.PeriodStats, 0)
	for rows.Next() {
		var p domain.PeriodStats
		if err := rows.Scan(&p.Period, &p.Success, &p.Failed); err != nil {
			return nil, fmt.Errorf("telemetry: scan stats: %w", err)
		}
		if g == domain.Week {
			if p.Period, err = isoWeekLabel(p.Period); err != nil {
				return nil, err
			}
		}
		stats = append(stats, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("telemetry: stats by %s: %w", g, err)
	}
	return stats, nil
}

// isoWeekLabel turns the Monday of a week into "YYYY-Www"
func isoWeekLabel(monday string) (string, error) {
	d, err := time.Parse("2006-01-02", monday)
	if err != nil {
		return "", fmt.Errorf("telemetry: bad week start %q: %w", monday, err)
	}
	year, week := d.ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week), nil
}

// TopTracks ranks tracks by successful plays within the last windowDays days
// (all time when windowDays is 0). Ties are broken by track name.
func (s *Store) TopTracks(ctx context.Context, limit, windowDays int) ([]domain.TrackCount, error) {
	since := ""
	if windowDays > 0 {
		since = formatTime(s.now().AddDate(0, 0, -windowDays))
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT track_name, COUNT(*) AS play_count, MAX(timestamp_utc)
		FROM playback_events
		WHERE status = 'success' AND timestamp_utc >= ?
		GROUP BY track_name
		ORDER BY play_count DESC, track_name ASC
		LIMIT ?`, since, limit)
	if err != nil {
		return nil, fmt.Errorf("telemetry: top tracks: %w", err)
	}
	defer rows.Close()

	tracks := make([]domain.TrackCount, 0)
	for rows.Next() {
		var (
			tc   domain.TrackCount
			last string
		)
		if err := rows.Scan(&tc.Track, &tc.PlayCount, &last); err != nil {
			return nil, fmt.Errorf("telemetry: scan top track: %w", err)
		}
		if tc.LastPlayed, err = parseTime(last); err != nil {
			return nil, fmt.Errorf("telemetry: bad timestamp %q: %w", last, err)
		}
		tracks = append(tracks, tc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("telemetry: top tracks: %w", err)
	}
	return tracks, nil
}
