package domain

import (
	"fmt"
	"strings"
	"time"
)

// Granularity is the bucket size used to aggregate playback events.
type Granularity string

const (
	Day   Granularity = "day"
	Week  Granularity = "week"
	Month Granularity = "month"
)

// ParseGranularity accepts both the bucket names and their HTTP route aliases
// (daily, weekly, monthly).
func ParseGranularity(s string) (Granularity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "day", "daily":
		return Day, nil
	case "week", "weekly":
		return Week, nil
	case "month", "monthly":
		return Month, nil
	default:
		return "", fmt.Errorf("unknown granularity %q", s)
	}
}

// PeriodStats holds outcome counts for one period, labelled as
// 2006-01-02 (day), 2006-W01 (ISO week) or 2006-01 (month).
type PeriodStats struct {
	Period  string `json:"period"`
	Success int    `json:"success_count"`
	Failed  int    `json:"failure_count"`
}

// TrackCount is one row of the top tracks ranking.
type TrackCount struct {
	Track      string    `json:"track_name"`
	PlayCount  int       `json:"play_count"`
	LastPlayed time.Time `json:"last_played"`
}

// Health describes the state of the telemetry store.
type Health struct {
	Status            string `json:"status"`
	DatabaseConnected bool   `json:"database_connected"`
	TotalEvents       int64  `json:"total_events"`
	Message           string `json:"message"`
}
