package clanrating

import (
	"time"

	"clantracker-backend/lib/timezone"
)

type HourMinute struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

type ScheduleConfig struct {
	// whole hours from UTC, the tracker never consults the host zone
	TimezoneOffset int `json:"timezone_offset"`
	// minutes between interval reports
	ReportInterval int        `json:"report_interval"`
	DayStart       HourMinute `json:"day_start"`
	// informational counterpart of day_start, kept for config
	// compatibility. the end-of-day trigger time is EndOfDay.
	DayEnd   HourMinute `json:"day_end"`
	EndOfDay HourMinute `json:"end_of_day"`
}

type ScraperConfig struct {
	MaxRetries int `json:"max_retries"`
	// seconds between attempts
	RetryDelay int `json:"retry_delay"`
}

type ReportConfig struct {
	MaxEntries int `json:"max_entries"`
}

// Config is the immutable set of run parameters shared by all triggers.
// it is constructed once at startup and passed in explicitly.
type Config struct {
	ClanName string         `json:"clan_name"`
	Schedule ScheduleConfig `json:"schedule"`
	Scraper  ScraperConfig  `json:"scraper"`
	Report   ReportConfig   `json:"report"`
}

func (c Config) Location() *time.Location {
	return timezone.Offset(c.Schedule.TimezoneOffset)
}
