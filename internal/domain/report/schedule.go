package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/erp/reportdispatch/internal/domain/shared"
	"github.com/google/uuid"
)

// ScheduleStatus represents the lifecycle status of a scheduled report batch
type ScheduleStatus string

const (
	ScheduleStatusDraft  ScheduleStatus = "draft"
	ScheduleStatusActive ScheduleStatus = "active"
)

// IsValid reports whether the status is a known value
func (s ScheduleStatus) IsValid() bool {
	return s == ScheduleStatusDraft || s == ScheduleStatusActive
}

// Frequency represents how often a schedule recurs
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// IsValid reports whether the frequency is a known value
func (f Frequency) IsValid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
		return true
	}
	return false
}

// ScheduledTime is a wall-clock time of day, interpreted in the schedule's timezone
type ScheduledTime struct {
	Hour   int
	Minute int
}

// ParseScheduledTime parses "HH:MM" (an optional ":SS" suffix is ignored)
func ParseScheduledTime(s string) (ScheduledTime, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return ScheduledTime{}, fmt.Errorf("scheduled time %q: expected HH:MM", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return ScheduledTime{}, fmt.Errorf("scheduled time %q: invalid hour", s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return ScheduledTime{}, fmt.Errorf("scheduled time %q: invalid minute", s)
	}
	return ScheduledTime{Hour: hour, Minute: minute}, nil
}

// String formats the time as HH:MM
func (t ScheduledTime) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// ReportItem is one report inside a scheduled batch
type ReportItem struct {
	ID           uuid.UUID
	OrderIndex   int
	ReportType   ReportType
	FilterConfig []byte
}

// ScheduleRecord is a scheduled report batch as persisted, before validation
type ScheduleRecord struct {
	shared.BaseEntity
	Name            string
	RecipientName   string
	EmailAddress    string
	Status          ScheduleStatus
	Frequency       Frequency
	ScheduledDays   []byte
	ScheduledTime   string
	Timezone        string
	LastSentAt      *time.Time
	NextScheduledAt *time.Time
	Items           []ReportItem
}

// Schedule is a validated scheduled report batch ready for evaluation
type Schedule struct {
	shared.BaseEntity
	Name            string
	RecipientName   string
	EmailAddress    string
	Status          ScheduleStatus
	Frequency       Frequency
	Days            DaySelector
	Time            ScheduledTime
	Location        *time.Location
	LastSentAt      *time.Time
	NextScheduledAt *time.Time
	Items           []ReportItem
}

// Restore validates the persisted record and builds a Schedule.
// Items are carried as-is; their filter configuration is only interpreted at render time.
func (r *ScheduleRecord) Restore() (*Schedule, error) {
	if !r.Status.IsValid() {
		return nil, shared.ErrInvalidInput.WithCause(fmt.Errorf("unknown status %q", r.Status))
	}
	if !r.Frequency.IsValid() {
		return nil, shared.ErrInvalidInput.WithCause(fmt.Errorf("unknown frequency %q", r.Frequency))
	}
	if strings.TrimSpace(r.EmailAddress) == "" {
		return nil, shared.ErrInvalidInput.WithCause(fmt.Errorf("schedule %q has no email address", r.Name))
	}

	t, err := ParseScheduledTime(r.ScheduledTime)
	if err != nil {
		return nil, shared.ErrInvalidInput.WithCause(err)
	}

	tz := strings.TrimSpace(r.Timezone)
	if tz == "" {
		tz = "UTC"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, shared.ErrInvalidInput.WithCause(fmt.Errorf("timezone %q: %w", r.Timezone, err))
	}

	days, err := ParseDaySelector(r.Frequency, r.ScheduledDays)
	if err != nil {
		return nil, shared.ErrInvalidInput.WithCause(err)
	}

	return &Schedule{
		BaseEntity:      r.BaseEntity,
		Name:            r.Name,
		RecipientName:   r.RecipientName,
		EmailAddress:    strings.TrimSpace(r.EmailAddress),
		Status:          r.Status,
		Frequency:       r.Frequency,
		Days:            days,
		Time:            t,
		Location:        loc,
		LastSentAt:      r.LastSentAt,
		NextScheduledAt: r.NextScheduledAt,
		Items:           r.Items,
	}, nil
}

// IsActive reports whether the dispatcher should evaluate the schedule
func (s *Schedule) IsActive() bool {
	return s.Status == ScheduleStatusActive
}

// LocalDate returns the calendar date of t in the schedule's timezone
func (s *Schedule) LocalDate(t time.Time) string {
	return t.In(s.Location).Format(time.DateOnly)
}
