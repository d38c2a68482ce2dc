package report

import "time"

// monthSearchLimit bounds the monthly look-ahead; any set of days 1..31 fits within a year
const monthSearchLimit = 12

// IsDue reports whether the schedule should be sent in the hourly tick containing now.
// Only the hour of the scheduled time is compared, in the schedule's timezone.
// A local hour skipped by a DST transition never matches; a repeated one matches twice
// and is deduplicated by AlreadySentToday.
func IsDue(s *Schedule, now time.Time) bool {
	local := now.In(s.Location)
	if local.Hour() != s.Time.Hour {
		return false
	}

	switch s.Frequency {
	case FrequencyDaily:
		return true
	case FrequencyWeekly:
		return s.Days.HasWeekday(local.Weekday())
	case FrequencyMonthly:
		return s.Days.HasMonthDay(local.Day())
	}
	return false
}

// AlreadySentToday reports whether the last successful send falls on the same
// local calendar day as now.
func AlreadySentToday(s *Schedule, now time.Time) bool {
	if s.LastSentAt == nil {
		return false
	}
	return s.LocalDate(*s.LastSentAt) == s.LocalDate(now)
}

// NextOccurrence computes the advisory next send instant after now.
// It returns false when the schedule has no selectable day.
func NextOccurrence(s *Schedule, now time.Time) (time.Time, bool) {
	local := now.In(s.Location)
	candidate := time.Date(local.Year(), local.Month(), local.Day(), s.Time.Hour, s.Time.Minute, 0, 0, s.Location)

	switch s.Frequency {
	case FrequencyDaily:
		if !candidate.After(now) {
			candidate = candidate.AddDate(0, 0, 1)
		}
		return candidate.UTC(), true

	case FrequencyWeekly:
		if s.Days.IsEmpty() {
			return time.Time{}, false
		}
		for i := 1; i <= 7; i++ {
			next := candidate.AddDate(0, 0, i)
			if s.Days.HasWeekday(next.Weekday()) {
				return next.UTC(), true
			}
		}
		return time.Time{}, false

	case FrequencyMonthly:
		return nextMonthly(s, candidate)
	}
	return time.Time{}, false
}

func nextMonthly(s *Schedule, candidate time.Time) (time.Time, bool) {
	days := s.Days.SortedMonthDays()
	if len(days) == 0 {
		return time.Time{}, false
	}

	year, month := candidate.Year(), candidate.Month()
	for _, day := range days {
		if day > candidate.Day() && day <= daysIn(year, month) {
			return atDay(s, year, month, day).UTC(), true
		}
	}

	for i := 1; i <= monthSearchLimit; i++ {
		first := time.Date(year, month+time.Month(i), 1, 0, 0, 0, 0, s.Location)
		y, m := first.Year(), first.Month()
		for _, day := range days {
			if day <= daysIn(y, m) {
				return atDay(s, y, m, day).UTC(), true
			}
		}
	}
	return time.Time{}, false
}

func atDay(s *Schedule, year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, s.Time.Hour, s.Time.Minute, 0, 0, s.Location)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
