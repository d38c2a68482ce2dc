package report

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// DaySelectorKind discriminates the DaySelector variants
type DaySelectorKind int

const (
	// DaySelectorNone is used by daily schedules
	DaySelectorNone DaySelectorKind = iota
	// DaySelectorWeekdays selects days of the week
	DaySelectorWeekdays
	// DaySelectorMonthDays selects days of the month (1..31)
	DaySelectorMonthDays
)

// DaySelector is the set of days a weekly or monthly schedule recurs on.
// Only the set matching Kind is populated.
type DaySelector struct {
	Kind      DaySelectorKind
	weekdays  map[time.Weekday]struct{}
	monthDays map[int]struct{}
}

// NoDays returns the selector used by daily schedules
func NoDays() DaySelector {
	return DaySelector{Kind: DaySelectorNone}
}

// Weekdays builds a weekday selector
func Weekdays(days ...time.Weekday) DaySelector {
	sel := DaySelector{Kind: DaySelectorWeekdays, weekdays: make(map[time.Weekday]struct{}, len(days))}
	for _, d := range days {
		sel.weekdays[d] = struct{}{}
	}
	return sel
}

// MonthDays builds a day-of-month selector. Values outside 1..31 are rejected.
func MonthDays(days ...int) (DaySelector, error) {
	sel := DaySelector{Kind: DaySelectorMonthDays, monthDays: make(map[int]struct{}, len(days))}
	for _, d := range days {
		if d < 1 || d > 31 {
			return DaySelector{}, fmt.Errorf("day of month %d out of range", d)
		}
		sel.monthDays[d] = struct{}{}
	}
	return sel, nil
}

// IsEmpty reports whether no day is selected
func (d DaySelector) IsEmpty() bool {
	switch d.Kind {
	case DaySelectorWeekdays:
		return len(d.weekdays) == 0
	case DaySelectorMonthDays:
		return len(d.monthDays) == 0
	}
	return true
}

// HasWeekday reports whether wd is selected
func (d DaySelector) HasWeekday(wd time.Weekday) bool {
	if d.Kind != DaySelectorWeekdays {
		return false
	}
	_, ok := d.weekdays[wd]
	return ok
}

// HasMonthDay reports whether day is selected
func (d DaySelector) HasMonthDay(day int) bool {
	if d.Kind != DaySelectorMonthDays {
		return false
	}
	_, ok := d.monthDays[day]
	return ok
}

// SortedMonthDays returns the selected days of the month in ascending order
func (d DaySelector) SortedMonthDays() []int {
	out := make([]int, 0, len(d.monthDays))
	for day := range d.monthDays {
		out = append(out, day)
	}
	sort.Ints(out)
	return out
}

// SortedWeekdays returns the selected weekdays, Sunday first
func (d DaySelector) SortedWeekdays() []time.Weekday {
	out := make([]time.Weekday, 0, len(d.weekdays))
	for wd := range d.weekdays {
		out = append(out, wd)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// MarshalJSON encodes the selector in its persisted form
func (d DaySelector) MarshalJSON() ([]byte, error) {
	switch d.Kind {
	case DaySelectorWeekdays:
		names := make([]string, 0, len(d.weekdays))
		for _, wd := range d.SortedWeekdays() {
			names = append(names, wd.String())
		}
		return json.Marshal(names)
	case DaySelectorMonthDays:
		return json.Marshal(d.SortedMonthDays())
	}
	return []byte("null"), nil
}

// ParseDaySelector decodes persisted scheduled days according to the frequency.
// Daily schedules ignore the stored value. A null or empty value yields an empty selector.
func ParseDaySelector(freq Frequency, raw []byte) (DaySelector, error) {
	if freq == FrequencyDaily {
		return NoDays(), nil
	}

	var values []json.RawMessage
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null")) {
		if err := json.Unmarshal(trimmed, &values); err != nil {
			return DaySelector{}, fmt.Errorf("scheduled days: %w", err)
		}
	}

	switch freq {
	case FrequencyWeekly:
		days := make([]time.Weekday, 0, len(values))
		for _, v := range values {
			var name string
			if err := json.Unmarshal(v, &name); err != nil {
				return DaySelector{}, fmt.Errorf("scheduled days: weekday must be a string, got %s", string(v))
			}
			wd, err := ParseWeekday(name)
			if err != nil {
				return DaySelector{}, err
			}
			days = append(days, wd)
		}
		return Weekdays(days...), nil

	case FrequencyMonthly:
		days := make([]int, 0, len(values))
		for _, v := range values {
			day, err := parseMonthDay(v)
			if err != nil {
				return DaySelector{}, err
			}
			days = append(days, day)
		}
		return MonthDays(days...)
	}

	return DaySelector{}, fmt.Errorf("unknown frequency %q", freq)
}

var weekdayNames = map[string]time.Weekday{
	"sunday": time.Sunday, "sun": time.Sunday,
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday, "tues": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday, "thur": time.Thursday, "thurs": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
}

// ParseWeekday parses an English weekday name, case-insensitive
func ParseWeekday(name string) (time.Weekday, error) {
	wd, ok := weekdayNames[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("scheduled days: unknown weekday %q", name)
	}
	return wd, nil
}

func parseMonthDay(v json.RawMessage) (int, error) {
	var n int
	if err := json.Unmarshal(v, &n); err == nil {
		return n, nil
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return 0, fmt.Errorf("scheduled days: invalid day of month %s", string(v))
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("scheduled days: invalid day of month %q", s)
	}
	return n, nil
}
