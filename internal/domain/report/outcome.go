package report

import (
	"time"

	"github.com/google/uuid"
)

// OutcomeKind classifies what happened to a schedule during a dispatch run
type OutcomeKind string

const (
	OutcomeSent               OutcomeKind = "sent"
	OutcomeSkippedNotDue      OutcomeKind = "skipped-not-due"
	OutcomeSkippedAlreadySent OutcomeKind = "skipped-already-sent-today"
	OutcomeError              OutcomeKind = "error"
)

// Outcome is the per-schedule result of a dispatch run
type Outcome struct {
	ScheduleID   uuid.UUID     `json:"schedule_id"`
	ScheduleName string        `json:"schedule_name"`
	Kind         OutcomeKind   `json:"kind"`
	Err          error         `json:"-"`
	PageCount    int           `json:"page_count,omitempty"`
	Duration     time.Duration `json:"duration"`
}

// Summary aggregates the outcomes of one dispatch run.
// Skipped lists every schedule that was not sent, including errored ones.
type Summary struct {
	Success     bool      `json:"success"`
	Timestamp   time.Time `json:"timestamp"`
	TotalActive int       `json:"totalActive"`
	Sent        []string  `json:"sent"`
	Skipped     []string  `json:"skipped"`
	SentCount   int       `json:"sentCount"`
	Outcomes    []Outcome `json:"-"`
}

// NewSummary creates an empty successful summary for a run started at now
func NewSummary(now time.Time, totalActive int) *Summary {
	return &Summary{
		Success:     true,
		Timestamp:   now.UTC(),
		TotalActive: totalActive,
		Sent:        []string{},
		Skipped:     []string{},
		Outcomes:    make([]Outcome, 0, totalActive),
	}
}

// Record adds an outcome to the summary
func (s *Summary) Record(o Outcome) {
	s.Outcomes = append(s.Outcomes, o)
	if o.Kind == OutcomeSent {
		s.Sent = append(s.Sent, o.ScheduleName)
		s.SentCount++
		return
	}
	s.Skipped = append(s.Skipped, o.ScheduleName)
}

// Count returns the number of outcomes of the given kind
func (s *Summary) Count(kind OutcomeKind) int {
	n := 0
	for _, o := range s.Outcomes {
		if o.Kind == kind {
			n++
		}
	}
	return n
}
