package report

import (
	"errors"
	"fmt"

	"github.com/erp/reportdispatch/internal/domain/report"
	"github.com/google/uuid"
)

var (
	// ErrNoReportItems is returned when a schedule has no items to render
	ErrNoReportItems = errors.New("schedule has no report items")
	// ErrNoReportsRendered is returned when every item of a multi-item batch failed
	ErrNoReportsRendered = errors.New("no report in the batch could be rendered")
	// ErrMergeFailed is returned when rendered documents cannot be combined
	ErrMergeFailed = errors.New("failed to merge report documents")
	// ErrDeliveryFailed is returned when the email collaborator rejects the message
	ErrDeliveryFailed = errors.New("failed to deliver report email")
	// ErrLoadSchedules aborts a run when active schedules cannot be read
	ErrLoadSchedules = errors.New("failed to load active schedules")
	// ErrLoadSnapshot aborts a run when the product snapshot cannot be read
	ErrLoadSnapshot = errors.New("failed to load product snapshot")
	// ErrDispatchInProgress is returned when another run holds the dispatch lock
	ErrDispatchInProgress = errors.New("a dispatch run is already in progress")
	// ErrScheduleTimeout marks a schedule that exceeded its processing budget
	ErrScheduleTimeout = errors.New("schedule processing timed out")
	// ErrRunInterrupted marks a schedule cut short because the whole run's deadline passed or it was cancelled
	ErrRunInterrupted = errors.New("dispatch run interrupted")
)

// Item error codes
const (
	ItemErrUnknownReportType = "UNKNOWN_REPORT_TYPE"
	ItemErrInvalidFilter     = "INVALID_FILTER"
	ItemErrRenderFailed      = "RENDER_FAILED"
)

// ItemError describes why a single report item could not be rendered
type ItemError struct {
	Code       string
	ReportType report.ReportType
	ItemID     uuid.UUID
	Err        error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("%s: report item %s (%s): %v", e.Code, e.ItemID, e.ReportType, e.Err)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}

func newItemError(code string, item report.ReportItem, err error) *ItemError {
	return &ItemError{Code: code, ReportType: item.ReportType, ItemID: item.ID, Err: err}
}

// ItemErrorCode returns the code of an ItemError in err's chain, or RENDER_FAILED
func ItemErrorCode(err error) string {
	var itemErr *ItemError
	if errors.As(err, &itemErr) {
		return itemErr.Code
	}
	return ItemErrRenderFailed
}
