package report

import (
	"context"
	"time"

	"github.com/erp/reportdispatch/internal/domain/report"
)

// DocumentPrinter turns a tabular document into a PDF
type DocumentPrinter interface {
	Print(ctx context.Context, doc *report.Document) (*report.RenderedPDF, error)
}

// DocumentMerger concatenates PDFs, preserving document and page order
type DocumentMerger interface {
	Merge(ctx context.Context, docs [][]byte) (*report.RenderedPDF, error)
}

// Attachment is a binary file attached to an outbound email
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// OutboundEmail is the message handed to the email collaborator
type OutboundEmail struct {
	To          string
	ToName      string
	Subject     string
	HTML        string
	Attachments []Attachment
}

// Mailer delivers an email; it must give up when ctx is done
type Mailer interface {
	Send(ctx context.Context, msg *OutboundEmail) error
}

// ReportArchive keeps a copy of every delivered PDF
type ReportArchive interface {
	Store(ctx context.Context, key string, pdf []byte) error
}

// DispatchLock serializes dispatch runs across triggers and instances.
// Each successful acquire yields an owner token; Release with a token that no
// longer owns the lock, for example after it expired and was taken over, is a no-op.
type DispatchLock interface {
	// TryAcquire returns false without error when the lock is held elsewhere
	TryAcquire(ctx context.Context, ttl time.Duration) (token string, acquired bool, err error)
	Release(ctx context.Context, token string) error
}

// DispatchMetrics receives dispatch measurements
type DispatchMetrics interface {
	RecordOutcome(ctx context.Context, kind report.OutcomeKind, d time.Duration)
	RecordItemFailure(ctx context.Context, reportType report.ReportType, code string)
	RecordRun(ctx context.Context, summary *report.Summary, d time.Duration)
}

type noopMetrics struct{}

func (noopMetrics) RecordOutcome(context.Context, report.OutcomeKind, time.Duration) {}
func (noopMetrics) RecordItemFailure(context.Context, report.ReportType, string)     {}
func (noopMetrics) RecordRun(context.Context, *report.Summary, time.Duration)        {}
