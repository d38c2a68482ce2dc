package report

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/erp/reportdispatch/internal/domain/report"
	"github.com/erp/reportdispatch/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RenderFunc renders one report item
type RenderFunc func(ctx context.Context, item report.ReportItem) (*RenderedReport, error)

// ItemFailure records a report item left out of a multi-item batch
type ItemFailure struct {
	ItemID     uuid.UUID
	ReportType report.ReportType
	Err        error
}

// AssembledDocument is the single PDF sent for a schedule
type AssembledDocument struct {
	PDF       []byte
	PageCount int
	// Reports lists the titles of the included reports in order
	Reports  []string
	Failures []ItemFailure
}

// BatchAssembler renders a schedule's items and combines them into one PDF.
// A single-item batch fails with its item; a multi-item batch skips failed items.
type BatchAssembler struct {
	merger  DocumentMerger
	metrics DispatchMetrics
}

// NewBatchAssembler creates a new BatchAssembler
func NewBatchAssembler(merger DocumentMerger, metrics DispatchMetrics) *BatchAssembler {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &BatchAssembler{merger: merger, metrics: metrics}
}

// Assemble renders items in ascending order index and merges the successful ones
func (a *BatchAssembler) Assemble(ctx context.Context, items []report.ReportItem, render RenderFunc) (*AssembledDocument, error) {
	if len(items) == 0 {
		return nil, ErrNoReportItems
	}

	ordered := make([]report.ReportItem, len(items))
	copy(ordered, items)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].OrderIndex < ordered[j].OrderIndex
	})

	if len(ordered) == 1 {
		rendered, err := render(ctx, ordered[0])
		if err != nil {
			a.metrics.RecordItemFailure(ctx, ordered[0].ReportType, ItemErrorCode(err))
			return nil, err
		}
		return single(rendered), nil
	}

	log := logger.L(ctx)
	var (
		rendered []*RenderedReport
		failures []ItemFailure
		errs     []error
	)
	for _, item := range ordered {
		// a spent deadline would fail every remaining item
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r, err := render(ctx, item)
		if err != nil {
			log.Warn("report item skipped",
				zap.String("item_id", item.ID.String()),
				zap.String("report_type", string(item.ReportType)),
				zap.String("code", ItemErrorCode(err)),
				zap.Error(err),
			)
			a.metrics.RecordItemFailure(ctx, item.ReportType, ItemErrorCode(err))
			failures = append(failures, ItemFailure{ItemID: item.ID, ReportType: item.ReportType, Err: err})
			errs = append(errs, err)
			continue
		}
		rendered = append(rendered, r)
	}

	switch len(rendered) {
	case 0:
		return nil, fmt.Errorf("%w: %w", ErrNoReportsRendered, errors.Join(errs...))
	case 1:
		doc := single(rendered[0])
		doc.Failures = failures
		return doc, nil
	}

	pdfs := make([][]byte, 0, len(rendered))
	titles := make([]string, 0, len(rendered))
	pages := 0
	for _, r := range rendered {
		pdfs = append(pdfs, r.PDF)
		titles = append(titles, r.Title)
		pages += r.PageCount
	}

	merged, err := a.merger.Merge(ctx, pdfs)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMergeFailed, err)
	}
	if merged.PageCount > 0 {
		pages = merged.PageCount
	}
	return &AssembledDocument{PDF: merged.Data, PageCount: pages, Reports: titles, Failures: failures}, nil
}

func single(r *RenderedReport) *AssembledDocument {
	return &AssembledDocument{PDF: r.PDF, PageCount: r.PageCount, Reports: []string{r.Title}}
}
