package report

import (
	"context"
	"errors"
	"time"

	"github.com/erp/reportdispatch/internal/domain/report"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RenderContext carries the run-wide inputs of a render call
type RenderContext struct {
	Now      time.Time
	Location *time.Location
	Snapshot *RunSnapshot
}

// RenderedReport is one report item printed to PDF
type RenderedReport struct {
	ItemID     uuid.UUID
	ReportType report.ReportType
	Title      string
	PDF        []byte
	PageCount  int
}

// ReportRenderer maps a report item to its document builder and prints the result
type ReportRenderer struct {
	printer DocumentPrinter
	format  *Formatter
	logger  *zap.Logger
}

// NewReportRenderer creates a new ReportRenderer
func NewReportRenderer(printer DocumentPrinter, format *Formatter, logger *zap.Logger) *ReportRenderer {
	return &ReportRenderer{printer: printer, format: format, logger: logger}
}

// Render builds and prints the document for one item.
// Every failure is returned as an *ItemError.
func (r *ReportRenderer) Render(ctx context.Context, item report.ReportItem, rc RenderContext) (*RenderedReport, error) {
	if rc.Location == nil {
		rc.Location = time.UTC
	}

	doc, err := r.buildDocument(ctx, item, rc)
	if err != nil {
		return nil, err
	}
	doc.GeneratedAt = rc.Now.In(rc.Location)

	pdf, err := r.printer.Print(ctx, doc)
	if err != nil {
		return nil, newItemError(ItemErrRenderFailed, item, err)
	}

	r.logger.Debug("report rendered",
		zap.String("report_type", string(item.ReportType)),
		zap.Int("rows", len(doc.Rows)),
		zap.Int("pages", pdf.PageCount),
	)
	return &RenderedReport{
		ItemID:     item.ID,
		ReportType: item.ReportType,
		Title:      doc.Title,
		PDF:        pdf.Data,
		PageCount:  pdf.PageCount,
	}, nil
}

func (r *ReportRenderer) buildDocument(ctx context.Context, item report.ReportItem, rc RenderContext) (*report.Document, error) {
	switch item.ReportType {
	case report.ReportTypeProductProfitability:
		return r.productDocument(item, rc, r.profitabilityDocument)
	case report.ReportTypeCategoryAnalysis:
		return r.productDocument(item, rc, r.groupDocument(report.GroupByCategory))
	case report.ReportTypeSubcategoryAnalysis:
		return r.productDocument(item, rc, r.groupDocument(report.GroupBySubcategory))
	case report.ReportTypeBrandAnalysis:
		return r.productDocument(item, rc, r.groupDocument(report.GroupByBrand))
	case report.ReportTypeVendorAnalysis:
		return r.productDocument(item, rc, r.groupDocument(report.GroupByVendor))
	case report.ReportTypeInventoryStatus:
		return r.productDocument(item, rc, r.inventoryDocument)
	case report.ReportTypeCustomerSales:
		return r.salesDocument(ctx, item, rc, r.customerSalesDocument)
	case report.ReportTypeDiscountPricing:
		return r.salesDocument(ctx, item, rc, r.discountDocument)
	}
	return nil, newItemError(ItemErrUnknownReportType, item, errors.New("unknown report type "+string(item.ReportType)))
}

type productBuilder func(snapshot *report.ProductSnapshot, filter report.ProductFilter) *report.Document

type salesBuilder func(orders []report.SalesOrder, period salesPeriod) *report.Document

// salesPeriod is a resolved sales window for display
type salesPeriod struct {
	filter   report.SalesPeriodFilter
	from, to time.Time
}

func (r *ReportRenderer) productDocument(item report.ReportItem, rc RenderContext, build productBuilder) (*report.Document, error) {
	filter, err := report.ParseProductFilter(item.FilterConfig)
	if err != nil {
		return nil, newItemError(ItemErrInvalidFilter, item, err)
	}
	if rc.Snapshot == nil || rc.Snapshot.Products == nil {
		return nil, newItemError(ItemErrRenderFailed, item, errors.New("product snapshot unavailable"))
	}
	return build(rc.Snapshot.Products, filter), nil
}

func (r *ReportRenderer) salesDocument(ctx context.Context, item report.ReportItem, rc RenderContext, build salesBuilder) (*report.Document, error) {
	filter, err := report.ParseSalesPeriodFilter(item.FilterConfig)
	if err != nil {
		return nil, newItemError(ItemErrInvalidFilter, item, err)
	}
	if rc.Snapshot == nil {
		return nil, newItemError(ItemErrRenderFailed, item, errors.New("run snapshot unavailable"))
	}
	sales, err := rc.Snapshot.Sales(ctx)
	if err != nil {
		return nil, newItemError(ItemErrRenderFailed, item, err)
	}

	from, to := filter.Window(rc.Now, rc.Location)
	return build(sales.InWindow(from, to), salesPeriod{filter: filter, from: from, to: to}), nil
}
