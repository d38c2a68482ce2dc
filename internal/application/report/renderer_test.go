package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erp/reportdispatch/internal/domain/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type rendererFixture struct {
	printer  *fakePrinter
	repo     *fakeSnapshotRepo
	renderer *ReportRenderer
	rc       RenderContext
}

func newRendererFixture(t *testing.T) *rendererFixture {
	t.Helper()
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	f := &rendererFixture{
		printer: &fakePrinter{},
		repo:    &fakeSnapshotRepo{sales: testSales()},
	}
	f.renderer = NewReportRenderer(f.printer, testFormatter(t), zaptest.NewLogger(t))
	f.rc = RenderContext{
		Now:      fridayAt2pmNewYork,
		Location: ny,
		Snapshot: NewRunSnapshot(testProducts(), f.repo, fridayAt2pmNewYork),
	}
	return f
}

func (f *rendererFixture) render(t *testing.T, reportType report.ReportType, filter string) *report.Document {
	t.Helper()
	rendered, err := f.renderer.Render(context.Background(), reportItem(0, reportType, filter), f.rc)
	require.NoError(t, err)
	assert.Equal(t, "pdf:"+reportType.Title(), string(rendered.PDF))
	doc := f.printer.lastDoc()
	require.NotNil(t, doc)
	return doc
}

func columnOf(doc *report.Document, rowIdx int) []string {
	out := make([]string, 0, len(doc.Rows))
	for _, row := range doc.Rows {
		out = append(out, row[rowIdx])
	}
	return out
}

func TestRender_ProductProfitability(t *testing.T) {
	f := newRendererFixture(t)
	doc := f.render(t, report.ReportTypeProductProfitability, `{}`)

	assert.Equal(t, "Product Profitability", doc.Title)
	assert.Equal(t, "All products", doc.Subtitle)
	assert.True(t, doc.Landscape)
	assert.Len(t, doc.Columns, 9)
	assert.Equal(t, []string{"Hammer", "Rake", "Shovel"}, columnOf(doc, 1))
	assert.Equal(t, []string{"HAM-1", "Hammer", "Tools", "10", "USD 6.00", "USD 10.00", "USD 4.00", "40.0%", "USD 40.00"}, doc.Rows[0])
	assert.Equal(t, []report.SummaryLine{
		{Label: "Products", Value: "3"},
		{Label: "Inventory value", Value: "USD 84.00"},
		{Label: "Retail value", Value: "USD 148.00"},
		{Label: "Potential profit", Value: "USD 64.00"},
	}, doc.Summary)
	assert.Equal(t, time.July, doc.GeneratedAt.Month())
	assert.Equal(t, 14, doc.GeneratedAt.Hour(), "generated time is local to the schedule")
}

func TestRender_ProductFilterAndSort(t *testing.T) {
	f := newRendererFixture(t)
	doc := f.render(t, report.ReportTypeProductProfitability,
		`{"categories":["22222222-2222-2222-2222-222222222222"],"sortBy":"margin-percent"}`)

	assert.Equal(t, "Categories: Garden; sorted by margin percent", doc.Subtitle)
	// Rake 50% margin, Shovel 40%
	assert.Equal(t, []string{"Rake", "Shovel"}, columnOf(doc, 1))
}

func TestRender_StringEncodedFilter(t *testing.T) {
	f := newRendererFixture(t)
	doc := f.render(t, report.ReportTypeProductProfitability, `"{\"sortBy\":\"name\"}"`)
	assert.Equal(t, []string{"Hammer", "Rake", "Shovel"}, columnOf(doc, 1))
	assert.Equal(t, "All products; sorted by name", doc.Subtitle)
}

func TestRender_GroupAnalyses(t *testing.T) {
	tests := []struct {
		reportType report.ReportType
		header     string
		names      []string
		groupLabel string
	}{
		{report.ReportTypeCategoryAnalysis, "Category", []string{"Tools", "Garden"}, "Category groups"},
		{report.ReportTypeSubcategoryAnalysis, "Subcategory", []string{report.UnassignedGroup}, "Subcategory groups"},
		{report.ReportTypeBrandAnalysis, "Brand", []string{"Acme", report.UnassignedGroup}, "Brand groups"},
		{report.ReportTypeVendorAnalysis, "Vendor", []string{report.UnassignedGroup}, "Vendor groups"},
	}

	for _, tt := range tests {
		t.Run(string(tt.reportType), func(t *testing.T) {
			f := newRendererFixture(t)
			doc := f.render(t, tt.reportType, `{}`)

			assert.Equal(t, tt.reportType.Title(), doc.Title)
			assert.Equal(t, tt.header, doc.Columns[0].Header)
			assert.Equal(t, tt.names, columnOf(doc, 0))
			require.NotEmpty(t, doc.Summary)
			assert.Equal(t, tt.groupLabel, doc.Summary[0].Label)
		})
	}
}

func TestRender_CategoryAnalysisRow(t *testing.T) {
	f := newRendererFixture(t)
	doc := f.render(t, report.ReportTypeCategoryAnalysis, `{}`)

	assert.Equal(t, []string{"Tools", "1", "10", "USD 60.00", "USD 100.00", "USD 40.00", "40.0%"}, doc.Rows[0])
	assert.Equal(t, []string{"Garden", "2", "3", "USD 24.00", "USD 48.00", "USD 24.00", "45.0%"}, doc.Rows[1])
	assert.Equal(t, "USD 64.00", doc.Summary[2].Value)
}

func TestRender_InventoryStatus(t *testing.T) {
	f := newRendererFixture(t)
	doc := f.render(t, report.ReportTypeInventoryStatus, `{}`)

	assert.Equal(t, []string{"Shovel", "Rake", "Hammer"}, columnOf(doc, 1))
	assert.Equal(t, []string{"Out of stock", "Low stock", "In stock"}, columnOf(doc, 5))
	assert.Equal(t, []report.SummaryLine{
		{Label: "Out of stock", Value: "1"},
		{Label: "Low stock", Value: "1"},
		{Label: "In stock", Value: "1"},
		{Label: "Inventory value", Value: "USD 84.00"},
	}, doc.Summary)
}

func TestRender_CustomerSalesLast30Days(t *testing.T) {
	f := newRendererFixture(t)
	doc := f.render(t, report.ReportTypeCustomerSales, `{"period":"30"}`)

	assert.Equal(t, "Last 30 days (Jun 20, 2024 to Jul 19, 2024)", doc.Subtitle)
	assert.Equal(t, []string{"Alice", "Bob"}, columnOf(doc, 0))
	assert.Equal(t, []string{"Alice", "1", "2", "USD 20.00", "USD 2.00", "USD 18.00", "USD 18.00"}, doc.Rows[0])
	assert.Equal(t, []report.SummaryLine{
		{Label: "Customers", Value: "2"},
		{Label: "Orders", Value: "2"},
		{Label: "Net sales", Value: "USD 34.00"},
	}, doc.Summary)
}

func TestRender_CustomerSalesYearToDate(t *testing.T) {
	f := newRendererFixture(t)
	doc := f.render(t, report.ReportTypeCustomerSales, `{"period":"ytd"}`)

	assert.Equal(t, "Year to date (Jan 1, 2024 to Jul 19, 2024)", doc.Subtitle)
	assert.Equal(t, []string{"Alice", "2", "7", "USD 70.00", "USD 7.00", "USD 63.00", "USD 31.50"}, doc.Rows[0])
}

func TestRender_DiscountPricing(t *testing.T) {
	f := newRendererFixture(t)
	doc := f.render(t, report.ReportTypeDiscountPricing, `{}`)

	assert.Equal(t, "Discount & Pricing", doc.Title)
	assert.Equal(t, []string{"Hammer", "2", "USD 20.00", "USD 2.00", "USD 18.00", "10.0%", "USD 9.00"}, doc.Rows[0])
	assert.Equal(t, []string{"Rake", "1", "USD 16.00", "USD 0.00", "USD 16.00", "0.0%", "USD 16.00"}, doc.Rows[1])
	assert.Equal(t, "5.6%", doc.Summary[2].Value)
}

func TestRender_SalesLoadedOnce(t *testing.T) {
	f := newRendererFixture(t)
	f.render(t, report.ReportTypeCustomerSales, `{}`)
	f.render(t, report.ReportTypeDiscountPricing, `{}`)
	assert.Equal(t, 1, f.repo.salesCalls)
}

func TestRender_Errors(t *testing.T) {
	tests := []struct {
		name       string
		reportType report.ReportType
		filter     string
		setup      func(f *rendererFixture)
		code       string
	}{
		{"unknown report type", report.ReportType("weather-forecast"), `{}`, nil, ItemErrUnknownReportType},
		{"malformed product filter", report.ReportTypeProductProfitability, `{`, nil, ItemErrInvalidFilter},
		{"unsupported sort key", report.ReportTypeInventoryStatus, `{"sortBy":"sideways"}`, nil, ItemErrInvalidFilter},
		{"unsupported period", report.ReportTypeCustomerSales, `{"period":"45"}`, nil, ItemErrInvalidFilter},
		{"missing snapshot", report.ReportTypeCategoryAnalysis, `{}`, func(f *rendererFixture) { f.rc.Snapshot = nil }, ItemErrRenderFailed},
		{"sales load failure", report.ReportTypeDiscountPricing, `{}`, func(f *rendererFixture) { f.repo.salesErr = errors.New("timeout") }, ItemErrRenderFailed},
		{"printer failure", report.ReportTypeBrandAnalysis, `{}`, func(f *rendererFixture) {
			f.printer.failFor = map[string]error{"Brand Analysis": errors.New("chrome exited")}
		}, ItemErrRenderFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRendererFixture(t)
			if tt.setup != nil {
				tt.setup(f)
			}
			item := reportItem(0, tt.reportType, tt.filter)

			_, err := f.renderer.Render(context.Background(), item, f.rc)

			var itemErr *ItemError
			require.ErrorAs(t, err, &itemErr)
			assert.Equal(t, tt.code, itemErr.Code)
			assert.Equal(t, item.ID, itemErr.ItemID)
			assert.Equal(t, tt.reportType, itemErr.ReportType)
		})
	}
}

func TestRender_DefaultsToUTC(t *testing.T) {
	f := newRendererFixture(t)
	f.rc.Location = nil
	doc := f.render(t, report.ReportTypeInventoryStatus, `{}`)
	assert.Equal(t, time.UTC, doc.GeneratedAt.Location())
	assert.Equal(t, 18, doc.GeneratedAt.Hour())
}
