package report

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/erp/reportdispatch/internal/domain/report"
	"github.com/erp/reportdispatch/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type markSentCall struct {
	ID     uuid.UUID
	SentAt time.Time
	Next   *time.Time
}

type fakeScheduleRepo struct {
	mu          sync.Mutex
	records     []report.ScheduleRecord
	findErr     error
	markSentErr error
	markPanic   bool
	marked      []markSentCall
}

func (r *fakeScheduleRepo) FindActive(context.Context) ([]report.ScheduleRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	out := make([]report.ScheduleRecord, len(r.records))
	copy(out, r.records)
	return out, nil
}

func (r *fakeScheduleRepo) MarkSent(_ context.Context, id uuid.UUID, sentAt time.Time, next *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.markPanic {
		panic("mark sent crashed")
	}
	if r.markSentErr != nil {
		return r.markSentErr
	}
	r.marked = append(r.marked, markSentCall{ID: id, SentAt: sentAt, Next: next})
	for i := range r.records {
		if r.records[i].ID == id {
			sent := sentAt
			r.records[i].LastSentAt = &sent
			r.records[i].NextScheduledAt = next
		}
	}
	return nil
}

type fakeSnapshotRepo struct {
	products   *report.ProductSnapshot
	sales      *report.SalesSnapshot
	productErr error
	salesErr   error
	salesCalls int
	salesSince time.Time
}

func (r *fakeSnapshotRepo) LoadProducts(context.Context) (*report.ProductSnapshot, error) {
	if r.productErr != nil {
		return nil, r.productErr
	}
	return r.products, nil
}

func (r *fakeSnapshotRepo) LoadSalesOrders(_ context.Context, since time.Time) (*report.SalesSnapshot, error) {
	r.salesCalls++
	r.salesSince = since
	if r.salesErr != nil {
		return nil, r.salesErr
	}
	return r.sales, nil
}

// fakePrinter prints "pdf:<title>" with one page per 2 rows (at least one)
type fakePrinter struct {
	docs    []*report.Document
	failFor map[string]error
	panicOn string
}

func (p *fakePrinter) Print(_ context.Context, doc *report.Document) (*report.RenderedPDF, error) {
	if doc.Title == p.panicOn {
		panic("printer crashed")
	}
	if err, ok := p.failFor[doc.Title]; ok {
		return nil, err
	}
	p.docs = append(p.docs, doc)
	return &report.RenderedPDF{Data: []byte("pdf:" + doc.Title), PageCount: max(1, (len(doc.Rows)+1)/2)}, nil
}

func (p *fakePrinter) lastDoc() *report.Document {
	if len(p.docs) == 0 {
		return nil
	}
	return p.docs[len(p.docs)-1]
}

// fakeMerger joins documents with "|" and reports no page count
type fakeMerger struct {
	calls int
	err   error
}

func (m *fakeMerger) Merge(_ context.Context, docs [][]byte) (*report.RenderedPDF, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return &report.RenderedPDF{Data: bytes.Join(docs, []byte("|"))}, nil
}

type fakeMailer struct {
	mu    sync.Mutex
	sent  []*OutboundEmail
	err   error
	block bool
}

func (m *fakeMailer) Send(ctx context.Context, msg *OutboundEmail) error {
	if m.block {
		<-ctx.Done()
		return ctx.Err()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

type fakeArchive struct {
	stored map[string][]byte
	err    error
}

func (a *fakeArchive) Store(_ context.Context, key string, pdf []byte) error {
	if a.err != nil {
		return a.err
	}
	if a.stored == nil {
		a.stored = map[string][]byte{}
	}
	a.stored[key] = pdf
	return nil
}

type fakeLock struct {
	held     bool
	err      error
	released int
	tokens   []string
}

func (l *fakeLock) TryAcquire(context.Context, time.Duration) (string, bool, error) {
	if l.err != nil {
		return "", false, l.err
	}
	if l.held {
		return "", false, nil
	}
	l.held = true
	token := uuid.NewString()
	l.tokens = append(l.tokens, token)
	return token, true, nil
}

func (l *fakeLock) Release(_ context.Context, token string) error {
	if len(l.tokens) == 0 || l.tokens[len(l.tokens)-1] != token {
		return nil
	}
	l.held = false
	l.released++
	return nil
}

var errSMTPDown = errors.New("smtp: 421 service not available")

func utc(year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, time.UTC)
}

func reportItem(orderIndex int, reportType report.ReportType, filter string) report.ReportItem {
	return report.ReportItem{
		ID:           uuid.New(),
		OrderIndex:   orderIndex,
		ReportType:   reportType,
		FilterConfig: []byte(filter),
	}
}

func scheduleRecord(name string, freq report.Frequency, days, at, tz string, items ...report.ReportItem) report.ScheduleRecord {
	rec := report.ScheduleRecord{
		BaseEntity:    shared.NewBaseEntity(),
		Name:          name,
		RecipientName: "Ops Team",
		EmailAddress:  "ops@example.com",
		Status:        report.ScheduleStatusActive,
		Frequency:     freq,
		ScheduledTime: at,
		Timezone:      tz,
		Items:         items,
	}
	if days != "" {
		rec.ScheduledDays = []byte(days)
	}
	return rec
}

// fridayReport is due on Fridays at 14:00 New York time
func fridayReport(name string, items ...report.ReportItem) report.ScheduleRecord {
	return scheduleRecord(name, report.FrequencyWeekly, `["Friday"]`, "14:00", "America/New_York", items...)
}

// fridayAt2pmNewYork is Friday 2024-07-19 14:00 EDT
var fridayAt2pmNewYork = utc(2024, time.July, 19, 18, 0)

var (
	toolsID  = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	gardenID = uuid.MustParse("22222222-2222-2222-2222-222222222222")
	acmeID   = uuid.MustParse("33333333-3333-3333-3333-333333333333")
	aliceID  = uuid.MustParse("44444444-4444-4444-4444-444444444444")
	bobID    = uuid.MustParse("55555555-5555-5555-5555-555555555555")
	hammerID = uuid.MustParse("66666666-6666-6666-6666-666666666666")
	rakeID   = uuid.MustParse("77777777-7777-7777-7777-777777777777")
	shovelID = uuid.MustParse("88888888-8888-8888-8888-888888888888")
)

func testProducts() *report.ProductSnapshot {
	d := decimal.NewFromInt
	return &report.ProductSnapshot{
		TakenAt: fridayAt2pmNewYork,
		Products: []report.Product{
			{ID: hammerID, SKU: "HAM-1", Name: "Hammer", CategoryID: &toolsID, CategoryName: "Tools", BrandID: &acmeID, BrandName: "Acme",
				CostPrice: d(6), SellingPrice: d(10), QuantityOnHand: d(10), ReorderLevel: d(5)},
			{ID: rakeID, SKU: "RAK-1", Name: "Rake", CategoryID: &gardenID, CategoryName: "Garden",
				CostPrice: d(8), SellingPrice: d(16), QuantityOnHand: d(3), ReorderLevel: d(5)},
			{ID: shovelID, SKU: "SHV-1", Name: "Shovel", CategoryID: &gardenID, CategoryName: "Garden", BrandID: &acmeID, BrandName: "Acme",
				CostPrice: d(12), SellingPrice: d(20), QuantityOnHand: d(0), ReorderLevel: d(2)},
		},
	}
}

func testSales() *report.SalesSnapshot {
	d := decimal.NewFromInt
	return &report.SalesSnapshot{
		TakenAt: fridayAt2pmNewYork,
		Orders: []report.SalesOrder{
			{ID: uuid.New(), OrderNumber: "SO-1", CustomerID: aliceID, CustomerName: "Alice", OrderDate: utc(2024, time.July, 10, 15, 0),
				Lines: []report.SalesOrderLine{{ProductID: hammerID, ProductName: "Hammer", Quantity: d(2), UnitPrice: d(10), Discount: d(2)}}},
			{ID: uuid.New(), OrderNumber: "SO-2", CustomerID: bobID, CustomerName: "Bob", OrderDate: utc(2024, time.July, 18, 15, 0),
				Lines: []report.SalesOrderLine{{ProductID: rakeID, ProductName: "Rake", Quantity: d(1), UnitPrice: d(16), Discount: d(0)}}},
			{ID: uuid.New(), OrderNumber: "SO-0", CustomerID: aliceID, CustomerName: "Alice", OrderDate: utc(2024, time.March, 1, 15, 0),
				Lines: []report.SalesOrderLine{{ProductID: hammerID, ProductName: "Hammer", Quantity: d(5), UnitPrice: d(10), Discount: d(5)}}},
		},
	}
}

func testFormatter(t *testing.T) *Formatter {
	t.Helper()
	f, err := NewFormatter("en-US", "USD")
	require.NoError(t, err)
	return f
}

type dispatchHarness struct {
	schedules *fakeScheduleRepo
	snapshots *fakeSnapshotRepo
	printer   *fakePrinter
	merger    *fakeMerger
	mailer    *fakeMailer
	archive   *fakeArchive
	lock      *fakeLock
}

func newDispatchHarness(records ...report.ScheduleRecord) *dispatchHarness {
	return &dispatchHarness{
		schedules: &fakeScheduleRepo{records: records},
		snapshots: &fakeSnapshotRepo{products: testProducts(), sales: testSales()},
		printer:   &fakePrinter{},
		merger:    &fakeMerger{},
		mailer:    &fakeMailer{},
		archive:   &fakeArchive{},
		lock:      &fakeLock{},
	}
}

func (h *dispatchHarness) service(t *testing.T, opts ...DispatchOption) *DispatchService {
	t.Helper()
	log := zaptest.NewLogger(t)
	format := testFormatter(t)
	opts = append([]DispatchOption{WithArchive(h.archive), WithLock(h.lock, time.Minute)}, opts...)
	return NewDispatchService(
		h.schedules,
		h.snapshots,
		NewReportRenderer(h.printer, format, log),
		NewBatchAssembler(h.merger, nil),
		NewEmailComposer(format),
		h.mailer,
		log,
		opts...,
	)
}
