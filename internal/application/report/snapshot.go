package report

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/erp/reportdispatch/internal/domain/report"
)

// RunSnapshot is the read-consistent data shared by every item of one dispatch run.
// Products are loaded up front; sales orders are loaded on first use only.
type RunSnapshot struct {
	Products *report.ProductSnapshot

	repo       report.SnapshotRepository
	salesSince time.Time

	mu    sync.Mutex
	sales *report.SalesSnapshot
}

// NewRunSnapshot creates a snapshot for a run started at now.
// The sales window reaches back to the start of the previous year, which covers every period.
func NewRunSnapshot(products *report.ProductSnapshot, repo report.SnapshotRepository, now time.Time) *RunSnapshot {
	u := now.UTC()
	// one extra day covers zones ahead of UTC
	since := time.Date(u.Year()-1, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	return &RunSnapshot{Products: products, repo: repo, salesSince: since}
}

// Sales returns the sales snapshot, loading it once per run
func (s *RunSnapshot) Sales(ctx context.Context) (*report.SalesSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sales != nil {
		return s.sales, nil
	}
	if s.repo == nil {
		return nil, fmt.Errorf("sales data unavailable")
	}
	sales, err := s.repo.LoadSalesOrders(ctx, s.salesSince)
	if err != nil {
		return nil, fmt.Errorf("load sales snapshot: %w", err)
	}
	s.sales = sales
	return sales, nil
}
