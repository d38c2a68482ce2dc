package report

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ScheduleRepository reads scheduled report batches and records successful sends
type ScheduleRepository interface {
	// FindActive returns every active schedule with its items ordered by order index
	FindActive(ctx context.Context) ([]ScheduleRecord, error)

	// MarkSent sets last_sent_at and next_scheduled_at in a single update
	MarkSent(ctx context.Context, id uuid.UUID, sentAt time.Time, next *time.Time) error
}

// SnapshotRepository reads the business data reports are built from
type SnapshotRepository interface {
	LoadProducts(ctx context.Context) (*ProductSnapshot, error)
	// LoadSalesOrders returns non-draft, non-cancelled orders dated at or after since
	LoadSalesOrders(ctx context.Context, since time.Time) (*SalesSnapshot, error)
}
