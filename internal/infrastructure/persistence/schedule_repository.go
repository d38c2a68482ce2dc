package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/reportdispatch/internal/domain/report"
	"github.com/erp/reportdispatch/internal/domain/shared"
	"github.com/erp/reportdispatch/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormScheduleRepository implements report.ScheduleRepository using GORM
type GormScheduleRepository struct {
	db *gorm.DB
}

// NewGormScheduleRepository creates a new GormScheduleRepository
func NewGormScheduleRepository(db *gorm.DB) *GormScheduleRepository {
	return &GormScheduleRepository{db: db}
}

// FindActive loads active schedules in creation order with their items in order index order
func (r *GormScheduleRepository) FindActive(ctx context.Context) ([]report.ScheduleRecord, error) {
	var rows []models.ScheduledReportBatchModel
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_index ASC, id ASC")
		}).
		Where("status = ?", string(report.ScheduleStatusActive)).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("find active schedules: %w", err)
	}

	records := make([]report.ScheduleRecord, 0, len(rows))
	for i := range rows {
		records = append(records, rows[i].ToRecord())
	}
	return records, nil
}

// MarkSent records a successful send with one UPDATE statement.
// A nil next stores NULL.
func (r *GormScheduleRepository) MarkSent(ctx context.Context, id uuid.UUID, sentAt time.Time, next *time.Time) error {
	var nextValue any
	if next != nil {
		nextValue = next.UTC()
	}

	result := r.db.WithContext(ctx).
		Model(&models.ScheduledReportBatchModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"last_sent_at":      sentAt.UTC(),
			"next_scheduled_at": nextValue,
			"updated_at":        time.Now().UTC(),
		})
	if result.Error != nil {
		return fmt.Errorf("mark schedule %s sent: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound.WithCause(fmt.Errorf("schedule %s", id))
	}
	return nil
}

var _ report.ScheduleRepository = (*GormScheduleRepository)(nil)
