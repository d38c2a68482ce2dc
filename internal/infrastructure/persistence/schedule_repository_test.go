package persistence

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/erp/reportdispatch/internal/domain/report"
	"github.com/erp/reportdispatch/internal/domain/shared"
	"github.com/erp/reportdispatch/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func seedSchedule(t *testing.T, db *gorm.DB, name, status string, createdAt time.Time, items ...models.ScheduledReportItemModel) models.ScheduledReportBatchModel {
	t.Helper()
	m := models.ScheduledReportBatchModel{
		BaseModel:     newBase(createdAt),
		Name:          name,
		RecipientName: "Ops",
		EmailAddress:  "ops@example.com",
		Status:        status,
		Frequency:     string(report.FrequencyWeekly),
		ScheduledDays: datatypes.JSON(`["Friday"]`),
		ScheduledTime: "14:00",
		Timezone:      "America/New_York",
		Items:         items,
	}
	require.NoError(t, db.Create(&m).Error)
	return m
}

func item(orderIndex int, reportType report.ReportType, filter string) models.ScheduledReportItemModel {
	return models.ScheduledReportItemModel{
		BaseModel:    newBase(time.Now().UTC()),
		OrderIndex:   orderIndex,
		ReportType:   string(reportType),
		FilterConfig: datatypes.JSON(filter),
	}
}

func TestGormScheduleRepository_FindActive(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormScheduleRepository(db)
	ctx := context.Background()
	base := time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC)

	second := seedSchedule(t, db, "second", "active", base.Add(time.Hour),
		item(2, report.ReportTypeInventoryStatus, `{}`),
		item(0, report.ReportTypeProductProfitability, `{"sortBy":"margin"}`),
		item(1, report.ReportTypeBrandAnalysis, `{}`),
	)
	seedSchedule(t, db, "draft", "draft", base)
	first := seedSchedule(t, db, "first", "active", base)

	records, err := repo.FindActive(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, first.ID, records[0].ID)
	assert.Equal(t, second.ID, records[1].ID)
	assert.Equal(t, report.FrequencyWeekly, records[1].Frequency)
	assert.JSONEq(t, `["Friday"]`, string(records[1].ScheduledDays))

	items := records[1].Items
	require.Len(t, items, 3)
	assert.Equal(t, report.ReportTypeProductProfitability, items[0].ReportType)
	assert.Equal(t, report.ReportTypeBrandAnalysis, items[1].ReportType)
	assert.Equal(t, report.ReportTypeInventoryStatus, items[2].ReportType)
	assert.JSONEq(t, `{"sortBy":"margin"}`, string(items[0].FilterConfig))

	s, err := records[1].Restore()
	require.NoError(t, err)
	assert.True(t, s.Days.HasWeekday(time.Friday))
}

func TestGormScheduleRepository_MarkSent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormScheduleRepository(db)
	ctx := context.Background()
	m := seedSchedule(t, db, "weekly", "active", time.Now().UTC())

	sentAt := time.Date(2024, time.July, 19, 18, 0, 0, 0, time.UTC)
	next := sentAt.AddDate(0, 0, 7)
	require.NoError(t, repo.MarkSent(ctx, m.ID, sentAt, &next))

	var got models.ScheduledReportBatchModel
	require.NoError(t, db.First(&got, "id = ?", m.ID).Error)
	require.NotNil(t, got.LastSentAt)
	require.NotNil(t, got.NextScheduledAt)
	assert.True(t, sentAt.Equal(*got.LastSentAt))
	assert.True(t, next.Equal(*got.NextScheduledAt))

	require.NoError(t, repo.MarkSent(ctx, m.ID, sentAt.Add(time.Hour), nil))
	require.NoError(t, db.First(&got, "id = ?", m.ID).Error)
	assert.Nil(t, got.NextScheduledAt)
}

func TestGormScheduleRepository_MarkSentUnknownSchedule(t *testing.T) {
	repo := NewGormScheduleRepository(setupTestDB(t))

	err := repo.MarkSent(context.Background(), uuid.New(), time.Now(), nil)
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}

func TestGormScheduleRepository_MarkSentIsOneStatement(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: mockDB, DriverName: "postgres"}), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	repo := NewGormScheduleRepository(gormDB)

	id := uuid.New()
	sentAt := time.Date(2024, time.July, 19, 18, 0, 0, 0, time.UTC)
	next := sentAt.AddDate(0, 0, 7)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "scheduled_report_batches" SET "last_sent_at"=$1,"next_scheduled_at"=$2,"updated_at"=$3 WHERE id = $4`)).
		WithArgs(sentAt, next, sqlmock.AnyArg(), id).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.MarkSent(context.Background(), id, sentAt, &next))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormScheduleRepository_FindActiveError(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: mockDB, DriverName: "postgres"}), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT \* FROM "scheduled_report_batches"`).WillReturnError(errors.New("connection refused"))

	_, err = NewGormScheduleRepository(gormDB).FindActive(context.Background())
	assert.ErrorContains(t, err, "connection refused")
}
