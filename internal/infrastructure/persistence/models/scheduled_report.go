package models

import (
	"time"

	"github.com/erp/reportdispatch/internal/domain/report"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ScheduledReportBatchModel is the persistence model for a report schedule
type ScheduledReportBatchModel struct {
	BaseModel
	Name            string `gorm:"type:varchar(200);not null"`
	RecipientName   string `gorm:"type:varchar(200)"`
	EmailAddress    string `gorm:"type:varchar(320);not null"`
	Status          string `gorm:"type:varchar(20);not null;default:'draft';index"`
	Frequency       string `gorm:"type:varchar(20);not null"`
	ScheduledDays   datatypes.JSON
	ScheduledTime   string `gorm:"type:varchar(8);not null"`
	Timezone        string `gorm:"type:varchar(64);not null;default:'UTC'"`
	LastSentAt      *time.Time
	NextScheduledAt *time.Time
	Items           []ScheduledReportItemModel `gorm:"foreignKey:BatchID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (ScheduledReportBatchModel) TableName() string {
	return "scheduled_report_batches"
}

// ToRecord converts the model to the domain's unvalidated schedule record
func (m *ScheduledReportBatchModel) ToRecord() report.ScheduleRecord {
	items := make([]report.ReportItem, 0, len(m.Items))
	for i := range m.Items {
		items = append(items, m.Items[i].ToDomain())
	}
	return report.ScheduleRecord{
		BaseEntity:      m.BaseModel.ToDomain(),
		Name:            m.Name,
		RecipientName:   m.RecipientName,
		EmailAddress:    m.EmailAddress,
		Status:          report.ScheduleStatus(m.Status),
		Frequency:       report.Frequency(m.Frequency),
		ScheduledDays:   []byte(m.ScheduledDays),
		ScheduledTime:   m.ScheduledTime,
		Timezone:        m.Timezone,
		LastSentAt:      m.LastSentAt,
		NextScheduledAt: m.NextScheduledAt,
		Items:           items,
	}
}

// ScheduledReportItemModel is one report of a scheduled batch
type ScheduledReportItemModel struct {
	BaseModel
	BatchID      uuid.UUID `gorm:"type:uuid;not null;index"`
	OrderIndex   int       `gorm:"not null;default:0"`
	ReportType   string    `gorm:"type:varchar(50);not null"`
	FilterConfig datatypes.JSON
}

// TableName returns the table name for GORM
func (ScheduledReportItemModel) TableName() string {
	return "scheduled_report_items"
}

// ToDomain converts the model to a domain report item
func (m *ScheduledReportItemModel) ToDomain() report.ReportItem {
	return report.ReportItem{
		ID:           m.ID,
		OrderIndex:   m.OrderIndex,
		ReportType:   report.ReportType(m.ReportType),
		FilterConfig: []byte(m.FilterConfig),
	}
}
