package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Sales order statuses excluded from sales reports
const (
	SalesOrderStatusDraft     = "draft"
	SalesOrderStatusCancelled = "cancelled"
)

// CustomerModel is a customer placing sales orders
type CustomerModel struct {
	BaseModel
	Name  string `gorm:"type:varchar(200);not null"`
	Email string `gorm:"type:varchar(320)"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// SalesOrderModel is a customer order header
type SalesOrderModel struct {
	BaseModel
	OrderNumber string                `gorm:"type:varchar(50);not null;uniqueIndex"`
	CustomerID  uuid.UUID             `gorm:"type:uuid;not null;index"`
	Customer    *CustomerModel        `gorm:"foreignKey:CustomerID"`
	OrderDate   time.Time             `gorm:"not null;index"`
	Status      string                `gorm:"type:varchar(20);not null;default:'draft'"`
	Items       []SalesOrderItemModel `gorm:"foreignKey:SalesOrderID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (SalesOrderModel) TableName() string {
	return "sales_orders"
}

// SalesOrderItemModel is one product line of a sales order.
// Discount is the total discount amount for the line.
type SalesOrderItemModel struct {
	BaseModel
	SalesOrderID uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	Product      *ProductModel   `gorm:"foreignKey:ProductID"`
	Quantity     decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Discount     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (SalesOrderItemModel) TableName() string {
	return "sales_order_items"
}
