package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InventoryItemModel is the stock of one product at one location
type InventoryItemModel struct {
	BaseModel
	ProductID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Location  string          `gorm:"type:varchar(100);not null;default:'main'"`
	Quantity  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (InventoryItemModel) TableName() string {
	return "inventory_items"
}
