package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CategoryModel is a top-level product category
type CategoryModel struct {
	BaseModel
	Name string `gorm:"type:varchar(200);not null"`
}

// TableName returns the table name for GORM
func (CategoryModel) TableName() string {
	return "categories"
}

// SubcategoryModel belongs to a category
type SubcategoryModel struct {
	BaseModel
	CategoryID uuid.UUID `gorm:"type:uuid;not null;index"`
	Name       string    `gorm:"type:varchar(200);not null"`
}

// TableName returns the table name for GORM
func (SubcategoryModel) TableName() string {
	return "subcategories"
}

// BrandModel is a product brand
type BrandModel struct {
	BaseModel
	Name string `gorm:"type:varchar(200);not null"`
}

// TableName returns the table name for GORM
func (BrandModel) TableName() string {
	return "brands"
}

// VendorModel is the supplier a product is bought from
type VendorModel struct {
	BaseModel
	Name  string `gorm:"type:varchar(200);not null"`
	Email string `gorm:"type:varchar(320)"`
}

// TableName returns the table name for GORM
func (VendorModel) TableName() string {
	return "vendors"
}

// ProductModel is a catalog product with optional classification
type ProductModel struct {
	BaseModel
	SKU           string            `gorm:"type:varchar(100);not null;uniqueIndex"`
	Name          string            `gorm:"type:varchar(200);not null"`
	CategoryID    *uuid.UUID        `gorm:"type:uuid;index"`
	Category      *CategoryModel    `gorm:"foreignKey:CategoryID"`
	SubcategoryID *uuid.UUID        `gorm:"type:uuid;index"`
	Subcategory   *SubcategoryModel `gorm:"foreignKey:SubcategoryID"`
	BrandID       *uuid.UUID        `gorm:"type:uuid;index"`
	Brand         *BrandModel       `gorm:"foreignKey:BrandID"`
	VendorID      *uuid.UUID        `gorm:"type:uuid;index"`
	Vendor        *VendorModel      `gorm:"foreignKey:VendorID"`
	CostPrice     decimal.Decimal   `gorm:"type:decimal(18,4);not null;default:0"`
	SellingPrice  decimal.Decimal   `gorm:"type:decimal(18,4);not null;default:0"`
	ReorderLevel  decimal.Decimal   `gorm:"type:decimal(18,4);not null;default:0"`
	Active        bool              `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}
