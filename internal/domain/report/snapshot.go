package report

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is one catalog entry joined with its classification and stock level
type Product struct {
	ID              uuid.UUID       `json:"id"`
	SKU             string          `json:"sku"`
	Name            string          `json:"name"`
	CategoryID      *uuid.UUID      `json:"category_id,omitempty"`
	CategoryName    string          `json:"category_name"`
	SubcategoryID   *uuid.UUID      `json:"subcategory_id,omitempty"`
	SubcategoryName string          `json:"subcategory_name"`
	BrandID         *uuid.UUID      `json:"brand_id,omitempty"`
	BrandName       string          `json:"brand_name"`
	VendorID        *uuid.UUID      `json:"vendor_id,omitempty"`
	VendorName      string          `json:"vendor_name"`
	CostPrice       decimal.Decimal `json:"cost_price"`
	SellingPrice    decimal.Decimal `json:"selling_price"`
	QuantityOnHand  decimal.Decimal `json:"quantity_on_hand"`
	ReorderLevel    decimal.Decimal `json:"reorder_level"`
}

// ProductSnapshot is the full catalog read once per dispatch run
type ProductSnapshot struct {
	Products []Product
	TakenAt  time.Time
}

// SalesOrderLine is one product line of a sales order
type SalesOrderLine struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Discount    decimal.Decimal `json:"discount"`
}

// Gross returns quantity times unit price
func (l SalesOrderLine) Gross() decimal.Decimal {
	return l.Quantity.Mul(l.UnitPrice)
}

// SalesOrder is a confirmed customer order with its lines
type SalesOrder struct {
	ID           uuid.UUID        `json:"id"`
	OrderNumber  string           `json:"order_number"`
	CustomerID   uuid.UUID        `json:"customer_id"`
	CustomerName string           `json:"customer_name"`
	OrderDate    time.Time        `json:"order_date"`
	Lines        []SalesOrderLine `json:"lines"`
}

// SalesSnapshot holds the sales orders read for sales-oriented reports
type SalesSnapshot struct {
	Orders  []SalesOrder
	TakenAt time.Time
}

// InWindow returns the orders dated within [from, to)
func (s *SalesSnapshot) InWindow(from, to time.Time) []SalesOrder {
	out := make([]SalesOrder, 0, len(s.Orders))
	for _, o := range s.Orders {
		if !o.OrderDate.Before(from) && o.OrderDate.Before(to) {
			out = append(out, o)
		}
	}
	return out
}
