package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/reportdispatch/internal/domain/report"
	"github.com/erp/reportdispatch/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormSnapshotRepository implements report.SnapshotRepository using GORM
type GormSnapshotRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormSnapshotRepository creates a new GormSnapshotRepository
func NewGormSnapshotRepository(db *gorm.DB) *GormSnapshotRepository {
	return &GormSnapshotRepository{db: db, now: time.Now}
}

type stockTotal struct {
	ProductID uuid.UUID
	Quantity  decimal.Decimal
}

// LoadProducts reads the full catalog, inactive products included, joined with classification and total stock
func (r *GormSnapshotRepository) LoadProducts(ctx context.Context) (*report.ProductSnapshot, error) {
	db := r.db.WithContext(ctx)

	var rows []models.ProductModel
	err := db.
		Preload("Category").
		Preload("Subcategory").
		Preload("Brand").
		Preload("Vendor").
		Order("name ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}

	var totals []stockTotal
	err = db.Model(&models.InventoryItemModel{}).
		Select("product_id, SUM(quantity) AS quantity").
		Group("product_id").
		Scan(&totals).Error
	if err != nil {
		return nil, fmt.Errorf("load stock levels: %w", err)
	}
	stock := make(map[uuid.UUID]decimal.Decimal, len(totals))
	for _, t := range totals {
		stock[t.ProductID] = t.Quantity
	}

	products := make([]report.Product, 0, len(rows))
	for i := range rows {
		products = append(products, toDomainProduct(&rows[i], stock[rows[i].ID]))
	}
	return &report.ProductSnapshot{Products: products, TakenAt: r.now().UTC()}, nil
}

func toDomainProduct(m *models.ProductModel, qty decimal.Decimal) report.Product {
	p := report.Product{
		ID:             m.ID,
		SKU:            m.SKU,
		Name:           m.Name,
		CategoryID:     m.CategoryID,
		SubcategoryID:  m.SubcategoryID,
		BrandID:        m.BrandID,
		VendorID:       m.VendorID,
		CostPrice:      m.CostPrice,
		SellingPrice:   m.SellingPrice,
		QuantityOnHand: qty,
		ReorderLevel:   m.ReorderLevel,
	}
	if m.Category != nil {
		p.CategoryName = m.Category.Name
	}
	if m.Subcategory != nil {
		p.SubcategoryName = m.Subcategory.Name
	}
	if m.Brand != nil {
		p.BrandName = m.Brand.Name
	}
	if m.Vendor != nil {
		p.VendorName = m.Vendor.Name
	}
	return p
}

// LoadSalesOrders reads reportable sales orders dated at or after since, with customer and lines
func (r *GormSnapshotRepository) LoadSalesOrders(ctx context.Context, since time.Time) (*report.SalesSnapshot, error) {
	var rows []models.SalesOrderModel
	err := r.db.WithContext(ctx).
		Preload("Customer").
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		}).
		Preload("Items.Product").
		Where("order_date >= ?", since.UTC()).
		Where("status NOT IN ?", []string{models.SalesOrderStatusDraft, models.SalesOrderStatusCancelled}).
		Order("order_date ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load sales orders: %w", err)
	}

	orders := make([]report.SalesOrder, 0, len(rows))
	for i := range rows {
		orders = append(orders, toDomainSalesOrder(&rows[i]))
	}
	return &report.SalesSnapshot{Orders: orders, TakenAt: r.now().UTC()}, nil
}

func toDomainSalesOrder(m *models.SalesOrderModel) report.SalesOrder {
	o := report.SalesOrder{
		ID:          m.ID,
		OrderNumber: m.OrderNumber,
		CustomerID:  m.CustomerID,
		OrderDate:   m.OrderDate,
		Lines:       make([]report.SalesOrderLine, 0, len(m.Items)),
	}
	if m.Customer != nil {
		o.CustomerName = m.Customer.Name
	}
	for _, item := range m.Items {
		line := report.SalesOrderLine{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Discount:  item.Discount,
		}
		if item.Product != nil {
			line.ProductName = item.Product.Name
		}
		o.Lines = append(o.Lines, line)
	}
	return o
}

var _ report.SnapshotRepository = (*GormSnapshotRepository)(nil)
