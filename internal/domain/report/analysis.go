package report

import (
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// percentOf returns part/whole*100 rounded to two places, or zero when whole is zero
func percentOf(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred).Round(2)
}

// ProductProfitRow holds per-product profitability metrics
type ProductProfitRow struct {
	Product         Product
	UnitMargin      decimal.Decimal
	MarginPercent   decimal.Decimal
	RetailValue     decimal.Decimal
	InventoryValue  decimal.Decimal
	PotentialProfit decimal.Decimal
}

// AnalyzeProductProfitability computes margin metrics for every product passing the filter.
// Rows default to descending potential profit.
func AnalyzeProductProfitability(snapshot *ProductSnapshot, filter ProductFilter) []ProductProfitRow {
	rows := make([]ProductProfitRow, 0, len(snapshot.Products))
	for _, p := range snapshot.Products {
		if !filter.Matches(p) {
			continue
		}
		margin := p.SellingPrice.Sub(p.CostPrice)
		rows = append(rows, ProductProfitRow{
			Product:         p,
			UnitMargin:      margin,
			MarginPercent:   percentOf(margin, p.SellingPrice),
			RetailValue:     p.SellingPrice.Mul(p.QuantityOnHand),
			InventoryValue:  p.CostPrice.Mul(p.QuantityOnHand),
			PotentialProfit: margin.Mul(p.QuantityOnHand),
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		switch filter.SortBy {
		case SortByName:
			return lessName(a.Product.Name, b.Product.Name)
		case SortByMargin:
			return greater(a.UnitMargin, b.UnitMargin, a.Product.Name, b.Product.Name)
		case SortByMarginPercent:
			return greater(a.MarginPercent, b.MarginPercent, a.Product.Name, b.Product.Name)
		case SortByRevenue:
			return greater(a.RetailValue, b.RetailValue, a.Product.Name, b.Product.Name)
		case SortByInventoryValue:
			return greater(a.InventoryValue, b.InventoryValue, a.Product.Name, b.Product.Name)
		case SortByQuantity:
			return greater(a.Product.QuantityOnHand, b.Product.QuantityOnHand, a.Product.Name, b.Product.Name)
		}
		return greater(a.PotentialProfit, b.PotentialProfit, a.Product.Name, b.Product.Name)
	})
	return rows
}

// GroupDimension selects the attribute products are grouped by
type GroupDimension int

const (
	GroupByCategory GroupDimension = iota
	GroupBySubcategory
	GroupByBrand
	GroupByVendor
)

// UnassignedGroup names the group of products without the grouped attribute
const UnassignedGroup = "Unassigned"

// GroupRow holds aggregated metrics for one category, subcategory, brand or vendor
type GroupRow struct {
	ID               *uuid.UUID
	Name             string
	ProductCount     int
	Units            decimal.Decimal
	InventoryValue   decimal.Decimal
	RetailValue      decimal.Decimal
	PotentialProfit  decimal.Decimal
	AvgMarginPercent decimal.Decimal
}

// AnalyzeGroups aggregates the filtered products by the given dimension.
// Rows default to descending potential profit.
func AnalyzeGroups(snapshot *ProductSnapshot, filter ProductFilter, dim GroupDimension) []GroupRow {
	type acc struct {
		row       GroupRow
		marginSum decimal.Decimal
	}
	groups := make(map[string]*acc)
	order := make([]string, 0)

	for _, p := range snapshot.Products {
		if !filter.Matches(p) {
			continue
		}
		id, name := groupKey(p, dim)
		key := UnassignedGroup
		if id != nil {
			key = id.String()
		}
		g, ok := groups[key]
		if !ok {
			if name == "" {
				name = UnassignedGroup
			}
			g = &acc{row: GroupRow{ID: id, Name: name}}
			groups[key] = g
			order = append(order, key)
		}
		margin := p.SellingPrice.Sub(p.CostPrice)
		g.row.ProductCount++
		g.row.Units = g.row.Units.Add(p.QuantityOnHand)
		g.row.InventoryValue = g.row.InventoryValue.Add(p.CostPrice.Mul(p.QuantityOnHand))
		g.row.RetailValue = g.row.RetailValue.Add(p.SellingPrice.Mul(p.QuantityOnHand))
		g.row.PotentialProfit = g.row.PotentialProfit.Add(margin.Mul(p.QuantityOnHand))
		g.marginSum = g.marginSum.Add(percentOf(margin, p.SellingPrice))
	}

	rows := make([]GroupRow, 0, len(groups))
	for _, key := range order {
		g := groups[key]
		g.row.AvgMarginPercent = g.marginSum.Div(decimal.NewFromInt(int64(g.row.ProductCount))).Round(2)
		rows = append(rows, g.row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		switch filter.SortBy {
		case SortByName:
			return lessName(a.Name, b.Name)
		case SortByMargin, SortByMarginPercent:
			return greater(a.AvgMarginPercent, b.AvgMarginPercent, a.Name, b.Name)
		case SortByRevenue:
			return greater(a.RetailValue, b.RetailValue, a.Name, b.Name)
		case SortByInventoryValue:
			return greater(a.InventoryValue, b.InventoryValue, a.Name, b.Name)
		case SortByQuantity:
			return greater(a.Units, b.Units, a.Name, b.Name)
		}
		return greater(a.PotentialProfit, b.PotentialProfit, a.Name, b.Name)
	})
	return rows
}

func groupKey(p Product, dim GroupDimension) (*uuid.UUID, string) {
	switch dim {
	case GroupBySubcategory:
		return p.SubcategoryID, p.SubcategoryName
	case GroupByBrand:
		return p.BrandID, p.BrandName
	case GroupByVendor:
		return p.VendorID, p.VendorName
	}
	return p.CategoryID, p.CategoryName
}

// StockStatus classifies a product's stock level
type StockStatus string

const (
	StockStatusOutOfStock StockStatus = "out-of-stock"
	StockStatusLow        StockStatus = "low-stock"
	StockStatusInStock    StockStatus = "in-stock"
)

// ClassifyStock returns the stock status for a quantity against a reorder level
func ClassifyStock(qty, reorderLevel decimal.Decimal) StockStatus {
	switch {
	case qty.LessThanOrEqual(decimal.Zero):
		return StockStatusOutOfStock
	case qty.LessThanOrEqual(reorderLevel):
		return StockStatusLow
	}
	return StockStatusInStock
}

// InventoryRow holds the stock position of one product
type InventoryRow struct {
	Product        Product
	Status         StockStatus
	InventoryValue decimal.Decimal
	RetailValue    decimal.Decimal
}

// AnalyzeInventory lists stock positions for the filtered products.
// Rows default to status severity, then name.
func AnalyzeInventory(snapshot *ProductSnapshot, filter ProductFilter) []InventoryRow {
	rows := make([]InventoryRow, 0, len(snapshot.Products))
	for _, p := range snapshot.Products {
		if !filter.Matches(p) {
			continue
		}
		rows = append(rows, InventoryRow{
			Product:        p,
			Status:         ClassifyStock(p.QuantityOnHand, p.ReorderLevel),
			InventoryValue: p.CostPrice.Mul(p.QuantityOnHand),
			RetailValue:    p.SellingPrice.Mul(p.QuantityOnHand),
		})
	}

	severity := map[StockStatus]int{StockStatusOutOfStock: 0, StockStatusLow: 1, StockStatusInStock: 2}
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		switch filter.SortBy {
		case SortByName:
			return lessName(a.Product.Name, b.Product.Name)
		case SortByInventoryValue, SortByRevenue:
			return greater(a.InventoryValue, b.InventoryValue, a.Product.Name, b.Product.Name)
		case SortByQuantity:
			return greater(a.Product.QuantityOnHand, b.Product.QuantityOnHand, a.Product.Name, b.Product.Name)
		}
		if severity[a.Status] != severity[b.Status] {
			return severity[a.Status] < severity[b.Status]
		}
		return lessName(a.Product.Name, b.Product.Name)
	})
	return rows
}

// CustomerSalesRow aggregates one customer's orders within a window
type CustomerSalesRow struct {
	CustomerID        uuid.UUID
	CustomerName      string
	OrderCount        int
	Units             decimal.Decimal
	Gross             decimal.Decimal
	Discount          decimal.Decimal
	Net               decimal.Decimal
	AverageOrderValue decimal.Decimal
}

// AnalyzeCustomerSales aggregates the orders by customer, ordered by descending net sales
func AnalyzeCustomerSales(orders []SalesOrder) []CustomerSalesRow {
	byCustomer := make(map[uuid.UUID]*CustomerSalesRow)
	order := make([]uuid.UUID, 0)

	for _, o := range orders {
		row, ok := byCustomer[o.CustomerID]
		if !ok {
			row = &CustomerSalesRow{CustomerID: o.CustomerID, CustomerName: o.CustomerName}
			byCustomer[o.CustomerID] = row
			order = append(order, o.CustomerID)
		}
		row.OrderCount++
		for _, l := range o.Lines {
			row.Units = row.Units.Add(l.Quantity)
			row.Gross = row.Gross.Add(l.Gross())
			row.Discount = row.Discount.Add(l.Discount)
		}
	}

	rows := make([]CustomerSalesRow, 0, len(byCustomer))
	for _, id := range order {
		row := byCustomer[id]
		row.Net = row.Gross.Sub(row.Discount)
		row.AverageOrderValue = row.Net.Div(decimal.NewFromInt(int64(row.OrderCount))).Round(2)
		rows = append(rows, *row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return greater(rows[i].Net, rows[j].Net, rows[i].CustomerName, rows[j].CustomerName)
	})
	return rows
}

// DiscountRow aggregates discounting for one product within a window
type DiscountRow struct {
	ProductID       uuid.UUID
	ProductName     string
	Units           decimal.Decimal
	ListRevenue     decimal.Decimal
	Discount        decimal.Decimal
	NetRevenue      decimal.Decimal
	DiscountPercent decimal.Decimal
	AvgSellingPrice decimal.Decimal
}

// AnalyzeDiscounts aggregates order lines by product, ordered by descending discount total
func AnalyzeDiscounts(orders []SalesOrder) []DiscountRow {
	byProduct := make(map[uuid.UUID]*DiscountRow)
	order := make([]uuid.UUID, 0)

	for _, o := range orders {
		for _, l := range o.Lines {
			row, ok := byProduct[l.ProductID]
			if !ok {
				row = &DiscountRow{ProductID: l.ProductID, ProductName: l.ProductName}
				byProduct[l.ProductID] = row
				order = append(order, l.ProductID)
			}
			row.Units = row.Units.Add(l.Quantity)
			row.ListRevenue = row.ListRevenue.Add(l.Gross())
			row.Discount = row.Discount.Add(l.Discount)
		}
	}

	rows := make([]DiscountRow, 0, len(byProduct))
	for _, id := range order {
		row := byProduct[id]
		row.NetRevenue = row.ListRevenue.Sub(row.Discount)
		row.DiscountPercent = percentOf(row.Discount, row.ListRevenue)
		if !row.Units.IsZero() {
			row.AvgSellingPrice = row.NetRevenue.Div(row.Units).Round(2)
		}
		rows = append(rows, *row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return greater(rows[i].Discount, rows[j].Discount, rows[i].ProductName, rows[j].ProductName)
	})
	return rows
}

func lessName(a, b string) bool {
	return strings.ToLower(a) < strings.ToLower(b)
}

// greater orders by descending value, falling back to ascending name
func greater(a, b decimal.Decimal, nameA, nameB string) bool {
	if !a.Equal(b) {
		return a.GreaterThan(b)
	}
	return lessName(nameA, nameB)
}
