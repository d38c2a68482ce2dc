package report

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func sampleSnapshot() (*ProductSnapshot, uuid.UUID, uuid.UUID) {
	tools := uuid.New()
	garden := uuid.New()
	acme := uuid.New()
	return &ProductSnapshot{Products: []Product{
		{ID: uuid.New(), Name: "Hammer", CategoryID: &tools, CategoryName: "Tools", BrandID: &acme, BrandName: "Acme",
			CostPrice: dec("6"), SellingPrice: dec("10"), QuantityOnHand: dec("10"), ReorderLevel: dec("5")},
		{ID: uuid.New(), Name: "Wrench", CategoryID: &tools, CategoryName: "Tools",
			CostPrice: dec("15"), SellingPrice: dec("20"), QuantityOnHand: dec("2"), ReorderLevel: dec("5")},
		{ID: uuid.New(), Name: "Rake", CategoryID: &garden, CategoryName: "Garden", BrandID: &acme, BrandName: "Acme",
			CostPrice: dec("8"), SellingPrice: dec("16"), QuantityOnHand: dec("0"), ReorderLevel: dec("1")},
		{ID: uuid.New(), Name: "Gloves",
			CostPrice: dec("1"), SellingPrice: dec("4"), QuantityOnHand: dec("100")},
	}}, tools, acme
}

func TestAnalyzeProductProfitability(t *testing.T) {
	snapshot, tools, _ := sampleSnapshot()

	rows := AnalyzeProductProfitability(snapshot, ProductFilter{})
	require.Len(t, rows, 4)
	assert.Equal(t, "Gloves", rows[0].Product.Name, "highest potential profit first")
	assert.True(t, dec("300").Equal(rows[0].PotentialProfit))
	assert.True(t, dec("75").Equal(rows[0].MarginPercent))

	filtered := AnalyzeProductProfitability(snapshot, ProductFilter{Categories: []uuid.UUID{tools}, SortBy: SortByName})
	require.Len(t, filtered, 2)
	assert.Equal(t, "Hammer", filtered[0].Product.Name)
	assert.Equal(t, "Wrench", filtered[1].Product.Name)
	assert.True(t, dec("4").Equal(filtered[0].UnitMargin))
	assert.True(t, dec("40").Equal(filtered[0].MarginPercent))
	assert.True(t, dec("60").Equal(filtered[0].InventoryValue))

	byMargin := AnalyzeProductProfitability(snapshot, ProductFilter{SortBy: SortByMarginPercent})
	assert.Equal(t, "Gloves", byMargin[0].Product.Name)
	assert.Equal(t, "Rake", byMargin[1].Product.Name)
}

func TestAnalyzeProductProfitability_ZeroPrice(t *testing.T) {
	rows := AnalyzeProductProfitability(&ProductSnapshot{Products: []Product{{Name: "Free sample"}}}, ProductFilter{})
	require.Len(t, rows, 1)
	assert.True(t, rows[0].MarginPercent.IsZero())
}

func TestAnalyzeGroups(t *testing.T) {
	snapshot, _, acme := sampleSnapshot()

	rows := AnalyzeGroups(snapshot, ProductFilter{SortBy: SortByName}, GroupByCategory)
	require.Len(t, rows, 3)
	assert.Equal(t, "Garden", rows[0].Name)
	assert.Equal(t, "Tools", rows[1].Name)
	assert.Equal(t, UnassignedGroup, rows[2].Name)
	assert.Nil(t, rows[2].ID)

	tools := rows[1]
	assert.Equal(t, 2, tools.ProductCount)
	assert.True(t, dec("12").Equal(tools.Units))
	assert.True(t, dec("90").Equal(tools.InventoryValue))
	assert.True(t, dec("140").Equal(tools.RetailValue))
	assert.True(t, dec("50").Equal(tools.PotentialProfit))
	assert.True(t, dec("32.5").Equal(tools.AvgMarginPercent))

	brands := AnalyzeGroups(snapshot, ProductFilter{Brands: []uuid.UUID{acme}}, GroupByBrand)
	require.Len(t, brands, 1)
	assert.Equal(t, "Acme", brands[0].Name)
	assert.Equal(t, 2, brands[0].ProductCount)
}

func TestAnalyzeInventory(t *testing.T) {
	snapshot, _, _ := sampleSnapshot()

	rows := AnalyzeInventory(snapshot, ProductFilter{})
	require.Len(t, rows, 4)
	assert.Equal(t, "Rake", rows[0].Product.Name)
	assert.Equal(t, StockStatusOutOfStock, rows[0].Status)
	assert.Equal(t, "Wrench", rows[1].Product.Name)
	assert.Equal(t, StockStatusLow, rows[1].Status)
	assert.Equal(t, StockStatusInStock, rows[2].Status)
}

func TestClassifyStock(t *testing.T) {
	assert.Equal(t, StockStatusOutOfStock, ClassifyStock(dec("-1"), dec("0")))
	assert.Equal(t, StockStatusLow, ClassifyStock(dec("5"), dec("5")))
	assert.Equal(t, StockStatusInStock, ClassifyStock(dec("6"), dec("5")))
}

func sampleOrders() []SalesOrder {
	alice, bob := uuid.New(), uuid.New()
	widget, gadget := uuid.New(), uuid.New()
	day := time.Date(2024, time.July, 1, 10, 0, 0, 0, time.UTC)
	return []SalesOrder{
		{ID: uuid.New(), CustomerID: alice, CustomerName: "Alice", OrderDate: day, Lines: []SalesOrderLine{
			{ProductID: widget, ProductName: "Widget", Quantity: dec("2"), UnitPrice: dec("50"), Discount: dec("10")},
		}},
		{ID: uuid.New(), CustomerID: alice, CustomerName: "Alice", OrderDate: day.AddDate(0, 0, 1), Lines: []SalesOrderLine{
			{ProductID: gadget, ProductName: "Gadget", Quantity: dec("1"), UnitPrice: dec("30"), Discount: dec("0")},
		}},
		{ID: uuid.New(), CustomerID: bob, CustomerName: "Bob", OrderDate: day.AddDate(0, 0, 2), Lines: []SalesOrderLine{
			{ProductID: widget, ProductName: "Widget", Quantity: dec("1"), UnitPrice: dec("50"), Discount: dec("5")},
		}},
	}
}

func TestAnalyzeCustomerSales(t *testing.T) {
	rows := AnalyzeCustomerSales(sampleOrders())
	require.Len(t, rows, 2)

	alice := rows[0]
	assert.Equal(t, "Alice", alice.CustomerName)
	assert.Equal(t, 2, alice.OrderCount)
	assert.True(t, dec("130").Equal(alice.Gross))
	assert.True(t, dec("10").Equal(alice.Discount))
	assert.True(t, dec("120").Equal(alice.Net))
	assert.True(t, dec("60").Equal(alice.AverageOrderValue))
	assert.Equal(t, "Bob", rows[1].CustomerName)
}

func TestAnalyzeDiscounts(t *testing.T) {
	rows := AnalyzeDiscounts(sampleOrders())
	require.Len(t, rows, 2)

	widget := rows[0]
	assert.Equal(t, "Widget", widget.ProductName)
	assert.True(t, dec("3").Equal(widget.Units))
	assert.True(t, dec("150").Equal(widget.ListRevenue))
	assert.True(t, dec("15").Equal(widget.Discount))
	assert.True(t, dec("135").Equal(widget.NetRevenue))
	assert.True(t, dec("10").Equal(widget.DiscountPercent))
	assert.True(t, dec("45").Equal(widget.AvgSellingPrice))
}

func TestSalesSnapshot_InWindow(t *testing.T) {
	orders := sampleOrders()
	snap := &SalesSnapshot{Orders: orders}
	from := orders[1].OrderDate
	to := orders[2].OrderDate

	got := snap.InWindow(from, to)
	require.Len(t, got, 1)
	assert.Equal(t, orders[1].ID, got[0].ID)
}
