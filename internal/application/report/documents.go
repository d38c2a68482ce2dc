package report

import (
	"fmt"
	"strings"

	"github.com/erp/reportdispatch/internal/domain/report"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func left(header string) report.Column {
	return report.Column{Header: header, Align: report.AlignLeft}
}

func right(header string) report.Column {
	return report.Column{Header: header, Align: report.AlignRight}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func (r *ReportRenderer) profitabilityDocument(snapshot *report.ProductSnapshot, filter report.ProductFilter) *report.Document {
	rows := report.AnalyzeProductProfitability(snapshot, filter)

	doc := &report.Document{
		Title:    report.ReportTypeProductProfitability.Title(),
		Subtitle: describeProductFilter(snapshot, filter),
		Columns: []report.Column{
			left("SKU"), left("Product"), left("Category"), right("On Hand"),
			right("Cost"), right("Price"), right("Unit Margin"), right("Margin %"), right("Potential Profit"),
		},
		Landscape: true,
	}

	var inventory, retail, profit decimal.Decimal
	for _, row := range rows {
		p := row.Product
		doc.Rows = append(doc.Rows, []string{
			p.SKU, p.Name, orDash(p.CategoryName), r.format.Quantity(p.QuantityOnHand),
			r.format.Money(p.CostPrice), r.format.Money(p.SellingPrice), r.format.Money(row.UnitMargin),
			r.format.Percent(row.MarginPercent), r.format.Money(row.PotentialProfit),
		})
		inventory = inventory.Add(row.InventoryValue)
		retail = retail.Add(row.RetailValue)
		profit = profit.Add(row.PotentialProfit)
	}

	doc.Summary = []report.SummaryLine{
		{Label: "Products", Value: r.format.Count(len(rows))},
		{Label: "Inventory value", Value: r.format.Money(inventory)},
		{Label: "Retail value", Value: r.format.Money(retail)},
		{Label: "Potential profit", Value: r.format.Money(profit)},
	}
	return doc
}

func dimensionLabel(dim report.GroupDimension) (report.ReportType, string) {
	switch dim {
	case report.GroupBySubcategory:
		return report.ReportTypeSubcategoryAnalysis, "Subcategory"
	case report.GroupByBrand:
		return report.ReportTypeBrandAnalysis, "Brand"
	case report.GroupByVendor:
		return report.ReportTypeVendorAnalysis, "Vendor"
	}
	return report.ReportTypeCategoryAnalysis, "Category"
}

func (r *ReportRenderer) groupDocument(dim report.GroupDimension) productBuilder {
	return func(snapshot *report.ProductSnapshot, filter report.ProductFilter) *report.Document {
		rows := report.AnalyzeGroups(snapshot, filter, dim)
		reportType, label := dimensionLabel(dim)

		doc := &report.Document{
			Title:    reportType.Title(),
			Subtitle: describeProductFilter(snapshot, filter),
			Columns: []report.Column{
				left(label), right("Products"), right("Units"), right("Inventory Value"),
				right("Retail Value"), right("Potential Profit"), right("Avg Margin %"),
			},
		}

		var inventory, profit decimal.Decimal
		for _, row := range rows {
			doc.Rows = append(doc.Rows, []string{
				row.Name, r.format.Count(row.ProductCount), r.format.Quantity(row.Units),
				r.format.Money(row.InventoryValue), r.format.Money(row.RetailValue),
				r.format.Money(row.PotentialProfit), r.format.Percent(row.AvgMarginPercent),
			})
			inventory = inventory.Add(row.InventoryValue)
			profit = profit.Add(row.PotentialProfit)
		}

		doc.Summary = []report.SummaryLine{
			{Label: label + " groups", Value: r.format.Count(len(rows))},
			{Label: "Inventory value", Value: r.format.Money(inventory)},
			{Label: "Potential profit", Value: r.format.Money(profit)},
		}
		return doc
	}
}

func stockStatusLabel(s report.StockStatus) string {
	switch s {
	case report.StockStatusOutOfStock:
		return "Out of stock"
	case report.StockStatusLow:
		return "Low stock"
	}
	return "In stock"
}

func (r *ReportRenderer) inventoryDocument(snapshot *report.ProductSnapshot, filter report.ProductFilter) *report.Document {
	rows := report.AnalyzeInventory(snapshot, filter)

	doc := &report.Document{
		Title:    report.ReportTypeInventoryStatus.Title(),
		Subtitle: describeProductFilter(snapshot, filter),
		Columns: []report.Column{
			left("SKU"), left("Product"), left("Category"), right("On Hand"), right("Reorder Level"),
			left("Status"), right("Cost Value"), right("Retail Value"),
		},
		Landscape: true,
	}

	counts := map[report.StockStatus]int{}
	var inventory decimal.Decimal
	for _, row := range rows {
		p := row.Product
		doc.Rows = append(doc.Rows, []string{
			p.SKU, p.Name, orDash(p.CategoryName), r.format.Quantity(p.QuantityOnHand),
			r.format.Quantity(p.ReorderLevel), stockStatusLabel(row.Status),
			r.format.Money(row.InventoryValue), r.format.Money(row.RetailValue),
		})
		counts[row.Status]++
		inventory = inventory.Add(row.InventoryValue)
	}

	doc.Summary = []report.SummaryLine{
		{Label: "Out of stock", Value: r.format.Count(counts[report.StockStatusOutOfStock])},
		{Label: "Low stock", Value: r.format.Count(counts[report.StockStatusLow])},
		{Label: "In stock", Value: r.format.Count(counts[report.StockStatusInStock])},
		{Label: "Inventory value", Value: r.format.Money(inventory)},
	}
	return doc
}

func (r *ReportRenderer) describePeriod(p salesPeriod) string {
	// to is exclusive
	last := p.to.AddDate(0, 0, -1)
	return fmt.Sprintf("%s (%s to %s)", p.filter.Label(), r.format.Date(p.from), r.format.Date(last))
}

func (r *ReportRenderer) customerSalesDocument(orders []report.SalesOrder, period salesPeriod) *report.Document {
	rows := report.AnalyzeCustomerSales(orders)

	doc := &report.Document{
		Title:    report.ReportTypeCustomerSales.Title(),
		Subtitle: r.describePeriod(period),
		Columns: []report.Column{
			left("Customer"), right("Orders"), right("Units"), right("Gross"),
			right("Discount"), right("Net"), right("Avg Order"),
		},
	}

	var net decimal.Decimal
	for _, row := range rows {
		doc.Rows = append(doc.Rows, []string{
			orDash(row.CustomerName), r.format.Count(row.OrderCount), r.format.Quantity(row.Units),
			r.format.Money(row.Gross), r.format.Money(row.Discount), r.format.Money(row.Net),
			r.format.Money(row.AverageOrderValue),
		})
		net = net.Add(row.Net)
	}

	doc.Summary = []report.SummaryLine{
		{Label: "Customers", Value: r.format.Count(len(rows))},
		{Label: "Orders", Value: r.format.Count(len(orders))},
		{Label: "Net sales", Value: r.format.Money(net)},
	}
	return doc
}

func (r *ReportRenderer) discountDocument(orders []report.SalesOrder, period salesPeriod) *report.Document {
	rows := report.AnalyzeDiscounts(orders)

	doc := &report.Document{
		Title:    report.ReportTypeDiscountPricing.Title(),
		Subtitle: r.describePeriod(period),
		Columns: []report.Column{
			left("Product"), right("Units"), right("List Revenue"), right("Discount"),
			right("Net Revenue"), right("Discount %"), right("Avg Price"),
		},
	}

	var list, discount decimal.Decimal
	for _, row := range rows {
		doc.Rows = append(doc.Rows, []string{
			orDash(row.ProductName), r.format.Quantity(row.Units), r.format.Money(row.ListRevenue),
			r.format.Money(row.Discount), r.format.Money(row.NetRevenue),
			r.format.Percent(row.DiscountPercent), r.format.Money(row.AvgSellingPrice),
		})
		list = list.Add(row.ListRevenue)
		discount = discount.Add(row.Discount)
	}

	overall := decimal.Zero
	if !list.IsZero() {
		overall = discount.Div(list).Mul(decimal.NewFromInt(100))
	}
	doc.Summary = []report.SummaryLine{
		{Label: "Products", Value: r.format.Count(len(rows))},
		{Label: "Total discount", Value: r.format.Money(discount)},
		{Label: "Overall discount", Value: r.format.Percent(overall)},
	}
	return doc
}

// describeProductFilter names the selected categories, subcategories and brands
func describeProductFilter(snapshot *report.ProductSnapshot, filter report.ProductFilter) string {
	categories := map[uuid.UUID]string{}
	subcategories := map[uuid.UUID]string{}
	brands := map[uuid.UUID]string{}
	for _, p := range snapshot.Products {
		if p.CategoryID != nil {
			categories[*p.CategoryID] = p.CategoryName
		}
		if p.SubcategoryID != nil {
			subcategories[*p.SubcategoryID] = p.SubcategoryName
		}
		if p.BrandID != nil {
			brands[*p.BrandID] = p.BrandName
		}
	}

	var parts []string
	add := func(label string, ids []uuid.UUID, names map[uuid.UUID]string) {
		if len(ids) == 0 {
			return
		}
		resolved := make([]string, 0, len(ids))
		for _, id := range ids {
			if name, ok := names[id]; ok && name != "" {
				resolved = append(resolved, name)
			} else {
				resolved = append(resolved, id.String()[:8])
			}
		}
		parts = append(parts, label+": "+strings.Join(resolved, ", "))
	}
	add("Categories", filter.Categories, categories)
	add("Subcategories", filter.Subcategories, subcategories)
	add("Brands", filter.Brands, brands)

	desc := "All products"
	if len(parts) > 0 {
		desc = strings.Join(parts, "; ")
	}
	if filter.SortBy != "" {
		desc += "; sorted by " + strings.ReplaceAll(string(filter.SortBy), "-", " ")
	}
	return desc
}
