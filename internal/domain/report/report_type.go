package report

// ReportType identifies the rendering routine for a report item
type ReportType string

const (
	ReportTypeProductProfitability ReportType = "product-profitability"
	ReportTypeCategoryAnalysis     ReportType = "category-analysis"
	ReportTypeSubcategoryAnalysis  ReportType = "subcategory-analysis"
	ReportTypeBrandAnalysis        ReportType = "brand-analysis"
	ReportTypeVendorAnalysis       ReportType = "vendor-analysis"
	ReportTypeInventoryStatus      ReportType = "inventory-status"
	ReportTypeCustomerSales        ReportType = "customer-sales"
	ReportTypeDiscountPricing      ReportType = "discount-pricing"
)

// AllReportTypes returns every supported report type
func AllReportTypes() []ReportType {
	return []ReportType{
		ReportTypeProductProfitability,
		ReportTypeCategoryAnalysis,
		ReportTypeSubcategoryAnalysis,
		ReportTypeBrandAnalysis,
		ReportTypeVendorAnalysis,
		ReportTypeInventoryStatus,
		ReportTypeCustomerSales,
		ReportTypeDiscountPricing,
	}
}

// IsValid reports whether t is a supported report type
func (t ReportType) IsValid() bool {
	for _, known := range AllReportTypes() {
		if t == known {
			return true
		}
	}
	return false
}

// IsSalesOriented reports whether the report reads sales orders instead of the product catalog
func (t ReportType) IsSalesOriented() bool {
	return t == ReportTypeCustomerSales || t == ReportTypeDiscountPricing
}

// Title returns the human-readable report title
func (t ReportType) Title() string {
	switch t {
	case ReportTypeProductProfitability:
		return "Product Profitability"
	case ReportTypeCategoryAnalysis:
		return "Category Analysis"
	case ReportTypeSubcategoryAnalysis:
		return "Subcategory Analysis"
	case ReportTypeBrandAnalysis:
		return "Brand Analysis"
	case ReportTypeVendorAnalysis:
		return "Vendor Analysis"
	case ReportTypeInventoryStatus:
		return "Inventory Status"
	case ReportTypeCustomerSales:
		return "Customer Sales"
	case ReportTypeDiscountPricing:
		return "Discount & Pricing"
	}
	return string(t)
}
