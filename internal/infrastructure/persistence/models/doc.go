// Package models contains GORM persistence models mapped to database tables.
// Domain types stay free of ORM tags; repositories convert between the two.
//
// Structure:
//   - base.go: shared identity/audit columns
//   - scheduled_report.go: scheduled report batches and their items
//   - catalog.go: products with category, subcategory, brand and vendor
//   - inventory.go: stock levels per product and location
//   - trade.go: customers, sales orders and order lines
package models
