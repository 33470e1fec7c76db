// Package model holds the GORM persistence models.
package model

// All returns every model managed by AutoMigrate.
func All() []any {
	return []any{&UserModel{}, &ProductModel{}, &OrderModel{}, &SaleModel{}}
}
