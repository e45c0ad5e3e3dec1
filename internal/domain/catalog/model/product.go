package model

import (
	baseModel "cakery_api/pkg/model"

	"github.com/shopspring/decimal"
)

// Product is a read model for the catalog service; the ordering core only
// needs names for notification lines and variant prices for snapshots.
type Product struct {
	baseModel.BaseModel
	Name        string `gorm:"size:100" json:"name"`
	Description string `json:"description"`
	CategoryID  uint   `json:"categoryId"`
	IsSpecial   bool   `gorm:"default:false" json:"isSpecial"`
}

// ProductVariant prices one (product, weight) pair. Unique on the pair.
type ProductVariant struct {
	baseModel.BaseModel
	ProductID uint            `gorm:"uniqueIndex:idx_product_kg" json:"productId"`
	Kg        decimal.Decimal `gorm:"type:numeric(3,1);uniqueIndex:idx_product_kg" json:"kg"`
	Price     decimal.Decimal `gorm:"type:numeric(8,2)" json:"price"`
}
