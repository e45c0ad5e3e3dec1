package repository

import (
	"errors"

	"cakery_api/internal/domain/catalog/model"
	"cakery_api/pkg/apperr"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// VariantRepository resolves (product, weight) pairs to prices. The result is
// snapshotted onto order items at creation time and never re-derived, so
// later catalog price changes do not rewrite historical orders.
type VariantRepository interface {
	PriceFor(productID uint, kg decimal.Decimal) (decimal.Decimal, error)
	ProductName(productID uint) (string, error)
}

type variantRepository struct {
	db *gorm.DB
}

func NewVariantRepository(db *gorm.DB) VariantRepository {
	return &variantRepository{db: db}
}

func (r *variantRepository) PriceFor(productID uint, kg decimal.Decimal) (decimal.Decimal, error) {
	var variant model.ProductVariant
	err := r.db.Where("product_id = ? AND kg = ?", productID, kg).First(&variant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, &apperr.NotFoundError{Resource: "Product variant"}
		}
		return decimal.Zero, err
	}
	return variant.Price, nil
}

func (r *variantRepository) ProductName(productID uint) (string, error) {
	var product model.Product
	if err := r.db.First(&product, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", &apperr.NotFoundError{Resource: "Product"}
		}
		return "", err
	}
	return product.Name, nil
}
