package repository

import (
	"errors"

	"cakery_api/internal/domain/order/model"
	"cakery_api/pkg/apperr"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderRepository interface {
	// CreateWithItems persists the order, its line items and the recomputed
	// total in one transaction. A failed line leaves no partial rows.
	CreateWithItems(order *model.Order, items []model.OrderItem) error

	GetByID(id uint) (*model.Order, error)
	GetOwned(id, userID uint) (*model.Order, error)
	List(userID uint, all bool, offset, limit int) ([]model.Order, int64, error)

	// UpdateLocked loads the order FOR UPDATE, runs apply, and saves the
	// result in the same transaction. All order mutations outside creation
	// go through here, which serializes writers on one order row.
	UpdateLocked(id uint, apply func(o *model.Order) error) (*model.Order, error)

	// RecomputeTotal re-derives total_price from the order's line items and
	// persists it. Idempotent: with no intervening item mutation, repeated
	// calls return the same value.
	RecomputeTotal(orderID uint) (decimal.Decimal, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) CreateWithItems(order *model.Order, items []model.OrderItem) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(order).Error; err != nil {
			return err
		}

		for i := range items {
			items[i].OrderID = order.ID
			if err := tx.Create(&items[i]).Error; err != nil {
				return err
			}
		}

		total, err := recomputeTotal(tx, order.ID)
		if err != nil {
			return err
		}

		if err := tx.Model(&model.Order{}).Where("id = ?", order.ID).
			Update("total_price", total).Error; err != nil {
			return err
		}

		order.TotalPrice = total
		order.Items = items
		return nil
	})
}

func (r *orderRepository) GetByID(id uint) (*model.Order, error) {
	var order model.Order
	if err := r.db.Preload("Items").First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &apperr.NotFoundError{Resource: "Order"}
		}
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) GetOwned(id, userID uint) (*model.Order, error) {
	var order model.Order
	err := r.db.Preload("Items").Where("id = ? AND user_id = ?", id, userID).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &apperr.NotFoundError{Resource: "Order"}
		}
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) List(userID uint, all bool, offset, limit int) ([]model.Order, int64, error) {
	var orders []model.Order
	var total int64

	q := r.db.Model(&model.Order{})
	if !all {
		q = q.Where("user_id = ?", userID)
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Preload("Items").Order("created_at DESC").Offset(offset).Limit(limit).Find(&orders).Error
	return orders, total, err
}

func (r *orderRepository) UpdateLocked(id uint, apply func(o *model.Order) error) (*model.Order, error) {
	var order model.Order

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&order, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &apperr.NotFoundError{Resource: "Order"}
			}
			return err
		}

		// Items are read outside the lock scope; only the order row contends.
		if err := tx.Where("order_id = ?", id).Find(&order.Items).Error; err != nil {
			return err
		}

		if err := apply(&order); err != nil {
			return err
		}

		return tx.Omit(clause.Associations).Save(&order).Error
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) RecomputeTotal(orderID uint) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var err error
		total, err = recomputeTotal(tx, orderID)
		if err != nil {
			return err
		}
		return tx.Model(&model.Order{}).Where("id = ?", orderID).
			Update("total_price", total).Error
	})
	return total, err
}

// recomputeTotal sums quantity * price_at_purchase over the order's items.
// A full re-read beats incremental maintenance here: item counts are single
// digits and the sum stays correct under partial writes.
func recomputeTotal(tx *gorm.DB, orderID uint) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := tx.Model(&model.OrderItem{}).
		Where("order_id = ?", orderID).
		Select("SUM(quantity * price_at_purchase)").
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}
