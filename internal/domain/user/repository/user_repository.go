package repository

import (
	"errors"

	"cakery_api/internal/domain/user/model"
	"cakery_api/pkg/apperr"

	"gorm.io/gorm"
)

type UserRepository interface {
	GetByID(id uint) (*model.User, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(id uint) (*model.User, error) {
	var user model.User
	if err := r.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &apperr.NotFoundError{Resource: "User"}
		}
		return nil, err
	}
	return &user, nil
}
