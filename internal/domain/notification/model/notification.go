package model

import baseModel "cakery_api/pkg/model"

// Notification types.
const (
	TypeOrder   = "order"
	TypePayment = "payment"
	TypePromo   = "promo"
	TypeSystem  = "system"
)

// Notification is a persisted in-app notification.
type Notification struct {
	baseModel.BaseModel
	UserID  uint   `gorm:"index" json:"userId"`
	Title   string `gorm:"size:255" json:"title"`
	Message string `gorm:"type:text" json:"message"`
	Type    string `gorm:"size:20;default:'system'" json:"type"`
	IsRead  bool   `gorm:"default:false" json:"isRead"`
}
