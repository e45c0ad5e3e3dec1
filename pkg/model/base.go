package model

import (
	"time"
)

// BaseModel replaces gorm.Model. Plain auto-increment ids: gateway account
// references embed the numeric order id ("Order42"), so ids stay integers.
type BaseModel struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
