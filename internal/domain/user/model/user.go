package model

import baseModel "cakery_api/pkg/model"

// Roles.
const (
	RoleUser  = 1
	RoleAdmin = 2
)

// User is the read model for the account system, which lives outside this
// service. Orders and notifications only need identity and contact fields.
type User struct {
	baseModel.BaseModel
	FullName string `gorm:"size:100" json:"fullName"`
	Email    string `gorm:"size:255;uniqueIndex" json:"email"`
	Phone    string `gorm:"size:20" json:"phone"`
	Role     int    `gorm:"default:1" json:"role"`
}
