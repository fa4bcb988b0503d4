package model

import "time"

// AdminRoleName gates every /api/admin route.
const AdminRoleName = "admin"

type Role struct {
	Id          string    `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"uniqueIndex"`
	Description *string   `json:"description"`
	Color       string    `json:"color" gorm:"default:#28a745"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
