package model

import "time"

// User is a Telegram user known to the mini-app. Identity is the numeric
// Telegram id supplied by the WebApp client, there is no separate credential.
type User struct {
	Id           string     `json:"id" gorm:"primaryKey"`
	TelegramId   int64      `json:"telegram_id" gorm:"uniqueIndex"`
	Username     *string    `json:"username"`
	FirstName    *string    `json:"first_name"`
	LastName     *string    `json:"last_name"`
	LanguageCode *string    `json:"language_code"`
	RoleId       *string    `json:"role_id"`
	Role         *Role      `json:"roles,omitempty" gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	FirstLoginAt *time.Time `json:"first_login_at"`
	LastLoginAt  *time.Time `json:"last_login_at"`
}

// RoleName returns the joined role name, empty if the user has no role.
func (u *User) RoleName() string {
	if u.Role == nil {
		return ""
	}
	return u.Role.Name
}
