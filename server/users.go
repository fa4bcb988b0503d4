package server

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"gorm.io/gorm"

	"github.com/ncngteam/miniapp/model"
	"github.com/ncngteam/miniapp/server/middlewares"
	. "github.com/ncngteam/miniapp/utils/log"
)

type registerRequest struct {
	TelegramId   int64   `json:"telegram_id" binding:"required"`
	Username     *string `json:"username"`
	FirstName    *string `json:"first_name"`
	LastName     *string `json:"last_name"`
	LanguageCode *string `json:"language_code"`
}

// RegisterUser creates a user on first contact from the Telegram WebApp, or
// touches last_login_at on a repeat visit. No role is assigned at
// registration.
func (h *Handler) RegisterUser(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "telegram_id is required")
		return
	}

	var existing model.User
	err := h.DB.Where("telegram_id = ?", req.TelegramId).First(&existing).Error
	if err == nil {
		now := time.Now().UTC()
		if err := h.DB.Model(&existing).
			Updates(map[string]interface{}{"last_login_at": now, "updated_at": now}).Error; err != nil {
			Log.Error("fail to update last login: ", err)
		}
		c.JSON(http.StatusOK, gin.H{"user": existing, "isNew": false})
		return
	}
	if err != gorm.ErrRecordNotFound {
		serverError(c, "Failed to check existing user", err)
		return
	}

	now := time.Now().UTC()
	user := model.User{
		Id:           uuid.New().String(),
		TelegramId:   req.TelegramId,
		Username:     req.Username,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		LanguageCode: req.LanguageCode,
		FirstLoginAt: &now,
		LastLoginAt:  &now,
	}
	if err := h.DB.Create(&user).Error; err != nil {
		serverError(c, "Failed to register user", err)
		return
	}

	Log.Info("new user registered: ", user.Id)
	c.JSON(http.StatusOK, gin.H{"user": user, "isNew": true})
}

// CheckUser reports whether a telegram id is already registered, returning
// the user with its role when it is.
func (h *Handler) CheckUser(c *gin.Context) {
	telegramId, err := strconv.ParseInt(c.Param("telegram_id"), 10, 64)
	if err != nil {
		badRequest(c, "telegram_id is required")
		return
	}

	var user model.User
	err = h.DB.Preload("Role").Where("telegram_id = ?", telegramId).First(&user).Error
	if err == gorm.ErrRecordNotFound {
		c.JSON(http.StatusOK, gin.H{"exists": false, "user": nil})
		return
	}
	if err != nil {
		serverError(c, "Failed to check user", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"exists": true, "user": user})
}

// adminUser is the admin listing shape: the stored user plus the flattened
// role name and an avatar fallback for users without a Telegram photo.
type adminUser struct {
	*model.User
	Avatar string `json:"avatar"`
	Role   string `json:"role"`
}

func toAdminUser(u *model.User) adminUser {
	name := "User"
	if u.FirstName != nil && *u.FirstName != "" {
		name = *u.FirstName
	}
	return adminUser{
		User:   u,
		Avatar: fmt.Sprintf("https://ui-avatars.com/api/?name=%s&background=007bff&color=fff", url.QueryEscape(name)),
		Role:   u.RoleName(),
	}
}

// ListUsers returns one page of users ordered by most recent login.
func (h *Handler) ListUsers(c *gin.Context) {
	limit, offset := pagination(c)

	var total int64
	if err := h.DB.Model(&model.User{}).Count(&total).Error; err != nil {
		serverError(c, "Failed to count users", err)
		return
	}

	var users []*model.User
	err := h.DB.Preload("Role").
		Order("last_login_at DESC NULLS LAST").
		Limit(limit).Offset(offset).
		Find(&users).Error
	if err != nil {
		serverError(c, "Failed to fetch users from database", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"users": lo.Map(users, func(u *model.User, _ int) adminUser { return toAdminUser(u) }),
		"total": total,
	})
}

type activityStats struct {
	TotalUsers          int64 `json:"total_users"`
	UsersWithFirstLogin int64 `json:"users_with_first_login"`
	ActiveToday         int64 `json:"active_today"`
	ActiveWeek          int64 `json:"active_week"`
	ActiveMonth         int64 `json:"active_month"`
	InactiveUsers       int64 `json:"inactive_users"`
	NeverLoggedIn       int64 `json:"never_logged_in"`
}

// ActivityStats aggregates login activity counters for the admin dashboard.
func (h *Handler) ActivityStats(c *gin.Context) {
	var stats activityStats
	err := h.DB.Raw(`SELECT
		COUNT(*) AS total_users,
		COUNT(first_login_at) AS users_with_first_login,
		COUNT(*) FILTER (WHERE last_login_at >= NOW() - INTERVAL '1 day') AS active_today,
		COUNT(*) FILTER (WHERE last_login_at >= NOW() - INTERVAL '7 days') AS active_week,
		COUNT(*) FILTER (WHERE last_login_at >= NOW() - INTERVAL '30 days') AS active_month,
		COUNT(*) FILTER (WHERE last_login_at IS NOT NULL AND last_login_at < NOW() - INTERVAL '30 days') AS inactive_users,
		COUNT(*) FILTER (WHERE last_login_at IS NULL) AS never_logged_in
		FROM users`).Scan(&stats).Error
	if err != nil {
		serverError(c, "Failed to fetch activity statistics", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

type updateRoleRequest struct {
	RoleId string `json:"roleId"`
}

// UpdateUserRole assigns a role to a user, or clears it when roleId is empty.
func (h *Handler) UpdateUserRole(c *gin.Context) {
	userId := c.Param("userId")

	var req updateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	var roleId *string
	if req.RoleId != "" {
		var role model.Role
		if err := h.DB.Where("id = ?", req.RoleId).First(&role).Error; err != nil {
			badRequest(c, "The specified role does not exist")
			return
		}
		roleId = &req.RoleId
	}

	err := h.DB.Model(&model.User{}).Where("id = ?", userId).
		Updates(map[string]interface{}{"role_id": roleId, "updated_at": time.Now().UTC()}).Error
	if err != nil {
		serverError(c, "Failed to update user role", err)
		return
	}

	// A changed role must take effect on the admin gate promptly.
	middlewares.ResetAdminCache()

	var user model.User
	if err := h.DB.Preload("Role").Where("id = ?", userId).First(&user).Error; err != nil {
		serverError(c, "Failed to fetch updated user", err)
		return
	}

	Log.Info("user role updated: ", userId)
	c.JSON(http.StatusOK, gin.H{"user": user})
}

type assignAdminRequest struct {
	TelegramId int64 `json:"telegramId" binding:"required"`
}

// AssignAdmin grants the admin role to an existing user by telegram id.
func (h *Handler) AssignAdmin(c *gin.Context) {
	var req assignAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Telegram ID is required")
		return
	}

	var adminRole model.Role
	if err := h.DB.Where("name = ?", model.AdminRoleName).First(&adminRole).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Admin role not found. Please ensure the admin role exists in the database.",
		})
		return
	}

	var user model.User
	if err := h.DB.Where("telegram_id = ?", req.TelegramId).First(&user).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "User not found with the specified Telegram ID",
		})
		return
	}

	err := h.DB.Model(&user).
		Updates(map[string]interface{}{"role_id": adminRole.Id, "updated_at": time.Now().UTC()}).Error
	if err != nil {
		serverError(c, "Failed to assign admin role", err)
		return
	}

	middlewares.ResetAdminCache()

	var updated model.User
	if err := h.DB.Preload("Role").Where("id = ?", user.Id).First(&updated).Error; err != nil {
		serverError(c, "Failed to fetch updated user", err)
		return
	}

	Log.Info("admin role assigned to user: ", user.Id)
	c.JSON(http.StatusOK, gin.H{"message": "Admin role assigned successfully", "user": updated})
}
