package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ncngteam/miniapp/model"
	"github.com/ncngteam/miniapp/server/middlewares"
	. "github.com/ncngteam/miniapp/utils/log"
)

const defaultRoleColor = "#28a745"

// ListRoles returns one page of roles, newest first.
func (h *Handler) ListRoles(c *gin.Context) {
	limit, offset := pagination(c)

	var total int64
	if err := h.DB.Model(&model.Role{}).Count(&total).Error; err != nil {
		serverError(c, "Failed to count roles from database", err)
		return
	}

	var roles []*model.Role
	err := h.DB.Order("created_at DESC").Limit(limit).Offset(offset).Find(&roles).Error
	if err != nil {
		serverError(c, "Failed to fetch roles from database", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"roles": roles, "total": total})
}

type createRoleRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Color       string  `json:"color"`
}

// CreateRole creates a role. Names are unique and stored lowercase.
func (h *Handler) CreateRole(c *gin.Context) {
	var req createRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		badRequest(c, "Role name is required and must be a non-empty string")
		return
	}

	name := strings.ToLower(strings.TrimSpace(req.Name))

	var existing int64
	if err := h.DB.Model(&model.Role{}).Where("name = ?", name).Count(&existing).Error; err != nil {
		serverError(c, "Failed to create role", err)
		return
	}
	if existing > 0 {
		badRequest(c, "A role with this name already exists")
		return
	}

	color := req.Color
	if color == "" {
		color = defaultRoleColor
	}

	role := model.Role{
		Id:          uuid.New().String(),
		Name:        name,
		Description: req.Description,
		Color:       color,
	}
	if err := h.DB.Create(&role).Error; err != nil {
		serverError(c, "Failed to create role", err)
		return
	}

	Log.Info("new role created: ", role.Id)
	c.JSON(http.StatusOK, gin.H{"role": role})
}

// DeleteRole deletes a role unless any user still holds it.
func (h *Handler) DeleteRole(c *gin.Context) {
	roleId := c.Param("roleId")

	var usersWithRole int64
	if err := h.DB.Model(&model.User{}).Where("role_id = ?", roleId).Count(&usersWithRole).Error; err != nil {
		serverError(c, "Failed to check role usage", err)
		return
	}
	if usersWithRole > 0 {
		badRequest(c, "Cannot delete a role that is assigned to users")
		return
	}

	err := h.DB.Where("id = ?", roleId).Delete(&model.Role{}).Error
	if err != nil {
		serverError(c, "Failed to delete role", err)
		return
	}

	middlewares.ResetAdminCache()

	Log.Info("role deleted: ", roleId, " at ", time.Now().UTC().Format(time.RFC3339))
	c.JSON(http.StatusOK, gin.H{"success": true})
}
