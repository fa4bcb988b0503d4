package server

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ncngteam/miniapp/server/middlewares"
)

// RegisterRoutes wires every API route onto the router. middlewares.Setup
// must have been called with the same db handle beforehand.
func RegisterRoutes(router *gin.Engine, db *gorm.DB) {
	h := NewHandler(db)

	api := router.Group("/api")
	api.Use(middlewares.TouchLastLogin())

	api.GET("/health", h.Health)

	api.POST("/users/register", h.RegisterUser)
	api.GET("/users/check/:telegram_id", h.CheckUser)
	api.GET("/user/content/:telegramId", h.UserContent)

	api.GET("/settings", h.GetSettings)
	api.PUT("/settings/:key", middlewares.AdminOnly(), h.UpdateSetting)
	api.GET("/tariff-prices", h.GetTariffPrices)

	admin := api.Group("/admin", middlewares.AdminOnly())
	admin.GET("/users", h.ListUsers)
	admin.GET("/users/activity-stats", h.ActivityStats)
	admin.PATCH("/users/:userId/role", h.UpdateUserRole)
	admin.POST("/assign-admin", h.AssignAdmin)

	admin.GET("/roles", h.ListRoles)
	admin.POST("/roles", h.CreateRole)
	admin.DELETE("/roles/:roleId", h.DeleteRole)

	admin.GET("/content/:roleName", h.ContentByRole)
	admin.POST("/content", h.CreateContent)
	admin.POST("/content/auto-publish", h.AutoPublish)
	admin.PATCH("/content/:contentId", h.UpdateContent)
	admin.DELETE("/content/:contentId", h.DeleteContent)

	admin.PUT("/tariff-prices", h.UpdateTariffPrices)

	// Debug routes bypass authorization, keep them off any public deployment.
	test := api.Group("/test")
	test.POST("/auto-publish", h.TestAutoPublish)
	test.GET("/scheduled-posts", h.ScheduledPosts)
}
