package server

import (
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ncngteam/miniapp/model"
	"github.com/ncngteam/miniapp/publisher"
	. "github.com/ncngteam/miniapp/utils/log"
)

// Health is the liveness probe.
func (h *Handler) Health(c *gin.Context) {
	env := os.Getenv("MINIAPP_ENV")
	if env == "" {
		env = "dev"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":      "OK",
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
		"environment": env,
	})
}

// TestAutoPublish triggers one reconciliation without any authorization
// check. Debug only: must not be exposed outside trusted deployments.
func (h *Handler) TestAutoPublish(c *gin.Context) {
	Log.Info("test auto-publish requested")

	published, err := publisher.AutoPublishOverdue(c.Request.Context(), h.DB, time.Now().UTC())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Test auto-publish failed",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Test auto-publish completed",
		"published": published,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

type scheduledPostInfo struct {
	Id             string     `json:"id"`
	Title          string     `json:"title"`
	RoleName       string     `json:"role_name"`
	Status         string     `json:"status"`
	ScheduledAt    *time.Time `json:"scheduled_at"`
	IsOverdue      bool       `json:"is_overdue"`
	SecondsOverdue *int64     `json:"seconds_overdue"`
}

// ScheduledPosts dumps every scheduled item with its overdue computation.
// Unauthenticated diagnostic endpoint for chasing timezone drift between the
// store filter and the application clock.
func (h *Handler) ScheduledPosts(c *gin.Context) {
	now := time.Now().UTC()

	var scheduled []*model.Content
	err := h.DB.Where("is_scheduled = ? AND scheduled_at IS NOT NULL", true).
		Find(&scheduled).Error
	if err != nil {
		serverError(c, "Failed to fetch scheduled posts", err)
		return
	}

	posts := make([]scheduledPostInfo, 0, len(scheduled))
	overdue := make([]scheduledPostInfo, 0)
	for _, item := range scheduled {
		info := scheduledPostInfo{
			Id:          item.Id,
			Title:       item.Title,
			RoleName:    item.RoleName,
			Status:      item.StatusOrPublished(),
			ScheduledAt: item.ScheduledAt,
		}
		if item.ScheduledAt != nil && !item.ScheduledAt.After(now) {
			info.IsOverdue = true
			secs := int64(now.Sub(*item.ScheduledAt).Seconds())
			info.SecondsOverdue = &secs
			if item.StatusOrPublished() == model.StatusScheduled {
				overdue = append(overdue, info)
			}
		}
		posts = append(posts, info)
	}

	c.JSON(http.StatusOK, gin.H{
		"current_time":    now.Format(time.RFC3339),
		"total_scheduled": len(posts),
		"overdue_count":   len(overdue),
		"scheduled_posts": posts,
		"overdue_posts":   overdue,
	})
}
