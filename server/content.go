package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ncngteam/miniapp/model"
	"github.com/ncngteam/miniapp/publisher"
	"github.com/ncngteam/miniapp/utils"
	. "github.com/ncngteam/miniapp/utils/log"
)

// recentlyPublishedWindow is how far back the manual auto-publish response
// looks when reporting what it just published, to avoid re-reporting older
// publications.
const recentlyPublishedWindow = time.Minute

func preloadLinks(db *gorm.DB) *gorm.DB {
	return db.Order("content_links.created_at ASC")
}

// ContentByRole lists all content tagged with a role, links included, without
// any visibility filtering: admins see scheduled items too.
func (h *Handler) ContentByRole(c *gin.Context) {
	roleName := c.Param("roleName")

	var content []*model.Content
	err := h.DB.Preload("Links", preloadLinks).
		Where("role_name = ?", roleName).
		Order("created_at DESC").
		Find(&content).Error
	if err != nil {
		serverError(c, "Failed to fetch content from database", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"content": content})
}

type linkInput struct {
	LinkType  string `json:"link_type"`
	LinkTitle string `json:"link_title"`
	LinkUrl   string `json:"link_url"`
}

func validateLinks(links []linkInput) string {
	for _, link := range links {
		if !model.ValidLinkType(link.LinkType) {
			return `Invalid link type. Must be "article" or "stream"`
		}
		if strings.TrimSpace(link.LinkTitle) == "" {
			return "Link title is required"
		}
		if strings.TrimSpace(link.LinkUrl) == "" {
			return "Link URL is required"
		}
	}
	return ""
}

func buildLinks(contentId string, links []linkInput) []*model.ContentLink {
	out := make([]*model.ContentLink, 0, len(links))
	for _, link := range links {
		out = append(out, &model.ContentLink{
			Id:        uuid.New().String(),
			ContentId: contentId,
			LinkType:  link.LinkType,
			LinkTitle: strings.TrimSpace(link.LinkTitle),
			LinkUrl:   strings.TrimSpace(link.LinkUrl),
		})
	}
	return out
}

// parseScheduledAt validates a client supplied scheduled_at against now.
// Returns a user-facing error message on rejection.
func parseScheduledAt(raw string, now time.Time) (*time.Time, string) {
	t, err := utils.ParseTimestamp(raw)
	if err != nil {
		return nil, "Invalid scheduled date format"
	}
	if !t.After(now) {
		return nil, "Scheduled time must be in the future"
	}
	return &t, ""
}

type createContentRequest struct {
	RoleName    string      `json:"role_name"`
	Title       string      `json:"title"`
	Description *string     `json:"description"`
	Links       []linkInput `json:"links"`
	IsScheduled bool        `json:"is_scheduled"`
	ScheduledAt string      `json:"scheduled_at"`
	Status      string      `json:"status"`
}

// CreateContent creates a content item with its links, either published
// immediately or deferred to a future scheduled_at.
func (h *Handler) CreateContent(c *gin.Context) {
	var req createContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	if strings.TrimSpace(req.RoleName) == "" {
		badRequest(c, "Role name is required")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		badRequest(c, "Title is required")
		return
	}
	if len(req.Links) == 0 {
		badRequest(c, "At least one link is required")
		return
	}
	if msg := validateLinks(req.Links); msg != "" {
		badRequest(c, msg)
		return
	}

	now := time.Now().UTC()

	content := model.Content{
		Id:       uuid.New().String(),
		RoleName: strings.TrimSpace(req.RoleName),
		Title:    strings.TrimSpace(req.Title),
	}
	if req.Description != nil {
		trimmed := strings.TrimSpace(*req.Description)
		if trimmed != "" {
			content.Description = &trimmed
		}
	}

	if req.IsScheduled {
		scheduledAt, msg := parseScheduledAt(req.ScheduledAt, now)
		if msg != "" {
			badRequest(c, msg)
			return
		}
		status := model.StatusScheduled
		if req.Status != "" {
			status = req.Status
		}
		content.IsScheduled = true
		content.ScheduledAt = scheduledAt
		content.Status = &status
		// published_at stays unset until the reconciler flips the item.
	} else {
		status := model.StatusPublished
		if req.Status != "" {
			status = req.Status
		}
		content.IsScheduled = false
		content.Status = &status
		content.PublishedAt = &now
	}

	content.Links = buildLinks(content.Id, req.Links)

	// Item and links commit together: a failed link insert rolls the item back.
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&content).Error
	})
	if err != nil {
		serverError(c, "Failed to create content", err)
		return
	}

	Log.Info("new content created: ", content.Id)
	c.JSON(http.StatusOK, gin.H{"content": content})
}

type updateContentRequest struct {
	Title       *string     `json:"title"`
	Description *string     `json:"description"`
	Links       []linkInput `json:"links"`
	IsScheduled *bool       `json:"is_scheduled"`
	ScheduledAt *string     `json:"scheduled_at"`
	Status      *string     `json:"status"`
}

// UpdateContent applies a partial update, including transitions between the
// scheduled and published lifecycles, and optionally replaces all links.
func (h *Handler) UpdateContent(c *gin.Context) {
	contentId := c.Param("contentId")

	var req updateContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	now := time.Now().UTC()
	updates := map[string]interface{}{"updated_at": now}

	if req.Title != nil {
		updates["title"] = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		trimmed := strings.TrimSpace(*req.Description)
		if trimmed == "" {
			updates["description"] = nil
		} else {
			updates["description"] = trimmed
		}
	}
	if req.IsScheduled != nil {
		updates["is_scheduled"] = *req.IsScheduled
	}
	// A provided scheduled_at moves the schedule even when is_scheduled is not
	// re-sent; it is cleared only on an explicit unschedule (or by the
	// publish-now transition below).
	if req.ScheduledAt != nil {
		if req.IsScheduled != nil && !*req.IsScheduled {
			updates["scheduled_at"] = nil
		} else {
			scheduledAt, msg := parseScheduledAt(*req.ScheduledAt, now)
			if msg != "" {
				badRequest(c, msg)
				return
			}
			updates["scheduled_at"] = scheduledAt
		}
	}
	if req.Status != nil {
		updates["status"] = *req.Status
	}

	// Re-scheduling an item clears its published time.
	if req.IsScheduled != nil && *req.IsScheduled {
		updates["published_at"] = nil
	}

	// Publish-now clears all scheduling state.
	if req.Status != nil && *req.Status == model.StatusPublished &&
		req.IsScheduled != nil && !*req.IsScheduled {
		updates["published_at"] = now
		updates["scheduled_at"] = nil
		updates["is_scheduled"] = false
	}

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Content{}).Where("id = ?", contentId).Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		if req.Links == nil {
			return nil
		}
		if err := tx.Where("content_id = ?", contentId).Delete(&model.ContentLink{}).Error; err != nil {
			return err
		}
		if len(req.Links) == 0 {
			return nil
		}
		return tx.Create(buildLinks(contentId, req.Links)).Error
	})
	if err == gorm.ErrRecordNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "Content not found"})
		return
	}
	if err != nil {
		serverError(c, "Failed to update content", err)
		return
	}

	var content model.Content
	if err := h.DB.Preload("Links", preloadLinks).Where("id = ?", contentId).First(&content).Error; err != nil {
		serverError(c, "Failed to fetch updated content", err)
		return
	}

	Log.Info("content updated: ", contentId)
	c.JSON(http.StatusOK, gin.H{"content": content})
}

// DeleteContent removes an item; its links go with it.
func (h *Handler) DeleteContent(c *gin.Context) {
	contentId := c.Param("contentId")

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("content_id = ?", contentId).Delete(&model.ContentLink{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", contentId).Delete(&model.Content{}).Error
	})
	if err != nil {
		serverError(c, "Failed to delete content", err)
		return
	}

	Log.Info("content deleted: ", contentId)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// UserContent lists the content visible to one end user: scoped to the
// user's role, filtered by time-derived visibility (both store-side and
// in-process, the latter being authoritative), optionally restricted to
// published status, newest first.
func (h *Handler) UserContent(c *gin.Context) {
	telegramId, err := strconv.ParseInt(c.Param("telegramId"), 10, 64)
	if err != nil {
		badRequest(c, "Telegram ID is required")
		return
	}

	var user model.User
	err = h.DB.Preload("Role").Where("telegram_id = ?", telegramId).First(&user).Error
	if err == gorm.ErrRecordNotFound {
		c.JSON(http.StatusOK, gin.H{"content": []*model.Content{}, "userRole": ""})
		return
	}
	if err != nil {
		serverError(c, "Failed to find user", err)
		return
	}

	userRole := user.RoleName()
	if userRole == "" {
		c.JSON(http.StatusOK, gin.H{"content": []*model.Content{}, "userRole": ""})
		return
	}

	now := time.Now().UTC()

	wantPublished := c.Query("status") == model.StatusPublished

	query := h.DB.Preload("Links", preloadLinks).
		Where("role_name = ?", userRole).
		Scopes(publisher.ScopeVisible(now))
	if wantPublished {
		query = query.Scopes(publisher.ScopePublished(now))
	}

	var content []*model.Content
	if err := query.Order("created_at DESC").Find(&content).Error; err != nil {
		serverError(c, "Failed to fetch content", err)
		return
	}

	// The authoritative visibility pass; the store-side scopes above are only
	// coarse pre-filters.
	visible := publisher.FilterVisible(content, now)
	if wantPublished {
		visible = publisher.FilterPublished(visible, now)
	}

	c.JSON(http.StatusOK, gin.H{"content": visible, "userRole": userRole})
}

// AutoPublish runs one reconciliation synchronously and reports what was
// published during it.
func (h *Handler) AutoPublish(c *gin.Context) {
	Log.Info("manual auto-publish requested")

	now := time.Now().UTC()
	published, err := publisher.AutoPublishOverdue(c.Request.Context(), h.DB, now)
	if err != nil {
		serverError(c, "Internal server error", err)
		return
	}

	if published == 0 {
		c.JSON(http.StatusOK, gin.H{
			"message":   "No overdue posts found",
			"published": 0,
			"posts":     []*model.Content{},
		})
		return
	}

	posts, err := publisher.RecentlyPublished(c.Request.Context(), h.DB, now, recentlyPublishedWindow)
	if err != nil {
		serverError(c, "Internal server error", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Posts published successfully",
		"published": published,
		"posts":     posts,
	})
}
