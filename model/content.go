package model

import (
	"time"
)

/*

Content is a unit of publishable material shown to one audience segment.

Id: primary key
CreatedAt: time when entity is created
UpdatedAt: time of the last mutation, updated on every write

RoleName: audience tag, logical grouping only (not an enforced relation to Role)
Title: display title in plain text
Description: optional display text

IsScheduled: whether visibility of this item is time gated
ScheduledAt: the instant a scheduled item should become visible, stored in UTC.
		Meaningful only when IsScheduled is true.
PublishedAt: the instant the item actually became visible. Set either on
		immediate-publish creation or by the auto-publish reconciler.
Status: draft | scheduled | published. Kept consistent with the scheduling
		fields above. Nullable: rows created before the scheduling feature have no
		status and are treated as published.

Links: links belonging to this item, "has-many" relation, cascade deleted
		with the item. A valid item has at least one link, enforced at creation.
*/

type Content struct {
	Id          string         `json:"id" gorm:"primaryKey"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	RoleName    string         `json:"role_name" gorm:"index"`
	Title       string         `json:"title"`
	Description *string        `json:"description"`
	IsScheduled bool           `json:"is_scheduled"`
	ScheduledAt *time.Time     `json:"scheduled_at"`
	PublishedAt *time.Time     `json:"published_at"`
	Status      *string        `json:"status"`
	Links       []*ContentLink `json:"links" gorm:"foreignKey:ContentId;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

// TableName keeps the singular table name the rest of the stack already uses.
func (Content) TableName() string {
	return "content"
}

const (
	StatusDraft     = "draft"
	StatusScheduled = "scheduled"
	StatusPublished = "published"
)

// StatusOrPublished returns the persisted status, with rows lacking one
// counting as published for backward compatibility.
func (c *Content) StatusOrPublished() string {
	if c.Status == nil {
		return StatusPublished
	}
	return *c.Status
}
