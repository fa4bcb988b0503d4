package publisher

import (
	"time"

	"github.com/samber/lo"
	"gorm.io/gorm"

	"github.com/ncngteam/miniapp/model"
)

// IsVisible reports whether a content item should be shown to end users at
// the given instant. Visibility is derived from time, not from the persisted
// status: an item whose scheduled time has passed is visible even if no sweep
// has flipped its status yet. Pure, never mutates stored state.
func IsVisible(c *model.Content, now time.Time) bool {
	if !c.IsScheduled {
		return true
	}
	return c.ScheduledAt != nil && !c.ScheduledAt.After(now)
}

// FilterVisible keeps only the items visible at now. This in-process pass is
// applied after every read that already used ScopeVisible; the two filters
// are deliberately redundant and this one is authoritative, covering timezone
// and precision mismatches between the store's filter language and the
// application clock.
func FilterVisible(items []*model.Content, now time.Time) []*model.Content {
	return lo.Filter(items, func(c *model.Content, _ int) bool {
		return IsVisible(c, now)
	})
}

// ScopeVisible is the coarse store-side counterpart of IsVisible, used to
// avoid transferring obviously invisible rows.
func ScopeVisible(now time.Time) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("is_scheduled = false OR is_scheduled IS NULL OR scheduled_at IS NULL OR scheduled_at <= ?", now)
	}
}

// ScopePublished restricts a content query to rows that count as published
// at now. Rows created before the scheduling feature carry no status and
// count as published; rows still marked scheduled count as published once
// their time has passed, so a stale status between sweeps never hides an
// item. Coarse store-side filter, FilterPublished is the authority.
func ScopePublished(now time.Time) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("status = ? OR status IS NULL OR (status = ? AND scheduled_at <= ?)",
			model.StatusPublished, model.StatusScheduled, now)
	}
}

// FilterPublished keeps items whose derived status at now is published:
// persisted published (or legacy no status), or persisted scheduled with the
// scheduled time already elapsed. Drafts never pass.
func FilterPublished(items []*model.Content, now time.Time) []*model.Content {
	return lo.Filter(items, func(c *model.Content, _ int) bool {
		switch c.StatusOrPublished() {
		case model.StatusPublished:
			return true
		case model.StatusScheduled:
			return IsVisible(c, now)
		default:
			return false
		}
	})
}
