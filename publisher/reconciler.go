package publisher

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/ncngteam/miniapp/model"
	. "github.com/ncngteam/miniapp/utils/log"
)

// storeTimeout bounds every store call made during one reconciliation so a
// hung connection cannot wedge the sweep worker forever.
const storeTimeout = 30 * time.Second

// AutoPublishOverdue finds every content item that is marked scheduled and
// whose scheduled time has elapsed relative to now, and transitions the whole
// set to published in one batched write. It returns the number of items the
// store reports as transitioned, which can be lower than the overdue set when
// a concurrent reconciliation already claimed some rows.
//
// The operation is idempotent: a transitioned item no longer matches the
// candidate filter, so calling this repeatedly or concurrently is safe and
// needs no locking. On any store failure nothing is partially committed; the
// whole batch is retried by the next sweep.
func AutoPublishOverdue(ctx context.Context, db *gorm.DB, now time.Time) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	// Coarse candidate selection. The store-side time filter only bounds the
	// result set, the instant comparison below is the authoritative one.
	var candidates []*model.Content
	err := db.WithContext(ctx).
		Where("status = ? AND is_scheduled = ? AND scheduled_at IS NOT NULL AND scheduled_at <= ?",
			model.StatusScheduled, true, now).
		Find(&candidates).Error
	if err != nil {
		return 0, errors.Wrap(err, "fail to load scheduled content candidates")
	}

	// Re-apply the overdue filter on parsed instants. Store-side timestamp
	// comparison can drift from the application clock by the store's configured
	// offset, and when the two layers disagree the instant comparison wins.
	overdueIds := []string{}
	for _, c := range candidates {
		if c.ScheduledAt == nil {
			Log.Warnf("scheduled content %s has no scheduled_at, skipping", c.Id)
			continue
		}
		if c.ScheduledAt.After(now) {
			continue
		}
		Log.Infof("content %q (%s) is %.0fs overdue, publishing", c.Title, c.Id, now.Sub(*c.ScheduledAt).Seconds())
		overdueIds = append(overdueIds, c.Id)
	}

	if len(overdueIds) == 0 {
		Log.Info("no overdue scheduled content")
		return 0, nil
	}

	// One batched transition for the whole overdue set. The status predicate
	// makes the row claim atomic: an item grabbed by a concurrent sweep no
	// longer matches and only lowers the affected-row count.
	res := db.WithContext(ctx).Model(&model.Content{}).
		Where("id IN ? AND status = ?", overdueIds, model.StatusScheduled).
		Updates(map[string]interface{}{
			"status":       model.StatusPublished,
			"is_scheduled": false,
			"scheduled_at": nil,
			"published_at": now,
			"updated_at":   now,
		})
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "fail to publish overdue content")
	}

	published := int(res.RowsAffected)
	Log.Infof("auto-published %d of %d overdue content items at %s",
		published, len(overdueIds), now.UTC().Format(time.RFC3339))
	return published, nil
}

// RecentlyPublished returns items published within the trailing window before
// now, newest first. The admin auto-publish endpoint reports these so a manual
// sweep does not re-report older publications.
func RecentlyPublished(ctx context.Context, db *gorm.DB, now time.Time, window time.Duration) ([]*model.Content, error) {
	var posts []*model.Content
	err := db.WithContext(ctx).
		Where("status = ? AND published_at IS NOT NULL AND published_at >= ?",
			model.StatusPublished, now.Add(-window)).
		Order("published_at DESC").
		Find(&posts).Error
	if err != nil {
		return nil, errors.Wrap(err, "fail to load recently published content")
	}
	return posts, nil
}
