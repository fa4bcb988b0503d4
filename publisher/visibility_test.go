package publisher

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/ncngteam/miniapp/model"
)

func strPtr(s string) *string {
	return &s
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func scheduledItem(id string, scheduledAt time.Time) *model.Content {
	return &model.Content{
		Id:          id,
		IsScheduled: true,
		ScheduledAt: timePtr(scheduledAt),
		Status:      strPtr(model.StatusScheduled),
	}
}

func TestIsVisibleUnscheduled(t *testing.T) {
	now := time.Now().UTC()

	item := &model.Content{Id: "a", IsScheduled: false, Status: strPtr(model.StatusPublished)}
	assert.True(t, IsVisible(item, now))

	// Legacy row without any scheduling fields at all.
	legacy := &model.Content{Id: "b"}
	assert.True(t, IsVisible(legacy, now))
}

func TestIsVisibleMonotonic(t *testing.T) {
	scheduledAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	item := scheduledItem("a", scheduledAt)

	// False strictly before the scheduled instant, true from it onward,
	// never flipping back.
	assert.False(t, IsVisible(item, scheduledAt.Add(-time.Hour)))
	assert.False(t, IsVisible(item, scheduledAt.Add(-time.Second)))
	assert.True(t, IsVisible(item, scheduledAt))
	assert.True(t, IsVisible(item, scheduledAt.Add(time.Second)))
	assert.True(t, IsVisible(item, scheduledAt.Add(365*24*time.Hour)))
}

func TestIsVisibleScheduledWithoutTime(t *testing.T) {
	now := time.Now().UTC()

	// A scheduled item whose scheduled_at is missing can never become due.
	item := &model.Content{Id: "a", IsScheduled: true, Status: strPtr(model.StatusScheduled)}
	assert.False(t, IsVisible(item, now))
}

func TestFilterVisible(t *testing.T) {
	now := time.Now().UTC()

	published := &model.Content{Id: "published", Status: strPtr(model.StatusPublished)}
	// Overdue but not yet swept: status still says scheduled.
	overdue := scheduledItem("overdue", now.Add(-10*time.Second))
	pending := scheduledItem("pending", now.Add(time.Hour))

	visible := FilterVisible([]*model.Content{published, overdue, pending}, now)

	// Order preserved, pending item never shown before its time.
	if diff := cmp.Diff([]*model.Content{published, overdue}, visible); diff != "" {
		t.Errorf("unexpected visible set, diff: %s", diff)
	}
}

func TestFilterPublishedDerivedStatus(t *testing.T) {
	now := time.Now().UTC()

	published := &model.Content{Id: "published", Status: strPtr(model.StatusPublished)}
	legacy := &model.Content{Id: "legacy"}
	overdue := scheduledItem("overdue", now.Add(-time.Minute))
	pending := scheduledItem("pending", now.Add(time.Minute))
	draft := &model.Content{Id: "draft", Status: strPtr(model.StatusDraft)}

	kept := FilterPublished([]*model.Content{published, legacy, overdue, pending, draft}, now)

	// The overdue item counts as published even though no sweep has flipped
	// its status yet; drafts and future items never do.
	if diff := cmp.Diff([]*model.Content{published, legacy, overdue}, kept); diff != "" {
		t.Errorf("unexpected published set, diff: %s", diff)
	}
}
