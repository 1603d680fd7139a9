package event_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/renshulabs/academy/core"
	"github.com/renshulabs/academy/core/event"
	"github.com/renshulabs/academy/storage/cache"
	dummydb "github.com/renshulabs/academy/storage/database/dummy"
)

func setup(t *testing.T) *event.Service {
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	conf := &core.Config{Redis: core.RedisConfig{CacheTTL: 5 * time.Minute}}
	return event.NewService(dummydb.NewEventRepository(db), cache.NewMemory(), conf)
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Winter Grading 2024", "winter-grading-2024"},
		{"  BJJ  Open Mat!  ", "bjj-open-mat"},
		{"---", ""},
		{"Seminar: Guard Passing", "seminar-guard-passing"},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, event.Slugify(tt.title))
		})
	}
}

func TestService_Create(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	e, err := svc.Create(ctx, event.NewEvent{
		Title:     "Winter Grading 2024",
		StartsAt:  time.Date(2024, time.December, 14, 9, 0, 0, 0, time.UTC),
		Published: true,
	})
	assert.NoError(t, err)
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, "winter-grading-2024", e.Slug)

	got, err := svc.GetByID(ctx, e.ID)
	assert.NoError(t, err)
	assert.Equal(t, e.Title, got.Title)
}

func TestService_PublicList(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	published, err := svc.Create(ctx, event.NewEvent{
		Title:     "Winter Grading 2024",
		StartsAt:  time.Date(2024, time.December, 14, 9, 0, 0, 0, time.UTC),
		Published: true,
	})
	assert.NoError(t, err)
	_, err = svc.Create(ctx, event.NewEvent{
		Title:    "Draft Seminar",
		StartsAt: time.Date(2025, time.January, 10, 9, 0, 0, 0, time.UTC),
	})
	assert.NoError(t, err)

	// drafts stay out of the public listing
	events, err := svc.PublicList(ctx)
	assert.NoError(t, err)
	if assert.Len(t, events, 1) {
		assert.Equal(t, published.ID, events[0].ID)
	}

	// a write invalidates the cached listing; the next read sees the change
	pub := true
	draft, err := svc.GetByID(ctx, published.ID)
	assert.NoError(t, err)
	_, err = svc.Update(ctx, draft, event.UpdateEvent{
		Title:     "Winter Grading 2024 (rescheduled)",
		StartsAt:  time.Date(2024, time.December, 21, 9, 0, 0, 0, time.UTC),
		Published: &pub,
	})
	assert.NoError(t, err)

	events, err = svc.PublicList(ctx)
	assert.NoError(t, err)
	if assert.Len(t, events, 1) {
		assert.Equal(t, "winter-grading-2024-rescheduled", events[0].Slug)
	}
}

func TestService_Delete(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	e, err := svc.Create(ctx, event.NewEvent{
		Title:     "Winter Grading 2024",
		StartsAt:  time.Date(2024, time.December, 14, 9, 0, 0, 0, time.UTC),
		Published: true,
	})
	assert.NoError(t, err)

	// prime the cache, then delete; the listing must not serve the stale entry
	_, err = svc.PublicList(ctx)
	assert.NoError(t, err)

	assert.NoError(t, svc.Delete(ctx, e.ID))

	events, err := svc.PublicList(ctx)
	assert.NoError(t, err)
	assert.Empty(t, events)

	_, err = svc.GetByID(ctx, e.ID)
	assert.Equal(t, event.ErrNotFound, err)
}
