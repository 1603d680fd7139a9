package event

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"github.com/renshulabs/academy/core"
)

var (
	// errors
	ErrNotFound = errors.New("event not found")
)

const publicCacheKey = "events:public"

type (
	Repository interface {
		CreateEvent(ctx context.Context, e Event) (Event, error)
		GetEventByID(ctx context.Context, id string) (Event, error)
		// QueryEvents lists events, optionally restricted to published ones.
		QueryEvents(ctx context.Context, publishedOnly bool, ordering []core.DBOrdering) ([]Event, error)
		UpdateEvent(ctx context.Context, e Event) (Event, error)
		DeleteEventsByID(ctx context.Context, ids ...string) (int, error)
	}

	Service struct {
		repo     Repository
		cache    core.Cache
		cacheTTL time.Duration
	}
)

func NewService(repo Repository, cache core.Cache, conf *core.Config) *Service {
	return &Service{
		repo:     repo,
		cache:    cache,
		cacheTTL: conf.Redis.CacheTTL,
	}
}

func (svc *Service) Create(ctx context.Context, ne NewEvent) (Event, error) {
	now := time.Now().UTC()
	e := Event{
		Title:     ne.Title,
		Slug:      Slugify(ne.Title),
		StartsAt:  ne.StartsAt,
		Location:  ne.Location,
		Body:      ne.Body,
		ImagePath: ne.ImagePath,
		Published: ne.Published,
		CreatedAt: now,
		UpdatedAt: now,
	}
	e, err := svc.repo.CreateEvent(ctx, e)
	if err != nil {
		return Event{}, err
	}
	svc.Invalidate(ctx)
	return e, nil
}

func (svc *Service) GetByID(ctx context.Context, id string) (Event, error) {
	return svc.repo.GetEventByID(ctx, id)
}

func (svc *Service) QueryAll(ctx context.Context) ([]Event, error) {
	return svc.repo.QueryEvents(ctx, false, []core.DBOrdering{{Field: "starts_at", Ascending: false}})
}

// PublicList serves the published events through the TTL cache; the cache is
// advisory only and every miss refetches from storage.
func (svc *Service) PublicList(ctx context.Context) ([]Event, error) {
	if svc.cache != nil {
		if data, err := svc.cache.Get(ctx, publicCacheKey); err == nil {
			var events []Event
			if err = json.Unmarshal(data, &events); err == nil {
				return events, nil
			}
		}
	}

	events, err := svc.repo.QueryEvents(ctx, true, []core.DBOrdering{{Field: "starts_at", Ascending: true}})
	if err != nil {
		return nil, errors.Wrap(err, "querying published events")
	}

	if svc.cache != nil {
		if data, err := json.Marshal(events); err == nil {
			_ = svc.cache.Set(ctx, publicCacheKey, data, svc.cacheTTL)
		}
	}
	return events, nil
}

func (svc *Service) Update(ctx context.Context, orig Event, ue UpdateEvent) (Event, error) {
	e := orig
	e.Title = ue.Title
	e.Slug = Slugify(ue.Title)
	e.StartsAt = ue.StartsAt
	e.Location = ue.Location
	e.Body = ue.Body
	e.ImagePath = ue.ImagePath
	if ue.Published != nil {
		e.Published = *ue.Published
	}
	e.UpdatedAt = time.Now().UTC()

	e, err := svc.repo.UpdateEvent(ctx, e)
	if err != nil {
		return Event{}, err
	}
	svc.Invalidate(ctx)
	return e, nil
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	if _, err := svc.repo.DeleteEventsByID(ctx, ids...); err != nil {
		return err
	}
	svc.Invalidate(ctx)
	return nil
}

// Invalidate drops the cached public listing; also triggered by realtime
// change notifications for the events table.
func (svc *Service) Invalidate(ctx context.Context) {
	if svc.cache != nil {
		_ = svc.cache.Delete(ctx, publicCacheKey)
	}
}
