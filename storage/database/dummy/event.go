package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/renshulabs/academy/core"
	"github.com/renshulabs/academy/core/event"
)

type eventRepository struct {
	db *eventTable
}

var _ event.Repository = (*eventRepository)(nil) // interface compliance check

func NewEventRepository(db *DB) event.Repository {
	return &eventRepository{db: db.event}
}

func (repo *eventRepository) CreateEvent(ctx context.Context, e event.Event) (event.Event, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	e.ID = uuid.New().String()
	repo.db.table[e.ID] = &e
	return e, nil
}

func (repo *eventRepository) GetEventByID(ctx context.Context, id string) (event.Event, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if e, ok := repo.db.table[id]; ok {
		return *e, nil
	}
	return event.Event{}, event.ErrNotFound
}

func (repo *eventRepository) QueryEvents(ctx context.Context, publishedOnly bool, ordering []core.DBOrdering) ([]event.Event, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	events := make([]event.Event, 0, len(repo.db.table))
	for _, e := range repo.db.table {
		if publishedOnly && !e.Published {
			continue
		}
		events = append(events, *e)
	}

	ascending := len(ordering) > 0 && ordering[0].Ascending
	sort.Slice(events, func(i, j int) bool {
		if ascending {
			return events[i].StartsAt.Before(events[j].StartsAt)
		}
		return events[i].StartsAt.After(events[j].StartsAt)
	})
	return events, nil
}

func (repo *eventRepository) UpdateEvent(ctx context.Context, e event.Event) (event.Event, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[e.ID]
	if !ok {
		return event.Event{}, event.ErrNotFound
	}
	orig.Title = e.Title
	orig.Slug = e.Slug
	orig.StartsAt = e.StartsAt
	orig.Location = e.Location
	orig.Body = e.Body
	orig.ImagePath = e.ImagePath
	orig.Published = e.Published
	orig.UpdatedAt = e.UpdatedAt

	repo.db.table[e.ID] = orig
	return *orig, nil
}

func (repo *eventRepository) DeleteEventsByID(ctx context.Context, ids ...string) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	var count int
	for _, id := range ids {
		if _, ok := repo.db.table[id]; ok {
			delete(repo.db.table, id)
			count++
		}
	}
	return count, nil
}
