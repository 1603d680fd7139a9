package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/renshulabs/academy/core"
	"github.com/renshulabs/academy/core/event"
)

type eventRepository struct {
	db *sqlx.DB
	rt retrier
}

var _ event.Repository = (*eventRepository)(nil) // interface compliance check

func NewEventRepository(db *sqlx.DB, conf *core.Config) *eventRepository {
	return &eventRepository{db: db, rt: newRetrier(conf.Database)}
}

type eventRow struct {
	ID        string      `db:"id"`
	Title     string      `db:"title"`
	Slug      string      `db:"slug"`
	StartsAt  time.Time   `db:"starts_at"`
	Location  null.String `db:"location"`
	Body      null.String `db:"body"`
	ImagePath null.String `db:"image_path"`
	Published bool        `db:"published"`
	CreatedAt time.Time   `db:"created_at"`
	UpdatedAt time.Time   `db:"updated_at"`
}

func (repo eventRepository) pack(e event.Event) eventRow {
	return eventRow{
		ID:        e.ID,
		Title:     e.Title,
		Slug:      e.Slug,
		StartsAt:  e.StartsAt.UTC(),
		Location:  null.NewString(e.Location, e.Location != ""),
		Body:      null.NewString(e.Body, e.Body != ""),
		ImagePath: null.NewString(e.ImagePath, e.ImagePath != ""),
		Published: e.Published,
		CreatedAt: e.CreatedAt.UTC(),
		UpdatedAt: e.UpdatedAt.UTC(),
	}
}

func (repo eventRepository) unpack(r eventRow) event.Event {
	return event.Event{
		ID:        r.ID,
		Title:     r.Title,
		Slug:      r.Slug,
		StartsAt:  r.StartsAt,
		Location:  r.Location.String,
		Body:      r.Body.String,
		ImagePath: r.ImagePath.String,
		Published: r.Published,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// trapNoRowsErr maps psql "no rows" err to event.ErrNotFound
func (repo eventRepository) trapNoRowsErr(err error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return event.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo eventRepository) CreateEvent(ctx context.Context, e event.Event) (event.Event, error) {
	e.ID = uuid.New().String()
	row := repo.pack(e)

	var saved eventRow
	err := repo.rt.do(ctx, func() error {
		stmt, err := repo.db.PrepareNamedContext(ctx,
			`INSERT INTO events (id, title, slug, starts_at, location, body, image_path, published, created_at, updated_at)
			 VALUES (:id, :title, :slug, :starts_at, :location, :body, :image_path, :published, :created_at, :updated_at)
			 RETURNING *`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		return stmt.GetContext(ctx, &saved, row)
	})
	if err != nil {
		return event.Event{}, errors.Wrap(err, "inserting event")
	}
	return repo.unpack(saved), nil
}

func (repo eventRepository) GetEventByID(ctx context.Context, id string) (event.Event, error) {
	if _, err := uuid.Parse(id); err != nil {
		return event.Event{}, event.ErrNotFound
	}

	var row eventRow
	err := repo.rt.do(ctx, func() error {
		return repo.db.GetContext(ctx, &row, `SELECT * FROM events WHERE id = $1`, id)
	})
	if err != nil {
		return event.Event{}, repo.trapNoRowsErr(err, "finding event")
	}
	return repo.unpack(row), nil
}

func (repo eventRepository) QueryEvents(ctx context.Context, publishedOnly bool, ordering []core.DBOrdering) ([]event.Event, error) {
	query := `SELECT * FROM events`
	if publishedOnly {
		query += ` WHERE published`
	}
	if len(ordering) > 0 {
		orderList := make([]string, 0, len(ordering))
		for _, ord := range ordering {
			orderList = append(orderList, ord.String())
		}
		query += " ORDER BY " + strings.Join(orderList, ", ")
	} else {
		query += " ORDER BY starts_at DESC"
	}

	var rows []eventRow
	err := repo.rt.do(ctx, func() error {
		return repo.db.SelectContext(ctx, &rows, query)
	})
	if err != nil {
		return nil, errors.Wrap(err, "querying events")
	}

	out := make([]event.Event, 0, len(rows))
	for _, r := range rows {
		out = append(out, repo.unpack(r))
	}
	return out, nil
}

func (repo eventRepository) UpdateEvent(ctx context.Context, e event.Event) (event.Event, error) {
	row := repo.pack(e)

	var saved eventRow
	err := repo.rt.do(ctx, func() error {
		stmt, err := repo.db.PrepareNamedContext(ctx,
			`UPDATE events
			 SET title = :title, slug = :slug, starts_at = :starts_at, location = :location,
			     body = :body, image_path = :image_path, published = :published, updated_at = :updated_at
			 WHERE id = :id
			 RETURNING *`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		return stmt.GetContext(ctx, &saved, row)
	})
	if err != nil {
		return event.Event{}, repo.trapNoRowsErr(err, "updating event")
	}
	return repo.unpack(saved), nil
}

func (repo eventRepository) DeleteEventsByID(ctx context.Context, ids ...string) (int, error) {
	var count int64
	err := repo.rt.do(ctx, func() error {
		res, err := repo.db.ExecContext(ctx, `DELETE FROM events WHERE id = ANY($1::uuid[])`, pq.Array(ids))
		if err != nil {
			return err
		}
		count, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, errors.Wrap(err, "deleting events")
	}
	return int(count), nil
}
