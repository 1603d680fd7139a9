package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/renshulabs/academy/core"
	"github.com/renshulabs/academy/core/admin"
)

type adminRepository struct {
	db *sqlx.DB
	rt retrier
}

var _ admin.Repository = (*adminRepository)(nil) // interface compliance check

func NewAdminRepository(db *sqlx.DB, conf *core.Config) *adminRepository {
	return &adminRepository{db: db, rt: newRetrier(conf.Database)}
}

type adminRow struct {
	ID           string    `db:"id"`
	Email        string    `db:"email"`
	Name         string    `db:"name"`
	IsActive     bool      `db:"is_active"`
	PasswordHash []byte    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
	LastLogin    null.Time `db:"last_login"`
}

func (repo adminRepository) pack(a admin.Admin) adminRow {
	return adminRow{
		ID:           a.ID,
		Email:        a.Email,
		Name:         a.Name,
		IsActive:     a.IsActive,
		PasswordHash: a.PasswordHash,
		CreatedAt:    a.CreatedAt.UTC(),
		UpdatedAt:    a.UpdatedAt.UTC(),
		LastLogin:    null.NewTime(a.LastLogin.UTC(), !a.LastLogin.IsZero()),
	}
}

func (repo adminRepository) unpack(r adminRow) admin.Admin {
	return admin.Admin{
		ID:           r.ID,
		Email:        r.Email,
		Name:         r.Name,
		IsActive:     r.IsActive,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		LastLogin:    r.LastLogin.Time,
	}
}

// trapNoRowsErr maps psql "no rows" err to admin.ErrNotFound
func (repo adminRepository) trapNoRowsErr(err error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return admin.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo adminRepository) GetAdminByID(ctx context.Context, id string) (admin.Admin, error) {
	if _, err := uuid.Parse(id); err != nil {
		return admin.Admin{}, admin.ErrNotFound
	}

	var row adminRow
	err := repo.rt.do(ctx, func() error {
		return repo.db.GetContext(ctx, &row, `SELECT * FROM admin_users WHERE id = $1`, id)
	})
	if err != nil {
		return admin.Admin{}, repo.trapNoRowsErr(err, "finding admin")
	}
	return repo.unpack(row), nil
}

func (repo adminRepository) GetAdminByEmail(ctx context.Context, email string) (admin.Admin, error) {
	var row adminRow
	err := repo.rt.do(ctx, func() error {
		return repo.db.GetContext(ctx, &row, `SELECT * FROM admin_users WHERE email ILIKE $1`, email)
	})
	if err != nil {
		return admin.Admin{}, repo.trapNoRowsErr(err, "finding admin by email")
	}
	return repo.unpack(row), nil
}

func (repo adminRepository) QueryAllAdmins(ctx context.Context) ([]admin.Admin, error) {
	var rows []adminRow
	err := repo.rt.do(ctx, func() error {
		return repo.db.SelectContext(ctx, &rows, `SELECT * FROM admin_users ORDER BY email ASC`)
	})
	if err != nil {
		return nil, errors.Wrap(err, "querying admins")
	}

	out := make([]admin.Admin, 0, len(rows))
	for _, r := range rows {
		out = append(out, repo.unpack(r))
	}
	return out, nil
}

func (repo adminRepository) UpdateOrCreateAdmin(ctx context.Context, a admin.Admin) (admin.Admin, error) {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	row := repo.pack(a)

	var saved adminRow
	err := repo.rt.do(ctx, func() error {
		stmt, err := repo.db.PrepareNamedContext(ctx,
			`INSERT INTO admin_users (id, email, name, is_active, password_hash, created_at, updated_at, last_login)
			 VALUES (:id, :email, :name, :is_active, :password_hash, :created_at, :updated_at, :last_login)
			 ON CONFLICT (email) DO UPDATE
			 SET name = EXCLUDED.name, is_active = EXCLUDED.is_active,
			     password_hash = EXCLUDED.password_hash, updated_at = EXCLUDED.updated_at,
			     last_login = EXCLUDED.last_login
			 RETURNING *`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		return stmt.GetContext(ctx, &saved, row)
	})
	if err != nil {
		return admin.Admin{}, errors.Wrap(err, "upserting admin")
	}
	return repo.unpack(saved), nil
}
