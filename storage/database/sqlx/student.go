package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/renshulabs/academy/core"
	"github.com/renshulabs/academy/core/student"
)

type studentRepository struct {
	db *sqlx.DB
	rt retrier
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *sqlx.DB, conf *core.Config) *studentRepository {
	return &studentRepository{db: db, rt: newRetrier(conf.Database)}
}

type studentRow struct {
	ID            string      `db:"id"`
	Name          string      `db:"name"`
	NationalID    string      `db:"national_id"`
	Program       string      `db:"program"`
	JoinedOn      time.Time   `db:"joined_on"`
	GuardianName  null.String `db:"guardian_name"`
	GuardianPhone null.String `db:"guardian_phone"`
	AvatarPath    null.String `db:"avatar_path"`
	CreatedAt     time.Time   `db:"created_at"`
	UpdatedAt     time.Time   `db:"updated_at"`
}

func (repo studentRepository) pack(s student.Student) studentRow {
	return studentRow{
		ID:            s.ID,
		Name:          s.Name,
		NationalID:    s.NationalID,
		Program:       s.Program,
		JoinedOn:      s.JoinedOn,
		GuardianName:  null.NewString(s.GuardianName, s.GuardianName != ""),
		GuardianPhone: null.NewString(s.GuardianPhone, s.GuardianPhone != ""),
		AvatarPath:    null.NewString(s.AvatarPath, s.AvatarPath != ""),
		CreatedAt:     s.CreatedAt.UTC(),
		UpdatedAt:     s.UpdatedAt.UTC(),
	}
}

func (repo studentRepository) unpack(r studentRow) student.Student {
	return student.Student{
		ID:            r.ID,
		Name:          r.Name,
		NationalID:    r.NationalID,
		Program:       r.Program,
		JoinedOn:      r.JoinedOn,
		GuardianName:  r.GuardianName.String,
		GuardianPhone: r.GuardianPhone.String,
		AvatarPath:    r.AvatarPath.String,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

func (repo studentRepository) unpackSlice(rows []studentRow) []student.Student {
	students := make([]student.Student, 0, len(rows))
	for _, r := range rows {
		students = append(students, repo.unpack(r))
	}
	return students
}

// trapNoRowsErr maps psql "no rows" err to student.ErrNotFound
func (repo studentRepository) trapNoRowsErr(err error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return student.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo studentRepository) CheckNationalIDUniqueness(ctx context.Context, nationalID string, excludedStudents ...student.Student) error {
	ids := make([]string, 0, len(excludedStudents))
	for _, s := range excludedStudents {
		ids = append(ids, s.ID)
	}

	var exists bool
	err := repo.rt.do(ctx, func() error {
		return repo.db.GetContext(ctx, &exists,
			`SELECT EXISTS (SELECT 1 FROM students WHERE national_id = $1 AND NOT (id = ANY($2::uuid[])))`,
			nationalID, pq.Array(ids))
	})
	if err != nil {
		return errors.Wrap(err, "checking national ID uniqueness")
	}
	if exists {
		return student.ErrNationalIDExists
	}
	return nil
}

func (repo studentRepository) CreateStudent(ctx context.Context, s student.Student) (student.Student, error) {
	s.ID = uuid.New().String()
	row := repo.pack(s)

	err := repo.rt.do(ctx, func() error {
		_, err := repo.db.NamedExecContext(ctx,
			`INSERT INTO students (id, name, national_id, program, joined_on, guardian_name, guardian_phone, avatar_path, created_at, updated_at)
			 VALUES (:id, :name, :national_id, :program, :joined_on, :guardian_name, :guardian_phone, :avatar_path, :created_at, :updated_at)`,
			row)
		return err
	})
	if err != nil {
		if isUniqueViolation(err) {
			return student.Student{}, student.ErrNationalIDExists
		}
		return student.Student{}, errors.Wrap(err, "inserting student")
	}
	return repo.unpack(row), nil
}

func (repo studentRepository) GetStudentByID(ctx context.Context, id string) (student.Student, error) {
	if _, err := uuid.Parse(id); err != nil {
		return student.Student{}, student.ErrNotFound
	}

	var row studentRow
	err := repo.rt.do(ctx, func() error {
		return repo.db.GetContext(ctx, &row, `SELECT * FROM students WHERE id = $1`, id)
	})
	if err != nil {
		return student.Student{}, repo.trapNoRowsErr(err, "finding student by ID")
	}
	return repo.unpack(row), nil
}

func (repo studentRepository) QueryStudents(ctx context.Context, filter *student.QueryFilter, ordering []core.DBOrdering) ([]student.Student, error) {
	query := `SELECT * FROM students`
	var clauses []string
	var args []interface{}

	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter != nil {
		if filter.Search != "" {
			val := "%" + filter.Search + "%"
			clauses = append(clauses, fmt.Sprintf("(name ILIKE %s OR national_id ILIKE %s)", arg(val), arg(val)))
		}
		if filter.Program != "" {
			clauses = append(clauses, fmt.Sprintf("program ILIKE %s", arg(filter.Program)))
		}
		if !filter.JoinedFrom.IsZero() {
			clauses = append(clauses, fmt.Sprintf("joined_on >= %s", arg(filter.JoinedFrom)))
		}
		if !filter.JoinedTo.IsZero() {
			clauses = append(clauses, fmt.Sprintf("joined_on <= %s", arg(filter.JoinedTo)))
		}
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}

	if len(ordering) > 0 {
		orderList := make([]string, 0, len(ordering))
		for _, ord := range ordering {
			orderList = append(orderList, ord.String())
		}
		query += " ORDER BY " + strings.Join(orderList, ", ")
	} else {
		query += " ORDER BY name ASC"
	}

	var rows []studentRow
	err := repo.rt.do(ctx, func() error {
		return repo.db.SelectContext(ctx, &rows, query, args...)
	})
	if err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	return repo.unpackSlice(rows), nil
}

func (repo studentRepository) UpdateStudent(ctx context.Context, s student.Student) (student.Student, error) {
	row := repo.pack(s)

	var updated studentRow
	err := repo.rt.do(ctx, func() error {
		stmt, err := repo.db.PrepareNamedContext(ctx,
			`UPDATE students
			 SET name = :name, national_id = :national_id, program = :program, joined_on = :joined_on,
			     guardian_name = :guardian_name, guardian_phone = :guardian_phone, avatar_path = :avatar_path,
			     updated_at = :updated_at
			 WHERE id = :id
			 RETURNING *`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		return stmt.GetContext(ctx, &updated, row)
	})
	if err != nil {
		if isUniqueViolation(err) {
			return student.Student{}, student.ErrNationalIDExists
		}
		return student.Student{}, repo.trapNoRowsErr(err, "updating student")
	}
	return repo.unpack(updated), nil
}

func (repo studentRepository) DeleteStudentsByID(ctx context.Context, ids ...string) (int, error) {
	var cnt int64
	err := repo.rt.do(ctx, func() error {
		res, err := repo.db.ExecContext(ctx, `DELETE FROM students WHERE id = ANY($1::uuid[])`, pq.Array(ids))
		if err != nil {
			return err
		}
		cnt, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, errors.Wrap(err, "deleting students")
	}
	return int(cnt), nil
}
