package courses

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arihant-coaching/coaching_api/internal/apperr"
)

// ErrNotFound means no course has the requested id.
var ErrNotFound = apperr.New(apperr.KindNotFound, "course_not_found", "course not found")

// Repository persists courses.
type Repository interface {
	Create(ctx context.Context, c Course) error
	Get(ctx context.Context, id string) (Course, error)
	List(ctx context.Context) ([]Course, error)
	Update(ctx context.Context, c Course) error
	Delete(ctx context.Context, id string) error
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed course repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const courseColumns = `id, title, description, duration, fees, category, limited_seats, created_at, updated_at`

func (r *PostgresRepository) Create(ctx context.Context, c Course) error {
	id, err := uuid.Parse(c.ID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO courses (`+courseColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		id, c.Title, c.Description, c.Duration, c.Fees, c.Category, c.LimitedSeats, c.CreatedAt.UTC(), c.UpdatedAt.UTC())
	return err
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (Course, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return Course{}, ErrNotFound
	}
	c, err := scanCourse(r.db.QueryRow(ctx, `SELECT `+courseColumns+` FROM courses WHERE id = $1`, parsed))
	if errors.Is(err, pgx.ErrNoRows) {
		return Course{}, ErrNotFound
	}
	return c, err
}

func (r *PostgresRepository) List(ctx context.Context) ([]Course, error) {
	rows, err := r.db.Query(ctx, `SELECT `+courseColumns+` FROM courses ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Course{}
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) Update(ctx context.Context, c Course) error {
	id, err := uuid.Parse(c.ID)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, `UPDATE courses
        SET title = $1, description = $2, duration = $3, fees = $4, category = $5, limited_seats = $6, updated_at = $7
        WHERE id = $8`, c.Title, c.Description, c.Duration, c.Fees, c.Category, c.LimitedSeats, c.UpdatedAt.UTC(), id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, `DELETE FROM courses WHERE id = $1`, parsed)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanCourse(row pgx.Row) (Course, error) {
	var (
		id                   uuid.UUID
		createdAt, updatedAt time.Time
		c                    Course
	)
	if err := row.Scan(&id, &c.Title, &c.Description, &c.Duration, &c.Fees, &c.Category, &c.LimitedSeats, &createdAt, &updatedAt); err != nil {
		return Course{}, err
	}
	c.ID = id.String()
	c.CreatedAt = createdAt.UTC()
	c.UpdatedAt = updatedAt.UTC()
	return c, nil
}
