package course

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const dbTimeout = 5 * time.Second

// PostgresStore is a PostgreSQL-backed Store implementation. Each course row
// carries scalar columns plus the module list as a jsonb document, mirroring
// the document shape the API serves.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL-backed course store.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]Course, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT id::text, title, instructor, category, duration, modules
		 FROM courses
		 ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("query courses: %w", err)
	}
	defer rows.Close()

	var courses []Course
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		courses = append(courses, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate courses: %w", err)
	}
	return courses, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*Course, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	row := s.pool.QueryRow(ctx,
		`SELECT id::text, title, instructor, category, duration, modules
		 FROM courses
		 WHERE id = $1::uuid
		 LIMIT 1`,
		id,
	)
	c, err := scanCourse(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, err
	}
	return c, nil
}

func (s *PostgresStore) Add(ctx context.Context, c Course) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	modules, err := json.Marshal(c.Modules)
	if err != nil {
		return "", fmt.Errorf("marshal modules: %w", err)
	}

	var id string
	err = s.pool.QueryRow(ctx,
		`INSERT INTO courses (id, title, instructor, category, duration, modules)
		 VALUES ($1::uuid, $2, $3, $4, $5, $6::jsonb)
		 RETURNING id::text`,
		c.ID, c.Title, c.Instructor, c.Category, c.Duration, string(modules),
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("insert course: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) Update(ctx context.Context, id string, c Course) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	modules, err := json.Marshal(c.Modules)
	if err != nil {
		return fmt.Errorf("marshal modules: %w", err)
	}

	cmd, err := s.pool.Exec(ctx,
		`UPDATE courses
		 SET title = $2, instructor = $3, category = $4, duration = $5, modules = $6::jsonb
		 WHERE id = $1::uuid`,
		id, c.Title, c.Instructor, c.Category, c.Duration, string(modules),
	)
	if err != nil {
		return fmt.Errorf("update course: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	cmd, err := s.pool.Exec(ctx,
		`DELETE FROM courses WHERE id = $1::uuid`,
		id,
	)
	if err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func scanCourse(row pgx.Row) (*Course, error) {
	var c Course
	var modules []byte
	if err := row.Scan(&c.ID, &c.Title, &c.Instructor, &c.Category, &c.Duration, &modules); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, pgx.ErrNoRows
		}
		return nil, fmt.Errorf("scan course: %w", err)
	}
	if len(modules) > 0 {
		if err := json.Unmarshal(modules, &c.Modules); err != nil {
			return nil, fmt.Errorf("unmarshal modules: %w", err)
		}
	}
	return &c, nil
}
