package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

const dbTimeout = 5 * time.Second

// PostgresStore persists snapshots as one jsonb document per user and
// fans out every write over a redis pub/sub channel so other service
// instances see live updates.
type PostgresStore struct {
	pool  *pgxpool.Pool
	redis *redis.Client
	now   func() time.Time
}

// NewPostgresStore creates a PostgreSQL-backed progress store. The redis
// client is optional; without it Subscribe is unsupported.
func NewPostgresStore(pool *pgxpool.Pool, rdb *redis.Client) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresStore{pool: pool, redis: rdb, now: time.Now}, nil
}

func progressChannel(userID string) string {
	return "progress:" + userID
}

func (s *PostgresStore) Get(ctx context.Context, userID string) (*Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var doc []byte
	err := s.pool.QueryRow(ctx,
		`SELECT snapshot FROM user_progress WHERE user_id = $1 LIMIT 1`,
		userID,
	).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &Snapshot{}, nil
		}
		return nil, fmt.Errorf("get progress: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(doc, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return &snap, nil
}

// SetCourse merges one course entry into the user's document with a
// read-modify-write, then publishes the full document. No compare-and-swap:
// concurrent writers for the same user can overwrite each other.
func (s *PostgresStore) SetCourse(ctx context.Context, userID string, entry CourseProgress) error {
	snap, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}
	snap.SetCourse(entry)
	snap.LastUpdated = s.now().Format(time.RFC3339)

	doc, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	wctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err = s.pool.Exec(wctx,
		`INSERT INTO user_progress (user_id, snapshot, updated_at)
		 VALUES ($1, $2::jsonb, NOW())
		 ON CONFLICT (user_id) DO UPDATE
		 SET snapshot = EXCLUDED.snapshot, updated_at = NOW()`,
		userID, string(doc),
	)
	if err != nil {
		return fmt.Errorf("upsert progress: %w", err)
	}

	if s.redis != nil {
		if err := s.redis.Publish(ctx, progressChannel(userID), doc).Err(); err != nil {
			// Fan-out is best effort; the write itself succeeded.
			slog.Warn("progress publish failed", "user_id", userID, "error", err)
		}
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err := s.pool.Exec(ctx,
		`DELETE FROM user_progress WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("delete progress: %w", err)
	}
	return nil
}

// Subscribe rides the redis pub/sub channel for the user's document.
func (s *PostgresStore) Subscribe(ctx context.Context, userID string) (<-chan Snapshot, error) {
	if s.redis == nil {
		return nil, fmt.Errorf("subscriptions require a redis client")
	}

	sub := s.redis.Subscribe(ctx, progressChannel(userID))
	ch := make(chan Snapshot, 8)

	go func() {
		defer close(ch)
		defer sub.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-sub.Channel():
				if !ok {
					return
				}
				var snap Snapshot
				if err := json.Unmarshal([]byte(msg.Payload), &snap); err != nil {
					slog.Warn("dropping malformed progress update", "user_id", userID, "error", err)
					continue
				}
				select {
				case ch <- snap:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return ch, nil
}
