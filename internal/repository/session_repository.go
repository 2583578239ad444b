package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/matrific/matrific-web/internal/models"
	"github.com/matrific/matrific-web/pkg/storage"
)

// MemorySessionRepository keeps sessions in process memory. Sessions are
// lost on restart.
type MemorySessionRepository struct {
	mu     sync.RWMutex
	states map[string][]byte
}

// NewMemorySessionRepository constructs an empty repository.
func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{states: make(map[string][]byte)}
}

func (r *MemorySessionRepository) Load(ctx context.Context, key string) (*models.SessionState, error) {
	r.mu.RLock()
	raw, ok := r.states[key]
	r.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return decodeState(key, raw)
}

func (r *MemorySessionRepository) Save(ctx context.Context, key string, state models.SessionState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal session %s: %w", key, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states[key] = raw
	return nil
}

func (r *MemorySessionRepository) Delete(ctx context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.states, key)
	return nil
}

// FileSessionRepository stores each session as a JSON file.
type FileSessionRepository struct {
	files *storage.LocalStorage
}

// NewFileSessionRepository constructs a repository over a storage directory.
func NewFileSessionRepository(files *storage.LocalStorage) *FileSessionRepository {
	return &FileSessionRepository{files: files}
}

func (r *FileSessionRepository) Load(ctx context.Context, key string) (*models.SessionState, error) {
	raw, err := r.files.Read(key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load session %s: %w", key, err)
	}
	if err := r.files.Touch(key); err != nil {
		return nil, err
	}
	return decodeState(key, raw)
}

func (r *FileSessionRepository) Save(ctx context.Context, key string, state models.SessionState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal session %s: %w", key, err)
	}
	return r.files.Write(key, raw)
}

func (r *FileSessionRepository) Delete(ctx context.Context, key string) error {
	return r.files.Delete(key)
}

// Purge removes sessions idle for longer than ttl. Keys in live belong to
// workspaces still in memory and are never removed.
func (r *FileSessionRepository) Purge(ctx context.Context, ttl time.Duration, live []string) (int, error) {
	deleted, err := r.files.CleanupOlderThan(ttl, live...)
	return len(deleted), err
}

const redisSessionPrefix = "session:"

// RedisSessionRepository stores sessions in Redis with a sliding TTL.
type RedisSessionRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSessionRepository constructs the repository. A non-positive ttl
// keeps sessions until deleted.
func NewRedisSessionRepository(client *redis.Client, ttl time.Duration) *RedisSessionRepository {
	if ttl < 0 {
		ttl = 0
	}
	return &RedisSessionRepository{client: client, ttl: ttl}
}

func (r *RedisSessionRepository) Load(ctx context.Context, key string) (*models.SessionState, error) {
	raw, err := r.client.Get(ctx, redisSessionPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get session %s: %w", key, err)
	}
	if r.ttl > 0 {
		if err := r.client.Expire(ctx, redisSessionPrefix+key, r.ttl).Err(); err != nil {
			return nil, fmt.Errorf("redis expire session %s: %w", key, err)
		}
	}
	return decodeState(key, raw)
}

func (r *RedisSessionRepository) Save(ctx context.Context, key string, state models.SessionState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal session %s: %w", key, err)
	}
	if err := r.client.Set(ctx, redisSessionPrefix+key, raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set session %s: %w", key, err)
	}
	return nil
}

func (r *RedisSessionRepository) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, redisSessionPrefix+key).Err(); err != nil {
		return fmt.Errorf("redis delete session %s: %w", key, err)
	}
	return nil
}

// SessionSchema creates the table used by PostgresSessionRepository.
const SessionSchema = `CREATE TABLE IF NOT EXISTS client_sessions (
	key TEXT PRIMARY KEY,
	state JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// PostgresSessionRepository stores sessions in PostgreSQL.
type PostgresSessionRepository struct {
	db *sqlx.DB
}

// NewPostgresSessionRepository constructs the repository.
func NewPostgresSessionRepository(db *sqlx.DB) *PostgresSessionRepository {
	return &PostgresSessionRepository{db: db}
}

// Migrate ensures the sessions table exists.
func (r *PostgresSessionRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, SessionSchema); err != nil {
		return fmt.Errorf("migrate client_sessions: %w", err)
	}
	return nil
}

func (r *PostgresSessionRepository) Load(ctx context.Context, key string) (*models.SessionState, error) {
	const query = `SELECT state FROM client_sessions WHERE key = $1`
	var raw []byte
	if err := r.db.GetContext(ctx, &raw, query, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("load session %s: %w", key, err)
	}
	return decodeState(key, raw)
}

func (r *PostgresSessionRepository) Save(ctx context.Context, key string, state models.SessionState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal session %s: %w", key, err)
	}
	const query = `INSERT INTO client_sessions (key, state, updated_at) VALUES ($1, $2, $3)
ON CONFLICT (key) DO UPDATE SET state = EXCLUDED.state, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.ExecContext(ctx, query, key, raw, time.Now().UTC()); err != nil {
		return fmt.Errorf("save session %s: %w", key, err)
	}
	return nil
}

func (r *PostgresSessionRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM client_sessions WHERE key = $1`, key); err != nil {
		return fmt.Errorf("delete session %s: %w", key, err)
	}
	return nil
}

// Purge removes sessions not updated within ttl, except the keys in live.
func (r *PostgresSessionRepository) Purge(ctx context.Context, ttl time.Duration, live []string) (int, error) {
	const query = `DELETE FROM client_sessions WHERE updated_at < $1 AND NOT (key = ANY($2))`
	if live == nil {
		live = []string{}
	}
	res, err := r.db.ExecContext(ctx, query, time.Now().UTC().Add(-ttl), pq.Array(live))
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func decodeState(key string, raw []byte) (*models.SessionState, error) {
	var state models.SessionState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", key, err)
	}
	return &state, nil
}
