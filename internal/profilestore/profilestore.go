// Package profilestore persists connection profiles in a local SQLite
// database. The store is the single source of truth for what connections
// the tree shows; the watcher reloads it when the file changes.
package profilestore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/warren/pkg/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS profiles (
	id             TEXT PRIMARY KEY,
	name           TEXT NOT NULL,
	family         TEXT NOT NULL,
	driver         TEXT NOT NULL,
	host           TEXT NOT NULL,
	port           INTEGER NOT NULL DEFAULT 0,
	database_name  TEXT NOT NULL DEFAULT '',
	username       TEXT NOT NULL DEFAULT '',
	ssl_mode       TEXT NOT NULL DEFAULT '',
	redis_db_count INTEGER NOT NULL DEFAULT 0,
	password_env   TEXT NOT NULL DEFAULT '',
	created_at     TIMESTAMP NOT NULL,
	updated_at     TIMESTAMP NOT NULL
);
`

// Store is a SQLite-backed profile store.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (and creates if needed) the profile database at path. Parent
// directories are created.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create profile dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot open profile database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init profile schema: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Path returns the database file path, for the file watcher.
func (s *Store) Path() string { return s.path }

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// List returns all profiles ordered by name.
func (s *Store) List(ctx context.Context) ([]model.Profile, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, family, driver, host, port, database_name,
			username, ssl_mode, redis_db_count, password_env
		FROM profiles
		ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var out []model.Profile
	for rows.Next() {
		var p model.Profile
		var family string
		if err := rows.Scan(&p.ID, &p.Name, &family, &p.Driver, &p.Host, &p.Port,
			&p.Database, &p.Username, &p.SSLMode, &p.RedisDBCount, &p.PasswordEnv); err != nil {
			return nil, fmt.Errorf("scan profile row: %w", err)
		}
		p.Family = model.Family(family)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	return out, nil
}

// Get returns one profile by id.
func (s *Store) Get(ctx context.Context, id string) (model.Profile, error) {
	var p model.Profile
	var family string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, family, driver, host, port, database_name,
			username, ssl_mode, redis_db_count, password_env
		FROM profiles WHERE id = ?`, id).
		Scan(&p.ID, &p.Name, &family, &p.Driver, &p.Host, &p.Port,
			&p.Database, &p.Username, &p.SSLMode, &p.RedisDBCount, &p.PasswordEnv)
	if err == sql.ErrNoRows {
		return model.Profile{}, fmt.Errorf("profile %s not found", id)
	}
	if err != nil {
		return model.Profile{}, fmt.Errorf("get profile %s: %w", id, err)
	}
	p.Family = model.Family(family)
	return p, nil
}

// Save inserts or updates a profile. An empty ID gets a fresh uuid; the
// assigned id is returned.
func (s *Store) Save(ctx context.Context, p model.Profile) (string, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if err := p.Validate(); err != nil {
		return "", err
	}
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO profiles (id, name, family, driver, host, port,
			database_name, username, ssl_mode, redis_db_count, password_env,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			family = excluded.family,
			driver = excluded.driver,
			host = excluded.host,
			port = excluded.port,
			database_name = excluded.database_name,
			username = excluded.username,
			ssl_mode = excluded.ssl_mode,
			redis_db_count = excluded.redis_db_count,
			password_env = excluded.password_env,
			updated_at = excluded.updated_at`,
		p.ID, p.Name, string(p.Family), p.Driver, p.Host, p.Port,
		p.Database, p.Username, p.SSLMode, p.RedisDBCount, p.PasswordEnv,
		now, now)
	if err != nil {
		return "", fmt.Errorf("save profile %s: %w", p.ID, err)
	}
	return p.ID, nil
}

// Delete removes a profile. Deleting a missing profile is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM profiles WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete profile %s: %w", id, err)
	}
	return nil
}
