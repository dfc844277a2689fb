// Package sqldb implements the backend service for SQL connections.
// Containers are schemas; leaves are tables listed from information_schema.
// Postgres and MySQL are supported through database/sql drivers.
package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"github.com/vanderheijden86/warren/pkg/backend"
	"github.com/vanderheijden86/warren/pkg/model"
)

// Schemas every server carries that nobody browses on purpose.
var systemSchemas = map[string]bool{
	"information_schema": true,
	"pg_catalog":         true,
	"pg_toast":           true,
	"mysql":              true,
	"performance_schema": true,
	"sys":                true,
}

// Service talks to SQL servers described by connection profiles. One
// *sql.DB pool is held per connection.
type Service struct {
	mu       sync.Mutex
	profiles map[string]model.Profile
	pools    map[string]*sql.DB
}

// New builds a Service over the given profiles, keeping only the sql ones.
func New(profiles []model.Profile) *Service {
	s := &Service{
		profiles: make(map[string]model.Profile),
		pools:    make(map[string]*sql.DB),
	}
	for _, p := range profiles {
		if p.Family == model.FamilySQL {
			s.profiles[p.ID] = p
		}
	}
	return s
}

// SetProfiles replaces the known profile set after the store changed on
// disk. Existing pools stay open until their connection is disconnected.
func (s *Service) SetProfiles(profiles []model.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles = make(map[string]model.Profile)
	for _, p := range profiles {
		if p.Family == model.FamilySQL {
			s.profiles[p.ID] = p
		}
	}
}

func (s *Service) profile(connID string) (model.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[connID]
	if !ok {
		return model.Profile{}, fmt.Errorf("%w: %s", backend.ErrUnknownConnection, connID)
	}
	return p, nil
}

func (s *Service) pool(connID string) (*sql.DB, model.Profile, error) {
	p, err := s.profile(connID)
	if err != nil {
		return nil, model.Profile{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if db, ok := s.pools[connID]; ok {
		return db, p, nil
	}

	password := ""
	if p.PasswordEnv != "" {
		password = os.Getenv(p.PasswordEnv)
	}
	var dsn string
	switch p.Driver {
	case "postgres":
		dsn = postgresDSN(p, password)
	case "mysql":
		dsn = mysqlDSN(p, password)
	default:
		return nil, model.Profile{}, fmt.Errorf("unsupported sql driver %q", p.Driver)
	}

	db, err := sql.Open(p.Driver, dsn)
	if err != nil {
		return nil, model.Profile{}, fmt.Errorf("open %s: %w", connID, err)
	}
	db.SetMaxOpenConns(4)
	s.pools[connID] = db
	return db, p, nil
}

// Connect opens the pool and verifies the server answers.
func (s *Service) Connect(ctx context.Context, connID string) error {
	db, _, err := s.pool(connID)
	if err != nil {
		return err
	}
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping %s: %w", connID, err)
	}
	return nil
}

// Disconnect closes the connection's pool. Idempotent.
func (s *Service) Disconnect(_ context.Context, connID string) error {
	s.mu.Lock()
	db, ok := s.pools[connID]
	delete(s.pools, connID)
	s.mu.Unlock()
	if !ok {
		return nil
	}
	if err := db.Close(); err != nil {
		return fmt.Errorf("close %s: %w", connID, err)
	}
	return nil
}

// ListContainers lists user schemas. Per-schema table counts are fetched
// concurrently, one goroutine per schema, bounded by the pool size.
func (s *Service) ListContainers(ctx context.Context, connID string) ([]model.ContainerDescriptor, error) {
	db, p, err := s.pool(connID)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx,
		`SELECT schema_name FROM information_schema.schemata ORDER BY schema_name`)
	if err != nil {
		return nil, fmt.Errorf("list schemas for %s: %w", connID, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan schema row: %w", err)
		}
		if systemSchemas[name] {
			continue
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list schemas for %s: %w", connID, err)
	}

	containers := make([]model.ContainerDescriptor, len(names))
	g, gctx := errgroup.WithContext(ctx)
	for i, name := range names {
		g.Go(func() error {
			n, err := tableCount(gctx, db, p.Driver, name)
			if err != nil {
				return err
			}
			containers[i] = model.ContainerDescriptor{ID: name, Name: name, LeafCount: n}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("count tables for %s: %w", connID, err)
	}
	return containers, nil
}

func tableCount(ctx context.Context, db *sql.DB, driver, schema string) (int64, error) {
	// Postgres and mysql disagree on placeholder syntax.
	query := `SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = $1`
	if driver == "mysql" {
		query = `SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = ?`
	}
	var n int64
	if err := db.QueryRowContext(ctx, query, schema).Scan(&n); err != nil {
		return -1, err
	}
	return n, nil
}

// ListLeaves lists all tables of a schema in one call, with row estimates
// where the server keeps them.
func (s *Service) ListLeaves(ctx context.Context, connID, containerID string) ([]model.LeafDescriptor, error) {
	db, p, err := s.pool(connID)
	if err != nil {
		return nil, err
	}

	var query string
	switch p.Driver {
	case "postgres":
		query = `SELECT t.table_name, t.table_type,
			COALESCE(c.reltuples::bigint, -1)
			FROM information_schema.tables t
			LEFT JOIN pg_class c ON c.relname = t.table_name
				AND c.relnamespace = $1::regnamespace
			WHERE t.table_schema = $1
			ORDER BY t.table_name`
	case "mysql":
		query = `SELECT t.table_name, t.table_type,
			COALESCE(t.table_rows, -1)
			FROM information_schema.tables t
			WHERE t.table_schema = ?
			ORDER BY t.table_name`
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", p.Driver)
	}

	rows, err := db.QueryContext(ctx, query, containerID)
	if err != nil {
		return nil, fmt.Errorf("list tables in %s.%s: %w", connID, containerID, err)
	}
	defer rows.Close()

	var leaves []model.LeafDescriptor
	for rows.Next() {
		var d model.LeafDescriptor
		if err := rows.Scan(&d.Name, &d.LeafType, &d.SizeEstimate); err != nil {
			return nil, fmt.Errorf("scan table row: %w", err)
		}
		d.TTLSeconds = -1
		leaves = append(leaves, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tables in %s.%s: %w", connID, containerID, err)
	}
	sort.Slice(leaves, func(i, j int) bool { return leaves[i].Name < leaves[j].Name })
	return leaves, nil
}

// ScanLeaves pages through tables by name, resuming after the cursor.
// SQL schemas rarely need pagination, but the contract allows a caller to
// treat both families uniformly.
func (s *Service) ScanLeaves(ctx context.Context, connID, containerID, pattern, cursor string, batchSize int) (backend.ScanPage, error) {
	all, err := s.ListLeaves(ctx, connID, containerID)
	if err != nil {
		return backend.ScanPage{}, err
	}
	if batchSize <= 0 {
		batchSize = 100
	}

	var page backend.ScanPage
	for _, d := range all {
		if cursor != "" && cursor != "0" && d.Name <= cursor {
			continue
		}
		if pattern != "" && pattern != "*" && !matchGlob(pattern, d.Name) {
			continue
		}
		page.Items = append(page.Items, d)
		if len(page.Items) == batchSize {
			page.Cursor = d.Name
			return page, nil
		}
	}
	page.Cursor = "0"
	return page, nil
}

// matchGlob implements the star-only subset of redis MATCH patterns:
// literal segments separated by '*'.
func matchGlob(pattern, name string) bool {
	segs := strings.Split(pattern, "*")
	if len(segs) == 1 {
		return name == pattern
	}
	prefix, suffix := segs[0], segs[len(segs)-1]
	if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, suffix) {
		return false
	}
	// The suffix must sit after the prefix, and each middle segment must
	// land between them; otherwise "ab*ba" matches "aba".
	pos := len(prefix)
	end := len(name) - len(suffix)
	if end < pos {
		return false
	}
	for _, seg := range segs[1 : len(segs)-1] {
		if seg == "" {
			continue
		}
		idx := strings.Index(name[pos:end], seg)
		if idx < 0 {
			return false
		}
		pos += idx + len(seg)
	}
	return true
}
