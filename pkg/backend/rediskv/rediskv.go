// Package rediskv implements the backend service for Redis connections.
// Containers are logical database indexes; leaves are keys discovered with
// incremental SCAN so a large keyspace never blocks the server.
package rediskv

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/vanderheijden86/warren/pkg/backend"
	"github.com/vanderheijden86/warren/pkg/model"
)

const defaultScanCount = 100

// Service talks to Redis servers described by connection profiles. One
// go-redis client is held per (connection, db index) pair; clients are
// created lazily and torn down on Disconnect.
type Service struct {
	mu       sync.Mutex
	profiles map[string]model.Profile
	clients  map[clientKey]*redis.Client
}

type clientKey struct {
	connID string
	db     int
}

// New builds a Service over the given profiles. Non-redis profiles are
// ignored so a mixed profile set can be passed straight through.
func New(profiles []model.Profile) *Service {
	s := &Service{
		profiles: make(map[string]model.Profile),
		clients:  make(map[clientKey]*redis.Client),
	}
	for _, p := range profiles {
		if p.Family == model.FamilyRedis {
			s.profiles[p.ID] = p
		}
	}
	return s
}

// SetProfiles replaces the known profile set, e.g. after the profile store
// changed on disk. Open clients stay up; a removed profile's clients are
// closed on the next Disconnect.
func (s *Service) SetProfiles(profiles []model.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles = make(map[string]model.Profile)
	for _, p := range profiles {
		if p.Family == model.FamilyRedis {
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

func (s *Service) options(p model.Profile, db int) *redis.Options {
	opts := &redis.Options{
		Addr: fmt.Sprintf("%s:%d", p.Host, p.Port),
		DB:   db,
	}
	if p.Username != "" {
		opts.Username = p.Username
	}
	if p.PasswordEnv != "" {
		opts.Password = os.Getenv(p.PasswordEnv)
	}
	return opts
}

// client returns a live client for the connection's db index, creating it
// on first use.
func (s *Service) client(connID string, db int) (*redis.Client, error) {
	p, err := s.profile(connID)
	if err != nil {
		return nil, err
	}
	key := clientKey{connID: connID, db: db}

	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.clients[key]; ok {
		return c, nil
	}
	c := redis.NewClient(s.options(p, db))
	s.clients[key] = c
	return c, nil
}

// Connect verifies the server is reachable with the profile's credentials.
func (s *Service) Connect(ctx context.Context, connID string) error {
	c, err := s.client(connID, 0)
	if err != nil {
		return err
	}
	if _, err := c.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("ping %s: %w", connID, err)
	}
	return nil
}

// Disconnect closes every client held for the connection. Idempotent.
func (s *Service) Disconnect(_ context.Context, connID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var firstErr error
	for key, c := range s.clients {
		if key.connID != connID {
			continue
		}
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close %s db %d: %w", connID, key.db, err)
		}
		delete(s.clients, key)
	}
	return firstErr
}

// ListContainers lists the logical databases of the server. The count comes
// from the profile when set, otherwise from CONFIG GET databases; per-db
// key counts come from INFO keyspace.
func (s *Service) ListContainers(ctx context.Context, connID string) ([]model.ContainerDescriptor, error) {
	p, err := s.profile(connID)
	if err != nil {
		return nil, err
	}
	c, err := s.client(connID, 0)
	if err != nil {
		return nil, err
	}

	count := p.RedisDBCount
	if count <= 0 {
		count, err = serverDBCount(ctx, c)
		if err != nil {
			return nil, fmt.Errorf("database count for %s: %w", connID, err)
		}
	}
	sizes, err := keyspaceSizes(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("keyspace info for %s: %w", connID, err)
	}

	containers := make([]model.ContainerDescriptor, 0, count)
	for i := 0; i < count; i++ {
		n, ok := sizes[i]
		if !ok {
			n = 0
		}
		containers = append(containers, model.ContainerDescriptor{
			ID:        strconv.Itoa(i),
			Name:      fmt.Sprintf("db%d", i),
			LeafCount: n,
		})
	}
	return containers, nil
}

// ListLeaves is not supported for Redis; keyspaces are loaded page by page
// with ScanLeaves.
func (s *Service) ListLeaves(context.Context, string, string) ([]model.LeafDescriptor, error) {
	return nil, fmt.Errorf("redis backend is cursor-paginated; use ScanLeaves")
}

// ScanLeaves runs one SCAN step against the container's database. Type and
// TTL for the returned keys are fetched in a single pipeline round trip.
func (s *Service) ScanLeaves(ctx context.Context, connID, containerID, pattern, cursor string, batchSize int) (backend.ScanPage, error) {
	db, err := strconv.Atoi(containerID)
	if err != nil {
		return backend.ScanPage{}, fmt.Errorf("container %q is not a db index: %w", containerID, err)
	}
	c, err := s.client(connID, db)
	if err != nil {
		return backend.ScanPage{}, err
	}

	start, err := parseCursor(cursor)
	if err != nil {
		return backend.ScanPage{}, err
	}
	if batchSize <= 0 {
		batchSize = defaultScanCount
	}
	match := pattern
	if match == "" {
		match = "*"
	}

	keys, next, err := c.Scan(ctx, start, match, int64(batchSize)).Result()
	if err != nil {
		return backend.ScanPage{}, fmt.Errorf("scan db %d: %w", db, err)
	}

	items, err := describeKeys(ctx, c, keys)
	if err != nil {
		return backend.ScanPage{}, err
	}
	return backend.ScanPage{Items: items, Cursor: strconv.FormatUint(next, 10)}, nil
}

// DeleteLeaf removes one key. The permission gate sits in the caller; by
// the time this runs the capability check already happened.
func (s *Service) DeleteLeaf(ctx context.Context, connID, containerID, name string) error {
	db, err := strconv.Atoi(containerID)
	if err != nil {
		return fmt.Errorf("container %q is not a db index: %w", containerID, err)
	}
	c, err := s.client(connID, db)
	if err != nil {
		return err
	}
	if err := c.Del(ctx, name).Err(); err != nil {
		return fmt.Errorf("del %s: %w", name, err)
	}
	return nil
}

func parseCursor(cursor string) (uint64, error) {
	if cursor == "" {
		return 0, nil
	}
	n, err := strconv.ParseUint(cursor, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bad scan cursor %q: %w", cursor, err)
	}
	return n, nil
}

// describeKeys resolves type and TTL for a scan batch with one pipeline.
func describeKeys(ctx context.Context, c *redis.Client, keys []string) ([]model.LeafDescriptor, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	pipe := c.Pipeline()
	types := make([]*redis.StatusCmd, len(keys))
	ttls := make([]*redis.DurationCmd, len(keys))
	for i, k := range keys {
		types[i] = pipe.Type(ctx, k)
		ttls[i] = pipe.TTL(ctx, k)
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, fmt.Errorf("pipeline type/ttl: %w", err)
	}

	items := make([]model.LeafDescriptor, 0, len(keys))
	for i, k := range keys {
		d := model.LeafDescriptor{Name: k, SizeEstimate: -1}
		if t, err := types[i].Result(); err == nil {
			d.LeafType = t
		}
		ttl, err := ttls[i].Result()
		switch {
		case err != nil:
			d.TTLSeconds = -1
		case ttl < 0:
			// -1: no expiry. -2: gone between SCAN and TTL.
			d.TTLSeconds = -1
		default:
			d.TTLSeconds = int64(ttl.Seconds())
		}
		items = append(items, d)
	}
	return items, nil
}

// serverDBCount asks the server how many logical databases it serves.
func serverDBCount(ctx context.Context, c *redis.Client) (int, error) {
	res, err := c.ConfigGet(ctx, "databases").Result()
	if err != nil {
		return 0, err
	}
	raw, ok := res["databases"]
	if !ok {
		return 16, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 16, nil
	}
	return n, nil
}

// keyspaceSizes parses INFO keyspace lines of the form
// "db0:keys=42,expires=3,avg_ttl=0" into db index -> key count.
func keyspaceSizes(ctx context.Context, c *redis.Client) (map[int]int64, error) {
	info, err := c.Info(ctx, "keyspace").Result()
	if err != nil {
		return nil, err
	}
	return parseKeyspaceInfo(info), nil
}

func parseKeyspaceInfo(info string) map[int]int64 {
	sizes := make(map[int]int64)
	for _, line := range strings.Split(info, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "db") {
			continue
		}
		name, rest, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		db, err := strconv.Atoi(strings.TrimPrefix(name, "db"))
		if err != nil {
			continue
		}
		for _, field := range strings.Split(rest, ",") {
			k, v, ok := strings.Cut(field, "=")
			if !ok || k != "keys" {
				continue
			}
			if n, err := strconv.ParseInt(v, 10, 64); err == nil {
				sizes[db] = n
			}
		}
	}
	return sizes
}
