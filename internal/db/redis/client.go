package redis

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/mediadex/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// Config holds connection parameters for a Redis store.
type Config struct {
	Addrs    []string
	Username string
	Password string
	DB       int
	// KeyPrefix namespaces every document key and FT index name.
	KeyPrefix string
}

// Store implements db.Store via rueidis for Redis 8+ (RedisJSON and
// RediSearch). Documents live under <prefix><index>:<type>:<id>.
type Store struct {
	client rueidis.Client
	prefix string

	mu   sync.RWMutex
	defs map[string]*db.IndexDefinition
}

// NewStore creates a Redis store via rueidis.
func NewStore(cfg Config) (*Store, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("addrs is required")
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		SelectDB:     cfg.DB,
		DisableCache: true,
		AlwaysRESP2:  true, // FT.SEARCH result parsing expects RESP2 array format
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return newStore(client, cfg.KeyPrefix), nil
}

func newStore(client rueidis.Client, prefix string) *Store {
	return &Store{client: client, prefix: prefix, defs: map[string]*db.IndexDefinition{}}
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	cmd := s.client.B().Ping().Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Close shuts down the client.
func (s *Store) Close() {
	s.client.Close()
}

// WaitForReady polls Ping until the store responds or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for database: %w", ctx.Err())
		case <-ticker.C:
			if err := s.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}

func (s *Store) do(ctx context.Context, cmd rueidis.Completed) rueidis.RedisResult {
	return s.client.Do(ctx, cmd)
}

func (s *Store) b() rueidis.Builder {
	return s.client.B()
}

// docKey is the JSON key of one document.
func (s *Store) docKey(index, typ, id string) string {
	return s.keyPrefix(index) + typ + ":" + id
}

// keyPrefix is the key prefix covered by an index.
func (s *Store) keyPrefix(index string) string {
	return s.prefix + index + ":"
}

// ftName is the RediSearch index name backing a logical index.
func (s *Store) ftName(index string) string {
	return s.prefix + index + ":idx"
}

// indexFromFT reverses ftName; ok is false for foreign indexes.
func (s *Store) indexFromFT(name string) (string, bool) {
	rest, ok := strings.CutPrefix(name, s.prefix)
	if !ok {
		return "", false
	}
	return strings.CutSuffix(rest, ":idx")
}

// splitKey recovers type and id from a document key of index.
func (s *Store) splitKey(index, key string) (typ, id string, ok bool) {
	rest, ok := strings.CutPrefix(key, s.keyPrefix(index))
	if !ok {
		return "", "", false
	}
	return strings.Cut(rest, ":")
}

func (s *Store) definition(index string) (*db.IndexDefinition, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	def, ok := s.defs[index]
	return def, ok
}

func (s *Store) remember(def *db.IndexDefinition) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defs[def.Name] = def
}

func (s *Store) forget(index string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.defs, index)
}

// isRedisErr checks if err is a Redis server error containing substr (case-insensitive).
func isRedisErr(err error, substr string) bool {
	re, ok := rueidis.IsRedisErr(err)
	if !ok {
		return false
	}
	return strings.Contains(strings.ToLower(re.Error()), strings.ToLower(substr))
}
