package theme

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Backend persists serialized themes by tenant. Load returns found=false
// when nothing was stored.
type Backend interface {
	Load(ctx context.Context, tenantID string) (Theme, bool, error)
	Save(ctx context.Context, tenantID string, t Theme) error
}

// RedisBackend stores each tenant's theme as JSON under <prefix><tenant>.
type RedisBackend struct {
	client redis.Cmdable
	prefix string
}

func NewRedisBackend(client redis.Cmdable) *RedisBackend {
	return &RedisBackend{client: client, prefix: "theme:"}
}

func (b *RedisBackend) Load(ctx context.Context, tenantID string) (Theme, bool, error) {
	data, err := b.client.Get(ctx, b.prefix+tenantID).Bytes()
	if errors.Is(err, redis.Nil) {
		return Theme{}, false, nil
	}
	if err != nil {
		return Theme{}, false, fmt.Errorf("load theme: %w", err)
	}
	var t Theme
	if err := json.Unmarshal(data, &t); err != nil {
		return Theme{}, false, fmt.Errorf("decode theme: %w", err)
	}
	return t, true, nil
}

func (b *RedisBackend) Save(ctx context.Context, tenantID string, t Theme) error {
	data, err := json.Marshal(t)
	if err != nil {
		return err
	}
	if err := b.client.Set(ctx, b.prefix+tenantID, data, 0).Err(); err != nil {
		return fmt.Errorf("save theme: %w", err)
	}
	return nil
}

// MemoryBackend is the in-process fallback used when Redis is not configured.
type MemoryBackend struct {
	mu     sync.RWMutex
	themes map[string]Theme
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{themes: make(map[string]Theme)}
}

func (b *MemoryBackend) Load(_ context.Context, tenantID string) (Theme, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	t, ok := b.themes[tenantID]
	return t, ok, nil
}

func (b *MemoryBackend) Save(_ context.Context, tenantID string, t Theme) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.themes[tenantID] = t
	return nil
}

// Store loads a tenant's theme lazily on first use and keeps it in memory
// until the next Apply.
type Store struct {
	backend Backend
	logger  *zap.SugaredLogger

	mu     sync.RWMutex
	loaded map[string]Theme
}

func NewStore(backend Backend, logger *zap.SugaredLogger) *Store {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Store{backend: backend, logger: logger, loaded: make(map[string]Theme)}
}

// Current returns the tenant's theme, or Default when none is stored or the
// backend fails.
func (s *Store) Current(ctx context.Context, tenantID string) Theme {
	s.mu.RLock()
	t, ok := s.loaded[tenantID]
	s.mu.RUnlock()
	if ok {
		return t
	}

	stored, found, err := s.backend.Load(ctx, tenantID)
	if err != nil {
		s.logger.Warnw("theme load failed, using default", "tenant_id", tenantID, "error", err)
		return Default()
	}
	if !found || stored.Validate() != nil {
		stored = Default()
	}
	s.mu.Lock()
	s.loaded[tenantID] = stored
	s.mu.Unlock()
	return stored
}

// Apply validates and persists t, then makes it current for the tenant.
func (s *Store) Apply(ctx context.Context, tenantID string, t Theme) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if err := s.backend.Save(ctx, tenantID, t); err != nil {
		return err
	}
	s.mu.Lock()
	s.loaded[tenantID] = t
	s.mu.Unlock()
	s.logger.Infow("theme applied", "tenant_id", tenantID, "mode", t.Mode)
	return nil
}
