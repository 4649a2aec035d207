// Package modelscache implements C9: a TTL-bounded, mutex-serialized
// snapshot of Qwen's model list, reshaped into the gateway's entry
// format and filtered to active models. Modeled on the teacher's
// internal/infrastructure/llm provider cache, which keeps a single
// refreshed-on-miss snapshot behind a mutex instead of a generic TTL
// cache library.
package modelscache

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/chriscoletech/qwen-gateway/internal/apperrors"
	"github.com/chriscoletech/qwen-gateway/internal/domain/entity"
	"github.com/chriscoletech/qwen-gateway/internal/upstream"
)

// Fetcher lists the native upstream models; satisfied by
// *upstream.Client.
type Fetcher interface {
	ListModels(ctx context.Context) ([]upstream.QwenModel, error)
}

// Cache holds the last-fetched, reshaped model list.
type Cache struct {
	fetcher Fetcher
	ttl     time.Duration
	logger  *zap.Logger

	mu        sync.Mutex
	entries   []entity.ModelEntry
	fetchedAt time.Time
}

// New constructs a Cache.
func New(fetcher Fetcher, ttl time.Duration, logger *zap.Logger) *Cache {
	return &Cache{fetcher: fetcher, ttl: ttl, logger: logger.With(zap.String("component", "models-cache"))}
}

// List returns the cached active model entries, refreshing first if
// the snapshot is stale or has never been populated (spec.md §4.9).
func (c *Cache) List(ctx context.Context) ([]entity.ModelEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if time.Since(c.fetchedAt) > c.ttl || c.entries == nil {
		if err := c.refreshLocked(ctx); err != nil {
			if c.entries != nil {
				c.logger.Warn("model list refresh failed, serving stale snapshot", zap.Error(err))
				return c.entries, nil
			}
			return nil, err
		}
	}
	return c.entries, nil
}

// Get returns one model entry by id, or (entry, false) if unknown.
func (c *Cache) Get(ctx context.Context, id string) (entity.ModelEntry, bool, error) {
	entries, err := c.List(ctx)
	if err != nil {
		return entity.ModelEntry{}, false, err
	}
	for _, e := range entries {
		if e.ID == id {
			return e, true, nil
		}
	}
	return entity.ModelEntry{}, false, nil
}

// Invalidate forces the next List call to refetch.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fetchedAt = time.Time{}
}

func (c *Cache) refreshLocked(ctx context.Context) error {
	native, err := c.fetcher.ListModels(ctx)
	if err != nil {
		return apperrors.Wrap(apperrors.KindUpstreamTransient, "refresh model cache", err)
	}

	entries := make([]entity.ModelEntry, 0, len(native))
	for _, m := range native {
		if !m.IsActive {
			continue
		}
		entries = append(entries, entity.ModelEntry{
			ID:          m.ID,
			DisplayName: m.Name,
			Description: m.Info.Meta.Description,
			Capabilities: entity.ModelCapabilities{
				Vision:    m.Info.Meta.Capabilities["vision"],
				Document:  m.Info.Meta.Capabilities["document"],
				Video:     m.Info.Meta.Capabilities["video"],
				Audio:     m.Info.Meta.Capabilities["audio"],
				Citations: m.Info.Meta.Capabilities["citations"],
			},
			MaxContextLength:    m.Info.Meta.MaxContextLength,
			MaxGenerationLength: m.Info.Meta.MaxGenerationLength,
			ChatTypes:           m.Info.Meta.ChatType,
			IsActive:            m.IsActive,
		})
	}

	c.entries = entries
	c.fetchedAt = time.Now()
	return nil
}
