// Package video finds cooking videos related to a resolved dish.
package video

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/thaifoodie/chat-backend/internal/cache/redis"
	"github.com/thaifoodie/chat-backend/internal/types"
)

const (
	// cacheKeyPrefix namespaces per-dish video results in Redis.
	cacheKeyPrefix = "chat:videos:"
	// cacheTTL is how long video results stay fresh. Search results for
	// a dish barely change, so this is generous.
	cacheTTL = 6 * time.Hour
)

// Searcher performs the raw video search.
type Searcher interface {
	Search(ctx context.Context, dishName, lang string) ([]types.Video, error)
}

// Service caches dish video lookups in memory and in Redis, falling
// back to stale results when the search backend is unavailable.
type Service struct {
	searcher Searcher
	redis    *redis.Client
	logger   *logrus.Logger

	mu      sync.RWMutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	videos []types.Video
	expiry time.Time
}

// NewService creates a new video service. redisClient may be nil.
func NewService(searcher Searcher, redisClient *redis.Client, logger *logrus.Logger) *Service {
	return &Service{
		searcher: searcher,
		redis:    redisClient,
		logger:   logger,
		entries:  map[string]cacheEntry{},
	}
}

// Search returns related videos for a dish, cache-first. Results are
// cached per dish and language, since the query wording depends on
// both.
func (s *Service) Search(ctx context.Context, dishName, lang string) ([]types.Video, error) {
	key := lang + ":" + dishName

	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()
	if ok && time.Now().Before(entry.expiry) {
		return entry.videos, nil
	}

	if s.redis != nil {
		var videos []types.Video
		if err := s.redis.GetJSON(ctx, cacheKeyPrefix+key, &videos); err == nil && len(videos) > 0 {
			s.remember(key, videos)
			return videos, nil
		}
	}

	videos, err := s.searcher.Search(ctx, dishName, lang)
	if err != nil {
		// Serve stale results rather than nothing.
		if ok && len(entry.videos) > 0 {
			s.logger.WithError(err).WithField("dish", dishName).Warn("video search failed, serving stale cache")
			return entry.videos, nil
		}
		return nil, fmt.Errorf("search videos: %w", err)
	}

	s.remember(key, videos)
	if s.redis != nil {
		if err := s.redis.SetJSON(ctx, cacheKeyPrefix+key, videos, cacheTTL); err != nil {
			s.logger.WithError(err).Warn("failed to cache videos in redis")
		}
	}
	return videos, nil
}

func (s *Service) remember(key string, videos []types.Video) {
	s.mu.Lock()
	s.entries[key] = cacheEntry{videos: videos, expiry: time.Now().Add(cacheTTL)}
	s.mu.Unlock()
}
