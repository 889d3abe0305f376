package directory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/pixelplay/notify-api/internal/repository"
)

const adminIDsKey = "admin_ids"

// Service is the read-only admin directory. Lookups are cached for a
// short TTL because every admin fan-out hits the directory and the admin
// set changes rarely.
type Service struct {
	userRepo repository.UserRepository
	cache    *cache.Cache
}

type Config struct {
	CacheTTL        time.Duration
	CleanupInterval time.Duration
}

func DefaultConfig() Config {
	return Config{
		CacheTTL:        30 * time.Second,
		CleanupInterval: 5 * time.Minute,
	}
}

func NewService(userRepo repository.UserRepository, cfg Config) *Service {
	return &Service{
		userRepo: userRepo,
		cache:    cache.New(cfg.CacheTTL, cfg.CleanupInterval),
	}
}

// ListAdminIDs returns the ids of every user currently holding admin
// privilege, served from cache within the TTL.
func (s *Service) ListAdminIDs(ctx context.Context) ([]uuid.UUID, error) {
	if cached, ok := s.cache.Get(adminIDsKey); ok {
		return cached.([]uuid.UUID), nil
	}

	ids, err := s.userRepo.ListAdminIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to look up admin directory: %w", err)
	}

	s.cache.Set(adminIDsKey, ids, cache.DefaultExpiration)
	return ids, nil
}

// Invalidate drops the cached admin set, forcing the next lookup to hit
// the store.
func (s *Service) Invalidate() {
	s.cache.Delete(adminIDsKey)
}
