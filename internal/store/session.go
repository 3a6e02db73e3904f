package store

import (
	"context"
	"slices"
	"sync"

	"github.com/nconklindev/bulkmap/internal/mapping"
)

// Session wraps a Store with read-your-writes consistency for one operator
// session. Loads are cached, saves write through and refresh the cache, and
// vendors saved here are listed even if the backend has not caught up.
// Different sessions still race with last-write-wins.
type Session struct {
	store Store

	mu     sync.Mutex
	cache  map[string]*mapping.Config
	absent map[string]bool
	saved  map[string]bool
}

func NewSession(s Store) *Session {
	return &Session{
		store:  s,
		cache:  make(map[string]*mapping.Config),
		absent: make(map[string]bool),
		saved:  make(map[string]bool),
	}
}

// Load returns a copy of the vendor's mapping.
func (s *Session) Load(ctx context.Context, vendor string) (*mapping.Config, bool, error) {
	vendor, err := normalizeVendor(vendor)
	if err != nil {
		return nil, false, err
	}

	s.mu.Lock()
	if cfg, ok := s.cache[vendor]; ok {
		s.mu.Unlock()
		return cfg.Clone(), true, nil
	}
	if s.absent[vendor] {
		s.mu.Unlock()
		return nil, false, nil
	}
	s.mu.Unlock()

	cfg, ok, err := s.store.Load(ctx, vendor)
	if err != nil {
		return nil, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !ok {
		s.absent[vendor] = true
		return nil, false, nil
	}

	s.cache[vendor] = cfg.Clone()

	return cfg, true, nil
}

func (s *Session) Save(ctx context.Context, vendor string, cfg *mapping.Config) error {
	vendor, err := normalizeVendor(vendor)
	if err != nil {
		return err
	}

	if err := s.store.Save(ctx, vendor, cfg); err != nil {
		return err
	}

	stored := cfg.Clone()
	if stored == nil {
		stored = mapping.NewConfig(vendor)
	}
	stored.Vendor = vendor

	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache[vendor] = stored
	s.saved[vendor] = true
	delete(s.absent, vendor)

	return nil
}

func (s *Session) ListVendors(ctx context.Context) ([]string, error) {
	vendors, err := s.store.ListVendors(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	for v := range s.saved {
		vendors = append(vendors, v)
	}
	s.mu.Unlock()

	slices.Sort(vendors)

	return slices.Compact(vendors), nil
}

// Invalidate drops cached state so the next Load refetches.
func (s *Session) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()

	clear(s.cache)
	clear(s.absent)
}

func (s *Session) Close() error {
	return s.store.Close()
}
