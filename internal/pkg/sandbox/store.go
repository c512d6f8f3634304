package sandbox

import (
	"context"
	"fmt"
	"sync"

	"github.com/ManuelReschke/PaywallBridge/internal/pkg/adapty"
)

// Store persists sandbox profiles and paywalls. Implementations return
// ErrNotFound for missing records and ErrStaleRevision when SavePaywall
// would replace a newer revision.
type Store interface {
	LoadProfile(ctx context.Context, key string) (*adapty.Profile, error)
	SaveProfile(ctx context.Context, key string, p *adapty.Profile) error
	LoadPaywall(ctx context.Context, id string) (*adapty.Paywall, error)
	SavePaywall(ctx context.Context, p *adapty.Paywall) error
}

// MemoryStore keeps encoded records in process memory. Records are copied
// on every read and write.
type MemoryStore struct {
	mu       sync.RWMutex
	codec    *adapty.Codec
	profiles map[string][]byte
	paywalls map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		codec:    adapty.NewCodec(),
		profiles: make(map[string][]byte),
		paywalls: make(map[string][]byte),
	}
}

func (s *MemoryStore) LoadProfile(_ context.Context, key string) (*adapty.Profile, error) {
	s.mu.RLock()
	data, ok := s.profiles[key]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("profile %s: %w", key, ErrNotFound)
	}
	return s.codec.DecodeProfile(data)
}

func (s *MemoryStore) SaveProfile(_ context.Context, key string, p *adapty.Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	data, err := s.codec.Encode(p)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.profiles[key] = data
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) LoadPaywall(_ context.Context, id string) (*adapty.Paywall, error) {
	s.mu.RLock()
	data, ok := s.paywalls[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("paywall %s: %w", id, ErrNotFound)
	}
	return s.codec.DecodePaywall(data)
}

func (s *MemoryStore) SavePaywall(_ context.Context, p *adapty.Paywall) error {
	if err := p.Validate(); err != nil {
		return err
	}
	data, err := s.codec.Encode(p)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if current, ok := s.paywalls[p.ID]; ok {
		existing, err := s.codec.DecodePaywall(current)
		if err != nil {
			return err
		}
		if existing.NewerThan(p) {
			return fmt.Errorf("paywall %s revision %d < %d: %w", p.ID, p.Revision, existing.Revision, ErrStaleRevision)
		}
	}
	s.paywalls[p.ID] = data
	return nil
}
