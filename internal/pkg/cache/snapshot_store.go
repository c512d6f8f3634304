package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ManuelReschke/PaywallBridge/internal/pkg/adapty"
	"github.com/ManuelReschke/PaywallBridge/internal/pkg/sandbox"
)

const (
	ProfileKeyPrefix = "paywallbridge:profile:"
	PaywallKeyPrefix = "paywallbridge:paywall:"

	maxWatchRetries = 5
)

// SnapshotStore keeps encoded profile and paywall snapshots in Redis. It
// satisfies sandbox.Store.
type SnapshotStore struct {
	client     *redis.Client
	codec      *adapty.Codec
	profileTTL time.Duration
}

// NewSnapshotStore creates a store on client. A zero profileTTL keeps
// profiles forever.
func NewSnapshotStore(client *redis.Client, profileTTL time.Duration) *SnapshotStore {
	return &SnapshotStore{
		client:     client,
		codec:      adapty.NewCodec(),
		profileTTL: profileTTL,
	}
}

var _ sandbox.Store = (*SnapshotStore)(nil)

func (s *SnapshotStore) LoadProfile(ctx context.Context, key string) (*adapty.Profile, error) {
	data, err := s.client.Get(ctx, ProfileKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("profile %s: %w", key, sandbox.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load profile %s: %w", key, err)
	}
	return s.codec.DecodeProfile(data)
}

func (s *SnapshotStore) SaveProfile(ctx context.Context, key string, p *adapty.Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	data, err := s.codec.Encode(p)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, ProfileKeyPrefix+key, data, s.profileTTL).Err(); err != nil {
		return fmt.Errorf("save profile %s: %w", key, err)
	}
	return nil
}

func (s *SnapshotStore) LoadPaywall(ctx context.Context, id string) (*adapty.Paywall, error) {
	data, err := s.client.Get(ctx, PaywallKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("paywall %s: %w", id, sandbox.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load paywall %s: %w", id, err)
	}
	return s.codec.DecodePaywall(data)
}

// SavePaywall writes p unless a newer revision is stored. The read and the
// write run under WATCH so concurrent publishers cannot regress the revision.
func (s *SnapshotStore) SavePaywall(ctx context.Context, p *adapty.Paywall) error {
	if err := p.Validate(); err != nil {
		return err
	}
	data, err := s.codec.Encode(p)
	if err != nil {
		return err
	}
	key := PaywallKeyPrefix + p.ID

	txf := func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, key).Bytes()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if err == nil {
			existing, err := s.codec.DecodePaywall(current)
			if err != nil {
				return err
			}
			if existing.NewerThan(p) {
				return fmt.Errorf("paywall %s revision %d < %d: %w", p.ID, p.Revision, existing.Revision, sandbox.ErrStaleRevision)
			}
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			return nil
		})
		return err
	}

	for i := 0; i < maxWatchRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("save paywall %s: too much contention", p.ID)
}
