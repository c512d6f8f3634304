package counter

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	resolvedKey = "paywallbridge:counters:resolved"
	rejectedKey = "paywallbridge:counters:rejected"
)

// Counts is the number of settled calls of one bridge method.
type Counts struct {
	Resolved int64 `json:"resolved"`
	Rejected int64 `json:"rejected"`
}

// Recorder counts settled bridge calls per method.
type Recorder interface {
	Add(ctx context.Context, method string, rejected bool) error
	Snapshot(ctx context.Context) (map[string]Counts, error)
	// Drain returns the counters and resets them to zero.
	Drain(ctx context.Context) (map[string]Counts, error)
}

var (
	_ Recorder = (*RedisCounter)(nil)
	_ Recorder = (*MemoryCounter)(nil)
)

// RedisCounter keeps the counters in two Redis hashes keyed by method, so
// every instance behind a load balancer adds to the same totals.
type RedisCounter struct {
	client *redis.Client
}

func NewRedisCounter(client *redis.Client) *RedisCounter {
	return &RedisCounter{client: client}
}

// Add increments the counter for method
func (r *RedisCounter) Add(ctx context.Context, method string, rejected bool) error {
	key := resolvedKey
	if rejected {
		key = rejectedKey
	}
	return r.client.HIncrBy(ctx, key, method, 1).Err()
}

func (r *RedisCounter) Snapshot(ctx context.Context) (map[string]Counts, error) {
	var resolved, rejected *redis.MapStringStringCmd
	_, err := r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		resolved = pipe.HGetAll(ctx, resolvedKey)
		rejected = pipe.HGetAll(ctx, rejectedKey)
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make(map[string]Counts)
	for method, v := range resolved.Val() {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			continue
		}
		c := out[method]
		c.Resolved = n
		out[method] = c
	}
	for method, v := range rejected.Val() {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			continue
		}
		c := out[method]
		c.Rejected = n
		out[method] = c
	}
	return out, nil
}

// Drain returns the counters and resets them. Each hash is renamed to a
// temporary key first so increments arriving during the drain are kept for
// the next one.
func (r *RedisCounter) Drain(ctx context.Context) (map[string]Counts, error) {
	out := make(map[string]Counts)
	for _, key := range []string{resolvedKey, rejectedKey} {
		data, err := r.drainHash(ctx, key)
		if err != nil {
			return nil, err
		}
		for method, n := range data {
			c := out[method]
			if key == rejectedKey {
				c.Rejected = n
			} else {
				c.Resolved = n
			}
			out[method] = c
		}
	}
	return out, nil
}

func (r *RedisCounter) drainHash(ctx context.Context, key string) (map[string]int64, error) {
	tmpKey := fmt.Sprintf("%s:tmp:%d", key, time.Now().UnixNano())
	if err := r.client.Rename(ctx, key, tmpKey).Err(); err != nil {
		// nothing counted yet
		if strings.Contains(strings.ToLower(err.Error()), "no such key") {
			return nil, nil
		}
		return nil, err
	}
	defer r.client.Del(ctx, tmpKey)

	data, err := r.client.HGetAll(ctx, tmpKey).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(data))
	for method, v := range data {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n == 0 {
			continue
		}
		out[method] = n
	}
	return out, nil
}

// MemoryCounter is the Recorder used when no cache is configured.
type MemoryCounter struct {
	mu     sync.Mutex
	counts map[string]Counts
}

func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{counts: make(map[string]Counts)}
}

func (m *MemoryCounter) Add(_ context.Context, method string, rejected bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.counts[method]
	if rejected {
		c.Rejected++
	} else {
		c.Resolved++
	}
	m.counts[method] = c
	return nil
}

func (m *MemoryCounter) Snapshot(_ context.Context) (map[string]Counts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]Counts, len(m.counts))
	for k, v := range m.counts {
		out[k] = v
	}
	return out, nil
}

func (m *MemoryCounter) Drain(_ context.Context) (map[string]Counts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.counts
	m.counts = make(map[string]Counts)
	return out, nil
}

// Methods returns the methods in snapshot in sorted order.
func Methods(snapshot map[string]Counts) []string {
	out := make([]string, 0, len(snapshot))
	for m := range snapshot {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}
