package mock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"reseller/internal/registrar"
)

// Record is everything the mock registrar knows about one domain.
type Record struct {
	Domain            string                `json:"domain"`
	Status            string                `json:"status"`
	RegisteredAt      time.Time             `json:"registered_at"`
	ExpiresAt         time.Time             `json:"expires_at"`
	Nameservers       []string              `json:"nameservers,omitempty"`
	Contacts          registrar.Contacts    `json:"contacts"`
	DNS               []registrar.DNSRecord `json:"dns,omitempty"`
	Locked            bool                  `json:"locked"`
	AutoRenew         bool                  `json:"auto_renew"`
	Privacy           bool                  `json:"privacy"`
	TransferID        string                `json:"transfer_id,omitempty"`
	TransferStatus    string                `json:"transfer_status,omitempty"`
	TransferMessage   string                `json:"transfer_message,omitempty"`
	TransferUpdatedAt time.Time             `json:"transfer_updated_at,omitempty"`
}

// UpdateFunc receives a copy of the stored record, nil when exists is false.
type UpdateFunc func(r *Record, exists bool) (*Record, error)

// State persists mock registrar data.
type State interface {
	Get(ctx context.Context, domain string) (*Record, bool, error)
	Put(ctx context.Context, r *Record) error
	// Update reads domain, applies fn and stores the record fn returns, with
	// no other write to domain in between. A nil record from fn skips the
	// write and an error from fn is returned unchanged.
	Update(ctx context.Context, domain string, fn UpdateFunc) (*Record, error)
	// PushFailure queues a failure for the next call of operation.
	PushFailure(ctx context.Context, operation string, category registrar.ErrorCategory) error
	// PopFailure dequeues the oldest failure queued for operation.
	PopFailure(ctx context.Context, operation string) (registrar.ErrorCategory, bool, error)
	SetPrices(ctx context.Context, tld string, prices []registrar.Price) error
	Prices(ctx context.Context, tld string) ([]registrar.Price, bool, error)
}

// MemoryState keeps mock data in process memory.
type MemoryState struct {
	mu       sync.Mutex
	records  map[string]Record
	failures map[string][]registrar.ErrorCategory
	prices   map[string][]registrar.Price
}

func NewMemoryState() *MemoryState {
	return &MemoryState{
		records:  make(map[string]Record),
		failures: make(map[string][]registrar.ErrorCategory),
		prices:   make(map[string][]registrar.Price),
	}
}

func (m *MemoryState) Get(_ context.Context, domain string) (*Record, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[domain]
	if !ok {
		return nil, false, nil
	}
	return cloneRecord(r), true, nil
}

func (m *MemoryState) Put(_ context.Context, r *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[r.Domain] = *cloneRecord(*r)
	return nil
}

func (m *MemoryState) Update(_ context.Context, domain string, fn UpdateFunc) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var current *Record
	existing, ok := m.records[domain]
	if ok {
		current = cloneRecord(existing)
	}
	next, err := fn(current, ok)
	if err != nil {
		return nil, err
	}
	if next == nil {
		return current, nil
	}
	m.records[domain] = *cloneRecord(*next)
	return next, nil
}

func (m *MemoryState) PushFailure(_ context.Context, operation string, category registrar.ErrorCategory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[operation] = append(m.failures[operation], category)
	return nil
}

func (m *MemoryState) PopFailure(_ context.Context, operation string) (registrar.ErrorCategory, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q := m.failures[operation]
	if len(q) == 0 {
		return "", false, nil
	}
	m.failures[operation] = q[1:]
	return q[0], true, nil
}

func (m *MemoryState) SetPrices(_ context.Context, tld string, prices []registrar.Price) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prices[tld] = append([]registrar.Price(nil), prices...)
	return nil
}

func (m *MemoryState) Prices(_ context.Context, tld string) ([]registrar.Price, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.prices[tld]
	return append([]registrar.Price(nil), p...), ok, nil
}

// cloneRecord copies r through JSON so slices and pointers are not shared.
func cloneRecord(r Record) *Record {
	raw, err := json.Marshal(r)
	if err != nil {
		out := r
		return &out
	}
	var out Record
	if err := json.Unmarshal(raw, &out); err != nil {
		cp := r
		return &cp
	}
	return &out
}

const maxUpdateAttempts = 20

// RedisState shares mock data between processes, so the job runner and the
// ops server observe the same fake registrar.
type RedisState struct {
	client *redis.Client
	prefix string
}

// NewRedisState builds redis-backed state under prefix.
func NewRedisState(client *redis.Client, prefix string) *RedisState {
	if prefix == "" {
		prefix = "mockreg"
	}
	return &RedisState{client: client, prefix: prefix}
}

func (s *RedisState) key(parts ...string) string {
	k := s.prefix
	for _, p := range parts {
		k += ":" + p
	}
	return k
}

func (s *RedisState) Get(ctx context.Context, domain string) (*Record, bool, error) {
	raw, err := s.client.Get(ctx, s.key("domain", domain)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read mock domain: %w", err)
	}
	var r Record
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, false, fmt.Errorf("decode mock domain: %w", err)
	}
	return &r, true, nil
}

func (s *RedisState) Put(ctx context.Context, r *Record) error {
	raw, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode mock domain: %w", err)
	}
	if err := s.client.Set(ctx, s.key("domain", r.Domain), raw, 0).Err(); err != nil {
		return fmt.Errorf("write mock domain: %w", err)
	}
	return nil
}

// Update runs fn inside WATCH/MULTI on the domain key and retries when
// another writer touched the key first.
func (s *RedisState) Update(ctx context.Context, domain string, fn UpdateFunc) (*Record, error) {
	key := s.key("domain", domain)
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		var out *Record
		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			var current *Record
			raw, err := tx.Get(ctx, key).Bytes()
			switch {
			case errors.Is(err, redis.Nil):
			case err != nil:
				return fmt.Errorf("read mock domain: %w", err)
			default:
				current = &Record{}
				if err := json.Unmarshal(raw, current); err != nil {
					return fmt.Errorf("decode mock domain: %w", err)
				}
			}
			next, err := fn(current, current != nil)
			if err != nil {
				return err
			}
			if next == nil {
				out = current
				return nil
			}
			encoded, err := json.Marshal(next)
			if err != nil {
				return fmt.Errorf("encode mock domain: %w", err)
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, encoded, 0)
				return nil
			})
			if err != nil {
				return err
			}
			out = next
			return nil
		}, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return out, nil
	}
	return nil, fmt.Errorf("write mock domain %s: too much contention", domain)
}

func (s *RedisState) PushFailure(ctx context.Context, operation string, category registrar.ErrorCategory) error {
	if err := s.client.RPush(ctx, s.key("fail", operation), string(category)).Err(); err != nil {
		return fmt.Errorf("queue mock failure: %w", err)
	}
	return nil
}

func (s *RedisState) PopFailure(ctx context.Context, operation string) (registrar.ErrorCategory, bool, error) {
	v, err := s.client.LPop(ctx, s.key("fail", operation)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("dequeue mock failure: %w", err)
	}
	return registrar.ErrorCategory(v), true, nil
}

func (s *RedisState) SetPrices(ctx context.Context, tld string, prices []registrar.Price) error {
	raw, err := json.Marshal(prices)
	if err != nil {
		return fmt.Errorf("encode mock prices: %w", err)
	}
	if err := s.client.Set(ctx, s.key("prices", tld), raw, 0).Err(); err != nil {
		return fmt.Errorf("write mock prices: %w", err)
	}
	return nil
}

func (s *RedisState) Prices(ctx context.Context, tld string) ([]registrar.Price, bool, error) {
	raw, err := s.client.Get(ctx, s.key("prices", tld)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read mock prices: %w", err)
	}
	var prices []registrar.Price
	if err := json.Unmarshal(raw, &prices); err != nil {
		return nil, false, fmt.Errorf("decode mock prices: %w", err)
	}
	return prices, true, nil
}

var (
	_ State = (*MemoryState)(nil)
	_ State = (*RedisState)(nil)
)
