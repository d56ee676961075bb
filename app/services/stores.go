package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationStore remembers revoked token ids until the token would have expired
type RevocationStore interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// ChallengeStore keeps captcha answers. Take consumes the entry.
type ChallengeStore interface {
	Put(ctx context.Context, id string, angle int, ttl time.Duration) error
	Take(ctx context.Context, id string) (angle int, ok bool, err error)
}

// --- Redis ---

// RedisRevocationStore keeps revoked ids as expiring keys
type RedisRevocationStore struct {
	client *redis.Client
	prefix string
}

func NewRedisRevocationStore(client *redis.Client, prefix string) *RedisRevocationStore {
	return &RedisRevocationStore{client: client, prefix: prefix + "revoked_token:"}
}

func (s *RedisRevocationStore) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, s.prefix+tokenID, "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to store revoked token: %w", err)
	}
	return nil
}

func (s *RedisRevocationStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := s.client.Exists(ctx, s.prefix+tokenID).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check revoked token: %w", err)
	}
	return n > 0, nil
}

// RedisChallengeStore keeps captcha answers as expiring keys
type RedisChallengeStore struct {
	client *redis.Client
	prefix string
}

func NewRedisChallengeStore(client *redis.Client, prefix string) *RedisChallengeStore {
	return &RedisChallengeStore{client: client, prefix: prefix + "captcha:"}
}

func (s *RedisChallengeStore) Put(ctx context.Context, id string, angle int, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.prefix+id, angle, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store captcha challenge: %w", err)
	}
	return nil
}

func (s *RedisChallengeStore) Take(ctx context.Context, id string) (int, bool, error) {
	val, err := s.client.GetDel(ctx, s.prefix+id).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read captcha challenge: %w", err)
	}
	angle, err := strconv.Atoi(val)
	if err != nil {
		return 0, false, fmt.Errorf("corrupt captcha challenge %q: %w", id, err)
	}
	return angle, true, nil
}

// --- In-memory store with TTL ---

type storeEntry struct {
	value     int
	expiresAt time.Time
}

// MemoryStore serves both interfaces from a map. Close stops the cleanup goroutine.
type MemoryStore struct {
	mu   sync.RWMutex
	m    map[string]storeEntry
	stop chan struct{}
	once sync.Once
}

// NewMemoryStore starts a store that sweeps expired entries every interval
func NewMemoryStore(interval time.Duration) *MemoryStore {
	if interval <= 0 {
		interval = time.Minute
	}
	ms := &MemoryStore{
		m:    make(map[string]storeEntry),
		stop: make(chan struct{}),
	}
	go ms.cleanupLoop(interval)
	return ms
}

// NewMemoryRevocationStore is a MemoryStore used only for revocations
func NewMemoryRevocationStore() *MemoryStore {
	return NewMemoryStore(time.Minute)
}

func (s *MemoryStore) Revoke(_ context.Context, tokenID string, until time.Time) error {
	s.set(tokenID, storeEntry{value: 1, expiresAt: until})
	return nil
}

func (s *MemoryStore) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	_, ok := s.get(tokenID)
	return ok, nil
}

func (s *MemoryStore) Put(_ context.Context, id string, angle int, ttl time.Duration) error {
	s.set(id, storeEntry{value: angle, expiresAt: time.Now().Add(ttl)})
	return nil
}

func (s *MemoryStore) Take(_ context.Context, id string) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.m[id]
	delete(s.m, id)
	if !ok || time.Now().After(e.expiresAt) {
		return 0, false, nil
	}
	return e.value, true, nil
}

// Close stops the cleanup goroutine
func (s *MemoryStore) Close() {
	s.once.Do(func() { close(s.stop) })
}

func (s *MemoryStore) set(id string, e storeEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[id] = e
}

func (s *MemoryStore) get(id string) (storeEntry, bool) {
	s.mu.RLock()
	e, ok := s.m[id]
	s.mu.RUnlock()
	if !ok {
		return storeEntry{}, false
	}
	if time.Now().After(e.expiresAt) {
		s.mu.Lock()
		delete(s.m, id)
		s.mu.Unlock()
		return storeEntry{}, false
	}
	return e, true
}

func (s *MemoryStore) sweep(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range s.m {
		if now.After(v.expiresAt) {
			delete(s.m, k)
		}
	}
}

func (s *MemoryStore) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case now := <-ticker.C:
			s.sweep(now)
		}
	}
}
