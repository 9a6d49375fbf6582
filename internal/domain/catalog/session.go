package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Session is the scratchpad of one open create/edit form.
// It lives only until the form is submitted or cancelled.
type Session struct {
	Token      string     `json:"token"`
	ProviderID uuid.UUID  `json:"provider_id"`
	ServiceID  *uuid.UUID `json:"service_id,omitempty"`
	CategoryID *uuid.UUID `json:"category_id,omitempty"`

	// Variants added in this session
	Variants []DraftVariant `json:"variants"`
	// Keys already stored for the service being edited
	EditingVariants []string `json:"editing_variants"`
	// Zones of the selected category
	CategoryZones []uuid.UUID `json:"category_zones"`
}

// NewSession creates an empty session with a fresh token
func NewSession() *Session {
	return &Session{
		Token:           uuid.NewString(),
		Variants:        []DraftVariant{},
		EditingVariants: []string{},
		CategoryZones:   []uuid.UUID{},
	}
}

// AddVariant appends a variant. It fails with ErrVariantExists when the label is
// already drafted, or its key is drafted or already stored for the service.
func (s *Session) AddVariant(name string, price float64) (DraftVariant, error) {
	key := VariantKey(name)
	if key == "" {
		return DraftVariant{}, ValidationErrors{"name": "This field is required"}
	}

	for _, v := range s.Variants {
		if v.Variant == name || v.VariantKey == key {
			return DraftVariant{}, ErrVariantExists
		}
	}
	for _, k := range s.EditingVariants {
		if k == key {
			return DraftVariant{}, ErrVariantExists
		}
	}

	v := DraftVariant{Variant: name, VariantKey: key, Price: price}
	s.Variants = append(s.Variants, v)
	return v, nil
}

// RemoveVariant drops a drafted variant by key
func (s *Session) RemoveVariant(key string) {
	kept := s.Variants[:0]
	for _, v := range s.Variants {
		if v.VariantKey != key {
			kept = append(kept, v)
		}
	}
	s.Variants = kept
}

// ForgetStoredVariant drops a key from the stored variant list
func (s *Session) ForgetStoredVariant(key string) {
	kept := s.EditingVariants[:0]
	for _, k := range s.EditingVariants {
		if k != key {
			kept = append(kept, k)
		}
	}
	s.EditingVariants = kept
}

// SessionStore persists sessions by token
type SessionStore interface {
	Get(ctx context.Context, token string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, token string) error
}

const sessionKeyPrefix = "service_edit:"

// RedisSessionStore keeps sessions as JSON with a TTL that is refreshed on every save
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSessionStore creates a Redis-backed session store
func NewRedisSessionStore(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{client: client, ttl: ttl}
}

func (r *RedisSessionStore) Get(ctx context.Context, token string) (*Session, error) {
	data, err := r.client.Get(ctx, sessionKeyPrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load edit session: %w", err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode edit session: %w", err)
	}
	return &s, nil
}

func (r *RedisSessionStore) Save(ctx context.Context, s *Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode edit session: %w", err)
	}
	if err := r.client.Set(ctx, sessionKeyPrefix+s.Token, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("save edit session: %w", err)
	}
	return nil
}

func (r *RedisSessionStore) Delete(ctx context.Context, token string) error {
	if err := r.client.Del(ctx, sessionKeyPrefix+token).Err(); err != nil {
		return fmt.Errorf("delete edit session: %w", err)
	}
	return nil
}

// MemorySessionStore keeps sessions in process. Used when Redis is not configured.
type MemorySessionStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	sessions map[string]memoryEntry
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// NewMemorySessionStore creates an in-process session store
func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	return &MemorySessionStore{
		ttl:      ttl,
		now:      time.Now,
		sessions: map[string]memoryEntry{},
	}
}

func (m *MemorySessionStore) Get(_ context.Context, token string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.sessions[token]
	if !ok || m.now().After(entry.expiresAt) {
		delete(m.sessions, token)
		return nil, ErrSessionNotFound
	}

	// stored as JSON so callers never share slices with the store
	var s Session
	if err := json.Unmarshal(entry.data, &s); err != nil {
		return nil, fmt.Errorf("decode edit session: %w", err)
	}
	return &s, nil
}

func (m *MemorySessionStore) Save(_ context.Context, s *Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode edit session: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for token, entry := range m.sessions {
		if now.After(entry.expiresAt) {
			delete(m.sessions, token)
		}
	}
	m.sessions[s.Token] = memoryEntry{data: data, expiresAt: now.Add(m.ttl)}
	return nil
}

func (m *MemorySessionStore) Delete(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
	return nil
}
