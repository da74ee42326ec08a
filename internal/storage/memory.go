package storage

import (
	"context"
	"sync"
	"time"
)

// MemoryStorage is an in-memory Storage implementation, useful for tests
// and simple single-process deployments.
type MemoryStorage struct {
	mu       sync.RWMutex
	snaps    map[string][]ScheduleSnapshot
	settings map[string]string
	users    map[string]User
	tokens   map[string]Token
	nextID   uint
}

// NewMemory returns an empty MemoryStorage.
func NewMemory() *MemoryStorage {
	return &MemoryStorage{
		snaps:    make(map[string][]ScheduleSnapshot),
		settings: make(map[string]string),
		users:    make(map[string]User),
		tokens:   make(map[string]Token),
	}
}

func (m *MemoryStorage) Close() error { return nil }

func (m *MemoryStorage) Ping(ctx context.Context) error { return nil }

func (m *MemoryStorage) GetScheduleSnapshot(ctx context.Context, policy string) (*ScheduleSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	history := m.snaps[policy]
	if len(history) == 0 {
		return nil, nil
	}
	cp := history[len(history)-1]
	return &cp, nil
}

func (m *MemoryStorage) SaveScheduleSnapshot(ctx context.Context, snap ScheduleSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if snap.SavedAt.IsZero() {
		snap.SavedAt = time.Now()
	}
	m.nextID++
	snap.ID = m.nextID
	m.snaps[snap.Policy] = append(m.snaps[snap.Policy], snap)
	return nil
}

func (m *MemoryStorage) ListScheduleSnapshots(ctx context.Context) ([]ScheduleSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []ScheduleSnapshot
	for _, history := range m.snaps {
		if len(history) > 0 {
			out = append(out, history[len(history)-1])
		}
	}
	return out, nil
}

func (m *MemoryStorage) GetSetting(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.settings[key], nil
}

func (m *MemoryStorage) SetSetting(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings[key] = value
	return nil
}

// Users

func (m *MemoryStorage) CreateUser(ctx context.Context, user User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
	return nil
}

func (m *MemoryStorage) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, nil
}

func (m *MemoryStorage) ListUsers(ctx context.Context) ([]User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []User
	for _, u := range m.users {
		out = append(out, u)
	}
	return out, nil
}

// Tokens

func (m *MemoryStorage) CreateToken(ctx context.Context, token Token) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[token.ID] = token
	return nil
}

func (m *MemoryStorage) GetTokenByHash(ctx context.Context, hash string) (*Token, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.tokens {
		if t.TokenHash == hash {
			return &t, nil
		}
	}
	return nil, nil
}

func (m *MemoryStorage) DeleteToken(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, id)
	return nil
}

func (m *MemoryStorage) UpdateTokenLastUsed(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tokens[id]; ok {
		now := time.Now()
		t.LastUsedAt = &now
		m.tokens[id] = t
	}
	return nil
}

// Casbin

func (m *MemoryStorage) LoadCasbinRules(ctx context.Context) ([]CasbinRule, error) {
	// In-memory storage doesn't persist rules; the enforcer starts with
	// its default policies.
	return nil, nil
}

func (m *MemoryStorage) AddCasbinRule(ctx context.Context, rule CasbinRule) error {
	return nil
}

func (m *MemoryStorage) RemoveCasbinRule(ctx context.Context, rule CasbinRule) error {
	return nil
}

// Worker coordination

func (m *MemoryStorage) AcquireAdvisoryLock(ctx context.Context, key int64) (bool, error) {
	// Single instance always acquires the lock.
	return true, nil
}

func (m *MemoryStorage) ReleaseAdvisoryLock(ctx context.Context, key int64) (bool, error) {
	return true, nil
}

func (m *MemoryStorage) UpdateScheduledJob(ctx context.Context, name string, started time.Time, dur time.Duration, success bool, errMsg string) error {
	return nil
}
