package storage

import (
	"context"
	"time"
)

// Storage abstracts persistence for edited tariff schedules, operator
// accounts, and worker bookkeeping.
type Storage interface {
	// Tariff schedule snapshots (append-only, latest per policy wins)
	GetScheduleSnapshot(ctx context.Context, policy string) (*ScheduleSnapshot, error)
	SaveScheduleSnapshot(ctx context.Context, snap ScheduleSnapshot) error
	ListScheduleSnapshots(ctx context.Context) ([]ScheduleSnapshot, error)

	// Settings
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error

	// Operator accounts
	CreateUser(ctx context.Context, u User) error
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	ListUsers(ctx context.Context) ([]User, error)

	// API tokens
	CreateToken(ctx context.Context, t Token) error
	GetTokenByHash(ctx context.Context, hash string) (*Token, error)
	DeleteToken(ctx context.Context, id string) error
	UpdateTokenLastUsed(ctx context.Context, id string) error

	// Casbin rule persistence
	LoadCasbinRules(ctx context.Context) ([]CasbinRule, error)
	AddCasbinRule(ctx context.Context, rule CasbinRule) error
	RemoveCasbinRule(ctx context.Context, rule CasbinRule) error

	// Worker coordination
	AcquireAdvisoryLock(ctx context.Context, key int64) (bool, error)
	ReleaseAdvisoryLock(ctx context.Context, key int64) (bool, error)
	UpdateScheduledJob(ctx context.Context, name string, started time.Time, dur time.Duration, success bool, errMsg string) error

	Ping(ctx context.Context) error

	// Close releases any resources (no-op for in-memory).
	Close() error
}
