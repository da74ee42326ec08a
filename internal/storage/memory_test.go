package storage

import (
	"context"
	"testing"
	"time"
)

func TestMemorySnapshotLatestWins(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	got, err := m.GetScheduleSnapshot(ctx, "purc2023")
	if err != nil {
		t.Fatalf("get on empty store: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil snapshot, got %+v", got)
	}

	first := ScheduleSnapshot{Policy: "purc2023", Payload: []byte(`{"v":1}`), SavedBy: "a"}
	second := ScheduleSnapshot{Policy: "purc2023", Payload: []byte(`{"v":2}`), SavedBy: "b"}
	if err := m.SaveScheduleSnapshot(ctx, first); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := m.SaveScheduleSnapshot(ctx, second); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err = m.GetScheduleSnapshot(ctx, "purc2023")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || string(got.Payload) != `{"v":2}` {
		t.Fatalf("latest snapshot = %+v, want v2", got)
	}
	if got.ID == 0 {
		t.Error("snapshot ID not assigned")
	}
	if got.SavedAt.IsZero() {
		t.Error("SavedAt not defaulted")
	}
}

func TestMemoryListSnapshotsOnePerPolicy(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	for _, s := range []ScheduleSnapshot{
		{Policy: "purc2023", Payload: []byte("a")},
		{Policy: "purc2023", Payload: []byte("b")},
		{Policy: "purc2019", Payload: []byte("c")},
	} {
		if err := m.SaveScheduleSnapshot(ctx, s); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	list, err := m.ListScheduleSnapshots(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("list length = %d, want one entry per policy", len(list))
	}
	byPolicy := map[string]string{}
	for _, s := range list {
		byPolicy[s.Policy] = string(s.Payload)
	}
	if byPolicy["purc2023"] != "b" {
		t.Errorf("purc2023 latest = %q, want b", byPolicy["purc2023"])
	}
}

func TestMemorySettings(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if v, _ := m.GetSetting(ctx, "refresh_interval_seconds"); v != "" {
		t.Fatalf("unset setting = %q", v)
	}
	if err := m.SetSetting(ctx, "refresh_interval_seconds", "600"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if v, _ := m.GetSetting(ctx, "refresh_interval_seconds"); v != "600" {
		t.Fatalf("setting = %q, want 600", v)
	}
}

func TestMemoryUsersAndTokens(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if err := m.CreateUser(ctx, User{ID: "u1", Username: "kwame", Role: "admin"}); err != nil {
		t.Fatalf("create user: %v", err)
	}

	u, err := m.GetUserByUsername(ctx, "kwame")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if u == nil || u.ID != "u1" {
		t.Fatalf("user = %+v", u)
	}
	if u, _ := m.GetUserByUsername(ctx, "nobody"); u != nil {
		t.Errorf("unknown user = %+v, want nil", u)
	}

	tok := Token{ID: "t1", UserID: "u1", TokenHash: "abc", Role: "admin", CreatedAt: time.Now()}
	if err := m.CreateToken(ctx, tok); err != nil {
		t.Fatalf("create token: %v", err)
	}
	got, err := m.GetTokenByHash(ctx, "abc")
	if err != nil {
		t.Fatalf("get token: %v", err)
	}
	if got == nil || got.ID != "t1" {
		t.Fatalf("token = %+v", got)
	}

	if err := m.UpdateTokenLastUsed(ctx, "t1"); err != nil {
		t.Fatalf("update last used: %v", err)
	}
	got, _ = m.GetTokenByHash(ctx, "abc")
	if got.LastUsedAt == nil {
		t.Error("LastUsedAt not set")
	}

	if err := m.DeleteToken(ctx, "t1"); err != nil {
		t.Fatalf("delete token: %v", err)
	}
	if got, _ := m.GetTokenByHash(ctx, "abc"); got != nil {
		t.Errorf("deleted token still found: %+v", got)
	}
}

func TestMemoryAdvisoryLockAlwaysAcquires(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	ok, err := m.AcquireAdvisoryLock(ctx, 42)
	if err != nil || !ok {
		t.Fatalf("acquire = %v, %v", ok, err)
	}
	if _, err := m.ReleaseAdvisoryLock(ctx, 42); err != nil {
		t.Fatalf("release: %v", err)
	}
}
