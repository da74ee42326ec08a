package auth

import (
	"context"
	"testing"
	"time"

	"github.com/kdarko/ecgbill/internal/storage"
)

func newTestService(t *testing.T) (*Service, storage.Storage) {
	t.Helper()
	st := storage.NewMemory()
	svc, err := NewService(st)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, st
}

func TestRegisterAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	u, err := svc.Register(ctx, "ama", "s3cret", "editor")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.Role != "editor" {
		t.Errorf("role = %q", u.Role)
	}

	if _, err := svc.Register(ctx, "ama", "other", "viewer"); err == nil {
		t.Error("duplicate registration succeeded")
	}

	got, err := svc.Authenticate(ctx, "ama", "s3cret")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("authenticated wrong user: %+v", got)
	}

	if _, err := svc.Authenticate(ctx, "ama", "wrong"); err == nil {
		t.Error("wrong password accepted")
	}
	if _, err := svc.Authenticate(ctx, "nobody", "s3cret"); err == nil {
		t.Error("unknown user accepted")
	}
}

func TestTokenLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	u, err := svc.Register(ctx, "ama", "s3cret", "editor")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	tok, raw, err := svc.CreateToken(ctx, u.ID, "cli", u.Role, nil)
	if err != nil {
		t.Fatalf("create token: %v", err)
	}
	if raw == "" || tok.TokenHash == raw {
		t.Fatal("raw token missing or stored unhashed")
	}

	got, err := svc.ValidateToken(ctx, raw)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if got.ID != tok.ID || got.Role != "editor" {
		t.Errorf("validated token = %+v", got)
	}

	if _, err := svc.ValidateToken(ctx, "not-a-token"); err == nil {
		t.Error("bogus token accepted")
	}

	past := time.Now().Add(-time.Hour)
	_, rawExpired, err := svc.CreateToken(ctx, u.ID, "old", u.Role, &past)
	if err != nil {
		t.Fatalf("create expired token: %v", err)
	}
	if _, err := svc.ValidateToken(ctx, rawExpired); err == nil {
		t.Error("expired token accepted")
	}
}

func TestEnforceRoles(t *testing.T) {
	svc, _ := newTestService(t)

	cases := []struct {
		role, obj, act string
		want           bool
	}{
		{"admin", "tariffs", "write", true},
		{"admin", "anything", "at-all", true},
		{"editor", "tariffs", "write", true},
		{"editor", "bills", "compute", true},
		{"viewer", "tariffs", "read", true},
		{"viewer", "tariffs", "write", false},
		{"stranger", "tariffs", "read", false},
	}
	for _, tc := range cases {
		got, err := svc.Enforce(tc.role, tc.obj, tc.act)
		if err != nil {
			t.Fatalf("enforce(%s, %s, %s): %v", tc.role, tc.obj, tc.act, err)
		}
		if got != tc.want {
			t.Errorf("enforce(%s, %s, %s) = %v, want %v", tc.role, tc.obj, tc.act, got, tc.want)
		}
	}
}
