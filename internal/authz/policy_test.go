package authz

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/musterd/internal/persistence"
)

type memberStoreStub struct {
	members map[string]persistence.Member
	getErr  error
}

func newMemberStoreStub() *memberStoreStub {
	return &memberStoreStub{members: make(map[string]persistence.Member)}
}

func (s *memberStoreStub) GetMember(ctx context.Context, id string) (persistence.Member, error) {
	if s.getErr != nil {
		return persistence.Member{}, s.getErr
	}
	member, ok := s.members[id]
	if !ok {
		return persistence.Member{}, persistence.ErrNotFound
	}
	return member, nil
}

func (s *memberStoreStub) UpsertMember(ctx context.Context, member persistence.Member) error {
	if existing, ok := s.members[member.ID]; ok {
		existing.DisplayName = member.DisplayName
		s.members[member.ID] = existing
		return nil
	}
	s.members[member.ID] = member
	return nil
}

func (s *memberStoreStub) SetAdmin(ctx context.Context, id string, isAdmin bool) error {
	member, ok := s.members[id]
	if !ok {
		return persistence.ErrNotFound
	}
	member.IsAdmin = isAdmin
	s.members[id] = member
	return nil
}

func (s *memberStoreStub) CountAdmins(ctx context.Context) (int, error) {
	count := 0
	for _, member := range s.members {
		if member.IsAdmin {
			count++
		}
	}
	return count, nil
}

func (s *memberStoreStub) GrantFirstAdmin(ctx context.Context, id string) (bool, error) {
	for _, member := range s.members {
		if member.IsAdmin {
			return false, nil
		}
	}
	member, ok := s.members[id]
	if !ok {
		return false, persistence.ErrNotFound
	}
	member.IsAdmin = true
	s.members[id] = member
	return true, nil
}

var testNow = func() time.Time {
	return time.Date(2024, time.January, 2, 8, 0, 0, 0, time.UTC)
}

func TestPolicy_IsAdmin(t *testing.T) {
	t.Parallel()

	t.Run("unknown members are not admins", func(t *testing.T) {
		t.Parallel()

		policy := NewPolicy(newMemberStoreStub(), testNow, nil)
		isAdmin, err := policy.IsAdmin(context.Background(), "stranger")
		if err != nil {
			t.Fatalf("IsAdmin failed: %v", err)
		}
		if isAdmin {
			t.Fatal("expected false")
		}
	})

	t.Run("propagates store failures", func(t *testing.T) {
		t.Parallel()

		store := newMemberStoreStub()
		store.getErr = errors.New("boom")
		policy := NewPolicy(store, testNow, nil)

		if _, err := policy.IsAdmin(context.Background(), "member-1"); err == nil {
			t.Fatal("expected an error")
		}
	})
}

func TestPolicy_Require(t *testing.T) {
	t.Parallel()

	store := newMemberStoreStub()
	store.members["admin-1"] = persistence.Member{ID: "admin-1", IsAdmin: true, Active: true}
	store.members["member-1"] = persistence.Member{ID: "member-1", Active: true}
	policy := NewPolicy(store, testNow, nil)

	if err := policy.Require(context.Background(), "admin-1"); err != nil {
		t.Fatalf("expected admin to pass, got %v", err)
	}
	if err := policy.Require(context.Background(), "member-1"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if err := policy.Require(context.Background(), "stranger"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for unknown members, got %v", err)
	}
}

func TestPolicy_GrantAdmin(t *testing.T) {
	t.Parallel()

	t.Run("admin grants a known member", func(t *testing.T) {
		t.Parallel()

		store := newMemberStoreStub()
		store.members["admin-1"] = persistence.Member{ID: "admin-1", IsAdmin: true, Active: true}
		store.members["member-1"] = persistence.Member{ID: "member-1", Active: true}
		policy := NewPolicy(store, testNow, nil)

		if err := policy.GrantAdmin(context.Background(), "admin-1", "member-1"); err != nil {
			t.Fatalf("GrantAdmin failed: %v", err)
		}
		if !store.members["member-1"].IsAdmin {
			t.Fatal("expected member-1 to be an admin")
		}
	})

	t.Run("grant creates an unknown target", func(t *testing.T) {
		t.Parallel()

		store := newMemberStoreStub()
		store.members["admin-1"] = persistence.Member{ID: "admin-1", IsAdmin: true, Active: true}
		policy := NewPolicy(store, testNow, nil)

		if err := policy.GrantAdmin(context.Background(), "admin-1", "newcomer"); err != nil {
			t.Fatalf("GrantAdmin failed: %v", err)
		}
		member, ok := store.members["newcomer"]
		if !ok || !member.IsAdmin || !member.Active {
			t.Fatalf("expected an active admin member, got %#v", member)
		}
	})

	t.Run("non-admin actors are rejected", func(t *testing.T) {
		t.Parallel()

		store := newMemberStoreStub()
		store.members["member-1"] = persistence.Member{ID: "member-1", Active: true}
		policy := NewPolicy(store, testNow, nil)

		err := policy.GrantAdmin(context.Background(), "member-1", "member-2")
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
		if _, ok := store.members["member-2"]; ok {
			t.Fatal("expected no member to be created")
		}
	})
}

func TestPolicy_Bootstrap(t *testing.T) {
	t.Parallel()

	t.Run("grants the first admin once", func(t *testing.T) {
		t.Parallel()

		store := newMemberStoreStub()
		policy := NewPolicy(store, testNow, nil)

		granted, err := policy.Bootstrap(context.Background(), "founder")
		if err != nil {
			t.Fatalf("Bootstrap failed: %v", err)
		}
		if !granted {
			t.Fatal("expected the grant to happen")
		}
		if !store.members["founder"].IsAdmin {
			t.Fatal("expected founder to be an admin")
		}

		granted, err = policy.Bootstrap(context.Background(), "founder")
		if err != nil {
			t.Fatalf("repeated Bootstrap failed: %v", err)
		}
		if granted {
			t.Fatal("expected a repeated bootstrap to be a no-op")
		}
	})

	t.Run("does nothing once any admin exists", func(t *testing.T) {
		t.Parallel()

		store := newMemberStoreStub()
		store.members["admin-1"] = persistence.Member{ID: "admin-1", IsAdmin: true, Active: true}
		policy := NewPolicy(store, testNow, nil)

		granted, err := policy.Bootstrap(context.Background(), "late-founder")
		if err != nil {
			t.Fatalf("Bootstrap failed: %v", err)
		}
		if granted {
			t.Fatal("expected no grant")
		}
		if store.members["late-founder"].IsAdmin {
			t.Fatal("expected late-founder to stay a regular member")
		}
	})

	t.Run("empty identifier is a no-op", func(t *testing.T) {
		t.Parallel()

		store := newMemberStoreStub()
		policy := NewPolicy(store, testNow, nil)

		granted, err := policy.Bootstrap(context.Background(), "")
		if err != nil {
			t.Fatalf("Bootstrap failed: %v", err)
		}
		if granted {
			t.Fatal("expected no grant")
		}
		if len(store.members) != 0 {
			t.Fatal("expected no member to be created")
		}
	})
}
