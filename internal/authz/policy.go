package authz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/musterd/internal/logging"
	"github.com/example/musterd/internal/persistence"
)

// ErrUnauthorized is returned when the acting member lacks permission for an
// admin-only operation.
var ErrUnauthorized = errors.New("authz: unauthorized")

// MemberStore captures the persistence operations the policy needs.
type MemberStore interface {
	GetMember(ctx context.Context, id string) (persistence.Member, error)
	UpsertMember(ctx context.Context, member persistence.Member) error
	SetAdmin(ctx context.Context, id string, isAdmin bool) error
	GrantFirstAdmin(ctx context.Context, id string) (bool, error)
	CountAdmins(ctx context.Context) (int, error)
}

// Policy decides whether a requester may perform admin-only operations and
// owns mutation of the admin flag.
type Policy struct {
	members MemberStore
	now     func() time.Time
	logger  *slog.Logger
}

// NewPolicy wires dependencies for the authorization policy.
func NewPolicy(members MemberStore, now func() time.Time, logger *slog.Logger) *Policy {
	if now == nil {
		now = time.Now
	}
	return &Policy{members: members, now: now, logger: logger}
}

// IsAdmin reports whether the member holds the admin flag. Unknown members
// are not admins.
func (p *Policy) IsAdmin(ctx context.Context, memberID string) (bool, error) {
	member, err := p.members.GetMember(ctx, memberID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to look up member: %w", err)
	}
	return member.IsAdmin, nil
}

// Require returns ErrUnauthorized unless the member is an admin.
func (p *Policy) Require(ctx context.Context, memberID string) error {
	isAdmin, err := p.IsAdmin(ctx, memberID)
	if err != nil {
		return err
	}
	if !isAdmin {
		return ErrUnauthorized
	}
	return nil
}

// GrantAdmin promotes the target member. Only existing admins may grant; the
// target is created on the fly when unknown, since an explicit grant counts
// as a first observed interaction.
func (p *Policy) GrantAdmin(ctx context.Context, actorID, targetID string) error {
	if err := p.Require(ctx, actorID); err != nil {
		return err
	}

	if err := p.ensureMember(ctx, targetID); err != nil {
		return err
	}
	if err := p.members.SetAdmin(ctx, targetID, true); err != nil {
		return fmt.Errorf("failed to set admin flag: %w", err)
	}

	logging.Service(ctx, p.logger, "authz", "grant_admin").Info("admin granted",
		"actor_id", actorID, "target_id", targetID)
	return nil
}

// Bootstrap grants the designated first admin iff no admin exists yet. The
// precondition is checked transactionally in the member store, so repeated
// startups and races grant at most once; it reports whether the grant
// happened.
func (p *Policy) Bootstrap(ctx context.Context, memberID string) (bool, error) {
	if memberID == "" {
		return false, nil
	}

	if err := p.ensureMember(ctx, memberID); err != nil {
		return false, err
	}

	granted, err := p.members.GrantFirstAdmin(ctx, memberID)
	if err != nil {
		return false, fmt.Errorf("failed to bootstrap admin: %w", err)
	}

	log := logging.Service(ctx, p.logger, "authz", "bootstrap")
	if granted {
		log.Info("bootstrap admin granted", "member_id", memberID)
		return true, nil
	}

	count, err := p.members.CountAdmins(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to count admins: %w", err)
	}
	log.Info("bootstrap skipped, admins already present", "member_id", memberID, "admin_count", count)
	return false, nil
}

func (p *Policy) ensureMember(ctx context.Context, memberID string) error {
	_, err := p.members.GetMember(ctx, memberID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, persistence.ErrNotFound) {
		return fmt.Errorf("failed to look up member: %w", err)
	}

	now := p.now()
	member := persistence.Member{
		ID:          memberID,
		DisplayName: memberID,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := p.members.UpsertMember(ctx, member); err != nil {
		return fmt.Errorf("failed to create member: %w", err)
	}
	return nil
}
