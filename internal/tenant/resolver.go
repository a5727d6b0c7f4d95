package tenant

import (
	"context"
	"errors"
	"log/slog"
)

// ErrNotResolved is returned when no signal yields a tenant. Callers treat it
// as an authorization-class failure, never a silent default.
var ErrNotResolved = errors.New("tenant: no signal resolved a tenant")

// Roles that widen which tenants an identity may explicitly select.
const (
	RoleSuperAdmin = "super_admin"
	RoleOwner      = "owner"
)

// Identity is the authenticated caller as seen by the resolver.
type Identity struct {
	UserID       int64
	RestaurantID int64
	Role         string
}

// GroupLookup verifies restaurant-group ownership. It is the only collaborator
// the resolver consults; the explicit parameter is never trusted on its own.
type GroupLookup interface {
	OwnsRestaurant(ctx context.Context, ownerUserID, restaurantID int64) (bool, error)
}

// Signals is the prioritized bundle of tenant hints for one unit of work.
type Signals struct {
	// Explicit is the restaurant_id request parameter, 0 when absent.
	Explicit int64
	// Identity is the authenticated caller, nil on public flows.
	Identity *Identity
	// Ambient is a tenant bound earlier in the unit of work, 0 when absent.
	Ambient int64
	// Public marks unauthenticated flows where the explicit parameter is
	// accepted without the authorization gate.
	Public bool
}

// Resolver computes the active tenant from layered signals. Resolution is
// pure given its inputs; publishing the result into the context is the
// caller's job.
type Resolver struct {
	groups GroupLookup
	logger *slog.Logger
}

func NewResolver(groups GroupLookup, logger *slog.Logger) *Resolver {
	return &Resolver{
		groups: groups,
		logger: logger,
	}
}

// Resolve applies the signals in priority order:
//
//  1. the explicit parameter, gated by the identity's authorization; an
//     unauthorized explicit parameter is discarded, not rejected
//  2. the identity's own assigned restaurant
//  3. the ambient tenant set earlier in the unit of work
//  4. on public flows only, the explicit parameter ungated
func (r *Resolver) Resolve(ctx context.Context, s Signals) (int64, error) {
	if s.Identity != nil && s.Explicit > 0 {
		if id, ok := r.authorizeExplicit(ctx, s.Identity, s.Explicit); ok {
			return id, nil
		}
	}
	if s.Identity != nil && s.Identity.RestaurantID > 0 {
		return s.Identity.RestaurantID, nil
	}
	if s.Ambient > 0 {
		return s.Ambient, nil
	}
	if s.Public && s.Explicit > 0 {
		return s.Explicit, nil
	}
	return 0, ErrNotResolved
}

// Lookup is the non-failing variant of Resolve.
func (r *Resolver) Lookup(ctx context.Context, s Signals) (int64, bool) {
	id, err := r.Resolve(ctx, s)
	if err != nil {
		return 0, false
	}
	return id, true
}

func (r *Resolver) authorizeExplicit(ctx context.Context, id *Identity, explicit int64) (int64, bool) {
	switch id.Role {
	case RoleSuperAdmin:
		return explicit, true
	case RoleOwner:
		if r.groups == nil {
			return 0, false
		}
		owns, err := r.groups.OwnsRestaurant(ctx, id.UserID, explicit)
		if err != nil {
			r.logger.Warn("group ownership lookup failed",
				slog.Int64("user_id", id.UserID),
				slog.Int64("restaurant_id", explicit),
				slog.Any("error", err))
			return 0, false
		}
		if owns {
			return explicit, true
		}
		return 0, false
	default:
		if id.RestaurantID == explicit {
			return explicit, true
		}
		return 0, false
	}
}
