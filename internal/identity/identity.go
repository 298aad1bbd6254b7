// Package identity carries the actor resolved by the external identity
// provider. The core consumes the actor as an opaque input and never
// manages sessions or credentials itself.
package identity

import "context"

// Role enumerates the roles the reconciliation core understands.
type Role string

const (
	// RoleAdmin may override the day lock with a journaled reason.
	RoleAdmin Role = "ADMIN"
	// RoleStaff may mutate records only while the day is unlocked.
	RoleStaff Role = "STAFF"
)

// NormalizeRole maps a raw role string onto a known Role.
func NormalizeRole(raw string) (Role, bool) {
	switch Role(raw) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleStaff:
		return RoleStaff, true
	default:
		return "", false
	}
}

// Actor identifies the authenticated caller for a single request.
type Actor struct {
	ID        int64
	Name      string
	Role      Role
	StationID int64
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

type actorContextKey struct{}

// ContextWithActor stores the actor in context.
func ContextWithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext extracts the actor from context.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(Actor)
	return actor, ok
}
