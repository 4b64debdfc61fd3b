package shared

import (
	"context"

	"github.com/google/uuid"
)

// Principal identifies the authenticated tenant and acting user of a request.
// It is hydrated by the upstream session provider and passed explicitly to
// every core operation.
type Principal struct {
	TenantID  uuid.UUID
	ActorID   string
	ActorName string
}

// Valid reports whether the principal carries a tenant.
func (p Principal) Valid() bool {
	return p.TenantID != uuid.Nil
}

// DisplayName returns the actor name used in audit records.
func (p Principal) DisplayName() string {
	if p.ActorName != "" {
		return p.ActorName
	}
	if p.ActorID != "" {
		return p.ActorID
	}
	return "unknown"
}

type principalContextKey struct{}

// ContextWithPrincipal stores the principal in context.
func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the principal from context.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(Principal)
	return p, ok && p.Valid()
}
