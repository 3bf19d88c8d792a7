package contentschema

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// NormalizeSlug trims s and returns nil when nothing remains. Blank slugs are
// stored as NULL rather than "", so a unique-slug constraint never sees two
// models colliding on the empty string. The normalization is idempotent.
func NormalizeSlug(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

type contextKey int

const tenantContextKey contextKey = iota

// WithTenant returns a context carrying the caller's resolved tenant.
func WithTenant(ctx context.Context, tenantID uuid.UUID) context.Context {
	return context.WithValue(ctx, tenantContextKey, tenantID)
}

// TenantFromContext extracts the tenant placed by WithTenant, if any.
func TenantFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(tenantContextKey).(uuid.UUID)
	return id, ok
}

// ContextTenantResolver resolves the tenant from the request context, where
// transport middleware (e.g. a verified JWT claim) placed it. It is the
// default resolver.
type ContextTenantResolver struct{}

// ResolveTenant returns the context tenant or (nil, nil) when the caller has
// no tenant scope.
func (ContextTenantResolver) ResolveTenant(ctx context.Context) (*uuid.UUID, error) {
	if id, ok := TenantFromContext(ctx); ok {
		return &id, nil
	}
	return nil, nil
}
