package api

import (
	"net/http"

	"github.com/go-chi/jwtauth"
	"github.com/google/uuid"

	"github.com/flexcms/content-schema/pkg/contentschema"
)

// TenantFromJWT reads the tenant_id claim from a verified token and scopes the
// request context with it. Requests without a token, or without the claim,
// pass through unscoped.
func TenantFromJWT(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, claims, err := jwtauth.FromContext(r.Context())
		if err != nil || claims == nil {
			next.ServeHTTP(w, r)
			return
		}

		raw, ok := claims["tenant_id"].(string)
		if !ok || raw == "" {
			next.ServeHTTP(w, r)
			return
		}

		tenantID, err := uuid.Parse(raw)
		if err != nil {
			http.Error(w, "Invalid tenant_id claim", http.StatusUnauthorized)
			return
		}

		ctx := contentschema.WithTenant(r.Context(), tenantID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
