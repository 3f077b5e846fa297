package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/goviral/goviral/internal/api/response"
	"github.com/goviral/goviral/internal/model"
)

type contextKey string

const TenantKey contextKey = "tenant"

// Auth returns a middleware that validates the Authorization bearer token
// against the tenants table and injects the tenant into the request context.
func Auth(pool *pgxpool.Pool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				response.WriteError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			hash := sha256.Sum256([]byte(token))
			tokenHash := hex.EncodeToString(hash[:])

			var tenant model.Tenant
			err := pool.QueryRow(r.Context(),
				`SELECT id, email, name, country_code, created_at, updated_at FROM tenants WHERE token_hash = $1`, tokenHash,
			).Scan(&tenant.ID, &tenant.Email, &tenant.Name, &tenant.CountryCode, &tenant.CreatedAt, &tenant.UpdatedAt)
			if err != nil {
				response.WriteError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), TenantKey, &tenant)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetTenant extracts the authenticated tenant from the request context.
func GetTenant(ctx context.Context) *model.Tenant {
	tenant, _ := ctx.Value(TenantKey).(*model.Tenant)
	return tenant
}
