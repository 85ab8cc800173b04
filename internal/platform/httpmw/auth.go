package httpmw

import (
	"net/http"

	"marketplace-gateway/internal/platform/authctx"
	"marketplace-gateway/internal/platform/authjwt"
	"marketplace-gateway/internal/platform/respond"
)

// AuthBearer validates an Authorization: Bearer <token> header and stores the
// verified claims in the request context.
//
// A missing or malformed header is a 401; anything wrong with the token
// itself (signature, payload, expiry) is one generic 403 so the responses
// cannot be used to distinguish the failure cause.
//
// Note: revoked tokens are NOT checked here. The revocation store is connected
// at startup but not consulted during validation; see internal/revocation.
func AuthBearer(jwtSvc *authjwt.Service, next http.Handler) http.Handler {
	if jwtSvc == nil {
		// If misconfigured, fail closed.
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			respond.Error(w, http.StatusServiceUnavailable, "Authentication unavailable")
		})
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok, err := authjwt.FromHeader(r.Header.Get("Authorization"))
		if err != nil {
			respond.Error(w, http.StatusUnauthorized, "No token provided")
			return
		}

		claims, err := jwtSvc.Parse(tok)
		if err != nil {
			respond.Error(w, http.StatusForbidden, "Invalid or expired token")
			return
		}

		ctx := authctx.WithClaims(r.Context(), claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
