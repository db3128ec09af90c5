package httpapi

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"agentops/internal/keys"
)

// identity is the resolved caller: a user acting for exactly one organisation.
type identity struct {
	UserID         uuid.UUID
	OrganisationID uuid.UUID
}

type ctxKey string

const ctxIdentity ctxKey = "identity"

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// looksLikeJWT distinguishes the two credential kinds without a registry:
// session tokens are three dot-separated segments, API keys carry no dots.
func looksLikeJWT(token string) bool {
	return strings.Count(token, ".") == 2
}

// authMiddleware resolves the calling organisation from either a session JWT
// or an API key and stores the identity on the request context.
func (s server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeDetail(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		if looksLikeJWT(token) {
			userID, orgID, err := keys.ParseSessionToken(s.jwtSecret, token)
			if err != nil {
				writeDetail(w, http.StatusUnauthorized, "invalid token")
				return
			}
			ctx := context.WithValue(r.Context(), ctxIdentity, identity{UserID: userID, OrganisationID: orgID})
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		hash := keys.HashAPIKey(s.pepper, token)

		var id identity
		err := s.db.QueryRow(r.Context(), `
			select u.id, u.organisation_id
			from user_api_keys k
			join users u on u.id = k.user_id
			where k.key_hash = $1 and k.revoked_at is null
		`, hash).Scan(&id.UserID, &id.OrganisationID)
		if errors.Is(err, pgx.ErrNoRows) {
			writeDetail(w, http.StatusUnauthorized, "invalid token")
			return
		}
		if err != nil {
			logError(r.Context(), "auth lookup failed", err)
			writeDetail(w, http.StatusInternalServerError, "auth lookup failed")
			return
		}

		ctx := context.WithValue(r.Context(), ctxIdentity, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// adminTokenMiddleware guards bootstrap endpoints with the configured shared
// token; they must work on an empty database.
func (s server) adminTokenMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.adminToken == "" {
			writeDetail(w, http.StatusForbidden, "admin api disabled")
			return
		}
		token := bearerToken(r)
		if token == "" {
			writeDetail(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		if subtle.ConstantTimeCompare([]byte(token), []byte(s.adminToken)) != 1 {
			writeDetail(w, http.StatusForbidden, "forbidden")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func identityFromCtx(ctx context.Context) (identity, bool) {
	v := ctx.Value(ctxIdentity)
	id, ok := v.(identity)
	return id, ok
}
