package httpapi

import (
	"net/http"
	"time"

	"agentops/internal/keys"
)

const sessionTokenTTL = time.Hour

type sessionTokenDTO struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

// handleIssueSessionToken exchanges any authenticated credential for a
// short-lived session token, so API-key callers can avoid the per-request
// key lookup.
func (s server) handleIssueSessionToken(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromCtx(r.Context())
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if s.jwtSecret == "" {
		writeDetail(w, http.StatusForbidden, "session tokens disabled")
		return
	}

	expiresAt := time.Now().Add(sessionTokenTTL)
	token, err := keys.NewSessionToken(s.jwtSecret, id.UserID, id.OrganisationID, sessionTokenTTL)
	if err != nil {
		logError(r.Context(), "session token mint failed", err)
		writeDetail(w, http.StatusInternalServerError, "could not issue session token")
		return
	}

	writeJSON(w, http.StatusCreated, sessionTokenDTO{
		Token:     token,
		ExpiresAt: expiresAt.UTC().Format(time.RFC3339),
	})
}
