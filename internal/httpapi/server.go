package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"agentops/internal/analytics"
	"agentops/internal/toolconfig"
	"agentops/internal/vectorindex"
)

type server struct {
	db         *pgxpool.Pool
	pepper     string
	jwtSecret  string
	adminToken string

	requestTimeout time.Duration

	metrics analytics.Helper

	// Collaborators; interface-typed so handler behavior can be exercised
	// without a database.
	tkStore    toolconfig.Store
	vecStore   vectorindex.Store
	dimChecker vectorindex.DimensionChecker
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeDetail emits the platform's uniform error body.
func writeDetail(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"detail": msg})
}

func readJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func readJSONLimited(w http.ResponseWriter, r *http.Request, dst any, maxBytes int64) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := readJSON(r, dst); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid json")
		return false
	}
	return true
}
