package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"agentops/internal/vectorindex"
)

func (s server) handleGetMarketplaceValidIndices(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromCtx(r.Context())
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	knowledgeID, err := uuid.Parse(chi.URLParam(r, "knowledgeID"))
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid knowledge id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
	defer cancel()

	out, err := vectorindex.ListValidIndices(ctx, s.vecStore, s.dimChecker, id.OrganisationID, knowledgeID)
	if err != nil {
		logError(r.Context(), "valid indices aggregation failed", err)
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, out)
}
