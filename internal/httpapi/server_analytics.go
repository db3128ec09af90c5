package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"agentops/internal/analytics"
)

func (s server) handleGetMetrics(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromCtx(r.Context())
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
	defer cancel()

	m, err := s.metrics.RunCompletedMetrics(ctx, id.OrganisationID)
	if err != nil {
		logError(r.Context(), "run metrics query failed", err)
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s server) handleGetAgents(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromCtx(r.Context())
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
	defer cancel()

	data, err := s.metrics.AgentData(ctx, id.OrganisationID)
	if err != nil {
		logError(r.Context(), "agent data query failed", err)
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, data)
}

func (s server) handleGetAgentRuns(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromCtx(r.Context())
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	agentID, err := uuid.Parse(chi.URLParam(r, "agentID"))
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid agent id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
	defer cancel()

	runs, err := s.metrics.AgentRuns(ctx, id.OrganisationID, agentID)
	if errors.Is(err, analytics.ErrAgentNotFound) {
		writeDetail(w, http.StatusNotFound, "Agent not found")
		return
	}
	if err != nil {
		logError(r.Context(), "agent runs query failed", err)
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s server) handleGetActiveRuns(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromCtx(r.Context())
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
	defer cancel()

	runs, err := s.metrics.ActiveRuns(ctx, id.OrganisationID)
	if err != nil {
		logError(r.Context(), "active runs query failed", err)
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s server) handleGetToolsUsed(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromCtx(r.Context())
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
	defer cancel()

	usage, err := s.metrics.ToolUsage(ctx, id.OrganisationID)
	if err != nil {
		logError(r.Context(), "tool usage query failed", err)
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, usage)
}
