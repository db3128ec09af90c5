package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"agentops/internal/toolconfig"
)

type toolConfigDTO struct {
	ID    string `json:"id"`
	Key   string `json:"key"`
	Value string `json:"value"`
}

type toolkitSnapshotDTO struct {
	ID                string          `json:"id"`
	OrganisationID    string          `json:"organisation_id"`
	Name              string          `json:"name"`
	Description       string          `json:"description"`
	Configs           []toolConfigDTO `json:"configs"`
	ConfigFingerprint string          `json:"config_fingerprint"`
}

func toolConfigDTOs(configs []toolconfig.Config) []toolConfigDTO {
	out := make([]toolConfigDTO, 0, len(configs))
	for _, c := range configs {
		out = append(out, toolConfigDTO{ID: c.ID.String(), Key: c.Key, Value: c.Value})
	}
	return out
}

// handleUpdateToolConfigs is the update-only path: keys without an existing
// config row are skipped, never created. The route carries no auth dependency;
// see DESIGN.md before changing that.
func (s server) handleUpdateToolConfigs(w http.ResponseWriter, r *http.Request) {
	toolkitName := chi.URLParam(r, "toolKitName")

	var entries []toolconfig.Entry
	if !readJSONLimited(w, r, &entries, 256*1024) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
	defer cancel()

	err := toolconfig.UpdateExisting(ctx, s.tkStore, toolkitName, entries)
	if errors.Is(err, toolconfig.ErrToolkitNotFound) {
		writeDetail(w, http.StatusNotFound, "Tool kit not found")
		return
	}
	if err != nil {
		logError(r.Context(), "update tool configs failed", err)
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"message": "Tool configs updated successfully"})
}

// handleCreateOrUpdateToolConfigs reconciles the whole entry batch inside one
// transaction: either every entry lands or none do.
func (s server) handleCreateOrUpdateToolConfigs(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromCtx(r.Context())
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	toolkitName := chi.URLParam(r, "toolKitName")

	var entries []toolconfig.Entry
	if !readJSONLimited(w, r, &entries, 256*1024) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
	defer cancel()

	tx, err := s.db.Begin(ctx)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "db begin failed")
		return
	}
	defer tx.Rollback(ctx)

	snap, err := toolconfig.CreateOrUpdate(ctx, toolconfig.NewPGStore(tx), toolkitName, entries)
	if errors.Is(err, toolconfig.ErrToolkitNotFound) {
		writeDetail(w, http.StatusNotFound, "ToolKit not found")
		return
	}
	if err != nil {
		logError(r.Context(), "reconcile tool configs failed", err)
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := tx.Commit(ctx); err != nil {
		writeDetail(w, http.StatusInternalServerError, "db commit failed")
		return
	}

	s.audit(ctx, "user", id.UserID, "tool_configs_reconciled", map[string]any{
		"tool_kit":    snap.Toolkit.Name,
		"fingerprint": snap.Fingerprint,
	})
	writeJSON(w, http.StatusCreated, toolkitSnapshotDTO{
		ID:                snap.Toolkit.ID.String(),
		OrganisationID:    snap.Toolkit.OrganisationID.String(),
		Name:              snap.Toolkit.Name,
		Description:       snap.Toolkit.Description,
		Configs:           toolConfigDTOs(snap.Configs),
		ConfigFingerprint: snap.Fingerprint,
	})
}

func (s server) handleGetToolkitConfigs(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromCtx(r.Context())
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	toolkitName := chi.URLParam(r, "toolKitName")

	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
	defer cancel()

	toolkit, err := s.tkStore.ToolkitByName(ctx, toolkitName)
	if errors.Is(err, toolconfig.ErrToolkitNotFound) {
		writeDetail(w, http.StatusNotFound, "ToolKit not found")
		return
	}
	if err != nil {
		logError(r.Context(), "toolkit lookup failed", err)
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	if toolkit.OrganisationID != id.OrganisationID {
		writeDetail(w, http.StatusForbidden, "Unauthorized")
		return
	}

	configs, err := s.tkStore.ListConfigs(ctx, toolkit.ID)
	if err != nil {
		logError(r.Context(), "config list failed", err)
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toolConfigDTOs(configs))
}

func (s server) handleGetToolkitConfigByKey(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromCtx(r.Context())
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	toolkitName := chi.URLParam(r, "toolKitName")
	key := chi.URLParam(r, "key")

	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
	defer cancel()

	toolkit, err := s.tkStore.ToolkitByName(ctx, toolkitName)
	if errors.Is(err, toolconfig.ErrToolkitNotFound) {
		writeDetail(w, http.StatusNotFound, "ToolKit not found")
		return
	}
	if err != nil {
		logError(r.Context(), "toolkit lookup failed", err)
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	if toolkit.OrganisationID != id.OrganisationID {
		writeDetail(w, http.StatusForbidden, "Unauthorized")
		return
	}

	cfg, found, err := s.tkStore.ConfigByKey(ctx, toolkit.ID, key)
	if err != nil {
		logError(r.Context(), "config lookup failed", err)
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !found {
		writeDetail(w, http.StatusNotFound, "Tool configuration not found")
		return
	}
	writeJSON(w, http.StatusOK, toolConfigDTO{ID: cfg.ID.String(), Key: cfg.Key, Value: cfg.Value})
}
