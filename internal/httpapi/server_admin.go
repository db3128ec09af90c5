package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"agentops/internal/keys"
)

type createOrganisationRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type createOrganisationResponse struct {
	OrganisationID string `json:"organisation_id"`
	UserID         string `json:"user_id"`
	APIKey         string `json:"api_key"`
}

// handleAdminCreateOrganisation bootstraps an organisation with one admin
// user and a fresh API key, so the authenticated surface is reachable on an
// empty database.
func (s server) handleAdminCreateOrganisation(w http.ResponseWriter, r *http.Request) {
	var req createOrganisationRequest
	if !readJSONLimited(w, r, &req, 16*1024) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Name == "" || req.Email == "" {
		writeDetail(w, http.StatusBadRequest, "name and email are required")
		return
	}

	apiKey, err := keys.NewAPIKey()
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "key generation failed")
		return
	}
	hash := keys.HashAPIKey(s.pepper, apiKey)

	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
	defer cancel()

	tx, err := s.db.Begin(ctx)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "db begin failed")
		return
	}
	defer tx.Rollback(ctx)

	var orgID uuid.UUID
	if err := tx.QueryRow(ctx, `
		insert into organisations (name) values ($1) returning id
	`, req.Name).Scan(&orgID); err != nil {
		writeDetail(w, http.StatusInternalServerError, "create organisation failed")
		return
	}

	var userID uuid.UUID
	if err := tx.QueryRow(ctx, `
		insert into users (organisation_id, email, is_admin)
		values ($1, $2, true)
		returning id
	`, orgID, req.Email).Scan(&userID); err != nil {
		writeDetail(w, http.StatusInternalServerError, "create user failed")
		return
	}

	if _, err := tx.Exec(ctx, `
		insert into user_api_keys (user_id, key_hash) values ($1, $2)
	`, userID, hash); err != nil {
		writeDetail(w, http.StatusInternalServerError, "create user key failed")
		return
	}

	if err := tx.Commit(ctx); err != nil {
		writeDetail(w, http.StatusInternalServerError, "db commit failed")
		return
	}

	s.audit(ctx, "admin", userID, "organisation_created", map[string]any{"organisation_id": orgID.String()})
	writeJSON(w, http.StatusCreated, createOrganisationResponse{
		OrganisationID: orgID.String(),
		UserID:         userID.String(),
		APIKey:         apiKey,
	})
}

type issueKeyRequest struct {
	Email string `json:"email"`
}

type issueKeyResponse struct {
	UserID string `json:"user_id"`
	APIKey string `json:"api_key"`
}

func (s server) handleAdminIssueUserKey(w http.ResponseWriter, r *http.Request) {
	var req issueKeyRequest
	if !readJSONLimited(w, r, &req, 16*1024) {
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" {
		writeDetail(w, http.StatusBadRequest, "email is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
	defer cancel()

	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `select id from users where email = $1`, req.Email).Scan(&userID)
	if errors.Is(err, pgx.ErrNoRows) {
		writeDetail(w, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		logError(r.Context(), "user lookup failed", err)
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}

	apiKey, err := keys.NewAPIKey()
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "key generation failed")
		return
	}
	hash := keys.HashAPIKey(s.pepper, apiKey)

	if _, err := s.db.Exec(ctx, `
		insert into user_api_keys (user_id, key_hash) values ($1, $2)
	`, userID, hash); err != nil {
		writeDetail(w, http.StatusInternalServerError, "insert key failed")
		return
	}

	s.audit(ctx, "admin", userID, "user_api_key_issued", map[string]any{})
	writeJSON(w, http.StatusCreated, issueKeyResponse{UserID: userID.String(), APIKey: apiKey})
}
