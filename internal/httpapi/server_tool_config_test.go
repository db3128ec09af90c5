package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"agentops/internal/keys"
	"agentops/internal/toolconfig"
)

type stubToolkitStore struct {
	toolkits map[string]toolconfig.Toolkit
	configs  map[uuid.UUID][]toolconfig.Config

	updates int
}

func (s *stubToolkitStore) ToolkitByName(_ context.Context, name string) (toolconfig.Toolkit, error) {
	tk, ok := s.toolkits[name]
	if !ok {
		return toolconfig.Toolkit{}, toolconfig.ErrToolkitNotFound
	}
	return tk, nil
}

func (s *stubToolkitStore) ConfigByKey(_ context.Context, toolKitID uuid.UUID, key string) (toolconfig.Config, bool, error) {
	for _, c := range s.configs[toolKitID] {
		if c.Key == key {
			return c, true, nil
		}
	}
	return toolconfig.Config{}, false, nil
}

func (s *stubToolkitStore) InsertConfig(_ context.Context, toolKitID uuid.UUID, key, value string) error {
	s.configs[toolKitID] = append(s.configs[toolKitID], toolconfig.Config{
		ID: uuid.New(), ToolKitID: toolKitID, Key: key, Value: value,
	})
	return nil
}

func (s *stubToolkitStore) UpdateConfigValue(_ context.Context, configID uuid.UUID, value string) error {
	for tkID, configs := range s.configs {
		for i, c := range configs {
			if c.ID == configID {
				s.configs[tkID][i].Value = value
				s.updates++
				return nil
			}
		}
	}
	return nil
}

func (s *stubToolkitStore) ListConfigs(_ context.Context, toolKitID uuid.UUID) ([]toolconfig.Config, error) {
	return s.configs[toolKitID], nil
}

func newToolConfigRouter(s server) http.Handler {
	r := chi.NewRouter()
	r.Post("/add/{toolKitName}", s.handleUpdateToolConfigs)
	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Get("/get/toolkit/{toolKitName}", s.handleGetToolkitConfigs)
		r.Get("/get/toolkit/{toolKitName}/key/{key}", s.handleGetToolkitConfigByKey)
	})
	return r
}

func TestHandleGetToolkitConfigs_Ownership(t *testing.T) {
	const secret = "test-secret"
	ownerOrg := uuid.New()
	tkID := uuid.New()

	store := &stubToolkitStore{
		toolkits: map[string]toolconfig.Toolkit{
			"github": {ID: tkID, OrganisationID: ownerOrg, Name: "github"},
		},
		configs: map[uuid.UUID][]toolconfig.Config{
			tkID: {{ID: uuid.New(), ToolKitID: tkID, Key: "GITHUB_TOKEN", Value: "ghp_x"}},
		},
	}
	s := server{jwtSecret: secret, requestTimeout: 5 * time.Second, tkStore: store}
	r := newToolConfigRouter(s)

	get := func(t *testing.T, orgID uuid.UUID, path string) *httptest.ResponseRecorder {
		t.Helper()
		token, err := keys.NewSessionToken(secret, uuid.New(), orgID, time.Hour)
		if err != nil {
			t.Fatalf("mint token: %v", err)
		}
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		r.ServeHTTP(rec, req)
		return rec
	}

	t.Run("owner sees configs", func(t *testing.T) {
		rec := get(t, ownerOrg, "/get/toolkit/github")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
		}
		if !strings.Contains(rec.Body.String(), "GITHUB_TOKEN") {
			t.Fatalf("config missing from response: %s", rec.Body.String())
		}
	})

	t.Run("foreign organisation is forbidden", func(t *testing.T) {
		rec := get(t, uuid.New(), "/get/toolkit/github")
		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
		if got := decodeDetail(t, rec); got != "Unauthorized" {
			t.Fatalf("expected Unauthorized detail, got %q", got)
		}
	})

	t.Run("unknown toolkit is 404", func(t *testing.T) {
		rec := get(t, ownerOrg, "/get/toolkit/nonexistent")
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		if got := decodeDetail(t, rec); got != "ToolKit not found" {
			t.Fatalf("expected ToolKit not found detail, got %q", got)
		}
	})
}

func TestHandleGetToolkitConfigByKey(t *testing.T) {
	const secret = "test-secret"
	ownerOrg := uuid.New()
	tkID := uuid.New()

	store := &stubToolkitStore{
		toolkits: map[string]toolconfig.Toolkit{
			"slack": {ID: tkID, OrganisationID: ownerOrg, Name: "slack"},
		},
		configs: map[uuid.UUID][]toolconfig.Config{
			tkID: {{ID: uuid.New(), ToolKitID: tkID, Key: "SLACK_BOT_TOKEN", Value: "xoxb-1"}},
		},
	}
	s := server{jwtSecret: secret, requestTimeout: 5 * time.Second, tkStore: store}
	r := newToolConfigRouter(s)

	get := func(t *testing.T, orgID uuid.UUID, path string) *httptest.ResponseRecorder {
		t.Helper()
		token, err := keys.NewSessionToken(secret, uuid.New(), orgID, time.Hour)
		if err != nil {
			t.Fatalf("mint token: %v", err)
		}
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		r.ServeHTTP(rec, req)
		return rec
	}

	t.Run("owner reads key", func(t *testing.T) {
		rec := get(t, ownerOrg, "/get/toolkit/slack/key/SLACK_BOT_TOKEN")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
		}
		if !strings.Contains(rec.Body.String(), "xoxb-1") {
			t.Fatalf("value missing from response: %s", rec.Body.String())
		}
	})

	t.Run("foreign organisation is forbidden", func(t *testing.T) {
		rec := get(t, uuid.New(), "/get/toolkit/slack/key/SLACK_BOT_TOKEN")
		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
		if got := decodeDetail(t, rec); got != "Unauthorized" {
			t.Fatalf("expected Unauthorized detail, got %q", got)
		}
	})

	t.Run("missing key is 404", func(t *testing.T) {
		rec := get(t, ownerOrg, "/get/toolkit/slack/key/NOPE")
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		if got := decodeDetail(t, rec); got != "Tool configuration not found" {
			t.Fatalf("expected Tool configuration not found detail, got %q", got)
		}
	})
}

func TestHandleUpdateToolConfigs(t *testing.T) {
	tkID := uuid.New()
	cfgID := uuid.New()
	store := &stubToolkitStore{
		toolkits: map[string]toolconfig.Toolkit{
			"github": {ID: tkID, OrganisationID: uuid.New(), Name: "github"},
		},
		configs: map[uuid.UUID][]toolconfig.Config{
			tkID: {{ID: cfgID, ToolKitID: tkID, Key: "GITHUB_TOKEN", Value: "old"}},
		},
	}
	s := server{requestTimeout: 5 * time.Second, tkStore: store}
	r := newToolConfigRouter(s)

	t.Run("updates existing keys only", func(t *testing.T) {
		body := `[{"key":"GITHUB_TOKEN","value":"new"},{"key":"UNKNOWN","value":"x"}]`
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/add/github", strings.NewReader(body))
		r.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d (%s)", rec.Code, rec.Body.String())
		}
		if store.configs[tkID][0].Value != "new" {
			t.Fatalf("existing config not updated: %+v", store.configs[tkID])
		}
		if len(store.configs[tkID]) != 1 {
			t.Fatalf("unknown key must not be created: %+v", store.configs[tkID])
		}
	})

	t.Run("unknown toolkit is 404", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/add/nonexistent", strings.NewReader(`[]`))
		r.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		if got := decodeDetail(t, rec); got != "Tool kit not found" {
			t.Fatalf("expected Tool kit not found detail, got %q", got)
		}
	})
}
