// Package toolconfig reconciles per-toolkit key/value configuration.
//
// Two policies exist and callers rely on the difference: CreateOrUpdate is a
// strict upsert, UpdateExisting only touches keys that already have a row.
package toolconfig

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"

	"github.com/cyberphone/json-canonicalization/go/src/webpki.org/jsoncanonicalizer"
	"github.com/google/uuid"
)

var ErrToolkitNotFound = errors.New("tool kit not found")

type Toolkit struct {
	ID             uuid.UUID
	OrganisationID uuid.UUID
	Name           string
	Description    string
}

type Config struct {
	ID        uuid.UUID
	ToolKitID uuid.UUID
	Key       string
	Value     string
}

type Entry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Store is the persistence boundary for reconciliation. Implementations must
// be safe to drive from a single goroutine; atomicity across one reconcile
// call is the caller's responsibility (bind the store to a transaction).
type Store interface {
	ToolkitByName(ctx context.Context, name string) (Toolkit, error)
	ConfigByKey(ctx context.Context, toolKitID uuid.UUID, key string) (Config, bool, error)
	InsertConfig(ctx context.Context, toolKitID uuid.UUID, key, value string) error
	UpdateConfigValue(ctx context.Context, configID uuid.UUID, value string) error
	ListConfigs(ctx context.Context, toolKitID uuid.UUID) ([]Config, error)
}

// Snapshot is the refreshed toolkit aggregate returned after a reconcile, so
// callers can observe the full current config set.
type Snapshot struct {
	Toolkit     Toolkit
	Configs     []Config
	Fingerprint string
}

// CreateOrUpdate upserts every entry in input order: existing keys are
// overwritten in place, unknown keys get a new row. A duplicate key in the
// input means the last occurrence wins.
func CreateOrUpdate(ctx context.Context, s Store, toolkitName string, entries []Entry) (Snapshot, error) {
	toolkit, err := s.ToolkitByName(ctx, toolkitName)
	if err != nil {
		return Snapshot{}, err
	}

	for _, e := range entries {
		existing, found, err := s.ConfigByKey(ctx, toolkit.ID, e.Key)
		if err != nil {
			return Snapshot{}, err
		}
		if found {
			if err := s.UpdateConfigValue(ctx, existing.ID, e.Value); err != nil {
				return Snapshot{}, err
			}
			continue
		}
		if err := s.InsertConfig(ctx, toolkit.ID, e.Key, e.Value); err != nil {
			return Snapshot{}, err
		}
	}

	return snapshot(ctx, s, toolkit)
}

// UpdateExisting overwrites values for keys that already have a config row
// and silently skips the rest. Entries without a key are ignored.
func UpdateExisting(ctx context.Context, s Store, toolkitName string, entries []Entry) error {
	toolkit, err := s.ToolkitByName(ctx, toolkitName)
	if err != nil {
		return err
	}

	for _, e := range entries {
		if e.Key == "" {
			continue
		}
		existing, found, err := s.ConfigByKey(ctx, toolkit.ID, e.Key)
		if err != nil {
			return err
		}
		if !found {
			continue
		}
		if err := s.UpdateConfigValue(ctx, existing.ID, e.Value); err != nil {
			return err
		}
	}
	return nil
}

func snapshot(ctx context.Context, s Store, toolkit Toolkit) (Snapshot, error) {
	configs, err := s.ListConfigs(ctx, toolkit.ID)
	if err != nil {
		return Snapshot{}, err
	}
	fp, err := Fingerprint(configs)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Toolkit: toolkit, Configs: configs, Fingerprint: fp}, nil
}

// Fingerprint hashes the canonical JSON form of the config set, so two
// toolkits with the same keys and values always produce the same digest
// regardless of row order.
func Fingerprint(configs []Config) (string, error) {
	kv := make(map[string]string, len(configs))
	for _, c := range configs {
		kv[c.Key] = c.Value
	}
	raw, err := json.Marshal(kv)
	if err != nil {
		return "", err
	}
	canonical, err := jsoncanonicalizer.Transform(raw)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
