package toolconfig

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is satisfied by both *pgxpool.Pool and pgx.Tx, so the same store
// can run standalone reads or participate in a caller-owned transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PGStore struct {
	q Querier
}

func NewPGStore(q Querier) PGStore {
	return PGStore{q: q}
}

func (s PGStore) ToolkitByName(ctx context.Context, name string) (Toolkit, error) {
	var t Toolkit
	err := s.q.QueryRow(ctx, `
		select id, organisation_id, name, description
		from tool_kits
		where name = $1
	`, name).Scan(&t.ID, &t.OrganisationID, &t.Name, &t.Description)
	if errors.Is(err, pgx.ErrNoRows) {
		return Toolkit{}, ErrToolkitNotFound
	}
	if err != nil {
		return Toolkit{}, err
	}
	return t, nil
}

func (s PGStore) ConfigByKey(ctx context.Context, toolKitID uuid.UUID, key string) (Config, bool, error) {
	var c Config
	err := s.q.QueryRow(ctx, `
		select id, tool_kit_id, key, value
		from tool_configs
		where tool_kit_id = $1 and key = $2
	`, toolKitID, key).Scan(&c.ID, &c.ToolKitID, &c.Key, &c.Value)
	if errors.Is(err, pgx.ErrNoRows) {
		return Config{}, false, nil
	}
	if err != nil {
		return Config{}, false, err
	}
	return c, true, nil
}

func (s PGStore) InsertConfig(ctx context.Context, toolKitID uuid.UUID, key, value string) error {
	// The unique constraint on (tool_kit_id, key) backs up the
	// lookup-before-insert flow against concurrent reconciles.
	_, err := s.q.Exec(ctx, `
		insert into tool_configs (tool_kit_id, key, value)
		values ($1, $2, $3)
		on conflict (tool_kit_id, key) do update set value = excluded.value, updated_at = now()
	`, toolKitID, key, value)
	return err
}

func (s PGStore) UpdateConfigValue(ctx context.Context, configID uuid.UUID, value string) error {
	_, err := s.q.Exec(ctx, `
		update tool_configs set value = $2, updated_at = now()
		where id = $1
	`, configID, value)
	return err
}

func (s PGStore) ListConfigs(ctx context.Context, toolKitID uuid.UUID) ([]Config, error) {
	rows, err := s.q.Query(ctx, `
		select id, tool_kit_id, key, value
		from tool_configs
		where tool_kit_id = $1
		order by key asc
	`, toolKitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Config
	for rows.Next() {
		var c Config
		if err := rows.Scan(&c.ID, &c.ToolKitID, &c.Key, &c.Value); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
