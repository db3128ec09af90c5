package vectorindex

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PGStore struct {
	db *pgxpool.Pool
}

func NewPGStore(db *pgxpool.Pool) PGStore {
	return PGStore{db: db}
}

func (s PGStore) VectorDBsByOrganisation(ctx context.Context, organisationID uuid.UUID) ([]VectorDB, error) {
	rows, err := s.db.Query(ctx, `
		select id, organisation_id, name, db_type
		from vector_dbs
		where organisation_id = $1
		order by created_at asc
	`, organisationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []VectorDB
	for rows.Next() {
		var v VectorDB
		if err := rows.Scan(&v.ID, &v.OrganisationID, &v.Name, &v.DBType); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s PGStore) IndexCollections(ctx context.Context, vectorDBID uuid.UUID) ([]IndexCollection, error) {
	rows, err := s.db.Query(ctx, `
		select id, vector_db_id, name
		from vector_index_collections
		where vector_db_id = $1
		order by created_at asc
	`, vectorDBID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []IndexCollection
	for rows.Next() {
		var c IndexCollection
		if err := rows.Scan(&c.ID, &c.VectorDBID, &c.Name); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s PGStore) IndexState(ctx context.Context, indexID uuid.UUID) (string, error) {
	var state string
	err := s.db.QueryRow(ctx, `
		select state from vector_index_configs where index_id = $1
	`, indexID).Scan(&state)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return state, nil
}

// KnowledgeDimensionChecker compares an index's stored dimension against the
// knowledge item's vector dimension. A missing config row, a missing
// knowledge row, or knowledge owned by another organisation means the
// dimensions cannot match.
type KnowledgeDimensionChecker struct {
	db *pgxpool.Pool
}

func NewKnowledgeDimensionChecker(db *pgxpool.Pool) KnowledgeDimensionChecker {
	return KnowledgeDimensionChecker{db: db}
}

func (c KnowledgeDimensionChecker) ValidDimension(ctx context.Context, organisationID, indexID, knowledgeID uuid.UUID) (bool, error) {
	var valid bool
	err := c.db.QueryRow(ctx, `
		select vic.dimension > 0 and vic.dimension = k.vector_dimension
		from vector_index_configs vic, knowledges k
		where vic.index_id = $1 and k.id = $2 and k.organisation_id = $3
	`, indexID, knowledgeID, organisationID).Scan(&valid)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return valid, nil
}
