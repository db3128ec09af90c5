// Package vectorindex enumerates an organisation's vector-store indices and
// annotates each with reuse-validity signals for the knowledge marketplace.
package vectorindex

import (
	"context"

	"github.com/google/uuid"
)

const (
	// StateCustom marks a manually configured index that is excluded from
	// default reuse.
	StateCustom = "CUSTOM"

	DBTypePinecone = "PINECONE"
)

type VectorDB struct {
	ID             uuid.UUID
	OrganisationID uuid.UUID
	Name           string
	DBType         string
}

type IndexCollection struct {
	ID         uuid.UUID
	VectorDBID uuid.UUID
	Name       string
}

type Store interface {
	VectorDBsByOrganisation(ctx context.Context, organisationID uuid.UUID) ([]VectorDB, error)
	IndexCollections(ctx context.Context, vectorDBID uuid.UUID) ([]IndexCollection, error)
	// IndexState returns the stored index state, or "" when the index has no
	// config row. An unknown state counts as reusable.
	IndexState(ctx context.Context, indexID uuid.UUID) (string, error)
}

// DimensionChecker decides whether an index's vector dimensionality matches a
// knowledge item. The organisation is part of the check: knowledge owned by
// another organisation never matches.
type DimensionChecker interface {
	ValidDimension(ctx context.Context, organisationID, indexID, knowledgeID uuid.UUID) (bool, error)
}

type IndexSummary struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	IsValidDimension bool   `json:"is_valid_dimension"`
	// IsValidState is set (to true) only when the index state is not CUSTOM;
	// for CUSTOM indices the field is absent, never false. Callers distinguish
	// absent from false.
	IsValidState *bool `json:"is_valid_state,omitempty"`
}

type ValidIndices struct {
	Pinecone []IndexSummary `json:"pinecone"`
	Qdrant   []IndexSummary `json:"qdrant"`
}

// ListValidIndices walks every vector DB owned by the organisation and every
// index within it, in enumeration order. Output is a binary partition: PINECONE
// indices land in the pinecone bucket, everything else falls into qdrant.
func ListValidIndices(ctx context.Context, s Store, check DimensionChecker, organisationID, knowledgeID uuid.UUID) (ValidIndices, error) {
	out := ValidIndices{
		Pinecone: []IndexSummary{},
		Qdrant:   []IndexSummary{},
	}

	dbs, err := s.VectorDBsByOrganisation(ctx, organisationID)
	if err != nil {
		return ValidIndices{}, err
	}

	for _, vdb := range dbs {
		indices, err := s.IndexCollections(ctx, vdb.ID)
		if err != nil {
			return ValidIndices{}, err
		}
		for _, index := range indices {
			summary := IndexSummary{
				ID:   index.ID.String(),
				Name: index.Name,
			}

			validDim, err := check.ValidDimension(ctx, organisationID, index.ID, knowledgeID)
			if err != nil {
				return ValidIndices{}, err
			}
			summary.IsValidDimension = validDim

			state, err := s.IndexState(ctx, index.ID)
			if err != nil {
				return ValidIndices{}, err
			}
			if state != StateCustom {
				valid := true
				summary.IsValidState = &valid
			}

			if vdb.DBType == DBTypePinecone {
				out.Pinecone = append(out.Pinecone, summary)
			} else {
				out.Qdrant = append(out.Qdrant, summary)
			}
		}
	}

	return out, nil
}
