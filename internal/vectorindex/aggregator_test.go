package vectorindex

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
)

type memStore struct {
	dbs     []VectorDB
	indices map[uuid.UUID][]IndexCollection
	states  map[uuid.UUID]string
}

func (m *memStore) VectorDBsByOrganisation(_ context.Context, organisationID uuid.UUID) ([]VectorDB, error) {
	var out []VectorDB
	for _, v := range m.dbs {
		if v.OrganisationID == organisationID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m *memStore) IndexCollections(_ context.Context, vectorDBID uuid.UUID) ([]IndexCollection, error) {
	return m.indices[vectorDBID], nil
}

func (m *memStore) IndexState(_ context.Context, indexID uuid.UUID) (string, error) {
	return m.states[indexID], nil
}

type staticChecker struct {
	valid map[uuid.UUID]bool

	seenOrgs []uuid.UUID
}

func (c *staticChecker) ValidDimension(_ context.Context, organisationID, indexID, _ uuid.UUID) (bool, error) {
	c.seenOrgs = append(c.seenOrgs, organisationID)
	return c.valid[indexID], nil
}

func addDB(m *memStore, orgID uuid.UUID, dbType string, indexNames ...string) (VectorDB, []IndexCollection) {
	vdb := VectorDB{ID: uuid.New(), OrganisationID: orgID, Name: strings.ToLower(dbType), DBType: dbType}
	m.dbs = append(m.dbs, vdb)
	var indices []IndexCollection
	for _, name := range indexNames {
		idx := IndexCollection{ID: uuid.New(), VectorDBID: vdb.ID, Name: name}
		m.indices[vdb.ID] = append(m.indices[vdb.ID], idx)
		indices = append(indices, idx)
	}
	return vdb, indices
}

func newMemStore() *memStore {
	return &memStore{
		indices: map[uuid.UUID][]IndexCollection{},
		states:  map[uuid.UUID]string{},
	}
}

func TestListValidIndices_SinglePineconeActiveIndex(t *testing.T) {
	orgID := uuid.New()
	m := newMemStore()
	_, indices := addDB(m, orgID, "PINECONE", "knowledge-main")
	m.states[indices[0].ID] = "ACTIVE"
	check := &staticChecker{valid: map[uuid.UUID]bool{indices[0].ID: true}}

	out, err := ListValidIndices(context.Background(), m, check, orgID, uuid.New())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(out.Pinecone) != 1 || len(out.Qdrant) != 0 {
		t.Fatalf("expected 1 pinecone / 0 qdrant, got %d / %d", len(out.Pinecone), len(out.Qdrant))
	}
	s := out.Pinecone[0]
	if s.Name != "knowledge-main" || !s.IsValidDimension {
		t.Fatalf("unexpected summary: %+v", s)
	}
	if s.IsValidState == nil || !*s.IsValidState {
		t.Fatalf("expected is_valid_state=true, got %v", s.IsValidState)
	}
}

func TestListValidIndices_CustomStateOmitsField(t *testing.T) {
	orgID := uuid.New()
	m := newMemStore()
	_, indices := addDB(m, orgID, "QDRANT", "custom-idx")
	m.states[indices[0].ID] = StateCustom

	out, err := ListValidIndices(context.Background(), m, &staticChecker{}, orgID, uuid.New())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(out.Qdrant) != 1 {
		t.Fatalf("expected 1 qdrant summary, got %d", len(out.Qdrant))
	}
	if out.Qdrant[0].IsValidState != nil {
		t.Fatalf("CUSTOM index must omit is_valid_state, got %v", *out.Qdrant[0].IsValidState)
	}

	// Absent means absent on the wire too, not false.
	raw, err := json.Marshal(out.Qdrant[0])
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(raw), "is_valid_state") {
		t.Fatalf("serialized summary must not carry is_valid_state: %s", raw)
	}
}

func TestListValidIndices_MissingStateCountsAsReusable(t *testing.T) {
	orgID := uuid.New()
	m := newMemStore()
	addDB(m, orgID, "PINECONE", "no-config")

	out, err := ListValidIndices(context.Background(), m, &staticChecker{}, orgID, uuid.New())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if out.Pinecone[0].IsValidState == nil || !*out.Pinecone[0].IsValidState {
		t.Fatal("index without a config row must count as reusable")
	}
}

func TestListValidIndices_BinaryPartition(t *testing.T) {
	orgID := uuid.New()
	m := newMemStore()
	addDB(m, orgID, "PINECONE", "p1", "p2")
	addDB(m, orgID, "QDRANT", "q1")
	addDB(m, orgID, "WEAVIATE", "w1") // anything not PINECONE lands in the qdrant bucket

	out, err := ListValidIndices(context.Background(), m, &staticChecker{}, orgID, uuid.New())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(out.Pinecone) != 2 {
		t.Fatalf("expected 2 pinecone summaries, got %d", len(out.Pinecone))
	}
	if len(out.Qdrant) != 2 {
		t.Fatalf("expected 2 qdrant-bucket summaries, got %d", len(out.Qdrant))
	}
	if total := len(out.Pinecone) + len(out.Qdrant); total != 4 {
		t.Fatalf("every index must appear in exactly one bucket, got %d", total)
	}
}

func TestListValidIndices_OtherOrganisationInvisible(t *testing.T) {
	m := newMemStore()
	addDB(m, uuid.New(), "PINECONE", "foreign")

	out, err := ListValidIndices(context.Background(), m, &staticChecker{}, uuid.New(), uuid.New())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(out.Pinecone) != 0 || len(out.Qdrant) != 0 {
		t.Fatalf("foreign indices leaked: %+v", out)
	}
}

func TestListValidIndices_ScopesDimensionCheckToOrganisation(t *testing.T) {
	orgID := uuid.New()
	m := newMemStore()
	addDB(m, orgID, "PINECONE", "p1")
	addDB(m, orgID, "QDRANT", "q1")
	check := &staticChecker{}

	if _, err := ListValidIndices(context.Background(), m, check, orgID, uuid.New()); err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(check.seenOrgs) != 2 {
		t.Fatalf("expected the checker to run once per index, ran %d times", len(check.seenOrgs))
	}
	for _, got := range check.seenOrgs {
		if got != orgID {
			t.Fatalf("dimension check ran against organisation %s, want %s", got, orgID)
		}
	}
}

func TestListValidIndices_EmptyBucketsSerializeAsArrays(t *testing.T) {
	out, err := ListValidIndices(context.Background(), newMemStore(), &staticChecker{}, uuid.New(), uuid.New())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	raw, err := json.Marshal(out)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"pinecone":[],"qdrant":[]}`
	if string(raw) != want {
		t.Fatalf("expected %s, got %s", want, raw)
	}
}
