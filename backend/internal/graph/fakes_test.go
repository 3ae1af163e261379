package graph

import (
	"context"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"mindweave/backend/internal/store"
)

// ============================================================================
// Test Fakes
// ============================================================================

type sessionCall struct {
	cypher string
	params map[string]interface{}
}

// fakeSession records every statement and replays canned records per call
type fakeSession struct {
	calls   []sessionCall
	results [][]*neo4j.Record
	closed  int
}

func (f *fakeSession) Run(_ context.Context, cypher string, params map[string]interface{}) ([]*neo4j.Record, error) {
	f.calls = append(f.calls, sessionCall{cypher: cypher, params: params})
	idx := len(f.calls) - 1
	if idx < len(f.results) {
		return f.results[idx], nil
	}
	return nil, nil
}

func (f *fakeSession) Close(_ context.Context) error {
	f.closed++
	return nil
}

func (f *fakeSession) queryContaining(fragment string) *sessionCall {
	for i := range f.calls {
		if strings.Contains(f.calls[i].cypher, fragment) {
			return &f.calls[i]
		}
	}
	return nil
}

// newFakeRepository wires a repository to a fake session and source
func newFakeRepository(source ContentSource, session *fakeSession) *Repository {
	repo := NewRepository(nil, source, DefaultOptions())
	repo.sessions = func(_ context.Context, _ neo4j.AccessMode) graphSession {
		return session
	}
	return repo
}

func record(keys []string, values []interface{}) *neo4j.Record {
	return &neo4j.Record{Keys: keys, Values: values}
}

// fakeSource is an in-memory ContentSource
type fakeSource struct {
	content map[string]*store.Content
	items   []store.Content
	similar map[string][]store.Similarity // nil entry = no embedding
	pairs   []store.PairSimilarity
	err     error
}

func (f *fakeSource) GetContent(_ context.Context, id string) (*store.Content, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.content[id], nil
}

func (f *fakeSource) ListContent(_ context.Context, _ string) ([]store.Content, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.items, nil
}

func (f *fakeSource) SimilarContent(_ context.Context, contentID, _ string, _ float64, _ int) ([]store.Similarity, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.similar[contentID], nil
}

func (f *fakeSource) PairSimilarities(_ context.Context, _ string, _ float64, _ int) ([]store.PairSimilarity, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.pairs, nil
}
