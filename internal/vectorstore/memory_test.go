package vectorstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedEntries(names ...string) []Entry {
	entries := make([]Entry, 0, len(names))
	for i, name := range names {
		entries = append(entries, Entry{
			Ordinal: i,
			Content: name,
			Vector:  []float32{float32(i + 1), 1},
		})
	}
	return entries
}

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 0}, []float32{1, 0}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"empty", nil, []float32{1}, 0},
		{"length mismatch", []float32{1, 2}, []float32{1}, 0},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Cosine(tt.a, tt.b), 1e-9)
		})
	}
}

func TestMemoryStoreSearchRanking(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	scope := Scope{UserID: 1, ConversationID: 7}

	entries := []Entry{
		{Ordinal: 0, Content: "far", Vector: []float32{0, 1}},
		{Ordinal: 1, Content: "close", Vector: []float32{1, 0.1}},
		{Ordinal: 2, Content: "exact", Vector: []float32{1, 0}},
	}
	require.NoError(t, store.Upsert(ctx, scope, "doc-a", entries))

	results, err := store.Search(ctx, scope, []float32{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "exact", results[0].Content)
	assert.Equal(t, "close", results[1].Content)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestMemoryStoreTieBreaksByOrdinal(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	scope := Scope{UserID: 1, ConversationID: 3}

	entries := []Entry{
		{Ordinal: 2, Content: "third", Vector: []float32{1, 0}},
		{Ordinal: 0, Content: "first", Vector: []float32{1, 0}},
		{Ordinal: 1, Content: "second", Vector: []float32{1, 0}},
	}
	require.NoError(t, store.Upsert(ctx, scope, "doc", entries))

	results, err := store.Search(ctx, scope, []float32{1, 0}, 3)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, []int{0, 1, 2}, []int{results[0].Ordinal, results[1].Ordinal, results[2].Ordinal})
}

func TestMemoryStoreUpsertReplacesExisting(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	scope := Scope{UserID: 1, ConversationID: 2}

	require.NoError(t, store.Upsert(ctx, scope, "doc", seedEntries("a", "b", "c")))
	require.NoError(t, store.Upsert(ctx, scope, "doc", seedEntries("x")))

	results, err := store.Search(ctx, scope, []float32{1, 1}, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "x", results[0].Content)
}

func TestMemoryStoreScopeIsolation(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	userA := Scope{UserID: 1, ConversationID: 10}
	userB := Scope{UserID: 2, ConversationID: 10}
	require.NoError(t, store.Upsert(ctx, userA, "doc", seedEntries("alice data")))
	require.NoError(t, store.Upsert(ctx, userB, "doc", seedEntries("bob data")))

	results, err := store.Search(ctx, userA, []float32{1, 1}, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "alice data", results[0].Content)
}

func TestMemoryStoreConversationIsolation(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	library := Scope{UserID: 1}
	session := Scope{UserID: 1, ConversationID: 5}
	require.NoError(t, store.Upsert(ctx, library, "lib-doc", seedEntries("permanent")))
	require.NoError(t, store.Upsert(ctx, session, "sess-doc", seedEntries("session-only")))

	libResults, err := store.Search(ctx, library, []float32{1, 1}, 10)
	require.NoError(t, err)
	require.Len(t, libResults, 1)
	assert.Equal(t, "permanent", libResults[0].Content)

	sessResults, err := store.Search(ctx, session, []float32{1, 1}, 10)
	require.NoError(t, err)
	require.Len(t, sessResults, 1)
	assert.Equal(t, "session-only", sessResults[0].Content)
}

func TestMemoryStorePinnedDocument(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	library := Scope{UserID: 1}
	other := Scope{UserID: 1, ConversationID: 9}
	require.NoError(t, store.Upsert(ctx, library, "pinned", seedEntries("library copy")))
	require.NoError(t, store.Upsert(ctx, library, "unpinned", seedEntries("other doc")))
	require.NoError(t, store.Upsert(ctx, other, "pinned", seedEntries("foreign conversation")))

	pinScope := Scope{UserID: 1, ConversationID: 5, DocumentKey: "pinned"}
	results, err := store.Search(ctx, pinScope, []float32{1, 1}, 10)
	require.NoError(t, err)

	// Only the pinned document's library rows qualify: the other document
	// and the other conversation's copy stay invisible.
	require.Len(t, results, 1)
	assert.Equal(t, "library copy", results[0].Content)
}

func TestMemoryStoreDeleteMissingKeyIsNoop(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	scope := Scope{UserID: 1, ConversationID: 1}

	require.NoError(t, store.Delete(ctx, scope, "never-indexed"))
}

func TestMemoryStorePublishRenamesStaging(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	scope := Scope{UserID: 1, ConversationID: 1}

	require.NoError(t, store.Upsert(ctx, scope, "final", seedEntries("old version")))
	require.NoError(t, store.Upsert(ctx, scope, "staging-1", seedEntries("new version")))
	require.NoError(t, store.Publish(ctx, scope, "staging-1", "final"))

	pinScope := scope
	pinScope.DocumentKey = "final"
	results, err := store.Search(ctx, pinScope, []float32{1, 1}, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "new version", results[0].Content)
}

func TestMemoryStorePurgeConversation(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	library := Scope{UserID: 1}
	session := Scope{UserID: 1, ConversationID: 4}
	require.NoError(t, store.Upsert(ctx, library, "lib", seedEntries("keep")))
	require.NoError(t, store.Upsert(ctx, session, "tmp", seedEntries("purge")))

	require.NoError(t, store.PurgeConversation(ctx, 1, 4))

	sessResults, err := store.Search(ctx, session, []float32{1, 1}, 10)
	require.NoError(t, err)
	assert.Empty(t, sessResults)

	libResults, err := store.Search(ctx, library, []float32{1, 1}, 10)
	require.NoError(t, err)
	assert.Len(t, libResults, 1)
}

func TestMemoryStorePurgeZeroConversationKeepsLibrary(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	library := Scope{UserID: 1}
	require.NoError(t, store.Upsert(ctx, library, "lib", seedEntries("keep")))
	require.NoError(t, store.PurgeConversation(ctx, 1, 0))

	results, err := store.Search(ctx, library, []float32{1, 1}, 10)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}
