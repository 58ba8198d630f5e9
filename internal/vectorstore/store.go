// Package vectorstore persists passage vectors and serves scoped similarity
// search. Every operation takes an explicit Scope; there is no ambient
// tenant state anywhere in the retrieval path.
package vectorstore

import (
	"context"
	"math"
	"sort"
)

// Scope bounds which rows an operation can touch. UserID is always
// required. A zero ConversationID addresses the user's permanent library;
// a non-zero one addresses rows tied to that conversation only. DocumentKey
// pins retrieval to a single document (the product's focus mode) and is
// ignored by writes.
type Scope struct {
	UserID         uint
	ConversationID uint
	DocumentKey    string
}

// Entry is one passage to index. DocumentName is denormalized onto every
// row so search results can cite a source without a second lookup.
type Entry struct {
	Ordinal      int
	Content      string
	Marker       string
	DocumentName string
	Vector       []float32
}

// Result is a ranked passage returned by Search.
type Result struct {
	DocumentKey  string
	DocumentName string
	Ordinal      int
	Content      string
	Marker       string
	Score        float64
}

// Store is implemented by the MySQL-backed store and the in-memory store.
type Store interface {
	// Upsert replaces the live passage set for (scope, documentKey).
	// Calling it twice with the same inputs leaves one set of rows.
	Upsert(ctx context.Context, scope Scope, documentKey string, entries []Entry) error

	// Search returns up to k passages visible in scope, ranked by descending
	// cosine similarity; ties break toward the lower ordinal.
	Search(ctx context.Context, scope Scope, queryVec []float32, k int) ([]Result, error)

	// Delete removes all passages for documentKey within scope. Deleting a
	// key that was never indexed is a no-op, not an error.
	Delete(ctx context.Context, scope Scope, documentKey string) error

	// Publish atomically renames a staging key to its final key, replacing
	// any live set already under the final key.
	Publish(ctx context.Context, scope Scope, stagingKey, documentKey string) error

	// PurgeConversation removes every session-scoped passage of the
	// conversation. Used when a session ends.
	PurgeConversation(ctx context.Context, userID, conversationID uint) error
}

// Cosine returns the cosine similarity of two vectors, 0 when either is
// empty or lengths differ.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA <= 0 || normB <= 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// rankResults orders by descending score, then ascending ordinal, then
// document key, so equal-score results are stable across runs.
func rankResults(results []Result, k int) []Result {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if results[i].DocumentKey != results[j].DocumentKey {
			return results[i].DocumentKey < results[j].DocumentKey
		}
		return results[i].Ordinal < results[j].Ordinal
	})
	if k > 0 && k < len(results) {
		results = results[:k]
	}
	return results
}
