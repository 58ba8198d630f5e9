package vectorstore

import (
	"context"
	"sync"
)

type memoryRow struct {
	userID         uint
	conversationID uint
	documentKey    string
	entry          Entry
}

// MemoryStore is a brute-force in-memory Store. It backs tests and
// short-lived single-process deployments; the semantics are identical to
// the MySQL store.
type MemoryStore struct {
	mu   sync.RWMutex
	rows []memoryRow
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Upsert(_ context.Context, scope Scope, documentKey string, entries []Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.removeLocked(scope.UserID, scope.ConversationID, documentKey)
	for _, e := range entries {
		s.rows = append(s.rows, memoryRow{
			userID:         scope.UserID,
			conversationID: scope.ConversationID,
			documentKey:    documentKey,
			entry:          e,
		})
	}
	return nil
}

func (s *MemoryStore) Search(_ context.Context, scope Scope, queryVec []float32, k int) ([]Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []Result
	for _, row := range s.rows {
		if !visible(row, scope) {
			continue
		}
		results = append(results, Result{
			DocumentKey:  row.documentKey,
			DocumentName: row.entry.DocumentName,
			Ordinal:      row.entry.Ordinal,
			Content:      row.entry.Content,
			Marker:       row.entry.Marker,
			Score:        Cosine(queryVec, row.entry.Vector),
		})
	}
	return rankResults(results, k), nil
}

func (s *MemoryStore) Delete(_ context.Context, scope Scope, documentKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(scope.UserID, scope.ConversationID, documentKey)
	return nil
}

func (s *MemoryStore) Publish(_ context.Context, scope Scope, stagingKey, documentKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.removeLocked(scope.UserID, scope.ConversationID, documentKey)
	for i := range s.rows {
		if s.rows[i].userID == scope.UserID &&
			s.rows[i].conversationID == scope.ConversationID &&
			s.rows[i].documentKey == stagingKey {
			s.rows[i].documentKey = documentKey
		}
	}
	return nil
}

func (s *MemoryStore) PurgeConversation(_ context.Context, userID, conversationID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.rows[:0]
	for _, row := range s.rows {
		if row.userID == userID && row.conversationID == conversationID && conversationID != 0 {
			continue
		}
		kept = append(kept, row)
	}
	s.rows = kept
	return nil
}

func (s *MemoryStore) removeLocked(userID, conversationID uint, documentKey string) {
	kept := s.rows[:0]
	for _, row := range s.rows {
		if row.userID == userID && row.conversationID == conversationID && row.documentKey == documentKey {
			continue
		}
		kept = append(kept, row)
	}
	s.rows = kept
}

// visible applies the scope rules: a pinned document key matches that
// document in either the permanent library or the scope's conversation;
// otherwise a zero ConversationID sees only permanent rows and a non-zero
// one only that conversation's rows. Rows of other users never match.
func visible(row memoryRow, scope Scope) bool {
	if row.userID != scope.UserID {
		return false
	}
	if scope.DocumentKey != "" {
		if row.documentKey != scope.DocumentKey {
			return false
		}
		return row.conversationID == 0 || row.conversationID == scope.ConversationID
	}
	return row.conversationID == scope.ConversationID
}
