package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dungca200/rag-chatbot-sub000/internal/stream"
	"github.com/dungca200/rag-chatbot-sub000/internal/vectorstore"
)

type eventCollector struct {
	events []stream.Event
}

func (c *eventCollector) emit(e stream.Event) error {
	c.events = append(c.events, e)
	return nil
}

func (c *eventCollector) tokenText() string {
	var out string
	for _, e := range c.events {
		if e.Type == stream.EventToken {
			out += e.Data.(stream.TokenPayload).Content
		}
	}
	return out
}

func newTestOrchestrator(classifierModel, answerModel *fakeModel, embedder *fakeEmbedder, store vectorstore.Store) *Orchestrator {
	return NewOrchestrator(
		NewClassifier(classifierModel),
		NewRetriever(embedder, store, 4),
		NewRAGAgent(answerModel),
		NewConversationAgent(answerModel),
	)
}

func TestRunTurnConversationPath(t *testing.T) {
	answerModel := &fakeModel{reply: "hello to you too"}
	orch := newTestOrchestrator(&fakeModel{reply: "conversation"}, answerModel, &fakeEmbedder{}, vectorstore.NewMemoryStore())

	collector := &eventCollector{}
	result, err := orch.RunTurn(context.Background(), TurnRequest{
		UserID: 1, ConversationID: 2, Query: "hi",
	}, collector.emit)
	require.NoError(t, err)

	assert.Equal(t, IntentConversation, result.Intent)
	assert.Equal(t, StateDone, result.State)
	assert.Equal(t, "hello to you too", result.Content)
	assert.Empty(t, result.Sources)
	assert.Equal(t, 1.0, result.Confidence)
	assert.Equal(t, "hello to you too", collector.tokenText())
}

func TestRunTurnRetrievalPath(t *testing.T) {
	ctx := context.Background()
	store := vectorstore.NewMemoryStore()
	scope := vectorstore.Scope{UserID: 1, ConversationID: 2}
	require.NoError(t, store.Upsert(ctx, scope, "doc", []vectorstore.Entry{
		{Ordinal: 0, Content: "the warranty lasts two years", Marker: "page 3", DocumentName: "manual.pdf", Vector: []float32{1, 0}},
	}))

	answerModel := &fakeModel{reply: "the warranty lasts two years"}
	orch := newTestOrchestrator(&fakeModel{reply: "retrieval"}, answerModel, &fakeEmbedder{vector: []float32{1, 0}}, store)

	collector := &eventCollector{}
	result, err := orch.RunTurn(ctx, TurnRequest{
		UserID: 1, ConversationID: 2, Query: "how long is the warranty?",
		HasSessionDocuments: true,
	}, collector.emit)
	require.NoError(t, err)

	assert.Equal(t, IntentRetrieval, result.Intent)
	assert.Equal(t, StateDone, result.State)
	require.Len(t, result.Sources, 1)
	assert.Equal(t, "manual.pdf", result.Sources[0].DocumentName)
	assert.Equal(t, "page 3", result.Sources[0].Marker)
	assert.Greater(t, result.Confidence, 0.0)
	assert.LessOrEqual(t, result.Confidence, 1.0)
}

func TestRunTurnRetrievalWithoutSessionDocsUsesLibrary(t *testing.T) {
	ctx := context.Background()
	store := vectorstore.NewMemoryStore()
	library := vectorstore.Scope{UserID: 1}
	require.NoError(t, store.Upsert(ctx, library, "lib-doc", []vectorstore.Entry{
		{Ordinal: 0, Content: "library knowledge", DocumentName: "kb.txt", Vector: []float32{1, 0}},
	}))

	orch := newTestOrchestrator(&fakeModel{reply: "retrieval"}, &fakeModel{reply: "library knowledge"}, &fakeEmbedder{vector: []float32{1, 0}}, store)

	collector := &eventCollector{}
	result, err := orch.RunTurn(ctx, TurnRequest{
		UserID: 1, ConversationID: 2, Query: "what do we know?",
	}, collector.emit)
	require.NoError(t, err)

	require.Len(t, result.Sources, 1)
	assert.Equal(t, "kb.txt", result.Sources[0].DocumentName)
}

func TestRunTurnDegradesOnRetrievalOutage(t *testing.T) {
	answerModel := &fakeModel{reply: "answering from general knowledge"}
	embedder := &fakeEmbedder{failTimes: 100, retryable: false}
	orch := newTestOrchestrator(&fakeModel{reply: "retrieval"}, answerModel, embedder, vectorstore.NewMemoryStore())

	collector := &eventCollector{}
	result, err := orch.RunTurn(context.Background(), TurnRequest{
		UserID: 1, ConversationID: 2, Query: "what does the report say?",
	}, collector.emit)
	require.NoError(t, err)

	assert.Equal(t, StateDone, result.State)
	assert.Equal(t, "answering from general knowledge", result.Content)
	assert.Empty(t, result.Sources)
}

func TestRunTurnNoPassagesYieldsEmptySources(t *testing.T) {
	orch := newTestOrchestrator(&fakeModel{reply: "retrieval"}, &fakeModel{reply: "I do not have that information."}, &fakeEmbedder{vector: []float32{1, 0}}, vectorstore.NewMemoryStore())

	collector := &eventCollector{}
	result, err := orch.RunTurn(context.Background(), TurnRequest{
		UserID: 1, ConversationID: 2, Query: "anything indexed?",
	}, collector.emit)
	require.NoError(t, err)

	assert.Empty(t, result.Sources)
	assert.Equal(t, 0.0, result.Confidence)
}

func TestRunTurnGenerationFailureIsTerminal(t *testing.T) {
	answerModel := &fakeModel{err: errors.New("model crashed")}
	orch := newTestOrchestrator(&fakeModel{reply: "conversation"}, answerModel, &fakeEmbedder{}, vectorstore.NewMemoryStore())

	collector := &eventCollector{}
	result, err := orch.RunTurn(context.Background(), TurnRequest{
		UserID: 1, ConversationID: 2, Query: "hi",
	}, collector.emit)

	require.Error(t, err)
	assert.Equal(t, StateErrored, result.State)
	assert.Empty(t, result.Content)

	var turnErr *TurnError
	require.ErrorAs(t, err, &turnErr)
	assert.Equal(t, StateDispatched, turnErr.State)
}

func TestRunTurnRetrievalGenerationFailureReportsState(t *testing.T) {
	ctx := context.Background()
	store := vectorstore.NewMemoryStore()
	scope := vectorstore.Scope{UserID: 1, ConversationID: 2}
	require.NoError(t, store.Upsert(ctx, scope, "doc", []vectorstore.Entry{
		{Ordinal: 0, Content: "indexed content", DocumentName: "doc.txt", Vector: []float32{1, 0}},
	}))

	answerModel := &fakeModel{err: errors.New("model crashed")}
	orch := newTestOrchestrator(&fakeModel{reply: "retrieval"}, answerModel, &fakeEmbedder{vector: []float32{1, 0}}, store)

	collector := &eventCollector{}
	result, err := orch.RunTurn(ctx, TurnRequest{
		UserID: 1, ConversationID: 2, Query: "what is indexed?",
		HasSessionDocuments: true,
	}, collector.emit)

	require.Error(t, err)
	assert.Equal(t, StateErrored, result.State)

	var turnErr *TurnError
	require.ErrorAs(t, err, &turnErr)
	assert.Equal(t, StateDispatched, turnErr.State)
}

func TestResolveScopePrecedence(t *testing.T) {
	orch := &Orchestrator{}

	pinned := orch.resolveScope(TurnRequest{
		UserID: 1, ConversationID: 5, PinnedDocumentKey: "abc", HasSessionDocuments: true,
	})
	assert.Equal(t, vectorstore.Scope{UserID: 1, ConversationID: 5, DocumentKey: "abc"}, pinned)

	session := orch.resolveScope(TurnRequest{
		UserID: 1, ConversationID: 5, HasSessionDocuments: true,
	})
	assert.Equal(t, vectorstore.Scope{UserID: 1, ConversationID: 5}, session)

	library := orch.resolveScope(TurnRequest{
		UserID: 1, ConversationID: 5,
	})
	assert.Equal(t, vectorstore.Scope{UserID: 1}, library)
}
