package agent

import (
	"context"
	"fmt"

	"github.com/dungca200/rag-chatbot-sub000/internal/ai"
	"github.com/dungca200/rag-chatbot-sub000/internal/model"
	"github.com/dungca200/rag-chatbot-sub000/internal/pkg/logger"
	"github.com/dungca200/rag-chatbot-sub000/internal/stream"
	"github.com/dungca200/rag-chatbot-sub000/internal/vectorstore"
)

// State tracks where a turn is in its lifecycle. States only move forward;
// the conversational path skips validation, and Errored is terminal from
// anywhere.
type State string

const (
	StateStart      State = "start"
	StateClassified State = "classified"
	StateDispatched State = "dispatched"
	StateValidated  State = "validated"
	StateDone       State = "done"
	StateErrored    State = "errored"
)

// TurnError wraps a turn failure with the state it occurred in.
type TurnError struct {
	State State
	Err   error
}

func (e *TurnError) Error() string {
	return fmt.Sprintf("turn failed in state %s: %v", e.State, e.Err)
}

func (e *TurnError) Unwrap() error {
	return e.Err
}

// TurnRequest is one user turn ready for routing. History excludes the
// current query. PinnedDocumentKey narrows retrieval to one document;
// HasSessionDocuments tells the router whether the conversation carries
// session-only uploads.
type TurnRequest struct {
	UserID              uint
	ConversationID      uint
	Query               string
	History             []ai.ChatMessage
	PinnedDocumentKey   string
	HasSessionDocuments bool
}

// TurnResult is the finished assistant reply. Sources is empty on the
// conversational path, where Confidence is fixed at 1.0 because there is
// nothing to ground against.
type TurnResult struct {
	Intent     Intent
	State      State
	Content    string
	Sources    []model.Source
	Confidence float64
}

// Orchestrator routes a turn through classify, dispatch, and validate.
type Orchestrator struct {
	classifier   *Classifier
	retriever    *Retriever
	rag          *RAGAgent
	conversation *ConversationAgent
}

func NewOrchestrator(classifier *Classifier, retriever *Retriever, rag *RAGAgent, conversation *ConversationAgent) *Orchestrator {
	return &Orchestrator{
		classifier:   classifier,
		retriever:    retriever,
		rag:          rag,
		conversation: conversation,
	}
}

// RunTurn executes one turn, emitting token events through emit as the
// model streams. Retrieval failures degrade to the conversational path
// instead of killing the turn; generation failures are terminal and the
// caller must not persist any partial output.
func (o *Orchestrator) RunTurn(ctx context.Context, req TurnRequest, emit stream.Emitter) (*TurnResult, error) {
	state := StateStart
	advance := func(next State) {
		logger.Debugf("conversation %d turn state %s -> %s", req.ConversationID, state, next)
		state = next
	}

	intent := o.classifier.Classify(ctx, req.Query, req.PinnedDocumentKey != "")
	advance(StateClassified)

	onToken := func(token string) error {
		return emit(stream.Token(token))
	}

	if intent == IntentConversation {
		return o.runConversation(ctx, req, intent, advance, onToken)
	}

	passages, err := o.retriever.Retrieve(ctx, req.Query, o.resolveScope(req))
	if err != nil {
		// A dead embedding provider or vector store should not take chat
		// down with it.
		logger.Warnf("retrieval failed for conversation %d, degrading to conversational reply: %v", req.ConversationID, err)
		return o.runConversation(ctx, req, intent, advance, onToken)
	}
	advance(StateDispatched)

	content, sources, err := o.rag.Answer(ctx, req.Query, req.History, passages, onToken)
	if err != nil {
		turnErr := &TurnError{State: state, Err: err}
		advance(StateErrored)
		return &TurnResult{Intent: intent, State: state}, turnErr
	}

	confidence := GroundingConfidence(content, passages)
	advance(StateValidated)

	advance(StateDone)
	return &TurnResult{
		Intent:     intent,
		State:      state,
		Content:    content,
		Sources:    sources,
		Confidence: confidence,
	}, nil
}

func (o *Orchestrator) runConversation(ctx context.Context, req TurnRequest, intent Intent, advance func(State), onToken func(string) error) (*TurnResult, error) {
	advance(StateDispatched)
	content, err := o.conversation.Answer(ctx, req.Query, req.History, onToken)
	if err != nil {
		turnErr := &TurnError{State: StateDispatched, Err: fmt.Errorf("conversation turn failed: %w", err)}
		advance(StateErrored)
		return &TurnResult{Intent: intent, State: StateErrored}, turnErr
	}
	advance(StateDone)
	return &TurnResult{
		Intent:     intent,
		State:      StateDone,
		Content:    content,
		Sources:    []model.Source{},
		Confidence: 1.0,
	}, nil
}

// resolveScope picks the narrowest applicable retrieval scope: a pinned
// document beats the conversation's session uploads, which beat the
// permanent library.
func (o *Orchestrator) resolveScope(req TurnRequest) vectorstore.Scope {
	scope := vectorstore.Scope{UserID: req.UserID}
	switch {
	case req.PinnedDocumentKey != "":
		scope.ConversationID = req.ConversationID
		scope.DocumentKey = req.PinnedDocumentKey
	case req.HasSessionDocuments:
		scope.ConversationID = req.ConversationID
	}
	return scope
}
