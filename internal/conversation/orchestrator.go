package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"book-chat/internal/contextmgr"
	"book-chat/internal/llm"
	"book-chat/internal/logging"
	"book-chat/internal/store"
)

// Analytics event types recorded by the orchestrator.
const (
	eventUserMessage       = "user_message"
	eventAssistantResponse = "assistant_response"
	eventError             = "error"
)

// Orchestrator drives one chat request: it persists the user turn, streams
// the provider's answer to the client while accumulating it, and persists the
// result at the terminal transition.
type Orchestrator struct {
	store     store.Store
	builder   *ContextBuilder
	truncator contextmgr.Manager
	provider  llm.Provider
	guard     SystemPromptSource
	logger    logging.Logger
}

// NewOrchestrator wires together the store, context builder, truncation pass,
// provider and topic guard.
func NewOrchestrator(st store.Store, builder *ContextBuilder, truncator contextmgr.Manager, provider llm.Provider, guard SystemPromptSource, logger logging.Logger) *Orchestrator {
	return &Orchestrator{
		store:     st,
		builder:   builder,
		truncator: truncator,
		provider:  provider,
		guard:     guard,
		logger:    logger,
	}
}

// HandleChat runs the streaming pipeline for req, writing events to stream.
//
// A non-nil return means the request failed before any event was written, so
// the caller can still report a request-level error. Once streaming has
// begun, every failure is converted into a terminal Failure event and
// HandleChat returns nil.
func (o *Orchestrator) HandleChat(ctx context.Context, req ChatRequest, stream Stream) error {
	if strings.TrimSpace(req.Message) == "" {
		return errors.New("message must be provided")
	}
	if req.SessionID == "" {
		return errors.New("session id must be provided")
	}

	log := o.logger.With(logging.Field{Key: "session_id", Value: req.SessionID})

	// Assembly is a pure read over already-persisted turns, so it runs
	// before the new user turn is written; the just-submitted message is
	// never loaded back within the same request.
	messages, err := o.builder.Assemble(ctx, req.SessionID, req.Message, req.IncludeHistory)
	if err != nil {
		return err
	}
	messages = o.truncator.Truncate(messages)

	// The user turn must be durable before the provider is billed for a
	// call; a persistence failure here aborts the request outright.
	if _, err := o.store.AppendMessage(ctx, req.SessionID, llm.RoleUser, req.Message, map[string]any{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}); err != nil {
		return fmt.Errorf("persist user message: %w", err)
	}
	o.recordEvent(ctx, log, req.SessionID, eventUserMessage, map[string]any{
		"messageLength": utf8.RuneCountInString(req.Message),
		"hasHistory":    req.IncludeHistory,
	})

	chunks, err := o.provider.StreamChat(ctx, messages, o.guard.SystemPrompt())
	if err != nil {
		log.Error(fmt.Sprintf("provider stream call failed: %v", err))
		return err
	}

	o.forward(ctx, log, req.SessionID, chunks, stream)
	return nil
}

// forward pumps provider chunks to the client while accumulating the full
// answer, then performs exactly one terminal transition.
func (o *Orchestrator) forward(ctx context.Context, log logging.Logger, sessionID string, chunks <-chan llm.StreamChunk, stream Stream) {
	// Terminal persistence must not depend on the client connection staying
	// open, so it runs on a context that survives cancellation.
	persistCtx := context.WithoutCancel(ctx)

	var accumulator strings.Builder
	for chunk := range chunks {
		switch {
		case chunk.Err != nil:
			o.failStream(persistCtx, ctx, log, sessionID, chunk.Err, stream)
			return
		case chunk.Done:
			o.completeStream(persistCtx, ctx, log, sessionID, accumulator.String(), stream)
			return
		default:
			if err := stream.Send(ctx, Token(chunk.Delta)); err != nil {
				o.abandonStream(persistCtx, log, sessionID, accumulator.Len(), err)
				return
			}
			accumulator.WriteString(chunk.Delta)
		}
	}

	// The channel closed without a terminal chunk: the provider stopped
	// because the request context was cancelled mid-stream.
	o.abandonStream(persistCtx, log, sessionID, accumulator.Len(), ctx.Err())
}

// completeStream emits the terminal Complete event, then persists the
// accumulated assistant turn at most once. A persistence failure at this
// point is logged and never alters what the client already received.
func (o *Orchestrator) completeStream(persistCtx, ctx context.Context, log logging.Logger, sessionID, response string, stream Stream) {
	meta := CompletionMetadata{
		Model:          o.provider.Name(),
		ResponseLength: utf8.RuneCountInString(response),
	}
	if err := stream.Send(ctx, Complete(sessionID, meta)); err != nil {
		log.Warn(fmt.Sprintf("failed to deliver terminal event: %v", err))
	}

	if _, err := o.store.AppendMessage(persistCtx, sessionID, llm.RoleAssistant, response, map[string]any{
		"model":         meta.Model,
		"messageLength": meta.ResponseLength,
		"timestamp":     time.Now().UTC().Format(time.RFC3339),
	}); err != nil {
		log.Error(fmt.Sprintf("failed to persist assistant message: %v", err))
		return
	}
	o.recordEvent(persistCtx, log, sessionID, eventAssistantResponse, map[string]any{
		"responseLength": meta.ResponseLength,
		"model":          meta.Model,
	})
}

// failStream records the failure and emits the terminal Failure event. The
// partial assistant text is discarded: persisting truncated completions would
// silently change the durability contract.
func (o *Orchestrator) failStream(persistCtx, ctx context.Context, log logging.Logger, sessionID string, cause error, stream Stream) {
	log.Error(fmt.Sprintf("streaming failed: %v", cause))
	o.recordEvent(persistCtx, log, sessionID, eventError, map[string]any{
		"error": cause.Error(),
		"stage": "streaming",
	})
	if err := stream.Send(ctx, Failure(cause.Error())); err != nil {
		log.Warn(fmt.Sprintf("failed to deliver failure event: %v", err))
	}
}

// abandonStream handles the client disconnecting mid-stream: no further
// fragments are requested and the truncation is recorded for diagnosis.
func (o *Orchestrator) abandonStream(persistCtx context.Context, log logging.Logger, sessionID string, accumulated int, cause error) {
	if cause == nil {
		cause = errors.New("client closed connection")
	}
	log.Warn(fmt.Sprintf("stream abandoned after %d bytes: %v", accumulated, cause))
	o.recordEvent(persistCtx, log, sessionID, eventError, map[string]any{
		"error":           cause.Error(),
		"stage":           "streaming",
		"truncatedLength": accumulated,
	})
}

// recordEvent writes an analytics record; analytics are diagnostic, so a
// write failure is logged rather than propagated.
func (o *Orchestrator) recordEvent(ctx context.Context, log logging.Logger, sessionID, eventType string, data map[string]any) {
	if err := o.store.AppendAnalyticsEvent(ctx, sessionID, eventType, data); err != nil {
		log.Error(fmt.Sprintf("failed to record %s analytics event: %v", eventType, err))
	}
}
