// Package server exposes the chat pipeline over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"book-chat/internal/conversation"
	"book-chat/internal/llm"
	"book-chat/internal/logging"
	"book-chat/internal/session"
	"book-chat/internal/store"
)

const maxTranslateLength = 1000

// Handler serves the HTTP API.
type Handler struct {
	orchestrator *conversation.Orchestrator
	resolver     *session.Resolver
	store        store.Store
	provider     llm.Provider
	logger       logging.Logger
	allowOrigin  string
}

// New constructs the API handler.
func New(orchestrator *conversation.Orchestrator, resolver *session.Resolver, st store.Store, provider llm.Provider, logger logging.Logger, allowOrigin string) *Handler {
	return &Handler{
		orchestrator: orchestrator,
		resolver:     resolver,
		store:        st,
		provider:     provider,
		logger:       logger,
		allowOrigin:  allowOrigin,
	}
}

// Routes returns the routed HTTP handler with CORS applied.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/chat", h.handleChat)
	mux.HandleFunc("GET /api/history/{sessionId}", h.handleHistory)
	mux.HandleFunc("GET /api/analytics/{sessionId}", h.handleAnalytics)
	mux.HandleFunc("POST /api/translate", h.handleTranslate)
	mux.HandleFunc("GET /api/health", h.handleHealth)
	return h.cors(mux)
}

func (h *Handler) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.allowOrigin != "" {
			w.Header().Set("Access-Control-Allow-Origin", h.allowOrigin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type chatRequest struct {
	Message        string `json:"message"`
	SessionID      string `json:"sessionId"`
	IncludeHistory *bool  `json:"includeHistory"`
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		h.writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	// Malformed session ids never reach the resolver.
	if req.SessionID != "" && !session.IsValidID(req.SessionID) {
		h.writeError(w, http.StatusBadRequest, "invalid session id format")
		return
	}
	includeHistory := true
	if req.IncludeHistory != nil {
		includeHistory = *req.IncludeHistory
	}

	ctx := r.Context()
	sess, err := h.resolver.Resolve(ctx, req.SessionID)
	if err != nil {
		h.logger.Error(fmt.Sprintf("resolve session: %v", err))
		h.writeError(w, http.StatusInternalServerError, "failed to resolve session")
		return
	}

	stream := newNDJSONStream(w)
	err = h.orchestrator.HandleChat(ctx, conversation.ChatRequest{
		SessionID:      sess.ID,
		Message:        req.Message,
		IncludeHistory: includeHistory,
	}, stream)
	if err != nil && !stream.Started() {
		h.logger.Error(fmt.Sprintf("chat request failed: %v", err))
		h.writeError(w, requestErrorStatus(err), err.Error())
	}
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("sessionId")
	if !session.IsValidID(sessionID) {
		h.writeError(w, http.StatusBadRequest, "invalid session id format")
		return
	}

	ctx := r.Context()
	sess, err := h.store.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			h.writeError(w, http.StatusNotFound, "session not found")
			return
		}
		h.logger.Error(fmt.Sprintf("get session: %v", err))
		h.writeError(w, http.StatusInternalServerError, "failed to load session")
		return
	}

	messages, err := h.store.ListMessages(ctx, sessionID, 0)
	if err != nil {
		h.logger.Error(fmt.Sprintf("list messages: %v", err))
		h.writeError(w, http.StatusInternalServerError, "failed to load history")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"sessionId": sessionID,
		"session": map[string]any{
			"createdAt":  sess.CreatedAt,
			"lastActive": sess.LastActive,
		},
		"messages":      messages,
		"totalMessages": len(messages),
	})
}

func (h *Handler) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("sessionId")
	if !session.IsValidID(sessionID) {
		h.writeError(w, http.StatusBadRequest, "invalid session id format")
		return
	}

	ctx := r.Context()
	sess, err := h.store.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			h.writeError(w, http.StatusNotFound, "session not found")
			return
		}
		h.logger.Error(fmt.Sprintf("get session: %v", err))
		h.writeError(w, http.StatusInternalServerError, "failed to load session")
		return
	}

	events, err := h.store.ListAnalyticsEvents(ctx, sessionID)
	if err != nil {
		h.logger.Error(fmt.Sprintf("list analytics events: %v", err))
		h.writeError(w, http.StatusInternalServerError, "failed to load analytics")
		return
	}
	stats, err := h.store.SessionStats(ctx, sessionID)
	if err != nil {
		h.logger.Error(fmt.Sprintf("session stats: %v", err))
		h.writeError(w, http.StatusInternalServerError, "failed to load analytics")
		return
	}
	messages, err := h.store.ListMessages(ctx, sessionID, 0)
	if err != nil {
		h.logger.Error(fmt.Sprintf("list messages: %v", err))
		h.writeError(w, http.StatusInternalServerError, "failed to load analytics")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"sessionId": sessionID,
		"events":    events,
		"engagement": map[string]any{
			"totalMessages":            stats.TotalMessages,
			"userMessages":             stats.MessagesByRole[llm.RoleUser],
			"assistantMessages":        stats.MessagesByRole[llm.RoleAssistant],
			"averageUserMessageLength": averageUserMessageLength(messages),
			"sessionDurationSeconds":   int(sess.LastActive.Sub(sess.CreatedAt).Seconds()),
		},
	})
}

type translateRequest struct {
	Text           string `json:"text"`
	TargetLanguage string `json:"targetLanguage"`
}

func (h *Handler) handleTranslate(w http.ResponseWriter, r *http.Request) {
	var req translateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		h.writeError(w, http.StatusBadRequest, "text is required")
		return
	}
	if len(req.Text) > maxTranslateLength {
		h.writeError(w, http.StatusBadRequest, fmt.Sprintf("text too long (max %d characters)", maxTranslateLength))
		return
	}
	target := req.TargetLanguage
	if target == "" {
		target = "urdu"
	}

	prompt := fmt.Sprintf(`Translate the following English text to %s.
Provide ONLY the %s translation, without any explanations or additional text.
Use proper %s script and grammar.

Text to translate: %q

%s translation:`, target, target, target, req.Text, target)

	translation, err := h.provider.Chat(r.Context(), []llm.ChatMessage{{Role: llm.RoleUser, Content: prompt}}, "")
	if err != nil {
		h.logger.Error(fmt.Sprintf("translate: %v", err))
		h.writeError(w, requestErrorStatus(err), "translation failed")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"success":        true,
		"translation":    strings.TrimSpace(translation),
		"originalText":   req.Text,
		"targetLanguage": target,
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"provider": h.provider.Name(),
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error(fmt.Sprintf("encode response: %v", err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]any{
		"error":     message,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func averageUserMessageLength(messages []store.Message) int {
	total, count := 0, 0
	for _, msg := range messages {
		if msg.Role != llm.RoleUser {
			continue
		}
		total += utf8.RuneCountInString(msg.Content)
		count++
	}
	if count == 0 {
		return 0
	}
	return total / count
}

// requestErrorStatus maps upstream failure classes onto response codes for
// errors raised before any stream bytes were written.
func requestErrorStatus(err error) int {
	switch {
	case errors.Is(err, llm.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, llm.ErrModelUnavailable):
		return http.StatusBadGateway
	case llm.IsConfigError(err):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
