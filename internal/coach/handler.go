package coach

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/fitmate/backend/internal/auth"
	"github.com/fitmate/backend/internal/middleware"
	"github.com/fitmate/backend/internal/telemetry/metrics"
	"github.com/fitmate/backend/internal/telemetry/tracing"
	"github.com/fitmate/backend/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

type ChatRequest struct {
	Message string `json:"message"`
	Context string `json:"context"`
}

type HistoryResponse struct {
	Messages []ChatMessage `json:"messages"`
	Total    int           `json:"total"`
}

type DeleteHistoryResponse struct {
	Deleted int64 `json:"deleted"`
}

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service: service,
	}
}

func (handler *Handler) SetupRoutes(
	mainRouter *mux.Router,
	rateLimiter middleware.RequestRateLimiter,
	metricsManager *metrics.Manager,
	allowedChatsPerMin int,
) {
	chatRouter := mainRouter.PathPrefix("/coach/chat").Subrouter()
	chatRouter.HandleFunc("", handler.handleChat).Methods("POST", "OPTIONS").Name("coach-chat")
	chatRouter.Use(middleware.RateLimitPerUser(rateLimiter, "coach-chat", allowedChatsPerMin, metricsManager))

	mainRouter.HandleFunc("/coach/history", handler.handleHistory).
		Methods("GET").Name("coach-history")
	mainRouter.HandleFunc("/coach/history", handler.handleDeleteHistory).
		Methods("DELETE").Name("coach-history-delete")

	// moderation, guarded by the admin session check in the auth middleware
	mainRouter.HandleFunc("/admin/chat/{userID}", handler.handleAdminDeleteChat).
		Methods("DELETE").Name("admin-chat-delete")
}

func (handler *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.coach.chat")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var chatReq ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&chatReq); err != nil {
		log.Tracef("coach chat, unmarshal json params: %s", err)
		http.Error(w, "invalid chat message", http.StatusBadRequest)
		return
	}
	if chatReq.Message == "" {
		http.Error(w, "error, message empty", http.StatusBadRequest)
		return
	}

	reply, err := handler.service.Chat(ctx, userID, chatReq.Context, chatReq.Message)
	if err != nil {
		log.Errorf("coach chat for user %s: %s", userID, err)
		http.Error(w, "error, failed to process message", http.StatusInternalServerError)
		return
	}

	replyJson, err := json.Marshal(reply)
	if err != nil {
		log.Errorf("marshal coach reply error: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, replyJson, http.StatusOK)
}

func (handler *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.coach.history")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	limit := 0
	if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
		var err error
		limit, err = strconv.Atoi(limitParam)
		if err != nil || limit < 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
	}

	messages, err := handler.service.History(ctx, userID, limit)
	if err != nil {
		log.Errorf("coach history for user %s: %s", userID, err)
		http.Error(w, "error, failed to get chat history", http.StatusInternalServerError)
		return
	}

	historyJson, err := json.Marshal(HistoryResponse{
		Messages: messages,
		Total:    len(messages),
	})
	if err != nil {
		log.Errorf("marshal coach history error: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, historyJson, http.StatusOK)
}

func (handler *Handler) handleDeleteHistory(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.coach.deleteHistory")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	handler.deleteChatHistory(w, r, userID)
}

func (handler *Handler) handleAdminDeleteChat(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.coach.adminDeleteChat")
	defer span.End()

	vars := mux.Vars(r)
	userID := vars["userID"]
	if userID == "" {
		http.Error(w, "error, user id empty", http.StatusBadRequest)
		return
	}
	span.SetAttributes(attribute.String("user.id", userID))

	handler.deleteChatHistory(w, r, userID)
}

func (handler *Handler) deleteChatHistory(w http.ResponseWriter, r *http.Request, userID string) {
	deleted, err := handler.service.DeleteHistory(r.Context(), userID)
	if err != nil {
		log.Errorf("delete chat history for user %s: %s", userID, err)
		http.Error(w, "error, failed to delete chat history", http.StatusInternalServerError)
		return
	}

	deletedJson, err := json.Marshal(DeleteHistoryResponse{Deleted: deleted})
	if err != nil {
		log.Errorf("marshal delete chat history response error: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, deletedJson, http.StatusOK)
}
