package onboarding

import (
	"encoding/json"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/fitmate/backend/internal/auth"
	"github.com/fitmate/backend/internal/telemetry/tracing"
	"github.com/fitmate/backend/pkg"
)

type Handler struct {
	controller *Controller
}

func NewHandler(controller *Controller) *Handler {
	return &Handler{
		controller: controller,
	}
}

type MessageRequest struct {
	Message string `json:"message"`
}

func (handler *Handler) HandleState(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.onboarding.state")
	defer span.End()

	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	handler.writeState(w, handler.controller.State(userID))
}

func (handler *Handler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.onboarding.message")
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

	var messageReq MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&messageReq); err != nil {
		log.Tracef("onboarding message, unmarshal json params: %s", err)
		http.Error(w, "invalid message", http.StatusBadRequest)
		return
	}
	if messageReq.Message == "" {
		http.Error(w, "error, message empty", http.StatusBadRequest)
		return
	}

	state, err := handler.controller.HandleMessage(ctx, userID, messageReq.Message)
	if err != nil {
		if errors.Is(err, ErrWrongPhase) {
			http.Error(w, "greeting phase is over, submit answers instead", http.StatusConflict)
			return
		}
		log.Errorf("onboarding message for user %s: %s", userID, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	handler.writeState(w, state)
}

func (handler *Handler) HandleAnswer(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.onboarding.answer")
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

	var submission Submission
	if err := json.NewDecoder(r.Body).Decode(&submission); err != nil {
		log.Tracef("onboarding answer, unmarshal json params: %s", err)
		http.Error(w, "invalid answer", http.StatusBadRequest)
		return
	}

	state, validationMsg, err := handler.controller.SubmitAnswer(ctx, userID, submission)
	if err != nil {
		if errors.Is(err, ErrWrongPhase) {
			http.Error(w, "no active step to answer", http.StatusConflict)
			return
		}
		log.Errorf("onboarding answer for user %s: %s", userID, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if validationMsg != "" {
		http.Error(w, validationMsg, http.StatusBadRequest)
		return
	}

	handler.writeState(w, state)
}

func (handler *Handler) HandleComplete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.onboarding.complete")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	state, err := handler.controller.Complete(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrWrongPhase) {
			http.Error(w, "nothing to complete", http.StatusConflict)
			return
		}
		log.Errorf("onboarding complete for user %s: %s", userID, err)
		http.Error(w, "error, failed to save profile", http.StatusInternalServerError)
		return
	}

	handler.writeState(w, state)
}

func (handler *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.onboarding.reset")
	defer span.End()

	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	handler.writeState(w, handler.controller.Reset(userID))
}

func (handler *Handler) writeState(w http.ResponseWriter, state StateView) {
	stateJson, err := json.Marshal(state)
	if err != nil {
		log.Errorf("failed to marshal onboarding state: %s", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, stateJson, http.StatusOK)
}
