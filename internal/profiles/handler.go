package profiles

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/fitmate/backend/internal/auth"
	"github.com/fitmate/backend/internal/telemetry/metrics"
	"github.com/fitmate/backend/internal/telemetry/tracing"
	"github.com/fitmate/backend/pkg"
)

type profilesRepo interface {
	Create(ctx context.Context, profile UserProfile) (*UserProfile, error)
	Update(ctx context.Context, profile *UserProfile) error
	GetByUserID(ctx context.Context, userID string) (*UserProfile, error)
	Delete(ctx context.Context, userID string) error
}

// planCacheInvalidator drops cached plan responses after profile writes,
// so the next plan request is generated from fresh profile data.
type planCacheInvalidator interface {
	InvalidateUser(userID string)
}

type Handler struct {
	repo      profilesRepo
	planCache planCacheInvalidator
	metrics   *metrics.Manager
}

func NewHandler(
	repo profilesRepo,
	planCache planCacheInvalidator,
	metrics *metrics.Manager,
) *Handler {
	return &Handler{
		repo:      repo,
		planCache: planCache,
		metrics:   metrics,
	}
}

func (handler *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.profiles.create")
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

	var profile UserProfile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		log.Tracef("new profile, unmarshal json params: %s", err)
		http.Error(w, "add profile failed", http.StatusBadRequest)
		return
	}

	// the authenticated user is the only acceptable owner
	profile.UserID = userID

	if validationErr := profile.Validate(); validationErr != "" {
		http.Error(w, validationErr, http.StatusBadRequest)
		return
	}

	createdProfile, err := handler.repo.Create(ctx, profile)
	if err != nil {
		if errors.Is(err, ErrProfileExists) {
			http.Error(w, "profile already exists", http.StatusConflict)
			return
		}
		log.Errorf("failed to create profile for user %s: %s", userID, err)
		http.Error(w, "error, failed to create profile", http.StatusInternalServerError)
		return
	}

	handler.metrics.CounterProfilesCreated.Inc()
	handler.invalidatePlans(userID)

	profileJson, err := json.Marshal(createdProfile)
	if err != nil {
		log.Errorf("failed to marshal created profile: %s", err)
		http.Error(w, "error, failed to create profile", http.StatusInternalServerError)
		return
	}

	log.Debugf("new profile created for user %s: %d", userID, createdProfile.ID)
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, profileJson, http.StatusCreated)
}

func (handler *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.profiles.update")
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

	var profile UserProfile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		log.Errorf("update profile, unmarshal json params: %s", err)
		http.Error(w, "update profile failed", http.StatusBadRequest)
		return
	}

	profile.UserID = userID

	if validationErr := profile.Validate(); validationErr != "" {
		http.Error(w, validationErr, http.StatusBadRequest)
		return
	}

	if err := handler.repo.Update(ctx, &profile); err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			http.Error(w, "profile not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to update profile for user %s: %s", userID, err)
		http.Error(w, "error, failed to update profile", http.StatusInternalServerError)
		return
	}

	handler.invalidatePlans(userID)

	profileJson, err := json.Marshal(profile)
	if err != nil {
		log.Errorf("failed to marshal updated profile: %s", err)
		http.Error(w, "error, failed to update profile", http.StatusInternalServerError)
		return
	}

	log.Debugf("profile updated for user %s", userID)
	pkg.WriteJSONResponseOK(w, string(profileJson))
}

func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.profiles.get")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	profile, err := handler.repo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			http.Error(w, "profile not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to get profile for user %s: %s", userID, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	profileJson, err := json.Marshal(profile)
	if err != nil {
		log.Errorf("failed to marshal profile: %s", err)
		http.Error(w, "failed to marshal profile", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, profileJson, http.StatusOK)
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.profiles.delete")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	if err := handler.repo.Delete(ctx, userID); err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			http.Error(w, "profile not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to delete profile for user %s: %s", userID, err)
		http.Error(w, "error, profile not deleted", http.StatusInternalServerError)
		return
	}

	handler.invalidatePlans(userID)

	pkg.WriteJSONResponseOK(w, `{"deleted":true}`)
}

func (handler *Handler) invalidatePlans(userID string) {
	if handler.planCache != nil {
		handler.planCache.InvalidateUser(userID)
	}
}
