package plans

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/fitmate/backend/internal/auth"
	"github.com/fitmate/backend/internal/profiles"
	"github.com/fitmate/backend/internal/telemetry/metrics"
	"github.com/fitmate/backend/internal/telemetry/tracing"
	"github.com/fitmate/backend/pkg"
)

type profileGetter interface {
	GetByUserID(ctx context.Context, userID string) (*profiles.UserProfile, error)
}

type Handler struct {
	profiles profileGetter
	cache    *Cache
	metrics  *metrics.Manager
}

func NewHandler(
	profiles profileGetter,
	cache *Cache,
	metrics *metrics.Manager,
) *Handler {
	return &Handler{
		profiles: profiles,
		cache:    cache,
		metrics:  metrics,
	}
}

func (handler *Handler) HandleWorkoutPlan(w http.ResponseWriter, r *http.Request) {
	handler.handlePlan(w, r, KindWorkout)
}

func (handler *Handler) HandleDietPlan(w http.ResponseWriter, r *http.Request) {
	handler.handlePlan(w, r, KindDiet)
}

func (handler *Handler) handlePlan(w http.ResponseWriter, r *http.Request, kind string) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.plans."+kind)
	defer span.End()
	span.SetAttributes(attribute.String("plan.kind", kind))

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	if cachedPlan, found := handler.cache.Get(kind, userID); found {
		log.Tracef("found %s plan for user %s in cache", kind, userID)
		pkg.WriteResponseBytes(w, pkg.ContentType.JSON, cachedPlan, http.StatusOK)
		return
	}

	profile, err := handler.profiles.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, profiles.ErrProfileNotFound) {
			http.Error(w, "profile not found, complete onboarding first", http.StatusNotFound)
			return
		}
		log.Errorf("failed to get profile for %s plan, user %s: %s", kind, userID, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	var plan any
	switch kind {
	case KindWorkout:
		plan = GenerateWorkoutPlan(*profile)
	case KindDiet:
		plan = GenerateDietPlan(*profile)
	}

	planJson, err := json.Marshal(plan)
	if err != nil {
		log.Errorf("failed to marshal %s plan for user %s: %s", kind, userID, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	handler.cache.Set(kind, userID, planJson)
	handler.metrics.CounterPlansGenerated.With(prometheus.Labels{"kind": kind}).Inc()

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, planJson, http.StatusOK)
}
