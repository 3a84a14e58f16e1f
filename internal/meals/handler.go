package meals

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/fitmate/backend/internal/auth"
	"github.com/fitmate/backend/internal/telemetry/metrics"
	"github.com/fitmate/backend/internal/telemetry/tracing"
	"github.com/fitmate/backend/pkg"
)

type mealsRepo interface {
	Add(ctx context.Context, meal Meal) (*Meal, error)
	Get(ctx context.Context, id int, userID string) (*Meal, error)
	List(ctx context.Context, params ListParams) (_ []Meal, total int, err error)
	Update(ctx context.Context, meal *Meal) error
	Delete(ctx context.Context, id int, userID string) error
	Count(ctx context.Context, params MealParams) (int, error)
	GetDailyTotals(ctx context.Context, userID string, day time.Time) (*DailyTotals, error)
}

type DeleteMealResponse struct {
	DeletedID int `json:"deletedId"`
}

type UpdateMealResponse struct {
	UpdatedID int `json:"updatedId"`
}

type ListResponse struct {
	Meals []Meal `json:"meals"`
	Total int    `json:"total"`
}

type Handler struct {
	repo    mealsRepo
	metrics *metrics.Manager
}

func NewHandler(repo mealsRepo, metrics *metrics.Manager) *Handler {
	return &Handler{
		repo:    repo,
		metrics: metrics,
	}
}

func (handler *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.meals.new")
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

	var meal Meal
	if err := json.NewDecoder(r.Body).Decode(&meal); err != nil {
		log.Tracef("new meal, unmarshal json params: %s", err)
		http.Error(w, "add meal failed", http.StatusBadRequest)
		return
	}

	if meal.Description == "" {
		http.Error(w, "error, meal description empty", http.StatusBadRequest)
		return
	}
	if !ValidSlot(meal.Slot) {
		http.Error(w, "error, invalid meal slot", http.StatusBadRequest)
		return
	}

	meal.UserID = userID
	if meal.EatenAt.IsZero() {
		meal.EatenAt = time.Now()
	}
	meal.CreatedAt = time.Now()

	addedMeal, err := handler.repo.Add(ctx, meal)
	if err != nil {
		log.Errorf("failed to add new meal [%s] for user %s: %s", meal.Slot, userID, err)
		http.Error(w, "error, failed to add new meal", http.StatusInternalServerError)
		return
	}

	handler.metrics.CounterMealsLogged.Inc()

	addedMealJson, err := json.Marshal(addedMeal)
	if err != nil {
		log.Errorf("failed to marshal new meal: %s", err)
		http.Error(w, "error, failed to add new meal", http.StatusInternalServerError)
		return
	}

	log.Debugf("new meal added: %s", addedMealJson)
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, addedMealJson, http.StatusCreated)
}

func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.meals.get")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	vars := mux.Vars(r)
	idStr := vars["id"]
	if idStr == "" {
		http.Error(w, "error, id empty", http.StatusBadRequest)
		return
	}
	id, err := strconv.Atoi(idStr)
	if err != nil {
		http.Error(w, "error, id NaN", http.StatusBadRequest)
		return
	}

	meal, err := handler.repo.Get(ctx, id, userID)
	if err != nil && !errors.Is(err, ErrMealNotFound) {
		log.Errorf("failed to get meal %d: %s", id, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	} else if errors.Is(err, ErrMealNotFound) {
		http.Error(w, "meal not found", http.StatusNotFound)
		return
	}

	mealJson, err := json.Marshal(meal)
	if err != nil {
		log.Errorf("failed to marshal meal: %s", err)
		http.Error(w, "failed to marshal meal", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, mealJson, http.StatusOK)
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.meals.list")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	vars := mux.Vars(r)
	pageStr := vars["page"]
	page, err := strconv.Atoi(pageStr)
	if err != nil {
		log.Tracef("handle get meals page, from <page> param: %s", err)
		http.Error(w, "parse form error, parameter <page>", http.StatusBadRequest)
		return
	}
	sizeStr := vars["size"]
	size, err := strconv.Atoi(sizeStr)
	if err != nil {
		log.Tracef("handle get meals page, from <size> param: %s", err)
		http.Error(w, "parse form error, parameter <size>", http.StatusBadRequest)
		return
	}

	if page < 1 {
		http.Error(w, "invalid page (has to be non-zero value)", http.StatusBadRequest)
		return
	}
	if size < 1 {
		http.Error(w, "invalid size (has to be non-zero value)", http.StatusBadRequest)
		return
	}

	slot := r.URL.Query().Get("slot")
	if slot != "" && !ValidSlot(slot) {
		http.Error(w, "error, invalid meal slot", http.StatusBadRequest)
		return
	}

	listed, total, err := handler.repo.List(ctx, ListParams{
		MealParams: MealParams{
			UserID: userID,
			Slot:   slot,
		},
		Page: page,
		Size: size,
	})
	if err != nil {
		log.Errorf("list meals error: %s", err)
		http.Error(w, "failed to get meals", http.StatusInternalServerError)
		return
	}

	listResponseJson, err := json.Marshal(ListResponse{
		Meals: listed,
		Total: total,
	})
	if err != nil {
		log.Errorf("marshal meals error: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, listResponseJson, http.StatusOK)
}

func (handler *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.meals.update")
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

	var meal Meal
	if err := json.NewDecoder(r.Body).Decode(&meal); err != nil {
		log.Errorf("update meal, unmarshal json params: %s", err)
		http.Error(w, "update meal failed", http.StatusBadRequest)
		return
	}

	if meal.Description == "" {
		http.Error(w, "error, meal description empty", http.StatusBadRequest)
		return
	}
	if !ValidSlot(meal.Slot) {
		http.Error(w, "error, invalid meal slot", http.StatusBadRequest)
		return
	}

	meal.UserID = userID

	if err := handler.repo.Update(ctx, &meal); err != nil {
		if errors.Is(err, ErrMealNotFound) {
			http.Error(w, "meal not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to update meal %d: %s", meal.ID, err)
		http.Error(w, "error, failed to update meal", http.StatusInternalServerError)
		return
	}

	updateRespJson, err := json.Marshal(UpdateMealResponse{
		UpdatedID: meal.ID,
	})
	if err != nil {
		log.Errorf("failed to marshal update response: %s", err)
		http.Error(w, "failed to marshal update response", http.StatusInternalServerError)
		return
	}

	log.Debugf("meal updated: [%s]: %d", meal.Slot, meal.ID)
	pkg.WriteJSONResponseOK(w, string(updateRespJson))
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.meals.delete")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	vars := mux.Vars(r)
	idStr := vars["id"]
	if idStr == "" {
		http.Error(w, "error, id empty", http.StatusBadRequest)
		return
	}
	id, err := strconv.Atoi(idStr)
	if err != nil {
		http.Error(w, "error, id NaN", http.StatusBadRequest)
		return
	}

	if err := handler.repo.Delete(ctx, id, userID); err != nil {
		if errors.Is(err, ErrMealNotFound) {
			http.Error(w, "meal not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to delete meal %d: %s", id, err)
		http.Error(w, "meal not deleted", http.StatusInternalServerError)
		return
	}

	deleteRespJson, err := json.Marshal(DeleteMealResponse{
		DeletedID: id,
	})
	if err != nil {
		log.Errorf("failed to marshal delete response: %s", err)
		http.Error(w, "failed to marshal delete response", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSONResponseOK(w, string(deleteRespJson))
}

// HandleDailyTotals answers with summed calories and macros for a single
// day, today when the `day` query param is left out.
func (handler *Handler) HandleDailyTotals(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.meals.dailyTotals")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	day := time.Now()
	if dayStr := r.URL.Query().Get("day"); dayStr != "" {
		var err error
		day, err = time.Parse("2006-01-02", dayStr)
		if err != nil {
			http.Error(w, "invalid day param, use YYYY-MM-DD", http.StatusBadRequest)
			return
		}
	}

	totals, err := handler.repo.GetDailyTotals(ctx, userID, day)
	if err != nil {
		log.Errorf("failed to get daily totals for user %s: %s", userID, err)
		http.Error(w, "failed to get daily totals", http.StatusInternalServerError)
		return
	}

	totalsJson, err := json.Marshal(totals)
	if err != nil {
		log.Errorf("failed to marshal daily totals: %s", err)
		http.Error(w, "failed to marshal daily totals", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, totalsJson, http.StatusOK)
}
