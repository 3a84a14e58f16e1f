package meals

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/fitmate/backend/internal/auth"
	"github.com/fitmate/backend/internal/telemetry/metrics"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newMealRequest(t *testing.T, method string, body any, userID string) *http.Request {
	t.Helper()

	var reader bytes.Reader
	if body != nil {
		bodyJson, err := json.Marshal(body)
		require.NoError(t, err)
		reader = *bytes.NewReader(bodyJson)
	}

	req, err := http.NewRequest(method, "", &reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req.WithContext(auth.ContextWithUserID(req.Context(), userID))
}

func TestHandler_Add(t *testing.T) {
	repo := NewMockMealsRepo()
	m := metrics.NewTestManager()
	handler := NewHandler(repo, m)

	meal := Meal{
		Slot:        SlotLunch,
		Description: "chicken and rice",
		Calories:    650,
		ProteinG:    45,
		CarbsG:      70,
		FatsG:       15,
		EatenAt:     time.Now().Add(-time.Hour),
	}

	rec := httptest.NewRecorder()
	req := newMealRequest(t, "POST", meal, "user-1")

	handler.HandleAdd(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var addedMeal Meal
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &addedMeal))
	assert.Equal(t, 1, addedMeal.ID)
	assert.Equal(t, "user-1", addedMeal.UserID)
	assert.Equal(t, SlotLunch, addedMeal.Slot)
	assert.Equal(t, 650, addedMeal.Calories)
	assert.False(t, addedMeal.CreatedAt.IsZero())

	stored, err := repo.Get(context.Background(), 1, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "chicken and rice", stored.Description)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.CounterMealsLogged))
}

func TestHandler_Add_Invalid(t *testing.T) {
	repo := NewMockMealsRepo()
	handler := NewHandler(repo, metrics.NewTestManager())

	t.Run("no user in context", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req, err := http.NewRequest("POST", "", nil)
		require.NoError(t, err)
		handler.HandleAdd(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong content type", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := newMealRequest(t, "POST", Meal{Slot: SlotLunch, Description: "soup"}, "user-1")
		req.Header.Set("Content-Type", "text/plain")
		handler.HandleAdd(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("empty description", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := newMealRequest(t, "POST", Meal{Slot: SlotDinner}, "user-1")
		handler.HandleAdd(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "description empty")
	})

	t.Run("unknown slot", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := newMealRequest(t, "POST", Meal{Slot: "brunch", Description: "pancakes"}, "user-1")
		handler.HandleAdd(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "invalid meal slot")
	})
}

func TestHandler_GetAndDelete(t *testing.T) {
	repo := NewMockMealsRepo()
	handler := NewHandler(repo, metrics.NewTestManager())

	added, err := repo.Add(context.Background(), Meal{
		UserID:      "user-1",
		Slot:        SlotBreakfast,
		Description: "oatmeal with berries",
		Calories:    400,
		EatenAt:     time.Now(),
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := newMealRequest(t, "GET", nil, "user-1")
	req = mux.SetURLVars(req, map[string]string{"id": "1"})
	handler.HandleGet(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var gotten Meal
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &gotten))
	assert.Equal(t, added.ID, gotten.ID)
	assert.Equal(t, "oatmeal with berries", gotten.Description)

	// meals belong to their owner only
	rec = httptest.NewRecorder()
	req = newMealRequest(t, "GET", nil, "user-2")
	req = mux.SetURLVars(req, map[string]string{"id": "1"})
	handler.HandleGet(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	req = newMealRequest(t, "DELETE", nil, "user-1")
	req = mux.SetURLVars(req, map[string]string{"id": "1"})
	handler.HandleDelete(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var deleteResponse DeleteMealResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &deleteResponse))
	assert.Equal(t, 1, deleteResponse.DeletedID)

	rec = httptest.NewRecorder()
	req = newMealRequest(t, "DELETE", nil, "user-1")
	req = mux.SetURLVars(req, map[string]string{"id": "1"})
	handler.HandleDelete(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_List(t *testing.T) {
	repo := NewMockMealsRepo()
	handler := NewHandler(repo, metrics.NewTestManager())

	ctx := context.Background()
	now := time.Now()
	for i, slot := range []string{SlotBreakfast, SlotLunch, SlotDinner, SlotSnack, SlotSnack} {
		_, err := repo.Add(ctx, Meal{
			UserID:      "user-1",
			Slot:        slot,
			Description: "meal " + slot,
			EatenAt:     now.Add(-time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
	}
	_, err := repo.Add(ctx, Meal{
		UserID:      "user-2",
		Slot:        SlotLunch,
		Description: "someone elses lunch",
		EatenAt:     now,
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := newMealRequest(t, "GET", nil, "user-1")
	req = mux.SetURLVars(req, map[string]string{"page": "1", "size": "2"})
	handler.HandleList(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var listResponse ListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listResponse))
	assert.Equal(t, 5, listResponse.Total)
	require.Len(t, listResponse.Meals, 2)
	// newest first
	assert.Equal(t, SlotBreakfast, listResponse.Meals[0].Slot)
	assert.Equal(t, SlotLunch, listResponse.Meals[1].Slot)

	rec = httptest.NewRecorder()
	req = newMealRequest(t, "GET", nil, "user-1")
	req.URL.RawQuery = "slot=snack"
	req = mux.SetURLVars(req, map[string]string{"page": "1", "size": "10"})
	handler.HandleList(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listResponse))
	assert.Equal(t, 2, listResponse.Total)
	require.Len(t, listResponse.Meals, 2)
	for _, meal := range listResponse.Meals {
		assert.Equal(t, SlotSnack, meal.Slot)
	}

	rec = httptest.NewRecorder()
	req = newMealRequest(t, "GET", nil, "user-1")
	req.URL.RawQuery = "slot=second-breakfast"
	req = mux.SetURLVars(req, map[string]string{"page": "1", "size": "10"})
	handler.HandleList(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_Update(t *testing.T) {
	repo := NewMockMealsRepo()
	handler := NewHandler(repo, metrics.NewTestManager())

	added, err := repo.Add(context.Background(), Meal{
		UserID:      "user-1",
		Slot:        SlotDinner,
		Description: "pasta",
		Calories:    700,
		EatenAt:     time.Now(),
	})
	require.NoError(t, err)

	updated := *added
	updated.Description = "pasta with extra veggies"
	updated.Calories = 750

	rec := httptest.NewRecorder()
	req := newMealRequest(t, "PUT", updated, "user-1")
	handler.HandleUpdate(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var updateResponse UpdateMealResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updateResponse))
	assert.Equal(t, added.ID, updateResponse.UpdatedID)

	stored, err := repo.Get(context.Background(), added.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "pasta with extra veggies", stored.Description)
	assert.Equal(t, 750, stored.Calories)

	// updating a meal of another user hits nothing
	foreign := *added
	foreign.Description = "hijacked"
	rec = httptest.NewRecorder()
	req = newMealRequest(t, "PUT", foreign, "user-2")
	handler.HandleUpdate(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_DailyTotals(t *testing.T) {
	repo := NewMockMealsRepo()
	handler := NewHandler(repo, metrics.NewTestManager())

	ctx := context.Background()
	now := time.Now()
	todaysMeals := []Meal{
		{UserID: "user-1", Slot: SlotBreakfast, Description: "eggs", Calories: 350, ProteinG: 25, CarbsG: 5, FatsG: 20, EatenAt: now},
		{UserID: "user-1", Slot: SlotLunch, Description: "bowl", Calories: 600, ProteinG: 40, CarbsG: 60, FatsG: 18, EatenAt: now},
		{UserID: "user-1", Slot: SlotSnack, Description: "nuts", Calories: 200, ProteinG: 6, CarbsG: 8, FatsG: 16, EatenAt: now},
	}
	for _, meal := range todaysMeals {
		_, err := repo.Add(ctx, meal)
		require.NoError(t, err)
	}
	_, err := repo.Add(ctx, Meal{
		UserID: "user-1", Slot: SlotDinner, Description: "old dinner",
		Calories: 800, EatenAt: time.Date(2024, 3, 11, 19, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	_, err = repo.Add(ctx, Meal{
		UserID: "user-2", Slot: SlotLunch, Description: "not mine",
		Calories: 500, EatenAt: now,
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := newMealRequest(t, "GET", nil, "user-1")
	handler.HandleDailyTotals(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var totals DailyTotals
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &totals))
	assert.Equal(t, 3, totals.Meals)
	assert.Equal(t, 1150, totals.Calories)
	assert.Equal(t, 71, totals.ProteinG)
	assert.Equal(t, 73, totals.CarbsG)
	assert.Equal(t, 54, totals.FatsG)

	rec = httptest.NewRecorder()
	req = newMealRequest(t, "GET", nil, "user-1")
	req.URL.RawQuery = "day=2024-03-11"
	handler.HandleDailyTotals(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &totals))
	assert.Equal(t, "2024-03-11", totals.Day)
	assert.Equal(t, 1, totals.Meals)
	assert.Equal(t, 800, totals.Calories)

	rec = httptest.NewRecorder()
	req = newMealRequest(t, "GET", nil, "user-1")
	req.URL.RawQuery = "day=yesterday"
	handler.HandleDailyTotals(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
