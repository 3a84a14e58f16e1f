package test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/fitmate/backend/internal/workouts"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *IntegrationTestSuite) deleteAllWorkouts(ctx context.Context) {
	_, err := s.dbPool.Exec(ctx, "DELETE FROM workout")
	require.NoError(s.T(), err)
}

func (s *IntegrationTestSuite) addWorkoutRequest(
	ctx context.Context,
	token string,
	workout workouts.Workout,
) workouts.AddWorkoutResponse {
	workoutJson, err := json.Marshal(workout)
	require.NoError(s.T(), err)

	req, err := http.NewRequestWithContext(
		ctx,
		"POST", fmt.Sprintf("%s/workouts", serverEndpoint),
		bytes.NewReader(workoutJson),
	)
	require.NoError(s.T(), err)
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	require.NoError(s.T(), err)
	require.Equal(s.T(), http.StatusCreated, resp.StatusCode)
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	require.NoError(s.T(), err)

	var addedWorkout workouts.AddWorkoutResponse
	require.NoError(s.T(), json.Unmarshal(respBytes, &addedWorkout))

	return addedWorkout
}

func (s *IntegrationTestSuite) getWorkoutRequest(ctx context.Context, token string, id int) workouts.Workout {
	req, err := http.NewRequestWithContext(
		ctx,
		"GET", fmt.Sprintf("%s/workouts/%d", serverEndpoint, id),
		nil,
	)
	require.NoError(s.T(), err)
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.httpClient.Do(req)
	require.NoError(s.T(), err)
	require.Equal(s.T(), http.StatusOK, resp.StatusCode)
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	require.NoError(s.T(), err)

	var workout workouts.Workout
	require.NoError(s.T(), json.Unmarshal(respBytes, &workout))

	return workout
}

func (s *IntegrationTestSuite) listWorkoutsRequest(
	ctx context.Context,
	token string,
	page, size int,
	category string,
) workouts.ListResponse {
	listURL := fmt.Sprintf("%s/workouts/list/page/%d/size/%d", serverEndpoint, page, size)
	if category != "" {
		listURL += "?category=" + category
	}

	req, err := http.NewRequestWithContext(ctx, "GET", listURL, nil)
	require.NoError(s.T(), err)
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.httpClient.Do(req)
	require.NoError(s.T(), err)
	require.Equal(s.T(), http.StatusOK, resp.StatusCode)
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	require.NoError(s.T(), err)

	var listResp workouts.ListResponse
	require.NoError(s.T(), json.Unmarshal(respBytes, &listResp))

	return listResp
}

func (s *IntegrationTestSuite) TestWorkouts() {
	t := s.T()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s.deleteAllWorkouts(ctx)

	tokenMia := userToken(t, "user-mia")
	tokenLuka := userToken(t, "user-luka")

	t.Run("unauthorized without a token", func(t *testing.T) {
		req, err := http.NewRequestWithContext(
			ctx,
			"GET", fmt.Sprintf("%s/workouts/list/page/1/size/10", serverEndpoint),
			nil,
		)
		require.NoError(t, err)

		resp, err := s.httpClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	added := s.addWorkoutRequest(ctx, tokenMia, workouts.Workout{
		Name:            "Morning run",
		Category:        workouts.CategoryCardio,
		DurationMinutes: 40,
		CaloriesBurned:  380,
		Notes:           "easy pace",
		PerformedAt:     time.Now().Add(-2 * time.Hour),
	})
	require.NotZero(t, added.ID)
	assert.Equal(t, "user-mia", added.UserID)
	assert.Equal(t, 1, added.CountThisWeek)

	s.addWorkoutRequest(ctx, tokenMia, workouts.Workout{
		Name:            "Full body strength",
		Category:        workouts.CategoryStrength,
		DurationMinutes: 55,
		CaloriesBurned:  420,
		PerformedAt:     time.Now().Add(-1 * time.Hour),
	})

	// another user's workout must stay invisible to mia
	s.addWorkoutRequest(ctx, tokenLuka, workouts.Workout{
		Name:            "Evening swim",
		Category:        workouts.CategoryCardio,
		DurationMinutes: 30,
		CaloriesBurned:  250,
		PerformedAt:     time.Now(),
	})

	t.Run("get", func(t *testing.T) {
		workout := s.getWorkoutRequest(ctx, tokenMia, added.ID)
		assert.Equal(t, "Morning run", workout.Name)
		assert.Equal(t, workouts.CategoryCardio, workout.Category)
		assert.Equal(t, 40, workout.DurationMinutes)
	})

	t.Run("get, foreign workout", func(t *testing.T) {
		req, err := http.NewRequestWithContext(
			ctx,
			"GET", fmt.Sprintf("%s/workouts/%d", serverEndpoint, added.ID),
			nil,
		)
		require.NoError(t, err)
		req.Header.Set("User-Agent", "test-agent")
		req.Header.Set("Authorization", "Bearer "+tokenLuka)

		resp, err := s.httpClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("list", func(t *testing.T) {
		listResp := s.listWorkoutsRequest(ctx, tokenMia, 1, 10, "")
		assert.Equal(t, 2, listResp.Total)
		require.Len(t, listResp.Workouts, 2)
		// newest first
		assert.Equal(t, "Full body strength", listResp.Workouts[0].Name)
		assert.Equal(t, "Morning run", listResp.Workouts[1].Name)
	})

	t.Run("list, category filter", func(t *testing.T) {
		listResp := s.listWorkoutsRequest(ctx, tokenMia, 1, 10, workouts.CategoryCardio)
		assert.Equal(t, 1, listResp.Total)
		require.Len(t, listResp.Workouts, 1)
		assert.Equal(t, "Morning run", listResp.Workouts[0].Name)
	})

	t.Run("update", func(t *testing.T) {
		update := workouts.Workout{
			ID:              added.ID,
			Name:            "Morning run, extended",
			Category:        workouts.CategoryCardio,
			DurationMinutes: 50,
			CaloriesBurned:  460,
			PerformedAt:     added.PerformedAt,
		}
		updateJson, err := json.Marshal(update)
		require.NoError(t, err)

		req, err := http.NewRequestWithContext(
			ctx,
			"PUT", fmt.Sprintf("%s/workouts", serverEndpoint),
			bytes.NewReader(updateJson),
		)
		require.NoError(t, err)
		req.Header.Set("User-Agent", "test-agent")
		req.Header.Set("Authorization", "Bearer "+tokenMia)
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.httpClient.Do(req)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		defer resp.Body.Close()

		respBytes, err := io.ReadAll(resp.Body)
		require.NoError(t, err)

		var updateResp workouts.UpdateWorkoutResponse
		require.NoError(t, json.Unmarshal(respBytes, &updateResp))
		assert.Equal(t, added.ID, updateResp.UpdatedID)

		workout := s.getWorkoutRequest(ctx, tokenMia, added.ID)
		assert.Equal(t, "Morning run, extended", workout.Name)
		assert.Equal(t, 50, workout.DurationMinutes)
	})

	t.Run("weekly stats", func(t *testing.T) {
		req, err := http.NewRequestWithContext(
			ctx,
			"GET", fmt.Sprintf("%s/workouts/stats/weekly?weeks=4", serverEndpoint),
			nil,
		)
		require.NoError(t, err)
		req.Header.Set("User-Agent", "test-agent")
		req.Header.Set("Authorization", "Bearer "+tokenMia)

		resp, err := s.httpClient.Do(req)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		defer resp.Body.Close()

		respBytes, err := io.ReadAll(resp.Body)
		require.NoError(t, err)

		var statsResp workouts.WeeklyStatsResponse
		require.NoError(t, json.Unmarshal(respBytes, &statsResp))
		require.NotEmpty(t, statsResp.Weeks)

		// both workouts land within the window, possibly across an
		// ISO week boundary when run close to midnight on monday;
		// the run was updated to 50 min / 460 kcal above
		var sessions, minutes, calories int
		for _, week := range statsResp.Weeks {
			sessions += week.Sessions
			minutes += week.TotalMinutes
			calories += week.TotalCalories
		}
		assert.Equal(t, 2, sessions)
		assert.Equal(t, 105, minutes)
		assert.Equal(t, 880, calories)
	})

	t.Run("delete", func(t *testing.T) {
		req, err := http.NewRequestWithContext(
			ctx,
			"DELETE", fmt.Sprintf("%s/workouts/%d", serverEndpoint, added.ID),
			nil,
		)
		require.NoError(t, err)
		req.Header.Set("User-Agent", "test-agent")
		req.Header.Set("Authorization", "Bearer "+tokenMia)

		resp, err := s.httpClient.Do(req)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		defer resp.Body.Close()

		respBytes, err := io.ReadAll(resp.Body)
		require.NoError(t, err)

		var deleteResp workouts.DeleteWorkoutResponse
		require.NoError(t, json.Unmarshal(respBytes, &deleteResp))
		assert.Equal(t, added.ID, deleteResp.DeletedID)

		listResp := s.listWorkoutsRequest(ctx, tokenMia, 1, 10, "")
		assert.Equal(t, 1, listResp.Total)
	})
}
