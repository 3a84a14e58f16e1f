package test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/fitmate/backend/internal/onboarding"
	"github.com/fitmate/backend/internal/plans"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *IntegrationTestSuite) onboardingStateRequest(ctx context.Context, token string) onboarding.StateView {
	req, err := http.NewRequestWithContext(
		ctx,
		"GET", fmt.Sprintf("%s/onboarding/state", serverEndpoint),
		nil,
	)
	require.NoError(s.T(), err)
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.httpClient.Do(req)
	require.NoError(s.T(), err)
	require.Equal(s.T(), http.StatusOK, resp.StatusCode)
	defer resp.Body.Close()

	return decodeStateView(s, resp)
}

func (s *IntegrationTestSuite) onboardingMessageRequest(
	ctx context.Context,
	token, message string,
) onboarding.StateView {
	messageJson, err := json.Marshal(onboarding.MessageRequest{Message: message})
	require.NoError(s.T(), err)

	req, err := http.NewRequestWithContext(
		ctx,
		"POST", fmt.Sprintf("%s/onboarding/message", serverEndpoint),
		bytes.NewReader(messageJson),
	)
	require.NoError(s.T(), err)
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	require.NoError(s.T(), err)
	require.Equal(s.T(), http.StatusOK, resp.StatusCode)
	defer resp.Body.Close()

	return decodeStateView(s, resp)
}

func (s *IntegrationTestSuite) onboardingAnswerRequest(
	ctx context.Context,
	token string,
	submission onboarding.Submission,
) onboarding.StateView {
	submissionJson, err := json.Marshal(submission)
	require.NoError(s.T(), err)

	req, err := http.NewRequestWithContext(
		ctx,
		"POST", fmt.Sprintf("%s/onboarding/answer", serverEndpoint),
		bytes.NewReader(submissionJson),
	)
	require.NoError(s.T(), err)
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	require.NoError(s.T(), err)
	require.Equal(s.T(), http.StatusOK, resp.StatusCode)
	defer resp.Body.Close()

	return decodeStateView(s, resp)
}

func decodeStateView(s *IntegrationTestSuite, resp *http.Response) onboarding.StateView {
	respBytes, err := io.ReadAll(resp.Body)
	require.NoError(s.T(), err)

	var state onboarding.StateView
	require.NoError(s.T(), json.Unmarshal(respBytes, &state))
	return state
}

func (s *IntegrationTestSuite) TestOnboardingConversation() {
	t := s.T()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	token := userToken(t, "user-nina")

	state := s.onboardingStateRequest(ctx, token)
	assert.Equal(t, onboarding.PhaseGreeting, state.Phase)
	assert.Equal(t, 5, state.TotalSteps)
	assert.Nil(t, state.CurrentStep)
	require.Len(t, state.Transcript, 1)
	assert.Equal(t, onboarding.SenderBot, state.Transcript[0].Sender)

	t.Run("non-greeting gets a reprompt", func(t *testing.T) {
		state := s.onboardingMessageRequest(ctx, token, "what is this app about?")
		assert.Equal(t, onboarding.PhaseGreeting, state.Phase)
		// user message plus the bot reprompt landed in the transcript
		require.Len(t, state.Transcript, 3)
		assert.Equal(t, onboarding.SenderUser, state.Transcript[1].Sender)
		assert.Equal(t, "what is this app about?", state.Transcript[1].Message)
	})

	state = s.onboardingMessageRequest(ctx, token, "Hey there coach!")
	assert.Equal(t, onboarding.PhaseStructured, state.Phase)
	require.NotNil(t, state.CurrentStep)
	assert.Equal(t, "body_metrics", state.CurrentStep.ID)

	t.Run("rejected submission moves nothing", func(t *testing.T) {
		submissionJson, err := json.Marshal(onboarding.Submission{
			Height: 410, Weight: 84, Units: "metric",
		})
		require.NoError(t, err)

		req, err := http.NewRequestWithContext(
			ctx,
			"POST", fmt.Sprintf("%s/onboarding/answer", serverEndpoint),
			bytes.NewReader(submissionJson),
		)
		require.NoError(t, err)
		req.Header.Set("User-Agent", "test-agent")
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.httpClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)

		respBytes, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, "height should be between 100 and 250 cm", strings.TrimSpace(string(respBytes)))

		state := s.onboardingStateRequest(ctx, token)
		assert.Equal(t, 0, state.Cursor)
		assert.Equal(t, "body_metrics", state.CurrentStep.ID)
	})

	state = s.onboardingAnswerRequest(ctx, token, onboarding.Submission{
		Height: 183, Weight: 84, Units: "metric",
	})
	require.NotNil(t, state.CurrentStep)
	assert.Equal(t, "activity_level", state.CurrentStep.ID)
	assert.InDelta(t, 20, state.Progress, 0.01)

	t.Run("free text in structured phase conflicts", func(t *testing.T) {
		messageJson, err := json.Marshal(onboarding.MessageRequest{Message: "hello again"})
		require.NoError(t, err)

		req, err := http.NewRequestWithContext(
			ctx,
			"POST", fmt.Sprintf("%s/onboarding/message", serverEndpoint),
			bytes.NewReader(messageJson),
		)
		require.NoError(t, err)
		req.Header.Set("User-Agent", "test-agent")
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.httpClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	state = s.onboardingAnswerRequest(ctx, token, onboarding.Submission{Value: "moderate"})
	require.NotNil(t, state.CurrentStep)
	assert.Equal(t, "diet_preferences", state.CurrentStep.ID)

	state = s.onboardingAnswerRequest(ctx, token, onboarding.Submission{
		Value: "Mostly home cooked meals, lots of fish, no soda",
	})
	require.NotNil(t, state.CurrentStep)
	assert.Equal(t, "equipment", state.CurrentStep.ID)

	state = s.onboardingAnswerRequest(ctx, token, onboarding.Submission{
		Values: []string{"dumbbells", "pull_up_bar"},
	})
	require.NotNil(t, state.CurrentStep)
	assert.Equal(t, "dietary_restrictions", state.CurrentStep.ID)

	// the final answer triggers the profile insert
	state = s.onboardingAnswerRequest(ctx, token, onboarding.Submission{
		Values: []string{"none"},
	})
	assert.Equal(t, onboarding.PhaseCompleted, state.Phase)
	assert.False(t, state.CompletionPending)
	assert.Nil(t, state.CurrentStep)
	assert.InDelta(t, 100, state.Progress, 0.01)
	require.NotEmpty(t, state.Transcript)
	assert.Equal(t,
		"That's everything I need! Your profile is all set, let's get to work.",
		state.Transcript[len(state.Transcript)-1].Message,
	)

	t.Run("profile row written once", func(t *testing.T) {
		var count int
		err := s.dbPool.
			QueryRow(ctx, "SELECT COUNT(*) FROM user_profile WHERE user_id = $1", "user-nina").
			Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		var heightCM, weightKG float64
		var onboardingComplete bool
		err = s.dbPool.
			QueryRow(
				ctx,
				"SELECT height_cm, weight_kg, onboarding_complete FROM user_profile WHERE user_id = $1",
				"user-nina",
			).
			Scan(&heightCM, &weightKG, &onboardingComplete)
		require.NoError(t, err)
		assert.Equal(t, 183.0, heightCM)
		assert.Equal(t, 84.0, weightKG)
		assert.True(t, onboardingComplete)
	})

	t.Run("workout plan for the fresh profile", func(t *testing.T) {
		req, err := http.NewRequestWithContext(
			ctx,
			"GET", fmt.Sprintf("%s/plans/workout", serverEndpoint),
			nil,
		)
		require.NoError(t, err)
		req.Header.Set("User-Agent", "test-agent")
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := s.httpClient.Do(req)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		defer resp.Body.Close()

		respBytes, err := io.ReadAll(resp.Body)
		require.NoError(t, err)

		// no fitness level was collected, the beginner strength plan is the default
		var plan plans.WorkoutPlan
		require.NoError(t, json.Unmarshal(respBytes, &plan))
		assert.Equal(t, "Bodyweight Foundations", plan.Name)
		assert.NotEmpty(t, plan.Exercises)
	})

	t.Run("diet plan for the fresh profile", func(t *testing.T) {
		req, err := http.NewRequestWithContext(
			ctx,
			"GET", fmt.Sprintf("%s/plans/diet", serverEndpoint),
			nil,
		)
		require.NoError(t, err)
		req.Header.Set("User-Agent", "test-agent")
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := s.httpClient.Do(req)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		defer resp.Body.Close()

		respBytes, err := io.ReadAll(resp.Body)
		require.NoError(t, err)

		// 183 cm / 84 kg, moderate activity, no age or gender collected
		var plan plans.DietPlan
		require.NoError(t, json.Unmarshal(respBytes, &plan))
		assert.InDelta(t, 1988.75, plan.BMR, 0.01)
		assert.Equal(t, 3083, plan.Calories)
		assert.NotEmpty(t, plan.Meals.Breakfast)
		assert.NotEmpty(t, plan.Tips)
	})

	t.Run("plans without a profile", func(t *testing.T) {
		strangerToken := userToken(t, "user-stranger")

		req, err := http.NewRequestWithContext(
			ctx,
			"GET", fmt.Sprintf("%s/plans/workout", serverEndpoint),
			nil,
		)
		require.NoError(t, err)
		req.Header.Set("User-Agent", "test-agent")
		req.Header.Set("Authorization", "Bearer "+strangerToken)

		resp, err := s.httpClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}
