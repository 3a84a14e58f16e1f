package onboarding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/fitmate/backend/internal/profiles"
	"github.com/fitmate/backend/internal/telemetry/metrics"
	"github.com/fitmate/backend/internal/telemetry/tracing"
)

const (
	welcomeMessage    = "Hi there! I'm your FitMate coach. Say hello and we'll set up your profile together."
	repromptMessage   = "Just say hi whenever you're ready to get started!"
	closingMessage    = "That's everything I need! Your profile is all set, let's get to work."
	apologeticMessage = "Sorry, something went wrong while saving your profile. Your answers are safe, please try again in a moment."
)

// greetingKeywords are matched as case-insensitive substrings.
var greetingKeywords = []string{
	"hello", "hi", "hey", "hola",
	"greetings", "good morning", "good afternoon", "good evening",
}

var ErrWrongPhase = errors.New("operation not valid in the current phase")

type profileCreator interface {
	Create(ctx context.Context, profile profiles.UserProfile) (*profiles.UserProfile, error)
}

// Controller drives the onboarding conversation: a greeting phase, a
// fixed ordered question sequence, and a single profile insert at the
// end. One session per user, all in memory.
type Controller struct {
	mutex    sync.Mutex
	sessions *SessionManager
	profiles profileCreator
	metrics  *metrics.Manager
}

func NewController(
	sessions *SessionManager,
	profiles profileCreator,
	metrics *metrics.Manager,
) *Controller {
	return &Controller{
		sessions: sessions,
		profiles: profiles,
		metrics:  metrics,
	}
}

type StateView struct {
	Phase             Phase             `json:"phase"`
	Cursor            int               `json:"cursor"`
	TotalSteps        int               `json:"totalSteps"`
	Progress          float64           `json:"progress"`
	CompletionPending bool              `json:"completionPending"`
	CurrentStep       *Step             `json:"currentStep,omitempty"`
	Transcript        []TranscriptEntry `json:"transcript"`
}

// State renders the session for the given user, creating a fresh
// greeting-phase session on first contact.
func (c *Controller) State(userID string) StateView {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.view(c.sessions.GetOrCreate(userID))
}

// HandleMessage processes a free-text message in the greeting phase. A
// message containing a greeting keyword starts the structured flow; any
// other message gets a reprompt. Either way the user's message lands in
// the transcript.
func (c *Controller) HandleMessage(ctx context.Context, userID, message string) (_ StateView, err error) {
	_, span := tracing.GlobalTracer.Start(ctx, "service.onboarding.message")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	c.mutex.Lock()
	defer c.mutex.Unlock()

	session := c.sessions.GetOrCreate(userID)
	if session.Phase != PhaseGreeting {
		return StateView{}, ErrWrongPhase
	}

	session.appendUser(message)
	if containsGreeting(message) {
		session.Phase = PhaseStructured
		session.Cursor = 0
		session.appendBot(steps[0].Question)
	} else {
		session.appendBot(repromptMessage)
	}

	return c.view(session), nil
}

// SubmitAnswer validates the submission against the current step. A
// non-empty validationMsg means the submission was rejected and nothing
// changed: no transcript entry, no cursor movement, no draft mutation.
// Answering the final step triggers the completion action.
func (c *Controller) SubmitAnswer(ctx context.Context, userID string, submission Submission) (_ StateView, validationMsg string, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.onboarding.answer")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	c.mutex.Lock()
	defer c.mutex.Unlock()

	session := c.sessions.GetOrCreate(userID)
	if session.Phase != PhaseStructured || session.allStepsDone() {
		return StateView{}, "", ErrWrongPhase
	}

	step := steps[session.Cursor]
	if validationMsg := step.validate(submission); validationMsg != "" {
		return StateView{}, validationMsg, nil
	}

	session.appendUser(step.render(submission))
	step.merge(submission, &session.Draft)
	session.Completed[session.Cursor] = true
	session.Cursor++

	if !session.allStepsDone() {
		session.appendBot(steps[session.Cursor].Question)
		return c.view(session), "", nil
	}

	// last answer collected, attempt the single profile insert; a failure
	// here is visible in the transcript and the session stays recoverable
	if err := c.complete(ctx, session); err != nil {
		log.Errorf("onboarding completion for user %s: %s", userID, err)
	}
	return c.view(session), "", nil
}

// Complete re-attempts the profile insert after an earlier failure.
func (c *Controller) Complete(ctx context.Context, userID string) (_ StateView, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.onboarding.complete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	c.mutex.Lock()
	defer c.mutex.Unlock()

	session := c.sessions.GetOrCreate(userID)
	if session.Phase != PhaseStructured || !session.allStepsDone() {
		return StateView{}, ErrWrongPhase
	}

	if err := c.complete(ctx, session); err != nil {
		return StateView{}, err
	}
	return c.view(session), nil
}

// Reset discards the user's session and starts a fresh one.
func (c *Controller) Reset(userID string) StateView {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.view(c.sessions.Reset(userID))
}

// complete runs the completion action: attach the user ID to the draft
// and insert it as one profile row. Never retried automatically.
func (c *Controller) complete(ctx context.Context, session *Session) error {
	profile := session.Draft
	profile.UserID = session.UserID
	profile.OnboardingComplete = true

	if _, err := c.profiles.Create(ctx, profile); err != nil {
		session.appendBot(apologeticMessage)
		return fmt.Errorf("create profile: %w", err)
	}

	session.Phase = PhaseCompleted
	session.appendBot(closingMessage)
	c.metrics.CounterOnboardingCompleted.Inc()
	log.Debugf("onboarding completed for user %s", session.UserID)
	return nil
}

func (c *Controller) view(session *Session) StateView {
	view := StateView{
		Phase:             session.Phase,
		Cursor:            session.Cursor,
		TotalSteps:        len(steps),
		Progress:          100 * float64(session.completedSteps()) / float64(len(steps)),
		CompletionPending: session.Phase == PhaseStructured && session.allStepsDone(),
		Transcript:        session.Transcript,
	}
	if session.Phase == PhaseStructured && !session.allStepsDone() {
		currentStep := steps[session.Cursor]
		view.CurrentStep = &currentStep
	}
	return view
}

func containsGreeting(message string) bool {
	lowered := strings.ToLower(message)
	for _, keyword := range greetingKeywords {
		if strings.Contains(lowered, keyword) {
			return true
		}
	}
	return false
}
