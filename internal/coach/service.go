package coach

import (
	"context"
	"fmt"
	"time"

	"github.com/fitmate/backend/internal/telemetry/metrics"
	"github.com/fitmate/backend/internal/telemetry/tracing"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

//go:generate mockgen -source=$GOFILE -destination=service_mocks_test.go -package=coach_test

type chatRepo interface {
	Add(ctx context.Context, message ChatMessage) error
	ListForUser(ctx context.Context, userID string, limit int) ([]ChatMessage, error)
	DeleteAllForUser(ctx context.Context, userID string) (int64, error)
}

type coachClient interface {
	Ask(ctx context.Context, chatContext, message string) (string, error)
}

type Service struct {
	repo    chatRepo
	client  coachClient
	metrics *metrics.Manager
}

func NewService(repo chatRepo, client coachClient, metricsManager *metrics.Manager) *Service {
	return &Service{
		repo:    repo,
		client:  client,
		metrics: metricsManager,
	}
}

// Chat persists the user message, asks the remote coach and persists the
// reply. When the remote coach fails, a canned reply for the chat context
// takes its place so the conversation keeps going.
func (s *Service) Chat(ctx context.Context, userID, chatContext, message string) (_ ChatMessage, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.coach.chat")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	chatContext = NormalizeContext(chatContext)
	span.SetAttributes(attribute.String("chat.context", chatContext))

	userMessage := NewUserMessage(userID, chatContext, message)
	if err := s.repo.Add(ctx, userMessage); err != nil {
		return ChatMessage{}, fmt.Errorf("add user chat message: %w", err)
	}
	s.metrics.CounterCoachMessages.With(prometheus.Labels{"context": chatContext}).Inc()

	askStart := time.Now()
	reply, askErr := s.client.Ask(ctx, chatContext, message)
	s.metrics.HistCoachRequestDuration.Observe(time.Since(askStart).Seconds())
	if askErr != nil {
		log.Errorf("coach ask failed for user %s, using fallback reply: %s", userID, askErr)
		reply = FallbackReply(chatContext)
		s.metrics.CounterCoachFallbacks.With(prometheus.Labels{"context": chatContext}).Inc()
		span.SetAttributes(attribute.Bool("chat.fallback", true))
	}

	coachMessage := NewCoachMessage(userID, chatContext, reply)
	if err := s.repo.Add(ctx, coachMessage); err != nil {
		// the user still gets the reply, only the history is short one row
		log.Errorf("failed to persist coach reply for user %s: %s", userID, err)
	}

	return coachMessage, nil
}

func (s *Service) History(ctx context.Context, userID string, limit int) (_ []ChatMessage, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.coach.history")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	messages, err := s.repo.ListForUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list chat messages: %w", err)
	}
	return messages, nil
}

func (s *Service) DeleteHistory(ctx context.Context, userID string) (deleted int64, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.coach.deleteHistory")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	deleted, err = s.repo.DeleteAllForUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("delete chat messages: %w", err)
	}

	span.SetAttributes(attribute.Int64("deleted", deleted))
	return deleted, nil
}
