package progress

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/codes"

	"github.com/fitmate/backend/internal/telemetry/tracing"
)

type Service struct {
	repo *Repo
}

func NewService(repo *Repo) *Service {
	return &Service{
		repo: repo,
	}
}

func (s *Service) AddWeightReport(ctx context.Context, userID string, wr WeightReport) (_ *Entry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.progress.add.weight")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	entry := NewWeightEntry(userID, wr)
	entry.CreatedAt = time.Now()
	added, err := s.repo.Add(ctx, entry)
	if err != nil {
		return nil, fmt.Errorf("add weight report: %w", err)
	}
	return added, nil
}

func (s *Service) AddMeasurement(ctx context.Context, userID string, m Measurement) (_ *Entry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.progress.add.measurement")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	entry := NewMeasurementEntry(userID, m)
	entry.CreatedAt = time.Now()
	added, err := s.repo.Add(ctx, entry)
	if err != nil {
		return nil, fmt.Errorf("add measurement: %w", err)
	}
	return added, nil
}

func (s *Service) AddNote(ctx context.Context, userID string, n Note) (_ *Entry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.progress.add.note")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	entry := NewNoteEntry(userID, n)
	entry.CreatedAt = time.Now()
	added, err := s.repo.Add(ctx, entry)
	if err != nil {
		return nil, fmt.Errorf("add note: %w", err)
	}
	return added, nil
}

func (s *Service) List(ctx context.Context, params ListParams) (_ []Entry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.progress.list")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	entries, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("list progress entries: %w", err)
	}
	return entries, nil
}

func (s *Service) Count(ctx context.Context, params EntryParams) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.progress.count")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	count, err := s.repo.Count(ctx, params)
	if err != nil {
		return 0, fmt.Errorf("count progress entries: %w", err)
	}
	return count, nil
}

func (s *Service) WeightHistory(ctx context.Context, userID string, since *time.Time) (_ []WeightPoint, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.progress.weightHistory")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	points, err := s.repo.WeightHistory(ctx, userID, since)
	if err != nil {
		return nil, fmt.Errorf("weight history: %w", err)
	}
	return points, nil
}

func (s *Service) Delete(ctx context.Context, id int, userID string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.progress.delete")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if err := s.repo.Delete(ctx, id, userID); err != nil {
		return fmt.Errorf("delete progress entry: %w", err)
	}
	return nil
}
