package workouts

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/fitmate/backend/internal/telemetry/tracing"
	"go.opentelemetry.io/otel/attribute"
)

// WeekStats aggregates the workouts of a single ISO week.
type WeekStats struct {
	Year          int `json:"year"`
	Week          int `json:"week"`
	Sessions      int `json:"sessions"`
	TotalMinutes  int `json:"totalMinutes"`
	TotalCalories int `json:"totalCalories"`
}

type WeeklyStatsResponse struct {
	Weeks []WeekStats `json:"weeks"`
}

type Analyzer struct {
	repo workoutsRepo
}

func NewAnalyzer(repo workoutsRepo) *Analyzer {
	return &Analyzer{
		repo: repo,
	}
}

// WeeklyStats returns per-week session counts, total minutes and total
// calories for the given user, covering the last `weeks` ISO weeks,
// most recent week first. Weeks without workouts are left out.
func (a *Analyzer) WeeklyStats(
	ctx context.Context,
	userID string,
	weeks int,
) (_ *WeeklyStatsResponse, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "analyzer.workouts.weeklyStats")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("weeks", weeks))

	if weeks < 1 {
		return nil, errors.New("weeks must be greater than 0")
	}

	from := time.Now().AddDate(0, 0, -weeks*7)
	workouts, err := a.repo.ListAll(ctx, WorkoutParams{
		UserID: userID,
		From:   &from,
	})
	if err != nil {
		return nil, err
	}

	type isoWeek struct {
		year int
		week int
	}

	week2stats := make(map[isoWeek]WeekStats)
	for _, w := range workouts {
		year, week := w.PerformedAt.ISOWeek()
		key := isoWeek{year: year, week: week}
		stats := week2stats[key]
		stats.Year = year
		stats.Week = week
		stats.Sessions++
		stats.TotalMinutes += w.DurationMinutes
		stats.TotalCalories += w.CaloriesBurned
		week2stats[key] = stats
	}

	weekStats := make([]WeekStats, 0, len(week2stats))
	for _, stats := range week2stats {
		weekStats = append(weekStats, stats)
	}

	sort.Slice(weekStats, func(i, j int) bool {
		if weekStats[i].Year != weekStats[j].Year {
			return weekStats[i].Year > weekStats[j].Year
		}
		return weekStats[i].Week > weekStats[j].Week
	})

	return &WeeklyStatsResponse{
		Weeks: weekStats,
	}, nil
}
