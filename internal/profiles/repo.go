package profiles

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"

	"github.com/fitmate/backend/internal/telemetry/tracing"
	"github.com/fitmate/backend/pkg"
)

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrProfileExists   = errors.New("profile already exists")
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Create(ctx context.Context, profile UserProfile) (_ *UserProfile, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.profiles.create")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if profile.UserID == "" {
		return nil, errors.New("profile user id empty")
	}
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = time.Now()
	}
	profile.UpdatedAt = profile.CreatedAt

	rows, err := r.db.Query(
		ctx,
		`INSERT INTO user_profile
				(user_id, age, gender, height_cm, weight_kg, fitness_level, goals,
				activity_level, equipment, dietary_restrictions, diet_preferences,
				onboarding_complete, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
			RETURNING id;`,
		profile.UserID, profile.Age, profile.Gender, profile.HeightCM, profile.WeightKG,
		profile.FitnessLevel, profile.Goals, profile.ActivityLevel, profile.Equipment,
		profile.DietaryRestrictions, profile.DietPreferences, profile.OnboardingComplete,
		profile.CreatedAt, profile.UpdatedAt,
	)
	if err != nil {
		if pkg.IsUniqueViolationError(err) {
			return nil, ErrProfileExists
		}
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		if pkg.IsUniqueViolationError(err) {
			return nil, ErrProfileExists
		}
		return nil, err
	}

	if !rows.Next() {
		return nil, errors.New("unexpected error [no rows next]")
	}

	var id int
	if err := rows.Scan(&id); err != nil {
		return nil, fmt.Errorf("rows scan: %w", err)
	}

	span.SetAttributes(attribute.Int("profile.id", id))

	profile.ID = id
	return &profile, nil
}

func (r *Repo) Update(ctx context.Context, profile *UserProfile) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.profiles.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user.id", profile.UserID))

	tag, err := r.db.Exec(
		ctx,
		`UPDATE user_profile SET
				age = $1, gender = $2, height_cm = $3, weight_kg = $4,
				fitness_level = $5, goals = $6, activity_level = $7, equipment = $8,
				dietary_restrictions = $9, diet_preferences = $10,
				onboarding_complete = $11, updated_at = $12
			WHERE user_id = $13;`,
		profile.Age, profile.Gender, profile.HeightCM, profile.WeightKG,
		profile.FitnessLevel, profile.Goals, profile.ActivityLevel, profile.Equipment,
		profile.DietaryRestrictions, profile.DietPreferences, profile.OnboardingComplete,
		time.Now(), profile.UserID,
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return ErrProfileNotFound
	}

	return nil
}

func (r *Repo) GetByUserID(ctx context.Context, userID string) (_ *UserProfile, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.profiles.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user.id", userID))

	rows, err := r.db.Query(
		ctx,
		`
			SELECT
				id, user_id, age, gender, height_cm, weight_kg, fitness_level, goals,
				activity_level, equipment, dietary_restrictions, diet_preferences,
				onboarding_complete, created_at, updated_at
			FROM user_profile
			WHERE user_id = $1;`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	profiles, err := r.rows2profiles(rows)
	if err != nil {
		return nil, err
	}

	if len(profiles) != 1 {
		return nil, ErrProfileNotFound
	}

	return &profiles[0], nil
}

func (r *Repo) Delete(ctx context.Context, userID string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.profiles.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user.id", userID))

	tag, err := r.db.Exec(
		ctx,
		`DELETE FROM user_profile WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrProfileNotFound
	}
	return nil
}

func (r *Repo) rows2profiles(rows pgx.Rows) ([]UserProfile, error) {
	var profiles []UserProfile
	for rows.Next() {
		var p UserProfile
		if err := rows.Scan(
			&p.ID, &p.UserID, &p.Age, &p.Gender, &p.HeightCM, &p.WeightKG,
			&p.FitnessLevel, &p.Goals, &p.ActivityLevel, &p.Equipment,
			&p.DietaryRestrictions, &p.DietPreferences,
			&p.OnboardingComplete, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}

	if profiles == nil {
		profiles = make([]UserProfile, 0)
	}

	return profiles, nil
}
