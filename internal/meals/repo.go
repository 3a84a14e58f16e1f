package meals

import (
	"context"
	"errors"
	"time"

	"github.com/fitmate/backend/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

var ErrMealNotFound = errors.New("meal not found")

type MealParams struct {
	UserID string
	Slot   string
}

type ListParams struct {
	MealParams
	Page int
	Size int
}

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Add(ctx context.Context, meal Meal) (_ *Meal, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.meals.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("slot", meal.Slot))

	rows, err := r.db.Query(
		ctx,
		`INSERT INTO meal
				(user_id, slot, description, calories, protein_g, carbs_g, fats_g, eaten_at, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id;`,
		meal.UserID, meal.Slot, meal.Description,
		meal.Calories, meal.ProteinG, meal.CarbsG, meal.FatsG,
		meal.EatenAt, meal.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if !rows.Next() {
		return nil, errors.New("unexpected error [no rows next]")
	}

	var id int
	if err := rows.Scan(&id); err != nil {
		return nil, err
	}

	meal.ID = id
	return &meal, nil
}

func (r *Repo) Get(ctx context.Context, id int, userID string) (_ *Meal, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.meals.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	rows, err := r.db.Query(
		ctx,
		`
			SELECT
				id, user_id, slot, description, calories, protein_g, carbs_g, fats_g, eaten_at, created_at
			FROM meal
			WHERE id = $1 AND user_id = $2;`,
		id, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	listed, err := r.rows2meals(rows)
	if err != nil {
		return nil, err
	}

	if len(listed) != 1 {
		return nil, ErrMealNotFound
	}

	return &listed[0], nil
}

// List returns the requested page of a user's meals, newest first,
// optionally narrowed down to a single slot.
func (r *Repo) List(ctx context.Context, params ListParams) (_ []Meal, total int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.meals.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("page", params.Page))
	span.SetAttributes(attribute.Int("size", params.Size))
	span.SetAttributes(attribute.String("slot", params.Slot))

	if params.Page < 1 {
		return nil, -1, errors.New("page must be greater than 0")
	}
	if params.Size < 1 {
		return nil, -1, errors.New("size must be greater than 0")
	}

	limit := params.Size
	offset := (params.Page - 1) * params.Size
	countAll, err := r.Count(ctx, params.MealParams)
	if err != nil {
		return nil, -1, err
	}

	if countAll <= limit {
		limit = countAll
		offset = 0
	}

	if countAll-offset < limit {
		offset = countAll - limit
	}

	span.SetAttributes(attribute.Int("count_all", countAll))
	span.SetAttributes(attribute.Int("limit", limit))
	span.SetAttributes(attribute.Int("offset", offset))

	rows, err := r.db.Query(
		ctx,
		`
			SELECT
				id, user_id, slot, description, calories, protein_g, carbs_g, fats_g, eaten_at, created_at
			FROM meal
				WHERE user_id = $1
				AND ($2::text = '' OR slot = $2)
			ORDER BY eaten_at DESC
			LIMIT $3
			OFFSET $4;`,
		params.UserID, params.Slot,
		limit, offset,
	)
	if err != nil {
		return nil, -1, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, -1, err
	}

	listed, err := r.rows2meals(rows)
	if err != nil {
		return nil, -1, err
	}
	return listed, countAll, nil
}

func (r *Repo) Update(ctx context.Context, meal *Meal) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.meals.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", meal.ID))

	tag, err := r.db.Exec(
		ctx,
		`UPDATE meal
			SET slot = $1, description = $2, calories = $3, protein_g = $4, carbs_g = $5, fats_g = $6, eaten_at = $7
			WHERE id = $8 AND user_id = $9;`,
		meal.Slot, meal.Description,
		meal.Calories, meal.ProteinG, meal.CarbsG, meal.FatsG,
		meal.EatenAt,
		meal.ID, meal.UserID,
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return ErrMealNotFound
	}

	return nil
}

func (r *Repo) Delete(ctx context.Context, id int, userID string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.meals.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("id", id))

	tag, err := r.db.Exec(
		ctx,
		`DELETE FROM meal WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrMealNotFound
	}
	return nil
}

func (r *Repo) Count(ctx context.Context, params MealParams) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.meals.count")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(ctx, `
		SELECT COUNT(*) FROM meal
			WHERE user_id = $1
			AND ($2::text = '' OR slot = $2);
	`,
		params.UserID, params.Slot,
	)
	if err != nil {
		return -1, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return -1, err
	}

	if rows.Next() {
		var count int
		if err := rows.Scan(&count); err == nil {
			return count, nil
		}
	}

	return -1, errors.New("unexpected error, failed to get meals count")
}

// GetDailyTotals sums calories and macros over all meals eaten on the
// given day, day boundaries taken in the location of the passed time.
func (r *Repo) GetDailyTotals(ctx context.Context, userID string, day time.Time) (_ *DailyTotals, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.meals.dailyTotals")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)
	span.SetAttributes(attribute.String("day", dayStart.Format("2006-01-02")))

	rows, err := r.db.Query(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(calories), 0),
			COALESCE(SUM(protein_g), 0),
			COALESCE(SUM(carbs_g), 0),
			COALESCE(SUM(fats_g), 0)
		FROM meal
			WHERE user_id = $1
			AND eaten_at >= $2
			AND eaten_at < $3;
	`,
		userID, dayStart, dayEnd,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if !rows.Next() {
		return nil, errors.New("unexpected error, failed to get daily totals")
	}

	totals := DailyTotals{
		Day: dayStart.Format("2006-01-02"),
	}
	if err := rows.Scan(
		&totals.Meals, &totals.Calories,
		&totals.ProteinG, &totals.CarbsG, &totals.FatsG,
	); err != nil {
		return nil, err
	}

	return &totals, nil
}

func (r *Repo) rows2meals(rows pgx.Rows) ([]Meal, error) {
	var listed []Meal
	for rows.Next() {
		var id int
		var userID string
		var slot string
		var description string
		var calories int
		var proteinG int
		var carbsG int
		var fatsG int
		var eatenAt time.Time
		var createdAt time.Time
		if err := rows.Scan(
			&id, &userID, &slot, &description,
			&calories, &proteinG, &carbsG, &fatsG,
			&eatenAt, &createdAt,
		); err != nil {
			return nil, err
		}

		listed = append(listed, Meal{
			ID:          id,
			UserID:      userID,
			Slot:        slot,
			Description: description,
			Calories:    calories,
			ProteinG:    proteinG,
			CarbsG:      carbsG,
			FatsG:       fatsG,
			EatenAt:     eatenAt,
			CreatedAt:   createdAt,
		})
	}

	if listed == nil {
		listed = make([]Meal, 0)
	}

	return listed, nil
}
