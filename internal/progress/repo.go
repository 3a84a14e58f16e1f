package progress

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/fitmate/backend/internal/telemetry/tracing"
)

var ErrEntryNotFound = errors.New("progress entry not found")

type EntryParams struct {
	UserID string
	Kind   *EntryKind
	From   *time.Time
	To     *time.Time
}

type ListParams struct {
	EntryParams
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

func (r *Repo) Add(ctx context.Context, entry Entry) (_ *Entry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.progress.add")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()
	span.SetAttributes(attribute.String("entry.kind", entry.Kind.String()))

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
				err = fmt.Errorf("failed to rollback transaction: %w: %w", rollbackErr, err)
			}
		} else {
			err = tx.Commit(ctx)
		}
	}()

	err = tx.QueryRow(ctx, `
		INSERT INTO progress_entry (user_id, kind, weight_kg, body_fat_pct, notes, recorded_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`,
		entry.UserID,
		entry.Kind,
		entry.WeightKG,
		entry.BodyFatPct,
		entry.Notes,
		entry.RecordedAt,
		entry.CreatedAt,
	).Scan(&entry.ID)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// List returns the requested page of a user's progress entries, newest first,
// optionally narrowed down by kind and a recorded-at window.
func (r *Repo) List(ctx context.Context, params ListParams) (_ []Entry, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.progress.list")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()
	if params.Kind != nil {
		span.SetAttributes(attribute.String("kind", params.Kind.String()))
	}
	if params.From != nil {
		span.SetAttributes(attribute.String("from", params.From.String()))
	}
	if params.To != nil {
		span.SetAttributes(attribute.String("to", params.To.String()))
	}

	if params.Page < 1 {
		return nil, errors.New("page must be greater than 0")
	}
	if params.Size < 1 {
		return nil, errors.New("size must be greater than 0")
	}

	entries := make([]Entry, 0)
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, kind, weight_kg, body_fat_pct, notes, recorded_at, created_at
		FROM progress_entry
		WHERE user_id = $1
		  AND ($2::text IS NULL OR kind = $2)
		  AND ($3::timestamptz IS NULL OR recorded_at >= $3)
		  AND ($4::timestamptz IS NULL OR recorded_at <= $4)
		ORDER BY recorded_at DESC
		LIMIT $5 OFFSET $6;
	`,
		params.UserID,
		params.Kind,
		params.From, params.To,
		params.Size, params.Size*(params.Page-1),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	for rows.Next() {
		var entry Entry
		if err := rows.Scan(
			&entry.ID, &entry.UserID, &entry.Kind,
			&entry.WeightKG, &entry.BodyFatPct, &entry.Notes,
			&entry.RecordedAt, &entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

func (r *Repo) Count(ctx context.Context, params EntryParams) (int, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.progress.count")
	defer span.End()

	rows, err := r.db.Query(ctx, `
		SELECT COUNT(*) FROM progress_entry
		WHERE user_id = $1
		  AND ($2::text IS NULL OR kind = $2)
		  AND ($3::timestamptz IS NULL OR recorded_at >= $3)
		  AND ($4::timestamptz IS NULL OR recorded_at <= $4);
	`,
		params.UserID,
		params.Kind,
		params.From, params.To,
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

	return -1, errors.New("unexpected error, failed to get progress entries count")
}

// WeightHistory returns the weight readings of a user, oldest first, optionally
// only those recorded at or after `since`.
func (r *Repo) WeightHistory(ctx context.Context, userID string, since *time.Time) (_ []WeightPoint, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.progress.weightHistory")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()
	if since != nil {
		span.SetAttributes(attribute.String("since", since.String()))
	}

	points := make([]WeightPoint, 0)
	rows, err := r.db.Query(ctx, `
		SELECT weight_kg, recorded_at
		FROM progress_entry
		WHERE user_id = $1 AND kind = 'weight'
		  AND ($2::timestamptz IS NULL OR recorded_at >= $2)
		ORDER BY recorded_at ASC;
	`, userID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	for rows.Next() {
		var point WeightPoint
		if err := rows.Scan(&point.WeightKG, &point.RecordedAt); err != nil {
			return nil, err
		}
		points = append(points, point)
	}

	return points, nil
}

func (r *Repo) Delete(ctx context.Context, id int, userID string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.progress.delete")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()
	span.SetAttributes(attribute.Int("entry.id", id))

	tag, err := r.db.Exec(ctx, `
		DELETE FROM progress_entry
		WHERE id = $1 AND user_id = $2
	`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrEntryNotFound
	}
	return nil
}
