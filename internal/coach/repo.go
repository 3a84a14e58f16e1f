package coach

import (
	"context"
	"fmt"
	"time"

	"github.com/fitmate/backend/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

func (r *Repo) Add(ctx context.Context, message ChatMessage) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.coach.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("message.sender", message.Sender))
	span.SetAttributes(attribute.String("message.context", message.Context))

	_, err = r.db.Exec(
		ctx, `
			INSERT INTO chat_message (id, user_id, sender, context, message, created_at)
			VALUES ($1, $2, $3, $4, $5, $6);`,
		message.ID, message.UserID, message.Sender,
		message.Context, message.Message, message.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert chat message: %w", err)
	}

	return nil
}

// ListForUser returns the chat history ordered oldest first. A limit of
// zero returns the complete history.
func (r *Repo) ListForUser(ctx context.Context, userID string, limit int) (_ []ChatMessage, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.coach.listForUser")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("limit", limit))

	limitClause := ""
	if limit > 0 {
		limitClause = fmt.Sprintf("LIMIT %d", limit)
	}

	query := fmt.Sprintf(`
		SELECT
			id, user_id, sender, context, message, created_at
		FROM chat_message
		WHERE user_id = $1
		ORDER BY created_at ASC
		%s;
	`, limitClause)

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query chat messages: %w", err)
	}
	defer rows.Close()

	return r.rows2messages(rows)
}

// DeleteAllForUser wipes the user's chat history and reports how many
// messages were removed.
func (r *Repo) DeleteAllForUser(ctx context.Context, userID string) (deleted int64, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.coach.deleteAllForUser")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	cmdTag, err := r.db.Exec(
		ctx,
		`DELETE FROM chat_message WHERE user_id = $1;`,
		userID,
	)
	if err != nil {
		return 0, fmt.Errorf("delete chat messages: %w", err)
	}

	span.SetAttributes(attribute.Int64("deleted", cmdTag.RowsAffected()))
	return cmdTag.RowsAffected(), nil
}

func (r *Repo) rows2messages(rows pgx.Rows) ([]ChatMessage, error) {
	var messages []ChatMessage
	for rows.Next() {
		var id string
		var userID string
		var sender string
		var chatContext string
		var message string
		var createdAt time.Time
		if err := rows.Scan(&id, &userID, &sender, &chatContext, &message, &createdAt); err != nil {
			return nil, err
		}

		messages = append(messages, ChatMessage{
			ID:        id,
			UserID:    userID,
			Sender:    sender,
			Context:   chatContext,
			Message:   message,
			CreatedAt: createdAt,
		})
	}

	if messages == nil {
		messages = make([]ChatMessage, 0)
	}

	return messages, nil
}
