package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/civicdesk/complaint-service/internal/domain"
)

// StatusEventRepository stores the append-only audit trail. Events are never
// updated or deleted.
type StatusEventRepository interface {
	Append(ctx context.Context, event *domain.StatusEvent) error
	ListByComplaint(ctx context.Context, complaintID string) ([]domain.StatusEvent, error)
}

type statusEventRepository struct {
	pool *pgxpool.Pool
}

// NewStatusEventRepository builds the repository.
func NewStatusEventRepository(pool *pgxpool.Pool) StatusEventRepository {
	return &statusEventRepository{pool: pool}
}

func (r *statusEventRepository) Append(ctx context.Context, event *domain.StatusEvent) error {
	const query = `
        INSERT INTO status_events (complaint_id, status, actor_type, actor_id, note)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		event.ComplaintID,
		event.Status,
		event.ActorType,
		event.ActorID,
		event.Note,
	).Scan(&event.ID, &event.CreatedAt)
}

func (r *statusEventRepository) ListByComplaint(ctx context.Context, complaintID string) ([]domain.StatusEvent, error) {
	const query = `
        SELECT id, complaint_id, status, actor_type, actor_id, note, created_at
        FROM status_events WHERE complaint_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, complaintID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.StatusEvent
	for rows.Next() {
		var event domain.StatusEvent
		if err := rows.Scan(
			&event.ID,
			&event.ComplaintID,
			&event.Status,
			&event.ActorType,
			&event.ActorID,
			&event.Note,
			&event.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, event)
	}
	return result, rows.Err()
}
