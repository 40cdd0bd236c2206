package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/civicdesk/complaint-service/internal/domain"
)

// ComplaintFilter captures listing parameters for dashboards and queues.
type ComplaintFilter struct {
	SubmitterID *string
	Department  *domain.Department
	ProviderID  *string
	Area        *string
	Statuses    []domain.ComplaintStatus
	Priorities  []domain.ComplaintPriority
	Limit       int
	Offset      int
}

// TransitionParams describes a conditional status update. The update only
// lands when the complaint still holds the expected status and assignee; with
// EnforceCapacity set it additionally requires the provider to hold no other
// complaint in an active accepted-or-later state. That single statement makes
// the capacity check atomic with the status write.
type TransitionParams struct {
	ComplaintID     string
	From            domain.ComplaintStatus
	To              domain.ComplaintStatus
	ProviderID      string
	EnforceCapacity bool
	ResolutionNote  string
	MarkResolved    bool
}

// ComplaintRepository encapsulates complaint persistence.
type ComplaintRepository interface {
	Create(ctx context.Context, complaint *domain.Complaint) error
	Update(ctx context.Context, complaint *domain.Complaint) error
	GetByID(ctx context.Context, id string) (*domain.Complaint, error)
	GetByTicketID(ctx context.Context, ticketID string) (*domain.Complaint, error)
	ListWithFilter(ctx context.Context, filter ComplaintFilter) ([]domain.Complaint, error)
	ListOpenByDepartment(ctx context.Context, dept domain.Department) ([]domain.Complaint, error)
	CountActiveByProvider(ctx context.Context, providerID string) (int, error)
	TransitionStatus(ctx context.Context, params TransitionParams) (bool, error)
	AttachRating(ctx context.Context, complaintID string, rating int) (bool, error)
	CountByStatus(ctx context.Context, dept *domain.Department) (map[domain.ComplaintStatus]int64, error)
}

type complaintRepository struct {
	pool *pgxpool.Pool
}

// NewComplaintRepository instantiates the repository.
func NewComplaintRepository(pool *pgxpool.Pool) ComplaintRepository {
	return &complaintRepository{pool: pool}
}

const complaintColumns = `id, ticket_id, submitter_id, department, description, photo_ref,
        latitude, longitude, address, area, status, priority,
        provider_id, provider_name, is_duplicate, duplicate_of, integrity_remarks,
        rating, resolution_note, created_at, updated_at, resolved_at`

func (r *complaintRepository) Create(ctx context.Context, complaint *domain.Complaint) error {
	const query = `
        INSERT INTO complaints (ticket_id, submitter_id, department, description, photo_ref,
            latitude, longitude, address, area, status, priority,
            provider_id, provider_name, is_duplicate, duplicate_of, integrity_remarks)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		complaint.TicketID,
		complaint.SubmitterID,
		complaint.Department,
		complaint.Description,
		complaint.PhotoRef,
		complaint.Latitude,
		complaint.Longitude,
		complaint.Address,
		complaint.Area,
		complaint.Status,
		complaint.Priority,
		complaint.ProviderID,
		complaint.ProviderName,
		complaint.IsDuplicate,
		complaint.DuplicateOf,
		complaint.IntegrityRemarks,
	).Scan(&complaint.ID, &complaint.CreatedAt, &complaint.UpdatedAt)
}

func (r *complaintRepository) Update(ctx context.Context, complaint *domain.Complaint) error {
	const query = `
        UPDATE complaints SET department=$1, description=$2, address=$3, area=$4,
            status=$5, priority=$6, provider_id=$7, provider_name=$8,
            resolution_note=$9, resolved_at=$10, updated_at=NOW()
        WHERE id=$11`
	cmd, err := r.pool.Exec(ctx, query,
		complaint.Department,
		complaint.Description,
		complaint.Address,
		complaint.Area,
		complaint.Status,
		complaint.Priority,
		complaint.ProviderID,
		complaint.ProviderName,
		complaint.ResolutionNote,
		complaint.ResolvedAt,
		complaint.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *complaintRepository) GetByID(ctx context.Context, id string) (*domain.Complaint, error) {
	query := fmt.Sprintf(`SELECT %s FROM complaints WHERE id=$1`, complaintColumns)
	return r.fetchSingle(ctx, query, id)
}

func (r *complaintRepository) GetByTicketID(ctx context.Context, ticketID string) (*domain.Complaint, error) {
	query := fmt.Sprintf(`SELECT %s FROM complaints WHERE ticket_id=$1`, complaintColumns)
	return r.fetchSingle(ctx, query, ticketID)
}

func (r *complaintRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Complaint, error) {
	var complaint domain.Complaint
	if err := scanComplaint(r.pool.QueryRow(ctx, query, arg), &complaint); err != nil {
		return nil, err
	}
	return &complaint, nil
}

func (r *complaintRepository) ListWithFilter(ctx context.Context, filter ComplaintFilter) ([]domain.Complaint, error) {
	base := fmt.Sprintf(`SELECT %s FROM complaints`, complaintColumns)
	clauses := []string{"1=1"}
	args := []any{}

	if filter.SubmitterID != nil {
		args = append(args, *filter.SubmitterID)
		clauses = append(clauses, fmt.Sprintf("submitter_id=$%d", len(args)))
	}
	if filter.Department != nil {
		args = append(args, *filter.Department)
		clauses = append(clauses, fmt.Sprintf("department=$%d", len(args)))
	}
	if filter.ProviderID != nil {
		args = append(args, *filter.ProviderID)
		clauses = append(clauses, fmt.Sprintf("provider_id=$%d", len(args)))
	}
	if filter.Area != nil {
		args = append(args, *filter.Area)
		clauses = append(clauses, fmt.Sprintf("area=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, priority := range filter.Priorities {
			args = append(args, priority)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("priority IN (%s)", strings.Join(placeholders, ",")))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanComplaints(rows)
}

// ListOpenByDepartment returns non-rejected complaints of a department, newest
// first. This is the candidate pool for the integrity filter.
func (r *complaintRepository) ListOpenByDepartment(ctx context.Context, dept domain.Department) ([]domain.Complaint, error) {
	query := fmt.Sprintf(`SELECT %s FROM complaints
        WHERE department=$1 AND status<>$2
        ORDER BY created_at DESC LIMIT 500`, complaintColumns)
	rows, err := r.pool.Query(ctx, query, dept, domain.StatusRejected)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanComplaints(rows)
}

func (r *complaintRepository) CountActiveByProvider(ctx context.Context, providerID string) (int, error) {
	const query = `
        SELECT COUNT(*) FROM complaints
        WHERE provider_id=$1 AND status IN ($2,$3)`
	var count int
	err := r.pool.QueryRow(ctx, query, providerID, domain.StatusAccepted, domain.StatusWorkingOn).Scan(&count)
	return count, err
}

func (r *complaintRepository) TransitionStatus(ctx context.Context, params TransitionParams) (bool, error) {
	const query = `
        UPDATE complaints SET status=$1,
            resolution_note=CASE WHEN $2<>'' THEN $2 ELSE resolution_note END,
            resolved_at=CASE WHEN $3 THEN NOW() ELSE resolved_at END,
            updated_at=NOW()
        WHERE id=$4 AND status=$5 AND provider_id=$6
          AND ($7=false OR NOT EXISTS (
              SELECT 1 FROM complaints other
              WHERE other.provider_id=$6 AND other.id<>$4
                AND other.status IN ($8,$9)))`
	cmd, err := r.pool.Exec(ctx, query,
		params.To,
		params.ResolutionNote,
		params.MarkResolved,
		params.ComplaintID,
		params.From,
		params.ProviderID,
		params.EnforceCapacity,
		domain.StatusAccepted,
		domain.StatusWorkingOn,
	)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

// AttachRating sets the rating once: only on a completed complaint with no
// rating yet. Returns false when the precondition does not hold.
func (r *complaintRepository) AttachRating(ctx context.Context, complaintID string, rating int) (bool, error) {
	const query = `
        UPDATE complaints SET rating=$1, updated_at=NOW()
        WHERE id=$2 AND status=$3 AND rating IS NULL`
	cmd, err := r.pool.Exec(ctx, query, rating, complaintID, domain.StatusCompleted)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *complaintRepository) CountByStatus(ctx context.Context, dept *domain.Department) (map[domain.ComplaintStatus]int64, error) {
	query := `SELECT status, COUNT(*) FROM complaints`
	args := []any{}
	if dept != nil {
		args = append(args, *dept)
		query += " WHERE department=$1"
	}
	query += " GROUP BY status"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[domain.ComplaintStatus]int64{}
	for rows.Next() {
		var status domain.ComplaintStatus
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanComplaint(row rowScanner, complaint *domain.Complaint) error {
	return row.Scan(
		&complaint.ID,
		&complaint.TicketID,
		&complaint.SubmitterID,
		&complaint.Department,
		&complaint.Description,
		&complaint.PhotoRef,
		&complaint.Latitude,
		&complaint.Longitude,
		&complaint.Address,
		&complaint.Area,
		&complaint.Status,
		&complaint.Priority,
		&complaint.ProviderID,
		&complaint.ProviderName,
		&complaint.IsDuplicate,
		&complaint.DuplicateOf,
		&complaint.IntegrityRemarks,
		&complaint.Rating,
		&complaint.ResolutionNote,
		&complaint.CreatedAt,
		&complaint.UpdatedAt,
		&complaint.ResolvedAt,
	)
}

func scanComplaints(rows pgx.Rows) ([]domain.Complaint, error) {
	var result []domain.Complaint
	for rows.Next() {
		var complaint domain.Complaint
		if err := scanComplaint(rows, &complaint); err != nil {
			return nil, err
		}
		result = append(result, complaint)
	}
	return result, rows.Err()
}
