package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/civicdesk/complaint-service/internal/domain"
)

// ProviderFilter defines query params for provider listing.
type ProviderFilter struct {
	Department *domain.Department
	Active     *bool
	Limit      int
	Offset     int
}

// ProviderRepository handles persistence for field providers.
type ProviderRepository interface {
	Create(ctx context.Context, provider *domain.Provider) error
	Update(ctx context.Context, provider *domain.Provider) error
	GetByID(ctx context.Context, id string) (*domain.Provider, error)
	GetByEmail(ctx context.Context, email string) (*domain.Provider, error)
	List(ctx context.Context, filter ProviderFilter) ([]domain.Provider, error)
	ListWithLoads(ctx context.Context, dept domain.Department) ([]domain.ProviderLoad, error)
}

type providerRepository struct {
	pool *pgxpool.Pool
}

// NewProviderRepository instantiates the repository.
func NewProviderRepository(pool *pgxpool.Pool) ProviderRepository {
	return &providerRepository{pool: pool}
}

func (r *providerRepository) Create(ctx context.Context, provider *domain.Provider) error {
	const query = `
        INSERT INTO providers (name, email, password_hash, department, active_flag)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		provider.Name,
		provider.Email,
		provider.PasswordHash,
		provider.Department,
		provider.Active,
	).Scan(&provider.ID, &provider.CreatedAt, &provider.UpdatedAt)
}

func (r *providerRepository) Update(ctx context.Context, provider *domain.Provider) error {
	const query = `
        UPDATE providers
        SET name=$1, email=$2, password_hash=$3, department=$4, active_flag=$5, updated_at=NOW()
        WHERE id=$6`
	cmd, err := r.pool.Exec(ctx, query,
		provider.Name,
		provider.Email,
		provider.PasswordHash,
		provider.Department,
		provider.Active,
		provider.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *providerRepository) GetByID(ctx context.Context, id string) (*domain.Provider, error) {
	const query = `
        SELECT id, name, email, password_hash, department, active_flag, created_at, updated_at
        FROM providers WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *providerRepository) GetByEmail(ctx context.Context, email string) (*domain.Provider, error) {
	const query = `
        SELECT id, name, email, password_hash, department, active_flag, created_at, updated_at
        FROM providers WHERE email=$1`
	return r.fetchSingle(ctx, query, email)
}

func (r *providerRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Provider, error) {
	var provider domain.Provider
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&provider.ID,
		&provider.Name,
		&provider.Email,
		&provider.PasswordHash,
		&provider.Department,
		&provider.Active,
		&provider.CreatedAt,
		&provider.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &provider, nil
}

func (r *providerRepository) List(ctx context.Context, filter ProviderFilter) ([]domain.Provider, error) {
	query := `
        SELECT id, name, email, password_hash, department, active_flag, created_at, updated_at
        FROM providers`
	args := []any{}
	clauses := []string{}

	if filter.Department != nil {
		args = append(args, *filter.Department)
		clauses = append(clauses, fmt.Sprintf("department=$%d", len(args)))
	}
	if filter.Active != nil {
		args = append(args, *filter.Active)
		clauses = append(clauses, fmt.Sprintf("active_flag=$%d", len(args)))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}

	query += " ORDER BY created_at ASC"
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	query += fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Provider
	for rows.Next() {
		var provider domain.Provider
		if err := rows.Scan(
			&provider.ID,
			&provider.Name,
			&provider.Email,
			&provider.PasswordHash,
			&provider.Department,
			&provider.Active,
			&provider.CreatedAt,
			&provider.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, provider)
	}
	return result, rows.Err()
}

// ListWithLoads returns every active provider of a department with their
// current active complaint count, in registration order. The balancer relies
// on that order for deterministic tie-breaking.
func (r *providerRepository) ListWithLoads(ctx context.Context, dept domain.Department) ([]domain.ProviderLoad, error) {
	const query = `
        SELECT p.id, p.name, p.email, p.password_hash, p.department, p.active_flag,
               p.created_at, p.updated_at,
               COUNT(c.id) FILTER (WHERE c.status IN ($2,$3,$4)) AS active_load
        FROM providers p
        LEFT JOIN complaints c ON c.provider_id = p.id
        WHERE p.department=$1 AND p.active_flag=true
        GROUP BY p.id
        ORDER BY p.created_at ASC`
	rows, err := r.pool.Query(ctx, query, dept,
		domain.StatusRegistered, domain.StatusAccepted, domain.StatusWorkingOn)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ProviderLoad
	for rows.Next() {
		var entry domain.ProviderLoad
		if err := rows.Scan(
			&entry.Provider.ID,
			&entry.Provider.Name,
			&entry.Provider.Email,
			&entry.Provider.PasswordHash,
			&entry.Provider.Department,
			&entry.Provider.Active,
			&entry.Provider.CreatedAt,
			&entry.Provider.UpdatedAt,
			&entry.Load,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
