package repository

import (
	"context"
	"database/sql"
	"errors"

	"propwatch/internal/database"
	"propwatch/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type SavedSearchRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.SavedSearch, error)
	List(ctx context.Context, includeInactive bool) ([]domain.SavedSearch, error)
	ListActive(ctx context.Context) ([]domain.SavedSearch, error)
	Create(ctx context.Context, s *domain.SavedSearch) error
	Update(ctx context.Context, s *domain.SavedSearch) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	Delete(ctx context.Context, id uuid.UUID) error
	RecordExecution(ctx context.Context, id uuid.UUID, propertiesFound int) error
}

type PostgresSavedSearchRepository struct {
	db database.DB
}

func NewPostgresSavedSearchRepository(db database.DB) *PostgresSavedSearchRepository {
	return &PostgresSavedSearchRepository{db: db}
}

const savedSearchColumns = `id, user_id, name, description, portals,
	property_type, operation_type, city, province, neighborhoods,
	min_price, max_price, currency, min_area, max_area,
	min_bedrooms, max_bedrooms, min_bathrooms,
	auto_scrape, is_active, last_executed_at, total_executions,
	total_properties_found, created_at, updated_at`

func (r *PostgresSavedSearchRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.SavedSearch, error) {
	row := r.db.QueryRow(ctx, `SELECT `+savedSearchColumns+` FROM saved_searches WHERE id = $1`, id)
	s, err := scanSavedSearch(row)
	if err != nil {
		if err == sql.ErrNoRows || errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return s, nil
}

func (r *PostgresSavedSearchRepository) List(ctx context.Context, includeInactive bool) ([]domain.SavedSearch, error) {
	query := `SELECT ` + savedSearchColumns + ` FROM saved_searches`
	if !includeInactive {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.SavedSearch, 0)
	for rows.Next() {
		s, err := scanSavedSearch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresSavedSearchRepository) ListActive(ctx context.Context) ([]domain.SavedSearch, error) {
	return r.List(ctx, false)
}

func (r *PostgresSavedSearchRepository) Create(ctx context.Context, s *domain.SavedSearch) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.Currency == "" {
		s.Currency = domain.CurrencyUSD
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO saved_searches
		   (id, user_id, name, description, portals,
		    property_type, operation_type, city, province, neighborhoods,
		    min_price, max_price, currency, min_area, max_area,
		    min_bedrooms, max_bedrooms, min_bathrooms,
		    auto_scrape, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
		         $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`,
		s.ID, s.UserID, s.Name, s.Description, s.Portals,
		s.PropertyType, s.OperationType, s.City, s.Province, s.Neighborhoods,
		s.MinPrice, s.MaxPrice, s.Currency, s.MinArea, s.MaxArea,
		s.MinBedrooms, s.MaxBedrooms, s.MinBathrooms,
		s.AutoScrape, s.IsActive,
	)
	return err
}

func (r *PostgresSavedSearchRepository) Update(ctx context.Context, s *domain.SavedSearch) error {
	affected, err := r.db.Exec(ctx,
		`UPDATE saved_searches
		 SET name = $2, description = $3, portals = $4,
		     property_type = $5, operation_type = $6,
		     city = $7, province = $8, neighborhoods = $9,
		     min_price = $10, max_price = $11, currency = $12,
		     min_area = $13, max_area = $14,
		     min_bedrooms = $15, max_bedrooms = $16, min_bathrooms = $17,
		     auto_scrape = $18, is_active = $19, updated_at = NOW()
		 WHERE id = $1`,
		s.ID, s.Name, s.Description, s.Portals,
		s.PropertyType, s.OperationType,
		s.City, s.Province, s.Neighborhoods,
		s.MinPrice, s.MaxPrice, s.Currency,
		s.MinArea, s.MaxArea,
		s.MinBedrooms, s.MaxBedrooms, s.MinBathrooms,
		s.AutoScrape, s.IsActive,
	)
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PostgresSavedSearchRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	affected, err := r.db.Exec(ctx,
		`UPDATE saved_searches SET is_active = $2, updated_at = NOW() WHERE id = $1`,
		id, active)
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PostgresSavedSearchRepository) Delete(ctx context.Context, id uuid.UUID) error {
	affected, err := r.db.Exec(ctx, `DELETE FROM saved_searches WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// RecordExecution bumps the run counters once per completed run.
func (r *PostgresSavedSearchRepository) RecordExecution(ctx context.Context, id uuid.UUID, propertiesFound int) error {
	affected, err := r.db.Exec(ctx,
		`UPDATE saved_searches
		 SET last_executed_at = NOW(),
		     total_executions = total_executions + 1,
		     total_properties_found = total_properties_found + $2,
		     updated_at = NOW()
		 WHERE id = $1`,
		id, propertiesFound)
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanSavedSearch(row database.Row) (*domain.SavedSearch, error) {
	var s domain.SavedSearch
	if err := row.Scan(
		&s.ID, &s.UserID, &s.Name, &s.Description, &s.Portals,
		&s.PropertyType, &s.OperationType, &s.City, &s.Province, &s.Neighborhoods,
		&s.MinPrice, &s.MaxPrice, &s.Currency, &s.MinArea, &s.MaxArea,
		&s.MinBedrooms, &s.MaxBedrooms, &s.MinBathrooms,
		&s.AutoScrape, &s.IsActive, &s.LastExecutedAt, &s.TotalExecutions,
		&s.TotalPropertiesFound, &s.CreatedAt, &s.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &s, nil
}
