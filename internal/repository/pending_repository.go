package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"propwatch/internal/database"
	"propwatch/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Queryer is the subset both database.DB and database.Tx implement, so
// repository methods can run inside or outside a transaction.
type Queryer interface {
	Exec(ctx context.Context, query string, args ...any) (int64, error)
	Query(ctx context.Context, query string, args ...any) (database.Rows, error)
	QueryRow(ctx context.Context, query string, args ...any) database.Row
}

type PendingFilter struct {
	Status        domain.PendingStatus
	Source        string
	SavedSearchID *uuid.UUID
	Limit         int
	Offset        int
	// OldestFirst orders by discovery time ascending, the order the
	// scrape queue drains in. The review UI wants newest first.
	OldestFirst bool
}

type PendingRepository interface {
	InsertIfAbsent(ctx context.Context, item *domain.PendingItem) (bool, error)
	ExistsBySourceURL(ctx context.Context, sourceURL string) (bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.PendingItem, error)
	List(ctx context.Context, filter PendingFilter) ([]domain.PendingItem, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.PendingStatus, errorMessage *string, propertyID *uuid.UUID) error
	ResetErrors(ctx context.Context, searchID *uuid.UUID) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Stats(ctx context.Context) (domain.PendingStats, error)
}

type PostgresPendingRepository struct {
	db Queryer
}

func NewPostgresPendingRepository(db database.DB) *PostgresPendingRepository {
	return &PostgresPendingRepository{db: db}
}

// WithTx returns a copy bound to the given transaction.
func (r *PostgresPendingRepository) WithTx(tx database.Tx) *PostgresPendingRepository {
	return &PostgresPendingRepository{db: tx}
}

const pendingColumns = `id, saved_search_id, source_url, source, source_id,
	title, price, currency, thumbnail_url, location_preview,
	status, error_message, property_id, discovered_at, scraped_at, updated_at`

// InsertIfAbsent queues a discovered URL. The unique index on source_url
// makes rediscovery across searches a no-op; it reports whether the row
// was actually inserted.
func (r *PostgresPendingRepository) InsertIfAbsent(ctx context.Context, item *domain.PendingItem) (bool, error) {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	if item.Status == "" {
		item.Status = domain.PendingStatusPending
	}

	affected, err := r.db.Exec(ctx,
		`INSERT INTO pending_properties
		   (id, saved_search_id, source_url, source, source_id,
		    title, price, currency, thumbnail_url, location_preview, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 ON CONFLICT (source_url) DO NOTHING`,
		item.ID, item.SavedSearchID, item.SourceURL, item.Source, item.SourceID,
		item.Title, item.Price, item.Currency, item.ThumbnailURL, item.LocationPreview, item.Status,
	)
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (r *PostgresPendingRepository) ExistsBySourceURL(ctx context.Context, sourceURL string) (bool, error) {
	var exists bool
	row := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM pending_properties WHERE source_url = $1)`, sourceURL)
	if err := row.Scan(&exists); err != nil {
		if err == sql.ErrNoRows || errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return exists, nil
}

func (r *PostgresPendingRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.PendingItem, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+pendingColumns+` FROM pending_properties WHERE id = $1`, id)
	item, err := scanPending(row)
	if err != nil {
		if err == sql.ErrNoRows || errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return item, nil
}

func (r *PostgresPendingRepository) List(ctx context.Context, filter PendingFilter) ([]domain.PendingItem, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	if filter.Limit > 200 {
		filter.Limit = 200
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	where := []string{}
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Status != "" {
		where = append(where, "status = "+arg(string(filter.Status)))
	}
	if filter.Source != "" {
		where = append(where, "source = "+arg(filter.Source))
	}
	if filter.SavedSearchID != nil {
		where = append(where, "saved_search_id = "+arg(*filter.SavedSearchID))
	}

	query := `SELECT ` + pendingColumns + ` FROM pending_properties`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	order := " ORDER BY discovered_at DESC"
	if filter.OldestFirst {
		order = " ORDER BY discovered_at ASC"
	}
	query += order + " LIMIT " + arg(filter.Limit) + " OFFSET " + arg(filter.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.PendingItem, 0)
	for rows.Next() {
		item, err := scanPending(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateStatus moves an item through the review state machine. SCRAPED
// stamps scraped_at and links the created property.
func (r *PostgresPendingRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.PendingStatus, errorMessage *string, propertyID *uuid.UUID) error {
	if !status.Valid() {
		return fmt.Errorf("invalid pending status %q", status)
	}

	affected, err := r.db.Exec(ctx,
		`UPDATE pending_properties
		 SET status = $2,
		     error_message = $3,
		     property_id = COALESCE($4, property_id),
		     scraped_at = CASE WHEN $2 = 'SCRAPED' THEN NOW() ELSE scraped_at END,
		     updated_at = NOW()
		 WHERE id = $1`,
		id, string(status), errorMessage, propertyID,
	)
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ResetErrors requeues failed items so the next scrape pass retries them
// with a clean slate. A non-nil searchID limits the requeue to one saved
// search.
func (r *PostgresPendingRepository) ResetErrors(ctx context.Context, searchID *uuid.UUID) (int64, error) {
	query := `UPDATE pending_properties
		 SET status = 'PENDING', error_message = NULL, updated_at = NOW()
		 WHERE status = 'ERROR'`
	args := []any{}
	if searchID != nil {
		query += ` AND saved_search_id = $1`
		args = append(args, *searchID)
	}
	return r.db.Exec(ctx, query, args...)
}

func (r *PostgresPendingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	affected, err := r.db.Exec(ctx, `DELETE FROM pending_properties WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PostgresPendingRepository) Stats(ctx context.Context) (domain.PendingStats, error) {
	var s domain.PendingStats
	row := r.db.QueryRow(ctx,
		`SELECT COUNT(*),
		        COUNT(*) FILTER (WHERE status = 'PENDING'),
		        COUNT(*) FILTER (WHERE status = 'SCRAPED'),
		        COUNT(*) FILTER (WHERE status = 'SKIPPED'),
		        COUNT(*) FILTER (WHERE status = 'ERROR'),
		        COUNT(*) FILTER (WHERE status = 'DUPLICATE')
		 FROM pending_properties`)
	if err := row.Scan(&s.Total, &s.Pending, &s.Scraped, &s.Skipped, &s.Errors, &s.Duplicate); err != nil {
		return domain.PendingStats{}, err
	}
	return s, nil
}

func scanPending(row database.Row) (*domain.PendingItem, error) {
	var item domain.PendingItem
	var status string
	if err := row.Scan(
		&item.ID, &item.SavedSearchID, &item.SourceURL, &item.Source, &item.SourceID,
		&item.Title, &item.Price, &item.Currency, &item.ThumbnailURL, &item.LocationPreview,
		&status, &item.ErrorMessage, &item.PropertyID,
		&item.DiscoveredAt, &item.ScrapedAt, &item.UpdatedAt,
	); err != nil {
		return nil, err
	}
	item.Status = domain.PendingStatus(status)
	return &item, nil
}
