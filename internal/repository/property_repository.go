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

type PropertyFilter struct {
	Source        string
	OperationType string
	City          string
	Neighborhood  string
	MinPrice      *float64
	MaxPrice      *float64
	Currency      string
	Limit         int
	Offset        int
}

type PropertyRepository interface {
	ExistsBySourceURL(ctx context.Context, sourceURL string) (bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Property, error)
	List(ctx context.Context, filter PropertyFilter) ([]domain.Property, error)
	Insert(ctx context.Context, p *domain.Property) error
	SetCoordinates(ctx context.Context, id uuid.UUID, lat, lng float64, approx bool) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type PostgresPropertyRepository struct {
	db Queryer
}

func NewPostgresPropertyRepository(db database.DB) *PostgresPropertyRepository {
	return &PostgresPropertyRepository{db: db}
}

// WithTx returns a copy bound to the given transaction, so imports can
// run each card inside its own savepoint.
func (r *PostgresPropertyRepository) WithTx(tx database.Tx) *PostgresPropertyRepository {
	return &PostgresPropertyRepository{db: tx}
}

func (r *PostgresPropertyRepository) ExistsBySourceURL(ctx context.Context, sourceURL string) (bool, error) {
	var exists bool
	row := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM properties WHERE source_url = $1)`, sourceURL)
	if err := row.Scan(&exists); err != nil {
		if err == sql.ErrNoRows || errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return exists, nil
}

const propertyColumns = `id, source, source_url, source_id,
	property_type, operation_type, title, description,
	price, currency, price_per_sqm,
	latitude, longitude, approx_coords,
	address, street, street_number, neighborhood, city, province,
	covered_area, total_area,
	floor_level, bedrooms, bathrooms, parking_spaces, amenities,
	real_estate_agency, status, scraped_at, created_at, updated_at`

// Insert stores a property and its gallery in one transaction, so a
// failed image insert does not leave a row without its gallery. Inside
// an existing transaction the caller owns the boundary. The unique
// index on source_url surfaces races between concurrent runs as
// domain.ErrDuplicateSourceURL.
func (r *PostgresPropertyRepository) Insert(ctx context.Context, p *domain.Property) error {
	if db, ok := r.db.(database.DB); ok {
		tx, err := db.Begin(ctx)
		if err != nil {
			return err
		}
		if err := insertProperty(ctx, tx, p); err != nil {
			_ = tx.Rollback(ctx)
			return err
		}
		return tx.Commit(ctx)
	}
	return insertProperty(ctx, r.db, p)
}

func insertProperty(ctx context.Context, q Queryer, p *domain.Property) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Status == "" {
		p.Status = "ACTIVE"
	}

	_, err := q.Exec(ctx,
		`INSERT INTO properties
		   (id, source, source_url, source_id,
		    property_type, operation_type, title, description,
		    price, currency, price_per_sqm,
		    latitude, longitude, approx_coords,
		    address, street, street_number, neighborhood, city, province,
		    covered_area, total_area,
		    floor_level, bedrooms, bathrooms, parking_spaces, amenities,
		    real_estate_agency, status, scraped_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
		         $11, $12, $13, $14, $15, $16, $17, $18, $19, $20,
		         $21, $22, $23, $24, $25, $26, $27, $28, $29, NOW())`,
		p.ID, p.Source, p.SourceURL, p.SourceID,
		p.PropertyType, p.OperationType, p.Title, p.Description,
		p.Price, p.Currency, p.PricePerSqm,
		p.Latitude, p.Longitude, p.ApproxCoords,
		p.Address, p.Street, p.StreetNumber, p.Neighborhood, p.City, p.Province,
		p.CoveredArea, p.TotalArea,
		p.FloorLevel, p.Bedrooms, p.Bathrooms, p.ParkingSpaces, p.Amenities,
		p.RealEstateAgency, p.Status,
	)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateSourceURL, derefStr(p.SourceURL))
		}
		return err
	}

	for i := range p.Images {
		img := &p.Images[i]
		if img.ID == uuid.Nil {
			img.ID = uuid.New()
		}
		img.PropertyID = p.ID
		if _, err := q.Exec(ctx,
			`INSERT INTO property_images (id, property_id, url, is_primary, display_order)
			 VALUES ($1, $2, $3, $4, $5)`,
			img.ID, img.PropertyID, img.URL, img.IsPrimary, img.Order,
		); err != nil {
			return err
		}
	}
	return nil
}

func (r *PostgresPropertyRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Property, error) {
	row := r.db.QueryRow(ctx, `SELECT `+propertyColumns+` FROM properties WHERE id = $1`, id)
	p, err := scanProperty(row)
	if err != nil {
		if err == sql.ErrNoRows || errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, property_id, url, is_primary, display_order
		 FROM property_images WHERE property_id = $1 ORDER BY display_order`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var img domain.PropertyImage
		if err := rows.Scan(&img.ID, &img.PropertyID, &img.URL, &img.IsPrimary, &img.Order); err != nil {
			return nil, err
		}
		p.Images = append(p.Images, img)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *PostgresPropertyRepository) List(ctx context.Context, filter PropertyFilter) ([]domain.Property, error) {
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

	if filter.Source != "" {
		where = append(where, "source = "+arg(filter.Source))
	}
	if filter.OperationType != "" {
		where = append(where, "operation_type = "+arg(filter.OperationType))
	}
	if filter.City != "" {
		where = append(where, "city ILIKE "+arg(filter.City))
	}
	if filter.Neighborhood != "" {
		where = append(where, "neighborhood ILIKE "+arg(filter.Neighborhood))
	}
	if filter.Currency != "" {
		where = append(where, "currency = "+arg(filter.Currency))
	}
	if filter.MinPrice != nil {
		where = append(where, "price >= "+arg(*filter.MinPrice))
	}
	if filter.MaxPrice != nil {
		where = append(where, "price <= "+arg(*filter.MaxPrice))
	}

	query := `SELECT ` + propertyColumns + ` FROM properties`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC LIMIT " + arg(filter.Limit) + " OFFSET " + arg(filter.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Property, 0)
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresPropertyRepository) SetCoordinates(ctx context.Context, id uuid.UUID, lat, lng float64, approx bool) error {
	affected, err := r.db.Exec(ctx,
		`UPDATE properties
		 SET latitude = $2, longitude = $3, approx_coords = $4, updated_at = NOW()
		 WHERE id = $1`,
		id, lat, lng, approx)
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PostgresPropertyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	affected, err := r.db.Exec(ctx, `DELETE FROM properties WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanProperty(row database.Row) (*domain.Property, error) {
	var p domain.Property
	if err := row.Scan(
		&p.ID, &p.Source, &p.SourceURL, &p.SourceID,
		&p.PropertyType, &p.OperationType, &p.Title, &p.Description,
		&p.Price, &p.Currency, &p.PricePerSqm,
		&p.Latitude, &p.Longitude, &p.ApproxCoords,
		&p.Address, &p.Street, &p.StreetNumber, &p.Neighborhood, &p.City, &p.Province,
		&p.CoveredArea, &p.TotalArea,
		&p.FloorLevel, &p.Bedrooms, &p.Bathrooms, &p.ParkingSpaces, &p.Amenities,
		&p.RealEstateAgency, &p.Status, &p.ScrapedAt, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &p, nil
}

func derefStr(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
