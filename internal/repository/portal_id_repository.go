package repository

import (
	"context"
	"time"

	"propwatch/internal/database"
	"propwatch/internal/domain"
	"propwatch/internal/scrape"

	"github.com/google/uuid"
)

// PortalLocation is one verified Remax location identifier. Name is the
// lowercased lookup key; DisplayName is what the portal expects on the
// wire.
type PortalLocation struct {
	ID             uuid.UUID
	Name           string
	RemaxID        string
	DisplayName    string
	ParentLocation *string
	VerifiedAt     time.Time
	CreatedAt      time.Time
}

// PortalPropertyType maps a property type to the portal's identifier
// list, e.g. departamento -> "1,2".
type PortalPropertyType struct {
	ID        uuid.UUID
	Name      string
	RemaxIDs  string
	CreatedAt time.Time
}

type PortalIDRepository interface {
	LoadRemaxTables(ctx context.Context) (scrape.RemaxTables, error)
	ListLocations(ctx context.Context) ([]PortalLocation, error)
	UpsertLocation(ctx context.Context, loc *PortalLocation) error
	DeleteLocation(ctx context.Context, name string) error
	ListPropertyTypes(ctx context.Context) ([]PortalPropertyType, error)
	UpsertPropertyType(ctx context.Context, pt *PortalPropertyType) error
}

type PostgresPortalIDRepository struct {
	db database.DB
}

func NewPostgresPortalIDRepository(db database.DB) *PostgresPortalIDRepository {
	return &PostgresPortalIDRepository{db: db}
}

// LoadRemaxTables reads both identifier tables into the lookup maps the
// Remax adapter needs before it can build a single URL.
func (r *PostgresPortalIDRepository) LoadRemaxTables(ctx context.Context) (scrape.RemaxTables, error) {
	tables := scrape.RemaxTables{
		Locations:     map[string]scrape.RemaxLocation{},
		PropertyTypes: map[string]string{},
	}

	locs, err := r.ListLocations(ctx)
	if err != nil {
		return tables, err
	}
	for _, loc := range locs {
		tables.Locations[loc.Name] = scrape.RemaxLocation{ID: loc.RemaxID, DisplayName: loc.DisplayName}
	}

	types, err := r.ListPropertyTypes(ctx)
	if err != nil {
		return tables, err
	}
	for _, pt := range types {
		tables.PropertyTypes[pt.Name] = pt.RemaxIDs
	}

	return tables, nil
}

func (r *PostgresPortalIDRepository) ListLocations(ctx context.Context) ([]PortalLocation, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, remax_id, display_name, parent_location, verified_at, created_at
		 FROM remax_location_cache
		 ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]PortalLocation, 0)
	for rows.Next() {
		var loc PortalLocation
		if err := rows.Scan(&loc.ID, &loc.Name, &loc.RemaxID, &loc.DisplayName, &loc.ParentLocation, &loc.VerifiedAt, &loc.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, loc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresPortalIDRepository) UpsertLocation(ctx context.Context, loc *PortalLocation) error {
	if loc.ID == uuid.Nil {
		loc.ID = uuid.New()
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO remax_location_cache (id, name, remax_id, display_name, parent_location, verified_at)
		 VALUES ($1, LOWER($2), $3, $4, $5, NOW())
		 ON CONFLICT (name) DO UPDATE
		 SET remax_id = EXCLUDED.remax_id,
		     display_name = EXCLUDED.display_name,
		     parent_location = EXCLUDED.parent_location,
		     verified_at = NOW()`,
		loc.ID, loc.Name, loc.RemaxID, loc.DisplayName, loc.ParentLocation,
	)
	return err
}

func (r *PostgresPortalIDRepository) DeleteLocation(ctx context.Context, name string) error {
	affected, err := r.db.Exec(ctx, `DELETE FROM remax_location_cache WHERE name = LOWER($1)`, name)
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PostgresPortalIDRepository) ListPropertyTypes(ctx context.Context) ([]PortalPropertyType, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, remax_ids, created_at
		 FROM remax_property_type_cache
		 ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]PortalPropertyType, 0)
	for rows.Next() {
		var pt PortalPropertyType
		if err := rows.Scan(&pt.ID, &pt.Name, &pt.RemaxIDs, &pt.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, pt)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresPortalIDRepository) UpsertPropertyType(ctx context.Context, pt *PortalPropertyType) error {
	if pt.ID == uuid.Nil {
		pt.ID = uuid.New()
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO remax_property_type_cache (id, name, remax_ids)
		 VALUES ($1, LOWER($2), $3)
		 ON CONFLICT (name) DO UPDATE SET remax_ids = EXCLUDED.remax_ids`,
		pt.ID, pt.Name, pt.RemaxIDs,
	)
	return err
}
