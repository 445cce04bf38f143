package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"catalogsync_api/internal/catalog/models"
)

type ManufacturerRepository struct {
	db *sql.DB
}

func NewManufacturerRepository(db *sql.DB) *ManufacturerRepository {
	return &ManufacturerRepository{db: db}
}

const manufacturerColumns = `id, external_id, name, contact_info`

func (r *ManufacturerRepository) All(ctx context.Context) ([]models.Manufacturer, error) {
	query := `SELECT ` + manufacturerColumns + ` FROM catalog.manufacturers ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query manufacturers: %w", err)
	}
	defer rows.Close()

	var manufacturers []models.Manufacturer
	for rows.Next() {
		var m models.Manufacturer
		if err := rows.Scan(&m.ID, &m.ExternalID, &m.Name, &m.ContactInfo); err != nil {
			return nil, fmt.Errorf("failed to scan manufacturer: %w", err)
		}
		manufacturers = append(manufacturers, m)
	}
	return manufacturers, rows.Err()
}

func (r *ManufacturerRepository) ByExternalID(ctx context.Context, externalID int64) (*models.Manufacturer, error) {
	return r.one(ctx, `SELECT `+manufacturerColumns+` FROM catalog.manufacturers WHERE external_id = $1`, externalID)
}

func (r *ManufacturerRepository) ByName(ctx context.Context, name string) (*models.Manufacturer, error) {
	return r.one(ctx, `SELECT `+manufacturerColumns+` FROM catalog.manufacturers WHERE name = $1`, name)
}

func (r *ManufacturerRepository) one(ctx context.Context, query string, arg interface{}) (*models.Manufacturer, error) {
	var m models.Manufacturer
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&m.ID, &m.ExternalID, &m.Name, &m.ContactInfo)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get manufacturer: %w", err)
	}
	return &m, nil
}

func (r *ManufacturerRepository) Create(ctx context.Context, manufacturer *models.Manufacturer) (int, error) {
	query := `
		INSERT INTO catalog.manufacturers (external_id, name, contact_info)
		VALUES ($1, $2, $3)
		RETURNING id`

	var id int
	err := r.db.QueryRowContext(ctx, query,
		manufacturer.ExternalID, manufacturer.Name, manufacturer.ContactInfo).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert manufacturer: %w", err)
	}
	manufacturer.ID = id
	return id, nil
}

func (r *ManufacturerRepository) Update(ctx context.Context, manufacturer *models.Manufacturer) error {
	query := `
		UPDATE catalog.manufacturers
		SET external_id = $2, name = $3, contact_info = $4
		WHERE id = $1`

	_, err := r.db.ExecContext(ctx, query,
		manufacturer.ID, manufacturer.ExternalID, manufacturer.Name, manufacturer.ContactInfo)
	if err != nil {
		return fmt.Errorf("failed to update manufacturer %d: %w", manufacturer.ID, err)
	}
	return nil
}
