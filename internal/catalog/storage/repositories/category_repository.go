package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"catalogsync_api/internal/catalog/models"
)

type CategoryRepository struct {
	db *sql.DB
}

func NewCategoryRepository(db *sql.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

const categoryColumns = `id, external_id, scraped_key, slug, names, parent_id, sort_order, visible`

func scanCategory(row interface{ Scan(...interface{}) error }) (*models.Category, error) {
	var c models.Category
	var namesRaw []byte
	err := row.Scan(&c.ID, &c.ExternalID, &c.ScrapedKey, &c.Slug, &namesRaw,
		&c.ParentID, &c.SortOrder, &c.Visible)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(namesRaw, &c.Names); err != nil {
		return nil, fmt.Errorf("failed to decode category names: %w", err)
	}
	return &c, nil
}

func (r *CategoryRepository) All(ctx context.Context) ([]models.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM catalog.categories ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, *c)
	}
	return categories, rows.Err()
}

func (r *CategoryRepository) ByID(ctx context.Context, id int) (*models.Category, error) {
	return r.one(ctx, `SELECT `+categoryColumns+` FROM catalog.categories WHERE id = $1`, id)
}

func (r *CategoryRepository) ByExternalID(ctx context.Context, externalID int64) (*models.Category, error) {
	return r.one(ctx, `SELECT `+categoryColumns+` FROM catalog.categories WHERE external_id = $1`, externalID)
}

func (r *CategoryRepository) ByScrapedKey(ctx context.Context, key string) (*models.Category, error) {
	return r.one(ctx, `SELECT `+categoryColumns+` FROM catalog.categories WHERE scraped_key = $1`, key)
}

func (r *CategoryRepository) BySlug(ctx context.Context, slug string) (*models.Category, error) {
	return r.one(ctx, `SELECT `+categoryColumns+` FROM catalog.categories WHERE slug = $1`, slug)
}

func (r *CategoryRepository) one(ctx context.Context, query string, arg interface{}) (*models.Category, error) {
	c, err := scanCategory(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return c, nil
}

func (r *CategoryRepository) Create(ctx context.Context, category *models.Category) (int, error) {
	names, err := json.Marshal(category.Names)
	if err != nil {
		return 0, fmt.Errorf("failed to encode category names: %w", err)
	}

	query := `
		INSERT INTO catalog.categories (external_id, scraped_key, slug, names, parent_id, sort_order, visible)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	var id int
	err = r.db.QueryRowContext(ctx, query,
		category.ExternalID, category.ScrapedKey, category.Slug, names,
		category.ParentID, category.SortOrder, category.Visible).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert category: %w", err)
	}
	category.ID = id
	return id, nil
}

func (r *CategoryRepository) Update(ctx context.Context, category *models.Category) error {
	names, err := json.Marshal(category.Names)
	if err != nil {
		return fmt.Errorf("failed to encode category names: %w", err)
	}

	query := `
		UPDATE catalog.categories
		SET external_id = $2, scraped_key = $3, slug = $4, names = $5,
		    parent_id = $6, sort_order = $7, visible = $8
		WHERE id = $1`

	_, err = r.db.ExecContext(ctx, query,
		category.ID, category.ExternalID, category.ScrapedKey, category.Slug,
		names, category.ParentID, category.SortOrder, category.Visible)
	if err != nil {
		return fmt.Errorf("failed to update category %d: %w", category.ID, err)
	}
	return nil
}
