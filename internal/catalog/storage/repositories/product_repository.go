package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"catalogsync_api/internal/catalog/models"
)

type ProductRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

const productColumns = `id, external_id, sku, reference_number, category_id, manufacturer_id,
	names, base_price, discount_pct, sale_price, status, images`

func scanProduct(row interface{ Scan(...interface{}) error }) (*models.Product, error) {
	var p models.Product
	var namesRaw []byte
	err := row.Scan(&p.ID, &p.ExternalID, &p.SKU, &p.ReferenceNumber, &p.CategoryID,
		&p.ManufacturerID, &namesRaw, &p.BasePrice, &p.DiscountPct, &p.SalePrice,
		&p.Status, pq.Array(&p.Images))
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(namesRaw, &p.Names); err != nil {
		return nil, fmt.Errorf("failed to decode product names: %w", err)
	}
	return &p, nil
}

func (r *ProductRepository) ByExternalID(ctx context.Context, externalID int64) (*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM catalog.products WHERE external_id = $1`
	p, err := scanProduct(r.db.QueryRowContext(ctx, query, externalID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return p, nil
}

func (r *ProductRepository) BySKU(ctx context.Context, sku string) ([]models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM catalog.products WHERE sku = $1 ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, sku)
	if err != nil {
		return nil, fmt.Errorf("failed to query products by sku: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

func (r *ProductRepository) Create(ctx context.Context, product *models.Product) (int, error) {
	names, err := json.Marshal(product.Names)
	if err != nil {
		return 0, fmt.Errorf("failed to encode product names: %w", err)
	}

	query := `
		INSERT INTO catalog.products (external_id, sku, reference_number, category_id, manufacturer_id,
			names, base_price, discount_pct, sale_price, status, images)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`

	var id int
	err = r.db.QueryRowContext(ctx, query,
		product.ExternalID, product.SKU, product.ReferenceNumber, product.CategoryID,
		product.ManufacturerID, names, product.BasePrice, product.DiscountPct,
		product.SalePrice, product.Status, pq.Array(product.Images)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert product: %w", err)
	}
	product.ID = id
	return id, nil
}

func (r *ProductRepository) Update(ctx context.Context, product *models.Product) error {
	names, err := json.Marshal(product.Names)
	if err != nil {
		return fmt.Errorf("failed to encode product names: %w", err)
	}

	query := `
		UPDATE catalog.products
		SET external_id = $2, sku = $3, reference_number = $4, category_id = $5,
		    manufacturer_id = $6, names = $7, base_price = $8, discount_pct = $9,
		    sale_price = $10, status = $11, images = $12
		WHERE id = $1`

	_, err = r.db.ExecContext(ctx, query,
		product.ID, product.ExternalID, product.SKU, product.ReferenceNumber,
		product.CategoryID, product.ManufacturerID, names, product.BasePrice,
		product.DiscountPct, product.SalePrice, product.Status, pq.Array(product.Images))
	if err != nil {
		return fmt.Errorf("failed to update product %d: %w", product.ID, err)
	}
	return nil
}

func (r *ProductRepository) Delete(ctx context.Context, id int) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM catalog.product_parameters WHERE product_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete parameters of product %d: %w", id, err)
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM catalog.products WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete product %d: %w", id, err)
	}
	return nil
}

func (r *ProductRepository) DuplicateSKUGroups(ctx context.Context) ([][]int, error) {
	query := `
		SELECT array_agg(id ORDER BY id)
		FROM catalog.products
		WHERE sku IS NOT NULL
		GROUP BY sku
		HAVING count(*) > 1`
	return r.duplicateGroups(ctx, query)
}

func (r *ProductRepository) DuplicateExternalIDGroups(ctx context.Context) ([][]int, error) {
	query := `
		SELECT array_agg(id ORDER BY id)
		FROM catalog.products
		WHERE external_id IS NOT NULL
		GROUP BY external_id
		HAVING count(*) > 1`
	return r.duplicateGroups(ctx, query)
}

func (r *ProductRepository) duplicateGroups(ctx context.Context, query string) ([][]int, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query duplicate groups: %w", err)
	}
	defer rows.Close()

	var groups [][]int
	for rows.Next() {
		var ids pq.Int64Array
		if err := rows.Scan(&ids); err != nil {
			return nil, fmt.Errorf("failed to scan duplicate group: %w", err)
		}
		group := make([]int, len(ids))
		for i, id := range ids {
			group[i] = int(id)
		}
		groups = append(groups, group)
	}
	return groups, rows.Err()
}

// ReplaceParameters swaps the full specification set of a product. Sources
// send current-state snapshots, so a merge would resurrect removed values.
func (r *ProductRepository) ReplaceParameters(ctx context.Context, productID int, params []models.ProductParameter) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM catalog.product_parameters WHERE product_id = $1`, productID); err != nil {
		return fmt.Errorf("failed to clear parameters of product %d: %w", productID, err)
	}

	for _, p := range params {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO catalog.product_parameters (product_id, parameter_id, option_id) VALUES ($1, $2, $3)`,
			productID, p.ParameterID, p.OptionID)
		if err != nil {
			return fmt.Errorf("failed to insert parameter of product %d: %w", productID, err)
		}
	}
	return tx.Commit()
}
