package infrastructure

import (
	"database/sql"
	"fmt"
)

type CatalogCategories struct{}

func (m *CatalogCategories) UpMigration(db *sql.DB) error {
	return applied(db, "catalog.categories", func() error {
		query := `
		CREATE TABLE IF NOT EXISTS catalog.categories (
			id SERIAL PRIMARY KEY,
			external_id BIGINT,
			scraped_key TEXT,
			slug TEXT NOT NULL,
			names JSONB NOT NULL DEFAULT '{}'::jsonb,
			parent_id INT REFERENCES catalog.categories(id),
			sort_order INT NOT NULL DEFAULT 0,
			visible BOOLEAN NOT NULL DEFAULT TRUE
		);
		CREATE UNIQUE INDEX IF NOT EXISTS categories_external_id_idx
			ON catalog.categories(external_id) WHERE external_id IS NOT NULL;
		CREATE UNIQUE INDEX IF NOT EXISTS categories_scraped_key_idx
			ON catalog.categories(scraped_key) WHERE scraped_key IS NOT NULL;
		CREATE INDEX IF NOT EXISTS categories_slug_idx ON catalog.categories(slug);
		`
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to create catalog.categories: %w", err)
		}
		return nil
	})
}

type CatalogManufacturers struct{}

func (m *CatalogManufacturers) UpMigration(db *sql.DB) error {
	return applied(db, "catalog.manufacturers", func() error {
		query := `
		CREATE TABLE IF NOT EXISTS catalog.manufacturers (
			id SERIAL PRIMARY KEY,
			external_id BIGINT,
			name TEXT NOT NULL,
			contact_info TEXT NOT NULL DEFAULT ''
		);
		CREATE UNIQUE INDEX IF NOT EXISTS manufacturers_external_id_idx
			ON catalog.manufacturers(external_id) WHERE external_id IS NOT NULL;
		CREATE INDEX IF NOT EXISTS manufacturers_name_idx ON catalog.manufacturers(name);
		`
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to create catalog.manufacturers: %w", err)
		}
		return nil
	})
}

type CatalogParameters struct{}

func (m *CatalogParameters) UpMigration(db *sql.DB) error {
	return applied(db, "catalog.parameters", func() error {
		query := `
		CREATE TABLE IF NOT EXISTS catalog.parameters (
			id SERIAL PRIMARY KEY,
			external_id BIGINT,
			scraped_key TEXT,
			category_id INT NOT NULL REFERENCES catalog.categories(id),
			names JSONB NOT NULL DEFAULT '{}'::jsonb,
			sort_order INT NOT NULL DEFAULT 0
		);
		CREATE UNIQUE INDEX IF NOT EXISTS parameters_external_id_idx
			ON catalog.parameters(external_id, category_id) WHERE external_id IS NOT NULL;
		CREATE UNIQUE INDEX IF NOT EXISTS parameters_scraped_key_idx
			ON catalog.parameters(category_id, scraped_key) WHERE scraped_key IS NOT NULL;
		`
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to create catalog.parameters: %w", err)
		}
		return nil
	})
}

type CatalogParameterOptions struct{}

func (m *CatalogParameterOptions) UpMigration(db *sql.DB) error {
	return applied(db, "catalog.parameter_options", func() error {
		query := `
		CREATE TABLE IF NOT EXISTS catalog.parameter_options (
			id SERIAL PRIMARY KEY,
			external_id BIGINT,
			parameter_id INT NOT NULL REFERENCES catalog.parameters(id),
			names JSONB NOT NULL DEFAULT '{}'::jsonb,
			sort_order INT NOT NULL DEFAULT 0
		);
		CREATE UNIQUE INDEX IF NOT EXISTS parameter_options_external_id_idx
			ON catalog.parameter_options(external_id, parameter_id) WHERE external_id IS NOT NULL;
		`
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to create catalog.parameter_options: %w", err)
		}
		return nil
	})
}

type CatalogProducts struct{}

func (m *CatalogProducts) UpMigration(db *sql.DB) error {
	return applied(db, "catalog.products", func() error {
		query := `
		CREATE TABLE IF NOT EXISTS catalog.products (
			id SERIAL PRIMARY KEY,
			external_id BIGINT,
			sku TEXT,
			reference_number TEXT NOT NULL DEFAULT '',
			category_id INT NOT NULL REFERENCES catalog.categories(id),
			manufacturer_id INT NOT NULL REFERENCES catalog.manufacturers(id),
			names JSONB NOT NULL DEFAULT '{}'::jsonb,
			base_price NUMERIC(12,2) NOT NULL DEFAULT 0,
			discount_pct NUMERIC(5,2) NOT NULL DEFAULT 0,
			sale_price NUMERIC(12,2) NOT NULL DEFAULT 0,
			status VARCHAR(32) NOT NULL DEFAULT 'active',
			images TEXT[] NOT NULL DEFAULT '{}'
		);
		CREATE INDEX IF NOT EXISTS products_external_id_idx ON catalog.products(external_id);
		CREATE INDEX IF NOT EXISTS products_sku_idx ON catalog.products(sku);
		`
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to create catalog.products: %w", err)
		}
		return nil
	})
}

type CatalogProductParameters struct{}

func (m *CatalogProductParameters) UpMigration(db *sql.DB) error {
	return applied(db, "catalog.product_parameters", func() error {
		query := `
		CREATE TABLE IF NOT EXISTS catalog.product_parameters (
			product_id INT NOT NULL REFERENCES catalog.products(id),
			parameter_id INT NOT NULL REFERENCES catalog.parameters(id),
			option_id INT NOT NULL REFERENCES catalog.parameter_options(id),
			PRIMARY KEY (product_id, parameter_id, option_id)
		);
		`
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to create catalog.product_parameters: %w", err)
		}
		return nil
	})
}

type CatalogSyncRuns struct{}

func (m *CatalogSyncRuns) UpMigration(db *sql.DB) error {
	return applied(db, "catalog.sync_runs", func() error {
		query := `
		CREATE TABLE IF NOT EXISTS catalog.sync_runs (
			id SERIAL PRIMARY KEY,
			correlation_id UUID NOT NULL,
			sync_type VARCHAR(64) NOT NULL,
			status VARCHAR(16) NOT NULL,
			started_at TIMESTAMP NOT NULL,
			duration_ms BIGINT NOT NULL DEFAULT 0,
			processed INT NOT NULL DEFAULT 0,
			created INT NOT NULL DEFAULT 0,
			updated INT NOT NULL DEFAULT 0,
			skipped INT NOT NULL DEFAULT 0,
			errors INT NOT NULL DEFAULT 0,
			message TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS sync_runs_type_idx ON catalog.sync_runs(sync_type, started_at DESC);
		`
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to create catalog.sync_runs: %w", err)
		}
		return nil
	})
}
