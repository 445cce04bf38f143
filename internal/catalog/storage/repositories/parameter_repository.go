package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"catalogsync_api/internal/catalog/models"
)

type ParameterRepository struct {
	db *sql.DB
}

func NewParameterRepository(db *sql.DB) *ParameterRepository {
	return &ParameterRepository{db: db}
}

const parameterColumns = `id, external_id, scraped_key, category_id, names, sort_order`
const optionColumns = `id, external_id, parameter_id, names, sort_order`

func (r *ParameterRepository) All(ctx context.Context) ([]models.Parameter, error) {
	query := `SELECT ` + parameterColumns + ` FROM catalog.parameters ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query parameters: %w", err)
	}
	defer rows.Close()

	var parameters []models.Parameter
	for rows.Next() {
		p, err := scanParameter(rows)
		if err != nil {
			return nil, err
		}
		parameters = append(parameters, *p)
	}
	return parameters, rows.Err()
}

func scanParameter(row interface{ Scan(...interface{}) error }) (*models.Parameter, error) {
	var p models.Parameter
	var namesRaw []byte
	if err := row.Scan(&p.ID, &p.ExternalID, &p.ScrapedKey, &p.CategoryID, &namesRaw, &p.SortOrder); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(namesRaw, &p.Names); err != nil {
		return nil, fmt.Errorf("failed to decode parameter names: %w", err)
	}
	return &p, nil
}

func (r *ParameterRepository) ByExternalID(ctx context.Context, externalID int64, categoryID int) (*models.Parameter, error) {
	query := `SELECT ` + parameterColumns + ` FROM catalog.parameters WHERE external_id = $1 AND category_id = $2`
	p, err := scanParameter(r.db.QueryRowContext(ctx, query, externalID, categoryID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get parameter: %w", err)
	}
	return p, nil
}

func (r *ParameterRepository) ByScrapedKey(ctx context.Context, categoryID int, key string) (*models.Parameter, error) {
	query := `SELECT ` + parameterColumns + ` FROM catalog.parameters WHERE category_id = $1 AND scraped_key = $2`
	p, err := scanParameter(r.db.QueryRowContext(ctx, query, categoryID, key))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get parameter: %w", err)
	}
	return p, nil
}

func (r *ParameterRepository) Create(ctx context.Context, parameter *models.Parameter) (int, error) {
	names, err := json.Marshal(parameter.Names)
	if err != nil {
		return 0, fmt.Errorf("failed to encode parameter names: %w", err)
	}

	query := `
		INSERT INTO catalog.parameters (external_id, scraped_key, category_id, names, sort_order)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	var id int
	err = r.db.QueryRowContext(ctx, query,
		parameter.ExternalID, parameter.ScrapedKey, parameter.CategoryID, names, parameter.SortOrder).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert parameter: %w", err)
	}
	parameter.ID = id
	return id, nil
}

func (r *ParameterRepository) Update(ctx context.Context, parameter *models.Parameter) error {
	names, err := json.Marshal(parameter.Names)
	if err != nil {
		return fmt.Errorf("failed to encode parameter names: %w", err)
	}

	query := `
		UPDATE catalog.parameters
		SET external_id = $2, scraped_key = $3, category_id = $4, names = $5, sort_order = $6
		WHERE id = $1`

	_, err = r.db.ExecContext(ctx, query,
		parameter.ID, parameter.ExternalID, parameter.ScrapedKey, parameter.CategoryID, names, parameter.SortOrder)
	if err != nil {
		return fmt.Errorf("failed to update parameter %d: %w", parameter.ID, err)
	}
	return nil
}

func (r *ParameterRepository) AllOptions(ctx context.Context) ([]models.ParameterOption, error) {
	query := `SELECT ` + optionColumns + ` FROM catalog.parameter_options ORDER BY parameter_id, sort_order, id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query parameter options: %w", err)
	}
	defer rows.Close()

	var options []models.ParameterOption
	for rows.Next() {
		o, err := scanOption(rows)
		if err != nil {
			return nil, err
		}
		options = append(options, *o)
	}
	return options, rows.Err()
}

func scanOption(row interface{ Scan(...interface{}) error }) (*models.ParameterOption, error) {
	var o models.ParameterOption
	var namesRaw []byte
	if err := row.Scan(&o.ID, &o.ExternalID, &o.ParameterID, &namesRaw, &o.SortOrder); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(namesRaw, &o.Names); err != nil {
		return nil, fmt.Errorf("failed to decode option names: %w", err)
	}
	return &o, nil
}

func (r *ParameterRepository) OptionsByParameter(ctx context.Context, parameterID int) ([]models.ParameterOption, error) {
	query := `SELECT ` + optionColumns + ` FROM catalog.parameter_options WHERE parameter_id = $1 ORDER BY sort_order, id`

	rows, err := r.db.QueryContext(ctx, query, parameterID)
	if err != nil {
		return nil, fmt.Errorf("failed to query options of parameter %d: %w", parameterID, err)
	}
	defer rows.Close()

	var options []models.ParameterOption
	for rows.Next() {
		o, err := scanOption(rows)
		if err != nil {
			return nil, err
		}
		options = append(options, *o)
	}
	return options, rows.Err()
}

func (r *ParameterRepository) OptionByExternalID(ctx context.Context, externalID int64, parameterID int) (*models.ParameterOption, error) {
	query := `SELECT ` + optionColumns + ` FROM catalog.parameter_options WHERE external_id = $1 AND parameter_id = $2`
	o, err := scanOption(r.db.QueryRowContext(ctx, query, externalID, parameterID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get option: %w", err)
	}
	return o, nil
}

func (r *ParameterRepository) CreateOption(ctx context.Context, option *models.ParameterOption) (int, error) {
	names, err := json.Marshal(option.Names)
	if err != nil {
		return 0, fmt.Errorf("failed to encode option names: %w", err)
	}

	query := `
		INSERT INTO catalog.parameter_options (external_id, parameter_id, names, sort_order)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	var id int
	err = r.db.QueryRowContext(ctx, query,
		option.ExternalID, option.ParameterID, names, option.SortOrder).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert option: %w", err)
	}
	option.ID = id
	return id, nil
}

func (r *ParameterRepository) UpdateOption(ctx context.Context, option *models.ParameterOption) error {
	names, err := json.Marshal(option.Names)
	if err != nil {
		return fmt.Errorf("failed to encode option names: %w", err)
	}

	query := `
		UPDATE catalog.parameter_options
		SET external_id = $2, parameter_id = $3, names = $4, sort_order = $5
		WHERE id = $1`

	_, err = r.db.ExecContext(ctx, query,
		option.ID, option.ExternalID, option.ParameterID, names, option.SortOrder)
	if err != nil {
		return fmt.Errorf("failed to update option %d: %w", option.ID, err)
	}
	return nil
}
