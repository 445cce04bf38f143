package storage

import (
	"context"

	"catalogsync_api/internal/catalog/models"
)

// Repository lookups return (nil, nil) on a clean miss so callers can tell
// "absent" from a storage failure.

type CategoryRepository interface {
	All(ctx context.Context) ([]models.Category, error)
	ByID(ctx context.Context, id int) (*models.Category, error)
	ByExternalID(ctx context.Context, externalID int64) (*models.Category, error)
	ByScrapedKey(ctx context.Context, key string) (*models.Category, error)
	BySlug(ctx context.Context, slug string) (*models.Category, error)
	Create(ctx context.Context, category *models.Category) (int, error)
	Update(ctx context.Context, category *models.Category) error
}

type ManufacturerRepository interface {
	All(ctx context.Context) ([]models.Manufacturer, error)
	ByExternalID(ctx context.Context, externalID int64) (*models.Manufacturer, error)
	ByName(ctx context.Context, name string) (*models.Manufacturer, error)
	Create(ctx context.Context, manufacturer *models.Manufacturer) (int, error)
	Update(ctx context.Context, manufacturer *models.Manufacturer) error
}

type ParameterRepository interface {
	All(ctx context.Context) ([]models.Parameter, error)
	ByExternalID(ctx context.Context, externalID int64, categoryID int) (*models.Parameter, error)
	ByScrapedKey(ctx context.Context, categoryID int, key string) (*models.Parameter, error)
	Create(ctx context.Context, parameter *models.Parameter) (int, error)
	Update(ctx context.Context, parameter *models.Parameter) error

	AllOptions(ctx context.Context) ([]models.ParameterOption, error)
	OptionsByParameter(ctx context.Context, parameterID int) ([]models.ParameterOption, error)
	OptionByExternalID(ctx context.Context, externalID int64, parameterID int) (*models.ParameterOption, error)
	CreateOption(ctx context.Context, option *models.ParameterOption) (int, error)
	UpdateOption(ctx context.Context, option *models.ParameterOption) error
}

type ProductRepository interface {
	ByExternalID(ctx context.Context, externalID int64) (*models.Product, error)
	// BySKU returns every row carrying the sku; duplicates are possible until
	// a repair pass collapses them.
	BySKU(ctx context.Context, sku string) ([]models.Product, error)
	Create(ctx context.Context, product *models.Product) (int, error)
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id int) error
	// Duplicate groups come back as internal ids sorted ascending.
	DuplicateSKUGroups(ctx context.Context) ([][]int, error)
	DuplicateExternalIDGroups(ctx context.Context) ([][]int, error)
	ReplaceParameters(ctx context.Context, productID int, params []models.ProductParameter) error
}

type SyncRunRepository interface {
	Create(ctx context.Context, run *models.SyncRun) (int, error)
	Finish(ctx context.Context, run *models.SyncRun) error
}

// Repositories bundles the canonical catalog stores handed to the engine.
type Repositories struct {
	Categories    CategoryRepository
	Manufacturers ManufacturerRepository
	Parameters    ParameterRepository
	Products      ProductRepository
	SyncRuns      SyncRunRepository
}
