package reconcile

import (
	"context"
	"fmt"
	"strings"

	"catalogsync_api/internal/catalog/models"
	"catalogsync_api/internal/catalog/storage"
	"catalogsync_api/pkg/business/service"
)

type externalParameterKey struct {
	ExternalID int64
	CategoryID int
}

type externalOptionKey struct {
	ExternalID  int64
	ParameterID int
}

// LookupCache maps external identities onto canonical entities. It is built
// once per run by a full-table scan and stays read-only for the run's
// duration; entities created later in the same run are found by the direct
// store query the callers fall back to on a miss.
type LookupCache struct {
	categoriesByExternal    map[int64]models.Category
	categoriesByScraped     map[string]models.Category
	categoriesByName        map[string]models.Category
	categoriesBySlug        map[string]models.Category
	manufacturersByExternal map[int64]models.Manufacturer
	manufacturersByName     map[string]models.Manufacturer
	parametersByExternal    map[externalParameterKey]models.Parameter
	optionsByExternal       map[externalOptionKey]models.ParameterOption
}

func BuildLookupCache(ctx context.Context, repos storage.Repositories, text service.ITextService) (*LookupCache, error) {
	cache := &LookupCache{
		categoriesByExternal:    make(map[int64]models.Category),
		categoriesByScraped:     make(map[string]models.Category),
		categoriesByName:        make(map[string]models.Category),
		categoriesBySlug:        make(map[string]models.Category),
		manufacturersByExternal: make(map[int64]models.Manufacturer),
		manufacturersByName:     make(map[string]models.Manufacturer),
		parametersByExternal:    make(map[externalParameterKey]models.Parameter),
		optionsByExternal:       make(map[externalOptionKey]models.ParameterOption),
	}

	categories, err := repos.Categories.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to scan categories: %w", err)
	}
	for _, c := range categories {
		if c.ExternalID != nil {
			cache.categoriesByExternal[*c.ExternalID] = c
		}
		if c.ScrapedKey != nil {
			cache.categoriesByScraped[*c.ScrapedKey] = c
		}
		for _, name := range c.Names {
			cache.categoriesByName[strings.ToLower(text.NormalizeName(name))] = c
		}
		if c.Slug != "" {
			cache.categoriesBySlug[c.Slug] = c
		}
	}

	manufacturers, err := repos.Manufacturers.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to scan manufacturers: %w", err)
	}
	for _, m := range manufacturers {
		if m.ExternalID != nil {
			cache.manufacturersByExternal[*m.ExternalID] = m
		}
		cache.manufacturersByName[strings.ToLower(m.Name)] = m
	}

	parameters, err := repos.Parameters.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to scan parameters: %w", err)
	}
	for _, p := range parameters {
		if p.ExternalID != nil {
			cache.parametersByExternal[externalParameterKey{*p.ExternalID, p.CategoryID}] = p
		}
	}

	options, err := repos.Parameters.AllOptions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to scan parameter options: %w", err)
	}
	for _, o := range options {
		if o.ExternalID != nil {
			cache.optionsByExternal[externalOptionKey{*o.ExternalID, o.ParameterID}] = o
		}
	}

	return cache, nil
}

func (c *LookupCache) LookupCategory(externalID int64) (models.Category, bool) {
	category, ok := c.categoriesByExternal[externalID]
	return category, ok
}

func (c *LookupCache) LookupScrapedCategory(key string) (models.Category, bool) {
	category, ok := c.categoriesByScraped[key]
	return category, ok
}

func (c *LookupCache) LookupCategoryByName(name string) (models.Category, bool) {
	category, ok := c.categoriesByName[strings.ToLower(name)]
	return category, ok
}

func (c *LookupCache) LookupCategoryBySlug(slug string) (models.Category, bool) {
	category, ok := c.categoriesBySlug[slug]
	return category, ok
}

func (c *LookupCache) LookupManufacturer(externalID int64) (models.Manufacturer, bool) {
	manufacturer, ok := c.manufacturersByExternal[externalID]
	return manufacturer, ok
}

func (c *LookupCache) LookupManufacturerByName(name string) (models.Manufacturer, bool) {
	manufacturer, ok := c.manufacturersByName[strings.ToLower(name)]
	return manufacturer, ok
}

func (c *LookupCache) LookupParameter(externalID int64, categoryID int) (models.Parameter, bool) {
	parameter, ok := c.parametersByExternal[externalParameterKey{externalID, categoryID}]
	return parameter, ok
}

func (c *LookupCache) LookupParameterOption(externalID int64, parameterID int) (models.ParameterOption, bool) {
	option, ok := c.optionsByExternal[externalOptionKey{externalID, parameterID}]
	return option, ok
}
