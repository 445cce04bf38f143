package reconcile

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"catalogsync_api/config/values"
	"catalogsync_api/internal/catalog/business"
	"catalogsync_api/internal/catalog/models"
	"catalogsync_api/internal/catalog/storage"
	"catalogsync_api/internal/suppliers/scraped"
	"catalogsync_api/internal/suppliers/structured/dto"
	"catalogsync_api/metrics"
	"catalogsync_api/pkg/business/service"
	apperrors "catalogsync_api/pkg/errors"
)

// ProductReconciler upserts product records, resolving category,
// manufacturer and specification references against the canonical catalog.
type ProductReconciler struct {
	repos         storage.Repositories
	cache         *LookupCache
	manufacturers *ManufacturerReconciler
	parameters    *ParameterReconciler
	prices        *business.PriceEngine
	text          service.ITextService
	aliases       map[string]string
	logger        *zap.Logger
}

func NewProductReconciler(repos storage.Repositories, cache *LookupCache,
	manufacturers *ManufacturerReconciler, parameters *ParameterReconciler,
	prices *business.PriceEngine, text service.ITextService,
	aliases map[string]string, logger *zap.Logger) *ProductReconciler {
	return &ProductReconciler{
		repos:         repos,
		cache:         cache,
		manufacturers: manufacturers,
		parameters:    parameters,
		prices:        prices,
		text:          text,
		aliases:       aliases,
		logger:        logger,
	}
}

func statusFromCode(code int) models.ProductStatus {
	switch code {
	case 0:
		return models.ProductHidden
	case 2:
		return models.ProductDiscontinued
	default:
		return models.ProductActive
	}
}

// SyncStructuredItem reconciles one structured-feed product: match by
// externalId, else create.
func (r *ProductReconciler) SyncStructuredItem(ctx context.Context, rec dto.ProductRecord, counters *metrics.SyncCounters) error {
	if rec.ID == 0 {
		return &apperrors.ErrMalformedItem{Field: "id"}
	}
	if len(rec.CategoryIDs) == 0 {
		return &apperrors.ErrMalformedItem{Field: "category_ids", Detail: fmt.Sprintf("product %d", rec.ID)}
	}

	// First entry of the category-reference list is the placement category.
	category, err := r.resolveStructuredCategory(ctx, rec.CategoryIDs[0])
	if err != nil {
		return err
	}

	manufacturer, err := r.resolveStructuredManufacturer(ctx, rec.ManufacturerID)
	if err != nil {
		return err
	}

	existing, err := r.repos.Products.ByExternalID(ctx, rec.ID)
	if err != nil {
		return err
	}

	extID := rec.ID
	product := existing
	if product == nil {
		product = &models.Product{ExternalID: &extID}
	}
	product.ReferenceNumber = rec.ReferenceNumber
	product.CategoryID = category.ID
	product.ManufacturerID = manufacturer.ID
	product.Names = rec.Names
	product.BasePrice = rec.BasePrice
	product.DiscountPct = r.prices.ClampDiscount(rec.DiscountPct)
	product.SalePrice = r.prices.SalePrice(product.BasePrice, product.DiscountPct)
	product.Status = statusFromCode(rec.StatusCode)
	product.Images = rec.Images

	if existing == nil {
		if _, err := r.repos.Products.Create(ctx, product); err != nil {
			return err
		}
		counters.Created.Add(1)
	} else {
		if err := r.repos.Products.Update(ctx, product); err != nil {
			return err
		}
		counters.Updated.Add(1)
	}

	specs := r.resolveStructuredValues(ctx, product, category.ID, rec.Values, counters)
	// Sources send full current-state snapshots, so the set is replaced, not
	// merged.
	return r.repos.Products.ReplaceParameters(ctx, product.ID, specs)
}

func (r *ProductReconciler) resolveStructuredCategory(ctx context.Context, externalID int64) (*models.Category, error) {
	if cached, ok := r.cache.LookupCategory(externalID); ok {
		return &cached, nil
	}
	stored, err := r.repos.Categories.ByExternalID(ctx, externalID)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, &apperrors.ErrUnresolved{Resource: "category", Key: fmt.Sprintf("%d", externalID)}
	}
	return stored, nil
}

func (r *ProductReconciler) resolveStructuredManufacturer(ctx context.Context, externalID int64) (*models.Manufacturer, error) {
	if cached, ok := r.cache.LookupManufacturer(externalID); ok {
		return &cached, nil
	}
	stored, err := r.repos.Manufacturers.ByExternalID(ctx, externalID)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, &apperrors.ErrUnresolved{Resource: "manufacturer", Key: fmt.Sprintf("%d", externalID)}
	}
	return stored, nil
}

func (r *ProductReconciler) resolveStructuredValues(ctx context.Context, product *models.Product, categoryID int, records []dto.ParameterValueRecord, counters *metrics.SyncCounters) []models.ProductParameter {
	var specs []models.ProductParameter
	for _, value := range records {
		parameter, ok := r.cache.LookupParameter(value.ParameterID, categoryID)
		if !ok {
			stored, err := r.repos.Parameters.ByExternalID(ctx, value.ParameterID, categoryID)
			if err != nil || stored == nil {
				counters.Skipped.Add(1)
				r.logger.Warn("unresolved parameter value dropped",
					zap.Int("product_id", product.ID), zap.Int64("parameter_external_id", value.ParameterID))
				continue
			}
			parameter = *stored
		}

		option, ok := r.cache.LookupParameterOption(value.OptionID, parameter.ID)
		if !ok {
			stored, err := r.repos.Parameters.OptionByExternalID(ctx, value.OptionID, parameter.ID)
			if err != nil || stored == nil {
				counters.Skipped.Add(1)
				r.logger.Warn("unresolved option value dropped",
					zap.Int("product_id", product.ID), zap.Int64("option_external_id", value.OptionID))
				continue
			}
			option = *stored
		}

		specs = append(specs, models.ProductParameter{
			ProductID:   product.ID,
			ParameterID: parameter.ID,
			OptionID:    option.ID,
		})
	}
	return specs
}

// SyncScrapedItem reconciles one scraped item: match by SKU. When more than
// one row matches, the duplicates are collapsed first (lowest id wins).
func (r *ProductReconciler) SyncScrapedItem(ctx context.Context, item scraped.BrowseItem, sourceCategory *models.Category, counters *metrics.SyncCounters) error {
	if item.SKU == "" {
		return &apperrors.ErrMalformedItem{Field: "sku", Detail: item.Name}
	}
	if item.Name == "" {
		return &apperrors.ErrMalformedItem{Field: "name", Detail: item.SKU}
	}

	category, err := r.resolveScrapedCategory(ctx, item, sourceCategory)
	if err != nil {
		return err
	}

	manufacturer, err := r.resolveScrapedManufacturer(ctx, item)
	if err != nil {
		return err
	}

	matches, err := r.repos.Products.BySKU(ctx, item.SKU)
	if err != nil {
		return err
	}

	var existing *models.Product
	if len(matches) > 0 {
		// BySKU returns rows ordered by id; prior runs may have created
		// duplicates under transient matching differences.
		existing = &matches[0]
		for _, duplicate := range matches[1:] {
			if err := r.repos.Products.Delete(ctx, duplicate.ID); err != nil {
				return err
			}
			r.logger.Info("collapsed duplicate product",
				zap.String("sku", item.SKU), zap.Int("kept", existing.ID), zap.Int("removed", duplicate.ID))
		}
	}

	sku := item.SKU
	product := existing
	if product == nil {
		product = &models.Product{SKU: &sku}
	}
	product.CategoryID = category.ID
	product.ManufacturerID = manufacturer.ID
	product.Names = models.Names{"en": r.text.NormalizeName(item.Name)}
	product.BasePrice = item.Price
	product.SalePrice = r.prices.SalePrice(product.BasePrice, product.DiscountPct)
	product.Status = scrapedStatus(item.Status)
	if len(item.Images) > 0 {
		product.Images = item.Images
	}

	if existing == nil {
		if _, err := r.repos.Products.Create(ctx, product); err != nil {
			return err
		}
		counters.Created.Add(1)
	} else {
		if err := r.repos.Products.Update(ctx, product); err != nil {
			return err
		}
		counters.Updated.Add(1)
	}

	specs, err := r.resolveScrapedProps(ctx, product, category.ID, item, counters)
	if err != nil {
		return err
	}
	return r.repos.Products.ReplaceParameters(ctx, product.ID, specs)
}

func scrapedStatus(raw string) models.ProductStatus {
	switch strings.ToLower(raw) {
	case "hidden", "inactive":
		return models.ProductHidden
	case "discontinued", "archived":
		return models.ProductDiscontinued
	default:
		return models.ProductActive
	}
}

// resolveScrapedCategory tries, most specific first, the level 3/2/1
// category names against the name index, then the slug index, then the
// alias table; failing all of that it falls back to the source category the
// item was listed under.
func (r *ProductReconciler) resolveScrapedCategory(ctx context.Context, item scraped.BrowseItem, sourceCategory *models.Category) (*models.Category, error) {
	for _, name := range []string{item.Category3, item.Category2, item.Category1} {
		if name == "" {
			continue
		}

		if category, ok := r.cache.LookupCategoryByName(r.text.NormalizeName(name)); ok {
			return &category, nil
		}

		slug := r.text.Slugify(name)
		if category, ok := r.cache.LookupCategoryBySlug(slug); ok {
			return &category, nil
		}
		if stored, err := r.repos.Categories.BySlug(ctx, slug); err != nil {
			return nil, err
		} else if stored != nil {
			return stored, nil
		}

		if aliasSlug, ok := r.aliases[strings.ToLower(name)]; ok {
			if category, ok := r.cache.LookupCategoryBySlug(aliasSlug); ok {
				return &category, nil
			}
			if stored, err := r.repos.Categories.BySlug(ctx, aliasSlug); err != nil {
				return nil, err
			} else if stored != nil {
				return stored, nil
			}
		}
	}

	if sourceCategory != nil {
		return sourceCategory, nil
	}
	return nil, &apperrors.ErrUnresolved{Resource: "category", Key: item.SKU}
}

func (r *ProductReconciler) resolveScrapedManufacturer(ctx context.Context, item scraped.BrowseItem) (*models.Manufacturer, error) {
	name := strings.TrimSpace(item.Manufacturer)
	if name == "" {
		name = "Unknown"
	}
	return r.manufacturers.ResolveByName(ctx, r.cache, name)
}

func (r *ProductReconciler) resolveScrapedProps(ctx context.Context, product *models.Product, categoryID int, item scraped.BrowseItem, counters *metrics.SyncCounters) ([]models.ProductParameter, error) {
	var specs []models.ProductParameter
	order := 0
	for _, key := range values.ScrapedPropKeys {
		value, ok := item.Props[key]
		if !ok || value == "" {
			continue
		}

		parameter, err := r.parameters.EnsureScrapedParameter(ctx, categoryID, key, order, counters)
		if err != nil {
			return nil, err
		}
		order++

		option, err := r.parameters.EnsureScrapedOption(ctx, parameter, value, counters)
		if err != nil {
			return nil, err
		}

		specs = append(specs, models.ProductParameter{
			ProductID:   product.ID,
			ParameterID: parameter.ID,
			OptionID:    option.ID,
		})
	}
	return specs, nil
}
