package reconcile

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"catalogsync_api/config/values"
	"catalogsync_api/internal/catalog/models"
	"catalogsync_api/internal/catalog/storage"
	"catalogsync_api/internal/suppliers/scraped"
	"catalogsync_api/internal/suppliers/structured/dto"
	"catalogsync_api/metrics"
	"catalogsync_api/pkg/business/service"
)

// ParameterReconciler syncs specification definitions and their option
// values, scoped per category.
type ParameterReconciler struct {
	parameters storage.ParameterRepository
	text       service.ITextService
	logger     *zap.Logger
}

func NewParameterReconciler(parameters storage.ParameterRepository, text service.ITextService, logger *zap.Logger) *ParameterReconciler {
	return &ParameterReconciler{parameters: parameters, text: text, logger: logger}
}

// SyncStructured upserts parameters of one category, then the options of
// each. Parameters key on (externalId, categoryId); options on
// (externalId, parameterId).
func (r *ParameterReconciler) SyncStructured(ctx context.Context, cache *LookupCache, categoryID int, records []dto.ParameterRecord, counters *metrics.SyncCounters) error {
	for _, rec := range records {
		if rec.ID == 0 || len(rec.Names) == 0 {
			counters.Skipped.Add(1)
			r.logger.Warn("skipping parameter without id or name",
				zap.Int64("external_id", rec.ID), zap.Int("category_id", categoryID))
			continue
		}

		entity, err := r.upsertStructured(ctx, cache, categoryID, rec, counters)
		if err != nil {
			counters.Errored.Add(1)
			r.logger.Error("failed to upsert parameter",
				zap.Int64("external_id", rec.ID), zap.Int("category_id", categoryID), zap.Error(err))
			continue
		}
		counters.Processed.Add(1)

		for _, opt := range rec.Options {
			if opt.ID == 0 || len(opt.Names) == 0 {
				counters.Skipped.Add(1)
				continue
			}
			if err := r.upsertStructuredOption(ctx, cache, entity.ID, opt, counters); err != nil {
				counters.Errored.Add(1)
				r.logger.Error("failed to upsert parameter option",
					zap.Int64("external_id", opt.ID), zap.Int("parameter_id", entity.ID), zap.Error(err))
			}
		}
	}
	return nil
}

func (r *ParameterReconciler) upsertStructured(ctx context.Context, cache *LookupCache, categoryID int, rec dto.ParameterRecord, counters *metrics.SyncCounters) (*models.Parameter, error) {
	var existing *models.Parameter
	if cached, ok := cache.LookupParameter(rec.ID, categoryID); ok {
		existing = &cached
	} else {
		stored, err := r.parameters.ByExternalID(ctx, rec.ID, categoryID)
		if err != nil {
			return nil, err
		}
		existing = stored
	}

	if existing == nil {
		extID := rec.ID
		entity := &models.Parameter{
			ExternalID: &extID,
			CategoryID: categoryID,
			Names:      rec.Names,
			SortOrder:  rec.SortOrder,
		}
		if _, err := r.parameters.Create(ctx, entity); err != nil {
			return nil, err
		}
		counters.Created.Add(1)
		return entity, nil
	}

	existing.Names = rec.Names
	existing.SortOrder = rec.SortOrder
	if err := r.parameters.Update(ctx, existing); err != nil {
		return nil, err
	}
	counters.Updated.Add(1)
	return existing, nil
}

func (r *ParameterReconciler) upsertStructuredOption(ctx context.Context, cache *LookupCache, parameterID int, rec dto.ParameterOptionRecord, counters *metrics.SyncCounters) error {
	var existing *models.ParameterOption
	if cached, ok := cache.LookupParameterOption(rec.ID, parameterID); ok {
		existing = &cached
	} else {
		stored, err := r.parameters.OptionByExternalID(ctx, rec.ID, parameterID)
		if err != nil {
			return err
		}
		existing = stored
	}

	if existing == nil {
		extID := rec.ID
		entity := &models.ParameterOption{
			ExternalID:  &extID,
			ParameterID: parameterID,
			Names:       rec.Names,
			SortOrder:   rec.SortOrder,
		}
		if _, err := r.parameters.CreateOption(ctx, entity); err != nil {
			return err
		}
		counters.Created.Add(1)
		return nil
	}

	existing.Names = rec.Names
	existing.SortOrder = rec.SortOrder
	if err := r.parameters.UpdateOption(ctx, existing); err != nil {
		return err
	}
	counters.Updated.Add(1)
	return nil
}

// InferScraped derives parameters from the fixed allow-list of item field
// keys. The scraped feed carries no identifiers, so identity is
// (categoryId, fieldKey). Re-running with unchanged data is a no-op.
func (r *ParameterReconciler) InferScraped(ctx context.Context, categoryID int, items []scraped.BrowseItem, counters *metrics.SyncCounters) error {
	seen := make(map[string]map[string]struct{})
	for _, item := range items {
		for _, key := range values.ScrapedPropKeys {
			value, ok := item.Props[key]
			if !ok || value == "" {
				continue
			}
			if seen[key] == nil {
				seen[key] = make(map[string]struct{})
			}
			seen[key][value] = struct{}{}
		}
	}

	// Allow-list order keeps parameter ordering stable across runs.
	order := 0
	for _, key := range values.ScrapedPropKeys {
		valueSet, ok := seen[key]
		if !ok {
			continue
		}

		parameter, err := r.EnsureScrapedParameter(ctx, categoryID, key, order, counters)
		if err != nil {
			counters.Errored.Add(1)
			r.logger.Error("failed to ensure scraped parameter",
				zap.Int("category_id", categoryID), zap.String("key", key), zap.Error(err))
			continue
		}
		order++

		for value := range valueSet {
			if _, err := r.EnsureScrapedOption(ctx, parameter, value, counters); err != nil {
				counters.Errored.Add(1)
				r.logger.Error("failed to ensure scraped option",
					zap.Int("parameter_id", parameter.ID), zap.String("value", value), zap.Error(err))
			}
		}
	}
	return nil
}

// EnsureScrapedParameter returns the parameter inferred for
// (categoryId, fieldKey), creating it when absent. The display name comes
// from the static translation table, falling back to a
// capitalize-and-replace-underscores rule.
func (r *ParameterReconciler) EnsureScrapedParameter(ctx context.Context, categoryID int, key string, order int, counters *metrics.SyncCounters) (*models.Parameter, error) {
	existing, err := r.parameters.ByScrapedKey(ctx, categoryID, key)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	name, ok := values.ScrapedPropNames[key]
	if !ok {
		name = r.text.Humanize(key)
	}

	scrapedKey := key
	entity := &models.Parameter{
		ScrapedKey: &scrapedKey,
		CategoryID: categoryID,
		Names:      models.Names{"en": name},
		SortOrder:  order,
	}
	if _, err := r.parameters.Create(ctx, entity); err != nil {
		return nil, err
	}
	counters.Created.Add(1)
	return entity, nil
}

// EnsureScrapedOption matches the display text case-insensitively against
// the parameter's existing options; first match wins, otherwise a new
// option is appended at the end. Existing options are never reordered.
func (r *ParameterReconciler) EnsureScrapedOption(ctx context.Context, parameter *models.Parameter, value string, counters *metrics.SyncCounters) (*models.ParameterOption, error) {
	options, err := r.parameters.OptionsByParameter(ctx, parameter.ID)
	if err != nil {
		return nil, err
	}

	normalized := strings.ToLower(strings.TrimSpace(value))
	for i := range options {
		if strings.ToLower(strings.TrimSpace(options[i].Names.Any())) == normalized {
			return &options[i], nil
		}
	}

	entity := &models.ParameterOption{
		ParameterID: parameter.ID,
		Names:       models.Names{"en": strings.TrimSpace(value)},
		SortOrder:   len(options),
	}
	if _, err := r.parameters.CreateOption(ctx, entity); err != nil {
		return nil, err
	}
	counters.Created.Add(1)
	return entity, nil
}
