package reconcile

import (
	"context"

	"go.uber.org/zap"

	"catalogsync_api/internal/catalog/models"
	"catalogsync_api/internal/catalog/storage"
	"catalogsync_api/internal/suppliers/structured/dto"
	"catalogsync_api/metrics"
)

type ManufacturerReconciler struct {
	manufacturers storage.ManufacturerRepository
	logger        *zap.Logger
}

func NewManufacturerReconciler(manufacturers storage.ManufacturerRepository, logger *zap.Logger) *ManufacturerReconciler {
	return &ManufacturerReconciler{manufacturers: manufacturers, logger: logger}
}

func (r *ManufacturerReconciler) SyncStructured(ctx context.Context, records []dto.ManufacturerRecord, counters *metrics.SyncCounters) error {
	for _, rec := range records {
		if rec.ID == 0 || rec.Name == "" {
			counters.Skipped.Add(1)
			r.logger.Warn("skipping manufacturer without id or name", zap.Int64("external_id", rec.ID))
			continue
		}

		existing, err := r.manufacturers.ByExternalID(ctx, rec.ID)
		if err != nil {
			counters.Errored.Add(1)
			r.logger.Error("failed to look up manufacturer", zap.Int64("external_id", rec.ID), zap.Error(err))
			continue
		}

		if existing == nil {
			extID := rec.ID
			entity := &models.Manufacturer{
				ExternalID:  &extID,
				Name:        rec.Name,
				ContactInfo: rec.ContactInfo,
			}
			if _, err := r.manufacturers.Create(ctx, entity); err != nil {
				counters.Errored.Add(1)
				r.logger.Error("failed to create manufacturer", zap.Int64("external_id", rec.ID), zap.Error(err))
				continue
			}
			counters.Created.Add(1)
		} else {
			existing.Name = rec.Name
			existing.ContactInfo = rec.ContactInfo
			if err := r.manufacturers.Update(ctx, existing); err != nil {
				counters.Errored.Add(1)
				r.logger.Error("failed to update manufacturer", zap.Int64("external_id", rec.ID), zap.Error(err))
				continue
			}
			counters.Updated.Add(1)
		}
		counters.Processed.Add(1)
	}
	return nil
}

// ResolveByName returns the manufacturer with the exact name, creating it
// when absent. The scraped feed identifies manufacturers by name only.
func (r *ManufacturerReconciler) ResolveByName(ctx context.Context, cache *LookupCache, name string) (*models.Manufacturer, error) {
	if cached, ok := cache.LookupManufacturerByName(name); ok {
		return &cached, nil
	}

	existing, err := r.manufacturers.ByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	entity := &models.Manufacturer{Name: name}
	if _, err := r.manufacturers.Create(ctx, entity); err != nil {
		return nil, err
	}
	r.logger.Info("auto-created manufacturer", zap.String("name", name))
	return entity, nil
}
