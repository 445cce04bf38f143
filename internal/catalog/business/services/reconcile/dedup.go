package reconcile

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"catalogsync_api/internal/catalog/storage"
)

// DuplicateRepair detects and collapses duplicate product rows. It runs as
// a pre-pass before scraped-source product sync, since that source lacks a
// reliable unique key and prior runs may have created duplicates.
type DuplicateRepair struct {
	products storage.ProductRepository
	logger   *zap.Logger
}

func NewDuplicateRepair(products storage.ProductRepository, logger *zap.Logger) *DuplicateRepair {
	return &DuplicateRepair{products: products, logger: logger}
}

// Run collapses every duplicate group, keeping the lowest internal id.
// Returns the number of rows removed; zero when no duplicates exist.
func (d *DuplicateRepair) Run(ctx context.Context) (int, error) {
	removed := 0

	skuGroups, err := d.products.DuplicateSKUGroups(ctx)
	if err != nil {
		return removed, fmt.Errorf("failed to find duplicate sku groups: %w", err)
	}
	n, err := d.collapse(ctx, skuGroups)
	removed += n
	if err != nil {
		return removed, err
	}

	extGroups, err := d.products.DuplicateExternalIDGroups(ctx)
	if err != nil {
		return removed, fmt.Errorf("failed to find duplicate external id groups: %w", err)
	}
	n, err = d.collapse(ctx, extGroups)
	removed += n
	if err != nil {
		return removed, err
	}

	if removed > 0 {
		d.logger.Info("duplicate repair removed rows", zap.Int("removed", removed))
	}
	return removed, nil
}

func (d *DuplicateRepair) collapse(ctx context.Context, groups [][]int) (int, error) {
	removed := 0
	for _, group := range groups {
		if len(group) < 2 {
			continue
		}
		// Groups arrive sorted ascending; the first id is kept.
		for _, id := range group[1:] {
			if err := d.products.Delete(ctx, id); err != nil {
				return removed, fmt.Errorf("failed to delete duplicate product %d: %w", id, err)
			}
			removed++
		}
		d.logger.Debug("collapsed duplicate group",
			zap.Int("kept", group[0]), zap.Int("removed", len(group)-1))
	}
	return removed, nil
}
