package reconcile

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"catalogsync_api/internal/catalog/models"
	"catalogsync_api/internal/catalog/storage"
	"catalogsync_api/internal/suppliers/scraped"
	"catalogsync_api/internal/suppliers/structured/dto"
	"catalogsync_api/metrics"
	"catalogsync_api/pkg/business/service"
)

const maxScrapedDepth = 3

// CategoryReconciler builds and repairs the category hierarchy for both
// sources.
type CategoryReconciler struct {
	categories storage.CategoryRepository
	text       service.ITextService
	logger     *zap.Logger
}

func NewCategoryReconciler(categories storage.CategoryRepository, text service.ITextService, logger *zap.Logger) *CategoryReconciler {
	return &CategoryReconciler{categories: categories, text: text, logger: logger}
}

// SyncStructured upserts a flat list keyed by externalId in two passes:
// scalar fields first, parent links second. A child may precede its parent
// in the source list and both may be new in the same batch, so parents can
// only be linked once every node exists.
func (r *CategoryReconciler) SyncStructured(ctx context.Context, records []dto.CategoryRecord, counters *metrics.SyncCounters) error {
	byExternal := make(map[int64]*models.Category, len(records))

	for _, rec := range records {
		if rec.ID == 0 || len(rec.Names) == 0 {
			counters.Skipped.Add(1)
			r.logger.Warn("skipping category without id or name", zap.Int64("external_id", rec.ID))
			continue
		}

		entity, err := r.upsertStructured(ctx, rec, counters)
		if err != nil {
			counters.Errored.Add(1)
			r.logger.Error("failed to upsert category", zap.Int64("external_id", rec.ID), zap.Error(err))
			continue
		}
		counters.Processed.Add(1)
		byExternal[rec.ID] = entity
	}

	for _, rec := range records {
		entity, ok := byExternal[rec.ID]
		if !ok {
			continue
		}
		if err := r.linkParent(ctx, entity, rec.ParentID, byExternal); err != nil {
			counters.Errored.Add(1)
			r.logger.Error("failed to link category parent",
				zap.Int64("external_id", rec.ID), zap.Int64("parent_external_id", rec.ParentID), zap.Error(err))
		}
	}
	return nil
}

func (r *CategoryReconciler) upsertStructured(ctx context.Context, rec dto.CategoryRecord, counters *metrics.SyncCounters) (*models.Category, error) {
	existing, err := r.categories.ByExternalID(ctx, rec.ID)
	if err != nil {
		return nil, err
	}

	if existing == nil {
		extID := rec.ID
		entity := &models.Category{
			ExternalID: &extID,
			Slug:       r.text.Slugify(models.Names(rec.Names).Any()),
			Names:      rec.Names,
			SortOrder:  rec.SortOrder,
			Visible:    rec.Visible,
		}
		if _, err := r.categories.Create(ctx, entity); err != nil {
			return nil, err
		}
		counters.Created.Add(1)
		return entity, nil
	}

	existing.Names = rec.Names
	existing.SortOrder = rec.SortOrder
	existing.Visible = rec.Visible
	if err := r.categories.Update(ctx, existing); err != nil {
		return nil, err
	}
	counters.Updated.Add(1)
	return existing, nil
}

func (r *CategoryReconciler) linkParent(ctx context.Context, entity *models.Category, parentExternalID int64, byExternal map[int64]*models.Category) error {
	if parentExternalID == 0 {
		if entity.ParentID != nil {
			entity.ParentID = nil
			return r.categories.Update(ctx, entity)
		}
		return nil
	}

	parent, ok := byExternal[parentExternalID]
	if !ok {
		stored, err := r.categories.ByExternalID(ctx, parentExternalID)
		if err != nil {
			return err
		}
		if stored == nil {
			r.logger.Warn("dangling parent reference left unlinked",
				zap.Int64("parent_external_id", parentExternalID))
			return nil
		}
		parent = stored
	}

	if entity.ParentID != nil && *entity.ParentID == parent.ID {
		return nil
	}
	if cyclic, err := r.wouldCycle(ctx, entity.ID, parent.ID); err != nil {
		return err
	} else if cyclic {
		r.logger.Warn("parent link would create a cycle, skipping",
			zap.Int("category_id", entity.ID), zap.Int("parent_id", parent.ID))
		return nil
	}

	entity.ParentID = &parent.ID
	return r.categories.Update(ctx, entity)
}

// wouldCycle walks the parent chain upward with a visited set; the category
// graph must stay acyclic.
func (r *CategoryReconciler) wouldCycle(ctx context.Context, childID, parentID int) (bool, error) {
	visited := map[int]struct{}{childID: {}}
	current := parentID
	for {
		if _, seen := visited[current]; seen {
			return true, nil
		}
		visited[current] = struct{}{}

		node, err := r.categories.ByID(ctx, current)
		if err != nil {
			return false, err
		}
		if node == nil || node.ParentID == nil {
			return false, nil
		}
		current = *node.ParentID
	}
}

// SyncScraped walks the nested tree depth-first. A parent is always
// upserted and passed down before its children, so a single pass suffices.
// A raw id alone is not stable (it can recur under different parents); the
// identity is (rawId, parentInternalId), root nodes keying on rawId alone.
func (r *CategoryReconciler) SyncScraped(ctx context.Context, roots []scraped.CategoryNode, counters *metrics.SyncCounters) error {
	for i := range roots {
		r.visitScraped(ctx, &roots[i], nil, 0, counters)
	}
	return nil
}

func (r *CategoryReconciler) visitScraped(ctx context.Context, node *scraped.CategoryNode, parent *models.Category, depth int, counters *metrics.SyncCounters) {
	if depth >= maxScrapedDepth {
		return
	}

	slug := node.Slug
	if slug == "" {
		slug = r.text.Slugify(node.Name)
	}
	if node.RawID() == "" || node.Name == "" || slug == "" {
		counters.Skipped.Add(1)
		r.logger.Warn("skipping scraped category node missing id, slug or name",
			zap.String("raw_id", node.RawID()), zap.String("name", node.Name))
		return
	}

	key := node.RawID()
	if parent != nil {
		key = fmt.Sprintf("%s|%d", node.RawID(), parent.ID)
		// A child slug is prefixed with its parent's so equal names under
		// different parents stay distinct.
		slug = parent.Slug + "-" + slug
	}

	entity, err := r.upsertScraped(ctx, node, key, slug, parent, counters)
	if err != nil {
		counters.Errored.Add(1)
		r.logger.Error("failed to upsert scraped category", zap.String("key", key), zap.Error(err))
		return
	}
	counters.Processed.Add(1)

	children := node.Children()
	for i := range children {
		r.visitScraped(ctx, &children[i], entity, depth+1, counters)
	}
}

func (r *CategoryReconciler) upsertScraped(ctx context.Context, node *scraped.CategoryNode, key, slug string, parent *models.Category, counters *metrics.SyncCounters) (*models.Category, error) {
	names := models.Names{"en": r.text.NormalizeName(node.Name)}
	visible := node.Count > 0

	existing, err := r.categories.ByScrapedKey(ctx, key)
	if err != nil {
		return nil, err
	}

	var parentID *int
	if parent != nil {
		parentID = &parent.ID
	}

	if existing == nil {
		entity := &models.Category{
			ScrapedKey: &key,
			Slug:       slug,
			Names:      names,
			ParentID:   parentID,
			Visible:    visible,
		}
		if _, err := r.categories.Create(ctx, entity); err != nil {
			return nil, err
		}
		counters.Created.Add(1)
		return entity, nil
	}

	existing.Slug = slug
	existing.Names = names
	existing.ParentID = parentID
	existing.Visible = visible
	if err := r.categories.Update(ctx, existing); err != nil {
		return nil, err
	}
	counters.Updated.Add(1)
	return existing, nil
}
