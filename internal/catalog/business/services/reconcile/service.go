package reconcile

import (
	"context"
	"fmt"
	stdsync "sync"
	"time"

	"go.uber.org/zap"

	"catalogsync_api/internal/catalog/business"
	"catalogsync_api/internal/catalog/models"
	"catalogsync_api/internal/catalog/storage"
	"catalogsync_api/internal/suppliers/scraped"
	"catalogsync_api/internal/suppliers/structured/dto"
	"catalogsync_api/metrics"
	"catalogsync_api/pkg/business/service"
	apperrors "catalogsync_api/pkg/errors"
)

const (
	SyncTypeCategories         = "categories"
	SyncTypeManufacturers      = "manufacturers"
	SyncTypeParameters         = "parameters"
	SyncTypeProducts           = "products"
	SyncTypeProductsByCategory = "products_by_category"
	SyncTypeFetchAll           = "fetch_all"
	SyncTypeScrapedCategories  = "scraped_categories"
	SyncTypeScrapedProducts    = "scraped_products"
)

// StructuredFeed is the token-authenticated REST feed with stable ids.
type StructuredFeed interface {
	Categories(ctx context.Context) ([]dto.CategoryRecord, error)
	Manufacturers(ctx context.Context) ([]dto.ManufacturerRecord, error)
	ParametersByCategory(ctx context.Context, categoryID int64) ([]dto.ParameterRecord, error)
	ProductsByCategory(ctx context.Context, categoryID int64) ([]dto.ProductRecord, error)
}

// ScrapedFeed is the action-parameterized scrape endpoint.
type ScrapedFeed interface {
	CategoryTree(ctx context.Context) ([]scraped.CategoryNode, error)
	BrowseAll(ctx context.Context, categoryKey string) ([]scraped.BrowseItem, error)
	Invalidate()
}

// SyncService orchestrates the run of each sync type: categories, then
// manufacturers, then parameters, then products, since later stages read
// entities created by earlier ones. Scheduled and manually-triggered runs
// of the same sync type are serialized with a per-sync-type mutex.
type SyncService struct {
	repos      storage.Repositories
	structured StructuredFeed
	scraped    ScrapedFeed
	text       service.ITextService
	prices     *business.PriceEngine
	aliases    map[string]string
	chunker    *ChunkProcessor
	ledger     *Ledger
	logger     *zap.Logger

	mu    stdsync.Mutex
	locks map[string]*stdsync.Mutex
}

func NewSyncService(repos storage.Repositories, structuredFeed StructuredFeed, scrapedFeed ScrapedFeed,
	text service.ITextService, aliases map[string]string, chunker *ChunkProcessor,
	ledger *Ledger, logger *zap.Logger) *SyncService {
	return &SyncService{
		repos:      repos,
		structured: structuredFeed,
		scraped:    scrapedFeed,
		text:       text,
		prices:     business.NewPriceEngine(),
		aliases:    aliases,
		chunker:    chunker,
		ledger:     ledger,
		logger:     logger,
		locks:      make(map[string]*stdsync.Mutex),
	}
}

func (s *SyncService) lockFor(syncType string) *stdsync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[syncType]
	if !ok {
		lock = &stdsync.Mutex{}
		s.locks[syncType] = lock
	}
	return lock
}

// run wraps a sync-type call: serialize, open the ledger row, finalize it
// exactly once even when fn panics out through an error.
func (s *SyncService) run(ctx context.Context, syncType string, fn func(ctx context.Context, counters *metrics.SyncCounters) error) (*models.SyncRun, error) {
	lock := s.lockFor(syncType)
	lock.Lock()
	defer lock.Unlock()

	run := s.ledger.Begin(ctx, syncType)
	counters := &metrics.SyncCounters{}
	err := fn(ctx, counters)
	s.ledger.Finish(ctx, run, counters, err)
	return run, err
}

func (s *SyncService) SyncCategories(ctx context.Context) (*models.SyncRun, error) {
	return s.run(ctx, SyncTypeCategories, func(ctx context.Context, counters *metrics.SyncCounters) error {
		records, err := s.structured.Categories(ctx)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			return &apperrors.ErrEmptySource{SyncType: SyncTypeCategories}
		}
		reconciler := NewCategoryReconciler(s.repos.Categories, s.text, s.logger)
		return reconciler.SyncStructured(ctx, records, counters)
	})
}

func (s *SyncService) SyncManufacturers(ctx context.Context) (*models.SyncRun, error) {
	return s.run(ctx, SyncTypeManufacturers, func(ctx context.Context, counters *metrics.SyncCounters) error {
		records, err := s.structured.Manufacturers(ctx)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			return &apperrors.ErrEmptySource{SyncType: SyncTypeManufacturers}
		}
		reconciler := NewManufacturerReconciler(s.repos.Manufacturers, s.logger)
		return reconciler.SyncStructured(ctx, records, counters)
	})
}

func (s *SyncService) SyncParameters(ctx context.Context) (*models.SyncRun, error) {
	return s.run(ctx, SyncTypeParameters, func(ctx context.Context, counters *metrics.SyncCounters) error {
		cache, err := BuildLookupCache(ctx, s.repos, s.text)
		if err != nil {
			return err
		}

		categories, err := s.structuredCategories(ctx)
		if err != nil {
			return err
		}
		if len(categories) == 0 {
			return &apperrors.ErrEmptySource{SyncType: SyncTypeParameters}
		}

		reconciler := NewParameterReconciler(s.repos.Parameters, s.text, s.logger)
		s.chunker.Run(ctx, len(categories), func(ctx context.Context, i int) error {
			category := categories[i]
			records, err := s.structured.ParametersByCategory(ctx, *category.ExternalID)
			if err != nil {
				return err
			}
			return reconciler.SyncStructured(ctx, cache, category.ID, records, counters)
		}, nil, counters)
		return nil
	})
}

func (s *SyncService) SyncProducts(ctx context.Context) (*models.SyncRun, error) {
	return s.run(ctx, SyncTypeProducts, func(ctx context.Context, counters *metrics.SyncCounters) error {
		categories, err := s.structuredCategories(ctx)
		if err != nil {
			return err
		}
		if len(categories) == 0 {
			// Products cannot be placed without the category stage.
			return &apperrors.ErrEmptySource{SyncType: SyncTypeProducts}
		}

		cache, err := BuildLookupCache(ctx, s.repos, s.text)
		if err != nil {
			return err
		}
		reconciler := s.productReconciler(cache)

		for _, category := range categories {
			if err := s.syncStructuredProducts(ctx, reconciler, *category.ExternalID, counters); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *SyncService) SyncProductsByCategory(ctx context.Context, categoryExternalID int64) (*models.SyncRun, error) {
	return s.run(ctx, SyncTypeProductsByCategory, func(ctx context.Context, counters *metrics.SyncCounters) error {
		cache, err := BuildLookupCache(ctx, s.repos, s.text)
		if err != nil {
			return err
		}
		if _, ok := cache.LookupCategory(categoryExternalID); !ok {
			return &apperrors.ErrUnresolved{Resource: "category", Key: fmt.Sprintf("%d", categoryExternalID)}
		}
		return s.syncStructuredProducts(ctx, s.productReconciler(cache), categoryExternalID, counters)
	})
}

func (s *SyncService) syncStructuredProducts(ctx context.Context, reconciler *ProductReconciler, categoryExternalID int64, counters *metrics.SyncCounters) error {
	records, err := s.structured.ProductsByCategory(ctx, categoryExternalID)
	if err != nil {
		return err
	}
	s.chunker.Run(ctx, len(records), func(ctx context.Context, i int) error {
		return reconciler.SyncStructuredItem(ctx, records[i], counters)
	}, nil, counters)
	return nil
}

// FetchAll runs the whole structured-source sequence end to end. Later
// stages depend on entities created by earlier ones, so the order is fixed.
func (s *SyncService) FetchAll(ctx context.Context) (*models.SyncRun, error) {
	return s.run(ctx, SyncTypeFetchAll, func(ctx context.Context, counters *metrics.SyncCounters) error {
		stages := []func(context.Context) (*models.SyncRun, error){
			s.SyncCategories,
			s.SyncManufacturers,
			s.SyncParameters,
			s.SyncProducts,
		}
		for _, stage := range stages {
			sub, err := stage(ctx)
			if sub != nil {
				counters.Processed.Add(int32(sub.Processed))
				counters.Created.Add(int32(sub.Created))
				counters.Updated.Add(int32(sub.Updated))
				counters.Skipped.Add(int32(sub.Skipped))
				counters.Errored.Add(int32(sub.Errors))
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *SyncService) SyncScrapedCategories(ctx context.Context) (*models.SyncRun, error) {
	return s.run(ctx, SyncTypeScrapedCategories, func(ctx context.Context, counters *metrics.SyncCounters) error {
		roots, err := s.scraped.CategoryTree(ctx)
		if err != nil {
			return err
		}
		if len(roots) == 0 {
			return &apperrors.ErrEmptySource{SyncType: SyncTypeScrapedCategories}
		}
		reconciler := NewCategoryReconciler(s.repos.Categories, s.text, s.logger)
		return reconciler.SyncScraped(ctx, roots, counters)
	})
}

// SyncScrapedProducts runs duplicate repair first, then walks the category
// tree and reconciles the item lists of every leaf. Manufacturer auto-create
// and parameter inference happen inline, per category.
func (s *SyncService) SyncScrapedProducts(ctx context.Context) (*models.SyncRun, error) {
	return s.run(ctx, SyncTypeScrapedProducts, func(ctx context.Context, counters *metrics.SyncCounters) error {
		repair := NewDuplicateRepair(s.repos.Products, s.logger)
		if _, err := repair.Run(ctx); err != nil {
			return err
		}

		roots, err := s.scraped.CategoryTree(ctx)
		if err != nil {
			return err
		}
		if len(roots) == 0 {
			return &apperrors.ErrEmptySource{SyncType: SyncTypeScrapedProducts}
		}

		cache, err := BuildLookupCache(ctx, s.repos, s.text)
		if err != nil {
			return err
		}
		parameters := NewParameterReconciler(s.repos.Parameters, s.text, s.logger)
		products := s.productReconciler(cache)

		for i := range roots {
			if err := s.syncScrapedSubtree(ctx, cache, parameters, products, &roots[i], nil, 0, counters); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *SyncService) syncScrapedSubtree(ctx context.Context, cache *LookupCache,
	parameters *ParameterReconciler, products *ProductReconciler,
	node *scraped.CategoryNode, parent *models.Category, depth int, counters *metrics.SyncCounters) error {

	if depth >= maxScrapedDepth || node.RawID() == "" {
		return nil
	}

	key := node.RawID()
	if parent != nil {
		key = fmt.Sprintf("%s|%d", node.RawID(), parent.ID)
	}

	var canonical *models.Category
	if cached, ok := cache.LookupScrapedCategory(key); ok {
		canonical = &cached
	} else {
		stored, err := s.repos.Categories.ByScrapedKey(ctx, key)
		if err != nil {
			return err
		}
		canonical = stored
	}
	if canonical == nil {
		// The category stage has not seen this node yet; its items will be
		// picked up on the next run.
		counters.Skipped.Add(1)
		s.logger.Warn("scraped node has no canonical category, skipping subtree",
			zap.String("key", key), zap.String("name", node.Name))
		return nil
	}

	children := node.Children()
	if len(children) == 0 {
		items, err := s.scraped.BrowseAll(ctx, node.RawID())
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}

		if err := parameters.InferScraped(ctx, canonical.ID, items, counters); err != nil {
			return err
		}
		s.chunker.Run(ctx, len(items), func(ctx context.Context, i int) error {
			return products.SyncScrapedItem(ctx, items[i], canonical, counters)
		}, nil, counters)
		return nil
	}

	for i := range children {
		if err := s.syncScrapedSubtree(ctx, cache, parameters, products, &children[i], canonical, depth+1, counters); err != nil {
			return err
		}
	}
	return nil
}

// InvalidateScrapedCache drops the in-process scrape cache ahead of a full
// resync.
func (s *SyncService) InvalidateScrapedCache() {
	s.scraped.Invalidate()
}

// RunScheduler triggers the full sequence on a fixed interval until ctx is
// done. The per-sync-type locks serialize these runs against manual ones.
func (s *SyncService) RunScheduler(ctx context.Context, every time.Duration) {
	if every <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runScheduledPass(ctx)
		}
	}
}

func (s *SyncService) runScheduledPass(ctx context.Context) {
	if _, err := s.FetchAll(ctx); err != nil {
		s.logger.Error("scheduled structured sync failed", zap.Error(err))
	}

	s.InvalidateScrapedCache()
	if _, err := s.SyncScrapedCategories(ctx); err != nil {
		s.logger.Error("scheduled scraped category sync failed", zap.Error(err))
		return
	}
	if _, err := s.SyncScrapedProducts(ctx); err != nil {
		s.logger.Error("scheduled scraped product sync failed", zap.Error(err))
	}
}

func (s *SyncService) productReconciler(cache *LookupCache) *ProductReconciler {
	manufacturers := NewManufacturerReconciler(s.repos.Manufacturers, s.logger)
	parameters := NewParameterReconciler(s.repos.Parameters, s.text, s.logger)
	return NewProductReconciler(s.repos, cache, manufacturers, parameters, s.prices, s.text, s.aliases, s.logger)
}

func (s *SyncService) structuredCategories(ctx context.Context) ([]models.Category, error) {
	all, err := s.repos.Categories.All(ctx)
	if err != nil {
		return nil, err
	}
	var categories []models.Category
	for _, c := range all {
		if c.ExternalID != nil {
			categories = append(categories, c)
		}
	}
	return categories, nil
}
