package reconcile

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"catalogsync_api/internal/catalog/models"
	"catalogsync_api/internal/catalog/storage"
	"catalogsync_api/internal/suppliers/scraped"
	"catalogsync_api/internal/suppliers/structured/dto"
	"catalogsync_api/pkg/business/service"
	apperrors "catalogsync_api/pkg/errors"
)

type fakeStructuredFeed struct {
	categories    []dto.CategoryRecord
	manufacturers []dto.ManufacturerRecord
	parameters    map[int64][]dto.ParameterRecord
	products      map[int64][]dto.ProductRecord
}

func (f *fakeStructuredFeed) Categories(ctx context.Context) ([]dto.CategoryRecord, error) {
	return f.categories, nil
}

func (f *fakeStructuredFeed) Manufacturers(ctx context.Context) ([]dto.ManufacturerRecord, error) {
	return f.manufacturers, nil
}

func (f *fakeStructuredFeed) ParametersByCategory(ctx context.Context, categoryID int64) ([]dto.ParameterRecord, error) {
	return f.parameters[categoryID], nil
}

func (f *fakeStructuredFeed) ProductsByCategory(ctx context.Context, categoryID int64) ([]dto.ProductRecord, error) {
	return f.products[categoryID], nil
}

type fakeScrapedFeed struct {
	tree        []scraped.CategoryNode
	items       map[string][]scraped.BrowseItem
	invalidated bool
}

func (f *fakeScrapedFeed) CategoryTree(ctx context.Context) ([]scraped.CategoryNode, error) {
	return f.tree, nil
}

func (f *fakeScrapedFeed) BrowseAll(ctx context.Context, categoryKey string) ([]scraped.BrowseItem, error) {
	return f.items[categoryKey], nil
}

func (f *fakeScrapedFeed) Invalidate() { f.invalidated = true }

func newServiceFixture(structured *fakeStructuredFeed, scrapedFeed *fakeScrapedFeed) (*SyncService, storage.Repositories, *fakeSyncRunRepo) {
	repos, _, _, _, _, runs := newFakeRepositories()
	logger := zap.NewNop()
	svc := NewSyncService(repos, structured, scrapedFeed,
		service.NewTextService(), nil,
		NewChunkProcessor(30, 10, time.Minute, 0, logger),
		NewLedger(repos.SyncRuns, logger), logger)
	return svc, repos, runs
}

func TestSyncCategoriesEmptySourceFailsRun(t *testing.T) {
	svc, _, runs := newServiceFixture(&fakeStructuredFeed{}, &fakeScrapedFeed{})

	run, err := svc.SyncCategories(context.Background())
	var empty *apperrors.ErrEmptySource
	if !errors.As(err, &empty) {
		t.Fatalf("err = %v, want ErrEmptySource", err)
	}
	if run.Status != models.SyncFailed {
		t.Fatalf("status = %q, want FAILED", run.Status)
	}
	if stored := runs.runs[run.ID]; stored.Status != models.SyncFailed {
		t.Fatalf("persisted status = %q, want FAILED", stored.Status)
	}
}

func TestFetchAllEndToEnd(t *testing.T) {
	feed := &fakeStructuredFeed{
		categories: []dto.CategoryRecord{
			{ID: 1, Names: map[string]string{"en": "Networking"}, Visible: true},
			{ID: 2, Names: map[string]string{"en": "Routers"}, ParentID: 1, Visible: true},
		},
		manufacturers: []dto.ManufacturerRecord{{ID: 5, Name: "Acme"}},
		parameters: map[int64][]dto.ParameterRecord{
			2: {{ID: 11, Names: map[string]string{"en": "Ports"}, Options: []dto.ParameterOptionRecord{
				{ID: 1, Names: map[string]string{"en": "4"}},
			}}},
		},
		products: map[int64][]dto.ProductRecord{
			2: {{
				ID: 100, ManufacturerID: 5, CategoryIDs: []int64{2},
				Names: map[string]string{"en": "Router X"}, BasePrice: 120, DiscountPct: 50,
				Values: []dto.ParameterValueRecord{{ParameterID: 11, OptionID: 1}},
			}},
		},
	}
	svc, repos, _ := newServiceFixture(feed, &fakeScrapedFeed{})
	ctx := context.Background()

	run, err := svc.FetchAll(ctx)
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if run.SyncType != SyncTypeFetchAll {
		t.Fatalf("sync type = %q", run.SyncType)
	}
	if run.Status != models.SyncSuccess {
		t.Fatalf("status = %q, want SUCCESS", run.Status)
	}
	// 2 categories + 1 manufacturer + 1 product create at minimum.
	if run.Created < 4 {
		t.Fatalf("created = %d, want at least 4", run.Created)
	}

	product, err := repos.Products.ByExternalID(ctx, 100)
	if err != nil || product == nil {
		t.Fatalf("product not synced: %v", err)
	}
	if product.SalePrice != 60 {
		t.Fatalf("sale price = %v, want 60", product.SalePrice)
	}

	// A second full pass converges: updates only, no new rows.
	second, err := svc.FetchAll(ctx)
	if err != nil {
		t.Fatalf("second FetchAll: %v", err)
	}
	if second.Created != 0 {
		t.Fatalf("second pass created = %d, want 0", second.Created)
	}
}

func TestSyncProductsByCategoryUnknownCategory(t *testing.T) {
	svc, _, _ := newServiceFixture(&fakeStructuredFeed{}, &fakeScrapedFeed{})

	run, err := svc.SyncProductsByCategory(context.Background(), 404)
	var unresolved *apperrors.ErrUnresolved
	if !errors.As(err, &unresolved) {
		t.Fatalf("err = %v, want ErrUnresolved", err)
	}
	if run.Status != models.SyncFailed {
		t.Fatalf("status = %q, want FAILED", run.Status)
	}
}

func TestSyncScrapedEndToEnd(t *testing.T) {
	scrapedFeed := &fakeScrapedFeed{
		tree: []scraped.CategoryNode{
			{ID: "10", Name: "Cameras", Slug: "cameras", Count: 2, Sub: []scraped.CategoryNode{
				{ID: "11", Name: "Dome", Slug: "dome", Count: 2},
			}},
		},
		items: map[string][]scraped.BrowseItem{
			"11": {
				{SKU: "CAM-1", Name: "Dome A", Price: 100, Manufacturer: "Acme",
					Props: map[string]string{"color": "White"}},
				{SKU: "CAM-2", Name: "Dome B", Price: 150, Manufacturer: "Acme",
					Props: map[string]string{"color": "white"}},
			},
		},
	}
	svc, repos, _ := newServiceFixture(&fakeStructuredFeed{}, scrapedFeed)
	ctx := context.Background()

	if _, err := svc.SyncScrapedCategories(ctx); err != nil {
		t.Fatalf("SyncScrapedCategories: %v", err)
	}

	run, err := svc.SyncScrapedProducts(ctx)
	if err != nil {
		t.Fatalf("SyncScrapedProducts: %v", err)
	}
	if run.Status != models.SyncSuccess {
		t.Fatalf("status = %q, want SUCCESS", run.Status)
	}

	for _, sku := range []string{"CAM-1", "CAM-2"} {
		matches, _ := repos.Products.BySKU(ctx, sku)
		if len(matches) != 1 {
			t.Fatalf("%s rows = %d, want 1", sku, len(matches))
		}
	}

	// Two spellings of the same color inferred one parameter, one option.
	parameters, _ := repos.Parameters.All(ctx)
	if len(parameters) != 1 {
		t.Fatalf("parameters = %d, want 1", len(parameters))
	}
	options, _ := repos.Parameters.OptionsByParameter(ctx, parameters[0].ID)
	if len(options) != 1 {
		t.Fatalf("options = %d, want 1", len(options))
	}
}

func TestSyncScrapedProductsRunsDuplicateRepairFirst(t *testing.T) {
	scrapedFeed := &fakeScrapedFeed{
		tree: []scraped.CategoryNode{{ID: "10", Name: "Cameras", Slug: "cameras", Count: 1}},
		items: map[string][]scraped.BrowseItem{
			"10": {{SKU: "CAM-1", Name: "Dome A", Price: 100}},
		},
	}
	svc, repos, _ := newServiceFixture(&fakeStructuredFeed{}, scrapedFeed)
	ctx := context.Background()

	if _, err := svc.SyncScrapedCategories(ctx); err != nil {
		t.Fatalf("SyncScrapedCategories: %v", err)
	}
	// Leftover duplicates from a hypothetical earlier run.
	for i := 0; i < 2; i++ {
		sku := "STALE-1"
		repos.Products.Create(ctx, &models.Product{SKU: &sku, Names: models.Names{"en": "Stale"}})
	}

	if _, err := svc.SyncScrapedProducts(ctx); err != nil {
		t.Fatalf("SyncScrapedProducts: %v", err)
	}

	matches, _ := repos.Products.BySKU(ctx, "STALE-1")
	if len(matches) != 1 {
		t.Fatalf("stale duplicates left = %d, want 1", len(matches))
	}
}

func TestInvalidateScrapedCache(t *testing.T) {
	scrapedFeed := &fakeScrapedFeed{}
	svc, _, _ := newServiceFixture(&fakeStructuredFeed{}, scrapedFeed)

	svc.InvalidateScrapedCache()
	if !scrapedFeed.invalidated {
		t.Fatal("cache not invalidated")
	}
}
