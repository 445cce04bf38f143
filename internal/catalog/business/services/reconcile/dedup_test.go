package reconcile

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"catalogsync_api/internal/catalog/models"
)

func TestDuplicateRepairCollapsesToLowestID(t *testing.T) {
	repos, _, _, _, products, _ := newFakeRepositories()
	ctx := context.Background()

	sku := "DUP-9"
	for i := 0; i < 4; i++ {
		sku := sku
		repos.Products.Create(ctx, &models.Product{SKU: &sku, Names: models.Names{"en": "Dup"}})
	}
	unique := "OK-1"
	repos.Products.Create(ctx, &models.Product{SKU: &unique, Names: models.Names{"en": "Unique"}})

	repair := NewDuplicateRepair(repos.Products, zap.NewNop())
	removed, err := repair.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if removed != 3 {
		t.Fatalf("removed = %d, want 3", removed)
	}

	matches, _ := repos.Products.BySKU(ctx, sku)
	if len(matches) != 1 {
		t.Fatalf("rows left = %d, want 1", len(matches))
	}
	if matches[0].ID != 1 {
		t.Fatalf("kept id = %d, want lowest id 1", matches[0].ID)
	}
	if left, _ := repos.Products.BySKU(ctx, unique); len(left) != 1 {
		t.Fatal("unique product was touched")
	}
	if products.deletes != 3 {
		t.Fatalf("deletes = %d, want 3", products.deletes)
	}
}

func TestDuplicateRepairExternalIDGroups(t *testing.T) {
	repos, _, _, _, _, _ := newFakeRepositories()
	ctx := context.Background()

	ext := int64(77)
	for i := 0; i < 2; i++ {
		ext := ext
		repos.Products.Create(ctx, &models.Product{ExternalID: &ext, Names: models.Names{"en": "Dup"}})
	}

	repair := NewDuplicateRepair(repos.Products, zap.NewNop())
	removed, err := repair.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}

	kept, _ := repos.Products.ByExternalID(ctx, ext)
	if kept == nil || kept.ID != 1 {
		t.Fatalf("kept = %+v, want id 1", kept)
	}
}

func TestDuplicateRepairNoopWhenClean(t *testing.T) {
	repos, _, _, _, _, _ := newFakeRepositories()
	repair := NewDuplicateRepair(repos.Products, zap.NewNop())

	removed, err := repair.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if removed != 0 {
		t.Fatalf("removed = %d, want 0", removed)
	}
}
