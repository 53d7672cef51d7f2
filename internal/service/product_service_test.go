package service

import (
	"context"
	"errors"
	"os"
	"path"
	"path/filepath"
	"testing"

	"inventory-api/internal/model"
	"inventory-api/internal/repository"
	"inventory-api/internal/upload"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newTestService(t *testing.T) (*ProductService, *repository.InMemoryProductRepository, *upload.Store) {
	t.Helper()
	store, err := upload.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	repo := repository.NewInMemoryProductRepository()
	return NewProductService(repo, store), repo, store
}

// placeImage drops a fake stored image on disk and returns its public path.
func placeImage(t *testing.T, store *upload.Store, name string) string {
	t.Helper()
	if err := os.WriteFile(filepath.Join(store.Dir(), name), []byte("png-bytes"), 0o644); err != nil {
		t.Fatalf("write image: %v", err)
	}
	return path.Join(upload.PublicPrefix, name)
}

func imageExists(store *upload.Store, publicPath string) bool {
	_, err := os.Stat(filepath.Join(store.Dir(), path.Base(publicPath)))
	return err == nil
}

func validInput(sku string) ProductInput {
	return ProductInput{
		Name:              "Laptop",
		Category:          "electronics",
		SKU:               sku,
		Price:             10,
		Quantity:          2,
		LowStockThreshold: 5,
	}
}

func TestCreate_ThenLowStockScenario(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, validInput("A1"), "", nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	listing, err := svc.List(ctx, repository.ProductQuery{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if listing.LowStockCount != 1 || len(listing.LowStockProducts) != 1 {
		t.Fatalf("expected product in low-stock list, got count=%d", listing.LowStockCount)
	}
	if listing.LowStockCount != len(listing.LowStockProducts) {
		t.Fatalf("lowStockCount %d disagrees with list length %d", listing.LowStockCount, len(listing.LowStockProducts))
	}

	quantity := 10
	if _, err := svc.Update(ctx, created.ID.Hex(), ProductPatch{Quantity: &quantity}, ""); err != nil {
		t.Fatalf("Update: %v", err)
	}

	listing, err = svc.List(ctx, repository.ProductQuery{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if listing.LowStockCount != 0 || len(listing.LowStockProducts) != 0 {
		t.Fatalf("expected empty low-stock list after restock, got count=%d", listing.LowStockCount)
	}
}

func TestCreate_ValidationRejectsBeforeMutation(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	in := validInput("A1")
	in.Name = ""
	in.Price = -1

	_, err := svc.Create(ctx, in, "", nil)
	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	fields := map[string]bool{}
	for _, fe := range validation.Errors {
		fields[fe.Field] = true
	}
	if !fields["name"] || !fields["price"] {
		t.Errorf("expected name and price errors, got %v", validation.Errors)
	}

	if n, _ := repo.CountAll(ctx); n != 0 {
		t.Errorf("rejected create must not insert, count=%d", n)
	}
}

func TestCreate_DuplicateSKUDiscardsImage(t *testing.T) {
	svc, _, store := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, validInput("A1"), "", nil); err != nil {
		t.Fatalf("Create: %v", err)
	}

	orphan := placeImage(t, store, "image-1-1.png")
	_, err := svc.Create(ctx, validInput("A1"), orphan, nil)
	if !errors.Is(err, repository.ErrDuplicateSKU) {
		t.Fatalf("expected ErrDuplicateSKU, got %v", err)
	}
	if imageExists(store, orphan) {
		t.Error("image of rejected create should be removed from disk")
	}
}

func TestUpdate_PartialRetainsOmittedFields(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, validInput("A1"), "", nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	price := 99.5
	updated, err := svc.Update(ctx, created.ID.Hex(), ProductPatch{Price: &price}, "")
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	if updated.Price != 99.5 {
		t.Errorf("price not updated: %v", updated.Price)
	}
	if updated.Name != created.Name || updated.Quantity != created.Quantity || updated.SKU != created.SKU {
		t.Errorf("omitted fields changed: %+v", updated)
	}
}

func TestUpdate_ImageLifecycle(t *testing.T) {
	svc, _, store := newTestService(t)
	ctx := context.Background()

	first := placeImage(t, store, "image-1-1.png")
	created, err := svc.Create(ctx, validInput("A1"), first, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.Image != first {
		t.Fatalf("image path not recorded: %q", created.Image)
	}

	// No new image: the stored path is untouched.
	name := "Renamed"
	updated, err := svc.Update(ctx, created.ID.Hex(), ProductPatch{Name: &name}, "")
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Image != first {
		t.Errorf("image changed without a new upload: %q", updated.Image)
	}
	if !imageExists(store, first) {
		t.Error("image file must survive an update without a new upload")
	}

	// New image: record points at it, old file is gone.
	second := placeImage(t, store, "image-2-2.png")
	updated, err = svc.Update(ctx, created.ID.Hex(), ProductPatch{}, second)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Image != second {
		t.Errorf("image path not replaced: %q", updated.Image)
	}
	if imageExists(store, first) {
		t.Error("replaced image file should be deleted")
	}
	if !imageExists(store, second) {
		t.Error("new image file should remain")
	}
}

func TestUpdate_FailureDiscardsNewImage(t *testing.T) {
	svc, _, store := newTestService(t)
	ctx := context.Background()

	orphan := placeImage(t, store, "image-3-3.png")
	_, err := svc.Update(ctx, primitive.NewObjectID().Hex(), ProductPatch{}, orphan)
	if !errors.Is(err, repository.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
	if imageExists(store, orphan) {
		t.Error("image of failed update should be removed from disk")
	}
}

func TestDelete_RemovesRecordAndFile(t *testing.T) {
	svc, repo, store := newTestService(t)
	ctx := context.Background()

	image := placeImage(t, store, "image-4-4.png")
	created, err := svc.Create(ctx, validInput("A1"), image, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := svc.Delete(ctx, created.ID.Hex()); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if n, _ := repo.CountAll(ctx); n != 0 {
		t.Errorf("record not removed, count=%d", n)
	}
	if imageExists(store, image) {
		t.Error("image file not removed with the record")
	}

	if err := svc.Delete(ctx, created.ID.Hex()); !errors.Is(err, repository.ErrProductNotFound) {
		t.Errorf("expected ErrProductNotFound on second delete, got %v", err)
	}
	if err := svc.Delete(ctx, "not-a-hex-id"); !errors.Is(err, ErrInvalidID) {
		t.Errorf("expected ErrInvalidID, got %v", err)
	}
}

func TestStats(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	empty, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if empty.TotalProducts != 0 || empty.TotalValue != 0 {
		t.Fatalf("empty collection stats should be zero: %+v", empty)
	}

	seeds := []ProductInput{
		{Name: "Laptop", Category: "electronics", SKU: "EL-1", Price: 1500, Quantity: 2, LowStockThreshold: 5},
		{Name: "Mouse", Category: "electronics", SKU: "EL-2", Price: 25, Quantity: 100, LowStockThreshold: 10},
		{Name: "Desk", Category: "furniture", SKU: "FU-1", Price: 300, Quantity: 3, LowStockThreshold: 3},
	}
	for _, in := range seeds {
		if _, err := svc.Create(ctx, in, "", nil); err != nil {
			t.Fatalf("Create %s: %v", in.SKU, err)
		}
	}

	stats, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalProducts != 3 {
		t.Errorf("TotalProducts = %d, want 3", stats.TotalProducts)
	}
	if stats.LowStock != 2 {
		t.Errorf("LowStock = %d, want 2", stats.LowStock)
	}
	if want := 1500.0*2 + 25.0*100 + 300.0*3; stats.TotalValue != want {
		t.Errorf("TotalValue = %v, want %v", stats.TotalValue, want)
	}
	if len(stats.Categories) != 2 {
		t.Errorf("Categories = %+v, want 2 buckets", stats.Categories)
	}

	// CreatedBy travels through to listings.
	ref := &model.UserRef{ID: primitive.NewObjectID(), Username: "alice"}
	if _, err := svc.Create(ctx, validInput("A9"), "", ref); err != nil {
		t.Fatalf("Create: %v", err)
	}
	listing, err := svc.List(ctx, repository.ProductQuery{Search: "A9"})
	if err != nil || len(listing.Products) != 1 {
		t.Fatalf("List: %v (%d)", err, len(listing.Products))
	}
	if listing.Products[0].CreatedBy == nil || listing.Products[0].CreatedBy.Username != "alice" {
		t.Errorf("createdBy not carried: %+v", listing.Products[0].CreatedBy)
	}
}
