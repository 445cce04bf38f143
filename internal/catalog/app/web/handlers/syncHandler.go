package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"catalogsync_api/internal/catalog/business/services/reconcile"
	"catalogsync_api/internal/catalog/models"
)

// SyncHandler exposes the manual trigger surface. Every trigger runs the
// sync synchronously and answers with the finished ledger row.
type SyncHandler struct {
	service *reconcile.SyncService
	logger  *zap.Logger
}

func NewSyncHandler(service *reconcile.SyncService, logger *zap.Logger) *SyncHandler {
	return &SyncHandler{service: service, logger: logger}
}

func (h *SyncHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/sync/categories", h.SyncCategoriesHandler)
	mux.HandleFunc("/api/sync/manufacturers", h.SyncManufacturersHandler)
	mux.HandleFunc("/api/sync/parameters", h.SyncParametersHandler)
	mux.HandleFunc("/api/sync/products", h.SyncProductsHandler)
	mux.HandleFunc("/api/sync/all", h.FetchAllHandler)
	mux.HandleFunc("/api/sync/scraped/categories", h.SyncScrapedCategoriesHandler)
	mux.HandleFunc("/api/sync/scraped/products", h.SyncScrapedProductsHandler)
	mux.HandleFunc("/api/sync/scraped/cache", h.InvalidateCacheHandler)
}

func (h *SyncHandler) SyncCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	h.trigger(w, r, h.service.SyncCategories)
}

func (h *SyncHandler) SyncManufacturersHandler(w http.ResponseWriter, r *http.Request) {
	h.trigger(w, r, h.service.SyncManufacturers)
}

func (h *SyncHandler) SyncParametersHandler(w http.ResponseWriter, r *http.Request) {
	h.trigger(w, r, h.service.SyncParameters)
}

// SyncProductsHandler syncs every known category, or one category when the
// category_id query parameter carries its external id.
func (h *SyncHandler) SyncProductsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}

	raw := r.URL.Query().Get("category_id")
	if raw == "" {
		run, err := h.service.SyncProducts(r.Context())
		h.respond(w, run, err)
		return
	}

	categoryID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		http.Error(w, "category_id must be an integer", http.StatusBadRequest)
		return
	}
	run, err := h.service.SyncProductsByCategory(r.Context(), categoryID)
	h.respond(w, run, err)
}

func (h *SyncHandler) FetchAllHandler(w http.ResponseWriter, r *http.Request) {
	h.trigger(w, r, h.service.FetchAll)
}

func (h *SyncHandler) SyncScrapedCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	h.trigger(w, r, h.service.SyncScrapedCategories)
}

func (h *SyncHandler) SyncScrapedProductsHandler(w http.ResponseWriter, r *http.Request) {
	h.trigger(w, r, h.service.SyncScrapedProducts)
}

func (h *SyncHandler) InvalidateCacheHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}
	h.service.InvalidateScrapedCache()
	w.WriteHeader(http.StatusNoContent)
}

func (h *SyncHandler) trigger(w http.ResponseWriter, r *http.Request,
	fn func(ctx context.Context) (*models.SyncRun, error)) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}
	run, err := fn(r.Context())
	h.respond(w, run, err)
}

// respond writes the finished ledger row. A failed run still carries its
// row, so the caller sees counts and the failure message together.
func (h *SyncHandler) respond(w http.ResponseWriter, run *models.SyncRun, err error) {
	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
	if run == nil {
		run = &models.SyncRun{}
	}
	if encodeErr := json.NewEncoder(w).Encode(run); encodeErr != nil {
		h.logger.Error("failed to encode sync run response", zap.Error(encodeErr))
	}
}
