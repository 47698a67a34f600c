package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/campus-eats/internal/catalog"
)

type CatalogHandler struct {
	service catalog.Service
}

func NewCatalogHandler(service catalog.Service) *CatalogHandler {
	return &CatalogHandler{service: service}
}

func (h *CatalogHandler) RegisterRoutes(router chi.Router) {
	router.Get("/vendors", h.handleListVendors)
	router.Get("/vendors/{id}", h.handleGetVendor)
	router.Get("/vendors/{id}/menu", h.handleGetVendorMenu)
}

func (h *CatalogHandler) handleListVendors(w http.ResponseWriter, r *http.Request) {
	activeOnly := false
	if raw := r.URL.Query().Get("activeOnly"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid activeOnly parameter")
			return
		}
		activeOnly = v
	}

	vendors, err := h.service.ListVendors(r.Context(), activeOnly)
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to list vendors")
		return
	}
	respondWithJSON(w, http.StatusOK, vendors)
}

func (h *CatalogHandler) handleGetVendor(w http.ResponseWriter, r *http.Request) {
	vendorID, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	vendor, err := h.service.GetVendor(r.Context(), vendorID)
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to get vendor")
		return
	}
	respondWithJSON(w, http.StatusOK, vendor)
}

func (h *CatalogHandler) handleGetVendorMenu(w http.ResponseWriter, r *http.Request) {
	vendorID, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	items, err := h.service.GetVendorMenu(r.Context(), vendorID)
	if err != nil {
		respondWithServiceError(w, r, err, "Failed to get vendor menu")
		return
	}
	respondWithJSON(w, http.StatusOK, items)
}

func parseIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	idParam := chi.URLParam(r, "id")
	id, err := uuid.FromString(idParam)
	if err != nil {
		log.Warn().Err(err).Str("id", idParam).Msg("http: failed to parse id parameter from URL")
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return uuid.Nil, false
	}
	return id, true
}
