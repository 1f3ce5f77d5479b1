package shelters

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/furever-community/backend/internal/models"
	"github.com/furever-community/backend/internal/store"
	"github.com/furever-community/backend/internal/web"
)

// defaultNearbyMeters bounds a proximity query when the client does
// not pass maxDistance.
const defaultNearbyMeters = 10_000

// ShelterStore defines the interface for shelter reads.
type ShelterStore interface {
	ListShelters(ctx context.Context) ([]models.Shelter, error)
	GetShelter(ctx context.Context, id string) (*models.Shelter, error)
	NearbyShelters(ctx context.Context, lng, lat, maxMeters float64) ([]models.Shelter, error)
}

// ListCache caches the full shelter list.
type ListCache interface {
	Get(ctx context.Context) ([]models.Shelter, bool)
	Set(ctx context.Context, shelters []models.Shelter)
}

// Handler holds the shelter HTTP handlers.
type Handler struct {
	shelters ShelterStore
	cache    ListCache
}

func NewHandler(shelters ShelterStore, cache ListCache) *Handler {
	return &Handler{shelters: shelters, cache: cache}
}

// List returns all shelters, served from the cache when warm.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if cached, ok := h.cache.Get(r.Context()); ok {
		web.JSON(w, http.StatusOK, cached)
		return
	}

	shelters, err := h.shelters.ListShelters(r.Context())
	if err != nil {
		web.Error(w, r, http.StatusInternalServerError, "Error fetching shelters", err)
		return
	}
	if shelters == nil {
		shelters = []models.Shelter{}
	}
	h.cache.Set(r.Context(), shelters)
	web.JSON(w, http.StatusOK, shelters)
}

// Get returns a single shelter.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	shelter, err := h.shelters.GetShelter(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			web.Error(w, r, http.StatusNotFound, "Shelter not found", nil)
			return
		}
		web.Error(w, r, http.StatusInternalServerError, "Error fetching shelter", err)
		return
	}
	web.JSON(w, http.StatusOK, shelter)
}

// Nearby returns shelters around a point, nearest first. Query
// params: lng, lat (required), maxDistance in meters (optional).
func (h *Handler) Nearby(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lng, errLng := strconv.ParseFloat(q.Get("lng"), 64)
	lat, errLat := strconv.ParseFloat(q.Get("lat"), 64)
	if errLng != nil || errLat != nil || lng < -180 || lng > 180 || lat < -90 || lat > 90 {
		web.Error(w, r, http.StatusBadRequest, "Valid lng and lat are required", nil)
		return
	}

	maxMeters := float64(defaultNearbyMeters)
	if v := q.Get("maxDistance"); v != "" {
		m, err := strconv.ParseFloat(v, 64)
		if err != nil || m <= 0 {
			web.Error(w, r, http.StatusBadRequest, "maxDistance must be a positive number", nil)
			return
		}
		maxMeters = m
	}

	shelters, err := h.shelters.NearbyShelters(r.Context(), lng, lat, maxMeters)
	if err != nil {
		web.Error(w, r, http.StatusInternalServerError, "Error fetching shelters", err)
		return
	}
	if shelters == nil {
		shelters = []models.Shelter{}
	}
	web.JSON(w, http.StatusOK, shelters)
}
