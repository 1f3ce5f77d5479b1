package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/furever-community/backend/internal/auth"
	"github.com/furever-community/backend/internal/models"
	"github.com/furever-community/backend/internal/store"
	"github.com/furever-community/backend/internal/web"
)

const (
	minNameLen        = 3
	minLocationLen    = 3
	minDescriptionLen = 40
	maxImageBytes     = 5 << 20
)

// EventStore defines the interface for event persistence.
type EventStore interface {
	InsertEvent(ctx context.Context, ev *models.Event) (string, error)
	ListEvents(ctx context.Context) ([]models.Event, error)
	GetEvent(ctx context.Context, id string) (*models.Event, error)
	UpdateEvent(ctx context.Context, id string, upd models.EventUpdate) (*models.Event, error)
	SetEventImage(ctx context.Context, id, objectKey string) error
	DeleteEvent(ctx context.Context, id string) error
}

// UserResolver resolves creator ids to usernames for the read-only
// join in event responses.
type UserResolver interface {
	UsernamesByID(ctx context.Context, ids []string) (map[string]string, error)
}

// FileStore defines the interface for event image storage.
type FileStore interface {
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Download(ctx context.Context, key string) ([]byte, string, error)
	Remove(ctx context.Context, key string) error
}

// Handler holds the event HTTP handlers.
type Handler struct {
	events EventStore
	users  UserResolver
	files  FileStore
}

func NewHandler(events EventStore, users UserResolver, files FileStore) *Handler {
	return &Handler{events: events, users: users, files: files}
}

// CreatorRef is the expanded creator reference in event responses. A
// deleted creator leaves Username empty.
type CreatorRef struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// EventResponse is an event with its creator expanded.
type EventResponse struct {
	models.Event
	CreatedBy CreatorRef `json:"createdBy"`
	HasImage  bool       `json:"hasImage"`
}

func (h *Handler) respond(ctx context.Context, ev *models.Event) EventResponse {
	names, err := h.users.UsernamesByID(ctx, []string{ev.CreatedBy})
	username := ""
	if err == nil {
		username = names[ev.CreatedBy]
	}
	return EventResponse{
		Event:     *ev,
		CreatedBy: CreatorRef{ID: ev.CreatedBy, Username: username},
		HasImage:  ev.ImageObjectKey != "",
	}
}

// List returns all events ordered by date ascending with creator
// usernames resolved in one batch.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	evs, err := h.events.ListEvents(r.Context())
	if err != nil {
		web.Error(w, r, http.StatusInternalServerError, "Error fetching events", err)
		return
	}

	ids := make([]string, 0, len(evs))
	for _, ev := range evs {
		ids = append(ids, ev.CreatedBy)
	}
	names, err := h.users.UsernamesByID(r.Context(), ids)
	if err != nil {
		web.Error(w, r, http.StatusInternalServerError, "Error fetching events", err)
		return
	}

	out := make([]EventResponse, 0, len(evs))
	for i := range evs {
		ev := evs[i]
		out = append(out, EventResponse{
			Event:     ev,
			CreatedBy: CreatorRef{ID: ev.CreatedBy, Username: names[ev.CreatedBy]},
			HasImage:  ev.ImageObjectKey != "",
		})
	}
	web.JSON(w, http.StatusOK, out)
}

// Get returns a single event.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	ev, err := h.events.GetEvent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			web.Error(w, r, http.StatusNotFound, "Event not found", nil)
			return
		}
		web.Error(w, r, http.StatusInternalServerError, "Error fetching event", err)
		return
	}
	web.JSON(w, http.StatusOK, h.respond(r.Context(), ev))
}

// Create stores a new event owned by the authenticated user.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.EventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		web.Error(w, r, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" || req.Date == "" || req.Location == "" || req.Description == "" {
		web.Error(w, r, http.StatusBadRequest, "All fields are required", nil)
		return
	}

	date, msg := validateFields(req, true)
	if msg != "" {
		web.Error(w, r, http.StatusBadRequest, msg, nil)
		return
	}

	ev := &models.Event{
		Name:        req.Name,
		Date:        *date,
		Location:    req.Location,
		Description: req.Description,
		CreatedBy:   auth.UserIDFromContext(r.Context()),
	}
	id, err := h.events.InsertEvent(r.Context(), ev)
	if err != nil {
		web.Error(w, r, http.StatusInternalServerError, "Error creating event", err)
		return
	}

	created, err := h.events.GetEvent(r.Context(), id)
	if err != nil {
		web.Error(w, r, http.StatusInternalServerError, "Error creating event", err)
		return
	}
	web.JSON(w, http.StatusCreated, h.respond(r.Context(), created))
}

// Update overwrites the supplied fields on an event the caller owns.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req models.EventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		web.Error(w, r, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ev, ok := h.requireOwner(w, r)
	if !ok {
		return
	}

	date, msg := validateFields(req, false)
	if msg != "" {
		web.Error(w, r, http.StatusBadRequest, msg, nil)
		return
	}

	var upd models.EventUpdate
	if req.Name != "" {
		upd.Name = &req.Name
	}
	if date != nil {
		upd.Date = date
	}
	if req.Location != "" {
		upd.Location = &req.Location
	}
	if req.Description != "" {
		upd.Description = &req.Description
	}

	updated, err := h.events.UpdateEvent(r.Context(), ev.ID.Hex(), upd)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			web.Error(w, r, http.StatusNotFound, "Event not found", nil)
			return
		}
		web.Error(w, r, http.StatusInternalServerError, "Error updating event", err)
		return
	}
	web.JSON(w, http.StatusOK, h.respond(r.Context(), updated))
}

// Delete permanently removes an event the caller owns, along with its
// stored image.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	ev, ok := h.requireOwner(w, r)
	if !ok {
		return
	}

	if err := h.events.DeleteEvent(r.Context(), ev.ID.Hex()); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			web.Error(w, r, http.StatusNotFound, "Event not found", nil)
			return
		}
		web.Error(w, r, http.StatusInternalServerError, "Error deleting event", err)
		return
	}
	if ev.ImageObjectKey != "" {
		if err := h.files.Remove(r.Context(), ev.ImageObjectKey); err != nil {
			zerolog.Ctx(r.Context()).Warn().Err(err).Str("key", ev.ImageObjectKey).Msg("orphaned event image")
		}
	}
	web.Message(w, http.StatusOK, "Event deleted successfully")
}

// UploadImage attaches an image to an event the caller owns, replacing
// any previous one.
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	ev, ok := h.requireOwner(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxImageBytes)
	if err := r.ParseMultipartForm(maxImageBytes); err != nil {
		web.Error(w, r, http.StatusBadRequest, "Invalid image upload", err)
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		web.Error(w, r, http.StatusBadRequest, "Image file is required", nil)
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := fmt.Sprintf("events/%s", uuid.New().String())
	if err := h.files.Upload(r.Context(), key, file, header.Size, contentType); err != nil {
		web.Error(w, r, http.StatusInternalServerError, "Error storing image", err)
		return
	}
	if err := h.events.SetEventImage(r.Context(), ev.ID.Hex(), key); err != nil {
		if rmErr := h.files.Remove(r.Context(), key); rmErr != nil {
			zerolog.Ctx(r.Context()).Warn().Err(rmErr).Str("key", key).Msg("orphaned event image")
		}
		web.Error(w, r, http.StatusInternalServerError, "Error storing image", err)
		return
	}
	if ev.ImageObjectKey != "" {
		if err := h.files.Remove(r.Context(), ev.ImageObjectKey); err != nil {
			zerolog.Ctx(r.Context()).Warn().Err(err).Str("key", ev.ImageObjectKey).Msg("orphaned event image")
		}
	}

	updated, err := h.events.GetEvent(r.Context(), ev.ID.Hex())
	if err != nil {
		web.Error(w, r, http.StatusInternalServerError, "Error storing image", err)
		return
	}
	web.JSON(w, http.StatusOK, h.respond(r.Context(), updated))
}

// GetImage streams the event's image.
func (h *Handler) GetImage(w http.ResponseWriter, r *http.Request) {
	ev, err := h.events.GetEvent(r.Context(), chi.URLParam(r, "id"))
	if err != nil || ev.ImageObjectKey == "" {
		web.Error(w, r, http.StatusNotFound, "Image not available", nil)
		return
	}

	data, contentType, err := h.files.Download(r.Context(), ev.ImageObjectKey)
	if err != nil {
		web.Error(w, r, http.StatusInternalServerError, "Error fetching image", err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}

// requireOwner loads the event from the id route param and enforces
// creator-only mutation. It writes the error response itself when the
// check fails.
func (h *Handler) requireOwner(w http.ResponseWriter, r *http.Request) (*models.Event, bool) {
	ev, err := h.events.GetEvent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			web.Error(w, r, http.StatusNotFound, "Event not found", nil)
			return nil, false
		}
		web.Error(w, r, http.StatusInternalServerError, "Error fetching event", err)
		return nil, false
	}
	if ev.CreatedBy != auth.UserIDFromContext(r.Context()) {
		web.Error(w, r, http.StatusForbidden, "You do not have permission to modify this event", nil)
		return nil, false
	}
	return ev, true
}

// validateFields checks the event constraints. On create every field
// is required; on update only supplied fields are checked. It returns
// the parsed date (nil when absent) and an error message, empty when
// valid.
func validateFields(req models.EventRequest, create bool) (*time.Time, string) {
	if (create || req.Name != "") && len(req.Name) < minNameLen {
		return nil, "Event name must be at least 3 characters"
	}
	if (create || req.Location != "") && len(req.Location) < minLocationLen {
		return nil, "Location must be at least 3 characters"
	}
	if (create || req.Description != "") && len(req.Description) < minDescriptionLen {
		return nil, "Description must be at least 40 characters"
	}
	if req.Date == "" {
		return nil, ""
	}
	date, err := time.Parse(time.RFC3339, req.Date)
	if err != nil {
		return nil, "Date must be a valid RFC 3339 timestamp"
	}
	if date.Before(time.Now()) {
		return nil, "Event date must not be in the past"
	}
	return &date, ""
}
