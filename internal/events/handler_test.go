package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/furever-community/backend/internal/auth"
	"github.com/furever-community/backend/internal/models"
	"github.com/furever-community/backend/internal/store"
)

const longDescription = "A community adoption day with games, food trucks and plenty of adoptable pets."

// fakeEventStore is an in-memory EventStore.
type fakeEventStore struct {
	events      map[string]*models.Event
	setImageErr error
}

func newFakeEventStore() *fakeEventStore {
	return &fakeEventStore{events: map[string]*models.Event{}}
}

func (f *fakeEventStore) InsertEvent(_ context.Context, ev *models.Event) (string, error) {
	ev.ID = primitive.NewObjectID()
	ev.CreatedAt = time.Now()
	cp := *ev
	f.events[ev.ID.Hex()] = &cp
	return ev.ID.Hex(), nil
}

func (f *fakeEventStore) ListEvents(_ context.Context) ([]models.Event, error) {
	out := make([]models.Event, 0, len(f.events))
	for _, ev := range f.events {
		out = append(out, *ev)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (f *fakeEventStore) GetEvent(_ context.Context, id string) (*models.Event, error) {
	ev, ok := f.events[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *ev
	return &cp, nil
}

func (f *fakeEventStore) UpdateEvent(_ context.Context, id string, upd models.EventUpdate) (*models.Event, error) {
	ev, ok := f.events[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if upd.Name != nil {
		ev.Name = *upd.Name
	}
	if upd.Date != nil {
		ev.Date = *upd.Date
	}
	if upd.Location != nil {
		ev.Location = *upd.Location
	}
	if upd.Description != nil {
		ev.Description = *upd.Description
	}
	cp := *ev
	return &cp, nil
}

func (f *fakeEventStore) SetEventImage(_ context.Context, id, objectKey string) error {
	if f.setImageErr != nil {
		return f.setImageErr
	}
	ev, ok := f.events[id]
	if !ok {
		return store.ErrNotFound
	}
	ev.ImageObjectKey = objectKey
	return nil
}

func (f *fakeEventStore) DeleteEvent(_ context.Context, id string) error {
	if _, ok := f.events[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.events, id)
	return nil
}

// fakeResolver maps user ids to usernames.
type fakeResolver map[string]string

func (f fakeResolver) UsernamesByID(_ context.Context, ids []string) (map[string]string, error) {
	out := map[string]string{}
	for _, id := range ids {
		if name, ok := f[id]; ok {
			out[id] = name
		}
	}
	return out, nil
}

// fakeFileStore is an in-memory FileStore.
type fakeFileStore struct {
	objects map[string][]byte
	types   map[string]string
}

func newFakeFileStore() *fakeFileStore {
	return &fakeFileStore{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeFileStore) Upload(_ context.Context, key string, r io.Reader, _ int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.objects[key] = data
	f.types[key] = contentType
	return nil
}

func (f *fakeFileStore) Download(_ context.Context, key string) ([]byte, string, error) {
	data, ok := f.objects[key]
	if !ok {
		return nil, "", store.ErrNotFound
	}
	return data, f.types[key], nil
}

func (f *fakeFileStore) Remove(_ context.Context, key string) error {
	delete(f.objects, key)
	delete(f.types, key)
	return nil
}

func newTestHandler() (*Handler, *fakeEventStore, fakeResolver, *fakeFileStore) {
	evs := newFakeEventStore()
	users := fakeResolver{"user-a": "alice", "user-b": "bob"}
	files := newFakeFileStore()
	return NewHandler(evs, users, files), evs, users, files
}

func doRequest(t *testing.T, h http.HandlerFunc, method, body, userID, eventID string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, "/", rd)
	ctx := req.Context()
	if userID != "" {
		ctx = auth.ContextWithUserID(ctx, userID)
	}
	if eventID != "" {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", eventID)
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}
	rec := httptest.NewRecorder()
	h(rec, req.WithContext(ctx))
	return rec
}

func eventBody(name, location string, date time.Time) string {
	return fmt.Sprintf(`{"name":%q,"date":%q,"location":%q,"description":%q}`,
		name, date.Format(time.RFC3339), location, longDescription)
}

func createEvent(t *testing.T, h *Handler, userID string) EventResponse {
	t.Helper()
	rec := doRequest(t, h.Create, http.MethodPost,
		eventBody("Adopt-a-thon", "City Park", time.Now().Add(24*time.Hour)), userID, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp EventResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestCreateAndGetRoundTrip(t *testing.T) {
	h, _, _, _ := newTestHandler()

	created := createEvent(t, h, "user-a")
	assert.Equal(t, "user-a", created.CreatedBy.ID)
	assert.Equal(t, "alice", created.CreatedBy.Username)

	rec := doRequest(t, h.Get, http.MethodGet, "", "", created.ID.Hex())
	require.Equal(t, http.StatusOK, rec.Code)

	var got EventResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, created.Name, got.Name)
	assert.Equal(t, created.Location, got.Location)
	assert.Equal(t, created.Description, got.Description)
	assert.True(t, created.Date.Equal(got.Date))
	assert.Equal(t, "user-a", got.CreatedBy.ID)
}

func TestCreateValidation(t *testing.T) {
	h, _, _, _ := newTestHandler()
	tomorrow := time.Now().Add(24 * time.Hour).Format(time.RFC3339)

	tests := []struct {
		name string
		body string
		want string
	}{
		{
			"missing fields",
			fmt.Sprintf(`{"name":"Adopt-a-thon","date":%q}`, tomorrow),
			"All fields are required",
		},
		{
			"short name",
			fmt.Sprintf(`{"name":"Ad","date":%q,"location":"City Park","description":%q}`, tomorrow, longDescription),
			"at least 3 characters",
		},
		{
			"short location",
			fmt.Sprintf(`{"name":"Adopt-a-thon","date":%q,"location":"CP","description":%q}`, tomorrow, longDescription),
			"at least 3 characters",
		},
		{
			"short description",
			fmt.Sprintf(`{"name":"Adopt-a-thon","date":%q,"location":"City Park","description":"too short"}`, tomorrow),
			"at least 40 characters",
		},
		{
			"past date",
			eventBody("Adopt-a-thon", "City Park", time.Now().Add(-24*time.Hour)),
			"must not be in the past",
		},
		{
			"bad date",
			fmt.Sprintf(`{"name":"Adopt-a-thon","date":"tomorrow","location":"City Park","description":%q}`, longDescription),
			"RFC 3339",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, h.Create, http.MethodPost, tt.body, "user-a", "")
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.want)
		})
	}
}

func TestGetNotFound(t *testing.T) {
	h, _, _, _ := newTestHandler()

	for _, id := range []string{primitive.NewObjectID().Hex(), "not-a-hex-id"} {
		rec := doRequest(t, h.Get, http.MethodGet, "", "", id)
		assert.Equal(t, http.StatusNotFound, rec.Code, "id %q", id)
	}
}

func TestUpdateOnlySuppliedFields(t *testing.T) {
	h, _, _, _ := newTestHandler()
	created := createEvent(t, h, "user-a")

	rec := doRequest(t, h.Update, http.MethodPut,
		`{"location":"Riverside Gardens"}`, "user-a", created.ID.Hex())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var updated EventResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "Riverside Gardens", updated.Location)
	assert.Equal(t, created.Name, updated.Name)
	assert.Equal(t, created.Description, updated.Description)
	assert.True(t, created.Date.Equal(updated.Date))
	assert.Equal(t, "user-a", updated.CreatedBy.ID, "creator never changes")
}

func TestUpdateForbiddenForNonCreator(t *testing.T) {
	h, evs, _, _ := newTestHandler()
	created := createEvent(t, h, "user-a")

	rec := doRequest(t, h.Update, http.MethodPut,
		`{"location":"Riverside Gardens"}`, "user-b", created.ID.Hex())
	assert.Equal(t, http.StatusForbidden, rec.Code)

	ev, err := evs.GetEvent(context.Background(), created.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "City Park", ev.Location, "forbidden update must not write")
}

func TestUpdateValidatesSuppliedFields(t *testing.T) {
	h, _, _, _ := newTestHandler()
	created := createEvent(t, h, "user-a")

	rec := doRequest(t, h.Update, http.MethodPut, `{"name":"Ad"}`, "user-a", created.ID.Hex())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateNotFound(t *testing.T) {
	h, _, _, _ := newTestHandler()

	rec := doRequest(t, h.Update, http.MethodPut,
		`{"location":"Riverside Gardens"}`, "user-a", primitive.NewObjectID().Hex())
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDelete(t *testing.T) {
	h, evs, _, files := newTestHandler()
	created := createEvent(t, h, "user-a")
	id := created.ID.Hex()

	// attach an image so delete has something to clean up
	require.NoError(t, files.Upload(context.Background(), "events/img-1",
		bytes.NewReader([]byte("png")), 3, "image/png"))
	require.NoError(t, evs.SetEventImage(context.Background(), id, "events/img-1"))

	// non-creator
	rec := doRequest(t, h.Delete, http.MethodDelete, "", "user-b", id)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// creator
	rec = doRequest(t, h.Delete, http.MethodDelete, "", "user-a", id)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, evs.events)
	assert.Empty(t, files.objects, "image removed with the event")

	// already gone
	rec = doRequest(t, h.Delete, http.MethodDelete, "", "user-a", id)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListSortedWithUsernames(t *testing.T) {
	h, evs, _, _ := newTestHandler()

	later := &models.Event{Name: "Later", Date: time.Now().Add(48 * time.Hour),
		Location: "City Park", Description: longDescription, CreatedBy: "user-b"}
	sooner := &models.Event{Name: "Sooner", Date: time.Now().Add(24 * time.Hour),
		Location: "City Park", Description: longDescription, CreatedBy: "user-a"}
	orphan := &models.Event{Name: "Orphaned", Date: time.Now().Add(72 * time.Hour),
		Location: "City Park", Description: longDescription, CreatedBy: "user-gone"}
	for _, ev := range []*models.Event{later, sooner, orphan} {
		_, err := evs.InsertEvent(context.Background(), ev)
		require.NoError(t, err)
	}

	rec := doRequest(t, h.List, http.MethodGet, "", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var out []EventResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out, 3)
	assert.Equal(t, []string{"Sooner", "Later", "Orphaned"},
		[]string{out[0].Name, out[1].Name, out[2].Name})
	assert.Equal(t, "alice", out[0].CreatedBy.Username)
	assert.Equal(t, "bob", out[1].CreatedBy.Username)
	assert.Empty(t, out[2].CreatedBy.Username, "deleted creator resolves to empty username")
}

func multipartImage(t *testing.T) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("image", "pet.png")
	require.NoError(t, err)
	_, err = fw.Write([]byte("fake png bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func uploadImage(t *testing.T, h *Handler, userID, eventID string) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartImage(t)
	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", contentType)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", eventID)
	ctx := auth.ContextWithUserID(req.Context(), userID)
	req = req.WithContext(context.WithValue(ctx, chi.RouteCtxKey, rctx))

	rec := httptest.NewRecorder()
	h.UploadImage(rec, req)
	return rec
}

func TestUploadAndGetImage(t *testing.T) {
	h, evs, _, files := newTestHandler()
	created := createEvent(t, h, "user-a")
	id := created.ID.Hex()

	rec := uploadImage(t, h, "user-a", id)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp EventResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.HasImage)
	require.Len(t, files.objects, 1)

	ev, err := evs.GetEvent(context.Background(), id)
	require.NoError(t, err)
	firstKey := ev.ImageObjectKey
	require.NotEmpty(t, firstKey)

	get := doRequest(t, h.GetImage, http.MethodGet, "", "", id)
	require.Equal(t, http.StatusOK, get.Code)
	assert.Equal(t, "fake png bytes", get.Body.String())

	// re-upload replaces the previous object
	rec = uploadImage(t, h, "user-a", id)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	ev, err = evs.GetEvent(context.Background(), id)
	require.NoError(t, err)
	assert.NotEqual(t, firstKey, ev.ImageObjectKey)
	require.Len(t, files.objects, 1, "old object removed on replace")
	assert.NotContains(t, files.objects, firstKey)
	assert.Contains(t, files.objects, ev.ImageObjectKey)
}

func TestUploadImageForbidden(t *testing.T) {
	h, _, _, files := newTestHandler()
	created := createEvent(t, h, "user-a")

	rec := uploadImage(t, h, "user-b", created.ID.Hex())
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, files.objects)
}

func TestUploadImageStoreFailureCleansUp(t *testing.T) {
	h, evs, _, files := newTestHandler()
	created := createEvent(t, h, "user-a")
	evs.setImageErr = errors.New("mongo down")

	rec := uploadImage(t, h, "user-a", created.ID.Hex())
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Empty(t, files.objects, "uploaded object removed when the key cannot be recorded")
}

func TestGetImageNotAvailable(t *testing.T) {
	h, _, _, _ := newTestHandler()
	created := createEvent(t, h, "user-a")

	rec := doRequest(t, h.GetImage, http.MethodGet, "", "", created.ID.Hex())
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
