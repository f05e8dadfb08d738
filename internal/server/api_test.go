package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/MarcoPoloResearchLab/quicknote/internal/notes"
)

func seededNotesService() *stubNotesService {
	return &stubNotesService{items: []notes.Note{
		{
			ID:          notes.NoteID("note-1"),
			Title:       "GROCERIES",
			Description: "milk",
			Slug:        "groceries_abcdefghij",
			Time:        time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
			UploadedBy:  notes.Author{ID: "12345", Name: "Ada"},
		},
	}}
}

func TestListNotesReturnsCollection(t *testing.T) {
	router := newTestRouter(t, seededNotesService(), nil)

	recorder := httptest.NewRecorder()
	router.handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/notes?order_by=title", http.NoBody))

	if recorder.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d body=%s", recorder.Code, recorder.Body.String())
	}
	var response listNotesResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(response.Notes) != 1 {
		t.Fatalf("expected one note, got %d", len(response.Notes))
	}
	note := response.Notes[0]
	if note.Slug != "groceries_abcdefghij" || note.UploadedBy.Name != "Ada" {
		t.Fatalf("unexpected note payload %+v", note)
	}
	if router.service.lastOrder != notes.OrderTitle {
		t.Fatalf("expected order field %q, got %q", notes.OrderTitle, router.service.lastOrder)
	}
}

func TestListNotesEmptyCollectionEncodesArray(t *testing.T) {
	router := newTestRouter(t, &stubNotesService{}, nil)

	recorder := httptest.NewRecorder()
	router.handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/notes", http.NoBody))

	if recorder.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
	if !strings.Contains(recorder.Body.String(), `"notes":[]`) {
		t.Fatalf("expected empty notes array, got %s", recorder.Body.String())
	}
}

func TestListNotesRejectsUnknownOrderField(t *testing.T) {
	router := newTestRouter(t, seededNotesService(), nil)

	recorder := httptest.NewRecorder()
	router.handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/notes?order_by=color", http.NoBody))

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", recorder.Code)
	}
	if router.service.fetches != 0 {
		t.Fatalf("expected no fetch for invalid order field")
	}
}

func TestListNotesPassesBackendMessageThrough(t *testing.T) {
	service := &stubNotesService{fetchErr: errors.New("connection refused")}
	router := newTestRouter(t, service, nil)

	recorder := httptest.NewRecorder()
	router.handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/notes", http.NoBody))

	if recorder.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", recorder.Code)
	}
	var payload map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload["error"] != "list_failed" || payload["message"] != "connection refused" {
		t.Fatalf("unexpected error payload %v", payload)
	}
}

func TestGetNoteBySlug(t *testing.T) {
	router := newTestRouter(t, seededNotesService(), nil)

	recorder := httptest.NewRecorder()
	router.handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/notes/groceries_abcdefghij", http.NoBody))
	if recorder.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
	var response createNoteResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Note.Title != "GROCERIES" {
		t.Fatalf("unexpected note %+v", response.Note)
	}

	missing := httptest.NewRecorder()
	router.handler.ServeHTTP(missing, httptest.NewRequest(http.MethodGet, "/api/notes/unknown", http.NoBody))
	if missing.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown slug, got %d", missing.Code)
	}
}

func TestCreateNoteRequiresSession(t *testing.T) {
	router := newTestRouter(t, &stubNotesService{}, nil)

	request := httptest.NewRequest(http.MethodPost, "/api/notes", strings.NewReader(`{"title":"a","description":"b"}`))
	request.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	router.handler.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", recorder.Code)
	}
}

func TestCreateNoteRejectsBlankFields(t *testing.T) {
	router := newTestRouter(t, &stubNotesService{}, nil)
	token := issueTestSession(t, router.issuer, "12345", "Ada")

	request := httptest.NewRequest(http.MethodPost, "/api/notes", strings.NewReader(`{"title":"  ","description":"body"}`))
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Authorization", "Bearer "+token)
	recorder := httptest.NewRecorder()
	router.handler.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", recorder.Code)
	}
	if len(router.service.items) != 0 {
		t.Fatalf("expected nothing stored")
	}
}

func TestCreateNoteStoresAndAnnounces(t *testing.T) {
	router := newTestRouter(t, &stubNotesService{}, nil)
	token := issueTestSession(t, router.issuer, "12345", "Ada")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, unsubscribe := router.realtime.Subscribe(ctx, RealtimeTopicNotes)
	defer unsubscribe()

	request := httptest.NewRequest(http.MethodPost, "/api/notes", strings.NewReader(`{"title":"groceries","description":"milk"}`))
	request.Header.Set("Content-Type", "application/json")
	request.AddCookie(&http.Cookie{Name: testCookieName, Value: token})
	recorder := httptest.NewRecorder()
	router.handler.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", recorder.Code, recorder.Body.String())
	}
	var response createNoteResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Note.Title != "GROCERIES" {
		t.Fatalf("unexpected title %q", response.Note.Title)
	}
	if response.Note.UploadedBy.ID != "12345" || response.Note.UploadedBy.Name != "Ada" {
		t.Fatalf("unexpected author %+v", response.Note.UploadedBy)
	}

	select {
	case message := <-events:
		if message.EventType != RealtimeEventNoteCreated || message.Slug != response.Note.Slug {
			t.Fatalf("unexpected realtime message %+v", message)
		}
	case <-time.After(time.Second):
		t.Fatalf("expected note-created event")
	}
}

func TestCreateNoteServiceFailureReportsError(t *testing.T) {
	service := &stubNotesService{composeErr: errors.New("insert failed")}
	router := newTestRouter(t, service, nil)
	token := issueTestSession(t, router.issuer, "12345", "Ada")

	request := httptest.NewRequest(http.MethodPost, "/api/notes", strings.NewReader(`{"title":"a","description":"b"}`))
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Authorization", "Bearer "+token)
	recorder := httptest.NewRecorder()
	router.handler.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", recorder.Code)
	}
	if !strings.Contains(recorder.Body.String(), `"message":"insert failed"`) {
		t.Fatalf("unexpected body %s", recorder.Body.String())
	}
}

func TestMeReturnsIdentity(t *testing.T) {
	router := newTestRouter(t, &stubNotesService{}, nil)
	token := issueTestSession(t, router.issuer, "12345", "Ada")

	request := httptest.NewRequest(http.MethodGet, "/api/me", http.NoBody)
	request.Header.Set("Authorization", "Bearer "+token)
	recorder := httptest.NewRecorder()
	router.handler.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
	var payload authorPayload
	if err := json.Unmarshal(recorder.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload.ID != "12345" || payload.Name != "Ada" {
		t.Fatalf("unexpected identity %+v", payload)
	}
}

func TestNewHTTPHandlerValidatesDependencies(t *testing.T) {
	_, validator := newTestSessions(t)
	if _, err := NewHTTPHandler(Dependencies{SessionValidator: validator}); !errors.Is(err, errMissingNotesService) {
		t.Fatalf("expected missing notes service error, got %v", err)
	}
	if _, err := NewHTTPHandler(Dependencies{NotesService: &stubNotesService{}}); !errors.Is(err, errMissingSessionValidator) {
		t.Fatalf("expected missing validator error, got %v", err)
	}
	_, err := NewHTTPHandler(Dependencies{
		NotesService:     &stubNotesService{},
		SessionValidator: validator,
		GoogleVerifier:   stubVerifier{},
	})
	if !errors.Is(err, errMissingSessionIssuer) {
		t.Fatalf("expected missing issuer error, got %v", err)
	}
}
