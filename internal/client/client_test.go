package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MarcoPoloResearchLab/quicknote/internal/notes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleNote = `{"id":"note-1","title":"GROCERIES","description":"milk","slug":"groceries_abcdefghij","time":"2024-03-01T09:00:00Z","uploaded_by":{"id":"42","name":"Ada"}}`

func newTestClient(t *testing.T, handler http.HandlerFunc, token string) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := New(Config{BaseURL: srv.URL, Token: token, Timeout: time.Second})
	require.NoError(t, err)
	return c
}

func TestNewRejectsMissingBaseURL(t *testing.T) {
	_, err := New(Config{})
	require.ErrorIs(t, err, ErrInvalidURL)
}

func TestNormalizeBaseURL(t *testing.T) {
	got, err := normalizeBaseURL(" localhost:8080/ ")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", got)

	_, err = normalizeBaseURL("http://")
	assert.ErrorIs(t, err, ErrInvalidURL)
}

func TestListNotesDecodesCollection(t *testing.T) {
	var gotOrder string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/notes", r.URL.Path)
		gotOrder = r.URL.Query().Get("order_by")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"notes":[` + sampleNote + `]}`))
	}, "")

	list, err := c.ListNotes(context.Background(), notes.OrderTitle)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "title", gotOrder)
	assert.Equal(t, "groceries_abcdefghij", list[0].Slug)
	assert.Equal(t, notes.Author{ID: "42", Name: "Ada"}, list[0].UploadedBy)
	assert.Equal(t, time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC), list[0].Time)
}

func TestListNotesEmptyIsNotNil(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.Query().Get("order_by"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"notes":[]}`))
	}, "")

	list, err := c.ListNotes(context.Background(), notes.OrderNone)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestServerMessageIsPassedThroughVerbatim(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"list_failed","message":"connection refused","code":"notes.fetch_notes.query_failed"}`))
	}, "")

	_, err := c.ListNotes(context.Background(), notes.OrderNone)
	require.Error(t, err)
	assert.Equal(t, "connection refused", err.Error())
	assert.ErrorIs(t, err, ErrServer)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "notes.fetch_notes.query_failed", apiErr.Code)
}

func TestErrorCodeFallsBackToErrorField(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_order_field"}`))
	}, "")

	_, err := c.ListNotes(context.Background(), notes.OrderNone)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBadRequest)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "invalid_order_field", apiErr.Code)
	assert.Equal(t, "invalid_order_field", err.Error())
}

func TestCreateNoteSendsTokenAndBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer session-token", r.Header.Get("Authorization"))
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]string{"title": "groceries", "description": "milk"}, body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"note":` + sampleNote + `}`))
	}, "session-token")

	draft, err := notes.NewDraft("groceries", "milk")
	require.NoError(t, err)
	created, err := c.CreateNote(context.Background(), draft)
	require.NoError(t, err)
	assert.Equal(t, "GROCERIES", created.Title)
}

func TestCreateNoteWithoutSession(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
	}, "")

	draft, err := notes.NewDraft("a", "b")
	require.NoError(t, err)
	_, err = c.CreateNote(context.Background(), draft)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, "unauthorized", err.Error())
}

func TestGetNoteNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/notes/missing_0123456789", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"note_not_found"}`))
	}, "")

	_, err := c.GetNote(context.Background(), "missing_0123456789")
	assert.ErrorIs(t, err, notes.ErrNoteNotFound)
}

func TestMeReturnsAuthor(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"42","name":"Ada"}`))
	}, "session-token")

	author, err := c.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, notes.Author{ID: "42", Name: "Ada"}, author)
}

func TestUploaderWritesThenRefetches(t *testing.T) {
	var calls []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method)
		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodPost {
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"note":` + sampleNote + `}`))
			return
		}
		_, _ = w.Write([]byte(`{"notes":[` + sampleNote + `]}`))
	}, "session-token")

	draft, err := notes.NewDraft("groceries", "milk")
	require.NoError(t, err)
	refreshed, err := c.Uploader(notes.OrderNone).Upload(context.Background(), draft)
	require.NoError(t, err)
	assert.Len(t, refreshed, 1)
	assert.Equal(t, []string{http.MethodPost, http.MethodGet}, calls)
}

func TestUploaderStopsOnWriteFailure(t *testing.T) {
	var calls int
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"create_failed","message":"disk full"}`))
	}, "session-token")

	draft, err := notes.NewDraft("groceries", "milk")
	require.NoError(t, err)
	_, err = c.Uploader(notes.OrderNone).Upload(context.Background(), draft)
	require.Error(t, err)
	assert.Equal(t, "disk full", err.Error())
	assert.Equal(t, 1, calls)
}
