package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/MarcoPoloResearchLab/quicknote/internal/auth"
	"github.com/MarcoPoloResearchLab/quicknote/internal/notes"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	testSigningSecret = "test-signing-secret"
	testCookieName    = "quicknote_session"
	testIssuer        = "quicknote-auth"
	testAudience      = "quicknote-api"
)

type stubNotesService struct {
	mu         sync.Mutex
	items      []notes.Note
	fetchErr   error
	composeErr error
	lookupErr  error
	fetches    int
	lastOrder  notes.OrderField
}

func (s *stubNotesService) FetchNotes(_ context.Context, orderBy notes.OrderField) ([]notes.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetches++
	s.lastOrder = orderBy
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	return append([]notes.Note{}, s.items...), nil
}

func (s *stubNotesService) ComposeNote(_ context.Context, author notes.Author, draft notes.Draft) (notes.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.composeErr != nil {
		return notes.Note{}, s.composeErr
	}
	title := strings.ToUpper(draft.Title())
	note := notes.Note{
		ID:          notes.NoteID("note-" + title),
		Title:       title,
		Description: draft.Description(),
		Slug:        strings.ToLower(title) + "_0123456789",
		Time:        time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		UploadedBy:  author,
	}
	s.items = append(s.items, note)
	return note, nil
}

func (s *stubNotesService) FindBySlug(_ context.Context, slug string) (notes.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lookupErr != nil {
		return notes.Note{}, s.lookupErr
	}
	for _, note := range s.items {
		if note.Slug == slug {
			return note, nil
		}
	}
	return notes.Note{}, notes.ErrNoteNotFound
}

type stubVerifier struct {
	claims auth.GoogleClaims
	err    error
}

func (v stubVerifier) Verify(_ context.Context, token string) (auth.GoogleClaims, error) {
	if v.err != nil {
		return auth.GoogleClaims{}, v.err
	}
	if token == "" {
		return auth.GoogleClaims{}, errors.New("empty token")
	}
	return v.claims, nil
}

func newTestSessions(t *testing.T) (*auth.TokenIssuer, *auth.SessionValidator) {
	t.Helper()
	issuer, err := auth.NewTokenIssuer(auth.TokenIssuerConfig{
		SigningSecret: []byte(testSigningSecret),
		Issuer:        testIssuer,
		Audience:      testAudience,
		TokenTTL:      time.Hour,
	})
	if err != nil {
		t.Fatalf("failed to build token issuer: %v", err)
	}
	validator, err := auth.NewSessionValidator(auth.SessionValidatorConfig{
		SigningSecret: []byte(testSigningSecret),
		Issuer:        testIssuer,
		Audience:      testAudience,
		CookieName:    testCookieName,
	})
	if err != nil {
		t.Fatalf("failed to build session validator: %v", err)
	}
	return issuer, validator
}

func issueTestSession(t *testing.T, issuer *auth.TokenIssuer, subject, name string) string {
	t.Helper()
	token, _, err := issuer.IssueGoogleSession(context.Background(), auth.GoogleClaims{Subject: subject, Name: name})
	if err != nil {
		t.Fatalf("failed to issue session: %v", err)
	}
	return token
}

type testRouter struct {
	handler  http.Handler
	issuer   *auth.TokenIssuer
	service  *stubNotesService
	realtime *RealtimeDispatcher
}

func newTestRouter(t *testing.T, service *stubNotesService, verifier GoogleVerifier) testRouter {
	t.Helper()
	gin.SetMode(gin.TestMode)
	issuer, validator := newTestSessions(t)
	realtime := NewRealtimeDispatcher()
	handler, err := NewHTTPHandler(Dependencies{
		NotesService:     service,
		SessionValidator: validator,
		SessionIssuer:    issuer,
		GoogleVerifier:   verifier,
		GoogleClientID:   "client-id.apps.googleusercontent.com",
		Realtime:         realtime,
		AllowedOrigins:   []string{"https://app.example.com"},
		Logger:           zap.NewNop(),
	})
	if err != nil {
		t.Fatalf("failed to construct http handler: %v", err)
	}
	return testRouter{handler: handler, issuer: issuer, service: service, realtime: realtime}
}
