package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/MarcoPoloResearchLab/quicknote/internal/auth"
	"github.com/MarcoPoloResearchLab/quicknote/internal/identity"
	"github.com/MarcoPoloResearchLab/quicknote/internal/notes"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	identityContextKey       = "quicknote_identity"
	defaultHeartbeatInterval = 25 * time.Second
	signInPath               = "/auth/user/sign-in"
)

var (
	errMissingSessionValidator = errors.New("session validator dependency required")
	errMissingNotesService     = errors.New("notes service dependency required")
	errMissingSessionIssuer    = errors.New("session issuer required when google sign-in is enabled")
)

// NotesService is the notes API the handlers drive.
type NotesService interface {
	FetchNotes(ctx context.Context, orderBy notes.OrderField) ([]notes.Note, error)
	ComposeNote(ctx context.Context, author notes.Author, draft notes.Draft) (notes.Note, error)
	FindBySlug(ctx context.Context, slug string) (notes.Note, error)
}

type GoogleVerifier interface {
	Verify(ctx context.Context, token string) (auth.GoogleClaims, error)
}

type SessionIssuer interface {
	IssueGoogleSession(ctx context.Context, claims auth.GoogleClaims) (string, int64, error)
}

type SessionValidator interface {
	ValidateRequest(r *http.Request) (auth.SessionClaims, error)
	CookieName() string
}

// Dependencies wires the HTTP surface. GoogleVerifier and MCPHandler are optional.
type Dependencies struct {
	NotesService      NotesService
	SessionValidator  SessionValidator
	SessionIssuer     SessionIssuer
	GoogleVerifier    GoogleVerifier
	GoogleClientID    string
	Realtime          *RealtimeDispatcher
	MCPHandler        http.Handler
	AllowedOrigins    []string
	NotesOrder        notes.OrderField
	HeartbeatInterval time.Duration
	Logger            *zap.Logger
}

func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.NotesService == nil {
		return nil, errMissingNotesService
	}
	if deps.SessionValidator == nil {
		return nil, errMissingSessionValidator
	}
	if deps.GoogleVerifier != nil && deps.SessionIssuer == nil {
		return nil, errMissingSessionIssuer
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	realtime := deps.Realtime
	if realtime == nil {
		realtime = NewRealtimeDispatcher()
	}
	heartbeat := deps.HeartbeatInterval
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeatInterval
	}

	pages, err := loadTemplates()
	if err != nil {
		return nil, err
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware(deps.AllowedOrigins))
	router.SetHTMLTemplate(pages)

	handler := &httpHandler{
		notesService:   deps.NotesService,
		sessions:       deps.SessionValidator,
		issuer:         deps.SessionIssuer,
		verifier:       deps.GoogleVerifier,
		googleClientID: deps.GoogleClientID,
		realtime:       realtime,
		notesOrder:     deps.NotesOrder,
		heartbeat:      heartbeat,
		logger:         logger,
	}

	router.Use(handler.resolveIdentity)

	router.GET("/healthz", handler.handleHealth)

	router.GET("/", handler.handleIndex)
	router.POST("/notes", handler.handleSubmitNote)
	router.GET("/1/:slug", handler.handleDetail)
	router.GET(signInPath, handler.handleSignInPage)
	router.POST("/auth/google", handler.handleGoogleAuth)
	router.POST("/auth/sign-out", handler.handleSignOut)

	api := router.Group("/api")
	api.GET("/notes", handler.handleListNotes)
	api.GET("/notes/events", handler.handleNoteEvents)
	api.GET("/notes/:slug", handler.handleGetNote)

	protected := api.Group("/")
	protected.Use(handler.requireIdentity)
	protected.POST("/notes", handler.handleCreateNote)
	protected.GET("/me", handler.handleMe)

	if deps.MCPHandler != nil {
		mcpHandler := gin.WrapH(deps.MCPHandler)
		router.POST("/mcp", mcpHandler)
		router.GET("/mcp", mcpHandler)
		router.DELETE("/mcp", mcpHandler)
	}

	return router, nil
}

type httpHandler struct {
	notesService   NotesService
	sessions       SessionValidator
	issuer         SessionIssuer
	verifier       GoogleVerifier
	googleClientID string
	realtime       *RealtimeDispatcher
	notesOrder     notes.OrderField
	heartbeat      time.Duration
	logger         *zap.Logger
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	config := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Authorization", "Content-Type", "Mcp-Session-Id"},
		ExposeHeaders:    []string{"Mcp-Session-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	for _, origin := range origins {
		if origin == "*" {
			config.AllowAllOrigins = true
			config.AllowCredentials = false
			return cors.New(config)
		}
	}
	config.AllowOrigins = origins
	if len(config.AllowOrigins) == 0 {
		config.AllowOrigins = []string{"http://localhost:8080"}
	}
	return cors.New(config)
}

// resolveIdentity attaches the signed-in identity, if any, to the request context.
// Invalid sessions continue anonymously.
func (h *httpHandler) resolveIdentity(c *gin.Context) {
	claims, err := h.sessions.ValidateRequest(c.Request)
	if err != nil {
		if !errors.Is(err, auth.ErrMissingSessionToken) {
			h.logTokenFailure(err)
		}
		c.Next()
		return
	}
	current, err := identity.FromClaims(claims)
	if err != nil {
		h.logger.Warn("session claims rejected", zap.Error(err))
		c.Next()
		return
	}
	c.Set(identityContextKey, current)
	c.Request = c.Request.WithContext(identity.WithIdentity(c.Request.Context(), current))
	c.Next()
}

func (h *httpHandler) requireIdentity(c *gin.Context) {
	if _, ok := currentIdentity(c); !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.Next()
}

func (h *httpHandler) logTokenFailure(err error) {
	if errors.Is(err, auth.ErrExpiredSessionToken) {
		h.logger.Info("token validation failed", zap.Error(err))
		return
	}
	h.logger.Warn("token validation failed", zap.Error(err))
}

func currentIdentity(c *gin.Context) (identity.Identity, bool) {
	value, ok := c.Get(identityContextKey)
	if !ok {
		return identity.Identity{}, false
	}
	current, ok := value.(identity.Identity)
	return current, ok && current.ID != ""
}

func authorFor(current identity.Identity) notes.Author {
	return notes.Author{ID: current.ID, Name: current.Name}
}

func (h *httpHandler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
