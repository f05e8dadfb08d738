package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/MarcoPoloResearchLab/quicknote/internal/auth"
	"github.com/MarcoPoloResearchLab/quicknote/internal/identity"
	"github.com/MarcoPoloResearchLab/quicknote/internal/notebook"
	"github.com/MarcoPoloResearchLab/quicknote/internal/notes"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	pageInboxCapacity = 8
	googleCSRFField   = "g_csrf_token"
)

type pageData struct {
	Identity      identity.Identity
	SignedIn      bool
	Messages      []notebook.Message
	ScrollLocked  bool
	Panel         panelView
	Listing       listingView
	Note          notes.Note
	SignInEnabled bool
	ClientID      string
	EmptyText     string
}

type panelView struct {
	State       string
	Expanded    bool
	Loading     bool
	Title       string
	Description string
}

type listingView struct {
	Loaded bool
	Empty  bool
	Notes  []notes.Note
}

func newPanelView(panel *notebook.Panel) panelView {
	state := panel.State()
	return panelView{
		State:       state.String(),
		Expanded:    state != notebook.PanelCollapsed,
		Loading:     panel.Loading(),
		Title:       panel.Title(),
		Description: panel.Description(),
	}
}

func newListingView(listing *notebook.Listing) listingView {
	status := listing.Status()
	return listingView{
		Loaded: status != notebook.ListingNotLoaded,
		Empty:  status == notebook.ListingEmpty,
		Notes:  listing.Notes(),
	}
}

func (h *httpHandler) basePage(c *gin.Context) pageData {
	current, signedIn := currentIdentity(c)
	return pageData{
		Identity:      current,
		SignedIn:      signedIn,
		SignInEnabled: h.verifier != nil,
		ClientID:      h.googleClientID,
		EmptyText:     notebook.MessageNoNotes,
	}
}

func (h *httpHandler) fetcher() notebook.Fetcher {
	return notebook.ServiceFetcher{Service: h.notesService, OrderBy: h.notesOrder}
}

func (h *httpHandler) handleIndex(c *gin.Context) {
	inbox := notebook.NewInbox(pageInboxCapacity)
	consumeFlash(c, inbox)

	data := h.basePage(c)
	lock := &notebook.ScrollState{}
	panel := notebook.NewPanel(lock, inbox)
	defer panel.Close()
	if data.SignedIn && c.Query("compose") == "1" {
		panel.Open()
	}

	listing := notebook.NewListing(inbox)
	if err := listing.Load(c.Request.Context(), h.fetcher()); err != nil {
		h.logger.Error("listing fetch failed", zap.Error(err))
	}

	h.renderIndex(c, http.StatusOK, data, panel, lock, listing, inbox)
}

func (h *httpHandler) handleSubmitNote(c *gin.Context) {
	current, ok := currentIdentity(c)
	if !ok {
		c.Redirect(http.StatusSeeOther, signInPath)
		return
	}

	inbox := notebook.NewInbox(pageInboxCapacity)
	lock := &notebook.ScrollState{}
	panel := notebook.NewPanel(lock, inbox)
	defer panel.Close()
	panel.Open()
	panel.SetTitle(c.PostForm("title"))
	panel.SetDescription(c.PostForm("description"))

	// The redirect below performs the re-fetch, so the upload only writes.
	var created notes.Note
	uploader := notebook.UploaderFunc(func(ctx context.Context, draft notes.Draft) ([]notes.Note, error) {
		note, err := h.notesService.ComposeNote(ctx, authorFor(current), draft)
		if err != nil {
			return nil, err
		}
		created = note
		return nil, nil
	})

	_, err := panel.Submit(c.Request.Context(), uploader)
	if err == nil {
		h.announceCreated(created)
		writeFlash(c, inbox.Drain())
		c.Redirect(http.StatusSeeOther, "/")
		return
	}

	status := http.StatusUnprocessableEntity
	if !errors.Is(err, notes.ErrMissingFields) {
		status = http.StatusInternalServerError
		h.logger.Error("note submit failed", zap.Error(err))
	}

	listing := notebook.NewListing(inbox)
	if fetchErr := listing.Load(c.Request.Context(), h.fetcher()); fetchErr != nil {
		h.logger.Error("listing fetch failed", zap.Error(fetchErr))
	}
	h.renderIndex(c, status, h.basePage(c), panel, lock, listing, inbox)
}

func (h *httpHandler) renderIndex(c *gin.Context, status int, data pageData, panel *notebook.Panel, lock *notebook.ScrollState, listing *notebook.Listing, inbox *notebook.Inbox) {
	data.Panel = newPanelView(panel)
	data.ScrollLocked = lock.Locked()
	data.Listing = newListingView(listing)
	data.Messages = inbox.Drain()
	c.HTML(status, "index.tmpl", data)
}

func (h *httpHandler) handleDetail(c *gin.Context) {
	data := h.basePage(c)
	note, err := h.notesService.FindBySlug(c.Request.Context(), c.Param("slug"))
	if errors.Is(err, notes.ErrNoteNotFound) {
		c.HTML(http.StatusNotFound, "notfound.tmpl", data)
		return
	}
	if err != nil {
		h.logger.Error("note lookup failed", zap.String("slug", c.Param("slug")), zap.Error(err))
		data.Messages = []notebook.Message{{Level: notebook.LevelError, Text: err.Error()}}
		c.HTML(http.StatusInternalServerError, "notfound.tmpl", data)
		return
	}
	data.Note = note
	c.HTML(http.StatusOK, "detail.tmpl", data)
}

func (h *httpHandler) handleSignInPage(c *gin.Context) {
	data := h.basePage(c)
	if data.SignedIn {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	c.HTML(http.StatusOK, "signin.tmpl", data)
}

type authRequestPayload struct {
	IDToken string `json:"id_token" form:"credential"`
}

type authResponsePayload struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// handleGoogleAuth exchanges a Google ID token for a session. JSON callers get
// the token back; form posts from the sign-in page are redirected home.
func (h *httpHandler) handleGoogleAuth(c *gin.Context) {
	if h.verifier == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "sign_in_disabled"})
		return
	}

	formPost := !strings.HasPrefix(c.ContentType(), gin.MIMEJSON)
	if formPost && !validGoogleCSRF(c) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_csrf_token"})
		return
	}
	var request authRequestPayload
	if err := c.ShouldBind(&request); err != nil || strings.TrimSpace(request.IDToken) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	claims, err := h.verifier.Verify(c.Request.Context(), request.IDToken)
	if err != nil {
		h.logger.Warn("google token verification failed", zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	token, expiresIn, err := h.issuer.IssueGoogleSession(c.Request.Context(), claims)
	if err != nil {
		h.logger.Error("failed to issue session token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token_issue_failed"})
		return
	}

	http.SetCookie(c.Writer, &http.Cookie{
		Name:     h.sessions.CookieName(),
		Value:    token,
		Path:     "/",
		MaxAge:   int(expiresIn),
		HttpOnly: true,
		Secure:   c.Request.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})

	if formPost {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	c.JSON(http.StatusOK, authResponsePayload{
		AccessToken: token,
		ExpiresIn:   expiresIn,
		TokenType:   "Bearer",
	})
}

// validGoogleCSRF checks the double-submit token Google Identity Services sends with redirect-mode posts.
func validGoogleCSRF(c *gin.Context) bool {
	posted := c.PostForm(googleCSRFField)
	cookie, err := c.Cookie(googleCSRFField)
	return posted != "" && err == nil && cookie == posted
}

func (h *httpHandler) handleSignOut(c *gin.Context) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     h.sessions.CookieName(),
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	c.Redirect(http.StatusSeeOther, "/")
}

var (
	_ SessionValidator = (*auth.SessionValidator)(nil)
	_ SessionIssuer    = (*auth.TokenIssuer)(nil)
	_ GoogleVerifier   = (*auth.GoogleVerifier)(nil)
)
