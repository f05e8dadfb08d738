package server

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/MarcoPoloResearchLab/quicknote/internal/notes"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type notePayload struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Slug        string        `json:"slug"`
	Time        time.Time     `json:"time"`
	UploadedBy  authorPayload `json:"uploaded_by"`
}

type authorPayload struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type listNotesResponse struct {
	Notes []notePayload `json:"notes"`
}

type createNoteRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type createNoteResponse struct {
	Note notePayload `json:"note"`
}

type noteEventPayload struct {
	NoteIDs   []string `json:"noteIds"`
	Slug      string   `json:"slug,omitempty"`
	Timestamp string   `json:"timestamp"`
	Source    string   `json:"source"`
}

func toNotePayload(note notes.Note) notePayload {
	return notePayload{
		ID:          note.ID.String(),
		Title:       note.Title,
		Description: note.Description,
		Slug:        note.Slug,
		Time:        note.Time.UTC(),
		UploadedBy:  authorPayload{ID: note.UploadedBy.ID, Name: note.UploadedBy.Name},
	}
}

func toNotePayloads(list []notes.Note) []notePayload {
	result := make([]notePayload, 0, len(list))
	for _, note := range list {
		result = append(result, toNotePayload(note))
	}
	return result
}

func (h *httpHandler) handleListNotes(c *gin.Context) {
	orderBy := h.notesOrder
	if raw, ok := c.GetQuery("order_by"); ok {
		parsed, err := notes.ParseOrderField(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_order_field"})
			return
		}
		orderBy = parsed
	}

	list, err := h.notesService.FetchNotes(c.Request.Context(), orderBy)
	if err != nil {
		h.respondServiceError(c, "list_failed", err)
		return
	}
	c.JSON(http.StatusOK, listNotesResponse{Notes: toNotePayloads(list)})
}

func (h *httpHandler) handleGetNote(c *gin.Context) {
	note, err := h.notesService.FindBySlug(c.Request.Context(), c.Param("slug"))
	if errors.Is(err, notes.ErrNoteNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "note_not_found"})
		return
	}
	if err != nil {
		h.respondServiceError(c, "lookup_failed", err)
		return
	}
	c.JSON(http.StatusOK, createNoteResponse{Note: toNotePayload(note)})
}

func (h *httpHandler) handleCreateNote(c *gin.Context) {
	current, ok := currentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var request createNoteRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	draft, err := notes.NewDraft(request.Title, request.Description)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "missing_fields"})
		return
	}

	created, err := h.notesService.ComposeNote(c.Request.Context(), authorFor(current), draft)
	if err != nil {
		h.respondServiceError(c, "create_failed", err)
		return
	}
	h.announceCreated(created)
	c.JSON(http.StatusCreated, createNoteResponse{Note: toNotePayload(created)})
}

func (h *httpHandler) handleMe(c *gin.Context) {
	current, ok := currentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.JSON(http.StatusOK, authorPayload{ID: current.ID, Name: current.Name})
}

func (h *httpHandler) handleNoteEvents(c *gin.Context) {
	ctx := c.Request.Context()
	stream, cleanup := h.realtime.Subscribe(ctx, RealtimeTopicNotes)
	defer cleanup()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case message, ok := <-stream:
			if !ok {
				return false
			}
			c.SSEvent(message.EventType, noteEventPayload{
				NoteIDs:   message.NoteIDs,
				Slug:      message.Slug,
				Timestamp: message.Timestamp.UTC().Format(time.RFC3339Nano),
				Source:    realtimeSourceBackend,
			})
			return true
		case now := <-ticker.C:
			c.SSEvent(realtimeEventHeartbeat, gin.H{
				"timestamp": now.UTC().Format(time.RFC3339Nano),
				"source":    realtimeSourceBackend,
			})
			return true
		}
	})
}

func (h *httpHandler) announceCreated(created notes.Note) {
	h.realtime.AnnounceNoteCreated(created)
}

// respondServiceError reports a backend failure; the message is passed through for display.
func (h *httpHandler) respondServiceError(c *gin.Context, errorCode string, err error) {
	h.logger.Error("notes request failed",
		zap.String("error_code", errorCode),
		zap.String("path", c.FullPath()),
		zap.Error(err))
	payload := gin.H{"error": errorCode, "message": err.Error()}
	var serviceErr *notes.ServiceError
	if errors.As(err, &serviceErr) {
		payload["code"] = serviceErr.Code()
	}
	c.JSON(http.StatusInternalServerError, payload)
}
