// Package mcp exposes the notes collection as Model Context Protocol tools.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/MarcoPoloResearchLab/quicknote/internal/identity"
	"github.com/MarcoPoloResearchLab/quicknote/internal/notes"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

const (
	serverName    = "QuickNote"
	serverVersion = "1.0.0"
)

// NotesService is the subset of the notes service the tools call.
type NotesService interface {
	FetchNotes(ctx context.Context, orderBy notes.OrderField) ([]notes.Note, error)
	ComposeNote(ctx context.Context, author notes.Author, draft notes.Draft) (notes.Note, error)
	FindBySlug(ctx context.Context, slug string) (notes.Note, error)
}

// Config wires the MCP tools. OnCreated is optional.
type Config struct {
	Service   NotesService
	OnCreated func(notes.Note)
	Logger    *zap.Logger
}

// NoteResult is the JSON shape tools return for a note.
type NoteResult struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Slug        string       `json:"slug"`
	Time        time.Time    `json:"time"`
	UploadedBy  AuthorResult `json:"uploaded_by"`
}

type AuthorResult struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

var errMissingService = errors.New("mcp: notes service is required")

// NewServer registers the note tools.
func NewServer(cfg Config) (*server.MCPServer, error) {
	if cfg.Service == nil {
		return nil, errMissingService
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	tools := &toolSet{service: cfg.Service, onCreated: cfg.OnCreated, logger: logger}

	s := server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(true),
	)

	s.AddTool(
		mcp.NewTool("list_notes",
			mcp.WithDescription("List every note in the shared collection. Use this to see what has been written."),
			mcp.WithString("order_by",
				mcp.Description("Optional ascending sort: 'title', 'time' or 'slug'. Empty keeps store order."),
			),
		),
		tools.listNotes,
	)

	s.AddTool(
		mcp.NewTool("get_note",
			mcp.WithDescription("Get a single note by its slug, the identifier used in /1/<slug> links."),
			mcp.WithString("slug",
				mcp.Required(),
				mcp.Description("The note slug, e.g. 'groceries_Ab3dE5gH9k'"),
			),
		),
		tools.getNote,
	)

	s.AddTool(
		mcp.NewTool("create_note",
			mcp.WithDescription("Create a note authored by the signed-in user. The title is stored uppercased."),
			mcp.WithString("title",
				mcp.Required(),
				mcp.Description("Note title"),
			),
			mcp.WithString("description",
				mcp.Required(),
				mcp.Description("Note body, Markdown allowed"),
			),
		),
		tools.createNote,
	)

	return s, nil
}

// NewHTTPHandler serves s over the streamable HTTP transport. The request
// identity is carried into tool calls.
func NewHTTPHandler(s *server.MCPServer) http.Handler {
	return server.NewStreamableHTTPServer(s,
		server.WithHTTPContextFunc(func(ctx context.Context, r *http.Request) context.Context {
			if current, ok := identity.FromContext(r.Context()); ok {
				return identity.WithIdentity(ctx, current)
			}
			return ctx
		}),
	)
}

type toolSet struct {
	service   NotesService
	onCreated func(notes.Note)
	logger    *zap.Logger
}

func (t *toolSet) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	orderBy, err := notes.ParseOrderField(req.GetString("order_by", ""))
	if err != nil {
		return mcp.NewToolResultError("order_by must be one of title, time, slug"), nil
	}
	list, err := t.service.FetchNotes(ctx, orderBy)
	if err != nil {
		t.logger.Error("mcp list_notes failed", zap.Error(err))
		return mcp.NewToolResultError(fmt.Sprintf("failed to list notes: %v", err)), nil
	}
	results := make([]NoteResult, 0, len(list))
	for _, note := range list {
		results = append(results, toNoteResult(note))
	}
	return jsonResult(results)
}

func (t *toolSet) getNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := req.RequireString("slug")
	if err != nil {
		return mcp.NewToolResultError("slug is required"), nil
	}
	note, err := t.service.FindBySlug(ctx, slug)
	if errors.Is(err, notes.ErrNoteNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("note %q not found", slug)), nil
	}
	if err != nil {
		t.logger.Error("mcp get_note failed", zap.String("slug", slug), zap.Error(err))
		return mcp.NewToolResultError(fmt.Sprintf("failed to get note: %v", err)), nil
	}
	return jsonResult(toNoteResult(note))
}

func (t *toolSet) createNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	current, ok := identity.FromContext(ctx)
	if !ok {
		return mcp.NewToolResultError("sign in required to create notes"), nil
	}
	draft, err := notes.NewDraft(req.GetString("title", ""), req.GetString("description", ""))
	if err != nil {
		return mcp.NewToolResultError("title and description are required"), nil
	}
	created, err := t.service.ComposeNote(ctx, notes.Author{ID: current.ID, Name: current.Name}, draft)
	if err != nil {
		t.logger.Error("mcp create_note failed", zap.String("user_id", current.ID), zap.Error(err))
		return mcp.NewToolResultError(fmt.Sprintf("failed to create note: %v", err)), nil
	}
	if t.onCreated != nil {
		t.onCreated(created)
	}
	return jsonResult(toNoteResult(created))
}

func toNoteResult(note notes.Note) NoteResult {
	return NoteResult{
		ID:          note.ID.String(),
		Title:       note.Title,
		Description: note.Description,
		Slug:        note.Slug,
		Time:        note.Time.UTC(),
		UploadedBy:  AuthorResult{ID: note.UploadedBy.ID, Name: note.UploadedBy.Name},
	}
}

func jsonResult(value any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(data)), nil
}
