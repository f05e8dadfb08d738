// Package client talks to the QuickNote JSON API.
package client

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/MarcoPoloResearchLab/quicknote/internal/notebook"
	"github.com/MarcoPoloResearchLab/quicknote/internal/notes"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const defaultTimeout = 10 * time.Second

// Config configures a Client. Token is optional; without it only reads succeed.
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
	Logger  *zap.Logger
}

// Client is a typed wrapper over the notes API.
type Client struct {
	http   *resty.Client
	logger *zap.Logger
}

type authorPayload struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type notePayload struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Slug        string        `json:"slug"`
	Time        time.Time     `json:"time"`
	UploadedBy  authorPayload `json:"uploaded_by"`
}

func (p notePayload) toNote() notes.Note {
	return notes.Note{
		ID:          notes.NoteID(p.ID),
		Title:       p.Title,
		Description: p.Description,
		Slug:        p.Slug,
		Time:        p.Time.UTC(),
		UploadedBy:  notes.Author{ID: p.UploadedBy.ID, Name: p.UploadedBy.Name},
	}
}

type listResponse struct {
	Notes []notePayload `json:"notes"`
}

type noteResponse struct {
	Note notePayload `json:"note"`
}

type createRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func New(cfg Config) (*Client, error) {
	baseURL, err := normalizeBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	if token := strings.TrimSpace(cfg.Token); token != "" {
		httpClient.SetAuthToken(token)
	}
	return &Client{http: httpClient, logger: logger}, nil
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: empty address", ErrInvalidURL)
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", fmt.Errorf("%w: address must include host and scheme", ErrInvalidURL)
	}
	return strings.TrimRight(parsed.String(), "/"), nil
}

// ListNotes fetches the whole collection, ordered by orderBy.
func (c *Client) ListNotes(ctx context.Context, orderBy notes.OrderField) ([]notes.Note, error) {
	var payload listResponse
	request := c.http.R().SetContext(ctx).SetResult(&payload)
	if orderBy != notes.OrderNone {
		request.SetQueryParam("order_by", string(orderBy))
	}
	resp, err := request.Get("/api/notes")
	if err != nil {
		c.logger.Error("list notes request failed", zap.Error(err))
		return nil, fmt.Errorf("list notes request: %w", err)
	}
	if err := mapHTTPError(resp); err != nil {
		c.logger.Warn("list notes rejected", zap.Int("status", resp.StatusCode()), zap.Error(err))
		return nil, err
	}
	result := make([]notes.Note, 0, len(payload.Notes))
	for _, note := range payload.Notes {
		result = append(result, note.toNote())
	}
	return result, nil
}

// CreateNote submits a draft as the token's user and returns the stored note.
func (c *Client) CreateNote(ctx context.Context, draft notes.Draft) (notes.Note, error) {
	var payload noteResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(createRequest{Title: draft.Title(), Description: draft.Description()}).
		SetResult(&payload).
		Post("/api/notes")
	if err != nil {
		c.logger.Error("create note request failed", zap.Error(err))
		return notes.Note{}, fmt.Errorf("create note request: %w", err)
	}
	if err := mapHTTPError(resp); err != nil {
		c.logger.Warn("create note rejected", zap.Int("status", resp.StatusCode()), zap.Error(err))
		return notes.Note{}, err
	}
	return payload.Note.toNote(), nil
}

// GetNote fetches a single note by slug.
func (c *Client) GetNote(ctx context.Context, slug string) (notes.Note, error) {
	var payload noteResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("slug", slug).
		SetResult(&payload).
		Get("/api/notes/{slug}")
	if err != nil {
		return notes.Note{}, fmt.Errorf("get note request: %w", err)
	}
	if err := mapHTTPError(resp); err != nil {
		return notes.Note{}, err
	}
	return payload.Note.toNote(), nil
}

// Me returns the identity behind the configured token.
func (c *Client) Me(ctx context.Context) (notes.Author, error) {
	var payload authorPayload
	resp, err := c.http.R().SetContext(ctx).SetResult(&payload).Get("/api/me")
	if err != nil {
		return notes.Author{}, fmt.Errorf("me request: %w", err)
	}
	if err := mapHTTPError(resp); err != nil {
		return notes.Author{}, err
	}
	return notes.Author{ID: payload.ID, Name: payload.Name}, nil
}

// Fetcher adapts ListNotes to the listing state machine.
func (c *Client) Fetcher(orderBy notes.OrderField) notebook.Fetcher {
	return notebook.FetcherFunc(func(ctx context.Context) ([]notes.Note, error) {
		return c.ListNotes(ctx, orderBy)
	})
}

// Uploader adapts CreateNote to the panel state machine. The write and the
// re-fetch run in sequence.
func (c *Client) Uploader(orderBy notes.OrderField) notebook.Uploader {
	return notebook.UploaderFunc(func(ctx context.Context, draft notes.Draft) ([]notes.Note, error) {
		if _, err := c.CreateNote(ctx, draft); err != nil {
			return nil, err
		}
		return c.ListNotes(ctx, orderBy)
	})
}
