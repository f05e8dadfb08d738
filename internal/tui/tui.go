// Package tui renders the notes listing and creation panel in a terminal.
package tui

import (
	"context"
	"errors"

	"github.com/MarcoPoloResearchLab/quicknote/internal/notebook"
	"github.com/MarcoPoloResearchLab/quicknote/internal/notes"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

var errMissingBackend = errors.New("tui: backend is required")

// Backend is the notes API the terminal client drives.
type Backend interface {
	Fetcher(orderBy notes.OrderField) notebook.Fetcher
	Uploader(orderBy notes.OrderField) notebook.Uploader
	GetNote(ctx context.Context, slug string) (notes.Note, error)
	Me(ctx context.Context) (notes.Author, error)
}

type Config struct {
	Backend Backend
	OrderBy notes.OrderField
	Logger  *zap.Logger
}

// Run blocks until the user quits or ctx is cancelled.
func Run(ctx context.Context, cfg Config) error {
	m, err := newModel(ctx, cfg)
	if err != nil {
		return err
	}
	defer m.panel.Close()
	_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
