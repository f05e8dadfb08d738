package notebook

import (
	"context"
	"errors"
	"sync"

	"github.com/MarcoPoloResearchLab/quicknote/internal/notes"
)

var (
	// ErrPanelNotExpanded indicates a submit while the form is not showing.
	ErrPanelNotExpanded = errors.New("notebook: panel is not expanded")
	// ErrPanelClosed indicates the panel was unmounted.
	ErrPanelClosed = errors.New("notebook: panel is closed")
)

// PanelState is the creation panel's position in its lifecycle.
type PanelState int

const (
	PanelCollapsed PanelState = iota
	PanelExpanded
	PanelSubmitting
)

func (s PanelState) String() string {
	switch s {
	case PanelCollapsed:
		return "collapsed"
	case PanelExpanded:
		return "expanded"
	case PanelSubmitting:
		return "submitting"
	default:
		return "unknown"
	}
}

// Uploader writes the draft and returns the refreshed listing.
type Uploader interface {
	Upload(ctx context.Context, draft notes.Draft) ([]notes.Note, error)
}

// UploaderFunc adapts a function to Uploader.
type UploaderFunc func(ctx context.Context, draft notes.Draft) ([]notes.Note, error)

// Upload calls f.
func (f UploaderFunc) Upload(ctx context.Context, draft notes.Draft) ([]notes.Note, error) {
	return f(ctx, draft)
}

// Panel is the note creation form. The scroll lock is held exactly while
// the panel is expanded or submitting.
type Panel struct {
	mu          sync.Mutex
	state       PanelState
	title       string
	description string
	lock        ScrollLock
	holding     bool
	closed      bool
	inbox       *Inbox
}

// NewPanel returns a collapsed panel.
func NewPanel(lock ScrollLock, inbox *Inbox) *Panel {
	if lock == nil {
		lock = noopScrollLock{}
	}
	return &Panel{state: PanelCollapsed, lock: lock, inbox: inbox}
}

// State returns the current state.
func (p *Panel) State() PanelState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Loading reports whether a submit is in flight.
func (p *Panel) Loading() bool {
	return p.State() == PanelSubmitting
}

// Title returns the title input.
func (p *Panel) Title() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.title
}

// Description returns the description input.
func (p *Panel) Description() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.description
}

// Open expands a collapsed panel.
func (p *Panel) Open() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || p.state != PanelCollapsed {
		return
	}
	p.state = PanelExpanded
	p.acquire()
}

// SetTitle updates the title input while the form is editable.
func (p *Panel) SetTitle(value string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == PanelExpanded {
		p.title = value
	}
}

// SetDescription updates the description input while the form is editable.
func (p *Panel) SetDescription(value string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == PanelExpanded {
		p.description = value
	}
}

// Dismiss collapses an expanded panel and discards its input.
// It is ignored while a submit is in flight.
func (p *Panel) Dismiss() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != PanelExpanded {
		return
	}
	p.collapse()
}

// BeginSubmit validates the input. Blank fields keep the panel expanded and
// publish MessageMissingFields; otherwise the panel starts submitting.
func (p *Panel) BeginSubmit() (notes.Draft, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return notes.Draft{}, ErrPanelClosed
	}
	if p.state != PanelExpanded {
		return notes.Draft{}, ErrPanelNotExpanded
	}
	draft, err := notes.NewDraft(p.title, p.description)
	if err != nil {
		p.inbox.Error(MessageMissingFields)
		return notes.Draft{}, err
	}
	p.state = PanelSubmitting
	return draft, nil
}

// FinishSubmit ends a submit. Success collapses and clears the form; failure
// returns to expanded with the error text published. Results arriving after
// Close are dropped.
func (p *Panel) FinishSubmit(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || p.state != PanelSubmitting {
		return
	}
	if err != nil {
		p.state = PanelExpanded
		p.inbox.Error(failureText(err))
		return
	}
	p.collapse()
	p.inbox.Success(MessageUploaded)
}

// Submit runs BeginSubmit, the upload, and FinishSubmit in sequence.
// The refreshed listing is returned on success.
func (p *Panel) Submit(ctx context.Context, uploader Uploader) ([]notes.Note, error) {
	draft, err := p.BeginSubmit()
	if err != nil {
		return nil, err
	}
	refreshed, err := uploader.Upload(ctx, draft)
	p.FinishSubmit(err)
	if err != nil {
		return nil, err
	}
	return refreshed, nil
}

// Close unmounts the panel and releases the scroll lock.
func (p *Panel) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.release()
}

func (p *Panel) collapse() {
	p.state = PanelCollapsed
	p.title = ""
	p.description = ""
	p.release()
}

func (p *Panel) acquire() {
	if !p.holding {
		p.lock.Lock()
		p.holding = true
	}
}

func (p *Panel) release() {
	if p.holding {
		p.lock.Unlock()
		p.holding = false
	}
}

func failureText(err error) string {
	if text := err.Error(); text != "" {
		return text
	}
	return MessageUploadFailed
}
