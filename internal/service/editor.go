package service

import (
	"context"
	"sync"

	"github.com/cloo-solutions/molpanel/internal/domain"
)

// Editor is the structure editor a panel drives. Encoding validity is owned by
// the editor; the panel treats encodings as opaque text.
type Editor interface {
	LoadStructure(ctx context.Context, encoding string) error
	StructureText(ctx context.Context) (string, error)
}

// Submitter is implemented by editors whose current encoding arrives with
// each retrieval request instead of being read from the editor itself.
type Submitter interface {
	Submit(encoding string, err error)
}

type submission struct {
	encoding string
	err      error
}

// RemoteEditor stands in for an editor running in the browser. Structures
// loaded into it are queued until the browser collects them. The current
// encoding is whatever the browser submitted for the retrieval in flight, and
// each submission is read at most once.
type RemoteEditor struct {
	mu      sync.Mutex
	pending []string
	sub     *submission
}

func NewRemoteEditor() *RemoteEditor {
	return &RemoteEditor{}
}

func (e *RemoteEditor) LoadStructure(ctx context.Context, encoding string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pending = append(e.pending, encoding)
	return nil
}

// Submit stores what the browser reported for the next retrieval. A non-nil
// err means the editor failed to produce text.
func (e *RemoteEditor) Submit(encoding string, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sub = &submission{encoding: encoding, err: err}
}

func (e *RemoteEditor) StructureText(ctx context.Context) (string, error) {
	e.mu.Lock()
	sub := e.sub
	e.sub = nil
	e.mu.Unlock()

	if sub == nil {
		return "", domain.ErrNoSubmission
	}
	if sub.err != nil {
		return "", sub.err
	}
	return sub.encoding, nil
}

// TakePending returns and clears the structures queued for the browser.
func (e *RemoteEditor) TakePending() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := e.pending
	e.pending = nil
	return out
}

// MemoryEditor keeps the structure in process. The terminal panel uses it.
type MemoryEditor struct {
	mu    sync.RWMutex
	text  string
	loads int
}

func NewMemoryEditor() *MemoryEditor {
	return &MemoryEditor{}
}

func (e *MemoryEditor) LoadStructure(ctx context.Context, encoding string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.text = encoding
	e.loads++
	return nil
}

func (e *MemoryEditor) StructureText(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.text, nil
}

// SetText replaces the structure as if the user had drawn it.
func (e *MemoryEditor) SetText(text string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.text = text
}

// Loads returns how many times LoadStructure has been called.
func (e *MemoryEditor) Loads() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.loads
}
