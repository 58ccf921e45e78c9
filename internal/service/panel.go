package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cloo-solutions/molpanel/internal/domain"
	"github.com/cloo-solutions/molpanel/internal/logging"
	"github.com/cloo-solutions/molpanel/internal/telemetry"
)

var errRetrievalAborted = errors.New("retrieval aborted")

// Panel owns the state of one interactive panel: the editor reference, the
// last encoding read from it, the three result collections, the error banner
// and the loading flag.
//
// A retrieval moves the panel Idle -> Loading -> Idle. Editor and fetcher
// calls run outside the lock so Snapshot reports Loading while they are in
// flight; the loading flag is what keeps a second retrieval from starting.
type Panel struct {
	id       string
	fetcher  ResultFetcher
	recorder RetrievalRecorder
	logger   logging.Logger
	now      func() time.Time

	mu        sync.Mutex
	editor    Editor
	state     domain.PanelState
	closed    bool
	lastTouch time.Time
}

// NewPanel creates an idle panel with no editor. recorder may be nil.
func NewPanel(id string, fetcher ResultFetcher, recorder RetrievalRecorder, logger logging.Logger) *Panel {
	return newPanelWithClock(id, fetcher, recorder, logger, time.Now)
}

func newPanelWithClock(id string, fetcher ResultFetcher, recorder RetrievalRecorder, logger logging.Logger, now func() time.Time) *Panel {
	if logger == nil {
		logger = logging.NewNop()
	}
	created := now().UTC()
	return &Panel{
		id:       id,
		fetcher:  fetcher,
		recorder: recorder,
		logger:   logger.With(logging.String("panel_id", id)),
		now:      now,
		state: domain.PanelState{
			ID:        id,
			Results:   domain.EmptyResultSet(),
			CreatedAt: created,
			UpdatedAt: created,
		},
		lastTouch: created,
	}
}

func (p *Panel) ID() string {
	return p.id
}

// touch must be called with mu held.
func (p *Panel) touch() {
	t := p.now().UTC()
	p.state.UpdatedAt = t
	p.lastTouch = t
}

// EditorReady stores the editor and loads the default structure into it. It
// succeeds once per panel; later calls return ErrEditorAlreadyReady and leave
// the editor untouched.
func (p *Panel) EditorReady(ctx context.Context, editor Editor) error {
	if editor == nil {
		return domain.ErrEditorRequired
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return domain.ErrPanelClosed
	}
	if p.editor != nil {
		return domain.ErrEditorAlreadyReady
	}

	p.editor = editor
	p.state.EditorReady = true
	p.touch()

	if err := editor.LoadStructure(ctx, domain.DefaultStructure); err != nil {
		p.state.Error = domain.MsgEditorFailure
		p.logger.Error("failed to load default structure", logging.Err(err))
		telemetry.CaptureError(ctx, err)
		return nil
	}

	telemetry.AddBreadcrumb(ctx, "panel", "default structure loaded")
	p.logger.Debug("editor ready, default structure loaded")
	return nil
}

// EditorFailed records an error reported by the editor itself. The result
// collections are left as they are.
func (p *Panel) EditorFailed(ctx context.Context, cause error) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return domain.ErrPanelClosed
	}

	p.state.Error = domain.MsgEditorFailure
	p.touch()
	p.logger.Warn("editor reported an error", logging.Err(cause))
	return nil
}

// Retrieve reads the current encoding from the editor and repopulates the
// result collections. It reports false without touching state when no editor
// is attached. Failures end up in the panel's error message, never in the
// returned error, which is reserved for ErrRetrievalInProgress and
// ErrPanelClosed.
func (p *Panel) Retrieve(ctx context.Context) (bool, error) {
	return p.retrieve(ctx, nil)
}

// RetrieveSubmitted is Retrieve for editors that deliver their encoding with
// the request. The submission is handed to the editor only once the
// retrieval has been admitted, so a rejected concurrent call cannot replace
// the encoding of the one in flight. A non-empty editorErr means the editor
// failed to produce text.
func (p *Panel) RetrieveSubmitted(ctx context.Context, encoding, editorErr string) (bool, error) {
	var cause error
	if editorErr != "" {
		cause = errors.New(editorErr)
	}
	return p.retrieve(ctx, func(e Editor) {
		if s, ok := e.(Submitter); ok {
			s.Submit(encoding, cause)
		}
	})
}

func (p *Panel) retrieve(ctx context.Context, admit func(Editor)) (bool, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return false, domain.ErrPanelClosed
	}
	if p.editor == nil {
		p.mu.Unlock()
		p.record(ctx, RetrievalRecord{PanelID: p.id, Strategy: p.fetcher.Name(), Outcome: OutcomeNoop})
		return false, nil
	}
	if p.state.Loading {
		p.mu.Unlock()
		return false, domain.ErrRetrievalInProgress
	}
	p.state.Loading = true
	p.state.Error = ""
	p.touch()
	editor := p.editor
	if admit != nil {
		admit(editor)
	}
	p.mu.Unlock()

	ctx, span := telemetry.StartSpan(ctx, "panel.retrieve", telemetry.SpanAttributes{
		PanelID:   p.id,
		Strategy:  p.fetcher.Name(),
		Operation: "retrieve",
	})
	defer span.End()

	start := p.now()
	var (
		smiles   string
		encoded  bool
		results  domain.ResultSet
		err      error
		finished bool
	)

	defer func() {
		if !finished {
			err = errRetrievalAborted
		}
		rec := p.finish(smiles, encoded, results, err)
		rec.Duration = p.now().Sub(start)
		if err != nil {
			span.SetError(err)
		}
		p.record(ctx, rec)
	}()

	smiles, err = editor.StructureText(ctx)
	if err != nil {
		err = fmt.Errorf("failed to read structure from editor: %w", err)
	} else {
		encoded = true
		results, err = p.fetcher.Fetch(ctx, smiles)
	}
	finished = true

	return true, nil
}

// finish applies the outcome of a retrieval and clears the loading flag.
func (p *Panel) finish(smiles string, encoded bool, results domain.ResultSet, err error) RetrievalRecord {
	p.mu.Lock()
	defer p.mu.Unlock()

	rec := RetrievalRecord{
		PanelID:  p.id,
		SMILES:   smiles,
		Strategy: p.fetcher.Name(),
		Err:      err,
	}

	if encoded {
		p.state.SMILES = smiles
	}

	var partial PartialResultError
	switch {
	case err == nil:
		p.state.Results = results.Clone()
		p.state.Error = ""
		rec.Outcome = OutcomeSuccess
	case encoded && errors.As(err, &partial) && len(partial.FailedCategories()) < len(domain.Categories):
		kept := results.Clone()
		titles := make([]string, 0, len(partial.FailedCategories()))
		for _, c := range partial.FailedCategories() {
			kept.Set(c, nil)
			titles = append(titles, c.Title())
		}
		p.state.Results = kept
		p.state.Error = fmt.Sprintf("%s (%s)", domain.MsgRetrievalFailure, strings.Join(titles, ", "))
		rec.Outcome = OutcomePartial
		p.logger.Warn("retrieval partially failed", logging.Err(err))
	default:
		p.state.Results = domain.EmptyResultSet()
		p.state.Error = domain.MsgRetrievalFailure
		rec.Outcome = OutcomeFailure
		p.logger.Error("retrieval failed", logging.Err(err))
	}

	p.state.Loading = false
	p.touch()
	rec.Counts = p.state.Results.Counts()
	return rec
}

func (p *Panel) record(ctx context.Context, rec RetrievalRecord) {
	if p.recorder != nil {
		p.recorder.RecordRetrieval(ctx, rec)
	}
}

// Snapshot returns a copy of the panel state safe to render.
func (p *Panel) Snapshot() domain.PanelState {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := p.state
	s.Results = p.state.Results.Clone()
	return s
}

// Close rejects further operations on the panel.
func (p *Panel) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
}

// IdleSince reports whether the panel is not loading and has not been
// touched since cutoff.
func (p *Panel) IdleSince(cutoff time.Time) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.state.Loading && p.lastTouch.Before(cutoff)
}
