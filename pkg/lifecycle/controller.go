package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/shulp2211/seqr-formkit/pkg/form"
	"github.com/shulp2211/seqr-formkit/pkg/metrics"
	"github.com/shulp2211/seqr-formkit/pkg/model"
	"github.com/shulp2211/seqr-formkit/pkg/readmodel"
	"github.com/shulp2211/seqr-formkit/pkg/valuebag"
)

// State is the controller's position in the view/edit/submit cycle.
type State int

const (
	Viewing State = iota
	Editing
	Submitting
)

func (s State) String() string {
	switch s {
	case Viewing:
		return "viewing"
	case Editing:
		return "editing"
	case Submitting:
		return "submitting"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var (
	// ErrConfirmationRequired is returned by BeginEdit and Delete when a
	// confirmation prompt is configured and the caller has not confirmed.
	ErrConfirmationRequired = errors.New("lifecycle: confirmation required")
	// ErrNotEditable is returned when the edit or delete trigger is disabled.
	ErrNotEditable = errors.New("lifecycle: record is not editable")
	// ErrNotEditing is returned by Submit and Cancel outside the Editing state.
	ErrNotEditing = errors.New("lifecycle: no edit in progress")
	// ErrBusy is returned when an action needs the Viewing state.
	ErrBusy = errors.New("lifecycle: controller is not viewing")
)

// RejectionError is the error a dispatcher returns to reject a submission
// with a panel message and optional per-field messages.
type RejectionError = form.RejectionError

// SubmitFunc dispatches a payload and returns the resolved value.
type SubmitFunc = readmodel.SubmitFunc

// DisplayFunc renders the current value read-only. present is false when no
// value exists yet.
type DisplayFunc func(value valuebag.Bag, present bool) model.Display

// Result describes the outcome of Submit or Delete.
type Result struct {
	Value   valuebag.Bag
	Err     error
	Message string
}

// Controller mediates view, edit and submit transitions for one record. The
// current value is only ever replaced wholesale after a successful dispatch.
type Controller struct {
	mu sync.Mutex

	name        string
	title       string
	descriptors model.Descriptors
	submit      SubmitFunc

	state      State
	current    valuebag.Bag
	hasCurrent bool
	session    *form.Form
	sessionID  string
	panel      string

	context       valuebag.Bag
	editable      func(valuebag.Bag, bool) bool
	deletable     func(valuebag.Bag, bool) bool
	display       DisplayFunc
	confirm       string
	deleteConfirm string
	formOpts      []form.Option
	logger        *slog.Logger
	metrics       *metrics.Collector
}

// New builds a controller in the Viewing state. A nil current means the
// record has no value yet.
func New(descriptors model.Descriptors, current valuebag.Bag, submit SubmitFunc, opts ...Option) (*Controller, error) {
	if submit == nil {
		return nil, errors.New("lifecycle: submit function is nil")
	}
	if err := descriptors.Check(); err != nil {
		return nil, errors.Wrap(err, "lifecycle: descriptors")
	}
	c := &Controller{
		name:        "record",
		descriptors: descriptors,
		submit:      submit,
		state:       Viewing,
		logger:      slog.Default(),
	}
	if current != nil {
		c.current = current.Clone()
		c.hasCurrent = true
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// Name returns the controller's name.
func (c *Controller) Name() string { return c.name }

// Title returns the edit dialog title.
func (c *Controller) Title() string { return c.title }

// Context returns a copy of the values merged into every submit payload.
func (c *Controller) Context() valuebag.Bag { return c.context.Clone() }

// Descriptors returns the descriptor list used for edit sessions.
func (c *Controller) Descriptors() model.Descriptors { return c.descriptors }

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Current returns a copy of the current value.
func (c *Controller) Current() (valuebag.Bag, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.hasCurrent {
		return nil, false
	}
	return c.current.Clone(), true
}

// Refresh replaces the current value from the read model. It is ignored
// outside the Viewing state so an open edit is never overwritten.
func (c *Controller) Refresh(value valuebag.Bag, present bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Viewing {
		return false
	}
	c.current = nil
	c.hasCurrent = present
	if present {
		c.current = value.Clone()
	}
	return true
}

// View renders the current value with the configured DisplayFunc.
func (c *Controller) View() model.Display {
	c.mu.Lock()
	current, present := c.current.Clone(), c.hasCurrent
	display := c.display
	c.mu.Unlock()
	if display == nil {
		return c.defaultDisplay(current, present)
	}
	return display(current, present)
}

// CanEdit reports whether the edit trigger is enabled.
func (c *Controller) CanEdit() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.canEditLocked()
}

// CanDelete reports whether the delete trigger is enabled.
func (c *Controller) CanDelete() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.canDeleteLocked()
}

// ConfirmPrompt returns the prompt shown before editing, or "".
func (c *Controller) ConfirmPrompt() string { return c.confirm }

// DeleteConfirmPrompt returns the prompt shown before deleting, or "".
func (c *Controller) DeleteConfirmPrompt() string { return c.deleteConfirm }

// ErrorPanel returns the last submission failure message, or "".
func (c *Controller) ErrorPanel() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.panel
}

// Form returns the open edit session, or nil outside Editing/Submitting.
func (c *Controller) Form() *form.Form {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// SessionID identifies the open edit session in logs.
func (c *Controller) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// BeginEdit opens a form seeded from the current value. When a confirmation
// prompt is configured, confirmed must be true.
func (c *Controller) BeginEdit(confirmed bool) (*form.Form, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Viewing {
		return nil, errors.Wrapf(ErrBusy, "begin edit in state %s", c.state)
	}
	if !c.canEditLocked() {
		return nil, ErrNotEditable
	}
	if c.confirm != "" && !confirmed {
		return nil, ErrConfirmationRequired
	}

	sessionID := uuid.NewString()
	logger := c.logger.With("session", sessionID)
	opts := append([]form.Option{form.WithLogger(logger), form.WithID(c.name)}, c.formOpts...)
	session, err := form.New(c.descriptors, c.current.Clone(), opts...)
	if err != nil {
		return nil, errors.Wrap(err, "lifecycle: open edit session")
	}
	c.session = session
	c.sessionID = sessionID
	c.state = Editing
	c.panel = ""
	c.logger.Debug("edit session opened", "record", c.name, "session", sessionID)
	return session, nil
}

// Cancel discards the edit session and returns to Viewing.
func (c *Controller) Cancel() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Editing {
		return errors.Wrapf(ErrNotEditing, "cancel in state %s", c.state)
	}
	c.logger.Debug("edit session cancelled", "record", c.name, "session", c.sessionID)
	c.closeSessionLocked()
	return nil
}

// Submit validates the open session and dispatches its values merged with
// the controller context. Success replaces the current value and returns to
// Viewing. A dispatcher failure stays in Editing with the message in the
// error panel and the edits intact. Validation failures never reach the
// dispatcher.
func (c *Controller) Submit(ctx context.Context) (Result, error) {
	c.mu.Lock()
	if c.state != Editing || c.session == nil {
		state := c.state
		c.mu.Unlock()
		return Result{}, errors.Wrapf(ErrNotEditing, "submit in state %s", state)
	}
	session := c.session
	extra := c.context.Clone()
	c.state = Submitting
	c.mu.Unlock()

	started := time.Now()
	var submitted valuebag.Bag
	resolved, err := session.Submit(ctx, func(ctx context.Context, payload valuebag.Bag) (valuebag.Bag, error) {
		submitted = payload.Merge(extra)
		return c.submit(ctx, submitted)
	})

	var verr *form.ValidationError
	if errors.As(err, &verr) {
		c.mu.Lock()
		c.state = Editing
		c.mu.Unlock()
		return Result{Err: err}, err
	}
	c.metrics.Submission(c.name, "submit", started, err)
	if err != nil {
		return c.fail(Editing, "submit", err), err
	}
	if resolved == nil {
		resolved = submitted
	}
	return c.succeed("submit", resolved, true), nil
}

// Delete dispatches the delete sentinel through the submit function. It runs
// from Viewing and returns there; a failure leaves the value untouched and
// shows the message in the error panel.
func (c *Controller) Delete(ctx context.Context, confirmed bool) (Result, error) {
	c.mu.Lock()
	if c.state != Viewing {
		state := c.state
		c.mu.Unlock()
		return Result{}, errors.Wrapf(ErrBusy, "delete in state %s", state)
	}
	if !c.canDeleteLocked() {
		c.mu.Unlock()
		return Result{}, ErrNotEditable
	}
	if c.deleteConfirm != "" && !confirmed {
		c.mu.Unlock()
		return Result{}, ErrConfirmationRequired
	}
	payload := c.context.Clone()
	payload[DeleteKey] = true
	c.state = Submitting
	c.panel = ""
	c.mu.Unlock()

	started := time.Now()
	resolved, err := c.submit(ctx, payload)
	c.metrics.Submission(c.name, "delete", started, err)
	if err != nil {
		return c.fail(Viewing, "delete", err), err
	}
	return c.succeed("delete", resolved, len(resolved) > 0), nil
}

func (c *Controller) succeed(action string, resolved valuebag.Bag, present bool) Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = nil
	c.hasCurrent = present
	if present {
		c.current = resolved.Clone()
	}
	c.logger.Info("record updated", "record", c.name, "action", action, "session", c.sessionID)
	c.closeSessionLocked()
	return Result{Value: resolved.Clone()}
}

func (c *Controller) fail(back State, action string, err error) Result {
	message := Message(err)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = back
	c.panel = message
	c.logger.Warn("submission rejected", "record", c.name, "action", action, "session", c.sessionID, "error", err)
	return Result{Err: err, Message: message}
}

func (c *Controller) closeSessionLocked() {
	c.session = nil
	c.sessionID = ""
	c.state = Viewing
	c.panel = ""
}

func (c *Controller) canEditLocked() bool {
	if c.editable == nil {
		return true
	}
	return c.editable(c.current.Clone(), c.hasCurrent)
}

func (c *Controller) canDeleteLocked() bool {
	if c.deletable == nil {
		return false
	}
	return c.deletable(c.current.Clone(), c.hasCurrent)
}

func (c *Controller) defaultDisplay(current valuebag.Bag, present bool) model.Display {
	out := model.Display{Title: c.title, Empty: !present}
	if !present {
		return out
	}
	entries, err := c.descriptors.Flatten()
	if err != nil {
		return out
	}
	for _, entry := range entries {
		if entry.Descriptor.Kind == model.KindGroup || entry.Descriptor.Kind == model.KindSelectionTable {
			continue
		}
		value, ok := current.Get(entry.Path)
		if !ok {
			continue
		}
		if entry.Descriptor.Format != nil {
			value = entry.Descriptor.Format(value)
		}
		out.Lines = append(out.Lines, model.Line{Label: entry.Descriptor.DisplayLabel(), Value: fmt.Sprint(value)})
	}
	return out
}

// DeleteKey marks the delete sentinel payload.
const DeleteKey = readmodel.DeleteKey

// Message extracts the human-readable message of a dispatcher failure.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var rejection *RejectionError
	if errors.As(err, &rejection) {
		return rejection.Error()
	}
	return err.Error()
}
