package form

import (
	"context"
	"log/slog"
	"reflect"
	"sort"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/hashicorp/go-set/v2"

	"github.com/shulp2211/seqr-formkit/pkg/model"
	"github.com/shulp2211/seqr-formkit/pkg/valuebag"
)

// SubmitFunc delivers a validated payload. A non-nil result is handed back to
// the caller of Submit untouched.
type SubmitFunc func(ctx context.Context, payload valuebag.Bag) (valuebag.Bag, error)

type field struct {
	entry model.Entry
	rules compiledRules
}

// Form is one editing session over a descriptor list. It owns a deep copy of
// the initial values; all reads and writes go through the descriptor's
// format/parse/normalize hooks. A Form is safe for concurrent use.
type Form struct {
	mu sync.Mutex

	id          string
	title       string
	metadata    map[string]string
	logger      *slog.Logger
	decorators  []model.Decorator
	descriptors model.Descriptors

	fields []field
	index  map[string]int

	initial valuebag.Bag
	values  valuebag.Bag

	errors       map[string][]string
	parseErrors  map[string]string
	serverErrors map[string][]string
	formErrors   []string
	touched      *set.Set[string]
	submitFailed bool
	pending      bool
}

// New opens a session over descriptors seeded with initial. Descriptor lists
// with malformed names, duplicate paths or invalid patterns are rejected.
func New(descriptors model.Descriptors, initial map[string]any, opts ...Option) (*Form, error) {
	f := &Form{
		logger:  slog.Default(),
		index:   make(map[string]int),
		touched: set.New[string](0),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}

	if len(f.decorators) > 0 {
		decorated, err := model.Decorate(model.Form{ID: f.id, Descriptors: descriptors}, f.decorators...)
		if err != nil {
			return nil, errors.Wrap(err, "form: decorate descriptors")
		}
		descriptors = decorated.Descriptors
		f.title = decorated.Title
		f.metadata = decorated.Metadata
	}

	entries, err := descriptors.Flatten()
	if err != nil {
		return nil, err
	}
	f.descriptors = descriptors
	for _, entry := range entries {
		rules, err := compileRules(entry.Descriptor)
		if err != nil {
			return nil, errors.Wrapf(err, "form: field %s", entry.Path)
		}
		f.index[entry.Path.String()] = len(f.fields)
		f.fields = append(f.fields, field{entry: entry, rules: rules})
	}

	f.initial = valuebag.FromMap(initial)
	f.values = f.initial.Clone()
	f.revalidate()
	return f, nil
}

// ID returns the form identifier given through WithID.
func (f *Form) ID() string { return f.id }

// Title returns the title set by decorators, or "".
func (f *Form) Title() string { return f.title }

// Metadata returns a copy of the form-level metadata set by decorators.
func (f *Form) Metadata() map[string]string {
	if len(f.metadata) == 0 {
		return nil
	}
	out := make(map[string]string, len(f.metadata))
	for key, value := range f.metadata {
		out[key] = value
	}
	return out
}

// Descriptors returns the (decorated) descriptor list backing the session.
func (f *Form) Descriptors() model.Descriptors {
	return f.descriptors
}

// Display returns the formatted value for name. Format receives nil when no
// value is stored.
func (f *Form) Display(name string) (any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fd, err := f.lookup(name)
	if err != nil {
		return nil, err
	}
	return f.displayLocked(fd), nil
}

// Stored returns the raw stored value for name.
func (f *Form) Stored(name string) (any, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fd, err := f.lookup(name)
	if err != nil {
		return nil, false
	}
	return f.values.Get(fd.entry.Path)
}

// Change applies a user edit: parse, normalize against the current values,
// store, then revalidate every field. A parse failure records a field error,
// keeps the stored value and returns a *ParseError.
func (f *Form) Change(name string, display any) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	fd, err := f.lookup(name)
	if err != nil {
		return err
	}
	desc := fd.entry.Descriptor
	f.touched.Insert(name)
	delete(f.serverErrors, name)

	value := display
	if desc.Parse != nil {
		parsed, perr := desc.Parse(display)
		if perr != nil {
			f.parseErrors[name] = perr.Error()
			f.revalidate()
			f.logger.Debug("form field parse failed", "form", f.id, "field", name, "error", perr)
			return &ParseError{Field: name, Err: perr}
		}
		value = parsed
	}
	delete(f.parseErrors, name)

	if desc.Normalize != nil {
		value = desc.Normalize(value, f.values.Clone())
	}
	if err := f.values.Set(fd.entry.Path, value); err != nil {
		return errors.Wrapf(err, "form: change %s", name)
	}
	f.revalidate()
	return nil
}

// Touch marks name as visited without changing it, so its errors become
// visible.
func (f *Form) Touch(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := f.lookup(name); err != nil {
		return err
	}
	f.touched.Insert(name)
	return nil
}

// Touched reports whether the user has interacted with name.
func (f *Form) Touched(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.touched.Contains(name)
}

// Errors returns validation and parse errors for every invalid field,
// regardless of whether they are visible yet.
func (f *Form) Errors() map[string][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return copyErrors(f.errors)
}

// FieldErrors returns the visible errors for one field: validation messages
// once the field is touched or a submit failed, plus any server messages.
func (f *Form) FieldErrors(name string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.visibleLocked(name)
}

// VisibleErrors returns FieldErrors for every field that has any.
func (f *Form) VisibleErrors() map[string][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string][]string)
	for _, fd := range f.fields {
		name := fd.entry.Path.String()
		if msgs := f.visibleLocked(name); len(msgs) > 0 {
			out[name] = msgs
		}
	}
	return out
}

// FormErrors returns form-level messages mapped from a server rejection.
func (f *Form) FormErrors() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.formErrors...)
}

// IsValid reports whether no field has a validation or parse error.
func (f *Form) IsValid() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.errors) == 0
}

// Values returns a deep copy of every stored value.
func (f *Form) Values() valuebag.Bag {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values.Clone()
}

// Payload returns the values that Submit would send: a deep copy with
// excluded fields removed.
func (f *Form) Payload() valuebag.Bag {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.payloadLocked()
}

// Dirty reports whether the stored values differ from the initial ones.
func (f *Form) Dirty() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !equalValues(map[string]any(f.initial), map[string]any(f.values))
}

// Pending reports whether a submission is in flight.
func (f *Form) Pending() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pending
}

// Reset discards edits, errors and touched state and restores the initial
// values.
func (f *Form) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values = f.initial.Clone()
	f.touched = set.New[string](0)
	f.serverErrors = nil
	f.formErrors = nil
	f.submitFailed = false
	f.parseErrors = nil
	f.revalidate()
}

// ApplyServerErrors maps a server error payload onto fields. Messages for
// unknown keys become form-level errors. Field server errors clear when the
// field changes.
func (f *Form) ApplyServerErrors(payload map[string][]string) ErrorMapping {
	mapping := MapErrorPayload(f.descriptors, payload)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.serverErrors = copyErrors(mapping.Fields)
	f.formErrors = MergeFormErrors(nil, mapping.Form...)
	return mapping
}

// Submit validates every field and, when all pass, calls fn with the
// payload. Invalid forms return a *ValidationError and make every error
// visible. Only one submission may be in flight.
func (f *Form) Submit(ctx context.Context, fn SubmitFunc) (valuebag.Bag, error) {
	if fn == nil {
		return nil, errors.New("form: submit function is nil")
	}

	f.mu.Lock()
	if f.pending {
		f.mu.Unlock()
		return nil, ErrSubmitInFlight
	}
	f.revalidate()
	if len(f.errors) > 0 {
		f.submitFailed = true
		verr := &ValidationError{Fields: copyErrors(f.errors)}
		f.mu.Unlock()
		f.logger.Debug("form submit blocked by validation", "form", f.id, "fields", len(verr.Fields))
		return nil, verr
	}
	payload := f.payloadLocked()
	f.pending = true
	f.formErrors = nil
	f.mu.Unlock()

	result, err := fn(ctx, payload)

	f.mu.Lock()
	f.pending = false
	f.mu.Unlock()

	if err != nil {
		var rejection *RejectionError
		if errors.As(err, &rejection) && len(rejection.Fields) > 0 {
			f.ApplyServerErrors(rejection.Fields)
		}
		return nil, err
	}
	return result, nil
}

// Fields projects the session into per-field view state in declaration
// order, ready for a renderer.
func (f *Form) Fields() []FieldState {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]FieldState, 0, len(f.fields))
	for _, fd := range f.fields {
		name := fd.entry.Path.String()
		out = append(out, FieldState{
			Name:       name,
			Descriptor: fd.entry.Descriptor,
			Parent:     fd.entry.Parent.String(),
			Depth:      fd.entry.Depth,
			Display:    f.displayLocked(fd),
			Errors:     f.visibleLocked(name),
			Touched:    f.touched.Contains(name),
			Required:   fd.rules.required,
		})
	}
	return out
}

// FieldState is the renderer-facing view of one field.
type FieldState struct {
	Name       string
	Descriptor model.FieldDescriptor
	Parent     string
	Depth      int
	Display    any
	Errors     []string
	Touched    bool
	Required   bool
}

func (f *Form) lookup(name string) (field, error) {
	idx, ok := f.index[name]
	if !ok {
		return field{}, errors.Wrapf(ErrUnknownField, "%q", name)
	}
	return f.fields[idx], nil
}

func (f *Form) displayLocked(fd field) any {
	stored, _ := f.values.Get(fd.entry.Path)
	if fd.entry.Descriptor.Format != nil {
		return fd.entry.Descriptor.Format(stored)
	}
	return stored
}

func (f *Form) visibleLocked(name string) []string {
	var out []string
	if f.submitFailed || f.touched.Contains(name) {
		out = append(out, f.errors[name]...)
	}
	out = append(out, f.serverErrors[name]...)
	return cleanMessages(out)
}

func (f *Form) payloadLocked() valuebag.Bag {
	payload := f.values.Clone()
	for _, fd := range f.fields {
		if fd.entry.Descriptor.Exclude {
			payload.Delete(fd.entry.Path)
		}
	}
	return payload
}

// revalidate recomputes errors for every field. Cross-field validators read
// the full value bag, so a single change may affect any field.
func (f *Form) revalidate() {
	if f.parseErrors == nil {
		f.parseErrors = make(map[string]string)
	}
	next := make(map[string][]string)
	snapshot := f.values.Clone()
	for _, fd := range f.fields {
		name := fd.entry.Path.String()
		if msg, ok := f.parseErrors[name]; ok {
			next[name] = []string{msg}
			continue
		}
		value, _ := f.values.Get(fd.entry.Path)
		msgs := fd.rules.check(value)
		if fd.entry.Descriptor.Validate != nil {
			if msg := fd.entry.Descriptor.Validate(value, snapshot); msg != "" {
				msgs = append(msgs, msg)
			}
		}
		if msgs = cleanMessages(msgs); len(msgs) > 0 {
			next[name] = msgs
		}
	}
	f.errors = next
}

func equalValues(a, b map[string]any) bool {
	if len(a) == 0 && len(b) == 0 {
		return true
	}
	return reflect.DeepEqual(a, b)
}

func copyErrors(in map[string][]string) map[string][]string {
	out := make(map[string][]string, len(in))
	for key, msgs := range in {
		out[key] = append([]string(nil), msgs...)
	}
	return out
}

// SortedNames returns the keys of an error map in lexical order.
func SortedNames(errs map[string][]string) []string {
	names := make([]string, 0, len(errs))
	for name := range errs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
