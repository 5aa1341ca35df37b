package render

import (
	"fmt"
	"strings"

	"github.com/shulp2211/seqr-formkit/pkg/form"
	"github.com/shulp2211/seqr-formkit/pkg/lifecycle"
	"github.com/shulp2211/seqr-formkit/pkg/model"
	"github.com/shulp2211/seqr-formkit/pkg/selection"
	"github.com/shulp2211/seqr-formkit/pkg/widgets"
)

const (
	metadataSubtitle     = "layout.subtitle"
	metadataSectionTitle = "section.%s.title"
)

var defaultWidgets = widgets.NewRegistry()

// Page is the renderer-neutral projection of one record: its read-only view
// plus, while an edit is open, the form fields.
type Page struct {
	Record       string            `json:"record"`
	Title        string            `json:"title,omitempty"`
	Subtitle     string            `json:"subtitle,omitempty"`
	State        string            `json:"state"`
	Session      string            `json:"session,omitempty"`
	Display      model.Display     `json:"display"`
	Fields       []Field           `json:"fields,omitempty"`
	Sections     []Section         `json:"sections,omitempty"`
	FormErrors   []string          `json:"formErrors,omitempty"`
	ErrorPanel   string            `json:"errorPanel,omitempty"`
	Pending      bool              `json:"pending,omitempty"`
	Dirty        bool              `json:"dirty,omitempty"`
	CanEdit      bool              `json:"canEdit"`
	CanDelete    bool              `json:"canDelete"`
	Confirm      string            `json:"confirm,omitempty"`
	DeletePrompt string            `json:"deletePrompt,omitempty"`
	Action       string            `json:"action,omitempty"`
	Hidden       []HiddenField     `json:"hidden,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// Editing reports whether the page carries an open form.
func (p Page) Editing() bool {
	return p.State != lifecycle.Viewing.String()
}

// Field is the view state of one descriptor inside an open form.
type Field struct {
	Name        string            `json:"name"`
	Label       string            `json:"label"`
	Kind        model.Kind        `json:"kind"`
	Parent      string            `json:"parent,omitempty"`
	Depth       int               `json:"depth,omitempty"`
	Help        string            `json:"help,omitempty"`
	Placeholder string            `json:"placeholder,omitempty"`
	Text        string            `json:"text,omitempty"`
	Checked     bool              `json:"checked,omitempty"`
	Options     []Option          `json:"options,omitempty"`
	Table       *model.TableView  `json:"table,omitempty"`
	Errors      []string          `json:"errors,omitempty"`
	Required    bool              `json:"required,omitempty"`
	Touched     bool              `json:"touched,omitempty"`
	Layout      model.Layout      `json:"layout"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Option is a select choice with its current selection flag.
type Option struct {
	Value       string `json:"value"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
	Color       string `json:"color,omitempty"`
	Selected    bool   `json:"selected,omitempty"`
}

// Section groups top-level fields (and their nested members) under a heading.
type Section struct {
	ID     string  `json:"id,omitempty"`
	Title  string  `json:"title,omitempty"`
	Fields []Field `json:"fields"`
}

// Build projects a controller into a Page. The controller context is carried
// as hidden fields; opts.Hidden wins on name clashes.
func Build(ctrl *lifecycle.Controller, opts RenderOptions) Page {
	page := Page{
		Record:       ctrl.Name(),
		Title:        ctrl.Title(),
		State:        ctrl.State().String(),
		Display:      ctrl.View(),
		ErrorPanel:   ctrl.ErrorPanel(),
		CanEdit:      ctrl.CanEdit(),
		CanDelete:    ctrl.CanDelete(),
		Confirm:      ctrl.ConfirmPrompt(),
		DeletePrompt: ctrl.DeleteConfirmPrompt(),
		Action:       opts.Action,
		Hidden:       SortedHiddenFields(MergeHiddenFields(nil, append(ContextFields(ctrl.Context()), opts.Hidden...)...)),
	}

	if session := ctrl.Form(); session != nil {
		page.Session = ctrl.SessionID()
		if title := session.Title(); title != "" {
			page.Title = title
		}
		page.Metadata = session.Metadata()
		page.Subtitle = page.Metadata[metadataSubtitle]
		page.FormErrors = session.FormErrors()
		page.Pending = session.Pending()
		page.Dirty = session.Dirty()
		page.Fields = BuildFields(session, opts)
		page.Sections = groupSections(page.Fields, page.Metadata)
	}

	LocalizePage(&page, opts)
	return page
}

// BuildFields projects an edit session into field view state. Selection
// tables are rendered through their TableInput with the query registered for
// the field path.
func BuildFields(session *form.Form, opts RenderOptions) []Field {
	registry := opts.Widgets
	if registry == nil {
		registry = defaultWidgets
	}

	states := session.Fields()
	out := make([]Field, 0, len(states))
	for _, state := range states {
		desc := state.Descriptor
		field := Field{
			Name:        state.Name,
			Label:       desc.DisplayLabel(),
			Kind:        registry.Resolve(desc),
			Parent:      state.Parent,
			Depth:       state.Depth,
			Help:        desc.Help,
			Placeholder: desc.Placeholder,
			Errors:      state.Errors,
			Required:    state.Required,
			Touched:     state.Touched,
			Layout:      desc.Layout,
			Metadata:    desc.Metadata,
		}

		switch field.Kind {
		case model.KindCheckbox:
			field.Checked, _ = state.Display.(bool)
		case model.KindSelect, model.KindMultiSelect:
			field.Options = buildOptions(desc.Options, selectedValues(state.Display))
			field.Text = DisplayText(state.Display)
		case model.KindSelectionTable:
			if desc.Table != nil {
				view := desc.Table.Table(selection.FromValue(state.Display), opts.query(state.Name))
				field.Table = &view
			}
		case model.KindGroup:
		default:
			field.Text = DisplayText(state.Display)
		}
		out = append(out, field)
	}
	return out
}

// DisplayText renders a display value as plain text.
func DisplayText(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []string:
		return strings.Join(v, ", ")
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, DisplayText(item))
		}
		return strings.Join(parts, ", ")
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprint(v)
	default:
		return fmt.Sprint(v)
	}
}

func selectedValues(display any) map[string]bool {
	out := make(map[string]bool)
	switch v := display.(type) {
	case nil:
	case []string:
		for _, item := range v {
			out[item] = true
		}
	case []any:
		for _, item := range v {
			out[DisplayText(item)] = true
		}
	default:
		if text := DisplayText(v); text != "" {
			out[text] = true
		}
	}
	return out
}

func buildOptions(options []model.Option, selected map[string]bool) []Option {
	out := make([]Option, 0, len(options))
	for _, opt := range options {
		out = append(out, Option{
			Value:       opt.Value,
			Label:       opt.Label(),
			Description: opt.Description,
			Color:       opt.Color,
			Selected:    selected[opt.Value],
		})
	}
	return out
}

// groupSections keeps declaration order. Nested fields stay with the
// top-level field they belong to.
func groupSections(fields []Field, metadata map[string]string) []Section {
	var (
		out   []Section
		index = make(map[string]int)
		owner string
	)
	for _, field := range fields {
		id := field.Layout.Section
		if field.Depth > 0 {
			id = owner
		} else {
			owner = id
		}
		pos, ok := index[id]
		if !ok {
			pos = len(out)
			index[id] = pos
			section := Section{ID: id}
			if id != "" {
				section.Title = metadata[fmt.Sprintf(metadataSectionTitle, id)]
			}
			out = append(out, section)
		}
		out[pos].Fields = append(out[pos].Fields, field)
	}
	return out
}
