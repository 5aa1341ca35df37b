package components

import (
	"bytes"
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/shulp2211/seqr-formkit/pkg/model"
	"github.com/shulp2211/seqr-formkit/pkg/render"
)

const (
	templatePrefix = "templates/components/"
)

// TableScript toggles the row highlight when a selection checkbox changes.
const TableScript = `document.addEventListener("change",function(e){var t=e.target;if(t&&t.matches("[data-formkit-table] input[type=checkbox]")){t.closest("tr").classList.toggle("is-selected",t.checked)}});`

// NewDefaultRegistry constructs a registry pre-populated with one component
// per built-in kind.
func NewDefaultRegistry() *Registry {
	registry := New()

	registry.MustRegister(model.KindText, Descriptor{
		Renderer: templateComponentRenderer("forms.input", templatePrefix+"input.tmpl", nil),
	})
	registry.MustRegister(model.KindInteger, Descriptor{
		Renderer: templateComponentRenderer("forms.input", templatePrefix+"input.tmpl", map[string]any{"type": "number", "step": "1"}),
	})
	registry.MustRegister(model.KindTextArea, Descriptor{
		Renderer: templateComponentRenderer("forms.textarea", templatePrefix+"textarea.tmpl", nil),
	})
	registry.MustRegister(model.KindCheckbox, Descriptor{
		Renderer: templateComponentRenderer("forms.checkbox", templatePrefix+"checkbox.tmpl", nil),
	})
	registry.MustRegister(model.KindSelect, Descriptor{
		Renderer: templateComponentRenderer("forms.select", templatePrefix+"select.tmpl", nil),
	})
	registry.MustRegister(model.KindMultiSelect, Descriptor{
		Renderer: templateComponentRenderer("forms.select", templatePrefix+"select.tmpl", map[string]any{"multiple": true}),
	})
	registry.MustRegister(model.KindSelectionTable, Descriptor{
		Renderer: selectionTableRenderer,
		Scripts:  []Script{{Inline: TableScript}},
	})
	registry.MustRegister(model.KindGroup, Descriptor{
		Renderer: groupRenderer,
	})

	return registry
}

func templateComponentRenderer(partialKey, templateName string, config map[string]any) Renderer {
	if config == nil {
		config = map[string]any{}
	}
	return func(buf *bytes.Buffer, field render.Field, data ComponentData) error {
		if data.Template == nil {
			return fmt.Errorf("components: template renderer not configured for %q", templateName)
		}

		resolvedTemplate := templateName
		if data.ThemePartials != nil {
			if candidate := strings.TrimSpace(data.ThemePartials[partialKey]); candidate != "" {
				resolvedTemplate = candidate
			}
		}

		payload := map[string]any{
			"field":  field,
			"config": config,
			"id":     data.ControlID,
		}
		rendered, err := data.Template.RenderTemplate(resolvedTemplate, payload)
		if err != nil {
			return fmt.Errorf("components: render template %q: %w", templateName, err)
		}
		buf.WriteString(rendered)
		return nil
	}
}

// groupRenderer emits the group heading; nested fields follow as siblings
// carrying a deeper data-depth.
func groupRenderer(buf *bytes.Buffer, field render.Field, data ComponentData) error {
	buf.WriteString(`<div class="formkit-group" role="group"`)
	if data.ControlID != "" {
		buf.WriteString(` id="`)
		buf.WriteString(html.EscapeString(data.ControlID))
		buf.WriteString(`"`)
	}
	buf.WriteString(`><span class="formkit-group-label">`)
	buf.WriteString(html.EscapeString(field.Label))
	buf.WriteString(`</span></div>`)
	return nil
}

// selectionTableRenderer draws a checkbox per row. Checkbox values are row
// ids so a posted form carries the selected ids under the field name.
func selectionTableRenderer(buf *bytes.Buffer, field render.Field, data ComponentData) error {
	view := field.Table
	if view == nil {
		return fmt.Errorf("components: field %q has no table view", field.Name)
	}
	var b strings.Builder
	b.WriteString(`<div class="formkit-table" data-formkit-table="`)
	b.WriteString(html.EscapeString(field.Name))
	b.WriteString(`"`)
	if view.Loading {
		b.WriteString(` data-loading="true" aria-busy="true"`)
	}
	b.WriteString(`>`)

	b.WriteString(`<input type="search" class="formkit-table-filter" name="_filter.`)
	b.WriteString(html.EscapeString(field.Name))
	b.WriteString(`" value="`)
	b.WriteString(html.EscapeString(view.Filter))
	b.WriteString(`" placeholder="Filter">`)
	b.WriteString(`<button type="submit" name="_action" value="filter" formnovalidate>Filter</button>`)

	b.WriteString(`<table`)
	if data.ControlID != "" {
		b.WriteString(` id="`)
		b.WriteString(html.EscapeString(data.ControlID))
		b.WriteString(`"`)
	}
	b.WriteString(`><thead><tr><th scope="col" class="formkit-table-select"></th>`)
	for _, column := range view.Columns {
		b.WriteString(`<th scope="col" data-column="`)
		b.WriteString(html.EscapeString(column.Name))
		b.WriteString(`"`)
		if column.Width > 0 {
			b.WriteString(` data-width="`)
			b.WriteString(strconv.Itoa(column.Width))
			b.WriteString(`"`)
		}
		if column.Name == view.SortColumn {
			if view.SortDescending {
				b.WriteString(` aria-sort="descending"`)
			} else {
				b.WriteString(` aria-sort="ascending"`)
			}
		}
		b.WriteString(`>`)
		b.WriteString(html.EscapeString(column.Header))
		b.WriteString(`</th>`)
	}
	b.WriteString(`</tr></thead><tbody>`)

	for _, row := range view.Rows {
		b.WriteString(`<tr data-id="`)
		b.WriteString(html.EscapeString(row.ID))
		b.WriteString(`"`)
		if row.Selected {
			b.WriteString(` class="is-selected"`)
		}
		b.WriteString(`><td class="formkit-table-select"><input type="checkbox" name="`)
		b.WriteString(html.EscapeString(field.Name))
		b.WriteString(`" value="`)
		b.WriteString(html.EscapeString(row.ID))
		b.WriteString(`"`)
		if row.Selected {
			b.WriteString(` checked`)
		}
		b.WriteString(`></td>`)
		for idx, cell := range row.Cells {
			b.WriteString(`<td`)
			if idx < len(view.Columns) && view.Columns[idx].Align != "" {
				b.WriteString(` style="text-align: `)
				b.WriteString(html.EscapeString(view.Columns[idx].Align))
				b.WriteString(`"`)
			}
			b.WriteString(`>`)
			b.WriteString(html.EscapeString(cell))
			b.WriteString(`</td>`)
		}
		b.WriteString(`</tr>`)
	}
	if len(view.Rows) == 0 {
		b.WriteString(`<tr class="formkit-table-empty"><td colspan="`)
		b.WriteString(strconv.Itoa(len(view.Columns) + 1))
		b.WriteString(`">No rows</td></tr>`)
	}
	b.WriteString(`</tbody></table>`)

	fmt.Fprintf(&b, `<p class="formkit-table-summary">%d selected</p>`, view.SelectedCount)
	if n := len(view.Stale); n > 0 {
		fmt.Fprintf(&b, `<p class="formkit-table-stale">%d selected row(s) are no longer available</p>`, n)
	}
	b.WriteString(`</div>`)
	buf.WriteString(b.String())
	return nil
}
