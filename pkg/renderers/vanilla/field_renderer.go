package vanilla

import (
	"bytes"
	"fmt"
	"html"
	"slices"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/shulp2211/seqr-formkit/pkg/model"
	"github.com/shulp2211/seqr-formkit/pkg/render"
	"github.com/shulp2211/seqr-formkit/pkg/render/template"
	"github.com/shulp2211/seqr-formkit/pkg/renderers/vanilla/components"
)

var helpPolicy = bluemonday.UGCPolicy()

type componentRenderer struct {
	templates template.TemplateRenderer
	registry  *components.Registry
	partials  map[string]string

	usedComponents map[model.Kind]struct{}
}

func newComponentRenderer(templates template.TemplateRenderer, registry *components.Registry, partials map[string]string) *componentRenderer {
	if registry == nil {
		registry = components.NewDefaultRegistry()
	}
	return &componentRenderer{
		templates:      templates,
		registry:       registry,
		partials:       partials,
		usedComponents: make(map[model.Kind]struct{}),
	}
}

func (r *componentRenderer) render(field render.Field) (string, error) {
	kind := field.Kind
	if kind == "" {
		kind = model.KindText
	}

	descriptor, ok := r.registry.Descriptor(kind)
	if !ok {
		return "", fmt.Errorf("component %q not registered for field %q", kind, field.Name)
	}

	data := components.ComponentData{
		Template:      r.templates,
		ThemePartials: r.partials,
		ControlID:     componentControlID(field.Name),
	}

	var control bytes.Buffer
	if err := descriptor.Renderer(&control, field, data); err != nil {
		return "", fmt.Errorf("render component %q for field %q: %w", kind, field.Name, err)
	}

	r.usedComponents[kind] = struct{}{}

	return buildFieldMarkup(field, control.String()), nil
}

func (r *componentRenderer) assets() (stylesheets []string, scripts []components.Script) {
	if r.registry == nil || len(r.usedComponents) == 0 {
		return nil, nil
	}
	kinds := make([]model.Kind, 0, len(r.usedComponents))
	for kind := range r.usedComponents {
		kinds = append(kinds, kind)
	}
	slices.Sort(kinds)
	return r.registry.Assets(kinds)
}

func buildFieldMarkup(field render.Field, control string) string {
	var builder strings.Builder
	builder.Grow(len(control) + 256)

	builder.WriteString(`<div class="`)
	builder.WriteString(string(ClassField))
	if field.Layout.Inline {
		builder.WriteString(` is-inline`)
	}
	if len(field.Errors) > 0 {
		builder.WriteString(` has-error`)
	}
	builder.WriteString(`" data-field="`)
	builder.WriteString(html.EscapeString(field.Name))
	builder.WriteString(`" data-kind="`)
	builder.WriteString(html.EscapeString(string(field.Kind)))
	builder.WriteString(`"`)
	if field.Layout.Width > 0 {
		builder.WriteString(` data-width="`)
		builder.WriteString(strconv.Itoa(field.Layout.Width))
		builder.WriteString(`"`)
	}
	if field.Depth > 0 {
		builder.WriteString(` data-depth="`)
		builder.WriteString(strconv.Itoa(field.Depth))
		builder.WriteString(`"`)
	}
	if icon := field.Metadata["icon"]; icon != "" {
		builder.WriteString(` data-icon="`)
		builder.WriteString(html.EscapeString(icon))
		builder.WriteString(`"`)
	}
	builder.WriteString(">\n")

	if shouldRenderLabel(field) {
		if labelSupportsFor(field.Kind) {
			builder.WriteString(`    <label for="`)
			builder.WriteString(html.EscapeString(componentControlID(field.Name)))
			builder.WriteString(`">`)
		} else {
			builder.WriteString(`    <label>`)
		}
		builder.WriteString(html.EscapeString(field.Label))
		if field.Required {
			builder.WriteString(` *`)
		}
		builder.WriteString("</label>\n")
	}

	for _, line := range strings.Split(control, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		builder.WriteString("    ")
		builder.WriteString(line)
		builder.WriteByte('\n')
	}

	if help := strings.TrimSpace(helpPolicy.Sanitize(field.Help)); help != "" {
		builder.WriteString(`    <small class="formkit-help">`)
		builder.WriteString(help)
		builder.WriteString("</small>\n")
	}

	for _, msg := range field.Errors {
		builder.WriteString(`    <p class="formkit-field-error" role="alert">`)
		builder.WriteString(html.EscapeString(msg))
		builder.WriteString("</p>\n")
	}

	builder.WriteString("</div>\n")
	return builder.String()
}

func shouldRenderLabel(field render.Field) bool {
	if componentHandlesChrome(field.Kind) {
		return false
	}
	if strings.TrimSpace(field.Label) == "" {
		return false
	}
	return strings.TrimSpace(field.Metadata["hideLabel"]) != "true"
}

// buildDisplayTable renders a read-only table view.
func buildDisplayTable(view *model.TableView) string {
	if view == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(`<table class="formkit-display-table"><thead><tr>`)
	for _, column := range view.Columns {
		b.WriteString(`<th scope="col">`)
		b.WriteString(html.EscapeString(column.Header))
		b.WriteString(`</th>`)
	}
	b.WriteString(`</tr></thead><tbody>`)
	for _, row := range view.Rows {
		b.WriteString(`<tr data-id="`)
		b.WriteString(html.EscapeString(row.ID))
		b.WriteString(`">`)
		for _, cell := range row.Cells {
			b.WriteString(`<td>`)
			b.WriteString(html.EscapeString(cell))
			b.WriteString(`</td>`)
		}
		b.WriteString(`</tr>`)
	}
	b.WriteString(`</tbody></table>`)
	return b.String()
}
