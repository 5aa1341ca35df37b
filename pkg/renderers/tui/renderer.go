package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/shulp2211/seqr-formkit/pkg/model"
	"github.com/shulp2211/seqr-formkit/pkg/render"
)

// Renderer draws pages as terminal text and drives interactive edits
// through a PromptDriver.
type Renderer struct {
	driver PromptDriver
	out    io.Writer
	theme  Theme
	logger *slog.Logger
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs a TUI renderer with defaults (survey driver, default theme).
func New(options ...Option) *Renderer {
	r := &Renderer{
		theme:  DefaultTheme(),
		logger: slog.Default(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}
	if r.driver == nil {
		r.driver = NewSurveyDriver(r.out)
	}
	return r
}

// Name reports the renderer identifier.
func (r *Renderer) Name() string {
	return "tui"
}

// ContentType reports the serialization format used by Render.
func (r *Renderer) ContentType() string {
	return "text/plain; charset=utf-8"
}

// Render draws the page: the read-only view, or the open form with its
// field values and visible errors.
func (r *Renderer) Render(ctx context.Context, page render.Page, _ render.RenderOptions) ([]byte, error) {
	if ctx == nil {
		return nil, errors.New("tui: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var blocks []string
	if page.Title != "" {
		blocks = append(blocks, r.theme.Title.Render(page.Title))
	}
	if page.Subtitle != "" {
		blocks = append(blocks, r.theme.Subtitle.Render(page.Subtitle))
	}
	if page.ErrorPanel != "" {
		blocks = append(blocks, r.theme.Panel.BorderForeground(lipgloss.Color("9")).Render(r.theme.Error.Render(page.ErrorPanel)))
	}

	if page.Editing() {
		blocks = append(blocks, r.renderForm(page)...)
	} else {
		blocks = append(blocks, r.renderDisplay(page.Display)...)
	}
	return []byte(lipgloss.JoinVertical(lipgloss.Left, blocks...) + "\n"), nil
}

func (r *Renderer) renderDisplay(display model.Display) []string {
	var blocks []string
	if display.Title != "" {
		blocks = append(blocks, r.theme.Label.Render(display.Title))
	}
	if len(display.Badges) > 0 {
		badges := make([]string, 0, len(display.Badges))
		for _, badge := range display.Badges {
			style := r.theme.Badge
			if color, ok := r.theme.BadgeColors[badge.Color]; ok {
				style = style.Foreground(color)
			}
			badges = append(badges, style.Render("["+badge.Text+"]"))
		}
		blocks = append(blocks, lipgloss.JoinHorizontal(lipgloss.Top, badges...))
	}
	if display.Empty {
		blocks = append(blocks, r.theme.Muted.Render("Nothing recorded yet"))
	}
	for _, line := range display.Lines {
		if line.Label == "" {
			blocks = append(blocks, line.Value)
			continue
		}
		blocks = append(blocks, r.theme.Label.Render(line.Label+":")+" "+line.Value)
	}
	if display.Table != nil {
		blocks = append(blocks, renderTable(*display.Table, false))
	}
	return blocks
}

func (r *Renderer) renderForm(page render.Page) []string {
	var blocks []string
	for _, msg := range page.FormErrors {
		blocks = append(blocks, r.theme.Error.Render("! "+msg))
	}
	for _, section := range page.Sections {
		var lines []string
		if section.Title != "" {
			lines = append(lines, r.theme.Title.Render(section.Title))
		}
		for _, field := range section.Fields {
			lines = append(lines, r.renderField(field)...)
		}
		blocks = append(blocks, r.theme.Panel.Render(strings.Join(lines, "\n")))
	}
	if page.Pending {
		blocks = append(blocks, r.theme.Muted.Render("Submitting..."))
	}
	return blocks
}

func (r *Renderer) renderField(field render.Field) []string {
	indent := strings.Repeat("  ", field.Depth)
	label := field.Label
	if field.Required {
		label += " *"
	}

	var lines []string
	switch field.Kind {
	case model.KindGroup:
		lines = append(lines, indent+r.theme.Label.Render(label))
	case model.KindCheckbox:
		mark := "[ ]"
		if field.Checked {
			mark = "[x]"
		}
		lines = append(lines, indent+mark+" "+label)
	case model.KindSelectionTable:
		lines = append(lines, indent+r.theme.Label.Render(label))
		if field.Table != nil {
			lines = append(lines, renderTable(*field.Table, true))
			if n := len(field.Table.Stale); n > 0 {
				lines = append(lines, r.theme.Muted.Render(pluralRows(n)+" no longer available"))
			}
		}
	default:
		lines = append(lines, indent+r.theme.Label.Render(label+":")+" "+field.Text)
	}
	for _, msg := range field.Errors {
		lines = append(lines, indent+r.theme.Error.Render("  "+msg))
	}
	return lines
}

// renderTable draws a table view. With selectable set, a leading column
// marks selected rows.
func renderTable(view model.TableView, selectable bool) string {
	headers := make([]string, 0, len(view.Columns)+1)
	if selectable {
		headers = append(headers, "")
	}
	for _, column := range view.Columns {
		headers = append(headers, column.Header)
	}

	rows := make([][]string, 0, len(view.Rows))
	for _, row := range view.Rows {
		cells := make([]string, 0, len(row.Cells)+1)
		if selectable {
			if row.Selected {
				cells = append(cells, "x")
			} else {
				cells = append(cells, " ")
			}
		}
		cells = append(cells, row.Cells...)
		rows = append(rows, cells)
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		String()
}

func pluralRows(n int) string {
	if n == 1 {
		return "1 selected row is"
	}
	return fmt.Sprintf("%d selected rows are", n)
}
