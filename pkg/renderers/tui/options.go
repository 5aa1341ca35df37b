package tui

import (
	"io"
	"log/slog"

	"github.com/charmbracelet/lipgloss"
)

// Theme holds the lipgloss styles used for panels and prompts.
type Theme struct {
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Label    lipgloss.Style
	Muted    lipgloss.Style
	Error    lipgloss.Style
	Panel    lipgloss.Style
	Badge    lipgloss.Style
	// BadgeColors maps display badge colors to terminal colors.
	BadgeColors map[string]lipgloss.Color
}

// DefaultTheme returns the styles used when no theme is supplied.
func DefaultTheme() Theme {
	return Theme{
		Title:    lipgloss.NewStyle().Bold(true),
		Subtitle: lipgloss.NewStyle().Faint(true),
		Label:    lipgloss.NewStyle().Bold(true),
		Muted:    lipgloss.NewStyle().Faint(true),
		Error:    lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		Panel:    lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1),
		Badge:    lipgloss.NewStyle().Padding(0, 1),
		BadgeColors: map[string]lipgloss.Color{
			"green":  lipgloss.Color("2"),
			"orange": lipgloss.Color("208"),
			"red":    lipgloss.Color("1"),
			"grey":   lipgloss.Color("8"),
		},
	}
}

// Option configures the TUI renderer.
type Option func(*Renderer)

// WithPromptDriver overrides the prompt driver used by the editor.
func WithPromptDriver(driver PromptDriver) Option {
	return func(r *Renderer) {
		if driver != nil {
			r.driver = driver
		}
	}
}

// WithOutput sets where Info lines go when the default survey driver is used.
func WithOutput(out io.Writer) Option {
	return func(r *Renderer) {
		r.out = out
	}
}

// WithTheme replaces the default lipgloss styles.
func WithTheme(theme Theme) Option {
	return func(r *Renderer) {
		r.theme = theme
	}
}

// WithLogger routes editor diagnostics to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}
