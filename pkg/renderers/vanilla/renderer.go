package vanilla

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/shulp2211/seqr-formkit/pkg/render"
	rendertemplate "github.com/shulp2211/seqr-formkit/pkg/render/template"
	gotemplate "github.com/shulp2211/seqr-formkit/pkg/render/template/gotemplate"
	"github.com/shulp2211/seqr-formkit/pkg/renderers/vanilla/components"
)

const (
	pageTemplate    = "templates/page.tmpl"
	formTemplate    = "templates/form.tmpl"
	displayTemplate = "templates/display.tmpl"

	partialPage    = "page"
	partialForm    = "form"
	partialDisplay = "display"
)

type Option func(*config)

type config struct {
	templateFS       fs.FS
	templateRenderer rendertemplate.TemplateRenderer
	components       *components.Registry
	classes          ChromeClasses
	inlineStyles     bool
}

// WithTemplatesFS supplies an alternate template bundle via fs.FS.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templateFS = files
	}
}

// WithTemplatesDir loads templates from a directory on disk.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		if path == "" {
			return
		}
		cfg.templateFS = os.DirFS(path)
	}
}

// WithTemplateRenderer injects a custom template renderer implementation.
func WithTemplateRenderer(renderer rendertemplate.TemplateRenderer) Option {
	return func(cfg *config) {
		if renderer != nil {
			cfg.templateRenderer = renderer
		}
	}
}

// WithComponents replaces the component registry used for field controls.
func WithComponents(registry *components.Registry) Option {
	return func(cfg *config) {
		if registry != nil {
			cfg.components = registry
		}
	}
}

// WithChromeClasses appends extra classes to the chrome elements.
func WithChromeClasses(classes ChromeClasses) Option {
	return func(cfg *config) {
		cfg.classes = classes
	}
}

// WithInlineStyles embeds the bundled stylesheet in the page output.
func WithInlineStyles(enabled bool) Option {
	return func(cfg *config) {
		cfg.inlineStyles = enabled
	}
}

type Renderer struct {
	templates    rendertemplate.TemplateRenderer
	components   *components.Registry
	classes      ChromeClasses
	inlineStyles bool
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs the vanilla renderer applying any provided options.
func New(options ...Option) (*Renderer, error) {
	cfg := config{templateFS: TemplatesFS()}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	if cfg.templateFS == nil {
		cfg.templateFS = TemplatesFS()
	}

	renderer := cfg.templateRenderer
	if renderer == nil {
		engine, err := gotemplate.New(
			gotemplate.WithFS(cfg.templateFS),
			gotemplate.WithExtension(".tmpl"),
		)
		if err != nil {
			return nil, fmt.Errorf("vanilla renderer: configure template renderer: %w", err)
		}
		renderer = engine
	}

	registry := cfg.components
	if registry == nil {
		registry = components.NewDefaultRegistry()
	}

	return &Renderer{
		templates:    renderer,
		components:   registry,
		classes:      cfg.classes.withDefaults(),
		inlineStyles: cfg.inlineStyles,
	}, nil
}

func (r *Renderer) Name() string {
	return "vanilla"
}

func (r *Renderer) ContentType() string {
	return "text/html; charset=utf-8"
}

type sectionMarkup struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	HTML  string `json:"html"`
}

// Render writes the read-only view, or the open form while editing, inside
// the page chrome.
func (r *Renderer) Render(_ context.Context, page render.Page, options render.RenderOptions) ([]byte, error) {
	if r.templates == nil {
		return nil, fmt.Errorf("vanilla renderer: template renderer is nil")
	}

	var (
		partials map[string]string
		style    string
		assetURL func(string) string
	)
	if cfg := options.Theme; cfg != nil {
		partials = cfg.Partials
		style = render.CSSVarsStyle(cfg.CSSVars)
		assetURL = cfg.AssetURL
	}

	fields := newComponentRenderer(r.templates, r.components, partials)

	var (
		body string
		err  error
	)
	if page.Editing() {
		sections := make([]sectionMarkup, 0, len(page.Sections))
		for _, section := range page.Sections {
			var markup strings.Builder
			for _, field := range section.Fields {
				rendered, err := fields.render(field)
				if err != nil {
					return nil, fmt.Errorf("vanilla renderer: %w", err)
				}
				markup.WriteString(rendered)
			}
			sections = append(sections, sectionMarkup{ID: section.ID, Title: section.Title, HTML: markup.String()})
		}
		body, err = r.templates.RenderTemplate(resolvePartial(partials, partialForm, formTemplate), map[string]any{
			"page":     page,
			"sections": sections,
			"classes":  r.classes,
		})
	} else {
		body, err = r.templates.RenderTemplate(resolvePartial(partials, partialDisplay, displayTemplate), map[string]any{
			"page":    page,
			"table":   buildDisplayTable(page.Display.Table),
			"classes": r.classes,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("vanilla renderer: render body: %w", err)
	}

	stylesheets, scripts := fields.assets()
	if assetURL != nil {
		if href := assetURL("stylesheet"); href != "" {
			stylesheets = append(stylesheets, href)
		}
	}
	inline := ""
	if r.inlineStyles {
		inline = defaultStylesheet()
	}

	result, err := r.templates.RenderTemplate(resolvePartial(partials, partialPage, pageTemplate), map[string]any{
		"page":        page,
		"body":        body,
		"classes":     r.classes,
		"style":       style,
		"stylesheets": stylesheets,
		"scripts":     scriptPayload(scripts),
		"inlineStyle": inline,
	})
	if err != nil {
		return nil, fmt.Errorf("vanilla renderer: render template: %w", err)
	}
	return []byte(result), nil
}

func resolvePartial(partials map[string]string, key, fallback string) string {
	if partials != nil {
		if candidate := strings.TrimSpace(partials[key]); candidate != "" {
			return candidate
		}
	}
	return fallback
}

func scriptPayload(scripts []components.Script) []map[string]any {
	out := make([]map[string]any, 0, len(scripts))
	for _, script := range scripts {
		out = append(out, map[string]any{
			"src":    script.Src,
			"inline": script.Inline,
			"defer":  script.Defer,
			"module": script.Module,
		})
	}
	return out
}
