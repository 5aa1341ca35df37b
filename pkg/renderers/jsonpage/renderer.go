// Package jsonpage renders a page as a JSON document so a client bundle can
// hydrate the edit form without scraping HTML.
package jsonpage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	theme "github.com/goliatone/go-theme"

	"github.com/shulp2211/seqr-formkit/pkg/render"
)

const themeAssetStylesheet = "stylesheet"

// Option customises the renderer.
type Option func(*Renderer)

// WithIndent pretty-prints the document with the given indent string.
func WithIndent(indent string) Option {
	return func(r *Renderer) {
		r.indent = indent
	}
}

// Renderer implements render.Renderer.
type Renderer struct {
	indent string
}

// New builds a JSON renderer.
func New(options ...Option) *Renderer {
	r := &Renderer{}
	for _, opt := range options {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Name identifies the renderer inside the registry.
func (r *Renderer) Name() string {
	return "json"
}

// ContentType returns the MIME type for generated documents.
func (r *Renderer) ContentType() string {
	return "application/json; charset=utf-8"
}

// Document is the wire shape: the page plus the resolved theme.
type Document struct {
	Page  render.Page    `json:"page"`
	Theme *rendererTheme `json:"theme,omitempty"`
}

type rendererTheme struct {
	Name       string            `json:"name,omitempty"`
	Variant    string            `json:"variant,omitempty"`
	Tokens     map[string]string `json:"tokens,omitempty"`
	CSSVars    map[string]string `json:"cssVars,omitempty"`
	Stylesheet string            `json:"stylesheet,omitempty"`
}

// Render encodes page and the theme carried by opts.
func (r *Renderer) Render(_ context.Context, page render.Page, opts render.RenderOptions) ([]byte, error) {
	doc := Document{Page: page, Theme: buildThemeContext(opts.Theme)}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if r.indent != "" {
		enc.SetIndent("", r.indent)
	}
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("jsonpage: marshal page %s: %w", page.Record, err)
	}
	return buf.Bytes(), nil
}

func buildThemeContext(cfg *theme.RendererConfig) *rendererTheme {
	if cfg == nil {
		return nil
	}
	out := &rendererTheme{
		Name:    cfg.Theme,
		Variant: cfg.Variant,
		Tokens:  copyStringMap(cfg.Tokens),
		CSSVars: copyStringMap(cfg.CSSVars),
	}
	if cfg.AssetURL != nil {
		out.Stylesheet = cfg.AssetURL(themeAssetStylesheet)
	}
	return out
}

func copyStringMap(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}
