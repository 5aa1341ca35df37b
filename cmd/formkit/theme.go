package main

import (
	theme "github.com/goliatone/go-theme"

	"github.com/shulp2211/seqr-formkit/internal/config"
	"github.com/shulp2211/seqr-formkit/pkg/render"
)

// configSelector serves the one theme described in the CLI config.
type configSelector struct {
	manifest *theme.Manifest
}

func (s configSelector) Select(name, variant string, _ ...theme.QueryOption) (*theme.Selection, error) {
	return &theme.Selection{Theme: name, Variant: variant, Manifest: s.manifest}, nil
}

func resolveTheme(cfg config.ThemeConfig) (*theme.RendererConfig, error) {
	if cfg.Name == "" {
		return nil, nil
	}
	manifest := &theme.Manifest{
		Name:    cfg.Name,
		Version: "local",
		Tokens:  cfg.Tokens,
	}
	if cfg.Stylesheet != "" {
		manifest.Assets = theme.Assets{
			Prefix: cfg.AssetsPath,
			Files:  map[string]string{"stylesheet": cfg.Stylesheet},
		}
	}
	return render.ResolveTheme(configSelector{manifest: manifest}, cfg.Name, cfg.Variant, nil)
}
