package render

import (
	theme "github.com/goliatone/go-theme"

	"github.com/shulp2211/seqr-formkit/pkg/model"
	"github.com/shulp2211/seqr-formkit/pkg/widgets"
)

// RenderOptions describe per-request data that renderers can use to customise
// their output without mutating the controller.
type RenderOptions struct {
	// Queries holds presentation-only table state keyed by field path.
	Queries map[string]model.TableQuery
	// Widgets resolves kinds for descriptors that leave Kind empty. Nil uses
	// the built-in registry.
	Widgets *widgets.Registry
	// Action is the URL edit forms post to.
	Action string
	// Hidden adds inputs carried alongside the visible fields, such as the
	// owning record identifier or a CSRF token.
	Hidden []HiddenField
	// Locale and Translator localise labels that carry *Key metadata.
	Locale     string
	Translator Translator
	OnMissing  MissingTranslationHandler
	// Theme carries resolved go-theme tokens and partial overrides.
	Theme *theme.RendererConfig
}

func (o RenderOptions) query(name string) model.TableQuery {
	if o.Queries == nil {
		return model.TableQuery{}
	}
	return o.Queries[name]
}
