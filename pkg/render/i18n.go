package render

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingTranslator is passed to MissingTranslationHandler when a key is
// configured but no Translator was supplied.
var ErrMissingTranslator = errors.New("render: translator not configured")

// Translator resolves message keys for a locale.
type Translator interface {
	Translate(locale, key string, args ...any) (string, error)
}

// MissingTranslationHandler chooses the text shown when a key cannot be
// translated. args carries {"default": fallback} as its first element.
type MissingTranslationHandler func(locale, key string, args []any, err error) string

const (
	formTitleKey    = "layout.titleKey"
	formSubtitleKey = "layout.subtitleKey"
	sectionKeyFmt   = "section.%s.titleKey"

	fieldLabelKey       = "labelKey"
	fieldHelpKey        = "helpKey"
	fieldPlaceholderKey = "placeholderKey"
)

// LocalizePage translates the page title, section titles and field text that
// carry *Key metadata. Pages without keys are left untouched.
func LocalizePage(page *Page, opts RenderOptions) {
	if page == nil {
		return
	}
	onMissing := opts.OnMissing
	if onMissing == nil {
		onMissing = missingTranslationDefault
	}
	tr := func(key, fallback string) string {
		return translate(opts.Locale, key, fallback, opts.Translator, onMissing)
	}

	if key := page.Metadata[formTitleKey]; key != "" {
		page.Title = tr(key, page.Title)
	}
	if key := page.Metadata[formSubtitleKey]; key != "" {
		page.Subtitle = tr(key, page.Subtitle)
	}
	for i := range page.Sections {
		section := &page.Sections[i]
		if key := page.Metadata[fmt.Sprintf(sectionKeyFmt, section.ID)]; key != "" {
			section.Title = tr(key, section.Title)
		}
		for j := range section.Fields {
			localizeField(&section.Fields[j], tr)
		}
	}
	for i := range page.Fields {
		localizeField(&page.Fields[i], tr)
	}
}

func localizeField(field *Field, tr func(key, fallback string) string) {
	if key := field.Metadata[fieldLabelKey]; key != "" {
		field.Label = tr(key, field.Label)
	}
	if key := field.Metadata[fieldHelpKey]; key != "" {
		field.Help = tr(key, field.Help)
	}
	if key := field.Metadata[fieldPlaceholderKey]; key != "" {
		field.Placeholder = tr(key, field.Placeholder)
	}
}

func translate(locale, key, fallback string, t Translator, onMissing MissingTranslationHandler) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return fallback
	}
	args := []any{map[string]any{"default": fallback}}
	if t == nil {
		return onMissing(locale, key, args, ErrMissingTranslator)
	}
	result, err := t.Translate(locale, key)
	if err == nil && strings.TrimSpace(result) != "" {
		return result
	}
	return onMissing(locale, key, args, err)
}

func missingTranslationDefault(_ string, key string, args []any, _ error) string {
	if len(args) > 0 {
		if params, ok := args[0].(map[string]any); ok {
			if fallback, ok := params["default"].(string); ok && strings.TrimSpace(fallback) != "" {
				return fallback
			}
		}
	}
	return key
}
