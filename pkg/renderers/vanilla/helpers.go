package vanilla

import (
	"strings"

	"github.com/shulp2211/seqr-formkit/pkg/model"
)

func componentControlID(name string) string {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return ""
	}
	return "fk-" + strings.ReplaceAll(trimmed, ".", "-")
}

func sanitizeClassList(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	tokens := strings.Fields(value)
	keep := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if strings.HasPrefix(token, "formkit-") {
			continue
		}
		keep = append(keep, token)
	}
	return strings.Join(keep, " ")
}

// labelSupportsFor reports whether the control is a single labelable element.
func labelSupportsFor(kind model.Kind) bool {
	switch kind {
	case model.KindSelectionTable, model.KindGroup, model.KindCheckbox:
		return false
	default:
		return true
	}
}

// componentHandlesChrome is true for kinds whose component draws its own label.
func componentHandlesChrome(kind model.Kind) bool {
	switch kind {
	case model.KindGroup, model.KindCheckbox:
		return true
	default:
		return false
	}
}
