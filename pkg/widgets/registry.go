package widgets

import (
	"sort"
	"strings"
	"sync"

	"github.com/shulp2211/seqr-formkit/pkg/model"
)

// MetadataKind lets a descriptor name its kind through metadata, which is how
// ui schema overlays pin a component.
const MetadataKind = "kind"

// Matcher decides whether a kind applies to the supplied descriptor.
type Matcher func(desc model.FieldDescriptor) bool

type rule struct {
	kind     model.Kind
	priority int
	match    Matcher
	order    int
}

// Registry picks a Kind for descriptors that leave it empty. Higher priority
// wins; ties fall back to registration order. Descriptors that match nothing
// resolve to KindText.
type Registry struct {
	mu    sync.RWMutex
	rules []rule
}

// NewRegistry constructs a registry with the built-in matchers registered.
func NewRegistry() *Registry {
	reg := &Registry{}
	reg.registerBuiltins()
	return reg
}

// Register adds a matcher for kind.
func (r *Registry) Register(kind model.Kind, priority int, matcher Matcher) {
	if r == nil || matcher == nil || strings.TrimSpace(string(kind)) == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rules = append(r.rules, rule{
		kind:     kind,
		priority: priority,
		match:    matcher,
		order:    len(r.rules),
	})
}

// Resolve returns the kind for desc. An explicit Kind or metadata hint is
// honoured before matcher evaluation.
func (r *Registry) Resolve(desc model.FieldDescriptor) model.Kind {
	if desc.Kind != "" {
		return desc.Kind
	}
	if hint := strings.TrimSpace(desc.Metadata[MetadataKind]); hint != "" {
		return model.Kind(hint)
	}
	if r == nil {
		return model.KindText
	}
	r.mu.RLock()
	rules := append([]rule(nil), r.rules...)
	r.mu.RUnlock()
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].priority == rules[j].priority {
			return rules[i].order < rules[j].order
		}
		return rules[i].priority > rules[j].priority
	})
	for _, entry := range rules {
		if entry.match(desc) {
			return entry.kind
		}
	}
	return model.KindText
}

// Decorate implements model.Decorator, filling Kind on every descriptor,
// nested ones included.
func (r *Registry) Decorate(form *model.Form) error {
	if form == nil {
		return nil
	}
	form.Descriptors = r.decorate(form.Descriptors)
	return nil
}

func (r *Registry) decorate(list []model.FieldDescriptor) []model.FieldDescriptor {
	if len(list) == 0 {
		return list
	}
	out := make([]model.FieldDescriptor, len(list))
	for idx, desc := range list {
		desc.Kind = r.Resolve(desc)
		if len(desc.Nested) > 0 {
			desc.Nested = r.decorate(desc.Nested)
		}
		out[idx] = desc
	}
	return out
}

func (r *Registry) registerBuiltins() {
	r.Register(model.KindSelectionTable, 100, func(desc model.FieldDescriptor) bool {
		return desc.Table != nil
	})

	r.Register(model.KindGroup, 90, func(desc model.FieldDescriptor) bool {
		return len(desc.Nested) > 0
	})

	r.Register(model.KindMultiSelect, 80, func(desc model.FieldDescriptor) bool {
		return len(desc.Options) > 0 && strings.EqualFold(desc.Metadata["multiple"], "true")
	})

	r.Register(model.KindSelect, 70, func(desc model.FieldDescriptor) bool {
		return len(desc.Options) > 0
	})

	r.Register(model.KindTextArea, 60, func(desc model.FieldDescriptor) bool {
		return desc.Layout.Rows > 1 || strings.EqualFold(desc.Layout.InputType, "textarea")
	})

	r.Register(model.KindCheckbox, 50, func(desc model.FieldDescriptor) bool {
		return strings.EqualFold(desc.Metadata["type"], "boolean")
	})

	r.Register(model.KindInteger, 40, func(desc model.FieldDescriptor) bool {
		if strings.EqualFold(desc.Metadata["type"], "integer") || strings.EqualFold(desc.Layout.InputType, "number") {
			return true
		}
		return desc.HasRule(model.ValidationRuleMin) || desc.HasRule(model.ValidationRuleMax)
	})
}
