package components

import (
	"bytes"
	"fmt"
	"slices"
	"sync"

	"github.com/hashicorp/go-set/v2"

	"github.com/shulp2211/seqr-formkit/pkg/model"
	"github.com/shulp2211/seqr-formkit/pkg/render"
	rendertemplate "github.com/shulp2211/seqr-formkit/pkg/render/template"
)

// Renderer writes the control markup for one field into buf.
type Renderer func(buf *bytes.Buffer, field render.Field, data ComponentData) error

// ComponentData carries what a Renderer may need besides the field.
type ComponentData struct {
	Template rendertemplate.TemplateRenderer
	// ThemePartials maps partial keys ("forms.input") to template overrides.
	ThemePartials map[string]string
	// ControlID is the element id the field label points at.
	ControlID string
}

// Script is emitted once per page when any field of its kind renders.
type Script struct {
	Src    string
	Inline string
	Defer  bool
	Module bool
}

func (s Script) key() string {
	if s.Src != "" {
		return "src:" + s.Src
	}
	return "inline:" + s.Inline
}

// Descriptor is a kind's renderer plus the assets it depends on.
type Descriptor struct {
	Kind        model.Kind
	Renderer    Renderer
	Stylesheets []string
	Scripts     []Script
}

func (d Descriptor) clone() Descriptor {
	d.Stylesheets = slices.Clone(d.Stylesheets)
	d.Scripts = slices.Clone(d.Scripts)
	return d
}

// Registry maps field kinds to component descriptors. Registering a kind
// twice replaces the earlier entry.
type Registry struct {
	mu         sync.RWMutex
	components map[model.Kind]Descriptor
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{components: make(map[model.Kind]Descriptor)}
}

// Register installs descriptor for kind.
func (r *Registry) Register(kind model.Kind, descriptor Descriptor) error {
	if kind == "" {
		return fmt.Errorf("components: kind is required")
	}
	if descriptor.Renderer == nil {
		return fmt.Errorf("components: renderer for %q is nil", kind)
	}
	descriptor.Kind = kind

	r.mu.Lock()
	defer r.mu.Unlock()
	r.components[kind] = descriptor.clone()
	return nil
}

// MustRegister panics when Register fails.
func (r *Registry) MustRegister(kind model.Kind, descriptor Descriptor) {
	if err := r.Register(kind, descriptor); err != nil {
		panic(err)
	}
}

// Descriptor returns a copy of the descriptor registered for kind.
func (r *Registry) Descriptor(kind model.Kind) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	descriptor, ok := r.components[kind]
	if !ok {
		return Descriptor{}, false
	}
	return descriptor.clone(), true
}

// Assets collects the stylesheets and scripts of kinds, in order and without
// duplicates.
func (r *Registry) Assets(kinds []model.Kind) (stylesheets []string, scripts []Script) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seenStyles := set.New[string](0)
	seenScripts := set.New[string](0)
	for _, kind := range kinds {
		descriptor, ok := r.components[kind]
		if !ok {
			continue
		}
		for _, href := range descriptor.Stylesheets {
			if href != "" && seenStyles.Insert(href) {
				stylesheets = append(stylesheets, href)
			}
		}
		for _, script := range descriptor.Scripts {
			if seenScripts.Insert(script.key()) {
				scripts = append(scripts, script)
			}
		}
	}
	return stylesheets, scripts
}
