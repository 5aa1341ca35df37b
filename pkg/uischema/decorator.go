package uischema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shulp2211/seqr-formkit/pkg/model"
	"github.com/shulp2211/seqr-formkit/pkg/widgets"
)

const (
	metadataIcon       = "icon"
	metadataSubtitle   = "layout.subtitle"
	metadataSectionFmt = "section.%s.title"
)

// Decorator applies overlays to forms by id.
type Decorator struct {
	store *Store
}

// NewDecorator builds a Decorator backed by store. A nil or empty store makes
// the decorator a no-op.
func NewDecorator(store *Store) *Decorator {
	return &Decorator{store: store}
}

// Decorate implements model.Decorator. Forms without an overlay are left
// untouched; overlay keys that match no descriptor are an error so typos in
// the YAML surface early.
func (d *Decorator) Decorate(form *model.Form) error {
	if d == nil || d.store.Empty() || form == nil {
		return nil
	}
	overlay, ok := d.store.Overlay(form.ID)
	if !ok {
		return nil
	}

	applyFormConfig(form, overlay)

	known := make(map[string]struct{})
	for _, name := range form.Descriptors.Names() {
		known[name] = struct{}{}
	}
	for path := range overlay.Fields {
		if _, ok := known[path]; !ok {
			return fmt.Errorf("uischema: form %q (file %s) configures unknown field %q", overlay.ID, overlay.Source, overlay.Fields[path].RawPath)
		}
	}

	sectionOrder := sectionRanks(overlay.Sections)
	form.Descriptors = applyFields(form.Descriptors, "", overlay, sectionOrder)
	return nil
}

func applyFormConfig(form *model.Form, overlay Overlay) {
	if overlay.Form.Title != "" {
		form.Title = overlay.Form.Title
	}
	form.Metadata = mergeStrings(form.Metadata, overlay.Form.Metadata)
	if overlay.Form.Subtitle != "" {
		form.Metadata = mergeStrings(form.Metadata, map[string]string{metadataSubtitle: overlay.Form.Subtitle})
	}
	for _, section := range overlay.Sections {
		if section.Title != "" {
			form.Metadata = mergeStrings(form.Metadata, map[string]string{fmt.Sprintf(metadataSectionFmt, section.ID): section.Title})
		}
	}
}

func applyFields(list []model.FieldDescriptor, prefix string, overlay Overlay, sectionOrder map[string]int) []model.FieldDescriptor {
	out := make([]model.FieldDescriptor, len(list))
	for idx, desc := range list {
		path := desc.Name
		if prefix != "" {
			path = prefix + "." + desc.Name
		}
		if cfg, ok := overlay.Fields[path]; ok {
			desc = applyField(desc, cfg)
		}
		if len(desc.Nested) > 0 {
			desc.Nested = applyFields(desc.Nested, path, overlay, sectionOrder)
		}
		out[idx] = desc
	}

	sort.SliceStable(out, func(i, j int) bool {
		si, sj := rank(sectionOrder, out[i].Layout.Section), rank(sectionOrder, out[j].Layout.Section)
		if si != sj {
			return si < sj
		}
		return out[i].Layout.Order < out[j].Layout.Order
	})
	return out
}

func applyField(desc model.FieldDescriptor, cfg FieldConfig) model.FieldDescriptor {
	if cfg.Label != "" {
		desc.Label = cfg.Label
	}
	if help := sanitizeHelp(cfg.Help); help != "" {
		desc.Help = help
	}
	if cfg.Placeholder != "" {
		desc.Placeholder = cfg.Placeholder
	}
	if cfg.Section != "" {
		desc.Layout.Section = cfg.Section
	}
	if cfg.Order != nil {
		desc.Layout.Order = *cfg.Order
	}
	if cfg.Width > 0 {
		desc.Layout.Width = cfg.Width
	}
	if cfg.Rows > 0 {
		desc.Layout.Rows = cfg.Rows
	}
	if cfg.Inline != nil {
		desc.Layout.Inline = *cfg.Inline
	}
	if cfg.InputType != "" {
		desc.Layout.InputType = cfg.InputType
	}

	desc.Metadata = mergeStrings(desc.Metadata, cfg.Metadata)
	if kind := strings.TrimSpace(cfg.Kind); kind != "" && desc.Kind == "" {
		desc.Metadata = mergeStrings(desc.Metadata, map[string]string{widgets.MetadataKind: kind})
	}
	if icon := sanitizeIcon(cfg.Icon); icon != "" {
		desc.Metadata = mergeStrings(desc.Metadata, map[string]string{metadataIcon: icon})
	}
	return desc
}

// sectionRanks orders sections by explicit order, then declaration order.
// Fields outside any section sort first.
func sectionRanks(sections []SectionConfig) map[string]int {
	type ranked struct {
		id    string
		order int
	}
	list := make([]ranked, 0, len(sections))
	for idx, section := range sections {
		order := idx
		if section.Order != nil {
			order = *section.Order
		}
		list = append(list, ranked{id: section.ID, order: order})
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].order < list[j].order })

	out := make(map[string]int, len(list))
	for idx, entry := range list {
		out[entry.id] = idx + 1
	}
	return out
}

func rank(order map[string]int, section string) int {
	if section == "" {
		return 0
	}
	return order[section]
}

func mergeStrings(base, overlay map[string]string) map[string]string {
	if len(overlay) == 0 {
		return base
	}
	out := make(map[string]string, len(base)+len(overlay))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range overlay {
		out[k] = v
	}
	return out
}
