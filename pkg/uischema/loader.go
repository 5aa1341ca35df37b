package uischema

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadFS walks fsys and parses every JSON/YAML overlay file. A nil fsys or
// one without overlay files yields an empty store.
func LoadFS(fsys fs.FS) (*Store, error) {
	store := &Store{forms: make(map[string]Overlay)}
	if fsys == nil {
		return store, nil
	}

	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isSchemaFile(path) {
			return nil
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("uischema: read %s: %w", path, err)
		}
		doc, err := parseDocument(data, path)
		if err != nil {
			return err
		}

		for formID, raw := range doc.Forms {
			id := strings.TrimSpace(formID)
			if id == "" {
				return fmt.Errorf("uischema: file %s defines an empty form id", path)
			}
			if _, exists := store.forms[id]; exists {
				return fmt.Errorf("uischema: duplicate form %q (file %s)", id, path)
			}
			overlay, err := normaliseOverlay(raw, id, path)
			if err != nil {
				return err
			}
			store.forms[id] = overlay
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return store, nil
}

// Overlay returns the overrides for a form id.
func (s *Store) Overlay(id string) (Overlay, bool) {
	if s == nil {
		return Overlay{}, false
	}
	overlay, ok := s.forms[id]
	return overlay, ok
}

// Empty reports whether the store holds any overlays.
func (s *Store) Empty() bool {
	return s == nil || len(s.forms) == 0
}

type documentFile struct {
	Forms map[string]overlayFile `json:"forms" yaml:"forms"`
}

type overlayFile struct {
	Form     FormConfig             `json:"form" yaml:"form"`
	Sections []SectionConfig        `json:"sections" yaml:"sections"`
	Fields   map[string]FieldConfig `json:"fields" yaml:"fields"`
}

func parseDocument(data []byte, source string) (documentFile, error) {
	var doc documentFile
	if len(strings.TrimSpace(string(data))) == 0 {
		return documentFile{}, fmt.Errorf("uischema: file %s is empty", source)
	}
	if strings.EqualFold(filepath.Ext(source), ".json") {
		if err := json.Unmarshal(data, &doc); err != nil {
			return documentFile{}, fmt.Errorf("uischema: parse %s: %w", source, err)
		}
		return doc, nil
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return documentFile{}, fmt.Errorf("uischema: parse %s: %w", source, err)
	}
	return doc, nil
}

func normaliseOverlay(raw overlayFile, id, source string) (Overlay, error) {
	overlay := Overlay{
		ID:       id,
		Source:   source,
		Form:     raw.Form,
		Sections: append([]SectionConfig(nil), raw.Sections...),
		Fields:   make(map[string]FieldConfig, len(raw.Fields)),
	}

	seenSections := make(map[string]struct{}, len(raw.Sections))
	for _, section := range raw.Sections {
		sid := strings.TrimSpace(section.ID)
		if sid == "" {
			return Overlay{}, fmt.Errorf("uischema: form %q (file %s) defines a section without id", id, source)
		}
		if _, exists := seenSections[sid]; exists {
			return Overlay{}, fmt.Errorf("uischema: form %q (file %s) defines duplicate section %q", id, source, sid)
		}
		seenSections[sid] = struct{}{}
	}

	for key, cfg := range raw.Fields {
		path := NormalizeFieldPath(key)
		if path == "" {
			return Overlay{}, fmt.Errorf("uischema: form %q (file %s) field key %q normalises to an empty path", id, source, key)
		}
		if _, exists := overlay.Fields[path]; exists {
			return Overlay{}, fmt.Errorf("uischema: form %q (file %s) defines field %q twice", id, source, path)
		}
		if cfg.Section != "" {
			if _, ok := seenSections[cfg.Section]; !ok {
				return Overlay{}, fmt.Errorf("uischema: form %q (file %s) field %q references unknown section %q", id, source, path, cfg.Section)
			}
		}
		if len(cfg.Metadata) > 0 {
			meta := make(map[string]string, len(cfg.Metadata))
			for k, v := range cfg.Metadata {
				meta[k] = v
			}
			cfg.Metadata = meta
		}
		cfg.RawPath = key
		overlay.Fields[path] = cfg
	}
	return overlay, nil
}

func isSchemaFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}
