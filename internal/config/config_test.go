package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
)

const sampleConfig = `
general:
  log_level: debug
fixture:
  path: testdata/family.yaml
render:
  renderer: vanilla
  record: match-status
  match: M1
server:
  addr: "127.0.0.1:9000"
theme:
  name: seqr
  tokens:
    accent: "#2185d0"
  stylesheet: seqr.css
ui_schema:
  disabled: true
`

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "formkit.yaml")
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Render.Renderer != "tui" || cfg.Render.Record != "submission" {
		t.Fatalf("unexpected render defaults: %+v", cfg.Render)
	}
	if cfg.Server.Addr != ":8080" {
		t.Fatalf("unexpected addr %q", cfg.Server.Addr)
	}
	if cfg.General.Level() != slog.LevelInfo {
		t.Fatalf("unexpected level %v", cfg.General.Level())
	}
}

func TestLoadFile(t *testing.T) {
	fs := pflag.NewFlagSet("formkit", pflag.ContinueOnError)
	RegisterFlags(fs)
	if err := fs.Parse([]string{"--config", writeConfig(t)}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := Load(fs)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.General.Level() != slog.LevelDebug {
		t.Fatalf("expected debug level, got %v", cfg.General.Level())
	}
	if cfg.Fixture.Path != "testdata/family.yaml" {
		t.Fatalf("unexpected fixture path %q", cfg.Fixture.Path)
	}
	if cfg.Render.Renderer != "vanilla" || cfg.Render.Record != "match-status" || cfg.Render.Match != "M1" {
		t.Fatalf("unexpected render config: %+v", cfg.Render)
	}
	if cfg.Theme.Tokens["accent"] != "#2185d0" || cfg.Theme.Stylesheet != "seqr.css" {
		t.Fatalf("unexpected theme config: %+v", cfg.Theme)
	}
	if cfg.Theme.AssetsPath != "/assets/" {
		t.Fatalf("expected default assets path, got %q", cfg.Theme.AssetsPath)
	}
	if !cfg.UISchema.Disabled {
		t.Fatalf("expected ui schema disabled")
	}
}

func TestFlagsOverrideFile(t *testing.T) {
	fs := pflag.NewFlagSet("formkit", pflag.ContinueOnError)
	RegisterFlags(fs)
	args := []string{"--config", writeConfig(t), "--renderer", "tui", "--addr", ":7000"}
	if err := fs.Parse(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := Load(fs)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Render.Renderer != "tui" {
		t.Fatalf("flag should win over file, got %q", cfg.Render.Renderer)
	}
	if cfg.Server.Addr != ":7000" {
		t.Fatalf("flag should win over file, got %q", cfg.Server.Addr)
	}
	if cfg.Render.Record != "match-status" {
		t.Fatalf("unset flag must not shadow file value, got %q", cfg.Render.Record)
	}
}

func TestEnvironmentOverridesFile(t *testing.T) {
	t.Setenv("FORMKIT_SERVER_ADDR", ":6000")
	t.Setenv("FORMKIT_CONFIG", writeConfig(t))

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != ":6000" {
		t.Fatalf("expected env addr, got %q", cfg.Server.Addr)
	}
	if cfg.Render.Renderer != "vanilla" {
		t.Fatalf("expected file renderer, got %q", cfg.Render.Renderer)
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("FORMKIT_CONFIG", filepath.Join(t.TempDir(), "absent.yaml"))
	if _, err := Load(nil); err == nil {
		t.Fatalf("expected error for a named but missing config file")
	}
}
