// Package config loads the formkit CLI settings from flags, FORMKIT_*
// environment variables and an optional YAML file, in that order of
// precedence.
package config

import (
	"log/slog"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "formkit"

var logLevelMapping = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

type AppConfig struct {
	General  GeneralConfig
	Fixture  FixtureConfig
	Render   RenderConfig
	Server   ServerConfig
	Theme    ThemeConfig
	UISchema UISchemaConfig
}

type GeneralConfig struct {
	LogLevel string
}

// Level maps LogLevel to a slog level, defaulting to info.
func (g GeneralConfig) Level() slog.Level {
	if level, ok := logLevelMapping[strings.ToLower(g.LogLevel)]; ok {
		return level
	}
	return slog.LevelInfo
}

type FixtureConfig struct {
	Path string
	// Individual picks the fixture individual; empty uses the first one.
	Individual string
}

type RenderConfig struct {
	Renderer string
	Record   string
	Match    string
}

type ServerConfig struct {
	Addr string
}

type ThemeConfig struct {
	Name       string
	Variant    string
	Tokens     map[string]string
	Stylesheet string
	AssetsPath string
}

type UISchemaConfig struct {
	// Dir overrides the embedded overlays when set.
	Dir      string
	Disabled bool
}

// RegisterFlags declares the CLI flags on fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "path to a YAML config file")
	fs.String("log-level", "info", "debug, info, warn or error")
	fs.String("fixture", "", "YAML fixture describing the individual, saved variants and matches")
	fs.String("individual", "", "fixture individual guid (defaults to the first one)")
	fs.String("renderer", "tui", "renderer used by show: tui, vanilla or json")
	fs.String("record", "submission", "record to work on: submission, match-status or manual-variant")
	fs.String("match", "", "match id for the match-status record")
	fs.String("addr", ":8080", "listen address for serve")
	fs.String("theme", "", "theme name passed to the HTML renderer")
	fs.String("theme-variant", "", "theme variant")
	fs.String("ui-schema-dir", "", "directory with ui schema overlays (defaults to the embedded ones)")
	fs.Bool("no-ui-schema", false, "skip ui schema overlays")
}

var flagKeys = map[string]string{
	"log-level":     "general.log_level",
	"fixture":       "fixture.path",
	"individual":    "fixture.individual",
	"renderer":      "render.renderer",
	"record":        "render.record",
	"match":         "render.match",
	"addr":          "server.addr",
	"theme":         "theme.name",
	"theme-variant": "theme.variant",
	"ui-schema-dir": "ui_schema.dir",
	"no-ui-schema":  "ui_schema.disabled",
}

// Load resolves the configuration. A nil fs loads from the environment and
// defaults only. The config file comes from the --config flag or
// FORMKIT_CONFIG; a missing file is only an error when one was named.
func Load(fs *pflag.FlagSet) (AppConfig, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("general.log_level", "info")
	v.SetDefault("render.renderer", "tui")
	v.SetDefault("render.record", "submission")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("theme.assets_path", "/assets/")

	if fs != nil {
		for flag, key := range flagKeys {
			if f := fs.Lookup(flag); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return AppConfig{}, errors.Wrapf(err, "config: bind flag %s", flag)
				}
			}
		}
	}

	file := v.GetString("config")
	if fs != nil {
		if f := fs.Lookup("config"); f != nil && f.Changed {
			file = f.Value.String()
		}
	}
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return AppConfig{}, errors.Wrapf(err, "config: read %s", file)
		}
	}

	return AppConfig{
		General: GeneralConfig{
			LogLevel: v.GetString("general.log_level"),
		},
		Fixture: FixtureConfig{
			Path:       v.GetString("fixture.path"),
			Individual: v.GetString("fixture.individual"),
		},
		Render: RenderConfig{
			Renderer: v.GetString("render.renderer"),
			Record:   v.GetString("render.record"),
			Match:    v.GetString("render.match"),
		},
		Server: ServerConfig{
			Addr: v.GetString("server.addr"),
		},
		Theme: ThemeConfig{
			Name:       v.GetString("theme.name"),
			Variant:    v.GetString("theme.variant"),
			Tokens:     v.GetStringMapString("theme.tokens"),
			Stylesheet: v.GetString("theme.stylesheet"),
			AssetsPath: v.GetString("theme.assets_path"),
		},
		UISchema: UISchemaConfig{
			Dir:      v.GetString("ui_schema.dir"),
			Disabled: v.GetBool("ui_schema.disabled"),
		},
	}, nil
}
