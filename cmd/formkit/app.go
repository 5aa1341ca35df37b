package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/cockroachdb/errors"
	theme "github.com/goliatone/go-theme"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/shulp2211/seqr-formkit/internal/config"
	"github.com/shulp2211/seqr-formkit/internal/manualvariant"
	"github.com/shulp2211/seqr-formkit/internal/matchmaker"
	"github.com/shulp2211/seqr-formkit/pkg/lifecycle"
	"github.com/shulp2211/seqr-formkit/pkg/metrics"
	"github.com/shulp2211/seqr-formkit/pkg/model"
	"github.com/shulp2211/seqr-formkit/pkg/render"
	"github.com/shulp2211/seqr-formkit/pkg/renderers/jsonpage"
	"github.com/shulp2211/seqr-formkit/pkg/renderers/tui"
	"github.com/shulp2211/seqr-formkit/pkg/renderers/vanilla"
	"github.com/shulp2211/seqr-formkit/pkg/uischema"
	"github.com/shulp2211/seqr-formkit/pkg/valuebag"
)

const (
	recordSubmission    = "submission"
	recordMatchStatus   = "match-status"
	recordManualVariant = "manual-variant"
)

// app holds everything one CLI invocation works with.
type app struct {
	cfg       config.AppConfig
	logger    *slog.Logger
	registry  *prometheus.Registry
	service   *fixtureService
	page      *matchmaker.Page
	dialog    *manualvariant.Dialog
	renderers *render.Registry
	theme     *theme.RendererConfig

	// prompts replaces the survey driver used by edit and delete.
	prompts tui.PromptDriver
}

func newApp(cfg config.AppConfig, logger *slog.Logger) (*app, error) {
	fixture, err := loadFixture(cfg.Fixture.Path)
	if err != nil {
		return nil, err
	}
	individual, err := fixture.Individual(cfg.Fixture.Individual)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	collector, err := metrics.New(registry)
	if err != nil {
		return nil, err
	}

	decorators, err := loadDecorators(cfg.UISchema)
	if err != nil {
		return nil, err
	}

	service := newFixtureService(fixture, logger.With("component", "fixture"))
	page, err := matchmaker.NewPage(individual, service,
		matchmaker.WithDefaultContact(fixture.DefaultContact),
		matchmaker.WithDecorators(decorators...),
		matchmaker.WithLogger(logger),
		matchmaker.WithMetrics(collector),
	)
	if err != nil {
		return nil, err
	}

	dialog, err := manualvariant.NewDialog(fixture.Family, fixture.Project, fixture.User, service,
		manualvariant.WithDecorators(decorators...),
		manualvariant.WithLogger(logger),
		manualvariant.WithMetrics(collector),
		manualvariant.WithOnSaved(func(saved valuebag.Bag) {
			logger.Info("manual variant added", "guid", saved["variantGuid"])
		}),
	)
	if err != nil {
		return nil, err
	}

	themeCfg, err := resolveTheme(cfg.Theme)
	if err != nil {
		return nil, err
	}

	renderers := render.NewRegistry()
	renderers.MustRegister(tui.New(tui.WithOutput(os.Stdout), tui.WithLogger(logger)))
	html, err := vanilla.New(vanilla.WithInlineStyles(themeCfg == nil))
	if err != nil {
		return nil, err
	}
	renderers.MustRegister(html)
	renderers.MustRegister(jsonpage.New(jsonpage.WithIndent("  ")))

	return &app{
		cfg:       cfg,
		logger:    logger,
		registry:  registry,
		service:   service,
		page:      page,
		dialog:    dialog,
		renderers: renderers,
		theme:     themeCfg,
	}, nil
}

func loadDecorators(cfg config.UISchemaConfig) ([]model.Decorator, error) {
	if cfg.Disabled {
		return nil, nil
	}
	fsys := uischema.EmbeddedFS()
	if cfg.Dir != "" {
		fsys = os.DirFS(cfg.Dir)
	}
	store, err := uischema.LoadFS(fsys)
	if err != nil {
		return nil, err
	}
	return []model.Decorator{uischema.NewDecorator(store)}, nil
}

// controller resolves a record name to its controller.
func (a *app) controller(record, match string) (*lifecycle.Controller, error) {
	switch record {
	case "", recordSubmission:
		return a.page.Submission()
	case recordMatchStatus:
		if match == "" {
			return nil, errors.New("match-status needs --match")
		}
		return a.page.MatchStatus(match)
	case recordManualVariant:
		if !a.dialog.Visible() {
			return nil, errors.New("only staff users can add manual variants")
		}
		return a.dialog.Controller(), nil
	default:
		return nil, errors.Newf("unknown record %q", record)
	}
}

func (a *app) mount(ctx context.Context) error {
	a.page.Mount(ctx)
	return a.page.Wait(ctx)
}

func (a *app) renderOptions(queries map[string]model.TableQuery, action string) render.RenderOptions {
	return render.RenderOptions{
		Queries: queries,
		Action:  action,
		Theme:   a.theme,
	}
}
