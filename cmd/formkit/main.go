// Command formkit drives the matchmaker and manual variant records against
// a YAML fixture, either in the terminal or as a small HTML server.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/shulp2211/seqr-formkit/internal/config"
	"github.com/shulp2211/seqr-formkit/pkg/render"
	"github.com/shulp2211/seqr-formkit/pkg/renderers/tui"
)

const usage = `usage: formkit [flags] <command>

commands:
  show     print the record (--renderer tui|vanilla|json)
  edit     edit the record in the terminal
  delete   delete the record
  search   search the exchange for new matches and print them
  serve    serve the records as HTML on --addr, with /metrics

flags:
`

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "formkit:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := pflag.NewFlagSet("formkit", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	config.RegisterFlags(fs)
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return errors.New("expected exactly one command")
	}

	cfg, err := config.Load(fs)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: cfg.General.Level()}))
	slog.SetDefault(logger)
	logger.Debug("config loaded", "data", cfg)

	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}

	switch command := fs.Arg(0); command {
	case "serve":
		return a.serve(ctx)
	case "show":
		if err := a.mount(ctx); err != nil {
			return err
		}
		return a.show(ctx, stdout, cfg.Render.Renderer)
	case "edit":
		if err := a.mount(ctx); err != nil {
			return err
		}
		return a.edit(ctx, stdout)
	case "delete":
		return a.remove(ctx, stdout)
	case "search":
		if err := a.mount(ctx); err != nil {
			return err
		}
		if err := a.page.Search(ctx); err != nil {
			return err
		}
		return a.show(ctx, stdout, cfg.Render.Renderer)
	default:
		fs.Usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func (a *app) show(ctx context.Context, out io.Writer, renderer string) error {
	ctrl, err := a.controller(a.cfg.Render.Record, a.cfg.Render.Match)
	if err != nil {
		return err
	}
	opts := a.renderOptions(nil, "")
	page := render.Build(ctrl, opts)
	data, _, err := a.renderers.Render(ctx, renderer, page, opts)
	if err != nil {
		return err
	}
	_, err = out.Write(append(data, '\n'))
	return err
}

func (a *app) terminal(out io.Writer) *tui.Renderer {
	prompts := a.prompts
	if prompts == nil {
		prompts = tui.NewSurveyDriver(out)
	}
	return tui.New(
		tui.WithPromptDriver(prompts),
		tui.WithOutput(out),
		tui.WithLogger(a.logger),
	)
}

func (a *app) edit(ctx context.Context, out io.Writer) error {
	ctrl, err := a.controller(a.cfg.Render.Record, a.cfg.Render.Match)
	if err != nil {
		return err
	}
	result, err := a.terminal(out).Edit(ctx, ctrl, a.renderOptions(nil, ""))
	switch {
	case errors.Is(err, tui.ErrDeclined), errors.Is(err, tui.ErrAborted):
		fmt.Fprintln(out, "Edit cancelled")
		return nil
	case err != nil:
		return err
	}
	a.logger.Debug("record saved", "record", ctrl.Name(), "value", result.Value)
	if ctrl.Name() != recordManualVariant {
		a.page.Sync(ctx)
		if err := a.page.Wait(ctx); err != nil {
			return err
		}
	}
	return a.show(ctx, out, "tui")
}

func (a *app) remove(ctx context.Context, out io.Writer) error {
	ctrl, err := a.controller(a.cfg.Render.Record, a.cfg.Render.Match)
	if err != nil {
		return err
	}
	if !ctrl.CanDelete() {
		return fmt.Errorf("%s cannot be deleted", ctrl.Name())
	}
	_, err = a.terminal(out).Delete(ctx, ctrl)
	if errors.Is(err, tui.ErrDeclined) {
		fmt.Fprintln(out, "Delete cancelled")
		return nil
	}
	if err != nil {
		return err
	}
	a.page.Sync(ctx)
	if err := a.page.Wait(ctx); err != nil {
		return err
	}
	return a.show(ctx, out, "tui")
}
