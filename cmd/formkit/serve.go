package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shulp2211/seqr-formkit/pkg/form"
	"github.com/shulp2211/seqr-formkit/pkg/lifecycle"
	"github.com/shulp2211/seqr-formkit/pkg/model"
	"github.com/shulp2211/seqr-formkit/pkg/render"
	"github.com/shulp2211/seqr-formkit/pkg/renderers/vanilla"
)

const (
	actionEdit   = "edit"
	actionCancel = "cancel"
	actionSubmit = "submit"
	actionDelete = "delete"
	actionSearch = "search"
	actionFilter = "filter"
)

func (a *app) routes() http.Handler {
	router := http.NewServeMux()
	router.Handle("GET /healthz", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}))
	router.Handle("GET /metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
	router.Handle("GET /assets/", http.StripPrefix("/assets/", http.FileServerFS(vanilla.AssetsFS())))

	router.Handle("GET /{$}", http.RedirectHandler("/"+recordSubmission, http.StatusFound))
	router.Handle("/"+recordSubmission, a.recordHandler(func(*http.Request) (*lifecycle.Controller, error) {
		return a.controller(recordSubmission, "")
	}))
	router.Handle("/"+recordMatchStatus+"/{match}", a.recordHandler(func(r *http.Request) (*lifecycle.Controller, error) {
		return a.controller(recordMatchStatus, r.PathValue("match"))
	}))
	router.Handle("/"+recordManualVariant, a.recordHandler(func(*http.Request) (*lifecycle.Controller, error) {
		return a.controller(recordManualVariant, "")
	}))
	return router
}

// recordHandler renders a record on GET and applies the posted action on
// POST. Rejections and validation failures re-render the open form; other
// failures are 500s.
func (a *app) recordHandler(resolve func(*http.Request) (*lifecycle.Controller, error)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctrl, err := resolve(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}

		switch r.Method {
		case http.MethodGet:
			a.writePage(w, r, ctrl, nil, http.StatusOK)
		case http.MethodPost:
			if err := r.ParseForm(); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			status, err := a.apply(r.Context(), ctrl, r)
			if err != nil {
				a.logger.Error("record action failed", "record", ctrl.Name(), "error", err)
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			a.writePage(w, r, ctrl, vanilla.Queries(r.PostForm), status)
		default:
			w.Header().Set("Allow", "GET, POST")
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		}
	})
}

// apply runs the posted action and returns the status code to answer with.
// The confirmation prompts are shown client side, so edits and deletes
// arrive confirmed.
func (a *app) apply(ctx context.Context, ctrl *lifecycle.Controller, r *http.Request) (int, error) {
	action := r.PostForm.Get("_action")
	if session := ctrl.Form(); session != nil && action != actionCancel {
		if err := vanilla.Decode(session, r.PostForm, nil); err != nil {
			return 0, err
		}
	}

	var err error
	switch action {
	case actionEdit:
		_, err = ctrl.BeginEdit(true)
	case actionCancel:
		err = ctrl.Cancel()
	case actionSubmit:
		_, err = ctrl.Submit(ctx)
		if err == nil && ctrl.Name() != recordManualVariant {
			a.page.Sync(ctx)
		}
	case actionDelete:
		_, err = ctrl.Delete(ctx, true)
		if err == nil {
			a.page.Sync(ctx)
		}
	case actionSearch:
		err = a.page.Search(ctx)
	case actionFilter:
	default:
		return http.StatusBadRequest, nil
	}

	switch {
	case err == nil:
		return http.StatusOK, nil
	case errors.Is(err, form.ErrInvalid):
		return http.StatusUnprocessableEntity, nil
	case errors.Is(err, lifecycle.ErrBusy), errors.Is(err, lifecycle.ErrNotEditing), errors.Is(err, lifecycle.ErrNotEditable):
		return http.StatusConflict, nil
	case ctrl.ErrorPanel() != "":
		return http.StatusBadGateway, nil
	default:
		return 0, err
	}
}

func (a *app) writePage(w http.ResponseWriter, r *http.Request, ctrl *lifecycle.Controller, queries map[string]model.TableQuery, status int) {
	opts := a.renderOptions(queries, r.URL.Path)
	out, contentType, err := a.renderers.Render(r.Context(), pageFormat(r), render.Build(ctrl, opts), opts)
	if err != nil {
		a.logger.Error("render failed", "record", ctrl.Name(), "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_, _ = w.Write(out)
}

// pageFormat picks the JSON renderer for ?format=json or an Accept header
// asking for JSON, and the HTML renderer otherwise.
func pageFormat(r *http.Request) string {
	if r.URL.Query().Get("format") == "json" || strings.Contains(r.Header.Get("Accept"), "application/json") {
		return "json"
	}
	return "vanilla"
}

func (a *app) serve(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := a.mount(ctx); err != nil {
		a.logger.Warn("initial load failed", "error", err)
	}

	server := &http.Server{
		Addr:              a.cfg.Server.Addr,
		Handler:           a.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errs := make(chan error, 1)
	go func() {
		a.logger.Info("formkit listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
		close(errs)
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	a.logger.Info("good bye")
	return server.Shutdown(shutdownCtx)
}
