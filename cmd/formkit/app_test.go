package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/shulp2211/seqr-formkit/internal/config"
	"github.com/shulp2211/seqr-formkit/internal/matchmaker"
	"github.com/shulp2211/seqr-formkit/pkg/model"
	"github.com/shulp2211/seqr-formkit/pkg/renderers/tui"
	"github.com/shulp2211/seqr-formkit/pkg/valuebag"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T) (*app, *httptest.Server) {
	t.Helper()
	a, err := newApp(config.AppConfig{}, quietLogger())
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	if err := a.mount(context.Background()); err != nil {
		t.Fatalf("mount: %v", err)
	}
	srv := httptest.NewServer(a.routes())
	t.Cleanup(srv.Close)
	return a, srv
}

func post(t *testing.T, srv *httptest.Server, path string, values url.Values) (int, string) {
	t.Helper()
	resp, err := http.PostForm(srv.URL+path, values)
	if err != nil {
		t.Fatalf("post %s: %v", path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, string(body)
}

func get(t *testing.T, srv *httptest.Server, path string) (int, string) {
	t.Helper()
	resp, err := http.Get(srv.URL + path)
	if err != nil {
		t.Fatalf("get %s: %v", path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, string(body)
}

func TestLoadSampleFixture(t *testing.T) {
	fixture, err := loadFixture("")
	if err != nil {
		t.Fatalf("load fixture: %v", err)
	}
	ind, err := fixture.Individual("")
	if err != nil {
		t.Fatalf("individual: %v", err)
	}
	if !ind.HasSubmission() {
		t.Fatalf("expected the first sample individual to be submitted")
	}
	if got := len(fixture.SavedVariants[ind.FamilyGUID]); got != 3 {
		t.Fatalf("expected 3 saved variants, got %d", got)
	}
	if _, err := fixture.Individual("missing"); err == nil {
		t.Fatalf("expected an error for an unknown individual")
	}
}

func TestFixtureServiceSubmission(t *testing.T) {
	fixture, err := loadFixture("")
	if err != nil {
		t.Fatalf("load fixture: %v", err)
	}
	svc := newFixtureService(fixture, quietLogger())
	ctx := context.Background()

	resolved, err := svc.UpdateSubmission(ctx, valuebag.Bag{
		"individualGuid": "I000002_na19678",
		"patient":        map[string]any{"contact": map[string]any{"name": "Dr. X", "href": "mailto:x@example.org"}},
		"phenotypes":     []matchmaker.Phenotype{{ID: "HP:1", Label: "Ataxia"}},
	})
	if err != nil {
		t.Fatalf("update submission: %v", err)
	}
	sub, err := matchmaker.SubmissionFromBag(resolved)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sub.Patient.ID != "I000002_na19678" || sub.Patient.Contact.Name != "Dr. X" {
		t.Fatalf("unexpected resolved submission: %+v", sub)
	}

	if _, err := svc.UpdateSubmission(ctx, valuebag.Bag{"individualGuid": "nobody"}); err == nil {
		t.Fatalf("expected a rejection for an unknown individual")
	}

	svc.fixture.FailWith = "Network error"
	if _, err := svc.UpdateVariantTags(ctx, valuebag.Bag{}); err == nil || err.Error() != "Network error" {
		t.Fatalf("expected the configured failure, got %v", err)
	}
}

func TestServeSubmissionPage(t *testing.T) {
	_, srv := newTestServer(t)

	status, body := get(t, srv, "/submission")
	if status != http.StatusOK {
		t.Fatalf("unexpected status %d", status)
	}
	for _, want := range []string{"Update Submission for NA19675", "Submitted Genotypes", "TTN", "P0004515"} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in page:\n%s", want, body)
		}
	}

	status, body = post(t, srv, "/submission", url.Values{"_action": {"edit"}})
	if status != http.StatusOK {
		t.Fatalf("unexpected status %d", status)
	}
	if !strings.Contains(body, `value="matchmaker@example.org"`) {
		t.Fatalf("expected the contact url without mailto: in the form:\n%s", body)
	}

	status, _ = post(t, srv, "/submission", url.Values{"_action": {"cancel"}})
	if status != http.StatusOK {
		t.Fatalf("unexpected cancel status %d", status)
	}
}

func TestServeSubmissionJSON(t *testing.T) {
	_, srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/submission?format=json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("unexpected content type %q", ct)
	}
	var doc struct {
		Page struct {
			Record string `json:"record"`
			State  string `json:"state"`
		} `json:"page"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.Page.Record != matchmaker.SubmissionFormID || doc.Page.State != "viewing" {
		t.Fatalf("unexpected page %+v", doc.Page)
	}
}

func TestServeManualVariantValidation(t *testing.T) {
	_, srv := newTestServer(t)

	if status, _ := post(t, srv, "/manual-variant", url.Values{"_action": {"edit"}}); status != http.StatusOK {
		t.Fatalf("unexpected edit status %d", status)
	}
	status, body := post(t, srv, "/manual-variant", url.Values{"_action": {"submit"}})
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", status)
	}
	if !strings.Contains(body, "Required") {
		t.Fatalf("expected required errors in the form:\n%s", body)
	}
}

func TestServeMatchStatusUpdate(t *testing.T) {
	a, srv := newTestServer(t)

	if status, _ := post(t, srv, "/match-status/P0004515", url.Values{"_action": {"edit"}}); status != http.StatusOK {
		t.Fatalf("unexpected edit status %d", status)
	}
	status, body := post(t, srv, "/match-status/P0004515", url.Values{
		"_action":         {"submit"},
		"flagForAnalysis": {"on"},
		"comments":        {"Asked for segregation data"},
	})
	if status != http.StatusOK {
		t.Fatalf("unexpected submit status %d:\n%s", status, body)
	}
	if !strings.Contains(body, "Flag for Analysis") || !strings.Contains(body, "Asked for segregation data") {
		t.Fatalf("expected the updated status in the page:\n%s", body)
	}

	results := a.page.Results(model.TableQuery{})
	if len(results.Rows) != 2 || !strings.Contains(results.Rows[1].Cells[5], "Flag for Analysis") {
		t.Fatalf("expected the results table to carry the new status: %+v", results.Rows)
	}

	_, metrics := get(t, srv, "/metrics")
	if !strings.Contains(metrics, `formkit_submissions_total{action="submit",form="mme-match-status",outcome="success"} 1`) {
		t.Fatalf("expected a submission sample in metrics:\n%s", metrics)
	}

	if status, _ := get(t, srv, "/match-status/unknown"); status != http.StatusNotFound {
		t.Fatalf("expected 404 for an unknown match, got %d", status)
	}
}

func TestServeSubmitLoadsMatchesAfterRequestEnds(t *testing.T) {
	a, err := newApp(config.AppConfig{Fixture: config.FixtureConfig{Individual: "I000002_na19678"}}, quietLogger())
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	a.service.fixture.Latency = 20 * time.Millisecond
	ctx := context.Background()
	if err := a.mount(ctx); err != nil {
		t.Fatalf("mount: %v", err)
	}
	srv := httptest.NewServer(a.routes())
	t.Cleanup(srv.Close)

	if status, _ := post(t, srv, "/submission", url.Values{"_action": {"edit"}}); status != http.StatusOK {
		t.Fatalf("unexpected edit status %d", status)
	}
	status, body := post(t, srv, "/submission", url.Values{
		"_action":              {"submit"},
		"patient.contact.name": {"Sam Analyst"},
		"patient.contact.href": {"matchmaker@example.org"},
		"geneVariants":         {"21-3343353-GAGA-G"},
	})
	if status != http.StatusOK {
		t.Fatalf("unexpected submit status %d:\n%s", status, body)
	}
	if !a.page.Submitted() {
		t.Fatalf("expected a live submission after submit")
	}

	if err := a.page.Wait(ctx); err != nil {
		t.Fatalf("wait for matches: %v", err)
	}
	_, metrics := get(t, srv, "/metrics")
	if !strings.Contains(metrics, `formkit_loads_total{loader="mme-matches",outcome="success"} 1`) {
		t.Fatalf("expected the match load to finish after the request:\n%s", metrics)
	}
	if strings.Contains(metrics, `formkit_loads_total{loader="mme-matches",outcome="error"}`) {
		t.Fatalf("match load must not be cancelled with the request:\n%s", metrics)
	}
}

// yesDriver accepts every confirmation and fails any other prompt.
type yesDriver struct {
	confirms []string
}

func (d *yesDriver) Input(context.Context, tui.InputConfig) (string, error) {
	return "", errors.New("unexpected input prompt")
}

func (d *yesDriver) Confirm(_ context.Context, cfg tui.ConfirmConfig) (bool, error) {
	d.confirms = append(d.confirms, cfg.Message)
	return true, nil
}

func (d *yesDriver) Select(context.Context, tui.SelectConfig) (int, error) {
	return -1, errors.New("unexpected select prompt")
}

func (d *yesDriver) MultiSelect(context.Context, tui.SelectConfig) ([]int, error) {
	return nil, errors.New("unexpected multiselect prompt")
}

func (d *yesDriver) TextArea(context.Context, tui.TextAreaConfig) (string, error) {
	return "", errors.New("unexpected textarea prompt")
}

func (d *yesDriver) Info(context.Context, string) error { return nil }

func TestRemoveSubmissionSettlesBeforeShowing(t *testing.T) {
	a, err := newApp(config.AppConfig{}, quietLogger())
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	a.service.fixture.Latency = 10 * time.Millisecond
	driver := &yesDriver{}
	a.prompts = driver
	ctx := context.Background()
	if err := a.mount(ctx); err != nil {
		t.Fatalf("mount: %v", err)
	}

	var out strings.Builder
	if err := a.remove(ctx, &out); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(driver.confirms) != 1 || driver.confirms[0] != matchmaker.DeleteConfirm {
		t.Fatalf("unexpected confirmations %v", driver.confirms)
	}
	if a.page.Submitted() {
		t.Fatalf("expected the submission to be gone")
	}
	if a.page.Results(model.TableQuery{}).Loading {
		t.Fatalf("expected no load outstanding once remove returns")
	}
	if !strings.Contains(out.String(), "Create Submission for NA19675") {
		t.Fatalf("expected the page for a new submission:\n%s", out.String())
	}
}
