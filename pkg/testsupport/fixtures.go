// Package testsupport holds helpers shared by package tests: value fixtures,
// a recording submit dispatcher and template output capture.
package testsupport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/shulp2211/seqr-formkit/pkg/valuebag"
)

// LoadBag reads a JSON or YAML fixture into a value bag.
func LoadBag(path string) (valuebag.Bag, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("testsupport: read fixture: %w", err)
	}
	return DecodeBag(data, filepath.Ext(path))
}

// DecodeBag decodes a JSON (".json") or YAML document into a value bag.
func DecodeBag(data []byte, ext string) (valuebag.Bag, error) {
	var raw map[string]any
	if strings.EqualFold(ext, ".json") {
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("testsupport: decode json fixture: %w", err)
		}
	} else if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("testsupport: decode yaml fixture: %w", err)
	}
	return valuebag.FromMap(raw), nil
}

// MustDecodeBag fails the test when data cannot be decoded.
func MustDecodeBag(t *testing.T, data string, ext string) valuebag.Bag {
	t.Helper()
	bag, err := DecodeBag([]byte(data), ext)
	if err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	return bag
}

// Dispatcher records submitted payloads and answers with queued results. An
// empty queue echoes the payload back.
type Dispatcher struct {
	mu       sync.Mutex
	payloads []valuebag.Bag
	results  []dispatchResult
}

type dispatchResult struct {
	value valuebag.Bag
	err   error
}

// Respond queues one answer.
func (d *Dispatcher) Respond(value valuebag.Bag, err error) *Dispatcher {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.results = append(d.results, dispatchResult{value: value, err: err})
	return d
}

// Submit satisfies readmodel.SubmitFunc and lifecycle.SubmitFunc.
func (d *Dispatcher) Submit(_ context.Context, payload valuebag.Bag) (valuebag.Bag, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.payloads = append(d.payloads, payload.Clone())
	if len(d.results) == 0 {
		return payload.Clone(), nil
	}
	next := d.results[0]
	d.results = d.results[1:]
	return next.value, next.err
}

// Payloads returns copies of the recorded payloads in call order.
func (d *Dispatcher) Payloads() []valuebag.Bag {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]valuebag.Bag, 0, len(d.payloads))
	for _, payload := range d.payloads {
		out = append(out, payload.Clone())
	}
	return out
}

// Calls returns how many payloads were dispatched.
func (d *Dispatcher) Calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.payloads)
}

// CaptureTemplateOutput executes a render function that writes to an io.Writer,
// returning both the string result and the writer contents. Tests can assert
// the renderer returns and writes the same payload without duplicating buffer
// setup.
func CaptureTemplateOutput(t *testing.T, render func(io.Writer) (string, error)) (string, string) {
	t.Helper()

	var buf bytes.Buffer
	out, err := render(&buf)
	if err != nil {
		t.Fatalf("render template: %v", err)
	}
	return out, buf.String()
}
