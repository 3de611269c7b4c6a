// Package chart binds single-series bar charts to named drawing surfaces.
//
// A Panel owns at most one live chart per surface. Redrawing a surface
// destroys the chart bound to it before the replacement is created.
package chart

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// KindBar is the only chart kind drawn today.
const KindBar = "bar"

// Spec describes a chart independently of the rendering library.
type Spec struct {
	Kind   string
	Title  string
	Labels []string
	Series string
	Values []float64
	Color  string
	// YMin and YMax fix the vertical axis; nil autoscales that bound.
	YMin   *float64
	YMax   *float64
	Legend bool
}

// Bound returns a pointer for use as an axis bound.
func Bound(v float64) *float64 { return &v }

// Chart is a chart bound to a surface.
type Chart interface {
	Surface() string
	// Options is the JSON the browser instantiates the chart from.
	Options() json.RawMessage
	Destroy()
	Destroyed() bool
}

// Renderer is the chart rendering capability.
type Renderer interface {
	Draw(surface string, spec Spec) (Chart, error)
}

// Panel is the owned-handle map from surface id to its chart.
type Panel struct {
	renderer Renderer

	mu      sync.Mutex
	handles map[string]Chart
}

// NewPanel returns an empty panel drawing with r.
func NewPanel(r Renderer) *Panel {
	return &Panel{renderer: r, handles: map[string]Chart{}}
}

// Draw replaces the chart on surface. The previous chart is destroyed
// first; on error the surface is left empty.
func (p *Panel) Draw(surface string, spec Spec) error {
	if spec.Kind == "" {
		spec.Kind = KindBar
	}
	if spec.Kind != KindBar {
		return fmt.Errorf("unsupported chart kind %q", spec.Kind)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if old, ok := p.handles[surface]; ok {
		old.Destroy()
		delete(p.handles, surface)
	}

	c, err := p.renderer.Draw(surface, spec)
	if err != nil {
		return fmt.Errorf("draw %s: %w", surface, err)
	}
	p.handles[surface] = c
	return nil
}

// Chart returns the chart bound to surface, or nil.
func (p *Panel) Chart(surface string) Chart {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.handles[surface]
}

// Options returns the options of every bound chart keyed by surface.
func (p *Panel) Options() map[string]json.RawMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]json.RawMessage, len(p.handles))
	for surface, c := range p.handles {
		out[surface] = c.Options()
	}
	return out
}

// Surfaces lists the surfaces with a bound chart.
func (p *Panel) Surfaces() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.handles))
	for s := range p.handles {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Close destroys every chart.
func (p *Panel) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for surface, c := range p.handles {
		c.Destroy()
		delete(p.handles, surface)
	}
}
