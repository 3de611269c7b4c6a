package insights

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"croplens/chart"
)

func f64(v float64) *float64 { return &v }

// sample is a complete payload.
func sample() *Insights {
	return &Insights{
		Location: &Location{Lat: f64(-1.2921), Lon: f64(36.8219)},
		Weather:  &Weather{AvgTempC: f64(23.456), WeeklyRainMM: f64(12.4)},
		Soil:     &Soil{PH: f64(6.3)},
		Recommendations: []Recommendation{
			{Crop: "Maize", Reason: "warm and wet"},
			{Crop: "Quinoa", Reason: "tolerates the soil"},
		},
	}
}

// stubFetcher answers every fetch with the same outcome. Each success is a
// fresh copy, as a real backend decodes a new payload per response.
type stubFetcher struct {
	data  *Insights
	err   error
	calls atomic.Int32

	mu   sync.Mutex
	last Coordinates
}

func (f *stubFetcher) Fetch(ctx context.Context, c Coordinates) (*Insights, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.last = c
	f.mu.Unlock()
	if f.data == nil {
		return nil, f.err
	}
	cp := *f.data
	return &cp, f.err
}

func (f *stubFetcher) Last() Coordinates {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last
}

// gatedFetcher holds each fetch until its latitude's gate is released.
type gatedFetcher struct {
	started chan float64

	mu    sync.Mutex
	gates map[float64]chan struct{}
}

func newGatedFetcher() *gatedFetcher {
	return &gatedFetcher{started: make(chan float64, 16), gates: map[float64]chan struct{}{}}
}

func (f *gatedFetcher) gate(lat float64) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.gates[lat]
	if !ok {
		g = make(chan struct{})
		f.gates[lat] = g
	}
	return g
}

func (f *gatedFetcher) release(lat float64) { close(f.gate(lat)) }

func (f *gatedFetcher) Fetch(ctx context.Context, c Coordinates) (*Insights, error) {
	g := f.gate(c.Lat)
	f.started <- c.Lat
	<-g
	return &Insights{Location: &Location{Lat: f64(c.Lat), Lon: f64(c.Lon)}, Recommendations: []Recommendation{}}, nil
}

// fakeChart is a chart handle that only records its lifecycle.
type fakeChart struct {
	surface   string
	spec      chart.Spec
	destroyed atomic.Bool
	onDestroy func()
}

func (c *fakeChart) Surface() string { return c.surface }

func (c *fakeChart) Options() json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{"values":%v}`, c.spec.Values))
}

func (c *fakeChart) Destroy() {
	if c.destroyed.CompareAndSwap(false, true) && c.onDestroy != nil {
		c.onDestroy()
	}
}

func (c *fakeChart) Destroyed() bool { return c.destroyed.Load() }

// fakeRenderer counts live charts per surface.
type fakeRenderer struct {
	mu    sync.Mutex
	live  map[string]int
	peak  map[string]int
	specs map[string][]chart.Spec
}

func newFakeRenderer() *fakeRenderer {
	return &fakeRenderer{live: map[string]int{}, peak: map[string]int{}, specs: map[string][]chart.Spec{}}
}

func (r *fakeRenderer) Draw(surface string, spec chart.Spec) (chart.Chart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.live[surface]++
	if r.live[surface] > r.peak[surface] {
		r.peak[surface] = r.live[surface]
	}
	r.specs[surface] = append(r.specs[surface], spec)
	return &fakeChart{surface: surface, spec: spec, onDestroy: func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.live[surface]--
	}}, nil
}

func (r *fakeRenderer) Live(surface string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.live[surface]
}

func (r *fakeRenderer) Peak(surface string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.peak[surface]
}

func (r *fakeRenderer) Specs(surface string) []chart.Spec {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]chart.Spec(nil), r.specs[surface]...)
}
