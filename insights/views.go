package insights

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"croplens/app"
	"croplens/chart"
)

// idleTimeout is how long a view without a watching browser is kept.
const idleTimeout = 2 * time.Minute

// Views holds the mounted views keyed by id.
type Views struct {
	fetcher      Fetcher
	options      []Option
	renderer     chart.Renderer
	autocomplete bool
	idle         time.Duration

	mu    sync.Mutex
	views map[string]*View
}

// NewViews returns an empty registry creating views with the given parts.
func NewViews(f Fetcher, r chart.Renderer, autocomplete bool, opts ...Option) *Views {
	return &Views{
		fetcher:      f,
		options:      opts,
		renderer:     r,
		autocomplete: autocomplete,
		idle:         idleTimeout,
		views:        map[string]*View{},
	}
}

// Get returns the view for id, or nil.
func (vs *Views) Get(id string) *View {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	return vs.views[id]
}

// Mount returns the view for id, creating a new one with a fresh id when it
// does not exist.
func (vs *Views) Mount(id string) *View {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	return vs.mount(id)
}

// Watch mounts the view for id and subscribes to it while holding the
// registry, so it cannot be unmounted between the two.
func (vs *Views) Watch(id string) (*View, <-chan Update, func()) {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	v := vs.mount(id)
	updates, stop := v.Watch()
	return v, updates, stop
}

// mount is Mount with vs.mu held.
func (vs *Views) mount(id string) *View {
	if v, ok := vs.views[id]; ok {
		return v
	}
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
	}

	v := NewView(id, NewController(vs.fetcher, vs.options...), chart.NewPanel(vs.renderer), vs.autocomplete)
	vs.views[id] = v
	app.Log("insights", "mounted view %s (%d live)", id, len(vs.views))

	// a page that never opens its live connection is unmounted too
	v.idleAfter(vs.idle, func() { vs.expire(id) })
	return v
}

// Release is called when a watcher of v goes away.
func (vs *Views) Release(v *View) {
	v.idleAfter(vs.idle, func() { vs.expire(v.ID) })
}

func (vs *Views) expire(id string) {
	vs.mu.Lock()
	v, ok := vs.views[id]
	if !ok || v.Watchers() > 0 {
		vs.mu.Unlock()
		return
	}
	delete(vs.views, id)
	n := len(vs.views)
	vs.mu.Unlock()

	v.Close()
	app.Log("insights", "unmounted view %s (%d live)", id, n)
}

// Len returns the number of mounted views.
func (vs *Views) Len() int {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	return len(vs.views)
}

// Close unmounts every view.
func (vs *Views) Close() {
	vs.mu.Lock()
	views := vs.views
	vs.views = map[string]*View{}
	vs.mu.Unlock()

	for _, v := range views {
		v.Close()
	}
}
