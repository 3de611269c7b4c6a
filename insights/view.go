package insights

import (
	"context"
	"sync"
	"time"

	"croplens/app"
	"croplens/chart"
)

// Update is pushed to a watching browser after every change.
type Update struct {
	Version uint64 `json:"version"`
	HTML    string `json:"html"`
}

// RainfallSpec is the rainfall chart: y axis from zero, autoscaled above.
func RainfallSpec(mm float64) chart.Spec {
	return chart.Spec{
		Kind:   chart.KindBar,
		Labels: []string{"This week"},
		Series: "Rainfall (mm)",
		Values: []float64{mm},
		Color:  "#4a90d9",
		YMin:   chart.Bound(0),
	}
}

// PHSpec is the soil pH chart with the y axis fixed to [3, 9].
func PHSpec(ph float64) chart.Spec {
	return chart.Spec{
		Kind:   chart.KindBar,
		Labels: []string{"Topsoil"},
		Series: "pH",
		Values: []float64{ph},
		Color:  "#8d6e63",
		YMin:   chart.Bound(3),
		YMax:   chart.Bound(9),
	}
}

// View is one mounted InsightsView: controller, chart panel and the text
// shown in the search field.
type View struct {
	ID         string
	Controller *Controller
	Charts     *chart.Panel

	autocomplete bool

	mu       sync.Mutex
	state    State
	query    string
	watchers map[int]chan Update
	nextID   int
	idleStop *time.Timer
	closed   bool

	unsubscribe func()
}

// NewView mounts a view around c.
func NewView(id string, c *Controller, charts *chart.Panel, autocomplete bool) *View {
	v := &View{
		ID:           id,
		Controller:   c,
		Charts:       charts,
		autocomplete: autocomplete,
		state:        c.State(),
		watchers:     map[int]chan Update{},
	}
	v.unsubscribe = c.Subscribe(v.onState)
	return v
}

// onState runs for every controller transition, in order.
func (v *View) onState(s State) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if s.Data != v.state.Data {
		v.redraw(s.Data)
	}
	v.state = s
	v.publish()
}

// redraw replaces both charts for data. v.mu must be held.
func (v *View) redraw(data *Insights) {
	if data == nil {
		v.Charts.Close()
		return
	}
	if err := v.Charts.Draw(RainSurface, RainfallSpec(data.Rainfall())); err != nil {
		app.Log("insights", "view %s: %v", v.ID, err)
	}
	if err := v.Charts.Draw(PHSurface, PHSpec(data.PH())); err != nil {
		app.Log("insights", "view %s: %v", v.ID, err)
	}
}

// render returns the current html. v.mu must be held.
func (v *View) render() string {
	return Render(v.state, Input{
		Query:        v.query,
		Autocomplete: v.autocomplete,
		Charts:       v.Charts.Options(),
	})
}

// publish sends the current render to every watcher, replacing any update
// the watcher has not read yet. v.mu must be held.
func (v *View) publish() {
	if len(v.watchers) == 0 {
		return
	}
	u := Update{Version: v.state.Version, HTML: v.render()}
	for _, ch := range v.watchers {
		select {
		case <-ch:
		default:
		}
		ch <- u
	}
}

// HTML renders the view as it stands.
func (v *View) HTML() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.render()
}

// State returns the state last rendered by the view.
func (v *View) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// SetQuery updates the text shown in the search field.
func (v *View) SetQuery(text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.query = text
	v.publish()
}

// Query returns the text shown in the search field.
func (v *View) Query() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.query
}

// FetchByCoordinates forwards to the controller.
func (v *View) FetchByCoordinates(ctx context.Context, lat, lon float64) {
	v.Controller.FetchByCoordinates(ctx, lat, lon)
}

// Watch subscribes to updates. The current render is delivered first.
// The channel of a closed view is closed immediately.
func (v *View) Watch() (<-chan Update, func()) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		ch := make(chan Update)
		close(ch)
		return ch, func() {}
	}

	if v.idleStop != nil {
		v.idleStop.Stop()
		v.idleStop = nil
	}

	id := v.nextID
	v.nextID++
	ch := make(chan Update, 1)
	ch <- Update{Version: v.state.Version, HTML: v.render()}
	v.watchers[id] = ch

	return ch, func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		delete(v.watchers, id)
	}
}

// Watchers returns the number of watching browsers.
func (v *View) Watchers() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.watchers)
}

// idleAfter runs fn after d unless a watcher arrives first.
func (v *View) idleAfter(d time.Duration, fn func()) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.watchers) > 0 || v.closed {
		return
	}
	if v.idleStop != nil {
		v.idleStop.Stop()
	}
	v.idleStop = time.AfterFunc(d, fn)
}

// Close unmounts the view: no further transitions are observed and the
// charts are destroyed.
func (v *View) Close() {
	v.unsubscribe()

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	v.closed = true
	if v.idleStop != nil {
		v.idleStop.Stop()
	}
	v.Charts.Close()
}
