package insights

import (
	"context"
	"sync"

	"croplens/app"
	"croplens/geo"
)

// State is what the view renders. At most one of Data and Error is set once
// a request has settled; while Loading the previous Data stays visible.
type State struct {
	Loading bool      `json:"loading"`
	Data    *Insights `json:"data,omitempty"`
	Error   string    `json:"error,omitempty"`
	// Version increases with every transition.
	Version uint64 `json:"version"`
}

// Option configures a Controller.
type Option func(*Controller)

// WithFencing discards responses that settle after a newer request was
// issued. Without it the last response to settle wins.
func WithFencing() Option {
	return func(c *Controller) { c.fence = true }
}

// Controller owns the insights state for one view. Every write goes through
// its mutex and listeners are called in transition order while it is held,
// so listeners must not call back into the controller.
type Controller struct {
	fetcher Fetcher
	fence   bool

	mu        sync.Mutex
	state     State
	issued    uint64
	nextID    int
	listeners map[int]func(State)
}

// NewController returns a controller with empty state.
func NewController(f Fetcher, opts ...Option) *Controller {
	c := &Controller{
		fetcher:   f,
		listeners: map[int]func(State){},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// State returns a snapshot of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Subscribe registers fn for every subsequent transition.
func (c *Controller) Subscribe(fn func(State)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

// FetchByCoordinates loads insights for lat/lon and returns the state after
// the request settled. It blocks for the duration of the request; callers
// wanting the asynchronous behaviour run it in a goroutine.
func (c *Controller) FetchByCoordinates(ctx context.Context, lat, lon float64) State {
	token := c.begin()
	data, err := c.fetcher.Fetch(ctx, Coordinates{Lat: lat, Lon: lon})
	return c.settle(token, data, err)
}

// UseDeviceLocation asks loc for the device position and fetches insights
// for it. A nil loc means the capability is unavailable.
func (c *Controller) UseDeviceLocation(ctx context.Context, loc geo.Locator) State {
	if loc == nil {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.apply(State{Error: geo.ErrUnavailable.Error()})
		return c.state
	}

	token := c.begin()
	pos, err := loc.Locate(ctx)
	if err != nil {
		return c.settle(token, nil, err)
	}
	return c.FetchByCoordinates(ctx, pos.Lat, pos.Lon)
}

// begin marks a request as outstanding and returns its sequence token.
func (c *Controller) begin() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.issued++
	next := c.state
	next.Loading = true
	next.Error = ""
	c.apply(next)
	return c.issued
}

// settle applies the outcome of the request identified by token.
func (c *Controller) settle(token uint64, data *Insights, err error) State {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.fence && token != c.issued {
		app.Log("insights", "discarding stale response %d (latest %d)", token, c.issued)
		return c.state
	}

	if err != nil {
		app.Log("insights", "request %d failed: %v", token, err)
		c.apply(State{Error: err.Error()})
	} else {
		c.apply(State{Data: data})
	}
	return c.state
}

// apply replaces the state and notifies listeners. c.mu must be held.
func (c *Controller) apply(next State) {
	next.Version = c.state.Version + 1
	c.state = next
	for _, fn := range c.listeners {
		fn(next)
	}
}
