package places

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/mrz1836/go-sanitize"

	"croplens/app"
	"croplens/geo"
)

// Prediction is one autocomplete suggestion.
type Prediction struct {
	PlaceID     string `json:"place_id"`
	Description string `json:"description"`
}

// Place is a selected place. Location is nil when the place has no
// resolvable geometry.
type Place struct {
	ID       string           `json:"id"`
	Location *geo.Coordinates `json:"location,omitempty"`
}

// Autocomplete is the place search capability.
type Autocomplete interface {
	Predict(ctx context.Context, input string) ([]Prediction, error)
	// Lookup resolves the geometry of a place and nothing else.
	Lookup(ctx context.Context, placeID string) (*Place, error)
}

// Loader loads the autocomplete capability once per process, and only when
// an API key is configured.
type Loader struct {
	Key func() string
	New func(ctx context.Context, key string) (Autocomplete, error)

	once sync.Once
	ac   Autocomplete
}

// Load returns the capability, or nil when it is not configured or failed
// to load. Only the first call does any work.
func (l *Loader) Load(ctx context.Context) Autocomplete {
	l.once.Do(func() {
		key := l.Key()
		if key == "" {
			app.Log("places", "GOOGLE_API_KEY not set, place search disabled")
			return
		}
		ac, err := l.New(ctx, key)
		if err != nil {
			app.Log("places", "place search unavailable: %v", err)
			return
		}
		l.ac = ac
		app.Log("places", "place search loaded")
	})
	return l.ac
}

var defaultLoader = &Loader{Key: googleAPIKey, New: newDefault}

// Load returns the process-wide place search capability, or nil.
func Load(ctx context.Context) Autocomplete {
	return defaultLoader.Load(ctx)
}

// Configured reports whether an API key enabling place search is set.
func Configured() bool {
	return googleAPIKey() != ""
}

// newDefault wires the Google client behind the rate limiter and cache.
func newDefault(ctx context.Context, key string) (Autocomplete, error) {
	g, err := newGoogle(ctx, key)
	if err != nil {
		return nil, err
	}
	cache, err := OpenCache(cachePath())
	if err != nil {
		app.Log("places", "place cache disabled: %v", err)
		cache = nil
	}
	return NewCached(NewRateLimited(g, predictRate, predictBurst), cache), nil
}

// Target is what a selection feeds: the search field and the fetch trigger.
type Target interface {
	SetQuery(text string)
	FetchByCoordinates(ctx context.Context, lat, lon float64)
}

// Adapter attaches an autocomplete capability to one search field.
type Adapter struct {
	ac     Autocomplete
	target Target
}

// Attach binds ac to target. It returns nil when ac is nil.
func Attach(ac Autocomplete, target Target) *Adapter {
	if ac == nil {
		return nil
	}
	return &Adapter{ac: ac, target: target}
}

// Predict returns suggestions for the text typed in the field.
func (a *Adapter) Predict(ctx context.Context, input string) ([]Prediction, error) {
	input = CleanQuery(input)
	if input == "" {
		return nil, nil
	}
	return a.ac.Predict(ctx, input)
}

// Select handles the choice of a suggestion. Places without geometry are
// ignored; selected reports whether a fetch was triggered.
func (a *Adapter) Select(ctx context.Context, placeID, description string) (selected bool, err error) {
	placeID = strings.TrimSpace(placeID)
	if placeID == "" {
		return false, errors.New("place_id is required")
	}

	place, err := a.ac.Lookup(ctx, placeID)
	if err != nil {
		return false, err
	}
	if place == nil || place.Location == nil {
		return false, nil
	}

	a.target.SetQuery(CleanQuery(description))
	a.target.FetchByCoordinates(ctx, place.Location.Lat, place.Location.Lon)
	return true, nil
}

// CleanQuery reduces user text to a single trimmed line without markup.
func CleanQuery(s string) string {
	s = sanitize.SingleLine(s)
	s = sanitize.XSS(s)
	return strings.TrimSpace(s)
}
