package places

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	placesapi "google.golang.org/api/places/v1"

	"croplens/app"
	"croplens/geo"
)

// googleAPIKey returns the Google Places API key from the environment.
// GMAPS_API_KEY is accepted for older deployments.
func googleAPIKey() string {
	if key := os.Getenv("GOOGLE_API_KEY"); key != "" {
		return key
	}
	return os.Getenv("GMAPS_API_KEY")
}

// google is the Places API (New) backed capability.
type google struct {
	svc *placesapi.Service
}

func newGoogle(ctx context.Context, key string) (*google, error) {
	svc, err := placesapi.NewService(ctx, option.WithAPIKey(key))
	if err != nil {
		return nil, err
	}
	return &google{svc: svc}, nil
}

func (g *google) Predict(ctx context.Context, input string) ([]Prediction, error) {
	start := time.Now()
	resp, err := g.svc.Places.Autocomplete(&placesapi.GoogleMapsPlacesV1AutocompletePlacesRequest{
		Input: input,
	}).Context(ctx).Do()
	app.RecordAPICall("google_places_autocomplete", "POST", "https://places.googleapis.com/v1/places:autocomplete", statusOf(err), time.Since(start), err)
	if err != nil {
		return nil, err
	}

	out := make([]Prediction, 0, len(resp.Suggestions))
	for _, s := range resp.Suggestions {
		p := s.PlacePrediction
		if p == nil || p.PlaceId == "" {
			continue
		}
		desc := ""
		if p.Text != nil {
			desc = p.Text.Text
		}
		out = append(out, Prediction{PlaceID: p.PlaceId, Description: desc})
	}
	return out, nil
}

// Lookup asks only for the location field.
func (g *google) Lookup(ctx context.Context, placeID string) (*Place, error) {
	name := placeID
	if !strings.HasPrefix(name, "places/") {
		name = "places/" + name
	}

	start := time.Now()
	res, err := g.svc.Places.Get(name).Fields("location").Context(ctx).Do()
	app.RecordAPICall("google_places_details", "GET", "https://places.googleapis.com/v1/"+name, statusOf(err), time.Since(start), err)
	if err != nil {
		return nil, err
	}

	place := &Place{ID: strings.TrimPrefix(name, "places/")}
	if res.Location != nil {
		place.Location = &geo.Coordinates{Lat: res.Location.Latitude, Lon: res.Location.Longitude}
	}
	return place, nil
}

func statusOf(err error) int {
	if err == nil {
		return 200
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code
	}
	return 0
}
