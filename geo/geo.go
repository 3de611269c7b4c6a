// Package geo provides the device location capability: a position reported
// by the browser, or a server side lookup of the client address.
package geo

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
)

// ErrUnavailable is returned when no location capability exists.
var ErrUnavailable = errors.New("Geolocation unavailable")

// Coordinates is a free-form latitude/longitude pair.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Position error codes, matching the browser geolocation API.
const (
	PermissionDenied    = 1
	PositionUnavailable = 2
	Timeout             = 3
)

// PositionError is a platform failure. Message is shown to the user as is.
type PositionError struct {
	Code    int
	Message string
}

func (e *PositionError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	switch e.Code {
	case PermissionDenied:
		return "User denied Geolocation"
	case Timeout:
		return "Timeout expired"
	default:
		return "Position unavailable"
	}
}

// Locator resolves the current position of the device.
type Locator interface {
	Locate(ctx context.Context) (Coordinates, error)
}

// Reported is a position (or failure) already obtained by the browser.
type Reported struct {
	Position Coordinates
	Err      error
}

func (r Reported) Locate(ctx context.Context) (Coordinates, error) {
	if r.Err != nil {
		return Coordinates{}, r.Err
	}
	return r.Position, nil
}

// FromRequest picks the locator for a "use my location" form post.
//
// The browser sends lat/lon on success, error/code when the platform
// refused, or unavailable=1 when it has no geolocation at all. In the last
// case fallback is used, which may be nil.
func FromRequest(r *http.Request, fallback func(clientIP string) Locator) Locator {
	if r.FormValue("unavailable") != "" {
		if fallback == nil {
			return nil
		}
		return fallback(ClientIP(r))
	}

	if msg := r.FormValue("error"); msg != "" || r.FormValue("code") != "" {
		code, _ := strconv.Atoi(r.FormValue("code"))
		return Reported{Err: &PositionError{Code: code, Message: msg}}
	}

	lat, errLat := strconv.ParseFloat(r.FormValue("lat"), 64)
	lon, errLon := strconv.ParseFloat(r.FormValue("lon"), 64)
	if errLat != nil || errLon != nil {
		return Reported{Err: &PositionError{Code: PositionUnavailable}}
	}
	return Reported{Position: Coordinates{Lat: lat, Lon: lon}}
}

// ClientIP returns the address of the client, preferring X-Forwarded-For.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.Index(fwd, ","); i >= 0 {
			fwd = fwd[:i]
		}
		return strings.TrimSpace(fwd)
	}
	host := r.RemoteAddr
	if i := strings.LastIndex(host, ":"); i >= 0 {
		host = host[:i]
	}
	return strings.Trim(host, "[]")
}
