package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"croplens/app"
)

const ipAPIBaseURL = "http://ip-api.com/json"

// httpClient is the shared HTTP client with timeout.
var httpClient = &http.Client{Timeout: 10 * time.Second}

type ipAPIResponse struct {
	Status  string  `json:"status"`
	Message string  `json:"message"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	City    string  `json:"city"`
}

// IPLocator approximates the device position from its public address.
type IPLocator struct {
	BaseURL string
	IP      string
}

// NewIPLocator returns a locator for ip. Private or loopback addresses are
// looked up as the server's own public address.
func NewIPLocator(ip string) Locator {
	if parsed := net.ParseIP(ip); parsed == nil || parsed.IsLoopback() || parsed.IsPrivate() {
		ip = ""
	}
	return &IPLocator{BaseURL: ipAPIBaseURL, IP: ip}
}

func (l *IPLocator) Locate(ctx context.Context) (Coordinates, error) {
	apiURL := l.BaseURL
	if l.IP != "" {
		apiURL += "/" + l.IP
	}
	apiURL += "?fields=status,message,lat,lon,city"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return Coordinates{}, err
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := httpClient.Do(req)
	if err != nil {
		app.RecordAPICall("ip_api", "GET", apiURL, 0, time.Since(start), err)
		return Coordinates{}, &PositionError{Code: PositionUnavailable, Message: fmt.Sprintf("location lookup failed: %v", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil || resp.StatusCode != http.StatusOK {
		if err == nil {
			err = fmt.Errorf("ip-api returned status %d", resp.StatusCode)
		}
		app.RecordAPICall("ip_api", "GET", apiURL, resp.StatusCode, time.Since(start), err)
		return Coordinates{}, &PositionError{Code: PositionUnavailable, Message: "location lookup failed"}
	}

	var result ipAPIResponse
	if err := json.Unmarshal(body, &result); err != nil {
		app.RecordAPICall("ip_api", "GET", apiURL, resp.StatusCode, time.Since(start), err)
		return Coordinates{}, &PositionError{Code: PositionUnavailable, Message: "location lookup failed"}
	}
	app.RecordAPICall("ip_api", "GET", apiURL, resp.StatusCode, time.Since(start), nil)

	if result.Status != "success" {
		return Coordinates{}, &PositionError{Code: PositionUnavailable, Message: result.Message}
	}
	return Coordinates{Lat: result.Lat, Lon: result.Lon}, nil
}
