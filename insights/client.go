package insights

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"croplens/app"
)

// httpClient is the shared HTTP client with timeout.
var httpClient = &http.Client{Timeout: 15 * time.Second}

// StatusError is returned for a non-2xx backend response.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("Request failed: %d", e.StatusCode)
}

// Fetcher retrieves insights for a coordinate.
type Fetcher interface {
	Fetch(ctx context.Context, c Coordinates) (*Insights, error)
}

// Client calls the backend insights endpoint.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// NewClient returns a client for the backend at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{BaseURL: strings.TrimRight(baseURL, "/"), HTTP: httpClient}
}

// Fetch performs GET /api/insights?lat=..&lon=.. and decodes the body.
func (c *Client) Fetch(ctx context.Context, coords Coordinates) (*Insights, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(coords.Lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(coords.Lon, 'f', -1, 64))
	apiURL := c.BaseURL + "/api/insights?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	client := c.HTTP
	if client == nil {
		client = httpClient
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		app.RecordAPICall("insights", "GET", apiURL, 0, time.Since(start), err)
		return nil, fmt.Errorf("insights request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		app.RecordAPICall("insights", "GET", apiURL, resp.StatusCode, time.Since(start), err)
		return nil, fmt.Errorf("insights request failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		callErr := &StatusError{StatusCode: resp.StatusCode}
		app.RecordAPICall("insights", "GET", apiURL, resp.StatusCode, time.Since(start), callErr)
		return nil, callErr
	}

	in, err := Decode(body)
	app.RecordAPICall("insights", "GET", apiURL, resp.StatusCode, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return in, nil
}
