package insights

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"croplens/geo"
	"croplens/places"
)

type fakePlaces struct{}

func (fakePlaces) Predict(ctx context.Context, input string) ([]places.Prediction, error) {
	return []places.Prediction{{PlaceID: "nbo", Description: input + ", Kenya"}}, nil
}

func (fakePlaces) Lookup(ctx context.Context, placeID string) (*places.Place, error) {
	if placeID == "nbo" {
		return &places.Place{ID: "nbo", Location: &geo.Coordinates{Lat: -1.29, Lon: 36.82}}, nil
	}
	return &places.Place{ID: placeID}, nil
}

func newTestServer(t *testing.T, f Fetcher, ac places.Autocomplete) (*httptest.Server, *Views) {
	t.Helper()
	views := NewViews(f, newFakeRenderer(), ac != nil)
	h := &Handler{Views: views}
	if ac != nil {
		h.Places = func(context.Context) places.Autocomplete { return ac }
	}
	mux := http.NewServeMux()
	h.Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(func() {
		srv.Close()
		views.Close()
	})
	return srv, views
}

func viewID(t *testing.T, resp *http.Response) string {
	t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name == viewCookie {
			return c.Value
		}
	}
	t.Fatal("no view cookie")
	return ""
}

func post(t *testing.T, srv *httptest.Server, path, id string, form url.Values) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, srv.URL+path, strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if id != "" {
		req.AddCookie(&http.Cookie{Name: viewCookie, Value: id})
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	return resp
}

func TestIndexMountsView(t *testing.T) {
	srv, views := newTestServer(t, &stubFetcher{}, nil)

	resp, err := http.Get(srv.URL + "/insights")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	id := viewID(t, resp)
	assert.NotNil(t, views.Get(id))

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, 1, doc.Find("#insights").Length())
	_, ok := doc.Find("#place-search").Attr("data-autocomplete")
	assert.False(t, ok)
}

func TestInsightsJSON(t *testing.T) {
	f := &stubFetcher{data: sample()}
	srv, _ := newTestServer(t, f, nil)

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/insights?lat=0.5&lon=35", nil)
	req.Header.Set("Accept", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var s State
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&s))
	assert.False(t, s.Loading)
	require.NotNil(t, s.Data)
	assert.Equal(t, 23.456, s.Data.Temperature())
	assert.Equal(t, Coordinates{Lat: 0.5, Lon: 35}, f.Last())
}

func TestInsightsJSONBadCoordinates(t *testing.T) {
	srv, _ := newTestServer(t, &stubFetcher{}, nil)

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/insights?lat=north&lon=35", nil)
	req.Header.Set("Accept", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestFetchIsAsynchronous(t *testing.T) {
	f := &stubFetcher{data: sample()}
	srv, views := newTestServer(t, f, nil)

	resp := post(t, srv, "/insights/fetch", "", url.Values{"lat": {"-0.1"}, "lon": {"34.7"}})
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	v := views.Get(viewID(t, resp))
	require.NotNil(t, v)

	require.Eventually(t, func() bool { return v.State().Data != nil }, time.Second, 5*time.Millisecond)
	assert.Equal(t, Coordinates{Lat: -0.1, Lon: 34.7}, f.Last())

	resp, err := http.Get(srv.URL + "/insights/fetch")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestLocate(t *testing.T) {
	f := &stubFetcher{data: sample()}
	srv, views := newTestServer(t, f, nil)
	id := views.Mount("").ID

	post(t, srv, "/insights/locate", id, url.Values{"unavailable": {"1"}})
	v := views.Get(id)
	require.Eventually(t, func() bool { return v.State().Error == "Geolocation unavailable" }, time.Second, 5*time.Millisecond)
	assert.Zero(t, f.calls.Load())

	post(t, srv, "/insights/locate", id, url.Values{"code": {"1"}, "error": {"User denied Geolocation"}})
	require.Eventually(t, func() bool { return v.State().Error == "User denied Geolocation" }, time.Second, 5*time.Millisecond)
	assert.Zero(t, f.calls.Load())

	post(t, srv, "/insights/locate", id, url.Values{"lat": {"0.3"}, "lon": {"32.6"}})
	require.Eventually(t, func() bool { return v.State().Data != nil }, time.Second, 5*time.Millisecond)
	assert.Equal(t, Coordinates{Lat: 0.3, Lon: 32.6}, f.Last())
}

func TestPlacesDisabled(t *testing.T) {
	srv, _ := newTestServer(t, &stubFetcher{}, nil)

	resp, err := http.Get(srv.URL + "/insights/places?q=Nai")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPlacesLoadedOnFirstMount(t *testing.T) {
	var built atomic.Int32
	loader := &places.Loader{
		Key: func() string { return "test-key" },
		New: func(ctx context.Context, key string) (places.Autocomplete, error) {
			built.Add(1)
			return fakePlaces{}, nil
		},
	}
	views := NewViews(&stubFetcher{}, newFakeRenderer(), true)
	defer views.Close()
	h := &Handler{Views: views, Places: loader.Load}
	mux := http.NewServeMux()
	h.Register(mux)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	assert.Zero(t, built.Load())

	for i := 0; i < 3; i++ {
		resp, err := http.Get(srv.URL + "/insights")
		require.NoError(t, err)
		resp.Body.Close()
	}
	assert.Equal(t, int32(1), built.Load())

	resp, err := http.Get(srv.URL + "/insights/places?q=Kitale")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(1), built.Load())
}

func TestPlacesAndSelect(t *testing.T) {
	f := &stubFetcher{data: sample()}
	srv, views := newTestServer(t, f, fakePlaces{})
	id := views.Mount("").ID

	resp, err := http.Get(srv.URL + "/insights/places?q=Nairobi")
	require.NoError(t, err)
	var preds []places.Prediction
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&preds))
	resp.Body.Close()
	require.Len(t, preds, 1)
	assert.Equal(t, "Nairobi, Kenya", preds[0].Description)

	resp = post(t, srv, "/insights/select", id, url.Values{"place_id": {"nbo"}, "description": {"Nairobi, Kenya"}})
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	v := views.Get(id)
	require.Eventually(t, func() bool { return v.State().Data != nil }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "Nairobi, Kenya", v.Query())
	assert.Equal(t, Coordinates{Lat: -1.29, Lon: 36.82}, f.Last())

	resp = post(t, srv, "/insights/select", id, url.Values{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLiveStreamsUpdates(t *testing.T) {
	srv, views := newTestServer(t, &stubFetcher{data: sample()}, nil)
	v := views.Mount("")

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/insights/live"
	header := http.Header{}
	header.Set("Cookie", viewCookie+"="+v.ID)
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, header)
	require.NoError(t, err)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var u Update
	require.NoError(t, conn.ReadJSON(&u))
	assert.Contains(t, u.HTML, `id="insights"`)
	require.Eventually(t, func() bool { return v.Watchers() == 1 }, time.Second, 5*time.Millisecond)

	go v.FetchByCoordinates(context.Background(), 1, 2)
	for !strings.Contains(u.HTML, "23.5°C") {
		require.NoError(t, conn.ReadJSON(&u))
	}
	assert.Equal(t, v.State().Version, u.Version)

	conn.Close()
	require.Eventually(t, func() bool { return v.Watchers() == 0 }, time.Second, 5*time.Millisecond)
}
