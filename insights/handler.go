package insights

import (
	"context"
	"net/http"
	"strconv"

	"croplens/app"
	"croplens/geo"
	"croplens/places"
)

const viewCookie = "view"

// Handler serves the InsightsView.
type Handler struct {
	Views *Views
	// Places returns the place search capability, or nil when it is not
	// configured. It is first called when a browser mounts the page, and
	// is expected to do its loading only once.
	Places func(ctx context.Context) places.Autocomplete
	// Fallback locates clients whose browser has no geolocation. May be nil.
	Fallback func(clientIP string) geo.Locator
}

// Register adds the routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/insights", app.Route(app.RouteOpts{
		JSON: h.handleJSON,
		HTML: h.Index,
	}))
	mux.HandleFunc("/insights/fetch", h.handleFetch)
	mux.HandleFunc("/insights/locate", h.handleLocate)
	mux.HandleFunc("/insights/places", h.handlePlaces)
	mux.HandleFunc("/insights/select", h.handleSelect)
	mux.HandleFunc("/insights/live", h.Live)
}

// view returns the view of the requesting browser, mounting one if needed.
func (h *Handler) view(w http.ResponseWriter, r *http.Request) *View {
	var id string
	if c, err := r.Cookie(viewCookie); err == nil && c != nil {
		id = c.Value
	}
	v := h.Views.Mount(id)
	if v.ID != id {
		http.SetCookie(w, &http.Cookie{
			Name:     viewCookie,
			Value:    v.ID,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return v
}

// autocomplete returns the place search capability, loading it on first use.
func (h *Handler) autocomplete(ctx context.Context) places.Autocomplete {
	if h.Places == nil {
		return nil
	}
	return h.Places(context.WithoutCancel(ctx))
}

// background detaches a trigger from the request so it outlives the response.
func background(r *http.Request) context.Context {
	return context.WithoutCancel(r.Context())
}

func parseCoordinates(r *http.Request) (lat, lon float64, msg string) {
	latStr := r.FormValue("lat")
	lonStr := r.FormValue("lon")
	if latStr == "" || lonStr == "" {
		return 0, 0, "lat and lon are required"
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return 0, 0, "invalid lat"
	}
	lon, err = strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return 0, 0, "invalid lon"
	}
	return lat, lon, ""
}

// Index renders the page.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	v := h.view(w, r)
	h.autocomplete(r.Context())
	app.Respond(w, r, app.Response{
		Title:       "Crop Insights",
		Description: "Weather, soil and crop suggestions for any location",
		HTML:        v.HTML(),
	})
}

// handleJSON fetches synchronously and returns the settled state.
func (h *Handler) handleJSON(w http.ResponseWriter, r *http.Request) {
	v := h.view(w, r)
	if r.URL.Query().Get("lat") == "" && r.URL.Query().Get("lon") == "" {
		app.RespondJSON(w, v.State())
		return
	}

	lat, lon, msg := parseCoordinates(r)
	if msg != "" {
		app.RespondError(w, http.StatusBadRequest, msg)
		return
	}
	app.RespondJSON(w, v.Controller.FetchByCoordinates(r.Context(), lat, lon))
}

// POST /insights/fetch starts a fetch for lat/lon.
func (h *Handler) handleFetch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		app.MethodNotAllowed(w, http.MethodPost)
		return
	}
	v := h.view(w, r)
	lat, lon, msg := parseCoordinates(r)
	if msg != "" {
		app.RespondError(w, http.StatusBadRequest, msg)
		return
	}

	go v.Controller.FetchByCoordinates(background(r), lat, lon)
	w.WriteHeader(http.StatusAccepted)
}

// POST /insights/locate carries what the browser's geolocation returned.
func (h *Handler) handleLocate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		app.MethodNotAllowed(w, http.MethodPost)
		return
	}
	v := h.view(w, r)
	loc := geo.FromRequest(r, h.Fallback)

	go v.Controller.UseDeviceLocation(background(r), loc)
	w.WriteHeader(http.StatusAccepted)
}

// GET /insights/places?q= returns autocomplete suggestions.
func (h *Handler) handlePlaces(w http.ResponseWriter, r *http.Request) {
	ac := h.autocomplete(r.Context())
	if ac == nil {
		app.RespondError(w, http.StatusNotFound, "place search is not configured")
		return
	}
	v := h.view(w, r)

	preds, err := places.Attach(ac, v).Predict(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		app.Log("insights", "place predictions failed: %v", err)
		app.RespondError(w, http.StatusBadGateway, "place search failed")
		return
	}
	if preds == nil {
		preds = []places.Prediction{}
	}
	app.RespondJSON(w, preds)
}

// POST /insights/select handles the choice of a suggestion.
func (h *Handler) handleSelect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		app.MethodNotAllowed(w, http.MethodPost)
		return
	}
	ac := h.autocomplete(r.Context())
	if ac == nil {
		app.RespondError(w, http.StatusNotFound, "place search is not configured")
		return
	}
	v := h.view(w, r)
	placeID := r.FormValue("place_id")
	if placeID == "" {
		app.RespondError(w, http.StatusBadRequest, "place_id is required")
		return
	}
	description := r.FormValue("description")
	adapter := places.Attach(ac, v)

	go func(ctx context.Context) {
		selected, err := adapter.Select(ctx, placeID, description)
		if err != nil {
			app.Log("insights", "place %s lookup failed: %v", placeID, err)
			return
		}
		if !selected {
			app.Log("insights", "place %s has no geometry, ignored", placeID)
		}
	}(background(r))
	w.WriteHeader(http.StatusAccepted)
}
