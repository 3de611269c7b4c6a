package insights

import (
	"encoding/json"
	"fmt"
	"html"
	"strconv"
	"strings"

	"croplens/app"
)

// Drawing surfaces for the two chart panels.
const (
	RainSurface = "rain-chart"
	PHSurface   = "ph-chart"
)

const defaultIcon = "🌱"

var cropIcons = map[string]string{
	"maize":        "🌽",
	"corn":         "🌽",
	"wheat":        "🌾",
	"barley":       "🌾",
	"sorghum":      "🌾",
	"millet":       "🌾",
	"rice":         "🍚",
	"beans":        "🫘",
	"soybean":      "🫘",
	"groundnut":    "🥜",
	"peanut":       "🥜",
	"cassava":      "🍠",
	"sweet potato": "🍠",
	"potato":       "🥔",
	"tomato":       "🍅",
	"banana":       "🍌",
	"coffee":       "☕",
	"tea":          "🍵",
	"sugarcane":    "🎋",
	"sunflower":    "🌻",
	"grapes":       "🍇",
	"none":         "❌",
}

// CropIcon returns the icon for a crop name, or the generic crop icon.
func CropIcon(crop string) string {
	if icon, ok := cropIcons[strings.ToLower(strings.TrimSpace(crop))]; ok {
		return icon
	}
	return defaultIcon
}

// Input is the view state that is not part of State.
type Input struct {
	// Query is the text shown in the search field.
	Query string
	// Autocomplete is set when place search is available.
	Autocomplete bool
	// Charts holds the options of the charts bound to each surface.
	Charts map[string]json.RawMessage
}

// Render maps a state to the view tree. The same arguments always produce
// the same html.
func Render(s State, in Input) string {
	var b strings.Builder

	b.WriteString(`<div id="insights" data-version="`)
	b.WriteString(strconv.FormatUint(s.Version, 10))
	b.WriteString(`">`)

	b.WriteString(renderHeader(s, in))

	if s.Error != "" {
		b.WriteString(app.Banner("error", html.EscapeString(s.Error)))
	}
	if s.Data != nil && s.Data.Note != "" {
		b.WriteString(app.Banner("info", app.RenderString(s.Data.Note)))
	}

	if s.Data != nil {
		b.WriteString(renderStats(s.Data))
	}

	b.WriteString(app.Row(
		renderChartPanel("Weekly rainfall (mm)", RainSurface, in.Charts) +
			renderChartPanel("Soil pH", PHSurface, in.Charts),
	))

	b.WriteString(renderRecommendations(s.Data))

	b.WriteString(`</div>`)
	return b.String()
}

func renderHeader(s State, in Input) string {
	var b strings.Builder
	b.WriteString(`<header class="insights-header">`)
	b.WriteString(`<h1>Crop Insights</h1>`)
	b.WriteString(app.Desc("Weather, soil and crop suggestions for any location"))
	b.WriteString(`<div class="insights-controls">`)

	b.WriteString(`<div class="place-search"><input id="place-search" type="text" autocomplete="off" placeholder="Search for a place" value="`)
	b.WriteString(html.EscapeString(in.Query))
	b.WriteString(`"`)
	if in.Autocomplete {
		b.WriteString(` data-autocomplete="1"`)
	}
	b.WriteString(`><ul id="place-predictions" class="predictions"></ul></div>`)

	b.WriteString(`<button id="btn-locate" type="button" class="btn"`)
	if s.Loading {
		b.WriteString(` disabled>Locating…</button>`)
	} else {
		b.WriteString(`>📍 Use my location</button>`)
	}

	b.WriteString(`</div></header>`)
	return b.String()
}

// number formats a present value with format; an absent one shows as a bare 0.
func number(f *float64, format string) string {
	if f == nil {
		return "0"
	}
	return fmt.Sprintf(format, *f)
}

func renderStats(in *Insights) string {
	var temp, rain, ph, lat, lon *float64
	if in.Weather != nil {
		temp, rain = in.Weather.AvgTempC, in.Weather.WeeklyRainMM
	}
	if in.Soil != nil {
		ph = in.Soil.PH
	}
	if in.Location != nil {
		lat, lon = in.Location.Lat, in.Location.Lon
	}

	stats := app.Stat("Avg temperature", number(temp, "%.1f")+"°C") +
		app.Stat("Weekly rainfall", number(rain, "%.0f")+"mm") +
		app.Stat("Soil pH", number(ph, "%.1f")) +
		app.Stat("Location", number(lat, "%.2f")+", "+number(lon, "%.2f"))
	return app.CardDivClass("stats", app.Grid(stats))
}

func renderChartPanel(title, surface string, charts map[string]json.RawMessage) string {
	var b strings.Builder
	b.WriteString(`<h3>`)
	b.WriteString(html.EscapeString(title))
	b.WriteString(`</h3><div class="chart-surface" id="`)
	b.WriteString(surface)
	b.WriteString(`"`)
	if opts, ok := charts[surface]; ok && len(opts) > 0 {
		b.WriteString(` data-options="`)
		b.WriteString(html.EscapeString(string(opts)))
		b.WriteString(`"`)
	}
	b.WriteString(`></div>`)
	return app.CardDivClass("chart-panel", b.String())
}

func renderRecommendations(in *Insights) string {
	var b strings.Builder
	b.WriteString(`<h3>Recommended crops</h3>`)
	if in == nil {
		b.WriteString(app.Empty("Search for a place or use your location to see crop recommendations."))
		return app.CardDivClass("recommendations", b.String())
	}

	b.WriteString(`<div class="chips">`)
	for _, rec := range in.Recommendations {
		b.WriteString(app.Chip(CropIcon(rec.Crop), rec.Crop, rec.Reason))
	}
	b.WriteString(`</div>`)
	return app.CardDivClass("recommendations", b.String())
}
