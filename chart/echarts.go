package chart

import (
	"encoding/json"
	"sync/atomic"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// ECharts draws charts as ECharts options for the browser to instantiate.
type ECharts struct {
	// Height of the drawing surface, e.g. "220px".
	Height string
}

type echart struct {
	surface   string
	options   json.RawMessage
	destroyed atomic.Bool
}

func (c *echart) Surface() string          { return c.surface }
func (c *echart) Options() json.RawMessage { return c.options }
func (c *echart) Destroy()                 { c.destroyed.Store(true) }
func (c *echart) Destroyed() bool          { return c.destroyed.Load() }

func (e ECharts) Draw(surface string, spec Spec) (Chart, error) {
	bar := charts.NewBar()

	height := e.Height
	if height == "" {
		height = "220px"
	}

	yAxis := opts.YAxis{}
	if spec.YMin != nil {
		yAxis.Min = *spec.YMin
	}
	if spec.YMax != nil {
		yAxis.Max = *spec.YMax
	}

	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			ChartID: surface,
			Width:   "100%",
			Height:  height,
		}),
		charts.WithTitleOpts(opts.Title{Title: spec.Title}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(spec.Legend)}),
		charts.WithYAxisOpts(yAxis),
	)

	data := make([]opts.BarData, 0, len(spec.Values))
	for _, v := range spec.Values {
		data = append(data, opts.BarData{Value: v})
	}
	bar.SetXAxis(spec.Labels).
		AddSeries(spec.Series, data, charts.WithItemStyleOpts(opts.ItemStyle{Color: spec.Color}))

	// copies the x axis labels into the option tree
	bar.Validate()

	raw, err := json.Marshal(bar.JSON())
	if err != nil {
		return nil, err
	}
	return &echart{surface: surface, options: raw}, nil
}
