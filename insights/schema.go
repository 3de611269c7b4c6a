package insights

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"croplens/geo"
)

// Coordinates is the location a fetch is made for. No range validation is
// performed here; that is the backend's call.
type Coordinates = geo.Coordinates

// Insights is the combined weather/soil/recommendation payload for a coordinate.
// Numeric fields are optional and render as zero when absent.
type Insights struct {
	Location        *Location        `json:"location,omitempty"`
	Weather         *Weather         `json:"weather,omitempty"`
	Soil            *Soil            `json:"soil,omitempty"`
	Recommendations []Recommendation `json:"recommendations" validate:"dive"`
	Note            string           `json:"note,omitempty"`
}

type Location struct {
	Lat *float64 `json:"lat,omitempty"`
	Lon *float64 `json:"lon,omitempty"`
}

type Weather struct {
	AvgTempC     *float64 `json:"avg_temp_c,omitempty"`
	WeeklyRainMM *float64 `json:"weekly_rain_mm,omitempty"`
}

type Soil struct {
	PH *float64 `json:"ph,omitempty"`
}

type Recommendation struct {
	Crop   string `json:"crop" validate:"required"`
	Reason string `json:"reason"`
}

// DecodeError is returned when the backend body does not match the schema.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("invalid insights response: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

var validate = validator.New()

// Decode parses and validates a backend response body.
func Decode(body []byte) (*Insights, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, &DecodeError{Err: errors.New("empty body")}
	}

	var in Insights
	if err := json.Unmarshal(trimmed, &in); err != nil {
		return nil, &DecodeError{Err: err}
	}
	if err := validate.Struct(&in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return nil, &DecodeError{Err: fmt.Errorf("%s failed %q", verrs[0].Namespace(), verrs[0].Tag())}
		}
		return nil, &DecodeError{Err: err}
	}
	return &in, nil
}

func value(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}

// Temperature returns the average temperature, zero when absent.
func (in *Insights) Temperature() float64 {
	if in == nil || in.Weather == nil {
		return 0
	}
	return value(in.Weather.AvgTempC)
}

// Rainfall returns the weekly rainfall in millimetres, zero when absent.
func (in *Insights) Rainfall() float64 {
	if in == nil || in.Weather == nil {
		return 0
	}
	return value(in.Weather.WeeklyRainMM)
}

// PH returns the soil pH, zero when absent.
func (in *Insights) PH() float64 {
	if in == nil || in.Soil == nil {
		return 0
	}
	return value(in.Soil.PH)
}

// Coordinates returns the location the insights were computed for.
func (in *Insights) Coordinates() Coordinates {
	if in == nil || in.Location == nil {
		return Coordinates{}
	}
	return Coordinates{Lat: value(in.Location.Lat), Lon: value(in.Location.Lon)}
}
