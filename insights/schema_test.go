package insights

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeComplete(t *testing.T) {
	body := `{
		"location": {"lat": -1.29, "lon": 36.82},
		"weather": {"avg_temp_c": 21.5, "weekly_rain_mm": 30},
		"soil": {"ph": 6.1},
		"recommendations": [{"crop": "Beans", "reason": "nitrogen fixing"}],
		"note": "Short rains expected"
	}`

	in, err := Decode([]byte(body))
	require.NoError(t, err)
	assert.Equal(t, 21.5, in.Temperature())
	assert.Equal(t, 30.0, in.Rainfall())
	assert.Equal(t, 6.1, in.PH())
	assert.Equal(t, Coordinates{Lat: -1.29, Lon: 36.82}, in.Coordinates())
	require.Len(t, in.Recommendations, 1)
	assert.Equal(t, "Beans", in.Recommendations[0].Crop)
	assert.Equal(t, "Short rains expected", in.Note)
}

func TestDecodeAbsentFieldsReadAsZero(t *testing.T) {
	in, err := Decode([]byte(`{"weather": {"avg_temp_c": 18}, "recommendations": []}`))
	require.NoError(t, err)
	assert.Equal(t, 18.0, in.Temperature())
	assert.Zero(t, in.Rainfall())
	assert.Zero(t, in.PH())
	assert.Equal(t, Coordinates{}, in.Coordinates())

	var none *Insights
	assert.Zero(t, none.Temperature())
	assert.Zero(t, none.PH())
}

func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty", ""},
		{"null", "null"},
		{"not json", "<html>oops</html>"},
		{"wrong type", `{"weather": {"avg_temp_c": "hot"}}`},
		{"crop missing", `{"recommendations": [{"reason": "x"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.body))
			require.Error(t, err)
			var de *DecodeError
			assert.True(t, errors.As(err, &de))
		})
	}
}
