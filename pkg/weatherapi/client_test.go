package weatherapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ivabot-go/internal/config"
	"ivabot-go/internal/weather"
)

// testKey 满足 OpenWeatherMap key 的 32 位长度要求。
const testKey = "0123456789abcdef0123456789abcdef"

const berlinResponse = `{
  "name": "Berlin",
  "weather": [{"description": "light rain"}],
  "main": {"temp": 14.5, "feels_like": 13.9, "temp_min": 13.1, "temp_max": 15.2, "humidity": 80},
  "wind": {"speed": 3.2, "deg": 250},
  "rain": {"1h": 0.4},
  "clouds": {"all": 75}
}`

func TestCurrent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/data/2.5/weather", r.URL.Path)
		assert.Equal(t, "Berlin", r.URL.Query().Get("q"))
		assert.Equal(t, testKey, r.URL.Query().Get("appid"))
		assert.Equal(t, "metric", r.URL.Query().Get("units"))
		_, _ = w.Write([]byte(berlinResponse))
	}))
	defer srv.Close()

	obs, err := NewClient(config.WeatherConfig{APIKey: testKey, BaseURL: srv.URL}).Current(context.Background(), "Berlin")
	require.NoError(t, err)

	assert.Equal(t, "light rain", obs.Status)
	assert.Equal(t, 80, obs.Humidity)
	assert.InDelta(t, 14.5, obs.Temp, 1e-9)
	require.NotNil(t, obs.Rain1h)
	assert.InDelta(t, 0.4, *obs.Rain1h, 1e-9)

	report := obs.Report()
	assert.Equal(t, "Berlin", report.Location)
	assert.InDelta(t, 3.2, report.WindSpeed, 1e-9)
}

func TestTextMatchesExtractorTemplate(t *testing.T) {
	obs := &Observation{City: "Berlin", Status: "light rain", WindSpeed: 3.2, WindDeg: 250, Humidity: 80, Temp: 14.5}

	f := weather.Extract(obs.Text())
	assert.Equal(t, "Berlin", f.Location)
	assert.Equal(t, "14.5", f.Temperature)
	assert.Equal(t, "15", f.RoundedTemperature())
	assert.Equal(t, "80", f.Humidity)
	assert.Equal(t, "3.2", f.Wind)
	assert.Equal(t, weather.IconRain, f.Icon())
	assert.Contains(t, obs.Text(), "Rain: {}")
}

func TestCurrentNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"cod":"404","message":"city not found"}`))
	}))
	defer srv.Close()

	_, err := NewClient(config.WeatherConfig{APIKey: testKey, BaseURL: srv.URL}).Current(context.Background(), "Atlantis")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "city not found")
}

func TestCurrentWithoutRain(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"name":"Cairo","weather":[{"description":"clear sky"}],"main":{"temp":30,"humidity":20},"wind":{"speed":1,"deg":0},"clouds":{"all":0}}`))
	}))
	defer srv.Close()

	obs, err := NewClient(config.WeatherConfig{APIKey: testKey, BaseURL: srv.URL}).Current(context.Background(), "Cairo")
	require.NoError(t, err)
	assert.Nil(t, obs.Rain1h)
	assert.Equal(t, "clear sky", obs.Status)
}

func TestCurrentRespectsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(berlinResponse))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewClient(config.WeatherConfig{APIKey: testKey, BaseURL: srv.URL}).Current(ctx, "Berlin")
	assert.Error(t, err)
}
