package chatui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ivabot-go/internal/model"
	"ivabot-go/internal/weather"
)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer()
	require.NoError(t, err)
	return r
}

func TestTranscriptEmptyState(t *testing.T) {
	html, err := newTestRenderer(t).Transcript(State{})
	require.NoError(t, err)
	assert.Contains(t, html, "How can I help you today?")
	assert.NotContains(t, html, "typing")
}

func TestTranscriptWeatherCard(t *testing.T) {
	s := State{Messages: []model.Message{
		{Role: model.RoleUser, Content: "weather in Berlin"},
		{
			Role:    model.RoleBot,
			Tool:    model.ToolWeather,
			Content: "In Berlin, Current: 14.5°C, Detailed status: light rain, Humidity: 80%, Wind speed: 3.2 m/s",
		},
	}}

	html, err := newTestRenderer(t).Transcript(s)
	require.NoError(t, err)

	assert.Contains(t, html, "I found the current weather for you:")
	assert.Contains(t, html, "Berlin")
	assert.Contains(t, html, "15°")
	assert.Contains(t, html, "light rain")
	assert.Contains(t, html, "80%")
	assert.Contains(t, html, "3.2 m/s")
	assert.Contains(t, html, string(weather.IconRain))
	assert.NotContains(t, html, "How can I help you today?")
}

func TestTranscriptWeatherFallbacksRender(t *testing.T) {
	s := State{Messages: []model.Message{
		{Role: model.RoleBot, Tool: model.ToolWeather, Content: "no data"},
	}}

	html, err := newTestRenderer(t).Transcript(s)
	require.NoError(t, err)
	assert.Contains(t, html, ">Location<")
	assert.Contains(t, html, "NaN°")
	assert.Contains(t, html, "unknown")
	assert.Contains(t, html, "--%")
	assert.Contains(t, html, "0 m/s")
}

func TestTranscriptPlainTextIsEscaped(t *testing.T) {
	s := State{
		Messages: []model.Message{{Role: model.RoleBot, Content: "<b>hi</b>", Tool: "none"}},
		Loading:  true,
	}

	html, err := newTestRenderer(t).Transcript(s)
	require.NoError(t, err)
	assert.Contains(t, html, "&lt;b&gt;hi&lt;/b&gt;")
	assert.NotContains(t, html, "weather-card")
	assert.Contains(t, html, "typing")
}

func TestPageIncludesTranscriptAndSocket(t *testing.T) {
	var sb strings.Builder
	err := newTestRenderer(t).Page(&sb, State{}, "/ws")
	require.NoError(t, err)

	html := sb.String()
	assert.Contains(t, html, "AI Assistant")
	assert.Contains(t, html, Version)
	assert.Contains(t, html, "How can I help you today?")
	assert.Contains(t, html, "Type a message...")
}
