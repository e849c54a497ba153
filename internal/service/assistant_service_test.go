package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ivabot-go/internal/config"
	"ivabot-go/internal/model"
	"ivabot-go/pkg/llm"
	"ivabot-go/pkg/weatherapi"
)

type staticRouter Intent

func (r staticRouter) Classify(context.Context, string) Intent { return Intent(r) }

type fakeLLM struct {
	answer string
	err    error
	got    []llm.Message
	gen    *llm.GenerationParams
}

func (f *fakeLLM) StreamChatMessages(ctx context.Context, msgs []llm.Message, gen *llm.GenerationParams, w llm.ChunkWriter) error {
	return errors.New("not used")
}

func (f *fakeLLM) Complete(_ context.Context, msgs []llm.Message, gen *llm.GenerationParams) (string, error) {
	f.got = msgs
	f.gen = gen
	return f.answer, f.err
}

type fakeWeather struct {
	city string
	err  error
}

func (f *fakeWeather) Current(_ context.Context, city string) (*weatherapi.Observation, error) {
	f.city = city
	if f.err != nil {
		return nil, f.err
	}
	return &weatherapi.Observation{City: city, Status: "clear sky", WindSpeed: 2, Humidity: 40, Temp: 21.5}, nil
}

type memHistory struct {
	sessions map[string][]model.ChatMessage
	getErr   error
}

func newMemHistory() *memHistory {
	return &memHistory{sessions: map[string][]model.ChatMessage{}}
}

func (m *memHistory) GetHistory(_ context.Context, sessionID string) ([]model.ChatMessage, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.sessions[sessionID], nil
}

func (m *memHistory) AppendInteraction(_ context.Context, sessionID, q, a string) error {
	m.sessions[sessionID] = append(m.sessions[sessionID],
		model.ChatMessage{Role: "user", Content: q},
		model.ChatMessage{Role: "assistant", Content: a})
	return nil
}

func TestReplyWeather(t *testing.T) {
	w := &fakeWeather{}
	hist := newMemHistory()
	svc := NewAssistantService(staticRouter(IntentWeather), &fakeLLM{}, w, hist, config.LLMConfig{}, "London")

	resp, err := svc.Reply(context.Background(), model.BackendChatRequest{UserInput: "weather in new york??", SessionID: "s1"})
	require.NoError(t, err)

	assert.Equal(t, "New York", w.city)
	assert.Equal(t, SourceTool, resp.Source)
	assert.Equal(t, model.ToolWeather, resp.Tool)
	assert.Contains(t, resp.Response, "In New York, the current weather is as follows:")
	require.NotNil(t, resp.Weather)
	assert.InDelta(t, 21.5, resp.Weather.Temperature, 1e-9)
	assert.Len(t, hist.sessions["s1"], 2)
}

func TestReplyWeatherNotFound(t *testing.T) {
	svc := NewAssistantService(staticRouter(IntentWeather), &fakeLLM{}, &fakeWeather{err: errors.New("404")}, newMemHistory(), config.LLMConfig{}, "London")

	resp, err := svc.Reply(context.Background(), model.BackendChatRequest{UserInput: "weather in atlantis"})
	require.NoError(t, err)
	assert.Equal(t, "I'm sorry, I couldn't find weather information for 'Atlantis'. Please check the spelling.", resp.Response)
	assert.Nil(t, resp.Weather)
	assert.Equal(t, model.ToolWeather, resp.Tool)
}

func TestReplyLLMUsesHistoryAndDefaultSession(t *testing.T) {
	l := &fakeLLM{answer: "Hi there!"}
	hist := newMemHistory()
	hist.sessions[DefaultSessionID] = []model.ChatMessage{
		{Role: "user", Content: "earlier"},
		{Role: "assistant", Content: "reply"},
	}
	cfg := config.LLMConfig{SystemPrompt: "be brief", Generation: config.LLMGenerationConfig{Temperature: 0.2}}
	svc := NewAssistantService(staticRouter(IntentGreeting), l, &fakeWeather{}, hist, cfg, "")

	resp, err := svc.Reply(context.Background(), model.BackendChatRequest{UserInput: "hello"})
	require.NoError(t, err)

	assert.Equal(t, &model.BackendChatResponse{Response: "Hi there!", Source: SourceLLM, Tool: ToolNone}, resp)
	require.Len(t, l.got, 4)
	assert.Equal(t, "system", l.got[0].Role)
	assert.Equal(t, "earlier", l.got[1].Content)
	assert.Equal(t, llm.Message{Role: "user", Content: "hello"}, l.got[3])
	require.NotNil(t, l.gen)
	assert.InDelta(t, 0.2, *l.gen.Temperature, 1e-9)
	assert.Nil(t, l.gen.MaxTokens)
	assert.Len(t, hist.sessions[DefaultSessionID], 4)
}

func TestReplyLLMErrorIsReturned(t *testing.T) {
	hist := newMemHistory()
	svc := NewAssistantService(staticRouter(IntentDefaultLLM), &fakeLLM{err: errors.New("down")}, &fakeWeather{}, hist, config.LLMConfig{}, "")

	_, err := svc.Reply(context.Background(), model.BackendChatRequest{UserInput: "tell me a joke", SessionID: "s"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "down")
	assert.Empty(t, hist.sessions["s"])
}

func TestReplyLLMIgnoresHistoryFailure(t *testing.T) {
	l := &fakeLLM{answer: "ok"}
	hist := newMemHistory()
	hist.getErr = errors.New("redis down")
	svc := NewAssistantService(staticRouter(IntentDefaultLLM), l, &fakeWeather{}, hist, config.LLMConfig{}, "")

	resp, err := svc.Reply(context.Background(), model.BackendChatRequest{UserInput: "q"})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Response)
	assert.Equal(t, []llm.Message{{Role: "user", Content: "q"}}, l.got)
	assert.Nil(t, l.gen)
}

func TestHistoryDefaultsSession(t *testing.T) {
	hist := newMemHistory()
	hist.sessions[DefaultSessionID] = []model.ChatMessage{{Role: "user", Content: "hi"}}
	svc := NewAssistantService(staticRouter(IntentGreeting), &fakeLLM{}, &fakeWeather{}, hist, config.LLMConfig{}, "")

	msgs, err := svc.History(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, msgs, 1)
}

func TestExtractCity(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"What's the weather in paris?", "Paris"},
		{"weather in new york??", "New York"},
		{"Is it raining in Rio de Janeiro!", "Rio De Janeiro"},
		{"what is the weather like", "London"},
		{"weather in ", "London"},
		{"temperature in Berlin in winter", "Winter"},
		{"raining in SAN francisco.", "San Francisco"},
		{"weather in Inverness", "Inverness"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractCity(tt.input, "London"))
		})
	}
}
