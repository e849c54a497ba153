package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"ivabot-go/internal/config"
	"ivabot-go/internal/model"
	"ivabot-go/internal/repository"
	"ivabot-go/pkg/llm"
	"ivabot-go/pkg/log"
	"ivabot-go/pkg/weatherapi"
)

const (
	SourceTool = "tool"
	SourceLLM  = "llm"
	ToolNone   = "none"

	DefaultSessionID = "default_session"
)

var inWord = regexp.MustCompile(`(?i)\bin\b`)

// AssistantService 处理参考后端的一轮对话。
type AssistantService interface {
	Reply(ctx context.Context, req model.BackendChatRequest) (*model.BackendChatResponse, error)
	History(ctx context.Context, sessionID string) ([]model.ChatMessage, error)
}

type assistantService struct {
	router      IntentRouter
	llmClient   llm.Client
	weather     weatherapi.Client
	historyRepo repository.HistoryRepository
	llmCfg      config.LLMConfig
	defaultCity string
}

// NewAssistantService 创建一个新的 AssistantService 实例。
func NewAssistantService(router IntentRouter, llmClient llm.Client, weather weatherapi.Client, historyRepo repository.HistoryRepository, llmCfg config.LLMConfig, defaultCity string) AssistantService {
	if defaultCity == "" {
		defaultCity = "London"
	}
	return &assistantService{
		router:      router,
		llmClient:   llmClient,
		weather:     weather,
		historyRepo: historyRepo,
		llmCfg:      llmCfg,
		defaultCity: defaultCity,
	}
}

// Reply 根据意图调用天气工具或 LLM，并把这一轮问答写入历史。
func (s *assistantService) Reply(ctx context.Context, req model.BackendChatRequest) (*model.BackendChatResponse, error) {
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = DefaultSessionID
	}

	var resp *model.BackendChatResponse
	if s.router.Classify(ctx, req.UserInput) == IntentWeather {
		resp = s.weatherReply(ctx, req.UserInput)
	} else {
		answer, err := s.llmReply(ctx, sessionID, req.UserInput)
		if err != nil {
			return nil, err
		}
		resp = &model.BackendChatResponse{Response: answer, Source: SourceLLM, Tool: ToolNone}
	}

	// 即使请求已结束，也保存已生成的回复
	if err := s.historyRepo.AppendInteraction(context.Background(), sessionID, req.UserInput, resp.Response); err != nil {
		log.Errorf("Failed to save session history: %v", err)
	}
	return resp, nil
}

// History 返回会话最近的问答记录。
func (s *assistantService) History(ctx context.Context, sessionID string) ([]model.ChatMessage, error) {
	if sessionID == "" {
		sessionID = DefaultSessionID
	}
	return s.historyRepo.GetHistory(ctx, sessionID)
}

func (s *assistantService) weatherReply(ctx context.Context, userInput string) *model.BackendChatResponse {
	city := ExtractCity(userInput, s.defaultCity)
	resp := &model.BackendChatResponse{Source: SourceTool, Tool: model.ToolWeather}

	obs, err := s.weather.Current(ctx, city)
	if err != nil {
		log.Errorw("Error in weather tool", "city", city, "error", err)
		resp.Response = fmt.Sprintf("I'm sorry, I couldn't find weather information for '%s'. Please check the spelling.", city)
		return resp
	}
	log.Infof("Weather data retrieved for %s", city)
	resp.Response = obs.Text()
	resp.Weather = obs.Report()
	return resp
}

func (s *assistantService) llmReply(ctx context.Context, sessionID, userInput string) (string, error) {
	history, err := s.historyRepo.GetHistory(ctx, sessionID)
	if err != nil {
		log.Errorf("Failed to load session history: %v", err)
		history = nil
	}

	msgs := make([]llm.Message, 0, len(history)+2)
	if s.llmCfg.SystemPrompt != "" {
		msgs = append(msgs, llm.Message{Role: "system", Content: s.llmCfg.SystemPrompt})
	}
	for _, m := range history {
		msgs = append(msgs, llm.Message{Role: m.Role, Content: m.Content})
	}
	msgs = append(msgs, llm.Message{Role: "user", Content: userInput})

	answer, err := s.llmClient.Complete(ctx, msgs, s.buildGenerationParams())
	if err != nil {
		return "", fmt.Errorf("llm completion failed: %w", err)
	}
	return answer, nil
}

func (s *assistantService) buildGenerationParams() *llm.GenerationParams {
	var gp llm.GenerationParams
	if s.llmCfg.Generation.Temperature != 0 {
		t := s.llmCfg.Generation.Temperature
		gp.Temperature = &t
	}
	if s.llmCfg.Generation.TopP != 0 {
		p := s.llmCfg.Generation.TopP
		gp.TopP = &p
	}
	if s.llmCfg.Generation.MaxTokens != 0 {
		m := s.llmCfg.Generation.MaxTokens
		gp.MaxTokens = &m
	}
	if gp.Temperature == nil && gp.TopP == nil && gp.MaxTokens == nil {
		return nil
	}
	return &gp
}

// ExtractCity 取最后一个独立单词 "in" 之后的文本作为城市名，去掉首尾的 "?!. " 并转为标题格式。
func ExtractCity(userInput, defaultCity string) string {
	city := ""
	if locs := inWord.FindAllStringIndex(userInput, -1); len(locs) > 0 {
		city = userInput[locs[len(locs)-1][1]:]
	}
	city = strings.Trim(city, "?!. \t\n")
	if city == "" {
		return defaultCity
	}
	return cases.Title(language.English).String(city)
}
