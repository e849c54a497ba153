// Package chatui 实现聊天页面的状态容器：对话记录、输入框与加载状态。
//
// 每个页面（一个 WebSocket 连接）持有一个 Store，页面关闭后状态随之丢弃。
package chatui

import (
	"context"
	"slices"
	"strings"
	"sync"

	"ivabot-go/internal/model"
	"ivabot-go/pkg/log"
)

// FallbackMessage 是网关调用失败时追加的机器人消息。
const FallbackMessage = "Sorry, I'm having trouble connecting to the service."

// Gateway 是页面调用代理网关的接口。
type Gateway interface {
	Chat(ctx context.Context, req model.ProxyRequest) (model.ProxyResponse, error)
}

// State 是页面状态的快照。Loading 为 true 即 waiting 状态。
type State struct {
	Messages []model.Message
	Input    string
	Loading  bool
}

func (s State) clone() State {
	s.Messages = slices.Clone(s.Messages)
	return s
}

// event 是对状态的一次变更，apply 返回新状态。
type event interface {
	apply(State) State
}

type inputChanged struct{ text string }

func (e inputChanged) apply(s State) State {
	s.Input = e.text
	return s
}

type userSent struct{ content string }

func (e userSent) apply(s State) State {
	s.Messages = append(s.Messages, model.Message{Role: model.RoleUser, Content: e.content})
	s.Input = ""
	s.Loading = true
	return s
}

type botReplied struct{ msg model.Message }

func (e botReplied) apply(s State) State {
	s.Messages = append(s.Messages, e.msg)
	s.Loading = false
	return s
}

// Store 保存页面状态，所有变更都通过 dispatch 串行应用，并按顺序通知订阅者。
type Store struct {
	mu          sync.Mutex
	state       State
	subscribers []func(State)

	// pending 按变更顺序排队等待通知的快照，同一时刻只有一个 goroutine 负责投递。
	pending   []State
	notifying bool

	gateway   Gateway
	sessionID string
	inflight  sync.WaitGroup
}

// NewStore 创建一个空对话的 Store。
func NewStore(gateway Gateway, sessionID string) *Store {
	return &Store{gateway: gateway, sessionID: sessionID}
}

// Subscribe 注册一个在每次状态变更后调用的回调。回调执行时不持有锁，
// 回调内再次修改 Store 产生的快照排在当前快照之后投递。
func (s *Store) Subscribe(fn func(State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// State 返回当前状态的副本。
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

func (s *Store) dispatch(e event) {
	s.mu.Lock()
	s.state = e.apply(s.state)
	s.pending = append(s.pending, s.state.clone())
	if s.notifying {
		// 正在投递的 goroutine 会按顺序送出这个快照
		s.mu.Unlock()
		return
	}
	s.notifying = true
	for len(s.pending) > 0 {
		batch := s.pending
		s.pending = nil
		subscribers := slices.Clone(s.subscribers)
		s.mu.Unlock()

		for _, snapshot := range batch {
			for _, fn := range subscribers {
				fn(snapshot)
			}
		}
		s.mu.Lock()
	}
	s.notifying = false
	s.mu.Unlock()
}

// SetInput 更新输入框内容。
func (s *Store) SetInput(text string) {
	s.dispatch(inputChanged{text: text})
}

// KeyDown 处理输入框按键，Enter 等同于 Send。
func (s *Store) KeyDown(ctx context.Context, key string) bool {
	if key != "Enter" {
		return false
	}
	return s.Send(ctx)
}

// Send 发送当前输入。输入为空白或仍在等待上一次回复时不做任何事并返回 false。
// 用户消息同步追加，网关调用在后台进行，完成后追加机器人消息。
func (s *Store) Send(ctx context.Context) bool {
	s.mu.Lock()
	input := s.state.Input
	if strings.TrimSpace(input) == "" || s.state.Loading {
		s.mu.Unlock()
		return false
	}
	// 在释放锁之前进入 waiting，避免并发的 Send 重复通过检查
	s.state.Loading = true
	s.inflight.Add(1)
	s.mu.Unlock()

	s.dispatch(userSent{content: input})

	go func() {
		defer s.inflight.Done()
		s.dispatch(botReplied{msg: s.ask(ctx, input)})
	}()
	return true
}

func (s *Store) ask(ctx context.Context, input string) model.Message {
	resp, err := s.gateway.Chat(ctx, model.ProxyRequest{
		UserInput: input,
		SessionID: s.sessionID,
	})
	if err != nil {
		log.Errorw("Chat Error", "error", err)
		return model.Message{Role: model.RoleBot, Content: FallbackMessage}
	}
	return model.Message{
		Role:    model.RoleBot,
		Content: resp.Response,
		Tool:    resp.Tool,
		Weather: resp.Weather,
	}
}

// Wait 阻塞直到没有进行中的网关调用。
func (s *Store) Wait() {
	s.inflight.Wait()
}
