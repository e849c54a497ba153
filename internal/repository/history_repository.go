// Package repository 提供了数据访问层的实现。
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ivabot-go/internal/model"

	"github.com/go-redis/redis/v8"
)

const historyTTL = 7 * 24 * time.Hour

// HistoryRepository 保存每个 session 最近的若干轮问答。
type HistoryRepository interface {
	GetHistory(ctx context.Context, sessionID string) ([]model.ChatMessage, error)
	AppendInteraction(ctx context.Context, sessionID, question, answer string) error
}

type redisHistoryRepository struct {
	redisClient *redis.Client
	// maxInteractions 是保留的问答轮数，每轮两条消息。
	maxInteractions int
}

// NewHistoryRepository 创建一个新的 HistoryRepository 实例。
func NewHistoryRepository(redisClient *redis.Client, maxInteractions int) HistoryRepository {
	if maxInteractions <= 0 {
		maxInteractions = 5
	}
	return &redisHistoryRepository{redisClient: redisClient, maxInteractions: maxInteractions}
}

func historyKey(sessionID string) string {
	return fmt.Sprintf("session:%s:history", sessionID)
}

// GetHistory 从 Redis 获取会话历史，按时间正序。
func (r *redisHistoryRepository) GetHistory(ctx context.Context, sessionID string) ([]model.ChatMessage, error) {
	items, err := r.redisClient.LRange(ctx, historyKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	messages := make([]model.ChatMessage, 0, len(items))
	for _, item := range items {
		var m model.ChatMessage
		if err := json.Unmarshal([]byte(item), &m); err != nil {
			return nil, fmt.Errorf("failed to unmarshal history message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, nil
}

// AppendInteraction 追加一轮问答，并裁剪到最近 maxInteractions 轮。
func (r *redisHistoryRepository) AppendInteraction(ctx context.Context, sessionID, question, answer string) error {
	now := time.Now()
	q, err := json.Marshal(model.ChatMessage{Role: "user", Content: question, Timestamp: now})
	if err != nil {
		return fmt.Errorf("failed to marshal question: %w", err)
	}
	a, err := json.Marshal(model.ChatMessage{Role: "assistant", Content: answer, Timestamp: now})
	if err != nil {
		return fmt.Errorf("failed to marshal answer: %w", err)
	}

	key := historyKey(sessionID)
	_, err = r.redisClient.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, q, a)
		pipe.LTrim(ctx, key, int64(-2*r.maxInteractions), -1)
		pipe.Expire(ctx, key, historyTTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to append history: %w", err)
	}
	return nil
}
