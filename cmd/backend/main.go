// Package main 是参考聊天后端的入口，实现网关所转发的上游接口。
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ivabot-go/internal/config"
	"ivabot-go/internal/handler"
	"ivabot-go/internal/middleware"
	"ivabot-go/internal/repository"
	"ivabot-go/internal/service"
	"ivabot-go/pkg/database"
	"ivabot-go/pkg/embedding"
	"ivabot-go/pkg/llm"
	"ivabot-go/pkg/log"
	"ivabot-go/pkg/weatherapi"

	"github.com/gin-gonic/gin"
)

func main() {
	configPath := flag.String("config", "./configs/config.yaml", "配置文件路径")
	flag.Parse()

	// 1. 初始化配置与日志
	config.Init(*configPath)
	cfg := config.Conf
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync()

	// 2. 初始化 Redis
	if err := database.InitRedis(cfg.Database.Redis); err != nil {
		log.Fatal("Redis 初始化失败", err)
	}

	// 3. 组装依赖
	var embedder embedding.Client
	if cfg.Embedding.BaseURL != "" {
		embedder = embedding.NewClient(cfg.Embedding)
	} else {
		log.Warnf("未配置 embedding，意图路由使用关键词匹配")
	}
	router := service.NewIntentRouter(embedder, cfg.Router.Threshold)
	historyRepo := repository.NewHistoryRepository(database.RDB, cfg.Backend.HistorySize)
	assistant := service.NewAssistantService(router, llm.NewClient(cfg.LLM), weatherapi.NewClient(cfg.Weather), historyRepo, cfg.LLM, cfg.Weather.DefaultCity)
	backendHandler := handler.NewBackendHandler(assistant)
	conversationHandler := handler.NewConversationHandler(assistant)

	// 4. 路由
	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(middleware.RequestLogger(), gin.Recovery())
	r.GET("/", backendHandler.Root)
	r.POST("/api/v1/chat", backendHandler.Chat)
	r.GET("/api/v1/sessions/:session_id/history", conversationHandler.GetConversation)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Backend.Port),
		Handler: r,
	}

	go func() {
		log.Infof("聊天后端启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP 服务监听失败: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("HTTP 服务器关闭失败: %v", err)
	}
	if err := database.RDB.Close(); err != nil {
		log.Warnf("关闭 Redis 连接失败: %v", err)
	}
	log.Info("服务已优雅关闭")
}
