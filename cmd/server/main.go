// Package main 是聊天前端（页面 + 代理网关）的入口。
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

	"ivabot-go/internal/chatui"
	"ivabot-go/internal/config"
	"ivabot-go/internal/handler"
	"ivabot-go/internal/middleware"
	"ivabot-go/pkg/backend"
	"ivabot-go/pkg/log"

	"github.com/gin-gonic/gin"
)

func main() {
	configPath := flag.String("config", "./configs/config.yaml", "配置文件路径")
	flag.Parse()

	// 1. 初始化配置
	config.Init(*configPath)
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync()
	log.Infof("日志记录器初始化成功, 上游地址: %s", cfg.Upstream.URL)

	// 3. 页面通过 HTTP 调用本服务自身的网关，保持 页面 → 网关 → 后端 的调用链
	gatewayURL := cfg.UI.GatewayURL
	if gatewayURL == "" {
		gatewayURL = fmt.Sprintf("http://127.0.0.1:%s/api/chat", cfg.Server.Port)
	}
	renderer, err := chatui.NewRenderer()
	if err != nil {
		log.Fatal("页面模板解析失败", err)
	}
	pageHandler := handler.NewPageHandler(renderer, chatui.NewGatewayClient(gatewayURL, nil), cfg.UI.SessionID)
	proxyHandler := handler.NewProxyHandler(backend.NewClient(cfg.Upstream.URL, nil))

	// 4. 路由
	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(middleware.RequestLogger(), gin.Recovery())
	r.GET("/", pageHandler.Home)
	r.GET(handler.SocketPath, pageHandler.Socket)
	r.POST("/api/chat", proxyHandler.Chat)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP 服务监听失败: %s\n", err)
		}
	}()

	// 等待中断信号以实现优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("HTTP 服务器关闭失败: %v", err)
	}
	log.Info("服务已优雅关闭")
}
