// Package main 是应用程序的入口点。
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"travel-advisor-go/internal/config"
	"travel-advisor-go/internal/handler"
	"travel-advisor-go/internal/middleware"
	"travel-advisor-go/internal/model"
	"travel-advisor-go/internal/repository"
	"travel-advisor-go/internal/service"
	"travel-advisor-go/pkg/database"
	"travel-advisor-go/pkg/llm"
	"travel-advisor-go/pkg/log"
	"travel-advisor-go/pkg/token"

	"github.com/gin-gonic/gin"
)

func main() {
	// 1. 初始化配置
	config.Init("./configs/config.yaml")
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync() // 确保在程序退出时刷新所有缓冲的日志条目
	log.Info("日志记录器初始化成功")

	// 3. 初始化 Redis 和 MySQL
	database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)
	database.InitMySQL(cfg.Database.MySQL.DSN)
	if err := database.DB.AutoMigrate(&model.Exchange{}); err != nil {
		log.Fatal("failed to migrate exchange table", err)
	}

	// 4. 初始化 Repository
	stateTTL := time.Duration(cfg.Chat.StateTTLHours) * time.Hour
	conversationRepo := repository.NewConversationRepository(database.RDB, stateTTL)
	exchangeRepo := repository.NewExchangeRepository(database.DB)

	// 5. 初始化 Service (依赖注入)
	llmClient := llm.NewClient(cfg.LLM)
	chatService := service.NewChatService(conversationRepo, exchangeRepo, llmClient, cfg.Chat.HistoryBudget)
	ticketManager := token.NewTicketManager(cfg.Stream.TokenSecret, time.Duration(cfg.Stream.TokenExpireMinutes)*time.Minute)

	// 6. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New() // 使用 New() 创建一个不带默认中间件的引擎
	r.Use(
		middleware.RequestID(),
		middleware.RequestLogger(),
		middleware.SecurityHeaders(),
		middleware.CORS(),
		gin.Recovery(),
	)

	// 7. 注册路由
	chatHandler := handler.NewChatHandler(chatService, exchangeRepo)
	streamHandler := handler.NewStreamHandler(chatService, ticketManager)

	r.GET("/health", chatHandler.Health)
	r.NoRoute(handler.NotFound)

	// 对话接口单独限流
	rateLimited := middleware.RateLimit(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	r.POST("/", rateLimited, chatHandler.Chat)

	api := r.Group("/api")
	{
		chat := api.Group("/chat")
		chat.Use(rateLimited)
		{
			chat.POST("", chatHandler.Chat)
			chat.GET("/history/:threadId", chatHandler.GetHistory)
			chat.DELETE("/history/:threadId", chatHandler.ClearHistory)
			chat.GET("/exchanges/:threadId", chatHandler.GetExchanges)
			chat.GET("/ws-token", streamHandler.GetStreamTicket)
		}
	}
	r.GET("/chat/stream/:token", streamHandler.Handle)

	// 8. 启动 HTTP 服务器并实现优雅停机
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

	// 设置一个5秒的超时上下文
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("HTTP 服务器关闭失败: %v", err)
	}

	log.Info("服务已优雅关闭")
}
