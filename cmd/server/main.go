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

	"prepsmart-go/internal/config"
	"prepsmart-go/internal/extractor"
	"prepsmart-go/internal/handler"
	"prepsmart-go/internal/middleware"
	"prepsmart-go/internal/pipeline"
	"prepsmart-go/internal/repository"
	"prepsmart-go/internal/service"
	"prepsmart-go/pkg/database"
	"prepsmart-go/pkg/embedding"
	"prepsmart-go/pkg/es"
	"prepsmart-go/pkg/kafka"
	"prepsmart-go/pkg/llm"
	"prepsmart-go/pkg/log"
	"prepsmart-go/pkg/storage"
	"prepsmart-go/pkg/tika"
	"prepsmart-go/pkg/token"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// 1. 加载 .env（不存在则忽略）并初始化配置
	_ = godotenv.Load()
	config.Init("./configs/config.yaml")
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync() // 确保在程序退出时刷新所有缓冲的日志条目
	log.Info("日志记录器初始化成功")

	// 3. 初始化数据库、Redis、MinIO、Elasticsearch、Kafka
	database.InitMySQL(cfg.Database.MySQL.DSN)
	database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)
	store, err := storage.InitMinIO(cfg.MinIO)
	if err != nil {
		log.Fatalf("minio 初始化失败: %s", err)
	}
	index, err := es.InitES(cfg.Elasticsearch, cfg.Embedding.Dimensions)
	if err != nil {
		log.Fatalf("es 初始化失败: %s", err)
	}
	kafka.InitProducer(cfg.Kafka)

	// 4. 初始化 Repository
	subjectRepo := repository.NewSubjectRepository(database.DB)
	documentRepo := repository.NewDocumentRepository(database.DB)
	chunkRepo := repository.NewChunkRepository(database.DB)
	prepRepo := repository.NewPrepRepository(database.DB)
	conversationRepo := repository.NewConversationRepository(database.RDB)

	// 5. 初始化 Service (依赖注入)
	ticketManager := token.NewTicketManager(cfg.Ticket.Secret, cfg.Ticket.ExpireMinutes)
	tikaClient := tika.NewClient(cfg.Tika)
	ext := extractor.New(tikaClient)
	embeddingClient := embedding.NewClient(cfg.Embedding)
	llmClient := llm.NewClient(cfg.LLM)

	subjectService := service.NewSubjectService(subjectRepo)
	searchService := service.NewSearchService(subjectRepo, chunkRepo, embeddingClient, index, cfg.Retrieval)
	ingestService := service.NewIngestService(documentRepo, chunkRepo, ext, embeddingClient, index, store, cfg.Embedding.Model)
	chatService := service.NewChatService(searchService, llmClient, conversationRepo, cfg.Retrieval)
	prepService := service.NewPrepService(searchService, prepRepo, chunkRepo, documentRepo, llmClient, cfg.Retrieval)

	// 6. 初始化重新处理管道 (Processor) 并启动后台 Kafka 消费者
	processor := pipeline.NewProcessor(
		ext,
		embeddingClient,
		index,
		store,
		chunkRepo,
		documentRepo,
		cfg.Embedding.Model,
	)
	go kafka.StartConsumer(cfg.Kafka, processor)

	// 7. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New() // 使用 New() 创建一个不带默认中间件的引擎
	// 添加我们自定义的日志中间件和 Gin 的 Recovery 中间件
	r.Use(middleware.RequestLogger(), gin.Recovery())

	// 8. 注册路由
	subjectHandler := handler.NewSubjectHandler(subjectService)
	documentHandler := handler.NewDocumentHandler(ingestService, documentRepo)
	examHandler := handler.NewExamHandler(prepService, searchService)
	chatHandler := handler.NewChatHandler(chatService, searchService, ticketManager)

	apiV1 := r.Group("/api/v1")
	{
		subjects := apiV1.Group("/subjects")
		{
			subjects.POST("", subjectHandler.Create)
			subjects.GET("", subjectHandler.List)
			subjects.GET("/:id", subjectHandler.Get)
		}

		documents := apiV1.Group("/documents")
		{
			documents.POST("/upload", documentHandler.Upload)
			documents.GET("", documentHandler.ListBySubject)
			documents.POST("/:id/reprocess", documentHandler.Reprocess)
		}

		exam := apiV1.Group("/exam")
		{
			exam.POST("/question", examHandler.Question)
			exam.POST("/unit", examHandler.Unit)
			exam.POST("/paper", examHandler.Paper)
			exam.POST("/plan", examHandler.Plan)
			exam.POST("/last-hour", examHandler.LastHour)
			exam.POST("/important-questions", examHandler.ImportantQuestions)
		}

		chat := apiV1.Group("/chat")
		{
			chat.POST("/ticket", chatHandler.IssueTicket)
		}
	}
	// WebSocket 路由放在根路径，票据在路径参数中校验
	r.GET("/chat/:ticket", chatHandler.Handle)

	// 9. 启动 HTTP 服务器并实现优雅停机
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

	// 关闭 HTTP 服务器
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("HTTP 服务器关闭失败: %v", err)
	}

	// Kafka 消费循环会随进程退出自然结束，无需单独关闭。
	log.Info("服务已优雅关闭")
}
