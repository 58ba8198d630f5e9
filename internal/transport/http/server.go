package http

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dungca200/rag-chatbot-sub000/internal/agent"
	"github.com/dungca200/rag-chatbot-sub000/internal/ai"
	appsvc "github.com/dungca200/rag-chatbot-sub000/internal/app"
	"github.com/dungca200/rag-chatbot-sub000/internal/bootstrap"
	"github.com/dungca200/rag-chatbot-sub000/internal/cache"
	"github.com/dungca200/rag-chatbot-sub000/internal/ingest"
	"github.com/dungca200/rag-chatbot-sub000/internal/platform/rabbitmq"
	"github.com/dungca200/rag-chatbot-sub000/internal/repository"
	"github.com/dungca200/rag-chatbot-sub000/internal/transport/http/handler"
	"github.com/dungca200/rag-chatbot-sub000/internal/transport/http/middleware"
	"github.com/dungca200/rag-chatbot-sub000/internal/vectorstore"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	userRepo := repository.NewUserRepository(app.MySQL)
	conversationRepo := repository.NewConversationRepository(app.MySQL)
	messageRepo := repository.NewMessageRepository(app.MySQL)
	documentRepo := repository.NewDocumentRepository(app.MySQL)

	llmClient := ai.NewOpenAICompatibleClient()
	chatModel := ai.NewChatModel(llmClient, ai.ChatConfig{
		BaseURL: app.Config.LLM.BaseURL,
		APIKey:  app.Config.LLM.APIKey,
		Model:   app.Config.LLM.Model,
	})
	embedder := ai.NewEmbedder(llmClient, ai.EmbeddingConfig{
		BaseURL: app.Config.LLM.BaseURL,
		APIKey:  app.Config.LLM.APIKey,
		Model:   app.Config.LLM.EmbeddingModel,
	})

	store := vectorstore.NewMySQLStore(app.MySQL)
	processor := ingest.NewProcessor(embedder, store, ingest.Options{
		ChunkSize:      app.Config.Ingest.ChunkSize,
		ChunkOverlap:   app.Config.Ingest.ChunkOverlap,
		EmbedBatchSize: app.Config.Ingest.EmbedBatchSize,
		MaxRetries:     app.Config.Ingest.MaxRetries,
	})

	orchestrator := agent.NewOrchestrator(
		agent.NewClassifier(chatModel),
		agent.NewRetriever(embedder, store, app.Config.Retrieval.TopK),
		agent.NewRAGAgent(chatModel),
		agent.NewConversationAgent(chatModel),
	)

	publisher := rabbitmq.NewMessagePublisher(app.MQConn, app.Config.RabbitMQ.MessagePersistQueue)
	historyCache := cache.NewHistoryCache(
		app.Redis,
		time.Duration(app.Config.Redis.HistoryTTLSeconds)*time.Second,
		time.Duration(app.Config.Redis.HistoryDirtyTTLSeconds)*time.Second,
	)

	authService := appsvc.NewAuthService(
		userRepo,
		app.Config.Auth.JWTSecret,
		time.Duration(app.Config.Auth.JWTExpireMinute)*time.Minute,
	)
	chatService := appsvc.NewChatService(
		conversationRepo,
		messageRepo,
		documentRepo,
		publisher,
		historyCache,
		orchestrator,
		store,
		app.Config.LLM.MaxContextMessage,
	)
	documentService := appsvc.NewDocumentService(documentRepo, processor, store)

	authHandler := handler.NewAuthHandler(authService)
	chatHandler := handler.NewChatHandler(chatService)
	documentHandler := handler.NewDocumentHandler(documentService)

	v1 := router.Group("/api/v1")
	authGroup := v1.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.GET("/me", middleware.AuthJWT(app.Config.Auth.JWTSecret), authHandler.Me)

	chatGroup := v1.Group("/chat")
	chatGroup.Use(middleware.AuthJWT(app.Config.Auth.JWTSecret))
	chatGroup.POST("/conversations", chatHandler.CreateConversation)
	chatGroup.GET("/conversations", chatHandler.ListConversations)
	chatGroup.DELETE("/conversations/:id", chatHandler.DeleteConversation)
	chatGroup.POST("/stream", chatHandler.StreamTurn)
	chatGroup.GET("/history", chatHandler.GetHistory)

	documentGroup := v1.Group("/documents")
	documentGroup.Use(middleware.AuthJWT(app.Config.Auth.JWTSecret))
	documentGroup.POST("", documentHandler.Upload)
	documentGroup.GET("", documentHandler.List)
	documentGroup.DELETE("/:id", documentHandler.Delete)

	return router
}
