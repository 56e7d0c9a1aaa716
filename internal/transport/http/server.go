package http

import (
	"time"

	"github.com/gin-gonic/gin"

	"unidoc-hub/internal/ai"
	appsvc "unidoc-hub/internal/app"
	"unidoc-hub/internal/assistant"
	"unidoc-hub/internal/bootstrap"
	"unidoc-hub/internal/cache"
	"unidoc-hub/internal/config"
	"unidoc-hub/internal/platform/rabbitmq"
	"unidoc-hub/internal/repository"
	"unidoc-hub/internal/textextract"
	"unidoc-hub/internal/transport/http/handler"
	"unidoc-hub/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	cfg := app.Config
	gin.SetMode(cfg.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	userRepo := repository.NewUserRepository(app.MySQL)
	catalogRepo := repository.NewCatalogRepository(app.MySQL)
	documentRepo := repository.NewDocumentRepository(app.MySQL)
	subscriptionRepo := repository.NewSubscriptionRepository(app.MySQL)
	feedbackRepo := repository.NewFeedbackRepository(app.MySQL)
	notificationRepo := repository.NewNotificationRepository(app.MySQL)
	conversationRepo := repository.NewConversationRepository(app.MySQL)

	authService := appsvc.NewAuthService(
		userRepo,
		cfg.Auth.JWTSecret,
		time.Duration(cfg.Auth.JWTExpireMinute)*time.Minute,
	)
	notificationService := appsvc.NewNotificationService(
		notificationRepo,
		rabbitmq.NewJSONPublisher(app.MQConn, cfg.RabbitMQ.NotificationQueue),
	)
	documentService := appsvc.NewDocumentService(
		documentRepo,
		catalogRepo,
		subscriptionRepo,
		app.Storage,
		notificationService,
		appsvc.DocumentServiceOptions{
			MaxUploadBytes:    cfg.Upload.MaxSizeBytes,
			AllowedExtensions: cfg.Upload.AllowedExtensions,
			SignedURLTTL:      time.Duration(cfg.Storage.SignedURLTTLMinutes) * time.Minute,
			SearchLimit:       cfg.Assistant.SearchLimit,
		},
	)
	conversationService := appsvc.NewConversationService(
		conversationRepo,
		newAssistant(app.Generator, documentRepo, subscriptionRepo, textextract.New(app.Storage, cfg.Assistant.MaxExtractChars), cfg.Assistant),
		rabbitmq.NewJSONPublisher(app.MQConn, cfg.RabbitMQ.MessagePersistQueue),
		cache.NewHistoryCache(
			app.Redis,
			time.Duration(cfg.Redis.HistoryTTLSeconds)*time.Second,
			time.Duration(cfg.Redis.HistoryDirtyTTLSeconds)*time.Second,
		),
		cfg.Assistant.MaxHistory,
	)

	authHandler := handler.NewAuthHandler(authService)
	catalogHandler := handler.NewCatalogHandler(appsvc.NewCatalogService(catalogRepo))
	documentHandler := handler.NewDocumentHandler(documentService)
	subscriptionHandler := handler.NewSubscriptionHandler(appsvc.NewSubscriptionService(subscriptionRepo, catalogRepo))
	feedbackHandler := handler.NewFeedbackHandler(appsvc.NewFeedbackService(feedbackRepo, documentRepo))
	notificationHandler := handler.NewNotificationHandler(notificationService)
	assistantHandler := handler.NewAssistantHandler(conversationService)

	requireAuth := middleware.AuthJWT(cfg.Auth.JWTSecret)

	v1 := router.Group("/api/v1")
	authGroup := v1.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.GET("/me", requireAuth, authHandler.Me)

	catalogGroup := v1.Group("/catalog")
	catalogGroup.GET("/faculties", catalogHandler.ListFaculties)
	catalogGroup.GET("/subjects", catalogHandler.ListSubjects)
	catalogGroup.GET("/document-types", catalogHandler.ListDocumentTypes)

	docGroup := v1.Group("/documents")
	docGroup.GET("", documentHandler.List)
	docGroup.GET("/search", documentHandler.Search)
	docGroup.GET("/:id", documentHandler.Get)
	docGroup.GET("/:id/comments", feedbackHandler.ListComments)
	docGroup.Use(requireAuth)
	docGroup.GET("/recommended", documentHandler.Recommended)
	docGroup.POST("", documentHandler.Upload)
	docGroup.GET("/:id/download", documentHandler.Download)
	docGroup.PUT("/:id/rating", feedbackHandler.Rate)
	docGroup.GET("/:id/rating", feedbackHandler.GetRating)
	docGroup.POST("/:id/comments", feedbackHandler.AddComment)

	v1.DELETE("/comments/:id", requireAuth, feedbackHandler.DeleteComment)

	adminGroup := v1.Group("/admin")
	adminGroup.Use(requireAuth, middleware.RequireAdmin())
	adminGroup.GET("/documents/pending", documentHandler.ListPending)
	adminGroup.POST("/documents/:id/approve", documentHandler.Approve)
	adminGroup.POST("/documents/:id/reject", documentHandler.Reject)

	subGroup := v1.Group("/subscriptions")
	subGroup.Use(requireAuth)
	subGroup.GET("", subscriptionHandler.List)
	subGroup.POST("/subjects/:id", subscriptionHandler.SubscribeSubject)
	subGroup.DELETE("/subjects/:id", subscriptionHandler.UnsubscribeSubject)
	subGroup.POST("/faculties/:id", subscriptionHandler.SubscribeFaculty)
	subGroup.DELETE("/faculties/:id", subscriptionHandler.UnsubscribeFaculty)

	notifGroup := v1.Group("/notifications")
	notifGroup.Use(requireAuth)
	notifGroup.GET("", notificationHandler.List)
	notifGroup.GET("/unread-count", notificationHandler.UnreadCount)
	notifGroup.POST("/read-all", notificationHandler.MarkAllRead)
	notifGroup.POST("/:id/read", notificationHandler.MarkRead)

	assistantGroup := v1.Group("/assistant")
	assistantGroup.Use(requireAuth)
	assistantGroup.POST("/chat", assistantHandler.Chat)
	assistantGroup.POST("/conversations", assistantHandler.CreateConversation)
	assistantGroup.GET("/conversations", assistantHandler.ListConversations)
	assistantGroup.GET("/conversations/:id/messages", assistantHandler.Messages)
	assistantGroup.DELETE("/conversations/:id", assistantHandler.DeleteConversation)

	return router
}

func newAssistant(
	gen ai.Generator,
	documentRepo *repository.DocumentRepository,
	subscriptionRepo *repository.SubscriptionRepository,
	extractor *textextract.Extractor,
	cfg config.AssistantConfig,
) *assistant.Orchestrator {
	timeout := time.Duration(cfg.LLMTimeoutSeconds) * time.Second
	return assistant.NewOrchestrator(
		assistant.NewAnalyzer(gen, timeout),
		assistant.NewContextBuilder(documentRepo, subscriptionRepo, extractor, cfg.SearchLimit),
		assistant.NewComposer(gen, timeout, time.Duration(cfg.RetryBackoffMS)*time.Millisecond),
		assistant.Options{
			MaxHistory:      cfg.MaxHistory,
			AnalyzerHistory: cfg.AnalyzerHistory,
		},
	)
}
