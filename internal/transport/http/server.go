package http

import (
	"github.com/gin-gonic/gin"

	"career-constellation/internal/bootstrap"
	"career-constellation/internal/transport/http/handler"
	"career-constellation/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/", healthHandler.Index)
	router.GET("/healthz", healthHandler.Check)

	chatHandler := handler.NewChatHandler(app.Chat, app.RAG)
	jobsHandler := handler.NewJobsHandler(app.RAG)
	reportsHandler := handler.NewReportsHandler(app.RAG)
	standardizationHandler := handler.NewStandardizationHandler(app.RAG)

	limiter := middleware.NewIPRateLimiter(app.Config.RateLimit.ChatPerMinute, app.Config.RateLimit.ChatBurst)
	ensureInit := middleware.EnsureInitialized(app.RAG)

	api := router.Group("/api")

	chatGroup := api.Group("/chat")
	chatGroup.POST("", middleware.RateLimit(limiter), chatHandler.Chat)
	chatGroup.GET("/status", chatHandler.Status)
	chatGroup.GET("/history/:conversation_id", chatHandler.GetHistory)
	chatGroup.DELETE("/history/:conversation_id", chatHandler.ClearHistory)

	api.POST("/retrieve", chatHandler.Retrieve)

	// Reports are read straight from their source and need no index.
	api.GET("/reports", reportsHandler.ListReports)
	api.GET("/reports/:id", reportsHandler.GetReport)

	data := api.Group("", ensureInit)
	data.GET("/jobs", jobsHandler.ListJobs)
	data.GET("/jobs/:id", jobsHandler.GetJob)
	data.GET("/clusters", jobsHandler.ListClusters)
	data.GET("/clusters/:id/details", jobsHandler.ClusterDetails)
	data.GET("/standardization/duplicates", standardizationHandler.Duplicates)
	data.GET("/standardization/messiness", standardizationHandler.Messiness)

	return router
}
