package http

import (
	"github.com/gin-gonic/gin"

	"docuchat/internal/bootstrap"
	"docuchat/internal/transport/http/handler"
	"docuchat/internal/transport/http/middleware"
)

// NewRouter assembles the HTTP surface from the wired application.
func NewRouter(application *bootstrap.App) *gin.Engine {
	if mode := application.Config.App.GinMode; mode != "" {
		gin.SetMode(mode)
	}

	r := gin.New()
	r.Use(middleware.RequestLogger(application.Logger), gin.Recovery())

	chatHandler := handler.NewChatHandler(application.ChatService)
	documentHandler := handler.NewDocumentHandler(application.DocumentService)
	healthHandler := handler.NewHealthHandler(application.Config.App.Name, application.StartedAt)

	r.POST("/chat", chatHandler.Chat)
	r.POST("/upload-doc", documentHandler.Upload)
	r.GET("/list-docs", documentHandler.List)
	r.POST("/delete-doc", documentHandler.Delete)
	r.GET("/healthz", healthHandler.Check)

	return r
}
