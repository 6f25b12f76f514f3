package api

import (
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/thaifoodie/chat-backend/internal/service"
	"github.com/thaifoodie/chat-backend/internal/service/recipe"
	"github.com/thaifoodie/chat-backend/internal/service/video"
	"github.com/thaifoodie/chat-backend/internal/storage/postgres"
)

// Server holds API dependencies.
type Server struct {
	authService   *service.AuthService
	convRepo      *postgres.ConversationRepository
	msgRepo       *postgres.MessageRepository
	recipeService *recipe.Service
	videoService  *video.Service
	logger        *logrus.Logger
}

// NewServer creates a new API server.
func NewServer(authService *service.AuthService, convRepo *postgres.ConversationRepository, msgRepo *postgres.MessageRepository, recipeService *recipe.Service, videoService *video.Service, logger *logrus.Logger) *Server {
	return &Server{
		authService:   authService,
		convRepo:      convRepo,
		msgRepo:       msgRepo,
		recipeService: recipeService,
		videoService:  videoService,
		logger:        logger,
	}
}

// RegisterRoutes attaches all API routes to the echo instance.
func (s *Server) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api")

	// Turn generation works with or without a credential.
	api.POST("/recipe", s.Recipe)
	api.POST("/videos", s.Videos)

	// History requires one.
	auth := api.Group("", s.AuthMiddleware)
	auth.GET("/conversations", s.ListConversations)
	auth.GET("/conversations/:id/messages", s.ListMessages)
	auth.DELETE("/conversations/:id", s.DeleteConversation)
	auth.POST("/chat", s.SaveTurn)
	auth.POST("/messages/:id/videos", s.UpdateVideos)
	auth.DELETE("/history", s.ClearHistory)
}
