package server

import (
	"net/http"

	"sus-party/internal/config"
	"sus-party/internal/game"
	"sus-party/internal/logging"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Server struct {
	registry *game.Registry
	hub      *wsHub
	archive  *archive
	db       *gorm.DB
	cfg      config.Config
	logger   *zap.Logger
}

// New wires the session registry to the websocket hub and the match
// archive. conn may be nil, in which case finished games are not stored.
func New(conn *gorm.DB, cfg config.Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	registerValidators()
	hub := newWSHub(logger.Named("ws"))
	store := &archive{db: conn}
	registry := game.NewRegistry(game.RegistryConfig{
		Messenger: hub,
		Sink:      store,
		Logger:    logger.Named("game"),
		Rules:     cfg.Rules(),
		Resolve:   hub.addressOf,
	})
	return &Server{
		registry: registry,
		hub:      hub,
		archive:  store,
		db:       conn,
		cfg:      cfg,
		logger:   logger,
	}
}

func (s *Server) Registry() *game.Registry {
	return s.registry
}

func (s *Server) Handler() http.Handler {
	router := gin.New()
	router.Use(logging.RequestLogger(s.logger.Named("http")), gin.Recovery())

	router.GET("/", s.handleHome)
	router.GET("/status", s.handleStatus)
	router.GET("/ws", s.handleWebsocket)

	api := router.Group("/api")
	api.POST("/sessions", s.handleCreateSession)
	api.POST("/sessions/leave", s.handleLeaveSession)
	api.POST("/sessions/:code/join", s.handleJoinSession)
	api.GET("/sessions", s.handleListSessions)
	api.GET("/sessions/:code", s.handleGetSession)
	api.GET("/sessions/:code/qr", s.handleSessionQR)
	api.POST("/actions", s.handleAction)
	api.POST("/confirmations/task", s.handleConfirmTask)
	api.POST("/confirmations/sabotage", s.handleConfirmSabotage)
	api.GET("/matches", s.handleListMatches)
	api.GET("/matches/:id", s.handleGetMatch)
	return router
}
