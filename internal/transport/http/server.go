package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/matchchat-server/internal/config"
	"github.com/vovakirdan/matchchat-server/internal/core"
	"github.com/vovakirdan/matchchat-server/internal/service/chat"
	"github.com/vovakirdan/matchchat-server/internal/service/matches"
	"github.com/vovakirdan/matchchat-server/internal/store"
)

// NewServer builds an HTTP server serving the REST API and the realtime channel on one port.
func NewServer(
	hub *core.Hub,
	chatSvc *chat.Service,
	linker *matches.Linker,
	profiles store.ProfileStore,
	cfg *config.Config,
	logger *zerolog.Logger,
) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))
	router.Use(CORSMiddleware(cfg.AllowedOrigins))

	router.GET("/health", healthHandler)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/ws", gin.WrapH(NewWSHandler(hub, WSOptions{
		AllowedOrigins:     cfg.AllowedOrigins,
		MaxMessageBytes:    cfg.MaxMessageBytes,
		SessionBuffer:      cfg.SessionBuffer,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	}, logger)))

	conversations := NewConversationHandlers(chatSvc, hub, logger)
	router.POST("/messages", conversations.CreateConversation)
	router.GET("/messages/:id", conversations.GetConversation)
	router.PUT("/sendMessages/:id", conversations.SendMessage)

	profileHandlers := NewProfileHandlers(profiles, linker, logger)
	router.GET("/people", profileHandlers.ListPeople)
	router.GET("/user/:id", profileHandlers.GetUser)
	router.GET("/matchFound/:id", profileHandlers.GetUser)
	router.GET("/getUser/:phone", profileHandlers.GetUserByPhone)
	router.POST("/saveData", profileHandlers.SaveData)
	router.PUT("/updateData/:id", profileHandlers.UpdateData)
	router.PUT("/updateExsistingMatch/:id", profileHandlers.UpdateExistingMatch)
	router.POST("/matches/conversation", profileHandlers.EnsureConversation)

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
