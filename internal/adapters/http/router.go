package http

import (
	"context"

	"github.com/dkeye/roomchat/internal/adapters/signal"
	"github.com/dkeye/roomchat/internal/app"
	"github.com/dkeye/roomchat/internal/app/orch"
	"github.com/dkeye/roomchat/internal/config"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const sessionName = "RoomchatSession"

func SetupRouter(ctx context.Context, cfg *config.Config, o *orch.Orchestrator, catalog *app.RoomCatalog) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	secret := cfg.Secret
	if secret == "" {
		secret = cfg.JWT.Secret
	}
	store := cookie.NewStore([]byte(secret))
	store.Options(sessions.Options{Path: "/", MaxAge: 3600 * 24 * 7, HttpOnly: true})
	r.Use(sessions.Sessions(sessionName, store))
	r.Use(BearerTokenMiddleware())

	if cfg.StaticPath != "" {
		r.Static("/static", cfg.StaticPath)
		r.GET("/", func(c *gin.Context) {
			c.File(cfg.StaticPath + "/index.html")
		})
	}

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	h := &Handlers{Orch: o, Catalog: catalog}
	ctrl := signal.NewSignalWSController(o, signal.Options{
		SendBuffer:   cfg.SendBuffer,
		ReadLimit:    cfg.ReadLimit,
		PingPeriod:   cfg.PingPeriod,
		RateLimit:    cfg.RateLimit.Messages,
		RateInterval: cfg.RateLimit.Interval,
	})

	api := r.Group("/api")
	api.POST("/session", h.CreateSession)
	api.DELETE("/session", h.DeleteSession)

	authed := api.Group("", RequireUser(o.Gate))
	authed.GET("/rooms", h.ListRooms)
	authed.POST("/chat/rooms", h.CreateRoom)
	authed.POST("/chat/rooms/join", h.JoinRoom)
	authed.GET("/chat/rooms/:code/messages", h.History)

	api.GET("/ws", func(c *gin.Context) {
		log.Debug().Str("module", "adapters.http").Msg("ws endpoint hit")
		ctrl.HandleSignal(ctx, c)
	})

	return r
}
