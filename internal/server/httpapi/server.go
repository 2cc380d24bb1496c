// Package httpapi exposes the account and catalog services over HTTP using
// gin. All catalog routes and the account routes except register/login sit
// behind bearer authentication.
package httpapi

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/avidalm/iptvgate/internal/logging"
	"github.com/avidalm/iptvgate/internal/server/config"
	"github.com/avidalm/iptvgate/internal/server/services"
)

type Server struct {
	engine    *gin.Engine
	accounts  *services.AccountService
	catalog   *services.CatalogService
	logger    logging.Logger
	jwtSecret []byte
	debug     bool
}

// NewServer builds the gin engine with CORS, logging, and all routes
// registered.
func NewServer(accounts *services.AccountService, catalog *services.CatalogService, cfg *config.Config, logger logging.Logger) *Server {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		accounts:  accounts,
		catalog:   catalog,
		logger:    logger,
		jwtSecret: []byte(cfg.JWTSecret),
		debug:     cfg.Debug,
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	if cfg.Debug {
		engine.Use(requestLogger(logger))
	}
	engine.Use(corsMiddleware(cfg.AllowedOrigins))

	engine.GET("/health", s.health)

	authGroup := engine.Group("/api/auth")
	{
		authGroup.POST("/register", s.register)
		authGroup.POST("/login", s.login)

		protected := authGroup.Group("")
		protected.Use(s.bearerAuth())
		protected.GET("/profile", s.profile)
		protected.PUT("/iptv-credentials", s.updateCredentials)
		protected.DELETE("/account", s.deleteAccount)
	}

	live := engine.Group("/api/live")
	live.Use(s.bearerAuth())
	{
		live.GET("/categories", s.liveCategories)
		live.GET("/streams", s.liveStreams)
		live.GET("/streams/:category_id", s.liveStreamsByCategory)
	}

	vod := engine.Group("/api/vod")
	vod.Use(s.bearerAuth())
	{
		vod.GET("/categories", s.vodCategories)
		vod.GET("/streams/:category_id", s.vodStreams)
		vod.GET("/info/:vod_id", s.vodInfo)
	}

	s.engine = engine
	return s
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	conf := cors.DefaultConfig()
	conf.AllowHeaders = append(conf.AllowHeaders, "Authorization")
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		conf.AllowAllOrigins = true
	} else {
		conf.AllowOrigins = origins
	}
	return cors.New(conf)
}

// Handler returns the root HTTP handler for use by an http.Server.
func (s *Server) Handler() *gin.Engine {
	return s.engine
}

func (s *Server) health(c *gin.Context) {
	respondData(c, 200, gin.H{"status": "ok"})
}
