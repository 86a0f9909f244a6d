package routes

import (
	"net/http"
	"strings"
	"time"

	"blog/config"
	"blog/handlers"
	"blog/middleware"
	"blog/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Deps are the collaborators the router needs. Hub and Pinger may be nil.
type Deps struct {
	Config   *config.Config
	Logger   *zap.Logger
	Posts    *handlers.PostHandler
	Hub      *websocket.Hub
	Pinger   handlers.Pinger
	Registry *prometheus.Registry
}

func SetupRouter(d Deps) *gin.Engine {
	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(d.Logger))
	router.Use(middleware.Recovery(d.Logger))
	if d.Registry != nil {
		router.Use(middleware.NewMetrics(d.Registry).Handler())
	}
	router.Use(cors.New(corsConfig(d.Config)))
	if d.Config.RateLimitPerMinute > 0 {
		router.Use(middleware.RateLimit(middleware.NewIPRateLimiter(d.Config.RateLimitPerMinute)))
	}

	router.GET("/", handlers.Banner)
	router.GET("/health", handlers.Health)
	router.GET("/health/ready", handlers.Ready(d.Pinger, d.Logger))
	if d.Registry != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{})))
	}
	if d.Hub != nil {
		router.GET("/ws", gin.WrapF(d.Hub.Handler()))
	}

	posts := router.Group("/posts")
	{
		posts.POST("/", d.Posts.CreatePost)
		posts.GET("/", d.Posts.ListPosts)
		posts.GET("/:id", d.Posts.GetPost)
		posts.PUT("/:id", d.Posts.UpdatePost)
		posts.DELETE("/:id", d.Posts.DeletePost)
		posts.POST("/:id/comments/", d.Posts.CreateComment)
		posts.POST("/:id/like/", d.Posts.LikePost)
		posts.POST("/:id/dislike/", d.Posts.DislikePost)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not Found"})
	})

	return router
}

func corsConfig(cfg *config.Config) cors.Config {
	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Requested-With", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", "Content-Type", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	origins := cfg.Origins()
	if len(origins) == 0 || (len(origins) == 1 && strings.TrimSpace(origins[0]) == "*") {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = origins
	}
	return corsCfg
}
