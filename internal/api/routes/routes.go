package routes

import (
	"net/http"
	"time"

	"collab-service/internal/api/handlers"
	"collab-service/internal/api/middleware"
	"collab-service/internal/auth"
	"collab-service/internal/metrics"
	"collab-service/internal/presence"
	"collab-service/internal/websocket"
	"collab-service/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const maxAttachmentBytes = 25 << 20

// Deps are the components the HTTP surface exposes. RateLimiter and
// Uploader may be nil when Redis or MinIO are not configured.
type Deps struct {
	Hub              *websocket.Hub
	Registry         *presence.Registry
	Identity         auth.IdentityProvider
	RateLimiter      middleware.RateLimiter
	Uploader         handlers.Uploader
	WSSettings       websocket.Settings
	AllowedOrigins   []string
	ConnectPerMinute int
	Logger           *logger.Logger
}

type Router struct {
	engine            *gin.Engine
	wsHandler         *handlers.WSHandler
	presenceHandler   *handlers.PresenceHandler
	attachmentHandler *handlers.AttachmentHandler
	rateLimitMW       *middleware.RateLimitMiddleware
	authMW            *middleware.AuthMiddleware
	connectPerMinute  int
}

func NewRouter(deps Deps) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	// Add middlewares
	engine.Use(gin.Recovery())
	engine.Use(middleware.CORS(deps.AllowedOrigins))
	engine.Use(middleware.LogApi(deps.Logger))
	engine.Use(metrics.GinMiddleware())

	r := &Router{
		engine: engine,
		wsHandler: handlers.NewWSHandler(deps.Hub, deps.Identity,
			websocket.NewUpgrader(deps.AllowedOrigins), deps.WSSettings, deps.Logger),
		presenceHandler:   handlers.NewPresenceHandler(deps.Registry),
		attachmentHandler: handlers.NewAttachmentHandler(deps.Uploader, maxAttachmentBytes, deps.Logger),
		authMW:            middleware.NewAuthMiddleware(deps.Identity),
		connectPerMinute:  deps.ConnectPerMinute,
	}
	if deps.RateLimiter != nil {
		r.rateLimitMW = middleware.NewRateLimitMiddleware(deps.RateLimiter, deps.Logger)
	}
	return r
}

func (r *Router) SetupRoutes() {
	r.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.engine.Group("/api/v1")

	// WebSocket endpoint, rate limited per IP when Redis is available
	wsChain := []gin.HandlerFunc{}
	if r.rateLimitMW != nil && r.connectPerMinute > 0 {
		wsChain = append(wsChain, r.rateLimitMW.RateLimitIP("ws_connect", r.connectPerMinute, time.Minute))
	}
	wsChain = append(wsChain, r.wsHandler.HandleWebSocket)
	api.GET("/ws", wsChain...)

	presence := api.Group("/presence")
	{
		presence.GET("", r.presenceHandler.ListStatuses)
		presence.GET("/:userId", r.presenceHandler.GetUserStatus)
	}

	// Authenticated routes
	authed := api.Group("/")
	authed.Use(r.authMW.RequireAuth())
	{
		authed.POST("/attachments", r.attachmentHandler.Upload)
	}
}

func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
