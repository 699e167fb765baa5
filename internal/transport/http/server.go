package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/owlchat/owlchat-server/internal/config"
	"github.com/owlchat/owlchat-server/internal/core"
	"github.com/owlchat/owlchat-server/internal/metrics"
)

// NewServer builds the HTTP server: health, metrics and the websocket
// endpoint the channel protocol runs over.
func NewServer(coord *core.Coordinator, hub *Hub, m *metrics.Metrics, cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(LoggerMiddleware(logger))

	engine.GET("/healthz", healthHandler)
	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(m.Reg, promhttp.HandlerOpts{})))
	engine.GET("/ws", gin.WrapH(NewWSHandler(coord, hub, m, logger, cfg.MessageRateLimit)))

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           engine,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.JSON(stdhttp.StatusOK, gin.H{"status": "ok"})
}
