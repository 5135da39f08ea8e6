// Package http exposes the gateway's HTTP surface: the WebSocket endpoint,
// health, journal-backed stats and Prometheus metrics.
package http

import (
	stdhttp "net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/avetrov/channelgate/internal/config"
	"github.com/avetrov/channelgate/internal/metrics"
	"github.com/avetrov/channelgate/internal/store"
)

// recentFailureLimit caps the auth failure list in /stats.
const recentFailureLimit = 20

// NewServer builds the HTTP server with all routes registered.
func NewServer(wsHandler stdhttp.Handler, journal store.Journal, reg *prometheus.Registry, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery(), loggerMiddleware(logger))

	router.GET("/health", healthHandler)
	router.GET("/stats", statsHandler(journal, logger))
	router.GET("/metrics", gin.WrapH(metrics.Handler(reg)))
	router.GET("/ws", gin.WrapH(wsHandler))

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}

// StatsResponse is the /stats body.
type StatsResponse struct {
	Hooks        store.HookStats    `json:"hooks"`
	AuthFailures []AuthFailureEntry `json:"auth_failures"`
}

// AuthFailureEntry is one recent rejected subscription.
type AuthFailureEntry struct {
	Channel   string    `json:"channel"`
	SocketID  string    `json:"socket_id"`
	Status    int       `json:"status"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

func statsHandler(journal store.Journal, logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if journal == nil {
			c.JSON(stdhttp.StatusOK, StatsResponse{})
			return
		}

		hooks, err := journal.HookStats(c.Request.Context())
		if err != nil {
			logger.Warn().Err(err).Msg("query hook stats")
			c.JSON(stdhttp.StatusInternalServerError, gin.H{"error": "stats unavailable"})
			return
		}

		failures, err := journal.RecentAuthFailures(c.Request.Context(), recentFailureLimit)
		if err != nil {
			logger.Warn().Err(err).Msg("query auth failures")
			c.JSON(stdhttp.StatusInternalServerError, gin.H{"error": "stats unavailable"})
			return
		}

		resp := StatsResponse{Hooks: hooks, AuthFailures: make([]AuthFailureEntry, 0, len(failures))}
		for _, f := range failures {
			resp.AuthFailures = append(resp.AuthFailures, AuthFailureEntry{
				Channel:   f.Channel,
				SocketID:  f.SocketID,
				Status:    f.Status,
				Reason:    f.Reason,
				CreatedAt: f.CreatedAt,
			})
		}
		c.JSON(stdhttp.StatusOK, resp)
	}
}

func loggerMiddleware(logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("http request")
	}
}
