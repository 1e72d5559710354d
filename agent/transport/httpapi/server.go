// Package httpapi exposes the assistant over a small JSON API.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/rs/zerolog/log"
	orchestratorx "github.com/tanpawarit/Chative-Desktop-Assistant/agent/agents/orchestrator"
	"github.com/tanpawarit/Chative-Desktop-Assistant/agent/catalog"
	nodex "github.com/tanpawarit/Chative-Desktop-Assistant/agent/nodes/orchestrator"
	statex "github.com/tanpawarit/Chative-Desktop-Assistant/agent/state"
	metricsx "github.com/tanpawarit/Chative-Desktop-Assistant/pkg/metrics"
)

type Config struct {
	Addr            string        `split_words:"true" default:"127.0.0.1:8787"`
	ShutdownTimeout time.Duration `split_words:"true" default:"5s"`
}

// Assistant is the part of the orchestrator the API drives.
type Assistant interface {
	Turn(ctx context.Context, text string) (nodex.GraphOutput, error)
	State() orchestratorx.State
	Session() *statex.Session
}

type Server struct {
	assistant Assistant
	catalog   *catalog.Catalog
	metrics   *metricsx.Metrics
	router    *gin.Engine

	// turn is held for the whole of one turn; a second request gets 409.
	turn sync.Mutex
}

func NewServer(assistant Assistant, apps *catalog.Catalog, metrics *metricsx.Metrics) *Server {
	if apps == nil {
		apps = catalog.New(nil)
	}
	s := &Server{
		assistant: assistant,
		catalog:   apps,
		metrics:   metrics,
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(s.observe())

	router.GET("/healthz", s.health)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	v1 := router.Group("/v1", localOrigin())
	v1.POST("/messages", requireJSON(), s.postMessage)
	v1.GET("/history", s.getHistory)
	v1.DELETE("/history", s.deleteHistory)
	v1.GET("/apps", s.listApps)

	s.router = router
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, cfg Config) error {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("http api listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info().Msg("http api stopped")
	return nil
}

func (s *Server) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := c.Writer.Status()
		s.metrics.RecordHTTP(c.Request.Method, path, strconv.Itoa(status))
		log.Debug().
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", status).
			Dur("elapsed", time.Since(start)).
			Msg("http request")
	}
}

// localOrigin refuses browser requests sent from any page not served from
// this machine. Requests without an Origin header (curl, the CLI) pass.
func localOrigin() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" || isLoopbackOrigin(origin) {
			c.Next()
			return
		}
		log.Warn().Str("origin", origin).Str("path", c.Request.URL.Path).Msg("rejected cross-origin request")
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "cross-origin requests are not allowed"})
	}
}

func isLoopbackOrigin(origin string) bool {
	u, err := url.Parse(origin)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}
	host := u.Hostname()
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// requireJSON rejects bodies not declared as JSON, which also keeps browsers
// from posting here without a preflight.
func requireJSON() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.ContentType() != binding.MIMEJSON {
			c.AbortWithStatusJSON(http.StatusUnsupportedMediaType, gin.H{"error": "content type must be application/json"})
			return
		}
		c.Next()
	}
}
