package telegram

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mymmrac/telego"
	botpkg "github.com/sepehrmoghiseh/musifyyy/bot"
)

// SecretHeader carries the webhook secret set with SetWebhook.
const SecretHeader = "X-Telegram-Bot-Api-Secret-Token"

// WebhookPath is the route Telegram posts updates to.
const WebhookPath = "/webhook"

// ServerOptions configures the HTTP server.
type ServerOptions struct {
	Addr string
	// Webhook enables the update route.
	Webhook bool
	Secret  string
	// Metrics is served on /metrics when set.
	Metrics http.Handler
	Logger  botpkg.Logger
}

// Server receives webhook updates and serves health and metrics.
type Server struct {
	engine  *gin.Engine
	srv     *http.Server
	updates chan telego.Update
	secret  string
	logger  botpkg.Logger
}

// NewServer builds the gin engine and its routes.
func NewServer(opts ServerOptions) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		engine:  engine,
		updates: make(chan telego.Update, 100),
		secret:  opts.Secret,
		logger:  opts.Logger,
	}
	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if opts.Metrics != nil {
		engine.GET("/metrics", gin.WrapH(opts.Metrics))
	}
	if opts.Webhook {
		engine.POST(WebhookPath, s.handleUpdate)
	}

	s.srv = &http.Server{
		Addr:              opts.Addr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler exposes the router.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Updates returns the channel webhook updates are delivered on.
func (s *Server) Updates() <-chan telego.Update {
	return s.updates
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if s.logger != nil {
			s.logger.Info("http server listening", "addr", s.srv.Addr)
		}
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.srv.Shutdown(shutdownCtx)
}

func (s *Server) handleUpdate(c *gin.Context) {
	if s.secret != "" {
		got := c.GetHeader(SecretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(s.secret)) != 1 {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
	}

	var update telego.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		if s.logger != nil {
			s.logger.Warn("invalid webhook payload", "error", err)
		}
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	select {
	case s.updates <- update:
		c.Status(http.StatusOK)
	case <-c.Request.Context().Done():
		c.AbortWithStatus(http.StatusServiceUnavailable)
	}
}
