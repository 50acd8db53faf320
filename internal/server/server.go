// Package server exposes the HTTP endpoints of the bot: liveness checks,
// the Telegram webhook and Prometheus metrics.
package server

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 5 * time.Second

// WebhookHandler processes one update posted by Telegram.
type WebhookHandler interface {
	HandleWebhook(ctx context.Context, body io.Reader) error
}

// Server is the HTTP server of the bot.
type Server struct {
	srv *http.Server
	log *slog.Logger
}

// Webhook configures the POST route Telegram delivers updates to.
type Webhook struct {
	Path    string
	Handler WebhookHandler

	// Secret must match the value of SecretHeader. Empty disables the check.
	Secret       string
	SecretHeader string
}

// New builds the routes. Updates are accepted on wh.Path only when
// wh.Handler is non-nil.
func New(addr string, wh Webhook, log *slog.Logger) *Server {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(log))

	r.GET("/", health)
	r.HEAD("/", health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET(wh.Path, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	if wh.Handler != nil {
		r.POST(wh.Path, webhookHandler(wh, log))
	}

	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: log,
	}
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func webhookHandler(wh Webhook, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if wh.Secret != "" {
			got := c.GetHeader(wh.SecretHeader)
			if subtle.ConstantTimeCompare([]byte(got), []byte(wh.Secret)) != 1 {
				log.Warn("webhook secret mismatch", "remote", c.ClientIP())
				c.JSON(http.StatusUnauthorized, gin.H{"ok": false})
				return
			}
		}
		if err := wh.Handler.HandleWebhook(c.Request.Context(), c.Request.Body); err != nil {
			log.Warn("handle webhook", "error", err)
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

func requestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
