// Package httpapi exposes a replay session over HTTP for a render layer
// and the playback UI.
package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// NewRouter wires the API routes for h.
func NewRouter(h *Handler, logger *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"session": h.session.ID(),
		})
	})

	api := r.Group("/api/v1")
	{
		api.GET("/policy", h.GetPolicy)
		api.GET("/range", h.GetRange)
		api.GET("/frame", h.GetFrame)
		api.GET("/frames", h.GetFrames)

		pb := api.Group("/playback")
		{
			pb.GET("", h.GetPlayback)
			pb.POST("/toggle", h.Toggle)
			pb.POST("/stop", h.Stop)
			pb.POST("/seek", h.Seek)
			pb.POST("/speed", h.SetSpeed)
			pb.POST("/forward", h.StepForward)
			pb.POST("/backward", h.StepBackward)
		}
	}

	return r
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

// Serve runs handler on addr until ctx is cancelled, then shuts down
// gracefully.
func Serve(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", addr)
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("http server stopped", "addr", addr)
	return nil
}
