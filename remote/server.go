// Package remote is a small local HTTP API over the session, for external
// speech engines, scripts and alternative front ends.
package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"rifflynx/debug"
	"rifflynx/session"
	"rifflynx/speech"
)

const shutdownTimeout = 5 * time.Second

// Controller is the part of the session the API drives
type Controller interface {
	Snapshot() session.Snapshot
	Transcript(text string)
	Submit(text string)
	Preview(steps [][]string)
	PlaySequence(steps [][]string)
	StopPlayback()
	SetComposerFocus(focused bool)
	SetComposition(text string)
	AnimationComplete()
}

// Voice is the speech recognizer supervisor, reset after a fatal error
type Voice interface {
	Reset()
	Status() (speech.Status, error)
}

// Server serves the API on a local address
type Server struct {
	ctrl   Controller
	voice  Voice
	addr   string
	router *gin.Engine
}

func NewServer(ctrl Controller, addr string) *Server {
	s := &Server{ctrl: ctrl, addr: addr}
	s.router = s.setupRouter()
	return s
}

func (s *Server) setupRouter() *gin.Engine {
	router := gin.New()
	router.Use(Recover())
	router.Use(RequestTracking())

	router.GET("/health", HealthCheck)

	api := router.Group("/api")
	{
		api.GET("/state", s.state)
		api.POST("/transcripts", s.transcript)
		api.POST("/messages", s.submit)
		api.POST("/messages/:id/parts/:part/preview", s.previewPart)
		api.POST("/preview", s.preview)
		api.POST("/play", s.play)
		api.POST("/stop", s.stop)
		api.PUT("/composer", s.composer)
		api.POST("/animation-complete", s.animationComplete)
		api.POST("/voice/reset", s.resetVoice)
	}
	return router
}

// WithVoice enables POST /api/voice/reset
func (s *Server) WithVoice(v Voice) *Server {
	s.voice = v
	return s
}

// Handler exposes the router, for tests and embedding
func (s *Server) Handler() http.Handler { return s.router }

// Run serves until ctx is done, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		debug.Log("remote", "listening on %s", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("remote api: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("remote api shutdown: %w", err)
		}
		return nil
	}
}
