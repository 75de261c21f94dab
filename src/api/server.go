package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stake-plus/countdown/src/logging"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// Server runs the statistics API as a module.
type Server struct {
	addr    string
	handler *gin.Engine
	log     *zap.Logger

	srv  *http.Server
	done chan struct{}
}

func NewServer(addr string, handler *gin.Engine, log *zap.Logger) *Server {
	return &Server{addr: addr, handler: handler, log: log.Named("api")}
}

func (s *Server) Name() string { return "api" }

// Start binds the listener before returning so address errors fail startup.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("api: listen %s: %w", s.addr, err)
	}
	s.srv = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          logging.StdLog(s.log, zap.WarnLevel),
	}
	s.done = make(chan struct{})
	go func() {
		defer close(s.done)
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("serve failed", zap.Error(err))
		}
	}()
	s.log.Info("listening", zap.String("addr", ln.Addr().String()))
	return nil
}

func (s *Server) Stop(ctx context.Context) {
	if s.srv == nil {
		return
	}
	shutCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(shutCtx); err != nil {
		s.log.Warn("shutdown failed", zap.Error(err))
	}
	<-s.done
}
