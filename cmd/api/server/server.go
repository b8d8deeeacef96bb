package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	grpcadapter "ledger-service/internal/adapter/grpc"
	"ledger-service/internal/adapter/grpc/middleware"
	"ledger-service/internal/config"
)

// Server struct holds all server dependencies
type Server struct {
	Config *config.Config
	Logger *zap.Logger
	Health *grpcadapter.HealthService
	GRPC   *grpc.Server
	Gin    *http.Server
}

// New creates a new server instance
func New(cfg *config.Config, l *zap.Logger, router http.Handler, health *grpcadapter.HealthService, rateLimiter *middleware.RateLimiter) *Server {
	return &Server{
		Config: cfg,
		Logger: l,
		Health: health,
		GRPC:   SetupGRPC(health, rateLimiter, l),
		Gin:    SetupGinServer(router, ":"+cfg.App.HTTPPort, l),
	}
}

// Start runs the gRPC and REST servers and the health probe. When one server
// fails the other is closed and the error returned; a canceled ctx leaves the
// servers to Shutdown.
func (s *Server) Start(ctx context.Context) error {
	lc := net.ListenConfig{}
	lis, err := lc.Listen(ctx, "tcp", s.grpcAddress())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.grpcAddress(), err)
	}

	parent := ctx
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.Logger.Info("gRPC server running", zap.String("address", s.grpcAddress()))
		if err := s.GRPC.Serve(lis); err != nil {
			return fmt.Errorf("gRPC server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		s.Logger.Info("REST API running", zap.String("address", s.Gin.Addr))
		if err := s.Gin.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("REST server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		s.Health.Run(ctx)
		if parent.Err() == nil {
			s.GRPC.Stop()
			_ = s.Gin.Close()
		}
		return nil
	})

	return g.Wait()
}

// Shutdown stops accepting requests and drains the ones in flight.
func (s *Server) Shutdown(ctx context.Context) error {
	s.Health.Shutdown()

	var errs []error
	if s.Gin != nil {
		s.Logger.Info("shutting down REST server...")
		if err := s.Gin.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("REST shutdown: %w", err))
		}
	}

	if s.GRPC != nil {
		s.Logger.Info("shutting down gRPC server...")
		stopped := make(chan struct{})
		go func() {
			s.GRPC.GracefulStop()
			close(stopped)
		}()
		select {
		case <-stopped:
		case <-ctx.Done():
			s.GRPC.Stop()
			errs = append(errs, fmt.Errorf("gRPC shutdown: %w", ctx.Err()))
		}
	}

	return errors.Join(errs...)
}

// grpcAddress returns the gRPC server address
func (s *Server) grpcAddress() string {
	return ":" + s.Config.App.GRPCPort
}
