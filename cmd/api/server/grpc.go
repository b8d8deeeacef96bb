package server

import (
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	grpcadapter "ledger-service/internal/adapter/grpc"
	"ledger-service/internal/adapter/grpc/middleware"
	"ledger-service/pkg/logger"
)

// SetupGRPC creates the gRPC server carrying the health service.
func SetupGRPC(health *grpcadapter.HealthService, rateLimiter *middleware.RateLimiter, l *zap.Logger) *grpc.Server {
	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			logger.RequestIDInterceptor(),
			logger.UnaryLoggingInterceptor(l),
			rateLimiter.UnaryInterceptor(),
		),
	)
	health.Register(grpcServer)
	reflection.Register(grpcServer)

	return grpcServer
}
