package logger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// RequestIDHeader is the header and metadata key carrying the request id.
const RequestIDHeader = "x-request-id"

// RequestIDInterceptor tags every unary call with a request id, reusing the one sent
// by the client in metadata when present.
func RequestIDInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		requestID := ""
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if values := md.Get(RequestIDHeader); len(values) > 0 {
				requestID = values[0]
			}
		}
		if requestID == "" {
			requestID = uuid.NewString()
		}
		return handler(WithRequestID(ctx, requestID), req)
	}
}

// UnaryLoggingInterceptor writes one log line per unary call with its status code.
// It must run after RequestIDInterceptor to pick the request id up.
func UnaryLoggingInterceptor(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		code := status.Code(err)
		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.String("code", code.String()),
			zap.Duration("latency", time.Since(start)),
		}
		l := WithContext(ctx, log)
		switch code {
		case codes.OK:
			l.Info("grpc request", fields...)
		case codes.Internal, codes.Unknown, codes.Unavailable, codes.DataLoss:
			l.Error("grpc request", append(fields, zap.Error(err))...)
		default:
			l.Warn("grpc request", append(fields, zap.Error(err))...)
		}
		return resp, err
	}
}
