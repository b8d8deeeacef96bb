package grpc

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// LedgerService is the service name reported next to the server-wide "" entry.
const LedgerService = "ledger.v1.Ledger"

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

// Ping calls f(ctx).
func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// HealthService probes the ledger's dependencies and publishes the result through
// the standard gRPC health protocol.
type HealthService struct {
	server   *health.Server
	interval time.Duration
	timeout  time.Duration
	log      *zap.Logger

	mu   sync.RWMutex
	deps map[string]Pinger
}

// NewHealthService creates a health service that re-checks every interval.
func NewHealthService(interval time.Duration, log *zap.Logger) *HealthService {
	return &HealthService{
		server:   health.NewServer(),
		interval: interval,
		timeout:  2 * time.Second,
		log:      log,
		deps:     make(map[string]Pinger),
	}
}

// AddDependency registers a dependency that must answer for the service to be serving.
func (h *HealthService) AddDependency(name string, p Pinger) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.deps[name] = p
}

// Register exposes the health service on s.
func (h *HealthService) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, h.server)
}

// Server returns the underlying health server.
func (h *HealthService) Server() healthpb.HealthServer {
	return h.server
}

// Check pings every dependency once, updates the published status and returns
// the failures joined together.
func (h *HealthService) Check(ctx context.Context) error {
	h.mu.RLock()
	deps := maps.Clone(h.deps)
	h.mu.RUnlock()
	names := slices.Sorted(maps.Keys(deps))

	var errs []error
	for _, name := range names {
		pingCtx, cancel := context.WithTimeout(ctx, h.timeout)
		err := deps[name].Ping(pingCtx)
		cancel()
		if err != nil {
			h.log.Warn("dependency unhealthy", zap.String("dependency", name), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}

	status := healthpb.HealthCheckResponse_SERVING
	if len(errs) > 0 {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	h.server.SetServingStatus("", status)
	h.server.SetServingStatus(LedgerService, status)

	return errors.Join(errs...)
}

// Run checks immediately and then every interval until ctx is done.
func (h *HealthService) Run(ctx context.Context) {
	_ = h.Check(ctx)

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = h.Check(ctx)
		}
	}
}

// Shutdown reports NOT_SERVING to every watcher and ignores later updates.
func (h *HealthService) Shutdown() {
	h.server.Shutdown()
}
