package grpc

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health/grpc_health_v1"
)

// Probe checks one dependency; a nil error means healthy
type Probe struct {
	Name  string
	Check func(ctx context.Context) error
}

// Checker runs dependency probes; shared by the gRPC and HTTP health endpoints
type Checker struct {
	probes []Probe
	log    *zap.Logger
}

// NewChecker creates a checker over the given probes
func NewChecker(log *zap.Logger, probes ...Probe) *Checker {
	return &Checker{probes: probes, log: log}
}

// Check returns the name of the first failing probe, or "" when all pass
func (c *Checker) Check(ctx context.Context) (string, error) {
	for _, p := range c.probes {
		probeCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := p.Check(probeCtx)
		cancel()
		if err != nil {
			c.log.Error("Health check failed", zap.String("dependency", p.Name), zap.Error(err))
			return p.Name, err
		}
	}
	return "", nil
}

// HealthServer implements the gRPC health checking protocol
type HealthServer struct {
	grpc_health_v1.UnimplementedHealthServer
	checker *Checker
}

// NewHealthServer creates a new health check server
func NewHealthServer(checker *Checker) *HealthServer {
	return &HealthServer{checker: checker}
}

func (h *HealthServer) status(ctx context.Context) grpc_health_v1.HealthCheckResponse_ServingStatus {
	if _, err := h.checker.Check(ctx); err != nil {
		return grpc_health_v1.HealthCheckResponse_NOT_SERVING
	}
	return grpc_health_v1.HealthCheckResponse_SERVING
}

// Check implements the health check
func (h *HealthServer) Check(ctx context.Context, req *grpc_health_v1.HealthCheckRequest) (*grpc_health_v1.HealthCheckResponse, error) {
	return &grpc_health_v1.HealthCheckResponse{Status: h.status(ctx)}, nil
}

// Watch sends the current status once and returns
func (h *HealthServer) Watch(req *grpc_health_v1.HealthCheckRequest, server grpc_health_v1.Health_WatchServer) error {
	return server.Send(&grpc_health_v1.HealthCheckResponse{Status: h.status(server.Context())})
}

// LoggingInterceptor logs all gRPC requests
func LoggingInterceptor(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		if err != nil {
			log.Error("gRPC request failed",
				zap.String("method", info.FullMethod),
				zap.Duration("duration", time.Since(start)),
				zap.Error(err),
			)
		} else {
			log.Debug("gRPC request completed",
				zap.String("method", info.FullMethod),
				zap.Duration("duration", time.Since(start)),
			)
		}

		return resp, err
	}
}
