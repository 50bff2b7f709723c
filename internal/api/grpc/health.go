package grpc

import (
	"context"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	"backoffice-ledger/internal/logger"
)

// ServiceName is the health service name probes ask for besides the overall "" entry
const ServiceName = "backoffice.Ledger"

// Pinger reports whether the database is reachable
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthMonitor keeps the gRPC health status in step with database reachability
type HealthMonitor struct {
	db       Pinger
	server   *health.Server
	interval time.Duration
	timeout  time.Duration

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func NewHealthMonitor(db Pinger, interval time.Duration) *HealthMonitor {
	return &HealthMonitor{
		db:       db,
		server:   health.NewServer(),
		interval: interval,
		timeout:  2 * time.Second,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Check pings the database once and publishes the result
func (m *HealthMonitor) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	st := healthpb.HealthCheckResponse_SERVING
	if err := m.db.PingContext(ctx); err != nil {
		logger.Warn("Database ping failed", "error", err)
		st = healthpb.HealthCheckResponse_NOT_SERVING
	}
	m.server.SetServingStatus("", st)
	m.server.SetServingStatus(ServiceName, st)
	return st
}

// Run checks on every tick until Stop is called
func (m *HealthMonitor) Run() {
	defer close(m.done)
	m.Check(context.Background())

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.Check(context.Background())
		case <-m.stop:
			return
		}
	}
}

// Stop ends Run and marks every service NOT_SERVING
func (m *HealthMonitor) Stop() {
	m.stopOnce.Do(func() {
		close(m.stop)
		m.server.Shutdown()
	})
}

// Done is closed once Run has returned
func (m *HealthMonitor) Done() <-chan struct{} {
	return m.done
}

// NewServer builds the gRPC server exposing health and reflection
func NewServer(monitor *HealthMonitor) *grpc.Server {
	s := grpc.NewServer(grpc.UnaryInterceptor(unaryLogger))
	healthpb.RegisterHealthServer(s, monitor.server)
	// grpcurl support
	reflection.Register(s)
	return s
}

func unaryLogger(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Panic in gRPC handler", "method", info.FullMethod, "panic", r)
			err = status.Error(codes.Internal, "internal error")
		}
		logger.Debug("gRPC call", "method", info.FullMethod, "code", status.Code(err).String(), "duration", time.Since(start))
	}()
	return handler(ctx, req)
}
