// Command datexd runs a standalone DATEX runtime server: a ComHub reachable
// over gRPC, with Prometheus metrics and OTLP tracing alongside it. It can
// be run as a sidecar process or a peer in a larger DATEX deployment.
//
// Usage:
//
//	go run ./cmd/datexd                       # defaults, :18080
//	go run ./cmd/datexd -config datexd.yaml   # load RuntimeConfig from YAML
//	go build -o datexd ./cmd/datexd && ./datexd -addr :9000
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"

	"github.com/unyt-org/datex-core-go/comhub"
	"github.com/unyt-org/datex-core-go/config"
	"github.com/unyt-org/datex-core-go/endpoint"
	"github.com/unyt-org/datex-core-go/observability"
	"github.com/unyt-org/datex-core-go/runtime"
	transportgrpc "github.com/unyt-org/datex-core-go/transport/grpc"
)

// stdLogger implements the shared four-method Logger interface using the
// standard library log package.
type stdLogger struct{}

func (l *stdLogger) Debug(msg string, keysAndValues ...any) {
	log.Printf("[DEBUG] %s %v", msg, keysAndValues)
}

func (l *stdLogger) Info(msg string, keysAndValues ...any) {
	log.Printf("[INFO] %s %v", msg, keysAndValues)
}

func (l *stdLogger) Warn(msg string, keysAndValues ...any) {
	log.Printf("[WARN] %s %v", msg, keysAndValues)
}

func (l *stdLogger) Error(msg string, keysAndValues ...any) {
	log.Printf("[ERROR] %s %v", msg, keysAndValues)
}

func main() {
	configPath := flag.String("config", "", "path to a RuntimeConfig YAML file (defaults used if empty)")
	addr := flag.String("addr", "", "gRPC listen address (overrides config's grpc_listen_address)")
	flag.Parse()

	logger := &stdLogger{}

	cfg := config.DefaultRuntimeConfig()
	if *configPath != "" {
		loaded, err := config.LoadRuntimeConfig(*configPath)
		if err != nil {
			log.Fatalf("datexd: failed to load config: %v", err)
		}
		cfg = loaded
	}
	if *addr != "" {
		cfg.GRPCListenAddress = *addr
	}

	self, err := endpoint.Parse(cfg.SelfEndpoint)
	if err != nil {
		log.Fatalf("datexd: invalid self_endpoint %q: %v", cfg.SelfEndpoint, err)
	}

	if cfg.JaegerEndpoint != "" {
		shutdown, err := observability.InitTracer(observability.TracerConfig{
			ServiceName:       "datexd",
			CollectorEndpoint: cfg.JaegerEndpoint,
			Self:              self,
			Deterministic:     cfg.Deterministic,
		})
		if err != nil {
			logger.Warn("tracer_init_failed", "error", err.Error())
		} else {
			defer func() { _ = shutdown(context.Background()) }()
		}
	}

	rt := runtime.New(self, runtime.Config{
		Logger:                 logger,
		Deterministic:          cfg.Deterministic,
		AllowRemoteExecution:   cfg.AllowRemoteExecution,
		DefaultTimeout:         cfg.ResponseTimeout(),
		RemoteExecutionTimeout: cfg.RemoteExecutionTimeout(),
	})
	logger.Info("runtime_created", "self", self.String(), "deterministic", cfg.Deterministic)

	grpcLogger := transportgrpc.NoopLogger()
	server := grpc.NewServer(transportgrpc.ServerOptions(grpcLogger)...)
	svc := transportgrpc.NewService(grpcLogger, func(iface comhub.ComInterface) {
		logger.Info("interface_accepted", "interface_id", iface.ID())
		ctx := context.Background()
		if err := rt.Hub.RegisterInterface(ctx, iface); err != nil {
			logger.Error("interface_register_failed", "interface_id", iface.ID(), "error", err.Error())
		}
	})
	transportgrpc.RegisterBlockTransportServer(server, svc)
	logger.Info("grpc_server_configured", "service", "BlockTransport")

	lis, err := net.Listen("tcp", cfg.GRPCListenAddress)
	if err != nil {
		log.Fatalf("datexd: failed to listen on %s: %v", cfg.GRPCListenAddress, err)
	}
	go func() {
		if err := server.Serve(lis); err != nil {
			logger.Error("grpc_server_stopped", "error", err.Error())
		}
	}()

	var metricsServer *http.Server
	if cfg.MetricsListenAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{Addr: cfg.MetricsListenAddress, Handler: mux}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics_server_stopped", "error", err.Error())
			}
		}()
		logger.Info("metrics_server_configured", "address", cfg.MetricsListenAddress)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("datexd_ready", "grpc_address", cfg.GRPCListenAddress, "self", self.String())
	fmt.Printf("\ndatexd running on %s (self=%s)\n", cfg.GRPCListenAddress, self.String())
	fmt.Println("Press Ctrl+C to stop")

	sig := <-sigCh
	logger.Info("shutdown_signal_received", "signal", sig.String())

	server.GracefulStop()
	if metricsServer != nil {
		_ = metricsServer.Shutdown(context.Background())
	}
	logger.Info("datexd_stopped")
}
