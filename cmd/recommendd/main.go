package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/reklamap/recommender/internal/config"
	"github.com/reklamap/recommender/internal/logging"
	"github.com/reklamap/recommender/internal/metrics"
	"github.com/reklamap/recommender/internal/profile"
	"github.com/reklamap/recommender/internal/recommend"
	"github.com/reklamap/recommender/internal/transport"
)

// #region main

func main() {
	cfgPath := flag.String("config", "", "path to recommender.yaml")
	flag.Parse()

	if err := run(*cfgPath); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region run

func run(cfgPath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	log, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	reg, err := profile.Default()
	if err != nil {
		return fmt.Errorf("build profiles: %w", err)
	}
	if name := cfg.Recommend.DefaultProfile; name != "" {
		if _, err := reg.Get(name); err != nil {
			return fmt.Errorf("recommend.default_profile: %w", err)
		}
	}

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(promReg)

	lis, err := net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Server.Addr, err)
	}

	srv := grpc.NewServer()
	transport.RegisterRecommenderServer(srv, transport.NewServer(recommend.New(reg, cfg.Recommend.DefaultProfile), log, m))
	hs := health.NewServer()
	hs.SetServingStatus(transport.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}))
	metricsSrv := &http.Server{Addr: cfg.Server.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 2)
	go func() {
		if err := srv.Serve(lis); err != nil {
			errc <- fmt.Errorf("grpc serve: %w", err)
		}
	}()
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- fmt.Errorf("metrics serve: %w", err)
		}
	}()

	log.Info("recommendd started",
		zap.String("addr", cfg.Server.Addr),
		zap.String("metrics_addr", cfg.Server.MetricsAddr),
		zap.Strings("profiles", reg.Names()),
		zap.String("default_profile", cfg.Recommend.DefaultProfile),
	)

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err = <-errc:
		log.Error("server failed", zap.Error(err))
	}

	hs.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = metricsSrv.Shutdown(shutdownCtx)

	done := make(chan struct{})
	go func() {
		srv.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-shutdownCtx.Done():
		srv.Stop()
	}
	return err
}

// #endregion run
