package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"runtime/debug"
	"syscall"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	grpcprom "github.com/grpc-ecosystem/go-grpc-middleware/providers/prometheus"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/logging"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/recovery"
	"github.com/oklog/run"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.opentelemetry.io/otel"
	stdout "go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"github.com/dzoniops/booking-service/cache"
	"github.com/dzoniops/booking-service/config"
	"github.com/dzoniops/booking-service/db"
	"github.com/dzoniops/booking-service/rpc"
	"github.com/dzoniops/booking-service/services"
	"github.com/dzoniops/booking-service/utils"
)

func main() {
	os.Exit(serve())
}

// serve runs the service until a signal or a failed actor stops it and
// returns the exit code once every deferred shutdown has run.
func serve() int {
	cfg, err := config.Load(".env")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	// Setup logging.
	logger := utils.NewLogger(os.Stderr, cfg.LogLevel)
	rpcLogger := log.With(logger, "service", "gRPC/server", "component", "booking")

	// Setup tracing. Spans are only exported when stdout tracing is on.
	if cfg.TracingStdout {
		exporter, err := stdout.New(stdout.WithPrettyPrint())
		if err != nil {
			level.Error(logger).Log("msg", "failed to create trace exporter", "err", err)
			return 1
		}
		tp := sdktrace.NewTracerProvider(
			sdktrace.WithSampler(sdktrace.AlwaysSample()),
			sdktrace.WithBatcher(exporter),
		)
		otel.SetTracerProvider(tp)
		defer func() { _ = tp.Shutdown(context.Background()) }()
	}
	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		),
	)

	// Setup storage.
	gormDB, err := db.InitDB(cfg.Postgres)
	if err != nil {
		level.Error(logger).Log("msg", "failed to open database", "err", err)
		return 1
	}
	var store services.CatalogStore = db.NewStore(gormDB)
	if cfg.Redis.Addr != "" {
		cli, err := cache.NewClient(context.Background(), cfg.Redis)
		if err != nil {
			level.Warn(logger).Log("msg", "catalog cache disabled", "err", err)
		} else {
			defer cli.Close()
			store = cache.NewCatalog(store, cli, cfg.Redis.CatalogTTL, logger)
			level.Info(logger).Log("msg", "catalog cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CatalogTTL)
		}
	}

	// Setup metrics.
	srvMetrics := grpcprom.NewServerMetrics(
		grpcprom.WithServerHandlingTimeHistogram(
			grpcprom.WithHistogramBuckets(
				[]float64{0.001, 0.01, 0.1, 0.3, 0.6, 1, 3, 6, 9, 20, 30, 60, 90, 120},
			),
		),
	)
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		srvMetrics,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	exemplarFromContext := func(ctx context.Context) prometheus.Labels {
		if span := trace.SpanContextFromContext(ctx); span.IsSampled() {
			return prometheus.Labels{"traceID": span.TraceID().String()}
		}
		return nil
	}

	// Setup metric for panic recoveries.
	panicsTotal := promauto.With(reg).NewCounter(prometheus.CounterOpts{
		Name: "grpc_req_panics_recovered_total",
		Help: "Total number of gRPC requests recovered from internal panic.",
	})
	grpcPanicRecoveryHandler := func(p any) (err error) {
		panicsTotal.Inc()
		level.Error(rpcLogger).
			Log("msg", "recovered from panic", "panic", p, "stack", debug.Stack())
		return status.Errorf(codes.Internal, "%s", p)
	}

	grpcSrv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			// Tracing goes first so the metrics below can attach exemplars.
			otelgrpc.UnaryServerInterceptor(),
			srvMetrics.UnaryServerInterceptor(
				grpcprom.WithExemplarFromContext(exemplarFromContext),
			),
			logging.UnaryServerInterceptor(
				utils.InterceptorLogger(rpcLogger),
				logging.WithFieldsFromContext(utils.LogTraceID),
			),
			recovery.UnaryServerInterceptor(recovery.WithRecoveryHandler(grpcPanicRecoveryHandler)),
		),
		grpc.ChainStreamInterceptor(
			otelgrpc.StreamServerInterceptor(),
			srvMetrics.StreamServerInterceptor(
				grpcprom.WithExemplarFromContext(exemplarFromContext),
			),
			logging.StreamServerInterceptor(
				utils.InterceptorLogger(rpcLogger),
				logging.WithFieldsFromContext(utils.LogTraceID),
			),
			recovery.StreamServerInterceptor(
				recovery.WithRecoveryHandler(grpcPanicRecoveryHandler),
			),
		),
	)

	bookings := services.NewBookingService(store, cfg.Booking, logger, reg)
	rpc.RegisterBookingServiceServer(grpcSrv, &services.Server{
		Store:    store,
		Bookings: bookings,
		Logger:   rpcLogger,
	})
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcSrv, healthSrv)
	srvMetrics.InitializeMetrics(grpcSrv)

	g := &run.Group{}
	g.Add(func() error {
		l, err := net.Listen("tcp", fmt.Sprintf(":%s", cfg.Port))
		if err != nil {
			return err
		}
		healthSrv.SetServingStatus(rpc.ServiceName, healthpb.HealthCheckResponse_SERVING)
		level.Info(logger).Log("msg", "starting gRPC server", "addr", l.Addr().String())
		return grpcSrv.Serve(l)
	}, func(error) {
		healthSrv.Shutdown()
		grpcSrv.GracefulStop()
		grpcSrv.Stop()
	})

	httpSrv := &http.Server{Addr: fmt.Sprintf(":%s", cfg.MetricsPort)}
	g.Add(func() error {
		m := http.NewServeMux()
		m.Handle("/metrics", promhttp.HandlerFor(
			reg,
			promhttp.HandlerOpts{
				// OpenMetrics carries the exemplars.
				EnableOpenMetrics: true,
			},
		))
		httpSrv.Handler = m
		level.Info(logger).Log("msg", "starting HTTP server", "addr", httpSrv.Addr)
		return httpSrv.ListenAndServe()
	}, func(error) {
		if err := httpSrv.Close(); err != nil {
			level.Error(logger).Log("msg", "failed to stop web server", "err", err)
		}
	})

	g.Add(run.SignalHandler(context.Background(), syscall.SIGINT, syscall.SIGTERM))

	err = g.Run()
	var sig run.SignalError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &sig):
		level.Info(logger).Log("msg", "shutting down", "signal", sig.Signal)
		return 0
	default:
		level.Error(logger).Log("err", err)
		return 1
	}
}
