package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	appreport "github.com/erp/reportdispatch/internal/application/report"
	"github.com/erp/reportdispatch/internal/infrastructure/cache"
	"github.com/erp/reportdispatch/internal/infrastructure/config"
	"github.com/erp/reportdispatch/internal/infrastructure/email"
	"github.com/erp/reportdispatch/internal/infrastructure/logger"
	"github.com/erp/reportdispatch/internal/infrastructure/persistence"
	"github.com/erp/reportdispatch/internal/infrastructure/printing"
	"github.com/erp/reportdispatch/internal/infrastructure/scheduler"
	"github.com/erp/reportdispatch/internal/infrastructure/storage"
	"github.com/erp/reportdispatch/internal/infrastructure/telemetry"
	"github.com/erp/reportdispatch/internal/interfaces/http/handler"
	"github.com/erp/reportdispatch/internal/interfaces/http/middleware"
	"github.com/erp/reportdispatch/internal/interfaces/http/router"
	"go.uber.org/zap"
)

// Version is set at build time with -ldflags "-X main.Version=..."
var Version = "dev"

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting report dispatch service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", Version),
	)

	ctx := context.Background()

	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    Version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    Version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	log.Info("Telemetry initialized",
		zap.Bool("tracing", tp.IsEnabled()),
		zap.Bool("metrics", mp.IsEnabled()),
	)

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled: cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		DBName:  cfg.Database.DBName,
	}, log).Register(db.DB); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}
	log.Info("Database connected successfully")

	scheduleRepo := persistence.NewGormScheduleRepository(db.DB)
	snapshotRepo := persistence.NewGormSnapshotRepository(db.DB)

	formatter, err := appreport.NewFormatter(cfg.PDF.Locale, cfg.PDF.Currency)
	if err != nil {
		log.Fatal("Invalid report formatting settings", zap.Error(err))
	}

	printer, err := printing.NewChromedpPrinter(&printing.ChromedpConfig{
		DefaultTimeout: cfg.PDF.RenderTimeout,
		RemoteURL:      cfg.PDF.RemoteURL,
		ExecPath:       cfg.PDF.ChromePath,
		NoSandbox:      cfg.PDF.NoSandbox,
		PaperSize:      printing.ParsePaperSize(cfg.PDF.PaperSize),
		Logger:         log,
	})
	if err != nil {
		log.Fatal("Failed to initialize PDF printer", zap.Error(err))
	}
	defer func() {
		_ = printer.Close()
	}()

	dispatchMetrics, err := telemetry.NewDispatchMetrics(mp.Meter(telemetry.TracerName))
	if err != nil {
		log.Fatal("Failed to register dispatch metrics", zap.Error(err))
	}

	lock, redisClient, err := cache.NewDispatchLock(ctx, cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(!cfg.IsProduction()),
		cache.WithLockKey(cfg.Redis.LockKey),
	)
	if err != nil {
		log.Fatal("Failed to initialize dispatch lock", zap.Error(err))
	}
	if redisClient != nil {
		defer func() {
			_ = redisClient.Close()
		}()
	}

	opts := []appreport.DispatchOption{
		appreport.WithLock(lock, cfg.Scheduler.LockTTL),
		appreport.WithMetrics(dispatchMetrics),
		appreport.WithScheduleTimeout(cfg.Scheduler.ScheduleTimeout),
	}
	if cfg.Storage.Enabled {
		archive, err := storage.NewS3ReportArchive(ctx, &cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to initialize report archive", zap.Error(err))
		}
		if err := archive.EnsureBucket(ctx); err != nil {
			log.Fatal("Report archive bucket unavailable", zap.Error(err))
		}
		log.Info("Report archive enabled", zap.String("bucket", archive.GetBucket()))
		opts = append(opts, appreport.WithArchive(archive))
	}

	dispatchService := appreport.NewDispatchService(
		scheduleRepo,
		snapshotRepo,
		appreport.NewReportRenderer(printer, formatter, log),
		appreport.NewBatchAssembler(printing.NewPDFMerger(log), dispatchMetrics),
		appreport.NewEmailComposer(formatter),
		newMailer(cfg, log),
		log,
		opts...,
	)

	var trigger *scheduler.CronTrigger
	if cfg.Scheduler.Enabled {
		trigger, err = scheduler.NewCronTrigger(scheduler.CronTriggerConfig{
			Spec:       cfg.Scheduler.CronSpec,
			RunTimeout: cfg.Scheduler.RunTimeout,
		}, dispatchService, log)
		if err != nil {
			log.Fatal("Invalid scheduler configuration", zap.Error(err))
		}
		if err := trigger.Start(ctx); err != nil {
			log.Fatal("Failed to start scheduler", zap.Error(err))
		}
		log.Info("In-process scheduler enabled", zap.Time("next_fire", trigger.NextFire()))
	}

	engine, err := router.NewEngine(router.EngineConfig{
		Production:     cfg.IsProduction(),
		TrustedProxies: cfg.HTTP.TrustedProxies,
		Tracing: middleware.TracingConfig{
			Enabled:     cfg.Telemetry.Enabled,
			ServiceName: cfg.Telemetry.ServiceName,
		},
	}, log)
	if err != nil {
		log.Fatal("Failed to create HTTP engine", zap.Error(err))
	}

	checks := map[string]handler.HealthCheck{"database": db.Ping}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}
	systemHandler := handler.NewSystemHandler(Version, checks)
	dispatchHandler := handler.NewDispatchHandler(dispatchService, cfg.Scheduler.RunTimeout)

	router.NewRouter(engine).
		RegisterRoot(router.HealthRoutes(systemHandler)).
		RegisterRoot(router.CronRoutes(dispatchHandler, cfg.Scheduler.CronSecret)).
		Register(router.SystemRoutes(systemHandler)).
		Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if trigger != nil {
		if err := trigger.Stop(shutdownCtx); err != nil {
			log.Error("Scheduler stop incomplete", zap.Error(err))
		}
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := mp.Shutdown(shutdownCtx); err != nil {
		log.Error("Meter provider shutdown failed", zap.Error(err))
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		log.Error("Tracer provider shutdown failed", zap.Error(err))
	}

	log.Info("Server exited")
}

// newMailer sends over SMTP when a host is configured and only logs otherwise
func newMailer(cfg *config.Config, log *zap.Logger) appreport.Mailer {
	if cfg.SMTP.Host == "" {
		log.Warn("SMTP host not configured, report emails will only be logged")
		return email.NewLogMailer(log)
	}
	return email.NewSMTPMailer(email.Config{
		Host:          cfg.SMTP.Host,
		Port:          cfg.SMTP.Port,
		Username:      cfg.SMTP.Username,
		Password:      cfg.SMTP.Password,
		FromAddress:   cfg.SMTP.FromAddress,
		FromName:      cfg.SMTP.FromName,
		SendTimeout:   cfg.SMTP.SendTimeout,
		BreakerTrips:  cfg.SMTP.BreakerTrips,
		BreakerWindow: cfg.SMTP.BreakerWindow,
	}, log)
}
