// Package bootstrap wires the Warden correlation engine into a runnable
// service: configuration, logging, the engine, alert sinks, the metrics
// listener and coordinated shutdown.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"warden/config"
	"warden/correlate"
	"warden/notify"
	"warden/util/goroutine"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// App is the assembled Warden service.
type App struct {
	Config *config.Config
	Logger *zap.Logger
	Sugar  *zap.SugaredLogger

	Engine *correlate.Engine
	Alerts *notify.ChannelSink

	metricsSrv *http.Server
	serviceWg  sync.WaitGroup
	shutdownCh chan struct{}
}

// NewApp loads configuration from cfgPath (empty means defaults plus env)
// and initializes all components. Invalid configuration fails here, before
// anything starts.
func NewApp(ctx context.Context, cfgPath string) (*App, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	logger, err := InitLogger(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}
	sugar := logger.Sugar()
	sugar.Infow("warden starting",
		"max_entities", cfg.Engine.MaxEntities,
		"max_signals_per_entity", cfg.Engine.MaxSignalsPerEntity,
		"window", cfg.Engine.Window(),
		"threshold", cfg.Engine.MinConfidenceThreshold)

	alerts := notify.NewChannelSink(cfg.Alerts.BufferSize)
	engine, err := correlate.New(cfg.Engine, alerts, sugar)
	if err != nil {
		return nil, err
	}

	return &App{
		Config:     cfg,
		Logger:     logger,
		Sugar:      sugar,
		Engine:     engine,
		Alerts:     alerts,
		shutdownCh: make(chan struct{}),
	}, nil
}

// Start launches the maintenance sweep, the alert consumer and the metrics
// listener.
func (a *App) Start(ctx context.Context) error {
	a.Engine.StartMaintenance(ctx)
	a.startAlertConsumer(ctx)

	if a.Config.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		a.metricsSrv = &http.Server{
			Addr:              a.Config.Metrics.Addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		a.serviceWg.Add(1)
		go func() {
			defer a.serviceWg.Done()
			defer goroutine.Recover("metrics-listener", a.Sugar)
			a.Sugar.Infow("metrics listener starting", "addr", a.Config.Metrics.Addr)
			if err := a.metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.Sugar.Errorw("metrics listener failed", "error", err)
			}
		}()
	}
	return nil
}

// startAlertConsumer drains the channel sink into the log. Deployments with
// a policy pipeline replace this consumer with their own.
func (a *App) startAlertConsumer(ctx context.Context) {
	logSink := notify.NewLogSink(a.Sugar)
	a.serviceWg.Add(1)
	go func() {
		defer a.serviceWg.Done()
		defer goroutine.Recover("alert-consumer", a.Sugar)
		for {
			select {
			case res := <-a.Alerts.Results():
				_ = logSink.Deliver(ctx, res)
			case <-a.Alerts.Done():
				return
			case <-a.shutdownCh:
				return
			}
		}
	}()
}

// WaitForShutdown blocks until SIGINT or SIGTERM.
func (a *App) WaitForShutdown() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	a.Sugar.Infow("shutdown signal received", "signal", sig.String())
}

// Shutdown stops all components in reverse start order.
func (a *App) Shutdown() {
	a.Sugar.Info("warden shutting down")
	close(a.shutdownCh)
	a.Engine.StopMaintenance()
	a.Alerts.Close()
	if a.metricsSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = a.metricsSrv.Shutdown(ctx)
	}
	a.serviceWg.Wait()
	_ = a.Logger.Sync()
}
