package app

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/eriqneo/streamlit-realtime-dashboard/internal/alerting"
	"github.com/eriqneo/streamlit-realtime-dashboard/internal/config"
	"github.com/eriqneo/streamlit-realtime-dashboard/internal/forecast"
	"github.com/eriqneo/streamlit-realtime-dashboard/internal/generator"
	"github.com/eriqneo/streamlit-realtime-dashboard/internal/logging"
	"github.com/eriqneo/streamlit-realtime-dashboard/internal/scheduler"
	"github.com/eriqneo/streamlit-realtime-dashboard/internal/service"
	"github.com/eriqneo/streamlit-realtime-dashboard/internal/web"
	"github.com/eriqneo/streamlit-realtime-dashboard/internal/window"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logging.Component(logger, "app")}
}

func (a *App) newSignal() *generator.Signal {
	gen := a.Config.Generator
	return generator.NewSignal(generator.SignalOptions{
		BaseLevel:          gen.BaseLevel,
		NoiseAmplitude:     gen.NoiseAmplitude,
		AnomalyProbability: gen.AnomalyProbability,
		SpikeMin:           gen.SpikeMin,
		SpikeMax:           gen.SpikeMax,
		TrendEnabled:       gen.TrendEnabled,
		TrendAmplitude:     gen.TrendAmplitude,
		TrendSpeed:         gen.TrendSpeed,
		Seed:               gen.Seed,
	}, a.Logger)
}

func (a *App) newSales() *generator.Sales {
	if !a.Config.Sales.Enabled {
		return nil
	}
	return generator.NewSales(generator.SalesOptions{
		HourlyRevenue:     a.Config.Sales.HourlyRevenue,
		AverageOrderValue: a.Config.Sales.AverageOrderValue,
		HolidayMode:       a.Config.Sales.HolidayMode,
		Seed:              a.Config.Generator.Seed,
	}, a.Logger)
}

func (a *App) newForecaster() *forecast.Forecaster {
	if !a.Config.Forecast.Enabled || !a.Config.Sales.Enabled {
		return nil
	}
	return forecast.New(forecast.Options{
		BinSize:     a.Config.Forecast.BinSize,
		Lookback:    a.Config.Forecast.Lookback,
		Horizon:     a.Config.Forecast.Horizon,
		HistorySize: a.Config.Forecast.HistorySize,
	}, a.Logger)
}

func (a *App) newNotifier() alerting.Notifier {
	if a.Config.Alerting.Telegram.Enabled {
		cfg := a.Config.Alerting.Telegram
		return alerting.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, cfg.APIBase, 10*time.Second, a.Logger)
	}
	return nil
}

func (a *App) newService(sched *scheduler.Scheduler) *service.Service {
	sales := a.newSales()
	var salesWin *window.SalesWindow
	if sales != nil {
		salesWin = window.NewSales(a.Config.Window.SalesCapacity)
	}

	return service.New(
		a.Config,
		sched,
		a.newSignal(),
		sales,
		window.New(a.Config.Window.SignalCapacity),
		salesWin,
		a.newForecaster(),
		a.newNotifier(),
		a.Logger,
	)
}

// Run executes the long-running dashboard service.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sched := scheduler.New(scheduler.Options{
		Interval:     a.Config.Refresh.Interval,
		AlignToStart: a.Config.Refresh.AlignToStart,
		StartupDelay: a.Config.Refresh.StartupDelay,
	}, a.Logger)

	svc := a.newService(sched)

	server := web.NewServer(svc, web.Options{
		ListenAddr:   a.Config.Server.ListenAddr,
		PingInterval: a.Config.Server.PingInterval,
		WriteTimeout: a.Config.Server.WriteTimeout,
	}, a.Logger)

	httpSrv := &http.Server{
		Addr:              a.Config.Server.ListenAddr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	httpErr := make(chan error, 1)
	go func() {
		a.Logger.Info().Str("addr", a.Config.Server.ListenAddr).Msg("dashboard API listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			httpErr <- err
		}
	}()

	a.Logger.Info().Msg("starting dashboard service")
	runErr := make(chan error, 1)
	go func() { runErr <- svc.Run(ctx) }()

	var err error
	select {
	case err = <-httpErr:
		cancel()
		<-runErr
	case err = <-runErr:
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
	defer shutdownCancel()
	_ = httpSrv.Shutdown(shutdownCtx)

	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("service terminated with error")
		return err
	}

	a.Logger.Info().Msg("dashboard service stopped")
	return nil
}

// ExportOptions hold parameters for exporting a generated run.
type ExportOptions struct {
	Ticks     int
	PNGPath   string
	CSVPath   string
	MaxPoints int
}

// PreviewOptions configure the preview command.
type PreviewOptions struct {
	Batches int
}
