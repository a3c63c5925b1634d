package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aurisproject/auris/internal/audio"
	"github.com/aurisproject/auris/internal/history"
	"github.com/aurisproject/auris/internal/listen/capture"
	"github.com/aurisproject/auris/internal/listen/monitor"
	"github.com/aurisproject/auris/internal/listen/server"
	"github.com/aurisproject/auris/internal/listen/stt"
	"github.com/aurisproject/auris/internal/listen/vad"
	"github.com/aurisproject/auris/pkg/core/health"
	"github.com/aurisproject/auris/pkg/core/logging"
	"github.com/aurisproject/auris/pkg/core/version"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server on stdio",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		printError("configuration", err)
		return err
	}

	logger := logging.New("auris-listen", logging.Config{
		Level:  cfg.General.LogLevel,
		Format: cfg.General.LogFormat,
	})
	defer logger.Sync()

	logger.Info("starting auris-listen", zap.String("version", version.Listen))

	mic, err := audio.NewMicrophone(audio.MicrophoneConfig{
		SampleRate: cfg.Listen.SampleRate,
		DeviceName: cfg.Listen.Device,
	})
	if err != nil {
		printError("opening microphone", err)
		return err
	}
	defer mic.Close()

	detector, err := vad.New(cfg.Listen.VADEngine, vad.Config{
		SampleRate: cfg.Listen.SampleRate,
		Threshold:  cfg.Listen.SilenceThreshold,
		Mode:       cfg.Listen.VADMode,
	})
	if err != nil {
		printError("creating voice activity detector", err)
		return err
	}
	defer detector.Close()

	hub := monitor.NewHub(logger)
	if err := hub.Start(cfg.Listen.MonitorAddr); err != nil {
		printError("starting capture monitor", err)
		return err
	}

	controller := capture.NewController(mic, detector, capture.Config{
		SampleRate:      cfg.Listen.SampleRate,
		DefaultDuration: float64(cfg.Listen.DefaultDuration),
		MaxDuration:     float64(cfg.Listen.MaxDuration),
		SilenceDuration: cfg.Listen.SilenceDuration,
	}, hub, logger)

	var store history.Store
	if cfg.Listen.HistoryPath != "" {
		store, err = history.NewSQLiteStore(cfg.Listen.HistoryPath)
		if err != nil {
			printError("opening history store", err)
			return err
		}
		defer store.Close()
	}

	selector := stt.NewSelector(stt.Config{
		Language:   cfg.Listen.Language,
		SampleRate: cfg.Listen.SampleRate,
		BinaryPath: cfg.Listen.Whisper.BinaryPath,
		ModelPath:  cfg.Listen.Whisper.ModelPath,
		ServerURL:  cfg.Listen.Whisper.ServerURL,
	}, cfg.OpenAI.APIKey, cfg.OpenAI.STTModel, cfg.Listen.Engine)

	srv := server.New(cfg.Listen, controller, selector, store, logger)

	registry := health.NewRegistry("auris-listen", version.Listen)
	srv.RegisterHealth(registry)

	healthSrv := health.NewServer(registry, logger)
	if err := healthSrv.Start(cfg.Listen.HealthAddr); err != nil {
		printError("starting health endpoint", err)
		return err
	}
	defer healthSrv.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = srv.Serve(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	hub.Stop(shutdownCtx)

	logger.Info("auris-listen stopped")
	return err
}
