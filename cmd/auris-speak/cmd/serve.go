package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aurisproject/auris/internal/audio"
	"github.com/aurisproject/auris/internal/history"
	"github.com/aurisproject/auris/internal/speak/server"
	"github.com/aurisproject/auris/internal/speak/tts"
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

	logger := logging.New("auris-speak", logging.Config{
		Level:  cfg.General.LogLevel,
		Format: cfg.General.LogFormat,
	})
	defer logger.Sync()

	logger.Info("starting auris-speak", zap.String("version", version.Speak))

	profiles, err := tts.LoadProfiles(cfg.Speak.VoiceProfiles)
	if err != nil {
		printError("loading voice profiles", err)
		return err
	}

	selector := tts.NewSelector(tts.Options{
		Voice: cfg.Speak.Voice,
		Rate:  cfg.Speak.Rate,
		Piper: tts.PiperConfig{
			BinaryPath: cfg.Speak.Piper.BinaryPath,
			ModelPath:  cfg.Speak.Piper.ModelPath,
			VoicesDir:  cfg.Speak.Piper.VoicesDir,
			SampleRate: cfg.Speak.Piper.SampleRate,
		},
		APIKey: cfg.OpenAI.APIKey,
		Model:  cfg.OpenAI.TTSModel,
		Player: audio.NewPlayback(),
	}, cfg.Speak.Engine)

	var store history.Store
	if cfg.Speak.HistoryPath != "" {
		store, err = history.NewSQLiteStore(cfg.Speak.HistoryPath)
		if err != nil {
			printError("opening history store", err)
			return err
		}
		defer store.Close()
	}

	srv := server.New(cfg.Speak, selector, profiles, store, logger)

	registry := health.NewRegistry("auris-speak", version.Speak)
	srv.RegisterHealth(registry)

	healthSrv := health.NewServer(registry, logger)
	if err := healthSrv.Start(cfg.Speak.HealthAddr); err != nil {
		printError("starting health endpoint", err)
		return err
	}
	defer healthSrv.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = srv.Serve(ctx)
	logger.Info("auris-speak stopped")
	return err
}
