package start

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/tinyland-inc/bridgeclaw/cmd/bridgeclaw/internal"
	"github.com/tinyland-inc/bridgeclaw/pkg/config"
	"github.com/tinyland-inc/bridgeclaw/pkg/history"
	"github.com/tinyland-inc/bridgeclaw/pkg/janitor"
	"github.com/tinyland-inc/bridgeclaw/pkg/logger"
	"github.com/tinyland-inc/bridgeclaw/pkg/pidfile"
	"github.com/tinyland-inc/bridgeclaw/pkg/relay"
)

func NewStartCommand() *cobra.Command {
	var configVersion string
	var dataDir string
	var schedule string

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the bridge core",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runStart(configVersion, dataDir, schedule)
		},
	}

	cmd.Flags().StringVar(&configVersion, "config-version", "", "Named configuration version (loads config-<version>.yml)")
	cmd.Flags().StringVar(&dataDir, "data-dir", ".", "Directory holding the history files and staged media")
	cmd.Flags().StringVar(&schedule, "maintenance-schedule", janitor.DefaultSchedule, "Cron schedule for history rotation and media cleanup")

	return cmd
}

func runStart(configVersion, dataDir, schedule string) error {
	// Secrets may live in a .env file next to the config document.
	_ = godotenv.Load()

	cfg, err := config.LoadVersion(configVersion)
	if err != nil {
		if internal.PrintConfigError(err) {
			os.Exit(1)
		}
		return err
	}

	log := logger.New(cfg.App.Name, cfg.Logger)

	pidPath := pidfile.PathFor(cfg.App.Name)
	if err := pidfile.Write(pidPath); err != nil {
		return err
	}
	defer func() {
		if err := pidfile.Remove(pidPath); err != nil {
			log.Error().Err(err).Str("path", pidPath).Msg("removing pid file failed")
		}
	}()

	store := history.New(dataDir, cfg.App.HistorySizeLimit, log)
	bus := relay.NewOutcomeBus()
	recorder := relay.NewRecorder(bus, store, log)

	jan, err := janitor.New(store, schedule, log)
	if err != nil {
		return err
	}

	// Resume points for the forwarding pipeline: the last recorded
	// correspondence per forwarder survives restarts.
	last, err := store.LastMessages()
	if err != nil {
		log.Error().Err(err).Msg("loading resume points failed")
	}
	for _, lm := range last {
		log.Info().
			Str("forwarder", lm.ForwarderName).
			Int64("source_id", lm.SourceID).
			Int64("destination_id", lm.DestinationID).
			Msg("resume point")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := jan.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("janitor stopped")
		}
	}()
	go func() {
		defer wg.Done()
		if err := recorder.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("recorder stopped")
		}
	}()

	log.Info().
		Str("version", cfg.App.Version).
		Int("forwarders", cfg.Rules().Len()).
		Msg("bridge core started")

	<-ctx.Done()
	log.Info().Msg("shutdown signal received, draining in-flight writes")

	// Closing the bus lets the recorder drain buffered outcomes and finish
	// its durable writes before we exit.
	bus.Close()
	wg.Wait()

	log.Info().Msg("bridge core stopped")
	return nil
}
