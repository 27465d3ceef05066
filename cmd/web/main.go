package main

import (
	"fmt"
	"os"

	"github.com/de-tools/posture-atlas/pkg/runtime/bootstrap"
	"github.com/de-tools/posture-atlas/pkg/server"
	"github.com/de-tools/posture-atlas/pkg/services/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var cfgPath string

func main() {
	var rootCmd = &cobra.Command{
		Use:   "web",
		Short: "Start the web server for Posture Atlas",
		RunE:  runServer,
	}

	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", "",
		"Path to the configuration file (environment variables with the POSTURE_ prefix override it)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	ctx := logger.WithContext(cmd.Context())

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	session, err := bootstrap.Open(ctx, cfg, registry)
	if err != nil {
		return err
	}
	defer func() {
		if err := session.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close cache backend")
		}
	}()

	logger.Info().Msgf("Organization `%s` configured with %d control sources.", cfg.OrganizationID, len(session.Sources))

	api := server.NewWebAPI(server.Config{
		Addr:            cfg.Addr(),
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		Dependencies: server.Dependencies{
			Store:      session.Store,
			Controller: session.Controller,
			Gatherer:   registry,
			Logger:     logger,
		},
	})
	return api.Start(ctx)
}
