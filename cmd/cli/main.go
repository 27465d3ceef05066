package main

import (
	"context"
	"fmt"
	"os"

	"github.com/de-tools/posture-atlas/pkg/runtime/bootstrap"
	"github.com/de-tools/posture-atlas/pkg/runtime/terminal"
	"github.com/de-tools/posture-atlas/pkg/services/config"
	"github.com/rs/zerolog"
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	ctx := logger.WithContext(context.Background())

	cli := terminal.NewCLI(terminal.Options{
		Open:   open,
		Output: os.Stdout,
	})

	if err := cli.Execute(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func open(ctx context.Context, configPath string) (*terminal.Runtime, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	session, err := bootstrap.Open(ctx, cfg, nil)
	if err != nil {
		return nil, err
	}
	return &terminal.Runtime{
		Controller: session.Controller,
		Store:      session.Store,
		Sources:    session.Sources,
		Close:      session.Close,
	}, nil
}
