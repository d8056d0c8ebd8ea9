package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/tundrawallet/tundra/internal/buildinfo"
	"github.com/tundrawallet/tundra/internal/cli"
	"github.com/tundrawallet/tundra/internal/config"
	"github.com/tundrawallet/tundra/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()
	logger := logging.NewDefault(slog.LevelInfo)

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
		return
	}
	defer app.Close()

	if err := app.Run(ctx); err != nil {
		log.Fatalf("%v", err)
	}
}
