package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/dmitrijs2005/homefinder/internal/buildinfo"
	"github.com/dmitrijs2005/homefinder/internal/devapi"
	"github.com/dmitrijs2005/homefinder/internal/devapi/config"
	"github.com/dmitrijs2005/homefinder/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		log.Fatalf("%v", err)
	}

	ctx := context.Background()
	logger := logging.NewJSON(os.Stdout, slog.LevelInfo)

	app, err := devapi.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if err := app.Run(ctx); err != nil {
		log.Fatalf("%v", err)
	}

}
