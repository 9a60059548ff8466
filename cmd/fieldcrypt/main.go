package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/dmitrijs2005/chatvault/internal/cli"
	"github.com/dmitrijs2005/chatvault/internal/logging"
)

func main() {
	ctx := context.Background()
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	app := cli.NewApp(os.Stdin, os.Stdout, os.Stderr, logger)
	if err := app.Run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		if errors.Is(err, cli.ErrUsage) {
			log.Println(err)
			os.Exit(2)
		}
		log.Fatalf("%v", err)
	}
}
