package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	envFlag := &cli.StringFlag{
		Name:  "env",
		Usage: "path to the env file",
		Value: ".env",
	}
	app := &cli.Command{
		Name:   "studynotes",
		Usage:  "note taking service with chat over your notes and quiz generation",
		Flags:  []cli.Flag{envFlag},
		Action: serveAction,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP server (default)",
				Flags:  []cli.Flag{envFlag},
				Action: serveAction,
			},
			{
				Name:   "migrate",
				Usage:  "create or update the database schema and exit",
				Flags:  []cli.Flag{envFlag},
				Action: migrateAction,
			},
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		logrus.WithError(err).Fatal("studynotes exited")
	}
}
