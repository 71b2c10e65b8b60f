package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli"

	"eventcal/internal/backup"
	appLog "eventcal/internal/log"
	"eventcal/internal/web"
)

var ServeCmd = cli.Command{
	Name:  "serve",
	Usage: "Starts the HTTP API",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "listen",
			Usage: "HTTP listen address (overrides config if set)",
		},
	},
	Action: serve,
}

func serve(c *cli.Context) error {
	appLog.Info("eventcal starting", "version", AppVersion)

	if v := c.String("listen"); v != "" {
		conf.Listen = v
	}

	st, err := openStore()
	if err != nil {
		return err
	}

	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"data_file", conf.DataFile,
		"backend", conf.Backend,
		"backup_cron", conf.BackupCron,
		"events", len(st.Records()),
	)

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case sig := <-sigCh:
			appLog.Info("signal received, shutting down", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	sched, err := backup.New(backup.Config{
		Cron: conf.BackupCron,
		Dir:  conf.BackupDir,
		Keep: conf.BackupKeep,
	}, st)
	switch {
	case errors.Is(err, backup.ErrDisabled):
		appLog.Debug("backups disabled")
	case err != nil:
		return err
	default:
		sched.Start()
		defer func() {
			stopCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
			defer stop()
			sched.Stop(stopCtx)
		}()
	}

	if err := web.StartServer(ctx, conf, st); err != nil {
		appLog.Error("HTTP server failed", err, "listen", conf.Listen)
		return err
	}
	appLog.Info("eventcal exiting")
	return nil
}
