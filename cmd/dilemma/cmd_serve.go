package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cpunion/dilemma-lab/pkg/events"
	"github.com/cpunion/dilemma-lab/pkg/feed"
	"github.com/cpunion/dilemma-lab/pkg/server"
	"github.com/cpunion/dilemma-lab/pkg/simulation"
)

type serveOptions struct {
	cfg          configFlags
	addr         string
	natsURL      string
	natsPrefix   string
	embeddedNATS int
	archive      string
	shardSize    int
}

func newServeCmd(g *globalFlags) *cobra.Command {
	o := &serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the run API and progress stream over HTTP",
		Long: `Starts the HTTP API. Runs are started with POST /api/runs; the run flags
set the defaults that request fields override.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, g, o)
		},
	}
	o.cfg.register(cmd)
	fs := cmd.Flags()
	fs.StringVar(&o.addr, "addr", ":8061", "Listen address")
	fs.StringVar(&o.natsURL, "nats", "", "Publish round events to this NATS server")
	fs.StringVar(&o.natsPrefix, "nats-prefix", events.DefaultPrefix, "NATS subject prefix")
	fs.IntVar(&o.embeddedNATS, "embedded-nats", 0, "Start an in-process NATS server on this port and publish to it")
	fs.StringVar(&o.archive, "archive", "", "Archive every run's events into a sharded feed directory")
	fs.IntVar(&o.shardSize, "archive-shard-size", feed.DefaultMaxEventsPerShard, "Events per archive shard")
	return cmd
}

func runServe(cmd *cobra.Command, g *globalFlags, o *serveOptions) error {
	defaults, err := o.cfg.load(cmd, g.config)
	if err != nil {
		return err
	}
	logger := g.logger

	var observers []simulation.Observer
	natsURL := o.natsURL
	if o.embeddedNATS != 0 {
		ns, err := events.StartEmbedded("127.0.0.1", o.embeddedNATS)
		if err != nil {
			return err
		}
		defer ns.Stop()
		natsURL = ns.URL()
		logger.Info("embedded nats started", zap.String("url", natsURL))
	}
	if natsURL != "" {
		pub, err := events.Connect(natsURL, o.natsPrefix, logger)
		if err != nil {
			return err
		}
		defer pub.Close()
		observers = append(observers, pub)
	}
	if o.archive != "" {
		w, err := feed.Open(feed.Config{
			Dir:               o.archive,
			MaxEventsPerShard: o.shardSize,
			Append:            true,
			Logger:            logger,
		})
		if err != nil {
			return fmt.Errorf("open archive: %w", err)
		}
		defer w.Close()
		observers = append(observers, w)
	}

	srv := server.New(server.Options{
		Defaults:  defaults,
		Observers: observers,
		Logger:    logger,
	})
	defer srv.Close()

	httpSrv := &http.Server{
		Addr:              o.addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", o.addr))
		errc <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("shutting down")
	return httpSrv.Shutdown(shutdownCtx)
}
