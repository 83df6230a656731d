package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/HamletTheHamster/goat-explorer/internal/cache"
	"github.com/HamletTheHamster/goat-explorer/internal/server"
	"github.com/HamletTheHamster/goat-explorer/internal/store"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func (a *app) serveCmd() *cobra.Command {
	var addr string
	var watch, noStore bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				a.cfg.Server.Addr = addr
			}
			if cmd.Flags().Changed("watch") {
				a.cfg.Data.Watch = watch
			}
			return a.serve(noStore)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	cmd.Flags().BoolVar(&watch, "watch", false, "reload when the data file changes")
	cmd.Flags().BoolVar(&noStore, "no-store", false, "disable snapshot storage")
	return cmd
}

func (a *app) serve(noStore bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loader := cache.NewLoader(a.cfg.Data.Path, a.datasetOptions())
	if _, err := loader.Get(ctx); err != nil {
		// the dashboard still starts and offers an upload
		log.Warn().Err(err).Str("path", a.cfg.Data.Path).Msg("Dataset not available at startup")
	}

	var st *store.Store
	if !noStore {
		var err error
		st, err = a.openStore(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("Snapshot store unavailable, snapshots disabled")
		} else {
			defer st.Close()
		}
	}

	if a.cfg.Data.Watch {
		go func() {
			if err := loader.Watch(ctx); err != nil {
				log.Error().Err(err).Msg("Data file watch stopped")
			}
		}()
	}

	srv, err := server.NewServer(loader, st, a.cfg)
	if err != nil {
		return err
	}
	httpServer := &http.Server{
		Addr:              a.cfg.Server.Addr,
		Handler:           srv.SetupRoutes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", a.cfg.Server.Addr).Msg("Dashboard listening")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
