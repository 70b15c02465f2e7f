package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/coreman2200/funtimes-sensehat/internal/app"
	"github.com/coreman2200/funtimes-sensehat/internal/ws"
	"github.com/coreman2200/funtimes-sensehat/sensor"
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&addrFlag, `addr`, ``, `HTTP listen address (default from settings, :8080)`)
}

var addrFlag string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: `serve the matrix and sensors over websockets`,
	Long:  "serve the matrix and sensors over websockets.\n\n  /control  pixel commands\n  /env      sensor stream\n  /diag     diagnostics\n  /health   status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := firstNonZero(addrFlag, cfg.Server.Addr)

		m, err := app.OpenMatrix(cfg.Matrix)
		if err != nil {
			return err
		}
		defer m.Close()

		var (
			h *sensor.HumiditySensor
			p *sensor.PressureSensor
		)
		if hh, pp, bus, err := app.OpenSensors(cfg.Sensors); err != nil {
			log.Warn().Err(err).Msg("sensors unavailable; serving the matrix only")
		} else {
			h, p = hh, pp
			defer bus.Close()
			defer p.Close()
			defer h.Close()
		}

		s := ws.NewServer(m, h, p, ws.Options{EnvInterval: cfg.EnvInterval()})
		srv := &http.Server{
			Addr:         addr,
			Handler:      withCORS(s.Handler()),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		done := make(chan struct{})
		go func() {
			s.Run(ctx)
			close(done)
		}()

		errc := make(chan error, 1)
		go func() {
			log.Info().Str("addr", addr).Str("device", m.Name()).Msg("HTTP server starting")
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				errc <- err
			}
		}()

		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(ch)
		select {
		case sig := <-ch:
			log.Info().Str("signal", sig.String()).Msg("shutting down")
		case err := <-errc:
			log.Error().Err(err).Msg("http server crashed")
			cancel()
			<-done
			_ = s.Close()
			return err
		}
		return shutdown(srv, s, cancel, done)
	},
}

// shutdown stops the stream loop and the HTTP server, then clears the
// matrix through the server so no command or test frame lands afterwards.
func shutdown(srv *http.Server, s *ws.Server, stop context.CancelFunc, done <-chan struct{}) error {
	stop()
	<-done
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("http shutdown")
	}
	return s.Close()
}

func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(200)
			return
		}
		h.ServeHTTP(w, r)
	})
}
