package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
)

// Watch calls fn right away and then every interval until ctx is done or
// the process receives SIGINT or SIGTERM.
func Watch(ctx context.Context, interval time.Duration, fn func(time.Time)) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(c)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	fn(time.Now())
	for {
		select {
		case t := <-ticker.C:
			fn(t)
		case sig := <-c:
			log.Info().Str("signal", sig.String()).Msg("stopping")
			return
		case <-ctx.Done():
			return
		}
	}
}
