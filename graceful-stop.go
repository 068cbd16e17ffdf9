package main

import (
	"os"
	"os/signal"
	"syscall"
)

// gracefulStop calls cancel on the first ^C or SIGTERM, which stops the poll
// loop and aborts calls in flight. A second signal exits at once.
func gracefulStop(cancel func()) {

	sigs := make(chan os.Signal, 2)
	signal.Notify(sigs, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		sig := <-sigs
		Log.Info().Str("signal", sig.String()).Msg("Caught signal, draining")
		cancel()

		sig = <-sigs
		Log.Warn().Str("signal", sig.String()).Msg("Caught second signal, exiting")
		os.Exit(1)
	}()
}
