package main

import (
	"os"
	"os/signal"
	"syscall"
)

// waitForSignal blocks until the process receives SIGINT or SIGTERM and
// returns the signal that arrived, so main can log what triggered the
// shutdown.
func waitForSignal() os.Signal {
	notify := make(chan os.Signal, 1)
	signal.Notify(notify, syscall.SIGINT, syscall.SIGTERM)
	return <-notify
}
