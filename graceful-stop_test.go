package main

import (
	"syscall"
	"testing"
	"time"
)

func TestGracefulStopCancels(t *testing.T) {

	cancelled := make(chan struct{})
	gracefulStop(func() { close(cancelled) })

	if err := syscall.Kill(syscall.Getpid(), syscall.SIGTERM); err != nil {
		t.Fatal(err)
	}

	select {
	case <-cancelled:
	case <-time.After(5 * time.Second):
		t.Fatal("cancel was not called after SIGTERM")
	}
}
