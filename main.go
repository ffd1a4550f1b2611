// Enigma - a rotor cipher machine with a TCP cipher service.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"enigma/cmd"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := cmd.Execute(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "enigma: %v\n", err)
		os.Exit(1)
	}
}
