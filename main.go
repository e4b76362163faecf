package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/vidar-app/vidar/internal"
)

// main loads the user configuration, constructs the Vidar core and runs it
// until an interrupt or termination signal arrives.
func main() {
	configPath := flag.String("config", "vidar.yaml", "path to the Vidar configuration file")
	flag.Parse()

	config := internal.VidarConfig{}
	if err := config.Load(*configPath); err != nil {
		log.Panicf("Failed to load configuration - %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	vidar := internal.New(config)
	if err := vidar.Run(ctx); err != nil {
		log.Panicf("Vidar stopped with error - %v\n", err)
	}
}
