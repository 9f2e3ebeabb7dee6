package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"aicruiter/internal/app"
)

const stopTimeout = 45 * time.Second

func main() {
	application := app.New()

	if err := application.Start(context.Background()); err != nil {
		log.Fatal(err)
	}

	// wait for interrupt signal to gracefully shutdown the server
	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)
	<-shutdownChan

	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	if err := application.Stop(ctx); err != nil {
		log.Fatal(err)
	}
}
