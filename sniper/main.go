package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/solsniper/executor/config"
	"github.com/solsniper/executor/sniper/app"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM, syscall.SIGABRT)
	go shutdown(cancel, quit)

	cfg, err := config.FromEnv()
	if err != nil {
		panic(err)
	}

	sniper := app.NewSniper(ctx, cfg)
	sniper.Service()
}

func shutdown(cancel context.CancelFunc, quit <-chan os.Signal) {
	osCall := <-quit
	fmt.Printf("System call: %v, sniper is shutting down......\n", osCall)
	cancel()
}
