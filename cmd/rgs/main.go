// Command rgs runs the reference outcome authority.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MJE43/freefall-wager/internal/config"
	"github.com/MJE43/freefall-wager/internal/rgs"
)

func main() {
	configPath := flag.String("config", "", "YAML config file (defaults to built-in tables)")
	addr := flag.String("addr", "", "listen address, overrides rgs.addr")
	seed := flag.String("seed", "", "server seed, overrides rgs.server_seed")
	flag.Parse()

	logger := log.New(os.Stdout, "[RGS] ", log.LstdFlags)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if *addr != "" {
		cfg.RGS.Addr = *addr
	}
	if *seed != "" {
		cfg.RGS.ServerSeed = *seed
	}

	sc := cfg.Server()
	sc.Logger = logger
	srv := rgs.NewServer(sc)
	if err := srv.Start(cfg.RGS.Addr); err != nil {
		logger.Fatalf("listen %s: %v", cfg.RGS.Addr, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("shutdown: %v", err)
	}
	logger.Println("Stopped")
}
