package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danilovkiri/dk-go-trainqueue/internal/config"
	"github.com/danilovkiri/dk-go-trainqueue/internal/logger"
	"github.com/danilovkiri/dk-go-trainqueue/internal/ui"
)

func main() {
	log := logger.InitLog("trainui")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// get configuration
	cfg, err := config.NewConfiguration()
	if err != nil {
		log.Fatal().Err(err).Msg("")
	}
	cfg.ParseFlags()

	// initialize server
	server, err := ui.InitServer(cfg.UIConfig, log)
	if err != nil {
		log.Fatal().Err(err).Msg("")
	}

	// set a listener for graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-done
		log.Info().Msg("UI server shutdown attempted")
		ctxTO, cancelTO := context.WithTimeout(ctx, 5*time.Second)
		defer cancelTO()
		if err := server.Shutdown(ctxTO); err != nil {
			log.Fatal().Err(err).Msg("UI server shutdown failed")
		}
		cancel()
	}()

	// start up the server
	log.Info().Msg("UI server start attempted")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("")
	}
	log.Info().Msg("UI server shutdown succeeded")
}
