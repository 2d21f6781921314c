package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	server "stellar-salvage/server"
	"stellar-salvage/server/logging"
	"stellar-salvage/server/logging/sinks"
)

func main() {
	configPath := flag.String("config", "", "path to a yaml config file")
	addr := flag.String("addr", "", "listen address override")
	logDir := flag.String("log-dir", "", "directory for compressed event logs (disabled when empty)")
	flag.Parse()

	cfg, err := server.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if *addr != "" {
		cfg.Addr = *addr
	}

	logCfg := logging.DefaultConfig()
	named := []logging.NamedSink{
		{Name: "console", Sink: sinks.NewConsoleSink(os.Stdout)},
	}
	if *logDir != "" {
		logCfg.JSONL.Dir = *logDir
		named = append(named, logging.NamedSink{Name: "jsonl", Sink: sinks.NewJSONLSink(logCfg.JSONL)})
	}
	router := logging.NewRouter(nil, logCfg, named)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := router.Close(ctx); err != nil {
			log.Printf("close event router: %v", err)
		}
	}()

	hub := server.NewHub(cfg, router)

	stop := make(chan struct{})
	go hub.RunSimulation(stop)

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: server.NewRouter(hub, cfg),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("listening on %s", cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("received %s, shutting down", sig)
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("server error: %v", err)
		}
	}

	close(stop)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
