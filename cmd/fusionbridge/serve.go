package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fusionbridge/fusionbridge"
	"github.com/google/gops/agent"
)

// ServeCmd starts the bridge server.
// Usage: fusionbridge serve --addr 127.0.0.1:8765
type ServeCmd struct {
	Addr      string `short:"a" long:"addr" description:"listen address"`
	Transport string `short:"t" long:"transport" description:"serving transport" choice:"streamable" choice:"sse" choice:"stdio"`
	Config    string `short:"f" long:"config" description:"config YAML path or URL"`
	Gops      bool   `long:"gops" description:"start the gops diagnostics agent"`
}

func (s *ServeCmd) Execute(_ []string) error {
	ctx := context.Background()
	config, err := fusionbridge.LoadConfig(ctx, s.Config)
	if err != nil {
		return err
	}
	// Flags override config file values
	if s.Addr != "" {
		config.Addr = s.Addr
	}
	if s.Transport != "" {
		config.Transport = s.Transport
	}

	service, err := fusionbridge.New(ctx, config)
	if err != nil {
		return err
	}
	defer service.Close()

	if s.Gops {
		if err := agent.Listen(agent.Options{}); err != nil {
			return err
		}
		defer agent.Close()
	}

	if config.Transport == fusionbridge.TransportStdio {
		return service.Stdio(ctx).ListenAndServe()
	}

	srv := service.HTTP(ctx, config.Addr)
	errCh := make(chan error, 1)
	go func() {
		log.Printf("fusionbridge listening on %s (%s)", config.Addr, config.Transport)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	// Wait for termination signal or server error.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("received %s, initiating graceful shutdown", sig)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		return err
	}
}
