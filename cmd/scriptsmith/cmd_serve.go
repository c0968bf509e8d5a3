package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"scriptsmith/internal/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP, Connect and WebSocket server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := log.Default()

	a, err := app.New(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		if err != nil {
			logger.Printf("Server error: %v", err)
		}
	}

	logger.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := a.Shutdown(ctx); err != nil {
		return err
	}

	logger.Println("Server exiting")
	return nil
}
