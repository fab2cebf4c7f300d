package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"rest-gateway/config"
	"rest-gateway/gateway"
	"rest-gateway/resource"

	"github.com/spf13/cobra"
)

// Exemplo mínimo: um único handler HTML estático, sem pipeline.
var rootCmd = &cobra.Command{
	Use:          "example-server [port]",
	Short:        "Serve a static Hello World page",
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		port := 8080
		if len(args) == 1 {
			p, err := parsePort(args[0])
			if err != nil {
				return err
			}
			port = p
		}
		return serve(cmd.Context(), port)
	},
}

func parsePort(s string) (int, error) {
	p, err := strconv.Atoi(s)
	if err != nil || p < 0 || p > 65535 {
		return 0, fmt.Errorf("invalid port %q", s)
	}
	return p, nil
}

func serve(parent context.Context, port int) error {
	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	srv, err := gateway.Start(ctx, gateway.ServerOptions{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: resource.HelloWorld{},
	})
	if err != nil {
		return err
	}

	select {
	case <-ctx.Done():
	case <-srv.Done():
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	return srv.Stop(shutdownCtx)
}

func main() {
	cfg := &config.Config{Env: "dev", Log: config.LogConfig{Level: "info", Format: "auto"}}
	slog.SetDefault(slog.New(config.NewLogHandler(cfg, os.Stdout)))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Usage: %s [port]\n", os.Args[0])
		os.Exit(1)
	}
}
