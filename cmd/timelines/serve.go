package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"timelines/internal/mcp"
)

var (
	serveTransport string
	serveAddr      string
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	cmd.Flags().StringVar(&serveTransport, "transport", "stdio", "Transport: stdio or http")
	cmd.Flags().StringVar(&serveAddr, "addr", ":8081", "Listen address for the http transport")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	server := mcp.NewServer(a.svc, a.schema, a.cfg.User(), a.logger, version)

	switch serveTransport {
	case "stdio":
		return server.Run(ctx, &sdk.StdioTransport{})
	case "http":
		return serveHTTP(ctx, a.logger, server.Handler())
	}
	return fmt.Errorf("unknown transport: %s (use stdio or http)", serveTransport)
}

func serveHTTP(ctx context.Context, logger *zap.Logger, handler http.Handler) error {
	srv := &http.Server{
		Addr:              serveAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("mcp server listening", zap.String("addr", serveAddr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	logger.Info("mcp server stopped")
	return nil
}
