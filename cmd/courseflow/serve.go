package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/courseflow/internal/mcp"
	"github.com/spf13/cobra"
)

var (
	transportFlag string
	portFlag      int
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the course tools over MCP",
	Long:  `Serve the course tools over MCP, on stdio for a local agent or over streamable HTTP.`,
	RunE:  runMCP,
}

func init() {
	mcpCmd.Flags().StringVar(&transportFlag, "transport", "", "stdio or http (overrides config)")
	mcpCmd.Flags().IntVar(&portFlag, "port", 0, "HTTP port (overrides config)")
}

func runMCP(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if transportFlag != "" {
		cfg.Transport.Mode = transportFlag
	}
	if portFlag != 0 {
		cfg.Server.Port = portFlag
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	sess, err := a.session(ctx)
	if err != nil {
		return err
	}

	a.logger.Info("starting courseflow",
		"version", version,
		"transport", cfg.Transport.Mode,
		"db", cfg.DB.Path,
		"preferences", cfg.Preferences.Backend,
		"course_api", cfg.CourseAPI.BaseURL,
	)

	server := mcp.NewServer(mcp.Config{
		Services:      a.services,
		Resolver:      a.accounts,
		AuthEnabled:   !cfg.Auth.Disabled,
		TransportMode: cfg.Transport.Mode,
		LocalSession:  sess,
		Version:       version,
		Logger:        a.logger,
	})

	if cfg.Transport.Mode == "http" {
		return runHTTPMode(ctx, a.logger, server, cfg.Server.Host, cfg.Server.Port)
	}
	return runStdioMode(ctx, a.logger, server)
}

func runStdioMode(ctx context.Context, logger *slog.Logger, server *sdkmcp.Server) error {
	logger.Info("starting stdio transport", "auth", "disabled")

	// Run blocks until stdin closes or ctx is canceled.
	if err := server.Run(ctx, &sdkmcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("stdio server: %w", err)
	}
	return nil
}

func runHTTPMode(ctx context.Context, logger *slog.Logger, server *sdkmcp.Server, host string, port int) error {
	handler := sdkmcp.NewStreamableHTTPHandler(
		func(r *http.Request) *sdkmcp.Server { return server },
		&sdkmcp.StreamableHTTPOptions{
			Stateless:      false,
			SessionTimeout: 30 * time.Minute,
		},
	)

	router := http.NewServeMux()
	router.Handle("/mcp", handler)
	router.Handle("/mcp/", handler)
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	addr := fmt.Sprintf("%s:%d", host, port)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	waitForShutdown(logger, httpServer)
	return nil
}

func waitForShutdown(logger *slog.Logger, server *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("shutting down")
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}
