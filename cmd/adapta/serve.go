package main

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"github.com/tb0hdan/adapta-history/pkg/server"
	"github.com/tb0hdan/adapta-history/pkg/storage"
	"github.com/tb0hdan/adapta-history/pkg/tools"
	"github.com/tb0hdan/adapta-history/pkg/tools/history"
)

func (a *app) serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the history backend (HTTP JSON API and MCP endpoint)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context())
		},
	}
	cmd.Flags().String("bind", "", "bind address (host:port)")
	cmd.Flags().String("db", "", "SQLite database file path")
	_ = a.v.BindPFlag("server.bind", cmd.Flags().Lookup("bind"))
	_ = a.v.BindPFlag("database.path", cmd.Flags().Lookup("db"))
	return cmd
}

func (a *app) serve(signalCtx context.Context) error {
	logger := a.logger

	store, err := storage.NewSQLiteStorage(storage.Config{
		DatabasePath: a.cfg.Database.Path,
		Debug:        a.cfg.Database.Debug,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	logger.Info().Msgf("Database initialized at %s", a.cfg.Database.Path)

	impl := &mcp.Implementation{
		Name:    ServerName,
		Version: a.version,
	}
	opts := []server.Option{server.WithLogger(logger)}
	if a.cfg.Auth.JWTSecret != "" {
		opts = append(opts, server.WithJWTSecret(a.cfg.Auth.JWTSecret))
	}
	srv := server.NewServer(impl, store, opts...)

	toolList := []tools.Tool{
		history.New(logger),
	}
	for _, tool := range toolList {
		if err := tool.Register(srv); err != nil {
			logger.Error().Msgf("Failed to register tool: %v", err)
		}
	}

	bindAddr := a.cfg.Server.Bind
	logger.Info().Msgf("%s starting on address %s", server.ServiceName, bindAddr)
	logger.Info().Msgf("MCP endpoint available at: http://%s/mcp", bindAddr)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(bindAddr)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			_ = store.Close()
			return err
		}
	case <-signalCtx.Done():
	}

	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Msgf("%s shutdown error: %v", server.ServiceName, err)
		return err
	}
	logger.Info().Msgf("%s shutdown complete", server.ServiceName)
	return nil
}
