package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/deixis/noderun/internal/host"
	nrmcp "github.com/deixis/noderun/internal/mcp"
	"github.com/deixis/noderun/internal/report"
	"github.com/deixis/noderun/internal/runner"
)

func newMCPCmd(opts *options) *cobra.Command {
	var (
		httpAddr     string
		instructions bool
	)
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server (stdio by default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if instructions {
				fmt.Fprint(cmd.OutOrStdout(), nrmcp.Instructions)
				return nil
			}
			return serve(cmd.Context(), opts, opts.newLogger(cmd), httpAddr)
		},
	}
	cmd.Flags().StringVar(&httpAddr, "http", "", "serve streamable HTTP on address (e.g. :9090) instead of stdio")
	cmd.Flags().BoolVar(&instructions, "instructions", false, "print model instructions and exit")
	return cmd
}

func serve(ctx context.Context, opts *options, logger *log.Logger, httpAddr string) error {
	fp, err := opts.provider()
	if err != nil {
		return err
	}

	loop := host.NewLoop()
	go func() {
		_ = loop.Run(ctx)
	}()
	defer loop.Stop()

	r := runner.New(fp, loop, runner.WithLogger(logger))

	var store report.Store
	if !opts.noHistory {
		store = report.NewLRUStore(32, report.NewDiskStore(fp.Config().HistoryPath()))
	}

	server := nrmcp.NewServer(fp, r, loop, store, fp.ProjectRoot(), nrmcp.WithLogger(logger))

	if httpAddr != "" {
		return serveHTTP(ctx, server, logger, httpAddr)
	}
	return server.Run(ctx, &mcpsdk.StdioTransport{})
}

func serveHTTP(ctx context.Context, server *mcpsdk.Server, logger *log.Logger, addr string) error {
	handler := mcpsdk.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcpsdk.Server { return server },
		nil,
	)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	go func() {
		<-ctx.Done()
		_ = httpServer.Close()
	}()

	logger.Info("listening", "addr", addr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}
