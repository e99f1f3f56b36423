package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"github.com/golang/glog"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	mcpadapter "shelfsync/internal/adapters/mcp"
	"shelfsync/internal/app"
)

func main() {
	configFlag := flag.String("config", "", "path to config.toml")
	envFlag := flag.String("env-file", "", "path to a .env file")
	offlineFlag := flag.Bool("offline", false, "never contact the remote store")
	flag.Parse()
	defer glog.Flush()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := app.Open(ctx, app.Options{
		ConfigPath: *configFlag,
		EnvFile:    *envFlag,
		Offline:    *offlineFlag,
	})
	if err != nil {
		log.Fatalf("shelfsync-mcp: %v", err)
	}
	defer rt.Close()

	mcpServer := server.NewMCPServer(
		"shelfsync-mcp",
		"0.1.0",
		server.WithToolCapabilities(true),
	)

	mcpServer.AddTool(
		mcp.NewTool("ping",
			mcp.WithDescription("Health check, returns pong"),
		),
		func(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultText("pong"), nil
		},
	)

	mcpadapter.RegisterReadTools(mcpServer, rt.Engine, rt.Engine)
	mcpadapter.RegisterWriteTools(mcpServer, rt.Engine)

	if err := server.ServeStdio(mcpServer); err != nil {
		glog.Errorf("shelfsync-mcp: %v", err)
	}
}
