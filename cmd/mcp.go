package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	coreconfig "github.com/kavelar/moviemind/core/config"
	"github.com/kavelar/moviemind/ui/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	mcpPortFlag string
	mcpHostFlag string
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the discovery MCP server using SSE",
	Long:  `Start an MCP (Model Context Protocol) server using Server-Sent Events (SSE) transport. This exposes the movie discovery operations as tools AI agents can call through a standardized protocol.`,
	Run:   mcpServer,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().StringVar(&mcpPortFlag, "port", "", "Port for the SSE MCP server")
	mcpCmd.Flags().StringVar(&mcpHostFlag, "host", "", "Host for the SSE MCP server")
}

func mcpServer(_ *cobra.Command, _ []string) {
	cfg := coreconfig.Global

	host := cfg.MCP.Host
	if mcpHostFlag != "" {
		host = mcpHostFlag
	}
	port := cfg.MCP.Port
	if mcpPortFlag != "" {
		port = mcpPortFlag
	}

	mcpSrv := server.NewMCPServer(
		"MovieMind Discovery MCP Server",
		cfg.App.Version,
		server.WithToolCapabilities(true),
	)

	discoveryHandler := mcp.InitMcpDiscovery(discoveryUsecase)
	discoveryHandler.AddDiscoveryTools(mcpSrv)

	sseServer := server.NewSSEServer(
		mcpSrv,
		server.WithBaseURL(fmt.Sprintf("http://%s:%s", host, port)),
		server.WithKeepAlive(true),
	)

	addr := fmt.Sprintf("%s:%s", host, port)
	logrus.Printf("Starting MovieMind MCP SSE server on %s", addr)
	logrus.Printf("SSE endpoint: http://%s/sse", addr)
	logrus.Printf("Message endpoint: http://%s/message", addr)

	// Graceful shutdown handler
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logrus.Info("[MCP] Reception of termination signal, shutting down gracefully...")
		StopApp()
		os.Exit(0)
	}()

	if err := sseServer.Start(addr); err != nil {
		logrus.Fatalf("Failed to start SSE server: %v", err)
	}
}
