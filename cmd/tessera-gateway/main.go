// tessera-gateway is a development stand-in for the containerized
// Atlassian MCP gateway. It serves the same tools/call surface over
// streamable HTTP and proxies each call to the Atlassian REST APIs using
// the credentials carried on that request's headers.
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"
	arbor_models "github.com/ternarybob/arbor/models"
	"github.com/ternarybob/tessera/internal/common"
)

var (
	listenPort = flag.Int("port", 8080, "Listen port")
	listenHost = flag.String("host", "localhost", "Listen host")
	transport  = flag.String("transport", "streamable-http", "Transport (streamable-http only)")
)

func main() {
	flag.Parse()

	if *transport != "streamable-http" {
		fmt.Fprintf(os.Stderr, "Unsupported transport: %s\n", *transport)
		os.Exit(1)
	}

	// Console only, minimal level; this process runs as a child
	logger := arbor.NewLogger().WithConsoleWriter(arbor_models.WriterConfiguration{
		Type:             arbor_models.LogWriterTypeConsole,
		TimeFormat:       "15:04:05",
		DisableTimestamp: false,
	}).WithLevelFromString("warn")

	addr := fmt.Sprintf("%s:%d", *listenHost, *listenPort)
	fmt.Printf("tessera-gateway listening on %s\n", addr)
	if err := http.ListenAndServe(addr, buildHandler(logger)); err != nil {
		fmt.Fprintf(os.Stderr, "Server failed: %v\n", err)
		os.Exit(1)
	}
}

// buildHandler wires the tool registry, the streamable HTTP transport,
// and the health endpoint into a single handler.
func buildHandler(logger arbor.ILogger) http.Handler {
	mcpServer := server.NewMCPServer(
		"tessera-gateway",
		common.GetVersion(),
		server.WithToolCapabilities(true),
	)

	// Jira tools
	mcpServer.AddTool(createUserProfileTool(), handleUserProfile(logger))
	mcpServer.AddTool(createSearchTool(), handleSearch(logger))
	mcpServer.AddTool(createAgileBoardsTool(), handleAgileBoards(logger))
	mcpServer.AddTool(createSprintsTool(), handleSprints(logger))
	mcpServer.AddTool(createGetIssueTool(), handleGetIssue(logger))
	mcpServer.AddTool(createCreateIssueTool(), handleCreateIssue(logger))

	// Confluence tools
	mcpServer.AddTool(createConfluenceUserProfileTool(), handleConfluenceUserProfile(logger))
	mcpServer.AddTool(createConfluenceSearchTool(), handleConfluenceSearch(logger))
	mcpServer.AddTool(createSpacesTool(), handleSpaces(logger))
	mcpServer.AddTool(createSpacePagesTool(), handleSpacePages(logger))

	// Stateless: callers POST bare tools/call requests without an
	// initialize handshake or session ID.
	streamable := server.NewStreamableHTTPServer(
		mcpServer,
		server.WithHTTPContextFunc(headersIntoContext),
		server.WithStateLess(true),
	)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `{"status":"ok"}`)
	})
	mux.Handle("/mcp", streamable)
	return mux
}
