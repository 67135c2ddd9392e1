// Package mcp exposes the studio as an MCP server so AI agents can browse
// templates, render diagrams and produce exports.
package mcp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/flowlab-edu/flowlab"
	"github.com/flowlab-edu/flowlab/internal/presentation/graph"
	"github.com/flowlab-edu/flowlab/pkg/domain"
)

// RenderResponse is the structured payload returned by the render tool.
type RenderResponse struct {
	OK      bool          `json:"ok" jsonschema_description:"Whether the diagram rendered successfully"`
	SVG     string        `json:"svg,omitempty" jsonschema_description:"Rendered SVG markup on success"`
	Hint    string        `json:"hint,omitempty" jsonschema_description:"Plain-language fix suggestion on failure"`
	Summary graph.Summary `json:"summary" jsonschema_description:"Diagram kind and size"`
}

// Studio defines the interface required by the MCP server.
type Studio interface {
	Templates() []domain.Template
	Template(name string) (domain.Template, error)
	RenderText(ctx context.Context, text string) *domain.RenderResult
	ExportText(ctx context.Context, text string, format domain.Format) ([]byte, error)
}

// Server wraps the Studio and exposes it as an MCP Server.
type Server struct {
	studio    Studio
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance.
func NewServer(studio Studio) *Server {
	s := &Server{
		studio:    studio,
		mcpServer: server.NewMCPServer("flowlab-mcp", strings.TrimSpace(flowlab.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)

	go func() {
		slog.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		fmt.Println("\nShutdown signal received, shutting down server...")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	// TOOL: list_templates
	s.mcpServer.AddTool(mcp.NewTool("list_templates",
		mcp.WithDescription("List the starter diagram templates with their descriptions."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		jsonBytes, _ := json.Marshal(s.studio.Templates())
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})

	// TOOL: get_template
	getTool := mcp.NewTool("get_template",
		mcp.WithDescription("Get the Mermaid source of a starter template by name."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Template name, e.g. simple-flow")),
	)
	s.mcpServer.AddTool(getTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := request.RequireString("name")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		tpl, err := s.studio.Template(name)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("template not found: %s", name)), nil
		}
		return mcp.NewToolResultText(tpl.Text), nil
	})

	// TOOL: render_diagram
	renderTool := mcp.NewTool("render_diagram",
		mcp.WithDescription("Render Mermaid source to SVG. Failures return a plain-language hint instead of an error."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Mermaid diagram source")),
		mcp.WithOutputSchema[RenderResponse](),
	)
	s.mcpServer.AddTool(renderTool, mcp.NewStructuredToolHandler(s.handleRender))

	// TOOL: export_diagram
	exportTool := mcp.NewTool("export_diagram",
		mcp.WithDescription("Export Mermaid source as png, svg or source. Binary formats are returned base64-encoded."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Mermaid diagram source")),
		mcp.WithString("format", mcp.Description("One of png, svg, source (default svg)")),
	)
	s.mcpServer.AddTool(exportTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := request.RequireString("text")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		formatStr := request.GetString("format", string(domain.FormatSVG))
		format, err := domain.ParseFormat(formatStr)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("unsupported format: %s", formatStr)), nil
		}

		data, err := s.studio.ExportText(ctx, text, format)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("export failed: %v", err)), nil
		}
		if format == domain.FormatPNG {
			return mcp.NewToolResultText(base64.StdEncoding.EncodeToString(data)), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	})
}

func (s *Server) handleRender(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (RenderResponse, error) {
	text, _ := args["text"].(string)

	result := s.studio.RenderText(ctx, text)
	return RenderResponse{
		OK:      result.OK,
		SVG:     string(result.SVG),
		Hint:    result.Hint,
		Summary: graph.Inspect(text),
	}, nil
}

func (s *Server) registerResources() {
	// EXPOSE: flowlab://templates
	s.mcpServer.AddResource(mcp.NewResource("flowlab://templates", "Starter Diagram Templates",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.studio.Templates())
		if err != nil {
			return nil, fmt.Errorf("failed to marshal templates: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "flowlab://templates",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
