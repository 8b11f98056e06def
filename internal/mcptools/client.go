// Package mcptools bridges the admin API to tools exposed by an MCP server
// running as a child process.
package mcptools

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	"portfolio-backend/internal/models"
	"portfolio-backend/pkg/logger"
)

const initTimeout = 30 * time.Second

// session is the part of the mcp-go client this package uses.
type session interface {
	ListTools(ctx context.Context, req mcp.ListToolsRequest) (*mcp.ListToolsResult, error)
	CallTool(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)
	Close() error
}

// Client is safe for concurrent use. Close stops the server process.
type Client struct {
	session   session
	closeOnce sync.Once
	closeErr  error
}

// Connect starts command over stdio and completes the MCP handshake.
func Connect(ctx context.Context, command string, args []string) (*Client, error) {
	cli, err := client.NewStdioMCPClient(command, nil, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to start MCP server %q: %w", command, err)
	}

	initCtx, cancel := context.WithTimeout(ctx, initTimeout)
	defer cancel()

	initRequest := mcp.InitializeRequest{}
	initRequest.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initRequest.Params.ClientInfo = mcp.Implementation{
		Name:    "portfolio-backend",
		Version: "1.0.0",
	}

	res, err := cli.Initialize(initCtx, initRequest)
	if err != nil {
		cli.Close()
		return nil, fmt.Errorf("failed to initialize MCP connection: %w", err)
	}
	logger.Infof("MCP server connected: %s %s", res.ServerInfo.Name, res.ServerInfo.Version)

	return newClient(cli), nil
}

func newClient(s session) *Client {
	return &Client{session: s}
}

func (c *Client) ListTools(ctx context.Context) ([]models.Tool, error) {
	res, err := c.session.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("failed to list MCP tools: %w", err)
	}

	tools := make([]models.Tool, 0, len(res.Tools))
	for _, t := range res.Tools {
		tools = append(tools, models.Tool{Name: t.Name, Description: t.Description})
	}
	return tools, nil
}

// CallTool runs a tool and returns its text output. A tool that reports an
// error still yields a result with IsError set.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]any) (*models.ToolResult, error) {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	res, err := c.session.CallTool(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to call MCP tool %s: %w", name, err)
	}

	out := &models.ToolResult{Content: []string{}, IsError: res.IsError}
	for _, content := range res.Content {
		switch v := content.(type) {
		case mcp.TextContent:
			out.Content = append(out.Content, v.Text)
		case *mcp.TextContent:
			out.Content = append(out.Content, v.Text)
		default:
			logger.Debugf("mcp tool %s returned non-text content %T", name, content)
		}
	}
	return out, nil
}

func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.session.Close()
	})
	return c.closeErr
}
