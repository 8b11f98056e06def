package models

// Tool describes a tool exposed by the connected MCP server.
type Tool struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type ToolCallRequest struct {
	Arguments map[string]any `json:"arguments"`
}

type ToolResult struct {
	Content []string `json:"content"`
	IsError bool     `json:"isError"`
}
