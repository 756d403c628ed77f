package mcp

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hpungsan/medmastery/internal/ops"
)

// KnownTypes lists the tool groups that can be disabled as a whole.
var KnownTypes = []string{"deck", "quiz", "progress", "data"}

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"deck_due": {
		def:     dueToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDue },
	},
	"deck_next": {
		def:     nextToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleNext },
	},
	"deck_flip": {
		def:     flipToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleFlip },
	},
	"deck_skip": {
		def:     skipToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSkip },
	},
	"deck_review": {
		def:     reviewToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleReview },
	},
	"deck_fetch": {
		def:     fetchToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleFetch },
	},
	"deck_list": {
		def:     listToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleList },
	},
	"deck_add": {
		def:     addToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleAdd },
	},
	"quiz_list": {
		def:     quizListToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleQuizList },
	},
	"quiz_get": {
		def:     quizGetToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleQuizGet },
	},
	"quiz_answer": {
		def:     quizAnswerToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleQuizAnswer },
	},
	"progress_stats": {
		def:     statsToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleStats },
	},
	"data_export": {
		def:     exportToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleExport },
	},
	"data_import": {
		def:     importToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleImport },
	},
}

// AllToolNames returns a list of all valid tool names.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	return names
}

// ValidateDisabledTools returns a list of unknown tool names from the given list.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// ValidateDisabledTypes returns a list of unknown type names from the given list.
func ValidateDisabledTypes(names []string) []string {
	known := make(map[string]bool, len(KnownTypes))
	for _, t := range KnownTypes {
		known[t] = true
	}

	unknown := make([]string, 0)
	for _, name := range names {
		if !known[name] {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// GetTypeForTool extracts the group from a tool name ("deck_review" → "deck").
func GetTypeForTool(toolName string) string {
	if idx := strings.Index(toolName, "_"); idx > 0 {
		return toolName[:idx]
	}
	return ""
}

// ExpandTypesToTools returns all tool names belonging to the given types.
func ExpandTypesToTools(types []string) []string {
	if len(types) == 0 {
		return nil
	}

	typeSet := make(map[string]bool, len(types))
	for _, t := range types {
		typeSet[t] = true
	}

	tools := make([]string, 0)
	for name := range toolRegistry {
		if typeSet[GetTypeForTool(name)] {
			tools = append(tools, name)
		}
	}
	return tools
}

// NewServer creates an MCP server exposing the study operations over env.
// Tools listed in DisabledTools or belonging to DisabledTypes are not registered.
func NewServer(env *ops.Env, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"medmastery",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(env)
	cfg := env.Config

	disabled := make(map[string]bool)
	for _, tool := range ExpandTypesToTools(cfg.DisabledTypes) {
		disabled[tool] = true
	}
	for _, name := range cfg.DisabledTools {
		disabled[name] = true
	}

	for name, entry := range toolRegistry {
		if disabled[name] {
			continue
		}
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run serves env over the stdio transport until stdin closes.
func Run(env *ops.Env, version string) error {
	return server.ServeStdio(NewServer(env, version))
}

// ToolHandlerFunc is the signature for tool handlers.
type ToolHandlerFunc func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)
