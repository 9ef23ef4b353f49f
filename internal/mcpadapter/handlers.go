package mcpadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/tanelpoder/xtop-engine/internal/engine"
	"github.com/tanelpoder/xtop-engine/internal/model"
	"github.com/tanelpoder/xtop-engine/internal/timeparse"
)

// newRunQueryHandler returns the run_query tool handler bound to eng.
func newRunQueryHandler(eng *engine.Engine) func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := getArgs(request)

		params := model.QueryParams{
			GroupCols:   splitCSV(stringArg(args, "group_cols", "")),
			LatencyCols: splitCSV(stringArg(args, "latency_cols", "")),
			Where:       stringArg(args, "where", ""),
			Limit:       intArg(args, "limit", 50),
		}

		tr, err := timeRangeArg(args)
		if err != nil {
			return errResult(err.Error()), nil
		}
		params.TimeRange = tr

		result, err := eng.Execute(ctx, params)
		if err != nil {
			return errResult(fmt.Sprintf("query failed: %v", err)), nil
		}

		jsonData, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return errResult(fmt.Sprintf("json marshal failed: %v", err)), nil
		}
		return newTextResult(string(jsonData)), nil
	}
}

func timeRangeArg(args map[string]interface{}) (model.TimeRange, error) {
	clock := timeparse.SystemClock{}
	var tr model.TimeRange

	from, ok, err := timeparse.Parse(stringArg(args, "from", ""), clock)
	if err != nil {
		return tr, fmt.Errorf("from: %w", err)
	}
	if ok {
		low := from.Unix()
		tr.Low = &low
	}

	to, ok, err := timeparse.Parse(stringArg(args, "to", ""), clock)
	if err != nil {
		return tr, fmt.Errorf("to: %w", err)
	}
	if ok {
		high := to.Unix()
		tr.High = &high
	}
	return tr, nil
}

func splitCSV(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// getArgs safely extracts the arguments map from a CallToolRequest.
func getArgs(request mcp.CallToolRequest) map[string]interface{} {
	if request.Params.Arguments == nil {
		return map[string]interface{}{}
	}
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return map[string]interface{}{}
	}
	return args
}

// stringArg extracts a string argument with a default value.
func stringArg(args map[string]interface{}, key, defaultVal string) string {
	val, ok := args[key]
	if !ok || val == nil {
		return defaultVal
	}
	s, ok := val.(string)
	if !ok || s == "" {
		return defaultVal
	}
	return s
}

// intArg extracts a numeric argument (JSON numbers decode as float64).
func intArg(args map[string]interface{}, key string, defaultVal int) int {
	val, ok := args[key]
	if !ok || val == nil {
		return defaultVal
	}
	f, ok := val.(float64)
	if !ok {
		return defaultVal
	}
	return int(f)
}

// newTextResult creates a successful MCP tool result with text content.
func newTextResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// errResult creates an MCP tool-level error result (IsError=true), not a
// transport-level JSON-RPC error.
func errResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
	}
}
