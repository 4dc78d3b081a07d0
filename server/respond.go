package server

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/EloSanz/iCardsMCP/icards"
)

// jsonResult renders v as a pretty-printed JSON text result.
func jsonResult(v any) (*mcp.CallToolResult, any, error) {
	body, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult("internal", fmt.Sprintf("encode result: %v", err), nil)
	}
	return textResult(string(body))
}

func textResult(text string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}, nil, nil
}

// errorResult renders a failure as a structured result value. Failures
// are data for the calling model, never protocol-level errors.
func errorResult(kind, message string, context map[string]any) (*mcp.CallToolResult, any, error) {
	payload := map[string]any{
		"error":   kind,
		"message": message,
	}
	for k, v := range context {
		payload[k] = v
	}
	body, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		body = []byte(fmt.Sprintf(`{"error":%q,"message":%q}`, kind, message))
	}
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(body)},
		},
	}, nil, nil
}

// failure maps a domain error onto a structured error result. Not-found
// errors carry the available names so the caller can self-correct.
func failure(err error) (*mcp.CallToolResult, any, error) {
	var notFound *icards.NotFoundError
	if errors.As(err, &notFound) {
		ctx := map[string]any{}
		if len(notFound.Available) > 0 {
			ctx["available"] = notFound.Available
		}
		return errorResult("not_found", notFound.Error(), ctx)
	}

	var apiErr *icards.APIError
	if errors.As(err, &apiErr) {
		ctx := map[string]any{}
		if apiErr.StatusCode > 0 {
			ctx["statusCode"] = apiErr.StatusCode
		}
		return errorResult(string(apiErr.Kind), apiErr.Message, ctx)
	}

	return errorResult("error", err.Error(), nil)
}

// invalid renders a validator failure.
func invalid(err error) (*mcp.CallToolResult, any, error) {
	return errorResult("validation", err.Error(), nil)
}
