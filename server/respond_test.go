package server

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EloSanz/iCardsMCP/icards"
)

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestJSONResult(t *testing.T) {
	res, _, err := jsonResult(map[string]any{"count": 2})
	require.NoError(t, err)
	assert.False(t, res.IsError)

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &payload))
	assert.Equal(t, float64(2), payload["count"])
}

func TestFailureNotFound(t *testing.T) {
	err := &icards.NotFoundError{
		Resource:  "deck",
		Name:      "Chemistry",
		Available: []string{"Spanish", "Biology"},
	}

	res, _, callErr := failure(err)
	require.NoError(t, callErr, "failures are result values, never protocol errors")
	assert.True(t, res.IsError)

	var payload struct {
		Error     string   `json:"error"`
		Message   string   `json:"message"`
		Available []string `json:"available"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &payload))
	assert.Equal(t, "not_found", payload.Error)
	assert.Contains(t, payload.Message, "Chemistry")
	assert.Equal(t, []string{"Spanish", "Biology"}, payload.Available)
}

func TestFailureAPIError(t *testing.T) {
	err := &icards.APIError{
		Kind:       icards.KindValidation,
		StatusCode: 422,
		Message:    "front is required",
	}

	res, _, callErr := failure(err)
	require.NoError(t, callErr)
	assert.True(t, res.IsError)

	var payload struct {
		Error      string `json:"error"`
		Message    string `json:"message"`
		StatusCode int    `json:"statusCode"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &payload))
	assert.Equal(t, "validation", payload.Error)
	assert.Equal(t, "front is required", payload.Message)
	assert.Equal(t, 422, payload.StatusCode)
}

func TestFailureGenericError(t *testing.T) {
	res, _, callErr := failure(errors.New("something broke"))
	require.NoError(t, callErr)
	assert.True(t, res.IsError)

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &payload))
	assert.Equal(t, "error", payload["error"])
	assert.Equal(t, "something broke", payload["message"])
}

func TestInvalid(t *testing.T) {
	res, _, callErr := invalid(errors.New("deck name must not be empty"))
	require.NoError(t, callErr)
	assert.True(t, res.IsError)

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &payload))
	assert.Equal(t, "validation", payload["error"])
}
