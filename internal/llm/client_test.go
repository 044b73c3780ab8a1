package llm_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biokg/kgbench/internal/llm"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func chatResponse(content string) string {
	return fmt.Sprintf(`{"choices":[{"message":{"role":"assistant","content":%q}}]}`, content)
}

func TestNewClientValidatesOptions(t *testing.T) {
	_, err := llm.NewClient(llm.Options{Model: "gpt-3.5-turbo"})
	assert.Error(t, err, "missing api key")

	_, err = llm.NewClient(llm.Options{APIKey: "sk-test"})
	assert.Error(t, err, "missing model")
}

func TestCompleteSendsPromptAsUserMessage(t *testing.T) {
	var captured chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		fmt.Fprint(w, chatResponse("Question: q?\nAnswer: a"))
	}))
	t.Cleanup(server.Close)

	client, err := llm.NewClient(llm.Options{
		APIKey:  "sk-test",
		BaseURL: server.URL + "/v1",
		Model:   "gpt-3.5-turbo",
	})
	require.NoError(t, err)

	content, err := client.Complete(context.Background(), "generate a question")
	require.NoError(t, err)

	assert.Equal(t, "Question: q?\nAnswer: a", content)
	assert.Equal(t, "gpt-3.5-turbo", captured.Model)
	require.Len(t, captured.Messages, 1)
	assert.Equal(t, "user", captured.Messages[0].Role)
	assert.Equal(t, "generate a question", captured.Messages[0].Content)
}

func TestCompleteRetriesTransportFailures(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			http.Error(w, "upstream busy", http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, chatResponse("recovered"))
	}))
	t.Cleanup(server.Close)

	client, err := llm.NewClient(llm.Options{
		APIKey:  "sk-test",
		BaseURL: server.URL + "/v1",
		Model:   "gpt-3.5-turbo",
	})
	require.NoError(t, err)

	content, err := client.Complete(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "recovered", content)
	assert.Equal(t, 2, calls)
}

func TestCompleteGivesUpAfterAttemptCap(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "upstream busy", http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	client, err := llm.NewClient(llm.Options{
		APIKey:  "sk-test",
		BaseURL: server.URL + "/v1",
		Model:   "gpt-3.5-turbo",
	})
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), "prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 attempts")
	assert.Equal(t, 2, calls)
}

func TestCompleteHonorsCancelledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream busy", http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	client, err := llm.NewClient(llm.Options{
		APIKey:  "sk-test",
		BaseURL: server.URL + "/v1",
		Model:   "gpt-3.5-turbo",
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = client.Complete(ctx, "prompt")
	assert.Error(t, err)
}
