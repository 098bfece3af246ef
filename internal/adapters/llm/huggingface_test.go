package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/0xcro3dile/portfolio-chat/internal/domain/entities"
)

var testPrompt = entities.Prompt{Question: "What do you do?", Context: "About: Engineer."}

func newHF(t *testing.T, url string, key string) *HuggingFaceAdapter {
	return NewHuggingFaceAdapter(HuggingFaceConfig{APIKey: key, URL: url, Timeout: time.Second}, nil, zaptest.NewLogger(t))
}

func TestHuggingFace_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer hf_secret_key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, DefaultHuggingFaceModel, req.Model)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.True(t, strings.HasSuffix(req.Messages[0].Content, " Context:\nAbout: Engineer."))
		assert.Equal(t, chatMessage{Role: "user", Content: "What do you do?"}, req.Messages[1])

		json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{map[string]any{"message": map[string]any{"role": "assistant", "content": "I build things 🚀"}}},
		})
	}))
	defer server.Close()

	res := newHF(t, server.URL+"/v1/chat/completions", "hf_secret_key").Complete(context.Background(), testPrompt)

	require.True(t, res.OK(), res.Detail)
	assert.Equal(t, "I build things 🚀", res.Answer)
}

func TestHuggingFace_EmptyChoicesUsesPlaceholder(t *testing.T) {
	for name, body := range map[string]string{
		"no choices":    `{"choices":[]}`,
		"no message":    `{"choices":[{}]}`,
		"empty content": `{"choices":[{"message":{"content":""}}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(body))
			}))
			defer server.Close()

			res := newHF(t, server.URL, "key").Complete(context.Background(), testPrompt)
			require.True(t, res.OK())
			assert.Equal(t, NoAnswerPlaceholder, res.Answer)
		})
	}
}

func TestHuggingFace_ClassifiesStatus(t *testing.T) {
	tests := []struct {
		status int
		kind   entities.FailureKind
	}{
		{http.StatusPaymentRequired, entities.FailureQuotaExceeded},
		{http.StatusInternalServerError, entities.FailureUnknown},
		{http.StatusUnauthorized, entities.FailureUnknown},
		{http.StatusTooManyRequests, entities.FailureUnknown},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(`{"error":"upstream said no"}`))
			}))
			defer server.Close()

			res := newHF(t, server.URL, "key").Complete(context.Background(), testPrompt)

			assert.False(t, res.OK())
			assert.Equal(t, tt.kind, res.Kind)
			assert.Contains(t, res.Detail, "upstream said no")
		})
	}
}

func TestHuggingFace_MissingKeySkipsNetwork(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer server.Close()

	res := newHF(t, server.URL, "").Complete(context.Background(), testPrompt)

	assert.Equal(t, entities.FailureUnavailable, res.Kind)
	assert.Zero(t, hits.Load())
}

func TestHuggingFace_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	res := newHF(t, url, "key").Complete(context.Background(), testPrompt)

	assert.Equal(t, entities.FailureNetwork, res.Kind)
}

func TestHuggingFace_TimeoutIsNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	a := NewHuggingFaceAdapter(HuggingFaceConfig{APIKey: "key", URL: server.URL, Timeout: 20 * time.Millisecond}, nil, zaptest.NewLogger(t))
	res := a.Complete(context.Background(), testPrompt)

	assert.Equal(t, entities.FailureNetwork, res.Kind)
}

func TestHuggingFace_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>gateway</html>"))
	}))
	defer server.Close()

	res := newHF(t, server.URL, "key").Complete(context.Background(), testPrompt)

	assert.Equal(t, entities.FailureMalformed, res.Kind)
}

func TestHuggingFace_Defaults(t *testing.T) {
	a := NewHuggingFaceAdapter(HuggingFaceConfig{}, nil, nil)

	assert.Equal(t, DefaultHuggingFaceURL, a.url)
	assert.Equal(t, DefaultHuggingFaceModel, a.model)
	assert.Equal(t, DefaultTimeout, a.timeout)
	assert.Equal(t, "huggingface", a.Name())
}

func TestKeyPrefix(t *testing.T) {
	assert.Equal(t, "hf_abc...", keyPrefix("hf_abcdefghijkl"))
	assert.Equal(t, "ab...", keyPrefix("abcd"))
}

func TestSystemPrompts(t *testing.T) {
	assert.True(t, strings.HasPrefix(PrimarySystemPrompt("ctx"), "You are a helpful assistant"))
	assert.True(t, strings.HasSuffix(PrimarySystemPrompt("ctx"), "important points. Context:\nctx"))
	assert.True(t, strings.HasSuffix(FallbackSystemPrompt("ctx"), "important points.\n\nContext:\nctx"))
}
