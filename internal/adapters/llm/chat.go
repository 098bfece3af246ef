// Package llm provides the chat completion provider adapters.
// Both providers speak the OpenAI-compatible chat completions protocol.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/0xcro3dile/portfolio-chat/internal/domain/entities"
)

const promptPreamble = "You are a helpful assistant that answers questions about the following resume and portfolio content. " +
	"Provide direct, concise answers that include relevant emojis and colorful language to make your responses engaging and visually appealing. " +
	"Use markdown formatting when appropriate to highlight important points."

// PrimarySystemPrompt is the system prompt sent to the hosted provider.
func PrimarySystemPrompt(knowledge string) string {
	return promptPreamble + " Context:\n" + knowledge
}

// FallbackSystemPrompt is the system prompt sent to the local provider.
func FallbackSystemPrompt(knowledge string) string {
	return promptPreamble + "\n\nContext:\n" + knowledge
}

// chatMessage is one turn of a chat completion exchange.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatRequest is the chat completions request body.
type chatRequest struct {
	Model             string        `json:"model"`
	Messages          []chatMessage `json:"messages"`
	Temperature       float64       `json:"temperature,omitempty"`
	MaxTokens         int           `json:"max_tokens,omitempty"`
	Stream            bool          `json:"stream"`
	Stop              []string      `json:"stop,omitempty"`
	PresencePenalty   float64       `json:"presence_penalty,omitempty"`
	FrequencyPenalty  float64       `json:"frequency_penalty,omitempty"`
	TopP              float64       `json:"top_p,omitempty"`
	RepetitionPenalty float64       `json:"repetition_penalty,omitempty"`
}

// chatResponse is the part of the chat completions response we read.
type chatResponse struct {
	Choices []struct {
		Message *struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// firstContent returns the first choice's message content, or "".
func (r *chatResponse) firstContent() string {
	if len(r.Choices) == 0 || r.Choices[0].Message == nil {
		return ""
	}
	return r.Choices[0].Message.Content
}

func newChatRequest(pr entities.ProviderRequest) chatRequest {
	messages := []chatMessage{
		{Role: "system", Content: pr.SystemPrompt},
		{Role: "user", Content: pr.UserMessage},
	}
	if pr.AssistantPrefill != "" {
		messages = append(messages, chatMessage{Role: "assistant", Content: pr.AssistantPrefill})
	}
	s := pr.Sampling
	return chatRequest{
		Model:             pr.Model,
		Messages:          messages,
		Temperature:       s.Temperature,
		MaxTokens:         s.MaxTokens,
		Stop:              s.Stop,
		PresencePenalty:   s.PresencePenalty,
		FrequencyPenalty:  s.FrequencyPenalty,
		TopP:              s.TopP,
		RepetitionPenalty: s.RepetitionPenalty,
	}
}

// StatusError is a completed exchange with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("provider returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("provider returned status %d: %s", e.StatusCode, e.Body)
}

// TransportError means no response was received: refused connections,
// DNS failures, timeouts and cancellations.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return "calling provider: " + e.Err.Error() }
func (e *TransportError) Unwrap() error { return e.Err }

// DecodeError means the response body was not a chat completion.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string { return "decoding response: " + e.Err.Error() }
func (e *DecodeError) Unwrap() error { return e.Err }

// maxErrorBody bounds how much of an error response is kept for logs.
const maxErrorBody = 512

// postChat sends one chat completion and returns the first choice's content.
// Errors are always one of *StatusError, *TransportError or *DecodeError.
func postChat(ctx context.Context, client *http.Client, url string, header http.Header, body chatRequest) (string, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return "", &TransportError{Err: fmt.Errorf("marshaling request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", &TransportError{Err: fmt.Errorf("creating request: %w", err)}
	}
	for k, v := range header {
		req.Header[k] = v
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return "", &TransportError{Err: err}
	}
	if resp == nil {
		return "", &TransportError{Err: errors.New("nil response")}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		// A body cut off by a deadline is still a transport failure.
		if ctx.Err() != nil {
			return "", &TransportError{Err: ctx.Err()}
		}
		return "", &DecodeError{Err: err}
	}
	return decoded.firstContent(), nil
}
