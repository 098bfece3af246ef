// Package usecases contains application business rules.
// Usecases orchestrate entities and depend on port interfaces only; they hold
// no transport or provider code.
package usecases

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/0xcro3dile/portfolio-chat/internal/domain/entities"
)

// Client-facing validation messages.
const (
	MsgInvalidContentType = "Invalid content type"
	MsgInvalidJSON        = "Invalid JSON format"
	MsgInvalidQuestion    = "Request must include a string question"
)

// MsgQuestionTooLong is returned for questions over the length bound.
var MsgQuestionTooLong = fmt.Sprintf("Question must be at most %d characters", entities.MaxQuestionLength)

// ValidateRequest checks the transport-level preconditions of a chat request
// and returns the question it carries. It is a pure function of its inputs.
func ValidateRequest(contentType string, body io.Reader) (entities.Question, error) {
	if !isJSONMediaType(contentType) {
		return "", &entities.ResolvedError{
			Status:  http.StatusUnsupportedMediaType,
			Kind:    entities.ErrInvalidContentType,
			Message: MsgInvalidContentType,
		}
	}

	raw, err := io.ReadAll(body)
	if err != nil {
		return "", invalidJSON()
	}

	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", invalidJSON()
	}

	// Non-object bodies have no question field at all.
	fields, _ := parsed.(map[string]any)
	question, ok := fields["question"].(string)
	if !ok {
		return "", invalidQuestion(MsgInvalidQuestion)
	}
	return ValidateQuestion(question)
}

// ValidateQuestion applies the question rules: a string that is neither
// blank nor longer than entities.MaxQuestionLength characters.
func ValidateQuestion(question string) (entities.Question, error) {
	if strings.TrimSpace(question) == "" {
		return "", invalidQuestion(MsgInvalidQuestion)
	}
	if utf8.RuneCountInString(question) > entities.MaxQuestionLength {
		return "", invalidQuestion(MsgQuestionTooLong)
	}
	return entities.Question(question), nil
}

// isJSONMediaType accepts application/json and any +json media type.
func isJSONMediaType(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.Contains(strings.ToLower(contentType), "application/json")
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

func invalidJSON() error {
	return &entities.ResolvedError{
		Status:  http.StatusBadRequest,
		Kind:    entities.ErrInvalidJSON,
		Message: MsgInvalidJSON,
	}
}

func invalidQuestion(msg string) error {
	return &entities.ResolvedError{
		Status:  http.StatusBadRequest,
		Kind:    entities.ErrInvalidQuestion,
		Message: msg,
	}
}
