// Package entities contains core business entities.
// These are pure domain objects for answer resolution with no knowledge of
// HTTP, providers or storage.
package entities

import "time"

// MaxQuestionLength is the longest accepted question, in characters.
const MaxQuestionLength = 10000

// Question is a validated, non-empty user question.
type Question string

// Contact holds the direct contact channels shown to users and models.
type Contact struct {
	Phone    string `yaml:"phone"`
	Email    string `yaml:"email"`
	LinkedIn string `yaml:"linkedin"`
	GitHub   string `yaml:"github"`
}

// Employment is one work-history record.
type Employment struct {
	Company     string   `yaml:"company"`
	Title       string   `yaml:"title"`
	Location    string   `yaml:"location"`
	Date        string   `yaml:"date"`
	Description []string `yaml:"description"`
}

// Education is the education record.
type Education struct {
	School   string `yaml:"school"`
	Location string `yaml:"location"`
	Degree   string `yaml:"degree"`
	Minor    string `yaml:"minor"`
	Date     string `yaml:"date"`
	GPA      string `yaml:"gpa"`
}

// Certification is one certification entry.
type Certification struct {
	Name string `yaml:"name"`
	Date string `yaml:"date"`
}

// Profile is the static knowledge base the assistant answers from.
// Experience and Certifications keep their source order.
type Profile struct {
	Name           string          `yaml:"name"`
	Title          string          `yaml:"title"`
	About          string          `yaml:"about"`
	Contact        Contact         `yaml:"contact"`
	Experience     []Employment    `yaml:"experience"`
	Education      Education       `yaml:"education"`
	Certifications []Certification `yaml:"certifications"`
}

// Prompt is what every provider adapter receives: the question plus the
// assembled knowledge context.
type Prompt struct {
	Question string
	Context  string
}

// Sampling holds per-provider generation parameters. Zero values are omitted
// from the wire request.
type Sampling struct {
	Temperature       float64
	MaxTokens         int
	TopP              float64
	PresencePenalty   float64
	FrequencyPenalty  float64
	RepetitionPenalty float64
	Stop              []string
}

// ProviderRequest is the single-turn exchange sent to a completion provider.
// Both providers build the same shape; only the values differ.
type ProviderRequest struct {
	SystemPrompt string
	UserMessage  string
	// AssistantPrefill primes the reply with a trailing assistant turn.
	AssistantPrefill string
	Model            string
	Sampling         Sampling
}

// FailureKind classifies a primary provider failure.
type FailureKind string

const (
	FailureQuotaExceeded FailureKind = "quota_exceeded"
	FailureUnavailable   FailureKind = "unavailable"
	FailureNetwork       FailureKind = "network_error"
	FailureMalformed     FailureKind = "malformed"
	FailureUnknown       FailureKind = "unknown"
)

// ProviderResult is either an answer or a classified failure, never both.
type ProviderResult struct {
	Answer string
	Kind   FailureKind
	Detail string
}

// AnswerResult wraps a successful completion.
func AnswerResult(text string) ProviderResult {
	return ProviderResult{Answer: text}
}

// FailureResult wraps a classified failure. Detail is operator-facing only.
func FailureResult(kind FailureKind, detail string) ProviderResult {
	return ProviderResult{Kind: kind, Detail: detail}
}

// OK reports whether the result carries an answer.
func (r ProviderResult) OK() bool {
	return r.Kind == ""
}

// FallbackOutcome says how a fallback attempt ended.
type FallbackOutcome string

const (
	FallbackAnswered FallbackOutcome = "answered"
	// FallbackSkipped means no endpoint is configured; nothing was sent.
	FallbackSkipped FallbackOutcome = "skipped"
	// FallbackRejected covers non-OK HTTP responses and undecodable bodies.
	FallbackRejected FallbackOutcome = "rejected"
	// FallbackUnreachable covers transport failures, including timeouts.
	FallbackUnreachable FallbackOutcome = "unreachable"
)

// FallbackResult is the total result of a fallback attempt.
type FallbackResult struct {
	Outcome FallbackOutcome
	Answer  string
	Model   string
	Detail  string
}

// OK reports whether the fallback produced an answer.
func (r FallbackResult) OK() bool {
	return r.Outcome == FallbackAnswered
}

// ResolvedAnswer is the only successful terminal state of a resolution.
type ResolvedAnswer struct {
	Answer        string
	UsedFallback  bool
	FallbackModel string
}

// ErrorKind is the user-facing error taxonomy.
type ErrorKind string

const (
	ErrInvalidContentType  ErrorKind = "invalid_content_type"
	ErrInvalidJSON         ErrorKind = "invalid_json"
	ErrInvalidQuestion     ErrorKind = "invalid_question"
	ErrContextAssembly     ErrorKind = "context_assembly"
	ErrQuotaExceeded       ErrorKind = "quota_exceeded"
	ErrProviderUnavailable ErrorKind = "provider_unavailable"
	ErrUnknown             ErrorKind = "unknown"
)

// ResolvedError is a failed resolution. Message is always safe to show users.
type ResolvedError struct {
	Status  int
	Kind    ErrorKind
	Message string
}

func (e *ResolvedError) Error() string {
	return e.Message
}

// Outcome is one resolution as recorded for operators. It deliberately
// carries no question or answer text.
type Outcome struct {
	// ID is generated per record and unique within a ledger.
	ID              string
	// RequestID is the caller-visible X-Request-ID. Callers choose it, so it
	// is neither unique nor trusted.
	RequestID       string
	RequestedAt     time.Time
	Status          int
	ErrorKind       ErrorKind
	PrimaryFailure  FailureKind
	FallbackOutcome FallbackOutcome
	UsedFallback    bool
	Latency         time.Duration
}

// OutcomeSummary aggregates recorded outcomes.
type OutcomeSummary struct {
	Total        int
	ByStatus     map[int]int
	FallbackUsed int
}
