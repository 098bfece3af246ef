package usecases

import (
	"context"
	"errors"
	"sync"

	"github.com/0xcro3dile/portfolio-chat/internal/domain/entities"
)

// staticProfile implements ports.ProfileSource for testing
type staticProfile struct {
	profile entities.Profile
}

func (s *staticProfile) Profile() entities.Profile { return s.profile }

// mockPrimary implements ports.PrimaryProvider for testing
type mockPrimary struct {
	result entities.ProviderResult
	calls  int
	prompt entities.Prompt
}

func (m *mockPrimary) Complete(ctx context.Context, prompt entities.Prompt) entities.ProviderResult {
	m.calls++
	m.prompt = prompt
	return m.result
}

func (m *mockPrimary) Name() string { return "mock-primary" }

// mockFallback implements ports.FallbackProvider for testing
type mockFallback struct {
	configured bool
	model      string
	result     entities.FallbackResult
	calls      int
	// primaryCallsAtRun snapshots primary.calls on entry to prove ordering.
	primary           *mockPrimary
	primaryCallsAtRun int
}

func (m *mockFallback) Complete(ctx context.Context, prompt entities.Prompt) entities.FallbackResult {
	m.calls++
	if m.primary != nil {
		m.primaryCallsAtRun = m.primary.calls
	}
	return m.result
}

func (m *mockFallback) Configured() bool { return m.configured }
func (m *mockFallback) Model() string    { return m.model }

// mockRecorder implements ports.OutcomeRecorder for testing
type mockRecorder struct {
	mu       sync.Mutex
	outcomes []entities.Outcome
	err      error
}

func (m *mockRecorder) Record(ctx context.Context, o entities.Outcome) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = append(m.outcomes, o)
	return m.err
}

func (m *mockRecorder) last() entities.Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.outcomes[len(m.outcomes)-1]
}

// mockLoader implements ports.ProfileLoader for testing
type mockLoader struct {
	profile entities.Profile
	err     error
	paths   []string
}

func (m *mockLoader) Load(path string) (entities.Profile, error) {
	m.paths = append(m.paths, path)
	return m.profile, m.err
}

// mockPublisher implements ports.ProfilePublisher for testing
type mockPublisher struct {
	mu        sync.Mutex
	published []entities.Profile
}

func (m *mockPublisher) Publish(p entities.Profile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, p)
}

func (m *mockPublisher) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.published)
}

var errLoad = errors.New("boom")

func testProfile() entities.Profile {
	return entities.Profile{
		Name:  "Ada Lovelace",
		Title: "Engineer",
		About: "Engineer.",
		Contact: entities.Contact{
			Phone:    "555-0100",
			Email:    "ada@example.com",
			LinkedIn: "https://linkedin.example/ada",
			GitHub:   "https://github.example/ada",
		},
		Experience: []entities.Employment{
			{
				Company:     "Acme",
				Title:       "Engineer",
				Location:    "Remote",
				Date:        "2020 - Present",
				Description: []string{"Built things.", "Shipped things."},
			},
			{
				Company:     "Globex",
				Title:       "Intern",
				Location:    "NYC",
				Date:        "2019",
				Description: []string{"Learned."},
			},
		},
		Education: entities.Education{
			School:   "Drexel University",
			Location: "Philadelphia, PA",
			Degree:   "B.S. Computer Science",
			Minor:    "Minor in Math",
			Date:     "2015",
			GPA:      "GPA: 3.5",
		},
		Certifications: []entities.Certification{
			{Name: "Cert A", Date: "2021"},
			{Name: "Cert B", Date: "2022"},
		},
	}
}
