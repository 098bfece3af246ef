// Package usecases - knowledge.go renders the profile into the model context.
package usecases

import (
	"fmt"
	"strings"

	"github.com/0xcro3dile/portfolio-chat/internal/domain/entities"
)

// ContextError reports a structurally invalid profile.
type ContextError struct {
	Field string
}

func (e *ContextError) Error() string {
	return fmt.Sprintf("profile: missing required field %s", e.Field)
}

// AssembleContext renders the knowledge context every provider answers from.
// It performs no I/O and only fails when a required field is empty.
func AssembleContext(p entities.Profile) (string, error) {
	if err := checkProfile(p); err != nil {
		return "", err
	}

	var home strings.Builder
	home.WriteString("Contact Information:\n")
	fmt.Fprintf(&home, "- LinkedIn: %s\n", p.Contact.LinkedIn)
	fmt.Fprintf(&home, "- Email: %s\n", p.Contact.Email)
	fmt.Fprintf(&home, "- GitHub: %s\n", p.Contact.GitHub)
	// The site turns phone numbers into links itself.
	fmt.Fprintf(&home, "- Phone: %s (If someone asks for my phone or how to call, always answer with the digits %s, not as a markdown link. The website will make it clickable.)\n",
		p.Contact.Phone, p.Contact.Phone)
	home.WriteString("Feel free to reach out for professional networking, questions about my experience, or to discuss potential opportunities!\n\n")
	fmt.Fprintf(&home, "About: %s", p.About)

	jobs := make([]string, len(p.Experience))
	for i, job := range p.Experience {
		jobs[i] = fmt.Sprintf("Company: %s\nTitle: %s\nLocation: %s\nDate: %s\nDescription: %s\n",
			job.Company, job.Title, job.Location, job.Date, strings.Join(job.Description, " "))
	}

	edu := p.Education
	education := fmt.Sprintf("Education: %s\n%s | %s | %s\n%s\n%s\n",
		edu.Degree, edu.School, edu.Location, edu.Date, edu.Minor, edu.GPA)

	certs := make([]string, len(p.Certifications))
	for i, c := range p.Certifications {
		certs[i] = fmt.Sprintf("Certification: %s (%s)", c.Name, c.Date)
	}

	return home.String() + "\n\n" + strings.Join(jobs, "\n") + "\n" + education + "\n" + strings.Join(certs, "\n"), nil
}

func checkProfile(p entities.Profile) error {
	required := []struct {
		field string
		value string
	}{
		{"name", p.Name},
		{"contact.email", p.Contact.Email},
		{"about", p.About},
		{"education.school", p.Education.School},
		{"education.degree", p.Education.Degree},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return &ContextError{Field: r.field}
		}
	}

	for i, job := range p.Experience {
		if strings.TrimSpace(job.Company) == "" {
			return &ContextError{Field: fmt.Sprintf("experience[%d].company", i)}
		}
		if strings.TrimSpace(job.Title) == "" {
			return &ContextError{Field: fmt.Sprintf("experience[%d].title", i)}
		}
	}
	for i, c := range p.Certifications {
		if strings.TrimSpace(c.Name) == "" {
			return &ContextError{Field: fmt.Sprintf("certifications[%d].name", i)}
		}
	}
	return nil
}
