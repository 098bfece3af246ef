package usecases

import (
	"fmt"

	"github.com/0xcro3dile/portfolio-chat/internal/domain/entities"
)

// QuotaMessage is shown when the primary's monthly quota is spent and no
// fallback answered.
func QuotaMessage(c entities.Contact) string {
	return "I'm sorry, but I've hit my message limit for the month and can't answer more questions right now. " +
		"If you need to reach me, please contact me" + reachVia(c) + ". Thank you for your understanding!"
}

// GenericMessage is shown for every unclassified failure.
func GenericMessage(c entities.Contact) string {
	return "I'm experiencing some technical difficulties right now and can't answer your question. " +
		"Please feel free to reach out to me directly" + reachVia(c) + ". I'd be happy to help you personally!"
}

// UnavailableMessage is shown when neither provider could be reached.
func UnavailableMessage(c entities.Contact) string {
	return "My answer service is temporarily unreachable, so I can't reply right now. " +
		"Please try again in a few minutes, or contact me" + reachVia(c) + "."
}

func reachVia(c entities.Contact) string {
	switch {
	case c.LinkedIn != "" && c.Email != "":
		return fmt.Sprintf(" via LinkedIn %s or by email at %s", c.LinkedIn, c.Email)
	case c.LinkedIn != "":
		return " via LinkedIn " + c.LinkedIn
	case c.Email != "":
		return " by email at " + c.Email
	default:
		return ""
	}
}
