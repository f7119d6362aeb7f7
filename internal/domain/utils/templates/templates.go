package templates

import (
	"fmt"

	"github.com/gatherkit/rsvp-service/internal/domain/entity"
)

const timeLayout = "Monday, 2 January 2006 at 15:04"

// Renderer is the bundled template renderer. Real deployments are expected
// to swap in their own rendering collaborator; this one produces plain-text
// bodies only.
type Renderer struct{}

func New() *Renderer {
	return &Renderer{}
}

func (r *Renderer) Render(kind string, response *entity.Response, event *entity.Event, user *entity.User) (string, string) {
	start := event.StartTime.Format(timeLayout)

	if days, ok := entity.IsReminderKind(kind); ok {
		subject := fmt.Sprintf("Reminder: %s", event.Name)
		body := fmt.Sprintf("Hi %s,\n\n%s starts in %d day(s), on %s. See you there!", user.FirstName, event.Name, days, start)
		return subject, body
	}

	switch kind {
	case entity.KindWaitlistPromotion:
		subject := fmt.Sprintf("You're in: %s", event.Name)
		body := fmt.Sprintf("Hi %s,\n\nA spot opened up and you are now attending %s on %s.", user.FirstName, event.Name, start)
		return subject, body
	default:
		subject := fmt.Sprintf("Registration confirmed: %s", event.Name)
		body := fmt.Sprintf("Hi %s,\n\nYour response for %s on %s was recorded.", user.FirstName, event.Name, start)
		if response.Status == entity.ResponseStatusWaitlisted && response.WaitlistPosition != nil {
			body = fmt.Sprintf("%s\n\nThe event is currently full; you are #%d on the waitlist.", body, *response.WaitlistPosition)
		}
		return subject, body
	}
}
