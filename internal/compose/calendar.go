package compose

import (
	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"github.com/shineum/mailcast/internal/config"
)

// calendarPayload renders a calendar attachment as a single-event
// VCALENDAR invitation.
func calendarPayload(att config.CalendarAttachment) []byte {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodRequest)

	event := cal.AddEvent(uuid.New().String())
	event.SetDtStampTime(att.Start)
	event.SetStartAt(att.Start)
	if att.End != nil {
		event.SetEndAt(*att.End)
	}
	event.SetSummary(att.Summary)
	if att.Description != "" {
		event.SetDescription(att.Description)
	}
	if att.Organizer != nil {
		if att.Organizer.Name != "" {
			event.SetOrganizer("MAILTO:"+att.Organizer.Address, ics.WithCN(att.Organizer.Name))
		} else {
			event.SetOrganizer("MAILTO:" + att.Organizer.Address)
		}
	}

	return []byte(cal.Serialize())
}
