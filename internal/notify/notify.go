package notify

import (
	"fmt"
	"strings"

	"github.com/soaringjerry/Brightpath/internal/services"
)

// Message is a rendered appointment notice.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Compose renders the subject and bodies for a notice.
func Compose(appName string, n services.AppointmentNotice) Message {
	a := n.Appointment
	verb := "scheduled"
	if n.Event == "rescheduled" {
		verb = "rescheduled"
	}
	subject := fmt.Sprintf("Appointment %s: %s on %s at %s", verb, a.Type, a.Date, a.Time)

	var b strings.Builder
	fmt.Fprintf(&b, "Your %s with %s (%s) has been %s.\n\n", a.Type, a.Professional.Name, a.Professional.Specialty, verb)
	fmt.Fprintf(&b, "Date: %s\nTime: %s (%s)\nDuration: %s\nLocation: %s\n\n", a.Date, a.Time, a.Professional.Timezone, a.Duration, a.Location)
	b.WriteString("You'll receive reminders 1 day and 10 minutes before your appointment.\n")
	fmt.Fprintf(&b, "\n%s\n", appName)
	text := b.String()

	return Message{
		To:      n.Recipient,
		Subject: subject,
		Text:    text,
		HTML:    "<pre>" + htmlEscape(text) + "</pre>",
	}
}

var htmlReplacer = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&#34;", "'", "&#39;")

func htmlEscape(s string) string { return htmlReplacer.Replace(s) }
