package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"github.com/soaringjerry/Brightpath/internal/services"
)

const (
	DefaultSendgridHost = "https://api.sendgrid.com"
	sendgridEndpoint    = "/v3/mail/send"
)

// SendgridNotifier delivers email notices. Other channels are handed to fallback.
type SendgridNotifier struct {
	key        string
	host       string
	appName    string
	from       *sgmail.Email
	subjPrefix string
	fallback   services.Notifier
	log        *zap.Logger
}

var _ services.Notifier = (*SendgridNotifier)(nil)

func NewSendgridNotifier(key, host, appName, fromEmail string, fallback services.Notifier, log *zap.Logger) *SendgridNotifier {
	if host == "" {
		host = DefaultSendgridHost
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &SendgridNotifier{
		key:        key,
		host:       host,
		appName:    appName,
		from:       sgmail.NewEmail(appName, fromEmail),
		subjPrefix: "[" + appName + "] ",
		fallback:   fallback,
		log:        log,
	}
}

func (s *SendgridNotifier) NotifyAppointment(ctx context.Context, n services.AppointmentNotice) error {
	if n.Channel != "email" {
		if s.fallback != nil {
			return s.fallback.NotifyAppointment(ctx, n)
		}
		return nil
	}
	if n.Recipient == "" {
		return errors.New("sendgrid: no recipient")
	}
	msg := Compose(s.appName, n)

	req := sendgrid.GetRequest(s.key, sendgridEndpoint, s.host)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(s.prepare(msg))

	res, err := sendgrid.API(req)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid: status %d: %s", res.StatusCode, res.Body)
	}
	s.log.Info("appointment email sent", zap.String("to", msg.To), zap.Int64("appointment_id", n.Appointment.ID))
	return nil
}

func (s *SendgridNotifier) prepare(msg Message) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = s.subjPrefix + msg.Subject
	p.AddTos(sgmail.NewEmail("", msg.To))

	m := sgmail.NewV3Mail()
	m.SetFrom(s.from)
	m.AddPersonalizations(p)
	m.AddContent(
		sgmail.NewContent("text/plain", msg.Text),
		sgmail.NewContent("text/html", msg.HTML),
	)
	return m
}
