package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/soaringjerry/Brightpath/internal/services"
)

// LogNotifier writes notices to the log instead of delivering them.
type LogNotifier struct {
	log     *zap.Logger
	appName string
}

var _ services.Notifier = (*LogNotifier)(nil)

func NewLogNotifier(log *zap.Logger, appName string) *LogNotifier {
	return &LogNotifier{log: log, appName: appName}
}

func (n *LogNotifier) NotifyAppointment(_ context.Context, notice services.AppointmentNotice) error {
	msg := Compose(n.appName, notice)
	n.log.Info("appointment notice",
		zap.String("channel", notice.Channel),
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Int64("child_id", notice.ChildID),
	)
	return nil
}
