package mail

import (
	"context"
	"log/slog"

	"tienda/config"

	"github.com/pkg/errors"
	"gopkg.in/gomail.v2"
)

// sender delivers one fully built message.
type sender interface {
	Send(ctx context.Context, msg *gomail.Message) error
}

// smtpSender dials the SMTP server per message.
type smtpSender struct {
	dialer *gomail.Dialer
}

func newSMTPSender(cfg *config.MailConfig) *smtpSender {
	return &smtpSender{dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)}
}

func (s *smtpSender) Send(_ context.Context, msg *gomail.Message) error {
	if err := s.dialer.DialAndSend(msg); err != nil {
		return errors.Wrap(err, "smtp send failed")
	}

	return nil
}

// logSender stands in when no SMTP host is configured.
type logSender struct {
	logger *slog.Logger
}

func (s *logSender) Send(ctx context.Context, msg *gomail.Message) error {
	s.logger.InfoContext(ctx, "[Mail] SMTP not configured, mail not sent",
		slog.Any("to", msg.GetHeader("To")),
		slog.Any("subject", msg.GetHeader("Subject")),
	)

	return nil
}
