package email

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/riveravet/clinic-api/internal/config"
	"github.com/riveravet/clinic-api/internal/model"
	"github.com/riveravet/clinic-api/pkg/logger"
)

// Message is a single outgoing email.
type Message struct {
	To      string
	ToName  string
	Subject string
	HTML    string
}

// Sender delivers email through one provider.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// NewSender selects the provider named by cfg.Provider.
func NewSender(cfg config.EmailConfig, secrets config.Secrets, log *logger.Logger) (Sender, error) {
	switch cfg.Provider {
	case "smtp":
		return NewSMTPSender(SMTPConfig{
			Host:      cfg.SMTPHost,
			Port:      cfg.SMTPPort,
			Username:  cfg.SMTPUser,
			Password:  secrets.SMTPPassword,
			FromEmail: cfg.FromEmail,
			FromName:  cfg.FromName,
		}), nil
	case "sendgrid":
		if secrets.SendGridAPIKey == "" {
			return nil, fmt.Errorf("sendgrid provider requires SENDGRID_API_KEY")
		}
		return NewSendGridSender(SendGridConfig{
			APIKey:    secrets.SendGridAPIKey,
			FromEmail: cfg.FromEmail,
			FromName:  cfg.FromName,
		}, log), nil
	case "log", "":
		return NewLogSender(log), nil
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.Provider)
	}
}

// OutboxHandler delivers email.send outbox events through sender.
func OutboxHandler(sender Sender) func(ctx context.Context, event *model.OutboxEvent) error {
	return func(ctx context.Context, event *model.OutboxEvent) error {
		var payload model.EmailPayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			return fmt.Errorf("failed to decode email payload: %w", err)
		}
		if payload.To == "" {
			return fmt.Errorf("email payload has no recipient")
		}
		return sender.Send(ctx, Message{
			To:      payload.To,
			Subject: payload.Subject,
			HTML:    payload.HTML,
		})
	}
}

// LogSender writes emails to the log instead of sending them.
type LogSender struct {
	logger *logger.Logger
}

func NewLogSender(log *logger.Logger) *LogSender {
	return &LogSender{logger: log}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	s.logger.Info("email not sent, log provider active", "to", msg.To, "subject", msg.Subject)
	return nil
}
