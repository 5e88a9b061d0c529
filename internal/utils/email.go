package utils

import (
	"context"
	"fmt"
	"log"

	"github.com/wneessen/go-mail"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Mailer envoie des e-mails HTML via SMTP.
type Mailer struct {
	cfg SMTPConfig
}

func NewMailer(cfg SMTPConfig) *Mailer {
	return &Mailer{cfg: cfg}
}

func (m *Mailer) newMessage(to, subject, htmlBody string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return nil, fmt.Errorf("from %q: %w", m.cfg.From, err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("to %q: %w", to, err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)
	return msg, nil
}

func (m *Mailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	msg, err := m.newMessage(to, subject, htmlBody)
	if err != nil {
		return err
	}

	opts := []mail.Option{
		mail.WithPort(m.cfg.Port),
		mail.WithTLSPolicy(mail.TLSMandatory),
	}
	if m.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthLogin),
			mail.WithUsername(m.cfg.Username),
			mail.WithPassword(m.cfg.Password),
		)
	}
	client, err := mail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return err
	}

	log.Println("📤 Envoi de l'e-mail à", to)
	return client.DialAndSendWithContext(ctx, msg)
}
