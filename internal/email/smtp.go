// Package email envía los reportes operativos del harvest por SMTP.
package email

import (
	"context"
	"crypto/tls"
	"fmt"

	mail "github.com/go-mail/mail"

	"github.com/dropDatabas3/brandkit/internal/observability/logger"
)

// Sender envía un email de texto plano (y html opcional).
type Sender interface {
	Send(ctx context.Context, to []string, subject, textBody, htmlBody string) error
}

// SMTPSender implementa Sender usando go-mail.
type SMTPSender struct {
	Host string
	Port int
	From string
	User string
	Pass string
	// SSL fuerza TLS implícito (puerto 465); si no, go-mail negocia STARTTLS.
	SSL bool
}

func NewSMTPSender(host string, port int, from, user, pass string) *SMTPSender {
	return &SMTPSender{Host: host, Port: port, From: from, User: user, Pass: pass, SSL: port == 465}
}

func (s *SMTPSender) Send(ctx context.Context, to []string, subject, textBody, htmlBody string) error {
	log := logger.From(ctx).With(
		logger.Component("smtp"),
		logger.String("host", s.Host),
		logger.Int("port", s.Port),
		logger.Count(len(to)),
	)
	if len(to) == 0 {
		return fmt.Errorf("smtp send: no recipients")
	}

	m := mail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", to...)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", textBody)
	if htmlBody != "" {
		m.AddAlternative("text/html", htmlBody)
	}

	d := mail.NewDialer(s.Host, s.Port, s.User, s.Pass)
	d.TLSConfig = &tls.Config{ServerName: s.Host}
	d.SSL = s.SSL

	if err := d.DialAndSend(m); err != nil {
		log.Error("smtp send failed", logger.Err(err))
		return fmt.Errorf("smtp send: %w", err)
	}
	log.Info("email sent")
	return nil
}
