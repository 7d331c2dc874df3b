package mail

import (
	"fmt"
	"net/smtp"
	"strings"
)

// Sender dispatches outbound mail.
type Sender interface {
	Send(to, subject, body string) error
}

// SMTPSender sends mail through a plain-auth SMTP relay.
type SMTPSender struct {
	Host     string
	Port     string
	Account  string
	Password string
	From     string
}

var _ Sender = (*SMTPSender)(nil)

// Send delivers one message.
func (s *SMTPSender) Send(to, subject, body string) error {
	msg := strings.Join([]string{
		"From: " + s.From,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"utf-8\"",
		"",
		body,
	}, "\r\n")

	auth := smtp.PlainAuth("", s.Account, s.Password, s.Host)
	addr := s.Host + ":" + s.Port
	if err := smtp.SendMail(addr, auth, s.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}
