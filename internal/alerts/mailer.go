package alerts

import (
	"fmt"
	"net/smtp"
	"os"

	"go.uber.org/zap"
)

// Mailer sends plain text email over SMTP. When SMTP is not configured it
// logs the send instead, which is what dev and CI run with.
type Mailer struct {
	host     string
	port     string
	username string
	password string
	from     string
	log      *zap.Logger
}

// NewMailerFromEnv reads SMTP_HOST, SMTP_PORT, SMTP_USERNAME,
// SMTP_PASSWORD and SMTP_FROM. Missing config is not an error.
func NewMailerFromEnv(log *zap.Logger) *Mailer {
	return &Mailer{
		host:     os.Getenv("SMTP_HOST"),
		port:     os.Getenv("SMTP_PORT"),
		username: os.Getenv("SMTP_USERNAME"),
		password: os.Getenv("SMTP_PASSWORD"),
		from:     os.Getenv("SMTP_FROM"),
		log:      log,
	}
}

func (m *Mailer) configured() bool {
	return m.host != "" && m.port != "" && m.username != "" && m.password != "" && m.from != ""
}

// Send delivers one message, or logs it when SMTP is not set up.
func (m *Mailer) Send(to, subject, body string) error {
	if !m.configured() {
		m.log.Info("mail (smtp unconfigured, logged only)",
			zap.String("to", to), zap.String("subject", subject))
		return nil
	}

	msg := []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n", m.from, to, subject, body))
	addr := m.host + ":" + m.port
	auth := smtp.PlainAuth("", m.username, m.password, m.host)
	if err := smtp.SendMail(addr, auth, m.from, []string{to}, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
