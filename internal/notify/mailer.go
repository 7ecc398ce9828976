// Package notify delivers achievement mail. Failures are the caller's
// to log; nothing here blocks or fails a submission.
package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"codequest-service/internal/domain"
	"codequest-service/internal/logging"
)

// SMTPConfig holds mail relay settings.
type SMTPConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	From        string
	FrontendURL string
}

// Mailer sends one HTML mail per notification variant over SMTP.
type Mailer struct {
	cfg  SMTPConfig
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewMailer(cfg SMTPConfig) *Mailer {
	return &Mailer{cfg: cfg, send: smtp.SendMail}
}

func (m *Mailer) SendBadgeEarned(_ context.Context, event domain.BadgeEarned) error {
	subject := fmt.Sprintf("New Badge Earned: %s!", event.Level)
	body := fmt.Sprintf(`
		<h1>New Badge Earned!</h1>
		<p>Congratulations <strong>%s</strong>!</p>
		<p>You've earned the <strong>%s</strong> badge in <strong>%s</strong>.
		Keep up the great work and continue leveling up your skills.</p>
		<p><a href="%s/profile">View your profile</a></p>`,
		event.Username, event.Level, event.LanguageName, m.cfg.FrontendURL)
	return m.deliver(event.Email, subject, body)
}

func (m *Mailer) SendCertificateEarned(_ context.Context, event domain.CertificateEarned) error {
	subject := fmt.Sprintf("Certificate Earned in %s!", event.LanguageName)
	body := fmt.Sprintf(`
		<h1>Certificate Earned!</h1>
		<p>Amazing work <strong>%s</strong>!</p>
		<p>You've completed the <strong>%s</strong> level in <strong>%s</strong>
		and earned a certificate.</p>
		<p><a href="%s">Download your certificate</a></p>
		<p><a href="%s/certificates">View all certificates</a></p>`,
		event.Username, event.Level, event.LanguageName, event.URL, m.cfg.FrontendURL)
	return m.deliver(event.Email, subject, body)
}

func (m *Mailer) deliver(to, subject, htmlBody string) error {
	var msg strings.Builder
	fmt.Fprintf(&msg, "From: CodeQuest <%s>\r\n", m.cfg.From)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(htmlBody)

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	if err := m.send(addr, auth, m.cfg.From, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}

// LogNotifier is the dev/test stand-in: it records events in the log
// instead of sending mail.
type LogNotifier struct {
	Log *logging.Logger
}

func NewLogNotifier(log *logging.Logger) *LogNotifier {
	if log == nil {
		log = logging.NewNop()
	}
	return &LogNotifier{Log: log}
}

func (n *LogNotifier) SendBadgeEarned(_ context.Context, event domain.BadgeEarned) error {
	n.Log.Info("badge notification", "email", event.Email, "level", event.Level, "language", event.LanguageName)
	return nil
}

func (n *LogNotifier) SendCertificateEarned(_ context.Context, event domain.CertificateEarned) error {
	n.Log.Info("certificate notification", "email", event.Email, "language", event.LanguageName, "url", event.URL)
	return nil
}
