package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/smtp"
	"time"

	"github.com/cmlabs-hris/leave-engine/internal/config"
	"github.com/cmlabs-hris/leave-engine/internal/domain/notification"
)

//go:embed templates/*.html
var templateFS embed.FS

const maxRetries = 3

var subjects = map[notification.Template]string{
	notification.TemplateLeaveRequested: "New leave request awaiting approval",
	notification.TemplateLeaveApproved:  "Your leave request was approved",
	notification.TemplateLeaveRejected:  "Your leave request was rejected",
}

// EmailService defines the interface for sending emails
type EmailService interface {
	SendNotification(to, recipientName string, tmpl notification.Template, payload map[string]any) error
}

type emailServiceImpl struct {
	cfg       config.SMTPConfig
	templates *template.Template
	backoff   time.Duration
}

// NewEmailService creates a new email service instance
func NewEmailService(cfg config.SMTPConfig) (EmailService, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse email templates: %w", err)
	}

	return &emailServiceImpl{
		cfg:       cfg,
		templates: tmpl,
		backoff:   time.Second,
	}, nil
}

type notificationEmailData struct {
	RecipientName string
	Payload       map[string]any
}

// Render returns the subject and HTML body of a notification email.
func (s *emailServiceImpl) Render(recipientName string, tmpl notification.Template, payload map[string]any) (string, string, error) {
	subject, ok := subjects[tmpl]
	if !ok {
		return "", "", fmt.Errorf("%w: %s", notification.ErrUnknownTemplate, tmpl)
	}

	var body bytes.Buffer
	data := notificationEmailData{RecipientName: recipientName, Payload: payload}
	if err := s.templates.ExecuteTemplate(&body, string(tmpl)+".html", data); err != nil {
		return "", "", fmt.Errorf("failed to execute template: %w", err)
	}
	return subject, body.String(), nil
}

// SendNotification renders tmpl and sends it to the given address.
func (s *emailServiceImpl) SendNotification(to, recipientName string, tmpl notification.Template, payload map[string]any) error {
	subject, body, err := s.Render(recipientName, tmpl, payload)
	if err != nil {
		return err
	}
	return s.sendHTML(to, subject, body)
}

func (s *emailServiceImpl) sendHTML(to, subject, htmlBody string) error {
	// Skip sending if SMTP is not configured
	if s.cfg.Host == "" {
		slog.Warn("SMTP not configured, skipping email send", "to", to, "subject", subject)
		return nil
	}

	from := s.cfg.From

	headers := fmt.Sprintf("From: %s <%s>\r\n", s.cfg.FromName, from)
	headers += fmt.Sprintf("To: %s\r\n", to)
	headers += fmt.Sprintf("Subject: %s\r\n", subject)
	headers += "MIME-Version: 1.0\r\n"
	headers += "Content-Type: text/html; charset=\"UTF-8\"\r\n"
	headers += "\r\n"

	message := []byte(headers + htmlBody)

	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		err := smtp.SendMail(addr, auth, from, []string{to}, message)
		if err == nil {
			slog.Info("Email sent successfully", "to", to, "subject", subject, "attempt", attempt)
			return nil
		}

		lastErr = err
		slog.Error("Failed to send email",
			"to", to,
			"subject", subject,
			"attempt", attempt,
			"max_retries", maxRetries,
			"error", err,
		)

		// Exponential backoff: 1s, 2s
		if attempt < maxRetries {
			time.Sleep(s.backoff * time.Duration(1<<(attempt-1)))
		}
	}

	return fmt.Errorf("failed to send email after %d attempts: %w", maxRetries, lastErr)
}
