package services

import (
	"context"
	"fmt"
	"net/mail"
	"net/smtp"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// NotificationService sends account emails
type NotificationService interface {
	SendEmail(ctx context.Context, email, subject, message string) error
}

// EmailProvider interface for email sending
type EmailProvider interface {
	SendEmail(ctx context.Context, email, subject, message string) error
}

// NotificationServiceImpl implements NotificationService
type NotificationServiceImpl struct {
	emailProvider EmailProvider
}

// NewNotificationService creates a new notification service
func NewNotificationService(emailProvider EmailProvider) NotificationService {
	return &NotificationServiceImpl{emailProvider: emailProvider}
}

// SendEmail sends an email to the specified email address
func (s *NotificationServiceImpl) SendEmail(ctx context.Context, email, subject, message string) error {
	if s.emailProvider == nil {
		return fmt.Errorf("email provider not configured")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("invalid email address: %s", email)
	}
	return s.emailProvider.SendEmail(ctx, email, subject, message)
}

// SentEmail is a message captured by MockEmailProvider
type SentEmail struct {
	To      string
	Subject string
	Body    string
}

// MockEmailProvider logs messages instead of delivering them and keeps them for inspection
type MockEmailProvider struct {
	logger zerolog.Logger
	mu     sync.Mutex
	sent   []SentEmail
}

func NewMockEmailProvider(logger zerolog.Logger) *MockEmailProvider {
	return &MockEmailProvider{logger: logger.With().Str("component", "mock_email").Logger()}
}

func (p *MockEmailProvider) SendEmail(_ context.Context, email, subject, message string) error {
	p.mu.Lock()
	p.sent = append(p.sent, SentEmail{To: email, Subject: subject, Body: message})
	p.mu.Unlock()

	p.logger.Info().Str("to", email).Str("subject", subject).Msg("email sent")
	return nil
}

// Sent returns a copy of every captured message
func (p *MockEmailProvider) Sent() []SentEmail {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]SentEmail(nil), p.sent...)
}

// SMTPEmailProvider delivers through an SMTP relay with PLAIN auth
type SMTPEmailProvider struct {
	host      string
	port      int
	username  string
	password  string
	fromEmail string
	fromName  string
	timeout   time.Duration
	send      func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPEmailProvider(host string, port int, username, password, fromEmail, fromName string, timeout time.Duration) *SMTPEmailProvider {
	return &SMTPEmailProvider{
		host:      host,
		port:      port,
		username:  username,
		password:  password,
		fromEmail: fromEmail,
		fromName:  fromName,
		timeout:   timeout,
		send:      smtp.SendMail,
	}
}

func (p *SMTPEmailProvider) SendEmail(ctx context.Context, email, subject, message string) error {
	var auth smtp.Auth
	if p.username != "" {
		auth = smtp.PlainAuth("", p.username, p.password, p.host)
	}

	from := mail.Address{Name: p.fromName, Address: p.fromEmail}
	msg := buildMessage(from.String(), email, subject, message)
	addr := fmt.Sprintf("%s:%d", p.host, p.port)

	done := make(chan error, 1)
	go func() {
		done <- p.send(addr, auth, p.fromEmail, []string{email}, msg)
	}()

	timeout := p.timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send to %s: %w", email, err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(timeout):
		return fmt.Errorf("smtp send to %s: timed out after %s", email, timeout)
	}
}

func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + strings.NewReplacer("\r", "", "\n", "").Replace(subject) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return []byte(b.String())
}
