package email

import (
	"context"
	"fmt"
	"html"
	"strings"

	"gopkg.in/gomail.v2"

	"github.com/plexpatrol/plexpatrol/internal/shared/config"
	"github.com/plexpatrol/plexpatrol/internal/shared/logger"
)

const defaultSubject = "PlexPatrol alert"

// Sender is the part of gomail.Dialer the notifier uses.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPNotifier mails each alert to the configured recipients.
type SMTPNotifier struct {
	config config.EmailConfig
	sender Sender
	logger logger.Interface
}

func NewSMTPNotifier(cfg config.EmailConfig, log logger.Interface) *SMTPNotifier {
	dialer := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword)
	return NewSMTPNotifierWithSender(cfg, dialer, log)
}

func NewSMTPNotifierWithSender(cfg config.EmailConfig, sender Sender, log logger.Interface) *SMTPNotifier {
	return &SMTPNotifier{config: cfg, sender: sender, logger: log.Named("email")}
}

// Notify sends text as a plain body with an HTML alternative. The first
// line of text becomes the subject.
func (s *SMTPNotifier) Notify(ctx context.Context, text string) bool {
	if len(s.config.To) == 0 {
		s.logger.Warnw("email alert skipped, no recipients configured")
		return false
	}
	if err := ctx.Err(); err != nil {
		return false
	}

	m := s.buildMessage(text)
	if err := s.sender.DialAndSend(m); err != nil {
		s.logger.Errorw("failed to send email alert",
			"host", s.config.SMTPHost,
			"recipients", len(s.config.To),
			"error", err,
		)
		return false
	}
	return true
}

func (s *SMTPNotifier) buildMessage(text string) *gomail.Message {
	m := gomail.NewMessage()
	if s.config.FromName != "" {
		m.SetAddressHeader("From", s.config.FromAddress, s.config.FromName)
	} else {
		m.SetHeader("From", s.config.FromAddress)
	}
	m.SetHeader("To", s.config.To...)
	m.SetHeader("Subject", subjectOf(text))

	plain := stripTags(text)
	m.SetBody("text/plain", plain)
	m.AddAlternative("text/html", fmt.Sprintf("<html><body><pre>%s</pre></body></html>", html.EscapeString(plain)))
	return m
}

func subjectOf(text string) string {
	line, _, _ := strings.Cut(stripTags(text), "\n")
	line = strings.TrimSpace(line)
	if line == "" {
		return defaultSubject
	}
	if r := []rune(line); len(r) > 120 {
		line = string(r[:120])
	}
	return line
}

// stripTags drops the inline HTML tags used by the chat alert format.
func stripTags(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>' && inTag:
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return html.UnescapeString(b.String())
}
