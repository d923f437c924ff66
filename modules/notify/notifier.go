// Package notify delivers fire-and-forget admin notifications for category
// events. Delivery failures are logged, never propagated: notification I/O
// must not block or fail event processing.
package notify

import (
	"context"
	"fmt"
	"log"
	"net/smtp"
	"strings"
	"time"
)

// Notifier is the notification sink consumed by the event pipeline.
type Notifier interface {
	Notify(ctx context.Context, eventKind, categoryName string, details map[string]any)
}

// LogNotifier writes notifications to the process log. Default sink when no
// SMTP server is configured.
type LogNotifier struct{}

// Notify logs the notification.
func (LogNotifier) Notify(_ context.Context, eventKind, categoryName string, details map[string]any) {
	log.Printf("[notify] %s: category=%q details=%v", eventKind, categoryName, details)
}

// SMTPConfig holds mail delivery settings.
type SMTPConfig struct {
	Addr string // host:port
	From string
	To   string
}

// SMTPNotifier sends plain-text admin emails.
type SMTPNotifier struct {
	cfg SMTPConfig
}

// NewSMTPNotifier creates a mail-backed notifier.
func NewSMTPNotifier(cfg SMTPConfig) *SMTPNotifier {
	return &SMTPNotifier{cfg: cfg}
}

// Notify formats and sends the notification email. Errors are logged and
// swallowed.
func (n *SMTPNotifier) Notify(_ context.Context, eventKind, categoryName string, details map[string]any) {
	subject, body := composeEmail(eventKind, categoryName, details)

	msg := strings.Join([]string{
		"From: " + n.cfg.From,
		"To: " + n.cfg.To,
		"Subject: " + subject,
		"",
		body,
	}, "\r\n")

	if err := smtp.SendMail(n.cfg.Addr, nil, n.cfg.From, []string{n.cfg.To}, []byte(msg)); err != nil {
		log.Printf("[notify] failed to send %q email: %v", eventKind, err)
		return
	}
	log.Printf("[notify] sent %q email for category %q", eventKind, categoryName)
}

func composeEmail(eventKind, categoryName string, details map[string]any) (subject, body string) {
	now := time.Now().Format("02/01/2006 15:04:05")
	switch eventKind {
	case "category.created":
		subject = "New category created: " + categoryName
		body = fmt.Sprintf(
			"Hello Admin,\n\nA new category was created:\n\nCategory: %s\nTime: %s\n\nRegards,\nCatalog Admin",
			categoryName, now)
	case "category.status.changed":
		subject = "Category status changed: " + categoryName
		body = fmt.Sprintf(
			"Hello Admin,\n\nA category status was updated:\n\nCategory: %s\nOld status: %v\nNew status: %v\nAffected products: %v\nTime: %s\n\nRegards,\nCatalog Admin",
			categoryName, details["old_status"], details["new_status"], details["affected_products"], now)
	default:
		subject = "Catalog notification: " + categoryName
		body = fmt.Sprintf("Event %s for category %s at %s. Details: %v", eventKind, categoryName, now, details)
	}
	return subject, body
}
