package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"storefront-service/internal/models"
)

// Mailer is the email collaborator. Callers treat every send as
// fire-and-forget: failures are logged by the worker, never propagated.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPMailer delivers mail over plain SMTP.
type SMTPMailer struct {
	addr string
	from string
}

// NewSMTPMailer creates a mailer targeting the given SMTP address.
func NewSMTPMailer(addr, from string) *SMTPMailer {
	return &SMTPMailer{addr: addr, from: from}
}

// Send delivers a single plain-text email.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	msg := strings.Join([]string{
		"From: " + m.from,
		"To: " + to,
		"Subject: " + subject,
		"",
		body,
	}, "\r\n")

	if err := smtp.SendMail(m.addr, nil, m.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}

// ConfirmationBody renders the order confirmation email.
func ConfirmationBody(event *models.OrderPlacedEvent) (subject, body string) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Hi %s,\n\n", event.CustomerName)
	sb.WriteString("Thanks for your order! It is now being processed.\n\n")
	fmt.Fprintf(&sb, "Tracking id: %s\n\n", event.TrackingID)
	for _, item := range event.Items {
		fmt.Fprintf(&sb, "  %dml x%d at %s\n", item.Size, item.Quantity, item.UnitPrice.StringFixed(2))
	}
	fmt.Fprintf(&sb, "\nSubtotal: %s\nShipping: %s\n",
		event.Subtotal.StringFixed(2), event.ShippingFee.StringFixed(2))

	return fmt.Sprintf("Order confirmation #%s", event.TrackingID), sb.String()
}

// CancellationBody renders the order cancellation email.
func CancellationBody(event *models.OrderCancelledEvent) (subject, body string) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Hi %s,\n\n", event.CustomerName)
	fmt.Fprintf(&sb, "Your order %s has been cancelled.\n", event.TrackingID)
	if event.Reason != "" {
		fmt.Fprintf(&sb, "Reason: %s\n", event.Reason)
	}
	sb.WriteString("\nAny reserved items have been returned to stock.\n")

	return fmt.Sprintf("Order cancelled #%s", event.TrackingID), sb.String()
}
