package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/muhdb91/therinproperty/internal/config"
	"github.com/muhdb91/therinproperty/internal/email"
)

// EmailDeliverer carries notifications out as plain-text email through a
// configured sender.
type EmailDeliverer struct {
	cfg    *config.Config
	sender email.Sender
}

func NewEmailDeliverer(cfg *config.Config, sender email.Sender) *EmailDeliverer {
	return &EmailDeliverer{cfg: cfg, sender: sender}
}

// Deliver builds the raw message including headers and hands it to the
// sender.
func (d *EmailDeliverer) Deliver(ctx context.Context, subject, body, toEmail string) error {
	fromAddress := d.cfg.SmtpFromAddress
	if fromAddress == "" {
		fromAddress = "noreply@example.com"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("To: %s\r\n", toEmail))
	sb.WriteString(fmt.Sprintf("From: %s\r\n", fromAddress))
	sb.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	sb.WriteString("Date: " + time.Now().Format(time.RFC1123Z) + "\r\n")
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	sb.WriteString("\r\n") // End of headers
	sb.WriteString(body)
	sb.WriteString("\r\n")

	if err := d.sender.Send(ctx, []string{toEmail}, subject, []byte(sb.String())); err != nil {
		return fmt.Errorf("notification email send failed: %w", err)
	}
	return nil
}
