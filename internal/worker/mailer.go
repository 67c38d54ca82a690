package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/resend/resend-go/v2"
	"go.uber.org/zap"

	"github.com/gatherly/backend/pkg/queue"
)

// Mailer sends registration notification emails through the Resend API.
type Mailer struct {
	client *resend.Client
	from   string
	logger *zap.Logger
}

// NewMailer creates a Resend-backed mailer. fromName may be empty.
func NewMailer(apiKey, fromAddress, fromName string, logger *zap.Logger) *Mailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	from := fromAddress
	if fromName != "" {
		from = fmt.Sprintf("%s <%s>", fromName, fromAddress)
	}
	return &Mailer{client: resend.NewClient(apiKey), from: from, logger: logger}
}

// Send composes and delivers the email for one queued payload.
func (m *Mailer) Send(ctx context.Context, p queue.EmailPayload) error {
	subject, html := compose(p)
	params := &resend.SendEmailRequest{
		From:    m.from,
		To:      []string{p.RecipientEmail},
		Subject: subject,
		Html:    html,
	}
	sent, err := m.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		var rateLimitErr *resend.RateLimitError
		if errors.As(err, &rateLimitErr) {
			m.logger.Warn("resend rate limit exceeded",
				zap.String("limit", rateLimitErr.Limit),
				zap.String("reset", rateLimitErr.Reset))
			return fmt.Errorf("email rate limit exceeded: %w", err)
		}
		return fmt.Errorf("resend API error: %w", err)
	}
	m.logger.Info("email sent",
		zap.String("email_id", sent.Id),
		zap.String("to", p.RecipientEmail),
		zap.String("kind", string(p.Kind)))
	return nil
}

func compose(p queue.EmailPayload) (subject, html string) {
	when := p.EventDate.Format("Monday, 2 January 2006 at 15:04")
	switch p.Kind {
	case queue.EmailRegistrationCancelled:
		subject = "Registration cancelled: " + p.EventTitle
		html = fmt.Sprintf(
			"<p>Hi %s,</p><p>Your registration for <strong>%s</strong> on %s has been cancelled.</p><p>Changed your mind? You can register again as long as seats remain.</p>",
			p.RecipientName, p.EventTitle, when)
	default:
		subject = "You're registered: " + p.EventTitle
		html = fmt.Sprintf(
			"<p>Hi %s,</p><p>You're confirmed for <strong>%s</strong>.</p><p>When: %s<br>Where: %s</p><p>See you there!</p>",
			p.RecipientName, p.EventTitle, when, p.EventLocation)
	}
	return subject, html
}
