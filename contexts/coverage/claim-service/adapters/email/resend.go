package emailadapter

import (
	"context"
	"errors"
	"log/slog"

	"showingcover/contexts/coverage/claim-service/ports"

	"github.com/resend/resend-go/v2"
)

type ResendSender struct {
	client *resend.Client
	from   string
}

func NewResendSender(apiKey string, from string) *ResendSender {
	return &ResendSender{client: resend.NewClient(apiKey), from: from}
}

func (s *ResendSender) Send(ctx context.Context, to string, email ports.RenderedEmail) (string, error) {
	if to == "" {
		return "", errors.New("missing recipient")
	}
	sent, err := s.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{to},
		Subject: email.Subject,
		Html:    email.HTML,
	})
	if err != nil {
		return "", err
	}
	return sent.Id, nil
}

// LogSender logs instead of sending. Used when no Resend key is configured.
type LogSender struct {
	Logger *slog.Logger
}

func (s LogSender) Send(_ context.Context, to string, email ports.RenderedEmail) (string, error) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("email delivery skipped",
		"event", "claim_email_logged",
		"module", "coverage/claim-service",
		"layer", "adapter",
		"to", to,
		"subject", email.Subject,
	)
	return "", nil
}
