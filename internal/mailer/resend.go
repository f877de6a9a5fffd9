package mailer

import (
	"context"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/resend/resend-go/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Resend delivers email through the Resend API.
type Resend struct {
	client *resend.Client
}

func NewResend(apiKey string) *Resend {
	hc := &http.Client{
		Timeout:   15 * time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
	return &Resend{client: resend.NewCustomClient(hc, apiKey)}
}

func (r *Resend) Send(ctx context.Context, m Message) error {
	to := make([]string, 0, len(m.To))
	for _, a := range m.To {
		to = append(to, a.String())
	}
	_, err := r.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    m.From.String(),
		To:      to,
		Subject: m.Subject,
		Html:    m.HTML,
	})
	if err != nil {
		return errors.Wrap(err, "resend: send email")
	}
	return nil
}
