// Package mailer renders and sends transactional emails.
//
// Rendering is shared; delivery goes through a Sender chosen by configuration
// (SendPulse, Resend, or a log-only sender for local development).
package mailer

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"shopapi/internal/config"
	"shopapi/internal/model"
)

// Template names a file under templates/.
type Template string

const (
	TemplateOrderConfirmation Template = "order_confirmation"
	TemplateAdminNewOrder     Template = "admin_new_order"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.New("").Funcs(template.FuncMap{
	"money": func(v fmt.Stringer, currency string) string { return currency + " " + v.String() },
}).ParseFS(templateFS, "templates/*.html"))

// Address is a named mailbox.
type Address struct {
	Name  string
	Email string
}

func (a Address) String() string {
	if a.Name == "" {
		return a.Email
	}
	return fmt.Sprintf("%s <%s>", a.Name, a.Email)
}

// Message is a rendered email ready for delivery.
type Message struct {
	From    Address
	To      []Address
	Subject string
	HTML    string
}

// Sender delivers a rendered message.
type Sender interface {
	Send(ctx context.Context, m Message) error
}

// Mailer renders order emails and hands them to a Sender.
type Mailer struct {
	sender        Sender
	from          Address
	adminAddress  string
	storefrontURL string
	logger        zerolog.Logger
}

func New(sender Sender, cfg config.MailConfig, logger zerolog.Logger) *Mailer {
	return &Mailer{
		sender:        sender,
		from:          Address{Name: cfg.FromName, Email: cfg.FromAddress},
		adminAddress:  cfg.AdminAddress,
		storefrontURL: cfg.StorefrontBaseURL,
		logger:        logger.With().Str("component", "mailer").Logger(),
	}
}

// NewSender builds the Sender selected by cfg.Provider.
func NewSender(cfg config.MailConfig, logger zerolog.Logger) (Sender, error) {
	switch cfg.Provider {
	case "sendpulse":
		return NewSendPulse(cfg.SendPulseBaseURL, cfg.SendPulseClientID, cfg.SendPulseSecret), nil
	case "resend":
		return NewResend(cfg.ResendAPIKey), nil
	case "log", "":
		return NewLogSender(logger), nil
	default:
		return nil, errors.Errorf("unknown mail provider %q", cfg.Provider)
	}
}

type orderEmailData struct {
	Order         *model.Order
	StorefrontURL string
}

// SendOrderConfirmation emails the buyer a receipt for a paid order.
func (m *Mailer) SendOrderConfirmation(ctx context.Context, o *model.Order) error {
	if o.BuyerEmail == "" {
		m.logger.Warn().Str("order_number", o.OrderNumber).Msg("order has no buyer email, skipping confirmation")
		return nil
	}
	return m.send(ctx, Address{Name: o.BuyerName, Email: o.BuyerEmail},
		fmt.Sprintf("Order %s confirmed", o.OrderNumber),
		TemplateOrderConfirmation, orderEmailData{Order: o, StorefrontURL: m.storefrontURL})
}

// SendAdminNewOrder notifies the shop admin address about a paid order.
func (m *Mailer) SendAdminNewOrder(ctx context.Context, o *model.Order) error {
	if m.adminAddress == "" {
		return nil
	}
	return m.send(ctx, Address{Email: m.adminAddress},
		fmt.Sprintf("New order %s (%s %s)", o.OrderNumber, o.Currency, o.Total.StringFixed(0)),
		TemplateAdminNewOrder, orderEmailData{Order: o, StorefrontURL: m.storefrontURL})
}

func (m *Mailer) send(ctx context.Context, to Address, subject string, name Template, data any) error {
	html, err := Render(name, data)
	if err != nil {
		return err
	}
	msg := Message{From: m.from, To: []Address{to}, Subject: subject, HTML: html}
	if err := m.sender.Send(ctx, msg); err != nil {
		return errors.Wrapf(err, "send %s email", name)
	}
	m.logger.Info().Str("template", string(name)).Str("to", to.Email).Msg("email sent")
	return nil
}

// Render executes a named template.
func Render(name Template, data any) (string, error) {
	var body bytes.Buffer
	if err := templates.ExecuteTemplate(&body, string(name)+".html", data); err != nil {
		return "", errors.Wrapf(err, "failed to execute email template %s", name)
	}
	return body.String(), nil
}

// LogSender writes messages to the log instead of delivering them.
type LogSender struct {
	logger zerolog.Logger
}

func NewLogSender(logger zerolog.Logger) *LogSender {
	return &LogSender{logger: logger.With().Str("component", "mailer").Logger()}
}

func (s *LogSender) Send(_ context.Context, m Message) error {
	to := make([]string, 0, len(m.To))
	for _, a := range m.To {
		to = append(to, a.Email)
	}
	s.logger.Info().Strs("to", to).Str("subject", m.Subject).Int("html_bytes", len(m.HTML)).Msg("email (log provider)")
	return nil
}
