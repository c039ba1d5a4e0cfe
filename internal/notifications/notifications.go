// Package notifications delivers report links to vendors.
package notifications

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
	"gopkg.in/gomail.v2"

	"github.com/tendorai/avp/internal/config"
)

// Notifier sends a vendor the link to a freshly generated report. The message
// carries only the opaque URL, never report data.
type Notifier interface {
	SendReportLink(ctx context.Context, to, companyName, url string) error
}

// New returns the notifier selected by cfg.Mode.
func New(cfg config.EmailConfig) (Notifier, error) {
	switch cfg.Mode {
	case "", "none":
		return LogNotifier{}, nil
	case "smtp":
		return NewSMTPNotifier(cfg), nil
	case "api":
		return NewAPINotifier(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported email mode: %s", cfg.Mode)
	}
}

// Message is a rendered delivery email.
type Message struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
	Text    string `json:"text"`
}

var htmlTmpl = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"><title>Your AI Visibility Report</title></head>
<body style="font-family: Arial, sans-serif; margin: 20px;">
<h2>Your AI Visibility Report is ready</h2>
<p>We have checked how AI assistants recommend {{.Company}} to potential customers.</p>
<p><a href="{{.URL}}" style="background:#2563eb;color:#fff;padding:10px 18px;border-radius:4px;text-decoration:none;">View your report</a></p>
<p style="color:#666;font-size:12px;">Anyone with this link can view the report.</p>
</body>
</html>`))

// BuildMessage renders the delivery email for one report link.
func BuildMessage(from, to, companyName, url string) (Message, error) {
	var buf bytes.Buffer
	if err := htmlTmpl.Execute(&buf, struct{ Company, URL string }{companyName, url}); err != nil {
		return Message{}, fmt.Errorf("failed to build email HTML: %w", err)
	}
	return Message{
		From:    from,
		To:      to,
		Subject: fmt.Sprintf("Your AI Visibility Report for %s", companyName),
		HTML:    buf.String(),
		Text: fmt.Sprintf("Your AI Visibility Report for %s is ready.\n\nView it here: %s\n",
			companyName, url),
	}, nil
}

// LogNotifier only logs.
type LogNotifier struct{}

func (LogNotifier) SendReportLink(_ context.Context, to, companyName, url string) error {
	log.Info().Str("to", to).Str("company", companyName).Str("url", url).Msg("email delivery disabled, report link not sent")
	return nil
}

// SMTPNotifier sends through an SMTP relay.
type SMTPNotifier struct {
	from   string
	dialer *gomail.Dialer
}

// NewSMTPNotifier creates an SMTP notifier.
func NewSMTPNotifier(cfg config.EmailConfig) *SMTPNotifier {
	from := cfg.From
	if from == "" {
		from = cfg.SMTPUsername
	}
	port := cfg.SMTPPort
	if port == 0 {
		port = 587
	}
	return &SMTPNotifier{
		from:   from,
		dialer: gomail.NewDialer(cfg.SMTPHost, port, cfg.SMTPUsername, cfg.SMTPPassword),
	}
}

func (n *SMTPNotifier) SendReportLink(ctx context.Context, to, companyName, url string) error {
	msg, err := BuildMessage(n.from, to, companyName, url)
	if err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", msg.From)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Text)
	m.AddAlternative("text/html", msg.HTML)

	done := make(chan error, 1)
	go func() { done <- n.dialer.DialAndSend(m) }()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to send email: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// APINotifier posts the message to an HTTP send API.
type APINotifier struct {
	from   string
	url    string
	client *resty.Client
}

// NewAPINotifier creates a send-API notifier.
func NewAPINotifier(cfg config.EmailConfig) *APINotifier {
	client := resty.New().SetTimeout(30 * time.Second)
	if cfg.APIKey != "" {
		client.SetAuthToken(cfg.APIKey)
	}
	return &APINotifier{from: cfg.From, url: cfg.APIURL, client: client}
}

func (n *APINotifier) SendReportLink(ctx context.Context, to, companyName, url string) error {
	msg, err := BuildMessage(n.from, to, companyName, url)
	if err != nil {
		return err
	}

	resp, err := n.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(msg).
		Post(n.url)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("email API returned status %d: %s", resp.StatusCode(), string(resp.Body()))
	}
	return nil
}
