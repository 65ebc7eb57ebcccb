// Package email delivers the account verification and recovery mails.
package email

import (
	"bytes"
	"context"
	"fmt"
	"text/template"

	"github.com/wneessen/go-mail"

	"github.com/meridianbank/authd/internal/domain"
)

// Config holds SMTP delivery settings. BaseURL is the public frontend
// origin the mailed links point at.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	BaseURL  string
}

// SMTPSender sends transactional mails over SMTP.
type SMTPSender struct {
	client *mail.Client
	from   string
	base   string
}

func NewSMTPSender(cfg Config) (*SMTPSender, error) {
	client, err := mail.NewClient(cfg.Host, smtpOptions(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return &SMTPSender{client: client, from: cfg.From, base: cfg.BaseURL}, nil
}

// smtpOptions only enables authentication when a username is configured,
// so local relays without auth keep working.
func smtpOptions(cfg Config) []mail.Option {
	opts := []mail.Option{mail.WithPort(cfg.Port)}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}
	return opts
}

var verifyTemplate = template.Must(template.New("verify").Parse(
	`Hello {{.Firstname}},

Please confirm your email address by opening the link below:

{{.Link}}

If you did not create this account you can ignore this message.
`))

var recoveryTemplate = template.Must(template.New("recovery").Parse(
	`Hello {{.Firstname}},

A password reset was requested for your account. Open the link below to
choose a new password:

{{.Link}}

If you did not request this, no action is needed.
`))

func (s *SMTPSender) SendVerifyEmail(ctx context.Context, user domain.User, token, path string) error {
	return s.send(ctx, user, "Verify your email address", verifyTemplate, token, path)
}

func (s *SMTPSender) SendRecoveryPassword(ctx context.Context, user domain.User, token, path string) error {
	return s.send(ctx, user, "Password recovery", recoveryTemplate, token, path)
}

func (s *SMTPSender) send(ctx context.Context, user domain.User, subject string, tmpl *template.Template, token, path string) error {
	link := fmt.Sprintf("%s%s?token=%s", s.base, path, token)

	var body bytes.Buffer
	if err := tmpl.Execute(&body, map[string]string{
		"Firstname": user.Profile.Firstname,
		"Link":      link,
	}); err != nil {
		return fmt.Errorf("render mail body: %w", err)
	}

	msg := mail.NewMsg()
	if err := msg.From(s.from); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	if err := msg.To(user.Identifier.Email); err != nil {
		return fmt.Errorf("mail to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body.String())

	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}
