// Package mail delivers invitation emails over SMTP, with a logging fallback
// for environments without a configured relay.
package mail

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	gomail "github.com/wneessen/go-mail"

	"github.com/example/crewcal/internal/application"
)

// SMTPConfig holds the relay settings for outbound mail.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Mailer sends invitation emails through an SMTP relay.
type Mailer struct {
	client          *gomail.Client
	from            string
	frontendBaseURL string
	logger          *slog.Logger
}

// NewMailer builds a Mailer from the relay settings. frontendBaseURL is the
// public origin the invite link points at.
func NewMailer(cfg SMTPConfig, frontendBaseURL string, logger *slog.Logger) (*Mailer, error) {
	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(cfg.Username),
		gomail.WithPassword(cfg.Password),
	}
	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Mailer{
		client:          client,
		from:            cfg.From,
		frontendBaseURL: strings.TrimRight(frontendBaseURL, "/"),
		logger:          logger,
	}, nil
}

// SendInvite emails the invitee a link that carries the invite token.
func (m *Mailer) SendInvite(ctx context.Context, toEmail, calendarName, inviterEmail string, role application.Role, inviteToken string) error {
	msg := gomail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("set sender: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return fmt.Errorf("set recipient: %w", err)
	}
	msg.Subject(fmt.Sprintf("[Calendar] Invitation to %s", calendarName))
	msg.SetBodyString(gomail.TypeTextPlain, inviteBody(calendarName, inviterEmail, role, m.inviteLink(inviteToken)))

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send invite mail: %w", err)
	}
	m.logger.InfoContext(ctx, "invite email sent", "to", toEmail, "calendar", calendarName)
	return nil
}

func (m *Mailer) inviteLink(token string) string {
	return m.frontendBaseURL + "/invite/" + token
}

func inviteBody(calendarName, inviterEmail string, role application.Role, link string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s invited you to the calendar %q as %s.\n\n", inviterEmail, calendarName, role)
	fmt.Fprintf(&b, "Open the link below to accept or decline:\n\n%s\n", link)
	return b.String()
}

// LogMailer writes invite notifications to the log instead of sending email.
// It stands in for the SMTP mailer when no relay is configured.
type LogMailer struct {
	frontendBaseURL string
	logger          *slog.Logger
}

// NewLogMailer builds the logging fallback mailer.
func NewLogMailer(frontendBaseURL string, logger *slog.Logger) *LogMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMailer{frontendBaseURL: strings.TrimRight(frontendBaseURL, "/"), logger: logger}
}

// SendInvite logs the invite that would have been mailed.
func (m *LogMailer) SendInvite(ctx context.Context, toEmail, calendarName, inviterEmail string, role application.Role, inviteToken string) error {
	m.logger.InfoContext(ctx, "invite email suppressed (no SMTP relay configured)",
		"to", toEmail,
		"calendar", calendarName,
		"inviter", inviterEmail,
		"role", string(role),
		"link", m.frontendBaseURL+"/invite/"+inviteToken,
	)
	return nil
}
